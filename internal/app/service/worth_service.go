package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"wallet_engine/internal/app/port"
	"wallet_engine/internal/domain/entity"
	"wallet_engine/internal/pkg/utils"
	"wallet_engine/pkg/metrics"

	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/errgroup"
)

const (
	defaultPriceTTL       = 5 * time.Minute
	defaultPriceBatchSize = 30
)

// unpricedWorth is the sort key for tokens the feed has no quote for: they
// rank below even zero-worth priced tokens.
const unpricedWorth = -1

// WorthServiceConfig tunes the price cache and feed access.
type WorthServiceConfig struct {
	Currency              string
	PriceTTL              time.Duration
	MaxSymbolsPerRequest  int
	MaxConcurrentRoutines int
}

// priceEntry is one cached quote. Resolved is recorded even when the feed
// has no price for the symbol, so "not priced" is distinguishable from
// "not fetched yet".
type priceEntry struct {
	price  float64
	priced bool
}

// worthServiceImpl implements port.WorthService.
type worthServiceImpl struct {
	prices                port.PriceSource
	tokenList             port.TokenListProvider
	logger                port.Logger
	quotes                *cache.Cache
	currency              string
	maxSymbolsPerRequest  int
	maxConcurrentRoutines int

	mu         sync.RWMutex
	listedByID map[string]entity.FungibleToken
}

// NewWorthService creates a new worth service.
func NewWorthService(prices port.PriceSource, tokens port.TokenListProvider, l port.Logger, cfg WorthServiceConfig) port.WorthService {
	if cfg.Currency == "" {
		cfg.Currency = "usd"
	}
	if cfg.PriceTTL <= 0 {
		cfg.PriceTTL = defaultPriceTTL
	}
	if cfg.MaxSymbolsPerRequest <= 0 {
		cfg.MaxSymbolsPerRequest = defaultPriceBatchSize
	}
	if cfg.MaxConcurrentRoutines <= 0 {
		cfg.MaxConcurrentRoutines = 1
	}
	return &worthServiceImpl{
		prices:                prices,
		tokenList:             tokens,
		logger:                l,
		quotes:                cache.New(cfg.PriceTTL, cfg.PriceTTL*2),
		currency:              cfg.Currency,
		maxSymbolsPerRequest:  cfg.MaxSymbolsPerRequest,
		maxConcurrentRoutines: cfg.MaxConcurrentRoutines,
	}
}

// RefreshPrices fetches quotes for the native coin and every listed symbol
// and caches them. Symbols the feed returns nothing for are cached as
// unpriced; they contribute zero worth, which is a data-quality signal,
// not an error.
func (s *worthServiceImpl) RefreshPrices(ctx context.Context) error {
	listed, err := s.loadTokenList()
	if err != nil {
		metrics.PriceRefreshTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("failed to load token list for price refresh: %w", err)
	}

	symbolSet := make(map[string]struct{}, len(listed)+1)
	symbolSet[strings.ToUpper(entity.AlphToken.Symbol)] = struct{}{}
	for _, token := range listed {
		if token.Symbol != "" {
			symbolSet[strings.ToUpper(token.Symbol)] = struct{}{}
		}
	}
	symbols := make([]string, 0, len(symbolSet))
	for symbol := range symbolSet {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)

	if len(symbols) == 0 {
		return nil
	}

	eg, childCtx := errgroup.WithContext(ctx)
	eg.SetLimit(s.maxConcurrentRoutines)

	for _, batch := range utils.BatchStrings(symbols, s.maxSymbolsPerRequest) {
		currentBatch := batch
		eg.Go(func() error {
			quotes, err := s.prices.GetPrices(childCtx, currentBatch, s.currency)
			if err != nil {
				s.logger.Error("Failed to fetch token prices", "symbols", len(currentBatch), "error", err)
				return fmt.Errorf("price fetch failed for %d symbols: %w", len(currentBatch), err)
			}

			quoted := make(map[string]float64, len(quotes))
			for _, q := range quotes {
				quoted[strings.ToUpper(q.Symbol)] = q.Price
			}
			for _, symbol := range currentBatch {
				price, ok := quoted[symbol]
				s.quotes.SetDefault(symbol, priceEntry{price: price, priced: ok})
				if !ok {
					s.logger.Debug("No quote for listed symbol", "symbol", symbol)
				}
			}
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		metrics.PriceRefreshTotal.WithLabelValues("error").Inc()
		return err
	}
	metrics.PriceRefreshTotal.WithLabelValues("success").Inc()
	s.logger.Info("Token prices refreshed", "symbols", len(symbols), "currency", s.currency)
	return nil
}

// PriceBySymbol returns the cached quote for a symbol. The boolean is false
// both for unknown symbols and for symbols the feed could not price.
func (s *worthServiceImpl) PriceBySymbol(symbol string) (float64, bool) {
	raw, ok := s.quotes.Get(strings.ToUpper(symbol))
	if !ok {
		return 0, false
	}
	entry := raw.(priceEntry)
	return entry.price, entry.priced
}

// ComputeWorth values a set of aggregated token balances. The native coin's
// pseudo entry counts like any listed token; beyond that only listed tokens
// contribute, and unlisted balances are worth zero regardless of size.
// IsLoading is true while any required symbol has no cache entry yet, or
// while the token list itself cannot be loaded; an empty balance set
// short-circuits to zero without loading.
func (s *worthServiceImpl) ComputeWorth(balances []entity.TokenApiBalances) port.WorthResult {
	result := port.WorthResult{Tokens: []port.WorthRankedToken{}}

	listed, err := s.loadTokenList()
	if err != nil {
		s.logger.Error("Failed to load token list for worth computation", "error", err)
		result.IsLoading = true
		return result
	}
	listedByID := make(map[string]entity.FungibleToken, len(listed))
	for _, token := range listed {
		listedByID[token.ID] = token
	}

	for _, balance := range balances {
		token, ok := listedByID[balance.TokenID]
		if balance.TokenID == entity.AlphTokenID {
			token, ok = entity.AlphToken, true
		}
		if !ok || balance.IsZero() {
			continue
		}

		ranked := port.WorthRankedToken{
			Token:   token,
			Balance: bigIntText(balance),
		}

		raw, cached := s.quotes.Get(strings.ToUpper(token.Symbol))
		if !cached {
			result.IsLoading = true
		} else if entry := raw.(priceEntry); entry.priced {
			ranked.Priced = true
			ranked.Worth = utils.CalculateTokenAmountWorth(balance.Total, entry.price, token.Decimals)
			result.Worth += ranked.Worth
		}

		result.Tokens = append(result.Tokens, ranked)
	}

	result.Tokens = SortByWorth(result.Tokens)
	return result
}

func bigIntText(balance entity.TokenApiBalances) string {
	if balance.Total == nil {
		return "0"
	}
	return balance.Total.String()
}

// SortByWorth orders tokens by worth descending for display ranking.
// Unpriced tokens sort as worth -1, below even zero-worth priced tokens.
// Ties break by token name ascending, then token id ascending, so the
// ordering is fully deterministic.
func SortByWorth(tokens []port.WorthRankedToken) []port.WorthRankedToken {
	sorted := make([]port.WorthRankedToken, len(tokens))
	copy(sorted, tokens)

	sort.SliceStable(sorted, func(i, j int) bool {
		wi, wj := sortWorth(sorted[i]), sortWorth(sorted[j])
		if wi != wj {
			return wi > wj
		}
		if sorted[i].Token.Name != sorted[j].Token.Name {
			return sorted[i].Token.Name < sorted[j].Token.Name
		}
		return sorted[i].Token.ID < sorted[j].Token.ID
	})
	return sorted
}

func sortWorth(t port.WorthRankedToken) float64 {
	if !t.Priced {
		return unpricedWorth
	}
	return t.Worth
}

func (s *worthServiceImpl) loadTokenList() ([]entity.FungibleToken, error) {
	s.mu.RLock()
	cached := s.listedByID
	s.mu.RUnlock()
	if cached != nil {
		tokens := make([]entity.FungibleToken, 0, len(cached))
		for _, token := range cached {
			tokens = append(tokens, token)
		}
		return tokens, nil
	}

	tokens, err := s.tokenList.GetTokenList()
	if err != nil {
		return nil, err
	}

	byID := make(map[string]entity.FungibleToken, len(tokens))
	for _, token := range tokens {
		if token.Listed {
			byID[token.ID] = token
		}
	}

	s.mu.Lock()
	s.listedByID = byID
	s.mu.Unlock()

	listed := make([]entity.FungibleToken, 0, len(byID))
	for _, token := range byID {
		listed = append(listed, token)
	}
	return listed, nil
}
