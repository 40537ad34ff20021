package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"wallet_engine/internal/app/port"
	"wallet_engine/internal/domain/entity"
	"wallet_engine/pkg/metrics"

	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/errgroup"
)

const (
	assetClassAlph   = "alph"
	assetClassTokens = "tokens"

	defaultStaleTTL   = time.Minute
	defaultGCInterval = 5 * time.Minute
)

// BalanceAggregatorConfig tunes the snapshot store and the fan-out.
type BalanceAggregatorConfig struct {
	StaleTTL              time.Duration
	GCInterval            time.Duration
	MaxConcurrentRoutines int
}

// balanceAggregatorImpl implements port.BalanceAggregator. Resolved
// per-(address, asset-class) snapshots live in a TTL cache; aggregation is
// a pure fold over whatever snapshots have resolved, so partial results are
// revised upward as fetches complete and never retracted.
type balanceAggregatorImpl struct {
	source                port.BalanceSource
	logger                port.Logger
	snapshots             *cache.Cache
	maxConcurrentRoutines int

	mu       sync.Mutex
	inflight map[string]struct{}
}

type balanceSnapshot struct {
	alph   entity.ApiBalances
	tokens []entity.TokenApiBalances
	err    error
}

// NewBalanceAggregator creates a new balance aggregator backed by source.
func NewBalanceAggregator(source port.BalanceSource, l port.Logger, cfg BalanceAggregatorConfig) port.BalanceAggregator {
	if cfg.StaleTTL <= 0 {
		cfg.StaleTTL = defaultStaleTTL
	}
	if cfg.GCInterval <= 0 {
		cfg.GCInterval = defaultGCInterval
	}
	if cfg.MaxConcurrentRoutines <= 0 {
		cfg.MaxConcurrentRoutines = 1
	}
	return &balanceAggregatorImpl{
		source:                source,
		logger:                l,
		snapshots:             cache.New(cfg.StaleTTL, cfg.GCInterval),
		maxConcurrentRoutines: cfg.MaxConcurrentRoutines,
		inflight:              make(map[string]struct{}),
	}
}

// Refresh fetches every (address, asset-class) unit that is neither cached
// nor already in flight. Units are independent and order-insensitive; two
// concurrent refreshes for the same address share one underlying fetch.
func (s *balanceAggregatorImpl) Refresh(ctx context.Context, addresses []string) error {
	eg, childCtx := errgroup.WithContext(ctx)
	eg.SetLimit(s.maxConcurrentRoutines)

	for _, address := range addresses {
		for _, class := range []string{assetClassAlph, assetClassTokens} {
			key := snapshotKey(class, address)
			if !s.claim(key) {
				metrics.BalanceSnapshotHits.Inc()
				continue
			}
			metrics.BalanceSnapshotMisses.Inc()

			addr, cls := address, class
			eg.Go(func() error {
				defer s.release(snapshotKey(cls, addr))
				s.fetchUnit(childCtx, cls, addr)
				return nil
			})
		}
	}

	return eg.Wait()
}

// claim reports whether the caller should fetch the given unit, marking it
// in flight when so.
func (s *balanceAggregatorImpl) claim(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, cached := s.snapshots.Get(key); cached {
		return false
	}
	if _, busy := s.inflight[key]; busy {
		return false
	}
	s.inflight[key] = struct{}{}
	return true
}

func (s *balanceAggregatorImpl) release(key string) {
	s.mu.Lock()
	delete(s.inflight, key)
	s.mu.Unlock()
}

func (s *balanceAggregatorImpl) fetchUnit(ctx context.Context, class, address string) {
	var snap balanceSnapshot
	switch class {
	case assetClassAlph:
		snap.alph, snap.err = s.source.GetAlphBalance(ctx, address)
	case assetClassTokens:
		snap.tokens, snap.err = s.source.GetTokenBalances(ctx, address)
	}

	if snap.err != nil {
		if ctx.Err() != nil {
			// Cancelled, not failed: the unit stays unresolved and is
			// fetched again by the next refresh.
			return
		}
		s.logger.Warn("Balance fetch failed", "address", address, "asset_class", class, "error", snap.err)
	}
	s.snapshots.SetDefault(snapshotKey(class, address), snap)
}

// AggregateWalletBalances merges the resolved snapshots of the given
// addresses into wallet-level totals. The merge is commutative and
// associative: resolution order never changes the result. When includeAlph
// is set, the native coin joins the token list as a pseudo-token entry,
// but only while its total is non-zero.
func (s *balanceAggregatorImpl) AggregateWalletBalances(addresses []string, includeAlph bool) entity.AggregatedBalances {
	agg := entity.AggregatedBalances{Alph: entity.NewApiBalances()}
	tokenTotals := make(map[string]entity.TokenApiBalances)

	for _, address := range addresses {
		alphSnap, alphOK := s.lookup(assetClassAlph, address, &agg)
		if alphOK {
			agg.Alph.Add(alphSnap.alph)
		}

		tokenSnap, tokensOK := s.lookup(assetClassTokens, address, &agg)
		if !tokensOK {
			continue
		}
		for _, tb := range tokenSnap.tokens {
			if tb.IsZero() {
				continue
			}
			total, ok := tokenTotals[tb.TokenID]
			if !ok {
				total = entity.TokenApiBalances{TokenID: tb.TokenID, ApiBalances: entity.NewApiBalances()}
				tokenTotals[tb.TokenID] = total
			}
			total.Add(tb.ApiBalances)
		}
	}

	ids := make([]string, 0, len(tokenTotals))
	for id := range tokenTotals {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	agg.Tokens = make([]entity.TokenApiBalances, 0, len(ids)+1)
	if includeAlph && !agg.Alph.IsZero() {
		agg.Tokens = append(agg.Tokens, entity.TokenApiBalances{
			TokenID:     entity.AlphTokenID,
			ApiBalances: agg.Alph,
		})
	}
	for _, id := range ids {
		agg.Tokens = append(agg.Tokens, tokenTotals[id])
	}

	return agg
}

// lookup fetches one snapshot from the store and folds its state into the
// aggregate's flags. A missing snapshot marks the aggregate loading; a
// failed one marks it errored; an in-flight one marks it fetching.
func (s *balanceAggregatorImpl) lookup(class, address string, agg *entity.AggregatedBalances) (balanceSnapshot, bool) {
	key := snapshotKey(class, address)

	s.mu.Lock()
	_, busy := s.inflight[key]
	s.mu.Unlock()
	if busy {
		agg.IsFetching = true
	}

	raw, ok := s.snapshots.Get(key)
	if !ok {
		agg.IsLoading = true
		return balanceSnapshot{}, false
	}
	snap := raw.(balanceSnapshot)
	if snap.err != nil {
		agg.Error = true
		return balanceSnapshot{}, false
	}
	return snap, true
}

// AggregateAddressBalances returns one address's snapshot and whether both
// its asset classes have resolved without error.
func (s *balanceAggregatorImpl) AggregateAddressBalances(address string) (entity.AddressBalances, bool) {
	var probe entity.AggregatedBalances

	alphSnap, alphOK := s.lookup(assetClassAlph, address, &probe)
	tokenSnap, tokensOK := s.lookup(assetClassTokens, address, &probe)
	if !alphOK || !tokensOK {
		return entity.AddressBalances{Address: address}, false
	}

	return entity.AddressBalances{
		Address: address,
		Alph:    alphSnap.alph,
		Tokens:  tokenSnap.tokens,
	}, true
}

// InvalidateAddress drops an address's snapshots, e.g. after the address
// was removed from the wallet.
func (s *balanceAggregatorImpl) InvalidateAddress(address string) {
	s.snapshots.Delete(snapshotKey(assetClassAlph, address))
	s.snapshots.Delete(snapshotKey(assetClassTokens, address))
}

// InvalidateAll drops every snapshot. Called on network or wallet switch so
// stale results are never merged into the new context's aggregate.
func (s *balanceAggregatorImpl) InvalidateAll() {
	s.snapshots.Flush()
}

func snapshotKey(class, address string) string {
	return class + "/" + address
}
