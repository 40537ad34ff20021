// Package explorer implements the transaction and balance sources against
// the explorer backend REST API.
package explorer

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"time"

	"wallet_engine/internal/domain/entity"
	"wallet_engine/internal/pkg/utils"
	"wallet_engine/pkg/metrics"

	jsoniter "github.com/json-iterator/go"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	retryBaseDelay = 500 * time.Millisecond
	retryMaxDelay  = 8 * time.Second
)

// Client talks to the explorer backend. It implements both
// port.TransactionSource and port.BalanceSource.
type Client struct {
	baseURL    string
	client     *fasthttp.Client
	timeout    time.Duration
	limiter    *rate.Limiter
	maxRetries int
	logger     *zap.Logger
}

// Config tunes the client's transport behaviour.
type Config struct {
	BaseURL      string
	Timeout      time.Duration
	MaxRetries   int
	RateLimitRPS float64
	BurstLimit   int
}

// NewClient creates a new explorer client.
func NewClient(cfg Config, logger *zap.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.RateLimitRPS <= 0 {
		cfg.RateLimitRPS = 5
	}
	if cfg.BurstLimit <= 0 {
		cfg.BurstLimit = 1
	}
	return &Client{
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		client:     &fasthttp.Client{},
		timeout:    cfg.Timeout,
		limiter:    rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), cfg.BurstLimit),
		maxRetries: cfg.MaxRetries,
		logger:     logger.Named("ExplorerClient"),
	}
}

type balanceResponse struct {
	Balance       string `json:"balance"`
	LockedBalance string `json:"lockedBalance"`
}

type tokenBalanceResponse struct {
	TokenID       string `json:"tokenId"`
	Balance       string `json:"balance"`
	LockedBalance string `json:"lockedBalance"`
}

type tokenAmountResponse struct {
	ID     string `json:"id"`
	Amount string `json:"amount"`
}

type assetInputResponse struct {
	Address        string                `json:"address"`
	AttoAlphAmount string                `json:"attoAlphAmount"`
	Tokens         []tokenAmountResponse `json:"tokens"`
}

type assetOutputResponse struct {
	Address        string                `json:"address"`
	AttoAlphAmount string                `json:"attoAlphAmount"`
	Tokens         []tokenAmountResponse `json:"tokens"`
	LockTime       int64                 `json:"lockTime,omitempty"`
}

type transactionResponse struct {
	Hash      string                `json:"hash"`
	Timestamp int64                 `json:"timestamp"`
	Inputs    []assetInputResponse  `json:"inputs"`
	Outputs   []assetOutputResponse `json:"outputs"`
	GasAmount int                   `json:"gasAmount"`
	GasPrice  string                `json:"gasPrice"`
}

// GetAlphBalance fetches the native balance triple of one address.
func (c *Client) GetAlphBalance(ctx context.Context, address string) (entity.ApiBalances, error) {
	body, err := c.doGet(ctx, "address_balance", fmt.Sprintf("/addresses/%s/balance", address))
	if err != nil {
		return entity.ApiBalances{}, err
	}

	var resp balanceResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return entity.ApiBalances{}, fmt.Errorf("failed to decode balance for %s: %w", address, err)
	}
	return c.toApiBalances(resp.Balance, resp.LockedBalance), nil
}

// GetTokenBalances fetches the token balance triples of one address.
func (c *Client) GetTokenBalances(ctx context.Context, address string) ([]entity.TokenApiBalances, error) {
	body, err := c.doGet(ctx, "address_token_balances", fmt.Sprintf("/addresses/%s/tokens-balance", address))
	if err != nil {
		return nil, err
	}

	var resp []tokenBalanceResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode token balances for %s: %w", address, err)
	}

	balances := make([]entity.TokenApiBalances, 0, len(resp))
	for _, tb := range resp {
		if tb.TokenID == "" {
			continue
		}
		balances = append(balances, entity.TokenApiBalances{
			TokenID:     tb.TokenID,
			ApiBalances: c.toApiBalances(tb.Balance, tb.LockedBalance),
		})
	}
	return balances, nil
}

// GetAddressTransactions fetches one page of an address's confirmed
// transactions. Pages start at 1.
func (c *Client) GetAddressTransactions(ctx context.Context, address string, page, limit int) ([]entity.ConfirmedTransaction, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	path := fmt.Sprintf("/addresses/%s/transactions?page=%d&limit=%d", address, page, limit)
	body, err := c.doGet(ctx, "address_transactions", path)
	if err != nil {
		return nil, err
	}

	var resp []transactionResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode transactions for %s: %w", address, err)
	}

	txs := make([]entity.ConfirmedTransaction, 0, len(resp))
	for _, tx := range resp {
		txs = append(txs, c.toConfirmedTransaction(tx))
	}
	return txs, nil
}

func (c *Client) toConfirmedTransaction(resp transactionResponse) entity.ConfirmedTransaction {
	tx := entity.ConfirmedTransaction{
		Hash:      resp.Hash,
		Timestamp: time.UnixMilli(resp.Timestamp),
		GasAmount: resp.GasAmount,
		GasPrice:  c.parseBigInt(resp.GasPrice),
	}

	for _, in := range resp.Inputs {
		input := entity.AssetInput{
			Address:        in.Address,
			AttoAlphAmount: c.parseBigInt(in.AttoAlphAmount),
		}
		for _, token := range in.Tokens {
			input.Tokens = append(input.Tokens, entity.TokenAmount{ID: token.ID, Amount: c.parseBigInt(token.Amount)})
		}
		tx.Inputs = append(tx.Inputs, input)
	}

	for _, out := range resp.Outputs {
		output := entity.AssetOutput{
			Address:        out.Address,
			AttoAlphAmount: c.parseBigInt(out.AttoAlphAmount),
		}
		for _, token := range out.Tokens {
			output.Tokens = append(output.Tokens, entity.TokenAmount{ID: token.ID, Amount: c.parseBigInt(token.Amount)})
		}
		if out.LockTime > 0 {
			lockTime := time.UnixMilli(out.LockTime)
			output.LockTime = &lockTime
		}
		tx.Outputs = append(tx.Outputs, output)
	}
	return tx
}

// toApiBalances derives the triple from the explorer's balance and
// lockedBalance strings: available = total - locked.
func (c *Client) toApiBalances(total, locked string) entity.ApiBalances {
	balances := entity.ApiBalances{
		Total:  c.parseBigInt(total),
		Locked: c.parseBigInt(locked),
	}
	balances.Available = new(big.Int).Sub(balances.Total, balances.Locked)
	if balances.Available.Sign() < 0 {
		balances.Available.SetInt64(0)
	}
	return balances
}

// parseBigInt decodes a decimal string, treating malformed or empty values
// as zero so one bad record cannot break a whole listing.
func (c *Client) parseBigInt(s string) *big.Int {
	if s == "" {
		return new(big.Int)
	}
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		c.logger.Warn("Malformed big integer in explorer payload", zap.String("value", s))
		return new(big.Int)
	}
	return v
}

// doGet performs one rate-limited GET. Rate-limiting responses (429) are
// retried with exponential backoff up to maxRetries; any other failure is
// returned as-is.
func (c *Client) doGet(ctx context.Context, endpoint, path string) ([]byte, error) {
	url := c.baseURL + path

	for attempt := 0; ; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		start := time.Now()
		status, body, err := c.roundTrip(url)
		metrics.ExplorerRequestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())

		switch {
		case err != nil:
			metrics.ExplorerRequestsTotal.WithLabelValues(endpoint, "error").Inc()
			return nil, fmt.Errorf("explorer request %s failed: %w", path, err)
		case status == fasthttp.StatusTooManyRequests:
			metrics.ExplorerRequestsTotal.WithLabelValues(endpoint, "rate_limited").Inc()
			if attempt >= c.maxRetries {
				return nil, fmt.Errorf("explorer request %s rate limited after %d retries", path, c.maxRetries)
			}
			delay := utils.RetryDelay(attempt, retryBaseDelay, retryMaxDelay)
			c.logger.Warn("Explorer rate limited, backing off",
				zap.String("path", path),
				zap.Int("attempt", attempt+1),
				zap.Duration("delay", delay))
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		case status != fasthttp.StatusOK:
			metrics.ExplorerRequestsTotal.WithLabelValues(endpoint, "error").Inc()
			return nil, fmt.Errorf("explorer request %s returned status %d", path, status)
		default:
			metrics.ExplorerRequestsTotal.WithLabelValues(endpoint, "success").Inc()
			return body, nil
		}
	}
}

func (c *Client) roundTrip(url string) (int, []byte, error) {
	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	req.SetRequestURI(url)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set("Accept", "application/json")

	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	if err := c.client.DoTimeout(req, resp, c.timeout); err != nil {
		return 0, nil, err
	}

	body := make([]byte, len(resp.Body()))
	copy(body, resp.Body())
	return resp.StatusCode(), body, nil
}
