// Package market implements the price feed source.
package market

import (
	"context"
	"fmt"
	"strings"
	"time"

	"wallet_engine/internal/domain/entity"
	"wallet_engine/internal/pkg/utils"

	jsoniter "github.com/json-iterator/go"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	retryBaseDelay = 500 * time.Millisecond
	retryMaxDelay  = 4 * time.Second
	maxRetries     = 2
)

// Client talks to the market data API. It implements port.PriceSource.
type Client struct {
	baseURL string
	client  *fasthttp.Client
	timeout time.Duration
	logger  *zap.Logger
}

// NewClient creates a new market data client.
func NewClient(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  &fasthttp.Client{},
		timeout: timeout,
		logger:  logger.Named("MarketClient"),
	}
}

type priceResponse struct {
	Symbol string  `json:"symbol"`
	Price  float64 `json:"price"`
}

// GetPrices fetches fiat quotes for the given symbols. Symbols the feed
// cannot price are absent from the result; that is not an error.
func (c *Client) GetPrices(ctx context.Context, symbols []string, currency string) ([]entity.TokenPrice, error) {
	if len(symbols) == 0 {
		return []entity.TokenPrice{}, nil
	}

	url := fmt.Sprintf("%s/market/prices?symbols=%s&currency=%s",
		c.baseURL, strings.Join(symbols, ","), strings.ToLower(currency))

	body, err := c.doGet(ctx, url)
	if err != nil {
		return nil, err
	}

	var resp []priceResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode price response: %w", err)
	}

	prices := make([]entity.TokenPrice, 0, len(resp))
	for _, p := range resp {
		if p.Symbol == "" || p.Price <= 0 {
			continue
		}
		prices = append(prices, entity.TokenPrice{Symbol: p.Symbol, Price: p.Price})
	}
	return prices, nil
}

func (c *Client) doGet(ctx context.Context, url string) ([]byte, error) {
	for attempt := 0; ; attempt++ {
		status, body, err := c.roundTrip(url)

		switch {
		case err != nil:
			return nil, fmt.Errorf("market request failed: %w", err)
		case status == fasthttp.StatusTooManyRequests:
			if attempt >= maxRetries {
				return nil, fmt.Errorf("market request rate limited after %d retries", maxRetries)
			}
			delay := utils.RetryDelay(attempt, retryBaseDelay, retryMaxDelay)
			c.logger.Warn("Market API rate limited, backing off",
				zap.Int("attempt", attempt+1),
				zap.Duration("delay", delay))
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		case status != fasthttp.StatusOK:
			return nil, fmt.Errorf("market request returned status %d", status)
		default:
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
