package restapi

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"

	"wallet_engine/internal/app/port"
	"wallet_engine/internal/app/service"
	"wallet_engine/internal/domain/entity"

	"github.com/gin-gonic/gin"
)

type stubRegistry struct {
	addresses []string
	err       error
}

func (s *stubRegistry) GetAddresses() ([]string, error) { return s.addresses, s.err }

type stubAggregator struct {
	aggregated  entity.AggregatedBalances
	refreshErr  error
	includeAlph bool
}

func (s *stubAggregator) Refresh(context.Context, []string) error { return s.refreshErr }
func (s *stubAggregator) AggregateWalletBalances(_ []string, includeAlph bool) entity.AggregatedBalances {
	s.includeAlph = includeAlph
	return s.aggregated
}
func (s *stubAggregator) AggregateAddressBalances(address string) (entity.AddressBalances, bool) {
	return entity.AddressBalances{Address: address}, false
}
func (s *stubAggregator) InvalidateAddress(string) {}
func (s *stubAggregator) InvalidateAll()           {}

type stubWorth struct {
	result port.WorthResult
}

func (s *stubWorth) RefreshPrices(context.Context) error  { return nil }
func (s *stubWorth) PriceBySymbol(string) (float64, bool) { return 0, false }
func (s *stubWorth) ComputeWorth([]entity.TokenApiBalances) port.WorthResult {
	return s.result
}

type stubHistory struct {
	entries []port.HistoryEntry
	err     error
}

func (s *stubHistory) AddressHistory(context.Context, string, int, int) ([]port.HistoryEntry, error) {
	return s.entries, s.err
}

func newTestRouter(registry *stubRegistry, aggregator *stubAggregator, worth *stubWorth, history *stubHistory) *gin.Engine {
	gin.SetMode(gin.TestMode)
	return SetupRouter(NewWalletHandler(registry, aggregator, worth, history))
}

func perform(router *gin.Engine, method, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, target, nil)
	router.ServeHTTP(w, req)
	return w
}

func TestGetWalletBalancesHandler(t *testing.T) {
	aggregated := entity.AggregatedBalances{Alph: entity.NewApiBalances()}
	aggregated.Alph.Total.SetInt64(500)
	aggregated.Tokens = []entity.TokenApiBalances{
		{TokenID: entity.AlphTokenID, ApiBalances: aggregated.Alph},
	}

	aggregator := &stubAggregator{aggregated: aggregated}
	router := newTestRouter(&stubRegistry{addresses: []string{"addr-a"}}, aggregator, &stubWorth{}, &stubHistory{})

	w := perform(router, http.MethodGet, "/api/v1/wallet/balances")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !aggregator.includeAlph {
		t.Fatalf("expected includeAlph to default to true")
	}

	var resp struct {
		Data struct {
			TokenBalances []struct {
				TokenID      string `json:"tokenId"`
				TotalBalance string `json:"totalBalance"`
			} `json:"tokenBalances"`
		} `json:"data"`
		StatusMessage string `json:"status_message"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Data.TokenBalances) != 1 || resp.Data.TokenBalances[0].TotalBalance != "500" {
		t.Fatalf("expected string-encoded balances, got %+v", resp.Data.TokenBalances)
	}
	if resp.StatusMessage != "Balances retrieved successfully." {
		t.Fatalf("unexpected status message %q", resp.StatusMessage)
	}
}

func TestGetWalletBalancesHandler_IncludeAlphQuery(t *testing.T) {
	aggregator := &stubAggregator{aggregated: entity.AggregatedBalances{Alph: entity.NewApiBalances()}}
	router := newTestRouter(&stubRegistry{addresses: []string{"addr-a"}}, aggregator, &stubWorth{}, &stubHistory{})

	perform(router, http.MethodGet, "/api/v1/wallet/balances?includeAlph=false")
	if aggregator.includeAlph {
		t.Fatalf("expected includeAlph=false honored")
	}
}

func TestGetWalletBalancesHandler_StatusMessages(t *testing.T) {
	tests := []struct {
		name       string
		aggregated entity.AggregatedBalances
		want       string
	}{
		{
			name:       "loading",
			aggregated: entity.AggregatedBalances{Alph: entity.NewApiBalances(), IsLoading: true},
			want:       "Balances are still loading.",
		},
		{
			name:       "error wins over loading",
			aggregated: entity.AggregatedBalances{Alph: entity.NewApiBalances(), IsLoading: true, Error: true},
			want:       "Some balance queries failed. Totals may be incomplete.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTestRouter(&stubRegistry{addresses: []string{"addr-a"}},
				&stubAggregator{aggregated: tt.aggregated}, &stubWorth{}, &stubHistory{})
			w := perform(router, http.MethodGet, "/api/v1/wallet/balances")

			var resp struct {
				StatusMessage string `json:"status_message"`
			}
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if resp.StatusMessage != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, resp.StatusMessage)
			}
		})
	}
}

func TestGetWalletBalancesHandler_RegistryFailure(t *testing.T) {
	router := newTestRouter(&stubRegistry{err: errors.New("unreadable")},
		&stubAggregator{}, &stubWorth{}, &stubHistory{})

	w := perform(router, http.MethodGet, "/api/v1/wallet/balances")
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
}

func TestGetWalletWorthHandler(t *testing.T) {
	worth := &stubWorth{result: port.WorthResult{Worth: 20, Tokens: []port.WorthRankedToken{}}}
	router := newTestRouter(&stubRegistry{addresses: []string{"addr-a"}},
		&stubAggregator{aggregated: entity.AggregatedBalances{Alph: entity.NewApiBalances()}}, worth, &stubHistory{})

	w := perform(router, http.MethodGet, "/api/v1/wallet/worth")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var resp struct {
		Data struct {
			Worth     float64 `json:"worth"`
			IsLoading bool    `json:"isLoading"`
		} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Data.Worth != 20 || resp.Data.IsLoading {
		t.Fatalf("unexpected worth payload %+v", resp.Data)
	}
}

func TestGetWalletWorthHandler_LoadingBalancesPropagate(t *testing.T) {
	worth := &stubWorth{result: port.WorthResult{Worth: 0}}
	aggregator := &stubAggregator{aggregated: entity.AggregatedBalances{Alph: entity.NewApiBalances(), IsLoading: true}}
	router := newTestRouter(&stubRegistry{addresses: []string{"addr-a"}}, aggregator, worth, &stubHistory{})

	w := perform(router, http.MethodGet, "/api/v1/wallet/worth")

	var resp struct {
		Data struct {
			IsLoading bool `json:"isLoading"`
		} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !resp.Data.IsLoading {
		t.Fatalf("expected loading balances to mark worth as loading")
	}
}

type quietLogger struct{}

func (quietLogger) Info(string, ...any)  {}
func (quietLogger) Debug(string, ...any) {}
func (quietLogger) Warn(string, ...any)  {}
func (quietLogger) Error(string, ...any) {}

type fixedPriceSource struct {
	prices map[string]float64
}

func (f *fixedPriceSource) GetPrices(_ context.Context, symbols []string, _ string) ([]entity.TokenPrice, error) {
	var quotes []entity.TokenPrice
	for _, symbol := range symbols {
		if price, ok := f.prices[symbol]; ok {
			quotes = append(quotes, entity.TokenPrice{Symbol: symbol, Price: price})
		}
	}
	return quotes, nil
}

type emptyTokenList struct{}

func (emptyTokenList) GetTokenList() ([]entity.FungibleToken, error) { return nil, nil }

func TestGetWalletWorthHandler_NativeCoinOnlyWallet(t *testing.T) {
	// A wallet holding nothing but 1 ALPH, quoted at $2.00. The aggregate
	// handed to the worth service carries the native coin as a pseudo-token
	// entry, and the headline worth must reflect it.
	worthService := service.NewWorthService(
		&fixedPriceSource{prices: map[string]float64{"ALPH": 2.00}},
		emptyTokenList{},
		quietLogger{},
		service.WorthServiceConfig{Currency: "usd"},
	)
	if err := worthService.RefreshPrices(context.Background()); err != nil {
		t.Fatalf("price refresh failed: %v", err)
	}

	oneAlph := entity.NewApiBalances()
	oneAlph.Total = new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)
	aggregated := entity.AggregatedBalances{
		Alph: oneAlph,
		Tokens: []entity.TokenApiBalances{
			{TokenID: entity.AlphTokenID, ApiBalances: oneAlph},
		},
	}

	aggregator := &stubAggregator{aggregated: aggregated}
	gin.SetMode(gin.TestMode)
	router := SetupRouter(NewWalletHandler(&stubRegistry{addresses: []string{"addr-a"}}, aggregator, worthService, &stubHistory{}))

	w := perform(router, http.MethodGet, "/api/v1/wallet/worth")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !aggregator.includeAlph {
		t.Fatalf("expected the worth route to aggregate the native coin entry")
	}

	var resp struct {
		Data struct {
			Worth     float64 `json:"worth"`
			IsLoading bool    `json:"isLoading"`
		} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Data.IsLoading {
		t.Fatalf("expected resolved worth, got isLoading")
	}
	if math.Abs(resp.Data.Worth-2.00) > 1e-9 {
		t.Fatalf("expected worth $2.00 for 1 ALPH, got %v", resp.Data.Worth)
	}
}

func TestGetAddressTransactionsHandler(t *testing.T) {
	history := &stubHistory{entries: []port.HistoryEntry{
		{Hash: "tx-1", InfoType: entity.InfoWalletOutgoing, AlphDelta: "-101"},
	}}
	router := newTestRouter(&stubRegistry{}, &stubAggregator{}, &stubWorth{}, history)

	w := perform(router, http.MethodGet, "/api/v1/addresses/addr-a/transactions?page=1&limit=20")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var resp struct {
		Data []port.HistoryEntry `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Data) != 1 || resp.Data[0].Hash != "tx-1" {
		t.Fatalf("unexpected history payload %+v", resp.Data)
	}
}

func TestGetAddressTransactionsHandler_UpstreamFailure(t *testing.T) {
	history := &stubHistory{err: errors.New("explorer down")}
	router := newTestRouter(&stubRegistry{}, &stubAggregator{}, &stubWorth{}, history)

	w := perform(router, http.MethodGet, "/api/v1/addresses/addr-a/transactions")
	if w.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", w.Code)
	}
}

func TestRefreshHandler(t *testing.T) {
	router := newTestRouter(&stubRegistry{addresses: []string{"addr-a"}},
		&stubAggregator{}, &stubWorth{}, &stubHistory{})

	w := perform(router, http.MethodPost, "/api/v1/wallet/refresh")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestRefreshHandler_Failure(t *testing.T) {
	router := newTestRouter(&stubRegistry{addresses: []string{"addr-a"}},
		&stubAggregator{refreshErr: errors.New("boom")}, &stubWorth{}, &stubHistory{})

	w := perform(router, http.MethodPost, "/api/v1/wallet/refresh")
	if w.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", w.Code)
	}
}

func TestHealthEndpoint(t *testing.T) {
	router := newTestRouter(&stubRegistry{}, &stubAggregator{}, &stubWorth{}, &stubHistory{})

	w := perform(router, http.MethodGet, "/health")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}
