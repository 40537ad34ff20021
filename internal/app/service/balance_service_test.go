package service

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"testing"

	"wallet_engine/internal/domain/entity"
)

type nopLogger struct{}

func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

// fakeBalanceSource serves canned balances and counts calls per address.
type fakeBalanceSource struct {
	mu         sync.Mutex
	alph       map[string]entity.ApiBalances
	tokens     map[string][]entity.TokenApiBalances
	failing    map[string]bool
	alphCalls  map[string]int
	tokenCalls map[string]int
}

func newFakeBalanceSource() *fakeBalanceSource {
	return &fakeBalanceSource{
		alph:       make(map[string]entity.ApiBalances),
		tokens:     make(map[string][]entity.TokenApiBalances),
		failing:    make(map[string]bool),
		alphCalls:  make(map[string]int),
		tokenCalls: make(map[string]int),
	}
}

func (f *fakeBalanceSource) setAlph(address string, total int64) {
	b := entity.NewApiBalances()
	b.Total.SetInt64(total)
	b.Available.SetInt64(total)
	f.alph[address] = b
}

func (f *fakeBalanceSource) setToken(address, tokenID string, total int64) {
	b := entity.TokenApiBalances{TokenID: tokenID, ApiBalances: entity.NewApiBalances()}
	b.Total.SetInt64(total)
	b.Available.SetInt64(total)
	f.tokens[address] = append(f.tokens[address], b)
}

func (f *fakeBalanceSource) GetAlphBalance(ctx context.Context, address string) (entity.ApiBalances, error) {
	if err := ctx.Err(); err != nil {
		return entity.ApiBalances{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.alphCalls[address]++
	if f.failing[address] {
		return entity.ApiBalances{}, errors.New("explorer unavailable")
	}
	if b, ok := f.alph[address]; ok {
		return b, nil
	}
	return entity.NewApiBalances(), nil
}

func (f *fakeBalanceSource) GetTokenBalances(ctx context.Context, address string) ([]entity.TokenApiBalances, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tokenCalls[address]++
	if f.failing[address] {
		return nil, errors.New("explorer unavailable")
	}
	return f.tokens[address], nil
}

func newTestAggregator(source *fakeBalanceSource) *balanceAggregatorImpl {
	agg := NewBalanceAggregator(source, nopLogger{}, BalanceAggregatorConfig{MaxConcurrentRoutines: 4})
	return agg.(*balanceAggregatorImpl)
}

func TestAggregateWalletBalances_MergesAddresses(t *testing.T) {
	t.Parallel()

	source := newFakeBalanceSource()
	source.setAlph("addr-a", 500)
	source.setToken("addr-b", "token-x", 10)

	agg := newTestAggregator(source)
	if err := agg.Refresh(context.Background(), []string{"addr-a", "addr-b"}); err != nil {
		t.Fatalf("refresh failed: %v", err)
	}

	result := agg.AggregateWalletBalances([]string{"addr-a", "addr-b"}, true)
	if result.IsLoading || result.Error {
		t.Fatalf("expected fully resolved aggregate, got isLoading=%v error=%v", result.IsLoading, result.Error)
	}
	if len(result.Tokens) != 2 {
		t.Fatalf("expected [ALPH, token-x], got %d entries", len(result.Tokens))
	}
	if result.Tokens[0].TokenID != entity.AlphTokenID || result.Tokens[0].Total.Cmp(big.NewInt(500)) != 0 {
		t.Fatalf("expected leading ALPH entry of 500, got %s=%s", result.Tokens[0].TokenID, result.Tokens[0].Total)
	}
	if result.Tokens[1].TokenID != "token-x" || result.Tokens[1].Total.Cmp(big.NewInt(10)) != 0 {
		t.Fatalf("expected token-x total 10, got %s=%s", result.Tokens[1].TokenID, result.Tokens[1].Total)
	}
}

func TestAggregateWalletBalances_ZeroAlphExcluded(t *testing.T) {
	t.Parallel()

	source := newFakeBalanceSource()
	source.setToken("addr-b", "token-x", 10)

	agg := newTestAggregator(source)
	if err := agg.Refresh(context.Background(), []string{"addr-b"}); err != nil {
		t.Fatalf("refresh failed: %v", err)
	}

	result := agg.AggregateWalletBalances([]string{"addr-b"}, true)
	for _, tb := range result.Tokens {
		if tb.TokenID == entity.AlphTokenID {
			t.Fatalf("expected no ALPH pseudo entry for a zero native balance")
		}
	}
	if len(result.Tokens) != 1 || result.Tokens[0].TokenID != "token-x" {
		t.Fatalf("expected only token-x, got %v", result.Tokens)
	}
}

func TestAggregateWalletBalances_OrderIndependent(t *testing.T) {
	t.Parallel()

	source := newFakeBalanceSource()
	source.setAlph("addr-a", 100)
	source.setAlph("addr-b", 200)
	source.setToken("addr-a", "token-x", 3)
	source.setToken("addr-b", "token-x", 4)
	source.setToken("addr-b", "token-y", 5)

	agg := newTestAggregator(source)
	if err := agg.Refresh(context.Background(), []string{"addr-a", "addr-b"}); err != nil {
		t.Fatalf("refresh failed: %v", err)
	}

	forward := agg.AggregateWalletBalances([]string{"addr-a", "addr-b"}, true)
	reverse := agg.AggregateWalletBalances([]string{"addr-b", "addr-a"}, true)

	if fmt.Sprint(forward.Tokens) != fmt.Sprint(reverse.Tokens) {
		t.Fatalf("aggregation depends on address order:\n%v\n%v", forward.Tokens, reverse.Tokens)
	}
	if forward.Alph.Total.Cmp(big.NewInt(300)) != 0 {
		t.Fatalf("expected native total 300, got %s", forward.Alph.Total)
	}
}

func TestAggregateWalletBalances_Idempotent(t *testing.T) {
	t.Parallel()

	source := newFakeBalanceSource()
	source.setAlph("addr-a", 100)
	source.setToken("addr-a", "token-x", 7)

	agg := newTestAggregator(source)
	if err := agg.Refresh(context.Background(), []string{"addr-a"}); err != nil {
		t.Fatalf("refresh failed: %v", err)
	}

	first := agg.AggregateWalletBalances([]string{"addr-a"}, true)
	second := agg.AggregateWalletBalances([]string{"addr-a"}, true)
	if fmt.Sprint(first.Tokens) != fmt.Sprint(second.Tokens) {
		t.Fatalf("repeated aggregation over the same snapshots diverged:\n%v\n%v", first.Tokens, second.Tokens)
	}
}

func TestAggregateWalletBalances_LoadingAndErrorFlags(t *testing.T) {
	t.Parallel()

	source := newFakeBalanceSource()
	source.setAlph("addr-a", 100)
	source.failing["addr-b"] = true

	agg := newTestAggregator(source)

	// Nothing fetched yet: the aggregate is loading but still usable.
	early := agg.AggregateWalletBalances([]string{"addr-a"}, true)
	if !early.IsLoading {
		t.Fatalf("expected isLoading before any snapshot resolves")
	}
	if early.Alph.Total.Sign() != 0 {
		t.Fatalf("expected zero partial total, got %s", early.Alph.Total)
	}

	if err := agg.Refresh(context.Background(), []string{"addr-a", "addr-b"}); err != nil {
		t.Fatalf("refresh failed: %v", err)
	}

	result := agg.AggregateWalletBalances([]string{"addr-a", "addr-b"}, true)
	if !result.Error {
		t.Fatalf("expected error flag from the failing address")
	}
	if result.IsLoading {
		t.Fatalf("failed snapshots are resolved, not loading")
	}
	// The healthy address still contributes.
	if result.Alph.Total.Cmp(big.NewInt(100)) != 0 {
		t.Fatalf("expected partial total 100 despite the failure, got %s", result.Alph.Total)
	}
}

func TestRefresh_DedupsResolvedUnits(t *testing.T) {
	t.Parallel()

	source := newFakeBalanceSource()
	source.setAlph("addr-a", 100)

	agg := newTestAggregator(source)
	ctx := context.Background()
	if err := agg.Refresh(ctx, []string{"addr-a"}); err != nil {
		t.Fatalf("refresh failed: %v", err)
	}
	if err := agg.Refresh(ctx, []string{"addr-a"}); err != nil {
		t.Fatalf("refresh failed: %v", err)
	}

	source.mu.Lock()
	calls := source.alphCalls["addr-a"]
	source.mu.Unlock()
	if calls != 1 {
		t.Fatalf("expected a single fetch for a cached unit, got %d", calls)
	}
}

func TestRefresh_CancelledFetchIsNotCached(t *testing.T) {
	t.Parallel()

	source := newFakeBalanceSource()
	agg := newTestAggregator(source)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := agg.Refresh(ctx, []string{"addr-a"}); err != nil {
		t.Fatalf("refresh returned error: %v", err)
	}

	// A cancelled fetch must not park a snapshot that the next refresh
	// would then skip.
	result := agg.AggregateWalletBalances([]string{"addr-a"}, true)
	if result.Error {
		t.Fatalf("cancellation must not surface as a balance error")
	}
	if !result.IsLoading {
		t.Fatalf("expected the unit to stay unresolved after cancellation")
	}

	source.setAlph("addr-a", 100)
	if err := agg.Refresh(context.Background(), []string{"addr-a"}); err != nil {
		t.Fatalf("refresh failed: %v", err)
	}
	retried := agg.AggregateWalletBalances([]string{"addr-a"}, true)
	if retried.IsLoading || retried.Alph.Total.Cmp(big.NewInt(100)) != 0 {
		t.Fatalf("expected the next refresh to resolve the unit, got loading=%v total=%s",
			retried.IsLoading, retried.Alph.Total)
	}
}

func TestInvalidateAddress(t *testing.T) {
	t.Parallel()

	source := newFakeBalanceSource()
	source.setAlph("addr-a", 100)

	agg := newTestAggregator(source)
	ctx := context.Background()
	if err := agg.Refresh(ctx, []string{"addr-a"}); err != nil {
		t.Fatalf("refresh failed: %v", err)
	}

	agg.InvalidateAddress("addr-a")
	if err := agg.Refresh(ctx, []string{"addr-a"}); err != nil {
		t.Fatalf("refresh failed: %v", err)
	}

	source.mu.Lock()
	calls := source.alphCalls["addr-a"]
	source.mu.Unlock()
	if calls != 2 {
		t.Fatalf("expected invalidation to force a refetch, got %d calls", calls)
	}
}

func TestAggregateAddressBalances(t *testing.T) {
	t.Parallel()

	source := newFakeBalanceSource()
	source.setAlph("addr-a", 42)
	source.setToken("addr-a", "token-x", 9)

	agg := newTestAggregator(source)

	if _, ok := agg.AggregateAddressBalances("addr-a"); ok {
		t.Fatalf("expected unresolved address to report not-ready")
	}

	if err := agg.Refresh(context.Background(), []string{"addr-a"}); err != nil {
		t.Fatalf("refresh failed: %v", err)
	}

	balances, ok := agg.AggregateAddressBalances("addr-a")
	if !ok {
		t.Fatalf("expected resolved address snapshot")
	}
	if balances.Alph.Total.Cmp(big.NewInt(42)) != 0 {
		t.Fatalf("expected native total 42, got %s", balances.Alph.Total)
	}
	if len(balances.Tokens) != 1 || balances.Tokens[0].TokenID != "token-x" {
		t.Fatalf("expected token-x snapshot, got %v", balances.Tokens)
	}
}
