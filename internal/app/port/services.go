package port

import (
	"context"

	"wallet_engine/internal/domain/entity"
)

// BalanceAggregator fans out per-address balance queries and merges them
// into a wallet-level view. Aggregate reads never block on the network;
// Refresh drives the underlying fetches.
type BalanceAggregator interface {
	Refresh(ctx context.Context, addresses []string) error
	AggregateWalletBalances(addresses []string, includeAlph bool) entity.AggregatedBalances
	AggregateAddressBalances(address string) (entity.AddressBalances, bool)
	InvalidateAddress(address string)
	InvalidateAll()
}

// WorthRankedToken pairs a token with its computed fiat worth for display
// ranking. Priced is false when the price feed has resolved but has no
// quote for the token's symbol.
type WorthRankedToken struct {
	Token   entity.FungibleToken `json:"token"`
	Balance string               `json:"balance"`
	Worth   float64              `json:"worth"`
	Priced  bool                 `json:"priced"`
}

// WorthResult is the fiat valuation of a set of token balances. IsLoading
// is true while any required symbol's quote has not resolved yet.
type WorthResult struct {
	Worth     float64            `json:"worth"`
	IsLoading bool               `json:"isLoading"`
	Tokens    []WorthRankedToken `json:"tokens"`
}

// WorthService converts aggregated token balances into fiat worth.
type WorthService interface {
	RefreshPrices(ctx context.Context) error
	PriceBySymbol(symbol string) (float64, bool)
	ComputeWorth(balances []entity.TokenApiBalances) WorthResult
}

// HistoryService assembles the classified, delta-annotated transaction
// history of one address.
type HistoryService interface {
	AddressHistory(ctx context.Context, address string, page, limit int) ([]HistoryEntry, error)
}

// HistoryEntry is one row of an address's transaction history: the raw
// record reduced to its hash, classification and per-asset deltas.
type HistoryEntry struct {
	Hash        string                     `json:"hash"`
	Timestamp   int64                      `json:"timestamp"`
	InfoType    entity.TransactionInfoType `json:"infoType"`
	Pending     bool                       `json:"pending"`
	PendingType entity.PendingTxType       `json:"pendingType,omitempty"`
	AlphDelta   string                     `json:"alphDelta"`
	TokenDeltas map[string]string          `json:"tokenDeltas,omitempty"`
}
