package port

import (
	"context"

	"wallet_engine/internal/domain/entity"
)

// TransactionSource returns confirmed transactions from the explorer
// backend, paginated per address. Pages start at 1.
type TransactionSource interface {
	GetAddressTransactions(ctx context.Context, address string, page, limit int) ([]entity.ConfirmedTransaction, error)
}

// BalanceSource returns current balances per address, split by asset class
// so each (address, asset-class) pair is an independently cacheable unit.
type BalanceSource interface {
	GetAlphBalance(ctx context.Context, address string) (entity.ApiBalances, error)
	GetTokenBalances(ctx context.Context, address string) ([]entity.TokenApiBalances, error)
}

// PriceSource returns fiat quotes for a batch of symbols in one currency.
// It tolerates being asked for a subset of the known symbols; symbols the
// feed cannot price are simply absent from the result.
type PriceSource interface {
	GetPrices(ctx context.Context, symbols []string, currency string) ([]entity.TokenPrice, error)
}

// PendingTransactionLog is the local recently-sent log that pending
// transactions are read from until the indexer confirms them.
type PendingTransactionLog interface {
	Record(tx entity.PendingTransaction)
	Remove(hash string)
	PendingForAddress(address string) []entity.PendingTransaction
}
