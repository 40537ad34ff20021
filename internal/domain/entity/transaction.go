package entity

import (
	"math/big"
	"time"
)

// TokenAmount is an amount of a specific token carried by a transaction
// input or output.
type TokenAmount struct {
	ID     string   `json:"id"`
	Amount *big.Int `json:"amount"`
}

// AssetInput is a spent output consumed by a confirmed transaction.
type AssetInput struct {
	Address        string
	AttoAlphAmount *big.Int
	Tokens         []TokenAmount
}

// AssetOutput is an output created by a confirmed transaction. LockTime,
// when set, marks the output as unspendable until that moment.
type AssetOutput struct {
	Address        string
	AttoAlphAmount *big.Int
	Tokens         []TokenAmount
	LockTime       *time.Time
}

// ConfirmedTransaction is a ledger-confirmed transaction as returned by the
// explorer backend. The sum of native input amounts exceeds the sum of
// native output amounts by the network fee.
type ConfirmedTransaction struct {
	Hash      string
	Timestamp time.Time
	Inputs    []AssetInput
	Outputs   []AssetOutput
	GasAmount int
	GasPrice  *big.Int
}

// PendingTxType describes the intent of a locally sent, not yet confirmed
// transaction.
type PendingTxType string

const (
	PendingTransfer      PendingTxType = "transfer"
	PendingConsolidation PendingTxType = "consolidation"
	PendingSweep         PendingTxType = "sweep"
	PendingContractCall  PendingTxType = "contract-call"
	PendingFaucet        PendingTxType = "faucet"
)

// PendingTransaction is an entry of the local recently-sent log. The indexer
// has not produced full input/output lists for it yet, so it only carries
// the best-known from/to pair and flat amounts.
type PendingTransaction struct {
	Hash           string
	Type           PendingTxType
	FromAddress    string
	ToAddress      string
	AttoAlphAmount *big.Int
	Tokens         []TokenAmount
	LastSeen       time.Time
}

// Transaction is either a ConfirmedTransaction or a PendingTransaction.
// Consumers branch with an exhaustive type switch instead of probing
// optional fields.
type Transaction interface {
	TxHash() string
	isTransaction()
}

// TxHash returns the transaction hash.
func (t ConfirmedTransaction) TxHash() string { return t.Hash }

func (ConfirmedTransaction) isTransaction() {}

// TxHash returns the transaction hash.
func (t PendingTransaction) TxHash() string { return t.Hash }

func (PendingTransaction) isTransaction() {}
