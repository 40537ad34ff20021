package service

import (
	"sort"
	"sync"

	"wallet_engine/internal/app/port"
	"wallet_engine/internal/domain/entity"
)

// sentTransactionLog is the in-memory recently-sent log backing pending
// transactions until the indexer confirms them.
type sentTransactionLog struct {
	mu     sync.RWMutex
	byHash map[string]entity.PendingTransaction
}

// NewSentTransactionLog creates an empty recently-sent log.
func NewSentTransactionLog() port.PendingTransactionLog {
	return &sentTransactionLog{byHash: make(map[string]entity.PendingTransaction)}
}

// Record stores or refreshes a pending transaction.
func (l *sentTransactionLog) Record(tx entity.PendingTransaction) {
	if tx.Hash == "" {
		return
	}
	l.mu.Lock()
	l.byHash[tx.Hash] = tx
	l.mu.Unlock()
}

// Remove drops a pending transaction, typically once it shows up confirmed.
func (l *sentTransactionLog) Remove(hash string) {
	l.mu.Lock()
	delete(l.byHash, hash)
	l.mu.Unlock()
}

// PendingForAddress returns the sender's pending transactions, most recent
// first, hash as tie-break for a stable order.
func (l *sentTransactionLog) PendingForAddress(address string) []entity.PendingTransaction {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var pending []entity.PendingTransaction
	for _, tx := range l.byHash {
		if tx.FromAddress == address {
			pending = append(pending, tx)
		}
	}
	sort.Slice(pending, func(i, j int) bool {
		if !pending[i].LastSeen.Equal(pending[j].LastSeen) {
			return pending[i].LastSeen.After(pending[j].LastSeen)
		}
		return pending[i].Hash < pending[j].Hash
	})
	return pending
}
