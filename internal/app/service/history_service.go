package service

import (
	"context"
	"fmt"

	"wallet_engine/internal/app/port"
	"wallet_engine/internal/domain/entity"
)

// historyServiceImpl implements port.HistoryService by joining the pending
// log with the explorer's confirmed transactions, classifying and delta-
// annotating each row from the reference address's point of view.
type historyServiceImpl struct {
	source   port.TransactionSource
	registry port.AddressRegistry
	sentLog  port.PendingTransactionLog
	logger   port.Logger
}

// NewHistoryService creates a new transaction history service.
func NewHistoryService(source port.TransactionSource, registry port.AddressRegistry, sentLog port.PendingTransactionLog, l port.Logger) port.HistoryService {
	return &historyServiceImpl{
		source:   source,
		registry: registry,
		sentLog:  sentLog,
		logger:   l,
	}
}

// AddressHistory returns one page of the address's history. Pending rows
// from the recently-sent log lead on the first page; a pending entry whose
// hash shows up confirmed in the same page is dropped from the log.
func (s *historyServiceImpl) AddressHistory(ctx context.Context, address string, page, limit int) ([]port.HistoryEntry, error) {
	internalAddresses, err := s.registry.GetAddresses()
	if err != nil {
		s.logger.Error("Failed to load wallet addresses for history", "error", err)
		return nil, fmt.Errorf("failed to load wallet addresses: %w", err)
	}

	confirmed, err := s.source.GetAddressTransactions(ctx, address, page, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch transactions for %s: %w", address, err)
	}

	confirmedHashes := make(map[string]struct{}, len(confirmed))
	for _, tx := range confirmed {
		confirmedHashes[tx.Hash] = struct{}{}
	}

	entries := make([]port.HistoryEntry, 0, len(confirmed))
	if page <= 1 {
		for _, tx := range s.sentLog.PendingForAddress(address) {
			if _, done := confirmedHashes[tx.Hash]; done {
				s.sentLog.Remove(tx.Hash)
				continue
			}
			entries = append(entries, s.buildEntry(tx, address, internalAddresses))
		}
	}

	for _, tx := range confirmed {
		entries = append(entries, s.buildEntry(tx, address, internalAddresses))
	}
	return entries, nil
}

func (s *historyServiceImpl) buildEntry(tx entity.Transaction, reference string, internal []string) port.HistoryEntry {
	deltas := CalcTxAmountsDeltaForAddress(tx, reference)

	entry := port.HistoryEntry{
		Hash: tx.TxHash(),
		InfoType: GetTransactionInfoType(ClassifierParams{
			Tx:                tx,
			ReferenceAddress:  reference,
			InternalAddresses: internal,
		}),
		AlphDelta: deltas.AlphAmount.String(),
	}

	if len(deltas.TokenAmounts) > 0 {
		entry.TokenDeltas = make(map[string]string, len(deltas.TokenAmounts))
		for _, id := range deltas.TokenIDs() {
			entry.TokenDeltas[id] = deltas.TokenAmounts[id].String()
		}
	}

	switch t := tx.(type) {
	case entity.ConfirmedTransaction:
		entry.Timestamp = t.Timestamp.UnixMilli()
	case entity.PendingTransaction:
		entry.Pending = true
		entry.PendingType = t.Type
		entry.Timestamp = t.LastSeen.UnixMilli()
	}
	return entry
}
