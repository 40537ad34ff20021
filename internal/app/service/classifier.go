package service

import (
	"wallet_engine/internal/domain/entity"
)

// ClassifierParams carries one classification request. InternalAddresses is
// the set of addresses the active wallet controls; it is empty when
// classifying from a single-address view.
type ClassifierParams struct {
	Tx                entity.Transaction
	ReferenceAddress  string
	InternalAddresses []string
}

// GetTransactionInfoType assigns a semantic category to a transaction from
// the reference address's point of view. Wallet-internal transfers take
// precedence over incoming/outgoing so that moves between a user's own
// addresses are never reported as income or expense. The function is total:
// unrecognised shapes classify as unknown, never panic.
func GetTransactionInfoType(p ClassifierParams) entity.TransactionInfoType {
	switch t := p.Tx.(type) {
	case entity.PendingTransaction:
		return entity.InfoPending
	case *entity.PendingTransaction:
		return entity.InfoPending
	case entity.ConfirmedTransaction:
		return classifyConfirmed(t, p.ReferenceAddress, p.InternalAddresses)
	case *entity.ConfirmedTransaction:
		if t == nil {
			return entity.InfoUnknown
		}
		return classifyConfirmed(*t, p.ReferenceAddress, p.InternalAddresses)
	default:
		return entity.InfoUnknown
	}
}

func classifyConfirmed(tx entity.ConfirmedTransaction, reference string, internal []string) entity.TransactionInfoType {
	sources := distinctInputAddresses(tx)
	destinations := distinctOutputAddresses(tx)
	if len(sources) == 0 && len(destinations) == 0 {
		return entity.InfoUnknown
	}

	if onlyAddress(sources, reference) && onlyAddress(destinations, reference) {
		return entity.InfoAddressSelfTransfer
	}

	internalSet := toSet(internal)
	if len(internalSet) > 0 && subsetOf(sources, internalSet) && subsetOf(destinations, internalSet) {
		if !sources[reference] && !destinations[reference] {
			// A transfer inside the wallet's address group, watched from an
			// address that did not take part in it.
			return entity.InfoAddressGroupTransfer
		}
		return entity.InfoWalletSelfTransfer
	}

	inSources := sources[reference]
	inDestinations := destinations[reference]

	switch {
	case inDestinations && !inSources:
		return entity.InfoWalletIncoming
	case inSources && !inDestinations:
		return entity.InfoWalletOutgoing
	case inSources && inDestinations:
		// Partial sweep with change: the address sits on both sides, only
		// the net delta tells the direction.
		return classifyByDelta(tx, reference)
	default:
		return entity.InfoUnknown
	}
}

// classifyByDelta resolves the ambiguous both-sides case by the net delta
// sign. The ALPH delta decides; when it is exactly zero the summed token
// deltas decide; an all-zero net is a self-transfer.
func classifyByDelta(tx entity.ConfirmedTransaction, reference string) entity.TransactionInfoType {
	deltas := confirmedTxDeltas(tx, reference)

	sign := deltas.AlphAmount.Sign()
	if sign == 0 {
		sign = deltas.TokenSign()
	}

	switch {
	case sign > 0:
		return entity.InfoWalletIncoming
	case sign < 0:
		return entity.InfoWalletOutgoing
	default:
		return entity.InfoAddressSelfTransfer
	}
}

func distinctInputAddresses(tx entity.ConfirmedTransaction) map[string]bool {
	set := make(map[string]bool, len(tx.Inputs))
	for _, in := range tx.Inputs {
		if in.Address != "" {
			set[in.Address] = true
		}
	}
	return set
}

func distinctOutputAddresses(tx entity.ConfirmedTransaction) map[string]bool {
	set := make(map[string]bool, len(tx.Outputs))
	for _, out := range tx.Outputs {
		if out.Address != "" {
			set[out.Address] = true
		}
	}
	return set
}

func toSet(addresses []string) map[string]bool {
	set := make(map[string]bool, len(addresses))
	for _, a := range addresses {
		if a != "" {
			set[a] = true
		}
	}
	return set
}

func onlyAddress(set map[string]bool, address string) bool {
	return len(set) == 1 && set[address]
}

func subsetOf(set, of map[string]bool) bool {
	for a := range set {
		if !of[a] {
			return false
		}
	}
	return true
}
