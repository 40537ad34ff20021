package service

import (
	"wallet_engine/internal/domain/entity"
)

// CalcTxAmountsDeltaForAddress computes the net signed change in ALPH and
// each token that tx causes for addressHash. Outputs to the address count
// positive, inputs from it negative. An address that appears in neither
// side yields all-zero deltas, which is a valid result, not an error.
//
// A self-transfer (address is sole input and output owner) deliberately
// nets to the fee: a small negative ALPH delta and zero token deltas.
func CalcTxAmountsDeltaForAddress(tx entity.Transaction, addressHash string) entity.AmountDeltas {
	switch t := tx.(type) {
	case entity.ConfirmedTransaction:
		return confirmedTxDeltas(t, addressHash)
	case *entity.ConfirmedTransaction:
		if t == nil {
			return entity.NewAmountDeltas()
		}
		return confirmedTxDeltas(*t, addressHash)
	case entity.PendingTransaction:
		return pendingTxDeltas(t, addressHash)
	case *entity.PendingTransaction:
		if t == nil {
			return entity.NewAmountDeltas()
		}
		return pendingTxDeltas(*t, addressHash)
	default:
		return entity.NewAmountDeltas()
	}
}

func confirmedTxDeltas(tx entity.ConfirmedTransaction, addressHash string) entity.AmountDeltas {
	deltas := entity.NewAmountDeltas()

	for _, out := range tx.Outputs {
		if out.Address != addressHash {
			continue
		}
		deltas.AddAlph(out.AttoAlphAmount)
		for _, token := range out.Tokens {
			deltas.AddToken(token.ID, token.Amount)
		}
	}

	for _, in := range tx.Inputs {
		if in.Address != addressHash {
			continue
		}
		deltas.SubAlph(in.AttoAlphAmount)
		for _, token := range in.Tokens {
			deltas.SubToken(token.ID, token.Amount)
		}
	}

	return deltas
}

// pendingTxDeltas synthesises deltas from the flat pending record. Pending
// transactions are only ever displayed from the sender's point of view, so
// the delta is always outgoing (negative) and only for the sender address.
func pendingTxDeltas(tx entity.PendingTransaction, addressHash string) entity.AmountDeltas {
	deltas := entity.NewAmountDeltas()
	if tx.FromAddress == "" || tx.FromAddress != addressHash {
		return deltas
	}

	deltas.SubAlph(tx.AttoAlphAmount)
	for _, token := range tx.Tokens {
		deltas.SubToken(token.ID, token.Amount)
	}
	return deltas
}
