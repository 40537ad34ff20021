package entity

import (
	"math/big"
	"sort"
)

// AmountDeltas is the net signed effect of one transaction on one address:
// the ALPH delta plus a per-token-id delta map. Always derived, never
// persisted.
type AmountDeltas struct {
	AlphAmount   *big.Int
	TokenAmounts map[string]*big.Int
}

// NewAmountDeltas returns an all-zero delta set.
func NewAmountDeltas() AmountDeltas {
	return AmountDeltas{
		AlphAmount:   new(big.Int),
		TokenAmounts: make(map[string]*big.Int),
	}
}

// AddAlph adds amount to the ALPH delta. Nil amounts count as zero.
func (d AmountDeltas) AddAlph(amount *big.Int) {
	if amount == nil {
		return
	}
	d.AlphAmount.Add(d.AlphAmount, amount)
}

// SubAlph subtracts amount from the ALPH delta. Nil amounts count as zero.
func (d AmountDeltas) SubAlph(amount *big.Int) {
	if amount == nil {
		return
	}
	d.AlphAmount.Sub(d.AlphAmount, amount)
}

// AddToken adds amount to the delta of the given token id.
func (d AmountDeltas) AddToken(id string, amount *big.Int) {
	if amount == nil || id == "" {
		return
	}
	cur, ok := d.TokenAmounts[id]
	if !ok {
		cur = new(big.Int)
		d.TokenAmounts[id] = cur
	}
	cur.Add(cur, amount)
}

// SubToken subtracts amount from the delta of the given token id.
func (d AmountDeltas) SubToken(id string, amount *big.Int) {
	if amount == nil || id == "" {
		return
	}
	cur, ok := d.TokenAmounts[id]
	if !ok {
		cur = new(big.Int)
		d.TokenAmounts[id] = cur
	}
	cur.Sub(cur, amount)
}

// IsZero reports whether every delta, native and token, is zero.
func (d AmountDeltas) IsZero() bool {
	if d.AlphAmount != nil && d.AlphAmount.Sign() != 0 {
		return false
	}
	for _, amount := range d.TokenAmounts {
		if amount != nil && amount.Sign() != 0 {
			return false
		}
	}
	return true
}

// TokenSign returns the sign of the summed token deltas: positive if the
// address gained tokens overall, negative if it lost them.
func (d AmountDeltas) TokenSign() int {
	sum := new(big.Int)
	for _, amount := range d.TokenAmounts {
		if amount != nil {
			sum.Add(sum, amount)
		}
	}
	return sum.Sign()
}

// TokenIDs returns the token ids with a recorded delta in ascending order.
func (d AmountDeltas) TokenIDs() []string {
	ids := make([]string, 0, len(d.TokenAmounts))
	for id := range d.TokenAmounts {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
