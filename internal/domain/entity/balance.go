package entity

import (
	"encoding/json"
	"math/big"
)

// AlphTokenID is the pseudo token id used when the native coin is merged
// into a unified token listing.
const AlphTokenID = "ALPH"

// ApiBalances holds the balance triple reported per address per asset.
// Invariant: Total = Available + Locked, all non-negative.
type ApiBalances struct {
	Total     *big.Int
	Available *big.Int
	Locked    *big.Int
}

// NewApiBalances returns an all-zero balance triple.
func NewApiBalances() ApiBalances {
	return ApiBalances{
		Total:     new(big.Int),
		Available: new(big.Int),
		Locked:    new(big.Int),
	}
}

// Add folds other into b component-wise. Nil components count as zero.
func (b ApiBalances) Add(other ApiBalances) {
	addInPlace(b.Total, other.Total)
	addInPlace(b.Available, other.Available)
	addInPlace(b.Locked, other.Locked)
}

// IsZero reports whether the total balance is zero or unset.
func (b ApiBalances) IsZero() bool {
	return b.Total == nil || b.Total.Sign() == 0
}

// MarshalJSON renders the big-integer components as decimal strings, the
// format the presentation layer and the explorer API both use.
func (b ApiBalances) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		TotalBalance     string `json:"totalBalance"`
		AvailableBalance string `json:"availableBalance"`
		LockedBalance    string `json:"lockedBalance"`
	}{
		TotalBalance:     bigIntString(b.Total),
		AvailableBalance: bigIntString(b.Available),
		LockedBalance:    bigIntString(b.Locked),
	})
}

func addInPlace(dst, src *big.Int) {
	if dst == nil || src == nil {
		return
	}
	dst.Add(dst, src)
}

func bigIntString(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}

// TokenApiBalances couples a balance triple with the token it belongs to.
type TokenApiBalances struct {
	TokenID string
	ApiBalances
}

// MarshalJSON keeps the token id alongside the string-encoded balances.
func (b TokenApiBalances) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		TokenID          string `json:"tokenId"`
		TotalBalance     string `json:"totalBalance"`
		AvailableBalance string `json:"availableBalance"`
		LockedBalance    string `json:"lockedBalance"`
	}{
		TokenID:          b.TokenID,
		TotalBalance:     bigIntString(b.Total),
		AvailableBalance: bigIntString(b.Available),
		LockedBalance:    bigIntString(b.Locked),
	})
}

// AddressBalances is one address's resolved balance snapshot, the unit the
// wallet-level merge folds over.
type AddressBalances struct {
	Address string
	Alph    ApiBalances
	Tokens  []TokenApiBalances
}

// AggregatedBalances is the wallet-level merge of per-address snapshots.
// IsLoading is set while any address's snapshot has not resolved yet,
// IsFetching while a refresh is in flight, Error when any underlying query
// failed after retries.
type AggregatedBalances struct {
	Alph       ApiBalances        `json:"alphBalances"`
	Tokens     []TokenApiBalances `json:"tokenBalances"`
	IsLoading  bool               `json:"isLoading"`
	IsFetching bool               `json:"isFetching"`
	Error      bool               `json:"error"`
}
