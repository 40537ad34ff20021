package port

import "wallet_engine/internal/domain/entity"

// AddressRegistry supplies the ordered set of addresses owned by the active
// wallet. It is both the classifier's internal-address set and the balance
// aggregator's fan-out set.
type AddressRegistry interface {
	GetAddresses() ([]string, error)
}

// TokenListProvider supplies the maintained token list. Tokens present here
// are listed; everything else is unlisted and never priced.
type TokenListProvider interface {
	GetTokenList() ([]entity.FungibleToken, error)
}
