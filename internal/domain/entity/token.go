package entity

// FungibleToken holds the metadata of a fungible token. Listed is true when
// the token appears in the maintained token list; only listed tokens are
// price-eligible and count toward fiat worth.
type FungibleToken struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
	Decimals uint32 `json:"decimals"`
	LogoURI  string `json:"logoURI,omitempty"`
	Listed   bool   `json:"-"`
}

// TokenPrice is one fiat quote from the price feed, keyed by symbol.
type TokenPrice struct {
	Symbol string  `json:"symbol"`
	Price  float64 `json:"price"`
}

// AlphToken is the native coin's token-shaped descriptor, used when ALPH
// joins unified token listings under the AlphTokenID pseudo id. It is
// always listed and price-eligible regardless of the maintained token
// list's contents.
var AlphToken = FungibleToken{
	ID:       AlphTokenID,
	Name:     "Alephium",
	Symbol:   "ALPH",
	Decimals: 18,
	Listed:   true,
}
