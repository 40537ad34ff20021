package entity

// TransactionInfoType is the semantic category of a transaction from the
// point of view of a reference address. It drives the display sign and
// badge in the presentation layer.
type TransactionInfoType string

const (
	// InfoWalletIncoming marks value arriving from outside the wallet.
	InfoWalletIncoming TransactionInfoType = "wallet-incoming"
	// InfoWalletOutgoing marks value leaving the wallet.
	InfoWalletOutgoing TransactionInfoType = "wallet-outgoing"
	// InfoWalletSelfTransfer marks a move between the wallet's own
	// addresses. Never shown as external income or expense.
	InfoWalletSelfTransfer TransactionInfoType = "wallet-self-transfer"
	// InfoAddressSelfTransfer marks a consolidation or sweep where a single
	// address pays only the fee to itself.
	InfoAddressSelfTransfer TransactionInfoType = "address-self-transfer"
	// InfoAddressGroupTransfer marks a wallet-internal transfer that does
	// not touch the reference address itself.
	InfoAddressGroupTransfer TransactionInfoType = "address-group-transfer"
	// InfoPending marks a locally sent transaction the indexer has not
	// confirmed yet.
	InfoPending TransactionInfoType = "pending"
	// InfoUnknown is the fall-through for shapes the classifier does not
	// recognise. It is a valid result, never an error.
	InfoUnknown TransactionInfoType = "unknown"
)
