package utils

import (
	"math/big"
	"strings"
)

// CalculateTokenAmountWorth converts a raw token amount into fiat worth:
// (amount / 10^decimals) * price. The division happens in big.Float space
// so that balances beyond 2^53 do not lose precision the way a naive
// float64(amount) cast would.
func CalculateTokenAmountWorth(amount *big.Int, price float64, decimals uint32) float64 {
	if amount == nil || amount.Sign() == 0 || price == 0 {
		return 0
	}

	amountFloat := new(big.Float).SetInt(amount)
	divisor := new(big.Float).SetInt(pow10(decimals))
	scaled := new(big.Float).Quo(amountFloat, divisor)

	worth := new(big.Float).Mul(scaled, big.NewFloat(price))
	result, _ := worth.Float64()
	return result
}

// FormatAmount renders a raw amount as a human-readable decimal string,
// e.g. amount=1234500000000000000, decimals=18 => "1.2345".
func FormatAmount(amount *big.Int, decimals uint32) string {
	if amount == nil {
		return "0"
	}
	if decimals == 0 {
		return amount.String()
	}

	value := new(big.Float).Quo(
		new(big.Float).SetInt(amount),
		new(big.Float).SetInt(pow10(decimals)),
	)

	formatted := value.Text('f', int(decimals))
	if strings.Contains(formatted, ".") {
		formatted = strings.TrimRight(formatted, "0")
		formatted = strings.TrimRight(formatted, ".")
	}
	if formatted == "" || formatted == "-" {
		return "0"
	}
	return formatted
}

func pow10(decimals uint32) *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
}
