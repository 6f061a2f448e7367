package utils

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// ScaleAmount converts a raw smallest-unit integer to a token amount.
// Example: amount=2500000000, decimals=9 => 2.5
// The result is exact; nil is treated as zero.
func ScaleAmount(amount *big.Int, decimals uint8) decimal.Decimal {
	if amount == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(amount, -int32(decimals))
}

// FormatBigInt converts a big.Int value to a human-readable string,
// considering the given number of decimals. Trailing zeros are dropped.
// Example: amount=1234500000000000000, decimals=18 => "1.2345"
func FormatBigInt(amount *big.Int, decimals uint8) string {
	if amount == nil {
		return "0"
	}
	return ScaleAmount(amount, decimals).String()
}
