package entity

import (
	"math/big"
	"time"

	"github.com/shopspring/decimal"
)

// Balance is the amount of a token held by an address.
// Amount is Raw / 10^Decimals, computed without rounding.
type Balance struct {
	Token  TokenDescriptor `json:"-"`
	Holder string          `json:"holder"`
	Raw    *big.Int        `json:"-"`
	Amount decimal.Decimal `json:"amount"`
}

// PriceQuote is the USD price of one ticker. Quotes from one feed call share AsOf.
type PriceQuote struct {
	Ticker string          `json:"ticker"`
	USD    decimal.Decimal `json:"usd"`
	AsOf   time.Time       `json:"asOf"`
}
