package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// AddressState is the tri-state outcome of evaluating user input.
type AddressState int

const (
	// AddressUnevaluated means nothing was entered yet.
	AddressUnevaluated AddressState = iota
	AddressValid
	AddressInvalid
)

func (s AddressState) String() string {
	switch s {
	case AddressValid:
		return "valid"
	case AddressInvalid:
		return "invalid"
	default:
		return "unevaluated"
	}
}

// ZeroAddress represents the Ethereum zero address.
const ZeroAddress = "0x0000000000000000000000000000000000000000"

// Wallet is a holder address read from a wallet list.
type Wallet struct {
	Address string `json:"address"`
}

// Holding is one token row of a snapshot. Balance and Quote are nil when their
// fetch failed; the matching error field is then set.
type Holding struct {
	Token      TokenDescriptor     `json:"token"`
	Balance    *Balance            `json:"balance,omitempty"`
	Quote      *PriceQuote         `json:"quote,omitempty"`
	FiatValue  decimal.NullDecimal `json:"fiatValue"`
	BalanceErr error               `json:"-"`
	PriceErr   error               `json:"-"`
}

// Available reports whether the holding has a computed fiat value.
func (h Holding) Available() bool {
	return h.FiatValue.Valid
}

// PortfolioSnapshot is the result of one aggregation cycle for one holder.
type PortfolioSnapshot struct {
	Holder     string              `json:"holder"`
	State      AddressState        `json:"-"`
	Holdings   []Holding           `json:"holdings"`
	Total      decimal.NullDecimal `json:"total"`
	ComputedAt time.Time           `json:"computedAt"`
}

// Complete reports whether every holding has a value and the total is known.
func (s PortfolioSnapshot) Complete() bool {
	if !s.Total.Valid {
		return false
	}
	for _, h := range s.Holdings {
		if !h.Available() {
			return false
		}
	}
	return true
}

// Errors lists the per-holding failures in holding order.
func (s PortfolioSnapshot) Errors() []PortfolioError {
	var out []PortfolioError
	for _, h := range s.Holdings {
		for _, err := range []error{h.BalanceErr, h.PriceErr} {
			if err == nil {
				continue
			}
			out = append(out, PortfolioError{
				WalletAddress: s.Holder,
				TokenSymbol:   h.Token.Symbol,
				TokenAddress:  h.Token.Address,
				Message:       err.Error(),
			})
		}
	}
	return out
}
