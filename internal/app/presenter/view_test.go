package presenter

import (
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/peterhaasme/time-portfolio/internal/domain/entity"
)

var (
	timeToken  = entity.TokenDescriptor{Symbol: "TIME", Decimals: 9, DisplayDecimals: 2, PriceTicker: "TIME5"}
	wmemoToken = entity.TokenDescriptor{Symbol: "wMEMO", Decimals: 18, DisplayDecimals: 5, PriceTicker: "WMEMO"}
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func holding(token entity.TokenDescriptor, amount, usd string) entity.Holding {
	a, p := dec(amount), dec(usd)
	return entity.Holding{
		Token:     token,
		Balance:   &entity.Balance{Token: token, Raw: big.NewInt(0), Amount: a},
		Quote:     &entity.PriceQuote{Ticker: token.PriceTicker, USD: p},
		FiatValue: decimal.NewNullDecimal(a.Mul(p)),
	}
}

func TestMoney(t *testing.T) {
	cases := map[string]string{
		"0":          "$0.00",
		"40":         "$40.00",
		"1234.567":   "$1,234.57",
		"1234567.1":  "$1,234,567.10",
		"0.004":      "$0.00",
		"999.995":    "$1,000.00",
		"-1500.5":    "-$1,500.50",
		"8123456789": "$8,123,456,789.00",
	}
	for in, want := range cases {
		assert.Equal(t, want, Money(dec(in)), in)
	}
}

func TestBuild_Valid(t *testing.T) {
	at := time.Date(2021, 11, 20, 12, 0, 0, 0, time.UTC)
	snap := entity.PortfolioSnapshot{
		Holder:     "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed",
		State:      entity.AddressValid,
		Holdings:   []entity.Holding{holding(timeToken, "2.5", "10"), holding(wmemoToken, "0.123456789", "40000")},
		Total:      decimal.NewNullDecimal(dec("4963.27156")),
		ComputedAt: at,
	}

	view := Build(snap)
	assert.True(t, view.Valid)
	assert.False(t, view.Invalid)
	assert.Equal(t, "valid", view.State)
	assert.True(t, view.Complete)
	assert.Equal(t, at, view.ComputedAt)
	require.Len(t, view.Rows, 2)

	assert.Equal(t, Row{Symbol: "TIME", Balance: "2.50", Price: "$10.00", Value: "$25.00", Available: true}, view.Rows[0])
	assert.Equal(t, "0.12346", view.Rows[1].Balance)
	assert.Equal(t, "$40,000.00", view.Rows[1].Price)
	assert.Equal(t, "$4,938.27", view.Rows[1].Value)
	assert.Equal(t, "Total Value = $4,963.27", view.Total)
}

func TestBuild_FailedFieldsUnavailable(t *testing.T) {
	broken := entity.Holding{Token: wmemoToken, PriceErr: errors.New("missing")}
	broken.Balance = &entity.Balance{Amount: dec("1")}

	view := Build(entity.PortfolioSnapshot{
		State:    entity.AddressValid,
		Holdings: []entity.Holding{holding(timeToken, "1", "10"), broken},
	})

	assert.Equal(t, "1.00000", view.Rows[1].Balance)
	assert.Equal(t, Unavailable, view.Rows[1].Price)
	assert.Equal(t, Unavailable, view.Rows[1].Value)
	assert.False(t, view.Rows[1].Available)
	assert.Equal(t, "Total Value = unavailable", view.Total)
	assert.False(t, view.Complete)
}

func TestBuild_NotValidShowsZeros(t *testing.T) {
	for _, state := range []entity.AddressState{entity.AddressUnevaluated, entity.AddressInvalid} {
		view := Build(entity.PortfolioSnapshot{
			Holder:   "nope",
			State:    state,
			Holdings: []entity.Holding{{Token: timeToken}, {Token: wmemoToken}},
			Total:    decimal.NewNullDecimal(decimal.Zero),
		})

		assert.False(t, view.Valid)
		assert.Equal(t, state == entity.AddressInvalid, view.Invalid)
		for _, row := range view.Rows {
			assert.Equal(t, "0", row.Balance)
			assert.Equal(t, "$0", row.Value)
		}
		assert.Equal(t, "Total Value = $0", view.Total)
	}
}
