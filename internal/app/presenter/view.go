// Package presenter turns portfolio snapshots into display strings.
package presenter

import (
	"math/big"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"

	"github.com/peterhaasme/time-portfolio/internal/domain/entity"
)

const (
	// Unavailable replaces any field whose source data failed to load.
	Unavailable = "unavailable"

	moneyPlaces = 2
	totalPrefix = "Total Value = "
)

// Row is one token line of the rendered portfolio.
type Row struct {
	Symbol    string `json:"symbol"`
	Balance   string `json:"balance"`
	Price     string `json:"price"`
	Value     string `json:"value"`
	Available bool   `json:"available"`
}

// View is everything a renderer needs. Valid and Invalid are both false while
// nothing has been entered.
type View struct {
	Address    string    `json:"address"`
	State      string    `json:"state"`
	Valid      bool      `json:"valid"`
	Invalid    bool      `json:"invalid"`
	Rows       []Row     `json:"rows"`
	Total      string    `json:"total"`
	Complete   bool      `json:"complete"`
	ComputedAt time.Time `json:"computedAt"`
}

// Build renders snapshot. Non-valid snapshots show zeros regardless of content.
func Build(snapshot entity.PortfolioSnapshot) View {
	view := View{
		Address:    snapshot.Holder,
		State:      snapshot.State.String(),
		Valid:      snapshot.State == entity.AddressValid,
		Invalid:    snapshot.State == entity.AddressInvalid,
		Rows:       make([]Row, 0, len(snapshot.Holdings)),
		ComputedAt: snapshot.ComputedAt,
	}

	if !view.Valid {
		for _, h := range snapshot.Holdings {
			view.Rows = append(view.Rows, Row{Symbol: h.Token.Symbol, Balance: "0", Price: "$0", Value: "$0", Available: true})
		}
		view.Total = totalPrefix + "$0"
		view.Complete = true
		return view
	}

	for _, h := range snapshot.Holdings {
		row := Row{
			Symbol:    h.Token.Symbol,
			Balance:   Unavailable,
			Price:     Unavailable,
			Value:     Unavailable,
			Available: h.Available(),
		}
		if h.Balance != nil {
			row.Balance = h.Balance.Amount.StringFixed(h.Token.DisplayDecimals)
		}
		if h.Quote != nil {
			row.Price = Money(h.Quote.USD)
		}
		if h.FiatValue.Valid {
			row.Value = Money(h.FiatValue.Decimal)
		}
		view.Rows = append(view.Rows, row)
	}

	if snapshot.Total.Valid {
		view.Total = totalPrefix + Money(snapshot.Total.Decimal)
	} else {
		view.Total = totalPrefix + Unavailable
	}
	view.Complete = snapshot.Complete()
	return view
}

// Money formats d as US dollars with thousands separators and two decimals.
func Money(d decimal.Decimal) string {
	fixed := d.Abs().StringFixed(moneyPlaces)
	whole, frac, _ := strings.Cut(fixed, ".")

	n, ok := new(big.Int).SetString(whole, 10)
	if !ok {
		return "$" + fixed
	}
	sign := ""
	if d.Round(moneyPlaces).IsNegative() {
		sign = "-"
	}
	return sign + "$" + humanize.BigComma(n) + "." + frac
}
