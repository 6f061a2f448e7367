package entity

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

type retryableErr bool

func (r retryableErr) Error() string   { return "status" }
func (r retryableErr) Retryable() bool { return bool(r) }

func TestIsPermanent(t *testing.T) {
	assert.False(t, IsPermanent(nil))
	assert.False(t, IsPermanent(errors.New("connection reset")))
	assert.False(t, IsPermanent(context.DeadlineExceeded))
	assert.True(t, IsPermanent(context.Canceled))
	assert.True(t, IsPermanent(fmt.Errorf("wrap: %w", ErrMalformedResponse)))
	assert.True(t, IsPermanent(ErrInvalidABI))
	assert.True(t, IsPermanent(fmt.Errorf("%w: 0x12", ErrInvalidAddressFormat)))
	assert.True(t, IsPermanent(retryableErr(false)))
	assert.False(t, IsPermanent(fmt.Errorf("wrap: %w", retryableErr(true))))
}

func TestFetchError(t *testing.T) {
	err := &FetchError{Kind: ErrBalanceFetchFailed, Symbol: "TIME", Err: ErrMalformedResponse}
	assert.Equal(t, "balance fetch failed for TIME: malformed response", err.Error())
	assert.ErrorIs(t, err, ErrBalanceFetchFailed)
	assert.ErrorIs(t, err, ErrMalformedResponse)
	assert.NotErrorIs(t, err, ErrPriceFetchFailed)

	batch := &FetchError{Kind: ErrPriceFetchFailed, Err: errors.New("timeout")}
	assert.Equal(t, "price fetch failed: timeout", batch.Error())
}

func TestTickerErrors(t *testing.T) {
	te := TickerErrors{
		"WMEMO": ErrNonNumericPrice,
		"TIME5": ErrMissingTicker,
	}
	assert.Equal(t, "TIME5: ticker missing from price response; WMEMO: non-numeric price", te.Error())
	assert.ErrorIs(t, te, ErrMissingTicker)
	assert.ErrorIs(t, te, ErrNonNumericPrice)

	var target TickerErrors
	assert.ErrorAs(t, fmt.Errorf("wrapped: %w", te), &target)
	assert.Len(t, target, 2)
}

func TestSnapshotCompleteAndErrors(t *testing.T) {
	timeToken := TokenDescriptor{Symbol: "TIME", Address: "0xb54f16fB19478766A268F172C9480f8da1a7c9C3"}
	memo := TokenDescriptor{Symbol: "MEMO", Address: "0x136Acd46C134E8269052c62A67042D6bDeDde3C9"}

	snap := PortfolioSnapshot{
		Holder: "0x000000000000000000000000000000000000dEaD",
		Holdings: []Holding{
			{Token: timeToken, FiatValue: decimal.NewNullDecimal(decimal.NewFromInt(25))},
			{Token: memo, PriceErr: ErrMissingTicker},
		},
	}
	assert.False(t, snap.Complete())

	errs := snap.Errors()
	if assert.Len(t, errs, 1) {
		assert.Equal(t, "MEMO", errs[0].TokenSymbol)
		assert.Equal(t, memo.Address, errs[0].TokenAddress)
		assert.Equal(t, snap.Holder, errs[0].WalletAddress)
	}

	snap.Holdings[1] = Holding{Token: memo, FiatValue: decimal.NewNullDecimal(decimal.Zero)}
	assert.False(t, snap.Complete(), "total still unknown")
	snap.Total = decimal.NewNullDecimal(decimal.NewFromInt(25))
	assert.True(t, snap.Complete())
	assert.Empty(t, snap.Errors())
}

func TestAddressStateString(t *testing.T) {
	assert.Equal(t, "unevaluated", AddressUnevaluated.String())
	assert.Equal(t, "valid", AddressValid.String())
	assert.Equal(t, "invalid", AddressInvalid.String())
}

func TestTickersAndABI(t *testing.T) {
	tokens := []TokenDescriptor{{PriceTicker: "TIME5"}, {PriceTicker: "TIME5"}, {PriceTicker: "WMEMO", ABI: "[]"}}
	assert.Equal(t, []string{"TIME5", "TIME5", "WMEMO"}, Tickers(tokens))
	assert.Equal(t, ERC20BalanceOfABI, tokens[0].BalanceOfABI())
	assert.Equal(t, "[]", tokens[2].BalanceOfABI())
}

func TestRPCURLs(t *testing.T) {
	n := NetworkDefinition{PrimaryRPCURL: "a", FallbackRPCURLs: []string{"b", "c"}}
	assert.Equal(t, []string{"a", "b", "c"}, n.RPCURLs())
	assert.Equal(t, []string{"b"}, NetworkDefinition{FallbackRPCURLs: []string{"b"}}.RPCURLs())
}
