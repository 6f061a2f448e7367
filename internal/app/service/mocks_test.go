package service

import (
	"context"
	"math/big"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/peterhaasme/time-portfolio/internal/domain/entity"
	"github.com/peterhaasme/time-portfolio/internal/pkg/utils"
)

const (
	holderChecksum = "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"
	holderLower    = "0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed"
	deadAddress    = "0x000000000000000000000000000000000000dEaD"
)

var fastRetry = utils.RetryPolicy{MaxAttempts: 3, InitialInterval: time.Millisecond, MaxInterval: time.Millisecond}

var (
	tokenTIME = entity.TokenDescriptor{
		ChainID: 43114, Address: "0xb54f16fB19478766A268F172C9480f8da1a7c9C3",
		Symbol: "TIME", Decimals: 9, DisplayDecimals: 2, PriceTicker: "TIME5",
	}
	tokenMEMO = entity.TokenDescriptor{
		ChainID: 43114, Address: "0x136Acd46C134E8269052c62A67042D6bDeDde3C9",
		Symbol: "MEMO", Decimals: 9, DisplayDecimals: 2, PriceTicker: "TIME5",
	}
	tokenWMEMO = entity.TokenDescriptor{
		ChainID: 43114, Address: "0x0da67235dD5787D67955420C84ca1cEcd4E5Bb3b",
		Symbol: "wMEMO", Decimals: 18, DisplayDecimals: 5, PriceTicker: "WMEMO",
	}
	allTokens = []entity.TokenDescriptor{tokenTIME, tokenMEMO, tokenWMEMO}
)

type mockBlockchainClient struct {
	mock.Mock
}

func (m *mockBlockchainClient) BalanceOf(ctx context.Context, contract, holder, abiJSON string) (*big.Int, error) {
	args := m.Called(ctx, contract, holder, abiJSON)
	raw, _ := args.Get(0).(*big.Int)
	return raw, args.Error(1)
}

func (m *mockBlockchainClient) Definition() entity.NetworkDefinition {
	return entity.NetworkDefinition{ChainID: 43114, Identifier: "avalanche"}
}

type mockPriceFeed struct {
	mock.Mock
}

func (m *mockPriceFeed) Name() string { return "mock" }

func (m *mockPriceFeed) GetPrices(ctx context.Context, tickers []string) (map[string]string, error) {
	args := m.Called(ctx, tickers)
	prices, _ := args.Get(0).(map[string]string)
	return prices, args.Error(1)
}

// nonRetryableErr mimics an HTTP 4xx from a feed.
type nonRetryableErr struct{}

func (nonRetryableErr) Error() string   { return "401 unauthorized" }
func (nonRetryableErr) Retryable() bool { return false }

func mustBig(s string) *big.Int {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		panic("bad big int " + s)
	}
	return v
}
