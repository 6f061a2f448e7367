package provider

import (
	"context"
	"math/big"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/peterhaasme/time-portfolio/internal/app/presenter"
	"github.com/peterhaasme/time-portfolio/internal/domain/entity"
	"github.com/peterhaasme/time-portfolio/internal/infrastructure/configloader"
	networkdefinition "github.com/peterhaasme/time-portfolio/internal/infrastructure/network/definition"
	"github.com/peterhaasme/time-portfolio/internal/infrastructure/pricefeed"
	"github.com/peterhaasme/time-portfolio/internal/infrastructure/tokenloader"
)

const shippedTokensDir = "../../../data/tokens"

// chainStub answers balanceOf from a table keyed by contract address.
type chainStub map[string]*big.Int

func (c chainStub) BalanceOf(_ context.Context, contract, _, _ string) (*big.Int, error) {
	if v, ok := c[contract]; ok {
		return v, nil
	}
	return big.NewInt(0), nil
}

func (chainStub) Definition() entity.NetworkDefinition { return networkdefinition.Avalanche }

type feedStub map[string]string

func (feedStub) Name() string { return "stub" }

func (f feedStub) GetPrices(context.Context, []string) (map[string]string, error) { return f, nil }

func TestNewPriceFeed(t *testing.T) {
	cfg := configloader.Default().PriceFeed

	feed, err := NewPriceFeed(cfg, networkdefinition.Avalanche, nil)
	require.NoError(t, err)
	assert.IsType(t, &pricefeed.NomicsClient{}, feed)

	cfg.Provider = configloader.ProviderDEXScreener
	feed, err = NewPriceFeed(cfg, networkdefinition.Avalanche, nil)
	require.NoError(t, err)
	assert.Equal(t, "dexscreener", feed.Name())

	_, err = NewPriceFeed(cfg, networkdefinition.AvalancheFuji, nil)
	assert.Error(t, err, "fuji has no DEXScreener chain")

	cfg.Provider = "coinmarketcap"
	_, err = NewPriceFeed(cfg, networkdefinition.Avalanche, nil)
	assert.ErrorIs(t, err, configloader.ErrUnknownProvider)
}

func TestResolveTokens_ShippedData(t *testing.T) {
	netDefs := networkdefinition.NewNetworkDefinitionProvider(nil, shippedTokensDir)
	network, tokens, err := resolveTokens(netDefs, tokenloader.NewTokenLoader(shippedTokensDir, configloader.ProviderNomics, nil), "avalanche")
	require.NoError(t, err)

	assert.Equal(t, uint64(43114), network.ChainID)
	require.Len(t, tokens, 3)
	assert.Equal(t, []string{"TIME5", "TIME5", "WMEMO"}, entity.Tickers(tokens))

	_, _, err = resolveTokens(netDefs, tokenloader.NewTokenLoader(shippedTokensDir, configloader.ProviderNomics, nil), "avalanche_fuji")
	assert.ErrorIs(t, err, configloader.ErrMissingNetwork)
}

func TestAssemble_ComputesPortfolio(t *testing.T) {
	netDefs := networkdefinition.NewNetworkDefinitionProvider(nil, shippedTokensDir)
	network, tokens, err := resolveTokens(netDefs, tokenloader.NewTokenLoader(shippedTokensDir, configloader.ProviderNomics, nil), "avalanche")
	require.NoError(t, err)

	chain := chainStub{
		"0xb54f16fB19478766A268F172C9480f8da1a7c9C3": big.NewInt(2_500_000_000),
		"0x136Acd46C134E8269052c62A67042D6bDeDde3C9": big.NewInt(1_000_000_000),
		"0x0da67235dD5787D67955420C84ca1cEcd4E5Bb3b": new(big.Int).Exp(big.NewInt(10), big.NewInt(17), nil),
	}
	rt := Assemble(Deps{
		Config:  configloader.Default(),
		Network: network,
		Tokens:  tokens,
		Client:  chain,
		Feed:    feedStub{"TIME5": "10", "WMEMO": "50"},
	})
	defer rt.Close()

	snap, err := rt.Portfolio.ComputeSnapshot(context.Background(), "0x104d5ebb38af1ae5eb469b86922d1f10808eb35f", rt.Tokens)
	require.NoError(t, err)
	assert.True(t, snap.Total.Decimal.Equal(decimal.NewFromInt(40)))

	view := presenter.Build(snap)
	assert.Equal(t, "Total Value = $40.00", view.Total)
	assert.Equal(t, "0x104D5ebB38af1ae5eb469B86922d1f10808eB35F", view.Address)

	opts := rt.RefreshOptions()
	assert.Equal(t, rt.Config.Refresh.Interval(), opts.Interval)
	assert.NotNil(t, rt.NewDriver(nil))

	watches := rt.NewWatchService()
	defer watches.Close()
	assert.Zero(t, watches.Count())
}

func TestRuntime_Wallets(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wallets.txt")
	require.NoError(t, os.WriteFile(path, []byte("# c\n0x104d5ebb38af1ae5eb469b86922d1f10808eb35f\nnot-an-address\n\n"), 0o600))

	rt := Assemble(Deps{Config: configloader.Default(), Client: chainStub{}, Feed: feedStub{}})
	wallets, err := rt.Wallets(path)
	require.NoError(t, err)
	require.Len(t, wallets, 1)
}
