package pricefeed

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/peterhaasme/time-portfolio/internal/domain/entity"
	"github.com/peterhaasme/time-portfolio/internal/pkg/utils"
)

var stablecoinSymbols = map[string]struct{}{
	"USDC":   {},
	"USDC.E": {},
	"USDT":   {},
	"USDT.E": {},
	"DAI":    {},
	"DAI.E":  {},
	"MIM":    {},
}

// DEXScreenerClient prices tokens by contract address from DEX pair data.
// Tickers are token addresses on chainID.
type DEXScreenerClient struct {
	client              *fasthttp.Client
	baseURL             string
	chainID             string
	timeout             time.Duration
	maxTokensPerRequest int
	logger              *zap.Logger
}

// NewDEXScreenerClient creates a new DEX Screener client for one chain.
func NewDEXScreenerClient(baseURL, chainID string, timeout time.Duration, maxTokensPerRequest int, logger *zap.Logger) *DEXScreenerClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxTokensPerRequest <= 0 {
		maxTokensPerRequest = 30
	}
	return &DEXScreenerClient{
		client:              &fasthttp.Client{Name: "time-portfolio"},
		baseURL:             strings.TrimRight(baseURL, "/"),
		chainID:             chainID,
		timeout:             timeout,
		maxTokensPerRequest: maxTokensPerRequest,
		logger:              logger.Named("DEXScreenerClient"),
	}
}

// Name implements port.PriceFeed.
func (c *DEXScreenerClient) Name() string { return "dexscreener" }

// GetPrices returns the best USD price per requested token address.
// Addresses with no pairs are absent from the result.
func (c *DEXScreenerClient) GetPrices(ctx context.Context, tickers []string) (map[string]string, error) {
	prices := make(map[string]string, len(tickers))
	for _, batch := range utils.BatchStrings(tickers, c.maxTokensPerRequest) {
		pairs, err := c.GetTokenPairsByAddresses(ctx, batch)
		if err != nil {
			return nil, err
		}
		for _, ticker := range batch {
			if pair := selectBestPair(pairs, ticker); pair != nil {
				prices[ticker] = pair.PriceUsd
				c.logger.Debug("Selected pair",
					zap.String("token", ticker),
					zap.String("quote", pair.QuoteToken.Symbol),
					zap.Float64("liquidityUsd", utils.SafeDeref(pair.Liquidity, func(l DEXLiquidity) float64 { return l.Usd })))
			}
		}
	}
	return prices, nil
}

// GetTokenPairsByAddresses fetches all pairs for up to maxTokensPerRequest tokens.
func (c *DEXScreenerClient) GetTokenPairsByAddresses(ctx context.Context, tokenAddresses []string) ([]PairData, error) {
	if len(tokenAddresses) == 0 {
		return nil, fmt.Errorf("tokenAddresses cannot be empty")
	}
	if len(tokenAddresses) > c.maxTokensPerRequest {
		return nil, fmt.Errorf("number of token addresses (%d) exceeds max tokens per request (%d)", len(tokenAddresses), c.maxTokensPerRequest)
	}

	requestURL := fmt.Sprintf("%s/tokens/v1/%s/%s", c.baseURL, c.chainID, strings.Join(tokenAddresses, ","))
	c.logger.Debug("Requesting token pairs from DEX Screener", zap.String("url", requestURL))

	rawBody, err := get(ctx, c.client, c.Name(), requestURL, c.timeout)
	if err != nil {
		c.logger.Error("DEX Screener request failed", zap.String("url", requestURL), zap.Error(err))
		return nil, err
	}

	var wrapped DEXTokenPair
	if err := json.Unmarshal(rawBody, &wrapped); err == nil && wrapped.Pairs != nil {
		return wrapped.Pairs, nil
	}

	var directPairs []PairData
	if err := json.Unmarshal(rawBody, &directPairs); err != nil {
		c.logger.Error("Failed to unmarshal DEX Screener response",
			zap.String("url", requestURL),
			zap.ByteString("responseBody", rawBody),
			zap.Error(err))
		return nil, fmt.Errorf("%w: decode DEX Screener response: %v", entity.ErrMalformedResponse, err)
	}
	if len(directPairs) == 0 {
		c.logger.Warn("DEX Screener returned no pairs", zap.String("url", requestURL))
	}
	return directPairs, nil
}

// selectBestPair prefers pairs quoted in a stablecoin, then the highest USD liquidity.
func selectBestPair(pairs []PairData, baseTokenAddress string) *PairData {
	liquidity := func(p *PairData) float64 {
		return utils.SafeDeref(p.Liquidity, func(l DEXLiquidity) float64 { return l.Usd })
	}

	var bestStable, bestOverall *PairData
	for i := range pairs {
		pair := &pairs[i]
		if !strings.EqualFold(pair.BaseToken.Address, baseTokenAddress) || pair.PriceUsd == "" {
			continue
		}
		if _, ok := stablecoinSymbols[strings.ToUpper(pair.QuoteToken.Symbol)]; ok {
			if bestStable == nil || liquidity(pair) > liquidity(bestStable) {
				bestStable = pair
			}
		}
		if bestOverall == nil || liquidity(pair) > liquidity(bestOverall) {
			bestOverall = pair
		}
	}
	if bestStable != nil {
		return bestStable
	}
	return bestOverall
}
