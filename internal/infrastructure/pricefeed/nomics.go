package pricefeed

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/peterhaasme/time-portfolio/internal/domain/entity"
)

// NomicsClient queries a Nomics-compatible /currencies/ticker endpoint.
// All tickers go into a single request.
type NomicsClient struct {
	client  *fasthttp.Client
	baseURL string
	apiKey  string
	timeout time.Duration
	logger  *zap.Logger
}

// NewNomicsClient creates a ticker API client.
func NewNomicsClient(baseURL, apiKey string, timeout time.Duration, logger *zap.Logger) *NomicsClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NomicsClient{
		client:  &fasthttp.Client{Name: "time-portfolio"},
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		timeout: timeout,
		logger:  logger.Named("NomicsClient"),
	}
}

// Name implements port.PriceFeed.
func (c *NomicsClient) Name() string { return "nomics" }

// GetPrices returns raw USD price strings keyed by ticker id.
func (c *NomicsClient) GetPrices(ctx context.Context, tickers []string) (map[string]string, error) {
	if len(tickers) == 0 {
		return map[string]string{}, nil
	}

	q := url.Values{}
	q.Set("key", c.apiKey)
	q.Set("ids", strings.Join(tickers, ","))
	q.Set("convert", "USD")
	requestURL := c.baseURL + "/currencies/ticker?" + q.Encode()

	c.logger.Debug("Requesting ticker prices", zap.Strings("ids", tickers))
	body, err := get(ctx, c.client, c.Name(), requestURL, c.timeout)
	if err != nil {
		c.logger.Error("Ticker request failed", zap.Strings("ids", tickers), zap.Error(err))
		return nil, err
	}

	var rows []NomicsTicker
	if err := json.Unmarshal(body, &rows); err != nil {
		c.logger.Error("Failed to decode ticker response", zap.ByteString("responseBody", body), zap.Error(err))
		return nil, fmt.Errorf("%w: decode ticker response: %v", entity.ErrMalformedResponse, err)
	}

	prices := make(map[string]string, len(rows))
	for _, row := range rows {
		if row.ID == "" {
			continue
		}
		prices[row.ID] = row.Price
	}
	c.logger.Debug("Ticker prices received", zap.Int("count", len(prices)))
	return prices, nil
}
