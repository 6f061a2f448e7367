package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/peterhaasme/time-portfolio/internal/app/port"
	"github.com/peterhaasme/time-portfolio/internal/domain/entity"
	"github.com/peterhaasme/time-portfolio/internal/pkg/utils"
)

// PriceService turns raw feed answers into USD quotes.
// Prices are never cached: each call hits the feed once.
type PriceService struct {
	feed    port.PriceFeed
	retry   utils.RetryPolicy
	metrics port.Metrics
	logger  port.Logger
	now     func() time.Time
}

// NewPriceService creates a PriceService. Nil metrics and logger are allowed.
func NewPriceService(feed port.PriceFeed, retry utils.RetryPolicy, metrics port.Metrics, logger port.Logger) *PriceService {
	if metrics == nil {
		metrics = port.NopMetrics{}
	}
	if logger == nil {
		logger = port.NopLogger{}
	}
	return &PriceService{feed: feed, retry: retry, metrics: metrics, logger: logger, now: time.Now}
}

// FetchPrices quotes every distinct ticker with a single feed call.
//
// A transport or HTTP failure returns a nil map and an *entity.FetchError of kind
// entity.ErrPriceFetchFailed. Tickers that are missing or non-numeric are left out
// of the map and reported together as entity.TickerErrors, so the other quotes
// stay usable.
func (s *PriceService) FetchPrices(ctx context.Context, tickers []string) (map[string]entity.PriceQuote, error) {
	unique := utils.UniqueStrings(tickers)
	if len(unique) == 0 {
		return map[string]entity.PriceQuote{}, nil
	}

	start := time.Now()
	raw, err := utils.Retry(ctx, s.retry, func() (map[string]string, error) {
		raw, err := s.feed.GetPrices(ctx, unique)
		if err != nil && entity.IsPermanent(err) {
			return nil, utils.Permanent(err)
		}
		return raw, err
	}, func(err error, next time.Duration) {
		s.logger.Warn("Retrying price feed", "feed", s.feed.Name(), "backoff", next, "error", err)
	})
	s.metrics.ObservePriceFetch(s.feed.Name(), time.Since(start), err)
	if err != nil {
		s.logger.Error("Price fetch failed", "feed", s.feed.Name(), "tickers", unique, "error", err)
		return nil, &entity.FetchError{Kind: entity.ErrPriceFetchFailed, Err: err}
	}

	asOf := s.now().UTC()
	quotes := make(map[string]entity.PriceQuote, len(unique))
	tickerErrs := entity.TickerErrors{}
	for _, ticker := range unique {
		value, ok := raw[ticker]
		if !ok {
			tickerErrs[ticker] = fmt.Errorf("%w: %s", entity.ErrMissingTicker, ticker)
			continue
		}
		usd, err := parsePrice(value)
		if err != nil {
			tickerErrs[ticker] = fmt.Errorf("%w: %s=%q", entity.ErrNonNumericPrice, ticker, value)
			continue
		}
		quotes[ticker] = entity.PriceQuote{Ticker: ticker, USD: usd, AsOf: asOf}
	}

	if len(tickerErrs) > 0 {
		s.logger.Warn("Some tickers could not be priced", "feed", s.feed.Name(), "error", tickerErrs)
		return quotes, tickerErrs
	}
	return quotes, nil
}

// parsePrice accepts a plain decimal string. Zero is valid, negatives are not.
func parsePrice(value string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(value))
	if err != nil {
		return decimal.Zero, err
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("negative price %s", d)
	}
	return d, nil
}
