package service

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/peterhaasme/time-portfolio/internal/app/port"
	"github.com/peterhaasme/time-portfolio/internal/app/validator"
	"github.com/peterhaasme/time-portfolio/internal/domain/entity"
)

// PortfolioService combines balances and prices into a snapshot.
type PortfolioService struct {
	balances      port.BalanceFetcher
	prices        port.PriceFetcher
	validator     *validator.AddressValidator
	maxConcurrent int
	metrics       port.Metrics
	logger        port.Logger
	now           func() time.Time
}

// NewPortfolioService creates a PortfolioService. maxConcurrent <= 0 means no limit.
func NewPortfolioService(
	balances port.BalanceFetcher,
	prices port.PriceFetcher,
	v *validator.AddressValidator,
	maxConcurrent int,
	metrics port.Metrics,
	logger port.Logger,
) *PortfolioService {
	if v == nil {
		v = validator.New()
	}
	if metrics == nil {
		metrics = port.NopMetrics{}
	}
	if logger == nil {
		logger = port.NopLogger{}
	}
	return &PortfolioService{
		balances:      balances,
		prices:        prices,
		validator:     v,
		maxConcurrent: maxConcurrent,
		metrics:       metrics,
		logger:        logger,
		now:           time.Now,
	}
}

// ComputeSnapshot implements port.PortfolioService.
//
// Empty or invalid input yields a zero snapshot without any network call.
// Otherwise every balance and the price batch are fetched concurrently and
// joined before any arithmetic. A failed component marks its holding and the
// total as unavailable; the error then wraps entity.ErrPartialResult.
func (s *PortfolioService) ComputeSnapshot(ctx context.Context, holder string, tokens []entity.TokenDescriptor) (entity.PortfolioSnapshot, error) {
	state := s.validator.Evaluate(holder)
	if state != entity.AddressValid {
		s.logger.Debug("Skipping fetch for non-valid address", "holder", holder, "state", state.String())
		return s.zeroSnapshot(holder, state, tokens), nil
	}

	start := time.Now()
	holder, _ = s.validator.Normalize(holder)
	holdings := make([]entity.Holding, len(tokens))
	for i, token := range tokens {
		holdings[i].Token = token
	}

	var (
		quotes   map[string]entity.PriceQuote
		priceErr error
	)

	// Ошибки не отменяют соседние запросы: каждый слот пишет свой результат.
	var g errgroup.Group
	if s.maxConcurrent > 0 {
		g.SetLimit(s.maxConcurrent)
	}
	g.Go(func() error {
		quotes, priceErr = s.prices.FetchPrices(ctx, entity.Tickers(tokens))
		return nil
	})
	for i, token := range tokens {
		g.Go(func() error {
			balance, err := s.balances.FetchBalance(ctx, token, holder)
			if err != nil {
				holdings[i].BalanceErr = err
				return nil
			}
			holdings[i].Balance = &balance
			return nil
		})
	}
	_ = g.Wait()

	var failures []error
	total := decimal.Zero
	for i := range holdings {
		h := &holdings[i]
		if q, ok := quotes[h.Token.PriceTicker]; ok {
			h.Quote = &q
		} else {
			h.PriceErr = &entity.FetchError{Kind: entity.ErrPriceFetchFailed, Symbol: h.Token.Symbol, Err: tickerCause(h.Token.PriceTicker, priceErr)}
		}

		if h.BalanceErr != nil {
			failures = append(failures, h.BalanceErr)
		}
		if h.PriceErr != nil {
			failures = append(failures, h.PriceErr)
		}
		if h.Balance != nil && h.Quote != nil {
			value := h.Balance.Amount.Mul(h.Quote.USD)
			h.FiatValue = decimal.NewNullDecimal(value)
			total = total.Add(value)
		}
	}

	snapshot := entity.PortfolioSnapshot{
		Holder:     holder,
		State:      entity.AddressValid,
		Holdings:   holdings,
		ComputedAt: s.now().UTC(),
	}
	if len(failures) == 0 {
		snapshot.Total = decimal.NewNullDecimal(total)
	}
	s.metrics.ObserveSnapshot(len(failures) == 0, time.Since(start))

	if len(failures) > 0 {
		head := fmt.Errorf("%w: %d component(s) unavailable for %s", entity.ErrPartialResult, len(failures), holder)
		s.logger.Warn("Portfolio snapshot incomplete", "holder", holder, "failures", len(failures))
		return snapshot, errors.Join(append([]error{head}, failures...)...)
	}
	s.logger.Info("Portfolio snapshot computed", "holder", holder, "total_usd", total.String())
	return snapshot, nil
}

func (s *PortfolioService) zeroSnapshot(holder string, state entity.AddressState, tokens []entity.TokenDescriptor) entity.PortfolioSnapshot {
	holdings := make([]entity.Holding, len(tokens))
	for i, token := range tokens {
		holdings[i] = entity.Holding{
			Token:     token,
			Balance:   &entity.Balance{Token: token, Holder: holder, Raw: new(big.Int), Amount: decimal.Zero},
			FiatValue: decimal.NewNullDecimal(decimal.Zero),
		}
	}
	return entity.PortfolioSnapshot{
		Holder:     holder,
		State:      state,
		Holdings:   holdings,
		Total:      decimal.NewNullDecimal(decimal.Zero),
		ComputedAt: s.now().UTC(),
	}
}

// tickerCause picks the reason a ticker has no quote.
func tickerCause(ticker string, priceErr error) error {
	var tickerErrs entity.TickerErrors
	if errors.As(priceErr, &tickerErrs) {
		if err, ok := tickerErrs[ticker]; ok {
			return err
		}
	} else if priceErr != nil {
		var fetchErr *entity.FetchError
		if errors.As(priceErr, &fetchErr) {
			return fetchErr.Err
		}
		return priceErr
	}
	return fmt.Errorf("%w: %s", entity.ErrMissingTicker, ticker)
}
