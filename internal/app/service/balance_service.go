package service

import (
	"context"
	"math/big"
	"time"

	"github.com/peterhaasme/time-portfolio/internal/app/port"
	"github.com/peterhaasme/time-portfolio/internal/app/validator"
	"github.com/peterhaasme/time-portfolio/internal/domain/entity"
	"github.com/peterhaasme/time-portfolio/internal/pkg/utils"
)

// BalanceService reads token balances through a BlockchainClient.
type BalanceService struct {
	client    port.BlockchainClient
	validator *validator.AddressValidator
	retry     utils.RetryPolicy
	metrics   port.Metrics
	logger    port.Logger
}

// NewBalanceService creates a BalanceService. Nil metrics and logger are allowed.
func NewBalanceService(client port.BlockchainClient, v *validator.AddressValidator, retry utils.RetryPolicy, metrics port.Metrics, logger port.Logger) *BalanceService {
	if v == nil {
		v = validator.New()
	}
	if metrics == nil {
		metrics = port.NopMetrics{}
	}
	if logger == nil {
		logger = port.NopLogger{}
	}
	return &BalanceService{client: client, validator: v, retry: retry, metrics: metrics, logger: logger}
}

// FetchBalance returns holder's balance of token scaled by the token decimals.
// A confirmed zero balance is a success. Failures are *entity.FetchError values
// of kind entity.ErrBalanceFetchFailed.
func (s *BalanceService) FetchBalance(ctx context.Context, token entity.TokenDescriptor, holder string) (entity.Balance, error) {
	contract, err := s.validator.Normalize(token.Address)
	if err != nil {
		return entity.Balance{}, &entity.FetchError{Kind: entity.ErrBalanceFetchFailed, Symbol: token.Symbol, Err: err}
	}
	owner, err := s.validator.Normalize(holder)
	if err != nil {
		return entity.Balance{}, &entity.FetchError{Kind: entity.ErrBalanceFetchFailed, Symbol: token.Symbol, Err: err}
	}

	start := time.Now()
	raw, err := utils.Retry(ctx, s.retry, func() (*big.Int, error) {
		raw, err := s.client.BalanceOf(ctx, contract, owner, token.BalanceOfABI())
		if err != nil && entity.IsPermanent(err) {
			return nil, utils.Permanent(err)
		}
		return raw, err
	}, func(err error, next time.Duration) {
		s.logger.Warn("Retrying balanceOf", "token", token.Symbol, "holder", owner, "backoff", next, "error", err)
	})
	s.metrics.ObserveBalanceFetch(token.Symbol, time.Since(start), err)
	if err != nil {
		s.logger.Error("Balance fetch failed", "token", token.Symbol, "holder", owner, "error", err)
		return entity.Balance{}, &entity.FetchError{Kind: entity.ErrBalanceFetchFailed, Symbol: token.Symbol, Err: err}
	}

	return entity.Balance{
		Token:  token,
		Holder: owner,
		Raw:    raw,
		Amount: utils.ScaleAmount(raw, token.Decimals),
	}, nil
}
