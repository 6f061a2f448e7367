package port

import (
	"context"

	"github.com/peterhaasme/time-portfolio/internal/domain/entity"
)

// BalanceFetcher obtains the scaled balance of one token for one holder.
type BalanceFetcher interface {
	FetchBalance(ctx context.Context, token entity.TokenDescriptor, holder string) (entity.Balance, error)
}

// PriceFetcher obtains USD quotes for a set of tickers in a single feed call.
type PriceFetcher interface {
	FetchPrices(ctx context.Context, tickers []string) (map[string]entity.PriceQuote, error)
}

// PortfolioService defines the interface for computing a holder's portfolio.
type PortfolioService interface {
	// ComputeSnapshot validates holder and, when valid, fetches balances and prices
	// for tokens and combines them. The returned snapshot is always usable; the error
	// wraps entity.ErrPartialResult when some component is unavailable.
	ComputeSnapshot(ctx context.Context, holder string, tokens []entity.TokenDescriptor) (entity.PortfolioSnapshot, error)
}
