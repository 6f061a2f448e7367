package port

import (
	"context"

	"github.com/peterhaasme/time-portfolio/internal/domain/entity"
)

// TokenProvider defines the interface for fetching token definitions.
type TokenProvider interface {
	// GetTokens returns the tracked tokens of a network in display order.
	GetTokens(network entity.NetworkDefinition) ([]entity.TokenDescriptor, error)
}

// PriceFeed is a remote USD price source. It returns raw price strings keyed by
// ticker; tickers the feed does not know are simply absent from the map.
type PriceFeed interface {
	Name() string
	GetPrices(ctx context.Context, tickers []string) (map[string]string, error)
}
