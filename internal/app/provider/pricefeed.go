package provider

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/peterhaasme/time-portfolio/internal/app/port"
	"github.com/peterhaasme/time-portfolio/internal/domain/entity"
	"github.com/peterhaasme/time-portfolio/internal/infrastructure/configloader"
	"github.com/peterhaasme/time-portfolio/internal/infrastructure/pricefeed"
)

// NewPriceFeed builds the configured price source for network.
func NewPriceFeed(cfg configloader.PriceFeedConfig, network entity.NetworkDefinition, logger *zap.Logger) (port.PriceFeed, error) {
	switch cfg.Provider {
	case configloader.ProviderNomics:
		return pricefeed.NewNomicsClient(
			cfg.Nomics.BaseURL,
			cfg.Nomics.APIKey,
			time.Duration(cfg.Nomics.RequestTimeoutMillis)*time.Millisecond,
			logger,
		), nil
	case configloader.ProviderDEXScreener:
		if network.DEXScreenerChainID == "" {
			return nil, fmt.Errorf("network %s has no DEXScreener chain id", network.Identifier)
		}
		return pricefeed.NewDEXScreenerClient(
			cfg.DEXScreener.BaseURL,
			network.DEXScreenerChainID,
			time.Duration(cfg.DEXScreener.RequestTimeoutMillis)*time.Millisecond,
			cfg.DEXScreener.MaxTokensPerBatchRequest,
			logger,
		), nil
	default:
		return nil, fmt.Errorf("%w: %q", configloader.ErrUnknownProvider, cfg.Provider)
	}
}
