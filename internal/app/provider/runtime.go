// Package provider assembles the portfolio pipeline from configuration.
package provider

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.uber.org/zap"

	"github.com/peterhaasme/time-portfolio/internal/app/port"
	"github.com/peterhaasme/time-portfolio/internal/app/refresh"
	"github.com/peterhaasme/time-portfolio/internal/app/service"
	"github.com/peterhaasme/time-portfolio/internal/app/validator"
	"github.com/peterhaasme/time-portfolio/internal/domain/entity"
	"github.com/peterhaasme/time-portfolio/internal/infrastructure/configloader"
	"github.com/peterhaasme/time-portfolio/internal/infrastructure/metrics"
	"github.com/peterhaasme/time-portfolio/internal/infrastructure/network/client"
	networkdefinition "github.com/peterhaasme/time-portfolio/internal/infrastructure/network/definition"
	"github.com/peterhaasme/time-portfolio/internal/infrastructure/tokenloader"
	"github.com/peterhaasme/time-portfolio/internal/infrastructure/walletloader"
	"github.com/peterhaasme/time-portfolio/internal/pkg/logger"
)

// Runtime holds the wired pipeline shared by the server and the CLI.
type Runtime struct {
	Config    *configloader.Config
	Network   entity.NetworkDefinition
	Tokens    []entity.TokenDescriptor
	Validator *validator.AddressValidator
	Portfolio *service.PortfolioService
	Metrics   *metrics.Prometheus
	Logger    port.Logger

	slog    *slog.Logger
	closers []func()
}

// Deps are the externally built pieces Assemble wires together.
type Deps struct {
	Config  *configloader.Config
	Network entity.NetworkDefinition
	Tokens  []entity.TokenDescriptor
	Client  port.BlockchainClient
	Feed    port.PriceFeed
	Slog    *slog.Logger
}

// NewRuntime resolves the network and tokens, dials the chain and builds the feed.
func NewRuntime(ctx context.Context, cfg *configloader.Config, zapLogger *zap.Logger, slogLogger *slog.Logger) (*Runtime, error) {
	netDefs := networkdefinition.NewNetworkDefinitionProvider(logger.Named(slogLogger, "networks"), cfg.Files.TokensDir)
	netDefs.OverrideRPC(cfg.Network.Identifier, cfg.Network.RPCURL, cfg.Network.FallbackRPCURLs)

	network, tokens, err := resolveTokens(netDefs, tokenloader.NewTokenLoader(cfg.Files.TokensDir, cfg.PriceFeed.Provider, logger.Named(slogLogger, "tokens")), cfg.Network.Identifier)
	if err != nil {
		return nil, err
	}

	feed, err := NewPriceFeed(cfg.PriceFeed, network, zapLogger.Named("PriceFeed"))
	if err != nil {
		return nil, err
	}

	clients := client.NewEVMClientProvider(client.Options{
		ConnectionTimeout: time.Duration(cfg.RPC.ConnectionTimeoutSeconds) * time.Second,
		CallTimeout:       time.Duration(cfg.RPC.CallTimeoutSeconds) * time.Second,
		RateLimit:         cfg.RPC.RateLimit,
		BurstLimit:        cfg.RPC.BurstLimit,
		VerifyChainID:     true,
	}, zapLogger)
	bc, err := clients.GetClient(ctx, network)
	if err != nil {
		return nil, err
	}

	rt := Assemble(Deps{Config: cfg, Network: network, Tokens: tokens, Client: bc, Feed: feed, Slog: slogLogger})
	if c, ok := clients.(interface{ Close() }); ok {
		rt.closers = append(rt.closers, c.Close)
	}
	return rt, nil
}

// Assemble builds the services on top of already constructed clients.
func Assemble(deps Deps) *Runtime {
	cfg := deps.Config
	slogLogger := deps.Slog
	if slogLogger == nil {
		slogLogger = slog.Default()
	}

	m := metrics.New("")
	v := validator.New(validator.WithChecksum(cfg.Portfolio.ChecksumEnabled()))
	retry := cfg.Retry.Policy()

	balances := service.NewBalanceService(deps.Client, v, retry, m, logger.Named(slogLogger, "balances"))
	prices := service.NewPriceService(deps.Feed, retry, m, logger.Named(slogLogger, "prices"))
	portfolio := service.NewPortfolioService(balances, prices, v, cfg.Portfolio.MaxConcurrentRequests, m, logger.Named(slogLogger, "portfolio"))

	return &Runtime{
		Config:    cfg,
		Network:   deps.Network,
		Tokens:    deps.Tokens,
		Validator: v,
		Portfolio: portfolio,
		Metrics:   m,
		Logger:    logger.NewSlogAdapter(slogLogger),
		slog:      slogLogger,
	}
}

// RefreshOptions returns the driver timing from configuration.
func (r *Runtime) RefreshOptions() refresh.Options {
	return refresh.Options{Interval: r.Config.Refresh.Interval(), Debounce: r.Config.Refresh.Debounce()}
}

// NewDriver creates a refresh driver over the runtime's portfolio service.
func (r *Runtime) NewDriver(renderer refresh.Renderer) *refresh.Driver {
	return refresh.NewDriver(r.Portfolio, r.Tokens, renderer, r.RefreshOptions(), r.Metrics, logger.Named(r.slog, "refresh"))
}

// NewWatchService creates the session store for the REST API.
func (r *Runtime) NewWatchService() *service.WatchService {
	return service.NewWatchService(r.Portfolio, r.Tokens, service.WatchConfig{
		IdleTTL:     time.Duration(r.Config.Watch.IdleTTLMinutes) * time.Minute,
		MaxSessions: r.Config.Watch.MaxSessions,
		Refresh:     r.RefreshOptions(),
	}, r.Metrics, logger.Named(r.slog, "watches"))
}

// Wallets loads the wallet list; lines failing validation are logged and skipped.
func (r *Runtime) Wallets(path string) ([]entity.Wallet, error) {
	if path == "" {
		path = r.Config.Files.WalletsFile
	}
	var wallets port.WalletProvider = walletloader.NewWalletFileLoader(path, r.Validator.IsValidAddress, logger.Named(r.slog, "wallets"))
	return wallets.GetWallets()
}

// Close releases chain connections.
func (r *Runtime) Close() {
	for _, c := range r.closers {
		c()
	}
}

func resolveTokens(netDefs port.NetworkDefinitionProvider, tokens port.TokenProvider, identifier string) (entity.NetworkDefinition, []entity.TokenDescriptor, error) {
	network, ok := netDefs.GetNetworkDefinitionByName(identifier)
	if !ok {
		return entity.NetworkDefinition{}, nil, fmt.Errorf("%w: %q has no token file or is unknown", configloader.ErrMissingNetwork, identifier)
	}
	list, err := tokens.GetTokens(network)
	if err != nil {
		return entity.NetworkDefinition{}, nil, fmt.Errorf("failed to load tokens for %s: %w", identifier, err)
	}
	if len(list) == 0 {
		return entity.NetworkDefinition{}, nil, fmt.Errorf("no tokens configured for %s", identifier)
	}
	return network, list, nil
}
