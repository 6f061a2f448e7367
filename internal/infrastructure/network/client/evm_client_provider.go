package client

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/peterhaasme/time-portfolio/internal/app/port"
	"github.com/peterhaasme/time-portfolio/internal/domain/entity"
)

// evmClientProvider implements port.BlockchainClientProvider.
// Clients are created lazily and reused per network identifier.
type evmClientProvider struct {
	clients map[string]*EVMClient
	mu      sync.Mutex
	opts    Options
	logger  *zap.Logger
}

// NewEVMClientProvider creates a new EVMClientProvider.
func NewEVMClientProvider(opts Options, logger *zap.Logger) port.BlockchainClientProvider {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &evmClientProvider{
		clients: make(map[string]*EVMClient),
		opts:    opts,
		logger:  logger.Named("EVMClientProvider"),
	}
}

// GetClient retrieves a blockchain client for the given network definition.
func (p *evmClientProvider) GetClient(ctx context.Context, netDef entity.NetworkDefinition) (port.BlockchainClient, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if client, exists := p.clients[netDef.Identifier]; exists {
		return client, nil
	}

	p.logger.Info("Creating new EVM client", zap.String("network", netDef.Name), zap.String("rpc_primary", netDef.PrimaryRPCURL))
	newClient, err := NewEVMClient(ctx, netDef, p.opts, p.logger)
	if err != nil {
		p.logger.Error("Failed to create EVM client", zap.String("network", netDef.Name), zap.Error(err))
		return nil, fmt.Errorf("failed to create EVM client for %s: %w", netDef.Name, err)
	}

	p.clients[netDef.Identifier] = newClient
	return newClient, nil
}

// Close closes every cached client.
func (p *evmClientProvider) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for id, c := range p.clients {
		c.Close()
		delete(p.clients, id)
	}
}
