package port

import (
	"context"
	"math/big"

	"github.com/peterhaasme/time-portfolio/internal/domain/entity"
)

// BlockchainClient defines the interface for read-only contract calls on a network.
type BlockchainClient interface {
	// BalanceOf performs a read-only balanceOf(holder) call against contract
	// and returns the raw smallest-unit integer. abiJSON must declare balanceOf.
	BalanceOf(ctx context.Context, contract, holder, abiJSON string) (*big.Int, error)

	// Definition returns the network definition associated with this client.
	Definition() entity.NetworkDefinition
}

// NetworkDefinitionProvider defines the interface for providing network definitions.
type NetworkDefinitionProvider interface {
	GetAllNetworkDefinitions() []entity.NetworkDefinition
	// GetNetworkDefinitionByName возвращает определение и true, если найдено.
	GetNetworkDefinitionByName(identifier string) (entity.NetworkDefinition, bool)
}

// BlockchainClientProvider hands out clients, one per network.
type BlockchainClientProvider interface {
	GetClient(ctx context.Context, networkDefinition entity.NetworkDefinition) (BlockchainClient, error)
}
