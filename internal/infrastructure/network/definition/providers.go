package networkdefinition

import (
	"fmt"
	"os"
	"strings"

	"github.com/peterhaasme/time-portfolio/internal/app/port"
	"github.com/peterhaasme/time-portfolio/internal/domain/entity"
)

// NetworkDefinitionProvider provides network definitions.
// A known network becomes active when a token file named after it exists.
type NetworkDefinitionProvider struct {
	logger            port.Logger
	allNetworkDefs    map[string]entity.NetworkDefinition
	activeNetworkDefs []entity.NetworkDefinition
}

// Predefined network definitions
var ( //nolint:gochecknoglobals // Global for definitions
	Avalanche = entity.NetworkDefinition{
		ChainID:            43114,
		Name:               "Avalanche C-Chain",
		Identifier:         "avalanche",
		NativeSymbol:       "AVAX",
		Decimals:           18,
		PrimaryRPCURL:      "https://api.avax.network/ext/bc/C/rpc",
		FallbackRPCURLs:    []string{"https://avalanche-c-chain-rpc.publicnode.com", "https://rpc.ankr.com/avalanche"},
		BlockExplorerURL:   "https://snowtrace.io",
		DEXScreenerChainID: "avalanche",
	}
	AvalancheFuji = entity.NetworkDefinition{
		ChainID:            43113,
		Name:               "Avalanche Fuji Testnet",
		Identifier:         "avalanche_fuji",
		NativeSymbol:       "AVAX",
		Decimals:           18,
		PrimaryRPCURL:      "https://api.avax-test.network/ext/bc/C/rpc",
		FallbackRPCURLs:    []string{"https://avalanche-fuji-c-chain-rpc.publicnode.com"},
		BlockExplorerURL:   "https://testnet.snowtrace.io",
		DEXScreenerChainID: "",
	}
)

// allKnownDefinitions is a helper to quickly access all hardcoded definitions.
func allKnownDefinitions() map[string]entity.NetworkDefinition {
	return map[string]entity.NetworkDefinition{
		Avalanche.Identifier:     Avalanche,
		AvalancheFuji.Identifier: AvalancheFuji,
	}
}

// NewNetworkDefinitionProvider creates a new NetworkDefinitionProvider.
func NewNetworkDefinitionProvider(log port.Logger, tokenDataDir string) *NetworkDefinitionProvider {
	if log == nil {
		log = port.NopLogger{}
	}
	p := &NetworkDefinitionProvider{
		logger:            log,
		allNetworkDefs:    allKnownDefinitions(),
		activeNetworkDefs: make([]entity.NetworkDefinition, 0),
	}

	files, err := os.ReadDir(tokenDataDir)
	if err != nil {
		p.logger.Error(fmt.Sprintf("Failed to read token data directory: %s", tokenDataDir), "error", err)
		return p
	}

	activeIdentifiers := make(map[string]struct{})
	for _, file := range files {
		if file.IsDir() || !strings.HasSuffix(strings.ToLower(file.Name()), ".json") {
			continue
		}
		identifier := strings.TrimSuffix(strings.ToLower(file.Name()), ".json")

		if _, alreadyActive := activeIdentifiers[identifier]; alreadyActive {
			p.logger.Warn("Duplicate token file for network, skipping", "identifier", identifier)
			continue
		}
		def, ok := p.allNetworkDefs[identifier]
		if !ok {
			p.logger.Warn("Token file has no matching network definition, skipping", "identifier", identifier)
			continue
		}

		p.activeNetworkDefs = append(p.activeNetworkDefs, def)
		activeIdentifiers[identifier] = struct{}{}
		p.logger.Debug("Network activated by token file", "network", def.Name, "file", file.Name())
	}

	if len(p.activeNetworkDefs) == 0 {
		p.logger.Warn("No token files matched a known network. No networks will be active.", "directory", tokenDataDir)
	} else {
		p.logger.Info("NetworkDefinitionProvider initialized", "active_networks", len(p.activeNetworkDefs))
	}
	return p
}

// OverrideRPC replaces the RPC endpoints of a network. Empty rpcURL keeps the defaults.
func (p *NetworkDefinitionProvider) OverrideRPC(identifier, rpcURL string, fallbacks []string) {
	if rpcURL == "" {
		return
	}
	apply := func(def entity.NetworkDefinition) entity.NetworkDefinition {
		def.PrimaryRPCURL = rpcURL
		if fallbacks != nil {
			def.FallbackRPCURLs = append([]string(nil), fallbacks...)
		}
		return def
	}
	if def, ok := p.allNetworkDefs[identifier]; ok {
		p.allNetworkDefs[identifier] = apply(def)
	}
	for i, def := range p.activeNetworkDefs {
		if def.Identifier == identifier {
			p.activeNetworkDefs[i] = apply(def)
			p.logger.Info("RPC endpoint overridden", "network", identifier, "rpc", rpcURL)
		}
	}
}

// GetAllNetworkDefinitions returns the list of active network definitions.
func (p *NetworkDefinitionProvider) GetAllNetworkDefinitions() []entity.NetworkDefinition {
	if p == nil {
		return []entity.NetworkDefinition{}
	}
	defsCopy := make([]entity.NetworkDefinition, len(p.activeNetworkDefs))
	copy(defsCopy, p.activeNetworkDefs)
	return defsCopy
}

// GetNetworkDefinitionByName returns a network definition by its identifier if it's active.
func (p *NetworkDefinitionProvider) GetNetworkDefinitionByName(identifier string) (entity.NetworkDefinition, bool) {
	if p == nil {
		return entity.NetworkDefinition{}, false
	}
	for _, def := range p.activeNetworkDefs {
		if def.Identifier == identifier {
			return def, true
		}
	}
	return entity.NetworkDefinition{}, false
}

// GetNetworkDefinitionByChainID returns a network definition by chain ID,
// falling back to known but inactive networks.
func (p *NetworkDefinitionProvider) GetNetworkDefinitionByChainID(chainID uint64) (entity.NetworkDefinition, bool) {
	if p == nil {
		return entity.NetworkDefinition{}, false
	}
	for _, def := range p.activeNetworkDefs {
		if def.ChainID == chainID {
			return def, true
		}
	}
	for _, knownDef := range p.allNetworkDefs {
		if knownDef.ChainID == chainID {
			p.logger.Warn("Network found in known definitions but not active", "chain_id", chainID)
			return knownDef, true
		}
	}
	return entity.NetworkDefinition{}, false
}
