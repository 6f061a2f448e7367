package tokenloader

import (
	"fmt"
	"path/filepath"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/peterhaasme/time-portfolio/internal/app/port"
	"github.com/peterhaasme/time-portfolio/internal/domain/entity"
	"github.com/peterhaasme/time-portfolio/internal/pkg/utils"
)

const defaultTokenDirectoryPath = "data/tokens"

// maxDecimals keeps 10^decimals within uint256 range.
const maxDecimals = 77

// TokenFileLoader implements port.TokenProvider by reading <dir>/<network>.json.
// Results are cached per network; token files are read once.
type TokenFileLoader struct {
	tokenDirPath string
	priceFeed    string
	logger       port.Logger

	mu    sync.Mutex
	cache map[string][]entity.TokenDescriptor
}

// NewTokenLoader creates a new TokenFileLoader. priceFeed selects which entry of
// priceTickers becomes the token's PriceTicker.
func NewTokenLoader(tokenDir, priceFeed string, logger port.Logger) *TokenFileLoader {
	if tokenDir == "" {
		tokenDir = defaultTokenDirectoryPath
	}
	if logger == nil {
		logger = port.NopLogger{}
	}
	return &TokenFileLoader{
		tokenDirPath: tokenDir,
		priceFeed:    priceFeed,
		logger:       logger,
		cache:        make(map[string][]entity.TokenDescriptor),
	}
}

// GetTokens returns the validated tokens of a network in file order.
func (l *TokenFileLoader) GetTokens(network entity.NetworkDefinition) ([]entity.TokenDescriptor, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if cached, ok := l.cache[network.Identifier]; ok {
		return cached, nil
	}

	filePath := filepath.Join(l.tokenDirPath, network.Identifier+".json")
	tokensInFile, err := utils.LoadJSONFile[[]entity.TokenDescriptor](filePath)
	if err != nil {
		l.logger.Error("Failed to load token file", "path", filePath, "error", err)
		return nil, fmt.Errorf("failed to load tokens for %s: %w", network.Identifier, err)
	}

	valid := make([]entity.TokenDescriptor, 0, len(tokensInFile))
	for _, token := range tokensInFile {
		if err := l.validate(token, network); err != nil {
			l.logger.Warn("Skipping token", "file", filePath, "token_symbol", token.Symbol, "reason", err)
			continue
		}
		token.Address = common.HexToAddress(token.Address).Hex()
		token.PriceTicker = l.resolveTicker(token)
		valid = append(valid, token)
	}
	if len(valid) == 0 {
		return nil, fmt.Errorf("no valid tokens in %s", filePath)
	}

	l.cache[network.Identifier] = valid
	l.logger.Info("Tokens loaded", "network", network.Identifier, "count", len(valid), "price_feed", l.priceFeed)
	return valid, nil
}

func (l *TokenFileLoader) validate(token entity.TokenDescriptor, network entity.NetworkDefinition) error {
	switch {
	case token.Symbol == "":
		return fmt.Errorf("missing symbol")
	case !common.IsHexAddress(token.Address):
		return fmt.Errorf("%w: %q", entity.ErrInvalidAddressFormat, token.Address)
	case token.ChainID != 0 && token.ChainID != network.ChainID:
		return fmt.Errorf("chainId %d does not match network %d", token.ChainID, network.ChainID)
	case token.Decimals > maxDecimals:
		return fmt.Errorf("decimals %d out of range", token.Decimals)
	case token.DisplayDecimals < 0:
		return fmt.Errorf("negative display decimals")
	}
	return nil
}

// resolveTicker picks the feed-specific ticker, then the generic one, then a
// fallback the feed understands: the contract address for DEXScreener, the symbol otherwise.
func (l *TokenFileLoader) resolveTicker(token entity.TokenDescriptor) string {
	if t := token.PriceTickers[l.priceFeed]; t != "" {
		return t
	}
	if token.PriceTicker != "" {
		return token.PriceTicker
	}
	if l.priceFeed == "dexscreener" {
		return token.Address
	}
	return token.Symbol
}
