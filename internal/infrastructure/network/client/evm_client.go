package client

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/peterhaasme/time-portfolio/internal/domain/entity"
)

const balanceOfMethod = "balanceOf"

// Options tune an EVMClient.
type Options struct {
	ConnectionTimeout time.Duration
	CallTimeout       time.Duration
	RateLimit         float64 // requests per second, <= 0 disables limiting
	BurstLimit        int
	// VerifyChainID makes the dialer call eth_chainId and skip endpoints that
	// fail or report a different chain.
	VerifyChainID bool
}

// EVMClient implements port.BlockchainClient for EVM-compatible chains.
type EVMClient struct {
	ethClient   *ethclient.Client
	netDef      entity.NetworkDefinition
	rpcURL      string
	callTimeout time.Duration
	limiter     *rate.Limiter
	logger      *zap.Logger

	abiMu    sync.RWMutex
	abiCache map[string]abi.ABI
}

// NewEVMClient dials the primary RPC URL of netDef, then the fallbacks in order,
// and returns a client bound to the first endpoint that works.
func NewEVMClient(ctx context.Context, netDef entity.NetworkDefinition, opts Options, logger *zap.Logger) (*EVMClient, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("EVMClient").With(zap.String("network", netDef.Identifier))

	rpcURLs := netDef.RPCURLs()
	if len(rpcURLs) == 0 {
		return nil, fmt.Errorf("no RPC URLs configured for network %s", netDef.Name)
	}

	var lastErr error
	for _, rpcURL := range rpcURLs {
		client, err := dial(ctx, rpcURL, netDef.ChainID, opts)
		if err != nil {
			logger.Warn("RPC endpoint unusable, trying next", zap.String("rpc", rpcURL), zap.Error(err))
			lastErr = err
			continue
		}

		var limiter *rate.Limiter
		if opts.RateLimit > 0 {
			limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), max(opts.BurstLimit, 1))
		}
		logger.Info("Connected to RPC endpoint", zap.String("rpc", rpcURL))
		return &EVMClient{
			ethClient:   client,
			netDef:      netDef,
			rpcURL:      rpcURL,
			callTimeout: opts.CallTimeout,
			limiter:     limiter,
			logger:      logger,
			abiCache:    make(map[string]abi.ABI),
		}, nil
	}

	return nil, fmt.Errorf("all RPC connection attempts failed for network %s: %w", netDef.Name, lastErr)
}

func dial(ctx context.Context, rpcURL string, chainID uint64, opts Options) (*ethclient.Client, error) {
	dialCtx := ctx
	if opts.ConnectionTimeout > 0 {
		var cancel context.CancelFunc
		dialCtx, cancel = context.WithTimeout(ctx, opts.ConnectionTimeout)
		defer cancel()
	}

	client, err := ethclient.DialContext(dialCtx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RPC %s: %w", rpcURL, err)
	}
	if !opts.VerifyChainID {
		return client, nil
	}

	got, err := client.ChainID(dialCtx)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to verify chainID for %s: %w", rpcURL, err)
	}
	if chainID != 0 && got.Uint64() != chainID {
		client.Close()
		return nil, fmt.Errorf("chainID mismatch for %s: expected %d, got %d", rpcURL, chainID, got.Uint64())
	}
	return client, nil
}

// BalanceOf calls balanceOf(holder) on contract at the latest block.
// An empty return payload is reported as malformed, never as zero.
func (c *EVMClient) BalanceOf(ctx context.Context, contract, holder, abiJSON string) (*big.Int, error) {
	if !common.IsHexAddress(contract) {
		return nil, fmt.Errorf("%w: contract %q", entity.ErrInvalidAddressFormat, contract)
	}
	if !common.IsHexAddress(holder) {
		return nil, fmt.Errorf("%w: holder %q", entity.ErrInvalidAddressFormat, holder)
	}

	parsed, err := c.parseABI(abiJSON)
	if err != nil {
		return nil, err
	}
	callData, err := parsed.Pack(balanceOfMethod, common.HexToAddress(holder))
	if err != nil {
		return nil, fmt.Errorf("%w: pack balanceOf: %v", entity.ErrInvalidABI, err)
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter wait: %w", err)
		}
	}

	callCtx := ctx
	if c.callTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, c.callTimeout)
		defer cancel()
	}

	to := common.HexToAddress(contract)
	output, err := c.ethClient.CallContract(callCtx, ethereum.CallMsg{To: &to, Data: callData}, nil)
	if err != nil {
		return nil, fmt.Errorf("eth_call balanceOf on %s: %w", contract, err)
	}
	if len(output) == 0 {
		return nil, fmt.Errorf("%w: empty balanceOf result from %s", entity.ErrMalformedResponse, contract)
	}

	unpacked, err := parsed.Unpack(balanceOfMethod, output)
	if err != nil {
		return nil, fmt.Errorf("%w: unpack balanceOf from %s: %v", entity.ErrMalformedResponse, contract, err)
	}
	if len(unpacked) == 0 {
		return nil, fmt.Errorf("%w: balanceOf unpack returned no data for %s", entity.ErrMalformedResponse, contract)
	}
	balance, ok := unpacked[0].(*big.Int)
	if !ok || balance == nil {
		return nil, fmt.Errorf("%w: balanceOf returned %T", entity.ErrMalformedResponse, unpacked[0])
	}

	c.logger.Debug("balanceOf",
		zap.String("contract", contract),
		zap.String("holder", holder),
		zap.String("raw", balance.String()))
	return balance, nil
}

// parseABI parses abiJSON once per distinct fragment.
func (c *EVMClient) parseABI(abiJSON string) (abi.ABI, error) {
	if abiJSON == "" {
		abiJSON = entity.ERC20BalanceOfABI
	}

	c.abiMu.RLock()
	parsed, ok := c.abiCache[abiJSON]
	c.abiMu.RUnlock()
	if ok {
		return parsed, nil
	}

	parsed, err := abi.JSON(strings.NewReader(abiJSON))
	if err != nil {
		return abi.ABI{}, fmt.Errorf("%w: %v", entity.ErrInvalidABI, err)
	}
	if _, ok := parsed.Methods[balanceOfMethod]; !ok {
		return abi.ABI{}, fmt.Errorf("%w: balanceOf not declared", entity.ErrInvalidABI)
	}

	c.abiMu.Lock()
	c.abiCache[abiJSON] = parsed
	c.abiMu.Unlock()
	return parsed, nil
}

// Definition returns the network definition for this client.
func (c *EVMClient) Definition() entity.NetworkDefinition {
	return c.netDef
}

// RPCURL returns the endpoint the client is bound to.
func (c *EVMClient) RPCURL() string {
	return c.rpcURL
}

// Close releases the underlying connection.
func (c *EVMClient) Close() {
	c.ethClient.Close()
}
