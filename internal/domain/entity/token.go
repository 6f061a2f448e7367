package entity

// ERC20BalanceOfABI is the minimal ABI fragment for balanceOf(address) -> uint256.
const ERC20BalanceOfABI = `[{"constant":true,"inputs":[{"name":"_owner","type":"address"}],"name":"balanceOf","outputs":[{"name":"balance","type":"uint256"}],"payable":false,"stateMutability":"view","type":"function"}]`

// TokenDescriptor holds the static details of a tracked token.
// Loaded once at startup and never mutated.
type TokenDescriptor struct {
	ChainID         uint64 `json:"chainId" yaml:"chainId"`
	Address         string `json:"address" yaml:"address"`
	Name            string `json:"name" yaml:"name"`
	Symbol          string `json:"symbol" yaml:"symbol"`
	Decimals        uint8  `json:"decimals" yaml:"decimals"`
	DisplayDecimals int32  `json:"displayDecimals" yaml:"displayDecimals"`
	// PriceTicker is the identifier asked from the active price feed. Tokens may share one.
	PriceTicker string `json:"priceTicker" yaml:"priceTicker"`
	// PriceTickers maps feed name to ticker when feeds disagree on identifiers.
	PriceTickers map[string]string `json:"priceTickers,omitempty" yaml:"priceTickers,omitempty"`
	ABI         string `json:"abi,omitempty" yaml:"abi,omitempty"`
}

// BalanceOfABI returns the token ABI, falling back to the standard ERC20 fragment.
func (t TokenDescriptor) BalanceOfABI() string {
	if t.ABI == "" {
		return ERC20BalanceOfABI
	}
	return t.ABI
}

// Tickers returns the price tickers of the given tokens in order, duplicates kept.
func Tickers(tokens []TokenDescriptor) []string {
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		out = append(out, t.PriceTicker)
	}
	return out
}
