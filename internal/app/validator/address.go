package validator

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"github.com/peterhaasme/time-portfolio/internal/domain/entity"
)

// evmAddressRegex matches 0x followed by exactly 40 hex characters.
var evmAddressRegex = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)

// AddressValidator decides whether a string is a usable holder address.
// The zero value enforces EIP-55 checksums on mixed-case input.
type AddressValidator struct {
	skipChecksum bool
}

// Option configures an AddressValidator.
type Option func(*AddressValidator)

// WithChecksum toggles EIP-55 enforcement for mixed-case addresses.
func WithChecksum(enabled bool) Option {
	return func(v *AddressValidator) { v.skipChecksum = !enabled }
}

// New creates an AddressValidator.
func New(opts ...Option) *AddressValidator {
	v := &AddressValidator{}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// IsValidAddress reports whether candidate is a syntactically valid address.
// Pure and total: it never panics and never touches the network.
func (v *AddressValidator) IsValidAddress(candidate string) bool {
	return v.Validate(candidate) == nil
}

// Validate returns nil for a valid address, otherwise an error wrapping
// entity.ErrInvalidAddressFormat that says what is wrong.
func (v *AddressValidator) Validate(candidate string) error {
	if candidate == "" {
		return fmt.Errorf("%w: empty address", entity.ErrInvalidAddressFormat)
	}
	if !evmAddressRegex.MatchString(candidate) || !common.IsHexAddress(candidate) {
		return fmt.Errorf("%w: %q must match 0x + 40 hex characters", entity.ErrInvalidAddressFormat, candidate)
	}
	if v.skipChecksum {
		return nil
	}

	body := candidate[2:]
	if body == strings.ToLower(body) || body == strings.ToUpper(body) {
		// Single-case input carries no checksum.
		return nil
	}
	if common.HexToAddress(candidate).Hex() != candidate {
		return fmt.Errorf("%w: %q has a bad EIP-55 checksum", entity.ErrInvalidAddressFormat, candidate)
	}
	return nil
}

// Evaluate maps raw input to the tri-state shown to the user. Empty input is
// unevaluated so nothing is flagged before the user types.
func (v *AddressValidator) Evaluate(candidate string) entity.AddressState {
	if candidate == "" {
		return entity.AddressUnevaluated
	}
	if v.IsValidAddress(candidate) {
		return entity.AddressValid
	}
	return entity.AddressInvalid
}

// Normalize validates addr and returns its checksummed form.
func (v *AddressValidator) Normalize(addr string) (string, error) {
	if err := v.Validate(addr); err != nil {
		return "", err
	}
	return common.HexToAddress(addr).Hex(), nil
}

// defaultValidator backs the package-level helpers.
var defaultValidator = New()

// IsValidAddress checks candidate with checksum enforcement enabled.
func IsValidAddress(candidate string) bool {
	return defaultValidator.IsValidAddress(candidate)
}

// Normalize returns the checksummed form of addr using the default validator.
func Normalize(addr string) (string, error) {
	return defaultValidator.Normalize(addr)
}
