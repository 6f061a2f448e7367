package entity

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrInvalidAddressFormat is returned when an address fails format or checksum validation.
	ErrInvalidAddressFormat = errors.New("invalid address format")
	// ErrBalanceFetchFailed marks a balance that could not be obtained from the chain.
	ErrBalanceFetchFailed = errors.New("balance fetch failed")
	// ErrPriceFetchFailed marks a price feed call that failed as a whole.
	ErrPriceFetchFailed = errors.New("price fetch failed")
	// ErrMissingTicker is returned when the feed answered without a requested ticker.
	ErrMissingTicker = errors.New("ticker missing from price response")
	// ErrNonNumericPrice is returned when a price value cannot be parsed as a number.
	ErrNonNumericPrice = errors.New("non-numeric price")
	// ErrMalformedResponse is returned for node or feed payloads that cannot be decoded.
	ErrMalformedResponse = errors.New("malformed response")
	// ErrInvalidABI is returned when a token ABI cannot be parsed or lacks balanceOf.
	ErrInvalidABI = errors.New("invalid token ABI")
	// ErrPartialResult marks a snapshot where at least one component is unavailable.
	ErrPartialResult = errors.New("partial portfolio result")
)

// IsPermanent reports whether retrying err cannot help: validation, ABI and
// payload problems, cancellation, and errors that declare themselves non-retryable.
func IsPermanent(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrInvalidAddressFormat) ||
		errors.Is(err, ErrInvalidABI) ||
		errors.Is(err, ErrMalformedResponse) ||
		errors.Is(err, context.Canceled) {
		return true
	}
	var r interface{ Retryable() bool }
	if errors.As(err, &r) {
		return !r.Retryable()
	}
	return false
}

// FetchError carries the failing token symbol along with the failure kind and cause.
// errors.Is matches both Kind and anything in the Err chain.
type FetchError struct {
	Kind   error
	Symbol string
	Err    error
}

func (e *FetchError) Error() string {
	if e.Symbol == "" {
		return fmt.Sprintf("%v: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%v for %s: %v", e.Kind, e.Symbol, e.Err)
}

func (e *FetchError) Unwrap() []error {
	return []error{e.Kind, e.Err}
}

// TickerErrors collects per-ticker failures of a single price batch.
type TickerErrors map[string]error

func (te TickerErrors) Error() string {
	tickers := make([]string, 0, len(te))
	for t := range te {
		tickers = append(tickers, t)
	}
	sort.Strings(tickers)

	parts := make([]string, 0, len(tickers))
	for _, t := range tickers {
		parts = append(parts, fmt.Sprintf("%s: %v", t, te[t]))
	}
	return strings.Join(parts, "; ")
}

func (te TickerErrors) Unwrap() []error {
	errs := make([]error, 0, len(te))
	for _, err := range te {
		errs = append(errs, err)
	}
	return errs
}

// PortfolioError is the serializable form of a failure reported to API clients.
type PortfolioError struct {
	WalletAddress string `json:"walletAddress"`
	TokenSymbol   string `json:"tokenSymbol,omitempty"`
	TokenAddress  string `json:"tokenAddress,omitempty"`
	Message       string `json:"message"`
}
