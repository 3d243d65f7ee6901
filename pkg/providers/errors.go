package providers

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
)

// ErrUnknownProvider is returned by the registry when a caller names a
// provider id that is not in the loaded configuration.
var ErrUnknownProvider = errors.New("unknown provider")

// ErrorKind classifies a provider failure so callers can branch on it.
type ErrorKind string

const (
	ErrorKindAuth              ErrorKind = "auth"
	ErrorKindNetwork           ErrorKind = "network"
	ErrorKindRateLimit         ErrorKind = "rate-limit"
	ErrorKindTimeout           ErrorKind = "timeout"
	ErrorKindMalformedResponse ErrorKind = "malformed-response"
)

// ProviderError is the single error shape that crosses the adapter boundary.
// Raw transport errors never escape an adapter; they are wrapped here with
// the provider id and a classification.
type ProviderError struct {
	Provider string
	Kind     ErrorKind
	Err      error
}

func (e *ProviderError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("provider %s: %s", e.Provider, e.Kind)
	}
	return fmt.Sprintf("provider %s: %s: %s", e.Provider, e.Kind, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// NewProviderError wraps err for the given provider. A context deadline is
// always classified as a timeout, whatever the transport reported.
func NewProviderError(provider string, kind ErrorKind, err error) *ProviderError {
	if errors.Is(err, context.DeadlineExceeded) {
		kind = ErrorKindTimeout
	}
	return &ProviderError{Provider: provider, Kind: kind, Err: err}
}
