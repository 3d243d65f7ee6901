package providers

import (
	"context"
	"time"

	"github.com/go-go-golems/parley/pkg/conversation"
)

// Kind selects the backend family an adapter speaks.
type Kind string

const (
	// KindStructuredChat is for backends that require an explicit leading
	// system message (OpenAI-style chat completion APIs).
	KindStructuredChat Kind = "structured-chat"
	// KindGenericCompletion is for backends that accept the normalized
	// message sequence as-is and run a single completion call.
	KindGenericCompletion Kind = "generic-completion"
)

// Adapter translates a normalized message sequence into one backend's call
// shape and its response back into plain text. Adapters are stateless apart
// from held credentials and are safe for concurrent use; every failure
// crossing this boundary is a *ProviderError.
type Adapter interface {
	Complete(ctx context.Context, msgs conversation.Conversation) (string, error)
}

const (
	DefaultTemperature float32 = 0.7
	DefaultMaxTokens           = 12000
	DefaultTimeout             = 60 * time.Second
)

// Settings is the static per-provider configuration, loaded once at process
// start and read-only at request time. Temperature and MaxTokens are
// adapter-level defaults; callers cannot override them per request.
type Settings struct {
	ID          string        `mapstructure:"id" yaml:"id"`
	Kind        Kind          `mapstructure:"kind" yaml:"kind"`
	BaseURL     string        `mapstructure:"base_url" yaml:"base_url"`
	APIKey      string        `mapstructure:"api_key" yaml:"api_key"`
	Model       string        `mapstructure:"model" yaml:"model"`
	Temperature *float32      `mapstructure:"temperature" yaml:"temperature,omitempty"`
	MaxTokens   *int          `mapstructure:"max_tokens" yaml:"max_tokens,omitempty"`
	Timeout     time.Duration `mapstructure:"timeout" yaml:"timeout,omitempty"`
}

func (s Settings) TemperatureOrDefault() float32 {
	if s.Temperature != nil {
		return *s.Temperature
	}
	return DefaultTemperature
}

func (s Settings) MaxTokensOrDefault() int {
	if s.MaxTokens != nil {
		return *s.MaxTokens
	}
	return DefaultMaxTokens
}

func (s Settings) TimeoutOrDefault() time.Duration {
	if s.Timeout > 0 {
		return s.Timeout
	}
	return DefaultTimeout
}
