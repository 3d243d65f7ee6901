package gateway

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/go-go-golems/parley/pkg/conversation"
	"github.com/go-go-golems/parley/pkg/providers"
	"github.com/go-go-golems/parley/pkg/registry"
)

// ErrEmptyMessage is returned when the new user utterance is empty or
// whitespace.
var ErrEmptyMessage = errors.New("empty message")

// DefaultCallTimeout bounds a single provider call. Adapters do not impose
// their own deadline; the gateway does.
const DefaultCallTimeout = 120 * time.Second

// Exchange is the result of one completed turn.
type Exchange struct {
	Reply    string
	Messages conversation.Conversation
}

// Gateway is the façade combining registry and adapters: it appends the user
// turn, runs the completion, and appends the assistant turn. It never
// persists; saving is the caller's explicit Store call, so a failed save
// cannot invalidate a successful completion and vice versa.
type Gateway struct {
	registry    *registry.Registry
	callTimeout time.Duration
}

type Option func(*Gateway)

func WithCallTimeout(d time.Duration) Option {
	return func(g *Gateway) {
		g.callTimeout = d
	}
}

func New(reg *registry.Registry, options ...Option) *Gateway {
	ret := &Gateway{
		registry:    reg,
		callTimeout: DefaultCallTimeout,
	}
	for _, option := range options {
		option(ret)
	}
	return ret
}

// Send runs one exchange: append the user message, complete against the
// resolved provider, append the assistant reply. On any failure the caller's
// transcript comes back unmodified; no partial user-only turn is retained.
func (g *Gateway) Send(
	ctx context.Context,
	msgs conversation.Conversation,
	text string,
	providerID string,
) (*Exchange, error) {
	if strings.TrimSpace(text) == "" {
		return &Exchange{Messages: msgs}, ErrEmptyMessage
	}

	adapter, err := g.registry.Resolve(providerID)
	if err != nil {
		return &Exchange{Messages: msgs}, err
	}

	effectiveID := providerID
	if effectiveID == "" {
		effectiveID = g.registry.DefaultID()
	}

	working := msgs.AppendUser(text)

	callCtx, cancel := context.WithTimeout(ctx, g.callTimeout)
	defer cancel()

	start := time.Now()
	reply, err := adapter.Complete(callCtx, working)
	if err != nil {
		err = normalizeProviderError(effectiveID, err)
		log.Warn().
			Err(err).
			Str("provider", effectiveID).
			Msg("provider call failed")
		return &Exchange{Messages: msgs}, err
	}

	log.Debug().
		Str("provider", effectiveID).
		Dur("elapsed", time.Since(start)).
		Int("reply_len", len(reply)).
		Msg("provider call completed")

	return &Exchange{
		Reply:    reply,
		Messages: working.AppendAssistant(reply),
	}, nil
}

// normalizeProviderError guarantees the ProviderError contract at the
// gateway boundary even if an adapter let a raw error slip through, and
// turns a gateway-imposed deadline into a timeout classification.
func normalizeProviderError(providerID string, err error) error {
	var provErr *providers.ProviderError
	if errors.As(err, &provErr) {
		return err
	}

	kind := providers.ErrorKindNetwork
	if errors.Is(err, context.DeadlineExceeded) {
		kind = providers.ErrorKindTimeout
	}
	return providers.NewProviderError(providerID, kind, err)
}
