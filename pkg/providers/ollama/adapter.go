package ollama

import (
	"context"
	"net"
	"net/http"
	"net/url"

	"github.com/ollama/ollama/api"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/go-go-golems/parley/pkg/conversation"
	"github.com/go-go-golems/parley/pkg/providers"
)

const DefaultBaseURL = "http://localhost:11434"

// Adapter speaks the generic-completion family through a local Ollama
// server. The normalized message sequence is passed through as-is, one
// completion call per exchange.
type Adapter struct {
	settings providers.Settings
	client   *api.Client
}

var _ providers.Adapter = (*Adapter)(nil)

func New(settings providers.Settings) (*Adapter, error) {
	if settings.Model == "" {
		return nil, errors.Errorf("provider %s: no model configured", settings.ID)
	}

	baseURL := settings.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, errors.Wrapf(err, "provider %s: invalid base URL %s", settings.ID, baseURL)
	}

	return &Adapter{
		settings: settings,
		client:   api.NewClient(base, http.DefaultClient),
	}, nil
}

func (a *Adapter) Complete(ctx context.Context, msgs conversation.Conversation) (string, error) {
	ollamaMessages := make([]api.Message, 0, len(msgs))
	for _, msg := range msgs {
		ollamaMessages = append(ollamaMessages, api.Message{
			Role:    string(msg.Role),
			Content: msg.Content,
		})
	}

	stream := false
	req := &api.ChatRequest{
		Model:    a.settings.Model,
		Messages: ollamaMessages,
		Stream:   &stream,
		Options: map[string]interface{}{
			"temperature": a.settings.TemperatureOrDefault(),
			"num_predict": a.settings.MaxTokensOrDefault(),
		},
	}

	log.Debug().
		Str("provider", a.settings.ID).
		Str("model", req.Model).
		Int("messages", len(req.Messages)).
		Msg("sending ollama chat request")

	reply := ""
	done := false
	err := a.client.Chat(ctx, req, func(resp api.ChatResponse) error {
		reply += resp.Message.Content
		if resp.Done {
			done = true
		}
		return nil
	})
	if err != nil {
		return "", a.wrapError(err)
	}
	if !done {
		return "", providers.NewProviderError(a.settings.ID, providers.ErrorKindMalformedResponse,
			errors.New("response stream ended without a final message"))
	}

	return reply, nil
}

func (a *Adapter) wrapError(err error) error {
	kind := providers.ErrorKindNetwork

	var statusErr api.StatusError
	var netErr net.Error

	switch {
	case errors.As(err, &statusErr):
		switch {
		case statusErr.StatusCode == 401 || statusErr.StatusCode == 403:
			kind = providers.ErrorKindAuth
		case statusErr.StatusCode == 429:
			kind = providers.ErrorKindRateLimit
		case statusErr.StatusCode >= 500:
			kind = providers.ErrorKindNetwork
		default:
			kind = providers.ErrorKindMalformedResponse
		}
	case errors.As(err, &netErr) && netErr.Timeout():
		kind = providers.ErrorKindTimeout
	}

	return providers.NewProviderError(a.settings.ID, kind, err)
}
