package openai

import (
	"context"
	"net"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	go_openai "github.com/sashabaranov/go-openai"

	"github.com/go-go-golems/parley/pkg/conversation"
	"github.com/go-go-golems/parley/pkg/providers"
)

// DefaultSystemPrompt is synthesized in front of transcripts that do not
// start with a system message; structured chat backends require one.
const DefaultSystemPrompt = "You are a helpful assistant."

// Adapter speaks the structured-chat family: OpenAI-compatible chat
// completion APIs, which covers DeepSeek and the other base-URL-compatible
// backends.
type Adapter struct {
	settings providers.Settings
	client   *go_openai.Client
}

var _ providers.Adapter = (*Adapter)(nil)

func New(settings providers.Settings) (*Adapter, error) {
	if settings.Model == "" {
		return nil, errors.Errorf("provider %s: no model configured", settings.ID)
	}

	config := go_openai.DefaultConfig(settings.APIKey)
	if settings.BaseURL != "" {
		config.BaseURL = settings.BaseURL
	}

	return &Adapter{
		settings: settings,
		client:   go_openai.NewClientWithConfig(config),
	}, nil
}

func (a *Adapter) Complete(ctx context.Context, msgs conversation.Conversation) (string, error) {
	req := go_openai.ChatCompletionRequest{
		Model:       a.settings.Model,
		Messages:    makeMessages(msgs),
		Temperature: a.settings.TemperatureOrDefault(),
		MaxTokens:   a.settings.MaxTokensOrDefault(),
	}

	log.Debug().
		Str("provider", a.settings.ID).
		Str("model", req.Model).
		Int("messages", len(req.Messages)).
		Msg("sending chat completion request")

	resp, err := a.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", a.wrapError(err)
	}

	if len(resp.Choices) == 0 {
		return "", providers.NewProviderError(a.settings.ID, providers.ErrorKindMalformedResponse,
			errors.New("response contains no choices"))
	}

	return resp.Choices[0].Message.Content, nil
}

// makeMessages translates the normalized transcript into the wire shape,
// synthesizing the leading system message when the caller did not supply one.
func makeMessages(msgs conversation.Conversation) []go_openai.ChatCompletionMessage {
	ret := make([]go_openai.ChatCompletionMessage, 0, len(msgs)+1)

	if len(msgs) == 0 || msgs[0].Role != conversation.RoleSystem {
		ret = append(ret, go_openai.ChatCompletionMessage{
			Role:    go_openai.ChatMessageRoleSystem,
			Content: DefaultSystemPrompt,
		})
	}

	for _, msg := range msgs {
		ret = append(ret, go_openai.ChatCompletionMessage{
			Role:    string(msg.Role),
			Content: msg.Content,
		})
	}

	return ret
}

func (a *Adapter) wrapError(err error) error {
	kind := providers.ErrorKindNetwork

	var apiErr *go_openai.APIError
	var reqErr *go_openai.RequestError
	var netErr net.Error

	switch {
	case errors.As(err, &apiErr):
		kind = kindForStatus(apiErr.HTTPStatusCode)
	case errors.As(err, &reqErr):
		kind = kindForStatus(reqErr.HTTPStatusCode)
	case errors.As(err, &netErr) && netErr.Timeout():
		kind = providers.ErrorKindTimeout
	}

	return providers.NewProviderError(a.settings.ID, kind, err)
}

func kindForStatus(status int) providers.ErrorKind {
	switch {
	case status == 401 || status == 403:
		return providers.ErrorKindAuth
	case status == 429:
		return providers.ErrorKindRateLimit
	case status >= 500:
		return providers.ErrorKindNetwork
	default:
		return providers.ErrorKindMalformedResponse
	}
}
