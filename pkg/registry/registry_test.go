package registry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-go-golems/parley/pkg/conversation"
	"github.com/go-go-golems/parley/pkg/providers"
)

type nullAdapter struct{}

func (nullAdapter) Complete(ctx context.Context, msgs conversation.Conversation) (string, error) {
	return "", nil
}

func TestResolveKnownProvider(t *testing.T) {
	reg, err := New("a", map[string]providers.Adapter{
		"a": nullAdapter{},
		"b": nullAdapter{},
	})
	require.NoError(t, err)

	adapter, err := reg.Resolve("b")
	require.NoError(t, err)
	assert.NotNil(t, adapter)
}

func TestResolveEmptyIDUsesDefault(t *testing.T) {
	reg, err := New("a", map[string]providers.Adapter{"a": nullAdapter{}})
	require.NoError(t, err)

	adapter, err := reg.Resolve("")
	require.NoError(t, err)
	assert.NotNil(t, adapter)
	assert.Equal(t, "a", reg.DefaultID())
}

func TestResolveUnknownProviderFails(t *testing.T) {
	reg, err := New("a", map[string]providers.Adapter{"a": nullAdapter{}})
	require.NoError(t, err)

	// an invalid id is an error, never a fallback to the default
	_, err = reg.Resolve("nope")
	require.ErrorIs(t, err, providers.ErrUnknownProvider)
}

func TestResolveEmptyIDWithoutDefaultFails(t *testing.T) {
	reg, err := New("", map[string]providers.Adapter{"a": nullAdapter{}})
	require.NoError(t, err)

	_, err = reg.Resolve("")
	require.ErrorIs(t, err, providers.ErrUnknownProvider)
}

func TestNewRejectsUnknownDefault(t *testing.T) {
	_, err := New("missing", map[string]providers.Adapter{"a": nullAdapter{}})
	require.Error(t, err)
}

func TestFromSettings(t *testing.T) {
	reg, err := FromSettings("deepseek", []providers.Settings{
		{
			ID:      "deepseek",
			Kind:    providers.KindStructuredChat,
			BaseURL: "https://api.deepseek.com/v1",
			APIKey:  "test-key",
			Model:   "deepseek-chat",
		},
		{
			ID:    "local",
			Kind:  providers.KindGenericCompletion,
			Model: "llama2",
		},
	})
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"deepseek", "local"}, reg.IDs())

	for _, id := range []string{"deepseek", "local", ""} {
		adapter, err := reg.Resolve(id)
		require.NoError(t, err, "resolve %q", id)
		assert.NotNil(t, adapter)
	}
}

func TestFromSettingsRejectsBadConfigurations(t *testing.T) {
	tests := []struct {
		name     string
		settings []providers.Settings
	}{
		{
			name:     "missing id",
			settings: []providers.Settings{{Kind: providers.KindStructuredChat, Model: "m"}},
		},
		{
			name: "duplicate id",
			settings: []providers.Settings{
				{ID: "a", Kind: providers.KindStructuredChat, Model: "m"},
				{ID: "a", Kind: providers.KindGenericCompletion, Model: "m"},
			},
		},
		{
			name:     "unknown kind",
			settings: []providers.Settings{{ID: "a", Kind: "mystery", Model: "m"}},
		},
		{
			name:     "missing model",
			settings: []providers.Settings{{ID: "a", Kind: providers.KindStructuredChat}},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := FromSettings("", tc.settings)
			require.Error(t, err)
		})
	}
}
