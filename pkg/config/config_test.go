package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-go-golems/parley/pkg/providers"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadFullConfig(t *testing.T) {
	path := writeConfig(t, `
listen: ":9000"
store-path: /tmp/parley-conversations
default-provider: deepseek
log-level: debug
providers:
  - id: deepseek
    kind: structured-chat
    base_url: https://api.deepseek.com/v1
    api_key: sk-test
    model: deepseek-chat
    temperature: 0.2
    max_tokens: 4096
    timeout: 30s
  - id: local
    kind: generic-completion
    base_url: http://localhost:11434
    model: llama3
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.Listen)
	assert.Equal(t, "/tmp/parley-conversations", cfg.StorePath)
	assert.Equal(t, "deepseek", cfg.DefaultProvider)
	assert.Equal(t, "debug", cfg.LogLevel)
	require.Len(t, cfg.Providers, 2)

	p := cfg.Providers[0]
	assert.Equal(t, "deepseek", p.ID)
	assert.Equal(t, providers.KindStructuredChat, p.Kind)
	assert.Equal(t, "sk-test", p.APIKey)
	require.NotNil(t, p.Temperature)
	assert.InDelta(t, 0.2, float64(*p.Temperature), 1e-6)
	require.NotNil(t, p.MaxTokens)
	assert.Equal(t, 4096, *p.MaxTokens)
	assert.Equal(t, 30*time.Second, p.Timeout)

	assert.Equal(t, providers.KindGenericCompletion, cfg.Providers[1].Kind)
}

func TestLoadEmptyConfigUsesDefaults(t *testing.T) {
	path := writeConfig(t, "")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, DefaultListen, cfg.Listen)
	assert.Equal(t, DefaultStorePath, cfg.StorePath)
	assert.Equal(t, DefaultLogLevel, cfg.LogLevel)
	assert.Empty(t, cfg.Providers)
}

func TestEnvOverridesAPIKey(t *testing.T) {
	path := writeConfig(t, `
providers:
  - id: deep-seek
    kind: structured-chat
    model: deepseek-chat
`)

	t.Setenv("PARLEY_DEEP_SEEK_API_KEY", "sk-from-env")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Len(t, cfg.Providers, 1)
	assert.Equal(t, "sk-from-env", cfg.Providers[0].APIKey)
}

func TestDefaultProviderFallsBackToFirst(t *testing.T) {
	path := writeConfig(t, `
providers:
  - id: alpha
    kind: generic-completion
    model: llama3
  - id: beta
    kind: generic-completion
    model: mistral
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "alpha", cfg.DefaultProvider)
}

func TestValidateRejectsBadConfigs(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			name: "unknown default provider",
			content: `
default-provider: nope
providers:
  - id: alpha
    kind: generic-completion
    model: llama3
`,
		},
		{
			name: "duplicate provider id",
			content: `
providers:
  - id: alpha
    kind: generic-completion
    model: llama3
  - id: alpha
    kind: generic-completion
    model: mistral
`,
		},
		{
			name: "unknown kind",
			content: `
providers:
  - id: alpha
    kind: quantum-oracle
    model: llama3
`,
		},
		{
			name: "missing model",
			content: `
providers:
  - id: alpha
    kind: generic-completion
`,
		},
		{
			name:    "empty listen",
			content: `listen: ""`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, tt.content)
			_, err := Load(path)
			assert.Error(t, err)
		})
	}
}
