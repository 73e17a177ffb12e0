package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "stdio", cfg.MCP.Transport)
	assert.Equal(t, "gemini-2.5-flash-image-preview", cfg.Gemini.Model)
	assert.Equal(t, "https://generativelanguage.googleapis.com/v1beta", cfg.Gemini.BaseURL)
	assert.Equal(t, "google/gemini-2.5-flash-image-preview", cfg.OpenRouter.Model)
	assert.Equal(t, "https://openrouter.ai/api/v1", cfg.OpenRouter.BaseURL)
	assert.Equal(t, "output", cfg.Output.Dir)
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "env-gemini-key")
	t.Setenv("OPENROUTER_API_KEY", "env-or-key")
	t.Setenv("MCP_TRANSPORT", "http")
	t.Setenv("HTTP_PROXY", "http://proxy.local:3128")
	t.Setenv("OUTPUT_DIR", "/tmp/images")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "env-gemini-key", cfg.Gemini.APIKey)
	assert.Equal(t, "env-or-key", cfg.OpenRouter.APIKey)
	assert.Equal(t, "http", cfg.MCP.Transport)
	assert.Equal(t, "http://proxy.local:3128", cfg.Proxy.HTTP)
	assert.Equal(t, "/tmp/images", cfg.Output.Dir)
}

func TestResolveOverridesWin(t *testing.T) {
	cfg := &Config{
		Gemini:     ProviderConfig{APIKey: "env-key"},
		OpenRouter: ProviderConfig{APIKey: "or-key", BaseURL: "https://openrouter.ai/api/v1"},
		Proxy:      ProxyConfig{HTTP: "http://env-proxy:8080"},
		Output:     OutputConfig{Dir: "output"},
	}

	creds := cfg.Resolve(Overrides{
		GeminiKey: "arg-key",
		Proxy:     "http://arg-proxy:9090",
		OutputDir: "/custom",
	})

	assert.Equal(t, "arg-key", creds.GeminiKey)
	assert.Equal(t, "http://arg-proxy:9090", creds.Proxy)
	assert.Equal(t, "/custom", creds.OutputDir)
	assert.Equal(t, "or-key", creds.OpenRouterKey)
}

func TestResolveProxyPrecedence(t *testing.T) {
	tests := []struct {
		name     string
		override string
		httpEnv  string
		httpsEnv string
		want     string
	}{
		{name: "override beats everything", override: "http://a", httpEnv: "http://b", httpsEnv: "http://c", want: "http://a"},
		{name: "http beats https", httpEnv: "http://b", httpsEnv: "http://c", want: "http://b"},
		{name: "https as last resort", httpsEnv: "http://c", want: "http://c"},
		{name: "nothing configured", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{Proxy: ProxyConfig{HTTP: tt.httpEnv, HTTPS: tt.httpsEnv}}
			creds := cfg.Resolve(Overrides{Proxy: tt.override})
			assert.Equal(t, tt.want, creds.Proxy)
		})
	}
}

func TestCredentialsPresence(t *testing.T) {
	cfg := &Config{}
	creds := cfg.Resolve(Overrides{})
	assert.False(t, creds.HasGemini())
	assert.False(t, creds.HasOpenRouter())

	creds = cfg.Resolve(Overrides{GeminiKey: "k"})
	assert.True(t, creds.HasGemini())
}
