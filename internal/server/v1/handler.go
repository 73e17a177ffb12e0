package v1

import (
	"github.com/nulzo/image-router-mcp/internal/config"
	"github.com/nulzo/image-router-mcp/internal/core/ports"
	"github.com/nulzo/image-router-mcp/internal/core/services"
	"github.com/nulzo/image-router-mcp/internal/llm/openrouter"
)

// chatService wires the aggregator the same way the tool layer does: the
// credentials are resolved once per request and nothing mutable survives it.
func chatService(cfg *config.Config) *services.ChatService {
	creds := cfg.Resolve(config.Overrides{})

	var provider ports.AggregatorProvider
	if creds.HasOpenRouter() {
		provider = openrouter.NewAdapter(config.ProviderConfig{
			APIKey:  creds.OpenRouterKey,
			BaseURL: creds.OpenRouterBase,
			Model:   cfg.OpenRouter.Model,
		}, creds.Proxy)
	}
	return services.NewChatService(provider)
}
