package services

import (
	"context"
	"strings"
	"sync"

	"github.com/nulzo/image-router-mcp/internal/core/domain"
	"github.com/nulzo/image-router-mcp/internal/core/ports"
	"github.com/nulzo/image-router-mcp/pkg/api"
)

// ChatService covers the plain aggregator surfaces: chat passthrough, model
// listing, and side-by-side comparison.
type ChatService struct {
	provider ports.AggregatorProvider
}

func NewChatService(provider ports.AggregatorProvider) *ChatService {
	return &ChatService{provider: provider}
}

// Chat sends one chat request to the aggregator.
func (s *ChatService) Chat(ctx context.Context, req *api.ChatRequest) (*api.ChatResponse, error) {
	if s.provider == nil {
		return nil, domain.ConfigurationError("OPENROUTER_API_KEY is not configured")
	}
	return s.provider.Chat(ctx, req)
}

// ListModels fetches the aggregator catalog, optionally filtered by a
// case-insensitive substring of the model ID or name.
func (s *ChatService) ListModels(ctx context.Context, filter string) ([]api.Model, error) {
	if s.provider == nil {
		return nil, domain.ConfigurationError("OPENROUTER_API_KEY is not configured")
	}
	models, err := s.provider.Models(ctx)
	if err != nil {
		return nil, err
	}
	if filter == "" {
		return models, nil
	}

	needle := strings.ToLower(filter)
	var out []api.Model
	for _, m := range models {
		if strings.Contains(strings.ToLower(m.ID), needle) || strings.Contains(strings.ToLower(m.Name), needle) {
			out = append(out, m)
		}
	}
	return out, nil
}

// CompareResult is one model's outcome in a comparison run. Failures are
// per-model and independent; one model erroring never hides the others.
type CompareResult struct {
	Model string
	Text  string
	Usage *domain.Usage
	Err   error
}

// Compare sends the same prompt to every model concurrently and collects
// all outcomes in input order. There is no fallback coupling here: each
// model gets exactly one attempt.
func (s *ChatService) Compare(ctx context.Context, prompt string, models []string, maxTokens int, temperature float64) ([]CompareResult, error) {
	if s.provider == nil {
		return nil, domain.ConfigurationError("OPENROUTER_API_KEY is not configured")
	}
	if len(models) == 0 {
		return nil, domain.BadRequestError("compare requires at least one model")
	}

	results := make([]CompareResult, len(models))
	var wg sync.WaitGroup
	for i, model := range models {
		wg.Add(1)
		go func(i int, model string) {
			defer wg.Done()

			resp, err := s.provider.Chat(ctx, &api.ChatRequest{
				Model:       model,
				Messages:    []api.ChatMessage{api.TextMessage("user", prompt)},
				MaxTokens:   maxTokens,
				Temperature: temperature,
			})
			if err != nil {
				results[i] = CompareResult{Model: model, Err: err}
				return
			}

			r := CompareResult{Model: model, Text: resp.Text()}
			if resp.Usage != nil {
				r.Usage = &domain.Usage{
					PromptTokens:     resp.Usage.PromptTokens,
					CompletionTokens: resp.Usage.CompletionTokens,
					TotalTokens:      resp.Usage.TotalTokens,
				}
			}
			results[i] = r
		}(i, model)
	}
	wg.Wait()

	return results, nil
}
