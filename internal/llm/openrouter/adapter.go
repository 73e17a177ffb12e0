package openrouter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/nulzo/image-router-mcp/internal/config"
	"github.com/nulzo/image-router-mcp/internal/core/domain"
	"github.com/nulzo/image-router-mcp/internal/core/ports"
	"github.com/nulzo/image-router-mcp/internal/httpclient"
	"github.com/nulzo/image-router-mcp/pkg/api"
)

const defaultBaseURL = "https://openrouter.ai/api/v1"

// Adapter talks to the OpenRouter chat-completions API, both for plain chat
// passthrough and as the fallback image path.
type Adapter struct {
	cfg    config.ProviderConfig
	client *http.Client
}

func NewAdapter(cfg config.ProviderConfig, proxyURL string) *Adapter {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	return &Adapter{
		cfg:    cfg,
		client: httpclient.New(proxyURL, 5*time.Minute),
	}
}

// upstreamErrorResponse mirrors the standard OpenAI-style error shape
type upstreamErrorResponse struct {
	Error struct {
		Message string      `json:"message"`
		Type    string      `json:"type"`
		Code    interface{} `json:"code"`
	} `json:"error"`
}

func (a *Adapter) handleUpstreamError(err error) error {
	var upstreamErr *httpclient.UpstreamError
	if !errors.As(err, &upstreamErr) {
		return err
	}

	// parse the specific upstream error format
	var apiErr upstreamErrorResponse
	if jsonErr := json.Unmarshal(upstreamErr.Body, &apiErr); jsonErr != nil || apiErr.Error.Message == "" {
		return domain.ProviderError(fmt.Sprintf("openrouter: status %d: %s", upstreamErr.StatusCode, string(upstreamErr.Body)), err)
	}

	return domain.ProviderError("openrouter: "+apiErr.Error.Message, err)
}

func (a *Adapter) headers() map[string]string {
	return map[string]string{
		"Authorization": "Bearer " + a.cfg.APIKey,
	}
}

// Chat is a plain passthrough to the chat-completions endpoint.
func (a *Adapter) Chat(ctx context.Context, req *api.ChatRequest) (*api.ChatResponse, error) {
	url := fmt.Sprintf("%s/chat/completions", strings.TrimRight(a.cfg.BaseURL, "/"))

	// ensure stream is false for this method
	req.Stream = false

	var resp api.ChatResponse
	if err := httpclient.SendRequest(ctx, a.client, "POST", url, a.headers(), req, &resp); err != nil {
		return nil, a.handleUpstreamError(err)
	}

	if resp.Error != nil {
		return nil, domain.ProviderError("openrouter: "+resp.Error.Message, resp.Error)
	}
	return &resp, nil
}

// BuildImageMessages shapes the chat-completions body for an image call: a
// single user message carrying one text block, then one image_url block per
// reference image, passed through verbatim with no re-encoding.
func BuildImageMessages(req *domain.ImageRequest) []api.ChatMessage {
	parts := []api.ContentPart{{Type: "text", Text: req.Prompt}}
	for _, ref := range req.ReferenceImages {
		parts = append(parts, api.ContentPart{
			Type:     "image_url",
			ImageURL: &api.ImageURL{URL: ref},
		})
	}
	return []api.ChatMessage{{Role: "user", Content: api.Content{Parts: parts}}}
}

// CreateImage issues exactly one chat-completions call shaped for image
// output. Generated images appear on the response message's images array; a
// reply without any is a degraded success, reported with the verbatim text.
func (a *Adapter) CreateImage(ctx context.Context, req *domain.ImageRequest) (*ports.AggregatorResult, error) {
	model := req.Model
	if model == "" {
		model = a.cfg.Model
	}

	chatReq := &api.ChatRequest{
		Model:       model,
		Messages:    BuildImageMessages(req),
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
		Modalities:  []string{"image", "text"},
	}

	resp, err := a.Chat(ctx, chatReq)
	if err != nil {
		return nil, err
	}

	result := &ports.AggregatorResult{
		ImageRefs: resp.ImageRefs(),
		Text:      resp.Text(),
		Model:     model,
	}
	if resp.Usage != nil {
		result.Usage = &domain.Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		}
	}
	return result, nil
}

// Models fetches the aggregator's model listing.
func (a *Adapter) Models(ctx context.Context) ([]api.Model, error) {
	url := fmt.Sprintf("%s/models", strings.TrimRight(a.cfg.BaseURL, "/"))

	var list api.ModelList
	if err := httpclient.SendRequest(ctx, a.client, "GET", url, a.headers(), nil, &list); err != nil {
		return nil, a.handleUpstreamError(err)
	}
	return list.Data, nil
}
