package mcptool

import (
	"context"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/nulzo/image-router-mcp/internal/asset"
	"github.com/nulzo/image-router-mcp/internal/config"
	"github.com/nulzo/image-router-mcp/internal/core/domain"
	"github.com/nulzo/image-router-mcp/internal/core/ports"
	"github.com/nulzo/image-router-mcp/internal/core/services"
	"github.com/nulzo/image-router-mcp/internal/httpclient"
	"github.com/nulzo/image-router-mcp/internal/llm/gemini"
	"github.com/nulzo/image-router-mcp/internal/llm/openrouter"
	"github.com/nulzo/image-router-mcp/internal/storage"
	"github.com/nulzo/image-router-mcp/pkg/api"
)

const (
	ServerName = "image-router-mcp"
	Version    = "1.2.0"
)

// Server wraps the MCP server with the tool and resource surface. Inputs
// arriving at the handlers have already passed the SDK's schema validation.
type Server struct {
	cfg    *config.Config
	server *mcp.Server
}

func New(cfg *config.Config) *Server {
	s := &Server{
		cfg:    cfg,
		server: mcp.NewServer(&mcp.Implementation{Name: ServerName, Version: Version}, nil),
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer exposes the underlying server for transport hosting.
func (s *Server) MCPServer() *mcp.Server { return s.server }

// ServeStdio blocks serving MCP over stdin/stdout.
func (s *Server) ServeStdio(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// imageService wires one call's worth of collaborators from the resolved
// credentials. Everything here is call-scoped; nothing mutable outlives the
// call.
func (s *Server) imageService(o config.Overrides) *services.ImageService {
	creds := s.cfg.Resolve(o)

	var direct ports.DirectProvider
	if creds.HasGemini() {
		direct = gemini.NewAdapter(config.ProviderConfig{
			APIKey:  creds.GeminiKey,
			BaseURL: s.cfg.Gemini.BaseURL,
			Model:   s.cfg.Gemini.Model,
		}, creds.Proxy)
	}

	var secondary ports.AggregatorProvider
	if creds.HasOpenRouter() {
		secondary = openrouter.NewAdapter(config.ProviderConfig{
			APIKey:  creds.OpenRouterKey,
			BaseURL: creds.OpenRouterBase,
			Model:   s.cfg.OpenRouter.Model,
		}, creds.Proxy)
	}

	fetchClient := httpclient.New(creds.Proxy, 2*time.Minute)
	assets := asset.NewManager(fetchClient, "")
	store := storage.NewStore(fetchClient, creds.OutputDir)

	return services.NewImageService(direct, secondary, assets, store, creds)
}

func (s *Server) chatService() *services.ChatService {
	creds := s.cfg.Resolve(config.Overrides{})

	var provider ports.AggregatorProvider
	if creds.HasOpenRouter() {
		provider = openrouter.NewAdapter(config.ProviderConfig{
			APIKey:  creds.OpenRouterKey,
			BaseURL: creds.OpenRouterBase,
			Model:   s.cfg.OpenRouter.Model,
		}, creds.Proxy)
	}
	return services.NewChatService(provider)
}

type GenerateImageInput struct {
	Prompt        string  `json:"prompt" jsonschema:"the image generation prompt"`
	Model         string  `json:"model,omitempty" jsonschema:"aggregator model to use if the call falls back to OpenRouter"`
	MaxTokens     int     `json:"max_tokens,omitempty" jsonschema:"max tokens for the aggregator path"`
	Temperature   float64 `json:"temperature,omitempty" jsonschema:"sampling temperature for the aggregator path"`
	SaveDirectory string  `json:"save_directory,omitempty" jsonschema:"directory to save generated images into"`
	APIKey        string  `json:"api_key,omitempty" jsonschema:"Gemini API key override"`
	Proxy         string  `json:"proxy,omitempty" jsonschema:"proxy URL override"`
}

type EditImageInput struct {
	Instruction   string   `json:"instruction" jsonschema:"the edit or analysis instruction"`
	Images        []string `json:"images" jsonschema:"reference images as URLs or base64 data URIs"`
	Model         string   `json:"model,omitempty" jsonschema:"aggregator model to use if the call falls back to OpenRouter"`
	MaxTokens     int      `json:"max_tokens,omitempty" jsonschema:"max tokens for the aggregator path"`
	Temperature   float64  `json:"temperature,omitempty" jsonschema:"sampling temperature for the aggregator path"`
	SaveDirectory string   `json:"save_directory,omitempty" jsonschema:"directory to save generated images into"`
	APIKey        string   `json:"api_key,omitempty" jsonschema:"Gemini API key override"`
	Proxy         string   `json:"proxy,omitempty" jsonschema:"proxy URL override"`
}

type ChatInput struct {
	Message     string  `json:"message" jsonschema:"the user message"`
	Model       string  `json:"model,omitempty" jsonschema:"aggregator model id"`
	MaxTokens   int     `json:"max_tokens,omitempty"`
	Temperature float64 `json:"temperature,omitempty"`
}

type CompareModelsInput struct {
	Prompt      string   `json:"prompt" jsonschema:"the prompt sent to every model"`
	Models      []string `json:"models" jsonschema:"aggregator model ids to compare"`
	MaxTokens   int      `json:"max_tokens,omitempty"`
	Temperature float64  `json:"temperature,omitempty"`
}

type ListModelsInput struct {
	Filter string `json:"filter,omitempty" jsonschema:"case-insensitive substring filter on model id or name"`
}

func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "generate_image",
		Description: "Generate an image from a text prompt. Tries Gemini first, falls back to OpenRouter.",
	}, s.generateImage)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "edit_image",
		Description: "Edit or analyze reference images with an instruction. Tries Gemini first, falls back to OpenRouter.",
	}, s.editImage)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "gemini_native_generate",
		Description: "Generate an image via the Gemini API only, with no fallback.",
	}, s.geminiGenerate)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "gemini_direct_edit",
		Description: "Edit or analyze an image via the Gemini API only, with no fallback.",
	}, s.geminiEdit)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "chat",
		Description: "Send a chat message to an OpenRouter model.",
	}, s.chat)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "compare_models",
		Description: "Send the same prompt to several OpenRouter models concurrently and compare the replies.",
	}, s.compareModels)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_models",
		Description: "List available OpenRouter models, optionally filtered.",
	}, s.listModels)
}

func (s *Server) generateImage(ctx context.Context, req *mcp.CallToolRequest, in GenerateImageInput) (*mcp.CallToolResult, any, error) {
	svc := s.imageService(config.Overrides{GeminiKey: in.APIKey, Proxy: in.Proxy, OutputDir: in.SaveDirectory})

	report, err := svc.Resolve(ctx, &domain.ImageRequest{
		Kind:        domain.OpGenerate,
		Prompt:      in.Prompt,
		Model:       in.Model,
		OutputDir:   in.SaveDirectory,
		MaxTokens:   in.MaxTokens,
		Temperature: in.Temperature,
	})
	if err != nil {
		return nil, nil, err
	}
	return textResult(renderReport(report)), nil, nil
}

func (s *Server) editImage(ctx context.Context, req *mcp.CallToolRequest, in EditImageInput) (*mcp.CallToolResult, any, error) {
	svc := s.imageService(config.Overrides{GeminiKey: in.APIKey, Proxy: in.Proxy, OutputDir: in.SaveDirectory})

	report, err := svc.Resolve(ctx, &domain.ImageRequest{
		Kind:            domain.OpEdit,
		Prompt:          in.Instruction,
		ReferenceImages: in.Images,
		Model:           in.Model,
		OutputDir:       in.SaveDirectory,
		MaxTokens:       in.MaxTokens,
		Temperature:     in.Temperature,
	})
	if err != nil {
		return nil, nil, err
	}
	return textResult(renderReport(report)), nil, nil
}

func (s *Server) geminiGenerate(ctx context.Context, req *mcp.CallToolRequest, in GenerateImageInput) (*mcp.CallToolResult, any, error) {
	svc := s.imageService(config.Overrides{GeminiKey: in.APIKey, Proxy: in.Proxy, OutputDir: in.SaveDirectory})

	report, err := svc.DirectOnly(ctx, &domain.ImageRequest{
		Kind:      domain.OpGenerate,
		Prompt:    in.Prompt,
		OutputDir: in.SaveDirectory,
	})
	if err != nil {
		return nil, nil, err
	}
	return textResult(renderReport(report)), nil, nil
}

func (s *Server) geminiEdit(ctx context.Context, req *mcp.CallToolRequest, in EditImageInput) (*mcp.CallToolResult, any, error) {
	svc := s.imageService(config.Overrides{GeminiKey: in.APIKey, Proxy: in.Proxy, OutputDir: in.SaveDirectory})

	report, err := svc.DirectOnly(ctx, &domain.ImageRequest{
		Kind:            domain.OpEdit,
		Prompt:          in.Instruction,
		ReferenceImages: in.Images,
		OutputDir:       in.SaveDirectory,
	})
	if err != nil {
		return nil, nil, err
	}
	return textResult(renderReport(report)), nil, nil
}

func (s *Server) chat(ctx context.Context, req *mcp.CallToolRequest, in ChatInput) (*mcp.CallToolResult, any, error) {
	model := in.Model
	if model == "" {
		model = s.cfg.OpenRouter.Model
	}

	resp, err := s.chatService().Chat(ctx, &api.ChatRequest{
		Model:       model,
		Messages:    []api.ChatMessage{api.TextMessage("user", in.Message)},
		MaxTokens:   in.MaxTokens,
		Temperature: in.Temperature,
	})
	if err != nil {
		return nil, nil, err
	}
	return textResult(renderChat(model, resp)), nil, nil
}

func (s *Server) compareModels(ctx context.Context, req *mcp.CallToolRequest, in CompareModelsInput) (*mcp.CallToolResult, any, error) {
	results, err := s.chatService().Compare(ctx, in.Prompt, in.Models, in.MaxTokens, in.Temperature)
	if err != nil {
		return nil, nil, err
	}
	return textResult(renderCompare(results)), nil, nil
}

func (s *Server) listModels(ctx context.Context, req *mcp.CallToolRequest, in ListModelsInput) (*mcp.CallToolResult, any, error) {
	models, err := s.chatService().ListModels(ctx, in.Filter)
	if err != nil {
		return nil, nil, err
	}
	return textResult(renderModels(models)), nil, nil
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}
