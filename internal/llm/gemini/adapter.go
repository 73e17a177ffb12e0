package gemini

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/nulzo/image-router-mcp/internal/asset"
	"github.com/nulzo/image-router-mcp/internal/config"
	"github.com/nulzo/image-router-mcp/internal/core/ports"
	"github.com/nulzo/image-router-mcp/internal/httpclient"
)

const defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// Adapter talks to the Gemini generative-language REST API. One adapter is
// built per call with the call's resolved credentials, so the proxy and key
// never change under it.
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

func (a *Adapter) Model() string { return a.cfg.Model }

type GeminiInline struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type GeminiPart struct {
	Text       string        `json:"text,omitempty"`
	InlineData *GeminiInline `json:"inlineData,omitempty"`
}

type GeminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []GeminiPart `json:"parts"`
}

type GeminiRequest struct {
	Contents []GeminiContent `json:"contents"`
}

// BuildBody shapes the request: a single contents entry whose parts are the
// prompt text, then at most one inlineData block when a reference image is
// attached.
func BuildBody(prompt string, ref *asset.Asset) ([]byte, error) {
	parts := []GeminiPart{{Text: prompt}}
	if ref != nil {
		mime, b64 := ref.Inline()
		parts = append(parts, GeminiPart{InlineData: &GeminiInline{MimeType: mime, Data: b64}})
	}

	body := GeminiRequest{Contents: []GeminiContent{{Parts: parts}}}
	return json.Marshal(body)
}

// applyImageHints enforces responseModalities for flash-image variants so
// the model does not default to text-only output. No-op for other models.
func applyImageHints(model string, raw []byte) []byte {
	if strings.Contains(strings.ToLower(model), "flash-image") {
		if out, err := sjson.SetBytes(raw, "generationConfig.responseModalities", []string{"Text", "Image"}); err == nil {
			return out
		}
	}
	return raw
}

// CreateImage issues exactly one generateContent call. A non-2xx status or
// transport failure comes back as an error; a 2xx response without an
// inline image part comes back as an empty ImageResult, never an error.
func (a *Adapter) CreateImage(ctx context.Context, prompt string, ref *asset.Asset) (*ports.ImageResult, error) {
	raw, err := BuildBody(prompt, ref)
	if err != nil {
		return nil, fmt.Errorf("failed to shape gemini request: %w", err)
	}
	raw = applyImageHints(a.cfg.Model, raw)

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s",
		strings.TrimRight(a.cfg.BaseURL, "/"),
		a.cfg.Model,
		a.cfg.APIKey,
	)

	var resp json.RawMessage
	if err := httpclient.SendRequest(ctx, a.client, "POST", url, nil, json.RawMessage(raw), &resp); err != nil {
		return nil, err
	}

	result := &ports.ImageResult{Text: extractText(resp)}
	if mime, data, ok := extractInlineImage(resp); ok {
		result.MimeType = mime
		result.Bytes = data
	}
	return result, nil
}

// extractInlineImage scans the whole candidate tree for the first part
// carrying inline image data. Missing optional fields route to a not-found
// result, never an error: the HTTP call itself succeeded.
func extractInlineImage(raw []byte) (string, []byte, bool) {
	var (
		mime  string
		data  []byte
		found bool
	)

	gjson.GetBytes(raw, "candidates").ForEach(func(_, candidate gjson.Result) bool {
		candidate.Get("content.parts").ForEach(func(_, part gjson.Result) bool {
			b64 := part.Get("inlineData.data").String()
			if b64 == "" {
				return true
			}
			decoded, err := base64.StdEncoding.DecodeString(b64)
			if err != nil {
				return true
			}
			mime = part.Get("inlineData.mimeType").String()
			if mime == "" {
				mime = "image/png"
			}
			data = decoded
			found = true
			return false
		})
		return !found
	})

	return mime, data, found
}

func extractText(raw []byte) string {
	var sb strings.Builder
	gjson.GetBytes(raw, "candidates.0.content.parts").ForEach(func(_, part gjson.Result) bool {
		if t := part.Get("text").String(); t != "" {
			sb.WriteString(t)
		}
		return true
	})
	return sb.String()
}
