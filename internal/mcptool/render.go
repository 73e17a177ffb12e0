package mcptool

import (
	"fmt"
	"strings"

	"github.com/nulzo/image-router-mcp/internal/core/domain"
	"github.com/nulzo/image-router-mcp/internal/core/services"
	"github.com/nulzo/image-router-mcp/pkg/api"
)

// renderReport turns a fallback report into the single human-readable text
// result of the call. It always names the provider that served the result.
func renderReport(r *domain.FallbackReport) string {
	var sb strings.Builder

	switch {
	case len(r.SavedPaths) > 0:
		fmt.Fprintf(&sb, "Image generated via %s (model %s).\n", r.Provider, r.Model)
		for _, p := range r.SavedPaths {
			fmt.Fprintf(&sb, "Saved: %s\n", p)
		}
	default:
		fmt.Fprintf(&sb, "No image was generated via %s (model %s).\n", r.Provider, r.Model)
	}

	if r.Text != "" {
		fmt.Fprintf(&sb, "Model response: %s\n", r.Text)
	}
	if r.Usage != nil {
		fmt.Fprintf(&sb, "Tokens: prompt=%d completion=%d total=%d\n",
			r.Usage.PromptTokens, r.Usage.CompletionTokens, r.Usage.TotalTokens)
	}
	if r.ProxyUsed != "" {
		fmt.Fprintf(&sb, "Proxy: %s\n", r.ProxyUsed)
	}
	for _, d := range r.Diagnostics {
		fmt.Fprintf(&sb, "Note: %s\n", d)
	}

	return strings.TrimRight(sb.String(), "\n")
}

func renderChat(model string, resp *api.ChatResponse) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "[%s]\n%s", model, resp.Text())
	if resp.Usage != nil {
		fmt.Fprintf(&sb, "\n\nTokens: prompt=%d completion=%d total=%d",
			resp.Usage.PromptTokens, resp.Usage.CompletionTokens, resp.Usage.TotalTokens)
	}
	return sb.String()
}

func renderCompare(results []services.CompareResult) string {
	var sb strings.Builder
	for i, r := range results {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		fmt.Fprintf(&sb, "=== %s ===\n", r.Model)
		if r.Err != nil {
			fmt.Fprintf(&sb, "error: %s", r.Err.Error())
			continue
		}
		sb.WriteString(r.Text)
		if r.Usage != nil {
			fmt.Fprintf(&sb, "\n(tokens: %d)", r.Usage.TotalTokens)
		}
	}
	return sb.String()
}

func renderModels(models []api.Model) string {
	if len(models) == 0 {
		return "No models matched."
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%d models:\n", len(models))
	for _, m := range models {
		fmt.Fprintf(&sb, "- %s", m.ID)
		if m.Name != "" && m.Name != m.ID {
			fmt.Fprintf(&sb, " (%s)", m.Name)
		}
		if m.ContextLength > 0 {
			fmt.Fprintf(&sb, " ctx=%d", m.ContextLength)
		}
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}
