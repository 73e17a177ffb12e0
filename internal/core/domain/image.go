package domain

// OperationKind distinguishes a fresh generation from an edit of existing
// reference images.
type OperationKind int

const (
	OpGenerate OperationKind = iota
	OpEdit
)

func (k OperationKind) String() string {
	if k == OpEdit {
		return "edit"
	}
	return "generate"
}

// ImageRequest is the provider-agnostic description of one image call.
// Constructed fresh per incoming tool call and immutable afterwards.
type ImageRequest struct {
	Kind   OperationKind
	Prompt string

	// Reference images, each a remote URL or an inline data URI. Empty for
	// Generate. The direct provider only ever consumes the first one; the
	// aggregator receives all of them.
	ReferenceImages []string

	// Aggregator-side model identifier, used only if the call reaches the
	// secondary provider.
	Model string

	// Where successful results are persisted. Empty means the configured
	// default directory.
	OutputDir string

	// Sampling parameters, passed through to the aggregator only. The
	// direct provider accepts no such tuning.
	MaxTokens   int
	Temperature float64
}

// ProviderLabel identifies which upstream served a result.
type ProviderLabel string

const (
	ProviderGemini     ProviderLabel = "gemini"
	ProviderOpenRouter ProviderLabel = "openrouter"
)

// Usage is the aggregator's token accounting. The direct provider exposes
// no usage information.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// FallbackReport is the single terminal output of one image call.
type FallbackReport struct {
	Provider   ProviderLabel
	Model      string
	SavedPaths []string

	// Text the model returned alongside (or instead of) images. For a
	// degraded aggregator success this carries the verbatim model reply.
	Text string

	// Diagnostics collected along the way, e.g. why the direct attempt was
	// skipped or failed before falling back.
	Diagnostics []string

	ProxyUsed string
	Usage     *Usage
}
