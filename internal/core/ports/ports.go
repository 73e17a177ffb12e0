package ports

import (
	"context"

	"github.com/nulzo/image-router-mcp/internal/asset"
	"github.com/nulzo/image-router-mcp/internal/core/domain"
	"github.com/nulzo/image-router-mcp/pkg/api"
)

// ImageResult is the direct provider's neutral outcome: the first inline
// image found in the response, plus any text the model produced. A nil
// Bytes slice with a 2xx response means the provider replied without an
// image payload.
type ImageResult struct {
	Bytes    []byte
	MimeType string
	Text     string
}

// Empty reports a transport-level success that carried no usable image.
func (r *ImageResult) Empty() bool {
	return r == nil || len(r.Bytes) == 0
}

// DirectProvider is the single-vendor image API invoked without going
// through the aggregator.
type DirectProvider interface {
	Model() string
	// CreateImage issues exactly one generateContent call. ref is nil for
	// Generate and the first materialized reference image for Edit.
	CreateImage(ctx context.Context, prompt string, ref *asset.Asset) (*ImageResult, error)
}

// AggregatorResult is the secondary provider's neutral outcome. Image
// references are URL or data-URI values passed through verbatim.
type AggregatorResult struct {
	ImageRefs []string
	Text      string
	Model     string
	Usage     *domain.Usage
}

// AggregatorProvider is the multi-model API used as the fallback path and
// for all plain chat traffic.
type AggregatorProvider interface {
	// CreateImage issues exactly one chat-completions call shaped for
	// image output.
	CreateImage(ctx context.Context, req *domain.ImageRequest) (*AggregatorResult, error)
	Chat(ctx context.Context, req *api.ChatRequest) (*api.ChatResponse, error)
	Models(ctx context.Context) ([]api.Model, error)
}

// AssetManager materializes reference images into transient local files and
// guarantees their removal.
type AssetManager interface {
	Materialize(ctx context.Context, ref string) (*asset.Asset, error)
	Release(a *asset.Asset)
}

// ImageStore persists generated images.
type ImageStore interface {
	SaveBytes(dir, mimeType string, data []byte) (string, error)
	SaveRef(ctx context.Context, dir, ref string) (string, error)
}
