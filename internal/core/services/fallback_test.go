package services_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nulzo/image-router-mcp/internal/asset"
	"github.com/nulzo/image-router-mcp/internal/config"
	"github.com/nulzo/image-router-mcp/internal/core/domain"
	"github.com/nulzo/image-router-mcp/internal/core/ports"
	"github.com/nulzo/image-router-mcp/internal/core/services"
	"github.com/nulzo/image-router-mcp/pkg/api"
)

type fakeDirect struct {
	model string
	res   *ports.ImageResult
	err   error
	calls int
}

func (f *fakeDirect) Model() string { return f.model }

func (f *fakeDirect) CreateImage(ctx context.Context, prompt string, ref *asset.Asset) (*ports.ImageResult, error) {
	f.calls++
	return f.res, f.err
}

type fakeAggregator struct {
	res    *ports.AggregatorResult
	err    error
	calls  int
	onCall func()
}

func (f *fakeAggregator) CreateImage(ctx context.Context, req *domain.ImageRequest) (*ports.AggregatorResult, error) {
	f.calls++
	if f.onCall != nil {
		f.onCall()
	}
	return f.res, f.err
}

func (f *fakeAggregator) Chat(ctx context.Context, req *api.ChatRequest) (*api.ChatResponse, error) {
	return nil, errors.New("not used")
}

func (f *fakeAggregator) Models(ctx context.Context) ([]api.Model, error) {
	return nil, errors.New("not used")
}

type fakeAssets struct {
	materializeErr error
	live           int
	materialized   int
	released       int
}

func (f *fakeAssets) Materialize(ctx context.Context, ref string) (*asset.Asset, error) {
	if f.materializeErr != nil {
		return nil, f.materializeErr
	}
	f.materialized++
	f.live++
	return &asset.Asset{Source: ref, Path: "/tmp/fake-ref.png", MimeType: "image/png"}, nil
}

func (f *fakeAssets) Release(a *asset.Asset) {
	if a == nil || a.Path == "" {
		return
	}
	f.live--
	f.released++
	a.Path = ""
}

type fakeStore struct {
	saveBytesErr error
	failRefs     map[string]bool
	saved        int
}

func (f *fakeStore) SaveBytes(dir, mimeType string, data []byte) (string, error) {
	if f.saveBytesErr != nil {
		return "", f.saveBytesErr
	}
	f.saved++
	return fmt.Sprintf("/out/image-%d.png", f.saved), nil
}

func (f *fakeStore) SaveRef(ctx context.Context, dir, ref string) (string, error) {
	if f.failRefs[ref] {
		return "", errors.New("download failed")
	}
	f.saved++
	return fmt.Sprintf("/out/image-%d.png", f.saved), nil
}

func newService(direct ports.DirectProvider, secondary ports.AggregatorProvider, assets *fakeAssets, store *fakeStore) *services.ImageService {
	if assets == nil {
		assets = &fakeAssets{}
	}
	if store == nil {
		store = &fakeStore{}
	}
	return services.NewImageService(direct, secondary, assets, store, config.Credentials{})
}

func TestResolveDirectSuccess(t *testing.T) {
	direct := &fakeDirect{
		model: "gemini-2.5-flash-image-preview",
		res:   &ports.ImageResult{Bytes: []byte("png"), MimeType: "image/png", Text: "done"},
	}
	secondary := &fakeAggregator{}
	store := &fakeStore{}

	svc := newService(direct, secondary, nil, store)
	report, err := svc.Resolve(context.Background(), &domain.ImageRequest{Kind: domain.OpGenerate, Prompt: "a fox"})
	require.NoError(t, err)

	assert.Equal(t, domain.ProviderGemini, report.Provider)
	assert.Equal(t, "gemini-2.5-flash-image-preview", report.Model)
	assert.Equal(t, []string{"/out/image-1.png"}, report.SavedPaths)
	assert.Equal(t, "done", report.Text)
	assert.Empty(t, report.Diagnostics)

	assert.Equal(t, 1, direct.calls)
	assert.Equal(t, 0, secondary.calls, "secondary must not be attempted after a direct success")
}

func TestResolveFallsBackOnDirectError(t *testing.T) {
	direct := &fakeDirect{model: "gemini", err: errors.New("429 quota exceeded")}
	secondary := &fakeAggregator{
		res: &ports.AggregatorResult{
			ImageRefs: []string{"data:image/png;base64,aGk="},
			Model:     "google/gemini-2.5-flash-image-preview",
			Usage:     &domain.Usage{TotalTokens: 42},
		},
	}

	svc := newService(direct, secondary, nil, nil)
	report, err := svc.Resolve(context.Background(), &domain.ImageRequest{Kind: domain.OpGenerate, Prompt: "a fox"})
	require.NoError(t, err)

	assert.Equal(t, domain.ProviderOpenRouter, report.Provider)
	assert.Equal(t, []string{"/out/image-1.png"}, report.SavedPaths)
	require.Len(t, report.Diagnostics, 1)
	assert.Contains(t, report.Diagnostics[0], "429 quota exceeded")
	assert.Equal(t, 42, report.Usage.TotalTokens)

	assert.Equal(t, 1, direct.calls)
	assert.Equal(t, 1, secondary.calls)
}

func TestResolveFallsBackOnEmptyDirectResponse(t *testing.T) {
	direct := &fakeDirect{model: "gemini", res: &ports.ImageResult{Text: "cannot help"}}
	secondary := &fakeAggregator{
		res: &ports.AggregatorResult{ImageRefs: []string{"https://cdn.example/x.png"}, Model: "m"},
	}

	svc := newService(direct, secondary, nil, nil)
	report, err := svc.Resolve(context.Background(), &domain.ImageRequest{Kind: domain.OpGenerate, Prompt: "a fox"})
	require.NoError(t, err)

	assert.Equal(t, domain.ProviderOpenRouter, report.Provider)
	require.Len(t, report.Diagnostics, 1)
	assert.Contains(t, report.Diagnostics[0], "no image data")
}

func TestResolveBothFail(t *testing.T) {
	direct := &fakeDirect{model: "gemini", err: errors.New("direct boom")}
	secondary := &fakeAggregator{err: errors.New("secondary boom")}

	svc := newService(direct, secondary, nil, nil)
	report, err := svc.Resolve(context.Background(), &domain.ImageRequest{Kind: domain.OpGenerate, Prompt: "a fox"})
	assert.Nil(t, report)
	require.Error(t, err)

	var domainErr *domain.Error
	require.ErrorAs(t, err, &domainErr)
	assert.Contains(t, domainErr.Message, "gemini: direct boom")
	assert.Contains(t, domainErr.Message, "openrouter: secondary boom")

	assert.Equal(t, 1, direct.calls)
	assert.Equal(t, 1, secondary.calls)
}

func TestResolveSkipsDirectWithoutCredential(t *testing.T) {
	secondary := &fakeAggregator{
		res: &ports.AggregatorResult{ImageRefs: []string{"https://cdn.example/x.png"}, Model: "m"},
	}

	svc := newService(nil, secondary, nil, nil)
	report, err := svc.Resolve(context.Background(), &domain.ImageRequest{Kind: domain.OpGenerate, Prompt: "a fox"})
	require.NoError(t, err)

	require.Len(t, report.Diagnostics, 1)
	assert.Contains(t, report.Diagnostics[0], "no API key")
	assert.Equal(t, 1, secondary.calls)
}

func TestResolveSkipsDirectForEditWithoutReferences(t *testing.T) {
	direct := &fakeDirect{model: "gemini", res: &ports.ImageResult{Bytes: []byte("x"), MimeType: "image/png"}}
	secondary := &fakeAggregator{
		res: &ports.AggregatorResult{ImageRefs: []string{"https://cdn.example/x.png"}, Model: "m"},
	}

	svc := newService(direct, secondary, nil, nil)
	report, err := svc.Resolve(context.Background(), &domain.ImageRequest{Kind: domain.OpEdit, Prompt: "brighter"})
	require.NoError(t, err)

	assert.Equal(t, 0, direct.calls, "edit with no reference images must not reach the direct provider")
	assert.Equal(t, 1, secondary.calls)
	require.Len(t, report.Diagnostics, 1)
	assert.Contains(t, report.Diagnostics[0], "no reference images")
}

func TestResolveDegradedSecondarySuccess(t *testing.T) {
	secondary := &fakeAggregator{
		res: &ports.AggregatorResult{Text: "I am unable to generate that image.", Model: "m"},
	}

	svc := newService(nil, secondary, nil, nil)
	report, err := svc.Resolve(context.Background(), &domain.ImageRequest{Kind: domain.OpGenerate, Prompt: "a fox"})
	require.NoError(t, err)

	assert.Equal(t, domain.ProviderOpenRouter, report.Provider)
	assert.Empty(t, report.SavedPaths)
	assert.Equal(t, "I am unable to generate that image.", report.Text)
}

func TestResolveNoProvidersAtAll(t *testing.T) {
	svc := newService(nil, nil, nil, nil)
	_, err := svc.Resolve(context.Background(), &domain.ImageRequest{Kind: domain.OpGenerate, Prompt: "a fox"})
	require.Error(t, err)

	var domainErr *domain.Error
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, 412, domainErr.Code)
}

func TestResolveDirectFailsNoSecondaryConfigured(t *testing.T) {
	direct := &fakeDirect{model: "gemini", err: errors.New("direct boom")}

	svc := newService(direct, nil, nil, nil)
	_, err := svc.Resolve(context.Background(), &domain.ImageRequest{Kind: domain.OpGenerate, Prompt: "a fox"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "gemini: direct boom")
	assert.Contains(t, err.Error(), "not configured")
}

func TestResolveReleasesAssetBeforeSecondaryAttempt(t *testing.T) {
	direct := &fakeDirect{model: "gemini", err: errors.New("boom")}
	assets := &fakeAssets{}
	secondary := &fakeAggregator{
		res: &ports.AggregatorResult{ImageRefs: []string{"https://cdn.example/x.png"}, Model: "m"},
	}
	secondary.onCall = func() {
		assert.Equal(t, 0, assets.live, "transient asset must be gone before the secondary attempt starts")
	}

	svc := newService(direct, secondary, assets, nil)
	req := &domain.ImageRequest{
		Kind:            domain.OpEdit,
		Prompt:          "brighter",
		ReferenceImages: []string{"data:image/png;base64,aGk="},
	}
	_, err := svc.Resolve(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, 1, assets.materialized)
	assert.Equal(t, 1, assets.released)
	assert.Equal(t, 0, assets.live)
}

func TestResolveEditMaterializesOnlyFirstReference(t *testing.T) {
	direct := &fakeDirect{model: "gemini", res: &ports.ImageResult{Bytes: []byte("x"), MimeType: "image/png"}}
	assets := &fakeAssets{}

	svc := newService(direct, &fakeAggregator{}, assets, nil)
	req := &domain.ImageRequest{
		Kind:   domain.OpEdit,
		Prompt: "merge",
		ReferenceImages: []string{
			"https://example.com/1.png",
			"https://example.com/2.png",
			"https://example.com/3.png",
		},
	}
	_, err := svc.Resolve(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, 1, assets.materialized, "direct path only ever consumes the first reference image")
	assert.Equal(t, 0, assets.live)
}

func TestResolveReleasesAssetOnDirectSuccess(t *testing.T) {
	direct := &fakeDirect{model: "gemini", res: &ports.ImageResult{Bytes: []byte("x"), MimeType: "image/png"}}
	assets := &fakeAssets{}

	svc := newService(direct, &fakeAggregator{}, assets, nil)
	req := &domain.ImageRequest{
		Kind:            domain.OpEdit,
		Prompt:          "brighter",
		ReferenceImages: []string{"data:image/png;base64,aGk="},
	}
	_, err := svc.Resolve(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 0, assets.live)
}

func TestResolveMaterializeFailureTriggersFallback(t *testing.T) {
	direct := &fakeDirect{model: "gemini"}
	assets := &fakeAssets{materializeErr: errors.New("fetch failed")}
	secondary := &fakeAggregator{
		res: &ports.AggregatorResult{ImageRefs: []string{"https://cdn.example/x.png"}, Model: "m"},
	}

	svc := newService(direct, secondary, assets, nil)
	req := &domain.ImageRequest{
		Kind:            domain.OpEdit,
		Prompt:          "brighter",
		ReferenceImages: []string{"https://example.com/ref.png"},
	}
	report, err := svc.Resolve(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, 0, direct.calls, "provider call must not happen when the reference cannot be prepared")
	assert.Equal(t, domain.ProviderOpenRouter, report.Provider)
	require.Len(t, report.Diagnostics, 1)
	assert.Contains(t, report.Diagnostics[0], "fetch failed")
}

func TestResolvePartialSaveFailureIsDiagnosed(t *testing.T) {
	secondary := &fakeAggregator{
		res: &ports.AggregatorResult{
			ImageRefs: []string{"https://cdn.example/good.png", "https://cdn.example/bad.png"},
			Model:     "m",
		},
	}
	store := &fakeStore{failRefs: map[string]bool{"https://cdn.example/bad.png": true}}

	svc := newService(nil, secondary, nil, store)
	report, err := svc.Resolve(context.Background(), &domain.ImageRequest{Kind: domain.OpGenerate, Prompt: "a fox"})
	require.NoError(t, err)

	assert.Len(t, report.SavedPaths, 1)
	found := false
	for _, d := range report.Diagnostics {
		if d == "failed to save image: download failed" {
			found = true
		}
	}
	assert.True(t, found, "save failure must surface as a diagnostic, got %v", report.Diagnostics)
}

func TestDirectOnlyRequiresCredential(t *testing.T) {
	svc := newService(nil, &fakeAggregator{}, nil, nil)
	_, err := svc.DirectOnly(context.Background(), &domain.ImageRequest{Kind: domain.OpGenerate, Prompt: "a fox"})
	require.Error(t, err)

	var domainErr *domain.Error
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, 412, domainErr.Code)
}

func TestDirectOnlyEditRequiresReference(t *testing.T) {
	direct := &fakeDirect{model: "gemini"}
	svc := newService(direct, nil, nil, nil)

	_, err := svc.DirectOnly(context.Background(), &domain.ImageRequest{Kind: domain.OpEdit, Prompt: "brighter"})
	require.Error(t, err)

	var domainErr *domain.Error
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, 400, domainErr.Code)
	assert.Equal(t, 0, direct.calls)
}

func TestDirectOnlyErrorSurfacesUnmodified(t *testing.T) {
	boom := errors.New("gemini exploded")
	direct := &fakeDirect{model: "gemini", err: boom}
	secondary := &fakeAggregator{
		res: &ports.AggregatorResult{ImageRefs: []string{"https://cdn.example/x.png"}},
	}

	svc := newService(direct, secondary, nil, nil)
	_, err := svc.DirectOnly(context.Background(), &domain.ImageRequest{Kind: domain.OpGenerate, Prompt: "a fox"})
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 0, secondary.calls, "direct-only calls must never fall back")
}

func TestDirectOnlyEmptyResponse(t *testing.T) {
	direct := &fakeDirect{model: "gemini", res: &ports.ImageResult{Text: "no can do"}}

	svc := newService(direct, nil, nil, nil)
	report, err := svc.DirectOnly(context.Background(), &domain.ImageRequest{Kind: domain.OpGenerate, Prompt: "a fox"})
	require.NoError(t, err)
	assert.Empty(t, report.SavedPaths)
	assert.Equal(t, "no can do", report.Text)
}
