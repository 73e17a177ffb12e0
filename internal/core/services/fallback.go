package services

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/nulzo/image-router-mcp/internal/asset"
	"github.com/nulzo/image-router-mcp/internal/config"
	"github.com/nulzo/image-router-mcp/internal/core/domain"
	"github.com/nulzo/image-router-mcp/internal/core/ports"
	"github.com/nulzo/image-router-mcp/internal/logger"
)

const tracerName = "image-router-mcp/fallback"

// attemptStatus classifies one provider attempt. Empty and Error are both
// fallback-triggering on the direct path; they are distinguished only for
// diagnostics.
type attemptStatus int

const (
	attemptSuccess attemptStatus = iota
	attemptEmpty
	attemptError
)

// attemptResult is the neutral outcome of one provider attempt, converted
// immediately after the call so provider-specific response shapes never
// leak into orchestration.
type attemptResult struct {
	status attemptStatus

	// direct provider payload
	imageBytes []byte
	mimeType   string

	// aggregator payload
	imageRefs []string
	usage     *domain.Usage

	text  string
	model string
	err   error
}

func (r attemptResult) reason() string {
	switch r.status {
	case attemptError:
		return r.err.Error()
	case attemptEmpty:
		return "response contained no image data"
	default:
		return ""
	}
}

// fallbackState is the orchestrator's explicit state. Transitions only move
// forward; neither provider is ever attempted twice, and the two attempts
// are strictly sequential so a request that needs one result is never
// double-charged.
type fallbackState int

const (
	stateStart fallbackState = iota
	stateTryDirect
	stateDirectFailed
	stateTrySecondary
)

// ImageService resolves one image request across the two providers. It is
// built per call with that call's resolved credentials; it holds no state
// shared across calls.
type ImageService struct {
	direct    ports.DirectProvider
	secondary ports.AggregatorProvider
	assets    ports.AssetManager
	store     ports.ImageStore
	creds     config.Credentials
	tracer    trace.Tracer
}

func NewImageService(direct ports.DirectProvider, secondary ports.AggregatorProvider, assets ports.AssetManager, store ports.ImageStore, creds config.Credentials) *ImageService {
	return &ImageService{
		direct:    direct,
		secondary: secondary,
		assets:    assets,
		store:     store,
		creds:     creds,
		tracer:    otel.Tracer(tracerName),
	}
}

// Resolve runs the fallback state machine:
//
//	Start → TryDirect → (Success | DirectFailed) → TrySecondary → (Success | BothFailed)
//
// TryDirect is skipped entirely when the direct provider is ineligible: no
// credential, or an edit with zero reference images. Exactly one report is
// produced per call.
func (s *ImageService) Resolve(ctx context.Context, req *domain.ImageRequest) (*domain.FallbackReport, error) {
	if s.direct == nil && s.secondary == nil {
		return nil, domain.ConfigurationError("no image provider configured: set GEMINI_API_KEY or OPENROUTER_API_KEY")
	}

	var (
		state     fallbackState
		ref       *asset.Asset
		directRes attemptResult
		tried     bool
		diags     []string
	)

	// The transient asset belongs to this call alone; whatever path the
	// call takes, it is gone before we return. Release is idempotent, and
	// every transition below also releases eagerly so the file never
	// outlives the attempt that needed it.
	defer func() {
		s.assets.Release(ref)
	}()

	// Start: eligibility gate for the preferred provider.
	switch {
	case s.direct == nil:
		diags = append(diags, "gemini skipped: no API key configured")
		state = stateTrySecondary
	case req.Kind == domain.OpEdit && len(req.ReferenceImages) == 0:
		diags = append(diags, "gemini skipped: edit request with no reference images")
		state = stateTrySecondary
	default:
		state = stateTryDirect
	}

	for {
		switch state {
		case stateTryDirect:
			tried = true
			directRes = s.attemptDirect(ctx, req, &ref)
			if directRes.status == attemptSuccess {
				path, err := s.store.SaveBytes(req.OutputDir, directRes.mimeType, directRes.imageBytes)
				if err != nil {
					return nil, domain.InternalError("failed to persist generated image", err)
				}
				s.assets.Release(ref)
				ref = nil
				return &domain.FallbackReport{
					Provider:    domain.ProviderGemini,
					Model:       directRes.model,
					SavedPaths:  []string{path},
					Text:        directRes.text,
					Diagnostics: diags,
					ProxyUsed:   s.creds.Proxy,
				}, nil
			}
			state = stateDirectFailed

		case stateDirectFailed:
			// Cleanup happens before the secondary attempt, never after.
			s.assets.Release(ref)
			ref = nil
			diags = append(diags, "gemini attempt failed: "+directRes.reason())
			logger.Warn("direct provider failed, falling back",
				zap.String("operation", req.Kind.String()),
				zap.String("reason", directRes.reason()),
			)
			state = stateTrySecondary

		case stateTrySecondary:
			if s.secondary == nil {
				if tried {
					return nil, domain.BothFailedError(directRes.reason(), "not configured")
				}
				return nil, domain.ConfigurationError("no image provider configured: set GEMINI_API_KEY or OPENROUTER_API_KEY")
			}

			secRes := s.attemptSecondary(ctx, req)
			if secRes.status == attemptError {
				var directReason string
				if tried {
					directReason = directRes.reason()
				}
				return nil, domain.BothFailedError(directReason, secRes.err.Error())
			}

			// An empty aggregator response is not fallback-triggering;
			// there is no third provider. It is a degraded success with
			// the model's text returned verbatim.
			report := &domain.FallbackReport{
				Provider:    domain.ProviderOpenRouter,
				Model:       secRes.model,
				Text:        secRes.text,
				Diagnostics: diags,
				ProxyUsed:   s.creds.Proxy,
				Usage:       secRes.usage,
			}
			for _, imageRef := range secRes.imageRefs {
				path, err := s.store.SaveRef(ctx, req.OutputDir, imageRef)
				if err != nil {
					report.Diagnostics = append(report.Diagnostics, "failed to save image: "+err.Error())
					continue
				}
				report.SavedPaths = append(report.SavedPaths, path)
			}
			return report, nil
		}
	}
}

// attemptDirect performs the single Gemini attempt: materialize the first
// reference image if this is an edit, issue one call, classify the outcome.
// Reference images beyond the first are intentionally not sent on this
// path; the aggregator path carries all of them.
func (s *ImageService) attemptDirect(ctx context.Context, req *domain.ImageRequest, refOut **asset.Asset) attemptResult {
	ctx, span := s.tracer.Start(ctx, "gemini.attempt",
		trace.WithAttributes(attribute.String("operation", req.Kind.String())))
	defer span.End()

	var ref *asset.Asset
	if req.Kind == domain.OpEdit {
		a, err := s.assets.Materialize(ctx, req.ReferenceImages[0])
		if err != nil {
			return attemptResult{status: attemptError, err: fmt.Errorf("failed to prepare reference image: %w", err)}
		}
		ref = a
		*refOut = a
	}

	res, err := s.direct.CreateImage(ctx, req.Prompt, ref)
	if err != nil {
		return attemptResult{status: attemptError, err: err}
	}
	if res.Empty() {
		return attemptResult{status: attemptEmpty, text: res.Text}
	}
	return attemptResult{
		status:     attemptSuccess,
		imageBytes: res.Bytes,
		mimeType:   res.MimeType,
		text:       res.Text,
		model:      s.direct.Model(),
	}
}

func (s *ImageService) attemptSecondary(ctx context.Context, req *domain.ImageRequest) attemptResult {
	ctx, span := s.tracer.Start(ctx, "openrouter.attempt",
		trace.WithAttributes(attribute.String("operation", req.Kind.String())))
	defer span.End()

	res, err := s.secondary.CreateImage(ctx, req)
	if err != nil {
		return attemptResult{status: attemptError, err: err}
	}
	if len(res.ImageRefs) == 0 {
		return attemptResult{status: attemptEmpty, text: res.Text, model: res.Model, usage: res.Usage}
	}
	return attemptResult{
		status:    attemptSuccess,
		imageRefs: res.ImageRefs,
		text:      res.Text,
		model:     res.Model,
		usage:     res.Usage,
	}
}

// DirectOnly bypasses the orchestrator for the gemini_* tools: one attempt
// against the direct provider, its error surfaced unmodified on failure.
func (s *ImageService) DirectOnly(ctx context.Context, req *domain.ImageRequest) (*domain.FallbackReport, error) {
	if s.direct == nil {
		return nil, domain.ConfigurationError("GEMINI_API_KEY is not configured")
	}
	if req.Kind == domain.OpEdit && len(req.ReferenceImages) == 0 {
		return nil, domain.BadRequestError("edit requires at least one reference image")
	}

	var ref *asset.Asset
	defer func() {
		s.assets.Release(ref)
	}()

	if req.Kind == domain.OpEdit {
		a, err := s.assets.Materialize(ctx, req.ReferenceImages[0])
		if err != nil {
			return nil, err
		}
		ref = a
	}

	res, err := s.direct.CreateImage(ctx, req.Prompt, ref)
	if err != nil {
		return nil, err
	}

	report := &domain.FallbackReport{
		Provider:  domain.ProviderGemini,
		Model:     s.direct.Model(),
		Text:      res.Text,
		ProxyUsed: s.creds.Proxy,
	}
	if !res.Empty() {
		path, saveErr := s.store.SaveBytes(req.OutputDir, res.MimeType, res.Bytes)
		if saveErr != nil {
			return nil, domain.InternalError("failed to persist generated image", saveErr)
		}
		report.SavedPaths = []string{path}
	}
	return report, nil
}
