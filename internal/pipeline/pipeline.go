package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rohmanhakim/clipmd/internal/assets"
	"github.com/rohmanhakim/clipmd/internal/cleanup"
	"github.com/rohmanhakim/clipmd/internal/domutil"
	"github.com/rohmanhakim/clipmd/internal/images"
	"github.com/rohmanhakim/clipmd/internal/metadata"
	"github.com/rohmanhakim/clipmd/internal/pass"
	"github.com/rohmanhakim/clipmd/internal/sanitizer"
	"github.com/rohmanhakim/clipmd/pkg/failure"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/net/html"
)

/*
Responsibilities
- Own the sanitizer boundary for one conversion
- Run the pass registry phase by phase around it
- Convert images to resources between the post-sanitize phases
- Degrade to sanitize-only output when DOM processing fails

Conversion Flow
	parse → pre-sanitize passes → sanitize → re-parse
	→ post-sanitize (before images) → image resolution
	→ post-sanitize (after images) → result

A Pipeline holds no per-conversion state; every call parses a fresh tree.
*/

const tracerName = "github.com/rohmanhakim/clipmd/internal/pipeline"

type Pipeline struct {
	metadataSink metadata.MetadataSink
	parser       Parser
	sanitizer    sanitizer.Sanitizer
	runner       pass.Runner
	passes       pass.PassSet
	converter    assets.Converter
	convertParam assets.ConvertParam
	tracer       trace.Tracer
}

// NewPipeline wires a pipeline with the static pass registry. converter may
// be nil, in which case image conversion is skipped.
func NewPipeline(
	metadataSink metadata.MetadataSink,
	parser Parser,
	htmlSanitizer sanitizer.Sanitizer,
	converter assets.Converter,
	convertParam assets.ConvertParam,
) (Pipeline, failure.ClassifiedError) {
	passes, err := ProcessingPasses()
	if err != nil {
		return Pipeline{}, &PipelineError{
			Message:   err.Error(),
			Retryable: false,
			Cause:     ErrCauseInvalidRegistry,
		}
	}
	return Pipeline{
		metadataSink: metadataSink,
		parser:       parser,
		sanitizer:    htmlSanitizer,
		runner:       pass.NewRunner(metadataSink),
		passes:       passes,
		converter:    converter,
		convertParam: convertParam,
		tracer:       otel.Tracer(tracerName),
	}, nil
}

// ProcessHTML normalizes rawHTML. The only errors returned are
// dom-unavailable and sanitize-failed; any other failure degrades to the
// sanitize-only fallback.
func (p *Pipeline) ProcessHTML(
	ctx context.Context,
	rawHTML string,
	opts pass.Options,
	pctx pass.Context,
) (Result, failure.ClassifiedError) {
	ctx, span := p.tracer.Start(ctx, "ProcessHTML", trace.WithAttributes(
		attribute.Bool("options.include_images", opts.IncludeImages),
		attribute.Bool("options.convert_images", opts.ConvertImagesToResources),
		attribute.Bool("context.google_docs", pctx.IsGoogleDocs),
	))
	defer span.End()
	startTime := time.Now()

	if p.parser == nil {
		err := &PipelineError{
			Message:   "no html parser configured",
			Retryable: false,
			Cause:     ErrCauseDOMUnavailable,
		}
		p.fail(span, err)
		return Result{}, err
	}

	sanitizeParam := sanitizer.DefaultSanitizeParam(opts.IncludeImages, images.ProtectedRefAttr)
	result, err := p.process(ctx, rawHTML, opts, pctx, sanitizeParam)
	if err != nil {
		if err.Cause != ErrCauseProcessingFailed {
			p.fail(span, err)
			return Result{}, err
		}

		p.recordError(err)
		span.AddEvent("fallback", trace.WithAttributes(attribute.String("reason", err.Message)))
		fallback, fallbackErr := p.sanitizeOnly(rawHTML, sanitizeParam)
		if fallbackErr != nil {
			p.fail(span, fallbackErr)
			return Result{}, fallbackErr
		}
		result = Result{
			SanitizedHTML: fallback,
			Resources:     result.Resources,
			Warnings:      append(result.Warnings, fmt.Sprintf("fallback: %s", err.Message)),
			Degraded:      true,
		}
	}

	p.metadataSink.RecordConversionStats(metadata.ConversionStats{
		Attempted:        result.Resources.Attempted,
		ResourcesCreated: result.Resources.ResourcesCreated,
		Failed:           result.Resources.Failed,
		Warnings:         len(result.Warnings),
		Degraded:         result.Degraded,
		Duration:         time.Since(startTime),
	})
	return result, nil
}

// process runs steps 2-8. Panics outside the pass runner become a
// processing-failed error so the caller can fall back. The partial result
// is returned alongside so collected warnings are not lost.
func (p *Pipeline) process(
	ctx context.Context,
	rawHTML string,
	opts pass.Options,
	pctx pass.Context,
	sanitizeParam sanitizer.SanitizeParam,
) (result Result, pipelineErr *PipelineError) {
	defer func() {
		if recovered := recover(); recovered != nil {
			pipelineErr = &PipelineError{
				Message:   fmt.Sprintf("panic during processing: %v", recovered),
				Retryable: false,
				Cause:     ErrCauseProcessingFailed,
			}
		}
	}()

	body, err := p.parseBody(rawHTML)
	if err != nil {
		return result, err
	}
	if !pctx.IsGoogleDocs {
		pctx.IsGoogleDocs = cleanup.IsGoogleDocs(body)
	}

	result.Warnings = append(result.Warnings, p.runPhase(ctx, pass.PhasePreSanitize, body, opts, pctx)...)

	sanitized, sanitizeErr := p.sanitize(ctx, domutil.InnerHTML(body), sanitizeParam)
	if sanitizeErr != nil {
		return result, sanitizeErr
	}
	result.SanitizedHTML = sanitized

	body, err = p.parseBody(sanitized)
	if err != nil {
		return result, err
	}
	images.RestoreResourceRefs(body)

	result.Warnings = append(result.Warnings, p.runPhase(ctx, pass.PhasePostSanitizeBeforeImages, body, opts, pctx)...)

	if opts.IncludeImages && opts.ConvertImagesToResources && p.converter != nil {
		imgCtx, span := p.tracer.Start(ctx, "phase.image-resolution")
		result.Resources = p.converter.Convert(imgCtx, body, p.convertParam)
		span.SetAttributes(
			attribute.Int("resources.attempted", result.Resources.Attempted),
			attribute.Int("resources.failed", result.Resources.Failed),
		)
		span.End()
	}

	result.Warnings = append(result.Warnings, p.runPhase(ctx, pass.PhasePostSanitizeAfterImages, body, opts, pctx)...)
	result.Body = body
	return result, nil
}

func (p *Pipeline) runPhase(ctx context.Context, phase pass.Phase, body *html.Node, opts pass.Options, pctx pass.Context) []string {
	phaseCtx, span := p.tracer.Start(ctx, "phase."+phase.String())
	defer span.End()
	run := p.runner.Run(phaseCtx, p.passes.ForPhase(phase), body, opts, pctx)
	span.SetAttributes(attribute.Int("pass.warnings", len(run.Warnings)))
	return run.Warnings
}

func (p *Pipeline) parseBody(markup string) (*html.Node, *PipelineError) {
	body, err := domutil.ParseBody(strings.NewReader(markup), p.parser)
	if err != nil {
		return nil, &PipelineError{
			Message:   fmt.Sprintf("parse failed: %v", err),
			Retryable: false,
			Cause:     ErrCauseProcessingFailed,
		}
	}
	if body == nil {
		return nil, &PipelineError{
			Message:   "parsed document has no body",
			Retryable: false,
			Cause:     ErrCauseProcessingFailed,
		}
	}
	return body, nil
}

func (p *Pipeline) sanitize(ctx context.Context, markup string, param sanitizer.SanitizeParam) (string, *PipelineError) {
	_, span := p.tracer.Start(ctx, "sanitize")
	defer span.End()
	out, err := p.sanitizer.Sanitize(markup, param)
	if err != nil {
		span.RecordError(err)
		return "", &PipelineError{
			Message:   err.Error(),
			Retryable: false,
			Cause:     ErrCauseSanitizeFailed,
		}
	}
	return out, nil
}

// sanitizeOnly is the fallback: the raw input through the sanitizer and
// nothing else.
func (p *Pipeline) sanitizeOnly(rawHTML string, param sanitizer.SanitizeParam) (output string, pipelineErr *PipelineError) {
	defer func() {
		if recovered := recover(); recovered != nil {
			pipelineErr = &PipelineError{
				Message:   fmt.Sprintf("panic during fallback: %v", recovered),
				Retryable: false,
				Cause:     ErrCauseSanitizeFailed,
			}
		}
	}()
	out, err := p.sanitizer.Sanitize(rawHTML, param)
	if err != nil {
		return "", &PipelineError{
			Message:   err.Error(),
			Retryable: false,
			Cause:     ErrCauseSanitizeFailed,
		}
	}
	return out, nil
}

func (p *Pipeline) fail(span trace.Span, err *PipelineError) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Message)
	p.recordError(err)
}

func (p *Pipeline) recordError(err *PipelineError) {
	p.metadataSink.RecordError(
		time.Now(),
		"pipeline",
		"Pipeline.ProcessHTML",
		mapPipelineErrorToMetadataCause(err),
		err.Error(),
		[]metadata.Attribute{
			metadata.NewAttr(metadata.AttrMessage, err.Message),
		},
	)
}
