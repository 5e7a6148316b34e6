package pipeline

import (
	"fmt"

	"github.com/rohmanhakim/clipmd/internal/metadata"
	"github.com/rohmanhakim/clipmd/pkg/failure"
)

type PipelineErrorCause string

const (
	// ErrCauseDOMUnavailable means no parser is configured.
	ErrCauseDOMUnavailable PipelineErrorCause = "dom-unavailable"
	// ErrCauseSanitizeFailed means the sanitizer boundary could not produce
	// output, including during the sanitize-only fallback.
	ErrCauseSanitizeFailed PipelineErrorCause = "sanitize-failed"
	// ErrCauseProcessingFailed is internal: it triggers the fallback and is
	// never returned to callers.
	ErrCauseProcessingFailed PipelineErrorCause = "processing-failed"
	ErrCauseInvalidRegistry  PipelineErrorCause = "invalid pass registry"
)

type PipelineError struct {
	Message   string
	Retryable bool
	Cause     PipelineErrorCause
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("pipeline error: %s", e.Cause)
}

func (e *PipelineError) Severity() failure.Severity {
	if e.Retryable {
		return failure.SeverityRecoverable
	}
	return failure.SeverityFatal
}

// mapPipelineErrorToMetadataCause maps pipeline-local error semantics
// to the canonical metadata.ErrorCause table.
//
// This mapping is observational only and MUST NOT be used
// to derive control-flow decisions.
func mapPipelineErrorToMetadataCause(err *PipelineError) metadata.ErrorCause {
	switch err.Cause {
	case ErrCauseDOMUnavailable:
		return metadata.CauseEnvironment
	case ErrCauseSanitizeFailed, ErrCauseInvalidRegistry:
		return metadata.CauseInvariantViolation
	case ErrCauseProcessingFailed:
		return metadata.CauseContentInvalid
	default:
		return metadata.CauseUnknown
	}
}
