package normalize

import (
	"fmt"

	"github.com/rohmanhakim/clipmd/internal/metadata"
	"github.com/rohmanhakim/clipmd/pkg/failure"
)

type NormalizationErrorCause string

const (
	// ErrCauseHashComputationFailed means the configured hash algorithm
	// could not hash the content.
	ErrCauseHashComputationFailed NormalizationErrorCause = "hash computation failed"

	// ErrCauseFrontmatterMarshalFailed means the frontmatter could not be
	// serialized to YAML.
	ErrCauseFrontmatterMarshalFailed NormalizationErrorCause = "frontmatter marshal failed"
)

type NormalizationError struct {
	Message   string
	Retryable bool
	Cause     NormalizationErrorCause
}

func (e *NormalizationError) Error() string {
	return fmt.Sprintf("normalization error: %s", e.Cause)
}

func (e *NormalizationError) Severity() failure.Severity {
	if e.Retryable {
		return failure.SeverityRecoverable
	}
	return failure.SeverityFatal
}

func (e *NormalizationError) IsRetryable() bool {
	return e.Retryable
}

// mapNormalizationErrorToMetadataCause maps normalize-local error semantics
// to the canonical metadata.ErrorCause table.
//
// This mapping is observational only and MUST NOT be used
// to derive control-flow decisions.
func mapNormalizationErrorToMetadataCause(err *NormalizationError) metadata.ErrorCause {
	switch err.Cause {
	case ErrCauseHashComputationFailed:
		return metadata.CauseEnvironment
	case ErrCauseFrontmatterMarshalFailed:
		return metadata.CauseInvariantViolation
	default:
		return metadata.CauseUnknown
	}
}
