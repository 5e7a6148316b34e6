package sanitizer

import (
	"fmt"

	"github.com/rohmanhakim/clipmd/internal/metadata"
	"github.com/rohmanhakim/clipmd/pkg/failure"
)

type SanitizationErrorCause string

const (
	ErrCauseSanitizerPanic SanitizationErrorCause = "sanitizer panic"
	ErrCauseUnparseable    SanitizationErrorCause = "unparseable input"
)

type SanitizationError struct {
	Message   string
	Retryable bool
	Cause     SanitizationErrorCause
}

func (e *SanitizationError) Error() string {
	return fmt.Sprintf("sanitizer error: %s", e.Cause)
}

func (e *SanitizationError) Severity() failure.Severity {
	if e.Retryable {
		return failure.SeverityRecoverable
	}
	return failure.SeverityFatal
}

// mapSanitizationErrorToMetadataCause maps sanitizer-local error semantics
// to the canonical metadata.ErrorCause table.
//
// This mapping is observational only and MUST NOT be used
// to derive control-flow decisions.
func mapSanitizationErrorToMetadataCause(err SanitizationError) metadata.ErrorCause {
	switch err.Cause {
	case ErrCauseSanitizerPanic:
		return metadata.CauseInvariantViolation
	case ErrCauseUnparseable:
		return metadata.CauseContentInvalid
	default:
		return metadata.CauseUnknown
	}
}
