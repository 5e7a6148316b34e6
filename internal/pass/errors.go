package pass

import (
	"fmt"

	"github.com/rohmanhakim/clipmd/internal/metadata"
	"github.com/rohmanhakim/clipmd/pkg/failure"
)

type RegistryErrorCause string

const (
	ErrCauseDuplicatePriority RegistryErrorCause = "duplicate priority"
	ErrCauseMissingExecute    RegistryErrorCause = "missing execute function"
	ErrCauseUnknownPhase      RegistryErrorCause = "unknown phase"
)

// RegistryError is a developer-time configuration error in the pass table.
type RegistryError struct {
	Message   string
	Retryable bool
	Cause     RegistryErrorCause
}

func (e *RegistryError) Error() string {
	return fmt.Sprintf("pass registry error: %s: %s", e.Cause, e.Message)
}

func (e *RegistryError) Severity() failure.Severity {
	if e.Retryable {
		return failure.SeverityRecoverable
	}
	return failure.SeverityFatal
}

// PassError wraps a failure raised inside a single pass.
type PassError struct {
	PassName string
	Message  string
	Panicked bool
}

func (e *PassError) Error() string {
	return fmt.Sprintf("%s: %s", e.PassName, e.Message)
}

func (e *PassError) Severity() failure.Severity {
	return failure.SeverityRecoverable
}

// mapPassErrorToMetadataCause maps pass-local error semantics
// to the canonical metadata.ErrorCause table.
//
// This mapping is observational only and MUST NOT be used
// to derive control-flow decisions.
func mapPassErrorToMetadataCause(err *PassError) metadata.ErrorCause {
	if err.Panicked {
		return metadata.CauseInvariantViolation
	}
	return metadata.CauseContentInvalid
}
