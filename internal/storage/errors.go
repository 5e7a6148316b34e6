package storage

import (
	"fmt"

	"github.com/rohmanhakim/clipmd/internal/metadata"
	"github.com/rohmanhakim/clipmd/pkg/failure"
)

type StorageErrorCause string

const (
	ErrCauseDiskFull      StorageErrorCause = "disk is full"
	ErrCauseWriteFailure  StorageErrorCause = "write failed"
	ErrCausePathError     StorageErrorCause = "path error"
	ErrCausePathTraversal StorageErrorCause = "path escapes data directory"
	ErrCauseEmptyData     StorageErrorCause = "empty resource"
	ErrCauseCancelled     StorageErrorCause = "cancelled"
	ErrCauseDatabase      StorageErrorCause = "database failure"
	ErrCauseNotFound      StorageErrorCause = "resource not found"
)

type StorageError struct {
	Message   string
	Retryable bool
	Cause     StorageErrorCause
	Path      string
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error: %s", e.Cause)
}

func (e *StorageError) Severity() failure.Severity {
	if e.Retryable {
		return failure.SeverityRecoverable
	}
	return failure.SeverityFatal
}

func (e *StorageError) IsRetryable() bool {
	return e.Retryable
}

// mapStorageErrorToMetadataCause maps storage-local error semantics
// to the canonical metadata.ErrorCause table.
//
// This mapping is observational only and MUST NOT be used
// to derive control-flow decisions.
func mapStorageErrorToMetadataCause(err *StorageError) metadata.ErrorCause {
	switch err.Cause {
	case ErrCauseDiskFull, ErrCauseWriteFailure, ErrCausePathError, ErrCauseDatabase:
		return metadata.CauseStorageFailure
	case ErrCausePathTraversal:
		return metadata.CauseInvariantViolation
	case ErrCauseEmptyData:
		return metadata.CauseContentInvalid
	default:
		return metadata.CauseUnknown
	}
}
