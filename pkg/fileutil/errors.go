package fileutil

import (
	"fmt"

	"github.com/rohmanhakim/clipmd/pkg/failure"
)

type FileErrorCause string

const (
	ErrCausePathError     FileErrorCause = "path error"
	ErrCausePathTraversal FileErrorCause = "path escapes base directory"
)

type FileError struct {
	Message   string
	Retryable bool
	Cause     FileErrorCause
}

func (e *FileError) Error() string {
	return fmt.Sprintf("file error: %s", e.Cause)
}

func (e *FileError) Severity() failure.Severity {
	if e.Retryable {
		return failure.SeverityRecoverable
	}
	return failure.SeverityFatal
}
