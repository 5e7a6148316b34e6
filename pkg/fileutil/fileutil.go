package fileutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rohmanhakim/clipmd/pkg/failure"
)

// EnsureDir creates dir joined with path if it does not exist yet
func EnsureDir(dir string, path ...string) failure.ClassifiedError {
	targetPath := append([]string{dir}, path...)

	if err := os.MkdirAll(filepath.Join(targetPath...), 0755); err != nil {
		return &FileError{
			Message:   fmt.Sprintf("%v", err),
			Retryable: false,
			Cause:     ErrCausePathError,
		}
	}
	return nil
}

// SafeJoin joins name onto base and rejects results that land outside base.
// Both paths are cleaned and made absolute before comparison.
func SafeJoin(base string, name string) (string, failure.ClassifiedError) {
	absBase, err := filepath.Abs(base)
	if err != nil {
		return "", &FileError{
			Message:   fmt.Sprintf("resolve base %q: %v", base, err),
			Retryable: false,
			Cause:     ErrCausePathError,
		}
	}

	joined := filepath.Join(absBase, name)
	rel, err := filepath.Rel(absBase, joined)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) || filepath.IsAbs(rel) {
		return "", &FileError{
			Message:   fmt.Sprintf("%q resolves outside %q", name, absBase),
			Retryable: false,
			Cause:     ErrCausePathTraversal,
		}
	}
	return joined, nil
}
