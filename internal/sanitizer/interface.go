package sanitizer

import (
	"github.com/rohmanhakim/clipmd/pkg/failure"
)

// Sanitizer is the security boundary between untrusted clipboard markup and
// the post-sanitize passes.
type Sanitizer interface {
	// Sanitize returns input with every element and attribute outside param
	// removed. Failure is fatal to the conversion and never retried.
	Sanitize(input string, param SanitizeParam) (string, failure.ClassifiedError)
}

// Compile-time interface check
var _ Sanitizer = (*HTMLSanitizer)(nil)
