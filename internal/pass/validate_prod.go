//go:build production

package pass

import "github.com/rohmanhakim/clipmd/pkg/failure"

// Registry ordering is a developer-time invariant; release builds skip it.
func validateRegistry([]ProcessingPass) failure.ClassifiedError {
	return nil
}
