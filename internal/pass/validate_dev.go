//go:build !production

package pass

import "github.com/rohmanhakim/clipmd/pkg/failure"

func validateRegistry(passes []ProcessingPass) failure.ClassifiedError {
	return ValidatePriorities(passes)
}
