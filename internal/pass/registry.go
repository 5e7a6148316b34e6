package pass

import (
	"fmt"
	"slices"
	"strings"

	"github.com/rohmanhakim/clipmd/pkg/failure"
)

// NewPassSet groups passes by phase and sorts each group by ascending
// priority. In non-production builds it rejects duplicate priorities
// within a phase and passes without an Execute function.
func NewPassSet(passes ...ProcessingPass) (PassSet, failure.ClassifiedError) {
	if err := validateRegistry(passes); err != nil {
		return PassSet{}, err
	}

	var set PassSet
	for _, p := range passes {
		switch p.Phase {
		case PhasePreSanitize:
			set.PreSanitize = append(set.PreSanitize, p)
		case PhasePostSanitizeBeforeImages:
			set.PostSanitizeBeforeImages = append(set.PostSanitizeBeforeImages, p)
		case PhasePostSanitizeAfterImages:
			set.PostSanitizeAfterImages = append(set.PostSanitizeAfterImages, p)
		default:
			return PassSet{}, &RegistryError{
				Message: fmt.Sprintf("pass %q has phase %d", p.Name, p.Phase),
				Cause:   ErrCauseUnknownPhase,
			}
		}
	}

	sortByPriority(set.PreSanitize)
	sortByPriority(set.PostSanitizeBeforeImages)
	sortByPriority(set.PostSanitizeAfterImages)
	return set, nil
}

func sortByPriority(passes []ProcessingPass) {
	slices.SortStableFunc(passes, func(a, b ProcessingPass) int {
		return a.Priority - b.Priority
	})
}

// ValidatePriorities rejects two passes in the same phase sharing a priority
// and passes with a nil Execute. It always runs, regardless of build tags.
func ValidatePriorities(passes []ProcessingPass) failure.ClassifiedError {
	seen := make(map[Phase]map[int]string)
	var duplicates []string

	for _, p := range passes {
		if p.Execute == nil {
			return &RegistryError{
				Message: fmt.Sprintf("pass %q", p.Name),
				Cause:   ErrCauseMissingExecute,
			}
		}
		byPriority, ok := seen[p.Phase]
		if !ok {
			byPriority = make(map[int]string)
			seen[p.Phase] = byPriority
		}
		if other, exists := byPriority[p.Priority]; exists {
			duplicates = append(duplicates, fmt.Sprintf("%s: %q and %q share priority %d", p.Phase, other, p.Name, p.Priority))
			continue
		}
		byPriority[p.Priority] = p.Name
	}

	if len(duplicates) > 0 {
		return &RegistryError{
			Message: strings.Join(duplicates, "; "),
			Cause:   ErrCauseDuplicatePriority,
		}
	}
	return nil
}
