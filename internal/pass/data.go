package pass

import "golang.org/x/net/html"

// Phase places a pass relative to the sanitizer boundary and the image
// resolution step.
type Phase int

const (
	PhasePreSanitize Phase = iota
	PhasePostSanitizeBeforeImages
	PhasePostSanitizeAfterImages
)

func (p Phase) String() string {
	switch p {
	case PhasePreSanitize:
		return "pre-sanitize"
	case PhasePostSanitizeBeforeImages:
		return "post-sanitize-before-images"
	case PhasePostSanitizeAfterImages:
		return "post-sanitize-after-images"
	default:
		return "unknown"
	}
}

// IsPostSanitize reports whether p runs on sanitized markup.
func (p Phase) IsPostSanitize() bool {
	return p == PhasePostSanitizeBeforeImages || p == PhasePostSanitizeAfterImages
}

// Options are the per-paste user preferences. Immutable for one conversion.
type Options struct {
	IncludeImages            bool
	ConvertImagesToResources bool
	NormalizeQuotes          bool
	ForceTightLists          bool
}

// DefaultOptions mirrors the defaults of a fresh install.
func DefaultOptions() Options {
	return Options{
		IncludeImages:            true,
		ConvertImagesToResources: false,
		NormalizeQuotes:          false,
		ForceTightLists:          false,
	}
}

// Context carries facts discovered about the source of one paste.
type Context struct {
	IsGoogleDocs bool
}

// ProcessingPass is one named DOM mutation step.
// Values are declared once and never mutated.
type ProcessingPass struct {
	Name     string
	Phase    Phase
	Priority int
	// Condition, when non-nil and false, skips the pass silently.
	Condition func(opts Options, pctx Context) bool
	Execute   func(root *html.Node, opts Options, pctx Context) error
}

// Applies reports whether the pass should run for the given inputs.
func (p ProcessingPass) Applies(opts Options, pctx Context) bool {
	return p.Condition == nil || p.Condition(opts, pctx)
}

// PassSet is a validated, sorted view of a registry.
type PassSet struct {
	PreSanitize              []ProcessingPass
	PostSanitizeBeforeImages []ProcessingPass
	PostSanitizeAfterImages  []ProcessingPass
}

// ForPhase returns the sorted passes of one phase.
func (s PassSet) ForPhase(phase Phase) []ProcessingPass {
	switch phase {
	case PhasePreSanitize:
		return s.PreSanitize
	case PhasePostSanitizeBeforeImages:
		return s.PostSanitizeBeforeImages
	case PhasePostSanitizeAfterImages:
		return s.PostSanitizeAfterImages
	default:
		return nil
	}
}

// RunResult collects the warnings of one runner invocation.
type RunResult struct {
	Warnings []string
}
