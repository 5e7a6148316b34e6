package pipeline

import (
	"github.com/rohmanhakim/clipmd/internal/anchor"
	"github.com/rohmanhakim/clipmd/internal/cleanup"
	"github.com/rohmanhakim/clipmd/internal/codeblock"
	"github.com/rohmanhakim/clipmd/internal/heading"
	"github.com/rohmanhakim/clipmd/internal/images"
	"github.com/rohmanhakim/clipmd/internal/lists"
	"github.com/rohmanhakim/clipmd/internal/pass"
	"github.com/rohmanhakim/clipmd/internal/textnorm"
	"github.com/rohmanhakim/clipmd/pkg/failure"
	"golang.org/x/net/html"
)

// Pre-sanitize passes shape markup the allow-list would otherwise destroy.
// Code neutralization runs last so earlier passes never see flattened code.
var preSanitizePasses = []pass.ProcessingPass{
	{
		Name:     "normalize-text",
		Phase:    pass.PhasePreSanitize,
		Priority: 10,
		Execute:  normalizeText,
	},
	{
		Name:     "strip-ui-chrome",
		Phase:    pass.PhasePreSanitize,
		Priority: 20,
		Execute: func(root *html.Node, _ pass.Options, _ pass.Context) error {
			cleanup.StripChrome(root)
			return nil
		},
	},
	{
		Name:     "unwrap-heading-bold",
		Phase:    pass.PhasePreSanitize,
		Priority: 30,
		Execute: func(root *html.Node, _ pass.Options, _ pass.Context) error {
			heading.UnwrapBold(root)
			return nil
		},
	},
	{
		Name:     "promote-image-sizing",
		Phase:    pass.PhasePreSanitize,
		Priority: 40,
		Execute: func(root *html.Node, _ pass.Options, _ pass.Context) error {
			images.PromoteSizing(root)
			return nil
		},
	},
	{
		Name:      "prune-image-anchors",
		Phase:     pass.PhasePreSanitize,
		Priority:  50,
		Condition: includeImages,
		Execute: func(root *html.Node, _ pass.Options, _ pass.Context) error {
			images.PruneAnchors(root)
			return nil
		},
	},
	{
		Name:     "unwrap-google-docs",
		Phase:    pass.PhasePreSanitize,
		Priority: 60,
		Condition: func(_ pass.Options, pctx pass.Context) bool {
			return pctx.IsGoogleDocs
		},
		Execute: func(root *html.Node, _ pass.Options, _ pass.Context) error {
			cleanup.UnwrapGoogleDocs(root)
			return nil
		},
	},
	{
		Name:      "protect-resource-refs",
		Phase:     pass.PhasePreSanitize,
		Priority:  70,
		Condition: includeImages,
		Execute: func(root *html.Node, _ pass.Options, _ pass.Context) error {
			images.ProtectResourceRefs(root)
			return nil
		},
	},
	{
		Name:     "neutralize-code-blocks",
		Phase:    pass.PhasePreSanitize,
		Priority: 100,
		Execute: func(root *html.Node, _ pass.Options, _ pass.Context) error {
			codeblock.Neutralize(root)
			return nil
		},
	},
}

var postSanitizeBeforeImagesPasses = []pass.ProcessingPass{
	{
		Name:     "remove-empty-anchors",
		Phase:    pass.PhasePostSanitizeBeforeImages,
		Priority: 10,
		Condition: func(opts pass.Options, _ pass.Context) bool {
			return !opts.IncludeImages
		},
		Execute: func(root *html.Node, opts pass.Options, _ pass.Context) error {
			anchor.RemoveEmptyAnchors(root, opts.IncludeImages)
			return nil
		},
	},
	{
		Name:     "clean-headings",
		Phase:    pass.PhasePostSanitizeBeforeImages,
		Priority: 20,
		Execute: func(root *html.Node, _ pass.Options, _ pass.Context) error {
			anchor.Clean(root)
			heading.Normalize(root)
			return nil
		},
	},
	{
		Name:     "repair-lists",
		Phase:    pass.PhasePostSanitizeBeforeImages,
		Priority: 30,
		Execute: func(root *html.Node, _ pass.Options, _ pass.Context) error {
			lists.Repair(root)
			return nil
		},
	},
	{
		Name:     "normalize-text",
		Phase:    pass.PhasePostSanitizeBeforeImages,
		Priority: 40,
		Execute:  normalizeText,
	},
	{
		Name:     "protect-literal-tags",
		Phase:    pass.PhasePostSanitizeBeforeImages,
		Priority: 50,
		Execute: func(root *html.Node, _ pass.Options, _ pass.Context) error {
			cleanup.ProtectLiteralTags(root)
			return nil
		},
	},
	{
		Name:     "normalize-code-blocks",
		Phase:    pass.PhasePostSanitizeBeforeImages,
		Priority: 60,
		Execute: func(root *html.Node, _ pass.Options, _ pass.Context) error {
			codeblock.Normalize(root)
			return nil
		},
	},
	{
		Name:     "mark-nbsp",
		Phase:    pass.PhasePostSanitizeBeforeImages,
		Priority: 70,
		Execute: func(root *html.Node, _ pass.Options, _ pass.Context) error {
			cleanup.MarkNBSP(root)
			return nil
		},
	},
}

// After-image passes see final srcs and the conversion markers.
var postSanitizeAfterImagesPasses = []pass.ProcessingPass{
	{
		Name:      "unwrap-converted-image-links",
		Phase:     pass.PhasePostSanitizeAfterImages,
		Priority:  10,
		Condition: includeImages,
		Execute: func(root *html.Node, _ pass.Options, _ pass.Context) error {
			images.UnwrapConvertedLinks(root)
			return nil
		},
	},
	{
		Name:      "standardize-image-attrs",
		Phase:     pass.PhasePostSanitizeAfterImages,
		Priority:  20,
		Condition: includeImages,
		Execute: func(root *html.Node, _ pass.Options, _ pass.Context) error {
			images.Standardize(root)
			return nil
		},
	},
	{
		Name:      "normalize-alt-text",
		Phase:     pass.PhasePostSanitizeAfterImages,
		Priority:  30,
		Condition: includeImages,
		Execute: func(root *html.Node, _ pass.Options, _ pass.Context) error {
			images.NormalizeAlt(root)
			return nil
		},
	},
}

func includeImages(opts pass.Options, _ pass.Context) bool {
	return opts.IncludeImages
}

func normalizeText(root *html.Node, opts pass.Options, _ pass.Context) error {
	textnorm.Normalize(root, opts.NormalizeQuotes)
	return nil
}

// ProcessingPasses returns the static registry grouped by phase and sorted
// by priority.
func ProcessingPasses() (pass.PassSet, failure.ClassifiedError) {
	all := make([]pass.ProcessingPass, 0, len(preSanitizePasses)+len(postSanitizeBeforeImagesPasses)+len(postSanitizeAfterImagesPasses))
	all = append(all, preSanitizePasses...)
	all = append(all, postSanitizeBeforeImagesPasses...)
	all = append(all, postSanitizeAfterImagesPasses...)
	return pass.NewPassSet(all...)
}
