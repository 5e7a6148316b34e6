package sanitizer

import (
	"slices"
)

// SanitizeParam is the allow-list handed to the sanitizer for one call.
type SanitizeParam struct {
	AllowedTags  []string
	AllowedAttrs []string
	// ForbiddenAttrs win over AllowedAttrs. style is always forbidden.
	ForbiddenAttrs []string
	// KeepContent keeps the text of removed elements in place.
	KeepContent bool
	// ImageAttrs are allowed on img and source only.
	ImageAttrs []string
}

var baseTags = []string{
	"p", "br", "hr", "h1", "h2", "h3", "h4", "h5", "h6", "blockquote",
	"pre", "code", "ul", "ol", "li", "dl", "dt", "dd",
	"table", "thead", "tbody", "tfoot", "tr", "th", "td", "caption", "colgroup", "col",
	"a", "strong", "b", "em", "i", "u", "ins", "s", "del", "strike", "sub", "sup",
	"mark", "kbd", "samp", "var", "abbr", "small", "q", "cite", "time", "span", "div",
	"section", "article", "figure", "figcaption", "details", "summary", "input",
}

var imageTags = []string{"img", "picture", "source"}

var baseAttrs = []string{
	"href", "title", "id", "class", "lang", "dir",
	"colspan", "rowspan", "start", "reversed", "value",
	"type", "checked", "disabled", "datetime",
	"aria-label", "aria-labelledby", "aria-hidden", "role",
}

// DefaultSanitizeParam is the allow-list of the paste pipeline. Image
// elements and attributes are allowed only when includeImages is set.
// refAttr names the attribute that carries protected resource references.
func DefaultSanitizeParam(includeImages bool, refAttr string) SanitizeParam {
	param := SanitizeParam{
		AllowedTags:    slices.Clone(baseTags),
		AllowedAttrs:   slices.Clone(baseAttrs),
		ForbiddenAttrs: []string{"style"},
		KeepContent:    true,
	}
	if includeImages {
		param.AllowedTags = append(param.AllowedTags, imageTags...)
		param.ImageAttrs = []string{"src", "alt", "width", "height", "srcset"}
		if refAttr != "" {
			param.ImageAttrs = append(param.ImageAttrs, refAttr)
		}
	}
	return param
}

// allowed returns names minus forbidden, with style removed unconditionally.
func allowed(names []string, forbidden []string) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		if n == "style" || slices.Contains(forbidden, n) {
			continue
		}
		out = append(out, n)
	}
	return out
}
