/*
Responsibilities
- Unwrap bold wrappers that cover a whole heading
- Flatten headings to plain text, keeping fragment ids
- Renormalize heading levels into a sane outline
*/
package heading

import (
	"strconv"
	"strings"

	"github.com/rohmanhakim/clipmd/internal/domutil"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var headingTags = []string{"h1", "h2", "h3", "h4", "h5", "h6"}

// UnwrapBold removes <b>/<strong> elements that hold the entire content of a
// heading. Nested wrappers (<strong><b>x</b></strong>) are unwrapped as well.
func UnwrapBold(root *html.Node) {
	for _, h := range domutil.Elements(root, headingTags...) {
		for {
			child := domutil.OnlyMeaningfulChild(h)
			if !domutil.IsElement(child, "b", "strong") {
				break
			}
			domutil.Unwrap(child)
		}
	}
}

// Flatten reduces every heading to a single text node. The first id found
// on a descendant moves to the heading when the heading has none. Headings
// left with no text are removed.
func Flatten(root *html.Node) {
	for _, h := range domutil.Elements(root, headingTags...) {
		if h.Parent == nil {
			continue
		}
		if _, ok := domutil.GetAttr(h, "id"); !ok {
			if id := firstDescendantID(h); id != "" {
				domutil.SetAttr(h, "id", id)
			}
		}
		text := collapseWhitespace(domutil.TextContent(h))
		if text == "" {
			domutil.Remove(h)
			continue
		}
		domutil.RemoveChildren(h)
		h.AppendChild(domutil.NewText(text))
	}
}

func firstDescendantID(h *html.Node) string {
	for _, d := range domutil.Elements(h) {
		if id, ok := domutil.GetAttr(d, "id"); ok && strings.TrimSpace(id) != "" {
			return id
		}
	}
	return ""
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// RenormalizeLevels walks headings in document order. The first heading
// keeps its level; each later heading may move shallower freely but at most
// one level deeper than the previous heading.
func RenormalizeLevels(root *html.Node) {
	prev := 0
	for _, h := range domutil.Elements(root, headingTags...) {
		level := domutil.HeadingLevel(h)
		if prev != 0 && level > prev+1 {
			level = prev + 1
			setLevel(h, level)
		}
		prev = level
	}
}

func setLevel(h *html.Node, level int) {
	tag := "h" + strconv.Itoa(level)
	h.Data = tag
	h.DataAtom = atom.Lookup([]byte(tag))
}

// Levels returns the heading levels under root in document order.
func Levels(root *html.Node) []int {
	var out []int
	for _, h := range domutil.Elements(root, headingTags...) {
		out = append(out, domutil.HeadingLevel(h))
	}
	return out
}

// Normalize flattens headings and then renormalizes their levels.
func Normalize(root *html.Node) {
	Flatten(root)
	RenormalizeLevels(root)
}
