/*
Responsibilities
- Delete permalink anchors emitted by documentation generators
- Replace anchors that only wrap a heading with the heading
- Push links down into block children so link text never spans lines
- Drop anchors with no visible content when images are excluded

Fragment targets survive: ids are hoisted before a wrapper is removed.
*/
package anchor

import (
	"net/url"
	"slices"
	"strings"

	"github.com/rohmanhakim/clipmd/internal/domutil"
	"golang.org/x/net/html"
)

var permalinkClasses = []string{
	"anchor",
	"anchorjs-link",
	"anchor-link",
	"deep-link",
	"hash-link",
	"header-anchor",
	"headerlink",
	"heading-anchor",
	"heading-link",
	"permalink",
	"markdownIt-Anchor",
}

var decorativeGlyphs = []string{"", "¶", "#", "🔗", "§", "⚓"}

// decorative SVG children never make an anchor meaningful
var decorativeSVGChildren = []string{"path", "g", "defs", "use", "symbol", "clippath", "clipPath", "mask", "pattern", "circle", "rect", "line", "polygon", "polyline", "ellipse", "lineargradient", "radialgradient", "stop"}

// IsPermalink reports whether a is an in-page permalink that can be deleted.
// All three signals must hold: a recognized class, a fragment target, and
// decorative or empty text.
func IsPermalink(a *html.Node) bool {
	if !domutil.IsElement(a, "a") {
		return false
	}
	if !hasPermalinkClass(a) {
		return false
	}
	if !hasFragmentTarget(a) {
		return false
	}
	return hasDecorativeText(a)
}

func hasPermalinkClass(a *html.Node) bool {
	for _, c := range domutil.Classes(a) {
		if slices.Contains(permalinkClasses, c) {
			return true
		}
	}
	return false
}

func hasFragmentTarget(a *html.Node) bool {
	if id, ok := domutil.GetAttr(a, "id"); ok && strings.HasPrefix(id, "user-content-") {
		return true
	}
	href, ok := domutil.GetAttr(a, "href")
	if !ok {
		return false
	}
	href = strings.TrimSpace(href)
	if strings.HasPrefix(href, "#") {
		return len(href) > 1
	}
	u, err := url.Parse(href)
	if err != nil {
		return false
	}
	return u.Fragment != ""
}

func hasDecorativeText(a *html.Node) bool {
	text := strings.TrimSpace(domutil.TextContent(a))
	if slices.Contains(decorativeGlyphs, text) {
		return true
	}
	title := strings.ToLower(domutil.AttrOr(a, "title", ""))
	return strings.Contains(title, "permalink")
}

// RemovePermalinks deletes every permalink anchor under root.
func RemovePermalinks(root *html.Node) {
	for _, a := range domutil.Elements(root, "a") {
		if a.Parent != nil && IsPermalink(a) {
			domutil.Remove(a)
		}
	}
}

// UnwrapHeadingAnchors replaces <a><hN>..</hN></a> with the heading,
// moving the anchor id onto the heading when the heading has none.
func UnwrapHeadingAnchors(root *html.Node) {
	for _, a := range domutil.Elements(root, "a") {
		if a.Parent == nil {
			continue
		}
		child := domutil.OnlyMeaningfulChild(a)
		if domutil.HeadingLevel(child) == 0 {
			continue
		}
		if id, ok := domutil.GetAttr(a, "id"); ok && id != "" {
			if _, has := domutil.GetAttr(child, "id"); !has {
				domutil.SetAttr(child, "id", id)
			}
		}
		domutil.Replace(a, child)
	}
}

// UnwrapBlockAnchors removes anchors whose children are all block elements.
// When the anchor has an href, the link is recreated inside each block
// child that holds only inline content.
func UnwrapBlockAnchors(root *html.Node) {
	for _, a := range domutil.Elements(root, "a") {
		if a.Parent == nil {
			continue
		}
		children := domutil.MeaningfulChildren(a)
		if len(children) == 0 || !allBlocks(children) {
			continue
		}
		href, hasHref := domutil.GetAttr(a, "href")
		if hasHref && strings.TrimSpace(href) != "" {
			for _, block := range children {
				pushLinkInto(block, a)
			}
		}
		domutil.Unwrap(a)
	}
}

func allBlocks(nodes []*html.Node) bool {
	for _, n := range nodes {
		if !domutil.IsBlock(n) {
			return false
		}
	}
	return true
}

// pushLinkInto wraps the inline content of block in a copy of link.
// Blocks with nested blocks or anchors are left as they are.
func pushLinkInto(block *html.Node, link *html.Node) {
	if domutil.HeadingLevel(block) == 0 && !domutil.IsElement(block, "p", "div", "li", "dt", "dd", "figcaption") {
		return
	}
	if strings.TrimSpace(domutil.TextContent(block)) == "" && len(domutil.Elements(block, "img")) == 0 {
		return
	}
	for _, d := range domutil.Elements(block) {
		if domutil.IsBlock(d) || domutil.IsElement(d, "a") {
			return
		}
	}
	clone := domutil.NewElement("a")
	for _, attr := range link.Attr {
		if attr.Key == "id" {
			continue
		}
		clone.Attr = append(clone.Attr, attr)
	}
	domutil.MoveChildren(block, clone)
	block.AppendChild(clone)
}

// RemoveEmptyAnchors deletes anchors with no meaningful descendant.
func RemoveEmptyAnchors(root *html.Node, includeImages bool) {
	for _, a := range domutil.Elements(root, "a") {
		if a.Parent == nil {
			continue
		}
		if !HasMeaningfulContent(a, includeImages) {
			domutil.Remove(a)
		}
	}
}

// HasMeaningfulContent reports whether n has a non-whitespace text node,
// an image-family element (when images are included), or an SVG carrying
// an accessible label anywhere in its subtree.
func HasMeaningfulContent(n *html.Node, includeImages bool) bool {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		switch {
		case c.Type == html.TextNode:
			if strings.TrimSpace(c.Data) != "" {
				return true
			}
		case domutil.IsElement(c, "svg"):
			if isLabelledSVG(c) {
				return true
			}
		case domutil.IsImageFamily(c):
			if includeImages {
				return true
			}
		case domutil.IsElement(c, decorativeSVGChildren...):
		case c.Type == html.ElementNode:
			if HasMeaningfulContent(c, includeImages) {
				return true
			}
		}
	}
	return false
}

func isLabelledSVG(svg *html.Node) bool {
	for _, key := range []string{"aria-label", "aria-labelledby"} {
		if v, ok := domutil.GetAttr(svg, key); ok && strings.TrimSpace(v) != "" {
			return true
		}
	}
	for c := svg.FirstChild; c != nil; c = c.NextSibling {
		if domutil.IsElement(c, "title", "desc") && strings.TrimSpace(domutil.TextContent(c)) != "" {
			return true
		}
	}
	return false
}

// Clean runs the post-sanitize anchor cleanup in a fixed order.
func Clean(root *html.Node) {
	RemovePermalinks(root)
	UnwrapHeadingAnchors(root)
	UnwrapBlockAnchors(root)
}
