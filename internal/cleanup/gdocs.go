package cleanup

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rohmanhakim/clipmd/internal/domutil"
	"golang.org/x/net/html"
)

// GoogleDocsIDPrefix starts the id of the wrapper Google Docs puts around
// copied content.
const GoogleDocsIDPrefix = "docs-internal-guid-"

const googleDocsSelector = `[id^="` + GoogleDocsIDPrefix + `"]`

// IsGoogleDocs reports whether root holds a Google Docs clipboard payload.
func IsGoogleDocs(root *html.Node) bool {
	return goquery.NewDocumentFromNode(root).Find(googleDocsSelector).Length() > 0
}

// UnwrapGoogleDocs removes the bold guid wrapper and turns styled spans
// into semantic inline elements before styles are stripped.
func UnwrapGoogleDocs(root *html.Node) {
	doc := goquery.NewDocumentFromNode(root)
	doc.Find(googleDocsSelector).Each(func(_ int, s *goquery.Selection) {
		switch goquery.NodeName(s) {
		case "b", "div", "span":
			domutil.Unwrap(s.Get(0))
		}
	})
	doc.Find("span[style]").Each(func(_ int, s *goquery.Selection) {
		styleSpan(s.Get(0))
	})
}

// styleSpan wraps the children of span in the semantic elements its inline
// style implies, innermost last.
func styleSpan(span *html.Node) {
	style := parseStyle(domutil.AttrOr(span, "style", ""))
	var tags []string
	if w := style["font-weight"]; w == "bold" || w == "700" || w == "800" || w == "900" {
		tags = append(tags, "strong")
	}
	if style["font-style"] == "italic" {
		tags = append(tags, "em")
	}
	if strings.Contains(style["text-decoration"], "line-through") {
		tags = append(tags, "s")
	}
	switch style["vertical-align"] {
	case "super":
		tags = append(tags, "sup")
	case "sub":
		tags = append(tags, "sub")
	}
	if len(tags) == 0 || strings.TrimSpace(domutil.TextContent(span)) == "" {
		return
	}
	inner := span
	for _, tag := range tags {
		el := domutil.NewElement(tag)
		domutil.MoveChildren(inner, el)
		inner.AppendChild(el)
		inner = el
	}
}

func parseStyle(style string) map[string]string {
	out := map[string]string{}
	for _, decl := range strings.Split(style, ";") {
		key, val, ok := strings.Cut(decl, ":")
		if !ok {
			continue
		}
		out[strings.ToLower(strings.TrimSpace(key))] = strings.ToLower(strings.TrimSpace(val))
	}
	return out
}
