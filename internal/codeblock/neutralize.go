package codeblock

import (
	"strings"

	"github.com/rohmanhakim/clipmd/internal/domutil"
	"golang.org/x/net/html"
)

// inlineFormatting elements are descended into; their text is kept.
var inlineFormatting = map[string]bool{
	"a": true, "abbr": true, "b": true, "bdi": true, "bdo": true, "cite": true,
	"code": true, "data": true, "del": true, "dfn": true, "em": true,
	"font": true, "i": true, "ins": true, "kbd": true, "mark": true, "q": true,
	"s": true, "samp": true, "small": true, "span": true, "strike": true,
	"strong": true, "sub": true, "sup": true, "time": true, "tt": true,
	"u": true, "var": true, "td": true, "th": true,
}

// lineBlocks end with a newline when flattened.
var lineBlocks = map[string]bool{
	"div": true, "p": true, "li": true, "tr": true, "section": true,
	"article": true, "blockquote": true, "header": true, "footer": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"ul": true, "ol": true, "table": true, "tbody": true, "thead": true,
	"tfoot": true, "pre": true, "dl": true, "dt": true, "dd": true,
}

// Neutralize flattens the content of every <pre> and inline <code> to a
// single text node so markup-looking code survives sanitization as text.
// A <pre> that only wraps a table is left for Normalize.
func Neutralize(root *html.Node) {
	for _, pre := range domutil.Elements(root, "pre") {
		if pre.Parent == nil || domutil.IsInside(pre, "pre") {
			continue
		}
		if domutil.IsElement(domutil.OnlyMeaningfulChild(pre), "table") {
			continue
		}
		neutralizePre(pre)
	}
	for _, code := range domutil.Elements(root, "code") {
		if code.Parent == nil || domutil.IsInside(code, "pre") {
			continue
		}
		text := FlattenText(code)
		domutil.RemoveChildren(code)
		if text != "" {
			code.AppendChild(domutil.NewText(text))
		}
	}
}

// neutralizePre reduces pre to literal text. When pre holds <code>, only
// the code text survives; siblings of the code are chrome.
func neutralizePre(pre *html.Node) {
	var codes []*html.Node
	for _, c := range domutil.Elements(pre, "code") {
		if !domutil.IsInside(c, "code") {
			codes = append(codes, c)
		}
	}
	if len(codes) == 0 {
		text := FlattenText(pre)
		domutil.RemoveChildren(pre)
		if text != "" {
			pre.AppendChild(domutil.NewText(text))
		}
		return
	}

	var b strings.Builder
	target := domutil.NewElement("code")
	for i, code := range codes {
		if i > 0 && b.Len() > 0 && !strings.HasSuffix(b.String(), "\n") {
			b.WriteByte('\n')
		}
		b.WriteString(FlattenText(code))
		for _, c := range domutil.Classes(code) {
			domutil.AddClass(target, c)
		}
	}
	domutil.RemoveChildren(pre)
	if b.Len() > 0 {
		target.AppendChild(domutil.NewText(b.String()))
	}
	pre.AppendChild(target)
}

// FlattenText serializes the children of n as the text a reader would see,
// with <br> as a newline, blocks ending in a newline, and anything outside
// the inline formatting set kept as its literal HTML source.
func FlattenText(n *html.Node) string {
	var b strings.Builder
	flattenInto(&b, n)
	return b.String()
}

func flattenInto(b *strings.Builder, n *html.Node) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		switch c.Type {
		case html.TextNode:
			b.WriteString(c.Data)
		case html.ElementNode:
			switch {
			case c.Data == "br":
				b.WriteByte('\n')
			case c.Namespace != "":
				b.WriteString(domutil.Render(c))
			case inlineFormatting[c.Data]:
				flattenInto(b, c)
			case lineBlocks[c.Data]:
				flattenInto(b, c)
				if !strings.HasSuffix(b.String(), "\n") {
					b.WriteByte('\n')
				}
			default:
				b.WriteString(domutil.Render(c))
			}
		}
	}
}
