/*
Responsibilities
- Fold NBSP variants to plain spaces
- Drop zero-width and bidi control characters
- Optionally fold typographic quotes to ASCII

Code regions (pre, code, kbd, samp, script, style, textarea) are never touched.
A text node made only of NBSP characters is left intact so intentional
spacing can be preserved downstream.
*/
package textnorm

import (
	"strings"
	"unicode"

	"github.com/rohmanhakim/clipmd/internal/domutil"
	"golang.org/x/net/html"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const NBSP = '\u00A0'

var nbspVariants = &unicode.RangeTable{
	R16: []unicode.Range16{
		{Lo: 0x00A0, Hi: 0x00A0, Stride: 1},
		{Lo: 0x2007, Hi: 0x2007, Stride: 1},
		{Lo: 0x202F, Hi: 0x202F, Stride: 1},
	},
}

// ZWJ (U+200D) is kept because emoji sequences depend on it.
var invisible = &unicode.RangeTable{
	R16: []unicode.Range16{
		{Lo: 0x00AD, Hi: 0x00AD, Stride: 1},
		{Lo: 0x200B, Hi: 0x200C, Stride: 1},
		{Lo: 0x200E, Hi: 0x200F, Stride: 1},
		{Lo: 0x202A, Hi: 0x202E, Stride: 1},
		{Lo: 0x2060, Hi: 0x2060, Stride: 1},
		{Lo: 0x2066, Hi: 0x2069, Stride: 1},
		{Lo: 0xFEFF, Hi: 0xFEFF, Stride: 1},
	},
}

func foldQuote(r rune) rune {
	switch r {
	case '\u2018', '\u2019', '\u201A', '\u201B', '\u2032':
		return '\''
	case '\u201C', '\u201D', '\u201E', '\u201F', '\u2033':
		return '"'
	}
	return r
}

func foldNBSP(r rune) rune {
	if unicode.Is(nbspVariants, r) {
		return ' '
	}
	return r
}

func newTransformer(foldQuotes bool) transform.Transformer {
	steps := []transform.Transformer{
		runes.Remove(runes.In(invisible)),
		runes.Map(foldNBSP),
	}
	if foldQuotes {
		steps = append(steps, runes.Map(foldQuote))
	}
	steps = append(steps, norm.NFC)
	return transform.Chain(steps...)
}

// NormalizeString applies the character cleanup to s.
func NormalizeString(s string, foldQuotes bool) string {
	out, _, err := transform.String(newTransformer(foldQuotes), s)
	if err != nil {
		return s
	}
	return out
}

// IsNBSPOnly reports whether s is non-empty and made only of NBSP variants.
func IsNBSPOnly(s string) bool {
	if s == "" {
		return false
	}
	return strings.IndexFunc(s, func(r rune) bool {
		return !unicode.Is(nbspVariants, r)
	}) == -1
}

// Normalize cleans every text node under root outside code regions.
// Text nodes that become empty are removed.
func Normalize(root *html.Node, foldQuotes bool) {
	t := newTransformer(foldQuotes)
	domutil.WalkTextNodes(root, func(n *html.Node) {
		if IsNBSPOnly(n.Data) {
			return
		}
		out, _, err := transform.String(t, n.Data)
		if err != nil {
			return
		}
		if out == "" && n.Data != "" {
			domutil.Remove(n)
			return
		}
		n.Data = out
	})
	// titles and alt text are user-visible too
	for _, el := range domutil.Elements(root) {
		if domutil.IsInside(el, "pre", "code") || domutil.IsElement(el, "pre", "code") {
			continue
		}
		for i, a := range el.Attr {
			if a.Key == "alt" || a.Key == "title" {
				if out, _, err := transform.String(t, a.Val); err == nil {
					el.Attr[i].Val = out
				}
			}
		}
	}
}
