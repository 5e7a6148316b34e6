package cleanup

import (
	"regexp"

	"github.com/rohmanhakim/clipmd/internal/domutil"
	"golang.org/x/net/html"
)

// literalTag matches <name>, </name>, <name/> and tags whose attributes all
// have the name=value shape. Prose like "a <b and c> d" is not a tag.
var literalTag = regexp.MustCompile(`</?[A-Za-z][A-Za-z0-9-]*(?:\s+[A-Za-z_:][-A-Za-z0-9_:.]*\s*=\s*(?:"[^"]*"|'[^']*'|[^\s"'<>=]+))*\s*/?>`)

// ProtectLiteralTags wraps tag-looking text outside code in <code> so the
// renderer emits it verbatim. It returns the number of spans wrapped.
func ProtectLiteralTags(root *html.Node) int {
	wrapped := 0
	domutil.WalkTextNodes(root, func(t *html.Node) {
		if t.Parent == nil {
			return
		}
		matches := literalTag.FindAllStringIndex(t.Data, -1)
		if len(matches) == 0 {
			return
		}
		rest := t.Data
		offset := 0
		for _, m := range matches {
			start, end := m[0]-offset, m[1]-offset
			if start > 0 {
				domutil.InsertBefore(t, domutil.NewText(rest[:start]))
			}
			code := domutil.NewElement("code")
			code.AppendChild(domutil.NewText(rest[start:end]))
			domutil.InsertBefore(t, code)
			rest = rest[end:]
			offset = m[1]
			wrapped++
		}
		if rest == "" {
			domutil.Remove(t)
			return
		}
		t.Data = rest
	})
	return wrapped
}
