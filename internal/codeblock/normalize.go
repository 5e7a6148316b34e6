package codeblock

import (
	"regexp"
	"slices"
	"strings"

	"github.com/andybalholm/cascadia"
	"github.com/rohmanhakim/clipmd/internal/domutil"
	"golang.org/x/net/html"
)

// wrapperSelectors are tried in order; earlier entries win when a wrapper
// matches several.
var wrapperSelectors = []cascadia.Selector{
	domutil.MustSelector("div.highlight"),
	domutil.MustSelector("div[class*=highlight-]"),
	domutil.MustSelector("div.codehilite"),
	domutil.MustSelector("div.snippet-clipboard-content"),
	domutil.MustSelector("div.sourceCode"),
	domutil.MustSelector("figure.highlight"),
	domutil.MustSelector("div.code-block"),
	domutil.MustSelector("div.code-toolbar"),
}

// toolbarClass matches a whole class token used by copy bars and code
// headers. copyright or clipboard-history do not match.
var toolbarClass = regexp.MustCompile(`(?i)^(copy|copy-(btn|button|code|label|wrapper|container)|copy-to-clipboard|clipboard-(btn|button|copy)|(code-)?toolbar(-(top|header|actions|container))?|code-(header|actions))$`)

// maxToolbarWords bounds the visible text of something treated as a toolbar.
const maxToolbarWords = 4

var copyLabels = []string{"copy", "copy code", "copy to clipboard"}

// Stats counts what one Normalize call changed.
type Stats struct {
	Widgets   int
	Wrappers  int
	Tables    int
	Removed   int
	Languages int
}

// Normalize turns every code block under root into the canonical
// <pre><code class="language-X"> shape, or removes it when empty.
func Normalize(root *html.Node) Stats {
	var st Stats
	st.Widgets = flattenLineWidgets(root)
	st.Tables = unwrapTablePres(root)
	for _, pre := range domutil.Elements(root, "pre") {
		if pre.Parent != nil && !domutil.IsInside(pre, "pre") {
			removePrecedingToolbar(pre)
		}
	}
	st.Wrappers = collapseWrappers(root)
	for _, pre := range domutil.Elements(root, "pre") {
		if pre.Parent == nil || domutil.IsInside(pre, "pre") {
			continue
		}
		code := ensureSingleCode(pre)
		stripPreChrome(pre, code)
		if !trimCode(code) {
			domutil.Remove(pre)
			st.Removed++
			continue
		}
		lang := InferLanguage(pre, code)
		applyLanguage(pre, code, lang)
		if lang != "" {
			st.Languages++
		}
	}
	return st
}

// unwrapTablePres replaces <pre><table>..</table></pre> with the table.
func unwrapTablePres(root *html.Node) int {
	n := 0
	for _, pre := range domutil.Elements(root, "pre") {
		if pre.Parent == nil {
			continue
		}
		child := domutil.OnlyMeaningfulChild(pre)
		if domutil.IsElement(child, "table") {
			domutil.Replace(pre, child)
			n++
		}
	}
	return n
}

// collapseWrappers hoists language hints from highlighter wrappers onto
// their <pre> and replaces the wrapper with the <pre> when nothing else is
// inside.
func collapseWrappers(root *html.Node) int {
	n := 0
	for _, sel := range wrapperSelectors {
		for _, wrapper := range domutil.QueryAll(root, sel) {
			if wrapper.Parent == nil {
				continue
			}
			pres := domutil.Elements(wrapper, "pre")
			if len(pres) != 1 {
				continue
			}
			pre := pres[0]
			if _, ok := domutil.GetAttr(pre, HintAttr); !ok {
				if hint := languageFromClasses([]*html.Node{wrapper}, ""); hint != "" {
					domutil.SetAttr(pre, HintAttr, hint)
				}
			}
			if onlyHolds(wrapper, pre) {
				domutil.Replace(wrapper, pre)
				n++
			}
		}
	}
	return n
}

// onlyHolds reports whether wrapper has no meaningful content outside pre.
func onlyHolds(wrapper *html.Node, pre *html.Node) bool {
	var walk func(n *html.Node) bool
	walk = func(n *html.Node) bool {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c == pre {
				continue
			}
			switch {
			case domutil.IsText(c):
				if strings.TrimSpace(c.Data) != "" {
					return false
				}
			case domutil.IsElement(c, "img", "picture", "svg", "table", "video", "iframe", "input"):
				return false
			case domutil.IsElement(c):
				if !walk(c) {
					return false
				}
			}
		}
		return true
	}
	return walk(wrapper)
}

// ensureSingleCode returns the one <code> child of pre, synthesizing it or
// merging extra <code> siblings into the first.
func ensureSingleCode(pre *html.Node) *html.Node {
	var codes []*html.Node
	for c := pre.FirstChild; c != nil; c = c.NextSibling {
		if domutil.IsElement(c, "code") {
			codes = append(codes, c)
		}
	}
	if len(codes) == 0 {
		code := domutil.NewElement("code")
		domutil.MoveChildren(pre, code)
		pre.AppendChild(code)
		return code
	}
	first := codes[0]
	for _, extra := range codes[1:] {
		if last := first.LastChild; last != nil && !(domutil.IsText(last) && strings.HasSuffix(last.Data, "\n")) {
			first.AppendChild(domutil.NewText("\n"))
		}
		domutil.MoveChildren(extra, first)
		for _, c := range domutil.Classes(extra) {
			domutil.AddClass(first, c)
		}
		domutil.Remove(extra)
	}
	return first
}

// stripPreChrome removes everything inside pre except code.
func stripPreChrome(pre *html.Node, code *html.Node) {
	for c := pre.FirstChild; c != nil; {
		next := c.NextSibling
		if c != code {
			domutil.Remove(c)
		}
		c = next
	}
}

// removePrecedingToolbar deletes a copy-button bar rendered right above pre.
func removePrecedingToolbar(pre *html.Node) {
	prev := pre.PrevSibling
	for prev != nil && !domutil.IsMeaningful(prev) {
		prev = prev.PrevSibling
	}
	if isToolbar(prev) {
		domutil.Remove(prev)
	}
}

func isToolbar(n *html.Node) bool {
	if !domutil.IsElement(n) || domutil.IsElement(n, "pre", "code") {
		return false
	}
	if len(domutil.Elements(n, "pre", "code")) > 0 {
		return false
	}
	if len(strings.Fields(domutil.TextContent(n))) > maxToolbarWords {
		return false
	}
	if slices.ContainsFunc(domutil.Classes(n), toolbarClass.MatchString) {
		return true
	}
	for _, d := range domutil.Elements(n) {
		if !domutil.IsElement(d, "button") && domutil.AttrOr(d, "role", "") != "button" {
			continue
		}
		label := strings.ToLower(strings.TrimSpace(domutil.TextContent(d)))
		if label == "" {
			label = strings.ToLower(strings.TrimSpace(domutil.AttrOr(d, "aria-label", "")))
		}
		if slices.Contains(copyLabels, label) {
			return true
		}
	}
	return false
}

// trimCode reduces code to a single text node without leading or trailing
// blank lines. It reports false when nothing but whitespace remains.
func trimCode(code *html.Node) bool {
	text := trimBlankLines(FlattenText(code))
	domutil.RemoveChildren(code)
	if strings.TrimSpace(text) == "" {
		return false
	}
	code.AppendChild(domutil.NewText(text))
	return true
}

func trimBlankLines(s string) string {
	lines := strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n")
	start, end := 0, len(lines)
	for start < end && strings.TrimSpace(lines[start]) == "" {
		start++
	}
	for end > start && strings.TrimSpace(lines[end-1]) == "" {
		end--
	}
	return strings.Join(lines[start:end], "\n")
}

// applyLanguage clears earlier language markers from pre and code and sets
// language-<lang> on code.
func applyLanguage(pre *html.Node, code *html.Node, lang string) {
	for _, n := range []*html.Node{pre, code} {
		classes := slices.DeleteFunc(domutil.Classes(n), isLanguageMarker)
		domutil.SetClasses(n, classes)
	}
	domutil.RemoveAttr(pre, HintAttr)
	if lang != "" {
		domutil.AddClass(code, "language-"+lang)
	}
}
