package codeblock

import (
	"strings"

	"github.com/andybalholm/cascadia"
	"github.com/rohmanhakim/clipmd/internal/domutil"
	"golang.org/x/net/html"
)

// lineWidget describes an editor that renders code as one element per line.
type lineWidget struct {
	name      string
	container cascadia.Selector
	line      cascadia.Selector
	// decoration is removed before lines are read.
	decoration cascadia.Selector
	// outer is the enclosing editor element replaced by the result, if present.
	outer []string
}

var lineWidgets = []lineWidget{
	{
		name:      "codemirror6",
		container: domutil.MustSelector(".cm-content"),
		line:      domutil.MustSelector(".cm-line"),
		outer:     []string{"cm-editor"},
	},
	{
		name:       "codemirror5",
		container:  domutil.MustSelector(".CodeMirror-code"),
		line:       domutil.MustSelector(".CodeMirror-line"),
		decoration: domutil.MustSelector(".CodeMirror-linenumber, .CodeMirror-gutter-wrapper"),
		outer:      []string{"CodeMirror"},
	},
	{
		name:      "monaco",
		container: domutil.MustSelector(".view-lines"),
		line:      domutil.MustSelector(".view-line"),
		outer:     []string{"monaco-editor"},
	},
	{
		name:       "github-blob",
		container:  domutil.MustSelector("table.highlight"),
		line:       domutil.MustSelector("td.blob-code"),
		decoration: domutil.MustSelector("td.blob-num"),
	},
}

// flattenLineWidgets replaces every recognized line widget with a
// synthesized <pre><code> holding its lines joined by newlines.
func flattenLineWidgets(root *html.Node) int {
	replaced := 0
	for _, w := range lineWidgets {
		for _, container := range domutil.QueryAll(root, w.container) {
			if container.Parent == nil || domutil.IsInside(container, "pre") {
				continue
			}
			if w.decoration != nil {
				for _, d := range domutil.QueryAll(container, w.decoration) {
					domutil.Remove(d)
				}
			}
			lines := domutil.QueryAll(container, w.line)
			if len(lines) == 0 {
				continue
			}
			texts := make([]string, 0, len(lines))
			for _, l := range lines {
				texts = append(texts, strings.TrimRight(domutil.TextContent(l), "\n"))
			}
			target := outerEditor(container, w.outer)
			pre := domutil.NewElement("pre")
			code := domutil.NewElement("code")
			code.AppendChild(domutil.NewText(strings.Join(texts, "\n")))
			pre.AppendChild(code)
			if hint := widgetHint(container, target); hint != "" {
				domutil.SetAttr(pre, HintAttr, hint)
			}
			domutil.Replace(target, pre)
			replaced++
		}
	}
	return replaced
}

func outerEditor(container *html.Node, classes []string) *html.Node {
	for p := container.Parent; p != nil; p = p.Parent {
		for _, c := range classes {
			if domutil.HasClass(p, c) {
				return p
			}
		}
	}
	return container
}

func widgetHint(container *html.Node, target *html.Node) string {
	nodes := []*html.Node{container}
	for p := container.Parent; p != nil && p != target.Parent; p = p.Parent {
		nodes = append(nodes, p)
	}
	if lang := domutil.AttrOr(container, "data-language", ""); lang != "" {
		if n := NormalizeLanguage(lang); n != "" {
			return n
		}
	}
	return languageFromClasses(nodes, "")
}
