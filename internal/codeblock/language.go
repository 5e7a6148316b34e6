package codeblock

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/rohmanhakim/clipmd/internal/domutil"
	"golang.org/x/net/html"
)

// PlainText is the identifier emitted for blocks explicitly marked as not
// highlighted.
const PlainText = "text"

// HintAttr carries a language hint hoisted from a removed wrapper.
const HintAttr = "data-lang-hint"

// maxAncestorDepth is how many levels above <pre> class inference and the
// label heuristic look.
const maxAncestorDepth = 3

const maxLabelRunes = 24

var aliases = map[string]string{
	"js":            "javascript",
	"mjs":           "javascript",
	"cjs":           "javascript",
	"node":          "javascript",
	"ts":            "typescript",
	"mts":           "typescript",
	"py":            "python",
	"py3":           "python",
	"python3":       "python",
	"rb":            "ruby",
	"yml":           "yaml",
	"c++":           "cpp",
	"cxx":           "cpp",
	"cc":            "cpp",
	"hpp":           "cpp",
	"h":             "c",
	"cs":            "csharp",
	"c#":            "csharp",
	"kt":            "kotlin",
	"kts":           "kotlin",
	"docker":        "dockerfile",
	"plain":         PlainText,
	"plaintext":     PlainText,
	"txt":           PlainText,
	"nohighlight":   PlainText,
	"no-highlight":  PlainText,
	"none":          PlainText,
	"sh":            "bash",
	"zsh":           "bash",
	"shell":         "bash",
	"console":       "bash",
	"shell-session": "bash",
	"golang":        "go",
	"rs":            "rust",
	"md":            "markdown",
	"htm":           "html",
	"xhtml":         "html",
	"svg":           "xml",
	"objc":          "objectivec",
	"objective-c":   "objectivec",
	"ps1":           "powershell",
	"pwsh":          "powershell",
	"proto":         "protobuf",
	"tf":            "hcl",
	"terraform":     "hcl",
	"make":          "makefile",
	"mk":            "makefile",
	"tex":           "latex",
	"jsonc":         "json",
	"json5":         "json",
	"postgres":      "sql",
	"postgresql":    "sql",
	"mysql":         "sql",
	"sqlite":        "sql",
	"plsql":         "sql",
	"patch":         "diff",
	"sass":          "scss",
	"ex":            "elixir",
	"exs":           "elixir",
	"erl":           "erlang",
	"hs":            "haskell",
	"ml":            "ocaml",
	"fs":            "fsharp",
	"f#":            "fsharp",
	"jl":            "julia",
	"pl":            "perl",
	"clj":           "clojure",
	"vb.net":        "vbnet",
	"vb":            "vbnet",
	"sol":           "solidity",
	"gql":           "graphql",
	"nginxconf":     "nginx",
	"cfg":           "ini",
	"conf":          "ini",
}

var recognized = map[string]struct{}{}

func init() {
	for _, lang := range []string{
		PlainText, "bash", "c", "clojure", "cmake", "cpp", "csharp", "css",
		"dart", "diff", "dockerfile", "elixir", "erlang", "fsharp", "go",
		"graphql", "groovy", "haskell", "hcl", "html", "http", "ini", "java",
		"javascript", "json", "jsx", "julia", "kotlin", "latex", "less", "lua",
		"makefile", "markdown", "matlab", "nginx", "nim", "objectivec", "ocaml",
		"perl", "php", "powershell", "protobuf", "python", "r", "ruby", "rust",
		"scala", "scss", "solidity", "sql", "swift", "toml", "tsx",
		"typescript", "vbnet", "vim", "wasm", "xml", "yaml", "zig",
	} {
		recognized[lang] = struct{}{}
	}
}

// NormalizeLanguage maps a raw token through the alias table and returns it
// only when it is a recognized identifier.
func NormalizeLanguage(raw string) string {
	token := strings.ToLower(strings.TrimSpace(raw))
	token = strings.TrimRight(token, ";,:.")
	if token == "" {
		return ""
	}
	if alias, ok := aliases[token]; ok {
		token = alias
	}
	if _, ok := recognized[token]; ok {
		return token
	}
	return ""
}

var (
	cppClassPattern      = regexp.MustCompile(`^(?:language|lang)-c\+\+$`)
	explicitClassPattern = regexp.MustCompile(`^(?:language|lang)-([a-z0-9_#-]+)`)
	highlightPattern     = regexp.MustCompile(`^highlight-(?:source-)?([a-z0-9_+#-]+)$`)
	brushPattern         = regexp.MustCompile(`brush:\s*([A-Za-z0-9_+#-]+)`)
	legacyPattern        = regexp.MustCompile(`^(?:hljs|code)-([a-z0-9_+#-]+)$`)
)

// classRule extracts raw language tokens from one element.
type classRule func(n *html.Node) []string

func explicitLanguageTokens(n *html.Node) []string {
	var out []string
	for _, c := range domutil.Classes(n) {
		c = strings.ToLower(c)
		if cppClassPattern.MatchString(c) {
			out = append(out, "c++")
			continue
		}
		if m := explicitClassPattern.FindStringSubmatch(c); m != nil {
			out = append(out, m[1])
		}
	}
	return out
}

func highlightTokens(n *html.Node) []string {
	var out []string
	for _, c := range domutil.Classes(n) {
		if m := highlightPattern.FindStringSubmatch(strings.ToLower(c)); m != nil {
			out = append(out, m[1])
		}
	}
	return out
}

func legacyTokens(n *html.Node) []string {
	var out []string
	class := domutil.AttrOr(n, "class", "")
	if m := brushPattern.FindStringSubmatch(class); m != nil {
		out = append(out, m[1])
	}
	for _, c := range domutil.Classes(n) {
		if m := legacyPattern.FindStringSubmatch(strings.ToLower(c)); m != nil {
			out = append(out, m[1])
		}
	}
	return out
}

// classRules run in precedence order; any hit wins over later rules.
var classRules = []classRule{explicitLanguageTokens, highlightTokens, legacyTokens}

// languageFromClasses returns the first recognized language found on nodes,
// walking rules outermost so rule precedence beats node order.
func languageFromClasses(nodes []*html.Node, hint string) string {
	for i, rule := range classRules {
		for _, n := range nodes {
			for _, token := range rule(n) {
				if lang := NormalizeLanguage(token); lang != "" {
					return lang
				}
			}
		}
		if i == 0 && hint != "" {
			if lang := NormalizeLanguage(hint); lang != "" {
				return lang
			}
		}
	}
	return ""
}

// InferLanguage resolves the language of a pre/code pair from class markers
// and, failing that, a nearby label. The empty string means unknown.
func InferLanguage(pre *html.Node, code *html.Node) string {
	nodes := []*html.Node{}
	if code != nil {
		nodes = append(nodes, code)
	}
	nodes = append(nodes, pre)
	anc := pre.Parent
	for i := 0; i < maxAncestorDepth && anc != nil && domutil.IsElement(anc); i++ {
		nodes = append(nodes, anc)
		anc = anc.Parent
	}
	if lang := languageFromClasses(nodes, domutil.AttrOr(pre, HintAttr, "")); lang != "" {
		return lang
	}
	return languageFromLabel(pre)
}

// stopOnUnrelatedText ends the scan of one level when a sibling carries
// text that is not a language label.
func stopOnUnrelatedText(text string, lang string) bool {
	return lang == "" && text != ""
}

// stopWhenParentShared ends the ascent when cur has meaningful siblings,
// since a label above the parent would then belong to something else.
func stopWhenParentShared(cur *html.Node) bool {
	return cur.Parent == nil || domutil.OnlyMeaningfulChild(cur.Parent) != cur
}

// languageFromLabel looks for a short caption such as "Python" in the
// preceding siblings of pre, ascending at most maxAncestorDepth levels.
func languageFromLabel(pre *html.Node) string {
	cur := pre
	for depth := 0; depth < maxAncestorDepth && cur != nil; depth++ {
		for s := cur.PrevSibling; s != nil; s = s.PrevSibling {
			if !domutil.IsMeaningful(s) {
				continue
			}
			if len(domutil.Elements(s, "pre", "code")) > 0 || domutil.IsElement(s, "pre", "code") {
				return ""
			}
			text := strings.TrimSpace(domutil.TextContent(s))
			lang := labelLanguage(text)
			if lang != "" {
				return lang
			}
			if stopOnUnrelatedText(text, lang) {
				return ""
			}
		}
		if stopWhenParentShared(cur) {
			return ""
		}
		cur = cur.Parent
	}
	return ""
}

func labelLanguage(text string) string {
	if text == "" || utf8.RuneCountInString(text) > maxLabelRunes || strings.ContainsAny(text, " \t\n") {
		return ""
	}
	return NormalizeLanguage(text)
}

// isLanguageMarker reports whether a class token carries a language signal
// that must be cleared before the final class is applied.
func isLanguageMarker(class string) bool {
	c := strings.ToLower(class)
	switch {
	case strings.HasPrefix(c, "language-"), strings.HasPrefix(c, "lang-"):
		return true
	case strings.HasPrefix(c, "highlight-"), strings.HasPrefix(c, "hljs"):
		return true
	case strings.HasPrefix(c, "brush:"):
		return true
	}
	return false
}
