package extractor

// contentSelectors are containers that documentation and blog generators use
// for the article body, grouped by generator and checked in this order after
// the semantic containers.
//
//nolint:gochecknoglobals // static lookup table
var contentSelectors = []struct {
	generator string
	selectors []string
}{
	{"generic", []string{".markdown-body", ".content", ".doc-content", "#docs-content", ".post-content", ".entry-content"}},
	{"docusaurus", []string{".theme-doc-markdown", ".docMainContainer"}},
	{"sphinx", []string{".rst-content", ".document"}},
	{"mkdocs", []string{".md-content", ".md-main__inner"}},
	{"gitbook", []string{".markdown-section", ".book-body"}},
	{"vuepress", []string{".theme-default-content", ".content__default"}},
}

// knownSelectors flattens contentSelectors, keeping the first occurrence of
// each selector.
func knownSelectors() []string {
	var out []string
	seen := make(map[string]bool)
	for _, group := range contentSelectors {
		for _, sel := range group.selectors {
			if !seen[sel] {
				seen[sel] = true
				out = append(out, sel)
			}
		}
	}
	return out
}

// withCustomSelectors puts user selectors first; they are the more specific
// signal. Duplicates are dropped.
func withCustomSelectors(custom []string, defaults []string) []string {
	seen := make(map[string]bool)
	var merged []string
	for _, list := range [][]string{custom, defaults} {
		for _, sel := range list {
			if sel == "" || seen[sel] {
				continue
			}
			seen[sel] = true
			merged = append(merged, sel)
		}
	}
	return merged
}
