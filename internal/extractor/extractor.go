package extractor

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"github.com/rohmanhakim/clipmd/internal/cleanup"
	"github.com/rohmanhakim/clipmd/internal/domutil"
	"github.com/rohmanhakim/clipmd/internal/metadata"
	"github.com/rohmanhakim/clipmd/pkg/failure"
	"golang.org/x/net/html"
)

/*
Responsibilities
- Strip the Windows CF_HTML clipboard preamble
- Cut the payload down to the copied fragment
- Optionally isolate the main content of a full saved page
- Detect Google Docs markup for the pass context

Extraction Strategy
- Fragment offsets from the header, then fragment comments
- For full documents with isolation enabled:
	- Semantic containers (main, article, [role=main])
	- Custom, then known generator selectors
	- Otherwise the whole document

The extractor never normalizes markup; it only decides which bytes go on.
*/

type ClipboardExtractor struct {
	metadataSink metadata.MetadataSink
}

func NewClipboardExtractor(metadataSink metadata.MetadataSink) ClipboardExtractor {
	return ClipboardExtractor{
		metadataSink: metadataSink,
	}
}

func (c *ClipboardExtractor) Extract(payload []byte, param ExtractParam) (Fragment, failure.ClassifiedError) {
	fragment, err := c.extract(string(payload), param)
	if err != nil {
		var extractionError *ExtractionError
		cause := metadata.CauseUnknown
		if errors.As(err, &extractionError) {
			cause = mapExtractionErrorToMetadataCause(extractionError)
		}
		c.metadataSink.RecordError(
			time.Now(),
			"extractor",
			"ClipboardExtractor.Extract",
			cause,
			err.Error(),
			[]metadata.Attribute{
				metadata.NewAttr(metadata.AttrURL, fragment.SourceURL),
			},
		)
		return Fragment{}, err
	}
	return fragment, nil
}

func (c *ClipboardExtractor) extract(payload string, param ExtractParam) (Fragment, failure.ClassifiedError) {
	payload = strings.TrimPrefix(payload, "\ufeff")
	markup, sourceURL, fromOffsets := stripCFHTML(payload)
	fragment := Fragment{SourceURL: sourceURL, FromMarkers: fromOffsets}

	if !fromOffsets {
		var cut bool
		markup, cut = cutFragment(markup)
		fragment.FromMarkers = cut
	}
	if strings.TrimSpace(markup) == "" {
		return fragment, &ExtractionError{
			Message:   "no markup after removing the clipboard header",
			Retryable: false,
			Cause:     ErrCauseEmpty,
		}
	}

	doc, err := html.Parse(strings.NewReader(markup))
	if err != nil {
		return fragment, &ExtractionError{
			Message:   fmt.Sprintf("failed to parse HTML: %v", err),
			Retryable: false,
			Cause:     ErrCauseNotHTML,
		}
	}

	fragment.HTML = markup
	if param.isolateMain && !fragment.FromMarkers {
		container, selErr := findContentContainer(doc, param.customSelectors)
		if selErr != nil {
			return fragment, selErr
		}
		if container != nil {
			fragment.HTML = domutil.Render(container)
			fragment.Isolated = true
		}
	}
	fragment.IsGoogleDocs = cleanup.IsGoogleDocs(doc)
	return fragment, nil
}

// findContentContainer returns the first meaningful container, or nil when
// the whole document should be kept.
func findContentContainer(doc *html.Node, customSelectors []string) (*html.Node, failure.ClassifiedError) {
	gqDoc := goquery.NewDocumentFromNode(doc)

	for _, sel := range []string{"main", "article", "[role='main']"} {
		if node := firstMeaningful(gqDoc.Find(sel)); node != nil {
			return node, nil
		}
	}

	for _, sel := range withCustomSelectors(customSelectors, knownSelectors()) {
		compiled, err := cascadia.Compile(sel)
		if err != nil {
			return nil, &ExtractionError{
				Message:   fmt.Sprintf("selector %q: %v", sel, err),
				Retryable: false,
				Cause:     ErrCauseBadSelectors,
			}
		}
		if node := firstMeaningful(gqDoc.FindMatcher(compiled)); node != nil {
			return node, nil
		}
	}
	return nil, nil
}

func firstMeaningful(sel *goquery.Selection) *html.Node {
	for _, node := range sel.Nodes {
		if isMeaningful(node) {
			return node
		}
	}
	return nil
}

// isMeaningful rejects containers that are too short or mostly links.
func isMeaningful(node *html.Node) bool {
	var stats struct {
		textLength     int
		nonWhitespace  int
		headings       int
		blocks         int
		links          int
		linkTextLength int
	}

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			stats.textLength += len(n.Data)
			for _, r := range n.Data {
				if !unicode.IsSpace(r) {
					stats.nonWhitespace++
				}
			}
		case html.ElementNode:
			switch {
			case domutil.HeadingLevel(n) > 0:
				stats.headings++
			case domutil.IsElement(n, "p", "pre", "ul", "ol", "table", "blockquote"):
				stats.blocks++
			case domutil.IsElement(n, "a"):
				stats.links++
				stats.linkTextLength += len(strings.TrimSpace(domutil.TextContent(n)))
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(node)

	const minNonWhitespace = 50
	const maxLinkDensity = 0.8

	if stats.nonWhitespace < minNonWhitespace {
		return false
	}
	if stats.textLength > 0 && stats.links > 2 {
		if float64(stats.linkTextLength)/float64(stats.textLength) > maxLinkDensity {
			return false
		}
	}
	return stats.blocks > 0 || stats.headings > 0
}
