/*
Responsibilities
- Strip interface chrome copied along with content
- Remove word-processor wrappers and map inline styles to semantics
- Protect literal tag text from the renderer
- Mark intentional non-breaking space runs
*/
package cleanup

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rohmanhakim/clipmd/internal/domutil"
	"golang.org/x/net/html"
)

// chromeSelector matches elements that never carry pasted content.
const chromeSelector = "button, [role=button], nav, clipboard-copy, .sr-only, .visually-hidden, .screen-reader-text, " +
	".copy-button, .btn-copy, .clipboard-button, .zeroclipboard-container"

// executableSelector matches non-rendered elements. They are kept inside
// code so a literal sample survives until neutralization.
const executableSelector = "script, style, noscript, template, link, meta"

// StripChrome removes buttons, navigation, screen-reader-only text,
// non-rendered elements and icon-only aria-hidden decoration. It returns the
// number of elements removed.
func StripChrome(root *html.Node) int {
	doc := goquery.NewDocumentFromNode(root)
	removed := 0

	chrome := doc.Find(chromeSelector)
	removed += chrome.Length()
	chrome.Remove()

	doc.Find(executableSelector).Each(func(_ int, s *goquery.Selection) {
		if domutil.IsInside(s.Get(0), "pre", "code") {
			return
		}
		s.Remove()
		removed++
	})

	doc.Find(`[aria-hidden=true]`).Each(func(_ int, s *goquery.Selection) {
		n := s.Get(0)
		if n.Parent == nil || domutil.IsInside(n, "pre", "code") || domutil.IsElement(n, "a") {
			return
		}
		if strings.TrimSpace(s.Text()) != "" || s.Find("img").Length() > 0 {
			return
		}
		s.Remove()
		removed++
	})
	return removed
}
