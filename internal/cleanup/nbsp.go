package cleanup

import (
	"strings"
	"unicode/utf8"

	"github.com/rohmanhakim/clipmd/internal/domutil"
	"github.com/rohmanhakim/clipmd/internal/textnorm"
	"golang.org/x/net/html"
)

// NBSPSentinel stands in for one intentional non-breaking space until the
// renderer restores it as &nbsp;.
const NBSPSentinel = '\uE000'

// MarkNBSP replaces every text node made only of NBSPs with sentinels, one
// per NBSP.
func MarkNBSP(root *html.Node) int {
	marked := 0
	domutil.WalkTextNodes(root, func(t *html.Node) {
		if !textnorm.IsNBSPOnly(t.Data) {
			return
		}
		t.Data = strings.Repeat(string(NBSPSentinel), utf8.RuneCountInString(t.Data))
		marked++
	})
	return marked
}

// RestoreNBSP turns sentinels in rendered output back into &nbsp; entities.
func RestoreNBSP(s string) string {
	return strings.ReplaceAll(s, string(NBSPSentinel), "&nbsp;")
}
