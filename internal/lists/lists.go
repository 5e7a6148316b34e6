/*
Responsibilities
- Re-parent sublists emitted as siblings of list items
- Unwrap list elements that contain no list items at all
- Lift task-list checkboxes out of their paragraph

Repair iterates the rules to a fixpoint because editors nest these
patterns several levels deep.
*/
package lists

import (
	"strings"

	"github.com/rohmanhakim/clipmd/internal/domutil"
	"golang.org/x/net/html"
)

// MaxRepairRounds bounds Repair. Each productive round removes at least one
// misplaced list, so real documents converge long before this.
const MaxRepairRounds = 32

var listTags = []string{"ul", "ol"}

// Repair applies every list rule until the tree stops changing and returns
// the number of rounds that made a change.
func Repair(root *html.Node) int {
	rounds := 0
	for rounds < MaxRepairRounds {
		changed := UnwrapPureWrappers(root)
		changed = ReparentOrphans(root) || changed
		changed = UnwrapCheckboxParagraphs(root) || changed
		if !changed {
			break
		}
		rounds++
	}
	return rounds
}

// ReparentOrphans moves a list that sits directly beside <li> siblings into
// the nearest preceding <li>. Without one, a new <li> is synthesized.
func ReparentOrphans(root *html.Node) bool {
	changed := false
	for _, list := range domutil.Elements(root, listTags...) {
		parent := list.Parent
		if !domutil.IsElement(parent, listTags...) || !hasListItem(parent) {
			continue
		}
		if li := precedingListItem(list); li != nil {
			domutil.Remove(list)
			li.AppendChild(list)
		} else {
			li := domutil.NewElement("li")
			domutil.InsertBefore(list, li)
			domutil.Remove(list)
			li.AppendChild(list)
		}
		changed = true
	}
	return changed
}

func precedingListItem(n *html.Node) *html.Node {
	for s := n.PrevSibling; s != nil; s = s.PrevSibling {
		if domutil.IsElement(s, "li") {
			return s
		}
	}
	return nil
}

func hasListItem(list *html.Node) bool {
	for c := list.FirstChild; c != nil; c = c.NextSibling {
		if domutil.IsElement(c, "li") {
			return true
		}
	}
	return false
}

// UnwrapPureWrappers unwraps lists whose meaningful children include no
// <li>. Lists mixing <li> with other children are left for ReparentOrphans.
func UnwrapPureWrappers(root *html.Node) bool {
	changed := false
	for _, list := range domutil.Elements(root, listTags...) {
		if list.Parent == nil || hasListItem(list) {
			continue
		}
		if len(domutil.MeaningfulChildren(list)) == 0 {
			continue
		}
		domutil.Unwrap(list)
		changed = true
	}
	return changed
}

// UnwrapCheckboxParagraphs turns <li><p><input type=checkbox> x</p></li>
// into <li><input type=checkbox> x</li>.
func UnwrapCheckboxParagraphs(root *html.Node) bool {
	changed := false
	for _, li := range domutil.Elements(root, "li") {
		p := domutil.OnlyMeaningfulChild(li)
		if !domutil.IsElement(p, "p") || !hasDirectCheckbox(p) {
			continue
		}
		domutil.Unwrap(p)
		changed = true
	}
	return changed
}

func hasDirectCheckbox(p *html.Node) bool {
	for c := p.FirstChild; c != nil; c = c.NextSibling {
		if domutil.IsElement(c, "input") && strings.EqualFold(domutil.AttrOr(c, "type", ""), "checkbox") {
			return true
		}
	}
	return false
}
