/*
Responsibilities
- Element construction and attribute access
- Unwrap and child moves that keep the tree consistent
- Meaningful-content predicates shared by normalizers
- Batch querying with precompiled selectors
- Text-node walks that skip code regions

Every helper tolerates nil nodes and detached nodes.
*/
package domutil

import (
	"bytes"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/JohannesKaufmann/dom"
	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// codeRegionTags are never entered by WalkTextNodes.
var codeRegionTags = []string{"pre", "code", "script", "style", "textarea", "kbd", "samp"}

// NewElement creates a detached element with the given attributes (key, value pairs).
func NewElement(tag string, attrs ...string) *html.Node {
	n := &html.Node{
		Type:     html.ElementNode,
		Data:     tag,
		DataAtom: atom.Lookup([]byte(tag)),
	}
	for i := 0; i+1 < len(attrs); i += 2 {
		n.Attr = append(n.Attr, html.Attribute{Key: attrs[i], Val: attrs[i+1]})
	}
	return n
}

func NewText(data string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: data}
}

// IsElement reports whether n is an element with one of the given tag names.
// With no tags it reports whether n is any element.
func IsElement(n *html.Node, tags ...string) bool {
	if n == nil || n.Type != html.ElementNode {
		return false
	}
	if len(tags) == 0 {
		return true
	}
	return slices.Contains(tags, n.Data)
}

func IsText(n *html.Node) bool {
	return n != nil && n.Type == html.TextNode
}

// IsWhitespaceText reports whether n is a text node with only whitespace,
// NBSP excluded.
func IsWhitespaceText(n *html.Node) bool {
	return IsText(n) && strings.TrimSpace(n.Data) == ""
}

// IsMeaningful reports whether n counts as content: any element, or a text
// node with non-whitespace characters. Comments never count.
func IsMeaningful(n *html.Node) bool {
	if n == nil {
		return false
	}
	switch n.Type {
	case html.ElementNode:
		return true
	case html.TextNode:
		return strings.TrimSpace(n.Data) != ""
	default:
		return false
	}
}

// MeaningfulChildren returns n's children that satisfy IsMeaningful.
func MeaningfulChildren(n *html.Node) []*html.Node {
	if n == nil {
		return nil
	}
	var out []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if IsMeaningful(c) {
			out = append(out, c)
		}
	}
	return out
}

// OnlyMeaningfulChild returns the single meaningful child of n, or nil
// when there are zero or several.
func OnlyMeaningfulChild(n *html.Node) *html.Node {
	children := MeaningfulChildren(n)
	if len(children) != 1 {
		return nil
	}
	return children[0]
}

// IsSubtreeOnlyChild reports whether node is reachable from ancestor through
// a chain in which every level has exactly one meaningful child.
func IsSubtreeOnlyChild(ancestor *html.Node, node *html.Node) bool {
	if ancestor == nil || node == nil || ancestor == node {
		return false
	}
	for cur := node; cur != ancestor; cur = cur.Parent {
		if cur.Parent == nil {
			return false
		}
		if OnlyMeaningfulChild(cur.Parent) != cur {
			return false
		}
	}
	return true
}

// Unwrap replaces n with its children in place.
func Unwrap(n *html.Node) {
	dom.UnwrapNode(n)
}

// Remove detaches n from its parent.
func Remove(n *html.Node) {
	dom.RemoveNode(n)
}

// Replace puts replacement where n was. replacement is detached first.
func Replace(n *html.Node, replacement *html.Node) {
	if n == nil || n.Parent == nil || replacement == nil {
		return
	}
	Remove(replacement)
	dom.ReplaceNode(n, replacement)
}

// MoveChildren appends every child of from to to, in order.
func MoveChildren(from *html.Node, to *html.Node) {
	for c := from.FirstChild; c != nil; c = from.FirstChild {
		from.RemoveChild(c)
		to.AppendChild(c)
	}
}

// RemoveChildren detaches every child of n.
func RemoveChildren(n *html.Node) {
	for c := n.FirstChild; c != nil; c = n.FirstChild {
		n.RemoveChild(c)
	}
}

// InsertBefore inserts node before ref, detaching node first.
func InsertBefore(ref *html.Node, node *html.Node) {
	if ref == nil || ref.Parent == nil {
		return
	}
	Remove(node)
	ref.Parent.InsertBefore(node, ref)
}

func GetAttr(n *html.Node, key string) (string, bool) {
	if n == nil {
		return "", false
	}
	return dom.GetAttribute(n, key)
}

func AttrOr(n *html.Node, key string, fallback string) string {
	if n == nil {
		return fallback
	}
	return dom.GetAttributeOr(n, key, fallback)
}

// SetAttr sets key to val, replacing an existing value.
func SetAttr(n *html.Node, key string, val string) {
	for i := range n.Attr {
		if n.Attr[i].Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

func RemoveAttr(n *html.Node, key string) {
	n.Attr = slices.DeleteFunc(n.Attr, func(a html.Attribute) bool {
		return a.Key == key
	})
}

func Classes(n *html.Node) []string {
	if n == nil || n.Type != html.ElementNode {
		return nil
	}
	return dom.GetClasses(n)
}

func HasClass(n *html.Node, class string) bool {
	return n != nil && n.Type == html.ElementNode && dom.HasClass(n, class)
}

// SetClasses writes classes back, removing the attribute when empty.
func SetClasses(n *html.Node, classes []string) {
	if len(classes) == 0 {
		RemoveAttr(n, "class")
		return
	}
	SetAttr(n, "class", strings.Join(classes, " "))
}

func AddClass(n *html.Node, class string) {
	classes := Classes(n)
	if slices.Contains(classes, class) {
		return
	}
	SetClasses(n, append(classes, class))
}

// TextContent concatenates every descendant text node.
func TextContent(n *html.Node) string {
	if n == nil {
		return ""
	}
	return dom.CollectText(n)
}

// HeadingLevel returns 1-6 for h1-h6 and 0 otherwise.
func HeadingLevel(n *html.Node) int {
	if n == nil || n.Type != html.ElementNode || !dom.NameIsHeading(n.Data) {
		return 0
	}
	level, _ := strconv.Atoi(n.Data[1:])
	return level
}

// IsBlock reports whether n is a block-level element.
func IsBlock(n *html.Node) bool {
	if !IsElement(n) {
		return false
	}
	if dom.NameIsBlockNode(n.Data) {
		return true
	}
	switch n.Data {
	case "tbody", "thead", "tfoot", "tr", "td", "th", "caption", "center", "menu", "summary":
		return true
	}
	return false
}

// IsImageFamily reports whether n is an image-bearing element.
func IsImageFamily(n *html.Node) bool {
	return IsElement(n, "img", "picture", "image")
}

// IsInside reports whether n has an ancestor with one of the given tags.
func IsInside(n *html.Node, tags ...string) bool {
	return ClosestAncestor(n, tags...) != nil
}

// ClosestAncestor returns the nearest proper ancestor of n with one of the tags.
func ClosestAncestor(n *html.Node, tags ...string) *html.Node {
	if n == nil {
		return nil
	}
	for p := n.Parent; p != nil; p = p.Parent {
		if IsElement(p, tags...) {
			return p
		}
	}
	return nil
}

// Elements returns every element descendant of root in document order,
// optionally filtered by tag. The slice is a snapshot; mutating the tree
// while ranging over it is safe.
func Elements(root *html.Node, tags ...string) []*html.Node {
	if root == nil {
		return nil
	}
	return dom.FindAllNodes(root, func(n *html.Node) bool {
		return IsElement(n, tags...)
	})
}

// MustSelector compiles a CSS selector group. It panics on invalid input
// and is meant for package-level selector tables.
func MustSelector(sel string) cascadia.Selector {
	return cascadia.MustCompile(sel)
}

// QueryAll returns a snapshot of descendants of root matching sel.
func QueryAll(root *html.Node, sel cascadia.Selector) []*html.Node {
	if root == nil {
		return nil
	}
	return cascadia.QueryAll(root, sel)
}

// Matches reports whether n matches sel.
func Matches(n *html.Node, sel cascadia.Selector) bool {
	return IsElement(n) && sel.Match(n)
}

// WalkTextNodes calls fn for every text node under root that is not inside
// a code region. The node list is collected first, so fn may mutate.
func WalkTextNodes(root *html.Node, fn func(*html.Node)) {
	var texts []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			switch {
			case c.Type == html.TextNode:
				texts = append(texts, c)
			case IsElement(c, codeRegionTags...):
			default:
				walk(c)
			}
		}
	}
	if root == nil || IsElement(root, codeRegionTags...) {
		return
	}
	walk(root)
	for _, t := range texts {
		fn(t)
	}
}

// FindBody returns the body element of a parsed document.
func FindBody(doc *html.Node) *html.Node {
	if IsElement(doc, "body") {
		return doc
	}
	return dom.FindFirstNode(doc, func(n *html.Node) bool {
		return IsElement(n, "body")
	})
}

// ParseBody parses r as a full document and returns its body element.
func ParseBody(r io.Reader, parse func(io.Reader) (*html.Node, error)) (*html.Node, error) {
	doc, err := parse(r)
	if err != nil {
		return nil, err
	}
	return FindBody(doc), nil
}

// Render serializes n including n itself.
func Render(n *html.Node) string {
	if n == nil {
		return ""
	}
	var buf bytes.Buffer
	if err := html.Render(&buf, n); err != nil {
		return ""
	}
	return buf.String()
}

// InnerHTML serializes n's children.
func InnerHTML(n *html.Node) string {
	if n == nil {
		return ""
	}
	var buf bytes.Buffer
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&buf, c); err != nil {
			return ""
		}
	}
	return buf.String()
}
