/*
Responsibilities
- Promote inline pixel sizing to width/height attributes
- Prune anchors that wrap an image down to the image
- Carry resource references across the sanitizer
- Unwrap remote links around converted images
- Reduce images to a fixed, ordered attribute set with usable alt text
*/
package images

import (
	"math"
	"path"
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/rohmanhakim/clipmd/internal/domutil"
	"github.com/rohmanhakim/clipmd/pkg/urlutil"
	"golang.org/x/net/html"
)

const (
	// ConvertedAttr marks an image whose src was replaced by a resource ref.
	ConvertedAttr = "data-resource-converted"
	// FilenameAttr remembers the original filename of a converted image.
	FilenameAttr = "data-resource-filename"
	// ProtectedRefAttr holds a resource ref while the tree is sanitized.
	ProtectedRefAttr = "data-resource-ref"
)

// MaxAltRunes caps synthesized and normalized alt text.
const MaxAltRunes = 100

// standardAttrs is the whitelisted attribute order of a final <img>.
var standardAttrs = []string{"src", "alt", "title", "width", "height"}

var pixelValue = regexp.MustCompile(`^(\d+(?:\.\d+)?)px$`)

// PromoteSizing copies width/height from an inline style when the image has
// neither attribute. The style attribute is always removed.
func PromoteSizing(root *html.Node) {
	goquery.NewDocumentFromNode(root).Find("img").Each(func(_ int, s *goquery.Selection) {
		style, ok := s.Attr("style")
		if !ok {
			return
		}
		s.RemoveAttr("style")
		_, hasWidth := s.Attr("width")
		_, hasHeight := s.Attr("height")
		if hasWidth || hasHeight {
			return
		}
		width, height := parsePixelSize(style)
		if width > 0 {
			s.SetAttr("width", strconv.Itoa(width))
		}
		if height > 0 {
			s.SetAttr("height", strconv.Itoa(height))
		}
	})
}

// parsePixelSize reads width and height declarations in px. Missing,
// non-pixel, zero or negative values come back as 0.
func parsePixelSize(style string) (int, int) {
	var width, height int
	for _, decl := range strings.Split(style, ";") {
		key, val, ok := strings.Cut(decl, ":")
		if !ok {
			continue
		}
		px := pixels(strings.ToLower(strings.TrimSpace(val)))
		switch strings.ToLower(strings.TrimSpace(key)) {
		case "width":
			width = px
		case "height":
			height = px
		}
	}
	return width, height
}

func pixels(val string) int {
	val = strings.TrimSpace(strings.TrimSuffix(val, "!important"))
	m := pixelValue.FindStringSubmatch(val)
	if m == nil {
		return 0
	}
	f, err := strconv.ParseFloat(m[1], 64)
	if err != nil || f <= 0 {
		return 0
	}
	return int(math.Round(f))
}

// PruneAnchors reduces an anchor that wraps image-family elements to just
// those elements, dropping captions, icons and whitespace around them.
func PruneAnchors(root *html.Node) {
	for _, a := range domutil.Elements(root, "a") {
		if a.Parent == nil {
			continue
		}
		imgs := outermostImages(a)
		if len(imgs) == 0 {
			continue
		}
		for _, img := range imgs {
			domutil.Remove(img)
		}
		domutil.RemoveChildren(a)
		for _, img := range imgs {
			a.AppendChild(img)
		}
	}
}

func outermostImages(n *html.Node) []*html.Node {
	var out []*html.Node
	for _, d := range domutil.Elements(n) {
		if d.Namespace == "" && domutil.IsElement(d, "img", "picture") && domutil.ClosestAncestor(d, "picture") == nil {
			out = append(out, d)
		}
	}
	return out
}

// ProtectResourceRefs moves resource-ref sources into ProtectedRefAttr so a
// URL policy does not drop them.
func ProtectResourceRefs(root *html.Node) {
	for _, img := range domutil.Elements(root, "img") {
		src := strings.TrimSpace(domutil.AttrOr(img, "src", ""))
		if !urlutil.IsResourceRef(src) {
			continue
		}
		domutil.SetAttr(img, ProtectedRefAttr, src)
		domutil.RemoveAttr(img, "src")
	}
}

// RestoreResourceRefs reverses ProtectResourceRefs. Values that are not
// well-formed refs are discarded.
func RestoreResourceRefs(root *html.Node) {
	for _, img := range domutil.Elements(root, "img") {
		ref, ok := domutil.GetAttr(img, ProtectedRefAttr)
		if !ok {
			continue
		}
		domutil.RemoveAttr(img, ProtectedRefAttr)
		if urlutil.IsResourceRef(ref) {
			domutil.SetAttr(img, "src", ref)
		}
	}
}

// UnwrapConvertedLinks removes a remote anchor whose only content is a
// converted image, possibly through single-child wrappers. It returns the
// number of anchors removed.
func UnwrapConvertedLinks(root *html.Node) int {
	n := 0
	for _, img := range domutil.Elements(root, "img") {
		if domutil.AttrOr(img, ConvertedAttr, "") != "1" {
			continue
		}
		if !urlutil.IsResourceRef(domutil.AttrOr(img, "src", "")) {
			continue
		}
		if a := enclosingRemoteAnchor(img); a != nil {
			domutil.Unwrap(a)
			n++
		}
	}
	return n
}

// enclosingRemoteAnchor walks up from img while every level has exactly one
// meaningful child and returns the first http(s) anchor reached.
func enclosingRemoteAnchor(img *html.Node) *html.Node {
	for cur := img; cur.Parent != nil; cur = cur.Parent {
		parent := cur.Parent
		if domutil.IsElement(parent, "body") || domutil.OnlyMeaningfulChild(parent) != cur {
			return nil
		}
		if domutil.IsElement(parent, "a") {
			if urlutil.IsHTTPURL(domutil.AttrOr(parent, "href", "")) {
				return parent
			}
			return nil
		}
	}
	return nil
}

// Standardize rewrites every <img> to src, alt, title, width, height in that
// order, dropping everything else. Missing alt text is derived from the
// original filename.
func Standardize(root *html.Node) {
	for _, img := range domutil.Elements(root, "img") {
		values := map[string]string{}
		for _, key := range standardAttrs {
			if v, ok := domutil.GetAttr(img, key); ok {
				values[key] = v
			}
		}
		if _, ok := values["alt"]; !ok {
			if alt := altFromFilename(originalFilename(img)); alt != "" {
				values["alt"] = alt
			}
		}
		img.Attr = img.Attr[:0]
		for _, key := range standardAttrs {
			if v, ok := values[key]; ok {
				img.Attr = append(img.Attr, html.Attribute{Key: key, Val: v})
			}
		}
	}
}

func originalFilename(img *html.Node) string {
	if name := domutil.AttrOr(img, FilenameAttr, ""); name != "" {
		return name
	}
	src := domutil.AttrOr(img, "src", "")
	if urlutil.IsResourceRef(src) {
		return ""
	}
	return urlutil.FilenameFromURL(src)
}

// altFromFilename strips the extension, turns separators into spaces and
// removes control characters.
func altFromFilename(name string) string {
	name = strings.TrimSuffix(name, path.Ext(name))
	name = strings.NewReplacer("_", " ", "-", " ", "+", " ").Replace(name)
	return CleanAlt(name)
}

// NormalizeAlt cleans the alt text of every image.
func NormalizeAlt(root *html.Node) {
	for _, img := range domutil.Elements(root, "img") {
		alt, ok := domutil.GetAttr(img, "alt")
		if !ok {
			continue
		}
		domutil.SetAttr(img, "alt", CleanAlt(alt))
	}
}

// CleanAlt drops control characters, collapses whitespace and caps the
// result at MaxAltRunes.
func CleanAlt(s string) string {
	s = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) && !unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
	s = strings.Join(strings.Fields(s), " ")
	if utf8.RuneCountInString(s) > MaxAltRunes {
		s = strings.TrimSpace(string([]rune(s)[:MaxAltRunes]))
	}
	return s
}
