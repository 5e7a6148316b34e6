package mdconvert

// Representation

type ConversionResult struct {
	markdownContent []byte
	linkRefs        []LinkRef
}

func NewConversionResult(
	markdownContent []byte,
	linkRefs []LinkRef,
) ConversionResult {
	return ConversionResult{
		markdownContent: markdownContent,
		linkRefs:        linkRefs,
	}
}

func (c *ConversionResult) GetMarkdownContent() []byte {
	return c.markdownContent
}

func (c *ConversionResult) GetLinkRefs() []LinkRef {
	return c.linkRefs
}

// ResourceRefs returns the ids of every resource image in the output.
func (c *ConversionResult) ResourceRefs() []string {
	var ids []string
	for _, ref := range c.linkRefs {
		if ref.kind == KindResource {
			ids = append(ids, ref.raw[2:])
		}
	}
	return ids
}

type LinkKind string

const (
	KindNavigation LinkKind = "navigation"
	KindImage      LinkKind = "image"
	KindAnchor     LinkKind = "anchor"
	KindResource   LinkKind = "resource"
)

type LinkRef struct {
	raw  string
	kind LinkKind
}

func NewLinkRef(
	raw string,
	kind LinkKind,
) LinkRef {
	return LinkRef{
		raw:  raw,
		kind: kind,
	}
}

func (l *LinkRef) GetRaw() string {
	return l.raw
}

func (l *LinkRef) GetKind() LinkKind {
	return l.kind
}

// ConvertParam carries per-conversion renderer settings.
type ConvertParam struct {
	domain string
}

// NewConvertParam builds a ConvertParam. A non-empty domain resolves
// relative links and images against it.
func NewConvertParam(domain string) ConvertParam {
	return ConvertParam{domain: domain}
}

func (p ConvertParam) Domain() string {
	return p.domain
}
