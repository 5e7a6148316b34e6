package normalize

import (
	"time"

	"github.com/rohmanhakim/clipmd/pkg/hashutil"
)

type NormalizedMarkdownDoc struct {
	frontmatter *Frontmatter
	header      []byte
	content     []byte
}

// Frontmatter returns the frontmatter of the document, or nil when it was
// not requested.
func (n NormalizedMarkdownDoc) Frontmatter() *Frontmatter {
	return n.frontmatter
}

// Content returns the normalized markdown without frontmatter.
func (n NormalizedMarkdownDoc) Content() []byte {
	return n.content
}

// Bytes returns the document as written: the YAML frontmatter block, when
// present, followed by the content.
func (n NormalizedMarkdownDoc) Bytes() []byte {
	if len(n.header) == 0 {
		return n.content
	}
	out := make([]byte, 0, len(n.header)+len(n.content))
	out = append(out, n.header...)
	return append(out, n.content...)
}

func NewNormalizedMarkdownDoc(frontmatter *Frontmatter, header []byte, content []byte) NormalizedMarkdownDoc {
	return NormalizedMarkdownDoc{
		frontmatter: frontmatter,
		header:      header,
		content:     content,
	}
}

type Frontmatter struct {
	title         string
	sourceURL     string
	clippedAt     time.Time
	contentHash   string
	resources     []string
	clipmdVersion string
}

func NewFrontmatter(
	title string,
	sourceURL string,
	clippedAt time.Time,
	contentHash string,
	resources []string,
	clipmdVersion string,
) Frontmatter {
	return Frontmatter{
		title:         title,
		sourceURL:     sourceURL,
		clippedAt:     clippedAt,
		contentHash:   contentHash,
		resources:     resources,
		clipmdVersion: clipmdVersion,
	}
}

// Title returns the text of the first heading, if any.
func (f Frontmatter) Title() string {
	return f.title
}

func (f Frontmatter) SourceURL() string {
	return f.sourceURL
}

func (f Frontmatter) ClippedAt() time.Time {
	return f.clippedAt
}

// ContentHash returns "<algo>:<hex>" of the normalized content.
func (f Frontmatter) ContentHash() string {
	return f.contentHash
}

// Resources returns the resource ids referenced by the content.
func (f Frontmatter) Resources() []string {
	return f.resources
}

func (f Frontmatter) ClipmdVersion() string {
	return f.clipmdVersion
}

// frontmatterDTO is the YAML shape of Frontmatter.
type frontmatterDTO struct {
	Title         string    `yaml:"title,omitempty"`
	SourceURL     string    `yaml:"source_url,omitempty"`
	ClippedAt     time.Time `yaml:"clipped_at"`
	ContentHash   string    `yaml:"content_hash"`
	Resources     []string  `yaml:"resources,omitempty"`
	ClipmdVersion string    `yaml:"clipmd_version"`
}

type NormalizeParam struct {
	forceTightLists bool
	withFrontmatter bool
	sourceURL       string
	clippedAt       time.Time
	appVersion      string
	hashAlgo        hashutil.HashAlgo
}

func NewNormalizeParam(
	forceTightLists bool,
	withFrontmatter bool,
	sourceURL string,
	clippedAt time.Time,
	appVersion string,
	hashAlgo hashutil.HashAlgo,
) NormalizeParam {
	return NormalizeParam{
		forceTightLists: forceTightLists,
		withFrontmatter: withFrontmatter,
		sourceURL:       sourceURL,
		clippedAt:       clippedAt,
		appVersion:      appVersion,
		hashAlgo:        hashAlgo,
	}
}
