package pipeline

import (
	"io"

	"github.com/rohmanhakim/clipmd/internal/assets"
	"golang.org/x/net/html"
)

// Parser turns markup into a document tree.
type Parser func(io.Reader) (*html.Node, error)

// Result is the outcome of one ProcessHTML call.
type Result struct {
	// Body is the normalized body element. It is nil when DOM processing
	// failed and SanitizedHTML is the sanitize-only fallback.
	Body          *html.Node
	SanitizedHTML string
	Resources     assets.ResourceConversionMeta
	Warnings      []string
	Degraded      bool
}
