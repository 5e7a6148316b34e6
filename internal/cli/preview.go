package cmd

import (
	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/ast"
	mdhtml "github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	"github.com/rohmanhakim/clipmd/internal/config"
	"github.com/rohmanhakim/clipmd/internal/metadata"
	"github.com/rohmanhakim/clipmd/internal/storage"
	"github.com/rohmanhakim/clipmd/pkg/urlutil"
)

// resourceLinker maps a resource id to a path a browser can open.
type resourceLinker func(id string) (string, bool)

// newResourceLinker resolves ids against the file store. Bolt resources have
// no file to point at, so their refs stay as they are.
func newResourceLinker(cfg config.Config) resourceLinker {
	if !cfg.ConvertImagesToResources() || cfg.StoreBackend() != config.StoreFile {
		return nil
	}
	store := storage.NewFileStore(&metadata.NoopSink{}, cfg.ResourceDir())
	return store.Lookup
}

// renderPreview renders markdown as a standalone HTML page.
func renderPreview(md []byte, title string, linker resourceLinker) []byte {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs)
	doc := markdown.Parse(md, p)

	if linker != nil {
		ast.WalkFunc(doc, func(node ast.Node, entering bool) ast.WalkStatus {
			if img, ok := node.(*ast.Image); ok && entering {
				if ref := string(img.Destination); urlutil.IsResourceRef(ref) {
					if path, found := linker(ref[2:]); found {
						img.Destination = []byte(path)
					}
				}
			}
			return ast.GoToNext
		})
	}

	renderer := mdhtml.NewRenderer(mdhtml.RendererOptions{
		Flags: mdhtml.CommonFlags | mdhtml.CompletePage | mdhtml.HrefTargetBlank,
		Title: title,
	})
	return markdown.Render(doc, renderer)
}
