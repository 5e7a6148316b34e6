package extractor

// Fragment is the part of a clipboard payload worth converting.
type Fragment struct {
	// HTML is the markup handed to the pipeline.
	HTML string
	// SourceURL comes from the CF_HTML header when the browser supplied one.
	SourceURL string
	// IsGoogleDocs is set when the markup carries a docs-internal-guid wrapper.
	IsGoogleDocs bool
	// FromMarkers reports that the fragment was cut at StartFragment/EndFragment.
	FromMarkers bool
	// Isolated reports that a main content container replaced the full page.
	Isolated bool
}

type ExtractParam struct {
	isolateMain     bool
	customSelectors []string
}

// NewExtractParam controls main-content isolation for full documents.
// Clipboard fragments are never narrowed further.
func NewExtractParam(isolateMain bool, customSelectors []string) ExtractParam {
	return ExtractParam{
		isolateMain:     isolateMain,
		customSelectors: customSelectors,
	}
}

func (p ExtractParam) IsolateMain() bool {
	return p.isolateMain
}

func (p ExtractParam) CustomSelectors() []string {
	return p.customSelectors
}
