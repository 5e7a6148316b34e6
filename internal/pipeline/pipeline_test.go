package pipeline_test

import (
	"context"
	"encoding/base64"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/rohmanhakim/clipmd/internal/assets"
	"github.com/rohmanhakim/clipmd/internal/domutil"
	"github.com/rohmanhakim/clipmd/internal/metadata"
	"github.com/rohmanhakim/clipmd/internal/pass"
	"github.com/rohmanhakim/clipmd/internal/pipeline"
	"github.com/rohmanhakim/clipmd/internal/storage"
	"github.com/rohmanhakim/clipmd/pkg/hashutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

func TestProcessingPasses_SortedAndValid(t *testing.T) {
	set, err := pipeline.ProcessingPasses()
	require.Nil(t, err)

	for _, phase := range []pass.Phase{pass.PhasePreSanitize, pass.PhasePostSanitizeBeforeImages, pass.PhasePostSanitizeAfterImages} {
		passes := set.ForPhase(phase)
		require.NotEmpty(t, passes, phase.String())
		assert.Nil(t, pass.ValidatePriorities(passes))
		assert.True(t, slices.IsSortedFunc(passes, func(a, b pass.ProcessingPass) int {
			return a.Priority - b.Priority
		}), phase.String())
		for _, p := range passes {
			assert.Equal(t, phase, p.Phase, p.Name)
		}
	}

	pre := set.ForPhase(pass.PhasePreSanitize)
	assert.Equal(t, "neutralize-code-blocks", pre[len(pre)-1].Name)

	var postNames []string
	for _, p := range set.ForPhase(pass.PhasePostSanitizeBeforeImages) {
		postNames = append(postNames, p.Name)
	}
	assert.Contains(t, postNames, "clean-headings")
}

func TestProcessHTML_NoParser(t *testing.T) {
	sink := &metadataSinkMock{}
	p := newPipeline(t, sink, nil, failingSanitizer{}, nil)

	_, err := p.ProcessHTML(context.Background(), "<p>x</p>", pass.DefaultOptions(), pass.Context{})
	require.NotNil(t, err)

	var pipelineErr *pipeline.PipelineError
	require.ErrorAs(t, err, &pipelineErr)
	assert.Equal(t, pipeline.ErrCauseDOMUnavailable, pipelineErr.Cause)
	assert.Equal(t, []metadata.ErrorCause{metadata.CauseEnvironment}, sink.causes)
	assert.Empty(t, sink.stats)
}

func TestProcessHTML_SanitizerFailureIsFatal(t *testing.T) {
	sink := &metadataSinkMock{}
	p := newPipeline(t, sink, html.Parse, failingSanitizer{}, nil)

	result, err := p.ProcessHTML(context.Background(), "<p>x</p>", pass.DefaultOptions(), pass.Context{})
	require.NotNil(t, err)

	var pipelineErr *pipeline.PipelineError
	require.ErrorAs(t, err, &pipelineErr)
	assert.Equal(t, pipeline.ErrCauseSanitizeFailed, pipelineErr.Cause)
	assert.Nil(t, result.Body)
	assert.Contains(t, sink.causes, metadata.CauseInvariantViolation)
}

func TestProcessHTML_ParseFailureFallsBackToSanitizeOnly(t *testing.T) {
	sink := &metadataSinkMock{}
	p := newPipeline(t, sink, failingParser, newSanitizer(sink), nil)

	result, err := p.ProcessHTML(context.Background(), `<p>hi<script>x()</script></p>`, pass.DefaultOptions(), pass.Context{})
	require.Nil(t, err)

	assert.Nil(t, result.Body)
	assert.True(t, result.Degraded)
	assert.Equal(t, "<p>hi</p>", result.SanitizedHTML)
	require.Len(t, result.Warnings, 1)
	assert.True(t, strings.HasPrefix(result.Warnings[0], "fallback: "))
	assert.Contains(t, sink.causes, metadata.CauseContentInvalid)
	require.Len(t, sink.stats, 1)
	assert.True(t, sink.stats[0].Degraded)
}

func TestProcessHTML_HeadingPermalink(t *testing.T) {
	p := newDefaultPipeline(t, &metadataSinkMock{})

	result, err := p.ProcessHTML(context.Background(), `<h2>Title<a class="anchor" href="#title"></a></h2>`, pass.DefaultOptions(), pass.Context{})
	require.Nil(t, err)

	require.NotNil(t, result.Body)
	assert.Equal(t, "<h2>Title</h2>", domutil.InnerHTML(result.Body))
	assert.False(t, result.Degraded)
	assert.Empty(t, result.Warnings)
}

func TestProcessHTML_GitHubHighlight(t *testing.T) {
	p := newDefaultPipeline(t, &metadataSinkMock{})

	result, err := p.ProcessHTML(context.Background(), `<div class="highlight highlight-source-python"><pre>print("x")</pre></div>`, pass.DefaultOptions(), pass.Context{})
	require.Nil(t, err)

	out := domutil.InnerHTML(result.Body)
	assert.Equal(t, `<pre><code class="language-python">print(&#34;x&#34;)</code></pre>`, out)
}

func TestProcessHTML_CodeSurvivesSanitizer(t *testing.T) {
	p := newDefaultPipeline(t, &metadataSinkMock{})

	input := `<pre><code class="language-html"><span class="tag">&lt;script&gt;</span>alert(1)<span class="tag">&lt;/script&gt;</span></code></pre>`
	result, err := p.ProcessHTML(context.Background(), input, pass.DefaultOptions(), pass.Context{})
	require.Nil(t, err)

	code := domutil.Elements(result.Body, "code")
	require.Len(t, code, 1)
	assert.Equal(t, "<script>alert(1)</script>", domutil.TextContent(code[0]))
	assert.Empty(t, domutil.Elements(result.Body, "script"))
}

func TestProcessHTML_DropsScriptsAndChrome(t *testing.T) {
	p := newDefaultPipeline(t, &metadataSinkMock{})

	input := `<p onclick="evil()">Hello<script>alert(1)</script><button>Copy</button></p><a href="javascript:alert(1)">bad</a>`
	result, err := p.ProcessHTML(context.Background(), input, pass.DefaultOptions(), pass.Context{})
	require.Nil(t, err)

	out := domutil.InnerHTML(result.Body)
	assert.NotContains(t, out, "script")
	assert.NotContains(t, out, "onclick")
	assert.NotContains(t, out, "javascript:")
	assert.NotContains(t, out, "Copy")
	assert.Contains(t, out, "Hello")
	assert.NotEmpty(t, result.SanitizedHTML)
}

func TestProcessHTML_DetectsGoogleDocs(t *testing.T) {
	p := newDefaultPipeline(t, &metadataSinkMock{})

	input := `<b style="font-weight:normal;" id="docs-internal-guid-1a2b"><p>Doc</p></b>`
	result, err := p.ProcessHTML(context.Background(), input, pass.DefaultOptions(), pass.Context{})
	require.Nil(t, err)

	out := domutil.InnerHTML(result.Body)
	assert.NotContains(t, out, "<b")
	assert.Contains(t, out, "<p>Doc</p>")
}

func TestProcessHTML_ImagesExcluded(t *testing.T) {
	p := newDefaultPipeline(t, &metadataSinkMock{})
	opts := pass.DefaultOptions()
	opts.IncludeImages = false

	input := `<p><a href="https://example.com"><img src="https://example.com/a.png"></a> caption</p>`
	result, err := p.ProcessHTML(context.Background(), input, opts, pass.Context{})
	require.Nil(t, err)

	out := domutil.InnerHTML(result.Body)
	assert.NotContains(t, out, "<img")
	assert.NotContains(t, out, "<a")
	assert.Contains(t, out, "caption")
}

var pngBytes = []byte("\x89PNG\r\n\x1a\nfake image body")

func TestProcessHTML_ConvertsImagesAndUnwrapsLinks(t *testing.T) {
	sink := &metadataSinkMock{}
	dir := t.TempDir()
	store := storage.NewFileStore(sink, dir)
	converter := assets.NewResourceConverter(sink, nil, &store)
	p := newPipeline(t, sink, html.Parse, newSanitizer(sink), &converter)

	opts := pass.DefaultOptions()
	opts.ConvertImagesToResources = true

	dataURI := "data:image/png;base64," + base64.StdEncoding.EncodeToString(pngBytes)
	input := `<p><a href="https://remote.example/x.png"><img src="` + dataURI + `"></a></p>`
	result, err := p.ProcessHTML(context.Background(), input, opts, pass.Context{})
	require.Nil(t, err)

	id := hashutil.ResourceID(pngBytes)
	assert.Equal(t, `<p><img src=":/`+id+`"/></p>`, domutil.InnerHTML(result.Body))
	assert.Equal(t, assets.ResourceConversionMeta{
		ResourcesCreated: 1,
		ResourceIDs:      []string{id},
		Attempted:        1,
	}, result.Resources)

	written, readErr := os.ReadFile(filepath.Join(dir, id+".png"))
	require.NoError(t, readErr)
	assert.Equal(t, pngBytes, written)

	require.Len(t, sink.stats, 1)
	assert.Equal(t, 1, sink.stats[0].ResourcesCreated)
}

func TestProcessHTML_OversizeImageKeepsSource(t *testing.T) {
	sink := &metadataSinkMock{}
	store := storage.NewFileStore(sink, t.TempDir())
	converter := assets.NewResourceConverter(sink, nil, &store)
	p := newPipeline(t, sink, html.Parse, newSanitizer(sink), &converter)

	opts := pass.DefaultOptions()
	opts.ConvertImagesToResources = true

	dataURI := "data:image/png;base64," + base64.StdEncoding.EncodeToString(append(pngBytes, make([]byte, 2048)...))
	result, err := p.ProcessHTML(context.Background(), `<p><img src="`+dataURI+`"></p>`, opts, pass.Context{})
	require.Nil(t, err)

	assert.Equal(t, 1, result.Resources.Attempted)
	assert.Equal(t, 1, result.Resources.Failed)
	img := domutil.Elements(result.Body, "img")
	require.Len(t, img, 1)
	assert.Equal(t, dataURI, domutil.AttrOr(img[0], "src", ""))
}

func TestProcessHTML_PreservesExistingResourceRefs(t *testing.T) {
	p := newDefaultPipeline(t, &metadataSinkMock{})
	ref := ":/0123456789abcdef0123456789abcdef"

	result, err := p.ProcessHTML(context.Background(), `<p><img src="`+ref+`" alt="chart"></p>`, pass.DefaultOptions(), pass.Context{})
	require.Nil(t, err)

	assert.Equal(t, `<p><img src="`+ref+`" alt="chart"/></p>`, domutil.InnerHTML(result.Body))
}

func TestProcessHTML_PostSanitizePassesAreIdempotent(t *testing.T) {
	p := newDefaultPipeline(t, &metadataSinkMock{})
	input := strings.Join([]string{
		`<h2><a class="anchor" href="#a">#</a>Intro</h2>`,
		`<h5>Deep</h5>`,
		`<ul><ol><li>A</li></ol></ul>`,
		`<p>Use the &lt;div&gt; tag&nbsp;here</p>`,
		`<p>&nbsp;</p>`,
		`<div class="highlight highlight-source-go"><pre><code>x := 1</code></pre></div>`,
	}, "")

	opts := pass.DefaultOptions()
	result, err := p.ProcessHTML(context.Background(), input, opts, pass.Context{})
	require.Nil(t, err)
	first := domutil.InnerHTML(result.Body)

	set, setErr := pipeline.ProcessingPasses()
	require.Nil(t, setErr)
	runner := pass.NewRunner(&metadata.NoopSink{})
	runner.Run(context.Background(), set.PostSanitizeBeforeImages, result.Body, opts, pass.Context{})
	runner.Run(context.Background(), set.PostSanitizeAfterImages, result.Body, opts, pass.Context{})

	assert.Equal(t, first, domutil.InnerHTML(result.Body))
	assert.Contains(t, first, "<h2>Intro</h2><h3>Deep</h3>")
	assert.Contains(t, first, "<ol><li>A</li></ol>")
}

func TestProcessHTML_LiteralTagsBecomeCode(t *testing.T) {
	p := newDefaultPipeline(t, &metadataSinkMock{})

	result, err := p.ProcessHTML(context.Background(), `<p>Wrap it in &lt;div&gt; first</p>`, pass.DefaultOptions(), pass.Context{})
	require.Nil(t, err)

	assert.Equal(t, `<p>Wrap it in <code>&lt;div&gt;</code> first</p>`, domutil.InnerHTML(result.Body))
}

func TestProcessHTML_ChromeInsidePreDropped(t *testing.T) {
	p := newDefaultPipeline(t, &metadataSinkMock{})

	inputs := []string{
		`<pre><div class="code-toolbar-header"><span>Copy</span></div><code>x = 1</code></pre>`,
		`<pre><span class="copy-label">Copy code</span><code>x = 1</code></pre>`,
	}
	for _, input := range inputs {
		result, err := p.ProcessHTML(context.Background(), input, pass.DefaultOptions(), pass.Context{})
		require.Nil(t, err)
		assert.Equal(t, `<pre><code>x = 1</code></pre>`, domutil.InnerHTML(result.Body), input)
	}
}

func TestProcessHTML_KeepsCopyrightAboveCode(t *testing.T) {
	p := newDefaultPipeline(t, &metadataSinkMock{})

	input := `<p class="copyright">Copyright 2024 Example Corp. All examples below are MIT licensed.</p><pre><code>x = 1</code></pre>`
	result, err := p.ProcessHTML(context.Background(), input, pass.DefaultOptions(), pass.Context{})
	require.Nil(t, err)

	out := domutil.InnerHTML(result.Body)
	assert.Contains(t, out, "Copyright 2024 Example Corp. All examples below are MIT licensed.")
	assert.Contains(t, out, `<pre><code>x = 1</code></pre>`)
}
