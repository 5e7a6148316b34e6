package heading_test

import (
	"strings"
	"testing"

	"github.com/rohmanhakim/clipmd/internal/domutil"
	"github.com/rohmanhakim/clipmd/internal/heading"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

func parseBody(t *testing.T, fragment string) *html.Node {
	t.Helper()
	body, err := domutil.ParseBody(strings.NewReader(fragment), html.Parse)
	require.NoError(t, err)
	return body
}

func headings(levels ...int) string {
	var b strings.Builder
	for i, l := range levels {
		tag := "h" + string(rune('0'+l))
		b.WriteString("<" + tag + ">t" + string(rune('a'+i)) + "</" + tag + ">")
	}
	return b.String()
}

func TestRenormalizeLevels(t *testing.T) {
	tests := []struct {
		name  string
		input []int
		want  []int
	}{
		{"deep jumps clamp", []int{2, 5, 6}, []int{2, 3, 4}},
		{"reset lowers baseline", []int{2, 5, 2, 6}, []int{2, 3, 2, 3}},
		{"sequential unchanged", []int{1, 2, 3}, []int{1, 2, 3}},
		{"first heading keeps level", []int{4, 6, 1}, []int{4, 5, 1}},
		{"shallower moves free", []int{3, 4, 1, 2}, []int{3, 4, 1, 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := parseBody(t, headings(tt.input...))
			heading.RenormalizeLevels(body)
			assert.Equal(t, tt.want, heading.Levels(body))
		})
	}
}

func TestRenormalizeLevels_Idempotent(t *testing.T) {
	body := parseBody(t, headings(2, 5, 2, 6))

	heading.RenormalizeLevels(body)
	first := domutil.InnerHTML(body)
	heading.RenormalizeLevels(body)

	assert.Equal(t, first, domutil.InnerHTML(body))
}

func TestFlatten(t *testing.T) {
	tests := []struct {
		name string
		html string
		want string
	}{
		{
			name: "inline markup stripped",
			html: `<h2>Install <em>the</em>   <code>cli</code></h2>`,
			want: `<h2>Install the cli</h2>`,
		},
		{
			name: "descendant id hoisted",
			html: `<h3><a id="usage" href="#usage">Usage</a></h3>`,
			want: `<h3 id="usage">Usage</h3>`,
		},
		{
			name: "own id wins",
			html: `<h3 id="own"><span id="inner">Text</span></h3>`,
			want: `<h3 id="own">Text</h3>`,
		},
		{
			name: "empty heading removed",
			html: `<h2> <span></span> </h2><p>x</p>`,
			want: `<p>x</p>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := parseBody(t, tt.html)
			heading.Flatten(body)
			assert.Equal(t, tt.want, domutil.InnerHTML(body))
		})
	}
}

func TestUnwrapBold(t *testing.T) {
	tests := []struct {
		name string
		html string
		want string
	}{
		{"full wrap", `<h2><strong>Title</strong></h2>`, `<h2>Title</h2>`},
		{"nested wraps", `<h2> <b><strong>Title</strong></b> </h2>`, `<h2> Title </h2>`},
		{"partial bold kept", `<h2>The <b>real</b> title</h2>`, `<h2>The <b>real</b> title</h2>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := parseBody(t, tt.html)
			heading.UnwrapBold(body)
			assert.Equal(t, tt.want, domutil.InnerHTML(body))
		})
	}
}

func TestNormalize(t *testing.T) {
	body := parseBody(t, `<h1>Doc</h1><h4><a id="a">Deep</a></h4>`)

	heading.Normalize(body)

	assert.Equal(t, `<h1>Doc</h1><h2 id="a">Deep</h2>`, domutil.InnerHTML(body))
}
