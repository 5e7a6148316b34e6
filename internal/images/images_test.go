package images_test

import (
	"strings"
	"testing"

	"github.com/rohmanhakim/clipmd/internal/domutil"
	"github.com/rohmanhakim/clipmd/internal/images"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

const ref = ":/0123456789abcdef0123456789abcdef"

func parseBody(t *testing.T, fragment string) *html.Node {
	t.Helper()
	body, err := domutil.ParseBody(strings.NewReader(fragment), html.Parse)
	require.NoError(t, err)
	return body
}

func run(t *testing.T, fragment string, fn func(*html.Node)) string {
	t.Helper()
	body := parseBody(t, fragment)
	fn(body)
	return domutil.InnerHTML(body)
}

func TestPromoteSizing(t *testing.T) {
	tests := []struct {
		name string
		html string
		want string
	}{
		{
			name: "both promoted",
			html: `<img src="a.png" style="width: 120px; height:80.4px"/>`,
			want: `<img src="a.png" width="120" height="80"/>`,
		},
		{
			name: "explicit attribute wins",
			html: `<img src="a.png" width="10" style="width:120px;height:80px"/>`,
			want: `<img src="a.png" width="10"/>`,
		},
		{
			name: "zero and non pixel ignored",
			html: `<img src="a.png" style="width:0px;height:50%"/>`,
			want: `<img src="a.png"/>`,
		},
		{
			name: "style stripped without sizing",
			html: `<img src="a.png" style="border:1px solid"/>`,
			want: `<img src="a.png"/>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, run(t, tt.html, images.PromoteSizing))
		})
	}
}

func TestPruneAnchors(t *testing.T) {
	got := run(t,
		`<a href="https://x.com/full.png"> <span class="zoom"></span><div><img src="a.png"/></div><span>1200 × 800</span></a><a href="https://x.com">text</a>`,
		images.PruneAnchors,
	)

	assert.Equal(t, `<a href="https://x.com/full.png"><img src="a.png"/></a><a href="https://x.com">text</a>`, got)
}

func TestPruneAnchors_KeepsPicture(t *testing.T) {
	got := run(t,
		`<a href="https://x.com"><picture><source srcset="a.webp"/><img src="a.png"/></picture> caption</a>`,
		images.PruneAnchors,
	)

	assert.Equal(t, `<a href="https://x.com"><picture><source srcset="a.webp"/><img src="a.png"/></picture></a>`, got)
}

func TestResourceRefProtection(t *testing.T) {
	body := parseBody(t, `<img src="`+ref+`"/><img src="https://x.com/a.png"/>`)

	images.ProtectResourceRefs(body)
	assert.Equal(t, `<img data-resource-ref="`+ref+`"/><img src="https://x.com/a.png"/>`, domutil.InnerHTML(body))

	images.RestoreResourceRefs(body)
	assert.Equal(t, `<img src="`+ref+`"/><img src="https://x.com/a.png"/>`, domutil.InnerHTML(body))
}

func TestRestoreResourceRefs_DropsForgedValue(t *testing.T) {
	got := run(t, `<img data-resource-ref="javascript:alert(1)"/>`, images.RestoreResourceRefs)

	assert.Equal(t, `<img/>`, got)
}

func TestUnwrapConvertedLinks(t *testing.T) {
	tests := []struct {
		name string
		html string
		want string
	}{
		{
			name: "converted image unwrapped",
			html: `<p><a href="https://remote/x.png"><img src="` + ref + `" data-resource-converted="1"/></a></p>`,
			want: `<p><img src="` + ref + `" data-resource-converted="1"/></p>`,
		},
		{
			name: "sibling text aborts",
			html: `<p><a href="https://remote/x.png"><img src="` + ref + `" data-resource-converted="1"/> caption</a></p>`,
			want: `<p><a href="https://remote/x.png"><img src="` + ref + `" data-resource-converted="1"/> caption</a></p>`,
		},
		{
			name: "single child wrapper chain",
			html: `<p><a href="https://remote/x.png"> <span><img src="` + ref + `" data-resource-converted="1"/></span> </a></p>`,
			want: `<p> <span><img src="` + ref + `" data-resource-converted="1"/></span> </p>`,
		},
		{
			name: "unconverted image kept linked",
			html: `<p><a href="https://remote/x.png"><img src="https://remote/x.png"/></a></p>`,
			want: `<p><a href="https://remote/x.png"><img src="https://remote/x.png"/></a></p>`,
		},
		{
			name: "fragment anchor kept",
			html: `<p><a href="#top"><img src="` + ref + `" data-resource-converted="1"/></a></p>`,
			want: `<p><a href="#top"><img src="` + ref + `" data-resource-converted="1"/></a></p>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := run(t, tt.html, func(n *html.Node) { images.UnwrapConvertedLinks(n) })
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStandardize(t *testing.T) {
	tests := []struct {
		name string
		html string
		want string
	}{
		{
			name: "order and whitelist",
			html: `<img height="2" class="x" width="3" title="t" alt="a" src="s.png" data-resource-converted="1"/>`,
			want: `<img src="s.png" alt="a" title="t" width="3" height="2"/>`,
		},
		{
			name: "alt from url filename",
			html: `<img src="https://x.com/img/team_photo-2024.jpg?v=3"/>`,
			want: `<img src="https://x.com/img/team_photo-2024.jpg?v=3" alt="team photo 2024"/>`,
		},
		{
			name: "alt from remembered filename",
			html: `<img src="` + ref + `" data-resource-filename="diagram.png"/>`,
			want: `<img src="` + ref + `" alt="diagram"/>`,
		},
		{
			name: "empty alt preserved",
			html: `<img src="https://x.com/a.png" alt=""/>`,
			want: `<img src="https://x.com/a.png" alt=""/>`,
		},
		{
			name: "data uri has no filename",
			html: `<img src="data:image/png;base64,AAAA"/>`,
			want: `<img src="data:image/png;base64,AAAA"/>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, run(t, tt.html, images.Standardize))
		})
	}
}

func TestCleanAlt(t *testing.T) {
	assert.Equal(t, "a b", images.CleanAlt("  a\x00\x07 \n b "))
	long := strings.Repeat("x", 150)
	assert.Equal(t, strings.Repeat("x", images.MaxAltRunes), images.CleanAlt(long))
}

func TestNormalizeAlt(t *testing.T) {
	got := run(t, `<img src="a.png" alt=" Team
	photo "/>`, images.NormalizeAlt)

	assert.Equal(t, `<img src="a.png" alt="Team photo"/>`, got)
}
