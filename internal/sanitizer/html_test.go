package sanitizer_test

import (
	"testing"
	"time"

	"github.com/rohmanhakim/clipmd/internal/metadata"
	"github.com/rohmanhakim/clipmd/internal/sanitizer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const refAttr = "data-resource-ref"

type recordingSink struct {
	metadata.NoopSink
	errors []metadata.ErrorCause
}

func (r *recordingSink) RecordError(_ time.Time, _ string, _ string, cause metadata.ErrorCause, _ string, _ []metadata.Attribute) {
	r.errors = append(r.errors, cause)
}

func sanitize(t *testing.T, input string, param sanitizer.SanitizeParam) string {
	t.Helper()
	s := sanitizer.NewHTMLSanitizer(&recordingSink{})
	out, err := s.Sanitize(input, param)
	require.Nil(t, err)
	return out
}

func TestSanitize_DefaultPolicy(t *testing.T) {
	tests := []struct {
		name          string
		input         string
		includeImages bool
		want          string
	}{
		{
			name:  "style and handlers dropped",
			input: `<p style="color:red" onclick="x()" class="lead">Hi</p>`,
			want:  `<p class="lead">Hi</p>`,
		},
		{
			name:  "disallowed element keeps its text",
			input: `<font face="x">plain</font><center>mid</center>`,
			want:  `plainmid`,
		},
		{
			name:  "script content dropped",
			input: `<p>a</p><script>alert(1)</script>`,
			want:  `<p>a</p>`,
		},
		{
			name:  "javascript url removed",
			input: `<a href="javascript:alert(1)">x</a>`,
			want:  `x`,
		},
		{
			name:  "fragment link kept",
			input: `<a class="anchor" href="#section">s</a>`,
			want:  `<a class="anchor" href="#section">s</a>`,
		},
		{
			name:  "images dropped when excluded",
			input: `<p><img src="https://x.com/a.png" alt="a"/>t</p>`,
			want:  `<p>t</p>`,
		},
		{
			name:          "images kept when included",
			input:         `<p><img src="https://x.com/a.png" alt="a" style="width:1px"/></p>`,
			includeImages: true,
			want:          `<p><img src="https://x.com/a.png" alt="a"/></p>`,
		},
		{
			name:          "protected ref survives",
			input:         `<img data-resource-ref=":/0123456789abcdef0123456789abcdef"/>`,
			includeImages: true,
			want:          `<img data-resource-ref=":/0123456789abcdef0123456789abcdef"/>`,
		},
		{
			name:  "escaped code text stays escaped",
			input: `<pre><code>&lt;script&gt;x&lt;/script&gt;</code></pre>`,
			want:  `<pre><code>&lt;script&gt;x&lt;/script&gt;</code></pre>`,
		},
		{
			name:  "task checkbox kept",
			input: `<ul><li><input type="checkbox" checked=""/> done</li></ul>`,
			want:  `<ul><li><input type="checkbox" checked=""/> done</li></ul>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			param := sanitizer.DefaultSanitizeParam(tt.includeImages, refAttr)
			assert.Equal(t, tt.want, sanitize(t, tt.input, param))
		})
	}
}

func TestSanitize_ForbiddenAttrsWin(t *testing.T) {
	param := sanitizer.DefaultSanitizeParam(false, refAttr)
	param.ForbiddenAttrs = append(param.ForbiddenAttrs, "id")

	assert.Equal(t, `<h2>T</h2>`, sanitize(t, `<h2 id="t">T</h2>`, param))
}

func TestSanitize_StyleNeverAllowed(t *testing.T) {
	param := sanitizer.SanitizeParam{
		AllowedTags:  []string{"p"},
		AllowedAttrs: []string{"style"},
		KeepContent:  true,
	}

	assert.Equal(t, `<p>x</p>`, sanitize(t, `<p style="color:red">x</p>`, param))
}

func TestSanitize_WithoutKeepContent(t *testing.T) {
	param := sanitizer.SanitizeParam{
		AllowedTags: []string{"p"},
		KeepContent: false,
	}

	assert.Equal(t, `<p>kept</p>`, sanitize(t, `<p>kept</p><div>gone</div>`, param))
}
