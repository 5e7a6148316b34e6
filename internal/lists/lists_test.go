package lists_test

import (
	"strings"
	"testing"

	"github.com/rohmanhakim/clipmd/internal/domutil"
	"github.com/rohmanhakim/clipmd/internal/lists"
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

func TestRepair(t *testing.T) {
	tests := []struct {
		name string
		html string
		want string
	}{
		{
			name: "pure wrapper unwrapped",
			html: `<ul><ol><li>A</li></ol></ul>`,
			want: `<ol><li>A</li></ol>`,
		},
		{
			name: "orphan sublist re-parented",
			html: `<ol><li>X</li><ul><li>Y</li></ul></ol>`,
			want: `<ol><li>X<ul><li>Y</li></ul></li></ol>`,
		},
		{
			name: "orphan before any item gets a synthesized item",
			html: `<ol><ul><li>Y</li></ul><li>X</li></ol>`,
			want: `<ol><li><ul><li>Y</li></ul></li><li>X</li></ol>`,
		},
		{
			name: "well formed list untouched",
			html: `<ul><li>A<ul><li>B</li></ul></li></ul>`,
			want: `<ul><li>A<ul><li>B</li></ul></li></ul>`,
		},
		{
			name: "checkbox paragraph lifted",
			html: `<ul><li><p><input type="checkbox" checked=""/> done</p></li></ul>`,
			want: `<ul><li><input type="checkbox" checked=""/> done</li></ul>`,
		},
		{
			name: "paragraph without checkbox kept",
			html: `<ul><li><p>text</p></li></ul>`,
			want: `<ul><li><p>text</p></li></ul>`,
		},
		{
			name: "nested wrapper inside orphan",
			html: `<ol><li>X</li><ul><ul><li>Y</li></ul></ul></ol>`,
			want: `<ol><li>X<ul><li>Y</li></ul></li></ol>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := parseBody(t, tt.html)
			lists.Repair(body)
			assert.Equal(t, tt.want, domutil.InnerHTML(body))
		})
	}
}

func TestRepair_Converges(t *testing.T) {
	body := parseBody(t, `<ul><ol><ul><ol><li>deep</li></ol></ul></ol></ul>`)

	rounds := lists.Repair(body)

	assert.Less(t, rounds, lists.MaxRepairRounds)
	assert.Equal(t, `<ol><li>deep</li></ol>`, domutil.InnerHTML(body))
	assert.Equal(t, 0, lists.Repair(body))
}

func TestUnwrapPureWrappers_MixedListLeftAlone(t *testing.T) {
	body := parseBody(t, `<ol><li>X</li><p>stray</p></ol>`)

	changed := lists.UnwrapPureWrappers(body)

	assert.False(t, changed)
}
