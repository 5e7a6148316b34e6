package mdconvert_test

import (
	"strings"
	"testing"
	"time"

	"github.com/rohmanhakim/clipmd/internal/domutil"
	"github.com/rohmanhakim/clipmd/internal/mdconvert"
	"github.com/rohmanhakim/clipmd/internal/metadata"
	"github.com/rohmanhakim/clipmd/internal/pipeline"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

func createTestRule() *mdconvert.ClipboardConversionRule {
	return mdconvert.NewRule(&metadata.NoopSink{})
}

// bodyResult wraps parsed markup the way the pipeline hands it over.
func bodyResult(t *testing.T, markup string) pipeline.Result {
	t.Helper()
	body, err := domutil.ParseBody(strings.NewReader(markup), html.Parse)
	require.NoError(t, err)
	require.NotNil(t, body)
	return pipeline.Result{Body: body}
}

func convertMarkup(t *testing.T, markup string) string {
	t.Helper()
	result, err := createTestRule().Convert(t.Context(), bodyResult(t, markup), mdconvert.NewConvertParam(""))
	require.Nil(t, err)
	return string(result.GetMarkdownContent())
}

// metadataSinkMock asserts on RecordError and ignores every other event.
type metadataSinkMock struct {
	metadata.NoopSink
	mock.Mock
}

func (m *metadataSinkMock) RecordError(
	observedAt time.Time,
	packageName string,
	action string,
	cause metadata.ErrorCause,
	details string,
	attrs []metadata.Attribute,
) {
	m.Called(observedAt, packageName, action, cause, details, attrs)
}
