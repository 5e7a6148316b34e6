package pipeline_test

import (
	"io"
	"testing"
	"time"

	"github.com/rohmanhakim/clipmd/internal/assets"
	"github.com/rohmanhakim/clipmd/internal/metadata"
	"github.com/rohmanhakim/clipmd/internal/pipeline"
	"github.com/rohmanhakim/clipmd/internal/sanitizer"
	"github.com/rohmanhakim/clipmd/pkg/failure"
	"github.com/rohmanhakim/clipmd/pkg/retry"
	"github.com/rohmanhakim/clipmd/pkg/timeutil"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

type metadataSinkMock struct {
	metadata.NoopSink
	causes []metadata.ErrorCause
	stats  []metadata.ConversionStats
}

func (m *metadataSinkMock) RecordError(
	_ time.Time,
	_ string,
	_ string,
	cause metadata.ErrorCause,
	_ string,
	_ []metadata.Attribute,
) {
	m.causes = append(m.causes, cause)
}

func (m *metadataSinkMock) RecordConversionStats(stats metadata.ConversionStats) {
	m.stats = append(m.stats, stats)
}

type failingSanitizer struct{}

func (failingSanitizer) Sanitize(string, sanitizer.SanitizeParam) (string, failure.ClassifiedError) {
	return "", &sanitizer.SanitizationError{Message: "boom", Cause: sanitizer.ErrCauseSanitizerPanic}
}

func failingParser(io.Reader) (*html.Node, error) {
	return nil, io.ErrUnexpectedEOF
}

func testConvertParam(maxBytes int64) assets.ConvertParam {
	retryParam := retry.NewRetryParam(0, 1, 1, timeutil.NewBackoffParam(time.Millisecond, 1.0, time.Millisecond))
	return assets.NewConvertParam(maxBytes, "clipmd-test", time.Second, retryParam)
}

func newPipeline(t *testing.T, sink metadata.MetadataSink, parser pipeline.Parser, s sanitizer.Sanitizer, converter assets.Converter) *pipeline.Pipeline {
	t.Helper()
	p, err := pipeline.NewPipeline(sink, parser, s, converter, testConvertParam(1024))
	require.Nil(t, err)
	return &p
}

func newSanitizer(sink metadata.MetadataSink) sanitizer.Sanitizer {
	htmlSanitizer := sanitizer.NewHTMLSanitizer(sink)
	return &htmlSanitizer
}

func newDefaultPipeline(t *testing.T, sink metadata.MetadataSink) *pipeline.Pipeline {
	t.Helper()
	return newPipeline(t, sink, html.Parse, newSanitizer(sink), nil)
}
