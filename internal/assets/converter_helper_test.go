package assets_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/rohmanhakim/clipmd/internal/assets"
	"github.com/rohmanhakim/clipmd/internal/domutil"
	"github.com/rohmanhakim/clipmd/internal/fetcher"
	"github.com/rohmanhakim/clipmd/internal/metadata"
	"github.com/rohmanhakim/clipmd/pkg/failure"
	"github.com/rohmanhakim/clipmd/pkg/retry"
	"github.com/rohmanhakim/clipmd/pkg/timeutil"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

type storeMock struct {
	mock.Mock
}

func (s *storeMock) Save(ctx context.Context, data []byte, mimeType string, filename string) (string, failure.ClassifiedError) {
	args := s.Called(ctx, data, mimeType, filename)
	var err failure.ClassifiedError
	if args.Get(1) != nil {
		err = args.Get(1).(failure.ClassifiedError)
	}
	return args.String(0), err
}

type fetcherMock struct {
	mock.Mock
}

func (f *fetcherMock) Fetch(
	ctx context.Context,
	fetchParam fetcher.FetchParam,
	retryParam retry.RetryParam,
) (fetcher.FetchResult, failure.ClassifiedError) {
	args := f.Called(ctx, fetchParam, retryParam)
	res := args.Get(0).(fetcher.FetchResult)
	var err failure.ClassifiedError
	if args.Get(1) != nil {
		err = args.Get(1).(failure.ClassifiedError)
	}
	return res, err
}

type metadataSinkMock struct {
	metadata.NoopSink
	causes []metadata.ErrorCause
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

func parseBody(t *testing.T, fragment string) *html.Node {
	t.Helper()
	body, err := domutil.ParseBody(strings.NewReader("<html><body>"+fragment+"</body></html>"), html.Parse)
	require.NoError(t, err)
	return body
}

func testParam(maxBytes int64) assets.ConvertParam {
	retryParam := retry.NewRetryParam(0, 1, 3, timeutil.NewBackoffParam(time.Millisecond, 1.0, time.Millisecond))
	return assets.NewConvertParam(maxBytes, "clipmd-test", time.Second, retryParam)
}
