package normalize_test

import (
	"time"

	"github.com/rohmanhakim/clipmd/internal/metadata"
	"github.com/rohmanhakim/clipmd/internal/normalize"
	"github.com/rohmanhakim/clipmd/pkg/hashutil"
)

// metadataSinkMock records RecordError calls.
type metadataSinkMock struct {
	metadata.NoopSink
	recordErrorCalled bool
	recordErrorCause  metadata.ErrorCause
	recordErrorAttrs  []metadata.Attribute
}

func (m *metadataSinkMock) RecordError(
	observedAt time.Time,
	packageName string,
	action string,
	cause metadata.ErrorCause,
	details string,
	attrs []metadata.Attribute,
) {
	m.recordErrorCalled = true
	m.recordErrorCause = cause
	m.recordErrorAttrs = attrs
}

var clippedAt = time.Date(2026, 2, 12, 10, 15, 0, 0, time.UTC)

func plainParam(forceTight bool) normalize.NormalizeParam {
	return normalize.NewNormalizeParam(forceTight, false, "", clippedAt, "v0.1.0", hashutil.HashAlgoBLAKE3)
}

func frontmatterParam(algo hashutil.HashAlgo) normalize.NormalizeParam {
	return normalize.NewNormalizeParam(false, true, "https://example.com/post", clippedAt, "v0.1.0", algo)
}
