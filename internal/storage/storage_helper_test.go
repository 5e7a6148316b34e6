package storage_test

import (
	"time"

	"github.com/rohmanhakim/clipmd/internal/metadata"
)

// metadataSinkMock records the calls the stores make.
type metadataSinkMock struct {
	metadata.NoopSink
	recordErrorCalled    bool
	recordErrorCause     metadata.ErrorCause
	recordResourceCalled bool
	recordResourceID     string
	recordResourceSize   int
}

func (m *metadataSinkMock) RecordError(
	_ time.Time,
	_ string,
	_ string,
	cause metadata.ErrorCause,
	_ string,
	_ []metadata.Attribute,
) {
	m.recordErrorCalled = true
	m.recordErrorCause = cause
}

func (m *metadataSinkMock) RecordResource(id string, _ string, size int, _ []metadata.Attribute) {
	m.recordResourceCalled = true
	m.recordResourceID = id
	m.recordResourceSize = size
}
