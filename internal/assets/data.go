package assets

import (
	"time"

	"github.com/rohmanhakim/clipmd/pkg/retry"
)

// ParsedImageData is the decoded or downloaded payload of one image. It is
// handed to the store and dropped.
type ParsedImageData struct {
	Data     []byte
	MimeType string
	Filename string
	Size     int
}

// ResourceConversionMeta summarizes one Convert call.
type ResourceConversionMeta struct {
	ResourcesCreated int
	ResourceIDs      []string
	Attempted        int
	Failed           int
}

type ConvertParam struct {
	maxBytes   int64
	userAgent  string
	timeout    time.Duration
	retryParam retry.RetryParam
}

func NewConvertParam(
	maxBytes int64,
	userAgent string,
	timeout time.Duration,
	retryParam retry.RetryParam,
) ConvertParam {
	return ConvertParam{
		maxBytes:   maxBytes,
		userAgent:  userAgent,
		timeout:    timeout,
		retryParam: retryParam,
	}
}

func (c ConvertParam) MaxBytes() int64 {
	return c.maxBytes
}

func (c ConvertParam) UserAgent() string {
	return c.userAgent
}

func (c ConvertParam) Timeout() time.Duration {
	return c.timeout
}

func (c ConvertParam) RetryParam() retry.RetryParam {
	return c.retryParam
}
