package fetcher

import (
	"net/url"
	"time"
)

// HTTP boundary

type FetchParam struct {
	fetchUrl  url.URL
	userAgent string
	maxBytes  int64
	timeout   time.Duration
}

// NewFetchParam describes one image download. maxBytes bounds the body,
// timeout bounds each attempt.
func NewFetchParam(fetchUrl url.URL, userAgent string, maxBytes int64, timeout time.Duration) FetchParam {
	return FetchParam{
		fetchUrl:  fetchUrl,
		userAgent: userAgent,
		maxBytes:  maxBytes,
		timeout:   timeout,
	}
}

func (p FetchParam) URL() url.URL {
	return p.fetchUrl
}

type FetchResult struct {
	url         url.URL
	body        []byte
	contentType string
	statusCode  int
	attempts    int
}

func (f *FetchResult) URL() url.URL {
	return f.url
}

func (f *FetchResult) Body() []byte {
	return f.body
}

// ContentType is the media type without parameters, lowercased.
func (f *FetchResult) ContentType() string {
	return f.contentType
}

func (f *FetchResult) Code() int {
	return f.statusCode
}

func (f *FetchResult) Attempts() int {
	return f.attempts
}

// NewFetchResultForTest creates a FetchResult for testing purposes.
// The fields remain private to maintain immutability.
func NewFetchResultForTest(u url.URL, body []byte, contentType string, statusCode int) FetchResult {
	return FetchResult{
		url:         u,
		body:        body,
		contentType: contentType,
		statusCode:  statusCode,
		attempts:    1,
	}
}
