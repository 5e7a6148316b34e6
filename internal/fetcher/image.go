package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rohmanhakim/clipmd/internal/metadata"
	"github.com/rohmanhakim/clipmd/pkg/failure"
	"github.com/rohmanhakim/clipmd/pkg/limiter"
	"github.com/rohmanhakim/clipmd/pkg/retry"
)

/*
Responsibilities

- Download remote images referenced by clipboard HTML
- Apply headers, per-attempt timeouts and per-host spacing
- Bound the response size before and while reading
- Classify responses

Fetch Semantics

- Only 2xx responses with an image media type succeed
- 408, 429, 5xx and transport failures are retried
- Other 4xx, redirects past the client limit, non-image content and
  oversize bodies fail immediately
- Every fetch is recorded with status, duration and retry count

The fetcher never decodes images; it only returns bytes and the media type.
*/

// sniffLen is how many bytes http.DetectContentType looks at.
const sniffLen = 512

type ImageFetcher struct {
	metadataSink metadata.MetadataSink
	httpClient   *http.Client
	hostLimiter  *limiter.HostLimiter
}

// NewImageFetcher builds a fetcher. A nil client uses http.DefaultClient;
// a nil limiter disables per-host spacing.
func NewImageFetcher(
	metadataSink metadata.MetadataSink,
	httpClient *http.Client,
	hostLimiter *limiter.HostLimiter,
) ImageFetcher {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return ImageFetcher{
		metadataSink: metadataSink,
		httpClient:   httpClient,
		hostLimiter:  hostLimiter,
	}
}

func (f *ImageFetcher) Fetch(
	ctx context.Context,
	fetchParam FetchParam,
	retryParam retry.RetryParam,
) (FetchResult, failure.ClassifiedError) {
	callerMethod := "ImageFetcher.Fetch"
	startTime := time.Now()

	result, attempts, err := f.fetchWithRetry(ctx, fetchParam, retryParam)

	duration := time.Since(startTime)

	var statusCode int
	var contentType string
	if err != nil {
		var fetchErr *FetchError
		if errors.As(err, &fetchErr) {
			statusCode = fetchErr.StatusCode
		}
	} else {
		statusCode = result.Code()
		contentType = result.ContentType()
	}

	retryCount := max(attempts-1, 0)
	f.metadataSink.RecordImageFetch(
		fetchParam.fetchUrl.String(),
		statusCode,
		duration,
		contentType,
		retryCount,
	)

	if err != nil {
		f.recordFetchError(callerMethod, fetchParam.fetchUrl, err)
		return FetchResult{}, err
	}

	result.attempts = attempts
	return result, nil
}

// recordFetchError records the last FetchError, unwrapping retry exhaustion.
func (f *ImageFetcher) recordFetchError(callerMethod string, fetchUrl url.URL, err failure.ClassifiedError) {
	cause := metadata.CauseUnknown
	var fetchErr *FetchError
	if errors.As(err, &fetchErr) {
		cause = mapFetchErrorToMetadataCause(fetchErr)
	}
	f.metadataSink.RecordError(
		time.Now(),
		"fetcher",
		callerMethod,
		cause,
		err.Error(),
		[]metadata.Attribute{
			metadata.NewAttr(metadata.AttrURL, fetchUrl.String()),
			metadata.NewAttr(metadata.AttrHost, fetchUrl.Hostname()),
		},
	)
}

func (f *ImageFetcher) fetchWithRetry(
	ctx context.Context,
	fetchParam FetchParam,
	retryParam retry.RetryParam,
) (FetchResult, int, failure.ClassifiedError) {
	fetchTask := func() (FetchResult, failure.ClassifiedError) {
		return f.performFetch(ctx, fetchParam)
	}

	result := retry.Retry(ctx, retryParam, fetchTask)
	if result.IsFailure() {
		// a non-retryable FetchError comes back as-is; exhaustion and
		// cancellation come back as RetryError wrapping the last attempt
		return FetchResult{}, result.Attempts(), result.Err()
	}
	return result.Value(), result.Attempts(), nil
}

func (f *ImageFetcher) performFetch(ctx context.Context, fetchParam FetchParam) (FetchResult, failure.ClassifiedError) {
	host := fetchParam.fetchUrl.Hostname()
	if f.hostLimiter != nil {
		if err := f.hostLimiter.Wait(ctx, host); err != nil {
			return FetchResult{}, &FetchError{
				Message:   fmt.Sprintf("waiting for host %s: %v", host, err),
				Retryable: false,
				Cause:     ErrCauseCancelled,
			}
		}
		f.hostLimiter.MarkLastFetchAsNow(host)
	}

	attemptCtx := ctx
	if fetchParam.timeout > 0 {
		var cancel context.CancelFunc
		attemptCtx, cancel = context.WithTimeout(ctx, fetchParam.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodGet, fetchParam.fetchUrl.String(), nil)
	if err != nil {
		return FetchResult{}, &FetchError{
			Message:   fmt.Sprintf("failed to create request: %v", err),
			Retryable: false,
			Cause:     ErrCauseNetworkFailure,
		}
	}
	for key, value := range requestHeaders(fetchParam.userAgent) {
		req.Header.Set(key, value)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return FetchResult{}, classifyTransportError(ctx, attemptCtx, err)
	}
	defer resp.Body.Close()

	if statusErr := f.classifyStatus(host, resp.StatusCode); statusErr != nil {
		return FetchResult{}, statusErr
	}
	if f.hostLimiter != nil {
		f.hostLimiter.ResetBackoff(host)
	}

	if fetchParam.maxBytes > 0 && resp.ContentLength > fetchParam.maxBytes {
		return FetchResult{}, &FetchError{
			Message:    fmt.Sprintf("declared length %d exceeds limit %d", resp.ContentLength, fetchParam.maxBytes),
			Retryable:  false,
			Cause:      ErrCauseTooLarge,
			StatusCode: resp.StatusCode,
		}
	}

	declared := mediaType(resp.Header.Get("Content-Type"))
	if declared != "" && declared != "application/octet-stream" && !isImageContent(declared) {
		return FetchResult{}, &FetchError{
			Message:    fmt.Sprintf("non-image content type: %s", declared),
			Retryable:  false,
			Cause:      ErrCauseContentTypeInvalid,
			StatusCode: resp.StatusCode,
		}
	}

	var reader io.Reader = resp.Body
	if fetchParam.maxBytes > 0 {
		reader = io.LimitReader(resp.Body, fetchParam.maxBytes+1)
	}
	body, err := io.ReadAll(reader)
	if err != nil {
		return FetchResult{}, &FetchError{
			Message:    fmt.Sprintf("failed to read response body: %v", err),
			Retryable:  true,
			Cause:      ErrCauseReadResponseBodyError,
			StatusCode: resp.StatusCode,
		}
	}
	if fetchParam.maxBytes > 0 && int64(len(body)) > fetchParam.maxBytes {
		return FetchResult{}, &FetchError{
			Message:    fmt.Sprintf("body exceeds limit %d", fetchParam.maxBytes),
			Retryable:  false,
			Cause:      ErrCauseTooLarge,
			StatusCode: resp.StatusCode,
		}
	}

	contentType := declared
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = mediaType(http.DetectContentType(body[:min(len(body), sniffLen)]))
		if !isImageContent(contentType) {
			return FetchResult{}, &FetchError{
				Message:    fmt.Sprintf("body does not look like an image: %s", contentType),
				Retryable:  false,
				Cause:      ErrCauseContentTypeInvalid,
				StatusCode: resp.StatusCode,
			}
		}
	}

	return FetchResult{
		url:         fetchParam.fetchUrl,
		body:        body,
		contentType: contentType,
		statusCode:  resp.StatusCode,
	}, nil
}

func (f *ImageFetcher) classifyStatus(host string, statusCode int) *FetchError {
	switch {
	case statusCode >= 500:
		return &FetchError{
			Message:    fmt.Sprintf("server error: %d", statusCode),
			Retryable:  true,
			Cause:      ErrCauseRequest5xx,
			StatusCode: statusCode,
		}

	case statusCode == http.StatusTooManyRequests:
		if f.hostLimiter != nil {
			f.hostLimiter.Backoff(host)
		}
		return &FetchError{
			Message:    "rate limited (429)",
			Retryable:  true,
			Cause:      ErrCauseRequestTooMany,
			StatusCode: statusCode,
		}

	case statusCode == http.StatusRequestTimeout:
		return &FetchError{
			Message:    "request timeout (408)",
			Retryable:  true,
			Cause:      ErrCauseRequestTimeout,
			StatusCode: statusCode,
		}

	case statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden:
		return &FetchError{
			Message:    fmt.Sprintf("access forbidden (%d)", statusCode),
			Retryable:  false,
			Cause:      ErrCauseRequestForbidden,
			StatusCode: statusCode,
		}

	case statusCode >= 400:
		return &FetchError{
			Message:    fmt.Sprintf("client error: %d", statusCode),
			Retryable:  false,
			Cause:      ErrCauseRequest4xx,
			StatusCode: statusCode,
		}

	case statusCode >= 300:
		// the client follows redirects; landing here means it gave up
		return &FetchError{
			Message:    fmt.Sprintf("redirect error: %d", statusCode),
			Retryable:  false,
			Cause:      ErrCauseRedirectLimitExceeded,
			StatusCode: statusCode,
		}
	}
	return nil
}

// classifyTransportError separates caller cancellation from attempt timeouts
// and plain network failures. Only the caller's cancellation is terminal.
func classifyTransportError(parent context.Context, attemptCtx context.Context, err error) *FetchError {
	if parent.Err() != nil {
		return &FetchError{
			Message:   fmt.Sprintf("request cancelled: %v", err),
			Retryable: false,
			Cause:     ErrCauseCancelled,
		}
	}
	if errors.Is(attemptCtx.Err(), context.DeadlineExceeded) {
		return &FetchError{
			Message:   fmt.Sprintf("request timed out: %v", err),
			Retryable: true,
			Cause:     ErrCauseTimeout,
		}
	}
	return &FetchError{
		Message:   fmt.Sprintf("request failed: %v", err),
		Retryable: true,
		Cause:     ErrCauseNetworkFailure,
	}
}

// mediaType strips parameters and lowercases. Unparseable values yield "".
func mediaType(contentType string) string {
	if strings.TrimSpace(contentType) == "" {
		return ""
	}
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return ""
	}
	return strings.ToLower(mt)
}

func isImageContent(mediaType string) bool {
	return strings.HasPrefix(mediaType, "image/")
}

func requestHeaders(userAgent string) map[string]string {
	return map[string]string{
		"User-Agent":      userAgent,
		"Accept":          "image/avif,image/webp,image/apng,image/svg+xml,image/*,*/*;q=0.8",
		"Accept-Language": "en-US,en;q=0.5",
	}
}
