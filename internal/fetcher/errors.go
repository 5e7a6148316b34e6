package fetcher

import (
	"fmt"

	"github.com/rohmanhakim/clipmd/internal/metadata"
	"github.com/rohmanhakim/clipmd/pkg/failure"
)

type FetchErrorCause string

const (
	ErrCauseTimeout               FetchErrorCause = "timeout"
	ErrCauseNetworkFailure        FetchErrorCause = "network issues"
	ErrCauseReadResponseBodyError FetchErrorCause = "failed to read response body"
	ErrCauseContentTypeInvalid    FetchErrorCause = "non-image content"
	ErrCauseTooLarge              FetchErrorCause = "response exceeds size limit"
	ErrCauseRedirectLimitExceeded FetchErrorCause = "reached redirect limit"
	ErrCauseRequestForbidden      FetchErrorCause = "forbidden"
	ErrCauseRequestTimeout        FetchErrorCause = "request timeout"
	ErrCauseRequestTooMany        FetchErrorCause = "too many requests"
	ErrCauseRequest4xx            FetchErrorCause = "4xx"
	ErrCauseRequest5xx            FetchErrorCause = "5xx"
	ErrCauseCancelled             FetchErrorCause = "cancelled"
)

type FetchError struct {
	Message    string
	Retryable  bool
	Cause      FetchErrorCause
	StatusCode int
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetcher error: %s", e.Cause)
}

func (e *FetchError) Severity() failure.Severity {
	if e.Retryable {
		return failure.SeverityRecoverable
	}
	return failure.SeverityFatal
}

// IsRetryable returns whether this error is retryable
func (e *FetchError) IsRetryable() bool {
	return e.Retryable
}

// mapFetchErrorToMetadataCause maps fetcher-local error semantics
// to the canonical metadata.ErrorCause table.
//
// This mapping is observational only and MUST NOT be used
// to derive control-flow decisions.
func mapFetchErrorToMetadataCause(err *FetchError) metadata.ErrorCause {
	switch err.Cause {
	case ErrCauseTimeout, ErrCauseNetworkFailure, ErrCauseReadResponseBodyError,
		ErrCauseRequestTimeout, ErrCauseRequest5xx:
		return metadata.CauseNetworkFailure
	case ErrCauseRequestTooMany, ErrCauseRequestForbidden:
		return metadata.CausePolicyDisallow
	case ErrCauseContentTypeInvalid, ErrCauseTooLarge, ErrCauseRequest4xx, ErrCauseRedirectLimitExceeded:
		return metadata.CauseContentInvalid
	default:
		return metadata.CauseUnknown
	}
}
