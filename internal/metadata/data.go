package metadata

import (
	"time"
)

/*
	ErrorCause is a closed, canonical classification used exclusively for
	observability (logging, tracing, reporting).

	Rules:
	 - ErrorCause MUST NOT influence control flow.
	 - ErrorCause MUST NOT be used for fallback, retry, or abort decisions.
	 - Packages MAY map their local errors to ErrorCause,
	   but MUST NOT invent new meanings.

If a failure does not clearly match a defined cause, CauseUnknown MUST be used.
*/
type ErrorCause int

/*
Canonical ErrorCause Table

# CauseUnknown
  - The failure does not map cleanly to any known category.

# CauseNetworkFailure
  - Transport or remote availability failure while fetching an image.
  - Timeouts, DNS failures, 5xx, 429.

# CausePolicyDisallow
  - Remote refused access (401/403) or a request was not permitted.

# CauseContentInvalid
  - Content could not be processed meaningfully.
  - Malformed base64, non-image content type, oversize payloads,
    markup the parser could not turn into a document.

# CauseStorageFailure
  - Failure while persisting a resource.

# CauseInvariantViolation
  - An internal contract was broken: a pass panicked, the pass registry
    has duplicate priorities, the sanitizer boundary failed.

# CauseEnvironment
  - A hard precondition of the runtime is missing (no DOM parser).
*/
const (
	CauseUnknown ErrorCause = iota
	CauseNetworkFailure
	CausePolicyDisallow
	CauseContentInvalid
	CauseStorageFailure
	CauseInvariantViolation
	CauseEnvironment
)

func (c ErrorCause) String() string {
	switch c {
	case CauseNetworkFailure:
		return "network_failure"
	case CausePolicyDisallow:
		return "policy_disallow"
	case CauseContentInvalid:
		return "content_invalid"
	case CauseStorageFailure:
		return "storage_failure"
	case CauseInvariantViolation:
		return "invariant_violation"
	case CauseEnvironment:
		return "environment"
	default:
		return "unknown"
	}
}

type Attribute struct {
	Key   AttributeKey
	Value string
}

func NewAttr(key AttributeKey, val string) Attribute {
	return Attribute{
		Key:   key,
		Value: val,
	}
}

type AttributeKey string

const (
	AttrURL        AttributeKey = "url"
	AttrHost       AttributeKey = "host"
	AttrPath       AttributeKey = "path"
	AttrField      AttributeKey = "field"
	AttrPass       AttributeKey = "pass"
	AttrPhase      AttributeKey = "phase"
	AttrHTTPStatus AttributeKey = "http_status"
	AttrMimeType   AttributeKey = "mime_type"
	AttrResourceID AttributeKey = "resource_id"
	AttrWritePath  AttributeKey = "write_path"
	AttrMessage    AttributeKey = "message"
)

/*
ConversionStats
  - Terminal summary of one ProcessHTML call
  - Derived by the pipeline from its own result, never from metadata
  - Recorded exactly once per conversion
*/
type ConversionStats struct {
	Attempted        int
	ResourcesCreated int
	Failed           int
	Warnings         int
	Degraded         bool
	Duration         time.Duration
}
