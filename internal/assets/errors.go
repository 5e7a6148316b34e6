package assets

import (
	"fmt"

	"github.com/rohmanhakim/clipmd/internal/metadata"
	"github.com/rohmanhakim/clipmd/pkg/failure"
)

type AssetsErrorCause string

const (
	ErrCauseMalformedDataURI     AssetsErrorCause = "malformed data uri"
	ErrCauseUnsupportedMediaType AssetsErrorCause = "unsupported media type"
	ErrCauseOversize             AssetsErrorCause = "image exceeds size limit"
	ErrCauseImageDownloadFailure AssetsErrorCause = "failed to download image"
	ErrCausePersistFailure       AssetsErrorCause = "failed to persist image"
)

type AssetsError struct {
	Message   string
	Retryable bool
	Cause     AssetsErrorCause
}

func (e *AssetsError) Error() string {
	return fmt.Sprintf("assets error: %s", e.Cause)
}

func (e *AssetsError) Severity() failure.Severity {
	if e.Retryable {
		return failure.SeverityRecoverable
	}
	return failure.SeverityFatal
}

func (e *AssetsError) IsRetryable() bool {
	return e.Retryable
}

// mapAssetsErrorToMetadataCause maps assets-local error semantics
// to the canonical metadata.ErrorCause table.
//
// This mapping is observational only and MUST NOT be used
// to derive control-flow decisions.
func mapAssetsErrorToMetadataCause(err *AssetsError) metadata.ErrorCause {
	switch err.Cause {
	case ErrCauseMalformedDataURI, ErrCauseUnsupportedMediaType, ErrCauseOversize:
		return metadata.CauseContentInvalid
	case ErrCauseImageDownloadFailure:
		return metadata.CauseNetworkFailure
	case ErrCausePersistFailure:
		return metadata.CauseStorageFailure
	default:
		return metadata.CauseUnknown
	}
}
