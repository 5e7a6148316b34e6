package fetcher

import (
	"context"

	"github.com/rohmanhakim/clipmd/pkg/failure"
	"github.com/rohmanhakim/clipmd/pkg/retry"
)

type Fetcher interface {
	Fetch(
		ctx context.Context,
		fetchParam FetchParam,
		retryParam retry.RetryParam,
	) (FetchResult, failure.ClassifiedError)
}

// Compile-time interface check
var _ Fetcher = (*ImageFetcher)(nil)
