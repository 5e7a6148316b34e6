package limiter

import "time"

// per-host timing state for image fetches
type hostTiming struct {
	lastFetchAt  time.Time
	backoffDelay time.Duration
	backoffCount int
}
