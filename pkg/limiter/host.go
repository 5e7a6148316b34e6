package limiter

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/rohmanhakim/clipmd/pkg/timeutil"
)

// HostLimiter spaces out consecutive requests to the same host.
// Responsibilities:
// - Bookkeep each hostname's last fetch timestamp
// - Grow a per-host backoff after throttling responses
// - Compute how long the next request to a host must wait
type HostLimiter struct {
	mu           sync.Mutex
	baseDelay    time.Duration
	jitter       time.Duration
	backoffParam timeutil.BackoffParam
	hosts        map[string]hostTiming
	rng          *rand.Rand
	now          func() time.Time
}

func NewHostLimiter(
	baseDelay time.Duration,
	jitter time.Duration,
	randomSeed int64,
	backoffParam timeutil.BackoffParam,
) *HostLimiter {
	return &HostLimiter{
		baseDelay:    baseDelay,
		jitter:       jitter,
		backoffParam: backoffParam,
		hosts:        make(map[string]hostTiming),
		rng:          rand.New(rand.NewSource(randomSeed)),
		now:          time.Now,
	}
}

// Backoff increments the host's backoff counter.
func (l *HostLimiter) Backoff(host string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	timing := l.hosts[host]
	timing.backoffCount++
	timing.backoffDelay = timeutil.ExponentialBackoffDelay(timing.backoffCount, 0, *l.rng, l.backoffParam)
	l.hosts[host] = timing
}

// ResetBackoff clears backoff state after a successful request.
func (l *HostLimiter) ResetBackoff(host string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if timing, exists := l.hosts[host]; exists {
		timing.backoffCount = 0
		timing.backoffDelay = 0
		l.hosts[host] = timing
	}
}

func (l *HostLimiter) MarkLastFetchAsNow(host string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	timing := l.hosts[host]
	timing.lastFetchAt = l.now()
	l.hosts[host] = timing
}

// ResolveDelay returns the remaining wait before host may be fetched again:
// max(baseDelay, backoffDelay) + jitter, minus time elapsed since the last fetch.
// Hosts never fetched have no delay.
func (l *HostLimiter) ResolveDelay(host string) time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()

	timing, exists := l.hosts[host]
	if !exists || timing.lastFetchAt.IsZero() {
		return 0
	}

	delay := timeutil.MaxDuration([]time.Duration{l.baseDelay, timing.backoffDelay})
	delay += timeutil.ComputeJitter(l.jitter, *l.rng)

	elapsed := l.now().Sub(timing.lastFetchAt)
	if elapsed < delay {
		return delay - elapsed
	}
	return 0
}

// Wait blocks until host may be fetched or ctx is done.
func (l *HostLimiter) Wait(ctx context.Context, host string) error {
	delay := l.ResolveDelay(host)
	if delay <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// BackoffCount reports the host's current backoff counter.
func (l *HostLimiter) BackoffCount(host string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.hosts[host].backoffCount
}
