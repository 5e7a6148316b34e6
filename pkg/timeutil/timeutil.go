package timeutil

import (
	"math"
	"math/rand"
	"time"
)

// BackoffParam describes an exponential backoff curve.
//
//	initialDuration := 200 * time.Millisecond
//	multiplier := 2.0
//	maxDuration := 5 * time.Second
type BackoffParam struct {
	initialDuration time.Duration
	multiplier      float64
	maxDuration     time.Duration
}

func NewBackoffParam(
	initialDuration time.Duration,
	multiplier float64,
	maxDuration time.Duration,
) BackoffParam {
	return BackoffParam{
		initialDuration: initialDuration,
		multiplier:      multiplier,
		maxDuration:     maxDuration,
	}
}

func (b BackoffParam) InitialDuration() time.Duration {
	return b.initialDuration
}

func (b BackoffParam) Multiplier() float64 {
	return b.multiplier
}

func (b BackoffParam) MaxDuration() time.Duration {
	return b.maxDuration
}

// DurationPtr returns a pointer to d.
func DurationPtr(d time.Duration) *time.Duration {
	return &d
}

// MaxDuration returns the largest value in durations, or zero for an empty slice.
func MaxDuration(durations []time.Duration) time.Duration {
	if len(durations) == 0 {
		return 0
	}
	largest := durations[0]
	for _, d := range durations[1:] {
		if d > largest {
			largest = d
		}
	}
	return largest
}

// ComputeJitter returns a random duration in [0, max). Non-positive max yields 0.
func ComputeJitter(max time.Duration, rng rand.Rand) time.Duration {
	if max <= 0 {
		return 0
	}
	return time.Duration(rng.Int63n(int64(max)))
}

// ExponentialBackoffDelay computes initial * multiplier^(count-1), capped at the
// param's max duration, plus up to jitter of random variance.
// Counts below 1 are treated as 1.
func ExponentialBackoffDelay(
	backoffCount int,
	jitter time.Duration,
	rng rand.Rand,
	backoffParam BackoffParam,
) time.Duration {
	if backoffCount < 1 {
		backoffCount = 1
	}

	initial := float64(backoffParam.InitialDuration())
	delay := initial * math.Pow(backoffParam.Multiplier(), float64(backoffCount-1))

	capped := float64(backoffParam.MaxDuration())
	if capped > 0 && delay > capped {
		delay = capped
	}
	if delay < 0 || math.IsNaN(delay) {
		delay = 0
	}

	return time.Duration(delay) + ComputeJitter(jitter, rng)
}
