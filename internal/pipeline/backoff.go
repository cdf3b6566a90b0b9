package pipeline

import (
	"math/rand"
	"time"
)

// Backoff computes retry delays: base delay doubling per attempt, capped
// at max, with jitter so parallel workers don't retry in lockstep.
type Backoff struct {
	Base time.Duration
	Max  time.Duration

	// rng is injectable for deterministic tests; nil uses the package rand
	rng *rand.Rand
}

// NewBackoff creates a backoff policy
func NewBackoff(base, max time.Duration) Backoff {
	return Backoff{Base: base, Max: max}
}

// WithRand returns a copy using the given source for jitter
func (b Backoff) WithRand(rng *rand.Rand) Backoff {
	b.rng = rng
	return b
}

// Delay returns the delay before retry number attempt (0-based).
// The returned value is in [d/2, d) where d = min(base << attempt, max).
func (b Backoff) Delay(attempt int) time.Duration {
	d := b.Base
	for i := 0; i < attempt; i++ {
		d *= 2
		if d >= b.Max {
			d = b.Max
			break
		}
	}
	if d > b.Max {
		d = b.Max
	}

	half := d / 2
	if half <= 0 {
		return d
	}
	var jitter time.Duration
	if b.rng != nil {
		jitter = time.Duration(b.rng.Int63n(int64(half)))
	} else {
		jitter = time.Duration(rand.Int63n(int64(half)))
	}
	return half + jitter
}
