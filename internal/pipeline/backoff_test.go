package pipeline

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBackoffDelay_Bounds(t *testing.T) {
	b := NewBackoff(100*time.Millisecond, 2*time.Second).WithRand(rand.New(rand.NewSource(42)))

	tests := []struct {
		attempt int
		ceiling time.Duration
	}{
		{0, 100 * time.Millisecond},
		{1, 200 * time.Millisecond},
		{2, 400 * time.Millisecond},
		{3, 800 * time.Millisecond},
		{4, 1600 * time.Millisecond},
		{5, 2 * time.Second},
		{10, 2 * time.Second},
	}

	for _, tt := range tests {
		// Jitter keeps the delay in [ceiling/2, ceiling)
		for i := 0; i < 50; i++ {
			d := b.Delay(tt.attempt)
			assert.GreaterOrEqual(t, d, tt.ceiling/2, "attempt %d", tt.attempt)
			assert.Less(t, d, tt.ceiling, "attempt %d", tt.attempt)
		}
	}
}

func TestBackoffDelay_CappedAtMax(t *testing.T) {
	b := NewBackoff(time.Second, 5*time.Second).WithRand(rand.New(rand.NewSource(1)))

	for attempt := 0; attempt < 30; attempt++ {
		assert.Less(t, b.Delay(attempt), 5*time.Second)
	}
}

func TestBackoffDelay_Deterministic(t *testing.T) {
	a := NewBackoff(100*time.Millisecond, time.Second).WithRand(rand.New(rand.NewSource(7)))
	b := NewBackoff(100*time.Millisecond, time.Second).WithRand(rand.New(rand.NewSource(7)))

	for attempt := 0; attempt < 5; attempt++ {
		assert.Equal(t, a.Delay(attempt), b.Delay(attempt))
	}
}
