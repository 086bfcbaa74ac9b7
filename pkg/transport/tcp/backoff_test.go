package tcp

import (
	"testing"
	"time"
)

func TestBackoffGrowth(t *testing.T) {
	b := NewBackoff()

	for i := 0; i < 5; i++ {
		delay := b.Next()

		// Each delay stays within the jitter band of the expected base.
		base := InitialBackoff << i
		min := time.Duration(float64(base) * (1 - BackoffJitter))
		max := time.Duration(float64(base) * (1 + BackoffJitter))
		if delay < min || delay > max {
			t.Errorf("attempt %d: delay %v outside [%v, %v]", i, delay, min, max)
		}
	}

	if b.Attempts() != 5 {
		t.Errorf("Attempts: got %d, want 5", b.Attempts())
	}
}

func TestBackoffCap(t *testing.T) {
	b := NewBackoff()

	for i := 0; i < 20; i++ {
		b.Next()
	}

	delay := b.Next()
	max := time.Duration(float64(MaxBackoff) * (1 + BackoffJitter))
	if delay > max {
		t.Errorf("capped delay %v exceeds %v", delay, max)
	}
}

func TestBackoffReset(t *testing.T) {
	b := NewBackoff()
	for i := 0; i < 5; i++ {
		b.Next()
	}

	b.Reset()
	if b.Attempts() != 0 {
		t.Errorf("Attempts after reset: got %d, want 0", b.Attempts())
	}

	delay := b.Next()
	max := time.Duration(float64(InitialBackoff) * (1 + BackoffJitter))
	if delay > max {
		t.Errorf("delay after reset %v exceeds %v", delay, max)
	}
}
