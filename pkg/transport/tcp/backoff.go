package tcp

import (
	"math/rand"
	"time"
)

// Backoff defaults.
const (
	// InitialBackoff is the first retry delay.
	InitialBackoff = 1 * time.Second

	// MaxBackoff caps the retry delay.
	MaxBackoff = 60 * time.Second

	// BackoffMultiplier is the exponential growth factor.
	BackoffMultiplier = 2.0

	// BackoffJitter is the random jitter fraction applied to each delay.
	BackoffJitter = 0.25
)

// Backoff computes exponential retry delays with jitter for redialing a
// server. Not safe for concurrent use.
type Backoff struct {
	current  time.Duration
	attempts int
}

// NewBackoff creates a backoff starting at InitialBackoff.
func NewBackoff() *Backoff {
	return &Backoff{current: InitialBackoff}
}

// Next returns the delay to wait before the next attempt and advances the
// backoff.
func (b *Backoff) Next() time.Duration {
	delay := b.addJitter(b.current)

	b.attempts++
	next := time.Duration(float64(b.current) * BackoffMultiplier)
	if next > MaxBackoff {
		next = MaxBackoff
	}
	b.current = next

	return delay
}

// Reset returns the backoff to its initial state after a successful
// connection.
func (b *Backoff) Reset() {
	b.current = InitialBackoff
	b.attempts = 0
}

// Attempts returns how many delays have been handed out since the last
// reset.
func (b *Backoff) Attempts() int {
	return b.attempts
}

// addJitter spreads the delay by ±BackoffJitter to avoid thundering herds
// of reconnecting clients.
func (b *Backoff) addJitter(d time.Duration) time.Duration {
	jitter := float64(d) * BackoffJitter
	offset := (rand.Float64()*2 - 1) * jitter
	return time.Duration(float64(d) + offset)
}
