package connection

import (
	"math"
	"math/rand"
	"time"
)

// Defaults for the reconnection schedule.
const (
	// InitialBackoff is the delay before the first reconnection attempt.
	InitialBackoff = 1 * time.Second

	// MaxBackoff caps the reconnection delay.
	MaxBackoff = 60 * time.Second

	// BackoffMultiplier is the factor by which the delay grows.
	BackoffMultiplier = 2.0

	// JitterFactor is the maximum jitter as a fraction of the base delay.
	JitterFactor = 0.25
)

// BackoffConfig customizes the reconnection schedule. Zero values fall
// back to the defaults above.
type BackoffConfig struct {
	Initial    time.Duration
	Max        time.Duration
	Multiplier float64
	Jitter     float64
}

// Backoff produces exponentially growing delays between reconnection
// attempts. It is not safe for concurrent use; Retry drives it from a
// single goroutine.
type Backoff struct {
	cfg     BackoffConfig
	attempt int
	rng     *rand.Rand
}

// NewBackoff returns a Backoff with the default schedule
// (1s, 2s, 4s, ... capped at 60s, each with up to 25% jitter).
func NewBackoff() *Backoff {
	return NewBackoffWithConfig(BackoffConfig{})
}

// NewBackoffWithConfig returns a Backoff with a custom schedule.
func NewBackoffWithConfig(cfg BackoffConfig) *Backoff {
	if cfg.Initial <= 0 {
		cfg.Initial = InitialBackoff
	}
	if cfg.Max <= 0 {
		cfg.Max = MaxBackoff
	}
	if cfg.Multiplier <= 1 {
		cfg.Multiplier = BackoffMultiplier
	}
	if cfg.Jitter < 0 {
		cfg.Jitter = 0
	}

	return &Backoff{
		cfg: cfg,
		rng: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Next returns the delay before the following attempt (with jitter)
// and advances the schedule.
func (b *Backoff) Next() time.Duration {
	delay := b.delayFor(b.attempt)
	b.attempt++
	return b.addJitter(delay)
}

// Reset returns the schedule to its initial delay. Retry calls this
// once a connection has stayed up long enough to count as stable.
func (b *Backoff) Reset() {
	b.attempt = 0
}

// Attempts reports how many delays were handed out since the last reset.
func (b *Backoff) Attempts() int {
	return b.attempt
}

// delayFor computes the base delay for the nth attempt, capped at the
// configured maximum.
func (b *Backoff) delayFor(attempt int) time.Duration {
	d := float64(b.cfg.Initial) * math.Pow(b.cfg.Multiplier, float64(attempt))
	if max := float64(b.cfg.Max); d > max {
		d = max
	}
	return time.Duration(d)
}

func (b *Backoff) addJitter(d time.Duration) time.Duration {
	if b.cfg.Jitter <= 0 {
		return d
	}
	return d + time.Duration(float64(d)*b.cfg.Jitter*b.rng.Float64())
}
