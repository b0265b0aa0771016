package backoff

import (
	"context"
	"math/rand"
	"time"
)

// Policy describes an exponential backoff with cap and jitter.
type Policy struct {
	Min    time.Duration
	Max    time.Duration
	Factor float64
	Jitter float64
}

// Default provides conservative reconnect defaults.
func Default() Policy {
	return Policy{
		Min:    250 * time.Millisecond,
		Max:    5 * time.Second,
		Factor: 2.0,
		Jitter: 0.2,
	}
}

// IsZero reports whether the policy is unset.
func (p Policy) IsZero() bool {
	return p.Min == 0 && p.Max == 0 && p.Factor == 0 && p.Jitter == 0
}

// Next returns the wait before the given attempt (1-based).
func (p Policy) Next(attempt int) time.Duration {
	if attempt <= 0 {
		attempt = 1
	}
	min := p.Min
	if min <= 0 {
		min = 100 * time.Millisecond
	}
	max := p.Max
	if max <= 0 {
		max = 5 * time.Second
	}
	factor := p.Factor
	if factor <= 1 {
		factor = 2.0
	}

	wait := min
	for i := 1; i < attempt; i++ {
		next := time.Duration(float64(wait) * factor)
		if next > max {
			wait = max
			break
		}
		wait = next
	}

	if p.Jitter <= 0 {
		return wait
	}
	jitter := p.Jitter
	if jitter > 1 {
		jitter = 1
	}
	delta := float64(wait) * jitter
	return wait - time.Duration(delta) + time.Duration(rand.Float64()*2*delta)
}

// Sleep waits out the backoff for attempt, returning early when ctx is done.
func (p Policy) Sleep(ctx context.Context, attempt int) {
	wait := p.Next(attempt)
	if wait <= 0 {
		return
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
