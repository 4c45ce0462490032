package databases

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// ProbeState is the readiness state of the vector index at startup.
type ProbeState int

const (
	StateProbing ProbeState = iota
	StateReady
	StateFailed
)

func (s ProbeState) String() string {
	switch s {
	case StateProbing:
		return "probing"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

// ReadinessProbe drives the bounded startup retry of EnsureCollection.
// The store may be transiently unavailable right after process start;
// transient faults are retried on a fixed schedule, structural faults
// fail immediately, and exhausting the schedule is fatal.
type ReadinessProbe struct {
	Attempts int
	Interval time.Duration

	state ProbeState
}

func NewReadinessProbe(attempts int, interval time.Duration) *ReadinessProbe {
	if attempts <= 0 {
		attempts = 10
	}
	if interval <= 0 {
		interval = 3 * time.Second
	}
	return &ReadinessProbe{
		Attempts: attempts,
		Interval: interval,
		state:    StateProbing,
	}
}

func (p *ReadinessProbe) State() ProbeState {
	return p.state
}

// WaitReady probes the collection until the store answers, the retry
// budget is exhausted, or the context is cancelled.
func (p *ReadinessProbe) WaitReady(ctx context.Context, provider DatabaseProvider, collection string, vectorSize uint64) error {
	p.state = StateProbing

	var lastErr error
	for attempt := 1; attempt <= p.Attempts; attempt++ {
		err := provider.EnsureCollection(ctx, collection, vectorSize)
		if err == nil {
			p.state = StateReady
			return nil
		}

		if !errors.Is(err, ErrIndexNotReady) {
			// Structural failure: retrying will not help.
			p.state = StateFailed
			return fmt.Errorf("index creation failed: %w", err)
		}

		lastErr = err
		slog.Warn("vector index not ready, retrying",
			"attempt", attempt,
			"max_attempts", p.Attempts,
			"interval", p.Interval)

		if attempt == p.Attempts {
			break
		}

		select {
		case <-ctx.Done():
			p.state = StateFailed
			return ctx.Err()
		case <-time.After(p.Interval):
		}
	}

	p.state = StateFailed
	return fmt.Errorf("vector index not ready after %d attempts: %w", p.Attempts, lastErr)
}
