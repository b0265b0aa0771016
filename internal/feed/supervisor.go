package feed

import (
	"context"
	"errors"
	"sync"

	"main/internal/model"
	"main/internal/model/enum"
	"main/pkg/backoff"
	"main/pkg/exception"
)

// SupervisorConfig controls per-market retry and fallback policy.
type SupervisorConfig struct {
	Adapter    Adapter
	Sim        SimulatorConfig
	MaxRetries int
	Backoff    backoff.Policy
}

// Supervisor owns the feed lifecycle of a single market: it runs the real
// adapter while it lives, retries it within a bounded budget, and falls back
// to the simulator for the rest of its life once the budget is exhausted or
// the provider turns out to be geo-blocked. All events for the market are
// emitted from one goroutine, so subscribers observe them in order.
type Supervisor struct {
	market model.Market
	cfg    SupervisorConfig
	emit   func(Event)
	cancel context.CancelFunc
	done   chan struct{}

	mu       sync.Mutex
	state    enum.FeedState
	attempts int
	lastErr  string
}

// StartSupervisor spawns the supervisor goroutine. Stop tears it down and
// discards all of its state; a later restart begins fresh at Connecting.
func StartSupervisor(market model.Market, cfg SupervisorConfig, emit func(Event)) *Supervisor {
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 2
	}
	if cfg.Backoff.IsZero() {
		cfg.Backoff = backoff.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Supervisor{
		market: market,
		cfg:    cfg,
		emit:   emit,
		cancel: cancel,
		done:   make(chan struct{}),
		state:  enum.FeedStateConnecting,
	}
	go s.run(ctx)
	return s
}

// Stop cancels timers and sockets and waits for the run goroutine to exit.
// No event is emitted after Stop returns.
func (s *Supervisor) Stop() {
	s.cancel()
	<-s.done
}

// Status returns the current state, attempt counter and last error reason.
func (s *Supervisor) Status() (enum.FeedState, int, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state, s.attempts, s.lastErr
}

func (s *Supervisor) run(ctx context.Context) {
	defer close(s.done)

	if s.cfg.Adapter == nil {
		s.simulate(ctx, "no upstream configured")
		return
	}

	attempt := 0
	for {
		if ctx.Err() != nil {
			return
		}
		s.transition(enum.FeedStateConnecting, attempt, "")

		live := false
		err := s.cfg.Adapter.Stream(ctx, s.market, func(c model.Candle) {
			if !live {
				live = true
				s.transition(enum.FeedStateLive, attempt, "")
			}
			candle := c
			s.emit(Event{
				Market: s.market,
				Source: enum.FeedSourceLive,
				State:  enum.FeedStateLive,
				Candle: &candle,
			})
		})
		if ctx.Err() != nil {
			return
		}

		reason := ""
		if err != nil {
			reason = err.Error()
		}

		// A geo-block is structural, not transient. Skip the budget.
		if errors.Is(err, exception.ErrFeedGeoBlocked) {
			s.simulate(ctx, reason)
			return
		}

		attempt++
		if attempt > s.cfg.MaxRetries {
			s.simulate(ctx, reason)
			return
		}
		s.transition(enum.FeedStateError, attempt, reason)
		s.cfg.Backoff.Sleep(ctx, attempt)
	}
}

// simulate is terminal: once a supervisor starts simulating it never goes
// back to the real feed for the rest of its life.
func (s *Supervisor) simulate(ctx context.Context, reason string) {
	if ctx.Err() != nil {
		return
	}
	s.transition(enum.FeedStateSimulated, s.currentAttempts(), reason)

	sim := NewSimulator(s.market, s.cfg.Sim)
	sim.Run(ctx, func(c model.Candle) {
		candle := c
		s.emit(Event{
			Market: s.market,
			Source: enum.FeedSourceSimulation,
			State:  enum.FeedStateSimulated,
			Candle: &candle,
		})
	})
}

func (s *Supervisor) transition(state enum.FeedState, attempt int, reason string) {
	s.mu.Lock()
	s.state = state
	s.attempts = attempt
	s.lastErr = reason
	s.mu.Unlock()

	source := enum.FeedSourceLive
	if state == enum.FeedStateSimulated {
		source = enum.FeedSourceSimulation
	}
	s.emit(Event{
		Market:  s.market,
		Source:  source,
		State:   state,
		Attempt: attempt,
		Reason:  reason,
	})
}

func (s *Supervisor) currentAttempts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.attempts
}
