// Package scheduler runs the update tick on a fixed period that can be
// changed while running.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/sqve/avalanche/internal/errors"
	"github.com/sqve/avalanche/internal/logger"
)

type State int

const (
	Idle State = iota
	Armed
	Stopped
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Armed:
		return "armed"
	default:
		return "stopped"
	}
}

// TickFunc is one update pass. It receives the context given to Start.
type TickFunc func(ctx context.Context)

type Scheduler struct {
	clock clockwork.Clock
	tick  TickFunc

	mu       sync.Mutex
	state    State
	ctx      context.Context
	interval time.Duration
	cancel   context.CancelFunc
	ticker   clockwork.Ticker

	// tickMu serializes tick bodies across re-arms.
	tickMu sync.Mutex
	loops  sync.WaitGroup
}

func New(clock clockwork.Clock, tick TickFunc) *Scheduler {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Scheduler{clock: clock, tick: tick}
}

func Minutes(n int) time.Duration {
	return time.Duration(n) * time.Minute
}

// Start arms the scheduler. The first tick runs immediately.
func (s *Scheduler) Start(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		return errors.ErrConfigInvalid("interval", errors.New("interval must be positive"))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != Idle {
		return errors.New("scheduler is " + s.state.String())
	}
	s.ctx = ctx
	s.state = Armed
	s.armLocked(interval)
	return nil
}

// Rearm replaces the running period with interval and ticks immediately.
// It does not wait for an in-flight tick. Rearm is a no-op unless armed.
func (s *Scheduler) Rearm(interval time.Duration) {
	if interval <= 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != Armed {
		return
	}
	s.disarmLocked()
	s.armLocked(interval)
}

// Stop cancels the timer and waits for an in-flight tick. A stopped
// scheduler cannot be started again.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if s.state == Armed {
		s.disarmLocked()
	}
	s.state = Stopped
	s.mu.Unlock()

	s.loops.Wait()
}

func (s *Scheduler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Scheduler) Interval() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.interval
}

func (s *Scheduler) armLocked(interval time.Duration) {
	loopCtx, cancel := context.WithCancel(s.ctx)
	ticker := s.clock.NewTicker(interval)

	s.interval = interval
	s.cancel = cancel
	s.ticker = ticker

	logger.WithComponent("scheduler").Debug("armed", "interval", interval.String())

	s.loops.Add(1)
	go s.loop(loopCtx, ticker)
}

func (s *Scheduler) disarmLocked() {
	s.cancel()
	s.ticker.Stop()
}

func (s *Scheduler) loop(loopCtx context.Context, ticker clockwork.Ticker) {
	defer s.loops.Done()

	s.run(loopCtx)
	for {
		select {
		case <-loopCtx.Done():
			return
		case <-ticker.Chan():
			s.run(loopCtx)
		}
	}
}

func (s *Scheduler) run(loopCtx context.Context) {
	s.tickMu.Lock()
	defer s.tickMu.Unlock()

	// Superseded while waiting for the previous tick.
	if loopCtx.Err() != nil {
		return
	}

	start := s.clock.Now()
	s.tick(s.ctx)
	logger.WithComponent("scheduler").Performance("tick", s.clock.Since(start))
}
