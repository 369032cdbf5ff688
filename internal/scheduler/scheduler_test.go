package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const wait = 2 * time.Second

func expectTick(t *testing.T, ticks <-chan struct{}) {
	t.Helper()
	select {
	case <-ticks:
	case <-time.After(wait):
		t.Fatal("expected a tick")
	}
}

func expectNoTick(t *testing.T, ticks <-chan struct{}) {
	t.Helper()
	select {
	case <-ticks:
		t.Fatal("unexpected tick")
	case <-time.After(50 * time.Millisecond):
	}
}

func blockUntilTicker(t *testing.T, clock *clockwork.FakeClock) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), wait)
	defer cancel()
	require.NoError(t, clock.BlockUntilContext(ctx, 1))
}

func newCounting(clock clockwork.Clock) (*Scheduler, chan struct{}) {
	ticks := make(chan struct{}, 16)
	return New(clock, func(context.Context) { ticks <- struct{}{} }), ticks
}

func TestStartTicksImmediatelyThenPeriodically(t *testing.T) {
	clock := clockwork.NewFakeClock()
	s, ticks := newCounting(clock)

	require.NoError(t, s.Start(context.Background(), Minutes(15)))
	defer s.Stop()

	expectTick(t, ticks)
	assert.Equal(t, Armed, s.State())

	blockUntilTicker(t, clock)
	clock.Advance(14 * time.Minute)
	expectNoTick(t, ticks)

	clock.Advance(time.Minute)
	expectTick(t, ticks)
}

func TestRearmToShorterIntervalFiresImmediately(t *testing.T) {
	clock := clockwork.NewFakeClock()
	s, ticks := newCounting(clock)

	require.NoError(t, s.Start(context.Background(), Minutes(15)))
	defer s.Stop()
	expectTick(t, ticks)

	s.Rearm(Minutes(5))
	expectTick(t, ticks)
	assert.Equal(t, Minutes(5), s.Interval())

	blockUntilTicker(t, clock)
	clock.Advance(5 * time.Minute)
	expectTick(t, ticks)

	// At minute 15 only the new period fires; the old one is gone.
	clock.Advance(5 * time.Minute)
	expectTick(t, ticks)
	clock.Advance(5 * time.Minute)
	expectTick(t, ticks)
	expectNoTick(t, ticks)
}

func TestTicksNeverOverlap(t *testing.T) {
	clock := clockwork.NewFakeClock()
	release := make(chan struct{})
	var running, maxRunning, total atomic.Int32

	s := New(clock, func(context.Context) {
		n := running.Add(1)
		if n > maxRunning.Load() {
			maxRunning.Store(n)
		}
		total.Add(1)
		<-release
		running.Add(-1)
	})

	require.NoError(t, s.Start(context.Background(), Minutes(1)))
	require.Eventually(t, func() bool { return running.Load() == 1 }, wait, time.Millisecond)

	done := make(chan struct{})
	go func() {
		s.Rearm(Minutes(2))
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(wait):
		t.Fatal("Rearm blocked on the in-flight tick")
	}

	close(release)
	require.Eventually(t, func() bool { return total.Load() == 2 }, wait, time.Millisecond)
	s.Stop()

	assert.Equal(t, int32(1), maxRunning.Load())
}

func TestStopWaitsForInFlightTick(t *testing.T) {
	clock := clockwork.NewFakeClock()
	started := make(chan struct{})
	var finished atomic.Bool

	s := New(clock, func(context.Context) {
		close(started)
		time.Sleep(50 * time.Millisecond)
		finished.Store(true)
	})

	require.NoError(t, s.Start(context.Background(), Minutes(1)))
	<-started
	s.Stop()

	assert.True(t, finished.Load())
	assert.Equal(t, Stopped, s.State())

	clock.Advance(time.Hour)
	assert.Error(t, s.Start(context.Background(), Minutes(1)))
}

func TestRearmWhileIdleIsIgnored(t *testing.T) {
	s, ticks := newCounting(clockwork.NewFakeClock())

	s.Rearm(Minutes(5))

	assert.Equal(t, Idle, s.State())
	expectNoTick(t, ticks)
}

func TestStartRejectsNonPositiveInterval(t *testing.T) {
	s, _ := newCounting(clockwork.NewFakeClock())
	assert.Error(t, s.Start(context.Background(), 0))
	assert.Equal(t, Idle, s.State())
}

func TestRearmAfterStopIsIgnored(t *testing.T) {
	s, ticks := newCounting(clockwork.NewFakeClock())
	require.NoError(t, s.Start(context.Background(), Minutes(15)))
	expectTick(t, ticks)
	s.Stop()

	s.Rearm(Minutes(5))

	assert.Equal(t, Stopped, s.State())
	assert.Equal(t, Minutes(15), s.Interval())
	expectNoTick(t, ticks)
}
