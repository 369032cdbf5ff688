package retry

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	avErrors "github.com/sqve/avalanche/internal/errors"
)

func fastPolicy() Policy {
	return Policy{
		MaxAttempts:   3,
		BaseDelay:     5 * time.Millisecond,
		MaxDelay:      20 * time.Millisecond,
		JitterEnabled: false,
	}
}

func TestDefaultPolicy(t *testing.T) {
	policy := DefaultPolicy()

	if policy.MaxAttempts != 3 {
		t.Errorf("expected MaxAttempts to be 3, got %d", policy.MaxAttempts)
	}
	if policy.BaseDelay != 200*time.Millisecond {
		t.Errorf("expected BaseDelay to be 200ms, got %v", policy.BaseDelay)
	}
	if policy.MaxDelay != 2*time.Second {
		t.Errorf("expected MaxDelay to be 2s, got %v", policy.MaxDelay)
	}
	if !policy.JitterEnabled {
		t.Error("expected JitterEnabled to be true")
	}
}

func TestDoSuccess(t *testing.T) {
	calls := 0
	err := Do(context.Background(), fastPolicy(), func(context.Context) error {
		calls++
		return nil
	})
	if err != nil {
		t.Errorf("expected no error, got %v", err)
	}
	if calls != 1 {
		t.Errorf("expected one call, got %d", calls)
	}
}

func TestDoRetriesLockHeld(t *testing.T) {
	calls := 0
	err := Do(context.Background(), fastPolicy(), func(context.Context) error {
		calls++
		if calls < 3 {
			return avErrors.ErrLockHeld("/tmp/state.lock", 42)
		}
		return nil
	})
	if err != nil {
		t.Errorf("expected no error, got %v", err)
	}
	if calls != 3 {
		t.Errorf("expected three calls, got %d", calls)
	}
}

func TestDoStopsOnNonRetryable(t *testing.T) {
	calls := 0
	err := Do(context.Background(), fastPolicy(), func(context.Context) error {
		calls++
		return avErrors.ErrNetworkOrRemote("origin", errors.New("unreachable"))
	})
	if err == nil {
		t.Fatal("expected an error")
	}
	if calls != 1 {
		t.Errorf("expected one call, got %d", calls)
	}
	if !avErrors.IsAvalancheError(err, avErrors.ErrCodeNetworkOrRemote) {
		t.Errorf("expected NETWORK_OR_REMOTE in chain, got %v", err)
	}
}

func TestDoStopsOnPlainError(t *testing.T) {
	calls := 0
	_ = Do(context.Background(), fastPolicy(), func(context.Context) error {
		calls++
		return errors.New("boom")
	})
	if calls != 1 {
		t.Errorf("expected one call, got %d", calls)
	}
}

func TestDoExhaustsAttempts(t *testing.T) {
	calls := 0
	err := Do(context.Background(), fastPolicy(), func(context.Context) error {
		calls++
		return avErrors.ErrStoreIO("/tmp/state.toml", errors.New("busy"))
	})
	if err == nil {
		t.Fatal("expected an error")
	}
	if calls != 3 {
		t.Errorf("expected three calls, got %d", calls)
	}
	if !strings.Contains(err.Error(), "after 3 attempts") {
		t.Errorf("unexpected error message: %v", err)
	}
	if !avErrors.IsAvalancheError(err, avErrors.ErrCodeStoreIO) {
		t.Errorf("expected STORE_IO in chain, got %v", err)
	}
}

func TestDoCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := Do(ctx, fastPolicy(), func(context.Context) error {
		calls++
		return nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if calls != 0 {
		t.Errorf("expected no calls, got %d", calls)
	}
}

func TestDoCancelledWhileWaiting(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	policy := Policy{MaxAttempts: 3, BaseDelay: time.Hour, MaxDelay: time.Hour}

	err := Do(ctx, policy, func(context.Context) error {
		cancel()
		return avErrors.ErrLockHeld("/tmp/state.lock", 1)
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestBackoff(t *testing.T) {
	policy := Policy{BaseDelay: 100 * time.Millisecond, MaxDelay: 300 * time.Millisecond}

	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{1, 100 * time.Millisecond},
		{2, 200 * time.Millisecond},
		{3, 300 * time.Millisecond},
		{6, 300 * time.Millisecond},
	}

	for _, tt := range tests {
		if got := Backoff(tt.attempt, policy); got != tt.want {
			t.Errorf("Backoff(%d) = %v, want %v", tt.attempt, got, tt.want)
		}
	}
}

func TestBackoffJitterBounds(t *testing.T) {
	policy := Policy{BaseDelay: 100 * time.Millisecond, MaxDelay: time.Second, JitterEnabled: true}

	for i := 0; i < 50; i++ {
		got := Backoff(1, policy)
		if got < 75*time.Millisecond || got > 125*time.Millisecond {
			t.Fatalf("jittered delay %v outside ±25%%", got)
		}
	}
}
