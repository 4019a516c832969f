package resilience

import (
	"errors"
	"testing"
	"time"
)

func TestCircuitBreaker(t *testing.T) {
	t.Parallel()

	now := time.Unix(0, 0)
	cb := NewCircuitBreaker("gemini", 2, 10*time.Second)
	cb.now = func() time.Time { return now }

	failure := errors.New("boom")

	if !cb.Allow() {
		t.Fatal("closed breaker must allow calls")
	}
	cb.RecordResult(failure)
	if cb.State() != CircuitClosed {
		t.Fatalf("state = %s after one failure, want closed", cb.State())
	}
	cb.RecordResult(failure)
	if cb.State() != CircuitOpen {
		t.Fatalf("state = %s after threshold, want open", cb.State())
	}
	if cb.Allow() {
		t.Fatal("open breaker must reject calls")
	}

	now = now.Add(11 * time.Second)
	if !cb.Allow() {
		t.Fatal("breaker must let a trial call through after the reset timeout")
	}
	if cb.Allow() {
		t.Fatal("only one trial call may run while half-open")
	}

	cb.RecordResult(failure)
	if cb.State() != CircuitOpen {
		t.Fatalf("failed trial call must reopen, state = %s", cb.State())
	}

	now = now.Add(11 * time.Second)
	cb.Allow()
	cb.RecordResult(nil)
	if cb.State() != CircuitClosed {
		t.Fatalf("successful trial call must close, state = %s", cb.State())
	}
}
