package resilience

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gkosnia163/ollama-agent/domain/agent"
	"github.com/gkosnia163/ollama-agent/domain/config"
	"github.com/gkosnia163/ollama-agent/infrastructure/planner"
)

// countingPlanner fails the first failures calls, then succeeds.
type countingPlanner struct {
	failures int32
	calls    atomic.Int32
	block    bool
}

func (p *countingPlanner) Decide(ctx context.Context, _ planner.Request) (agent.Decision, error) {
	n := p.calls.Add(1)
	if p.block {
		<-ctx.Done()
		return agent.Decision{}, ctx.Err()
	}
	if n <= p.failures {
		return agent.Decision{}, errors.New("transient")
	}
	return agent.NewDecision(agent.ActionDetectFailures, "ok"), nil
}

func fastExecutor(opts ...Option) *Executor {
	base := []Option{WithRetryDelay(time.Millisecond), WithTimeout(time.Second)}
	return NewExecutorWithOptions(append(base, opts...)...)
}

func TestDefaultExecutorConfig(t *testing.T) {
	t.Parallel()

	config := DefaultExecutorConfig()

	if config.RetryMaxAttempts != 2 {
		t.Errorf("RetryMaxAttempts = %d, want 2", config.RetryMaxAttempts)
	}
	if config.AttemptTimeout != 60*time.Second {
		t.Errorf("AttemptTimeout = %v, want 60s", config.AttemptTimeout)
	}
	if config.CircuitBreakerThreshold != 5 {
		t.Errorf("CircuitBreakerThreshold = %d, want 5", config.CircuitBreakerThreshold)
	}
}

func TestExecutor_Decide_Success(t *testing.T) {
	t.Parallel()

	p := &countingPlanner{}
	d, err := fastExecutor().Decide(context.Background(), p, planner.Request{Phase: agent.PhaseDetect})
	if err != nil {
		t.Fatalf("Decide() error = %v", err)
	}
	if d.Action != agent.ActionDetectFailures {
		t.Errorf("Action = %s", d.Action)
	}
	if p.calls.Load() != 1 {
		t.Errorf("calls = %d, want 1", p.calls.Load())
	}
}

func TestExecutor_Decide_RetriesTransientFailure(t *testing.T) {
	t.Parallel()

	p := &countingPlanner{failures: 1}
	if _, err := fastExecutor().Decide(context.Background(), p, planner.Request{}); err != nil {
		t.Fatalf("Decide() error = %v", err)
	}
	if p.calls.Load() != 2 {
		t.Errorf("calls = %d, want 2", p.calls.Load())
	}
}

func TestExecutor_Decide_BoundedAttempts(t *testing.T) {
	t.Parallel()

	p := &countingPlanner{failures: 100}
	_, err := fastExecutor(WithRetryAttempts(3)).Decide(context.Background(), p, planner.Request{})
	if err == nil {
		t.Fatal("Decide() should fail once attempts are spent")
	}
	if got := p.calls.Load(); got != 3 {
		t.Errorf("calls = %d, want 3", got)
	}
}

func TestExecutor_Decide_AttemptTimeout(t *testing.T) {
	t.Parallel()

	p := &countingPlanner{block: true}
	exec := NewExecutorWithOptions(
		WithRetryAttempts(1),
		WithTimeout(20*time.Millisecond),
	)

	start := time.Now()
	_, err := exec.Decide(context.Background(), p, planner.Request{})
	if err == nil {
		t.Fatal("Decide() should fail when the provider hangs")
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("Decide() took %v, timeout not applied", elapsed)
	}
}

func TestExecutor_CircuitBreakerTrips(t *testing.T) {
	t.Parallel()

	p := &countingPlanner{failures: 1000}
	exec := fastExecutor(WithRetryAttempts(1), WithCircuitBreakerThreshold(2))

	if state := exec.CircuitBreakerState(); state.String() != "closed" {
		t.Fatalf("initial CircuitBreakerState() = %v, want closed", state)
	}
	for range 2 {
		_, _ = exec.Decide(context.Background(), p, planner.Request{})
	}
	if !exec.Tripped() {
		t.Error("breaker should trip after consecutive failures")
	}

	before := p.calls.Load()
	if _, err := exec.Decide(context.Background(), p, planner.Request{}); err == nil {
		t.Error("open breaker should reject the call")
	}
	if p.calls.Load() != before {
		t.Error("open breaker should not reach the planner")
	}
}

func TestFromConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultExecutorConfig()
	FromConfig(config.ResilienceConfig{
		MaxAttempts:      4,
		InitialDelay:     config.Duration(time.Second),
		Timeout:          config.Duration(5 * time.Second),
		BreakerThreshold: 9,
	})(&cfg)

	if cfg.RetryMaxAttempts != 4 || cfg.RetryInitialDelay != time.Second || cfg.AttemptTimeout != 5*time.Second || cfg.CircuitBreakerThreshold != 9 {
		t.Errorf("config = %+v", cfg)
	}
}
