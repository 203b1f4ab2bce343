package telemetry

import (
	"context"
	"testing"
	"time"

	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

// setupTestMetrics builds a provider backed by a manual reader.
func setupTestMetrics(t *testing.T) (*metric.ManualReader, *MetricsProvider) {
	t.Helper()

	reader := metric.NewManualReader()
	provider := metric.NewMeterProvider(metric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	cfg := DefaultMetricsConfig()
	cfg.MeterProvider = provider
	mp := NewMetricsProvider(cfg)
	if mp.Error() != nil {
		t.Fatalf("failed to create metrics provider: %v", mp.Error())
	}

	return reader, mp
}

func collect(t *testing.T, reader *metric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("failed to collect metrics: %v", err)
	}

	out := make(map[string]metricdata.Metrics)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m
		}
	}
	return out
}

func sumInt64(t *testing.T, m metricdata.Metrics) int64 {
	t.Helper()

	sum, ok := m.Data.(metricdata.Sum[int64])
	if !ok {
		t.Fatalf("expected Sum[int64], got %T", m.Data)
	}
	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}
	return total
}

func TestMetricsProvider_RecordToolExecution(t *testing.T) {
	t.Parallel()

	reader, mp := setupTestMetrics(t)
	ctx := context.Background()

	mp.RecordToolExecution(ctx, "detect_failure_nodes", "DETECT", true, 2*time.Millisecond)
	mp.RecordToolExecution(ctx, "assign_repair_crew", "ACT", false, time.Millisecond)

	metrics := collect(t, reader)
	m, ok := metrics["agent.tool.executions"]
	if !ok {
		t.Fatal("agent.tool.executions metric not found")
	}
	if got := sumInt64(t, m); got != 2 {
		t.Errorf("expected 2 executions, got %d", got)
	}
	if _, ok := metrics["agent.tool.duration"]; !ok {
		t.Error("agent.tool.duration metric not found")
	}
}

func TestMetricsProvider_RecordDecision(t *testing.T) {
	t.Parallel()

	reader, mp := setupTestMetrics(t)
	ctx := context.Background()

	mp.RecordDecision(ctx, "ollama", "DETECT", false, 10*time.Millisecond)
	mp.RecordDecision(ctx, "ollama", "ANALYZE", true, 5*time.Millisecond)

	metrics := collect(t, reader)
	if got := sumInt64(t, metrics["agent.decisions"]); got != 2 {
		t.Errorf("decisions = %d, want 2", got)
	}
	if got := sumInt64(t, metrics["agent.decisions.fallback"]); got != 1 {
		t.Errorf("fallbacks = %d, want 1", got)
	}
}

func TestMetricsProvider_StepsAndTransitions(t *testing.T) {
	t.Parallel()

	reader, mp := setupTestMetrics(t)
	ctx := context.Background()

	mp.RecordStep(ctx, "DETECT", "detect_failure_nodes", false)
	mp.RecordStateTransition(ctx, "DETECT", "ANALYZE")
	mp.RecordStep(ctx, "ANALYZE", "estimate_impact", false)
	mp.RecordAssignment(ctx, true)
	mp.RecordAssignment(ctx, false)

	metrics := collect(t, reader)
	if got := sumInt64(t, metrics["agent.steps"]); got != 2 {
		t.Errorf("steps = %d, want 2", got)
	}
	if got := sumInt64(t, metrics["agent.phase.transitions"]); got != 1 {
		t.Errorf("transitions = %d, want 1", got)
	}
	if got := sumInt64(t, metrics["agent.assignments"]); got != 2 {
		t.Errorf("assignments = %d, want 2", got)
	}
}

func TestMetricsProvider_ActiveRuns(t *testing.T) {
	t.Parallel()

	reader, mp := setupTestMetrics(t)
	ctx := context.Background()

	mp.IncrementActiveRuns(ctx)
	mp.IncrementActiveRuns(ctx)
	mp.DecrementActiveRuns(ctx)
	mp.RecordRunDuration(ctx, time.Second, "completed", 6)

	metrics := collect(t, reader)
	if got := sumInt64(t, metrics["agent.runs.active"]); got != 1 {
		t.Errorf("active runs = %d, want 1", got)
	}
	if _, ok := metrics["agent.run.duration"]; !ok {
		t.Error("agent.run.duration metric not found")
	}
}

func TestMetricsProvider_CircuitBreaker(t *testing.T) {
	t.Parallel()

	reader, mp := setupTestMetrics(t)
	ctx := context.Background()

	mp.RecordCircuitBreakerStateChange(ctx, "groq", true)

	metrics := collect(t, reader)
	if got := sumInt64(t, metrics["agent.circuitbreaker.open"]); got != 1 {
		t.Errorf("open breakers = %d, want 1", got)
	}
}

func TestNoopMetricsProvider(t *testing.T) {
	t.Parallel()

	var m Metrics = NoopMetricsProvider{}
	ctx := context.Background()

	m.RecordStep(ctx, "DETECT", "detect_failure_nodes", false)
	m.RecordStateTransition(ctx, "DETECT", "FINAL")
	m.RecordToolExecution(ctx, "x", "DETECT", true, 0)
	m.RecordDecision(ctx, "mock", "DETECT", false, 0)
	m.RecordAssignment(ctx, true)
	m.RecordRunDuration(ctx, 0, "completed", 1)
	m.IncrementActiveRuns(ctx)
	m.DecrementActiveRuns(ctx)
	m.RecordCircuitBreakerStateChange(ctx, "mock", false)
}
