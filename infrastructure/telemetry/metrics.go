// Package telemetry provides OpenTelemetry metrics for agent runs.
package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics defines the interface for metrics recording.
type Metrics interface {
	RecordStep(ctx context.Context, phase, action string, fallback bool)
	RecordStateTransition(ctx context.Context, fromPhase, toPhase string)
	RecordToolExecution(ctx context.Context, toolName, phase string, success bool, duration time.Duration)
	RecordDecision(ctx context.Context, provider, phase string, fallback bool, duration time.Duration)
	RecordAssignment(ctx context.Context, success bool)
	RecordRunDuration(ctx context.Context, duration time.Duration, status string, steps int)
	IncrementActiveRuns(ctx context.Context)
	DecrementActiveRuns(ctx context.Context)
	RecordCircuitBreakerStateChange(ctx context.Context, provider string, isOpen bool)
}

// MetricsProvider records metrics through an OpenTelemetry meter.
type MetricsProvider struct {
	meter metric.Meter

	// Counters
	steps            metric.Int64Counter
	stateTransitions metric.Int64Counter
	toolExecutions   metric.Int64Counter
	decisions        metric.Int64Counter
	fallbacks        metric.Int64Counter
	assignments      metric.Int64Counter

	// Histograms
	toolDuration     metric.Float64Histogram
	decisionDuration metric.Float64Histogram
	runDuration      metric.Float64Histogram

	// Gauges (using UpDownCounter for OpenTelemetry)
	activeRuns         metric.Int64UpDownCounter
	circuitBreakerOpen metric.Int64UpDownCounter

	initErr error
}

// MetricsConfig configures the metrics provider.
type MetricsConfig struct {
	// MeterName is the name of the meter.
	MeterName string
	// MeterVersion is the version of the meter.
	MeterVersion string
	// MeterProvider overrides the global provider. Tests use it to attach a reader.
	MeterProvider metric.MeterProvider
}

// DefaultMetricsConfig returns a default metrics configuration.
func DefaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		MeterName:    "github.com/gkosnia163/ollama-agent",
		MeterVersion: "1.0.0",
	}
}

// NewMetricsProvider creates a new metrics provider.
func NewMetricsProvider(config MetricsConfig) *MetricsProvider {
	defaults := DefaultMetricsConfig()
	if config.MeterName == "" {
		config.MeterName = defaults.MeterName
	}
	if config.MeterVersion == "" {
		config.MeterVersion = defaults.MeterVersion
	}

	provider := config.MeterProvider
	if provider == nil {
		provider = otel.GetMeterProvider()
	}

	mp := &MetricsProvider{
		meter: provider.Meter(
			config.MeterName,
			metric.WithInstrumentationVersion(config.MeterVersion),
		),
	}
	mp.initErr = mp.initInstruments()

	return mp
}

func (mp *MetricsProvider) initInstruments() error {
	var err error

	counters := []struct {
		dst  *metric.Int64Counter
		name string
		desc string
		unit string
	}{
		{&mp.steps, "agent.steps", "Number of controller steps", "{step}"},
		{&mp.stateTransitions, "agent.phase.transitions", "Number of phase transitions", "{transition}"},
		{&mp.toolExecutions, "agent.tool.executions", "Number of tool executions", "{execution}"},
		{&mp.decisions, "agent.decisions", "Number of provider decisions", "{decision}"},
		{&mp.fallbacks, "agent.decisions.fallback", "Number of decisions replaced by the safe default", "{decision}"},
		{&mp.assignments, "agent.assignments", "Number of crew assignment outcomes", "{assignment}"},
	}
	for _, c := range counters {
		*c.dst, err = mp.meter.Int64Counter(c.name, metric.WithDescription(c.desc), metric.WithUnit(c.unit))
		if err != nil {
			return err
		}
	}

	histograms := []struct {
		dst  *metric.Float64Histogram
		name string
		desc string
	}{
		{&mp.toolDuration, "agent.tool.duration", "Duration of tool executions"},
		{&mp.decisionDuration, "agent.decision.duration", "Duration of provider decisions"},
		{&mp.runDuration, "agent.run.duration", "Duration of agent runs"},
	}
	for _, h := range histograms {
		*h.dst, err = mp.meter.Float64Histogram(h.name, metric.WithDescription(h.desc), metric.WithUnit("ms"))
		if err != nil {
			return err
		}
	}

	mp.activeRuns, err = mp.meter.Int64UpDownCounter(
		"agent.runs.active",
		metric.WithDescription("Number of active agent runs"),
		metric.WithUnit("{run}"),
	)
	if err != nil {
		return err
	}

	mp.circuitBreakerOpen, err = mp.meter.Int64UpDownCounter(
		"agent.circuitbreaker.open",
		metric.WithDescription("Number of open provider circuit breakers"),
		metric.WithUnit("{circuit}"),
	)
	return err
}

// Error returns any initialization error.
func (mp *MetricsProvider) Error() error {
	return mp.initErr
}

// RecordStep records one controller step.
func (mp *MetricsProvider) RecordStep(ctx context.Context, phase, action string, fallback bool) {
	mp.steps.Add(ctx, 1, metric.WithAttributes(
		attribute.String("agent.phase", phase),
		attribute.String("agent.action", action),
		attribute.Bool("fallback", fallback),
	))
}

// RecordStateTransition records a phase transition.
func (mp *MetricsProvider) RecordStateTransition(ctx context.Context, fromPhase, toPhase string) {
	mp.stateTransitions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("phase.from", fromPhase),
		attribute.String("phase.to", toPhase),
	))
}

// RecordToolExecution records a tool execution.
func (mp *MetricsProvider) RecordToolExecution(ctx context.Context, toolName, phase string, success bool, duration time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String("tool.name", toolName),
		attribute.String("agent.phase", phase),
		attribute.Bool("success", success),
	)

	mp.toolExecutions.Add(ctx, 1, attrs)
	mp.toolDuration.Record(ctx, float64(duration.Milliseconds()), attrs)
}

// RecordDecision records a provider decision and whether it fell back.
func (mp *MetricsProvider) RecordDecision(ctx context.Context, provider, phase string, fallback bool, duration time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String("provider.name", provider),
		attribute.String("agent.phase", phase),
	)

	mp.decisions.Add(ctx, 1, attrs)
	mp.decisionDuration.Record(ctx, float64(duration.Milliseconds()), attrs)
	if fallback {
		mp.fallbacks.Add(ctx, 1, attrs)
	}
}

// RecordAssignment records one crew assignment outcome.
func (mp *MetricsProvider) RecordAssignment(ctx context.Context, success bool) {
	mp.assignments.Add(ctx, 1, metric.WithAttributes(attribute.Bool("success", success)))
}

// RecordRunDuration records the duration of an agent run.
func (mp *MetricsProvider) RecordRunDuration(ctx context.Context, duration time.Duration, status string, steps int) {
	mp.runDuration.Record(ctx, float64(duration.Milliseconds()), metric.WithAttributes(
		attribute.String("run.status", status),
		attribute.Int("run.steps", steps),
	))
}

// IncrementActiveRuns increments the active runs counter.
func (mp *MetricsProvider) IncrementActiveRuns(ctx context.Context) {
	mp.activeRuns.Add(ctx, 1)
}

// DecrementActiveRuns decrements the active runs counter.
func (mp *MetricsProvider) DecrementActiveRuns(ctx context.Context) {
	mp.activeRuns.Add(ctx, -1)
}

// RecordCircuitBreakerStateChange records a provider circuit breaker opening or closing.
func (mp *MetricsProvider) RecordCircuitBreakerStateChange(ctx context.Context, provider string, isOpen bool) {
	attrs := metric.WithAttributes(attribute.String("provider.name", provider))
	if isOpen {
		mp.circuitBreakerOpen.Add(ctx, 1, attrs)
	} else {
		mp.circuitBreakerOpen.Add(ctx, -1, attrs)
	}
}

// NoopMetricsProvider is a no-op metrics provider for testing or when metrics are disabled.
type NoopMetricsProvider struct{}

// RecordStep is a no-op.
func (NoopMetricsProvider) RecordStep(context.Context, string, string, bool) {}

// RecordStateTransition is a no-op.
func (NoopMetricsProvider) RecordStateTransition(context.Context, string, string) {}

// RecordToolExecution is a no-op.
func (NoopMetricsProvider) RecordToolExecution(context.Context, string, string, bool, time.Duration) {}

// RecordDecision is a no-op.
func (NoopMetricsProvider) RecordDecision(context.Context, string, string, bool, time.Duration) {}

// RecordAssignment is a no-op.
func (NoopMetricsProvider) RecordAssignment(context.Context, bool) {}

// RecordRunDuration is a no-op.
func (NoopMetricsProvider) RecordRunDuration(context.Context, time.Duration, string, int) {}

// IncrementActiveRuns is a no-op.
func (NoopMetricsProvider) IncrementActiveRuns(context.Context) {}

// DecrementActiveRuns is a no-op.
func (NoopMetricsProvider) DecrementActiveRuns(context.Context) {}

// RecordCircuitBreakerStateChange is a no-op.
func (NoopMetricsProvider) RecordCircuitBreakerStateChange(context.Context, string, bool) {}

// Ensure implementations satisfy the interface.
var (
	_ Metrics = (*MetricsProvider)(nil)
	_ Metrics = NoopMetricsProvider{}
)
