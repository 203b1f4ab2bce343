package middleware

import (
	"context"
	"time"

	"github.com/gkosnia163/ollama-agent/domain/middleware"
	"github.com/gkosnia163/ollama-agent/domain/tool"
	"github.com/gkosnia163/ollama-agent/infrastructure/telemetry"
)

// MetricsConfig configures the metrics middleware.
type MetricsConfig struct {
	// Provider is the metrics provider to use.
	Provider telemetry.Metrics
}

// Metrics creates a middleware that records metrics for tool executions.
//
// A tool call counts as successful when it returned no error and its
// observation is not a domain error.
func Metrics(config MetricsConfig) middleware.Middleware {
	if config.Provider == nil {
		config.Provider = telemetry.NoopMetricsProvider{}
	}

	return func(next middleware.Handler) middleware.Handler {
		return func(ctx context.Context, execCtx *middleware.ExecutionContext) (tool.Result, error) {
			start := time.Now()

			result, err := next(ctx, execCtx)

			success := err == nil && !result.Failed
			config.Provider.RecordToolExecution(ctx, execCtx.Tool.Name(), execCtx.Phase.String(), success, time.Since(start))

			return result, err
		}
	}
}
