package middleware

import (
	"context"
	"time"

	"github.com/gkosnia163/ollama-agent/domain/agent"
	"github.com/gkosnia163/ollama-agent/domain/middleware"
	"github.com/gkosnia163/ollama-agent/domain/tool"
	"github.com/gkosnia163/ollama-agent/infrastructure/logging"
)

// LoggingConfig configures the logging middleware.
type LoggingConfig struct {
	// LogInput logs the tool input.
	LogInput bool
	// LogOutput logs the observation (truncated).
	LogOutput bool
}

// Logging returns middleware that logs tool execution.
func Logging(cfg LoggingConfig) middleware.Middleware {
	return func(next middleware.Handler) middleware.Handler {
		return func(ctx context.Context, execCtx *middleware.ExecutionContext) (tool.Result, error) {
			start := time.Now()
			action := agent.Action(execCtx.Tool.Name())

			entry := logging.Debug().
				Add(logging.RunID(execCtx.RunID)).
				Add(logging.Step(execCtx.Step)).
				Add(logging.Phase(execCtx.Phase)).
				Add(logging.Action(action))

			if cfg.LogInput && len(execCtx.Input) > 0 {
				entry = entry.Add(logging.Str("input", string(execCtx.Input)))
			}
			if execCtx.Overridden != "" {
				entry = entry.Add(logging.Str("overridden", execCtx.Overridden))
			}

			entry.Msg("executing tool")

			result, err := next(ctx, execCtx)
			duration := time.Since(start)

			if err != nil {
				logging.Warn().
					Add(logging.RunID(execCtx.RunID)).
					Add(logging.Step(execCtx.Step)).
					Add(logging.Action(action)).
					Add(logging.ErrorField(err)).
					Add(logging.Duration(duration)).
					Msg("tool execution failed")
				return result, err
			}

			logEntry := logging.Debug().
				Add(logging.RunID(execCtx.RunID)).
				Add(logging.Step(execCtx.Step)).
				Add(logging.Action(action)).
				Add(logging.Duration(duration)).
				Add(logging.Int("observation_bytes", len(result.Output)))

			if result.Failed {
				logEntry = logEntry.Add(logging.Str("outcome", "domain_error"))
			}
			if cfg.LogOutput && len(result.Output) > 0 {
				logEntry = logEntry.Add(logging.Observation(result.Output))
			}

			logEntry.Msg("tool executed")

			return result, nil
		}
	}
}
