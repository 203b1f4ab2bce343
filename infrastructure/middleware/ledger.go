package middleware

import (
	"context"

	"github.com/gkosnia163/ollama-agent/domain/ledger"
	"github.com/gkosnia163/ollama-agent/domain/middleware"
	"github.com/gkosnia163/ollama-agent/domain/tool"
)

// LedgerConfig configures the ledger recording middleware.
type LedgerConfig struct {
	// Ledger is the ledger to record to.
	Ledger *ledger.Ledger
}

// LedgerRecording returns middleware that records tool calls to the ledger.
func LedgerRecording(cfg LedgerConfig) middleware.Middleware {
	return func(next middleware.Handler) middleware.Handler {
		return func(ctx context.Context, execCtx *middleware.ExecutionContext) (tool.Result, error) {
			// Skip if no ledger configured
			if cfg.Ledger == nil {
				return next(ctx, execCtx)
			}

			step, phase, name := execCtx.Step, execCtx.Phase, execCtx.Tool.Name()

			cfg.Ledger.RecordToolCall(step, phase, name, execCtx.Input, execCtx.Overridden)

			result, err := next(ctx, execCtx)

			if err != nil {
				cfg.Ledger.RecordToolError(step, phase, name, err)
			} else {
				cfg.Ledger.RecordToolResult(step, phase, name, result.Output, result.Duration)
			}

			return result, err
		}
	}
}
