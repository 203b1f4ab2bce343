// Package middleware provides pre-built middleware implementations.
package middleware

import (
	"context"
	"fmt"

	"github.com/gkosnia163/ollama-agent/domain/middleware"
	"github.com/gkosnia163/ollama-agent/domain/pack"
	"github.com/gkosnia163/ollama-agent/domain/tool"
)

// EligibilityConfig configures the eligibility middleware.
type EligibilityConfig struct {
	// Pack defines which tools are allowed in which phases.
	Pack *pack.Pack
}

// Eligibility returns middleware that rejects tools not listed for the
// current phase. The rejection is an error the controller turns into an
// observation.
func Eligibility(cfg EligibilityConfig) middleware.Middleware {
	return func(next middleware.Handler) middleware.Handler {
		return func(ctx context.Context, execCtx *middleware.ExecutionContext) (tool.Result, error) {
			// Skip if no pack configured
			if cfg.Pack == nil {
				return next(ctx, execCtx)
			}

			if !cfg.Pack.IsAllowed(execCtx.Phase, execCtx.Tool.Name()) {
				return tool.Result{}, fmt.Errorf("%w: %s in phase %s",
					tool.ErrToolNotAllowed, execCtx.Tool.Name(), execCtx.Phase)
			}

			return next(ctx, execCtx)
		}
	}
}
