package statemachine

import (
	"github.com/felixgeelhaar/statekit"
)

// guardCanTransition allows a move to a recognized phase other than the current one.
// Guards receive the context by value; since the context is *Context the guard
// gets the pointer directly.
func guardCanTransition(ctx *Context, event statekit.Event) bool {
	if ctx == nil || ctx.Run == nil {
		return false
	}

	to := targetPhase(event)
	return to.IsValid() && to != ctx.Run.Phase && !ctx.Run.Phase.IsTerminal()
}
