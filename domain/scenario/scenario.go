// Package scenario defines how initial world snapshots are supplied.
package scenario

import (
	"context"
	"errors"

	"github.com/gkosnia163/ollama-agent/domain/world"
)

// Loader supplies initial worlds and enumerates the available scenarios.
type Loader interface {
	// Load returns a fresh world for the named scenario.
	Load(ctx context.Context, name string) (*world.World, error)

	// List returns available scenario names, sorted.
	List(ctx context.Context) ([]string, error)
}

// Domain errors for scenario loading.
var (
	// ErrNotFound indicates the named scenario does not exist.
	ErrNotFound = errors.New("scenario not found")

	// ErrInvalidScenario indicates the document could not be turned into a world.
	ErrInvalidScenario = errors.New("invalid scenario")

	// ErrUnsupportedFormat indicates an unknown file extension.
	ErrUnsupportedFormat = errors.New("unsupported scenario format")
)
