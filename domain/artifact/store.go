package artifact

import (
	"context"
	"errors"
)

// Store persists run artifacts.
// Implementations are in infrastructure.
type Store interface {
	// Save writes the artifact once to a fresh location.
	Save(ctx context.Context, a *RunArtifact) (Ref, error)
}

// Reader is implemented by stores that can load artifacts back.
type Reader interface {
	// Get retrieves the artifact saved for a run.
	Get(ctx context.Context, runID string) (*RunArtifact, error)
}

// Domain errors for artifact storage.
var (
	// ErrArtifactNotFound indicates the artifact was not found.
	ErrArtifactNotFound = errors.New("artifact not found")

	// ErrArtifactExists indicates an artifact for the run already exists.
	ErrArtifactExists = errors.New("artifact already exists")

	// ErrInvalidArtifact indicates the artifact has no run id.
	ErrInvalidArtifact = errors.New("invalid artifact")
)

// Validate checks the fields every store relies on.
func (a *RunArtifact) Validate() error {
	if a == nil || a.Summary.RunID == "" {
		return ErrInvalidArtifact
	}
	return nil
}
