package world

import (
	"errors"
	"fmt"
)

// Domain errors for the world model.
var (
	// ErrUnknownEntity indicates a node or crew id is not present in the world.
	ErrUnknownEntity = errors.New("unknown entity")

	// ErrLengthMismatch indicates assignment lists of unequal length.
	// No assignment is made when this is returned.
	ErrLengthMismatch = errors.New("mismatch between number of nodes and crews")

	// ErrDuplicateID indicates an id was added twice.
	ErrDuplicateID = errors.New("duplicate id")

	// ErrInvalidNode indicates a node failed validation.
	ErrInvalidNode = errors.New("invalid node")

	// ErrInvalidCrew indicates a crew failed validation.
	ErrInvalidCrew = errors.New("invalid crew")
)

// EntityKind names the kind of world entity.
type EntityKind string

const (
	KindNode EntityKind = "node"
	KindCrew EntityKind = "crew"
)

// UnknownEntityError describes a reference to a missing node or crew.
type UnknownEntityError struct {
	Kind EntityKind
	ID   string
}

func (e *UnknownEntityError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.ID)
}

// Unwrap allows errors.Is(err, ErrUnknownEntity).
func (e *UnknownEntityError) Unwrap() error {
	return ErrUnknownEntity
}
