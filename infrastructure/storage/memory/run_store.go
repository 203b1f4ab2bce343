package memory

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/gkosnia163/ollama-agent/domain/agent"
	"github.com/gkosnia163/ollama-agent/domain/artifact"
)

// runEntry holds a deep copy of an artifact for storage.
type runEntry struct {
	data      []byte
	summary   artifact.Summary
	createdAt time.Time
}

// RunStore is an in-memory implementation of artifact.Store.
type RunStore struct {
	runs map[string]*runEntry
	mu   sync.RWMutex
}

// NewRunStore creates a new in-memory run store.
func NewRunStore() *RunStore {
	return &RunStore{
		runs: make(map[string]*runEntry),
	}
}

// Save persists a run artifact. Each run can be saved once.
func (s *RunStore) Save(ctx context.Context, a *artifact.RunArtifact) (artifact.Ref, error) {
	if err := ctx.Err(); err != nil {
		return artifact.Ref{}, err
	}

	if err := a.Validate(); err != nil {
		return artifact.Ref{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id := a.Summary.RunID
	if _, exists := s.runs[id]; exists {
		return artifact.Ref{}, artifact.ErrArtifactExists
	}

	data, err := json.Marshal(a)
	if err != nil {
		return artifact.Ref{}, err
	}

	now := time.Now()
	s.runs[id] = &runEntry{data: data, summary: a.Summary, createdAt: now}

	return artifact.Ref{RunID: id, Location: "memory://" + id, CreatedAt: now}, nil
}

// Get retrieves a copy of the artifact saved for a run.
func (s *RunStore) Get(ctx context.Context, runID string) (*artifact.RunArtifact, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.runs[runID]
	if !ok {
		return nil, artifact.ErrArtifactNotFound
	}

	a := &artifact.RunArtifact{Memory: agent.NewMemory()}
	if err := json.Unmarshal(entry.data, a); err != nil {
		return nil, err
	}
	return a, nil
}

// List returns summaries of stored runs, oldest first.
func (s *RunStore) List(ctx context.Context) ([]artifact.Summary, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	entries := make([]*runEntry, 0, len(s.runs))
	for _, e := range s.runs {
		entries = append(entries, e)
	}
	s.mu.RUnlock()

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].createdAt.Equal(entries[j].createdAt) {
			return entries[i].summary.RunID < entries[j].summary.RunID
		}
		return entries[i].createdAt.Before(entries[j].createdAt)
	})

	out := make([]artifact.Summary, len(entries))
	for i, e := range entries {
		out[i] = e.summary
	}
	return out, nil
}

// Count returns the number of stored artifacts.
func (s *RunStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.runs)
}

// Ensure RunStore satisfies the interfaces.
var (
	_ artifact.Store  = (*RunStore)(nil)
	_ artifact.Reader = (*RunStore)(nil)
)
