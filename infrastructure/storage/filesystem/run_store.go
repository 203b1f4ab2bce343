// Package filesystem provides filesystem-based storage implementations.
package filesystem

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/gkosnia163/ollama-agent/domain/agent"
	"github.com/gkosnia163/ollama-agent/domain/artifact"
	"github.com/gkosnia163/ollama-agent/domain/ledger"
	"github.com/gkosnia163/ollama-agent/domain/world"
)

// File names inside a run directory.
const (
	RunFile    = "run.json"
	MemoryFile = "memory.json"
	WorldFile  = "world.json"
	LedgerFile = "ledger.json"
)

// dirTimeLayout formats the timestamp part of a run directory name.
const dirTimeLayout = "20060102_150405"

// RunStore implements artifact.Store by writing one directory per run.
type RunStore struct {
	basePath string
	now      func() time.Time
}

// Option configures a RunStore.
type Option func(*RunStore)

// WithClock overrides the time source used for directory names.
func WithClock(now func() time.Time) Option {
	return func(s *RunStore) {
		s.now = now
	}
}

// NewRunStore creates a new filesystem run store.
func NewRunStore(basePath string, opts ...Option) (*RunStore, error) {
	// Ensure base path exists with restrictive permissions (G301 fix)
	if err := os.MkdirAll(basePath, 0750); err != nil {
		return nil, fmt.Errorf("failed to create runs directory: %w", err)
	}

	s := &RunStore{basePath: basePath, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Save writes the artifact into a fresh run_<timestamp>_<id8> directory.
func (s *RunStore) Save(_ context.Context, a *artifact.RunArtifact) (artifact.Ref, error) {
	if err := a.Validate(); err != nil {
		return artifact.Ref{}, err
	}

	created := s.now()
	dir := filepath.Join(s.basePath, DirName(created, a.Summary.RunID))

	// Mkdir, not MkdirAll: the directory must be new.
	if err := os.Mkdir(dir, 0750); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return artifact.Ref{}, fmt.Errorf("%w: %s", artifact.ErrArtifactExists, dir)
		}
		return artifact.Ref{}, fmt.Errorf("failed to create run directory: %w", err)
	}

	files := []struct {
		name string
		v    any
	}{
		{RunFile, a.Summary},
		{MemoryFile, a.Memory},
		{WorldFile, a.World},
		{LedgerFile, a.Ledger},
	}
	for _, f := range files {
		if err := writeJSON(filepath.Join(dir, f.name), f.v); err != nil {
			os.RemoveAll(dir) // #nosec G104 -- best-effort cleanup in error path
			return artifact.Ref{}, err
		}
	}

	return artifact.Ref{
		RunID:     a.Summary.RunID,
		Location:  dir,
		CreatedAt: created,
	}, nil
}

// Get loads the most recent artifact saved for a run.
func (s *RunStore) Get(_ context.Context, runID string) (*artifact.RunArtifact, error) {
	matches, err := filepath.Glob(filepath.Join(s.basePath, "run_*_"+shortID(runID)))
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(matches)))

	for _, dir := range matches {
		var summary artifact.Summary
		if err := readJSON(filepath.Join(dir, RunFile), &summary); err != nil {
			continue
		}
		if summary.RunID != runID {
			continue
		}
		return load(dir, summary)
	}
	return nil, artifact.ErrArtifactNotFound
}

// List returns the run directories under the base path, newest first.
func (s *RunStore) List(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.basePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read runs directory: %w", err)
	}

	var dirs []string
	for _, e := range entries {
		if e.IsDir() && strings.HasPrefix(e.Name(), "run_") {
			dirs = append(dirs, e.Name())
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(dirs)))
	return dirs, nil
}

func load(dir string, summary artifact.Summary) (*artifact.RunArtifact, error) {
	a := &artifact.RunArtifact{
		Summary: summary,
		Memory:  agent.NewMemory(),
		World:   world.New(),
	}
	if err := readJSON(filepath.Join(dir, MemoryFile), a.Memory); err != nil {
		return nil, err
	}
	if err := readJSON(filepath.Join(dir, WorldFile), a.World); err != nil {
		return nil, err
	}

	var entries []ledger.Entry
	if err := readJSON(filepath.Join(dir, LedgerFile), &entries); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}
	a.Ledger = entries
	return a, nil
}

// DirName returns the directory name for a run saved at t.
func DirName(t time.Time, runID string) string {
	return "run_" + t.Format(dirTimeLayout) + "_" + shortID(runID)
}

func shortID(runID string) string {
	id := strings.ReplaceAll(runID, "-", "")
	if len(id) > 8 {
		id = id[:8]
	}
	return id
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", filepath.Base(path), err)
	}
	// Write with restrictive permissions (G306 fix)
	if err := os.WriteFile(path, append(data, '\n'), 0600); err != nil {
		return fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
	}
	return nil
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path) // #nosec G304 -- path is built from the store's own base path
	if err != nil {
		return err
	}
	if err := json.NewDecoder(bytes.NewReader(data)).Decode(v); err != nil {
		return fmt.Errorf("failed to decode %s: %w", filepath.Base(path), err)
	}
	return nil
}

// Ensure RunStore satisfies the interfaces.
var (
	_ artifact.Store  = (*RunStore)(nil)
	_ artifact.Reader = (*RunStore)(nil)
)
