package memory

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/gkosnia163/ollama-agent/domain/agent"
	"github.com/gkosnia163/ollama-agent/domain/artifact"
	"github.com/gkosnia163/ollama-agent/domain/world"
)

func newArtifact(id string) *artifact.RunArtifact {
	run := agent.NewRun(id, "scenario_main", agent.StrategyFixed, 10)
	run.Start()
	run.Memory.SetFailures([]string{"pump"})
	run.TransitionTo(agent.PhaseFinal)
	run.Finish()
	return artifact.New(run, "mock", world.New(), nil)
}

func TestRunStore_SaveAndGet(t *testing.T) {
	t.Parallel()

	store := NewRunStore()
	ctx := context.Background()

	ref, err := store.Save(ctx, newArtifact("run-1"))
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if ref.Location != "memory://run-1" {
		t.Errorf("Location = %s", ref.Location)
	}

	got, err := store.Get(ctx, "run-1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Summary.Status != agent.RunStatusCompleted {
		t.Errorf("Status = %s", got.Summary.Status)
	}

	// Returned copies are isolated from the store.
	got.Memory.SetFailures(nil)
	again, _ := store.Get(ctx, "run-1")
	if len(again.Memory.Context.Failures) != 1 {
		t.Errorf("stored artifact was mutated: %v", again.Memory.Context.Failures)
	}
}

func TestRunStore_Errors(t *testing.T) {
	t.Parallel()

	store := NewRunStore()
	ctx := context.Background()

	if _, err := store.Save(ctx, &artifact.RunArtifact{}); !errors.Is(err, artifact.ErrInvalidArtifact) {
		t.Errorf("Save(empty) error = %v, want ErrInvalidArtifact", err)
	}

	if _, err := store.Save(ctx, newArtifact("dup")); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if _, err := store.Save(ctx, newArtifact("dup")); !errors.Is(err, artifact.ErrArtifactExists) {
		t.Errorf("Save(dup) error = %v, want ErrArtifactExists", err)
	}

	if _, err := store.Get(ctx, "missing"); !errors.Is(err, artifact.ErrArtifactNotFound) {
		t.Errorf("Get(missing) error = %v, want ErrArtifactNotFound", err)
	}

	canceled, cancel := context.WithCancel(ctx)
	cancel()
	if _, err := store.Get(canceled, "dup"); !errors.Is(err, context.Canceled) {
		t.Errorf("Get(canceled) error = %v, want context.Canceled", err)
	}
}

func TestRunStore_ConcurrentSave(t *testing.T) {
	t.Parallel()

	store := NewRunStore()
	ctx := context.Background()

	ids := []string{"a", "b", "c", "d", "e", "f", "g", "h"}
	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			if _, err := store.Save(ctx, newArtifact(id)); err != nil {
				t.Errorf("Save(%s) error = %v", id, err)
			}
		}(id)
	}
	wg.Wait()

	if store.Count() != len(ids) {
		t.Errorf("Count() = %d, want %d", store.Count(), len(ids))
	}
	list, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(list) != len(ids) {
		t.Errorf("len(List()) = %d, want %d", len(list), len(ids))
	}
}
