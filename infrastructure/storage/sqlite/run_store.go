package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/gkosnia163/ollama-agent/domain/agent"
	"github.com/gkosnia163/ollama-agent/domain/artifact"
)

// RunStore is a SQLite-backed implementation of artifact.Store.
type RunStore struct {
	db  *sql.DB
	dsn string
}

// NewRunStore creates a new SQLite run store with the given configuration.
func NewRunStore(cfg Config, opts ...Option) (*RunStore, error) {
	// Apply options
	for _, opt := range opts {
		opt(&cfg)
	}

	db, err := openDB(cfg)
	if err != nil {
		return nil, err
	}

	s := &RunStore{db: db, dsn: cfg.DSN}

	// Auto-migrate if enabled
	if cfg.AutoMigrate {
		if err := s.migrate(); err != nil {
			_ = db.Close()
			return nil, err
		}
	}

	return s, nil
}

// NewRunStoreFromDB creates a run store from an existing database connection.
func NewRunStoreFromDB(db *sql.DB, dsn string) (*RunStore, error) {
	s := &RunStore{db: db, dsn: dsn}

	if err := s.migrate(); err != nil {
		return nil, err
	}

	return s, nil
}

// migrate creates the run_artifacts table if it doesn't exist.
func (s *RunStore) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS run_artifacts (
			id TEXT PRIMARY KEY,
			scenario TEXT NOT NULL,
			strategy TEXT NOT NULL,
			status TEXT NOT NULL,
			phase TEXT NOT NULL,
			steps INTEGER NOT NULL,
			fallbacks INTEGER NOT NULL,
			error TEXT,
			data BLOB NOT NULL,
			start_time INTEGER NOT NULL,
			end_time INTEGER,
			created_at INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_run_artifacts_status ON run_artifacts(status);
		CREATE INDEX IF NOT EXISTS idx_run_artifacts_start_time ON run_artifacts(start_time);
	`

	_, err := s.db.Exec(schema)
	if err != nil {
		return errors.Join(ErrMigrationFailed, err)
	}

	return nil
}

// Save persists a run artifact. Each run can be saved once.
func (s *RunStore) Save(ctx context.Context, a *artifact.RunArtifact) (artifact.Ref, error) {
	if err := ctx.Err(); err != nil {
		return artifact.Ref{}, err
	}

	if err := a.Validate(); err != nil {
		return artifact.Ref{}, err
	}

	data, err := json.Marshal(a)
	if err != nil {
		return artifact.Ref{}, err
	}

	now := time.Now()
	sum := a.Summary

	var endTime sql.NullInt64
	if !sum.EndTime.IsZero() {
		endTime = sql.NullInt64{Int64: sum.EndTime.Unix(), Valid: true}
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO run_artifacts (id, scenario, strategy, status, phase, steps, fallbacks, error, data, start_time, end_time, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sum.RunID, sum.Scenario, string(sum.Strategy), string(sum.Status), string(sum.Phase),
		sum.Steps, sum.Fallbacks, sum.Error, data, sum.StartTime.Unix(), endTime, now.Unix(),
	)
	if err != nil {
		// Check for duplicate key
		if isUniqueViolation(err) {
			return artifact.Ref{}, artifact.ErrArtifactExists
		}
		return artifact.Ref{}, err
	}

	return artifact.Ref{
		RunID:     sum.RunID,
		Location:  "sqlite://" + s.dsn + "#" + sum.RunID,
		CreatedAt: now,
	}, nil
}

// Get retrieves an artifact by run ID.
func (s *RunStore) Get(ctx context.Context, runID string) (*artifact.RunArtifact, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if runID == "" {
		return nil, artifact.ErrInvalidArtifact
	}

	var data []byte
	err := s.db.QueryRowContext(ctx,
		"SELECT data FROM run_artifacts WHERE id = ?",
		runID,
	).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, artifact.ErrArtifactNotFound
		}
		return nil, err
	}

	a := &artifact.RunArtifact{Memory: agent.NewMemory()}
	if err := json.Unmarshal(data, a); err != nil {
		return nil, err
	}

	return a, nil
}

// List returns stored run summaries, newest first. A non-positive limit
// returns all rows.
func (s *RunStore) List(ctx context.Context, status agent.RunStatus, limit int) ([]artifact.Summary, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	query := "SELECT data FROM run_artifacts"
	var args []interface{}
	if status != "" {
		query += " WHERE status = ?"
		args = append(args, string(status))
	}
	query += " ORDER BY start_time DESC, id ASC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []artifact.Summary
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		var a struct {
			Summary artifact.Summary `json:"run"`
		}
		if err := json.Unmarshal(data, &a); err != nil {
			return nil, err
		}
		out = append(out, a.Summary)
	}

	return out, rows.Err()
}

// Close closes the database connection.
func (s *RunStore) Close() error {
	return s.db.Close()
}

// DB returns the underlying database connection.
func (s *RunStore) DB() *sql.DB {
	return s.db
}

// isUniqueViolation checks if the error is a unique constraint violation.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// Ensure RunStore satisfies the interfaces.
var (
	_ artifact.Store  = (*RunStore)(nil)
	_ artifact.Reader = (*RunStore)(nil)
)
