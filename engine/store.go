// ABOUTME: SQLite-backed durable store for pipeline definitions and run documents.
// ABOUTME: Write-through mirror of the in-memory registries; loaded once at engine startup.
package engine

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Store persists pipelines and runs across agent restarts. The in-memory
// registries remain the source of truth while the process is alive; the
// store is written through on create, terminal transition, and delete.
type Store struct {
	db *sql.DB
}

// OpenStore opens or creates the database at path and ensures the schema.
func OpenStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	schema := `
		CREATE TABLE IF NOT EXISTS pipelines (
			pipeline_id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			created_at TEXT NOT NULL,
			definition TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS runs (
			run_id TEXT PRIMARY KEY,
			pipeline_id TEXT NOT NULL,
			status TEXT NOT NULL,
			created_at TEXT NOT NULL,
			document TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_runs_pipeline ON runs(pipeline_id);`

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// SavePipeline upserts a pipeline definition.
func (s *Store) SavePipeline(p Pipeline) error {
	doc, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal pipeline: %w", err)
	}
	_, err = s.db.Exec(`
		INSERT INTO pipelines (pipeline_id, name, created_at, definition)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(pipeline_id) DO UPDATE SET
			name = excluded.name,
			created_at = excluded.created_at,
			definition = excluded.definition`,
		p.ID, p.Name, p.CreatedAt.Format(time.RFC3339Nano), string(doc))
	if err != nil {
		return fmt.Errorf("upsert pipeline: %w", err)
	}
	return nil
}

// DeletePipeline removes a pipeline row.
func (s *Store) DeletePipeline(id string) error {
	if _, err := s.db.Exec(`DELETE FROM pipelines WHERE pipeline_id = ?`, id); err != nil {
		return fmt.Errorf("delete pipeline: %w", err)
	}
	return nil
}

// SaveRun upserts the full run document plus the summary columns used for
// filtering.
func (s *Store) SaveRun(run Run) error {
	doc, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("marshal run: %w", err)
	}
	_, err = s.db.Exec(`
		INSERT INTO runs (run_id, pipeline_id, status, created_at, document)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(run_id) DO UPDATE SET
			status = excluded.status,
			document = excluded.document`,
		run.ID, run.PipelineID, string(run.Status), run.CreatedAt.Format(time.RFC3339Nano), string(doc))
	if err != nil {
		return fmt.Errorf("upsert run: %w", err)
	}
	return nil
}

// DeleteRun removes a run row.
func (s *Store) DeleteRun(id string) error {
	if _, err := s.db.Exec(`DELETE FROM runs WHERE run_id = ?`, id); err != nil {
		return fmt.Errorf("delete run: %w", err)
	}
	return nil
}

// LoadAll reads every pipeline and run back. Runs that were pending or
// running when the process died come back failed: their execution goroutine
// is gone and the subprocess state is unrecoverable.
func (s *Store) LoadAll() ([]Pipeline, []Run, error) {
	pipelineRows, err := s.db.Query(`SELECT definition FROM pipelines`)
	if err != nil {
		return nil, nil, fmt.Errorf("query pipelines: %w", err)
	}
	defer pipelineRows.Close()

	var pipelines []Pipeline
	for pipelineRows.Next() {
		var doc string
		if err := pipelineRows.Scan(&doc); err != nil {
			return nil, nil, fmt.Errorf("scan pipeline: %w", err)
		}
		var p Pipeline
		if err := json.Unmarshal([]byte(doc), &p); err != nil {
			return nil, nil, fmt.Errorf("unmarshal pipeline: %w", err)
		}
		pipelines = append(pipelines, p)
	}
	if err := pipelineRows.Err(); err != nil {
		return nil, nil, fmt.Errorf("iterate pipelines: %w", err)
	}

	runRows, err := s.db.Query(`SELECT document FROM runs`)
	if err != nil {
		return nil, nil, fmt.Errorf("query runs: %w", err)
	}
	defer runRows.Close()

	var runs []Run
	for runRows.Next() {
		var doc string
		if err := runRows.Scan(&doc); err != nil {
			return nil, nil, fmt.Errorf("scan run: %w", err)
		}
		var run Run
		if err := json.Unmarshal([]byte(doc), &run); err != nil {
			return nil, nil, fmt.Errorf("unmarshal run: %w", err)
		}
		if !run.Status.Terminal() {
			markInterrupted(&run)
		}
		runs = append(runs, run)
	}
	if err := runRows.Err(); err != nil {
		return nil, nil, fmt.Errorf("iterate runs: %w", err)
	}

	return pipelines, runs, nil
}

// markInterrupted settles a run that was in flight when the process died.
func markInterrupted(run *Run) {
	run.Status = StatusFailed
	now := time.Now()
	if run.FinishedAt == nil {
		run.FinishedAt = &now
	}
	if run.StartedAt != nil && run.Duration == nil {
		d := run.FinishedAt.Sub(*run.StartedAt).Seconds()
		run.Duration = &d
	}
	for i := range run.Steps {
		if run.Steps[i].Status == StatusRunning {
			run.Steps[i].Status = StatusFailed
			if run.Steps[i].Error == "" {
				run.Steps[i].Error = "interrupted by agent restart"
			}
			if run.Steps[i].EndedAt == nil {
				run.Steps[i].EndedAt = &now
			}
		}
	}
}
