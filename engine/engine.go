// ABOUTME: Engine facade owning the pipeline and run registries, the step executor,
// ABOUTME: and the optional SQLite store; exposes every operation the API and CLI consume.
package engine

import (
	"fmt"
	"log"
	"time"
)

// Config holds engine construction options.
type Config struct {
	// StorePath is the SQLite database file for durable state.
	// Empty means in-memory only.
	StorePath string
	// Shell overrides the step interpreter (default "sh").
	Shell string
	// WorkDir is the working directory for step commands.
	WorkDir string
	// EventHandler receives lifecycle events. May be nil.
	EventHandler func(Event)
}

// Engine wires the registries, executor, and store together. All registry
// state is owned here and injected at construction; there is no ambient
// global state.
type Engine struct {
	pipelines    *PipelineRegistry
	runs         *RunRegistry
	executor     *Executor
	store        *Store
	eventHandler func(Event)
}

// New constructs an engine, opening and loading the store when a path is set.
func New(cfg Config) (*Engine, error) {
	e := &Engine{
		pipelines:    NewPipelineRegistry(),
		runs:         NewRunRegistry(),
		executor:     &Executor{Shell: cfg.Shell, WorkDir: cfg.WorkDir},
		eventHandler: cfg.EventHandler,
	}

	if cfg.StorePath != "" {
		store, err := OpenStore(cfg.StorePath)
		if err != nil {
			return nil, fmt.Errorf("open store: %w", err)
		}
		e.store = store

		pipelines, runs, err := store.LoadAll()
		if err != nil {
			store.Close()
			return nil, fmt.Errorf("load state: %w", err)
		}
		for _, p := range pipelines {
			e.pipelines.restore(p)
		}
		for _, run := range runs {
			e.runs.restore(run)
		}
		log.Printf("engine loaded pipelines=%d runs=%d store=%s", len(pipelines), len(runs), cfg.StorePath)
	}

	return e, nil
}

// Close releases the store, if any.
func (e *Engine) Close() error {
	if e.store != nil {
		return e.store.Close()
	}
	return nil
}

// CreatePipeline validates and stores a new pipeline definition.
func (e *Engine) CreatePipeline(cfg PipelineConfig) (Pipeline, error) {
	p, err := e.pipelines.Create(cfg)
	if err != nil {
		return Pipeline{}, err
	}
	log.Printf("pipeline created pipeline_id=%s name=%q steps=%d", p.ID, p.Name, len(p.Steps))
	e.persistPipeline(p)
	return p, nil
}

// GetPipeline returns the derived status view of a pipeline.
func (e *Engine) GetPipeline(id string) (PipelineStatus, error) {
	p, err := e.pipelines.Get(id)
	if err != nil {
		return PipelineStatus{}, err
	}
	return e.pipelineStatus(p), nil
}

// GetPipelineDefinition returns the raw stored definition.
func (e *Engine) GetPipelineDefinition(id string) (Pipeline, error) {
	return e.pipelines.Get(id)
}

// ListPipelines returns the derived status view of every pipeline, newest first.
func (e *Engine) ListPipelines() []PipelineStatus {
	defs := e.pipelines.List()
	out := make([]PipelineStatus, len(defs))
	for i, p := range defs {
		out[i] = e.pipelineStatus(p)
	}
	return out
}

// pipelineStatus computes the caller-facing view by querying the run
// registry at call time.
func (e *Engine) pipelineStatus(p Pipeline) PipelineStatus {
	status := PipelineStatus{
		ID:          p.ID,
		Name:        p.Name,
		Version:     p.Version,
		Description: p.Description,
		Status:      StatusNeverRun,
		CreatedAt:   p.CreatedAt,
	}
	latest, active, total := e.runs.Aggregate(p.ID)
	status.ActiveRuns = active
	status.TotalRuns = total
	if latest != nil {
		status.Status = latest.Status
		created := latest.CreatedAt
		status.LastRunAt = &created
	}
	return status
}

// DeletePipeline removes a pipeline definition. Rejected while any of its
// runs is running.
func (e *Engine) DeletePipeline(id string) error {
	if _, err := e.pipelines.Get(id); err != nil {
		return err
	}
	if e.runs.HasActive(id) {
		return ErrPipelineBusy
	}
	if err := e.pipelines.Delete(id); err != nil {
		return err
	}
	log.Printf("pipeline deleted pipeline_id=%s", id)
	if e.store != nil {
		if err := e.store.DeletePipeline(id); err != nil {
			log.Printf("store delete pipeline pipeline_id=%s error=%v", id, err)
		}
	}
	return nil
}

// CancelPipeline cancels all active runs of a pipeline and returns how many
// were signalled.
func (e *Engine) CancelPipeline(id string) (int, error) {
	if _, err := e.pipelines.Get(id); err != nil {
		return 0, err
	}
	n := e.runs.CancelPipeline(id)
	log.Printf("pipeline cancel pipeline_id=%s runs_signalled=%d", id, n)
	return n, nil
}

// RunPipeline creates a run for an existing pipeline and dispatches it.
func (e *Engine) RunPipeline(pipelineID string, foreground bool) (Run, error) {
	p, err := e.pipelines.Get(pipelineID)
	if err != nil {
		return Run{}, err
	}
	run := e.runs.Create(&p)
	log.Printf("run created run_id=%s pipeline_id=%s foreground=%t", run.ID, pipelineID, foreground)
	e.persistRun(run.ID)
	return e.Dispatch(run.ID, foreground)
}

// CreateAndRun stores a new pipeline and immediately dispatches a run of it.
func (e *Engine) CreateAndRun(cfg PipelineConfig, foreground bool) (Pipeline, Run, error) {
	p, err := e.CreatePipeline(cfg)
	if err != nil {
		return Pipeline{}, Run{}, err
	}
	run, err := e.RunPipeline(p.ID, foreground)
	if err != nil {
		return Pipeline{}, Run{}, err
	}
	return p, run, nil
}

// GetRun returns a snapshot of the run including its step results.
func (e *Engine) GetRun(id string) (Run, error) {
	return e.runs.Get(id)
}

// ListRuns returns run summaries, optionally filtered by pipeline, newest first.
func (e *Engine) ListRuns(pipelineID string) []RunSummary {
	return e.runs.List(pipelineID)
}

// CancelRun signals cancellation for one active run.
func (e *Engine) CancelRun(id string) error {
	return e.runs.Cancel(id)
}

// DeleteRun removes a run permanently. Rejected while the run is running.
func (e *Engine) DeleteRun(id string) error {
	if err := e.runs.Delete(id); err != nil {
		return err
	}
	log.Printf("run deleted run_id=%s", id)
	if e.store != nil {
		if err := e.store.DeleteRun(id); err != nil {
			log.Printf("store delete run run_id=%s error=%v", id, err)
		}
	}
	return nil
}

// Health describes the engine's liveness for the health probe.
type Health struct {
	Status      string    `json:"status"`
	AgentStatus string    `json:"agent_status"`
	Timestamp   time.Time `json:"timestamp"`
	ActiveRuns  int       `json:"active_runs"`
}

// HealthCheck reports the current engine health.
func (e *Engine) HealthCheck() Health {
	return Health{
		Status:      "healthy",
		AgentStatus: "running",
		Timestamp:   time.Now(),
		ActiveRuns:  e.runs.ActiveCount(),
	}
}

// persistPipeline writes a pipeline through to the store, if configured.
func (e *Engine) persistPipeline(p Pipeline) {
	if e.store == nil {
		return
	}
	if err := e.store.SavePipeline(p); err != nil {
		log.Printf("store save pipeline pipeline_id=%s error=%v", p.ID, err)
	}
}

// persistRun writes the run's current snapshot through to the store.
func (e *Engine) persistRun(id string) {
	if e.store == nil {
		return
	}
	run, err := e.runs.Get(id)
	if err != nil {
		return
	}
	if err := e.store.SaveRun(run); err != nil {
		log.Printf("store save run run_id=%s error=%v", id, err)
	}
}
