// ABOUTME: Run registry and cancellation broker: thread-safe map from run ID to run state
// ABOUTME: plus the live cancel function for runs that are currently executing.
package engine

import (
	"context"
	"sort"
	"sync"
	"time"
)

// runEntry pairs a run with its execution-time state. The entry mutex guards
// the run document; the cancel func is non-nil only while the run is active.
// Step definitions are captured at creation so execution is unaffected by
// later deletion of the owning pipeline.
type runEntry struct {
	mu     sync.RWMutex
	run    Run
	defs   []StepDefinition
	cancel context.CancelFunc
}

// RunRegistry tracks all runs, active and historical, keyed by run ID.
// The top-level map is fully serialized; each run is single-writer (its own
// execution goroutine) and multi-reader (pollers receive deep copies).
type RunRegistry struct {
	mu      sync.RWMutex
	entries map[string]*runEntry
}

// NewRunRegistry returns an empty registry.
func NewRunRegistry() *RunRegistry {
	return &RunRegistry{entries: make(map[string]*runEntry)}
}

// Create allocates a new pending run for the pipeline, with one pending step
// result per step definition. The returned run is a snapshot copy.
func (r *RunRegistry) Create(p *Pipeline) Run {
	now := time.Now()
	run := Run{
		ID:         NewRunID(),
		PipelineID: p.ID,
		Name:       p.Name,
		Status:     StatusPending,
		CreatedAt:  now,
		Steps:      make([]StepResult, len(p.Steps)),
	}
	if len(p.Variables) > 0 {
		run.Variables = make(map[string]string, len(p.Variables))
		for k, v := range p.Variables {
			run.Variables[k] = v
		}
	}
	for i, def := range p.Steps {
		run.Steps[i] = StepResult{
			Name:    def.Name,
			Command: def.Command, // template; replaced with the resolved command at execution
			Status:  StatusPending,
		}
	}

	defs := make([]StepDefinition, len(p.Steps))
	copy(defs, p.Steps)

	entry := &runEntry{run: run, defs: defs}

	r.mu.Lock()
	r.entries[run.ID] = entry
	r.mu.Unlock()

	return run.Clone()
}

// restore inserts an already-built run (loaded from the store) into the registry.
func (r *RunRegistry) restore(run Run) {
	r.mu.Lock()
	r.entries[run.ID] = &runEntry{run: run}
	r.mu.Unlock()
}

// Get returns a deep copy of the run, or ErrNotFound.
func (r *RunRegistry) Get(id string) (Run, error) {
	entry := r.entry(id)
	if entry == nil {
		return Run{}, ErrNotFound
	}
	entry.mu.RLock()
	defer entry.mu.RUnlock()
	return entry.run.Clone(), nil
}

// List returns summaries of all runs, optionally filtered by pipeline ID,
// ordered newest first. The result is a snapshot; mutating it cannot touch
// the registry.
func (r *RunRegistry) List(pipelineID string) []RunSummary {
	r.mu.RLock()
	entries := make([]*runEntry, 0, len(r.entries))
	for _, e := range r.entries {
		entries = append(entries, e)
	}
	r.mu.RUnlock()

	out := make([]RunSummary, 0, len(entries))
	for _, e := range entries {
		e.mu.RLock()
		if pipelineID == "" || e.run.PipelineID == pipelineID {
			out = append(out, e.run.Summary())
		}
		e.mu.RUnlock()
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// Cancel signals cancellation for an active run. Runs that are terminal,
// never dispatched, or unknown are not cancellable.
func (r *RunRegistry) Cancel(id string) error {
	entry := r.entry(id)
	if entry == nil {
		return ErrNotCancellable
	}
	entry.mu.RLock()
	cancel := entry.cancel
	terminal := entry.run.Status.Terminal()
	entry.mu.RUnlock()

	if cancel == nil || terminal {
		return ErrNotCancellable
	}
	cancel()
	return nil
}

// CancelPipeline cancels every active run of the pipeline and returns how
// many cancellation signals were sent.
func (r *RunRegistry) CancelPipeline(pipelineID string) int {
	r.mu.RLock()
	entries := make([]*runEntry, 0, len(r.entries))
	for _, e := range r.entries {
		entries = append(entries, e)
	}
	r.mu.RUnlock()

	cancelled := 0
	for _, e := range entries {
		e.mu.RLock()
		match := e.run.PipelineID == pipelineID && e.cancel != nil && !e.run.Status.Terminal()
		cancel := e.cancel
		e.mu.RUnlock()
		if match {
			cancel()
			cancelled++
		}
	}
	return cancelled
}

// Delete removes a run permanently. A running run cannot be deleted.
func (r *RunRegistry) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.entries[id]
	if !ok {
		return ErrNotFound
	}
	entry.mu.RLock()
	running := entry.run.Status == StatusRunning
	entry.mu.RUnlock()
	if running {
		return ErrRunBusy
	}
	delete(r.entries, id)
	return nil
}

// HasActive reports whether any run of the pipeline is pending-dispatched or running.
func (r *RunRegistry) HasActive(pipelineID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, e := range r.entries {
		e.mu.RLock()
		active := e.run.PipelineID == pipelineID && e.run.Status == StatusRunning
		e.mu.RUnlock()
		if active {
			return true
		}
	}
	return false
}

// Aggregate computes the derived run fields for a pipeline: the most recent
// run's summary (nil when the pipeline never ran), the count of non-terminal
// runs, and the total run count.
func (r *RunRegistry) Aggregate(pipelineID string) (latest *RunSummary, active, total int) {
	summaries := r.List(pipelineID)
	for i := range summaries {
		if !summaries[i].Status.Terminal() {
			active++
		}
	}
	total = len(summaries)
	if total > 0 {
		latest = &summaries[0]
	}
	return latest, active, total
}

// attach installs the cancel function for a run about to execute.
func (r *RunRegistry) attach(id string, cancel context.CancelFunc) bool {
	entry := r.entry(id)
	if entry == nil {
		return false
	}
	entry.mu.Lock()
	entry.cancel = cancel
	entry.mu.Unlock()
	return true
}

// update applies fn to the live run under its write lock. Returns false when
// the run has been deleted, which tells the state machine to stop.
func (r *RunRegistry) update(id string, fn func(run *Run)) bool {
	entry := r.entry(id)
	if entry == nil {
		return false
	}
	entry.mu.Lock()
	fn(&entry.run)
	entry.mu.Unlock()
	return true
}

// definitions returns the step definitions captured at run creation.
func (r *RunRegistry) definitions(id string) ([]StepDefinition, bool) {
	entry := r.entry(id)
	if entry == nil {
		return nil, false
	}
	entry.mu.RLock()
	defer entry.mu.RUnlock()
	defs := make([]StepDefinition, len(entry.defs))
	copy(defs, entry.defs)
	return defs, true
}

// release clears the cancel function once a run reaches a terminal state.
func (r *RunRegistry) release(id string) {
	entry := r.entry(id)
	if entry == nil {
		return
	}
	entry.mu.Lock()
	entry.cancel = nil
	entry.mu.Unlock()
}

// ActiveCount returns the number of runs currently running.
func (r *RunRegistry) ActiveCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, e := range r.entries {
		e.mu.RLock()
		if e.run.Status == StatusRunning {
			n++
		}
		e.mu.RUnlock()
	}
	return n
}

func (r *RunRegistry) entry(id string) *runEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.entries[id]
}
