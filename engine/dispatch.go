// ABOUTME: Background execution dispatcher: launches a run's state machine either
// ABOUTME: fire-and-forget in its own goroutine or synchronously for foreground callers.
package engine

import "context"

// Dispatch hands a pending run to the state machine. Background dispatch
// (the default) returns immediately with the run still pending or in early
// running state; callers poll for progress. Foreground dispatch blocks until
// the run reaches a terminal state and returns the final run.
//
// The engine imposes no ceiling on concurrently dispatched runs.
func (e *Engine) Dispatch(runID string, foreground bool) (Run, error) {
	ctx, cancel := context.WithCancel(context.Background())
	if !e.runs.attach(runID, cancel) {
		cancel()
		return Run{}, ErrNotFound
	}

	if foreground {
		e.executeRun(ctx, runID)
		return e.runs.Get(runID)
	}

	go e.executeRun(ctx, runID)
	return e.runs.Get(runID)
}
