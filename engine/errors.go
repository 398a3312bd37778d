// ABOUTME: Error taxonomy for registry operations, surfaced synchronously to callers.
// ABOUTME: Execution-time step failures are never errors; they land in StepResult/Run state.
package engine

import "errors"

var (
	// ErrNotFound indicates an unknown pipeline or run ID.
	ErrNotFound = errors.New("not found")

	// ErrInvalidDefinition indicates a malformed pipeline definition,
	// rejected before anything is stored.
	ErrInvalidDefinition = errors.New("invalid pipeline definition")

	// ErrPipelineBusy rejects deleting a pipeline that has active runs.
	ErrPipelineBusy = errors.New("pipeline has active runs")

	// ErrRunBusy rejects deleting a run that is currently running.
	ErrRunBusy = errors.New("run is currently running")

	// ErrNotCancellable rejects cancelling a run that is not active.
	ErrNotCancellable = errors.New("run is not active")
)
