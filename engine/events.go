// ABOUTME: Engine lifecycle events emitted as runs and steps transition state.
// ABOUTME: Delivered through an optional callback so observers never block execution.
package engine

import "time"

// EventType identifies the kind of engine lifecycle event.
type EventType string

const (
	EventRunStarted    EventType = "run.started"
	EventRunCompleted  EventType = "run.completed"
	EventRunFailed     EventType = "run.failed"
	EventRunCancelled  EventType = "run.cancelled"
	EventStepStarted   EventType = "step.started"
	EventStepSucceeded EventType = "step.succeeded"
	EventStepFailed    EventType = "step.failed"
	EventStepRetrying  EventType = "step.retrying"
	EventStepSkipped   EventType = "step.skipped"
)

// Event is a single lifecycle event tied to a run and optionally a step.
type Event struct {
	Type       EventType      `json:"type"`
	RunID      string         `json:"run_id"`
	PipelineID string         `json:"pipeline_id,omitempty"`
	Step       string         `json:"step,omitempty"`
	Data       map[string]any `json:"data,omitempty"`
	Timestamp  time.Time      `json:"timestamp"`
}

// emitEvent stamps and delivers an event to the configured callback, if any.
func (e *Engine) emitEvent(evt Event) {
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now()
	}
	if e.eventHandler != nil {
		e.eventHandler(evt)
	}
}
