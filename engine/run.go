// ABOUTME: Run state machine: drives one run through its steps sequentially, stamping
// ABOUTME: transitions exactly once and aggregating step outcomes into the run status.
package engine

import (
	"context"
	"log"
	"time"
)

// executeRun is the execution unit for a single run. It owns all writes to
// the run document; concurrent pollers read snapshots through the registry.
// ctx carries the run's cancellation signal from the broker.
func (e *Engine) executeRun(ctx context.Context, runID string) {
	defs, ok := e.runs.definitions(runID)
	if !ok {
		log.Printf("run execute run_id=%s error=%q", runID, "run deleted before start")
		return
	}

	var variables map[string]string
	var pipelineID string
	startedAt := time.Now()
	ok = e.runs.update(runID, func(run *Run) {
		run.Status = StatusRunning
		run.StartedAt = &startedAt
		variables = run.Variables
		pipelineID = run.PipelineID
	})
	if !ok {
		return
	}

	log.Printf("run started run_id=%s pipeline_id=%s steps=%d", runID, pipelineID, len(defs))
	e.emitEvent(Event{Type: EventRunStarted, RunID: runID, PipelineID: pipelineID})

	final := StatusSuccess
	for i, def := range defs {
		// Cancellation observed at the step boundary.
		if ctx.Err() != nil {
			final = StatusCancelled
			break
		}

		outcome := e.executeStep(ctx, runID, pipelineID, i, def, variables)

		switch outcome {
		case StatusCancelled:
			final = StatusCancelled
		case StatusFailed:
			final = StatusFailed
		case StatusSuccess, StatusSkipped:
			continue
		}
		break
	}

	e.finishRun(runID, pipelineID, startedAt, final)
}

// executeStep resolves variables, records the step's transitions, and runs
// the command through the executor. Returns the step's terminal status.
func (e *Engine) executeStep(ctx context.Context, runID, pipelineID string, index int, def StepDefinition, variables map[string]string) Status {
	command := Substitute(def.Command, variables)

	stepStart := time.Now()
	ok := e.runs.update(runID, func(run *Run) {
		step := &run.Steps[index]
		step.Command = command
		step.Status = StatusRunning
		step.StartedAt = &stepStart
	})
	if !ok {
		return StatusCancelled
	}

	log.Printf("step started run_id=%s step=%q command=%q", runID, def.Name, command)
	e.emitEvent(Event{Type: EventStepStarted, RunID: runID, PipelineID: pipelineID, Step: def.Name})

	outcome := e.executor.Execute(ctx, StepRequest{
		Command:         command,
		Timeout:         def.EffectiveTimeout(),
		RetryCount:      def.RetryCount,
		ContinueOnError: def.ContinueOnError,
		OnRetry: func(attempt int) {
			log.Printf("step retrying run_id=%s step=%q attempt=%d", runID, def.Name, attempt)
			e.emitEvent(Event{
				Type: EventStepRetrying, RunID: runID, PipelineID: pipelineID, Step: def.Name,
				Data: map[string]any{"attempt": attempt},
			})
		},
	})

	stepEnd := time.Now()
	e.runs.update(runID, func(run *Run) {
		step := &run.Steps[index]
		step.Status = outcome.Status
		step.Output = outcome.Output
		step.Error = outcome.Error
		step.EndedAt = &stepEnd
	})

	switch outcome.Status {
	case StatusSuccess:
		log.Printf("step succeeded run_id=%s step=%q attempts=%d", runID, def.Name, outcome.Attempts)
		e.emitEvent(Event{Type: EventStepSucceeded, RunID: runID, PipelineID: pipelineID, Step: def.Name})
	case StatusSkipped:
		log.Printf("step skipped run_id=%s step=%q error=%q", runID, def.Name, outcome.Error)
		e.emitEvent(Event{
			Type: EventStepSkipped, RunID: runID, PipelineID: pipelineID, Step: def.Name,
			Data: map[string]any{"error": outcome.Error},
		})
	case StatusFailed:
		log.Printf("step failed run_id=%s step=%q attempts=%d error=%q", runID, def.Name, outcome.Attempts, outcome.Error)
		e.emitEvent(Event{
			Type: EventStepFailed, RunID: runID, PipelineID: pipelineID, Step: def.Name,
			Data: map[string]any{"error": outcome.Error, "attempts": outcome.Attempts},
		})
	}

	return outcome.Status
}

// finishRun stamps the terminal transition exactly once and releases the
// run's cancellation handle.
func (e *Engine) finishRun(runID, pipelineID string, startedAt time.Time, final Status) {
	finishedAt := time.Now()
	duration := finishedAt.Sub(startedAt).Seconds()

	e.runs.update(runID, func(run *Run) {
		run.Status = final
		run.FinishedAt = &finishedAt
		run.Duration = &duration
	})
	e.runs.release(runID)

	log.Printf("run finished run_id=%s status=%s duration=%.2fs", runID, final, duration)
	switch final {
	case StatusSuccess:
		e.emitEvent(Event{Type: EventRunCompleted, RunID: runID, PipelineID: pipelineID})
	case StatusFailed:
		e.emitEvent(Event{Type: EventRunFailed, RunID: runID, PipelineID: pipelineID})
	case StatusCancelled:
		e.emitEvent(Event{Type: EventRunCancelled, RunID: runID, PipelineID: pipelineID})
	}

	e.persistRun(runID)
}
