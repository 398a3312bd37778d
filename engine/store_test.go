// ABOUTME: Tests for the SQLite store: round-tripping pipelines and runs, deletion,
// ABOUTME: and settling runs that were in flight when the process died.
package engine

import (
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func openTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "state.db")
	s, err := OpenStore(path)
	if err != nil {
		t.Fatalf("OpenStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s, path
}

func TestStoreRoundTripsPipeline(t *testing.T) {
	s, _ := openTestStore(t)
	p := Pipeline{
		ID:        NewPipelineID(),
		Name:      "build",
		Version:   "2.0.0",
		Variables: map[string]string{"ENV": "ci"},
		Steps:     []StepDefinition{{Name: "compile", Command: "make", Timeout: 120, RetryCount: 1}},
		CreatedAt: time.Now().Truncate(time.Millisecond),
	}
	if err := s.SavePipeline(p); err != nil {
		t.Fatalf("SavePipeline: %v", err)
	}

	pipelines, _, err := s.LoadAll()
	if err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	if len(pipelines) != 1 {
		t.Fatalf("loaded %d pipelines, want 1", len(pipelines))
	}
	got := pipelines[0]
	if got.ID != p.ID || got.Name != p.Name || got.Version != p.Version {
		t.Errorf("pipeline identity mismatch: %+v", got)
	}
	if got.Variables["ENV"] != "ci" {
		t.Errorf("variables lost: %v", got.Variables)
	}
	if len(got.Steps) != 1 || got.Steps[0].RetryCount != 1 {
		t.Errorf("steps lost: %+v", got.Steps)
	}
}

func TestStoreRoundTripsTerminalRun(t *testing.T) {
	s, _ := openTestStore(t)
	started := time.Now().Add(-time.Minute)
	finished := time.Now()
	duration := finished.Sub(started).Seconds()
	run := Run{
		ID:         NewRunID(),
		PipelineID: NewPipelineID(),
		Name:       "build",
		Status:     StatusSuccess,
		CreatedAt:  started,
		StartedAt:  &started,
		FinishedAt: &finished,
		Duration:   &duration,
		Steps: []StepResult{{
			Name: "compile", Command: "make", Status: StatusSuccess,
			Output: "ok\n", StartedAt: &started, EndedAt: &finished,
		}},
	}
	if err := s.SaveRun(run); err != nil {
		t.Fatalf("SaveRun: %v", err)
	}

	_, runs, err := s.LoadAll()
	if err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("loaded %d runs, want 1", len(runs))
	}
	got := runs[0]
	if got.Status != StatusSuccess {
		t.Errorf("status = %s, want success", got.Status)
	}
	if got.Steps[0].Output != "ok\n" {
		t.Errorf("step output lost: %q", got.Steps[0].Output)
	}
}

func TestStoreMarksInterruptedRunFailed(t *testing.T) {
	s, _ := openTestStore(t)
	started := time.Now()
	run := Run{
		ID:         NewRunID(),
		PipelineID: NewPipelineID(),
		Name:       "crashy",
		Status:     StatusRunning,
		CreatedAt:  started,
		StartedAt:  &started,
		Steps: []StepResult{
			{Name: "done", Command: "true", Status: StatusSuccess},
			{Name: "inflight", Command: "sleep 99", Status: StatusRunning, StartedAt: &started},
			{Name: "queued", Command: "true", Status: StatusPending},
		},
	}
	if err := s.SaveRun(run); err != nil {
		t.Fatalf("SaveRun: %v", err)
	}

	_, runs, err := s.LoadAll()
	if err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	got := runs[0]
	if got.Status != StatusFailed {
		t.Errorf("interrupted run status = %s, want failed", got.Status)
	}
	if got.FinishedAt == nil || got.Duration == nil {
		t.Error("interrupted run must be stamped terminal")
	}
	if got.Steps[0].Status != StatusSuccess {
		t.Errorf("completed step rewritten to %s", got.Steps[0].Status)
	}
	if got.Steps[1].Status != StatusFailed {
		t.Errorf("in-flight step = %s, want failed", got.Steps[1].Status)
	}
	if got.Steps[1].Error == "" {
		t.Error("in-flight step must carry an interruption error")
	}
	if got.Steps[2].Status != StatusPending {
		t.Errorf("queued step = %s, want pending", got.Steps[2].Status)
	}
}

func TestStoreDelete(t *testing.T) {
	s, _ := openTestStore(t)
	p := Pipeline{ID: NewPipelineID(), Name: "p", Steps: []StepDefinition{{Name: "a", Command: "true"}}, CreatedAt: time.Now()}
	run := Run{ID: NewRunID(), PipelineID: p.ID, Name: "p", Status: StatusSuccess, CreatedAt: time.Now()}
	if err := s.SavePipeline(p); err != nil {
		t.Fatalf("SavePipeline: %v", err)
	}
	if err := s.SaveRun(run); err != nil {
		t.Fatalf("SaveRun: %v", err)
	}

	if err := s.DeletePipeline(p.ID); err != nil {
		t.Fatalf("DeletePipeline: %v", err)
	}
	if err := s.DeleteRun(run.ID); err != nil {
		t.Fatalf("DeleteRun: %v", err)
	}

	pipelines, runs, err := s.LoadAll()
	if err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	if len(pipelines) != 0 || len(runs) != 0 {
		t.Errorf("deleted rows still present: %d pipelines, %d runs", len(pipelines), len(runs))
	}
}

func TestEngineReloadsStateFromStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")

	e1, err := New(Config{StorePath: path})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	p, run, err := e1.CreateAndRun(PipelineConfig{
		Name:  "durable",
		Steps: []StepDefinition{{Name: "A", Command: "echo saved", Timeout: 5}},
	}, true)
	if err != nil {
		t.Fatalf("CreateAndRun: %v", err)
	}
	if err := e1.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	e2, err := New(Config{StorePath: path})
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer e2.Close()

	status, err := e2.GetPipeline(p.ID)
	if err != nil {
		t.Fatalf("pipeline lost across restart: %v", err)
	}
	if status.Status != StatusSuccess {
		t.Errorf("pipeline status = %s, want success", status.Status)
	}
	got, err := e2.GetRun(run.ID)
	if err != nil {
		t.Fatalf("run lost across restart: %v", err)
	}
	if got.Status != StatusSuccess {
		t.Errorf("run status = %s, want success", got.Status)
	}
	if !strings.Contains(got.Steps[0].Output, "saved") {
		t.Errorf("step output lost: %q", got.Steps[0].Output)
	}
}
