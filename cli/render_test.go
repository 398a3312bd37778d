// ABOUTME: Tests for the table and detail renderers and the small formatting helpers.
package cli

import (
	"strings"
	"testing"
	"time"

	"github.com/jkalend/custom-cicd/engine"
)

func TestRenderPipelineTableEmpty(t *testing.T) {
	out := renderPipelineTable(nil)
	if !strings.Contains(out, "no pipelines") {
		t.Errorf("output %q missing empty marker", out)
	}
}

func TestRenderPipelineTableRows(t *testing.T) {
	now := time.Now()
	out := renderPipelineTable([]engine.PipelineStatus{
		{ID: "pid-1", Name: "build-service", Status: engine.StatusSuccess,
			LastRunAt: &now, ActiveRuns: 0, TotalRuns: 4},
		{ID: "pid-2", Name: "deploy", Status: engine.StatusNeverRun},
	})

	for _, want := range []string{"pid-1", "build-service", "pid-2", "never_run", "LAST RUN"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestRenderRunDetailsIncludesSteps(t *testing.T) {
	started := time.Now()
	dur := 1.5
	out := renderRunDetails(engine.Run{
		ID:         "run-1",
		PipelineID: "pid-1",
		Name:       "build",
		Status:     engine.StatusFailed,
		CreatedAt:  started,
		StartedAt:  &started,
		Duration:   &dur,
		Steps: []engine.StepResult{
			{Name: "compile", Command: "make build", Status: engine.StatusSuccess, Output: "ok\n"},
			{Name: "test", Command: "make test", Status: engine.StatusFailed, Error: "exit code 2"},
		},
	})

	for _, want := range []string{"run-1", "compile", "$ make build", "exit code 2", "1.5s"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestRenderRunTableEmpty(t *testing.T) {
	if out := renderRunTable(nil); !strings.Contains(out, "no runs") {
		t.Errorf("output %q missing empty marker", out)
	}
}

func TestFormatDuration(t *testing.T) {
	if got := formatDuration(nil); got != "-" {
		t.Errorf("nil duration = %q", got)
	}
	d := 2.04
	if got := formatDuration(&d); got != "2.0s" {
		t.Errorf("2.04 = %q", got)
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Errorf("short = %q", got)
	}
	if got := truncate("a-very-long-pipeline-name", 10); got != "a-very-..." {
		t.Errorf("long = %q", got)
	}
	if len(truncate("abcdef", 3)) != 3 {
		t.Error("tiny max not honored")
	}
}
