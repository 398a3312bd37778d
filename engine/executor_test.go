// ABOUTME: Tests for the step executor: timeout enforcement, retry budget, continue-on-error
// ABOUTME: policy, launch failures, and pre-emptive cancellation of the subprocess.
package engine

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestExecuteSuccessCapturesStdout(t *testing.T) {
	e := &Executor{}
	out := e.Execute(context.Background(), StepRequest{
		Command: "echo hello",
		Timeout: 5 * time.Second,
	})
	if out.Status != StatusSuccess {
		t.Fatalf("expected success, got %s (error: %s)", out.Status, out.Error)
	}
	if strings.TrimSpace(out.Output) != "hello" {
		t.Errorf("expected output %q, got %q", "hello", out.Output)
	}
	if out.Attempts != 1 {
		t.Errorf("expected 1 attempt, got %d", out.Attempts)
	}
}

func TestExecuteNonZeroExitFails(t *testing.T) {
	e := &Executor{}
	out := e.Execute(context.Background(), StepRequest{
		Command: "echo oops >&2; exit 3",
		Timeout: 5 * time.Second,
	})
	if out.Status != StatusFailed {
		t.Fatalf("expected failed, got %s", out.Status)
	}
	if !strings.Contains(out.Error, "oops") {
		t.Errorf("expected stderr in error text, got %q", out.Error)
	}
}

func TestExecuteFailureWithoutStderrSynthesizesError(t *testing.T) {
	e := &Executor{}
	out := e.Execute(context.Background(), StepRequest{
		Command: "exit 7",
		Timeout: 5 * time.Second,
	})
	if out.Status != StatusFailed {
		t.Fatalf("expected failed, got %s", out.Status)
	}
	if !strings.Contains(out.Error, "exited with code 7") {
		t.Errorf("expected synthesized exit-code error, got %q", out.Error)
	}
}

func TestExecuteTimeoutKillsCommand(t *testing.T) {
	e := &Executor{}
	start := time.Now()
	out := e.Execute(context.Background(), StepRequest{
		Command: "sleep 5",
		Timeout: 1 * time.Second,
	})
	elapsed := time.Since(start)

	if out.Status != StatusFailed {
		t.Fatalf("expected failed on timeout, got %s", out.Status)
	}
	if !strings.Contains(out.Error, "timed out") {
		t.Errorf("expected timeout error text, got %q", out.Error)
	}
	if elapsed > 3*time.Second {
		t.Errorf("timeout not enforced: took %v", elapsed)
	}
}

func TestExecuteRetryBudgetExhausted(t *testing.T) {
	counter := filepath.Join(t.TempDir(), "attempts")
	e := &Executor{}
	retries := 0
	out := e.Execute(context.Background(), StepRequest{
		Command:    "echo x >> " + counter + "; exit 1",
		Timeout:    5 * time.Second,
		RetryCount: 2,
		OnRetry:    func(int) { retries++ },
	})

	if out.Status != StatusFailed {
		t.Fatalf("expected failed, got %s", out.Status)
	}
	if out.Attempts != 3 {
		t.Errorf("expected exactly 3 attempts, got %d", out.Attempts)
	}
	if retries != 2 {
		t.Errorf("expected 2 retry callbacks, got %d", retries)
	}
	data, err := os.ReadFile(counter)
	if err != nil {
		t.Fatalf("reading counter file: %v", err)
	}
	if got := strings.Count(string(data), "x"); got != 3 {
		t.Errorf("command executed %d times, want 3", got)
	}
}

func TestExecuteRetrySucceedsMidBudget(t *testing.T) {
	// Fails on the first attempt, succeeds once the marker file exists.
	marker := filepath.Join(t.TempDir(), "marker")
	e := &Executor{}
	out := e.Execute(context.Background(), StepRequest{
		Command:    "test -f " + marker + " || { touch " + marker + "; exit 1; }",
		Timeout:    5 * time.Second,
		RetryCount: 3,
	})
	if out.Status != StatusSuccess {
		t.Fatalf("expected success after retry, got %s (error: %s)", out.Status, out.Error)
	}
	if out.Attempts != 2 {
		t.Errorf("expected 2 attempts, got %d", out.Attempts)
	}
}

func TestExecuteContinueOnErrorYieldsSkipped(t *testing.T) {
	e := &Executor{}
	out := e.Execute(context.Background(), StepRequest{
		Command:         "echo broken >&2; exit 1",
		Timeout:         5 * time.Second,
		ContinueOnError: true,
	})
	if out.Status != StatusSkipped {
		t.Fatalf("expected skipped, got %s", out.Status)
	}
	if !strings.Contains(out.Error, "broken") {
		t.Errorf("error text must be preserved on skip, got %q", out.Error)
	}
}

func TestExecuteCancelledContextBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	e := &Executor{}
	out := e.Execute(ctx, StepRequest{Command: "echo never", Timeout: 5 * time.Second})
	if out.Status != StatusCancelled {
		t.Fatalf("expected cancelled, got %s", out.Status)
	}
	if out.Attempts != 0 {
		t.Errorf("expected no attempts, got %d", out.Attempts)
	}
}

func TestExecuteCancelledMidExecution(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(300 * time.Millisecond)
		cancel()
	}()

	e := &Executor{}
	start := time.Now()
	out := e.Execute(ctx, StepRequest{Command: "sleep 10", Timeout: 30 * time.Second})
	elapsed := time.Since(start)

	if out.Status != StatusCancelled {
		t.Fatalf("expected cancelled, got %s", out.Status)
	}
	if elapsed > 5*time.Second {
		t.Errorf("subprocess not terminated promptly on cancel: took %v", elapsed)
	}
}

func TestExecuteUnlaunchableShellFails(t *testing.T) {
	e := &Executor{Shell: "/nonexistent/shell"}
	out := e.Execute(context.Background(), StepRequest{
		Command: "echo hi",
		Timeout: 5 * time.Second,
	})
	if out.Status != StatusFailed {
		t.Fatalf("expected failed for unlaunchable shell, got %s", out.Status)
	}
	if !strings.Contains(out.Error, "could not be started") {
		t.Errorf("expected launch-failure error text, got %q", out.Error)
	}
}

func TestExecuteWorkDir(t *testing.T) {
	dir := t.TempDir()
	e := &Executor{WorkDir: dir}
	out := e.Execute(context.Background(), StepRequest{Command: "pwd", Timeout: 5 * time.Second})
	if out.Status != StatusSuccess {
		t.Fatalf("expected success, got %s", out.Status)
	}
	got := strings.TrimSpace(out.Output)
	want, _ := filepath.EvalSymlinks(dir)
	gotResolved, _ := filepath.EvalSymlinks(got)
	if gotResolved != want {
		t.Errorf("expected workdir %q, got %q", want, got)
	}
}
