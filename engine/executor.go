// ABOUTME: Step executor: runs one resolved shell command under a deadline with retry and
// ABOUTME: continue-on-error policy, killing the whole process group on timeout or cancellation.
package engine

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"syscall"
	"time"
)

// Executor runs individual pipeline steps as shell subprocesses.
type Executor struct {
	// Shell is the interpreter invoked as `Shell -c <command>`. Empty means "sh".
	Shell string
	// WorkDir is the working directory for step commands. Empty means inherit.
	WorkDir string
}

// StepRequest describes one resolved step execution.
type StepRequest struct {
	Command         string
	Timeout         time.Duration
	RetryCount      int
	ContinueOnError bool
	// OnRetry is called before each re-execution with the attempt number
	// that just failed (1-based). May be nil.
	OnRetry func(attempt int)
}

// StepOutcome is the result of executing one step through its full retry budget.
type StepOutcome struct {
	Status   Status // success, failed, skipped, or cancelled
	Output   string // captured stdout of the final attempt
	Error    string // captured stderr or a synthesized failure description
	Attempts int    // total command invocations
}

// commandResult is the outcome of a single command invocation.
type commandResult struct {
	exitCode  int
	stdout    string
	stderr    string
	timedOut  bool
	cancelled bool
	startErr  error // non-nil when the process could not be launched
}

// Execute runs the resolved command, retrying immediately on timeout or
// non-zero exit until the retry budget is exhausted. A step that still fails
// ends failed, or skipped (error text preserved) when ContinueOnError is set.
// Cancellation of ctx terminates the subprocess and yields a cancelled outcome.
func (e *Executor) Execute(ctx context.Context, req StepRequest) StepOutcome {
	var res commandResult
	attempts := 0

	for attempt := 0; attempt <= req.RetryCount; attempt++ {
		if ctx.Err() != nil {
			return StepOutcome{Status: StatusCancelled, Error: "cancelled before execution", Attempts: attempts}
		}

		attempts++
		res = e.runCommand(ctx, req.Command, req.Timeout)

		if res.cancelled {
			return StepOutcome{
				Status:   StatusCancelled,
				Output:   res.stdout,
				Error:    "cancelled during execution",
				Attempts: attempts,
			}
		}
		if res.exitCode == 0 && res.startErr == nil && !res.timedOut {
			return StepOutcome{Status: StatusSuccess, Output: res.stdout, Attempts: attempts}
		}
		// Failed attempt; retry immediately (no backoff) if budget remains.
		if attempt < req.RetryCount && req.OnRetry != nil {
			req.OnRetry(attempts)
		}
	}

	errText := res.stderr
	switch {
	case res.timedOut:
		errText = fmt.Sprintf("command timed out after %s", req.Timeout)
	case res.startErr != nil:
		errText = fmt.Sprintf("command could not be started: %v", res.startErr)
	case errText == "":
		errText = fmt.Sprintf("command exited with code %d", res.exitCode)
	}

	status := StatusFailed
	if req.ContinueOnError {
		status = StatusSkipped
	}
	return StepOutcome{Status: status, Output: res.stdout, Error: errText, Attempts: attempts}
}

// runCommand executes one shell invocation with its own timeout context.
// The subprocess gets its own process group so the entire tree is killed
// when the deadline passes or the run is cancelled.
func (e *Executor) runCommand(ctx context.Context, command string, timeout time.Duration) commandResult {
	cmdCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	shell := e.Shell
	if shell == "" {
		shell = "sh"
	}

	cmd := exec.CommandContext(cmdCtx, shell, "-c", command)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		if cmd.Process != nil {
			pgid, err := syscall.Getpgid(cmd.Process.Pid)
			if err == nil {
				_ = syscall.Kill(-pgid, syscall.SIGKILL)
			}
			return cmd.Process.Kill()
		}
		return nil
	}
	cmd.WaitDelay = 3 * time.Second

	if e.WorkDir != "" {
		cmd.Dir = e.WorkDir
	}

	var stdoutBuf, stderrBuf bytes.Buffer
	cmd.Stdout = &stdoutBuf
	cmd.Stderr = &stderrBuf

	runErr := cmd.Run()

	res := commandResult{
		stdout: stdoutBuf.String(),
		stderr: stderrBuf.String(),
	}

	if runErr != nil {
		if exitErr, ok := runErr.(*exec.ExitError); ok {
			res.exitCode = exitErr.ExitCode()
		} else {
			res.exitCode = 1
			res.startErr = runErr
		}
		// Distinguish the run being cancelled from the step timing out.
		if ctx.Err() == context.Canceled {
			res.cancelled = true
		} else if cmdCtx.Err() == context.DeadlineExceeded {
			res.timedOut = true
		}
	}

	return res
}
