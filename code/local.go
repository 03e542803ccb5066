package code

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"time"
)

// waitDelay bounds how long Run waits for children that keep the output
// pipes open after the interpreter was killed.
const waitDelay = 2 * time.Second

// LocalBackend runs interpreters as subprocesses of the current process.
type LocalBackend struct{}

// NewLocalBackend creates a LocalBackend.
func NewLocalBackend() *LocalBackend { return &LocalBackend{} }

// Name returns "local".
func (b *LocalBackend) Name() string { return "local" }

// Run executes p, killing the process when the timeout elapses.
func (b *LocalBackend) Run(ctx context.Context, p Process) (*Output, error) {
	if p.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, p.Executable, p.File)
	cmd.Dir = p.WorkDir
	cmd.WaitDelay = waitDelay

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	out := &Output{Stdout: stdout.String(), Stderr: stderr.String()}

	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		out.TimedOut = true
		out.ExitCode = -1
		return out, nil
	}
	if err != nil {
		var exitErr *exec.ExitError
		switch {
		case errors.As(err, &exitErr):
			out.ExitCode = exitErr.ExitCode()
			return out, nil
		case errors.Is(err, exec.ErrWaitDelay) && cmd.ProcessState != nil:
			out.ExitCode = cmd.ProcessState.ExitCode()
			return out, nil
		default:
			return nil, err
		}
	}
	return out, nil
}
