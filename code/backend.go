package code

import (
	"context"
	"time"
)

// Process describes one interpreter invocation.
type Process struct {
	// Executable is the interpreter, e.g. "python" or "sh".
	Executable string
	// File is the script path relative to WorkDir.
	File string
	// WorkDir is the absolute working directory.
	WorkDir string
	Timeout time.Duration
}

// Output is the raw outcome of a finished process.
type Output struct {
	ExitCode int
	Stdout   string
	Stderr   string
	TimedOut bool
}

// Backend runs a Process. Implementations return an error only when the
// process could not be run at all; non-zero exits and timeouts are reported
// through Output.
type Backend interface {
	Name() string
	Run(ctx context.Context, p Process) (*Output, error)
}
