package fetch

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os/exec"
	"strings"
	"time"
)

// Result captures one external process invocation.
type Result struct {
	// Command is the program followed by its arguments.
	Command []string
	// ExitCode is the process exit status, or -1 when it never ran to completion.
	ExitCode int
	// Output is the combined stdout and stderr.
	Output string
	// Duration is the wall time of the invocation.
	Duration time.Duration
	// Err is set when the process could not start or exited non-zero.
	Err error
}

// OK reports whether the process ran and exited zero.
func (r Result) OK() bool {
	return r.Err == nil && r.ExitCode == 0
}

// String returns the command line.
func (r Result) String() string {
	return strings.Join(r.Command, " ")
}

// Runner runs external programs.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) Result
}

// ExecRunner runs programs with os/exec and waits for them to exit.
type ExecRunner struct {
	// Stream, if set, also receives the process output as it is produced.
	Stream io.Writer
}

// NewExecRunner creates a new ExecRunner.
func NewExecRunner(stream io.Writer) *ExecRunner {
	return &ExecRunner{Stream: stream}
}

// Run starts name with args and blocks until it exits or ctx is done.
func (r *ExecRunner) Run(ctx context.Context, name string, args ...string) Result {
	res := Result{
		Command:  append([]string{name}, args...),
		ExitCode: -1,
	}

	var buf bytes.Buffer
	out := io.Writer(&buf)
	if r.Stream != nil {
		out = io.MultiWriter(&buf, r.Stream)
	}

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = out
	cmd.Stderr = out

	start := time.Now()
	err := cmd.Run()
	res.Duration = time.Since(start)
	res.Output = buf.String()

	var exitErr *exec.ExitError
	switch {
	case err == nil:
		res.ExitCode = 0
	case errors.As(err, &exitErr):
		res.ExitCode = exitErr.ExitCode()
		res.Err = err
	default:
		res.Err = err
	}
	return res
}
