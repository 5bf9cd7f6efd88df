// Package command runs the external programs the release pipeline depends on.
//
// Every stage that touches the outside world (apt, pip, the build script)
// goes through an [Executor], which spawns the process, streams its output
// line by line to a [LineHandler], and reports the exit code.
//
// Key types:
//   - [Executor]: Interface for running a command
//   - [Spec]: What to run, where, and with which extra environment
//   - [ExitError]: A command that ran but exited non-zero
//
// For testing, use [MockExecutor] which implements [Executor] without spawning
// real processes.
package command

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"
)

// Stream identifies which output stream a line came from.
type Stream string

const (
	// Stdout is the child's standard output.
	Stdout Stream = "stdout"

	// Stderr is the child's standard error.
	Stderr Stream = "stderr"
)

// LineHandler receives each output line of a running command. Calls are
// serialized; the handler never runs concurrently with itself.
type LineHandler func(stream Stream, line string)

// Spec describes a single command invocation.
type Spec struct {
	// Name is the program to run, looked up in PATH when not absolute.
	Name string

	// Args are the arguments passed to the program.
	Args []string

	// Dir is the working directory. Empty means the current directory.
	Dir string

	// Env holds extra KEY=VALUE entries appended to the parent environment.
	// Later entries win over inherited ones with the same key.
	Env []string
}

// String renders the command line for display.
func (s Spec) String() string {
	if len(s.Args) == 0 {
		return s.Name
	}
	return s.Name + " " + strings.Join(s.Args, " ")
}

// Executor runs commands.
//
// Run returns the child's exit code. The error is reserved for failures to
// start or wait on the process (missing binary, broken pipes); a command that
// runs and exits non-zero returns its code with a nil error.
type Executor interface {
	Run(ctx context.Context, spec Spec, handler LineHandler) (int, error)
}

// ExitError reports a command that exited with a non-zero code.
type ExitError struct {
	// Command is the rendered command line.
	Command string

	// Code is the child's exit code.
	Code int
}

// Error implements the error interface.
func (e *ExitError) Error() string {
	return fmt.Sprintf("%s: exit status %d", e.Command, e.Code)
}

// Require runs spec and converts a non-zero exit into an [*ExitError].
func Require(ctx context.Context, ex Executor, spec Spec, handler LineHandler) error {
	code, err := ex.Run(ctx, spec, handler)
	if err != nil {
		return fmt.Errorf("failed to run %s: %w", spec, err)
	}
	if code != 0 {
		return &ExitError{Command: spec.String(), Code: code}
	}
	return nil
}

// ExitCode extracts the exit code carried by err. It returns (code, true) when
// err wraps an [*ExitError] and (0, false) otherwise.
func ExitCode(err error) (int, bool) {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code, true
	}
	return 0, false
}

// DefaultExecutor implements [Executor] with os/exec.
type DefaultExecutor struct {
	// BufferSize is the maximum length in bytes of a single output line.
	// Defaults to 1MB if not set or <= 0.
	BufferSize int

	// WaitDelay bounds how long Run waits for the output pipes to close once
	// the child has exited or ctx is cancelled. Background processes left by
	// the child (dpkg under apt-get, for example) may hold them open.
	// Defaults to 5s if not set or <= 0.
	WaitDelay time.Duration
}

// NewExecutor creates a new [DefaultExecutor] with default settings.
func NewExecutor() *DefaultExecutor {
	return &DefaultExecutor{BufferSize: 1024 * 1024, WaitDelay: 5 * time.Second}
}

// Run starts the command, streams both pipes to handler and waits for exit.
//
// The process is killed when ctx is cancelled; the resulting exit code is
// returned like any other.
func (e *DefaultExecutor) Run(ctx context.Context, spec Spec, handler LineHandler) (int, error) {
	cmd := exec.CommandContext(ctx, spec.Name, spec.Args...)
	cmd.Dir = spec.Dir
	if len(spec.Env) > 0 {
		cmd.Env = append(os.Environ(), spec.Env...)
	}
	cmd.WaitDelay = e.WaitDelay
	if cmd.WaitDelay <= 0 {
		cmd.WaitDelay = 5 * time.Second
	}

	// Non-file writers make Wait own the copy from the child's pipes, so
	// WaitDelay applies to them.
	stdoutR, stdoutW := io.Pipe()
	stderrR, stderrW := io.Pipe()
	cmd.Stdout = stdoutW
	cmd.Stderr = stderrW

	var mu sync.Mutex
	emit := func(stream Stream, line string) {
		if handler == nil {
			return
		}
		mu.Lock()
		defer mu.Unlock()
		handler(stream, line)
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		e.scan(stdoutR, Stdout, emit)
	}()
	go func() {
		defer wg.Done()
		e.scan(stderrR, Stderr, emit)
	}()

	if err := cmd.Start(); err != nil {
		stdoutW.Close()
		stderrW.Close()
		wg.Wait()
		return 1, err
	}

	waitErr := cmd.Wait()
	stdoutW.Close()
	stderrW.Close()
	wg.Wait()

	if waitErr != nil {
		var exitErr *exec.ExitError
		switch {
		case errors.As(waitErr, &exitErr):
			code := exitErr.ExitCode()
			if code < 0 {
				// Killed by a signal, usually ctx cancellation.
				code = 1
			}
			return code, nil
		case errors.Is(waitErr, exec.ErrWaitDelay):
			// The child exited cleanly but left its pipes open.
			return cmd.ProcessState.ExitCode(), nil
		}
		return 1, waitErr
	}
	return 0, nil
}

func (e *DefaultExecutor) scan(r io.Reader, stream Stream, emit func(Stream, string)) {
	bufSize := e.BufferSize
	if bufSize <= 0 {
		bufSize = 1024 * 1024
	}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), bufSize)
	for scanner.Scan() {
		emit(stream, scanner.Text())
	}
	// A line longer than the buffer stops the scanner; drain the rest so the
	// child never blocks on a full pipe.
	_, _ = io.Copy(io.Discard, r)
}
