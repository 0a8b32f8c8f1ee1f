// Package executor runs external build tools and hook scripts synchronously,
// capturing their output and exit codes.
package executor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/kballard/go-shellquote"
	"github.com/rs/zerolog"
)

// Command describes one external process invocation.
type Command struct {
	// Path is the executable name or path.
	Path string

	// Args are the process arguments.
	Args []string

	// Dir is the working directory. Empty means the caller's.
	Dir string

	// Env entries are merged into the inherited environment, they never
	// replace it.
	Env map[string]string

	// Timeout, when positive, is a hard deadline: the child process is
	// killed on expiry.
	Timeout time.Duration
}

// Result is the captured outcome of one process invocation.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// Success reports whether the process exited zero.
func (r Result) Success() bool {
	return r.ExitCode == 0
}

// ExitError reports a nonzero exit promoted to an error by RunOrFail.
type ExitError struct {
	ExitCode    int
	CommandLine string
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("command %q exited with code %d", e.CommandLine, e.ExitCode)
}

// pipeDrainGrace bounds how long Run waits for the output pipes to close
// once the deadline expires or the child exits.
const pipeDrainGrace = time.Second

// Executor runs external processes one at a time, blocking until exit.
type Executor struct {
	log zerolog.Logger
}

// New creates a new executor.
func New(log zerolog.Logger) *Executor {
	return &Executor{log: log}
}

// SplitArgs splits a flat, shell-quoted argument string into argv entries.
func SplitArgs(flat string) ([]string, error) {
	if strings.TrimSpace(flat) == "" {
		return nil, nil
	}
	args, err := shellquote.Split(flat)
	if err != nil {
		return nil, fmt.Errorf("parsing argument string %q: %w", flat, err)
	}
	return args, nil
}

// Run starts the process, drains stdout and stderr, and waits for exit.
// A nonzero exit code is a normal, inspectable result, not an error.
// Failure to start the process at all is always an error.
func (e *Executor) Run(ctx context.Context, cmd Command) (Result, error) {
	if cmd.Path == "" {
		return Result{}, fmt.Errorf("command path is empty")
	}

	path, args := normalizeCommand(cmd.Path, cmd.Args)

	if cmd.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cmd.Timeout)
		defer cancel()
	}

	proc := exec.CommandContext(ctx, path, args...)
	proc.Dir = cmd.Dir
	proc.Env = mergedEnv(cmd.Env)
	configureProcessGroup(proc)
	if cmd.Timeout > 0 {
		// Descendants inheriting the stdout/stderr pipes must not keep
		// Run blocked past the deadline.
		proc.WaitDelay = pipeDrainGrace
	}

	var stdout, stderr bytes.Buffer
	proc.Stdout = &stdout
	proc.Stderr = &stderr

	e.log.Debug().
		Str("command", commandLine(path, args)).
		Str("dir", cmd.Dir).
		Msg("Running external command")

	start := time.Now()
	err := proc.Run()
	elapsed := time.Since(start)

	result := Result{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}

	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return result, fmt.Errorf("command %q: %w", commandLine(path, args), ctxErr)
		}
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			// The process never started (binary missing, permissions).
			return result, fmt.Errorf("starting command %q: %w", commandLine(path, args), err)
		}
		result.ExitCode = exitErr.ExitCode()
	}

	e.log.Trace().
		Str("command", commandLine(path, args)).
		Int("exitCode", result.ExitCode).
		Dur("duration", elapsed).
		Msg("External command finished")

	return result, nil
}

// RunOrFail runs the command and promotes a nonzero exit to an *ExitError
// carrying the exit code and the invoked command line.
func (e *Executor) RunOrFail(ctx context.Context, cmd Command) (Result, error) {
	result, err := e.Run(ctx, cmd)
	if err != nil {
		return result, err
	}
	if !result.Success() {
		path, args := normalizeCommand(cmd.Path, cmd.Args)
		return result, &ExitError{
			ExitCode:    result.ExitCode,
			CommandLine: commandLine(path, args),
		}
	}
	return result, nil
}

// normalizeCommand wraps interpreter-requiring scripts so the same calling
// code works across host operating systems.
func normalizeCommand(path string, args []string) (string, []string) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".sh":
		if runtime.GOOS != "windows" {
			return "sh", append([]string{path}, args...)
		}
	case ".ps1":
		return "pwsh", append([]string{"-File", path}, args...)
	case ".cmd", ".bat":
		if runtime.GOOS == "windows" {
			return "cmd", append([]string{"/C", path}, args...)
		}
	}
	return path, args
}

// mergedEnv layers extra entries over the inherited process environment.
func mergedEnv(extra map[string]string) []string {
	env := os.Environ()
	for k, v := range extra {
		env = append(env, k+"="+v)
	}
	return env
}

func commandLine(path string, args []string) string {
	return strings.Join(append([]string{path}, args...), " ")
}
