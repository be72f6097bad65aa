// Package execx runs external commands with output capture and context
// support. It backs the git operations that the embedded git library does
// not implement natively, such as true three-way merges.
package execx

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// Result holds the output and exit code from a command execution.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Options configures command execution behavior.
type Options struct {
	// Workdir is the working directory for the command.
	Workdir string

	// Env holds environment variables appended to the current environment.
	Env map[string]string

	// Stdin is piped to the command when non-empty.
	Stdin string
}

// Option is a function that modifies Options.
type Option func(*Options)

// WithWorkdir sets the working directory.
func WithWorkdir(dir string) Option {
	return func(o *Options) {
		o.Workdir = dir
	}
}

// WithEnv adds a single environment variable.
func WithEnv(key, value string) Option {
	return func(o *Options) {
		if o.Env == nil {
			o.Env = make(map[string]string)
		}
		o.Env[key] = value
	}
}

// WithStdin pipes the given input to the command.
func WithStdin(input string) Option {
	return func(o *Options) {
		o.Stdin = input
	}
}

// Runner executes a specific program with varying arguments.
type Runner struct {
	program string
}

// NewRunner creates a Runner for the given program.
func NewRunner(program string) *Runner {
	return &Runner{program: program}
}

// Program returns the wrapped program name.
func (r *Runner) Program() string {
	return r.program
}

// Available reports whether the program can be found on PATH.
func (r *Runner) Available() bool {
	_, err := exec.LookPath(r.program)
	return err == nil
}

// Run executes the program with the given arguments. The returned Result is
// populated even when the command exits non-zero, so callers can inspect
// stderr and the exit code to classify the failure.
func (r *Runner) Run(ctx context.Context, args []string, opts ...Option) (*Result, error) {
	options := &Options{}
	for _, opt := range opts {
		opt(options)
	}

	cmd := exec.CommandContext(ctx, r.program, args...)
	if options.Workdir != "" {
		cmd.Dir = options.Workdir
	}
	if len(options.Env) > 0 {
		cmd.Env = os.Environ()
		for k, v := range options.Env {
			cmd.Env = append(cmd.Env, fmt.Sprintf("%s=%s", k, v))
		}
	}
	if options.Stdin != "" {
		cmd.Stdin = strings.NewReader(options.Stdin)
	}

	var stdoutBuf, stderrBuf bytes.Buffer
	cmd.Stdout = &stdoutBuf
	cmd.Stderr = &stderrBuf

	err := cmd.Run()

	result := &Result{
		Stdout: stdoutBuf.String(),
		Stderr: stderrBuf.String(),
	}

	var exitErr *exec.ExitError
	switch {
	case err == nil:
		result.ExitCode = 0
	case errors.As(err, &exitErr):
		result.ExitCode = exitErr.ExitCode()
	default:
		result.ExitCode = -1
	}

	if err != nil {
		if ctx.Err() != nil {
			return result, fmt.Errorf("%s %s: %w", r.program, args[0], ctx.Err())
		}
		return result, fmt.Errorf("%s %s: %w: %s", r.program, args[0], err, firstLine(result.Stderr))
	}
	return result, nil
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
