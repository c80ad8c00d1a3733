// SPDX-License-Identifier: AGPL-3.0-or-later

// Package gitcmd runs git subcommands and captures their output.
package gitcmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// Runner invokes a git subcommand.
type Runner interface {
	Run(ctx context.Context, subcommand string, args ...string) (*Result, error)
}

// Result holds the captured output of a successful invocation, split into lines.
type Result struct {
	Stdout []string
	Stderr []string
}

// ExecRunner runs the git binary in a fixed working directory.
type ExecRunner struct {
	// Dir is the working directory. Empty means the current process directory.
	Dir string
	// Binary defaults to "git".
	Binary string
}

// NewExecRunner creates a runner bound to dir.
func NewExecRunner(dir string) *ExecRunner {
	return &ExecRunner{Dir: dir, Binary: "git"}
}

// Run executes `git <subcommand> <args...>`.
// Output is captured in full; it is split into lines only after the exit
// status has been checked. A non-zero exit yields a *CommandError.
func (r *ExecRunner) Run(ctx context.Context, subcommand string, args ...string) (*Result, error) {
	bin := r.Binary
	if bin == "" {
		bin = "git"
	}
	argv := append([]string{subcommand}, args...)

	cmd := exec.CommandContext(ctx, bin, argv...) //nolint:gosec // argv is built by this module
	cmd.Dir = r.Dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		exitCode := -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			exitCode = exitErr.ExitCode()
		}
		return nil, &CommandError{
			Args:     append([]string{bin}, argv...),
			ExitCode: exitCode,
			Stdout:   stdout.String(),
			Stderr:   stderr.String(),
			Err:      err,
		}
	}

	return &Result{
		Stdout: SplitLines(stdout.String()),
		Stderr: SplitLines(stderr.String()),
	}, nil
}

// SplitLines splits captured output into lines.
// Trailing newlines are dropped; leading whitespace (including the tab that
// marks blame content lines) is preserved. Empty output yields no lines.
func SplitLines(s string) []string {
	s = strings.TrimRight(s, "\r\n")
	if s == "" {
		return nil
	}
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}

// CommandError reports a git invocation that exited non-zero.
type CommandError struct {
	Args     []string
	ExitCode int
	Stdout   string
	Stderr   string
	Err      error
}

func (e *CommandError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "command %q failed", strings.Join(e.Args, " "))
	fmt.Fprintf(&b, "\nreturn code: %d", e.ExitCode)
	if out := strings.TrimSpace(e.Stdout); out != "" {
		fmt.Fprintf(&b, "\noutput:\n%s", out)
	}
	if msg := strings.TrimSpace(e.Stderr); msg != "" {
		fmt.Fprintf(&b, "\nerror messages:\n%s", msg)
	}
	return b.String()
}

// Unwrap exposes the underlying exec error.
func (e *CommandError) Unwrap() error { return e.Err }

// AsCommandError reports whether err wraps a *CommandError and returns it.
func AsCommandError(err error) (*CommandError, bool) {
	var ce *CommandError
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}
