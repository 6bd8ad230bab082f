package xkbtool

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/kballard/go-shellquote"
)

// queryTimeout bounds every short-lived tool invocation. The tools answer in
// milliseconds when healthy; anything longer means a wedged X connection.
const queryTimeout = 500 * time.Millisecond

// Runner executes one tool invocation and returns its trimmed stdout.
type Runner interface {
	Run(args ...string) (string, error)
}

type execRunner struct {
	path    string
	extra   []string
	timeout time.Duration
}

// NewRunner builds the default timeout-bounded runner for a tool binary.
func NewRunner(path string) Runner {
	return &execRunner{path: path, timeout: queryTimeout}
}

// NewRunnerCommand builds a runner from a user-supplied command line, e.g.
// "flatpak-spawn --host xkb-switch". The first word is the binary, the rest
// are prepended to every invocation.
func NewRunnerCommand(command string) (Runner, error) {
	words, err := shellquote.Split(command)
	if err != nil {
		return nil, fmt.Errorf("parse tool command %q: %w", command, err)
	}
	if len(words) == 0 {
		return nil, fmt.Errorf("empty tool command")
	}
	return &execRunner{path: words[0], extra: words[1:], timeout: queryTimeout}, nil
}

func (r *execRunner) Run(args ...string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, r.path, append(append([]string{}, r.extra...), args...)...)
	// Inherited environment on purpose: DISPLAY and friends must propagate.
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	switch {
	case err == nil:
		return strings.TrimSpace(stdout.String()), nil
	case errors.Is(err, exec.ErrNotFound):
		return "", fmt.Errorf("%s: %w", r.path, ErrNotFound)
	case ctx.Err() != nil:
		return "", fmt.Errorf("%s %s timed out after %s: %w", r.path, strings.Join(args, " "), r.timeout, ErrToolFailed)
	default:
		return "", fmt.Errorf("%s %s: %v (stderr: %s): %w", r.path, strings.Join(args, " "), err, strings.TrimSpace(stderr.String()), ErrToolFailed)
	}
}
