package xkbtool

import (
	"fmt"
	"strings"

	"github.com/kballard/go-shellquote"
)

// XkbSwitch wraps the xkb-switch binary. It is the preferred backend: it has
// direct list/query/set/next commands and can stream change notifications
// with -W.
type XkbSwitch struct {
	runner Runner
	// path and extra are what the long-lived watch process execs; they must
	// stay in step with the runner so a command override covers both.
	path  string
	extra []string
}

func NewXkbSwitch(runner Runner) *XkbSwitch {
	path := "xkb-switch"
	if runner == nil {
		runner = NewRunner(path)
	}
	return &XkbSwitch{runner: runner, path: path}
}

// NewXkbSwitchCommand builds the backend from a user-supplied command line,
// e.g. "flatpak-spawn --host xkb-switch". The override applies to one-shot
// queries and to the watch process alike.
func NewXkbSwitchCommand(command string) (*XkbSwitch, error) {
	words, err := shellquote.Split(command)
	if err != nil {
		return nil, fmt.Errorf("parse tool command %q: %w", command, err)
	}
	if len(words) == 0 {
		return nil, fmt.Errorf("empty tool command")
	}
	return &XkbSwitch{
		runner: &execRunner{path: words[0], extra: words[1:], timeout: queryTimeout},
		path:   words[0],
		extra:  words[1:],
	}, nil
}

func (x *XkbSwitch) Name() string   { return "xkb-switch" }
func (x *XkbSwitch) CanWatch() bool { return true }

func (x *XkbSwitch) ListLayouts() ([]string, error) {
	out, err := x.runner.Run("-l")
	if err != nil {
		return nil, fmt.Errorf("list layouts: %w", err)
	}

	var layouts []string
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			layouts = append(layouts, line)
		}
	}
	if len(layouts) == 0 {
		return nil, fmt.Errorf("list layouts: %w", ErrNoLayouts)
	}

	return layouts, nil
}

func (x *XkbSwitch) QueryActive() (string, error) {
	out, err := x.runner.Run()
	if err != nil {
		return "", fmt.Errorf("query active layout: %w", err)
	}
	if out == "" {
		return "", fmt.Errorf("query active layout: empty output: %w", ErrToolFailed)
	}

	return out, nil
}

func (x *XkbSwitch) SetActive(name string, _ []string) error {
	if _, err := x.runner.Run("-s", name); err != nil {
		return fmt.Errorf("set layout %q: %w", name, err)
	}
	return nil
}

// CycleNext issues the native next command. xkb-switch does not print which
// layout became active, so the caller has to confirm via its watcher or a
// re-query shortly after.
func (x *XkbSwitch) CycleNext(_ int, _ []string) error {
	if _, err := x.runner.Run("-n"); err != nil {
		return fmt.Errorf("cycle layout: %w", err)
	}
	return nil
}
