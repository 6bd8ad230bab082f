package xkbtool

import (
	"fmt"
	"regexp"
	"strings"
)

var layoutLineRe = regexp.MustCompile(`(?m)^layout:\s*([\w,]+)`)

// Setxkbmap wraps the setxkbmap binary, the slower but universally available
// fallback. It has no notion of "the active layout" beyond list order: the
// first entry of the comma-separated layout field is the active one, and the
// only way to activate a layout is to re-issue the entire list with the
// target moved to the front. That reorders the system's layout list as a side
// effect of every switch; preserved here because the tool offers nothing
// better.
type Setxkbmap struct {
	runner Runner
}

func NewSetxkbmap(runner Runner) *Setxkbmap {
	if runner == nil {
		runner = NewRunner("setxkbmap")
	}
	return &Setxkbmap{runner: runner}
}

func (s *Setxkbmap) Name() string   { return "setxkbmap" }
func (s *Setxkbmap) CanWatch() bool { return false }

func (s *Setxkbmap) query() ([]string, error) {
	out, err := s.runner.Run("-query")
	if err != nil {
		return nil, err
	}

	m := layoutLineRe.FindStringSubmatch(out)
	if m == nil {
		return nil, fmt.Errorf("no layout field in setxkbmap output: %w", ErrToolFailed)
	}

	layouts := strings.Split(m[1], ",")
	if len(layouts) == 0 || layouts[0] == "" {
		return nil, ErrNoLayouts
	}

	return layouts, nil
}

func (s *Setxkbmap) ListLayouts() ([]string, error) {
	layouts, err := s.query()
	if err != nil {
		return nil, fmt.Errorf("list layouts: %w", err)
	}
	return layouts, nil
}

// QueryActive returns the first layout of the query output, which is how
// setxkbmap denotes the active one.
func (s *Setxkbmap) QueryActive() (string, error) {
	layouts, err := s.query()
	if err != nil {
		return "", fmt.Errorf("query active layout: %w", err)
	}
	return layouts[0], nil
}

func (s *Setxkbmap) SetActive(name string, known []string) error {
	found := false
	reordered := make([]string, 0, len(known))
	reordered = append(reordered, name)
	for _, l := range known {
		if l == name {
			found = true
			continue
		}
		reordered = append(reordered, l)
	}
	if !found {
		return fmt.Errorf("layout %q not in known list %v", name, known)
	}

	if _, err := s.runner.Run("-layout", strings.Join(reordered, ",")); err != nil {
		return fmt.Errorf("set layout %q: %w", name, err)
	}

	return nil
}

func (s *Setxkbmap) CycleNext(current int, known []string) error {
	if len(known) < 2 {
		return fmt.Errorf("cycle layout: need at least 2 layouts, have %d", len(known))
	}
	if current < 0 || current >= len(known) {
		current = 0
	}

	return s.SetActive(known[(current+1)%len(known)], known)
}
