// Package layouts owns the canonical list of system keyboard layouts and the
// believed-current index, and keeps that belief consistent with what the
// system actually reports.
package layouts

import (
	"errors"
	"fmt"

	"github.com/khaled151277/xvkeyboard/pkg/xkbtool"
	"go.uber.org/zap"
)

type Method int

const (
	MethodNone Method = iota
	MethodXkbSwitch
	MethodSetxkbmap
)

func (m Method) String() string {
	switch m {
	case MethodXkbSwitch:
		return "xkb-switch"
	case MethodSetxkbmap:
		return "setxkbmap"
	}
	return "none"
}

var (
	ErrDegraded     = errors.New("no layout tool available")
	ErrNotEnough    = errors.New("not enough layouts to cycle")
	ErrBadIndex     = errors.New("layout index out of range")
	ErrNameNotFound = errors.New("layout name not found")
)

// Manager is not safe for concurrent use; the core event loop is the only
// caller, the same way the watcher goroutine never touches it directly.
type Manager struct {
	tool      xkbtool.Tool
	method    Method
	available []string
	current   int // -1 when the list is empty
	onChange  func(code string)
	log       *zap.SugaredLogger
}

func NewManager(log *zap.SugaredLogger) *Manager {
	return &Manager{current: -1, method: MethodNone, log: log}
}

// OnChange registers the layout-changed notification. It fires with the new
// layout code whenever the believed-current index moves.
func (m *Manager) OnChange(fn func(code string)) { m.onChange = fn }

// Initialize picks a backend: xkb-switch when present, setxkbmap otherwise.
// With neither available the manager enters a degraded state where every
// mutation fails and callers cope with one implicit layout.
func (m *Manager) Initialize(makeXkbSwitch func() xkbtool.Tool, makeSetxkbmap func() xkbtool.Tool) error {
	for _, candidate := range []struct {
		method Method
		make   func() xkbtool.Tool
	}{
		{MethodXkbSwitch, makeXkbSwitch},
		{MethodSetxkbmap, makeSetxkbmap},
	} {
		tool := candidate.make()
		layouts, err := tool.ListLayouts()
		if err != nil {
			m.log.Infow("layout backend unavailable", "backend", tool.Name(), "error", err)
			continue
		}

		m.tool = tool
		m.method = candidate.method
		m.available = layouts
		m.anchorToSystem()
		m.log.Infow("layout backend selected",
			"backend", candidate.method.String(), "layouts", layouts, "current", m.current)
		return nil
	}

	m.method = MethodNone
	m.available = nil
	m.current = -1
	return ErrDegraded
}

// anchorToSystem queries the active layout and points current at it. Falls
// back to index 0 when the query fails or the answer is not in the list.
func (m *Manager) anchorToSystem() {
	if len(m.available) == 0 {
		m.current = -1
		return
	}

	if name, err := m.tool.QueryActive(); err == nil {
		if idx := m.indexOf(name); idx >= 0 {
			m.current = idx
			return
		}
		m.log.Warnw("active layout not in available list", "active", name, "available", m.available)
	}
	m.current = 0
}

// Refresh re-fetches the available list. When the set changed and the
// previously believed layout is gone, the system is re-queried for the true
// active layout; failing that, index 0. Idempotent and safe on every tick.
func (m *Manager) Refresh() error {
	if m.method == MethodNone {
		return ErrDegraded
	}

	layouts, err := m.tool.ListLayouts()
	if err != nil {
		return fmt.Errorf("refresh layouts: %w", err)
	}

	if sameSet(layouts, m.available) {
		// Same set, possibly reordered: keep following the believed layout
		// by name. No change fires since the layout itself did not move.
		previous, had := m.CurrentName()
		m.available = layouts
		if had {
			if idx := m.indexOf(previous); idx >= 0 {
				m.current = idx
			}
		}
		m.clampCurrent()
		return nil
	}

	previous, hadPrevious := m.CurrentName()
	m.available = layouts
	m.log.Infow("available layout set changed", "layouts", layouts)

	if hadPrevious {
		if idx := m.indexOf(previous); idx >= 0 {
			m.setCurrent(idx)
			return nil
		}
	}
	m.anchorToSystem()
	m.fireChange()
	return nil
}

// clampCurrent enforces the invariant that current is a valid index whenever
// the list is non-empty, never dangling past the end.
func (m *Manager) clampCurrent() {
	switch {
	case len(m.available) == 0:
		m.current = -1
	case m.current < 0 || m.current >= len(m.available):
		m.current = 0
	}
}

func (m *Manager) SetByIndex(i int, updateSystem bool) error {
	if m.method == MethodNone {
		return ErrDegraded
	}
	if i < 0 || i >= len(m.available) {
		return fmt.Errorf("%w: %d of %d", ErrBadIndex, i, len(m.available))
	}

	if updateSystem {
		if err := m.tool.SetActive(m.available[i], m.available); err != nil {
			return fmt.Errorf("set layout: %w", err)
		}
	}

	m.setCurrent(i)
	return nil
}

func (m *Manager) SetByName(name string, updateSystem bool) error {
	idx := m.indexOf(name)
	if idx < 0 {
		return fmt.Errorf("%w: %q", ErrNameNotFound, name)
	}
	return m.SetByIndex(idx, updateSystem)
}

// CycleNext advances to the next layout. On the xkb-switch backend the local
// index is deliberately not updated: the native next command does not report
// the resulting layout, so the watcher (or the next poll) delivers the change.
func (m *Manager) CycleNext() error {
	if m.method == MethodNone {
		return ErrDegraded
	}
	if len(m.available) < 2 {
		return ErrNotEnough
	}

	current := m.current
	if current < 0 || current >= len(m.available) {
		current = 0
	}

	if m.method == MethodXkbSwitch {
		if err := m.tool.CycleNext(current, m.available); err != nil {
			return fmt.Errorf("cycle layout: %w", err)
		}
		return nil
	}

	return m.SetByIndex((current+1)%len(m.available), true)
}

func (m *Manager) Method() Method      { return m.method }
func (m *Manager) Ready() bool         { return m.method != MethodNone }
func (m *Manager) Available() []string { return m.available }
func (m *Manager) CurrentIndex() int {
	if len(m.available) == 0 {
		return -1
	}
	if m.current < 0 || m.current >= len(m.available) {
		return 0
	}
	return m.current
}

func (m *Manager) CurrentName() (string, bool) {
	idx := m.CurrentIndex()
	if idx < 0 {
		return "", false
	}
	return m.available[idx], true
}

func (m *Manager) indexOf(name string) int {
	for i, l := range m.available {
		if l == name {
			return i
		}
	}
	return -1
}

func (m *Manager) setCurrent(i int) {
	if m.current == i {
		return
	}
	m.current = i
	m.fireChange()
}

func (m *Manager) fireChange() {
	if m.onChange == nil {
		return
	}
	if name, ok := m.CurrentName(); ok {
		m.onChange(name)
	}
}

func sameSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	set := make(map[string]bool, len(a))
	for _, s := range a {
		set[s] = true
	}
	for _, s := range b {
		if !set[s] {
			return false
		}
	}
	return true
}
