package layouts

// HandleWatchLine processes one layout name reported by the external watcher.
// A name missing from the cached list forces one refresh before retrying the
// match; if it is still unknown the line is dropped and belief anchors to 0
// on the next refresh that removes the current layout.
func (m *Manager) HandleWatchLine(line string) {
	if m.method == MethodNone {
		return
	}

	if idx := m.indexOf(line); idx >= 0 {
		m.setCurrent(idx)
		return
	}

	m.log.Infow("watcher reported unknown layout, refreshing", "layout", line)
	if err := m.Refresh(); err != nil {
		m.log.Warnw("refresh after unknown layout failed", "error", err)
		return
	}

	if idx := m.indexOf(line); idx >= 0 {
		m.setCurrent(idx)
		return
	}
	m.log.Warnw("layout still unknown after refresh, keeping belief", "layout", line)
}

// PollOnce queries the system directly and reconciles any drift. This is the
// fallback when no watcher is available; it is called on every poll tick.
func (m *Manager) PollOnce() {
	if m.method == MethodNone {
		return
	}

	active, err := m.tool.QueryActive()
	if err != nil {
		// Transient tool failure; the next tick retries.
		return
	}

	if current, ok := m.CurrentName(); ok && current == active {
		return
	}

	m.HandleWatchLine(active)
}
