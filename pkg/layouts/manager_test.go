package layouts_test

import (
	"testing"

	"github.com/khaled151277/xvkeyboard/pkg/layouts"
	"github.com/khaled151277/xvkeyboard/pkg/xkbtool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeTool scripts both backends for manager tests.
type fakeTool struct {
	name      string
	watchable bool
	layouts   []string
	active    string
	listErr   error
	queryErr  error
	setErr    error

	setCalls   []string
	cycleCalls int
}

func (f *fakeTool) Name() string   { return f.name }
func (f *fakeTool) CanWatch() bool { return f.watchable }

func (f *fakeTool) ListLayouts() ([]string, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]string{}, f.layouts...), nil
}

func (f *fakeTool) QueryActive() (string, error) {
	if f.queryErr != nil {
		return "", f.queryErr
	}
	return f.active, nil
}

func (f *fakeTool) SetActive(name string, _ []string) error {
	if f.setErr != nil {
		return f.setErr
	}
	f.setCalls = append(f.setCalls, name)
	f.active = name
	return nil
}

func (f *fakeTool) CycleNext(current int, known []string) error {
	f.cycleCalls++
	return nil
}

func degradedTool() xkbtool.Tool {
	return &fakeTool{listErr: xkbtool.ErrNotFound}
}

func newReadyManager(t *testing.T, tool *fakeTool) *layouts.Manager {
	t.Helper()
	m := layouts.NewManager(zap.NewNop().Sugar())
	require.NoError(t, m.Initialize(
		func() xkbtool.Tool { return tool },
		degradedTool,
	))
	return m
}

func TestInitializePrefersFirstBackend(t *testing.T) {
	tool := &fakeTool{name: "xkb-switch", watchable: true, layouts: []string{"us", "ara"}, active: "ara"}
	m := newReadyManager(t, tool)

	assert.Equal(t, layouts.MethodXkbSwitch, m.Method())
	assert.Equal(t, []string{"us", "ara"}, m.Available())
	assert.Equal(t, 1, m.CurrentIndex(), "anchored to the queried active layout")
}

func TestInitializeFallsBackToSecondBackend(t *testing.T) {
	fallback := &fakeTool{name: "setxkbmap", layouts: []string{"us"}, active: "us"}
	m := layouts.NewManager(zap.NewNop().Sugar())

	require.NoError(t, m.Initialize(
		degradedTool,
		func() xkbtool.Tool { return fallback },
	))
	assert.Equal(t, layouts.MethodSetxkbmap, m.Method())
}

func TestInitializeBothFailingDegrades(t *testing.T) {
	m := layouts.NewManager(zap.NewNop().Sugar())

	err := m.Initialize(degradedTool, degradedTool)
	assert.ErrorIs(t, err, layouts.ErrDegraded)
	assert.False(t, m.Ready())
	assert.Equal(t, -1, m.CurrentIndex())

	// All mutations are failing no-ops in the degraded state.
	assert.ErrorIs(t, m.SetByIndex(0, true), layouts.ErrDegraded)
	assert.ErrorIs(t, m.CycleNext(), layouts.ErrDegraded)
	assert.ErrorIs(t, m.Refresh(), layouts.ErrDegraded)
}

func TestSetByIndexLocalOnly(t *testing.T) {
	tool := &fakeTool{layouts: []string{"us", "ara"}, active: "us"}
	m := newReadyManager(t, tool)

	for i, want := range m.Available() {
		require.NoError(t, m.SetByIndex(i, false))
		name, ok := m.CurrentName()
		require.True(t, ok)
		assert.Equal(t, want, name)
	}
	assert.Empty(t, tool.setCalls, "update_system=false never touches the tool")
}

func TestSetByNameLocalOnly(t *testing.T) {
	tool := &fakeTool{layouts: []string{"us", "ara"}, active: "us"}
	m := newReadyManager(t, tool)

	require.NoError(t, m.SetByName("ara", false))
	assert.Equal(t, 1, m.CurrentIndex())
	name, _ := m.CurrentName()
	assert.Equal(t, "ara", name)
}

func TestSetByNameUnknown(t *testing.T) {
	m := newReadyManager(t, &fakeTool{layouts: []string{"us"}, active: "us"})

	err := m.SetByName("fr", true)
	assert.ErrorIs(t, err, layouts.ErrNameNotFound)
}

func TestSetByIndexBounds(t *testing.T) {
	m := newReadyManager(t, &fakeTool{layouts: []string{"us", "ara"}, active: "us"})

	assert.ErrorIs(t, m.SetByIndex(-1, false), layouts.ErrBadIndex)
	assert.ErrorIs(t, m.SetByIndex(2, false), layouts.ErrBadIndex)
}

func TestSetBySystemFailureKeepsBelief(t *testing.T) {
	tool := &fakeTool{layouts: []string{"us", "ara"}, active: "us", setErr: xkbtool.ErrToolFailed}
	m := newReadyManager(t, tool)

	err := m.SetByIndex(1, true)
	require.Error(t, err)
	assert.Equal(t, 0, m.CurrentIndex(), "belief mutates only on adapter success")
}

func TestCycleCircularityOnFallbackBackend(t *testing.T) {
	tool := &fakeTool{name: "setxkbmap", layouts: []string{"us", "ara", "de"}, active: "us"}
	m := layouts.NewManager(zap.NewNop().Sugar())
	require.NoError(t, m.Initialize(
		degradedTool,
		func() xkbtool.Tool { return tool },
	))

	start, _ := m.CurrentName()
	for i := 0; i < len(m.Available()); i++ {
		require.NoError(t, m.CycleNext())
	}
	end, _ := m.CurrentName()
	assert.Equal(t, start, end, "n cycles return to the original layout")
}

func TestCycleOnWatchableBackendDoesNotUpdateLocally(t *testing.T) {
	tool := &fakeTool{name: "xkb-switch", watchable: true, layouts: []string{"us", "ara"}, active: "us"}
	m := newReadyManager(t, tool)

	require.NoError(t, m.CycleNext())
	assert.Equal(t, 1, tool.cycleCalls)
	assert.Equal(t, 0, m.CurrentIndex(),
		"the watcher, not optimism, delivers the resulting layout")
}

func TestCycleNeedsTwoLayouts(t *testing.T) {
	m := newReadyManager(t, &fakeTool{layouts: []string{"us"}, active: "us"})
	assert.ErrorIs(t, m.CycleNext(), layouts.ErrNotEnough)
}

func TestChangeNotificationFires(t *testing.T) {
	m := newReadyManager(t, &fakeTool{layouts: []string{"us", "ara"}, active: "us"})

	var events []string
	m.OnChange(func(code string) { events = append(events, code) })

	require.NoError(t, m.SetByIndex(1, false))
	require.NoError(t, m.SetByIndex(1, false)) // no movement, no event
	require.NoError(t, m.SetByIndex(0, false))

	assert.Equal(t, []string{"ara", "us"}, events)
}

func TestWatchLineMatchesKnownLayout(t *testing.T) {
	m := newReadyManager(t, &fakeTool{layouts: []string{"us", "ara"}, active: "us"})

	var got string
	m.OnChange(func(code string) { got = code })

	m.HandleWatchLine("ara")
	assert.Equal(t, "ara", got)
	assert.Equal(t, 1, m.CurrentIndex())
}

func TestWatchLineUnknownForcesRefresh(t *testing.T) {
	tool := &fakeTool{layouts: []string{"us", "ara"}, active: "us"}
	m := newReadyManager(t, tool)

	// The system grew a layout behind our back; the watcher sees it first.
	tool.layouts = []string{"us", "ara", "de"}
	tool.active = "de"

	m.HandleWatchLine("de")
	name, _ := m.CurrentName()
	assert.Equal(t, "de", name)
	assert.Equal(t, []string{"us", "ara", "de"}, m.Available())
}

func TestRefreshReanchorsWhenCurrentDisappears(t *testing.T) {
	tool := &fakeTool{layouts: []string{"us", "ara"}, active: "ara"}
	m := newReadyManager(t, tool)
	require.Equal(t, 1, m.CurrentIndex())

	tool.layouts = []string{"de", "fr"}
	tool.active = "fr"
	require.NoError(t, m.Refresh())

	idx := m.CurrentIndex()
	assert.True(t, idx >= 0 && idx < len(m.Available()), "index stays valid")
	name, _ := m.CurrentName()
	assert.Equal(t, "fr", name, "re-anchored to the re-queried system layout")
}

func TestRefreshDefaultsToZeroWhenQueryFails(t *testing.T) {
	tool := &fakeTool{layouts: []string{"us", "ara"}, active: "ara"}
	m := newReadyManager(t, tool)

	tool.layouts = []string{"de", "fr"}
	tool.queryErr = xkbtool.ErrToolFailed
	require.NoError(t, m.Refresh())

	assert.Equal(t, 0, m.CurrentIndex())
}

func TestRefreshFollowsReorderByName(t *testing.T) {
	tool := &fakeTool{layouts: []string{"us", "ara"}, active: "ara"}
	m := newReadyManager(t, tool)

	tool.layouts = []string{"ara", "us"}
	require.NoError(t, m.Refresh())

	name, _ := m.CurrentName()
	assert.Equal(t, "ara", name)
	assert.Equal(t, 0, m.CurrentIndex())
}

func TestPollOnceReconcilesDrift(t *testing.T) {
	tool := &fakeTool{layouts: []string{"us", "ara"}, active: "us"}
	m := newReadyManager(t, tool)

	var events []string
	m.OnChange(func(code string) { events = append(events, code) })

	m.PollOnce() // no drift, no event
	tool.active = "ara"
	m.PollOnce()
	m.PollOnce() // belief caught up, no further event

	assert.Equal(t, []string{"ara"}, events)
}
