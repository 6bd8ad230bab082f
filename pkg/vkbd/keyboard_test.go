package vkbd

import (
	"sync"
	"testing"

	"github.com/khaled151277/xvkeyboard/pkg/charmap"
	"github.com/khaled151277/xvkeyboard/pkg/keysim"
	"github.com/khaled151277/xvkeyboard/pkg/keystate"
	"github.com/khaled151277/xvkeyboard/pkg/laststore/memory"
	"github.com/khaled151277/xvkeyboard/pkg/layouts"
	"github.com/khaled151277/xvkeyboard/pkg/settings"
	"github.com/khaled151277/xvkeyboard/pkg/xkbtool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeRenderer struct {
	mu        sync.Mutex
	refreshes int
	lastCode  string
	selected  string
	selectedI int
	warnings  []string
}

func (f *fakeRenderer) RefreshLabels(code string, shift, caps bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refreshes++
	f.lastCode = code
}

func (f *fakeRenderer) SelectLayout(i int, name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.selectedI, f.selected = i, name
}

func (f *fakeRenderer) Warn(title, msg string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.warnings = append(f.warnings, title)
}

func (f *fakeRenderer) Show() {}

type fakeTool struct {
	layouts []string
	active  string
}

func (f *fakeTool) Name() string                   { return "fake" }
func (f *fakeTool) CanWatch() bool                 { return false }
func (f *fakeTool) ListLayouts() ([]string, error) { return f.layouts, nil }
func (f *fakeTool) QueryActive() (string, error)   { return f.active, nil }
func (f *fakeTool) SetActive(name string, _ []string) error {
	f.active = name
	return nil
}
func (f *fakeTool) CycleNext(int, []string) error { return nil }

type nopTapper struct{}

func (nopTapper) TapKey(string, bool, bool, bool) error { return nil }
func (nopTapper) ToggleCapsLock() error                 { return nil }

func newTestKeyboard(t *testing.T, tool *fakeTool) (*Keyboard, *fakeRenderer) {
	t.Helper()
	log := zap.NewNop().Sugar()

	manager := layouts.NewManager(log)
	require.NoError(t, manager.Initialize(
		func() xkbtool.Tool { return tool },
		func() xkbtool.Tool { return tool },
	))

	renderer := &fakeRenderer{}
	machine := keystate.NewMachine(nopTapper{}, keystate.DefaultConfig(), log)
	k := NewKeyboard(
		settings.Settings{PollIntervalMs: 1000},
		manager,
		charmap.NewRegistry(log),
		machine,
		keysim.NewKeyboard(nil),
		memory.NewStore(),
		renderer,
		nil,
		log,
	)
	return k, renderer
}

func TestLayoutChangePersistsAndRenders(t *testing.T) {
	tool := &fakeTool{layouts: []string{"us", "ara"}, active: "us"}
	k, renderer := newTestKeyboard(t, tool)

	require.NoError(t, k.manager.SetByName("ara", true))
	k.layoutChanged("ara")

	code, ok, err := k.store.LastLayout()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "ara", code)

	assert.Equal(t, "ara", renderer.selected)
	assert.Equal(t, 1, renderer.selectedI)
	// no ara table loaded, so the visual layout falls back to the builtin
	assert.Equal(t, charmap.BaseLayout, renderer.lastCode)
	assert.Positive(t, renderer.refreshes)
}

func TestRestoreLastAppliesStoredLayout(t *testing.T) {
	tool := &fakeTool{layouts: []string{"us", "ara"}, active: "us"}
	k, _ := newTestKeyboard(t, tool)
	require.NoError(t, k.store.SetLastLayout("ara"))

	k.restoreLast()

	name, ok := k.manager.CurrentName()
	require.True(t, ok)
	assert.Equal(t, "ara", name)
	assert.Equal(t, "ara", tool.active)
}

func TestRestoreLastIgnoresGoneLayout(t *testing.T) {
	tool := &fakeTool{layouts: []string{"us", "de"}, active: "us"}
	k, _ := newTestKeyboard(t, tool)
	require.NoError(t, k.store.SetLastLayout("ara"))

	k.restoreLast()

	name, ok := k.manager.CurrentName()
	require.True(t, ok)
	assert.Equal(t, "us", name)
}

func TestModifierChangePostsRefresh(t *testing.T) {
	tool := &fakeTool{layouts: []string{"us"}, active: "us"}
	k, renderer := newTestKeyboard(t, tool)

	k.PressModifier("LShift")

	// the machine callback lands on the ops channel; drain it by hand
	select {
	case fn := <-k.ops:
		fn()
	default:
		t.Fatal("no op posted for modifier change")
	}
	assert.Positive(t, renderer.refreshes)
}

func TestLabelUsesEffectiveShift(t *testing.T) {
	tool := &fakeTool{layouts: []string{"us"}, active: "us"}
	k, _ := newTestKeyboard(t, tool)

	assert.Equal(t, "a", k.Label("A"))

	k.PressModifier("LShift")
	for {
		select {
		case fn := <-k.ops:
			fn()
			continue
		default:
		}
		break
	}
	assert.Equal(t, "A", k.Label("A"))
}
