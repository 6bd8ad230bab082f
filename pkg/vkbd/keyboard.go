// Package vkbd ties the layout manager, character tables, key state machine
// and persistence together behind a single event loop.
package vkbd

import (
	"context"
	"time"

	"github.com/khaled151277/xvkeyboard/pkg/charmap"
	"github.com/khaled151277/xvkeyboard/pkg/keysim"
	"github.com/khaled151277/xvkeyboard/pkg/keystate"
	"github.com/khaled151277/xvkeyboard/pkg/laststore"
	"github.com/khaled151277/xvkeyboard/pkg/layouts"
	"github.com/khaled151277/xvkeyboard/pkg/settings"
	"github.com/khaled151277/xvkeyboard/pkg/xkbtool"
	"go.uber.org/zap"
)

// Keyboard is the application core. Layout operations are serialized onto
// the Run loop; key presses go straight to the state machine, which has its
// own locking.
type Keyboard struct {
	log      *zap.SugaredLogger
	cfg      settings.Settings
	manager  *layouts.Manager
	registry *charmap.Registry
	machine  *keystate.Machine
	sim      *keysim.Keyboard
	store    laststore.Store
	renderer Renderer
	focus    FocusNotifier

	xkbSwitch *xkbtool.XkbSwitch
	ops       chan func()
	visual    string
}

func NewKeyboard(
	cfg settings.Settings,
	manager *layouts.Manager,
	registry *charmap.Registry,
	machine *keystate.Machine,
	sim *keysim.Keyboard,
	store laststore.Store,
	renderer Renderer,
	focus FocusNotifier,
	log *zap.SugaredLogger,
) *Keyboard {
	k := &Keyboard{
		log:      log,
		cfg:      cfg,
		manager:  manager,
		registry: registry,
		machine:  machine,
		sim:      sim,
		store:    store,
		renderer: renderer,
		focus:    focus,
		ops:      make(chan func(), 64),
		visual:   charmap.BaseLayout,
	}

	// fires on the Run loop goroutine
	manager.OnChange(k.layoutChanged)

	machine.SetCallbacks(
		func() { k.do(k.renderLabels) },
		renderer.Warn,
		func() {
			sim.Disable()
			renderer.Warn("Key simulation", "too many failures, key output disabled")
		},
	)

	return k
}

// do posts fn to the Run loop. Called from UI or timer goroutines.
func (k *Keyboard) do(fn func()) {
	k.ops <- fn
}

// Run drives the core until ctx is cancelled.
func (k *Keyboard) Run(ctx context.Context) error {
	if err := k.initManager(); err != nil {
		k.log.Warnw("no layout tool available, layout switching disabled", "error", err)
		k.renderer.Warn("Layout tools", "neither xkb-switch nor setxkbmap is usable")
	}
	k.restoreLast()

	var watchLines <-chan string
	if k.manager.Method() == layouts.MethodXkbSwitch && k.xkbSwitch != nil {
		watcher, err := k.xkbSwitch.StartWatch(ctx, k.log)
		if err != nil {
			k.log.Warnw("cannot watch layout changes, falling back to polling", "error", err)
		} else {
			defer watcher.Stop()
			watchLines = watcher.Lines()
		}
	}

	var poll *time.Ticker
	var pollC <-chan time.Time
	if watchLines == nil && k.manager.Ready() {
		poll = time.NewTicker(time.Duration(k.cfg.PollIntervalMs) * time.Millisecond)
		defer poll.Stop()
		pollC = poll.C
	}

	var reload <-chan string
	if k.cfg.LayoutsDir != "" {
		ch, err := k.registry.Watch(ctx, k.cfg.LayoutsDir)
		if err != nil {
			k.log.Debugw("not watching layout tables", "dir", k.cfg.LayoutsDir, "error", err)
		} else {
			reload = ch
		}
	}

	var focusC <-chan struct{}
	if k.focus != nil {
		focusC = k.focus.Events()
	}

	k.selectAndRender()

	for {
		select {
		case <-ctx.Done():
			k.machine.StopRepeat()
			return ctx.Err()
		case fn := <-k.ops:
			fn()
		case line := <-watchLines:
			k.manager.HandleWatchLine(line)
		case <-pollC:
			k.manager.PollOnce()
		case code, ok := <-reload:
			if !ok {
				reload = nil
				continue
			}
			k.tablesReloaded(code)
		case <-focusC:
			if k.cfg.AutoShowOnEdit {
				k.renderer.Show()
			}
		}
	}
}

func (k *Keyboard) initManager() error {
	return k.manager.Initialize(
		func() xkbtool.Tool {
			k.xkbSwitch = k.newXkbSwitch()
			return k.xkbSwitch
		},
		func() xkbtool.Tool {
			return xkbtool.NewSetxkbmap(nil)
		},
	)
}

// newXkbSwitch honors the switch_command override for both queries and the
// watch process. An unparsable override is reported and ignored.
func (k *Keyboard) newXkbSwitch() *xkbtool.XkbSwitch {
	if k.cfg.SwitchCommand != "" {
		tool, err := xkbtool.NewXkbSwitchCommand(k.cfg.SwitchCommand)
		if err == nil {
			return tool
		}
		k.log.Warnw("bad switch_command, using default tool", "command", k.cfg.SwitchCommand, "error", err)
	}
	return xkbtool.NewXkbSwitch(nil)
}

func (k *Keyboard) restoreLast() {
	if !k.manager.Ready() {
		return
	}
	code, ok, err := k.store.LastLayout()
	if err != nil {
		k.log.Warnw("cannot read last layout", "error", err)
		return
	}
	if !ok {
		return
	}
	if err := k.manager.SetByName(code, true); err != nil {
		k.log.Infow("stored layout no longer available", "layout", code, "error", err)
	}
}

// layoutChanged runs on the loop goroutine whenever the manager's belief
// about the active layout moves, regardless of who moved it.
func (k *Keyboard) layoutChanged(code string) {
	if err := k.store.SetLastLayout(code); err != nil {
		k.log.Warnw("cannot persist last layout", "layout", code, "error", err)
	}
	k.selectAndRender()
}

func (k *Keyboard) selectAndRender() {
	code, ok := k.manager.CurrentName()
	if !ok {
		code = charmap.BaseLayout
	}
	k.visual = k.registry.ResolveSelection(code)
	k.renderer.SelectLayout(k.manager.CurrentIndex(), code)
	k.renderLabels()
}

func (k *Keyboard) renderLabels() {
	k.renderer.RefreshLabels(k.visual, k.machine.Shift(), k.machine.CapsLock())
}

func (k *Keyboard) tablesReloaded(code string) {
	k.log.Infow("layout table reloaded", "layout", code)
	// the reload may change which table the active layout resolves to
	k.selectAndRender()
}

// Label resolves the caption for a key under the current visual layout and
// modifier state.
func (k *Keyboard) Label(key string) string {
	return k.registry.ResolveChar(k.visual, key, k.machine.EffectiveShiftFor(key))
}

// Layout operations, callable from any goroutine.

func (k *Keyboard) CycleLayout() {
	k.do(func() {
		if err := k.manager.CycleNext(); err != nil {
			k.log.Warnw("cycle layout", "error", err)
		}
	})
}

func (k *Keyboard) SelectLayout(i int) {
	k.do(func() {
		if err := k.manager.SetByIndex(i, true); err != nil {
			k.log.Warnw("select layout", "index", i, "error", err)
		}
	})
}

func (k *Keyboard) SelectLayoutByName(name string) {
	k.do(func() {
		if err := k.manager.SetByName(name, true); err != nil {
			k.log.Warnw("select layout", "layout", name, "error", err)
		}
	})
}

// Key operations delegate to the state machine directly.

func (k *Keyboard) PressKey(name string)        { k.machine.PressKey(name) }
func (k *Keyboard) PressKeyShifted(name string) { k.machine.PressKeyShifted(name) }
func (k *Keyboard) ReleaseKey(name string)      { k.machine.ReleaseKey(name) }
func (k *Keyboard) PressModifier(name string)   { k.machine.PressModifier(name) }
func (k *Keyboard) ToggleCapsLock()             { k.machine.ToggleCapsLock() }
