// Package keystate tracks the sticky modifier flags and drives key emission
// and auto-repeat. It decides, per press, which modifiers apply and which
// auto-release afterwards, so a tapped Shift behaves like one held for
// exactly one keystroke.
package keystate

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// Tapper emits one complete simulated keystroke.
type Tapper interface {
	TapKey(name string, shift, ctrl, alt bool) error
	ToggleCapsLock() error
}

type Config struct {
	RepeatEnabled  bool
	RepeatDelay    time.Duration
	RepeatInterval time.Duration
}

func DefaultConfig() Config {
	return Config{
		RepeatEnabled:  true,
		RepeatDelay:    1500 * time.Millisecond,
		RepeatInterval: 100 * time.Millisecond,
	}
}

// maxConsecutiveFailures is how many emissions in a row may fail before the
// capability is declared dead for the session.
const maxConsecutiveFailures = 3

type Machine struct {
	mu  sync.Mutex
	tap Tapper
	cfg Config
	log *zap.SugaredLogger

	shift, ctrl, alt bool
	caps             bool // mirrors the simulated system Caps Lock

	repeating  string
	delayTimer *time.Timer
	ticker     *time.Ticker
	tickerDone chan struct{}

	failures    int
	dead        bool
	pendingWarn *[2]string
	pendingDead bool

	onChange  func()                  // sticky state changed; labels need a refresh
	onWarn    func(title, msg string) // one-shot user-visible warning
	onDisable func()                  // emission capability is gone for the session
}

func NewMachine(tap Tapper, cfg Config, log *zap.SugaredLogger) *Machine {
	return &Machine{tap: tap, cfg: cfg, log: log}
}

// SetCallbacks wires the presentation hooks. Nil hooks are allowed.
func (m *Machine) SetCallbacks(onChange func(), onWarn func(title, msg string), onDisable func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onChange = onChange
	m.onWarn = onWarn
	m.onDisable = onDisable
}

// SetConfig applies new repeat settings; the next repeat session uses them.
func (m *Machine) SetConfig(cfg Config) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cfg = cfg
}

func (m *Machine) Shift() bool    { m.mu.Lock(); defer m.mu.Unlock(); return m.shift }
func (m *Machine) Ctrl() bool     { m.mu.Lock(); defer m.mu.Unlock(); return m.ctrl }
func (m *Machine) Alt() bool      { m.mu.Lock(); defer m.mu.Unlock(); return m.alt }
func (m *Machine) CapsLock() bool { m.mu.Lock(); defer m.mu.Unlock(); return m.caps }

// RepeatingKey returns the name of the key currently auto-repeating, or "".
func (m *Machine) RepeatingKey() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.repeating
}

// EffectiveShiftFor computes the shift state a press of this key would use:
// letters XOR with Caps Lock, everything else follows the sticky Shift alone.
func (m *Machine) EffectiveShiftFor(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.effectiveShift(name)
}

func (m *Machine) effectiveShift(name string) bool {
	if isLetter(name) {
		return m.shift != m.caps
	}
	return m.shift
}

// PressModifier toggles a sticky Shift/Ctrl/Alt flag. No keystroke goes out.
func (m *Machine) PressModifier(name string) {
	m.mu.Lock()
	m.stopRepeatLocked()

	toggled := true
	switch name {
	case "LShift", "RShift":
		m.shift = !m.shift
	case "L Ctrl", "R Ctrl":
		m.ctrl = !m.ctrl
	case "L Alt", "R Alt":
		m.alt = !m.alt
	default:
		toggled = false
	}
	m.mu.Unlock()

	if toggled {
		m.notifyChange()
	}
}

// ToggleCapsLock sends the real toggle first and flips the local flag only on
// success, so belief never silently drifts from the system state.
func (m *Machine) ToggleCapsLock() {
	m.mu.Lock()
	m.stopRepeatLocked()
	err := m.tap.ToggleCapsLock()
	if err == nil {
		m.caps = !m.caps
	}
	warn := m.onWarn
	m.mu.Unlock()

	if err != nil {
		m.log.Warnw("caps lock toggle failed", "error", err)
		if warn != nil {
			warn("Caps Lock", "Could not toggle the system Caps Lock.")
		}
		return
	}

	m.notifyChange()
}

// PressKey handles a primary activation of any key button.
func (m *Machine) PressKey(name string) {
	switch Classify(name) {
	case ClassModifier:
		m.PressModifier(name)
	case ClassCapsLock:
		m.ToggleCapsLock()
	case ClassRepeatable:
		m.pressRepeatable(name)
	case ClassFunctional:
		m.pressFunctional(name)
	}
}

func (m *Machine) pressRepeatable(name string) {
	m.mu.Lock()

	// A new press always wins: cancel whatever was repeating first. A press
	// of the same key restarts its session from the initial delay.
	if m.repeating != "" {
		m.stopRepeatLocked()
	}

	ok := m.emitLocked(name)

	changed := false
	if ok && isPrintable(name) {
		changed = m.releaseStickyLocked(true, true, true)
	}

	if ok && m.cfg.RepeatEnabled {
		m.repeating = name
		m.delayTimer = time.AfterFunc(m.cfg.RepeatDelay, m.initialRepeat)
	}
	m.mu.Unlock()

	m.flushAlerts()
	if changed {
		m.notifyChange()
	}
}

func (m *Machine) pressFunctional(name string) {
	m.mu.Lock()
	m.stopRepeatLocked()

	winLike := winLikeKeys[name]
	shift := m.shift
	if winLike {
		shift = false
	}

	ok := m.tapLocked(name, shift)

	changed := false
	if ok {
		// Ctrl/Alt always auto-release here; Shift only for the
		// commit-style Win/Menu keys.
		changed = m.releaseStickyLocked(winLike, true, true)
	}
	m.mu.Unlock()

	m.flushAlerts()
	if changed {
		m.notifyChange()
	}
}

// PressKeyShifted handles a secondary activation (right-click) on a printable
// key: shift is forced regardless of the sticky flag, and the sticky Shift is
// left alone afterwards since it did not drive this action.
func (m *Machine) PressKeyShifted(name string) {
	if !isPrintable(name) {
		return
	}

	m.mu.Lock()
	m.stopRepeatLocked()

	ok := m.tapLocked(name, true)

	changed := false
	if ok {
		changed = m.releaseStickyLocked(false, true, true)
	}
	m.mu.Unlock()

	m.flushAlerts()
	if changed {
		m.notifyChange()
	}
}

// ReleaseKey ends the repeat session for name, if any. Idempotent; also the
// right call when the pointer leaves the button mid-press.
func (m *Machine) ReleaseKey(name string) {
	m.mu.Lock()
	if m.repeating == name {
		m.stopRepeatLocked()
	}
	m.mu.Unlock()
}

// StopRepeat force-stops any repeat session, whatever key owns it.
func (m *Machine) StopRepeat() {
	m.mu.Lock()
	m.stopRepeatLocked()
	m.mu.Unlock()
}

// Reset clears all sticky flags. Only explicit actions call this; losing
// window focus does not.
func (m *Machine) Reset() {
	m.mu.Lock()
	m.stopRepeatLocked()
	changed := m.releaseStickyLocked(true, true, true)
	m.mu.Unlock()

	if changed {
		m.notifyChange()
	}
}

// emitLocked sends one keystroke with the current effective modifiers.
func (m *Machine) emitLocked(name string) bool {
	return m.tapLocked(name, m.effectiveShift(name))
}

func (m *Machine) tapLocked(name string, shift bool) bool {
	if m.dead {
		return false
	}

	err := m.tap.TapKey(name, shift, m.ctrl, m.alt)
	if err == nil {
		m.failures = 0
		return true
	}

	m.log.Warnw("key simulation failed", "key", name, "error", err)
	m.failures++
	if m.failures >= maxConsecutiveFailures {
		m.dead = true
		m.pendingWarn = &[2]string{"Key Simulation", "Key input stopped working and has been disabled for this session."}
		m.pendingDead = true
	}
	return false
}

// flushAlerts delivers warnings queued under the lock. Callbacks run without
// the lock held so they are free to read machine state.
func (m *Machine) flushAlerts() {
	m.mu.Lock()
	warn := m.pendingWarn
	disabled := m.pendingDead
	m.pendingWarn = nil
	m.pendingDead = false
	onWarn, onDisable := m.onWarn, m.onDisable
	m.mu.Unlock()

	if warn != nil && onWarn != nil {
		onWarn(warn[0], warn[1])
	}
	if disabled && onDisable != nil {
		onDisable()
	}
}

func (m *Machine) releaseStickyLocked(shift, ctrl, alt bool) bool {
	changed := false
	if shift && m.shift {
		m.shift = false
		changed = true
	}
	if ctrl && m.ctrl {
		m.ctrl = false
		changed = true
	}
	if alt && m.alt {
		m.alt = false
		changed = true
	}
	return changed
}

func (m *Machine) notifyChange() {
	m.mu.Lock()
	cb := m.onChange
	m.mu.Unlock()
	if cb != nil {
		cb()
	}
}
