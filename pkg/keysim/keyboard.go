package keysim

import "fmt"

// Keyboard wraps a Simulator with the cached modifier keycodes and implements
// the full keystroke sequence: held modifiers around a press+release of the
// main key.
type Keyboard struct {
	sim    Simulator
	status Status

	shiftCode Keycode
	ctrlCode  Keycode
	altCode   Keycode
	capsCode  Keycode
}

// NewKeyboard resolves the modifier keycodes once. When sim is nil or any
// modifier keycode is missing, the keyboard comes up with StatusUnavailable
// and every tap fails fast; callers decide how to degrade.
func NewKeyboard(sim Simulator) *Keyboard {
	k := &Keyboard{sim: sim, status: StatusUnavailable}
	if sim == nil {
		return k
	}

	ok := true
	k.shiftCode, ok = resolve(sim, symShiftL, ok)
	k.ctrlCode, ok = resolve(sim, symControlL, ok)
	k.altCode, ok = resolve(sim, symAltL, ok)
	k.capsCode, ok = resolve(sim, symCapsLock, ok)
	if ok {
		k.status = StatusOK
	}

	return k
}

func resolve(sim Simulator, sym Keysym, ok bool) (Keycode, bool) {
	code, found := sim.KeysymToKeycode(sym)
	return code, ok && found
}

func (k *Keyboard) Status() Status { return k.status }

// Disable marks the keyboard unusable for the rest of the session, after
// repeated simulation failures.
func (k *Keyboard) Disable() {
	if k.status == StatusOK {
		k.status = StatusDisabled
	}
}

// TapKey emits one keystroke for the named button: held modifiers pressed,
// the key pressed and released, modifiers released in reverse order. A
// mid-sequence failure attempts to release whatever was pressed, then reports
// the failure.
func (k *Keyboard) TapKey(name string, shift, ctrl, alt bool) error {
	if k.status != StatusOK {
		return fmt.Errorf("tap %q: %w (%s)", name, ErrUnavailable, k.status)
	}

	sym, ok := KeysymFor(name)
	if !ok {
		return fmt.Errorf("tap %q: %w", name, ErrNoKeysym)
	}
	code, ok := k.sim.KeysymToKeycode(sym)
	if !ok {
		return fmt.Errorf("tap %q (keysym %#x): %w", name, sym, ErrNoKeycode)
	}

	var held []Keycode
	press := func(c Keycode) error {
		if err := k.sim.SendKey(Press, c); err != nil {
			return err
		}
		held = append(held, c)
		return nil
	}

	run := func() error {
		if ctrl {
			if err := press(k.ctrlCode); err != nil {
				return err
			}
		}
		if alt {
			if err := press(k.altCode); err != nil {
				return err
			}
		}
		if shift {
			if err := press(k.shiftCode); err != nil {
				return err
			}
		}

		if err := k.sim.SendKey(Press, code); err != nil {
			return err
		}
		if err := k.sim.SendKey(Release, code); err != nil {
			return err
		}

		for i := len(held) - 1; i >= 0; i-- {
			if err := k.sim.SendKey(Release, held[i]); err != nil {
				return err
			}
			held = held[:i]
		}
		return nil
	}

	if err := run(); err != nil {
		// Best effort: do not leave modifiers stuck down.
		for i := len(held) - 1; i >= 0; i-- {
			_ = k.sim.SendKey(Release, held[i])
		}
		return fmt.Errorf("tap %q: %w", name, err)
	}

	return nil
}

// ToggleCapsLock sends one press+release of the Caps Lock keycode. The caller
// flips its local engaged flag only when this succeeds.
func (k *Keyboard) ToggleCapsLock() error {
	if k.status != StatusOK {
		return fmt.Errorf("toggle caps lock: %w (%s)", ErrUnavailable, k.status)
	}

	if err := k.sim.SendKey(Press, k.capsCode); err != nil {
		return fmt.Errorf("toggle caps lock: %w", err)
	}
	if err := k.sim.SendKey(Release, k.capsCode); err != nil {
		return fmt.Errorf("toggle caps lock: %w", err)
	}

	return nil
}

func (k *Keyboard) Close() error {
	if k.sim == nil {
		return nil
	}
	return k.sim.Close()
}
