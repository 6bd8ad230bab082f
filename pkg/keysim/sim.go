package keysim

import "errors"

// Keycode is a physical X11 keycode.
type Keycode byte

// EventKind distinguishes the two halves of a keystroke.
type EventKind byte

const (
	Press EventKind = iota
	Release
)

var (
	ErrNoKeysym    = errors.New("no keysym for key")
	ErrNoKeycode   = errors.New("keysym has no keycode in the current mapping")
	ErrUnavailable = errors.New("key simulation unavailable")
)

// Simulator performs one fake key event synchronously. The X11 backend is the
// real implementation; tests substitute fakes.
type Simulator interface {
	SendKey(kind EventKind, code Keycode) error
	KeysymToKeycode(sym Keysym) (Keycode, bool)
	Close() error
}

// Status is the capability state of the simulation layer, threaded through to
// callers explicitly instead of living in a package-level flag.
type Status int

const (
	// StatusOK means the backend connected and all modifier keycodes resolved.
	StatusOK Status = iota
	// StatusUnavailable means the backend never came up; taps fail fast.
	StatusUnavailable
	// StatusDisabled means the backend failed mid-session and was switched
	// off until reinitialized.
	StatusDisabled
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusUnavailable:
		return "unavailable"
	case StatusDisabled:
		return "disabled"
	}
	return "unknown"
}
