package xkbtool

import "errors"

var (
	// ErrNotFound means the tool binary does not exist on this system, so the
	// caller can fail over to the other backend.
	ErrNotFound = errors.New("layout tool not found")

	// ErrToolFailed means the tool exists but a single invocation failed
	// (nonzero exit or timeout). Transient; the backend stays usable.
	ErrToolFailed = errors.New("layout tool invocation failed")

	ErrNoLayouts = errors.New("tool reported no layouts")
)

// Tool is the uniform interface over the two layout-switching backends.
// Exactly one backend is selected at startup and used for the whole session.
type Tool interface {
	// ListLayouts enumerates the configured layout codes in system order.
	// A failure is reported as an error, never as an empty list.
	ListLayouts() ([]string, error)

	// QueryActive returns the code of the currently active layout.
	QueryActive() (string, error)

	// SetActive switches the system to the named layout. known is the
	// caller's cached layout list; the setxkbmap backend needs it because
	// its only "activate" primitive is re-issuing the whole list with the
	// target moved to the front.
	SetActive(name string, known []string) error

	// CycleNext advances to the next layout. The xkb-switch backend uses
	// its native next command, which does not report the resulting layout;
	// the caller must learn the outcome from its watcher or a re-query.
	CycleNext(current int, known []string) error

	// CanWatch reports whether this backend can stream change
	// notifications from a long-running child process.
	CanWatch() bool

	Name() string
}
