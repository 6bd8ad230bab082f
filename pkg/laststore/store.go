// Package laststore persists the last active layout across runs so the
// keyboard can come back up in the language the user left it in.
package laststore

// Store remembers the last active layout code. Implementations live in the
// sqlite, json and memory subpackages.
type Store interface {
	// LastLayout returns the stored code; ok is false when nothing was
	// stored yet.
	LastLayout() (code string, ok bool, err error)
	SetLastLayout(code string) error
	Close() error
}
