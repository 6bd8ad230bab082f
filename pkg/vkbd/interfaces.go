package vkbd

// Renderer is the UI surface the core drives. Implementations draw the key
// grid; the core tells them when labels or the layout list change.
type Renderer interface {
	// RefreshLabels redraws key captions for the given visual layout and
	// modifier state.
	RefreshLabels(layoutCode string, shift, caps bool)
	// SelectLayout highlights the active layout in the picker.
	SelectLayout(index int, name string)
	// Warn surfaces a non-fatal problem to the user.
	Warn(title, message string)
	// Show raises the keyboard window.
	Show()
}

// FocusNotifier reports focus moving into an editable text field, used for
// the show-on-edit behavior.
type FocusNotifier interface {
	Events() <-chan struct{}
}
