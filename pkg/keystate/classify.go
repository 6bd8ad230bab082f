package keystate

import "github.com/khaled151277/xvkeyboard/pkg/charmap"

// Class buckets a key name by how a press is handled.
type Class int

const (
	// ClassModifier is a sticky Shift/Ctrl/Alt button.
	ClassModifier Class = iota
	// ClassCapsLock toggles the real system Caps Lock.
	ClassCapsLock
	// ClassRepeatable keys emit a keystroke and may auto-repeat while held.
	ClassRepeatable
	// ClassFunctional keys emit once and never repeat.
	ClassFunctional
)

var modifierKeys = map[string]bool{
	"LShift": true, "RShift": true,
	"L Ctrl": true, "R Ctrl": true,
	"L Alt": true, "R Alt": true,
}

var repeatableSpecials = map[string]bool{
	"Space": true, "Backspace": true, "Delete": true, "Tab": true,
	"Enter": true, "Up": true, "Down": true, "Left": true, "Right": true,
	"Home": true, "End": true, "Page Up": true, "Page Down": true,
	"Insert": true,
}

// winLikeKeys commit whatever was armed: they are simulated without shift and
// clear all sticky modifiers afterwards.
var winLikeKeys = map[string]bool{
	"L Win": true, "R Win": true, "App": true,
}

func Classify(name string) Class {
	switch {
	case modifierKeys[name]:
		return ClassModifier
	case name == "Caps Lock":
		return ClassCapsLock
	case charmap.InFallback(name) || repeatableSpecials[name]:
		return ClassRepeatable
	default:
		return ClassFunctional
	}
}

// isPrintable reports whether a key produces a visible character (or Space).
// These are the keys whose press consumes the sticky modifiers.
func isPrintable(name string) bool {
	return charmap.InFallback(name) || name == "Space"
}

func isLetter(name string) bool {
	return len(name) == 1 && name[0] >= 'A' && name[0] <= 'Z'
}
