// Package charmap holds the per-layout character tables used to label keys
// and to decide what a shifted press produces.
package charmap

// Entry is the character pair for one key. Shifted is nil when the layout
// defines no shift variant for the key; that is different from an empty
// string and from the key being absent.
type Entry struct {
	Base    string
	Shifted *string
}

// Table maps a key name ("Q", ";", "Space"...) to its character pair.
type Table map[string]Entry

func pair(base, shifted string) Entry {
	return Entry{Base: base, Shifted: &shifted}
}

// BaseLayout is the code of the built-in table every lookup can fall back to.
const BaseLayout = "us"

// fallbackTable is the built-in US map. It is always available, so label
// resolution never comes up empty-handed.
var fallbackTable = Table{
	"`": pair("`", "~"), "1": pair("1", "!"), "2": pair("2", "@"),
	"3": pair("3", "#"), "4": pair("4", "$"), "5": pair("5", "%"),
	"6": pair("6", "^"), "7": pair("7", "&"), "8": pair("8", "*"),
	"9": pair("9", "("), "0": pair("0", ")"), "-": pair("-", "_"),
	"=": pair("=", "+"),

	"Q": pair("q", "Q"), "W": pair("w", "W"), "E": pair("e", "E"),
	"R": pair("r", "R"), "T": pair("t", "T"), "Y": pair("y", "Y"),
	"U": pair("u", "U"), "I": pair("i", "I"), "O": pair("o", "O"),
	"P": pair("p", "P"), "[": pair("[", "{"), "]": pair("]", "}"),
	"\\": pair("\\", "|"),

	"A": pair("a", "A"), "S": pair("s", "S"), "D": pair("d", "D"),
	"F": pair("f", "F"), "G": pair("g", "G"), "H": pair("h", "H"),
	"J": pair("j", "J"), "K": pair("k", "K"), "L": pair("l", "L"),
	";": pair(";", ":"), "'": pair("'", "\""),

	"Z": pair("z", "Z"), "X": pair("x", "X"), "C": pair("c", "C"),
	"V": pair("v", "V"), "B": pair("b", "B"), "N": pair("n", "N"),
	"M": pair("m", "M"), ",": pair(",", "<"), ".": pair(".", ">"),
	"/": pair("/", "?"),
}

// FallbackTable returns a copy of the built-in US table.
func FallbackTable() Table {
	t := make(Table, len(fallbackTable))
	for k, v := range fallbackTable {
		t[k] = v
	}
	return t
}

// InFallback reports whether the key has a character entry in the built-in
// table. This doubles as the "is this a printable key" test.
func InFallback(key string) bool {
	_, ok := fallbackTable[key]
	return ok
}
