package keysim

// Keysym is an X11 keysym value, per /usr/include/X11/keysymdef.h.
type Keysym uint32

const (
	symShiftL   Keysym = 0xffe1
	symControlL Keysym = 0xffe3
	symAltL     Keysym = 0xffe9
	symCapsLock Keysym = 0xffe5
)

// keysyms maps every button name of the keyboard to its X11 keysym. Letters
// use the lowercase keysym; shift handling decides the case.
var keysyms = map[string]Keysym{
	"Esc": 0xff1b, "Tab": 0xff09, "Caps Lock": symCapsLock,
	"LShift": symShiftL, "RShift": 0xffe2,
	"L Ctrl": symControlL, "R Ctrl": 0xffe4,
	"L Win": 0xffeb, "R Win": 0xffec,
	"L Alt": symAltL, "R Alt": 0xffea,
	"App": 0xff67, "Enter": 0xff0d, "Backspace": 0xff08,
	"Space": 0x0020, "PrtSc": 0xff61, "Scroll Lock": 0xff14,
	"Pause": 0xff13, "Insert": 0xff63, "Home": 0xff50,
	"Page Up": 0xff55, "Delete": 0xffff, "End": 0xff57,
	"Page Down": 0xff56, "Up": 0xff52, "Left": 0xff51,
	"Down": 0xff54, "Right": 0xff53,

	"F1": 0xffbe, "F2": 0xffbf, "F3": 0xffc0, "F4": 0xffc1,
	"F5": 0xffc2, "F6": 0xffc3, "F7": 0xffc4, "F8": 0xffc5,
	"F9": 0xffc6, "F10": 0xffc7, "F11": 0xffc8, "F12": 0xffc9,

	"`": 0x0060, "-": 0x002d, "=": 0x003d,
	"[": 0x005b, "]": 0x005d, "\\": 0x005c,
	";": 0x003b, "'": 0x0027, ",": 0x002c,
	".": 0x002e, "/": 0x002f,

	"1": 0x0031, "2": 0x0032, "3": 0x0033, "4": 0x0034, "5": 0x0035,
	"6": 0x0036, "7": 0x0037, "8": 0x0038, "9": 0x0039, "0": 0x0030,

	"A": 0x0061, "B": 0x0062, "C": 0x0063, "D": 0x0064, "E": 0x0065,
	"F": 0x0066, "G": 0x0067, "H": 0x0068, "I": 0x0069, "J": 0x006a,
	"K": 0x006b, "L": 0x006c, "M": 0x006d, "N": 0x006e, "O": 0x006f,
	"P": 0x0070, "Q": 0x0071, "R": 0x0072, "S": 0x0073, "T": 0x0074,
	"U": 0x0075, "V": 0x0076, "W": 0x0077, "X": 0x0078, "Y": 0x0079,
	"Z": 0x007a,
}

// KeysymFor resolves a button name to its keysym.
func KeysymFor(name string) (Keysym, bool) {
	sym, ok := keysyms[name]
	return sym, ok
}
