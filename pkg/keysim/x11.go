package keysim

import (
	"fmt"

	"github.com/jezek/xgb"
	"github.com/jezek/xgb/xproto"
	"github.com/jezek/xgb/xtest"
)

// X11 sends fake key events through the XTEST extension and resolves keysyms
// against the server's current keyboard mapping.
type X11 struct {
	conn    *xgb.Conn
	root    xproto.Window
	minCode xproto.Keycode
	perCode byte
	keysyms []xproto.Keysym
}

// ConnectX11 connects to the display named by the environment and fetches the
// keyboard mapping once. The mapping is refreshed lazily only by reconnecting;
// layout switches do not move modifier keycodes in practice.
func ConnectX11() (*X11, error) {
	conn, err := xgb.NewConn()
	if err != nil {
		return nil, fmt.Errorf("connect to X server: %w", err)
	}

	if err := xtest.Init(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("init XTEST extension: %w", err)
	}

	setup := xproto.Setup(conn)
	count := byte(setup.MaxKeycode - setup.MinKeycode + 1)
	mapping, err := xproto.GetKeyboardMapping(conn, setup.MinKeycode, count).Reply()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("get keyboard mapping: %w", err)
	}

	return &X11{
		conn:    conn,
		root:    setup.DefaultScreen(conn).Root,
		minCode: setup.MinKeycode,
		perCode: mapping.KeysymsPerKeycode,
		keysyms: mapping.Keysyms,
	}, nil
}

func (x *X11) SendKey(kind EventKind, code Keycode) error {
	typ := byte(xproto.KeyPress)
	if kind == Release {
		typ = byte(xproto.KeyRelease)
	}

	err := xtest.FakeInputChecked(x.conn, typ, byte(code), xproto.TimeCurrentTime, x.root, 0, 0, 0).Check()
	if err != nil {
		return fmt.Errorf("fake input (type %d, keycode %d): %w", typ, code, err)
	}

	return nil
}

// KeysymToKeycode scans the fetched mapping for the first keycode producing
// the keysym in any column.
func (x *X11) KeysymToKeycode(sym Keysym) (Keycode, bool) {
	w := int(x.perCode)
	for i, s := range x.keysyms {
		if Keysym(s) == sym {
			return Keycode(int(x.minCode) + i/w), true
		}
	}
	return 0, false
}

func (x *X11) Close() error {
	x.conn.Close()
	return nil
}
