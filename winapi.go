package main

// winAPI narrows the user32 surface the core touches so tests can stand
// up a fake desktop. Every implementation must tolerate handles dying
// between calls: queries return errors, never panic.
type winAPI interface {
	// IsWindow reports whether the handle still identifies a live window.
	IsWindow(h WindowHandle) bool

	// ClassName returns the window class name.
	ClassName(h WindowHandle) (string, error)

	// WindowText returns the window title text.
	WindowText(h WindowHandle) (string, error)

	// Parent returns the parent window, or zero at the top of the chain.
	Parent(h WindowHandle) WindowHandle

	// PostMessage queues a message without waiting on the receiver.
	PostMessage(h WindowHandle, msg uint32, wparam, lparam uintptr) error

	// SendMessage delivers a message and blocks on receiver processing.
	SendMessage(h WindowHandle, msg uint32, wparam, lparam uintptr) error

	// ClientToScreen converts client coordinates of h to screen space.
	ClientToScreen(h WindowHandle, x, y int) (int, int, error)

	// ScreenSize returns the primary display dimensions.
	ScreenSize() (int, int)

	// TopLevelWindows enumerates visible top-level windows.
	TopLevelWindows() ([]WindowHandle, error)
}

// Window messages the delivery channels emit. Values are the Win32
// constants; receivers dictate them, they are not ours to renumber.
const (
	wmMouseMove     = 0x0200
	wmLButtonDown   = 0x0201
	wmLButtonUp     = 0x0202
	wmLButtonDblClk = 0x0203
	wmRButtonDown   = 0x0204
	wmRButtonUp     = 0x0205
	wmRButtonDblClk = 0x0206
	wmMButtonDown   = 0x0207
	wmMButtonUp     = 0x0208
	wmMButtonDblClk = 0x0209
	wmMouseWheel    = 0x020A

	wmKeyDown = 0x0100
	wmKeyUp   = 0x0101
	wmChar    = 0x0102

	wheelDelta = 120
)

// wparam button-state bits carried on mouse messages.
const (
	mkLButton = 0x0001
	mkRButton = 0x0002
	mkMButton = 0x0010
)

// packCoords packs client coordinates into a mouse-message lparam
// (x in the low word, y in the high word, both signed 16-bit).
func packCoords(x, y int) uintptr {
	return uintptr(uint32(uint16(int16(x))) | uint32(uint16(int16(y)))<<16)
}

// unpackCoords is the inverse of packCoords; tests and diagnostics use it.
func unpackCoords(lparam uintptr) (int, int) {
	x := int(int16(uint16(lparam & 0xFFFF)))
	y := int(int16(uint16((lparam >> 16) & 0xFFFF)))
	return x, y
}

// keyDownLParam builds a WM_KEYDOWN lparam: repeat count 1, the scan
// code, the extended-key bit, and the previous-state bit when the key is
// already held (some receivers distinguish first-press from held-repeat).
func keyDownLParam(kc KeyCode, repeat bool) uintptr {
	lp := uintptr(1) // repeat count
	lp |= uintptr(kc.ScanCode) << 16
	if kc.Extended {
		lp |= 1 << 24
	}
	if repeat {
		lp |= 1 << 30 // previous key state: was down
	}
	return lp
}

// keyUpLParam builds a WM_KEYUP lparam: previous-state and transition
// bits are always set on key-up.
func keyUpLParam(kc KeyCode) uintptr {
	lp := uintptr(1)
	lp |= uintptr(kc.ScanCode) << 16
	if kc.Extended {
		lp |= 1 << 24
	}
	lp |= 1 << 30 // previous key state
	lp |= 1 << 31 // transition: being released
	return lp
}

// wheelWParam packs scroll distance (in wheel notches) into the high
// word of a WM_MOUSEWHEEL wparam.
func wheelWParam(delta int) uintptr {
	return uintptr(uint32(uint16(int16(delta*wheelDelta))) << 16)
}

func buttonDownMsg(b MouseButton) (uint32, uintptr) {
	switch b {
	case ButtonRight:
		return wmRButtonDown, mkRButton
	case ButtonMiddle:
		return wmMButtonDown, mkMButton
	default:
		return wmLButtonDown, mkLButton
	}
}

func buttonUpMsg(b MouseButton) uint32 {
	switch b {
	case ButtonRight:
		return wmRButtonUp
	case ButtonMiddle:
		return wmMButtonUp
	default:
		return wmLButtonUp
	}
}

func buttonDblClkMsg(b MouseButton) uint32 {
	switch b {
	case ButtonRight:
		return wmRButtonDblClk
	case ButtonMiddle:
		return wmMButtonDblClk
	default:
		return wmLButtonDblClk
	}
}
