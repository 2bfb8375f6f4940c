//go:build windows

package main

import (
	"fmt"
	"syscall"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	user32                 = windows.NewLazySystemDLL("user32.dll")
	procIsWindow           = user32.NewProc("IsWindow")
	procGetClassNameW      = user32.NewProc("GetClassNameW")
	procGetWindowTextW     = user32.NewProc("GetWindowTextW")
	procGetParent          = user32.NewProc("GetParent")
	procGetAncestor        = user32.NewProc("GetAncestor")
	procPostMessageW       = user32.NewProc("PostMessageW")
	procSendMessageW       = user32.NewProc("SendMessageW")
	procClientToScreen     = user32.NewProc("ClientToScreen")
	procGetSystemMetrics   = user32.NewProc("GetSystemMetrics")
	procEnumWindows        = user32.NewProc("EnumWindows")
	procIsWindowVisible    = user32.NewProc("IsWindowVisible")
	procSendInput          = user32.NewProc("SendInput")
	procGetWindowTextLenW  = user32.NewProc("GetWindowTextLengthW")
)

const (
	smCXScreen = 0
	smCYScreen = 1
)

type winPoint struct {
	X, Y int32
}

// windowsAPI is the real user32-backed implementation of winAPI.
type windowsAPI struct{}

func newPlatformAPI() winAPI { return windowsAPI{} }

func (windowsAPI) IsWindow(h WindowHandle) bool {
	r, _, _ := procIsWindow.Call(uintptr(h))
	return r != 0
}

func (windowsAPI) ClassName(h WindowHandle) (string, error) {
	var buf [256]uint16
	r, _, err := procGetClassNameW.Call(uintptr(h), uintptr(unsafe.Pointer(&buf[0])), uintptr(len(buf)))
	if r == 0 {
		return "", fmt.Errorf("GetClassName(%s): %w", h, err)
	}
	return syscall.UTF16ToString(buf[:r]), nil
}

func (windowsAPI) WindowText(h WindowHandle) (string, error) {
	// A zero-length title is not an error; distinguish via the length call.
	n, _, _ := procGetWindowTextLenW.Call(uintptr(h))
	if n == 0 {
		r, _, _ := procIsWindow.Call(uintptr(h))
		if r == 0 {
			return "", fmt.Errorf("GetWindowText(%s): window gone", h)
		}
		return "", nil
	}
	buf := make([]uint16, n+1)
	r, _, err := procGetWindowTextW.Call(uintptr(h), uintptr(unsafe.Pointer(&buf[0])), uintptr(len(buf)))
	if r == 0 {
		return "", fmt.Errorf("GetWindowText(%s): %w", h, err)
	}
	return syscall.UTF16ToString(buf[:r]), nil
}

func (windowsAPI) Parent(h WindowHandle) WindowHandle {
	// GA_PARENT (1) walks owner-less parents only; GetParent alone also
	// returns owners, which breaks the ancestor walk on some emulators.
	r, _, _ := procGetAncestor.Call(uintptr(h), 1)
	if r == uintptr(h) {
		return 0
	}
	return WindowHandle(r)
}

func (windowsAPI) PostMessage(h WindowHandle, msg uint32, wparam, lparam uintptr) error {
	r, _, err := procPostMessageW.Call(uintptr(h), uintptr(msg), wparam, lparam)
	if r == 0 {
		return fmt.Errorf("PostMessage(%s, 0x%04X): %w", h, msg, err)
	}
	return nil
}

func (windowsAPI) SendMessage(h WindowHandle, msg uint32, wparam, lparam uintptr) error {
	// SendMessage's return value is message-specific; delivery failure
	// only shows up as a dead handle, which callers re-check.
	procSendMessageW.Call(uintptr(h), uintptr(msg), wparam, lparam)
	r, _, _ := procIsWindow.Call(uintptr(h))
	if r == 0 {
		return fmt.Errorf("SendMessage(%s, 0x%04X): window gone", h, msg)
	}
	return nil
}

func (windowsAPI) ClientToScreen(h WindowHandle, x, y int) (int, int, error) {
	pt := winPoint{X: int32(x), Y: int32(y)}
	r, _, err := procClientToScreen.Call(uintptr(h), uintptr(unsafe.Pointer(&pt)))
	if r == 0 {
		return 0, 0, fmt.Errorf("ClientToScreen(%s): %w", h, err)
	}
	return int(pt.X), int(pt.Y), nil
}

func (windowsAPI) ScreenSize() (int, int) {
	w, _, _ := procGetSystemMetrics.Call(smCXScreen)
	hgt, _, _ := procGetSystemMetrics.Call(smCYScreen)
	return int(w), int(hgt)
}

func (windowsAPI) TopLevelWindows() ([]WindowHandle, error) {
	var handles []WindowHandle
	cb := syscall.NewCallback(func(hwnd uintptr, _ uintptr) uintptr {
		if v, _, _ := procIsWindowVisible.Call(hwnd); v != 0 {
			handles = append(handles, WindowHandle(hwnd))
		}
		return 1 // continue enumeration
	})
	r, _, err := procEnumWindows.Call(cb, 0)
	if r == 0 {
		return handles, fmt.Errorf("EnumWindows: %w", err)
	}
	return handles, nil
}

// ---- driver-level injection (SendInput) ----

const (
	inputMouse    = 0
	inputKeyboard = 1

	mouseEventfMove       = 0x0001
	mouseEventfLeftDown   = 0x0002
	mouseEventfLeftUp     = 0x0004
	mouseEventfRightDown  = 0x0008
	mouseEventfRightUp    = 0x0010
	mouseEventfMiddleDown = 0x0020
	mouseEventfMiddleUp   = 0x0040
	mouseEventfWheel      = 0x0800
	mouseEventfAbsolute   = 0x8000

	keyEventfExtendedKey = 0x0001
	keyEventfKeyUp       = 0x0002
)

type keybdInput struct {
	WVk         uint16
	WScan       uint16
	DwFlags     uint32
	Time        uint32
	DwExtraInfo uintptr
}

type mouseInput struct {
	Dx          int32
	Dy          int32
	MouseData   uint32
	DwFlags     uint32
	Time        uint32
	DwExtraInfo uintptr
}

// hwInput mirrors the Win32 INPUT struct: 4-byte type, padding, then a
// 32-byte union blob large enough for MOUSEINPUT (amd64 layout).
type hwInput struct {
	Type uint32
	_    uint32
	Data [32]byte
}

func makeMouseInput(flags uint32, dx, dy int32, data uint32) hwInput {
	var in hwInput
	in.Type = inputMouse
	mi := (*mouseInput)(unsafe.Pointer(&in.Data[0]))
	mi.Dx = dx
	mi.Dy = dy
	mi.MouseData = data
	mi.DwFlags = flags
	return in
}

func makeKeyInput(kc KeyCode, up bool) hwInput {
	var in hwInput
	in.Type = inputKeyboard
	ki := (*keybdInput)(unsafe.Pointer(&in.Data[0]))
	ki.WVk = kc.VK
	ki.WScan = kc.ScanCode
	if kc.Extended {
		ki.DwFlags |= keyEventfExtendedKey
	}
	if up {
		ki.DwFlags |= keyEventfKeyUp
	}
	return in
}

// sendInputInjector injects at the OS input-queue level. Screen
// coordinates only; the caller has already done every transform.
type sendInputInjector struct {
	screenW int
	screenH int
}

func newPlatformInjector() driverInjector {
	api := windowsAPI{}
	w, h := api.ScreenSize()
	return &sendInputInjector{screenW: w, screenH: h}
}

func (s *sendInputInjector) send(inputs []hwInput) error {
	if len(inputs) == 0 {
		return nil
	}
	r, _, err := procSendInput.Call(
		uintptr(len(inputs)),
		uintptr(unsafe.Pointer(&inputs[0])),
		unsafe.Sizeof(inputs[0]),
	)
	if int(r) != len(inputs) {
		return fmt.Errorf("SendInput delivered %d/%d: %w", r, len(inputs), err)
	}
	return nil
}

// normalize maps screen pixels onto the 0..65535 absolute space
// MOUSEEVENTF_ABSOLUTE requires.
func (s *sendInputInjector) normalize(x, y int) (int32, int32) {
	if s.screenW <= 0 || s.screenH <= 0 {
		return int32(x), int32(y)
	}
	nx := int32(x * 65535 / s.screenW)
	ny := int32(y * 65535 / s.screenH)
	return nx, ny
}

func (s *sendInputInjector) MouseMove(x, y int) error {
	nx, ny := s.normalize(x, y)
	return s.send([]hwInput{makeMouseInput(mouseEventfMove|mouseEventfAbsolute, nx, ny, 0)})
}

func (s *sendInputInjector) MouseDown(x, y int, b MouseButton) error {
	nx, ny := s.normalize(x, y)
	var flag uint32
	switch b {
	case ButtonRight:
		flag = mouseEventfRightDown
	case ButtonMiddle:
		flag = mouseEventfMiddleDown
	default:
		flag = mouseEventfLeftDown
	}
	return s.send([]hwInput{makeMouseInput(flag|mouseEventfAbsolute, nx, ny, 0)})
}

func (s *sendInputInjector) MouseUp(x, y int, b MouseButton) error {
	nx, ny := s.normalize(x, y)
	var flag uint32
	switch b {
	case ButtonRight:
		flag = mouseEventfRightUp
	case ButtonMiddle:
		flag = mouseEventfMiddleUp
	default:
		flag = mouseEventfLeftUp
	}
	return s.send([]hwInput{makeMouseInput(flag|mouseEventfAbsolute, nx, ny, 0)})
}

func (s *sendInputInjector) Wheel(x, y int, delta int) error {
	nx, ny := s.normalize(x, y)
	return s.send([]hwInput{makeMouseInput(mouseEventfWheel|mouseEventfAbsolute, nx, ny, uint32(int32(delta*wheelDelta)))})
}

func (s *sendInputInjector) KeyDown(kc KeyCode) error {
	return s.send([]hwInput{makeKeyInput(kc, false)})
}

func (s *sendInputInjector) KeyUp(kc KeyCode) error {
	return s.send([]hwInput{makeKeyInput(kc, true)})
}

func (s *sendInputInjector) ScreenBounds() (int, int) {
	return s.screenW, s.screenH
}
