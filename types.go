package main

import (
	"fmt"
	"strings"
)

// WindowHandle identifies a native top-level or child window. It is a
// borrowed reference: the window can be destroyed by the OS or the target
// application at any time, so validity is re-checked before every use.
type WindowHandle uintptr

// IsZero reports whether the handle is the null window.
func (h WindowHandle) IsZero() bool { return h == 0 }

func (h WindowHandle) String() string { return fmt.Sprintf("0x%X", uintptr(h)) }

// WindowCategory classifies a window for input routing purposes.
type WindowCategory int

const (
	// CategoryUnknown means the window could not be inspected (usually
	// because it was destroyed mid-query). Never fatal to the caller.
	CategoryUnknown WindowCategory = iota

	// CategoryStandard is an ordinary desktop window. Input goes straight
	// to the handle itself.
	CategoryStandard

	// CategoryEmulatorFamilyA covers LDPlayer-style emulators: the render
	// surface itself receives input, delivered as low-level window
	// messages, and the addressable instance is confirmed through an
	// ancestor main frame that answers the console index probe.
	CategoryEmulatorFamilyA

	// CategoryEmulatorFamilyB covers MuMu-style emulators: input must be
	// redirected to a distinct ancestor device window, and text requires
	// the remote virtual keyboard.
	CategoryEmulatorFamilyB
)

func (c WindowCategory) String() string {
	switch c {
	case CategoryStandard:
		return "standard"
	case CategoryEmulatorFamilyA:
		return "emulator_family_a"
	case CategoryEmulatorFamilyB:
		return "emulator_family_b"
	default:
		return "unknown"
	}
}

// IsEmulator reports whether the category needs target resolution.
func (c WindowCategory) IsEmulator() bool {
	return c == CategoryEmulatorFamilyA || c == CategoryEmulatorFamilyB
}

// TargetKind discriminates the two shapes an AutomationTarget can take.
type TargetKind int

const (
	// TargetWindow routes input to another window handle (the device
	// window that actually processes messages).
	TargetWindow TargetKind = iota + 1

	// TargetVMIndex routes input through the manager console to a
	// numbered virtual machine instance.
	TargetVMIndex
)

// AutomationTarget is the entity that must actually receive input for a
// UI-visible window. The handle->target mapping is session-scoped: a
// rebind/reattach of the emulator invalidates it.
type AutomationTarget struct {
	Kind   TargetKind
	Window WindowHandle // valid when Kind == TargetWindow
	Index  int          // valid when Kind == TargetVMIndex or HasIndex

	// HasIndex marks TargetWindow targets whose console index probe also
	// resolved, so the text engine can address the instance remotely.
	HasIndex bool
}

func (t AutomationTarget) String() string {
	switch t.Kind {
	case TargetWindow:
		if t.HasIndex {
			return fmt.Sprintf("window(%s,vm=%d)", t.Window, t.Index)
		}
		return fmt.Sprintf("window(%s)", t.Window)
	case TargetVMIndex:
		return fmt.Sprintf("vm(%d)", t.Index)
	default:
		return "none"
	}
}

// VMIndex returns the instance index if the target carries one.
func (t AutomationTarget) VMIndex() (int, bool) {
	if t.Kind == TargetVMIndex || t.HasIndex {
		return t.Index, true
	}
	return 0, false
}

// OperationMode selects how GetSimulator interprets a window.
type OperationMode string

const (
	OpModeStandard OperationMode = "standard_window"
	OpModeEmulator OperationMode = "emulator_window"
	OpModeAuto     OperationMode = "auto"
)

// ParseOperationMode maps caller strings onto a known mode, defaulting
// to auto so an unrecognized tag still classifies sensibly.
func ParseOperationMode(s string) OperationMode {
	switch OperationMode(strings.ToLower(strings.TrimSpace(s))) {
	case OpModeStandard:
		return OpModeStandard
	case OpModeEmulator:
		return OpModeEmulator
	default:
		return OpModeAuto
	}
}

// ExecutionMode is an open string tag family. Routing is by prefix:
// "foreground*" uses driver injection, "background*" uses posted
// messages, "emulator_*" keeps emulator routing in background terms.
// Anything unrecognized falls back to the background-standard path.
type ExecutionMode string

const (
	ExecForeground        ExecutionMode = "foreground"
	ExecForegroundDriver  ExecutionMode = "foreground_driver"
	ExecBackground        ExecutionMode = "background"
	ExecBackgroundMessage ExecutionMode = "background_message"
	ExecEmulatorBridge    ExecutionMode = "emulator_bridge"
)

// IsForeground reports whether the tag selects the driver-injection path.
func (m ExecutionMode) IsForeground() bool {
	return strings.HasPrefix(string(m), "foreground")
}

// NormalizeExecutionMode collapses unknown tags to the background path.
func NormalizeExecutionMode(s string) ExecutionMode {
	tag := ExecutionMode(strings.ToLower(strings.TrimSpace(s)))
	switch {
	case strings.HasPrefix(string(tag), "foreground"),
		strings.HasPrefix(string(tag), "background"),
		strings.HasPrefix(string(tag), "emulator_"):
		return tag
	default:
		return ExecBackground
	}
}

// TextInputMode selects target addressing when multiple instances exist.
type TextInputMode string

const (
	// TextModeBroadcastAll sends the same text to every known instance
	// and succeeds if at least one accepted it. Used when driving
	// parallel identical clones.
	TextModeBroadcastAll TextInputMode = "broadcast_all"

	// TextModeIndexed routes to exactly one instance chosen by the
	// caller's window; it fails only if that instance fails.
	TextModeIndexed TextInputMode = "indexed"
)

// ParseTextInputMode defaults to indexed addressing.
func ParseTextInputMode(s string) TextInputMode {
	if TextInputMode(strings.ToLower(strings.TrimSpace(s))) == TextModeBroadcastAll {
		return TextModeBroadcastAll
	}
	return TextModeIndexed
}

// MouseButton names the buttons the message channels understand.
type MouseButton string

const (
	ButtonLeft   MouseButton = "left"
	ButtonRight  MouseButton = "right"
	ButtonMiddle MouseButton = "middle"
)

// ParseMouseButton validates a caller-supplied button name. An unknown
// name is a programmer error: it is reported, never panicked on.
func ParseMouseButton(s string) (MouseButton, error) {
	switch MouseButton(strings.ToLower(strings.TrimSpace(s))) {
	case ButtonLeft, "":
		return ButtonLeft, nil
	case ButtonRight:
		return ButtonRight, nil
	case ButtonMiddle:
		return ButtonMiddle, nil
	default:
		return "", fmt.Errorf("unsupported mouse button %q", s)
	}
}

// Point is a coordinate pair in the target's client space (or screen
// space once it reaches the driver channel, which never re-transforms).
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// TextInputAttemptResult records one strategy attempt of a SendText call.
// The list of attempts forms a diagnostic audit trail; it is never
// persisted.
type TextInputAttemptResult struct {
	Strategy   string `json:"strategy"`
	Success    bool   `json:"success"`
	Diagnostic string `json:"diagnostic,omitempty"`
}

// Simulator is the unified input surface every concrete simulator
// implements. All methods return plain success; operational failures are
// logged, converted to false, and never propagate as panics or errors
// across this boundary.
//
// SendText can take multiple seconds in the worst case: the text engine
// tries up to five delivery strategies and each remote invocation has
// its own bounded timeout.
type Simulator interface {
	Click(x, y int, button string) bool
	DoubleClick(x, y int, button string) bool
	Drag(x1, y1, x2, y2 int, durationMs int) bool
	DragPath(points []Point, durationMs int) bool
	Scroll(x, y int, delta int) bool
	SendKey(key interface{}) bool
	SendKeyDown(key interface{}) bool
	SendKeyUp(key interface{}) bool
	SendText(text string) bool
	SendKeyCombination(keys ...interface{}) bool

	// Handle returns the window this simulator was built for.
	Handle() WindowHandle

	// Category returns the classification the simulator was built with.
	Category() WindowCategory
}
