package main

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// Shared fakes for the input core tests: a scriptable desktop and a
// scriptable console bridge.

type fakeWindow struct {
	class  string
	title  string
	parent WindowHandle
	alive  bool
}

type recordedMsg struct {
	h      WindowHandle
	msg    uint32
	wparam uintptr
	lparam uintptr
}

type fakeAPI struct {
	mu      sync.Mutex
	windows map[WindowHandle]*fakeWindow

	posted []recordedMsg
	sent   []recordedMsg

	// postFailAt fails exactly the Nth PostMessage call when > 0,
	// modeling a transient delivery failure.
	postFailAt int
	postCount  int

	screenW, screenH int
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		windows: make(map[WindowHandle]*fakeWindow),
		screenW: 1920,
		screenH: 1080,
	}
}

func (f *fakeAPI) addWindow(h WindowHandle, class, title string, parent WindowHandle) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.windows[h] = &fakeWindow{class: class, title: title, parent: parent, alive: true}
}

func (f *fakeAPI) killWindow(h WindowHandle) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if w, ok := f.windows[h]; ok {
		w.alive = false
	}
}

func (f *fakeAPI) IsWindow(h WindowHandle) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	w, ok := f.windows[h]
	return ok && w.alive
}

func (f *fakeAPI) ClassName(h WindowHandle) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	w, ok := f.windows[h]
	if !ok || !w.alive {
		return "", fmt.Errorf("window %s not found", h)
	}
	return w.class, nil
}

func (f *fakeAPI) WindowText(h WindowHandle) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	w, ok := f.windows[h]
	if !ok || !w.alive {
		return "", fmt.Errorf("window %s not found", h)
	}
	return w.title, nil
}

func (f *fakeAPI) Parent(h WindowHandle) WindowHandle {
	f.mu.Lock()
	defer f.mu.Unlock()
	if w, ok := f.windows[h]; ok {
		return w.parent
	}
	return 0
}

func (f *fakeAPI) PostMessage(h WindowHandle, msg uint32, wparam, lparam uintptr) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.postCount++
	if f.postFailAt > 0 && f.postCount == f.postFailAt {
		return fmt.Errorf("post failed")
	}
	w, ok := f.windows[h]
	if !ok || !w.alive {
		return fmt.Errorf("window %s not found", h)
	}
	f.posted = append(f.posted, recordedMsg{h: h, msg: msg, wparam: wparam, lparam: lparam})
	return nil
}

func (f *fakeAPI) SendMessage(h WindowHandle, msg uint32, wparam, lparam uintptr) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	w, ok := f.windows[h]
	if !ok || !w.alive {
		return fmt.Errorf("window %s not found", h)
	}
	f.sent = append(f.sent, recordedMsg{h: h, msg: msg, wparam: wparam, lparam: lparam})
	return nil
}

func (f *fakeAPI) ClientToScreen(h WindowHandle, x, y int) (int, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	w, ok := f.windows[h]
	if !ok || !w.alive {
		return 0, 0, fmt.Errorf("window %s not found", h)
	}
	return x, y, nil
}

func (f *fakeAPI) ScreenSize() (int, int) {
	return f.screenW, f.screenH
}

func (f *fakeAPI) TopLevelWindows() ([]WindowHandle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []WindowHandle
	for h, w := range f.windows {
		if w.alive && w.parent == 0 {
			out = append(out, h)
		}
	}
	return out, nil
}

func (f *fakeAPI) postedMessages() []recordedMsg {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]recordedMsg, len(f.posted))
	copy(out, f.posted)
	return out
}

// ---- console bridge fake ----

type shellCall struct {
	index int
	cmd   string
}

// shellRule matches a command prefix (optionally for one instance index)
// and scripts its response.
type shellRule struct {
	index  int // -1 matches any instance
	prefix string
	out    string
	err    error
}

type fakeBridge struct {
	mu        sync.Mutex
	instances []InstanceInfo
	listErr   error

	listCalls  int
	probeCalls int
	shellCalls []shellCall

	// rules are checked in order; first prefix match wins. Unmatched
	// commands succeed with empty output.
	rules []shellRule
}

func newFakeBridge(instances ...InstanceInfo) *fakeBridge {
	return &fakeBridge{instances: instances}
}

func (f *fakeBridge) addRule(prefix, out string, err error) {
	f.addRuleFor(-1, prefix, out, err)
}

func (f *fakeBridge) addRuleFor(index int, prefix, out string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rules = append(f.rules, shellRule{index: index, prefix: prefix, out: out, err: err})
}

func (f *fakeBridge) ListInstances(ctx context.Context) ([]InstanceInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]InstanceInfo, len(f.instances))
	copy(out, f.instances)
	return out, nil
}

func (f *fakeBridge) IndexForWindow(ctx context.Context, h WindowHandle) (int, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.probeCalls++
	if f.listErr != nil {
		return 0, false
	}
	for _, inst := range f.instances {
		if inst.MainWindow == h || inst.RenderWindow == h {
			return inst.Index, true
		}
	}
	return 0, false
}

func (f *fakeBridge) Shortcut(ctx context.Context, index int, cmd ShortcutCommand) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.shellCalls = append(f.shellCalls, shellCall{index: index, cmd: string(cmd)})
	return nil
}

func (f *fakeBridge) Shell(ctx context.Context, index int, shellCmd string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.shellCalls = append(f.shellCalls, shellCall{index: index, cmd: shellCmd})
	for _, r := range f.rules {
		if r.index >= 0 && r.index != index {
			continue
		}
		if strings.HasPrefix(shellCmd, r.prefix) {
			return r.out, r.err
		}
	}
	return "", nil
}

func (f *fakeBridge) commands() []shellCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]shellCall, len(f.shellCalls))
	copy(out, f.shellCalls)
	return out
}

// ---- driver injector fake ----

type injectedEvent struct {
	kind  string
	x, y  int
	b     MouseButton
	kc    KeyCode
	delta int
}

type fakeInjector struct {
	mu     sync.Mutex
	events []injectedEvent

	failMoveAfter int
	moveCount     int

	screenW, screenH int
}

func newFakeInjector() *fakeInjector {
	return &fakeInjector{screenW: 1920, screenH: 1080}
}

func (f *fakeInjector) MouseMove(x, y int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.moveCount++
	if f.failMoveAfter > 0 && f.moveCount >= f.failMoveAfter {
		return fmt.Errorf("move failed")
	}
	f.events = append(f.events, injectedEvent{kind: "move", x: x, y: y})
	return nil
}

func (f *fakeInjector) MouseDown(x, y int, b MouseButton) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, injectedEvent{kind: "down", x: x, y: y, b: b})
	return nil
}

func (f *fakeInjector) MouseUp(x, y int, b MouseButton) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, injectedEvent{kind: "up", x: x, y: y, b: b})
	return nil
}

func (f *fakeInjector) Wheel(x, y int, delta int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, injectedEvent{kind: "wheel", x: x, y: y, delta: delta})
	return nil
}

func (f *fakeInjector) KeyDown(kc KeyCode) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, injectedEvent{kind: "keydown", kc: kc})
	return nil
}

func (f *fakeInjector) KeyUp(kc KeyCode) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, injectedEvent{kind: "keyup", kc: kc})
	return nil
}

func (f *fakeInjector) ScreenBounds() (int, int) {
	return f.screenW, f.screenH
}

func (f *fakeInjector) recorded() []injectedEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]injectedEvent, len(f.events))
	copy(out, f.events)
	return out
}
