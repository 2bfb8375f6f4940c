package mcp

import (
	"sync"
)

// MockCall records a method call for verification
type MockCall struct {
	Method string
	Args   []interface{}
}

// MockMarionetteApp is a mock implementation of MarionetteApp for testing
type MockMarionetteApp struct {
	mu    sync.Mutex
	Calls []MockCall

	ListTargetWindowsResult []WindowSummary
	ListTargetWindowsError  error
	ListInstancesResult     []InstanceSummary
	ListInstancesError      error

	ClickError               error
	DoubleClickError         error
	DragError                error
	ScrollError              error
	SendKeyError             error
	SendKeyCombinationError  error
	SendTextError            error
	SendTextToInstanceResult TextResult
	SendTextToInstanceError  error
	ShortcutError            error

	SetOperationModeError error
	SetExecutionModeError error
	SetTextInputModeError error

	Version string
}

func NewMockApp() *MockMarionetteApp {
	return &MockMarionetteApp{Version: "test"}
}

func (m *MockMarionetteApp) record(method string, args ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, MockCall{Method: method, Args: args})
}

// CallCount returns how many times a method was called
func (m *MockMarionetteApp) CallCount(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.Calls {
		if c.Method == method {
			n++
		}
	}
	return n
}

// LastCall returns the most recent call to a method, or nil
func (m *MockMarionetteApp) LastCall(method string) *MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.Calls) - 1; i >= 0; i-- {
		if m.Calls[i].Method == method {
			c := m.Calls[i]
			return &c
		}
	}
	return nil
}

func (m *MockMarionetteApp) ListTargetWindows() ([]WindowSummary, error) {
	m.record("ListTargetWindows")
	return m.ListTargetWindowsResult, m.ListTargetWindowsError
}

func (m *MockMarionetteApp) ListInstances() ([]InstanceSummary, error) {
	m.record("ListInstances")
	return m.ListInstancesResult, m.ListInstancesError
}

func (m *MockMarionetteApp) Click(handle uint64, x, y int, button string) error {
	m.record("Click", handle, x, y, button)
	return m.ClickError
}

func (m *MockMarionetteApp) DoubleClick(handle uint64, x, y int, button string) error {
	m.record("DoubleClick", handle, x, y, button)
	return m.DoubleClickError
}

func (m *MockMarionetteApp) Drag(handle uint64, x1, y1, x2, y2, durationMs int) error {
	m.record("Drag", handle, x1, y1, x2, y2, durationMs)
	return m.DragError
}

func (m *MockMarionetteApp) Scroll(handle uint64, x, y, delta int) error {
	m.record("Scroll", handle, x, y, delta)
	return m.ScrollError
}

func (m *MockMarionetteApp) SendKey(handle uint64, key string) error {
	m.record("SendKey", handle, key)
	return m.SendKeyError
}

func (m *MockMarionetteApp) SendKeyCombination(handle uint64, keys []string) error {
	m.record("SendKeyCombination", handle, keys)
	return m.SendKeyCombinationError
}

func (m *MockMarionetteApp) SendText(handle uint64, text string) error {
	m.record("SendText", handle, text)
	return m.SendTextError
}

func (m *MockMarionetteApp) SendTextToInstance(index int, text string) (TextResult, error) {
	m.record("SendTextToInstance", index, text)
	return m.SendTextToInstanceResult, m.SendTextToInstanceError
}

func (m *MockMarionetteApp) Shortcut(index int, cmd string) error {
	m.record("Shortcut", index, cmd)
	return m.ShortcutError
}

func (m *MockMarionetteApp) SetOperationMode(mode string) error {
	m.record("SetOperationMode", mode)
	return m.SetOperationModeError
}

func (m *MockMarionetteApp) SetExecutionMode(mode string) error {
	m.record("SetExecutionMode", mode)
	return m.SetExecutionModeError
}

func (m *MockMarionetteApp) SetTextInputMode(mode string) error {
	m.record("SetTextInputMode", mode)
	return m.SetTextInputModeError
}

func (m *MockMarionetteApp) RebindSession() {
	m.record("RebindSession")
}

func (m *MockMarionetteApp) GetAppVersion() string {
	m.record("GetAppVersion")
	if m.Version == "" {
		return "test"
	}
	return m.Version
}
