//go:build !windows

package main

import "fmt"

// The automation core is Windows-only. These stubs keep the package
// buildable for development and CI on other platforms; every call
// reports the window as gone, which the callers already handle.

var errNotWindows = fmt.Errorf("native window input requires windows")

type stubAPI struct{}

func newPlatformAPI() winAPI { return stubAPI{} }

func (stubAPI) IsWindow(WindowHandle) bool                  { return false }
func (stubAPI) ClassName(WindowHandle) (string, error)      { return "", errNotWindows }
func (stubAPI) WindowText(WindowHandle) (string, error)     { return "", errNotWindows }
func (stubAPI) Parent(WindowHandle) WindowHandle            { return 0 }
func (stubAPI) PostMessage(WindowHandle, uint32, uintptr, uintptr) error {
	return errNotWindows
}
func (stubAPI) SendMessage(WindowHandle, uint32, uintptr, uintptr) error {
	return errNotWindows
}
func (stubAPI) ClientToScreen(WindowHandle, int, int) (int, int, error) {
	return 0, 0, errNotWindows
}
func (stubAPI) ScreenSize() (int, int)                 { return 0, 0 }
func (stubAPI) TopLevelWindows() ([]WindowHandle, error) { return nil, errNotWindows }

type stubInjector struct{}

func newPlatformInjector() driverInjector { return stubInjector{} }

func (stubInjector) MouseMove(int, int) error               { return errNotWindows }
func (stubInjector) MouseDown(int, int, MouseButton) error  { return errNotWindows }
func (stubInjector) MouseUp(int, int, MouseButton) error    { return errNotWindows }
func (stubInjector) Wheel(int, int, int) error              { return errNotWindows }
func (stubInjector) KeyDown(KeyCode) error                  { return errNotWindows }
func (stubInjector) KeyUp(KeyCode) error                    { return errNotWindows }
func (stubInjector) ScreenBounds() (int, int)               { return 0, 0 }
