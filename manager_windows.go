//go:build windows

package main

import (
	"os/exec"
	"syscall"
)

// hideConsoleWindow keeps console binary invocations from flashing a
// window on every input event.
func hideConsoleWindow(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{HideWindow: true}
}
