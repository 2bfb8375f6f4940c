package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// The emulator vendor ships a console binary that addresses instances by
// index. Its flag spelling is a fixed external contract:
//
//	<manager> adb -v <index> -c <command>            shortcut commands
//	<manager> adb -v <index> -c "shell <raw shell>"  generic shell
//	<manager> info -v all                            instance enumeration
//
// Every invocation is bounded by a timeout and runs without a visible
// console window. Failures are reported, never thrown: the caller or the
// text engine decides what happens next.

const managerTimeout = 3 * time.Second

// ShortcutCommand is the narrow command set the console accepts directly.
// It is enumerated on purpose; arbitrary strings go through Shell.
type ShortcutCommand string

const (
	ShortcutHome       ShortcutCommand = "go_home"
	ShortcutBack       ShortcutCommand = "go_back"
	ShortcutMenu       ShortcutCommand = "go_menu"
	ShortcutVolumeUp   ShortcutCommand = "volume_up"
	ShortcutVolumeDown ShortcutCommand = "volume_down"
)

// ValidShortcut reports whether the command is part of the fixed set.
func ValidShortcut(cmd ShortcutCommand) bool {
	switch cmd {
	case ShortcutHome, ShortcutBack, ShortcutMenu, ShortcutVolumeUp, ShortcutVolumeDown:
		return true
	}
	return false
}

// InstanceInfo is one row of the console's enumeration.
type InstanceInfo struct {
	Index        int          `json:"index"`
	Name         string       `json:"name"`
	MainWindow   WindowHandle `json:"mainWindow"`
	RenderWindow WindowHandle `json:"renderWindow"`
	Running      bool         `json:"running"`
	ADBPort      int          `json:"adbPort"`
}

// managerBridge abstracts the console binary so the resolver and the
// text engine can be exercised against a fake in tests.
type managerBridge interface {
	// ListInstances enumerates known instances. The enumeration can be
	// transiently unavailable or racy during emulator startup.
	ListInstances(ctx context.Context) ([]InstanceInfo, error)

	// IndexForWindow is the round-trip liveness probe: it succeeds only
	// for a window the console currently answers for.
	IndexForWindow(ctx context.Context, h WindowHandle) (int, bool)

	// Shortcut runs one of the enumerated console commands.
	Shortcut(ctx context.Context, index int, cmd ShortcutCommand) error

	// Shell runs a raw shell command inside the instance.
	Shell(ctx context.Context, index int, shellCmd string) (string, error)
}

// managerCLI is the real bridge: one process spawn per call, no
// persistent connection. The caching layers above exist to amortize
// exactly this spawn cost.
type managerCLI struct {
	path string
}

// NewManagerCLI builds a bridge over the console binary at path. An
// empty path defers discovery to LocateManagerBinary.
func NewManagerCLI(path string) (*managerCLI, error) {
	if path == "" {
		var err error
		path, err = LocateManagerBinary()
		if err != nil {
			return nil, err
		}
	}
	return &managerCLI{path: path}, nil
}

// LocateManagerBinary finds the console binary: PATH first, then the
// vendor's usual install locations.
func LocateManagerBinary() (string, error) {
	for _, name := range []string{"MuMuManager.exe", "MuMuManager", "ldconsole.exe"} {
		if p, err := exec.LookPath(name); err == nil {
			return p, nil
		}
	}
	programFiles := os.Getenv("ProgramFiles")
	if programFiles == "" {
		programFiles = `C:\Program Files`
	}
	candidates := []string{
		filepath.Join(programFiles, "Netease", "MuMuPlayer-12.0", "shell", "MuMuManager.exe"),
		filepath.Join(programFiles, "Netease", "MuMu Player 12", "shell", "MuMuManager.exe"),
		`C:\LDPlayer\LDPlayer9\ldconsole.exe`,
	}
	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			return c, nil
		}
	}
	return "", fmt.Errorf("emulator manager binary not found")
}

// newManagerCommand builds the exec.Cmd with a clean environment (proxy
// variables confuse the console's own adb) and no visible window.
func (m *managerCLI) newManagerCommand(ctx context.Context, args ...string) *exec.Cmd {
	cmd := exec.CommandContext(ctx, m.path, args...)

	env := os.Environ()
	newEnv := make([]string, 0, len(env))
	proxyVars := []string{"HTTP_PROXY", "HTTPS_PROXY", "ALL_PROXY", "NO_PROXY", "http_proxy", "https_proxy", "all_proxy", "no_proxy"}
	for _, e := range env {
		isProxy := false
		for _, v := range proxyVars {
			if strings.HasPrefix(e, v+"=") {
				isProxy = true
				break
			}
		}
		if !isProxy {
			newEnv = append(newEnv, e)
		}
	}
	cmd.Env = newEnv
	hideConsoleWindow(cmd)
	return cmd
}

func (m *managerCLI) run(ctx context.Context, args ...string) (string, error) {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, managerTimeout)
		defer cancel()
	}
	cmd := m.newManagerCommand(ctx, args...)
	output, err := cmd.CombinedOutput()
	res := strings.TrimSpace(string(output))
	if err != nil {
		// Log the command identity only; output can contain instance
		// names and paths that do not belong in shared logs.
		LogWarn("manager").
			Str("binary", filepath.Base(m.path)).
			Str("args", strings.Join(args, " ")).
			Err(err).
			Msg("console command failed")
		return res, fmt.Errorf("manager %s: %w", args[0], err)
	}
	return res, nil
}

// ListInstances parses `info -v all`. The console emits a JSON object
// keyed by index for multiple instances, or a single flat object when
// only one instance exists; gjson handles both shapes without schema
// structs.
func (m *managerCLI) ListInstances(ctx context.Context) ([]InstanceInfo, error) {
	out, err := m.run(ctx, "info", "-v", "all")
	if err != nil {
		return nil, err
	}
	parsed := gjson.Parse(out)
	if !parsed.IsObject() {
		return nil, fmt.Errorf("manager info: unexpected output shape")
	}

	var instances []InstanceInfo
	if parsed.Get("index").Exists() || parsed.Get("name").Exists() {
		// Single-instance flat shape.
		if inst, ok := parseInstance(parsed, 0); ok {
			instances = append(instances, inst)
		}
		return instances, nil
	}

	parsed.ForEach(func(key, value gjson.Result) bool {
		idx, convErr := strconv.Atoi(key.String())
		if convErr != nil {
			return true
		}
		if inst, ok := parseInstance(value, idx); ok {
			instances = append(instances, inst)
		}
		return true
	})
	return instances, nil
}

func parseInstance(v gjson.Result, fallbackIndex int) (InstanceInfo, bool) {
	if !v.IsObject() {
		return InstanceInfo{}, false
	}
	inst := InstanceInfo{
		Index:   fallbackIndex,
		Name:    v.Get("name").String(),
		Running: v.Get("is_process_started").Bool(),
		ADBPort: int(v.Get("adb_port").Int()),
	}
	if iv := v.Get("index"); iv.Exists() {
		if n, err := strconv.Atoi(iv.String()); err == nil {
			inst.Index = n
		}
	}
	inst.MainWindow = parseHexHandle(v.Get("main_wnd").String())
	inst.RenderWindow = parseHexHandle(v.Get("render_wnd").String())
	return inst, true
}

// parseHexHandle accepts "0x1234AB" or bare decimal; zero on garbage.
func parseHexHandle(s string) WindowHandle {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	base := 10
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		s = s[2:]
		base = 16
	}
	n, err := strconv.ParseUint(s, base, 64)
	if err != nil {
		return 0
	}
	return WindowHandle(uintptr(n))
}

// IndexForWindow matches the handle against the live enumeration. Both
// main and render windows answer, since either may be the handle the UI
// layer saw first.
func (m *managerCLI) IndexForWindow(ctx context.Context, h WindowHandle) (int, bool) {
	if h.IsZero() {
		return 0, false
	}
	instances, err := m.ListInstances(ctx)
	if err != nil {
		return 0, false
	}
	for _, inst := range instances {
		if inst.MainWindow == h || inst.RenderWindow == h {
			return inst.Index, true
		}
	}
	return 0, false
}

func (m *managerCLI) Shortcut(ctx context.Context, index int, cmd ShortcutCommand) error {
	if index < 0 {
		return fmt.Errorf("invalid instance index %d", index)
	}
	if !ValidShortcut(cmd) {
		return fmt.Errorf("unknown shortcut command %q", cmd)
	}
	_, err := m.run(ctx, "adb", "-v", strconv.Itoa(index), "-c", string(cmd))
	return err
}

func (m *managerCLI) Shell(ctx context.Context, index int, shellCmd string) (string, error) {
	if index < 0 {
		return "", fmt.Errorf("invalid instance index %d", index)
	}
	shellCmd = strings.TrimSpace(shellCmd)
	if shellCmd == "" {
		return "", nil
	}
	return m.run(ctx, "adb", "-v", strconv.Itoa(index), "-c", "shell "+shellCmd)
}

// managerArgs builds the argv tail for a generic shell call. Split out
// so tests can pin the exact external contract without spawning.
func managerArgs(index int, shellCmd string) []string {
	return []string{"adb", "-v", strconv.Itoa(index), "-c", "shell " + shellCmd}
}
