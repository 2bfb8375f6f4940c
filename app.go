package main

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"Marionette/pkg/types"
)

const appVersion = "0.4.2"

// App wires the input core together and is the surface every outer
// layer (CLI, MCP) talks to. All window-facing methods take raw uint64
// handles so callers never depend on internal handle types.
type App struct {
	settings *SettingsStore

	api      winAPI
	injector driverInjector
	bridge   managerBridge

	classifier *WindowClassifier
	resolver   *TargetResolver
	keyboard   *KeyboardManager
	engine     *TextEngine
	registry   *SimulatorRegistry
	session    *SessionCoordinator
	lister     *WindowLister
}

// NewApp builds the core from persisted settings. The console bridge is
// optional: without a manager binary the app still drives plain windows,
// emulator resolution just never succeeds.
func NewApp(store *SettingsStore) (*App, error) {
	return NewAppWithConfig(store, store.Load())
}

// NewAppWithConfig builds the core from an explicit config, letting the
// CLI apply session-only overrides without persisting them.
func NewAppWithConfig(store *SettingsStore, cfg Settings) (*App, error) {
	api := newPlatformAPI()
	injector := newPlatformInjector()

	var bridge managerBridge
	managerPath := cfg.ManagerPath
	if managerPath == "" {
		if found, err := LocateManagerBinary(); err == nil {
			managerPath = found
		} else {
			LogWarn("app").Err(err).Msg("no manager console found, emulator routing disabled")
		}
	}
	if managerPath != "" {
		cli, err := NewManagerCLI(managerPath)
		if err != nil {
			return nil, fmt.Errorf("manager console: %w", err)
		}
		bridge = cli
		LogInfo("app").Str("path", managerPath).Msg("manager console bound")
	} else {
		bridge = unavailableBridge{}
	}

	classifier := NewWindowClassifier(api)
	resolver := NewTargetResolver(api, bridge)
	keyboard := NewKeyboardManager(bridge)
	engine := NewTextEngine(bridge, keyboard)
	registry := NewSimulatorRegistry(api, injector, classifier, resolver, bridge, engine)
	session := NewSessionCoordinator(resolver, registry, keyboard)
	lister := NewWindowLister(api, classifier, resolver)

	app := &App{
		settings:   store,
		api:        api,
		injector:   injector,
		bridge:     bridge,
		classifier: classifier,
		resolver:   resolver,
		keyboard:   keyboard,
		engine:     engine,
		registry:   registry,
		session:    session,
		lister:     lister,
	}
	app.applySettings(cfg, managerPath)
	return app, nil
}

func (a *App) applySettings(cfg Settings, managerPath string) {
	if cfg.OperationMode != "" {
		a.registry.SetDefaultOperationMode(ParseOperationMode(cfg.OperationMode))
	}
	if cfg.ExecutionMode != "" {
		a.registry.SetDefaultExecutionMode(NormalizeExecutionMode(cfg.ExecutionMode))
	}
	if cfg.TextInputMode != "" {
		a.registry.SetTextInputMode(ParseTextInputMode(cfg.TextInputMode))
	}

	watchDir := cfg.ManagerConfigDir
	if watchDir == "" && managerPath != "" {
		// The consoles keep their instance config next to the binary.
		watchDir = filepath.Join(filepath.Dir(managerPath), "vms", "config")
	}
	if err := a.session.WatchManagerConfig(watchDir); err != nil {
		LogWarn("app").Str("dir", watchDir).Err(err).Msg("rebind watcher failed to start")
	}
}

// Close releases background resources.
func (a *App) Close() {
	a.session.Close()
}

// GetAppVersion returns the build version string.
func (a *App) GetAppVersion() string { return appVersion }

// ---- window / instance enumeration ----

func (a *App) ListTargetWindows() ([]types.WindowSummary, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	infos, err := a.lister.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]types.WindowSummary, len(infos))
	for i, w := range infos {
		out[i] = types.WindowSummary{
			Handle:   uint64(w.Handle),
			Class:    w.Class,
			Title:    w.Title,
			Category: w.Category,
			Index:    w.Index,
			HasIndex: w.HasIndex,
		}
	}
	return out, nil
}

func (a *App) ListInstances() ([]types.InstanceSummary, error) {
	ctx, cancel := context.WithTimeout(context.Background(), managerTimeout)
	defer cancel()

	instances, err := a.bridge.ListInstances(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]types.InstanceSummary, len(instances))
	for i, inst := range instances {
		out[i] = types.InstanceSummary{
			Index:   inst.Index,
			Name:    inst.Name,
			Running: inst.Running,
			ADBPort: inst.ADBPort,
		}
	}
	return out, nil
}

// ---- input operations ----

func (a *App) simulator(handle uint64) (Simulator, error) {
	sim := a.registry.GetSimulator(WindowHandle(handle))
	if sim == nil {
		return nil, fmt.Errorf("window 0x%X is not available", handle)
	}
	return sim, nil
}

func (a *App) Click(handle uint64, x, y int, button string) error {
	sim, err := a.simulator(handle)
	if err != nil {
		return err
	}
	if !sim.Click(x, y, button) {
		return fmt.Errorf("click at (%d,%d) failed", x, y)
	}
	return nil
}

func (a *App) DoubleClick(handle uint64, x, y int, button string) error {
	sim, err := a.simulator(handle)
	if err != nil {
		return err
	}
	if !sim.DoubleClick(x, y, button) {
		return fmt.Errorf("double click at (%d,%d) failed", x, y)
	}
	return nil
}

func (a *App) Drag(handle uint64, x1, y1, x2, y2, durationMs int) error {
	sim, err := a.simulator(handle)
	if err != nil {
		return err
	}
	if !sim.Drag(x1, y1, x2, y2, durationMs) {
		return fmt.Errorf("drag (%d,%d)->(%d,%d) failed", x1, y1, x2, y2)
	}
	return nil
}

func (a *App) Scroll(handle uint64, x, y, delta int) error {
	sim, err := a.simulator(handle)
	if err != nil {
		return err
	}
	if !sim.Scroll(x, y, delta) {
		return fmt.Errorf("scroll at (%d,%d) failed", x, y)
	}
	return nil
}

func (a *App) SendKey(handle uint64, key string) error {
	sim, err := a.simulator(handle)
	if err != nil {
		return err
	}
	if !sim.SendKey(key) {
		return fmt.Errorf("key %q failed", key)
	}
	return nil
}

func (a *App) SendKeyCombination(handle uint64, keys []string) error {
	sim, err := a.simulator(handle)
	if err != nil {
		return err
	}
	args := make([]interface{}, len(keys))
	for i, k := range keys {
		args[i] = k
	}
	if !sim.SendKeyCombination(args...) {
		return fmt.Errorf("key combination %v failed", keys)
	}
	return nil
}

func (a *App) SendText(handle uint64, text string) error {
	sim, err := a.simulator(handle)
	if err != nil {
		return err
	}
	if !sim.SendText(text) {
		return fmt.Errorf("text delivery failed")
	}
	return nil
}

// SendTextToInstance routes text straight to an instance index through
// the strategy chain, returning the full audit trail.
func (a *App) SendTextToInstance(index int, text string) (types.TextResult, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	ok, trail := e2trail(a.engine.SendText(ctx, index, text))
	return types.TextResult{Success: ok, Attempts: trail}, nil
}

func e2trail(ok bool, attempts []TextInputAttemptResult) (bool, []types.TextAttempt) {
	out := make([]types.TextAttempt, len(attempts))
	for i, at := range attempts {
		out[i] = types.TextAttempt{
			Strategy:   at.Strategy,
			Success:    at.Success,
			Diagnostic: at.Diagnostic,
		}
	}
	return ok, out
}

// Shortcut fires one of the console's enumerated commands.
func (a *App) Shortcut(index int, cmd string) error {
	sc := ShortcutCommand(cmd)
	if !ValidShortcut(sc) {
		return fmt.Errorf("unknown shortcut %q", cmd)
	}
	ctx, cancel := context.WithTimeout(context.Background(), managerTimeout)
	defer cancel()
	return a.bridge.Shortcut(ctx, index, sc)
}

// ---- mode control ----

func (a *App) SetOperationMode(mode string) error {
	a.registry.SetDefaultOperationMode(ParseOperationMode(mode))
	return a.persistMode(func(s *Settings) { s.OperationMode = mode })
}

func (a *App) SetExecutionMode(mode string) error {
	a.registry.SetDefaultExecutionMode(NormalizeExecutionMode(mode))
	return a.persistMode(func(s *Settings) { s.ExecutionMode = mode })
}

func (a *App) SetTextInputMode(mode string) error {
	a.registry.SetTextInputMode(ParseTextInputMode(mode))
	return a.persistMode(func(s *Settings) { s.TextInputMode = mode })
}

func (a *App) persistMode(mutate func(*Settings)) error {
	cfg := a.settings.Current()
	mutate(&cfg)
	return a.settings.Save(cfg)
}

// RebindSession forces a new binding session.
func (a *App) RebindSession() {
	a.session.Rebind("requested by caller")
}

// unavailableBridge stands in when no console binary exists; every call
// fails with the same explanation.
type unavailableBridge struct{}

func (unavailableBridge) ListInstances(context.Context) ([]InstanceInfo, error) {
	return nil, fmt.Errorf("manager console is not configured")
}

func (unavailableBridge) IndexForWindow(context.Context, WindowHandle) (int, bool) {
	return 0, false
}

func (unavailableBridge) Shortcut(context.Context, int, ShortcutCommand) error {
	return fmt.Errorf("manager console is not configured")
}

func (unavailableBridge) Shell(context.Context, int, string) (string, error) {
	return "", fmt.Errorf("manager console is not configured")
}
