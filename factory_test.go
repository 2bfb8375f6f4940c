package main

import "testing"

func newTestRegistry(api *fakeAPI, bridge *fakeBridge) *SimulatorRegistry {
	classifier := NewWindowClassifier(api)
	resolver := NewTargetResolver(api, bridge)
	engine := NewTextEngine(bridge, NewKeyboardManager(bridge))
	return NewSimulatorRegistry(api, newFakeInjector(), classifier, resolver, bridge, engine)
}

func TestGetSimulatorCachesPerModePair(t *testing.T) {
	api := newFakeAPI()
	api.addWindow(0x10, "Notepad", "notes", 0)
	r := newTestRegistry(api, newFakeBridge())

	a := r.GetSimulator(0x10)
	if a == nil {
		t.Fatal("GetSimulator returned nil for a live window")
	}
	if b := r.GetSimulator(0x10); b != a {
		t.Error("second fetch built a new facade instead of reusing the cache")
	}

	// Same window under another execution mode is separate wiring.
	c := r.GetSimulatorWith(0x10, OpModeAuto, ExecForeground)
	if c == nil || c == a {
		t.Error("foreground fetch shared the background facade")
	}
	if got := r.cachedCount(); got != 2 {
		t.Errorf("cache holds %d entries, want 2", got)
	}
}

func TestGetSimulatorDeadWindowIsNil(t *testing.T) {
	api := newFakeAPI()
	api.addWindow(0x10, "Notepad", "notes", 0)
	r := newTestRegistry(api, newFakeBridge())

	if r.GetSimulator(0x10) == nil {
		t.Fatal("GetSimulator returned nil for a live window")
	}
	api.killWindow(0x10)

	if sim := r.GetSimulator(0x10); sim != nil {
		t.Error("GetSimulator returned a facade for a dead window")
	}
	if got := r.cachedCount(); got != 0 {
		t.Errorf("dead window left %d cache entries behind", got)
	}
}

func TestDefaultModeChangeFlushesCache(t *testing.T) {
	api := newFakeAPI()
	api.addWindow(0x10, "Notepad", "notes", 0)
	r := newTestRegistry(api, newFakeBridge())

	if r.GetSimulator(0x10) == nil {
		t.Fatal("GetSimulator returned nil")
	}
	r.SetDefaultExecutionMode(ExecForeground)
	if got := r.cachedCount(); got != 0 {
		t.Errorf("cache holds %d entries after default change, want 0", got)
	}
}

func TestUnknownExecModeDegradesToBackground(t *testing.T) {
	api := newFakeAPI()
	api.addWindow(0x10, "Notepad", "notes", 0)
	r := newTestRegistry(api, newFakeBridge())

	sim := r.GetSimulatorWith(0x10, OpModeAuto, "mystery_mode")
	if sim == nil {
		t.Fatal("GetSimulatorWith returned nil")
	}
	mc, ok := sim.(*windowSimulator).channel.(*messageChannel)
	if !ok {
		t.Fatalf("channel is %T, want posted-message channel", sim.(*windowSimulator).channel)
	}
	if mc.blocking || mc.moveNotify {
		t.Errorf("plain window channel = blocking=%v moveNotify=%v, want neither", mc.blocking, mc.moveNotify)
	}
}

func TestForegroundUsesDriverChannel(t *testing.T) {
	api := newFakeAPI()
	api.addWindow(0x10, "Notepad", "notes", 0)
	r := newTestRegistry(api, newFakeBridge())

	sim := r.GetSimulatorWith(0x10, OpModeAuto, ExecForeground)
	if sim == nil {
		t.Fatal("GetSimulatorWith returned nil")
	}
	if _, ok := sim.(*windowSimulator).channel.(*driverChannel); !ok {
		t.Errorf("foreground channel is %T, want driver channel", sim.(*windowSimulator).channel)
	}
}

func TestFamilyAWiringRedirectsDelivery(t *testing.T) {
	api, bridge := familyAWorld()
	r := newTestRegistry(api, bridge)

	sim := r.GetSimulator(0x102)
	if sim == nil {
		t.Fatal("GetSimulator returned nil")
	}
	ws := sim.(*windowSimulator)
	if ws.Category() != CategoryEmulatorFamilyA {
		t.Errorf("category = %v", ws.Category())
	}

	mc, ok := ws.channel.(*messageChannel)
	if !ok {
		t.Fatalf("channel is %T", ws.channel)
	}
	// Input goes to the resolved device window, not the handle the
	// caller saw, and clicks carry a hover move.
	if mc.handle != 0x100 || !mc.moveNotify || mc.blocking {
		t.Errorf("channel = handle=%s moveNotify=%v blocking=%v, want 0x100 true false",
			mc.handle, mc.moveNotify, mc.blocking)
	}
	if ws.shell == nil || ws.shell.index != 2 {
		t.Errorf("shell bridge not wired to instance 2: %+v", ws.shell)
	}
	if ws.engine == nil {
		t.Error("text engine not wired for a resolved emulator window")
	}
}

func TestFamilyBUsesBlockingChannel(t *testing.T) {
	api := newFakeAPI()
	api.addWindow(0x300, "Qt5QWindowIcon", "MuMu Player 12", 0)
	api.addWindow(0x301, "nemuwin", "nemudisplay", 0x300)
	bridge := newFakeBridge(InstanceInfo{Index: 1, MainWindow: 0x300, RenderWindow: 0x301, Running: true})
	r := newTestRegistry(api, bridge)

	sim := r.GetSimulator(0x301)
	if sim == nil {
		t.Fatal("GetSimulator returned nil")
	}
	mc, ok := sim.(*windowSimulator).channel.(*messageChannel)
	if !ok {
		t.Fatalf("channel is %T", sim.(*windowSimulator).channel)
	}
	if !mc.blocking || !mc.moveNotify || mc.handle != 0x300 {
		t.Errorf("channel = handle=%s blocking=%v moveNotify=%v, want 0x300 true true",
			mc.handle, mc.blocking, mc.moveNotify)
	}
}

func TestForcedStandardSkipsResolution(t *testing.T) {
	api, bridge := familyAWorld()
	r := newTestRegistry(api, bridge)

	sim := r.GetSimulatorWith(0x102, OpModeStandard, ExecBackground)
	if sim == nil {
		t.Fatal("GetSimulatorWith returned nil")
	}
	if sim.(*windowSimulator).shell != nil {
		t.Error("forced standard mode still wired a console bridge")
	}
	if bridge.listCalls != 0 || bridge.probeCalls != 0 {
		t.Errorf("forced standard mode touched the console: list=%d probe=%d",
			bridge.listCalls, bridge.probeCalls)
	}
}

func TestForcedEmulatorOnUnrecognizedWindow(t *testing.T) {
	api := newFakeAPI()
	api.addWindow(0x10, "Notepad", "notes", 0)
	r := newTestRegistry(api, newFakeBridge())

	sim := r.GetSimulatorWith(0x10, OpModeEmulator, ExecBackground)
	if sim == nil {
		t.Fatal("GetSimulatorWith returned nil")
	}
	// Resolution cannot succeed, so wiring degrades to the plain window
	// path, but the forced category sticks.
	if sim.Category() != CategoryEmulatorFamilyA {
		t.Errorf("category = %v, want forced emulator", sim.Category())
	}
	if sim.(*windowSimulator).shell != nil {
		t.Error("unresolvable window got a console bridge")
	}
}

func TestEvictDropsWindowState(t *testing.T) {
	api, bridge := familyAWorld()
	r := newTestRegistry(api, bridge)

	if r.GetSimulator(0x102) == nil {
		t.Fatal("GetSimulator returned nil")
	}
	r.Evict(0x102)
	if got := r.cachedCount(); got != 0 {
		t.Errorf("cache holds %d entries after evict, want 0", got)
	}
	if got := r.classifier.cachedCount(); got != 0 {
		t.Errorf("classifier still caches %d entries after evict", got)
	}
}
