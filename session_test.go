package main

import (
	"context"
	"path/filepath"
	"testing"
)

func newTestCoordinator(api *fakeAPI, bridge *fakeBridge) (*SessionCoordinator, *TargetResolver, *SimulatorRegistry, *KeyboardManager) {
	resolver := NewTargetResolver(api, bridge)
	keyboard := NewKeyboardManager(bridge)
	engine := NewTextEngine(bridge, keyboard)
	registry := NewSimulatorRegistry(api, newFakeInjector(), NewWindowClassifier(api), resolver, bridge, engine)
	return NewSessionCoordinator(resolver, registry, keyboard), resolver, registry, keyboard
}

func TestRebindDropsEveryCache(t *testing.T) {
	api, bridge := familyAWorld()
	healthyKeyboard(bridge)
	coord, resolver, registry, keyboard := newTestCoordinator(api, bridge)

	if registry.GetSimulator(0x102) == nil {
		t.Fatal("GetSimulator returned nil")
	}
	if err := keyboard.EnsureActive(context.Background(), 2); err != nil {
		t.Fatalf("EnsureActive: %v", err)
	}
	epochBefore := resolver.SessionEpoch()

	coord.Rebind("test")

	if registry.cachedCount() != 0 {
		t.Error("registry cache survived the rebind")
	}
	if resolver.SessionEpoch() <= epochBefore {
		t.Error("session epoch did not advance")
	}
	keyboard.mu.Lock()
	remaining := len(keyboard.state)
	keyboard.mu.Unlock()
	if remaining != 0 {
		t.Error("keyboard state survived the rebind")
	}
}

func TestWatchManagerConfigEmptyDirIsNoop(t *testing.T) {
	coord, _, _, _ := newTestCoordinator(newFakeAPI(), newFakeBridge())
	defer coord.Close()

	if err := coord.WatchManagerConfig(""); err != nil {
		t.Errorf("empty dir: %v", err)
	}
	if coord.watcher != nil {
		t.Error("empty dir still started a watcher")
	}
}

func TestWatchManagerConfigMissingDirIsNoop(t *testing.T) {
	coord, _, _, _ := newTestCoordinator(newFakeAPI(), newFakeBridge())
	defer coord.Close()

	missing := filepath.Join(t.TempDir(), "does-not-exist")
	if err := coord.WatchManagerConfig(missing); err != nil {
		t.Errorf("missing dir: %v", err)
	}
	if coord.watcher != nil {
		t.Error("missing dir still started a watcher")
	}
}

func TestWatchManagerConfigStartsWatcher(t *testing.T) {
	coord, _, _, _ := newTestCoordinator(newFakeAPI(), newFakeBridge())
	defer coord.Close()

	if err := coord.WatchManagerConfig(t.TempDir()); err != nil {
		t.Fatalf("WatchManagerConfig: %v", err)
	}
	if coord.watcher == nil {
		t.Error("watcher was not started for an existing directory")
	}
}

func TestCloseIsIdempotentWithoutWatcher(t *testing.T) {
	coord, _, _, _ := newTestCoordinator(newFakeAPI(), newFakeBridge())
	coord.Close()
	coord.Close()
}
