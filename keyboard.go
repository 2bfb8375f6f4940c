package main

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	virtualKeyboardPackage = "com.android.adbkeyboard"
	virtualKeyboardIME     = "com.android.adbkeyboard/.AdbIME"

	// knownActiveTTL bounds how long a "keyboard is active" observation
	// is trusted without re-checking. An emulator restart silently
	// resets the IME, which only shows up as send failures.
	knownActiveTTL = 2 * time.Minute
)

// keyboardState is the per-instance precondition cache entry.
type keyboardState struct {
	activeUntil time.Time
}

// KeyboardManager ensures the virtual keyboard is installed, enabled and
// set as the active input method on an instance before broadcast-based
// text delivery. The install/enable/set-active dance costs three console
// round-trips, so known-active status is cached for a bounded window and
// the dance itself is rate-limited; the cache is invalidated when a send
// fails, which is the only signal that the precondition regressed.
type KeyboardManager struct {
	bridge managerBridge

	mu      sync.Mutex
	state   map[int]*keyboardState
	limiter *rate.Limiter
}

func NewKeyboardManager(bridge managerBridge) *KeyboardManager {
	return &KeyboardManager{
		bridge: bridge,
		state:  make(map[int]*keyboardState),
		// One full precondition dance per second across all instances is
		// plenty at human input speed and keeps pm/ime spam off the log.
		limiter: rate.NewLimiter(rate.Every(time.Second), 3),
	}
}

// EnsureActive makes the virtual keyboard the active IME on the
// instance, performing install and enable steps as needed. Returns nil
// when the keyboard is believed active.
func (k *KeyboardManager) EnsureActive(ctx context.Context, index int) error {
	k.mu.Lock()
	st, ok := k.state[index]
	if ok && time.Now().Before(st.activeUntil) {
		k.mu.Unlock()
		return nil
	}
	k.mu.Unlock()

	if !k.limiter.Allow() {
		// Under rate pressure, trust the last observation rather than
		// stalling the send; a wrong guess surfaces as a send failure
		// and invalidates the cache.
		if ok {
			return nil
		}
		return fmt.Errorf("keyboard precondition check rate-limited for instance %d", index)
	}

	if !k.isInstalled(ctx, index) {
		if err := k.install(ctx, index); err != nil {
			return fmt.Errorf("virtual keyboard install: %w", err)
		}
	}

	// Enable in the IME list, then switch the active IME. Enable is
	// idempotent and cheap; set is what actually binds the broadcast
	// receiver to the focused input field.
	if _, err := k.bridge.Shell(ctx, index, "ime enable "+virtualKeyboardIME); err != nil {
		LogDebug("keyboard").Int("index", index).Err(err).Msg("ime enable failed")
	}
	if _, err := k.bridge.Shell(ctx, index, "ime set "+virtualKeyboardIME); err != nil {
		return fmt.Errorf("ime set: %w", err)
	}

	if !k.isActive(ctx, index) {
		return fmt.Errorf("virtual keyboard did not become the active IME on instance %d", index)
	}

	k.mu.Lock()
	k.state[index] = &keyboardState{activeUntil: time.Now().Add(knownActiveTTL)}
	k.mu.Unlock()
	LogDebug("keyboard").Int("index", index).Msg("virtual keyboard active")
	return nil
}

// Invalidate drops the known-active entry for an instance. Called after
// a broadcast send fails: the precondition silently regressed, usually
// because the emulator restarted.
func (k *KeyboardManager) Invalidate(index int) {
	k.mu.Lock()
	delete(k.state, index)
	k.mu.Unlock()
}

// InvalidateAll drops every known-active entry; wired to the rebind hook.
func (k *KeyboardManager) InvalidateAll() {
	k.mu.Lock()
	k.state = make(map[int]*keyboardState)
	k.mu.Unlock()
}

func (k *KeyboardManager) isInstalled(ctx context.Context, index int) bool {
	out, err := k.bridge.Shell(ctx, index, "pm list packages "+virtualKeyboardPackage)
	return err == nil && strings.Contains(out, "package:"+virtualKeyboardPackage)
}

func (k *KeyboardManager) isActive(ctx context.Context, index int) bool {
	out, err := k.bridge.Shell(ctx, index, "settings get secure default_input_method")
	if err != nil {
		return false
	}
	return strings.TrimSpace(out) == virtualKeyboardIME
}

// install pushes and installs the keyboard APK from the emulator's
// shared image. The emulator family bundles the APK in the instance
// image; installing is a pm call, not an adb push.
func (k *KeyboardManager) install(ctx context.Context, index int) error {
	LogInfo("keyboard").Int("index", index).Msg("installing virtual keyboard")
	out, err := k.bridge.Shell(ctx, index, "pm install -r /system/app/AdbKeyboard.apk")
	if err != nil {
		return err
	}
	if !strings.Contains(out, "Success") {
		return fmt.Errorf("install did not report success")
	}
	// Give the package manager a beat before the ime calls see it.
	time.Sleep(500 * time.Millisecond)
	return nil
}
