package main

import (
	"context"
	"sync"
)

// simulatorKey identifies one cached facade. The same window under a
// different mode pair is a different simulator: the channel wiring
// differs, so the instances must not be shared.
type simulatorKey struct {
	handle WindowHandle
	op     OperationMode
	exec   ExecutionMode
}

// SimulatorRegistry builds and caches simulator facades. Construction
// involves classification and, for emulator windows, target resolution
// through the console, so built facades are reused until the window
// dies or the defaults change.
type SimulatorRegistry struct {
	api        winAPI
	injector   driverInjector
	classifier *WindowClassifier
	resolver   *TargetResolver
	bridge     managerBridge
	engine     *TextEngine

	mu          sync.Mutex
	cache       map[simulatorKey]*windowSimulator
	defaultOp   OperationMode
	defaultExec ExecutionMode
	textMode    TextInputMode
}

func NewSimulatorRegistry(api winAPI, injector driverInjector, classifier *WindowClassifier, resolver *TargetResolver, bridge managerBridge, engine *TextEngine) *SimulatorRegistry {
	return &SimulatorRegistry{
		api:         api,
		injector:    injector,
		classifier:  classifier,
		resolver:    resolver,
		bridge:      bridge,
		engine:      engine,
		cache:       make(map[simulatorKey]*windowSimulator),
		defaultOp:   OpModeAuto,
		defaultExec: ExecBackground,
		textMode:    TextModeIndexed,
	}
}

// SetDefaultOperationMode changes the default and flushes the cache:
// already-built facades may have been wired under the old default.
func (r *SimulatorRegistry) SetDefaultOperationMode(m OperationMode) {
	r.mu.Lock()
	r.defaultOp = m
	r.cache = make(map[simulatorKey]*windowSimulator)
	r.mu.Unlock()
	LogInfo("factory").Str("mode", string(m)).Msg("default operation mode changed")
}

// SetDefaultExecutionMode changes the default and flushes the cache.
func (r *SimulatorRegistry) SetDefaultExecutionMode(m ExecutionMode) {
	r.mu.Lock()
	r.defaultExec = NormalizeExecutionMode(string(m))
	r.cache = make(map[simulatorKey]*windowSimulator)
	r.mu.Unlock()
	LogInfo("factory").Str("mode", string(m)).Msg("default execution mode changed")
}

// SetTextInputMode switches text addressing. No flush needed: facades
// read the mode through the registry on every send.
func (r *SimulatorRegistry) SetTextInputMode(m TextInputMode) {
	r.mu.Lock()
	r.textMode = m
	r.mu.Unlock()
}

func (r *SimulatorRegistry) currentTextMode() TextInputMode {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.textMode
}

// GetSimulator returns the facade for a window under the registry
// defaults. Nil means the window is gone.
func (r *SimulatorRegistry) GetSimulator(h WindowHandle) Simulator {
	r.mu.Lock()
	op, exec := r.defaultOp, r.defaultExec
	r.mu.Unlock()
	return r.GetSimulatorWith(h, op, exec)
}

// GetSimulatorWith returns the facade for an explicit mode pair.
// Unrecognized execution tags degrade to background rather than
// erroring: a stale caller config must not break input entirely.
func (r *SimulatorRegistry) GetSimulatorWith(h WindowHandle, op OperationMode, exec ExecutionMode) Simulator {
	if h.IsZero() || !r.api.IsWindow(h) {
		r.evictHandle(h)
		return nil
	}
	exec = NormalizeExecutionMode(string(exec))
	key := simulatorKey{handle: h, op: op, exec: exec}

	r.mu.Lock()
	if sim, ok := r.cache[key]; ok {
		r.mu.Unlock()
		// Cached facades are revalidated on every fetch; the IsWindow
		// check above already covered liveness.
		return sim
	}
	r.mu.Unlock()

	sim := r.build(h, op, exec)
	if sim == nil {
		return nil
	}

	r.mu.Lock()
	r.cache[key] = sim
	r.mu.Unlock()
	return sim
}

// Evict drops all cached facades for a window.
func (r *SimulatorRegistry) Evict(h WindowHandle) {
	r.evictHandle(h)
	r.classifier.Evict(h)
	r.resolver.Invalidate(h)
}

// Flush drops everything; wired to the rebind hook.
func (r *SimulatorRegistry) Flush() {
	r.mu.Lock()
	r.cache = make(map[simulatorKey]*windowSimulator)
	r.mu.Unlock()
}

func (r *SimulatorRegistry) evictHandle(h WindowHandle) {
	r.mu.Lock()
	for key := range r.cache {
		if key.handle == h {
			delete(r.cache, key)
		}
	}
	r.mu.Unlock()
}

func (r *SimulatorRegistry) cachedCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.cache)
}

// build wires channels for one (window, mode pair). Category comes from
// the classifier unless the operation mode forces it.
func (r *SimulatorRegistry) build(h WindowHandle, op OperationMode, exec ExecutionMode) *windowSimulator {
	category := r.classifier.Classify(h)

	// Forcing emulator mode on a window the classifier does not
	// recognize still tries resolution; forcing standard mode skips it
	// even for known emulator windows.
	treatAsEmulator := category.IsEmulator()
	switch op {
	case OpModeStandard:
		treatAsEmulator = false
	case OpModeEmulator:
		treatAsEmulator = true
		if !category.IsEmulator() {
			category = CategoryEmulatorFamilyA
		}
	}

	sim := &windowSimulator{
		handle:   h,
		category: category,
		textMode: r.currentTextMode,
	}

	var target *AutomationTarget
	if treatAsEmulator {
		ctx, cancel := context.WithTimeout(context.Background(), managerTimeout)
		target = r.resolver.Resolve(ctx, h, category)
		cancel()
		if target == nil {
			LogDebug("factory").Str("window", h.String()).Msg("emulator window did not resolve, using plain window wiring")
		}
	}

	if target != nil {
		sim.target = target
		sim.engine = r.engine
		if idx, ok := target.VMIndex(); ok {
			sim.shell = newShellChannel(r.bridge, idx)
		}
	}

	// Delivery handle: family-A input goes to the resolved render
	// window, which may differ from the handle the caller holds.
	deliveryHandle := h
	if target != nil && target.Kind == TargetWindow && !target.Window.IsZero() {
		deliveryHandle = target.Window
	}

	if exec.IsForeground() {
		sim.channel = newDriverChannel(r.injector)
	} else {
		switch category {
		case CategoryEmulatorFamilyB:
			// Family-B render windows drop posted input but honor sent
			// messages. Empirical, load-bearing.
			mc := newMessageSendChannel(r.api, deliveryHandle)
			mc.moveNotify = true
			sim.channel = mc
		case CategoryEmulatorFamilyA:
			mc := newMessagePostChannel(r.api, deliveryHandle)
			mc.moveNotify = true
			sim.channel = mc
		default:
			sim.channel = newMessagePostChannel(r.api, deliveryHandle)
		}
	}

	LogDebug("factory").
		Str("window", h.String()).
		Str("category", category.String()).
		Str("op_mode", string(op)).
		Str("exec_mode", string(exec)).
		Bool("resolved", target != nil).
		Msg("simulator built")
	return sim
}
