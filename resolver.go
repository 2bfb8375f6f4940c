package main

import (
	"context"
	"hash/fnv"
	"sort"
	"sync"
)

// maxAncestorDepth bounds the parent walk; real emulator hierarchies are
// two or three levels deep, anything past eight is a cycle or garbage.
const maxAncestorDepth = 8

// resolverEntry is one cached resolution, stamped with the binding
// session epoch it was computed under. Entries from older epochs are
// void on read; they are not eagerly purged.
type resolverEntry struct {
	target AutomationTarget
	epoch  uint64
}

// TargetResolver maps a UI-visible window handle to the entity that must
// actually receive input: a distinct ancestor device window, a console
// instance index, or both. The mapping is session-scoped; a rebind or
// reattach of the emulator invalidates it through the epoch counter.
type TargetResolver struct {
	api    winAPI
	bridge managerBridge

	mu       sync.Mutex
	cache    map[WindowHandle]resolverEntry
	epoch    uint64
	fallback *fallbackTable // rebuilt lazily per epoch
}

// NewTargetResolver builds a resolver over the native API and the
// console bridge.
func NewTargetResolver(api winAPI, bridge managerBridge) *TargetResolver {
	return &TargetResolver{
		api:    api,
		bridge: bridge,
		cache:  make(map[WindowHandle]resolverEntry),
		epoch:  1,
	}
}

// Resolve finds the automation target for a handle of the given
// category. Standard windows need no redirection and resolve to nil.
// Resolution failure also returns nil: callers fall back to operating on
// the raw handle or abort the single action, never crash.
func (r *TargetResolver) Resolve(ctx context.Context, h WindowHandle, category WindowCategory) *AutomationTarget {
	if !category.IsEmulator() || h.IsZero() {
		return nil
	}

	r.mu.Lock()
	epoch := r.epoch
	entry, ok := r.cache[h]
	r.mu.Unlock()

	if ok && entry.epoch == epoch {
		if r.targetAlive(ctx, entry.target) {
			t := entry.target
			return &t
		}
		// The previous target stopped responding: the emulator was
		// rebound underneath us. Treat it as a session change so every
		// other cached mapping is re-derived too.
		LogInfo("resolver").
			Str("handle", h.String()).
			Str("stale", entry.target.String()).
			Msg("cached target unresponsive, bumping binding session")
		r.BumpSession()
	}

	target := r.resolveUncached(ctx, h, category)
	if target == nil {
		return nil
	}

	r.mu.Lock()
	r.cache[h] = resolverEntry{target: *target, epoch: r.epoch}
	r.mu.Unlock()
	return target
}

func (r *TargetResolver) resolveUncached(ctx context.Context, h WindowHandle, category WindowCategory) *AutomationTarget {
	switch category {
	case CategoryEmulatorFamilyA:
		return r.resolveFamilyA(ctx, h)
	case CategoryEmulatorFamilyB:
		return r.resolveFamilyB(ctx, h)
	default:
		return nil
	}
}

// resolveFamilyA walks the ancestor chain looking for a window that both
// carries a family signature and answers the console index probe. The
// probe matters: several sibling frames can match the signature but only
// the live one is addressable.
func (r *TargetResolver) resolveFamilyA(ctx context.Context, h WindowHandle) *AutomationTarget {
	for cur, depth := h, 0; !cur.IsZero() && depth < maxAncestorDepth; cur, depth = r.api.Parent(cur), depth+1 {
		if !r.matchesFamily(cur, CategoryEmulatorFamilyA) {
			continue
		}
		if idx, ok := r.bridge.IndexForWindow(ctx, cur); ok {
			return &AutomationTarget{Kind: TargetWindow, Window: cur, Index: idx, HasIndex: true}
		}
	}
	// No confirmed ancestor. The render surface itself receives messages
	// for this family, so keep the handle addressable if the probe knows
	// it directly.
	if idx, ok := r.bridge.IndexForWindow(ctx, h); ok {
		return &AutomationTarget{Kind: TargetWindow, Window: h, Index: idx, HasIndex: true}
	}
	LogDebug("resolver").Str("handle", h.String()).Msg("family A resolution failed")
	return nil
}

// resolveFamilyB finds the distinct ancestor device window and joins it
// against the console enumeration for an exact handle match. When the
// enumeration has no exact row (it is racy during startup), a
// deterministic fallback assignment keeps the same handle mapped to the
// same index for the rest of the session instead of stalling execution.
func (r *TargetResolver) resolveFamilyB(ctx context.Context, h WindowHandle) *AutomationTarget {
	device := h
	for cur, depth := h, 0; !cur.IsZero() && depth < maxAncestorDepth; cur, depth = r.api.Parent(cur), depth+1 {
		if r.matchesFamily(cur, CategoryEmulatorFamilyB) {
			device = cur
		}
	}

	instances, err := r.bridge.ListInstances(ctx)
	if err != nil {
		LogDebug("resolver").Str("handle", h.String()).Err(err).Msg("enumeration unavailable")
		instances = nil
	}
	for _, inst := range instances {
		if inst.MainWindow == device || inst.RenderWindow == device ||
			inst.MainWindow == h || inst.RenderWindow == h {
			return &AutomationTarget{Kind: TargetWindow, Window: device, Index: inst.Index, HasIndex: true}
		}
	}

	idx, ok := r.fallbackIndex(h, instances)
	if !ok {
		LogDebug("resolver").Str("handle", h.String()).Msg("family B resolution failed, no instances known")
		return nil
	}
	LogDebug("resolver").
		Str("handle", h.String()).
		Int("index", idx).
		Msg("no exact enumeration match, using fallback assignment")
	if device != h {
		return &AutomationTarget{Kind: TargetWindow, Window: device, Index: idx, HasIndex: true}
	}
	return &AutomationTarget{Kind: TargetVMIndex, Index: idx}
}

func (r *TargetResolver) matchesFamily(h WindowHandle, category WindowCategory) bool {
	class, err := r.api.ClassName(h)
	if err != nil {
		return false
	}
	title, err := r.api.WindowText(h)
	if err != nil {
		return false
	}
	for _, sig := range defaultSignatures {
		if sig.category == category && sig.matches(class, title) {
			return true
		}
	}
	return false
}

// targetAlive re-checks a cached target before reuse.
func (r *TargetResolver) targetAlive(ctx context.Context, t AutomationTarget) bool {
	switch t.Kind {
	case TargetWindow:
		return r.api.IsWindow(t.Window)
	case TargetVMIndex:
		// A bare index target stays alive while the console still lists
		// the instance as running.
		instances, err := r.bridge.ListInstances(ctx)
		if err != nil {
			// Transient console failure is not evidence of a rebind.
			return true
		}
		for _, inst := range instances {
			if inst.Index == t.Index && inst.Running {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// ---- deterministic fallback assignment ----

// fallbackTable is a sorted assignment built once per session: the same
// handle always lands on the same instance index until the next rebind.
type fallbackTable struct {
	epoch   uint64
	indices []int
}

func (r *TargetResolver) fallbackIndex(h WindowHandle, instances []InstanceInfo) (int, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.fallback == nil || r.fallback.epoch != r.epoch {
		indices := make([]int, 0, len(instances))
		for _, inst := range instances {
			indices = append(indices, inst.Index)
		}
		sort.Ints(indices)
		r.fallback = &fallbackTable{epoch: r.epoch, indices: indices}
	}

	n := len(r.fallback.indices)
	if n == 0 {
		return 0, false
	}
	hash := fnv.New64a()
	var b [8]byte
	v := uint64(h)
	for i := 0; i < 8; i++ {
		b[i] = byte(v >> (8 * i))
	}
	hash.Write(b[:])
	return r.fallback.indices[hash.Sum64()%uint64(n)], true
}

// ---- invalidation ----

// Invalidate drops one cached mapping, or every mapping when h is zero.
// The external rebind/reattach hook calls this.
func (r *TargetResolver) Invalidate(h WindowHandle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if h.IsZero() {
		r.cache = make(map[WindowHandle]resolverEntry)
		r.fallback = nil
		return
	}
	delete(r.cache, h)
}

// BumpSession advances the binding session epoch. Cached entries from
// older epochs become void on next read; nothing is purged eagerly.
func (r *TargetResolver) BumpSession() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.epoch++
	return r.epoch
}

// SessionEpoch returns the current binding session epoch.
func (r *TargetResolver) SessionEpoch() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.epoch
}
