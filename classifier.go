package main

import (
	"strings"
	"sync"
)

// windowSignature is one classification rule. Class matching is exact,
// title matching is exact or substring; empty fields match anything.
// Rules are evaluated in order and the first match wins, so narrower
// signatures (render surfaces) sit above broader ones (main frames).
type windowSignature struct {
	name          string
	class         string
	title         string
	titleContains string
	category      WindowCategory
}

func (s windowSignature) matches(class, title string) bool {
	if s.class != "" && class != s.class {
		return false
	}
	if s.title != "" && title != s.title {
		return false
	}
	if s.titleContains != "" && !strings.Contains(title, s.titleContains) {
		return false
	}
	return true
}

// defaultSignatures covers the emulator families seen in the wild. New
// families are added by appending a signature, not by editing a
// conditional.
var defaultSignatures = []windowSignature{
	{name: "ld_render", class: "RenderWindow", title: "TheRender", category: CategoryEmulatorFamilyA},
	{name: "ld_subwin", class: "subWin", title: "sub", category: CategoryEmulatorFamilyA},
	{name: "ld_frame", class: "LDPlayerMainFrame", category: CategoryEmulatorFamilyA},
	{name: "mumu_render", class: "nemuwin", title: "nemudisplay", category: CategoryEmulatorFamilyB},
	{name: "mumu_frame", class: "Qt5QWindowIcon", titleContains: "MuMu", category: CategoryEmulatorFamilyB},
}

// WindowClassifier maps window handles to categories by inspecting class
// name and title against the signature table. Results are memoized per
// handle: class and title do not change while a window lives, so no TTL
// is needed, but an entry is dropped the moment its handle dies.
type WindowClassifier struct {
	api        winAPI
	signatures []windowSignature

	mu    sync.Mutex
	cache map[WindowHandle]WindowCategory
}

// NewWindowClassifier builds a classifier over the given API with the
// default signature table.
func NewWindowClassifier(api winAPI) *WindowClassifier {
	return &WindowClassifier{
		api:        api,
		signatures: defaultSignatures,
		cache:      make(map[WindowHandle]WindowCategory),
	}
}

// RegisterSignature appends a signature rule. Appended rules are checked
// after the defaults, so they extend rather than override.
func (c *WindowClassifier) RegisterSignature(sig windowSignature) {
	c.mu.Lock()
	c.signatures = append(c.signatures, sig)
	c.cache = make(map[WindowHandle]WindowCategory)
	c.mu.Unlock()
}

// Classify returns the category for a handle. Classification is never
// fatal: if the window dies mid-query the result is CategoryUnknown.
func (c *WindowClassifier) Classify(h WindowHandle) WindowCategory {
	if h.IsZero() {
		return CategoryUnknown
	}

	c.mu.Lock()
	if cat, ok := c.cache[h]; ok {
		c.mu.Unlock()
		// Cached entries are only trusted while the handle lives.
		if !c.api.IsWindow(h) {
			c.Evict(h)
			return CategoryUnknown
		}
		return cat
	}
	sigs := c.signatures
	c.mu.Unlock()

	if !c.api.IsWindow(h) {
		return CategoryUnknown
	}

	class, err := c.api.ClassName(h)
	if err != nil {
		LogDebug("classifier").Str("handle", h.String()).Err(err).Msg("class query failed")
		return CategoryUnknown
	}
	title, err := c.api.WindowText(h)
	if err != nil {
		LogDebug("classifier").Str("handle", h.String()).Err(err).Msg("title query failed")
		return CategoryUnknown
	}

	cat := CategoryStandard
	for _, sig := range sigs {
		if sig.matches(class, title) {
			cat = sig.category
			LogDebug("classifier").
				Str("handle", h.String()).
				Str("signature", sig.name).
				Str("category", cat.String()).
				Msg("window matched signature")
			break
		}
	}

	c.mu.Lock()
	c.cache[h] = cat
	c.mu.Unlock()
	return cat
}

// Evict drops the cached category for one handle.
func (c *WindowClassifier) Evict(h WindowHandle) {
	c.mu.Lock()
	delete(c.cache, h)
	c.mu.Unlock()
}

// Reset clears the whole classification cache.
func (c *WindowClassifier) Reset() {
	c.mu.Lock()
	c.cache = make(map[WindowHandle]WindowCategory)
	c.mu.Unlock()
}

// cachedCount is used by tests to observe memoization.
func (c *WindowClassifier) cachedCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.cache)
}
