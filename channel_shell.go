package main

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// shellChannel delivers input through the console's adb bridge to an
// instance index. Each call spawns one bounded external process; there
// is no persistent connection. Failures (non-zero exit, timeout) are
// reported as errors, never treated as fatal: the caller or the text
// engine decides what happens next.
type shellChannel struct {
	bridge managerBridge
	index  int
}

func newShellChannel(bridge managerBridge, index int) *shellChannel {
	return &shellChannel{bridge: bridge, index: index}
}

func (c *shellChannel) ctx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), managerTimeout)
}

func (c *shellChannel) Click(x, y int, button MouseButton) error {
	if button != ButtonLeft {
		// Android has no secondary tap; anything else is a caller bug.
		return fmt.Errorf("shell channel supports left taps only, got %q", button)
	}
	ctx, cancel := c.ctx()
	defer cancel()
	_, err := c.bridge.Shell(ctx, c.index, fmt.Sprintf("input tap %d %d", x, y))
	return err
}

func (c *shellChannel) DoubleClick(x, y int, button MouseButton) error {
	if err := c.Click(x, y, button); err != nil {
		return err
	}
	return c.Click(x, y, button)
}

func (c *shellChannel) Drag(path []Point, duration time.Duration, button MouseButton) error {
	if len(path) < 2 {
		return fmt.Errorf("drag needs at least 2 points, got %d", len(path))
	}
	ms := int(duration / time.Millisecond)
	if ms <= 0 {
		ms = 300
	}
	// input swipe is two-point only; intermediate points are chained as
	// consecutive swipes with the duration split between the legs.
	legs := len(path) - 1
	legMs := ms / legs
	if legMs <= 0 {
		legMs = 1
	}
	for i := 0; i < legs; i++ {
		a, b := path[i], path[i+1]
		ctx, cancel := c.ctx()
		_, err := c.bridge.Shell(ctx, c.index,
			fmt.Sprintf("input swipe %d %d %d %d %d", a.X, a.Y, b.X, b.Y, legMs))
		cancel()
		if err != nil {
			return err
		}
	}
	return nil
}

func (c *shellChannel) Scroll(x, y int, delta int) error {
	// A wheel notch maps to a short vertical swipe; magnitude tuned to
	// roughly one list row per notch.
	const notchPixels = 120
	dy := -delta * notchPixels
	ctx, cancel := c.ctx()
	defer cancel()
	_, err := c.bridge.Shell(ctx, c.index,
		fmt.Sprintf("input swipe %d %d %d %d 100", x, y, x, y+dy))
	return err
}

func (c *shellChannel) KeyDown(kc KeyCode) error {
	// keyevent is tap-only; down/up pairs degrade to a tap on the down
	// edge so a later KeyUp is a harmless no-op rather than a stuck key.
	return c.KeyTap(kc)
}

func (c *shellChannel) KeyUp(KeyCode) error { return nil }

func (c *shellChannel) KeyTap(kc KeyCode) error {
	if kc.Android < 0 {
		return fmt.Errorf("key %q has no Android keyevent code", kc.Name)
	}
	ctx, cancel := c.ctx()
	defer cancel()
	_, err := c.bridge.Shell(ctx, c.index, fmt.Sprintf("input keyevent %d", kc.Android))
	return err
}

// SendText is the generic `input text` path. ASCII only: non-ASCII is
// silently mis-rendered by the shell with no failure signal, so callers
// must gate on ASCII before choosing this channel.
func (c *shellChannel) SendText(text string) error {
	if text == "" {
		return nil
	}
	ctx, cancel := c.ctx()
	defer cancel()
	_, err := c.bridge.Shell(ctx, c.index, "input text "+escapeShellText(text))
	return err
}

func (c *shellChannel) SendCombination(keys []KeyCode) error {
	// No chord support on the shell bridge; the keys are tapped in
	// sequence, which covers the navigation combinations in practice.
	for _, kc := range keys {
		if err := c.KeyTap(kc); err != nil {
			return err
		}
	}
	return nil
}

// Shortcut exposes the console's enumerated command set.
func (c *shellChannel) Shortcut(cmd ShortcutCommand) error {
	ctx, cancel := c.ctx()
	defer cancel()
	return c.bridge.Shortcut(ctx, c.index, cmd)
}

// escapeShellText quotes text for `input text`: spaces become %s per the
// input tool's own convention, and shell metacharacters are stripped of
// their meaning by single-quoting.
func escapeShellText(text string) string {
	text = strings.ReplaceAll(text, " ", "%s")
	text = strings.ReplaceAll(text, "'", `'\''`)
	return "'" + text + "'"
}

// isASCIIPrintable reports whether the generic input-text path can carry
// the string without mangling it.
func isASCIIPrintable(s string) bool {
	for _, r := range s {
		if r < 0x20 || r > 0x7E {
			return false
		}
	}
	return true
}
