package main

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"
)

// windowSimulator is the facade over one window's delivery channels. It
// implements Simulator: boolean results, never panics across the
// boundary. Programmer errors (unknown button name, unresolvable key)
// are logged and reported as false like any runtime failure, so a bad
// script degrades instead of crashing the host.
type windowSimulator struct {
	handle   WindowHandle
	category WindowCategory

	// channel is the primary delivery path for the window's mode; shell
	// is the per-instance bridge, present only for resolved emulator
	// targets, used as the pointer-input fallback and the key path that
	// survives focus changes.
	channel deliveryChannel
	shell   *shellChannel

	// text delivery goes through the multi-strategy engine when the
	// window resolved to an instance; otherwise the channel's raw text
	// path is all there is.
	engine   *TextEngine
	target   *AutomationTarget
	textMode func() TextInputMode
}

func (s *windowSimulator) Handle() WindowHandle     { return s.handle }
func (s *windowSimulator) Category() WindowCategory { return s.category }

// guard is the facade boundary: converts errors to false and keeps
// panics from escaping into the caller.
func (s *windowSimulator) guard(op string, fn func() error) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			LogPanic("simulator", r, string(debug.Stack()))
			ok = false
		}
	}()

	if err := fn(); err != nil {
		LogDebug("simulator").
			Str("op", op).
			Str("window", s.handle.String()).
			Err(err).
			Msg("operation failed")
		return false
	}
	return true
}

func (s *windowSimulator) Click(x, y int, button string) bool {
	return s.guard("click", func() error {
		b, err := ParseMouseButton(button)
		if err != nil {
			return err
		}
		if err := s.channel.Click(x, y, b); err != nil {
			if s.shell != nil && b == ButtonLeft {
				return s.shell.Click(x, y, b)
			}
			return err
		}
		return nil
	})
}

func (s *windowSimulator) DoubleClick(x, y int, button string) bool {
	return s.guard("double_click", func() error {
		b, err := ParseMouseButton(button)
		if err != nil {
			return err
		}
		return s.channel.DoubleClick(x, y, b)
	})
}

func (s *windowSimulator) Drag(x1, y1, x2, y2 int, durationMs int) bool {
	return s.DragPath([]Point{{X: x1, Y: y1}, {X: x2, Y: y2}}, durationMs)
}

func (s *windowSimulator) DragPath(points []Point, durationMs int) bool {
	return s.guard("drag", func() error {
		return s.channel.Drag(points, time.Duration(durationMs)*time.Millisecond, ButtonLeft)
	})
}

func (s *windowSimulator) Scroll(x, y int, delta int) bool {
	return s.guard("scroll", func() error {
		return s.channel.Scroll(x, y, delta)
	})
}

// resolveForChannel maps a key for the primary channel, falling back to
// the shell bridge for Android-only keys (home, back, app_switch) that
// have no virtual-key representation.
func (s *windowSimulator) tapKey(kc KeyCode) error {
	if kc.VK == 0 && s.shell != nil {
		return s.shell.KeyTap(kc)
	}
	return s.channel.KeyTap(kc)
}

func (s *windowSimulator) SendKey(key interface{}) bool {
	return s.guard("send_key", func() error {
		kc, err := ResolveKey(key)
		if err != nil {
			return err
		}
		return s.tapKey(kc)
	})
}

func (s *windowSimulator) SendKeyDown(key interface{}) bool {
	return s.guard("send_key_down", func() error {
		kc, err := ResolveKey(key)
		if err != nil {
			return err
		}
		if kc.VK == 0 && s.shell != nil {
			return s.shell.KeyDown(kc)
		}
		return s.channel.KeyDown(kc)
	})
}

func (s *windowSimulator) SendKeyUp(key interface{}) bool {
	return s.guard("send_key_up", func() error {
		kc, err := ResolveKey(key)
		if err != nil {
			return err
		}
		if kc.VK == 0 && s.shell != nil {
			return s.shell.KeyUp(kc)
		}
		return s.channel.KeyUp(kc)
	})
}

func (s *windowSimulator) SendText(text string) bool {
	return s.guard("send_text", func() error {
		if text == "" {
			return nil
		}
		if s.engine != nil && s.target != nil {
			if idx, ok := s.target.VMIndex(); ok {
				mode := TextModeIndexed
				if s.textMode != nil {
					mode = s.textMode()
				}
				ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				defer cancel()
				ok, trail := s.engine.SendTextRouted(ctx, mode, idx, text)
				if !ok {
					return fmt.Errorf("text delivery failed after %d attempts", len(trail))
				}
				return nil
			}
		}
		return s.channel.SendText(text)
	})
}

func (s *windowSimulator) SendKeyCombination(keys ...interface{}) bool {
	return s.guard("send_key_combination", func() error {
		if len(keys) == 0 {
			return fmt.Errorf("empty key combination")
		}
		kcs := make([]KeyCode, 0, len(keys))
		for _, k := range keys {
			kc, err := ResolveKey(k)
			if err != nil {
				return err
			}
			kcs = append(kcs, kc)
		}
		return s.channel.SendCombination(kcs)
	})
}

// Shortcut exposes the console command set on emulator simulators.
// Returns false on non-emulator windows.
func (s *windowSimulator) Shortcut(cmd ShortcutCommand) bool {
	return s.guard("shortcut", func() error {
		if s.shell == nil {
			return fmt.Errorf("window %s has no console bridge", s.handle)
		}
		if !ValidShortcut(cmd) {
			return fmt.Errorf("unknown shortcut %q", cmd)
		}
		return s.shell.Shortcut(cmd)
	})
}
