package main

import (
	"fmt"
	"time"
)

// deliveryChannel is one concrete mechanism for injecting input into a
// window. Channels are stateless between calls and parameterized only by
// the handle they were built for; every call is independently
// retry-safe, leaving no stuck key or button behind on failure.
type deliveryChannel interface {
	Click(x, y int, button MouseButton) error
	DoubleClick(x, y int, button MouseButton) error
	Drag(path []Point, duration time.Duration, button MouseButton) error
	Scroll(x, y int, delta int) error
	KeyDown(kc KeyCode) error
	KeyUp(kc KeyCode) error
	KeyTap(kc KeyCode) error
	SendText(text string) error
	SendCombination(keys []KeyCode) error
}

// gestureState tracks a compound gesture. No state may be skipped: a
// failure while Moving still issues the release before the error
// propagates, so the simulated button is never left logically down.
type gestureState int

const (
	gestureIdle gestureState = iota
	gesturePressed
	gestureMoving
	gestureReleased
)

// messageChannel delivers input as window messages, posted
// (fire-and-forget) or sent (blocking). Posting never blocks on receiver
// processing: the receiver may be wedged and that must not hang the
// caller. The blocking variant exists because certain emulator families
// ignore posted messages but honor sent ones; that quirk is empirical
// and preserved as-is.
type messageChannel struct {
	api      winAPI
	handle   WindowHandle
	blocking bool

	// moveNotify controls whether a click is preceded by a mouse-move
	// message. Emulator render surfaces need it to update the hover
	// position; plain windows do not.
	moveNotify bool
}

func newMessagePostChannel(api winAPI, h WindowHandle) *messageChannel {
	return &messageChannel{api: api, handle: h}
}

func newMessageSendChannel(api winAPI, h WindowHandle) *messageChannel {
	return &messageChannel{api: api, handle: h, blocking: true}
}

func (c *messageChannel) deliver(msg uint32, wparam, lparam uintptr) error {
	if !c.api.IsWindow(c.handle) {
		return fmt.Errorf("window %s is gone", c.handle)
	}
	if c.blocking {
		return c.api.SendMessage(c.handle, msg, wparam, lparam)
	}
	return c.api.PostMessage(c.handle, msg, wparam, lparam)
}

func (c *messageChannel) Click(x, y int, button MouseButton) error {
	lp := packCoords(x, y)
	if c.moveNotify {
		if err := c.deliver(wmMouseMove, 0, lp); err != nil {
			return err
		}
	}
	downMsg, downWP := buttonDownMsg(button)
	if err := c.deliver(downMsg, downWP, lp); err != nil {
		return err
	}
	return c.deliver(buttonUpMsg(button), 0, lp)
}

func (c *messageChannel) DoubleClick(x, y int, button MouseButton) error {
	if err := c.Click(x, y, button); err != nil {
		return err
	}
	lp := packCoords(x, y)
	downMsg, downWP := buttonDownMsg(button)
	// Receivers that register CS_DBLCLKS want the dedicated message; the
	// rest treat it as a second button-down, which is also correct.
	if err := c.deliver(buttonDblClkMsg(button), downWP, lp); err != nil {
		// Fall back to a plain second press.
		if err := c.deliver(downMsg, downWP, lp); err != nil {
			return err
		}
	}
	return c.deliver(buttonUpMsg(button), 0, lp)
}

// Drag walks the press-move-release state machine along the path. The
// release is attempted even when a move fails partway, and a move
// failure is still reported after the release lands.
func (c *messageChannel) Drag(path []Point, duration time.Duration, button MouseButton) error {
	if len(path) < 2 {
		return fmt.Errorf("drag needs at least 2 points, got %d", len(path))
	}

	downMsg, downWP := buttonDownMsg(button)
	state := gestureIdle

	start := path[0]
	if err := c.deliver(wmMouseMove, 0, packCoords(start.X, start.Y)); err != nil {
		return err
	}
	if err := c.deliver(downMsg, downWP, packCoords(start.X, start.Y)); err != nil {
		return err
	}
	state = gesturePressed

	stepDelay := time.Duration(0)
	if steps := len(path) - 1; steps > 0 && duration > 0 {
		stepDelay = duration / time.Duration(steps)
	}

	var moveErr error
	last := start
	for _, pt := range path[1:] {
		state = gestureMoving
		if err := c.deliver(wmMouseMove, downWP, packCoords(pt.X, pt.Y)); err != nil {
			moveErr = err
			break
		}
		last = pt
		if stepDelay > 0 {
			time.Sleep(stepDelay)
		}
	}

	// ReleasedUp happens regardless of how Moving went.
	upErr := c.deliver(buttonUpMsg(button), 0, packCoords(last.X, last.Y))
	state = gestureReleased
	_ = state

	if moveErr != nil {
		return fmt.Errorf("drag move failed (release attempted): %w", moveErr)
	}
	return upErr
}

func (c *messageChannel) Scroll(x, y int, delta int) error {
	// WM_MOUSEWHEEL carries screen coordinates in its lparam.
	sx, sy, err := c.api.ClientToScreen(c.handle, x, y)
	if err != nil {
		sx, sy = x, y
	}
	return c.deliver(wmMouseWheel, wheelWParam(delta), packCoords(sx, sy))
}

func (c *messageChannel) KeyDown(kc KeyCode) error {
	if kc.VK == 0 {
		return fmt.Errorf("key %q has no virtual-key code", kc.Name)
	}
	return c.deliver(wmKeyDown, uintptr(kc.VK), keyDownLParam(kc, false))
}

func (c *messageChannel) KeyUp(kc KeyCode) error {
	if kc.VK == 0 {
		return fmt.Errorf("key %q has no virtual-key code", kc.Name)
	}
	return c.deliver(wmKeyUp, uintptr(kc.VK), keyUpLParam(kc))
}

func (c *messageChannel) KeyTap(kc KeyCode) error {
	if err := c.KeyDown(kc); err != nil {
		return err
	}
	// Mirror of the drag contract: a failed up is reported but the down
	// already happened, so the up is always attempted.
	return c.KeyUp(kc)
}

// SendText types text as WM_CHAR messages, one per UTF-16 unit. This is
// the raw message fallback for windows no remote bridge can reach; it
// bypasses keyboard layout entirely.
func (c *messageChannel) SendText(text string) error {
	for _, r := range text {
		if r > 0xFFFF {
			// Supplementary-plane runes go as a surrogate pair.
			r -= 0x10000
			hi := 0xD800 + (r >> 10)
			lo := 0xDC00 + (r & 0x3FF)
			if err := c.deliver(wmChar, uintptr(hi), 1); err != nil {
				return err
			}
			if err := c.deliver(wmChar, uintptr(lo), 1); err != nil {
				return err
			}
			continue
		}
		if err := c.deliver(wmChar, uintptr(r), 1); err != nil {
			return err
		}
	}
	return nil
}

// SendCombination holds the leading keys down, taps the final key, then
// releases in reverse order. Releases for keys already pressed are
// attempted even if a later press fails.
func (c *messageChannel) SendCombination(keys []KeyCode) error {
	if len(keys) == 0 {
		return fmt.Errorf("empty key combination")
	}

	var pressed []KeyCode
	var firstErr error

	for i, kc := range keys {
		isLast := i == len(keys)-1
		if isLast {
			if err := c.KeyTap(kc); err != nil && firstErr == nil {
				firstErr = err
			}
			break
		}
		if err := c.KeyDown(kc); err != nil {
			firstErr = err
			break
		}
		pressed = append(pressed, kc)
	}

	for i := len(pressed) - 1; i >= 0; i-- {
		if err := c.KeyUp(pressed[i]); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
