package main

import (
	"fmt"
	"time"
)

// driverInjector is the hardware-equivalent injection layer: input lands
// in the OS input queue as if a physical device produced it. Screen
// coordinates only. Implemented over SendInput on Windows; faked in
// tests.
type driverInjector interface {
	MouseMove(x, y int) error
	MouseDown(x, y int, b MouseButton) error
	MouseUp(x, y int, b MouseButton) error
	Wheel(x, y int, delta int) error
	KeyDown(kc KeyCode) error
	KeyUp(kc KeyCode) error
	ScreenBounds() (int, int)
}

// driverChannel delivers input through the injector. Used only in
// foreground execution mode: queue-level input always lands on whichever
// window is focused, so background targets cannot use it.
//
// Coordinate contract: by the time a coordinate reaches this channel it
// is final. The channel clamps to screen bounds and applies NO other
// transform; double-transforming was a recurring defect and the fix is
// that exactly one layer (the caller) owns the mapping.
type driverChannel struct {
	injector driverInjector
}

func newDriverChannel(injector driverInjector) *driverChannel {
	return &driverChannel{injector: injector}
}

// clamp pins a screen coordinate into the visible display.
func (c *driverChannel) clamp(x, y int) (int, int) {
	w, h := c.injector.ScreenBounds()
	if w <= 0 || h <= 0 {
		return x, y
	}
	if x < 0 {
		x = 0
	} else if x >= w {
		x = w - 1
	}
	if y < 0 {
		y = 0
	} else if y >= h {
		y = h - 1
	}
	return x, y
}

func (c *driverChannel) Click(x, y int, button MouseButton) error {
	x, y = c.clamp(x, y)
	if err := c.injector.MouseMove(x, y); err != nil {
		return err
	}
	if err := c.injector.MouseDown(x, y, button); err != nil {
		return err
	}
	return c.injector.MouseUp(x, y, button)
}

func (c *driverChannel) DoubleClick(x, y int, button MouseButton) error {
	if err := c.Click(x, y, button); err != nil {
		return err
	}
	// The second press must land inside the OS double-click interval;
	// immediate re-injection always does.
	x, y = c.clamp(x, y)
	if err := c.injector.MouseDown(x, y, button); err != nil {
		return err
	}
	return c.injector.MouseUp(x, y, button)
}

func (c *driverChannel) Drag(path []Point, duration time.Duration, button MouseButton) error {
	if len(path) < 2 {
		return fmt.Errorf("drag needs at least 2 points, got %d", len(path))
	}

	sx, sy := c.clamp(path[0].X, path[0].Y)
	if err := c.injector.MouseMove(sx, sy); err != nil {
		return err
	}
	if err := c.injector.MouseDown(sx, sy, button); err != nil {
		return err
	}

	stepDelay := time.Duration(0)
	if steps := len(path) - 1; steps > 0 && duration > 0 {
		stepDelay = duration / time.Duration(steps)
	}

	var moveErr error
	lx, ly := sx, sy
	for _, pt := range path[1:] {
		x, y := c.clamp(pt.X, pt.Y)
		if err := c.injector.MouseMove(x, y); err != nil {
			moveErr = err
			break
		}
		lx, ly = x, y
		if stepDelay > 0 {
			time.Sleep(stepDelay)
		}
	}

	// The button is physically down from the OS's perspective; release
	// it no matter how the moves went.
	upErr := c.injector.MouseUp(lx, ly, button)

	if moveErr != nil {
		return fmt.Errorf("drag move failed (release attempted): %w", moveErr)
	}
	return upErr
}

func (c *driverChannel) Scroll(x, y int, delta int) error {
	x, y = c.clamp(x, y)
	return c.injector.Wheel(x, y, delta)
}

func (c *driverChannel) KeyDown(kc KeyCode) error {
	if kc.VK == 0 {
		return fmt.Errorf("key %q has no virtual-key code", kc.Name)
	}
	return c.injector.KeyDown(kc)
}

func (c *driverChannel) KeyUp(kc KeyCode) error {
	if kc.VK == 0 {
		return fmt.Errorf("key %q has no virtual-key code", kc.Name)
	}
	return c.injector.KeyUp(kc)
}

func (c *driverChannel) KeyTap(kc KeyCode) error {
	if err := c.KeyDown(kc); err != nil {
		return err
	}
	return c.KeyUp(kc)
}

// SendText types each character through its key where one exists.
// Shifted characters and non-ASCII are out of reach at queue level; the
// text engine orders its strategies so this path is a last resort.
func (c *driverChannel) SendText(text string) error {
	for _, r := range text {
		kc, err := ResolveKey(string(r))
		if err != nil {
			return fmt.Errorf("driver channel cannot type %q: %w", r, err)
		}
		if err := c.KeyTap(kc); err != nil {
			return err
		}
	}
	return nil
}

func (c *driverChannel) SendCombination(keys []KeyCode) error {
	if len(keys) == 0 {
		return fmt.Errorf("empty key combination")
	}

	var pressed []KeyCode
	var firstErr error

	for i, kc := range keys {
		if i == len(keys)-1 {
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
