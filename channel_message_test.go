package main

import (
	"testing"
	"time"
)

func TestBackgroundClickIsExactlyDownUp(t *testing.T) {
	api := newFakeAPI()
	api.addWindow(0x10, "Notepad", "notes", 0)

	c := newMessagePostChannel(api, 0x10)
	if err := c.Click(100, 50, ButtonLeft); err != nil {
		t.Fatalf("Click: %v", err)
	}

	msgs := api.postedMessages()
	if len(msgs) != 2 {
		t.Fatalf("posted %d messages, want exactly 2 (down, up)", len(msgs))
	}

	wantLP := packCoords(100, 50)
	if msgs[0].msg != wmLButtonDown || msgs[0].wparam != mkLButton || msgs[0].lparam != wantLP {
		t.Errorf("first message = %+v, want WM_LBUTTONDOWN wparam=MK_LBUTTON lparam=%#x", msgs[0], wantLP)
	}
	if msgs[1].msg != wmLButtonUp || msgs[1].lparam != wantLP {
		t.Errorf("second message = %+v, want WM_LBUTTONUP lparam=%#x", msgs[1], wantLP)
	}
}

func TestClickWithMoveNotify(t *testing.T) {
	api := newFakeAPI()
	api.addWindow(0x10, "RenderWindow", "TheRender", 0)

	c := newMessagePostChannel(api, 0x10)
	c.moveNotify = true
	if err := c.Click(10, 20, ButtonLeft); err != nil {
		t.Fatalf("Click: %v", err)
	}

	msgs := api.postedMessages()
	if len(msgs) != 3 {
		t.Fatalf("posted %d messages, want 3 (move, down, up)", len(msgs))
	}
	if msgs[0].msg != wmMouseMove {
		t.Errorf("first message = %#x, want WM_MOUSEMOVE", msgs[0].msg)
	}
}

func TestRightClickMessages(t *testing.T) {
	api := newFakeAPI()
	api.addWindow(0x10, "Notepad", "notes", 0)

	c := newMessagePostChannel(api, 0x10)
	if err := c.Click(5, 5, ButtonRight); err != nil {
		t.Fatalf("Click: %v", err)
	}

	msgs := api.postedMessages()
	if len(msgs) != 2 || msgs[0].msg != wmRButtonDown || msgs[1].msg != wmRButtonUp {
		t.Errorf("messages = %+v, want right down/up pair", msgs)
	}
}

func TestClickDeadWindow(t *testing.T) {
	api := newFakeAPI()
	api.addWindow(0x10, "Notepad", "notes", 0)
	api.killWindow(0x10)

	c := newMessagePostChannel(api, 0x10)
	if err := c.Click(1, 1, ButtonLeft); err == nil {
		t.Fatal("Click on dead window succeeded, want error")
	}
	if len(api.postedMessages()) != 0 {
		t.Errorf("messages were posted to a dead window")
	}
}

func TestDragReleasesOnMoveFailure(t *testing.T) {
	api := newFakeAPI()
	api.addWindow(0x10, "Notepad", "notes", 0)
	// Sequence: move, down, move(1), move(2 fails), release succeeds.
	api.postFailAt = 4

	c := newMessagePostChannel(api, 0x10)
	path := []Point{{0, 0}, {10, 10}, {20, 20}, {30, 30}}
	err := c.Drag(path, 0, ButtonLeft)
	if err == nil {
		t.Fatal("Drag with failing move succeeded, want error")
	}

	// The release must still have gone out, exactly once, despite the
	// failure happening mid-gesture.
	ups := 0
	for _, m := range api.postedMessages() {
		if m.msg == wmLButtonUp {
			ups++
		}
	}
	if ups != 1 {
		t.Errorf("button-up posted %d times, want exactly 1", ups)
	}
}

func TestDragMessageSequence(t *testing.T) {
	api := newFakeAPI()
	api.addWindow(0x10, "Notepad", "notes", 0)

	c := newMessagePostChannel(api, 0x10)
	path := []Point{{0, 0}, {50, 50}, {100, 100}}
	if err := c.Drag(path, 0, ButtonLeft); err != nil {
		t.Fatalf("Drag: %v", err)
	}

	msgs := api.postedMessages()
	want := []uint32{wmMouseMove, wmLButtonDown, wmMouseMove, wmMouseMove, wmLButtonUp}
	if len(msgs) != len(want) {
		t.Fatalf("posted %d messages, want %d", len(msgs), len(want))
	}
	for i, w := range want {
		if msgs[i].msg != w {
			t.Errorf("message %d = %#x, want %#x", i, msgs[i].msg, w)
		}
	}
	// Release lands at the final path point.
	if x, y := unpackCoords(msgs[len(msgs)-1].lparam); x != 100 || y != 100 {
		t.Errorf("release at (%d,%d), want (100,100)", x, y)
	}
}

func TestDragRejectsShortPath(t *testing.T) {
	api := newFakeAPI()
	api.addWindow(0x10, "Notepad", "notes", 0)
	c := newMessagePostChannel(api, 0x10)

	if err := c.Drag([]Point{{0, 0}}, time.Second, ButtonLeft); err == nil {
		t.Fatal("single-point drag succeeded, want error")
	}
}

func TestKeyTapLParams(t *testing.T) {
	api := newFakeAPI()
	api.addWindow(0x10, "Notepad", "notes", 0)
	c := newMessagePostChannel(api, 0x10)

	kc, err := ResolveKey("enter")
	if err != nil {
		t.Fatalf("ResolveKey: %v", err)
	}
	if err := c.KeyTap(kc); err != nil {
		t.Fatalf("KeyTap: %v", err)
	}

	msgs := api.postedMessages()
	if len(msgs) != 2 {
		t.Fatalf("posted %d messages, want 2", len(msgs))
	}
	if msgs[0].msg != wmKeyDown || msgs[0].wparam != uintptr(kc.VK) {
		t.Errorf("key down = %+v, want WM_KEYDOWN vk=%#x", msgs[0], kc.VK)
	}
	down := msgs[0].lparam
	if down&1 != 1 {
		t.Errorf("key-down repeat count missing: %#x", down)
	}
	if (down>>16)&0xFF != uintptr(kc.ScanCode) {
		t.Errorf("key-down scan code = %#x, want %#x", (down>>16)&0xFF, kc.ScanCode)
	}
	up := msgs[1].lparam
	if up&(1<<31) == 0 || up&(1<<30) == 0 {
		t.Errorf("key-up transition bits missing: %#x", up)
	}
}

func TestKeyRejectsAndroidOnlyKeys(t *testing.T) {
	api := newFakeAPI()
	api.addWindow(0x10, "Notepad", "notes", 0)
	c := newMessagePostChannel(api, 0x10)

	kc, err := ResolveKey("android_back")
	if err != nil {
		t.Fatalf("ResolveKey: %v", err)
	}
	if err := c.KeyDown(kc); err == nil {
		t.Error("KeyDown(android_back) succeeded, want error")
	}
	if err := c.KeyUp(kc); err == nil {
		t.Error("KeyUp(android_back) succeeded, want error")
	}
}

func TestSendTextAsChars(t *testing.T) {
	api := newFakeAPI()
	api.addWindow(0x10, "Notepad", "notes", 0)
	c := newMessagePostChannel(api, 0x10)

	if err := c.SendText("hi"); err != nil {
		t.Fatalf("SendText: %v", err)
	}
	msgs := api.postedMessages()
	if len(msgs) != 2 {
		t.Fatalf("posted %d messages, want 2", len(msgs))
	}
	if msgs[0].msg != wmChar || msgs[0].wparam != 'h' {
		t.Errorf("first char = %+v, want WM_CHAR 'h'", msgs[0])
	}
	if msgs[1].wparam != 'i' {
		t.Errorf("second char = %#x, want 'i'", msgs[1].wparam)
	}
}

func TestSendTextSurrogatePair(t *testing.T) {
	api := newFakeAPI()
	api.addWindow(0x10, "Notepad", "notes", 0)
	c := newMessagePostChannel(api, 0x10)

	// U+1F600 encodes as the surrogate pair D83D DE00.
	if err := c.SendText("\U0001F600"); err != nil {
		t.Fatalf("SendText: %v", err)
	}
	msgs := api.postedMessages()
	if len(msgs) != 2 {
		t.Fatalf("posted %d messages, want a surrogate pair", len(msgs))
	}
	if msgs[0].wparam != 0xD83D || msgs[1].wparam != 0xDE00 {
		t.Errorf("surrogates = %#x %#x, want D83D DE00", msgs[0].wparam, msgs[1].wparam)
	}
}

func TestSendCombinationOrder(t *testing.T) {
	api := newFakeAPI()
	api.addWindow(0x10, "Notepad", "notes", 0)
	c := newMessagePostChannel(api, 0x10)

	ctrl, _ := ResolveKey("ctrl")
	a, _ := ResolveKey("a")
	if err := c.SendCombination([]KeyCode{ctrl, a}); err != nil {
		t.Fatalf("SendCombination: %v", err)
	}

	msgs := api.postedMessages()
	want := []struct {
		msg uint32
		vk  uint16
	}{
		{wmKeyDown, ctrl.VK},
		{wmKeyDown, a.VK},
		{wmKeyUp, a.VK},
		{wmKeyUp, ctrl.VK},
	}
	if len(msgs) != len(want) {
		t.Fatalf("posted %d messages, want %d", len(msgs), len(want))
	}
	for i, w := range want {
		if msgs[i].msg != w.msg || msgs[i].wparam != uintptr(w.vk) {
			t.Errorf("message %d = {%#x vk=%#x}, want {%#x vk=%#x}",
				i, msgs[i].msg, msgs[i].wparam, w.msg, w.vk)
		}
	}
}

func TestBlockingChannelUsesSend(t *testing.T) {
	api := newFakeAPI()
	api.addWindow(0x10, "nemuwin", "nemudisplay", 0)

	c := newMessageSendChannel(api, 0x10)
	if err := c.Click(1, 2, ButtonLeft); err != nil {
		t.Fatalf("Click: %v", err)
	}
	if len(api.posted) != 0 {
		t.Errorf("blocking channel posted %d messages, want 0", len(api.posted))
	}
	if len(api.sent) != 2 {
		t.Errorf("blocking channel sent %d messages, want 2", len(api.sent))
	}
}

func TestScrollUsesScreenCoords(t *testing.T) {
	api := newFakeAPI()
	api.addWindow(0x10, "Notepad", "notes", 0)
	c := newMessagePostChannel(api, 0x10)

	if err := c.Scroll(30, 40, 2); err != nil {
		t.Fatalf("Scroll: %v", err)
	}
	msgs := api.postedMessages()
	if len(msgs) != 1 || msgs[0].msg != wmMouseWheel {
		t.Fatalf("messages = %+v, want one WM_MOUSEWHEEL", msgs)
	}
	if msgs[0].wparam != wheelWParam(2) {
		t.Errorf("wheel wparam = %#x, want %#x", msgs[0].wparam, wheelWParam(2))
	}
}
