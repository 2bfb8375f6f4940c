package main

import "testing"

func TestResolveKeyNames(t *testing.T) {
	tests := []struct {
		in       string
		wantName string
		wantVK   uint16
	}{
		{"enter", "enter", 0x0D},
		{"Enter", "enter", 0x0D},
		{"return", "enter", 0x0D},
		{"esc", "escape", 0x1B},
		{" ", "space", 0x20},
		{"space", "space", 0x20},
		{"ctrl", "ctrl_left", 0xA2},
		{"shift", "shift_left", 0xA0},
		{"a", "a", 'A'},
		{"z", "z", 'Z'},
		{"5", "5", '5'},
		{"f1", "f1", 0x70},
		{"f12", "f12", 0x7B},
		{"arrowup", "up", 0x26},
		{"pgdn", "page_down", 0x22},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			kc, err := ResolveKey(tt.in)
			if err != nil {
				t.Fatalf("ResolveKey(%q): %v", tt.in, err)
			}
			if kc.Name != tt.wantName || kc.VK != tt.wantVK {
				t.Errorf("ResolveKey(%q) = {%s %#x}, want {%s %#x}",
					tt.in, kc.Name, kc.VK, tt.wantName, tt.wantVK)
			}
		})
	}
}

func TestResolveKeyUnknownName(t *testing.T) {
	if _, err := ResolveKey("hyperspace"); err == nil {
		t.Error("ResolveKey(hyperspace) succeeded, want error")
	}
}

func TestResolveKeyIntegers(t *testing.T) {
	kc, err := ResolveKey(0x0D)
	if err != nil {
		t.Fatalf("ResolveKey(0x0D): %v", err)
	}
	if kc.Name != "enter" {
		t.Errorf("ResolveKey(0x0D) = %s, want enter", kc.Name)
	}

	// JSON numbers arrive as float64.
	kc, err = ResolveKey(float64(0x1B))
	if err != nil {
		t.Fatalf("ResolveKey(float64): %v", err)
	}
	if kc.Name != "escape" {
		t.Errorf("ResolveKey(27.0) = %s, want escape", kc.Name)
	}
}

func TestResolveKeyUnknownVKPassesThrough(t *testing.T) {
	kc, err := ResolveKey(0xE9)
	if err != nil {
		t.Fatalf("ResolveKey(0xE9): %v", err)
	}
	if kc.VK != 0xE9 || kc.Android != -1 {
		t.Errorf("pass-through = %+v, want VK=0xE9 Android=-1", kc)
	}
}

func TestResolveKeyZeroVK(t *testing.T) {
	if _, err := ResolveKey(0); err == nil {
		t.Error("ResolveKey(0) succeeded, want error")
	}
}

func TestResolveKeyUnsupportedType(t *testing.T) {
	if _, err := ResolveKey(3.5 + 0i); err == nil {
		t.Error("ResolveKey(complex) succeeded, want error")
	}
}

func TestAndroidOnlyKeys(t *testing.T) {
	kc, err := ResolveKey("android_back")
	if err != nil {
		t.Fatalf("ResolveKey(android_back): %v", err)
	}
	if kc.VK != 0 || kc.Android != 4 {
		t.Errorf("android_back = %+v, want VK=0 Android=4", kc)
	}
}

func TestAndroidKeycode(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"a", 29},
		{"z", 54},
		{"0", 7},
		{"9", 16},
		{"enter", 66},
		{"android_home", 3},
		{"f1", 131},
	}
	for _, tt := range tests {
		got, err := AndroidKeycode(tt.in)
		if err != nil {
			t.Errorf("AndroidKeycode(%q): %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("AndroidKeycode(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}

	if _, err := AndroidKeycode("win"); err == nil {
		t.Error("AndroidKeycode(win) succeeded, want error for unmappable key")
	}
}
