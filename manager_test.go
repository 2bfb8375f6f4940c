package main

import (
	"testing"

	"github.com/tidwall/gjson"
)

func TestManagerArgsShape(t *testing.T) {
	got := managerArgs(2, "input tap 10 20")
	want := []string{"adb", "-v", "2", "-c", "shell input tap 10 20"}
	if len(got) != len(want) {
		t.Fatalf("argv = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("argv[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestParseHexHandle(t *testing.T) {
	tests := []struct {
		in   string
		want WindowHandle
	}{
		{"0x1234AB", 0x1234AB},
		{"0X10", 0x10},
		{"256", 256},
		{"  0x20  ", 0x20},
		{"", 0},
		{"garbage", 0},
		{"0x", 0},
	}
	for _, tt := range tests {
		if got := parseHexHandle(tt.in); got != tt.want {
			t.Errorf("parseHexHandle(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestParseInstanceKeyedShape(t *testing.T) {
	out := `{
		"0": {"name":"clone-a","is_process_started":true,"adb_port":16384,"main_wnd":"0x1A2B","render_wnd":"0x1A2C"},
		"3": {"name":"clone-b","is_process_started":false,"adb_port":0,"main_wnd":"","render_wnd":""}
	}`
	parsed := gjson.Parse(out)

	inst, ok := parseInstance(parsed.Get("0"), 0)
	if !ok {
		t.Fatal("parseInstance rejected a well-formed row")
	}
	if inst.Name != "clone-a" || !inst.Running || inst.ADBPort != 16384 {
		t.Errorf("instance 0 = %+v", inst)
	}
	if inst.MainWindow != 0x1A2B || inst.RenderWindow != 0x1A2C {
		t.Errorf("instance 0 windows = %v/%v", inst.MainWindow, inst.RenderWindow)
	}

	inst, ok = parseInstance(parsed.Get("3"), 3)
	if !ok {
		t.Fatal("parseInstance rejected the stopped row")
	}
	if inst.Index != 3 || inst.Running || !inst.MainWindow.IsZero() {
		t.Errorf("instance 3 = %+v", inst)
	}
}

func TestParseInstanceExplicitIndexWins(t *testing.T) {
	v := gjson.Parse(`{"index":"7","name":"solo","is_process_started":true}`)
	inst, ok := parseInstance(v, 0)
	if !ok || inst.Index != 7 {
		t.Errorf("instance = %+v, want explicit index 7", inst)
	}
}

func TestParseInstanceRejectsNonObject(t *testing.T) {
	if _, ok := parseInstance(gjson.Parse(`"just a string"`), 0); ok {
		t.Error("parseInstance accepted a non-object value")
	}
}

func TestValidShortcut(t *testing.T) {
	for _, cmd := range []ShortcutCommand{ShortcutHome, ShortcutBack, ShortcutMenu, ShortcutVolumeUp, ShortcutVolumeDown} {
		if !ValidShortcut(cmd) {
			t.Errorf("ValidShortcut(%q) = false", cmd)
		}
	}
	if ValidShortcut("rm -rf /") {
		t.Error("ValidShortcut accepted an arbitrary string")
	}
}
