package main

import (
	"fmt"
	"strings"
	"sync"
)

// Key naming crosses three spaces: Windows virtual-key codes (what the
// message and driver channels speak), Android keyevent codes (what the
// remote shell bridge speaks), and a lowercase alias space for callers.
// Callers may pass either a raw VK integer or an alias string.

// KeyCode is a resolved key in both naming spaces. Android is -1 when the
// key has no keyevent equivalent.
type KeyCode struct {
	Name     string
	VK       uint16
	ScanCode uint16
	Extended bool
	Android  int
}

// canonical alias -> KeyCode. Scan codes are the PC/AT set 1 values the
// message channels need to build WM_KEYDOWN lparams; receivers that
// inspect the scan-code field ignore a zero.
var keyTable = map[string]KeyCode{
	"escape":      {Name: "escape", VK: 0x1B, ScanCode: 0x01, Android: 111},
	"enter":       {Name: "enter", VK: 0x0D, ScanCode: 0x1C, Android: 66},
	"space":       {Name: "space", VK: 0x20, ScanCode: 0x39, Android: 62},
	"tab":         {Name: "tab", VK: 0x09, ScanCode: 0x0F, Android: 61},
	"backspace":   {Name: "backspace", VK: 0x08, ScanCode: 0x0E, Android: 67},
	"delete":      {Name: "delete", VK: 0x2E, ScanCode: 0x53, Extended: true, Android: 112},
	"insert":      {Name: "insert", VK: 0x2D, ScanCode: 0x52, Extended: true, Android: 124},
	"home":        {Name: "home", VK: 0x24, ScanCode: 0x47, Extended: true, Android: 122},
	"end":         {Name: "end", VK: 0x23, ScanCode: 0x4F, Extended: true, Android: 123},
	"page_up":     {Name: "page_up", VK: 0x21, ScanCode: 0x49, Extended: true, Android: 92},
	"page_down":   {Name: "page_down", VK: 0x22, ScanCode: 0x51, Extended: true, Android: 93},
	"up":          {Name: "up", VK: 0x26, ScanCode: 0x48, Extended: true, Android: 19},
	"down":        {Name: "down", VK: 0x28, ScanCode: 0x50, Extended: true, Android: 20},
	"left":        {Name: "left", VK: 0x25, ScanCode: 0x4B, Extended: true, Android: 21},
	"right":       {Name: "right", VK: 0x27, ScanCode: 0x4D, Extended: true, Android: 22},
	"shift_left":  {Name: "shift_left", VK: 0xA0, ScanCode: 0x2A, Android: 59},
	"shift_right": {Name: "shift_right", VK: 0xA1, ScanCode: 0x36, Android: 60},
	"ctrl_left":   {Name: "ctrl_left", VK: 0xA2, ScanCode: 0x1D, Android: 113},
	"ctrl_right":  {Name: "ctrl_right", VK: 0xA3, ScanCode: 0x1D, Extended: true, Android: 114},
	"alt_left":    {Name: "alt_left", VK: 0xA4, ScanCode: 0x38, Android: 57},
	"alt_right":   {Name: "alt_right", VK: 0xA5, ScanCode: 0x38, Extended: true, Android: 58},
	"win_left":    {Name: "win_left", VK: 0x5B, ScanCode: 0x5B, Extended: true, Android: -1},
	"caps_lock":   {Name: "caps_lock", VK: 0x14, ScanCode: 0x3A, Android: 115},
	"menu":        {Name: "menu", VK: 0x5D, ScanCode: 0x5D, Extended: true, Android: 82},
	"print":       {Name: "print", VK: 0x2C, ScanCode: 0x37, Extended: true, Android: 120},

	// Android-only navigation keys. No VK equivalent: the message and
	// driver channels reject them, only the remote bridge delivers them.
	"android_home":        {Name: "android_home", Android: 3},
	"android_back":        {Name: "android_back", Android: 4},
	"android_app_switch":  {Name: "android_app_switch", Android: 187},
	"android_power":       {Name: "android_power", Android: 26},
	"android_volume_up":   {Name: "android_volume_up", Android: 24},
	"android_volume_down": {Name: "android_volume_down", Android: 25},
}

// aliases maps the looser names callers actually type onto canonical
// table keys.
var keyAliases = map[string]string{
	" ":          "space",
	"esc":        "escape",
	"return":     "enter",
	"del":        "delete",
	"ins":        "insert",
	"pgup":       "page_up",
	"pgdn":       "page_down",
	"pageup":     "page_up",
	"pagedown":   "page_down",
	"ctrl":       "ctrl_left",
	"control":    "ctrl_left",
	"shift":      "shift_left",
	"alt":        "alt_left",
	"win":        "win_left",
	"windows":    "win_left",
	"capslock":   "caps_lock",
	"back":       "android_back",
	"arrowup":    "up",
	"arrowdown":  "down",
	"arrowleft":  "left",
	"arrowright": "right",
}

func init() {
	// Letters, digits and function keys are generated rather than
	// hand-listed. VK for 'a'..'z' is the upper-case ASCII value; Android
	// KEYCODE_A is 29 and the block is contiguous, as is KEYCODE_0 at 7.
	for c := byte('a'); c <= 'z'; c++ {
		name := string(c)
		keyTable[name] = KeyCode{
			Name:    name,
			VK:      uint16(c - 'a' + 'A'),
			Android: int(c-'a') + 29,
		}
	}
	for c := byte('0'); c <= '9'; c++ {
		name := string(c)
		keyTable[name] = KeyCode{
			Name:    name,
			VK:      uint16(c),
			Android: int(c-'0') + 7,
		}
	}
	for n := 1; n <= 12; n++ {
		name := fmt.Sprintf("f%d", n)
		keyTable[name] = KeyCode{
			Name:    name,
			VK:      uint16(0x70 + n - 1),
			Android: 131 + n - 1, // KEYCODE_F1..F12
		}
	}
}

// vkReverse is built once on first reverse lookup.
var (
	vkReverse     map[uint16]KeyCode
	vkReverseOnce sync.Once
)

func lookupByVK(vk uint16) (KeyCode, bool) {
	vkReverseOnce.Do(func() {
		vkReverse = make(map[uint16]KeyCode, len(keyTable))
		for _, kc := range keyTable {
			if kc.VK == 0 {
				continue
			}
			if _, exists := vkReverse[kc.VK]; !exists {
				vkReverse[kc.VK] = kc
			}
		}
	})
	kc, ok := vkReverse[vk]
	return kc, ok
}

// ResolveKey accepts a raw virtual-key integer (int, int32, int64, uint16,
// float64 from JSON) or an alias string and returns the resolved KeyCode.
func ResolveKey(key interface{}) (KeyCode, error) {
	switch v := key.(type) {
	case string:
		return resolveKeyName(v)
	case int:
		return resolveKeyVK(uint16(v))
	case int32:
		return resolveKeyVK(uint16(v))
	case int64:
		return resolveKeyVK(uint16(v))
	case uint16:
		return resolveKeyVK(v)
	case float64:
		return resolveKeyVK(uint16(v))
	case KeyCode:
		return v, nil
	default:
		return KeyCode{}, fmt.Errorf("unsupported key type %T", key)
	}
}

func resolveKeyName(name string) (KeyCode, error) {
	n := strings.ToLower(name)
	if n != " " {
		n = strings.TrimSpace(n)
	}
	if canonical, ok := keyAliases[n]; ok {
		n = canonical
	}
	if kc, ok := keyTable[n]; ok {
		return kc, nil
	}
	return KeyCode{}, fmt.Errorf("unknown key name %q", name)
}

func resolveKeyVK(vk uint16) (KeyCode, error) {
	if vk == 0 {
		return KeyCode{}, fmt.Errorf("virtual-key code 0 is not a key")
	}
	if kc, ok := lookupByVK(vk); ok {
		return kc, nil
	}
	// Unknown but plausibly valid VK: pass it through with no Android
	// mapping rather than refusing keys the table does not enumerate.
	return KeyCode{Name: fmt.Sprintf("vk_0x%02X", vk), VK: vk, Android: -1}, nil
}

// AndroidKeycode returns the keyevent code for a key, or an error when
// the key cannot be expressed on the Android side.
func AndroidKeycode(key interface{}) (int, error) {
	kc, err := ResolveKey(key)
	if err != nil {
		return 0, err
	}
	if kc.Android < 0 {
		return 0, fmt.Errorf("key %q has no Android keyevent code", kc.Name)
	}
	return kc.Android, nil
}
