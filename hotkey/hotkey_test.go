package hotkey

import (
	"testing"

	"multibox/input"
)

func TestParseCombo(t *testing.T) {
	cases := []struct {
		combo string
		mods  uint32
		vk    uint32
	}{
		{"F1", 0, input.VK_F1},
		{"CTRL+F2", MOD_CONTROL, input.VK_F1 + 1},
		{"LALT+LSHIFT+3", MOD_ALT | MOD_SHIFT, input.VK_0 + 3},
	}
	for _, tc := range cases {
		t.Run(tc.combo, func(t *testing.T) {
			mods, vk, err := ParseCombo(tc.combo)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if mods != tc.mods || vk != tc.vk {
				t.Fatalf("expected mods 0x%X vk 0x%X, got 0x%X 0x%X", tc.mods, tc.vk, mods, vk)
			}
		})
	}

	for _, bad := range []string{"", "CTRL", "A+B", "CTRL+nope"} {
		if _, _, err := ParseCombo(bad); err == nil {
			t.Fatalf("expected %q to fail", bad)
		}
	}
}

func TestBindings(t *testing.T) {
	got, err := Bindings(map[string]string{"F2": "attack", "F1": "follow"})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(got) != 2 || got[0].Action != "follow" || got[0].ID != 1 || got[1].ID != 2 {
		t.Fatalf("unexpected bindings %+v", got)
	}

	if _, err := Bindings(map[string]string{"CTRL+F1": "a", "LCTRL+F1": "b"}); err == nil {
		t.Fatalf("expected duplicate combo to fail")
	}
}
