// Package hotkey liga combinações globais de teclas às ações do multibox.
package hotkey

import (
	"errors"
	"fmt"
	"sort"

	"multibox/input"
)

var ErrUnsupported = errors.New("hotkey: global hotkeys not supported on this platform")

// Modificadores aceitos por RegisterHotKey
const (
	MOD_ALT      = 0x0001
	MOD_CONTROL  = 0x0002
	MOD_SHIFT    = 0x0004
	MOD_NOREPEAT = 0x4000
)

var modifiers = map[uint16]uint32{
	input.VK_SHIFT:    MOD_SHIFT,
	input.VK_LSHIFT:   MOD_SHIFT,
	input.VK_RSHIFT:   MOD_SHIFT,
	input.VK_CONTROL:  MOD_CONTROL,
	input.VK_LCONTROL: MOD_CONTROL,
	input.VK_RCONTROL: MOD_CONTROL,
	input.VK_ALT:      MOD_ALT,
	input.VK_LMENU:    MOD_ALT,
	input.VK_RMENU:    MOD_ALT,
}

// Binding é uma hotkey registrada: id do WM_HOTKEY, modificadores, tecla e ação
type Binding struct {
	ID     int
	Combo  string
	Mods   uint32
	VK     uint32
	Action string
}

// ParseCombo separa "CTRL+F1" em modificadores e tecla. Exige exatamente uma
// tecla que não seja modificador, no fim.
func ParseCombo(combo string) (mods uint32, vk uint32, err error) {
	keys, err := input.ParseCombo(combo)
	if err != nil {
		return 0, 0, err
	}
	for i, k := range keys {
		m, isMod := modifiers[k]
		last := i == len(keys)-1
		switch {
		case isMod && last:
			return 0, 0, fmt.Errorf("hotkey %q ends with a modifier", combo)
		case isMod:
			mods |= m
		case !last:
			return 0, 0, fmt.Errorf("hotkey %q has more than one key", combo)
		default:
			vk = uint32(k)
		}
	}
	return mods, vk, nil
}

// Bindings monta as hotkeys a partir do mapa combo -> ação, em ordem de combo
func Bindings(combos map[string]string) ([]Binding, error) {
	names := make([]string, 0, len(combos))
	for combo := range combos {
		names = append(names, combo)
	}
	sort.Strings(names)

	seen := make(map[[2]uint32]string)
	out := make([]Binding, 0, len(names))
	for i, combo := range names {
		mods, vk, err := ParseCombo(combo)
		if err != nil {
			return nil, err
		}
		key := [2]uint32{mods, vk}
		if prev, ok := seen[key]; ok {
			return nil, fmt.Errorf("hotkey %q duplicates %q", combo, prev)
		}
		seen[key] = combo
		out = append(out, Binding{ID: i + 1, Combo: combo, Mods: mods, VK: vk, Action: combos[combo]})
	}
	return out, nil
}
