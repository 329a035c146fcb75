// Package input entrega teclas às janelas dos clientes.
package input

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var ErrUnsupported = errors.New("input: key delivery not supported on this platform")

// Virtual Key Codes - Modificadores
const (
	VK_SHIFT    = 0x10
	VK_CONTROL  = 0x11
	VK_ALT      = 0x12
	VK_LSHIFT   = 0xA0
	VK_RSHIFT   = 0xA1
	VK_LCONTROL = 0xA2
	VK_RCONTROL = 0xA3
	VK_LMENU    = 0xA4 // Left ALT
	VK_RMENU    = 0xA5 // Right ALT
)

// Virtual Key Codes - Especiais
const (
	VK_BACK     = 0x08
	VK_TAB      = 0x09
	VK_RETURN   = 0x0D
	VK_ESCAPE   = 0x1B
	VK_SPACE    = 0x20
	VK_PAGEUP   = 0x21
	VK_PAGEDOWN = 0x22
	VK_END      = 0x23
	VK_HOME     = 0x24
	VK_INSERT   = 0x2D
	VK_DELETE   = 0x2E
)

// Letras e números usam o próprio código ASCII maiúsculo
const (
	VK_0  = 0x30
	VK_A  = 0x41
	VK_F1 = 0x70
)

var named = map[string]uint16{
	"LSHIFT":   VK_LSHIFT,
	"RSHIFT":   VK_RSHIFT,
	"SHIFT":    VK_SHIFT,
	"LCTRL":    VK_LCONTROL,
	"RCTRL":    VK_RCONTROL,
	"CTRL":     VK_CONTROL,
	"LCONTROL": VK_LCONTROL,
	"RCONTROL": VK_RCONTROL,
	"CONTROL":  VK_CONTROL,
	"LALT":     VK_LMENU,
	"RALT":     VK_RMENU,
	"ALT":      VK_ALT,

	"SPACE":    VK_SPACE,
	"ESC":      VK_ESCAPE,
	"ESCAPE":   VK_ESCAPE,
	"ENTER":    VK_RETURN,
	"RETURN":   VK_RETURN,
	"TAB":      VK_TAB,
	"BACK":     VK_BACK,
	"DELETE":   VK_DELETE,
	"INSERT":   VK_INSERT,
	"HOME":     VK_HOME,
	"END":      VK_END,
	"PAGEUP":   VK_PAGEUP,
	"PAGEDOWN": VK_PAGEDOWN,
}

// ParseKey converte o nome de uma tecla ("space", "F12", "e", "7") em VK code
func ParseKey(name string) (uint16, error) {
	k := strings.ToUpper(strings.TrimSpace(name))
	if k == "" {
		return 0, fmt.Errorf("empty key name")
	}
	if vk, ok := named[k]; ok {
		return vk, nil
	}
	if len(k) == 1 {
		c := k[0]
		switch {
		case c >= '0' && c <= '9':
			return VK_0 + uint16(c-'0'), nil
		case c >= 'A' && c <= 'Z':
			return VK_A + uint16(c-'A'), nil
		}
	}
	if k[0] == 'F' && len(k) <= 3 {
		if n, err := strconv.Atoi(k[1:]); err == nil && n >= 1 && n <= 12 {
			return VK_F1 + uint16(n-1), nil
		}
	}
	return 0, fmt.Errorf("unknown key: %s", name)
}

// ParseCombo converte "LALT+2" em [VK_LMENU, VK_2]. Modificadores vêm primeiro.
func ParseCombo(combo string) ([]uint16, error) {
	if strings.TrimSpace(combo) == "" {
		return nil, fmt.Errorf("empty key combo")
	}
	var out []uint16
	for _, part := range strings.Split(combo, "+") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		vk, err := ParseKey(part)
		if err != nil {
			return nil, err
		}
		out = append(out, vk)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("empty key combo")
	}
	return out, nil
}
