//go:build windows

package hotkey

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"time"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	user32               = windows.NewLazyDLL("user32.dll")
	procRegisterHotKey   = user32.NewProc("RegisterHotKey")
	procUnregisterHotKey = user32.NewProc("UnregisterHotKey")
	procPeekMessage      = user32.NewProc("PeekMessageW")
)

const (
	WM_HOTKEY = 0x0312
	PM_REMOVE = 0x0001
)

type msg struct {
	hwnd    uintptr
	message uint32
	wParam  uintptr
	lParam  uintptr
	time    uint32
	pt      struct{ x, y int32 }
}

// Listen registra as hotkeys na thread atual e chama fire com a ação de cada
// WM_HOTKEY até ctx acabar. fire não deve bloquear.
func Listen(ctx context.Context, bindings []Binding, fire func(action string), log *slog.Logger) error {
	if log == nil {
		log = slog.Default()
	}
	// RegisterHotKey entrega as mensagens na fila da thread que registrou
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	byID := make(map[int]Binding, len(bindings))
	defer func() {
		for id := range byID {
			procUnregisterHotKey.Call(0, uintptr(id))
		}
	}()
	for _, b := range bindings {
		ret, _, err := procRegisterHotKey.Call(0, uintptr(b.ID), uintptr(b.Mods|MOD_NOREPEAT), uintptr(b.VK))
		if ret == 0 {
			return fmt.Errorf("falha ao registrar hotkey %s: %w", b.Combo, err)
		}
		byID[b.ID] = b
		log.Debug("hotkey registered", "combo", b.Combo, "action", b.Action)
	}

	var m msg
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		ret, _, _ := procPeekMessage.Call(uintptr(unsafe.Pointer(&m)), 0, 0, 0, PM_REMOVE)
		if ret == 0 {
			time.Sleep(10 * time.Millisecond)
			continue
		}
		if m.message != WM_HOTKEY {
			continue
		}
		if b, ok := byID[int(m.wParam)]; ok {
			fire(b.Action)
		}
	}
}
