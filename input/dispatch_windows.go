//go:build windows

package input

import (
	"fmt"
	"time"
	"unsafe"

	"github.com/sasha-s/go-deadlock"
	"golang.org/x/sys/windows"
)

var (
	user32                       = windows.NewLazySystemDLL("user32.dll")
	procEnumWindows              = user32.NewProc("EnumWindows")
	procGetWindowThreadProcessId = user32.NewProc("GetWindowThreadProcessId")
	procIsWindowVisible          = user32.NewProc("IsWindowVisible")
	procPostMessageW             = user32.NewProc("PostMessageW")
	procMapVirtualKeyW           = user32.NewProc("MapVirtualKeyW")
	procGetForegroundWindow      = user32.NewProc("GetForegroundWindow")
)

const (
	WM_KEYDOWN = 0x0100
	WM_KEYUP   = 0x0101
)

// estado do EnumWindows: o callback é criado uma vez só
var (
	enumMu     deadlock.Mutex
	enumWanted map[uint32]bool
	enumFound  map[uint32][]uintptr
	enumProc   = windows.NewCallback(enumWindowsCallback)
)

func enumWindowsCallback(hwnd uintptr, _ uintptr) uintptr {
	var pid uint32
	procGetWindowThreadProcessId.Call(hwnd, uintptr(unsafe.Pointer(&pid)))
	if !enumWanted[pid] {
		return 1
	}
	if visible, _, _ := procIsWindowVisible.Call(hwnd); visible == 0 {
		return 1
	}
	enumFound[pid] = append(enumFound[pid], hwnd)
	return 1
}

// windowsOf retorna as janelas visíveis de cada PID
func windowsOf(pids []uint32) map[uint32][]uintptr {
	enumMu.Lock()
	defer enumMu.Unlock()

	enumWanted = make(map[uint32]bool, len(pids))
	for _, pid := range pids {
		enumWanted[pid] = true
	}
	enumFound = make(map[uint32][]uintptr)
	procEnumWindows.Call(enumProc, 0)
	return enumFound
}

// Dispatcher envia teclas via PostMessage para as janelas dos clientes,
// sem depender de foco
type Dispatcher struct {
	pids  func() []uint32
	delay time.Duration
}

// NewDispatcher recebe a fonte dos PIDs usados por PressAll
func NewDispatcher(pids func() []uint32) *Dispatcher {
	return &Dispatcher{pids: pids, delay: 20 * time.Millisecond}
}

// PressAll envia a tecla para todos os clientes acompanhados
func (d *Dispatcher) PressAll(key string) error {
	return d.PressFor(key, d.pids()...)
}

// PressFor envia a tecla (ou combo "LALT+2") para as janelas dos PIDs informados
func (d *Dispatcher) PressFor(key string, pids ...uint32) error {
	keys, err := ParseCombo(key)
	if err != nil {
		return err
	}
	if len(pids) == 0 {
		return nil
	}

	wins := windowsOf(pids)
	sent := 0
	for _, pid := range pids {
		for _, hwnd := range wins[pid] {
			if err := d.post(hwnd, keys); err != nil {
				return fmt.Errorf("pid %d: %w", pid, err)
			}
			sent++
		}
	}
	if sent == 0 {
		return fmt.Errorf("no window found for pids %v", pids)
	}
	return nil
}

func (d *Dispatcher) post(hwnd uintptr, keys []uint16) error {
	for _, vk := range keys {
		if ret, _, err := procPostMessageW.Call(hwnd, WM_KEYDOWN, uintptr(vk), keyParam(vk, false)); ret == 0 {
			return fmt.Errorf("falha ao enviar key down para vk %d: %w", vk, err)
		}
	}
	time.Sleep(d.delay)
	for i := len(keys) - 1; i >= 0; i-- {
		if ret, _, err := procPostMessageW.Call(hwnd, WM_KEYUP, uintptr(keys[i]), keyParam(keys[i], true)); ret == 0 {
			return fmt.Errorf("falha ao enviar key up para vk %d: %w", keys[i], err)
		}
	}
	return nil
}

// keyParam monta o lParam: repeat count 1, scan code nos bits 16-23
func keyParam(vk uint16, up bool) uintptr {
	scan, _, _ := procMapVirtualKeyW.Call(uintptr(vk), 0)
	lp := uintptr(1) | (scan&0xFF)<<16
	if up {
		lp |= 0xC0000000
	}
	return lp
}

// ForegroundPID retorna o PID dono da janela em foco
func ForegroundPID() (uint32, bool) {
	hwnd, _, _ := procGetForegroundWindow.Call()
	if hwnd == 0 {
		return 0, false
	}
	var pid uint32
	procGetWindowThreadProcessId.Call(hwnd, uintptr(unsafe.Pointer(&pid)))
	return pid, pid != 0
}
