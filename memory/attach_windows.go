//go:build windows

package memory

import (
	"fmt"

	"github.com/sasha-s/go-deadlock"
	"golang.org/x/sys/windows"

	"multibox/process"
)

const stillActive = 259

type winProcess struct {
	mu     deadlock.RWMutex
	handle windows.Handle
	closed bool
}

// Attach abre o processo com acesso total e resolve a base do módulo
func Attach(pid uint32, module string) (*Accessor, error) {
	handle, err := process.OpenProcess(pid)
	if err != nil {
		return nil, fmt.Errorf("open process %d: %w", pid, err)
	}

	base, err := process.ModuleBase(pid, module)
	if err != nil {
		windows.CloseHandle(handle)
		return nil, fmt.Errorf("module %s in process %d: %w", module, pid, err)
	}

	return New(&winProcess{handle: handle}, pid, module, base), nil
}

func (p *winProcess) ReadMemory(addr uintptr, buf []byte) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrProcessClosed
	}

	var read uintptr
	err := windows.ReadProcessMemory(p.handle, addr, &buf[0], uintptr(len(buf)), &read)
	if err != nil {
		return fmt.Errorf("read 0x%X: %w", addr, err)
	}
	if int(read) != len(buf) {
		return ErrShortRead
	}
	return nil
}

func (p *winProcess) WriteMemory(addr uintptr, data []byte) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrProcessClosed
	}

	var written uintptr
	err := windows.WriteProcessMemory(p.handle, addr, &data[0], uintptr(len(data)), &written)
	if err != nil {
		return fmt.Errorf("write 0x%X: %w", addr, err)
	}
	if int(written) != len(data) {
		return fmt.Errorf("write 0x%X: wrote %d of %d bytes", addr, written, len(data))
	}
	return nil
}

func (p *winProcess) IsAlive() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return false
	}

	var code uint32
	if err := windows.GetExitCodeProcess(p.handle, &code); err != nil {
		return false
	}
	return code == stillActive
}

func (p *winProcess) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	return windows.CloseHandle(p.handle)
}
