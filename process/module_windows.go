//go:build windows

package process

import (
	"fmt"
	"strings"
	"unsafe"

	"golang.org/x/sys/windows"
)

const PROCESS_ALL_ACCESS = 0x1F0FFF

// ModuleBase obtém o endereço base de um módulo carregado no processo
func ModuleBase(pid uint32, moduleName string) (uintptr, error) {
	snap, err := windows.CreateToolhelp32Snapshot(windows.TH32CS_SNAPMODULE|windows.TH32CS_SNAPMODULE32, pid)
	if err != nil {
		return 0, fmt.Errorf("module snapshot: %w", err)
	}
	defer windows.CloseHandle(snap)

	var me windows.ModuleEntry32
	me.Size = uint32(unsafe.Sizeof(me))

	if err := windows.Module32First(snap, &me); err != nil {
		return 0, fmt.Errorf("no modules found: %w", err)
	}

	for {
		name := windows.UTF16ToString(me.Module[:])
		if strings.EqualFold(name, moduleName) {
			return me.ModBaseAddr, nil
		}

		if err := windows.Module32Next(snap, &me); err != nil {
			break
		}
	}

	return 0, fmt.Errorf("module %s not found", moduleName)
}

// OpenProcess abre um processo para leitura/escrita
func OpenProcess(pid uint32) (windows.Handle, error) {
	handle, err := windows.OpenProcess(PROCESS_ALL_ACCESS, false, pid)
	if err != nil {
		return 0, err
	}
	return handle, nil
}
