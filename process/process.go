package process

import (
	"fmt"
	"sort"
	"strings"

	gops "github.com/shirou/gopsutil/v3/process"
)

// FindProcesses retorna os PIDs de todos os processos com o nome dado, em ordem crescente
func FindProcesses(name string) ([]uint32, error) {
	procs, err := gops.Processes()
	if err != nil {
		return nil, fmt.Errorf("listing processes: %w", err)
	}

	var pids []uint32
	for _, p := range procs {
		procName, err := p.Name()
		if err != nil {
			continue
		}
		if strings.EqualFold(procName, name) {
			pids = append(pids, uint32(p.Pid))
		}
	}

	sort.Slice(pids, func(i, j int) bool { return pids[i] < pids[j] })
	return pids, nil
}

// FindFirst retorna o menor PID com o nome dado
func FindFirst(name string) (uint32, error) {
	pids, err := FindProcesses(name)
	if err != nil {
		return 0, err
	}
	if len(pids) == 0 {
		return 0, fmt.Errorf("process %s not found", name)
	}
	return pids[0], nil
}
