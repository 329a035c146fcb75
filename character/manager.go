package character

import (
	"fmt"
	"log/slog"

	"multibox/memory"
	"multibox/offset"
	"multibox/process"
)

// FindFunc lista os PIDs dos clientes pelo nome do executável
type FindFunc func(name string) ([]uint32, error)

// AttachFunc abre o processo e resolve a base do módulo
type AttachFunc func(pid uint32, module string) (*memory.Accessor, error)

type ManagerOptions struct {
	ProcessName string
	ModuleName  string
	Find        FindFunc
	Attach      AttachFunc
	Logger      *slog.Logger
}

// Manager acompanha um Character por processo. Não é seguro para uso concorrente:
// é dirigido pelo loop principal.
type Manager struct {
	opts ManagerOptions
	res  *offset.Resolver
	log  *slog.Logger

	chars    map[uint32]*Character
	order    []uint32
	byID     map[int32]uint32
	failed   map[uint32]bool
	onRemove []func(pid uint32)
}

func NewManager(res *offset.Resolver, opts ManagerOptions) *Manager {
	if opts.Find == nil {
		opts.Find = process.FindProcesses
	}
	if opts.Attach == nil {
		opts.Attach = memory.Attach
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Manager{
		opts:   opts,
		res:    res,
		log:    opts.Logger,
		chars:  make(map[uint32]*Character),
		byID:   make(map[int32]uint32),
		failed: make(map[uint32]bool),
	}
}

// OnRemove registra um callback chamado quando um processo deixa de ser acompanhado
func (m *Manager) OnRemove(fn func(pid uint32)) {
	m.onRemove = append(m.onRemove, fn)
}

// Scan sincroniza com a lista de processos: remove os que fecharam, recria os
// inválidos e anexa os novos. Falha de attach é registrada uma vez por PID.
func (m *Manager) Scan() error {
	pids, err := m.opts.Find(m.opts.ProcessName)
	if err != nil {
		return fmt.Errorf("listing processes: %w", err)
	}
	current := make(map[uint32]bool, len(pids))
	for _, pid := range pids {
		current[pid] = true
	}

	for _, pid := range append([]uint32(nil), m.order...) {
		c := m.chars[pid]
		if !current[pid] || !c.Mem.IsAlive() {
			m.remove(pid)
		}
	}

	for _, pid := range m.order {
		c := m.chars[pid]
		c.Refresh()
		if !c.Snap.IsValid() {
			m.chars[pid] = New(c.Mem, m.res, m.log)
		}
	}

	for _, pid := range pids {
		if _, ok := m.chars[pid]; ok {
			continue
		}
		mem, err := m.opts.Attach(pid, m.opts.ModuleName)
		if err != nil {
			if !m.failed[pid] {
				m.failed[pid] = true
				m.log.Warn("attach failed", "pid", pid, "err", err)
			}
			continue
		}
		delete(m.failed, pid)

		c := New(mem, m.res, m.log)
		m.chars[pid] = c
		m.order = append(m.order, pid)
		m.log.Info("character attached", "pid", pid, "char_id", c.ID(), "name", c.Name())
	}

	for pid := range m.failed {
		if !current[pid] {
			delete(m.failed, pid)
		}
	}

	m.rebuildIndex()
	return nil
}

func (m *Manager) remove(pid uint32) {
	c, ok := m.chars[pid]
	if !ok {
		return
	}
	if err := c.Close(); err != nil {
		m.log.Warn("close failed", "pid", pid, "err", err)
	}
	delete(m.chars, pid)
	for i, p := range m.order {
		if p == pid {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	m.log.Info("process removed", "pid", pid)
	for _, fn := range m.onRemove {
		fn(pid)
	}
}

func (m *Manager) rebuildIndex() {
	clear(m.byID)
	for _, pid := range m.order {
		c := m.chars[pid]
		if c.IsValid() {
			m.byID[c.ID()] = pid
		}
	}
}

// RefreshAll relê todos os snapshots na ordem de anexação
func (m *Manager) RefreshAll() {
	for _, pid := range m.order {
		m.chars[pid].Refresh()
	}
	m.rebuildIndex()
}

// Characters retorna todos os personagens acompanhados, principal primeiro
func (m *Manager) Characters() []*Character {
	out := make([]*Character, 0, len(m.order))
	for _, pid := range m.order {
		out = append(out, m.chars[pid])
	}
	return out
}

// Valid retorna os personagens válidos, principal primeiro
func (m *Manager) Valid() []*Character {
	out := make([]*Character, 0, len(m.order))
	for _, pid := range m.order {
		if c := m.chars[pid]; c.IsValid() {
			out = append(out, c)
		}
	}
	return out
}

func (m *Manager) Get(pid uint32) (*Character, bool) {
	c, ok := m.chars[pid]
	return c, ok
}

// Main é o primeiro processo anexado ainda vivo
func (m *Manager) Main() (*Character, bool) {
	if len(m.order) == 0 {
		return nil, false
	}
	return m.chars[m.order[0]], true
}

// ByCharID encontra o personagem pelo char_id. Usa o índice e, na falta, varre todos.
func (m *Manager) ByCharID(id int32) (*Character, bool) {
	if id == 0 {
		return nil, false
	}
	if pid, ok := m.byID[id]; ok {
		if c, ok := m.chars[pid]; ok && c.ID() == id && c.IsValid() {
			return c, true
		}
	}
	for _, pid := range m.order {
		if c := m.chars[pid]; c.IsValid() && c.ID() == id {
			m.byID[id] = pid
			return c, true
		}
	}
	return nil, false
}

func (m *Manager) Len() int { return len(m.order) }

// Close libera todos os handles
func (m *Manager) Close() {
	for _, pid := range append([]uint32(nil), m.order...) {
		m.remove(pid)
	}
}
