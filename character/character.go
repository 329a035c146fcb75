// Package character representa os clientes anexados e o gerenciador que os acompanha.
package character

import (
	"log/slog"

	"multibox/entity"
	"multibox/memory"
	"multibox/offset"
)

// Character é um cliente anexado: dono único do seu Accessor
type Character struct {
	PID  uint32
	Mem  *memory.Accessor
	Snap *entity.Snapshot

	log      *slog.Logger
	role     Role
	behavior Behavior

	// triggers de voo descobertos observando fly_status
	flyOn, flyOff       int32
	hasFlyOn, hasFlyOff bool
}

// New cria o personagem e faz a primeira leitura
func New(mem *memory.Accessor, res *offset.Resolver, log *slog.Logger) *Character {
	if log == nil {
		log = slog.Default()
	}
	log = log.With("pid", mem.PID())
	c := &Character{
		PID:  mem.PID(),
		Mem:  mem,
		Snap: entity.NewSnapshot(mem, res, log),
		log:  log,
		role: Unknown,
	}
	c.behavior = BehaviorFor(c.role)
	c.Refresh()
	return c
}

// Refresh atualiza o snapshot. Troca de personagem reseta os triggers de voo.
func (c *Character) Refresh() {
	if c.Snap.Refresh() {
		c.resetFlight()
	}
	role := Unknown
	if class, ok := c.Snap.Class(); ok {
		role = RoleFromClass(class)
	}
	if role != c.role {
		c.role = role
		c.behavior = BehaviorFor(role)
	}
}

// IsValid exige processo vivo e char_id diferente de zero
func (c *Character) IsValid() bool {
	return c.Mem.IsAlive() && c.Snap.IsValid()
}

func (c *Character) ID() int32 { return c.Snap.ID() }
func (c *Character) Role() Role { return c.role }
func (c *Character) Behavior() Behavior { return c.behavior }

// Name retorna o nome lido ou "?" quando indisponível
func (c *Character) Name() string {
	if n, ok := c.Snap.Name(); ok && n != "" {
		return n
	}
	return "?"
}

func (c *Character) resetFlight() {
	c.flyOn, c.flyOff = 0, 0
	c.hasFlyOn, c.hasFlyOff = false, false
}

// UpdateFlyTriggerCache registra o valor de fly_trigger para o estado de voo atual.
// Para de observar quando os dois valores já foram vistos.
func (c *Character) UpdateFlyTriggerCache() {
	if c.CanControlFlight() {
		return
	}
	status, ok := c.Snap.Resolve("fly_status")
	if !ok {
		return
	}
	trigger, ok := c.Snap.Resolve("fly_trigger")
	if !ok {
		return
	}

	if status.Int32() == 1 {
		if !c.hasFlyOn {
			c.flyOn, c.hasFlyOn = trigger.Int32(), true
			c.log.Info("fly trigger found", "state", "on", "trigger", c.flyOn)
		}
		return
	}
	if !c.hasFlyOff {
		c.flyOff, c.hasFlyOff = trigger.Int32(), true
		c.log.Info("fly trigger found", "state", "off", "trigger", c.flyOff)
	}
}

// CanControlFlight indica se os dois triggers já são conhecidos
func (c *Character) CanControlFlight() bool {
	return c.hasFlyOn && c.hasFlyOff
}

// SetFlightState escreve o trigger gravado para o estado pedido
func (c *Character) SetFlightState(fly bool) bool {
	if !c.CanControlFlight() {
		return false
	}
	addr, ok := c.Snap.FieldAddress("fly_trigger")
	if !ok {
		return false
	}
	v := c.flyOff
	if fly {
		v = c.flyOn
	}
	return c.Mem.WriteI32(addr, v)
}

// Close libera o handle do processo
func (c *Character) Close() error {
	return c.Mem.Close()
}
