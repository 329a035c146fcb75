// Package action implementa as ações coordenadas entre os clientes e o registro
// que as expõe com permissão e limite de uso.
package action

import (
	"fmt"
	"log/slog"

	"multibox/character"
	"multibox/config"
	"multibox/freeze"
	"multibox/memory"
	"multibox/party"
)

// flyStatusFlying é o valor de fly_status com o personagem em voo
const flyStatusFlying = 2

// Dispatcher entrega teclas aos clientes
type Dispatcher interface {
	PressAll(key string) error
	PressFor(key string, pids ...uint32) error
}

// Roster é a visão dos personagens acompanhados usada pelas ações
type Roster interface {
	Get(pid uint32) (*character.Character, bool)
	Valid() []*character.Character
}

// LootProbe responde se há loot perto de um ponto
type LootProbe interface {
	LootNear(x, y, radius float32) bool
}

type Options struct {
	ZThreshold    float32
	LeaderRadius  float32
	LeaderZOffset float32
	TargetZOffset float32
	LootRadius    float32
	PressKey      string
	DungeonPoints []config.DungeonPoint
	Logger        *slog.Logger
}

// OptionsFromSettings extrai as opções das configurações carregadas
func OptionsFromSettings(cfg *config.Settings) Options {
	return Options{
		ZThreshold:    cfg.Follow.ZThreshold,
		LeaderRadius:  cfg.Teleport.LeaderRadius,
		LeaderZOffset: cfg.Teleport.LeaderZOffset,
		TargetZOffset: cfg.Teleport.TargetZOffset,
		LootRadius:    cfg.Teleport.LootRadius,
		PressKey:      cfg.Teleport.PressKey,
		DungeonPoints: cfg.DungeonPoints,
	}
}

// Coordinator executa as ações de grupo sobre os personagens
type Coordinator struct {
	keys   Dispatcher
	roster Roster
	ticker *freeze.Ticker
	opts   Options
	log    *slog.Logger
}

func NewCoordinator(keys Dispatcher, roster Roster, ticker *freeze.Ticker, opts Options) *Coordinator {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.PressKey == "" {
		opts.PressKey = "space"
	}
	return &Coordinator{
		keys:   keys,
		roster: roster,
		ticker: ticker,
		opts:   opts,
		log:    opts.Logger,
	}
}

// TeleportOne escreve a posição sem checar distância nem localização
func (co *Coordinator) TeleportOne(c *character.Character, x, y, z float32, press bool) bool {
	if c == nil || !c.IsValid() {
		return false
	}
	if !c.Snap.SetPosition(x, y, z) {
		return false
	}
	if press {
		if err := co.keys.PressFor(co.opts.PressKey, c.PID); err != nil {
			co.log.Warn("key press failed", "pid", c.PID, "err", err)
		}
	}
	return true
}

// TeleportMany escreve a posição em todos os vivos e pressiona a tecla uma única vez
func (co *Coordinator) TeleportMany(chars []*character.Character, x, y, z float32, press bool) int {
	n := 0
	for _, c := range chars {
		if c == nil || !c.IsValid() {
			continue
		}
		if c.Snap.SetPosition(x, y, z) {
			n++
		}
	}
	if press && n > 0 {
		if err := co.keys.PressAll(co.opts.PressKey); err != nil {
			co.log.Warn("key press failed", "err", err)
		}
	}
	return n
}

// Follow corrige a altura dos membros em relação ao líder em voo com um override
// contínuo de fly_speed_z. Retorna quantos membros estão sendo corrigidos.
func (co *Coordinator) Follow(topo *party.Topology) int {
	if topo.Empty() {
		co.StopFollow()
		return 0
	}

	leader := topo.Leader
	leader.Refresh()
	others := topo.Others()
	co.releaseStale(others)

	status, _ := leader.Snap.FlyStatus()
	_, _, leaderZ, okPos := leader.Snap.Position()
	speed, okSpeed := leader.Snap.FlySpeed()
	if status != flyStatusFlying || !okPos || !okSpeed {
		for _, m := range others {
			co.release(m)
		}
		return 0
	}
	leaderLoc, leaderHasLoc := leader.Snap.LocationID()

	active := 0
	for _, m := range others {
		m.Refresh()
		if !m.IsValid() {
			co.release(m)
			continue
		}
		loc, hasLoc := m.Snap.LocationID()
		if !leaderHasLoc || !hasLoc || loc != leaderLoc {
			co.release(m)
			continue
		}
		_, _, z, ok := m.Snap.Position()
		if !ok {
			continue
		}

		diff := z - leaderZ
		switch {
		case diff < -co.opts.ZThreshold:
			if co.engage(m, speed) {
				active++
			}
		case diff > co.opts.ZThreshold:
			if co.engage(m, -speed) {
				active++
			}
		default:
			co.release(m)
		}
	}
	return active
}

// engage registra o override de velocidade vertical. O valor também é escrito
// uma vez na hora para não esperar o próximo tick.
func (co *Coordinator) engage(c *character.Character, speed float32) bool {
	if o, ok := co.ticker.Get(c.PID); ok && o.Value == speed {
		return true
	}
	addr, ok := c.Snap.FieldAddress("fly_speed_z")
	if !ok {
		return false
	}
	c.Snap.SetFlySpeedZ(speed)
	co.ticker.Set(c.PID, freeze.Override{W: c.Mem, Addr: addr, Value: speed})
	return true
}

// release remove o override e zera a velocidade vertical se havia um
func (co *Coordinator) release(c *character.Character) {
	if co.ticker.Clear(c.PID) {
		c.Snap.SetFlySpeedZ(0)
	}
}

// releaseStale solta os overrides de PIDs que não estão mais entre os seguidores
func (co *Coordinator) releaseStale(others []*character.Character) {
	keep := make(map[uint32]bool, len(others))
	for _, m := range others {
		keep[m.PID] = true
	}
	for _, pid := range co.ticker.PIDs() {
		if keep[pid] || !co.ticker.Clear(pid) {
			continue
		}
		if c, ok := co.roster.Get(pid); ok {
			c.Snap.SetFlySpeedZ(0)
		}
	}
}

// StopFollow remove todos os overrides e zera a velocidade de quem tinha um
func (co *Coordinator) StopFollow() int {
	pids := co.ticker.ClearAll()
	for _, pid := range pids {
		if c, ok := co.roster.Get(pid); ok {
			c.Snap.SetFlySpeedZ(0)
		}
	}
	return len(pids)
}

// CopyLeaderTarget copia o target_id do líder para os outros membros
func (co *Coordinator) CopyLeaderTarget(topo *party.Topology) int {
	if topo.Empty() {
		return 0
	}
	leader := topo.Leader
	leader.Refresh()
	target, ok := leader.Snap.TargetID()
	if !ok || target == 0 {
		return 0
	}

	n := 0
	for _, m := range topo.Others() {
		if m.Snap.SetTargetID(target) {
			n++
			m.Behavior().OnCombat(m, target)
		}
	}
	return n
}

// TeleportToTarget leva o personagem ao seu alvo, um pouco acima, sem tecla
func (co *Coordinator) TeleportToTarget(c *character.Character) bool {
	if c == nil {
		return false
	}
	x, y, z, ok := c.Snap.GetTargetPosition()
	if !ok {
		return false
	}
	return co.TeleportOne(c, x, y, z+co.opts.TargetZOffset, false)
}

// TeleportToLeader leva ao líder os membros dentro do raio
func (co *Coordinator) TeleportToLeader(topo *party.Topology) int {
	if topo.Empty() {
		co.log.Warn("tp to leader: no valid leader")
		return 0
	}
	leader := topo.Leader
	leader.Refresh()
	lx, ly, lz, ok := leader.Snap.Position()
	if !ok {
		co.log.Warn("tp to leader: leader position unavailable", "pid", leader.PID)
		return 0
	}

	var near []*character.Character
	for _, m := range topo.Others() {
		m.Refresh()
		x, y, z, ok := m.Snap.Position()
		if !ok {
			continue
		}
		if memory.Distance(x, y, z, lx, ly, lz) <= co.opts.LeaderRadius {
			near = append(near, m)
		}
	}
	return co.TeleportMany(near, lx, ly, lz+co.opts.LeaderZOffset, true)
}

// TeleportToPoint leva o personagem ao alvo do ponto se ele estiver na caixa do gatilho
func (co *Coordinator) TeleportToPoint(c *character.Character, p config.DungeonPoint) bool {
	if c == nil {
		return false
	}
	c.Refresh()
	x, y, _, ok := c.Snap.Position()
	if !ok {
		return false
	}
	if !p.InTrigger(x, y) {
		co.log.Info("not in trigger zone", "point", p.Name, "name", c.Name())
		return false
	}
	return co.TeleportOne(c, p.Target.X, p.Target.Y, p.Target.Z, true)
}

// TeleportToSpecial leva ao ponto fixo o personagem ativo (solo) ou o grupo (party)
func (co *Coordinator) TeleportToSpecial(active *character.Character, topo *party.Topology, p config.Point) int {
	t := p.Target
	if p.Mode == config.ModeParty {
		if topo.Empty() {
			return 0
		}
		return co.TeleportMany(topo.Members, t.X, t.Y, t.Z, true)
	}
	if co.TeleportOne(active, t.X, t.Y, t.Z, true) {
		return 1
	}
	return 0
}

// CheckDungeonPoints avalia a rota: pontos solo para o personagem ativo e pontos
// de grupo só quando o ativo é o líder. Retorna uma linha de status.
func (co *Coordinator) CheckDungeonPoints(active *character.Character, topo *party.Topology, loot LootProbe) string {
	if active == nil {
		return "no active window"
	}
	active.Refresh()
	isLeader := !topo.Empty() && topo.Leader == active
	if isLeader {
		for _, m := range topo.Members {
			if m != active {
				m.Refresh()
			}
		}
	}

	for _, p := range co.opts.DungeonPoints {
		switch {
		case p.Mode == config.ModeSolo:
			if status, ok := co.checkSolo(active, p, loot); ok {
				return status
			}
		case p.Mode == config.ModeParty && isLeader:
			if status, ok := co.checkParty(topo, p, loot); ok {
				return status
			}
		}
	}
	return "no trigger points active"
}

func (co *Coordinator) checkSolo(c *character.Character, p config.DungeonPoint, loot LootProbe) (string, bool) {
	x, y, _, ok := c.Snap.Position()
	if !ok || !p.InTrigger(x, y) {
		return "", false
	}
	if p.CheckLoot && loot != nil && loot.LootNear(x, y, co.opts.LootRadius) {
		return fmt.Sprintf("%s (solo) waiting for loot", p.Name), true
	}
	co.TeleportOne(c, p.Target.X, p.Target.Y, p.Target.Z, true)
	co.log.Info("dungeon point", "point", p.Name, "mode", p.Mode, "name", c.Name())
	return fmt.Sprintf("%s (solo) teleported", p.Name), true
}

func (co *Coordinator) checkParty(topo *party.Topology, p config.DungeonPoint, loot LootProbe) (string, bool) {
	lx, ly, _, ok := topo.Leader.Snap.Position()
	if !ok || !p.InTrigger(lx, ly) {
		return "", false
	}

	var ready []*character.Character
	for _, m := range topo.Members {
		x, y, _, ok := m.Snap.Position()
		if ok && p.InTrigger(x, y) {
			ready = append(ready, m)
		}
	}
	total := len(topo.Members)
	if len(ready) < total {
		return fmt.Sprintf("%s (party) %d/%d ready", p.Name, len(ready), total), true
	}
	if p.CheckLoot && loot != nil && loot.LootNear(lx, ly, co.opts.LootRadius) {
		return fmt.Sprintf("%s (party) %d/%d ready, waiting for loot", p.Name, len(ready), total), true
	}

	n := co.TeleportMany(ready, p.Target.X, p.Target.Y, p.Target.Z, true)
	if n == 0 {
		return "", false
	}
	co.log.Info("dungeon point", "point", p.Name, "mode", p.Mode, "teleported", n, "total", total)
	return fmt.Sprintf("%s (party) teleported %d/%d", p.Name, n, total), true
}

// Next leva o grupo (ou todos, sem grupo) ao alvo do primeiro ponto cujo gatilho
// contém o personagem ativo, ou o líder quando não há ativo. Sem checar loot.
func (co *Coordinator) Next(active *character.Character, topo *party.Topology) (string, int) {
	trigger := active
	if trigger == nil && !topo.Empty() {
		trigger = topo.Leader
	}
	if trigger == nil {
		return "", 0
	}
	trigger.Refresh()
	x, y, _, ok := trigger.Snap.Position()
	if !ok {
		return "", 0
	}

	for _, p := range co.opts.DungeonPoints {
		if !p.InTrigger(x, y) {
			continue
		}
		chars := co.roster.Valid()
		if !topo.Empty() {
			chars = topo.Members
		}
		n := co.TeleportMany(chars, p.Target.X, p.Target.Y, p.Target.Z, true)
		return p.Name, n
	}
	return "", 0
}
