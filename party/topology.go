// Package party monta a visão de grupo (líder, membros, localização) a partir dos clientes anexados.
package party

import (
	"log/slog"
	"time"

	"github.com/sasha-s/go-deadlock"

	"multibox/character"
)

// MemberInfo é o resumo de um membro no momento da montagem
type MemberInfo struct {
	PID        uint32
	CharID     int32
	LocationID int32
	HasLoc     bool
	Name       string
}

// Topology é a visão de grupo. Leader nil significa "sem grupo utilizável".
type Topology struct {
	Built   time.Time
	Leader  *character.Character
	Members []*character.Character // inclui o líder
	Info    map[uint32]MemberInfo  // por PID
}

func (t *Topology) Empty() bool { return t == nil || t.Leader == nil }

// Others retorna os membros exceto o líder
func (t *Topology) Others() []*character.Character {
	if t.Empty() {
		return nil
	}
	out := make([]*character.Character, 0, len(t.Members))
	for _, m := range t.Members {
		if m != t.Leader {
			out = append(out, m)
		}
	}
	return out
}

// Has indica se o personagem faz parte do grupo
func (t *Topology) Has(c *character.Character) bool {
	if t.Empty() || c == nil {
		return false
	}
	_, ok := t.Info[c.PID]
	return ok
}

// Roster é o conjunto de personagens acompanhados
type Roster interface {
	Characters() []*character.Character
	ByCharID(id int32) (*character.Character, bool)
}

// Cache guarda a topologia por ttl
type Cache struct {
	roster Roster
	ttl    time.Duration
	now    func() time.Time
	log    *slog.Logger

	mu       deadlock.Mutex
	current  *Topology
	rebuilds int
}

type Option func(*Cache)

// WithClock troca o relógio (testes)
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

func WithLogger(log *slog.Logger) Option {
	return func(c *Cache) { c.log = log }
}

func NewCache(roster Roster, ttl time.Duration, opts ...Option) *Cache {
	c := &Cache{
		roster: roster,
		ttl:    ttl,
		now:    time.Now,
		log:    slog.Default(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Get retorna a topologia atual, remontando se force ou se passou do ttl
func (c *Cache) Get(force bool) *Topology {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if !force && c.current != nil && now.Sub(c.current.Built) <= c.ttl {
		return c.current
	}
	c.current = c.rebuild(now)
	c.rebuilds++
	return c.current
}

// Invalidate força a próxima chamada a remontar
func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.current = nil
	c.mu.Unlock()
}

// Rebuilds conta quantas montagens já foram feitas
func (c *Cache) Rebuilds() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rebuilds
}

func (c *Cache) rebuild(now time.Time) *Topology {
	empty := &Topology{Built: now}

	chars := c.roster.Characters()
	for _, ch := range chars {
		ch.Refresh()
	}

	// leitor: primeiro válido com party_ptr
	var leaderID int32
	found := false
	for _, ch := range chars {
		if !ch.IsValid() {
			continue
		}
		if _, ok := ch.Snap.ResolvePointer("party_ptr"); !ok {
			continue
		}
		v, ok := ch.Snap.Resolve("party_leader_id")
		if !ok || v.Int32() == 0 {
			continue
		}
		leaderID = v.Int32()
		found = true
		break
	}
	if !found {
		return empty
	}

	leader, ok := c.roster.ByCharID(leaderID)
	if !ok {
		c.log.Debug("party leader not tracked", "char_id", leaderID)
		return empty
	}

	t := &Topology{
		Built:  now,
		Leader: leader,
		Info:   make(map[uint32]MemberInfo),
	}
	for _, ch := range chars {
		if !ch.IsValid() {
			continue
		}
		if _, ok := ch.Snap.ResolvePointer("party_ptr"); !ok {
			continue
		}
		if v, ok := ch.Snap.Resolve("party_leader_id"); ok && v.Int32() != 0 && v.Int32() != leaderID {
			continue
		}
		loc, hasLoc := ch.Snap.LocationID()
		t.Members = append(t.Members, ch)
		t.Info[ch.PID] = MemberInfo{
			PID:        ch.PID,
			CharID:     ch.ID(),
			LocationID: loc,
			HasLoc:     hasLoc,
			Name:       ch.Name(),
		}
	}
	if _, ok := t.Info[leader.PID]; !ok {
		// líder sem party_ptr próprio: grupo inconsistente neste ciclo
		return empty
	}
	return t
}
