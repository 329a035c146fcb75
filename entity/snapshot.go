// Package entity mantém o snapshot de um personagem lido da memória do cliente.
package entity

import (
	"log/slog"

	"multibox/offset"
)

// Memory é o acesso usado pelo snapshot: leituras do resolver e escritas tipadas
type Memory interface {
	offset.Reader
	WriteI32(addr uintptr, val int32) bool
	WriteU32(addr uintptr, val uint32) bool
	WriteF32(addr uintptr, val float32) bool
}

type State int

const (
	Uninitialized State = iota
	Valid
	Invalid
)

func (s State) String() string {
	switch s {
	case Valid:
		return "valid"
	case Invalid:
		return "invalid"
	}
	return "uninitialized"
}

// Anchors são as âncoras base. Sobrevivem à troca de personagem.
var Anchors = []string{"char_origin", "char_base", "world_origin", "world_base"}

// Fields são os campos lidos a cada refresh
var Fields = []string{
	"char_class", "char_name", "target_id",
	"char_hp", "char_max_hp",
	"char_pos_x", "char_pos_y", "char_pos_z",
	"fly_speed", "fly_speed_z", "fly_status",
	"location_id",
}

// Snapshot guarda as âncoras, o id atual e a última leitura dos campos
type Snapshot struct {
	mem   Memory
	res   *offset.Resolver
	log   *slog.Logger
	cache offset.Cache

	values map[string]offset.Value
	id     int32
	lastID int32
	state  State
}

func NewSnapshot(mem Memory, res *offset.Resolver, log *slog.Logger) *Snapshot {
	if log == nil {
		log = slog.Default()
	}
	return &Snapshot{
		mem:    mem,
		res:    res,
		log:    log,
		cache:  make(offset.Cache),
		values: make(map[string]offset.Value),
	}
}

// Refresh relê âncoras, id e campos. Retorna true quando o slot passou a
// apontar para outro personagem.
func (s *Snapshot) Refresh() bool {
	for _, name := range Anchors {
		delete(s.cache, name)
		v, ok := s.res.Resolve(s.mem, name, s.cache)
		if ok && v.Ptr() != 0 {
			s.cache[name] = v.Ptr()
		}
	}

	var newID int32
	if v, ok := s.res.Resolve(s.mem, "char_id", s.cache); ok {
		newID = v.Int32()
	}

	drifted := false
	if s.lastID != 0 && newID != s.lastID {
		s.invalidate()
		if newID != 0 {
			drifted = true
			s.log.Warn("character changed", "old_id", s.lastID, "char_id", newID)
		}
	}
	if newID != 0 {
		s.lastID = newID
	}
	s.id = newID

	clear(s.values)
	for _, name := range Fields {
		if v, ok := s.res.Resolve(s.mem, name, s.cache); ok {
			s.values[name] = v
		}
	}

	if newID != 0 {
		s.state = Valid
	} else {
		s.state = Invalid
	}
	return drifted
}

// invalidate remove os ponteiros derivados e mantém as âncoras
func (s *Snapshot) invalidate() {
	for name := range s.cache {
		if !isAnchor(name) {
			delete(s.cache, name)
		}
	}
}

func isAnchor(name string) bool {
	for _, a := range Anchors {
		if a == name {
			return true
		}
	}
	return false
}

func (s *Snapshot) State() State { return s.state }
func (s *Snapshot) IsValid() bool { return s.id != 0 }
func (s *Snapshot) Cache() offset.Cache { return s.cache }

// ID retorna o char_id da última leitura
func (s *Snapshot) ID() int32 { return s.id }

func (s *Snapshot) value(name string) (offset.Value, bool) {
	v, ok := s.values[name]
	return v, ok
}

func (s *Snapshot) f32(name string) (float32, bool) {
	v, ok := s.value(name)
	return v.Float(), ok
}

func (s *Snapshot) i32(name string) (int32, bool) {
	v, ok := s.value(name)
	return v.Int32(), ok
}

// Position retorna (x, y, z) lidos no último refresh
func (s *Snapshot) Position() (x, y, z float32, ok bool) {
	x, okX := s.f32("char_pos_x")
	y, okY := s.f32("char_pos_y")
	z, okZ := s.f32("char_pos_z")
	return x, y, z, okX && okY && okZ
}

func (s *Snapshot) Name() (string, bool) {
	v, ok := s.value("char_name")
	return v.Str(), ok
}

func (s *Snapshot) Class() (int32, bool) { return s.i32("char_class") }
func (s *Snapshot) HP() (int32, bool) { return s.i32("char_hp") }
func (s *Snapshot) MaxHP() (int32, bool) { return s.i32("char_max_hp") }
func (s *Snapshot) FlyStatus() (int32, bool) { return s.i32("fly_status") }
func (s *Snapshot) LocationID() (int32, bool) { return s.i32("location_id") }
func (s *Snapshot) FlySpeed() (float32, bool) { return s.f32("fly_speed") }

func (s *Snapshot) FlySpeedZ() (float32, bool) { return s.f32("fly_speed_z") }

func (s *Snapshot) TargetID() (uint32, bool) {
	v, ok := s.value("target_id")
	return v.Uint32(), ok
}

// Resolve lê um caminho qualquer agora, sem memorizar
func (s *Snapshot) Resolve(name string) (offset.Value, bool) {
	return s.res.Resolve(s.mem, name, s.cache)
}

// ResolvePointer relê um ponteiro derivado e o memoriza no cache.
// Falha remove a entrada antiga.
func (s *Snapshot) ResolvePointer(name string) (uint64, bool) {
	delete(s.cache, name)
	v, ok := s.res.Resolve(s.mem, name, s.cache)
	if !ok || v.Ptr() == 0 {
		return 0, false
	}
	s.cache[name] = v.Ptr()
	return v.Ptr(), true
}

// FieldAddress calcula o endereço de escrita de um campo a partir de char_base
func (s *Snapshot) FieldAddress(name string) (uintptr, bool) {
	if s.cache["char_base"] == 0 {
		return 0, false
	}
	return s.res.Address(s.mem, name, s.cache)
}

func (s *Snapshot) writeF32(name string, val float32) bool {
	addr, ok := s.FieldAddress(name)
	if !ok {
		return false
	}
	return s.mem.WriteF32(addr, val)
}

// SetPosition escreve x, y, z sem nenhuma validação
func (s *Snapshot) SetPosition(x, y, z float32) bool {
	if s.cache["char_base"] == 0 {
		return false
	}
	okX := s.writeF32("char_pos_x", x)
	okY := s.writeF32("char_pos_y", y)
	okZ := s.writeF32("char_pos_z", z)
	return okX && okY && okZ
}

func (s *Snapshot) SetTargetID(id uint32) bool {
	addr, ok := s.FieldAddress("target_id")
	if !ok {
		return false
	}
	return s.mem.WriteU32(addr, id)
}

func (s *Snapshot) SetFlySpeedZ(v float32) bool {
	return s.writeF32("fly_speed_z", v)
}

// GetTargetPosition segue seleção -> alvo a cada chamada, sem usar ponteiros memorizados
func (s *Snapshot) GetTargetPosition() (x, y, z float32, ok bool) {
	v, ok := s.res.Resolve(s.mem, "target_id", s.cache)
	if !ok || v.Uint32() == 0 {
		return 0, 0, 0, false
	}

	scratch := make(offset.Cache, len(Anchors))
	for _, name := range Anchors {
		if p, ok := s.cache[name]; ok {
			scratch[name] = p
		}
	}
	ptr, ok := s.res.Resolve(s.mem, "target_ptr", scratch)
	if !ok || ptr.Ptr() == 0 {
		return 0, 0, 0, false
	}
	scratch["target_ptr"] = ptr.Ptr()

	vx, okX := s.res.Resolve(s.mem, "target_pos_x", scratch)
	vy, okY := s.res.Resolve(s.mem, "target_pos_y", scratch)
	vz, okZ := s.res.Resolve(s.mem, "target_pos_z", scratch)
	if !okX || !okY || !okZ {
		return 0, 0, 0, false
	}
	return vx.Float(), vy.Float(), vz.Float(), true
}
