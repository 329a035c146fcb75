package entity

// Loot é um item no chão
type Loot struct {
	Ptr  uint64
	X, Y float32
}

// Person é uma entidade visível no mundo
type Person struct {
	Ptr     uint64
	ID      uint32
	X, Y, Z float32
}

// World lê o estado do mundo pelas âncoras world_* do snapshot
type World struct {
	s *Snapshot
}

func (s *Snapshot) World() World { return World{s: s} }

func (w World) LootCount() int32 {
	v, ok := w.s.Resolve("loot_count")
	if !ok {
		return 0
	}
	return v.Int32()
}

func (w World) HasLoot() bool { return w.LootCount() > 0 }

func (w World) Loot() []Loot {
	v, ok := w.s.Resolve("loot_items")
	if !ok {
		return nil
	}
	out := make([]Loot, 0, len(v.Elements))
	for _, el := range v.Elements {
		x, _ := el.Float("x")
		y, _ := el.Float("y")
		out = append(out, Loot{Ptr: el.Ptr, X: x, Y: y})
	}
	return out
}

// LootNear verifica se há loot na caixa |dx|,|dy| <= radius em volta de (x, y)
func (w World) LootNear(x, y, radius float32) bool {
	if !w.HasLoot() {
		return false
	}
	for _, l := range w.Loot() {
		if absf(l.X-x) <= radius && absf(l.Y-y) <= radius {
			return true
		}
	}
	return false
}

func (w World) People() []Person {
	v, ok := w.s.Resolve("people_items")
	if !ok {
		return nil
	}
	out := make([]Person, 0, len(v.Elements))
	for _, el := range v.Elements {
		p := Person{Ptr: el.Ptr}
		p.ID, _ = el.Uint32("id")
		p.X, _ = el.Float("x")
		p.Y, _ = el.Float("y")
		p.Z, _ = el.Float("z")
		out = append(out, p)
	}
	return out
}

func absf(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
