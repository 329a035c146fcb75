package offset

import "strings"

// StringLength é o tamanho fixo (em caracteres UTF-16) das strings do jogo
const StringLength = 32

// maxDepth limita a recursão de referências mesmo com tabela validada
const maxDepth = 32

// Reader é o subconjunto de memory.Accessor usado pelo resolver
type Reader interface {
	Module() string
	ModuleBase() uintptr
	ReadU64(addr uintptr) (uint64, bool)
	ReadI32(addr uintptr) (int32, bool)
	ReadU32(addr uintptr) (uint32, bool)
	ReadF32(addr uintptr) (float32, bool)
	ReadUTF16(addr uintptr, maxChars int) (string, bool)
}

// Cache guarda endereços já resolvidos por nome. Pertence ao chamador;
// o resolver apenas consulta.
type Cache map[string]uint64

// Resolver avalia caminhos da tabela contra a memória de um processo
type Resolver struct {
	table *Table
	dedup Dedup
}

type Option func(*Resolver)

// WithDedup troca a heurística de deduplicação de arrays
func WithDedup(d Dedup) Option {
	return func(r *Resolver) { r.dedup = d }
}

func NewResolver(t *Table, opts ...Option) *Resolver {
	r := &Resolver{table: t, dedup: UniqueOnly}
	for _, o := range opts {
		o(r)
	}
	return r
}

func (r *Resolver) Table() *Table { return r.table }

// Resolve avalia o caminho de nome name. Retorna ok=false quando qualquer
// parte da cadeia falha; nunca retorna resultado parcial para ptr/escalares.
func (r *Resolver) Resolve(mem Reader, name string, cache Cache) (Value, bool) {
	e, ok := r.table.Lookup(name)
	if !ok {
		return Value{}, false
	}
	return r.eval(mem, e, cache, 0)
}

// Address retorna o endereço onde a leitura terminal de um caminho Chain aconteceria.
// Usado para escritas derivadas da mesma tabela.
func (r *Resolver) Address(mem Reader, name string, cache Cache) (uintptr, bool) {
	e, ok := r.table.Lookup(name)
	if !ok {
		return 0, false
	}
	c, ok := e.(*Chain)
	if !ok {
		return 0, false
	}
	return r.walk(mem, c, cache, 0)
}

func (r *Resolver) eval(mem Reader, e Expr, cache Cache, depth int) (Value, bool) {
	switch e := e.(type) {
	case *Static:
		p, ok := r.static(mem, e)
		if !ok {
			return Value{}, false
		}
		return PtrValue(p), true
	case *Chain:
		addr, ok := r.walk(mem, e, cache, depth)
		if !ok {
			return Value{}, false
		}
		return readTyped(mem, addr, e.Type)
	case *Array:
		elems, ok := r.scan(mem, e, cache, depth)
		if !ok {
			return Value{}, false
		}
		return ArrayValue(elems), true
	}
	return Value{}, false
}

func (r *Resolver) static(mem Reader, s *Static) (uint64, bool) {
	if !strings.EqualFold(s.Module, mem.Module()) {
		return 0, false
	}
	addr := mem.ModuleBase()
	for _, off := range s.Offsets {
		addr += uintptr(off)
	}
	return mem.ReadU64(addr)
}

// ref resolve uma referência pelo cache ou, na falta, pela tabela (sem memorizar)
func (r *Resolver) ref(mem Reader, name string, cache Cache, depth int) (uint64, bool) {
	if v, ok := cache[name]; ok {
		return v, v != 0
	}
	if depth >= maxDepth {
		return 0, false
	}
	e, ok := r.table.Lookup(name)
	if !ok || !yieldsPointer(e) {
		return 0, false
	}
	v, ok := r.eval(mem, e, cache, depth+1)
	if !ok || v.Ptr() == 0 {
		return 0, false
	}
	return v.Ptr(), true
}

func (r *Resolver) walk(mem Reader, c *Chain, cache Cache, depth int) (uintptr, bool) {
	base, ok := r.ref(mem, c.Ref, cache, depth)
	if !ok {
		return 0, false
	}
	addr := uintptr(base)
	for _, st := range c.Steps {
		addr += uintptr(st.Offset)
		if st.Deref {
			p, ok := mem.ReadU64(addr)
			if !ok || p == 0 {
				return 0, false
			}
			addr = uintptr(p)
		}
	}
	return addr, true
}

func readTyped(mem Reader, addr uintptr, t Type) (Value, bool) {
	switch t {
	case TypePtr:
		v, ok := mem.ReadU64(addr)
		return PtrValue(v), ok
	case TypeInt32:
		v, ok := mem.ReadI32(addr)
		return Int32Value(v), ok
	case TypeUint32:
		v, ok := mem.ReadU32(addr)
		return Uint32Value(v), ok
	case TypeFloat:
		v, ok := mem.ReadF32(addr)
		return FloatValue(v), ok
	case TypeString:
		p, ok := mem.ReadU64(addr)
		if !ok || p == 0 {
			return Value{}, false
		}
		s, ok := mem.ReadUTF16(uintptr(p), StringLength)
		return StringValue(s), ok
	}
	return Value{}, false
}

func (r *Resolver) scan(mem Reader, a *Array, cache Cache, depth int) ([]Element, bool) {
	base, ok := r.ref(mem, a.Base, cache, depth)
	if !ok {
		return nil, false
	}

	var ptrs []uint64
	for i := 0; i < a.Count; i++ {
		p, ok := mem.ReadU64(uintptr(base) + uintptr(i*a.Stride))
		if !ok || p == 0 {
			continue
		}
		ptrs = append(ptrs, p)
	}

	var out []Element
	for _, p := range r.dedup.Filter(ptrs) {
		el := Element{Ptr: p, Fields: make(map[string]Value, len(a.Fields))}
		keep := false
		for _, f := range a.Fields {
			v, ok := readField(mem, p, f)
			if !ok {
				continue
			}
			el.Fields[f.Name] = v
			if !v.IsZero() {
				keep = true
			}
		}
		if keep {
			out = append(out, el)
		}
	}
	return out, true
}

func readField(mem Reader, elem uint64, f Field) (Value, bool) {
	addr := uintptr(elem)
	last := len(f.Offsets) - 1
	for i, off := range f.Offsets {
		addr += uintptr(off)
		if i < last {
			p, ok := mem.ReadU64(addr)
			if !ok || p == 0 {
				return Value{}, false
			}
			addr = uintptr(p)
		}
	}
	return readTyped(mem, addr, f.Type)
}
