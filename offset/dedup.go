package offset

// Dedup filtra os ponteiros candidatos lidos dos slots de um array
type Dedup interface {
	Filter(ptrs []uint64) []uint64
}

// DedupFunc adapta uma função para Dedup
type DedupFunc func(ptrs []uint64) []uint64

func (f DedupFunc) Filter(ptrs []uint64) []uint64 { return f(ptrs) }

// UniqueOnly mantém apenas ponteiros que aparecem exatamente uma vez.
// Slots vazios do jogo costumam apontar para o mesmo placeholder compartilhado.
var UniqueOnly = DedupFunc(func(ptrs []uint64) []uint64 {
	counts := make(map[uint64]int, len(ptrs))
	for _, p := range ptrs {
		counts[p]++
	}
	var out []uint64
	for _, p := range ptrs {
		if counts[p] == 1 {
			out = append(out, p)
		}
	}
	return out
})

// Distinct mantém uma ocorrência de cada ponteiro, na ordem em que aparecem
var Distinct = DedupFunc(func(ptrs []uint64) []uint64 {
	seen := make(map[uint64]bool, len(ptrs))
	var out []uint64
	for _, p := range ptrs {
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	return out
})

// DedupByName retorna a estratégia configurada por nome ("unique" ou "distinct")
func DedupByName(name string) (Dedup, bool) {
	switch name {
	case "", "unique":
		return UniqueOnly, true
	case "distinct":
		return Distinct, true
	}
	return nil, false
}
