package offset

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Table é a tabela imutável de caminhos nomeados, parseada uma única vez
type Table struct {
	exprs map[string]Expr
	src   map[string]string
	names []string
}

// ParseTable parseia e valida todos os caminhos. Qualquer erro aqui é fatal na inicialização.
func ParseTable(src map[string]string) (*Table, error) {
	t := &Table{
		exprs: make(map[string]Expr, len(src)),
		src:   make(map[string]string, len(src)),
	}

	var errs []error
	for name, s := range src {
		e, err := Parse(s)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
			continue
		}
		t.exprs[name] = e
		t.src[name] = s
		t.names = append(t.names, name)
	}
	sort.Strings(t.names)

	for _, name := range t.names {
		for _, ref := range t.exprs[name].Refs() {
			target, ok := t.exprs[ref]
			if !ok {
				if _, broken := src[ref]; !broken {
					errs = append(errs, fmt.Errorf("%s: %w %q", name, ErrUnknownRef, ref))
				}
				continue
			}
			if !yieldsPointer(target) {
				errs = append(errs, fmt.Errorf("%s: reference %q is not a pointer path", name, ref))
			}
		}
	}

	if err := t.checkCycles(); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return t, nil
}

func (t *Table) checkCycles() error {
	const (
		unvisited = iota
		visiting
		done
	)
	state := make(map[string]int, len(t.exprs))

	var visit func(name string, stack []string) error
	visit = func(name string, stack []string) error {
		switch state[name] {
		case visiting:
			return fmt.Errorf("%w: %s -> %s", ErrCycle, strings.Join(stack, " -> "), name)
		case done:
			return nil
		}
		state[name] = visiting
		e, ok := t.exprs[name]
		if ok {
			for _, ref := range e.Refs() {
				if err := visit(ref, append(stack, name)); err != nil {
					return err
				}
			}
		}
		state[name] = done
		return nil
	}

	for _, name := range t.names {
		if err := visit(name, nil); err != nil {
			return err
		}
	}
	return nil
}

// CheckModule garante que todo caminho static usa o módulo anexado
func (t *Table) CheckModule(module string) error {
	for _, name := range t.names {
		if st, ok := t.exprs[name].(*Static); ok && !strings.EqualFold(st.Module, module) {
			return fmt.Errorf("%s: static module %q does not match %q", name, st.Module, module)
		}
	}
	return nil
}

func (t *Table) Lookup(name string) (Expr, bool) {
	e, ok := t.exprs[name]
	return e, ok
}

// Source retorna a string original do caminho
func (t *Table) Source(name string) string {
	return t.src[name]
}

// Names retorna os nomes em ordem alfabética
func (t *Table) Names() []string {
	out := make([]string, len(t.names))
	copy(out, t.names)
	return out
}

// Require verifica que a tabela define todos os nomes dados
func (t *Table) Require(names ...string) error {
	var missing []string
	for _, n := range names {
		if _, ok := t.exprs[n]; !ok {
			missing = append(missing, n)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing paths %s", ErrUnknownRef, strings.Join(missing, ", "))
	}
	return nil
}
