package offset

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	ErrSyntax     = errors.New("offset: syntax error")
	ErrUnknownRef = errors.New("offset: unknown reference")
	ErrCycle      = errors.New("offset: reference cycle")
)

const arrayPrefix = "array:"

// Parse converte uma string de caminho em Expr.
//
//	static:ElementClient.exe +0x013FAB08 +0x1000
//	ptr:selection_origin +0x58 -> +0x0
//	int32:char_base +0x6A8
//	array:party_members_array:10:8:{id:int32:0x18}
func Parse(src string) (Expr, error) {
	src = strings.TrimSpace(src)
	if strings.HasPrefix(src, arrayPrefix) {
		return parseArray(src)
	}

	toks := tokenize(src)
	if len(toks) == 0 {
		return nil, fmt.Errorf("%w: empty path", ErrSyntax)
	}

	kind, ref, ok := strings.Cut(toks[0], ":")
	if !ok || ref == "" {
		return nil, fmt.Errorf("%w: expected <type>:<ref>, got %q", ErrSyntax, toks[0])
	}

	if kind == "static" {
		return parseStatic(ref, toks[1:])
	}

	typ, err := ParseType(kind)
	if err != nil {
		return nil, err
	}

	chain := &Chain{Type: typ, Ref: ref}
	for _, tok := range toks[1:] {
		if tok == "->" {
			// "->" logo após a referência não tem efeito
			if n := len(chain.Steps); n > 0 {
				chain.Steps[n-1].Deref = true
			}
			continue
		}
		off, err := parseOffset(tok)
		if err != nil {
			return nil, err
		}
		chain.Steps = append(chain.Steps, Step{Offset: off})
	}
	return chain, nil
}

func parseStatic(module string, toks []string) (Expr, error) {
	st := &Static{Module: module}
	for _, tok := range toks {
		off, err := parseOffset(tok)
		if err != nil {
			return nil, err
		}
		st.Offsets = append(st.Offsets, off)
	}
	if len(st.Offsets) == 0 {
		return nil, fmt.Errorf("%w: static path needs at least one offset", ErrSyntax)
	}
	return st, nil
}

// parseOffset aceita "+0x68" (cadeias) ou "0x68"/"104" (campos de array)
func parseOffset(tok string) (uint64, error) {
	s := strings.TrimPrefix(strings.TrimSpace(tok), "+")
	if s == "" {
		return 0, fmt.Errorf("%w: empty offset", ErrSyntax)
	}
	v, err := strconv.ParseUint(s, 0, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: bad offset %q", ErrSyntax, tok)
	}
	return v, nil
}

// tokenize separa palavras, offsets "+0x.." e setas "->", com ou sem espaços entre eles
func tokenize(s string) []string {
	var toks []string
	i := 0
	for i < len(s) {
		c := s[i]
		switch {
		case c == ' ' || c == '\t':
			i++
		case strings.HasPrefix(s[i:], "->"):
			toks = append(toks, "->")
			i += 2
		default:
			j := i + 1
			for j < len(s) && s[j] != ' ' && s[j] != '\t' && s[j] != '+' && !strings.HasPrefix(s[j:], "->") {
				j++
			}
			toks = append(toks, s[i:j])
			i = j
		}
	}
	return toks
}

func parseArray(src string) (Expr, error) {
	brace := strings.IndexByte(src, '{')
	if brace < 0 || !strings.HasSuffix(src, "}") {
		return nil, fmt.Errorf("%w: array needs a {field,...} block", ErrSyntax)
	}

	head := strings.TrimSuffix(src[len(arrayPrefix):brace], ":")
	params := strings.Split(head, ":")
	if len(params) != 3 {
		return nil, fmt.Errorf("%w: expected array:<base>:<count>:<stride>:{...}", ErrSyntax)
	}

	arr := &Array{Base: strings.TrimSpace(params[0])}
	if arr.Base == "" {
		return nil, fmt.Errorf("%w: array base is empty", ErrSyntax)
	}

	var err error
	if arr.Count, err = strconv.Atoi(strings.TrimSpace(params[1])); err != nil || arr.Count <= 0 {
		return nil, fmt.Errorf("%w: bad array count %q", ErrSyntax, params[1])
	}
	if arr.Stride, err = strconv.Atoi(strings.TrimSpace(params[2])); err != nil || arr.Stride <= 0 {
		return nil, fmt.Errorf("%w: bad array stride %q", ErrSyntax, params[2])
	}

	body := src[brace+1 : len(src)-1]
	seen := make(map[string]bool)
	for _, def := range strings.Split(body, ",") {
		parts := strings.Split(def, ":")
		if len(parts) != 3 {
			return nil, fmt.Errorf("%w: field %q must be name:type:offsets", ErrSyntax, def)
		}

		f := Field{Name: strings.TrimSpace(parts[0])}
		if f.Name == "" || seen[f.Name] {
			return nil, fmt.Errorf("%w: empty or duplicate field name %q", ErrSyntax, f.Name)
		}
		seen[f.Name] = true

		if f.Type, err = ParseType(strings.TrimSpace(parts[1])); err != nil {
			return nil, err
		}
		if f.Type == TypeString {
			return nil, fmt.Errorf("%w: string fields are not supported in arrays", ErrSyntax)
		}

		for _, o := range strings.Split(parts[2], "->") {
			off, err := parseOffset(o)
			if err != nil {
				return nil, err
			}
			f.Offsets = append(f.Offsets, off)
		}
		arr.Fields = append(arr.Fields, f)
	}
	return arr, nil
}
