// Package offset implementa a linguagem de caminhos de offset: cadeias de
// dereferência de ponteiros a partir da base do módulo, leituras tipadas
// e varredura de arrays de ponteiros.
package offset

import (
	"fmt"
	"math"
)

// Type é o tipo da leitura terminal de um caminho
type Type int

const (
	TypeNone Type = iota
	TypePtr
	TypeInt32
	TypeUint32
	TypeFloat
	TypeString
	TypeArray
)

func (t Type) String() string {
	switch t {
	case TypePtr:
		return "ptr"
	case TypeInt32:
		return "int32"
	case TypeUint32:
		return "uint32"
	case TypeFloat:
		return "float"
	case TypeString:
		return "str"
	case TypeArray:
		return "array"
	default:
		return "none"
	}
}

// ParseType converte o nome do tipo usado nos caminhos
func ParseType(s string) (Type, error) {
	switch s {
	case "ptr":
		return TypePtr, nil
	case "int32":
		return TypeInt32, nil
	case "uint32":
		return TypeUint32, nil
	case "float":
		return TypeFloat, nil
	case "str":
		return TypeString, nil
	}
	return TypeNone, fmt.Errorf("%w: unknown type %q", ErrSyntax, s)
}

// Expr é um caminho já parseado: *Static, *Chain ou *Array
type Expr interface {
	expr()
	// Refs retorna os nomes referenciados pelo caminho
	Refs() []string
}

// Static lê um ponteiro de 8 bytes em module_base + soma dos offsets
type Static struct {
	Module  string
	Offsets []uint64
}

// Step é um offset somado ao endereço corrente, opcionalmente seguido de dereferência
type Step struct {
	Offset uint64
	Deref  bool
}

// Chain parte do endereço de Ref, aplica Steps e faz a leitura terminal de Type.
// Com Type == TypePtr é uma cadeia de ponteiros; nos demais tipos é uma leitura escalar.
type Chain struct {
	Type  Type
	Ref   string
	Steps []Step
}

// Field é um campo de elemento de array: cada offset menos o último é seguido de dereferência
type Field struct {
	Name    string
	Type    Type
	Offsets []uint64
}

// Array varre Count slots de Stride bytes a partir do endereço de Base
type Array struct {
	Base   string
	Count  int
	Stride int
	Fields []Field
}

func (*Static) expr() {}
func (*Chain) expr() {}
func (*Array) expr() {}

func (*Static) Refs() []string { return nil }
func (c *Chain) Refs() []string { return []string{c.Ref} }
func (a *Array) Refs() []string { return []string{a.Base} }

// yieldsPointer indica se o resultado do caminho pode ser usado como referência
func yieldsPointer(e Expr) bool {
	switch e := e.(type) {
	case *Static:
		return true
	case *Chain:
		return e.Type == TypePtr
	}
	return false
}

// Value é o resultado de uma resolução
type Value struct {
	Type     Type
	bits     uint64
	str      string
	Elements []Element
}

func PtrValue(v uint64) Value { return Value{Type: TypePtr, bits: v} }
func Int32Value(v int32) Value { return Value{Type: TypeInt32, bits: uint64(uint32(v))} }
func Uint32Value(v uint32) Value { return Value{Type: TypeUint32, bits: uint64(v)} }
func FloatValue(v float32) Value { return Value{Type: TypeFloat, bits: uint64(math.Float32bits(v))} }
func StringValue(v string) Value { return Value{Type: TypeString, str: v} }
func ArrayValue(e []Element) Value { return Value{Type: TypeArray, Elements: e} }
func (v Value) Ptr() uint64 { return v.bits }
func (v Value) Int32() int32 { return int32(uint32(v.bits)) }
func (v Value) Uint32() uint32 { return uint32(v.bits) }
func (v Value) Float() float32 { return math.Float32frombits(uint32(v.bits)) }
func (v Value) Str() string { return v.str }

// IsZero indica valor nulo/zero para o filtro de elementos
func (v Value) IsZero() bool {
	switch v.Type {
	case TypeString:
		return v.str == ""
	case TypeArray:
		return len(v.Elements) == 0
	case TypeFloat:
		return v.Float() == 0
	}
	return v.bits == 0
}

func (v Value) String() string {
	switch v.Type {
	case TypePtr:
		return fmt.Sprintf("0x%X", v.bits)
	case TypeInt32:
		return fmt.Sprint(v.Int32())
	case TypeUint32:
		return fmt.Sprint(v.Uint32())
	case TypeFloat:
		return fmt.Sprintf("%.2f", v.Float())
	case TypeString:
		return fmt.Sprintf("%q", v.str)
	case TypeArray:
		return fmt.Sprintf("[%d elements]", len(v.Elements))
	}
	return "<none>"
}

// Element é um elemento de array; campos ausentes não aparecem em Fields
type Element struct {
	Ptr    uint64
	Fields map[string]Value
}

func (e Element) Float(name string) (float32, bool) {
	v, ok := e.Fields[name]
	return v.Float(), ok
}

func (e Element) Int32(name string) (int32, bool) {
	v, ok := e.Fields[name]
	return v.Int32(), ok
}

func (e Element) Uint32(name string) (uint32, bool) {
	v, ok := e.Fields[name]
	return v.Uint32(), ok
}
