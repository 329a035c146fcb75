package memory

import (
	"encoding/binary"
	"errors"
	"math"
	"sync"
	"unicode/utf16"
)

var (
	ErrShortRead     = errors.New("memory: short read")
	ErrProcessClosed = errors.New("memory: process closed")
	ErrUnsupported   = errors.New("memory: process access not supported on this platform")
)

// minAddress é o limite inferior de endereços válidos (primeiros 64KB nunca são mapeados)
const minAddress = 0x10000

// Process é o acesso bruto à memória de um processo anexado
type Process interface {
	ReadMemory(addr uintptr, buf []byte) error
	WriteMemory(addr uintptr, data []byte) error
	IsAlive() bool
	Close() error
}

// Accessor expõe leituras e escritas tipadas sobre um Process.
// Nenhuma operação entra em pânico: leituras retornam (valor, ok) e escritas retornam bool.
type Accessor struct {
	proc       Process
	pid        uint32
	module     string
	moduleBase uintptr

	closeOnce sync.Once
	closeErr  error
}

// New cria um Accessor para um processo já aberto
func New(proc Process, pid uint32, module string, moduleBase uintptr) *Accessor {
	return &Accessor{
		proc:       proc,
		pid:        pid,
		module:     module,
		moduleBase: moduleBase,
	}
}

func (a *Accessor) PID() uint32 { return a.pid }
func (a *Accessor) Module() string { return a.module }
func (a *Accessor) ModuleBase() uintptr { return a.moduleBase }

// ReadBytes lê exatamente n bytes
func (a *Accessor) ReadBytes(addr uintptr, n int) ([]byte, bool) {
	if addr < minAddress || n <= 0 {
		return nil, false
	}
	buf := make([]byte, n)
	if err := a.proc.ReadMemory(addr, buf); err != nil {
		return nil, false
	}
	return buf, true
}

// ReadU64 lê 8 bytes (usado apenas para ponteiros)
func (a *Accessor) ReadU64(addr uintptr) (uint64, bool) {
	b, ok := a.ReadBytes(addr, 8)
	if !ok {
		return 0, false
	}
	return binary.LittleEndian.Uint64(b), true
}

// ReadU32 lê 4 bytes sem sinal
func (a *Accessor) ReadU32(addr uintptr) (uint32, bool) {
	b, ok := a.ReadBytes(addr, 4)
	if !ok {
		return 0, false
	}
	return binary.LittleEndian.Uint32(b), true
}

// ReadI32 lê 4 bytes com sinal
func (a *Accessor) ReadI32(addr uintptr) (int32, bool) {
	v, ok := a.ReadU32(addr)
	return int32(v), ok
}

// ReadF32 lê um float32
func (a *Accessor) ReadF32(addr uintptr) (float32, bool) {
	v, ok := a.ReadU32(addr)
	if !ok {
		return 0, false
	}
	return math.Float32frombits(v), true
}

// ReadUTF16 lê uma string UTF-16 de tamanho fixo, truncada no primeiro NUL
func (a *Accessor) ReadUTF16(addr uintptr, maxChars int) (string, bool) {
	b, ok := a.ReadBytes(addr, maxChars*2)
	if !ok {
		return "", false
	}
	units := make([]uint16, 0, maxChars)
	for i := 0; i+1 < len(b); i += 2 {
		u := binary.LittleEndian.Uint16(b[i:])
		if u == 0 {
			break
		}
		units = append(units, u)
	}
	return string(utf16.Decode(units)), true
}

// WriteBytes escreve bytes na memória
func (a *Accessor) WriteBytes(addr uintptr, data []byte) bool {
	if addr < minAddress || len(data) == 0 {
		return false
	}
	return a.proc.WriteMemory(addr, data) == nil
}

// WriteU32 escreve 4 bytes sem sinal
func (a *Accessor) WriteU32(addr uintptr, val uint32) bool {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], val)
	return a.WriteBytes(addr, b[:])
}

// WriteI32 escreve 4 bytes com sinal
func (a *Accessor) WriteI32(addr uintptr, val int32) bool {
	return a.WriteU32(addr, uint32(val))
}

// WriteF32 escreve um float32
func (a *Accessor) WriteF32(addr uintptr, val float32) bool {
	return a.WriteU32(addr, math.Float32bits(val))
}

// IsAlive verifica se o processo ainda está rodando
func (a *Accessor) IsAlive() bool {
	return a.proc.IsAlive()
}

// Close libera o handle do processo. Pode ser chamado mais de uma vez.
func (a *Accessor) Close() error {
	a.closeOnce.Do(func() {
		a.closeErr = a.proc.Close()
	})
	return a.closeErr
}

// Distance calcula distância 3D
func Distance(x1, y1, z1, x2, y2, z2 float32) float32 {
	dx := x2 - x1
	dy := y2 - y1
	dz := z2 - z1
	return float32(math.Sqrt(float64(dx*dx + dy*dy + dz*dz)))
}
