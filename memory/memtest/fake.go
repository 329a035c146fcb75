// Package memtest fornece um processo em memória para testes.
package memtest

import (
	"encoding/binary"
	"math"
	"unicode/utf16"

	"github.com/sasha-s/go-deadlock"

	"multibox/memory"
)

// Fake é um memory.Process esparso: só endereços escritos podem ser lidos
type Fake struct {
	mu     deadlock.Mutex
	bytes  map[uintptr]byte
	dead   bool
	closes int
	reads  int
	writes int

	// FailWrites faz toda escrita falhar
	FailWrites bool
}

func NewFake() *Fake {
	return &Fake{bytes: make(map[uintptr]byte)}
}

// Accessor cria um memory.Accessor sobre este fake
func (f *Fake) Accessor(pid uint32, module string, base uintptr) *memory.Accessor {
	return memory.New(f, pid, module, base)
}

func (f *Fake) ReadMemory(addr uintptr, buf []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reads++
	if f.dead {
		return memory.ErrProcessClosed
	}
	for i := range buf {
		b, ok := f.bytes[addr+uintptr(i)]
		if !ok {
			return memory.ErrShortRead
		}
		buf[i] = b
	}
	return nil
}

func (f *Fake) WriteMemory(addr uintptr, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.dead {
		return memory.ErrProcessClosed
	}
	if f.FailWrites {
		return memory.ErrShortRead
	}
	f.writes++
	for i, b := range data {
		f.bytes[addr+uintptr(i)] = b
	}
	return nil
}

func (f *Fake) IsAlive() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return !f.dead
}

func (f *Fake) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closes++
	f.dead = true
	return nil
}

// Kill simula o fim do processo
func (f *Fake) Kill() {
	f.mu.Lock()
	f.dead = true
	f.mu.Unlock()
}

func (f *Fake) Closes() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closes
}

func (f *Fake) Writes() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.writes
}

func (f *Fake) put(addr uintptr, data []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, b := range data {
		f.bytes[addr+uintptr(i)] = b
	}
}

// Unmap remove n bytes a partir de addr
func (f *Fake) Unmap(addr uintptr, n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := 0; i < n; i++ {
		delete(f.bytes, addr+uintptr(i))
	}
}

func (f *Fake) PutU64(addr uintptr, v uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	f.put(addr, b[:])
}

func (f *Fake) PutU32(addr uintptr, v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	f.put(addr, b[:])
}

func (f *Fake) PutI32(addr uintptr, v int32) {
	f.PutU32(addr, uint32(v))
}

func (f *Fake) PutF32(addr uintptr, v float32) {
	f.PutU32(addr, math.Float32bits(v))
}

// PutUTF16 grava s em UTF-16 preenchendo com zeros até maxChars
func (f *Fake) PutUTF16(addr uintptr, s string, maxChars int) {
	units := utf16.Encode([]rune(s))
	b := make([]byte, maxChars*2)
	for i, u := range units {
		if i >= maxChars {
			break
		}
		binary.LittleEndian.PutUint16(b[i*2:], u)
	}
	f.put(addr, b)
}

func (f *Fake) U32(addr uintptr) uint32 {
	f.mu.Lock()
	defer f.mu.Unlock()
	var b [4]byte
	for i := range b {
		b[i] = f.bytes[addr+uintptr(i)]
	}
	return binary.LittleEndian.Uint32(b[:])
}

func (f *Fake) I32(addr uintptr) int32 {
	return int32(f.U32(addr))
}

func (f *Fake) F32(addr uintptr) float32 {
	return math.Float32frombits(f.U32(addr))
}
