// Package freeze reescreve valores continuamente para vencer a simulação do jogo,
// que sobrescreve uma escrita única no tick seguinte.
package freeze

import (
	"log/slog"
	"slices"
	"time"

	"github.com/sasha-s/go-deadlock"
)

// Writer é o destino das escritas
type Writer interface {
	WriteF32(addr uintptr, val float32) bool
}

// Override é uma escrita float32 reaplicada a cada tick
type Override struct {
	W     Writer
	Addr  uintptr
	Value float32
}

// Ticker aplica os overrides por PID num intervalo fixo
type Ticker struct {
	interval time.Duration
	log      *slog.Logger

	mu       deadlock.Mutex
	entries  map[uint32]Override
	running  bool
	stopChan chan struct{}
	done     chan struct{}
	ticks    int
}

func NewTicker(interval time.Duration, log *slog.Logger) *Ticker {
	if log == nil {
		log = slog.Default()
	}
	return &Ticker{
		interval: interval,
		log:      log,
		entries:  make(map[uint32]Override),
	}
}

// Set registra ou troca o override de um PID
func (t *Ticker) Set(pid uint32, o Override) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries[pid] = o
}

func (t *Ticker) Get(pid uint32) (Override, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	o, ok := t.entries[pid]
	return o, ok
}

// Clear remove o override de um PID. Retorna se havia um.
func (t *Ticker) Clear(pid uint32) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.entries[pid]
	delete(t.entries, pid)
	return ok
}

// ClearAll remove todos os overrides e retorna os PIDs que tinham um
func (t *Ticker) ClearAll() []uint32 {
	t.mu.Lock()
	defer t.mu.Unlock()
	pids := make([]uint32, 0, len(t.entries))
	for pid := range t.entries {
		pids = append(pids, pid)
	}
	clear(t.entries)
	return pids
}

// PIDs retorna os PIDs com override ativo, em ordem
func (t *Ticker) PIDs() []uint32 {
	t.mu.Lock()
	defer t.mu.Unlock()
	pids := make([]uint32, 0, len(t.entries))
	for pid := range t.entries {
		pids = append(pids, pid)
	}
	slices.Sort(pids)
	return pids
}

func (t *Ticker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}

// Apply escreve todos os overrides uma vez. A escrita acontece com o lock
// tomado, então Clear garante que o PID não recebe mais nenhuma escrita.
func (t *Ticker) Apply() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.ticks++
	n := 0
	for _, o := range t.entries {
		if o.W.WriteF32(o.Addr, o.Value) {
			n++
		}
	}
	return n
}

// Ticks conta quantas vezes Apply rodou
func (t *Ticker) Ticks() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.ticks
}

func (t *Ticker) Start() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.running {
		return
	}
	t.running = true
	t.stopChan = make(chan struct{})
	t.done = make(chan struct{})
	go t.loop(t.stopChan, t.done)
}

// Stop para a goroutine, espera ela sair e limpa os overrides
func (t *Ticker) Stop() {
	t.mu.Lock()
	if !t.running {
		t.mu.Unlock()
		return
	}
	t.running = false
	close(t.stopChan)
	done := t.done
	t.mu.Unlock()

	<-done
	t.ClearAll()
}

func (t *Ticker) IsRunning() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.running
}

func (t *Ticker) loop(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			t.safeApply()
		}
	}
}

func (t *Ticker) safeApply() {
	defer func() {
		if r := recover(); r != nil {
			t.log.Error("panic in freeze loop", "err", r)
		}
	}()
	t.Apply()
}
