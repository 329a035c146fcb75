package freeze

import (
	"testing"
	"time"

	"github.com/sasha-s/go-deadlock"
)

type sink struct {
	mu     deadlock.Mutex
	writes map[uintptr]int
	last   map[uintptr]float32
	fail   bool
}

func newSink() *sink {
	return &sink{writes: map[uintptr]int{}, last: map[uintptr]float32{}}
}

func (s *sink) WriteF32(addr uintptr, v float32) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return false
	}
	s.writes[addr]++
	s.last[addr] = v
	return true
}

func (s *sink) count(addr uintptr) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes[addr]
}

func TestApply(t *testing.T) {
	s := newSink()
	tk := NewTicker(time.Hour, nil)
	tk.Set(1, Override{W: s, Addr: 0x100, Value: 5})
	tk.Set(2, Override{W: s, Addr: 0x200, Value: -5})

	if n := tk.Apply(); n != 2 {
		t.Fatalf("expected 2 writes, got %d", n)
	}
	if s.last[0x100] != 5 || s.last[0x200] != -5 {
		t.Fatalf("unexpected values %v", s.last)
	}

	if !tk.Clear(1) || tk.Clear(1) {
		t.Fatalf("expected first clear to report an override and the second not")
	}
	tk.Apply()
	if s.count(0x100) != 1 || s.count(0x200) != 2 {
		t.Fatalf("expected cleared pid to stop receiving writes, got %v", s.writes)
	}

	s.fail = true
	if n := tk.Apply(); n != 0 {
		t.Fatalf("expected failed writes not to count, got %d", n)
	}
}

func TestStartStopClearsOverrides(t *testing.T) {
	s := newSink()
	tk := NewTicker(time.Millisecond, nil)
	tk.Set(1, Override{W: s, Addr: 0x100, Value: 3})

	tk.Start()
	tk.Start()
	deadline := time.Now().Add(2 * time.Second)
	for s.count(0x100) < 3 {
		if time.Now().After(deadline) {
			t.Fatalf("expected ticker to apply overrides")
		}
		time.Sleep(time.Millisecond)
	}

	tk.Stop()
	if tk.IsRunning() || tk.Len() != 0 {
		t.Fatalf("expected stopped ticker with no overrides")
	}
	after := s.count(0x100)
	time.Sleep(20 * time.Millisecond)
	if s.count(0x100) != after {
		t.Fatalf("expected no writes after stop")
	}

	tk.Stop()
}

func TestClearAll(t *testing.T) {
	s := newSink()
	tk := NewTicker(time.Hour, nil)
	tk.Set(1, Override{W: s, Addr: 0x100})
	tk.Set(2, Override{W: s, Addr: 0x200})

	if pids := tk.PIDs(); len(pids) != 2 || pids[0] != 1 || pids[1] != 2 {
		t.Fatalf("expected pids [1 2], got %v", pids)
	}
	if pids := tk.ClearAll(); len(pids) != 2 {
		t.Fatalf("expected 2 cleared pids, got %v", pids)
	}
	if tk.Len() != 0 {
		t.Fatalf("expected empty ticker")
	}
}
