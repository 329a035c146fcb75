package limiter

import (
	"path/filepath"
	"testing"
	"time"
)

var testGroups = []Group{
	{Name: "tp", Limit: 2, Actions: []string{"tp_next", "tp_exit"}},
	{Name: "qb", Limit: 1, Actions: []string{"tp_to_so"}},
}

func openTemp(t *testing.T, path string) *Store {
	t.Helper()
	s, err := Open(path, testGroups, nil)
	if err != nil {
		t.Fatalf("expected store to open, got %v", err)
	}
	return s
}

func TestLimits(t *testing.T) {
	s := openTemp(t, filepath.Join(t.TempDir(), "usage.db"))
	defer s.Close()

	noon := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	s.SetClock(func() time.Time { return noon })

	if !s.CanUse("tp_next") {
		t.Fatalf("expected fresh group to allow use")
	}
	s.RecordUsage("tp_next")
	s.RecordUsage("tp_exit")
	if s.CanUse("tp_next") || s.CanUse("tp_exit") {
		t.Fatalf("expected shared tp group to be exhausted")
	}
	if !s.CanUse("tp_to_so") {
		t.Fatalf("expected qb group to be independent")
	}
	if !s.CanUse("press_space") {
		t.Fatalf("expected action without group to be unlimited")
	}
	if err := s.RecordUsage("press_space"); err != nil {
		t.Fatalf("expected unlimited action to record nothing, got %v", err)
	}

	stats, err := s.Stats()
	if err != nil {
		t.Fatalf("expected stats, got %v", err)
	}
	if len(stats) != 2 || stats[1].Group != "tp" || stats[1].Used != 2 || stats[1].Remaining != 0 {
		t.Fatalf("unexpected stats %+v", stats)
	}
}

func TestDayBoundaryIsUTCPlus3(t *testing.T) {
	s := openTemp(t, filepath.Join(t.TempDir(), "usage.db"))
	defer s.Close()

	// 20:59 UTC ainda é o mesmo dia em MSK; 21:00 UTC já é o dia seguinte
	before := time.Date(2024, 5, 1, 20, 59, 0, 0, time.UTC)
	s.SetClock(func() time.Time { return before })
	s.RecordUsage("tp_to_so")
	if s.CanUse("tp_to_so") {
		t.Fatalf("expected qb exhausted")
	}

	after := time.Date(2024, 5, 1, 21, 0, 0, 0, time.UTC)
	s.SetClock(func() time.Time { return after })
	if !s.CanUse("tp_to_so") {
		t.Fatalf("expected new MSK day to reset the counter")
	}
}

func TestPersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "usage.db")
	day := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

	s := openTemp(t, path)
	s.SetClock(func() time.Time { return day })
	s.RecordUsage("tp_next")
	if err := s.Close(); err != nil {
		t.Fatalf("expected close, got %v", err)
	}

	s = openTemp(t, path)
	defer s.Close()
	s.SetClock(func() time.Time { return day })
	if n, err := s.Used("tp"); err != nil || n != 1 {
		t.Fatalf("expected 1 use after reopen, got %d err=%v", n, err)
	}
}
