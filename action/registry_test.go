package action_test

import (
	"errors"
	"testing"
	"time"

	"multibox/action"
)

type fakeLimiter struct {
	allow    bool
	recorded []string
}

func (l *fakeLimiter) CanUse(string) bool { return l.allow }

func (l *fakeLimiter) RecordUsage(id string) error {
	l.recorded = append(l.recorded, id)
	return nil
}

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]action.Level{"": action.LevelNone, "Try": action.LevelTry, " pro ": action.LevelPro, "dev": action.LevelDev} {
		got, err := action.ParseLevel(in)
		if err != nil || got != want {
			t.Fatalf("expected %q -> %s, got %s (%v)", in, want, got, err)
		}
	}
	if _, err := action.ParseLevel("admin"); err == nil {
		t.Fatalf("expected unknown level to fail")
	}
}

func TestRegistryExecute(t *testing.T) {
	lim := &fakeLimiter{allow: true}
	reg := action.NewRegistry(action.StaticPermissions(action.LevelTry), lim, nil)

	result := true
	runs := 0
	must := func(a action.Action) {
		t.Helper()
		if err := reg.Register(a); err != nil {
			t.Fatalf("expected register to succeed, got %v", err)
		}
	}
	must(action.Action{ID: "tp", Permission: action.LevelTry, Run: func() bool { runs++; return result }})
	must(action.Action{ID: "qb", Permission: action.LevelPro, Run: func() bool { return true }})
	must(action.Action{ID: "boom", Run: func() bool { panic("nil snapshot") }})

	t.Run("duplicate and missing run", func(t *testing.T) {
		if err := reg.Register(action.Action{ID: "tp", Run: func() bool { return true }}); err == nil {
			t.Fatalf("expected duplicate to fail")
		}
		if err := reg.Register(action.Action{ID: "empty"}); err == nil {
			t.Fatalf("expected quick action without Run to fail")
		}
	})

	t.Run("unknown", func(t *testing.T) {
		if _, err := reg.Execute("nope"); !errors.Is(err, action.ErrUnknownAction) {
			t.Fatalf("expected ErrUnknownAction, got %v", err)
		}
	})

	t.Run("permission", func(t *testing.T) {
		if _, err := reg.Execute("qb"); !errors.Is(err, action.ErrPermission) {
			t.Fatalf("expected ErrPermission, got %v", err)
		}
	})

	t.Run("usage recorded only on success", func(t *testing.T) {
		if ok, err := reg.Execute("tp"); !ok || err != nil {
			t.Fatalf("expected success, got %v %v", ok, err)
		}
		result = false
		if ok, _ := reg.Execute("tp"); ok {
			t.Fatalf("expected failure reported")
		}
		if runs != 2 || len(lim.recorded) != 1 {
			t.Fatalf("expected 2 runs and 1 record, got %d and %v", runs, lim.recorded)
		}
	})

	t.Run("limited", func(t *testing.T) {
		lim.allow = false
		defer func() { lim.allow = true }()
		if _, err := reg.Execute("tp"); !errors.Is(err, action.ErrLimited) {
			t.Fatalf("expected ErrLimited, got %v", err)
		}
		if runs != 2 {
			t.Fatalf("expected limited action not to run")
		}
	})

	t.Run("panic recovered", func(t *testing.T) {
		if ok, err := reg.Execute("boom"); ok || err != nil {
			t.Fatalf("expected recovered failure, got %v %v", ok, err)
		}
	})
}

func TestRegistryToggles(t *testing.T) {
	reg := action.NewRegistry(action.StaticPermissions(action.LevelDev), nil, nil)

	var toggles []bool
	ticks := 0
	err := reg.Register(action.Action{
		ID:       "follow",
		Kind:     action.Toggle,
		OnToggle: func(on bool) { toggles = append(toggles, on) },
		Tick:     func() { ticks++ },
		Interval: 500 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("expected register to succeed, got %v", err)
	}

	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	reg.RunDue(now)
	if ticks != 0 {
		t.Fatalf("expected no tick while off")
	}

	if on, err := reg.Execute("follow"); !on || err != nil {
		t.Fatalf("expected toggle on, got %v %v", on, err)
	}
	reg.RunDue(now)
	reg.RunDue(now.Add(100 * time.Millisecond))
	reg.RunDue(now.Add(500 * time.Millisecond))
	if ticks != 2 {
		t.Fatalf("expected 2 ticks, got %d", ticks)
	}

	reg.StopAll()
	if reg.IsActive("follow") {
		t.Fatalf("expected toggle off after StopAll")
	}
	if len(toggles) != 2 || !toggles[0] || toggles[1] {
		t.Fatalf("expected on/off callbacks, got %v", toggles)
	}
	reg.RunDue(now.Add(time.Hour))
	if ticks != 2 {
		t.Fatalf("expected no tick after stop")
	}

	t.Run("lookup keeps order", func(t *testing.T) {
		if _, ok := reg.Lookup("follow"); !ok {
			t.Fatalf("expected follow registered")
		}
		if acts := reg.Actions(); len(acts) != 1 || acts[0].Kind != action.Toggle {
			t.Fatalf("unexpected actions %+v", acts)
		}
	})
}
