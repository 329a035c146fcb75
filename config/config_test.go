package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"multibox/offset"
)

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	return path
}

func TestLoadSettings(t *testing.T) {
	t.Run("missing file uses defaults", func(t *testing.T) {
		cfg, err := LoadSettings(filepath.Join(t.TempDir(), "nope.yaml"))
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if cfg.ProcessName != "ElementClient.exe" {
			t.Fatalf("expected default process name, got %q", cfg.ProcessName)
		}
		if len(cfg.DungeonPoints) != 19 {
			t.Fatalf("expected 19 dungeon points, got %d", len(cfg.DungeonPoints))
		}
	})

	t.Run("partial file keeps other defaults", func(t *testing.T) {
		path := writeTempFile(t, "multibox.yaml", "permission: try\nintervals:\n  freeze: 30ms\nfollow:\n  z_threshold: 2.5\n")
		cfg, err := LoadSettings(path)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if cfg.Permission != "try" {
			t.Fatalf("expected permission try, got %q", cfg.Permission)
		}
		if cfg.Intervals.Freeze != 30*time.Millisecond {
			t.Fatalf("expected 30ms freeze interval, got %v", cfg.Intervals.Freeze)
		}
		if cfg.Intervals.TopologyTTL != time.Second {
			t.Fatalf("expected default topology ttl, got %v", cfg.Intervals.TopologyTTL)
		}
		if cfg.Follow.ZThreshold != 2.5 {
			t.Fatalf("expected z threshold 2.5, got %v", cfg.Follow.ZThreshold)
		}
	})

	t.Run("unknown permission", func(t *testing.T) {
		path := writeTempFile(t, "multibox.yaml", "permission: admin\n")
		if _, err := LoadSettings(path); err == nil {
			t.Fatalf("expected error")
		}
	})

	t.Run("non-positive interval", func(t *testing.T) {
		path := writeTempFile(t, "multibox.yaml", "intervals:\n  scan: 0s\n")
		if _, err := LoadSettings(path); err == nil {
			t.Fatalf("expected error")
		}
	})

	t.Run("duplicate limit group", func(t *testing.T) {
		path := writeTempFile(t, "multibox.yaml", "limits:\n  - name: tp\n    limit: 1\n  - name: tp\n    limit: 2\n")
		if _, err := LoadSettings(path); err == nil {
			t.Fatalf("expected error")
		}
	})

	t.Run("bad dungeon mode", func(t *testing.T) {
		path := writeTempFile(t, "multibox.yaml", "dungeon_points:\n  - name: a\n    radius: 10\n    mode: raid\n")
		if _, err := LoadSettings(path); err == nil {
			t.Fatalf("expected error")
		}
	})
}

func TestSaveSettingsRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "multibox.yaml")
	cfg := DefaultSettings()
	cfg.Permission = "dev"
	if err := SaveSettings(path, &cfg); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	loaded, err := LoadSettings(path)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if loaded.Permission != "dev" || loaded.Intervals.Freeze != cfg.Intervals.Freeze {
		t.Fatalf("expected saved values back, got %+v", loaded)
	}
}

func TestDefaultOffsetsParse(t *testing.T) {
	src, err := DefaultOffsets()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	table, err := offset.ParseTable(src)
	if err != nil {
		t.Fatalf("expected default table to be valid, got %v", err)
	}
	if err := table.CheckModule("ElementClient.exe"); err != nil {
		t.Fatalf("expected static paths on ElementClient.exe, got %v", err)
	}
	if err := table.Require("char_origin", "char_base", "char_id", "party_ptr", "party_leader_id", "location_id", "target_ptr"); err != nil {
		t.Fatalf("expected core paths, got %v", err)
	}
}

func TestLoadOffsetsOverride(t *testing.T) {
	path := writeTempFile(t, "offsets.yaml", "char_base: \"ptr:char_origin +0x70\"\nextra_hp: \"int32:char_base +0x10\"\n")
	src, err := LoadOffsets(path)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if src["char_base"] != "ptr:char_origin +0x70" {
		t.Fatalf("expected override, got %q", src["char_base"])
	}
	if src["char_id"] == "" || src["extra_hp"] == "" {
		t.Fatalf("expected defaults and additions to be present")
	}
}

func TestDungeonPointTrigger(t *testing.T) {
	p := DefaultDungeonPoints()[0]
	if !p.InTrigger(-200, 300) {
		t.Fatalf("expected point inside trigger box")
	}
	if p.InTrigger(-250, 282) {
		t.Fatalf("expected point outside trigger box")
	}
}
