package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Settings é a configuração carregável de multibox.yaml
type Settings struct {
	ProcessName string `yaml:"process_name"`
	ModuleName  string `yaml:"module_name"`
	OffsetsFile string `yaml:"offsets_file"` // sobrescreve entradas da tabela embutida
	Dedup       string `yaml:"dedup"`        // "unique" ou "distinct"
	Permission  string `yaml:"permission"`   // none, try, pro, dev
	UsageDB     string `yaml:"usage_db"`

	Intervals Intervals      `yaml:"intervals"`
	Follow    FollowConfig   `yaml:"follow"`
	Teleport  TeleportConfig `yaml:"teleport"`
	Limits    []LimitGroup   `yaml:"limits"`

	Points        map[string]Point `yaml:"points"`
	DungeonPoints []DungeonPoint   `yaml:"dungeon_points"`

	// Console mapeia tecla do console -> id da ação
	Console map[string]string `yaml:"console"`
	// Hotkeys mapeia combinação global ("CTRL+F1") -> id da ação
	Hotkeys map[string]string `yaml:"hotkeys"`
}

type Intervals struct {
	Tick        time.Duration `yaml:"tick"`
	Scan        time.Duration `yaml:"scan"`
	Freeze      time.Duration `yaml:"freeze"`
	TopologyTTL time.Duration `yaml:"topology_ttl"`
	Follow      time.Duration `yaml:"follow"`
	Attack      time.Duration `yaml:"attack"`
	Dungeon     time.Duration `yaml:"dungeon"`
}

type FollowConfig struct {
	ZThreshold float32 `yaml:"z_threshold"`
}

type TeleportConfig struct {
	LeaderRadius  float32 `yaml:"leader_radius"`
	LeaderZOffset float32 `yaml:"leader_z_offset"`
	TargetZOffset float32 `yaml:"target_z_offset"`
	LootRadius    float32 `yaml:"loot_radius"`
	PressKey      string  `yaml:"press_key"`
}

// LimitGroup agrupa ações que dividem um limite diário
type LimitGroup struct {
	Name    string   `yaml:"name"`
	Limit   int      `yaml:"limit"`
	Actions []string `yaml:"actions"`
}

var permissions = []string{"none", "try", "pro", "dev"}

func DefaultSettings() Settings {
	return Settings{
		ProcessName: "ElementClient.exe",
		ModuleName:  "ElementClient.exe",
		Dedup:       "unique",
		Permission:  "pro",
		UsageDB:     "usage.db",
		Intervals: Intervals{
			Tick:        500 * time.Millisecond,
			Scan:        2 * time.Second,
			Freeze:      50 * time.Millisecond,
			TopologyTTL: time.Second,
			Follow:      500 * time.Millisecond,
			Attack:      500 * time.Millisecond,
			Dungeon:     time.Second,
		},
		Follow: FollowConfig{ZThreshold: 1},
		Teleport: TeleportConfig{
			LeaderRadius:  300,
			LeaderZOffset: 0.5,
			TargetZOffset: 2,
			LootRadius:    50,
			PressKey:      "space",
		},
		Limits: []LimitGroup{
			{Name: "tp", Limit: 200, Actions: []string{"tp_next", "tp_long_left", "tp_long_right", "tp_exit"}},
			{Name: "qb", Limit: 100, Actions: []string{"tp_to_so", "tp_to_go"}},
		},
		Points:        DefaultPoints(),
		DungeonPoints: DefaultDungeonPoints(),
		Console: map[string]string{
			"1": "follow",
			"2": "attack",
			"3": "dungeon",
			"l": "tp_to_leader",
			"t": "tp_to_target",
			"n": "tp_next",
			"s": "press_space",
		},
		Hotkeys: map[string]string{
			"F1": "follow",
			"F2": "attack",
			"F3": "dungeon",
			"F5": "tp_to_leader",
			"F6": "tp_next",
		},
	}
}

// LoadSettings carrega o arquivo sobre os valores padrão. Arquivo inexistente retorna os padrões.
func LoadSettings(path string) (*Settings, error) {
	cfg := DefaultSettings()

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return &cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading settings: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("loading settings: %w", err)
	}

	if err := validateSettings(&cfg); err != nil {
		return nil, fmt.Errorf("loading settings: %w", err)
	}

	return &cfg, nil
}

// SaveSettings grava a configuração em YAML
func SaveSettings(path string, cfg *Settings) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("saving settings: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("saving settings: %w", err)
	}
	return nil
}

func validateSettings(cfg *Settings) error {
	if strings.TrimSpace(cfg.ProcessName) == "" {
		return fmt.Errorf("process_name is required")
	}
	if strings.TrimSpace(cfg.ModuleName) == "" {
		return fmt.Errorf("module_name is required")
	}
	if !contains(permissions, strings.ToLower(cfg.Permission)) {
		return fmt.Errorf("unknown permission: %q", cfg.Permission)
	}
	if cfg.Dedup != "unique" && cfg.Dedup != "distinct" {
		return fmt.Errorf("unknown dedup strategy: %q", cfg.Dedup)
	}

	iv := cfg.Intervals
	for name, d := range map[string]time.Duration{
		"tick": iv.Tick, "scan": iv.Scan, "freeze": iv.Freeze, "topology_ttl": iv.TopologyTTL,
		"follow": iv.Follow, "attack": iv.Attack, "dungeon": iv.Dungeon,
	} {
		if d <= 0 {
			return fmt.Errorf("interval %s must be positive", name)
		}
	}

	if cfg.Follow.ZThreshold < 0 {
		return fmt.Errorf("follow z_threshold must not be negative")
	}
	if cfg.Teleport.LeaderRadius <= 0 {
		return fmt.Errorf("teleport leader_radius must be positive")
	}

	seen := make(map[string]bool)
	for i, g := range cfg.Limits {
		if strings.TrimSpace(g.Name) == "" {
			return fmt.Errorf("limit group %d name is required", i)
		}
		if seen[g.Name] {
			return fmt.Errorf("duplicate limit group: %s", g.Name)
		}
		seen[g.Name] = true
		if g.Limit <= 0 {
			return fmt.Errorf("limit group %s needs a positive limit", g.Name)
		}
	}

	for name, p := range cfg.Points {
		if p.Mode != ModeSolo && p.Mode != ModeParty {
			return fmt.Errorf("point %s: unknown mode %q", name, p.Mode)
		}
	}
	for i, p := range cfg.DungeonPoints {
		if p.Mode != ModeSolo && p.Mode != ModeParty {
			return fmt.Errorf("dungeon point %d (%s): unknown mode %q", i, p.Name, p.Mode)
		}
		if p.Radius <= 0 {
			return fmt.Errorf("dungeon point %d (%s): radius must be positive", i, p.Name)
		}
	}

	return nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
