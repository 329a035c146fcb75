package main

import (
	"fmt"

	"multibox/config"
	"multibox/entity"
	"multibox/memory"
	"multibox/offset"
	"multibox/process"
)

// loadConfig carrega as configurações e a tabela de offsets, já validada contra
// o módulo configurado e os nomes que o snapshot usa
func loadConfig(path string) (*config.Settings, *offset.Table, error) {
	cfg, err := config.LoadSettings(path)
	if err != nil {
		return nil, nil, err
	}

	src, err := config.LoadOffsets(cfg.OffsetsFile)
	if err != nil {
		return nil, nil, err
	}
	table, err := offset.ParseTable(src)
	if err != nil {
		return nil, nil, err
	}
	if err := table.CheckModule(cfg.ModuleName); err != nil {
		return nil, nil, err
	}
	if err := table.Require(entity.Anchors...); err != nil {
		return nil, nil, err
	}
	if err := table.Require(entity.Fields...); err != nil {
		return nil, nil, err
	}
	return cfg, table, nil
}

func newResolver(cfg *config.Settings, table *offset.Table) (*offset.Resolver, error) {
	dedup, ok := offset.DedupByName(cfg.Dedup)
	if !ok {
		return nil, fmt.Errorf("unknown dedup strategy %q", cfg.Dedup)
	}
	return offset.NewResolver(table, offset.WithDedup(dedup)), nil
}

// attachFirst abre o cliente de menor PID
func attachFirst(cfg *config.Settings) (*memory.Accessor, error) {
	pid, err := process.FindFirst(cfg.ProcessName)
	if err != nil {
		return nil, err
	}
	return memory.Attach(pid, cfg.ModuleName)
}
