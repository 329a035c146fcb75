package app

import (
	"multibox/action"
	"multibox/config"
)

// pontos especiais por id de ação
var specialActions = []struct {
	id, label, point string
}{
	{"tp_long_left", "TP long left", config.PointLongLeft},
	{"tp_long_right", "TP long right", config.PointLongRight},
	{"tp_exit", "TP exit", config.PointExit},
	{"tp_to_so", "TP SO", config.PointSO},
	{"tp_to_go", "TP GO", config.PointGO},
}

func (a *App) registerActions() error {
	iv := a.cfg.Intervals
	acts := []action.Action{
		{
			ID: "follow", Label: "Follow leader", Kind: action.Toggle, Permission: action.LevelTry,
			Interval: iv.Follow,
			OnToggle: a.toggleFollow,
			Tick:     func() { a.coord.Follow(a.topo.Get(false)) },
		},
		{
			ID: "attack", Label: "Assist leader", Kind: action.Toggle, Permission: action.LevelPro,
			Interval: iv.Attack,
			Tick:     func() { a.coord.CopyLeaderTarget(a.topo.Get(false)) },
		},
		{
			ID: "dungeon", Label: "Dungeon route", Kind: action.Toggle, Permission: action.LevelPro,
			Interval: iv.Dungeon,
			OnToggle: func(on bool) {
				if !on {
					a.setStatus("route", "idle")
				}
			},
			Tick: a.dungeonTick,
		},
		{
			ID: "press_space", Label: "Press key on all", Permission: action.LevelTry,
			Run: func() bool {
				if err := a.keys.PressAll(a.cfg.Teleport.PressKey); err != nil {
					a.log.Warn("key press failed", "err", err)
					return false
				}
				return true
			},
		},
		{
			ID: "tp_to_leader", Label: "TP to leader", Permission: action.LevelTry,
			Run: func() bool { return a.coord.TeleportToLeader(a.topo.Get(true)) > 0 },
		},
		{
			ID: "tp_to_target", Label: "TP to target", Permission: action.LevelPro,
			Run: func() bool { return a.coord.TeleportToTarget(a.Active()) },
		},
		{
			ID: "tp_next", Label: "TP next point", Permission: action.LevelPro,
			Run: func() bool {
				name, n := a.coord.Next(a.Active(), a.topo.Get(true))
				if n > 0 {
					a.log.Info("next point", "point", name, "teleported", n)
				}
				return n > 0
			},
		},
	}
	for _, s := range specialActions {
		point := s.point
		acts = append(acts, action.Action{
			ID: s.id, Label: s.label, Permission: action.LevelPro,
			Run: func() bool {
				p, ok := a.cfg.Points[point]
				if !ok {
					a.log.Warn("special point not configured", "point", point)
					return false
				}
				return a.coord.TeleportToSpecial(a.Active(), a.topo.Get(true), p) > 0
			},
		})
	}

	for _, act := range acts {
		if err := a.registry.Register(act); err != nil {
			return err
		}
	}
	return nil
}

// toggleFollow liga o ticker de override junto com o follow. Ao desligar, os
// overrides são removidos antes de parar a goroutine.
func (a *App) toggleFollow(on bool) {
	if on {
		a.ticker.Start()
		return
	}
	a.coord.StopFollow()
	a.ticker.Stop()
}

func (a *App) dungeonTick() {
	var loot action.LootProbe
	if first, ok := a.manager.Main(); ok && first.IsValid() {
		loot = first.Snap.World()
	}
	a.setStatus("route", a.coord.CheckDungeonPoints(a.Active(), a.topo.Get(false), loot))
}
