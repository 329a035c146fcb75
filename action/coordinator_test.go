package action_test

import (
	"strings"
	"testing"
	"time"

	"multibox/action"
	"multibox/character"
	"multibox/config"
	"multibox/freeze"
	"multibox/memory"
	"multibox/memory/memtest"
	"multibox/offset"
	"multibox/party"
)

type keys struct {
	all     []string
	forPIDs [][]uint32
}

func (k *keys) PressAll(key string) error {
	k.all = append(k.all, key)
	return nil
}

func (k *keys) PressFor(key string, pids ...uint32) error {
	k.forPIDs = append(k.forPIDs, pids)
	return nil
}

type lootFunc func(x, y, r float32) bool

func (f lootFunc) LootNear(x, y, r float32) bool { return f(x, y, r) }

type fixture struct {
	clients map[uint32]*memtest.Client
	manager *character.Manager
	topo    *party.Cache
	ticker  *freeze.Ticker
	keys    *keys
	co      *action.Coordinator
}

var (
	partyPoint = config.DungeonPoint{Name: "P", Trigger: config.XY{X: 0, Y: 0}, Target: config.XYZ{X: 500, Y: 500, Z: 50}, Radius: 30, CheckLoot: true, Mode: config.ModeParty}
	soloPoint  = config.DungeonPoint{Name: "S", Trigger: config.XY{X: 1000, Y: 1000}, Target: config.XYZ{X: 7, Y: 7, Z: 7}, Radius: 10, Mode: config.ModeSolo}
)

func newFixture(t *testing.T) *fixture {
	t.Helper()
	src, err := config.DefaultOffsets()
	if err != nil {
		t.Fatalf("expected default offsets, got %v", err)
	}
	table, err := offset.ParseTable(src)
	if err != nil {
		t.Fatalf("expected table to parse, got %v", err)
	}

	f := &fixture{clients: map[uint32]*memtest.Client{}, keys: &keys{}}
	for _, pid := range []uint32{1, 2, 3} {
		c := memtest.NewClient(pid, int32(pid)*100, "char")
		c.JoinParty(100, 3)
		f.clients[pid] = c
	}
	f.manager = character.NewManager(offset.NewResolver(table), character.ManagerOptions{
		ModuleName: memtest.Module,
		Find:       func(string) ([]uint32, error) { return []uint32{1, 2, 3}, nil },
		Attach: func(pid uint32, _ string) (*memory.Accessor, error) {
			return f.clients[pid].Accessor(), nil
		},
	})
	if err := f.manager.Scan(); err != nil {
		t.Fatalf("expected scan to succeed, got %v", err)
	}
	f.topo = party.NewCache(f.manager, time.Second)
	f.ticker = freeze.NewTicker(time.Hour, nil)
	opts := action.OptionsFromSettings(&config.Settings{
		Follow:   config.FollowConfig{ZThreshold: 1},
		Teleport: config.TeleportConfig{LeaderRadius: 300, LeaderZOffset: 0.5, TargetZOffset: 2, LootRadius: 50, PressKey: "space"},
	})
	opts.DungeonPoints = []config.DungeonPoint{partyPoint, soloPoint}
	f.co = action.NewCoordinator(f.keys, f.manager, f.ticker, opts)
	return f
}

func (f *fixture) char(pid uint32) *character.Character {
	c, _ := f.manager.Get(pid)
	return c
}

func TestTeleportManyBatchesKeyPress(t *testing.T) {
	f := newFixture(t)
	chars := f.manager.Valid()

	if n := f.co.TeleportMany(chars, 1, 2, 3, true); n != 3 {
		t.Fatalf("expected 3 teleports, got %d", n)
	}
	if len(f.keys.all) != 1 || len(f.keys.forPIDs) != 0 {
		t.Fatalf("expected exactly one batched key press, got all=%d for=%d", len(f.keys.all), len(f.keys.forPIDs))
	}
	for pid, c := range f.clients {
		if x, y, z := c.Position(); x != 1 || y != 2 || z != 3 {
			t.Fatalf("expected pid %d at (1,2,3), got (%v,%v,%v)", pid, x, y, z)
		}
	}

	t.Run("no press when nothing moved", func(t *testing.T) {
		for _, c := range f.clients {
			c.FailWrites = true
		}
		defer func() {
			for _, c := range f.clients {
				c.FailWrites = false
			}
		}()
		if n := f.co.TeleportMany(chars, 0, 0, 0, true); n != 0 {
			t.Fatalf("expected 0 teleports, got %d", n)
		}
		if len(f.keys.all) != 1 {
			t.Fatalf("expected no extra key press")
		}
	})
}

func TestTeleportOne(t *testing.T) {
	f := newFixture(t)
	c := f.char(2)

	if !f.co.TeleportOne(c, 5, 6, 7, true) {
		t.Fatalf("expected teleport")
	}
	if len(f.keys.forPIDs) != 1 || f.keys.forPIDs[0][0] != 2 {
		t.Fatalf("expected key press for pid 2, got %v", f.keys.forPIDs)
	}
	if f.co.TeleportOne(nil, 0, 0, 0, false) {
		t.Fatalf("expected nil character to fail")
	}

	f.clients[2].Kill()
	if f.co.TeleportOne(c, 0, 0, 0, false) {
		t.Fatalf("expected dead process to fail")
	}
}

func TestFollow(t *testing.T) {
	f := newFixture(t)
	leader := f.clients[1]
	leader.SetFlyStatus(2)
	leader.SetPosition(0, 0, 100)
	f.clients[2].SetPosition(0, 0, 90)
	f.clients[3].SetPosition(0, 0, 105)

	topo := f.topo.Get(true)
	if n := f.co.Follow(topo); n != 2 {
		t.Fatalf("expected 2 corrections, got %d", n)
	}
	if o, ok := f.ticker.Get(2); !ok || o.Value != 10 {
		t.Fatalf("expected pid 2 to climb at leader speed, got %+v ok=%v", o, ok)
	}
	if o, ok := f.ticker.Get(3); !ok || o.Value != -10 {
		t.Fatalf("expected pid 3 to descend, got %+v ok=%v", o, ok)
	}
	if f.clients[2].FlySpeedZ() != 10 {
		t.Fatalf("expected immediate write of the override value")
	}
	if _, ok := f.ticker.Get(1); ok {
		t.Fatalf("expected no override for the leader")
	}

	t.Run("ticker keeps reasserting", func(t *testing.T) {
		f.clients[2].SetFlySpeedZ(0)
		f.ticker.Apply()
		if f.clients[2].FlySpeedZ() != 10 {
			t.Fatalf("expected override to be reapplied")
		}
	})

	t.Run("within threshold releases", func(t *testing.T) {
		f.clients[2].SetPosition(0, 0, 99.5)
		f.co.Follow(topo)
		if _, ok := f.ticker.Get(2); ok {
			t.Fatalf("expected override cleared")
		}
		if f.clients[2].FlySpeedZ() != 0 {
			t.Fatalf("expected vertical speed zeroed")
		}
	})

	t.Run("other location is skipped", func(t *testing.T) {
		f.clients[3].SetLocation(9)
		f.co.Follow(topo)
		if _, ok := f.ticker.Get(3); ok {
			t.Fatalf("expected cross-location member released")
		}
	})

	t.Run("leader landing releases everyone", func(t *testing.T) {
		f.clients[3].SetLocation(1)
		f.clients[2].SetPosition(0, 0, 50)
		f.co.Follow(topo)
		if f.ticker.Len() != 2 {
			t.Fatalf("expected 2 overrides, got %d", f.ticker.Len())
		}
		leader.SetFlyStatus(0)
		if n := f.co.Follow(topo); n != 0 || f.ticker.Len() != 0 {
			t.Fatalf("expected no overrides with leader on the ground")
		}
	})
}

func TestStopFollow(t *testing.T) {
	f := newFixture(t)
	f.clients[1].SetFlyStatus(2)
	f.clients[1].SetPosition(0, 0, 100)
	f.clients[2].SetPosition(0, 0, 0)
	f.co.Follow(f.topo.Get(true))

	if n := f.co.StopFollow(); n != 1 {
		t.Fatalf("expected 1 override cleared, got %d", n)
	}
	if f.ticker.Len() != 0 || f.clients[2].FlySpeedZ() != 0 {
		t.Fatalf("expected overrides cleared and speed zeroed")
	}
}

func TestFollowReleasesFormerMembers(t *testing.T) {
	f := newFixture(t)
	f.clients[1].SetFlyStatus(2)
	f.clients[1].SetPosition(0, 0, 100)
	f.clients[2].SetPosition(0, 0, 90)
	f.clients[3].SetPosition(0, 0, 90)
	if n := f.co.Follow(f.topo.Get(true)); n != 2 {
		t.Fatalf("expected 2 corrections, got %d", n)
	}

	t.Run("member leaving the party", func(t *testing.T) {
		f.clients[3].LeaveParty()
		f.co.Follow(f.topo.Get(true))
		if _, ok := f.ticker.Get(3); ok {
			t.Fatalf("expected override of pid 3 cleared after leaving")
		}
		f.ticker.Apply()
		if f.clients[3].FlySpeedZ() != 0 {
			t.Fatalf("expected pid 3 vertical speed zeroed, got %v", f.clients[3].FlySpeedZ())
		}
		if _, ok := f.ticker.Get(2); !ok {
			t.Fatalf("expected pid 2 still corrected")
		}
	})

	t.Run("member becoming leader", func(t *testing.T) {
		f.clients[1].JoinParty(200, 2)
		f.clients[2].JoinParty(200, 2)
		topo := f.topo.Get(true)
		if topo.Leader == nil || topo.Leader.PID != 2 {
			t.Fatalf("expected pid 2 as leader, got %+v", topo.Leader)
		}
		f.co.Follow(topo)
		if _, ok := f.ticker.Get(2); ok {
			t.Fatalf("expected no override on the new leader")
		}
		f.ticker.Apply()
		if f.clients[2].FlySpeedZ() != 0 {
			t.Fatalf("expected new leader vertical speed zeroed, got %v", f.clients[2].FlySpeedZ())
		}
	})
}

func TestCopyLeaderTarget(t *testing.T) {
	f := newFixture(t)
	topo := f.topo.Get(true)

	if n := f.co.CopyLeaderTarget(topo); n != 0 {
		t.Fatalf("expected nothing without a leader target, got %d", n)
	}
	f.clients[1].SetTargetID(555)
	if n := f.co.CopyLeaderTarget(topo); n != 2 {
		t.Fatalf("expected 2 copies, got %d", n)
	}
	if f.clients[2].TargetID() != 555 || f.clients[3].TargetID() != 555 {
		t.Fatalf("expected members to target 555")
	}
}

func TestTeleportToTargetAndLeader(t *testing.T) {
	f := newFixture(t)

	t.Run("target", func(t *testing.T) {
		c := f.char(2)
		if f.co.TeleportToTarget(c) {
			t.Fatalf("expected failure without target")
		}
		f.clients[2].SetTarget(9, 10, 20, 30)
		if !f.co.TeleportToTarget(c) {
			t.Fatalf("expected teleport to target")
		}
		if x, y, z := f.clients[2].Position(); x != 10 || y != 20 || z != 32 {
			t.Fatalf("expected (10,20,32), got (%v,%v,%v)", x, y, z)
		}
		if len(f.keys.all)+len(f.keys.forPIDs) != 0 {
			t.Fatalf("expected no key press")
		}
	})

	t.Run("leader", func(t *testing.T) {
		f.clients[1].SetPosition(0, 0, 100)
		f.clients[2].SetPosition(100, 0, 100)
		f.clients[3].SetPosition(1000, 0, 0)
		if n := f.co.TeleportToLeader(f.topo.Get(true)); n != 1 {
			t.Fatalf("expected 1 member in range, got %d", n)
		}
		if x, y, z := f.clients[2].Position(); x != 0 || y != 0 || z != 100.5 {
			t.Fatalf("expected (0,0,100.5), got (%v,%v,%v)", x, y, z)
		}
		if x, _, _ := f.clients[3].Position(); x != 1000 {
			t.Fatalf("expected far member untouched")
		}
		if len(f.keys.all) != 1 {
			t.Fatalf("expected one batched key press")
		}
	})
}

func TestCheckDungeonPoints(t *testing.T) {
	f := newFixture(t)
	leader := f.char(1)
	noLoot := lootFunc(func(x, y, r float32) bool { return false })
	topo := f.topo.Get(true)

	f.clients[1].SetPosition(0, 0, 0)
	f.clients[2].SetPosition(5, 5, 0)
	f.clients[3].SetPosition(200, 0, 0)

	if s := f.co.CheckDungeonPoints(leader, topo, noLoot); !strings.Contains(s, "2/3 ready") {
		t.Fatalf("expected readiness status, got %q", s)
	}

	f.clients[3].SetPosition(-5, 10, 0)
	var radius float32
	loot := lootFunc(func(x, y, r float32) bool { radius = r; return true })
	if s := f.co.CheckDungeonPoints(leader, topo, loot); !strings.Contains(s, "waiting for loot") || radius != 50 {
		t.Fatalf("expected loot wait with radius 50, got %q r=%v", s, radius)
	}

	s := f.co.CheckDungeonPoints(leader, topo, noLoot)
	if !strings.Contains(s, "teleported 3/3") {
		t.Fatalf("expected group teleport, got %q", s)
	}
	for pid, c := range f.clients {
		if x, y, z := c.Position(); x != 500 || y != 500 || z != 50 {
			t.Fatalf("expected pid %d at party target, got (%v,%v,%v)", pid, x, y, z)
		}
	}

	t.Run("party points ignored for non-leader", func(t *testing.T) {
		f.clients[2].SetPosition(0, 0, 0)
		if s := f.co.CheckDungeonPoints(f.char(2), topo, noLoot); s != "no trigger points active" {
			t.Fatalf("expected no action, got %q", s)
		}
	})

	t.Run("solo point", func(t *testing.T) {
		f.clients[2].SetPosition(1005, 995, 0)
		s := f.co.CheckDungeonPoints(f.char(2), topo, noLoot)
		if !strings.Contains(s, "(solo) teleported") {
			t.Fatalf("expected solo teleport, got %q", s)
		}
		if x, _, _ := f.clients[2].Position(); x != 7 {
			t.Fatalf("expected pid 2 at solo target")
		}
		last := f.keys.forPIDs[len(f.keys.forPIDs)-1]
		if len(last) != 1 || last[0] != 2 {
			t.Fatalf("expected single key press for pid 2, got %v", last)
		}
	})

	t.Run("no active window", func(t *testing.T) {
		if s := f.co.CheckDungeonPoints(nil, topo, noLoot); s != "no active window" {
			t.Fatalf("unexpected status %q", s)
		}
	})
}

func TestNextAndSpecialPoints(t *testing.T) {
	f := newFixture(t)
	topo := f.topo.Get(true)

	f.clients[2].SetPosition(10, -10, 0)
	name, n := f.co.Next(f.char(2), topo)
	if name != "P" || n != 3 {
		t.Fatalf("expected whole group moved by P, got %q %d", name, n)
	}

	if name, n := f.co.Next(f.char(2), topo); name != "" || n != 0 {
		t.Fatalf("expected no trigger at the target, got %q %d", name, n)
	}

	t.Run("leader used without active", func(t *testing.T) {
		f.clients[1].SetPosition(0, 0, 0)
		if name, _ := f.co.Next(nil, topo); name != "P" {
			t.Fatalf("expected leader inside P, got %q", name)
		}
	})

	t.Run("special solo", func(t *testing.T) {
		p := config.DefaultPoints()[config.PointLongLeft]
		if n := f.co.TeleportToSpecial(f.char(3), topo, p); n != 1 {
			t.Fatalf("expected 1, got %d", n)
		}
		if x, y, z := f.clients[3].Position(); x != -100 || y != 200 || z != 250 {
			t.Fatalf("unexpected position (%v,%v,%v)", x, y, z)
		}
	})

	t.Run("special party", func(t *testing.T) {
		p := config.DefaultPoints()[config.PointExit]
		if n := f.co.TeleportToSpecial(f.char(3), topo, p); n != 3 {
			t.Fatalf("expected 3, got %d", n)
		}
	})

	t.Run("point needs trigger", func(t *testing.T) {
		f.clients[3].SetPosition(900, 900, 0)
		if f.co.TeleportToPoint(f.char(3), soloPoint) {
			t.Fatalf("expected failure outside trigger")
		}
		f.clients[3].SetPosition(1000, 1000, 0)
		if !f.co.TeleportToPoint(f.char(3), soloPoint) {
			t.Fatalf("expected teleport inside trigger")
		}
	})
}
