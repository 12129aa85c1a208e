package system

import (
	"testing"
	"time"

	"github.com/soulrift/server/internal/core/event"
	"github.com/soulrift/server/internal/world"
)

func TestMatingPairsAndSpawnsChild(t *testing.T) {
	e := newTestEnv(t)
	ms := NewMatingSystem(e.deps)

	a := e.ws.SpawnSoul(world.FactionLumen, 100, 100, 80, false, e.now())
	a.SetState(world.StateMating, e.now())
	b := e.ws.SpawnSoul(world.FactionLumen, 130, 100, 80, false, e.now())

	ms.Update(0)

	if a.Partner != b.ID || b.Partner != a.ID {
		t.Fatalf("pairing failed: %v / %v", a.Partner, b.Partner)
	}
	if b.State != world.StateMating {
		t.Fatalf("drafted mate state = %v", b.State)
	}
	started := e.bus.Drain()
	if countKind(started, event.KindMatingStarted) != 1 {
		t.Fatalf("mating started events = %d, want 1", countKind(started, event.KindMatingStarted))
	}

	// Too early: no completion.
	ms.Update(0)
	if countKind(e.bus.Drain(), event.KindMatingCompleted) != 0 {
		t.Fatal("couple completed instantly")
	}

	e.clk.Advance(e.cfg.Mating.Duration)
	ms.Update(0)

	done := e.bus.Drain()
	completed := firstOfKind(done, event.KindMatingCompleted)
	if completed == nil {
		t.Fatal("missing completion event")
	}
	mc := completed.(event.MatingCompleted)
	if mc.Child == 0 {
		t.Fatal("no child spawned")
	}
	if mc.X != 115 || mc.Y != 100 {
		t.Errorf("child at (%v,%v), want couple midpoint (115,100)", mc.X, mc.Y)
	}
	child, ok := e.ws.Soul(mc.Child)
	if !ok || !child.Child || child.Faction != world.FactionLumen {
		t.Fatalf("child soul = %+v", child)
	}
	if child.MatureAt != e.now().Add(e.cfg.Soul.ChildMaturity) {
		t.Errorf("child maturity deadline = %v", child.MatureAt)
	}
	if countKind(done, event.KindSoulSpawned) != 1 {
		t.Error("missing spawn event for the child")
	}

	// Both parents released, cooled down, and back to roaming.
	for _, p := range [2]*world.Soul{a, b} {
		if !p.Partner.IsZero() || p.State != world.StateRoaming {
			t.Errorf("parent %v partner=%v state=%v", p.ID, p.Partner, p.State)
		}
		if p.MatingCooldownUntil != e.now().Add(e.cfg.Mating.Cooldown) {
			t.Errorf("parent %v cooldown = %v", p.ID, p.MatingCooldownUntil)
		}
	}

	// Nothing left to complete.
	ms.Update(0)
	if e.bus.Len() != 0 {
		t.Fatalf("%d stray events after completion", e.bus.Len())
	}
	if got := e.ws.Population(world.FactionLumen); got != 3 {
		t.Fatalf("population = %d, want 3", got)
	}
}

func TestMatingRespectsPopulationCap(t *testing.T) {
	e := newTestEnv(t)
	ms := NewMatingSystem(e.deps)
	e.cfg.Soul.PopulationCap = 2

	a := e.ws.SpawnSoul(world.FactionLumen, 100, 100, 80, false, e.now())
	a.SetState(world.StateMating, e.now())
	b := e.ws.SpawnSoul(world.FactionLumen, 130, 100, 80, false, e.now())

	ms.Update(0)
	e.clk.Advance(e.cfg.Mating.Duration)
	ms.Update(0)

	done := e.bus.Drain()
	completed := firstOfKind(done, event.KindMatingCompleted)
	if completed == nil {
		t.Fatal("completion suppressed entirely at the cap")
	}
	if completed.(event.MatingCompleted).Child != 0 {
		t.Fatal("child spawned over the population cap")
	}
	if got := e.ws.Population(world.FactionLumen); got != 2 {
		t.Fatalf("population = %d, want 2", got)
	}

	// A childless completion still releases both parents.
	for _, p := range [2]*world.Soul{a, b} {
		if !p.Partner.IsZero() || p.State != world.StateRoaming {
			t.Errorf("parent %v partner=%v state=%v", p.ID, p.Partner, p.State)
		}
	}
}

func TestPairingIneligibility(t *testing.T) {
	e := newTestEnv(t)
	ms := NewMatingSystem(e.deps)

	seeker := e.ws.SpawnSoul(world.FactionLumen, 100, 100, 80, false, e.now())
	seeker.SetState(world.StateMating, e.now())

	// Child, cooling down, low energy, wrong faction: all refused.
	e.ws.SpawnSoul(world.FactionLumen, 110, 100, 80, true, e.now())
	cooled := e.ws.SpawnSoul(world.FactionLumen, 115, 100, 80, false, e.now())
	cooled.MatingCooldownUntil = e.now().Add(time.Hour)
	e.ws.SpawnSoul(world.FactionLumen, 120, 100, 40, false, e.now())
	e.ws.SpawnSoul(world.FactionUmbra, 125, 100, 80, false, e.now())

	ms.Update(0)

	if !seeker.Partner.IsZero() {
		t.Fatalf("paired with an ineligible candidate: %v", seeker.Partner)
	}
	if countKind(e.bus.Drain(), event.KindMatingStarted) != 0 {
		t.Fatal("unexpected pairing event")
	}
}

func TestPairingThrottled(t *testing.T) {
	e := newTestEnv(t)
	ms := NewMatingSystem(e.deps)

	a := e.ws.SpawnSoul(world.FactionLumen, 100, 100, 80, false, e.now())
	a.SetState(world.StateMating, e.now())

	// First update runs a scan (no candidates yet) and arms the throttle.
	ms.Update(0)

	// A candidate arriving between scans is not paired until the next
	// scan window opens.
	b := e.ws.SpawnSoul(world.FactionLumen, 130, 100, 80, false, e.now())
	ms.Update(0)
	if !a.Partner.IsZero() {
		t.Fatal("paired inside the scan throttle window")
	}

	e.clk.Advance(e.cfg.Mating.PairInterval)
	ms.Update(0)
	if a.Partner != b.ID {
		t.Fatal("not paired once the window reopened")
	}
}
