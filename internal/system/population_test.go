package system

import (
	"testing"

	"github.com/soulrift/server/internal/core/event"
	"github.com/soulrift/server/internal/world"
)

func TestEmergencyRespawnOnAdultExtinction(t *testing.T) {
	e := newTestEnv(t)
	ps := NewPopulationSystem(e.deps)

	// Lumen has only a child left; umbra still has an adult.
	e.ws.SpawnSoul(world.FactionLumen, 100, 144, 30, true, e.now())
	e.spawnAdult(world.FactionUmbra, 400, 144, 80)

	ps.Update(0)

	if got := e.ws.AdultCount(world.FactionLumen); got != e.cfg.Soul.MinRestingReserve {
		t.Fatalf("lumen adults = %d, want %d", got, e.cfg.Soul.MinRestingReserve)
	}
	// The healthy faction gets nothing.
	if got := e.ws.AdultCount(world.FactionUmbra); got != 1 {
		t.Fatalf("umbra adults = %d, want 1", got)
	}
	events := e.bus.Drain()
	if got := countKind(events, event.KindSoulSpawned); got != e.cfg.Soul.MinRestingReserve {
		t.Fatalf("spawn events = %d, want %d", got, e.cfg.Soul.MinRestingReserve)
	}

	// Every emergency spawn lands on home territory.
	e.ws.LivingSouls(func(so *world.Soul) {
		if so.Faction != world.FactionLumen || so.Child {
			return
		}
		tl := e.ws.Tiles.AtWorld(so.X, so.Y)
		if tl == nil || tl.Owner != world.FactionLumen {
			t.Errorf("emergency spawn at (%v,%v) off home territory", so.X, so.Y)
		}
	})

	// With adults present the guard stays quiet.
	ps.Update(0)
	if e.bus.Len() != 0 {
		t.Fatal("respawn repeated while adults were alive")
	}
}

func TestNoRespawnForFallenNexus(t *testing.T) {
	e := newTestEnv(t)
	ps := NewPopulationSystem(e.deps)

	e.ws.Nexus(world.FactionLumen).Destroyed = true

	ps.Update(0)
	if got := e.ws.Population(world.FactionLumen); got != 0 {
		t.Fatalf("population = %d for a destroyed nexus, want 0", got)
	}
}

func TestRespawnClampedByCap(t *testing.T) {
	e := newTestEnv(t)
	ps := NewPopulationSystem(e.deps)
	e.cfg.Soul.PopulationCap = 2

	e.ws.SpawnSoul(world.FactionLumen, 100, 144, 30, true, e.now())

	ps.Update(0)
	// One child plus at most one emergency adult fills the cap of 2.
	if got := e.ws.Population(world.FactionLumen); got != 2 {
		t.Fatalf("population = %d, want cap 2", got)
	}
}
