package system

import (
	"testing"

	"github.com/soulrift/server/internal/core/event"
	"github.com/soulrift/server/internal/world"
)

func TestOrbCollectionFirstComeFirstServed(t *testing.T) {
	e := newTestEnv(t)
	os := NewOrbSystem(e.deps)

	orb := e.ws.AddOrb(world.FactionLumen, 100, 100)
	first := e.spawnAdult(world.FactionLumen, 105, 100, 40)
	second := e.spawnAdult(world.FactionLumen, 110, 100, 40)

	os.Update(0)

	if first.Energy != 40+e.cfg.Orb.Energy {
		t.Errorf("first soul energy = %v, want %v", first.Energy, 40+e.cfg.Orb.Energy)
	}
	if second.Energy != 40 {
		t.Errorf("second soul fed from the same orb: %v", second.Energy)
	}
	if orb.RespawnAt != e.now().Add(e.cfg.Orb.RespawnDelay) {
		t.Errorf("respawn at %v", orb.RespawnAt)
	}

	events := e.bus.Drain()
	if countKind(events, event.KindOrbCollected) != 1 {
		t.Fatalf("collection events = %d, want 1", countKind(events, event.KindOrbCollected))
	}
	oc := firstOfKind(events, event.KindOrbCollected).(event.OrbCollected)
	if oc.Collector != first.ID {
		t.Errorf("collector = %v, want %v", oc.Collector, first.ID)
	}

	// A despawned orb feeds nobody.
	os.Update(0)
	if countKind(e.bus.Drain(), event.KindOrbCollected) != 0 {
		t.Fatal("cooling orb collected")
	}
}

func TestOrbIgnoresEnemyAndFarSouls(t *testing.T) {
	e := newTestEnv(t)
	os := NewOrbSystem(e.deps)

	e.ws.AddOrb(world.FactionLumen, 100, 100)
	e.spawnAdult(world.FactionUmbra, 105, 100, 40)                       // wrong faction
	e.spawnAdult(world.FactionLumen, 100, 100+e.cfg.Orb.CollectRadius*2, 40) // out of range

	os.Update(0)
	if countKind(e.bus.Drain(), event.KindOrbCollected) != 0 {
		t.Fatal("ineligible soul collected the orb")
	}
}

func TestOrbEnergyModifierApplies(t *testing.T) {
	e := newTestEnv(t)
	os := NewOrbSystem(e.deps)

	e.ws.Buffs.Apply(&world.Buff{
		Key:          world.BuffKey{Source: world.BuffSourceDayNight, Faction: world.FactionLumen},
		SpeedMult:    1, CastTimeMult: 1, EnergyMult: 1.2,
	})

	e.ws.AddOrb(world.FactionLumen, 100, 100)
	so := e.spawnAdult(world.FactionLumen, 100, 100, 40)

	os.Update(0)

	want := 40 + e.cfg.Orb.Energy*1.2
	if so.Energy != want {
		t.Fatalf("energy = %v, want %v", so.Energy, want)
	}
}

func TestOrbRespawnsAfterDelay(t *testing.T) {
	e := newTestEnv(t)
	os := NewOrbSystem(e.deps)

	orb := e.ws.AddOrb(world.FactionLumen, 100, 100)
	orb.RespawnAt = e.now().Add(e.cfg.Orb.RespawnDelay)

	os.Update(0)
	if countKind(e.bus.Drain(), event.KindOrbSpawned) != 0 {
		t.Fatal("orb respawned early")
	}

	e.clk.Advance(e.cfg.Orb.RespawnDelay)
	os.Update(0)
	if countKind(e.bus.Drain(), event.KindOrbSpawned) != 1 {
		t.Fatal("missing respawn event")
	}
	if !orb.Collectible(e.now()) {
		t.Fatal("orb not collectible after respawn")
	}
}
