package world

import (
	"testing"
	"time"

	"github.com/soulrift/server/internal/core/ecs"
)

func newTestState() *State {
	return NewState(NewTileMap(16, 8, 32), 4, 100)
}

func TestSpawnAndPurgeSoul(t *testing.T) {
	s := newTestState()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	so := s.SpawnSoul(FactionLumen, 40, 40, 80, false, now)
	if so.ID.IsZero() {
		t.Fatal("spawned soul got the zero entity id")
	}
	if got, ok := s.Soul(so.ID); !ok || got != so {
		t.Fatal("lookup after spawn failed")
	}
	if got := s.Population(FactionLumen); got != 1 {
		t.Fatalf("population = %d, want 1", got)
	}

	s.Entities.Pool().Destroy(so.ID)
	s.PurgeSoul(so.ID)
	if _, ok := s.Soul(so.ID); ok {
		t.Fatal("soul still resolvable after purge")
	}
	if got := s.Population(FactionLumen); got != 0 {
		t.Fatalf("population = %d after purge, want 0", got)
	}
	// Purging again is a no-op.
	s.PurgeSoul(so.ID)
}

func TestPopulationCounts(t *testing.T) {
	s := newTestState()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	adult := s.SpawnSoul(FactionLumen, 40, 40, 80, false, now)
	s.SpawnSoul(FactionLumen, 48, 40, 30, true, now)
	dead := s.SpawnSoul(FactionLumen, 56, 40, 80, false, now)
	dead.Dead = true
	s.SpawnSoul(FactionUmbra, 400, 40, 80, false, now)

	if got := s.Population(FactionLumen); got != 2 {
		t.Errorf("lumen population = %d, want 2", got)
	}
	if got := s.AdultCount(FactionLumen); got != 1 {
		t.Errorf("lumen adults = %d, want 1", got)
	}
	adult.SetState(StateSeeking, now)
	if got := s.CountInStates(FactionLumen, StateSeeking, StateCasting); got != 1 {
		t.Errorf("seeking/casting count = %d, want 1", got)
	}
}

func TestNearbySoulsExcludesSelfAndDead(t *testing.T) {
	s := newTestState()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	home := s.SpawnSoul(FactionLumen, 100, 100, 80, false, now)
	near := s.SpawnSoul(FactionLumen, 110, 100, 80, false, now)
	corpse := s.SpawnSoul(FactionLumen, 105, 100, 80, false, now)
	corpse.Dead = true
	s.SpawnSoul(FactionLumen, 300, 100, 80, false, now) // out of range

	var seen []ecs.EntityID
	s.NearbySouls(home.X, home.Y, 50, home.ID, func(o *Soul) {
		seen = append(seen, o.ID)
	})
	if len(seen) != 1 || seen[0] != near.ID {
		t.Fatalf("nearby = %v, want only %v", seen, near.ID)
	}
}

func TestAddSpellUniquenessGuards(t *testing.T) {
	s := newTestState()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	caster := s.SpawnSoul(FactionLumen, 100, 100, 80, false, now)
	other := s.SpawnSoul(FactionLumen, 120, 100, 80, false, now)
	target := TileCoord{X: 9, Y: 3}

	if !s.AddSpell(&ActiveSpell{Caster: caster.ID, Faction: FactionLumen, Target: target, StartedAt: now, CompletesAt: now.Add(3 * time.Second)}) {
		t.Fatal("first spell rejected")
	}
	// Same tile, different caster.
	if s.AddSpell(&ActiveSpell{Caster: other.ID, Faction: FactionLumen, Target: target, StartedAt: now, CompletesAt: now.Add(3 * time.Second)}) {
		t.Fatal("second spell on the same tile accepted")
	}
	// Same caster, different tile.
	if s.AddSpell(&ActiveSpell{Caster: caster.ID, Faction: FactionLumen, Target: TileCoord{X: 10, Y: 3}, StartedAt: now, CompletesAt: now.Add(3 * time.Second)}) {
		t.Fatal("second spell by the same caster accepted")
	}
	if s.SpellCount() != 1 {
		t.Fatalf("spell count = %d, want 1", s.SpellCount())
	}
}

func TestRemoveSpellClearsIndexes(t *testing.T) {
	s := newTestState()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	caster := s.SpawnSoul(FactionLumen, 100, 100, 80, false, now)
	target := TileCoord{X: 9, Y: 3}

	sp := &ActiveSpell{Caster: caster.ID, Faction: FactionLumen, Target: target, StartedAt: now, CompletesAt: now.Add(3 * time.Second)}
	if !s.AddSpell(sp) {
		t.Fatal("spell rejected")
	}
	s.RemoveSpell(sp.ID)

	if s.SpellTargets(target) {
		t.Error("tile index still claims the removed spell")
	}
	if s.SpellByCaster(caster.ID) != nil {
		t.Error("caster index still claims the removed spell")
	}
	if s.SpellCount() != 0 {
		t.Errorf("spell count = %d, want 0", s.SpellCount())
	}
	// Both indexes free again: the caster can recast on the same tile.
	if !s.AddSpell(&ActiveSpell{Caster: caster.ID, Faction: FactionLumen, Target: target, StartedAt: now, CompletesAt: now.Add(3 * time.Second)}) {
		t.Error("recast after removal rejected")
	}
}

func TestAddEnergyClamps(t *testing.T) {
	s := newTestState()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	so := s.SpawnSoul(FactionLumen, 40, 40, 90, false, now)

	so.AddEnergy(50, 100)
	if so.Energy != 100 {
		t.Errorf("energy = %v after overfill, want 100", so.Energy)
	}
	so.AddEnergy(-150, 100)
	if so.Energy != 0 {
		t.Errorf("energy = %v after overdrain, want 0", so.Energy)
	}
}

func TestNexusDamageAndRegen(t *testing.T) {
	s := newTestState()
	n := s.Nexus(FactionUmbra)
	if n == nil || n.Health != 100 {
		t.Fatalf("nexus = %+v, want health 100", n)
	}

	if n.Damage(40) {
		t.Fatal("nexus destroyed at 60 health")
	}
	n.Regen(100)
	if n.Health != 100 {
		t.Errorf("health = %v after regen, want capped at 100", n.Health)
	}
	if !n.Damage(150) {
		t.Fatal("lethal damage did not destroy the nexus")
	}
	if !n.Destroyed || n.Health != 0 {
		t.Errorf("destroyed nexus state = %+v", n)
	}
	// Destroyed nexuses never regenerate.
	n.Regen(50)
	if n.Health != 0 {
		t.Errorf("destroyed nexus regenerated to %v", n.Health)
	}
}

func TestOrbCollectible(t *testing.T) {
	s := newTestState()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	o := s.AddOrb(FactionLumen, 64, 64)
	if !o.Collectible(now) {
		t.Fatal("fresh orb not collectible")
	}
	o.RespawnAt = now.Add(10 * time.Second)
	if o.Collectible(now) {
		t.Fatal("cooling orb collectible")
	}
	if !o.Collectible(now.Add(11 * time.Second)) {
		t.Fatal("orb not collectible after respawn time")
	}
}
