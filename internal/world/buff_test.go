package world

import (
	"testing"
	"time"
)

func TestModifiersDefaultToIdentity(t *testing.T) {
	bs := NewBuffSet()
	m := bs.Modifiers(FactionLumen)
	if m.Speed != 1 || m.CastTime != 1 || m.Energy != 1 {
		t.Fatalf("empty set modifiers = %+v, want all 1", m)
	}
}

func TestModifiersCombineMultiplicatively(t *testing.T) {
	bs := NewBuffSet()
	bs.Apply(&Buff{
		Key:       BuffKey{Source: BuffSourceDayNight, Faction: FactionLumen},
		SpeedMult: 1.2, CastTimeMult: 1, EnergyMult: 1,
	})
	bs.Apply(&Buff{
		Key:       BuffKey{Source: BuffSourceDisaster, Faction: FactionLumen},
		SpeedMult: 0.5, CastTimeMult: 1.3, EnergyMult: 0.9,
	})

	m := bs.Modifiers(FactionLumen)
	if got, want := m.Speed, 1.2*0.5; !near(got, want) {
		t.Errorf("speed = %v, want %v", got, want)
	}
	if got, want := m.CastTime, 1.3; !near(got, want) {
		t.Errorf("cast time = %v, want %v", got, want)
	}
	if got, want := m.Energy, 0.9; !near(got, want) {
		t.Errorf("energy = %v, want %v", got, want)
	}

	// The other faction is untouched.
	if m := bs.Modifiers(FactionUmbra); m.Speed != 1 {
		t.Errorf("umbra speed = %v, want 1", m.Speed)
	}
}

func TestApplyReplacesSameKey(t *testing.T) {
	bs := NewBuffSet()
	k := BuffKey{Source: BuffSourceDisaster, Faction: FactionUmbra}
	bs.Apply(&Buff{Key: k, SpeedMult: 0.5, CastTimeMult: 1, EnergyMult: 1})
	old := bs.Apply(&Buff{Key: k, SpeedMult: 0.8, CastTimeMult: 1, EnergyMult: 1})
	if old == nil || old.SpeedMult != 0.5 {
		t.Fatal("replaced buff not returned")
	}
	if bs.Len() != 1 {
		t.Fatalf("len = %d after same-key reapply, want 1", bs.Len())
	}
	if got := bs.Modifiers(FactionUmbra).Speed; !near(got, 0.8) {
		t.Errorf("speed = %v, want 0.8", got)
	}
}

func TestExpireDue(t *testing.T) {
	bs := NewBuffSet()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	bs.Apply(&Buff{
		Key:       BuffKey{Source: BuffSourceDisaster, Faction: FactionLumen},
		SpeedMult: 0.5, CastTimeMult: 1, EnergyMult: 1,
		ExpiresAt: now.Add(5 * time.Second),
	})
	bs.Apply(&Buff{
		Key:       BuffKey{Source: BuffSourceDayNight, Faction: FactionLumen},
		SpeedMult: 1.1, CastTimeMult: 1, EnergyMult: 1,
		// No expiry: source-cleared only.
	})

	if removed := bs.ExpireDue(now.Add(4 * time.Second)); len(removed) != 0 {
		t.Fatalf("removed %d buffs before expiry", len(removed))
	}
	removed := bs.ExpireDue(now.Add(6 * time.Second))
	if len(removed) != 1 || removed[0].Key.Source != BuffSourceDisaster {
		t.Fatalf("removed = %v, want the disaster buff only", removed)
	}
	// The zero-expiry buff survives indefinitely.
	if bs.Get(BuffKey{Source: BuffSourceDayNight, Faction: FactionLumen}) == nil {
		t.Fatal("source-cleared buff was expired")
	}
}

func TestRemoveBySource(t *testing.T) {
	bs := NewBuffSet()
	for f := Faction(0); f < NumFactions; f++ {
		bs.Apply(&Buff{
			Key:       BuffKey{Source: BuffSourceDisaster, Faction: f},
			SpeedMult: 0.5, CastTimeMult: 1, EnergyMult: 1,
		})
	}
	bs.Apply(&Buff{
		Key:       BuffKey{Source: BuffSourceDayNight, Faction: FactionLumen},
		SpeedMult: 1.1, CastTimeMult: 1, EnergyMult: 1,
	})

	removed := bs.RemoveBySource(BuffSourceDisaster)
	if len(removed) != int(NumFactions) {
		t.Fatalf("removed %d buffs, want %d", len(removed), NumFactions)
	}
	if bs.Len() != 1 {
		t.Fatalf("len = %d after removal, want 1", bs.Len())
	}
}

func near(a, b float64) bool {
	d := a - b
	return d < 1e-9 && d > -1e-9
}
