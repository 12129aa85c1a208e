package world

import "time"

// BuffSource tags which system created a buff; a source can clear all
// of its own buffs without touching others'.
type BuffSource string

const (
	BuffSourceDayNight BuffSource = "daynight"
	BuffSourceDisaster BuffSource = "disaster"
	BuffSourceSpell    BuffSource = "spell"
)

// BuffKey identifies a buff by source and affected faction. Typed key,
// not a concatenated string.
type BuffKey struct {
	Source  BuffSource
	Faction Faction
}

// Buff is a multiplicative modifier set applied to one faction.
type Buff struct {
	Key          BuffKey
	SpeedMult    float64
	CastTimeMult float64
	EnergyMult   float64

	// ExpiresAt zero means the buff lives until its source clears it.
	ExpiresAt time.Time
}

// Modifiers is the combined multiplier set for one faction.
type Modifiers struct {
	Speed    float64
	CastTime float64
	Energy   float64
}

// BuffSet owns all active buffs, keyed by (source, faction).
type BuffSet struct {
	buffs map[BuffKey]*Buff
}

func NewBuffSet() *BuffSet {
	return &BuffSet{buffs: make(map[BuffKey]*Buff, 8)}
}

// Apply inserts or replaces the buff for its key and returns the
// replaced buff, if any.
func (bs *BuffSet) Apply(b *Buff) *Buff {
	old := bs.buffs[b.Key]
	bs.buffs[b.Key] = b
	return old
}

// Get returns the buff for a key, or nil.
func (bs *BuffSet) Get(k BuffKey) *Buff {
	return bs.buffs[k]
}

// RemoveBySource clears every buff created by the source and returns
// the removed buffs.
func (bs *BuffSet) RemoveBySource(src BuffSource) []*Buff {
	var removed []*Buff
	for f := Faction(0); f < NumFactions; f++ {
		k := BuffKey{Source: src, Faction: f}
		if b, ok := bs.buffs[k]; ok {
			delete(bs.buffs, k)
			removed = append(removed, b)
		}
	}
	return removed
}

// ExpireDue removes buffs whose expiry has passed and returns them.
// Iteration is by faction then source list order, so removal events are
// deterministic.
func (bs *BuffSet) ExpireDue(now time.Time) []*Buff {
	var removed []*Buff
	for f := Faction(0); f < NumFactions; f++ {
		for _, src := range []BuffSource{BuffSourceDayNight, BuffSourceDisaster, BuffSourceSpell} {
			k := BuffKey{Source: src, Faction: f}
			b, ok := bs.buffs[k]
			if !ok || b.ExpiresAt.IsZero() || b.ExpiresAt.After(now) {
				continue
			}
			delete(bs.buffs, k)
			removed = append(removed, b)
		}
	}
	return removed
}

// Modifiers combines all active buffs for a faction multiplicatively.
func (bs *BuffSet) Modifiers(f Faction) Modifiers {
	m := Modifiers{Speed: 1, CastTime: 1, Energy: 1}
	for _, src := range []BuffSource{BuffSourceDayNight, BuffSourceDisaster, BuffSourceSpell} {
		if b, ok := bs.buffs[BuffKey{Source: src, Faction: f}]; ok {
			m.Speed *= b.SpeedMult
			m.CastTime *= b.CastTimeMult
			m.Energy *= b.EnergyMult
		}
	}
	return m
}

// Len returns the number of active buffs.
func (bs *BuffSet) Len() int { return len(bs.buffs) }
