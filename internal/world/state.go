package world

import (
	"time"

	"github.com/soulrift/server/internal/core/ecs"
)

// State holds the authoritative entity collections: souls, orbs, active
// spells, nexuses, and the tile map. The orchestrator owns it
// exclusively; systems receive it by reference and mutate in place.
// Single-goroutine access only (game loop).
//
// Iteration over souls, orbs, and spells follows insertion order so the
// per-tick event sequence is deterministic.
type State struct {
	Entities *ecs.World

	souls    *ecs.Store[Soul]
	soulList []*Soul

	orbs    *ecs.Store[EnergyOrb]
	orbList []*EnergyOrb

	spells        *ecs.Store[ActiveSpell]
	spellList     []*ActiveSpell
	spellByTile   map[TileCoord]ecs.EntityID
	spellByCaster map[ecs.EntityID]ecs.EntityID

	Tiles   *TileMap
	Nexuses [NumFactions]*Nexus
	Scores  [NumFactions]*ScoreMatrix
	Buffs   *BuffSet

	borderMargin int

	// Time-of-day snapshot, written by the day/night system each tick
	// and read by the snapshot encoder.
	CycleFraction float64
	PhaseName     string

	// Over is set when a nexus falls; the orchestrator freezes the
	// world after the final tick's events drain.
	Over bool
}

// NewState builds an empty world on the given tile map and places both
// nexuses on their faction's side of the frontier row.
func NewState(tiles *TileMap, borderMargin int, nexusHealth float64) *State {
	s := &State{
		Entities:      ecs.NewWorld(),
		souls:         ecs.NewStore[Soul](),
		orbs:          ecs.NewStore[EnergyOrb](),
		spells:        ecs.NewStore[ActiveSpell](),
		spellByTile:   make(map[TileCoord]ecs.EntityID, 16),
		spellByCaster: make(map[ecs.EntityID]ecs.EntityID, 16),
		Tiles:         tiles,
		Buffs:         NewBuffSet(),
		borderMargin:  borderMargin,
	}
	s.Entities.Registry().Register(s.souls)
	s.Entities.Registry().Register(s.orbs)
	s.Entities.Registry().Register(s.spells)

	midRow := tiles.Height() / 2
	anchors := [NumFactions]TileCoord{
		{X: 2, Y: midRow},
		{X: tiles.Width() - 3, Y: midRow},
	}
	for f := Faction(0); f < NumFactions; f++ {
		cx, cy := tiles.Center(anchors[f])
		s.Nexuses[f] = &Nexus{
			Faction:   f,
			X:         cx,
			Y:         cy,
			Tile:      anchors[f],
			Health:    nexusHealth,
			MaxHealth: nexusHealth,
		}
	}
	s.RecomputeScores()
	return s
}

// RecomputeScores rebuilds both factions' score matrices. Called after
// every ownership change; full recompute is fine because captures are
// rare relative to the tick rate.
func (s *State) RecomputeScores() {
	for f := Faction(0); f < NumFactions; f++ {
		s.Scores[f] = ComputeScores(
			s.Tiles, f,
			s.Nexuses[f].Tile,
			s.Nexuses[f.Opponent()].Tile,
			s.borderMargin,
		)
	}
}

// Nexus returns the faction's nexus.
func (s *State) Nexus(f Faction) *Nexus {
	if !f.Valid() {
		return nil
	}
	return s.Nexuses[f]
}

// ── Souls ──────────────────────────────────────────────────────────

// SpawnSoul creates a soul and registers it in the world.
func (s *State) SpawnSoul(f Faction, x, y, energy float64, child bool, now time.Time) *Soul {
	so := &Soul{
		ID:         s.Entities.CreateEntity(),
		Faction:    f,
		X:          x,
		Y:          y,
		Energy:     energy,
		Child:      child,
		State:      StateRoaming,
		StateSince: now,
	}
	s.souls.Set(so.ID, so)
	s.soulList = append(s.soulList, so)
	return so
}

// Soul looks up a soul by id. Dead-but-not-removed souls are still
// returned; callers check Dead where it matters.
func (s *State) Soul(id ecs.EntityID) (*Soul, bool) {
	if id.IsZero() {
		return nil, false
	}
	return s.souls.Get(id)
}

// AllSouls visits souls in spawn order. Souls spawned during iteration
// are not visited until the next tick.
func (s *State) AllSouls(fn func(*Soul)) {
	list := s.soulList
	for _, so := range list {
		fn(so)
	}
}

// LivingSouls visits only souls not marked dead.
func (s *State) LivingSouls(fn func(*Soul)) {
	list := s.soulList
	for _, so := range list {
		if !so.Dead {
			fn(so)
		}
	}
}

// Population counts living souls of a faction, children included.
func (s *State) Population(f Faction) int {
	n := 0
	for _, so := range s.soulList {
		if !so.Dead && so.Faction == f {
			n++
		}
	}
	return n
}

// AdultCount counts living adults of a faction.
func (s *State) AdultCount(f Faction) int {
	n := 0
	for _, so := range s.soulList {
		if !so.Dead && so.Faction == f && so.Adult() {
			n++
		}
	}
	return n
}

// CountInStates counts living faction souls currently in any of the
// given states.
func (s *State) CountInStates(f Faction, states ...SoulState) int {
	n := 0
	for _, so := range s.soulList {
		if so.Dead || so.Faction != f {
			continue
		}
		for _, st := range states {
			if so.State == st {
				n++
				break
			}
		}
	}
	return n
}

// NearbySouls visits living souls within radius of the point, excluding
// the given id.
func (s *State) NearbySouls(x, y, radius float64, exclude ecs.EntityID, fn func(*Soul)) {
	r2 := radius * radius
	for _, so := range s.soulList {
		if so.Dead || so.ID == exclude {
			continue
		}
		if Dist2(x, y, so.X, so.Y) <= r2 {
			fn(so)
		}
	}
}

// PurgeSoul removes a soul from the list indexes after the entity pool
// has destroyed it. Missing ids are silent no-ops.
func (s *State) PurgeSoul(id ecs.EntityID) {
	s.souls.Remove(id)
	for i, so := range s.soulList {
		if so.ID == id {
			s.soulList = append(s.soulList[:i], s.soulList[i+1:]...)
			return
		}
	}
}

// ── Spells ─────────────────────────────────────────────────────────

// AddSpell registers an active spell after rechecking the uniqueness
// guards: one spell per caster, one per target tile. Returns false and
// leaves the state untouched when either guard fails; same-tick races
// resolve by this recheck before commit.
func (s *State) AddSpell(sp *ActiveSpell) bool {
	if _, taken := s.spellByTile[sp.Target]; taken {
		return false
	}
	if _, casting := s.spellByCaster[sp.Caster]; casting {
		return false
	}
	sp.ID = s.Entities.CreateEntity()
	s.spells.Set(sp.ID, sp)
	s.spellList = append(s.spellList, sp)
	s.spellByTile[sp.Target] = sp.ID
	s.spellByCaster[sp.Caster] = sp.ID
	return true
}

// Spell looks up an active spell by id.
func (s *State) Spell(id ecs.EntityID) (*ActiveSpell, bool) {
	if id.IsZero() {
		return nil, false
	}
	return s.spells.Get(id)
}

// SpellByCaster returns the caster's active spell, if any.
func (s *State) SpellByCaster(caster ecs.EntityID) *ActiveSpell {
	id, ok := s.spellByCaster[caster]
	if !ok {
		return nil
	}
	sp, _ := s.spells.Get(id)
	return sp
}

// SpellTargets reports whether any active spell already targets the tile.
func (s *State) SpellTargets(c TileCoord) bool {
	_, ok := s.spellByTile[c]
	return ok
}

// AllSpells visits active spells in cast order.
func (s *State) AllSpells(fn func(*ActiveSpell)) {
	list := s.spellList
	for _, sp := range list {
		fn(sp)
	}
}

// SpellCount returns the number of active spells.
func (s *State) SpellCount() int { return len(s.spellList) }

// RemoveSpell destroys an active spell and releases its id. Spells have
// no death grace; they vanish the tick they complete or break.
func (s *State) RemoveSpell(id ecs.EntityID) {
	sp, ok := s.spells.Get(id)
	if !ok {
		return
	}
	s.spells.Remove(id)
	delete(s.spellByTile, sp.Target)
	delete(s.spellByCaster, sp.Caster)
	for i, e := range s.spellList {
		if e.ID == id {
			s.spellList = append(s.spellList[:i], s.spellList[i+1:]...)
			break
		}
	}
	s.Entities.Pool().Destroy(id)
}

// ── Orbs ───────────────────────────────────────────────────────────

// AddOrb creates an energy orb at a fixed position.
func (s *State) AddOrb(f Faction, x, y float64) *EnergyOrb {
	o := &EnergyOrb{
		ID:      s.Entities.CreateEntity(),
		Faction: f,
		X:       x,
		Y:       y,
	}
	s.orbs.Set(o.ID, o)
	s.orbList = append(s.orbList, o)
	return o
}

// Orb looks up an orb by id.
func (s *State) Orb(id ecs.EntityID) (*EnergyOrb, bool) {
	return s.orbs.Get(id)
}

// AllOrbs visits orbs in creation order.
func (s *State) AllOrbs(fn func(*EnergyOrb)) {
	for _, o := range s.orbList {
		fn(o)
	}
}
