package system

import (
	"time"

	"go.uber.org/zap"

	"github.com/soulrift/server/internal/core/ecs"
	"github.com/soulrift/server/internal/core/event"
	coresys "github.com/soulrift/server/internal/core/system"
	"github.com/soulrift/server/internal/world"
)

// pairKey identifies an unordered couple.
type pairKey struct {
	lo, hi ecs.EntityID
}

func makePairKey(a, b ecs.EntityID) pairKey {
	if b < a {
		a, b = b, a
	}
	return pairKey{lo: a, hi: b}
}

// MatingSystem pairs willing souls, walks each couple through the
// mating duration, and spawns a child at the couple's midpoint when it
// completes under the population cap. Pairing scans are throttled so a
// soul cannot churn through partners tick by tick. Phase 6 (Mating).
type MatingSystem struct {
	deps       *Deps
	nextPairAt time.Time
	processed  map[pairKey]time.Time
}

func NewMatingSystem(deps *Deps) *MatingSystem {
	return &MatingSystem{
		deps:      deps,
		processed: make(map[pairKey]time.Time),
	}
}

func (s *MatingSystem) Phase() coresys.Phase { return coresys.PhaseMating }

func (s *MatingSystem) Update(dt time.Duration) {
	now := s.deps.Clock.Now()

	if !now.Before(s.nextPairAt) {
		s.pairCandidates(now)
		s.nextPairAt = now.Add(s.deps.Cfg.Mating.PairInterval)
		s.purgeProcessed(now)
	}

	s.completeCouples(now)
}

// pairCandidates matches unpaired souls in the mating state with the
// nearest willing candidate of the same faction. A soul already in the
// mating state counts as willing; an eligible roaming adult can be
// drafted in.
func (s *MatingSystem) pairCandidates(now time.Time) {
	ws := s.deps.World

	ws.LivingSouls(func(so *world.Soul) {
		if so.State != world.StateMating || !so.Partner.IsZero() {
			return
		}
		mate := s.findMate(so, now)
		if mate == nil {
			return
		}
		key := makePairKey(so.ID, mate.ID)
		if _, done := s.processed[key]; done {
			return
		}
		s.processed[key] = now

		so.Partner = mate.ID
		so.MatingSince = now
		if mate.State != world.StateMating {
			mate.SetState(world.StateMating, now)
		}
		mate.Partner = so.ID
		mate.MatingSince = now

		s.deps.Bus.Emit(event.MatingStarted{
			A:       so.ID,
			B:       mate.ID,
			Faction: int(so.Faction),
		})
		s.deps.Log.Debug("mating started",
			zap.Uint64("a", uint64(so.ID)),
			zap.Uint64("b", uint64(mate.ID)),
			zap.Int("faction", int(so.Faction)))
	})
}

func (s *MatingSystem) findMate(so *world.Soul, now time.Time) *world.Soul {
	ws := s.deps.World
	cfg := s.deps.Cfg
	var best *world.Soul
	bestD := cfg.Mating.Range * cfg.Mating.Range

	ws.NearbySouls(so.X, so.Y, cfg.Mating.Range, so.ID, func(o *world.Soul) {
		if o.Faction != so.Faction || !s.eligible(o, now) {
			return
		}
		d := world.Dist2(so.X, so.Y, o.X, o.Y)
		if d < bestD {
			bestD = d
			best = o
		}
	})
	return best
}

// eligible reports whether a soul can accept a mating proposal right
// now. Souls mid-mating (unpaired), or idle roaming adults with enough
// energy and an elapsed cooldown, qualify.
func (s *MatingSystem) eligible(o *world.Soul, now time.Time) bool {
	cfg := s.deps.Cfg
	if o.Dead || o.Child || !o.Partner.IsZero() {
		return false
	}
	if o.State == world.StateMating {
		return true
	}
	if o.State != world.StateRoaming {
		return false
	}
	if now.Before(o.MatingCooldownUntil) {
		return false
	}
	return o.EnergyFraction(cfg.Energy.Max) >= cfg.Mating.MinEnergyFraction
}

// completeCouples finishes every couple whose duration has elapsed.
// Each couple is processed once, from the lower-ID side.
func (s *MatingSystem) completeCouples(now time.Time) {
	ws := s.deps.World
	cfg := s.deps.Cfg

	ws.LivingSouls(func(so *world.Soul) {
		if so.State != world.StateMating || so.Partner.IsZero() {
			return
		}
		partner, ok := ws.Soul(so.Partner)
		if !ok || partner.Dead {
			return // behavior pass breaks the widowed half next tick
		}
		if so.ID > partner.ID {
			return
		}
		if now.Sub(so.MatingSince) < cfg.Mating.Duration {
			return
		}

		var childID ecs.EntityID
		cx := (so.X + partner.X) / 2
		cy := (so.Y + partner.Y) / 2
		if ws.Population(so.Faction) < cfg.Soul.PopulationCap {
			child := ws.SpawnSoul(so.Faction, cx, cy, cfg.Energy.ChildInitial, true, now)
			child.MatureAt = now.Add(cfg.Soul.ChildMaturity)
			childID = child.ID
			s.deps.Bus.Emit(event.SoulSpawned{
				ID:      child.ID,
				Faction: int(child.Faction),
				X:       child.X,
				Y:       child.Y,
				Energy:  child.Energy,
				Child:   true,
			})
		}

		s.deps.Bus.Emit(event.MatingCompleted{
			A:       so.ID,
			B:       partner.ID,
			Child:   childID,
			Faction: int(so.Faction),
			X:       cx,
			Y:       cy,
		})
		s.deps.Log.Debug("mating completed",
			zap.Uint64("a", uint64(so.ID)),
			zap.Uint64("b", uint64(partner.ID)),
			zap.Uint64("child", uint64(childID)))

		for _, p := range [2]*world.Soul{so, partner} {
			p.ClearPartner()
			p.MatingCooldownUntil = now.Add(cfg.Mating.Cooldown)
			p.SetState(world.StateRoaming, now)
		}
	})
}

// purgeProcessed drops couple records old enough that the cooldown
// would gate a re-pair anyway.
func (s *MatingSystem) purgeProcessed(now time.Time) {
	cutoff := now.Add(-s.deps.Cfg.Mating.Cooldown)
	for k, at := range s.processed {
		if at.Before(cutoff) {
			delete(s.processed, k)
		}
	}
}
