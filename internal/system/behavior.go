package system

import (
	"time"

	coresys "github.com/soulrift/server/internal/core/system"
	"github.com/soulrift/server/internal/world"
)

// BehaviorSystem is the per-soul finite-state controller. It runs first
// each tick: defender assignment, maturity, passive energy drain, then
// one transition evaluation per soul. Phase 0 (Behavior).
//
// Souls whose energy has reached zero are skipped entirely; the death
// system picks them up in the next phase of the same tick.
type BehaviorSystem struct {
	deps *Deps
}

func NewBehaviorSystem(deps *Deps) *BehaviorSystem {
	return &BehaviorSystem{deps: deps}
}

func (s *BehaviorSystem) Phase() coresys.Phase { return coresys.PhaseBehavior }

func (s *BehaviorSystem) Update(dt time.Duration) {
	now := s.deps.Clock.Now()
	ws := s.deps.World
	cfg := s.deps.Cfg

	s.assignDefenders(now)

	ws.LivingSouls(func(so *world.Soul) {
		if so.Energy <= 0 {
			return // dead this tick; excluded from behavior
		}

		// Child maturity.
		if so.Child && !so.MatureAt.After(now) {
			so.Child = false
		}

		// Passive upkeep drain. Resting and socialising souls earn it
		// back below.
		so.AddEnergy(-cfg.Energy.BaseDrainPerSec*dt.Seconds(), cfg.Energy.Max)
		if so.Energy <= 0 {
			return
		}

		// Retreat flag expiry.
		if so.Retreating && !so.RetreatUntil.After(now) {
			so.Retreating = false
		}

		// Hunger preempts everything except an in-flight cast; the cast
		// lifecycle owns Preparing/Casting and only combat breaks it.
		if !so.Channeling() && so.State != world.StateHungry &&
			so.EnergyFraction(cfg.Energy.Max) < cfg.Energy.HungerThreshold {
			s.leaveState(so, now)
			so.SetState(world.StateHungry, now)
			return
		}

		switch so.State {
		case world.StateRoaming:
			s.updateRoaming(so, now)
		case world.StateHungry:
			s.updateHungry(so, now)
		case world.StateSeeking:
			s.updateSeeking(so, now)
		case world.StatePreparing:
			s.updatePreparing(so, now)
		case world.StateCasting:
			s.updateCasting(so, now)
		case world.StateDefending:
			s.updateDefending(so, now)
		case world.StateAttacking:
			s.updateAttacking(so, now)
		case world.StateSeekingNexus:
			s.updateSeekingNexus(so, now)
		case world.StateAttackingNexus:
			s.updateAttackingNexus(so, now)
		case world.StateSocialising:
			s.updateSocialising(so, now, dt)
		case world.StateResting:
			s.updateResting(so, now, dt)
		case world.StateMating:
			s.updateMating(so, now)
		}
	})
}

// assignDefenders guarantees the single-defender invariant: for every
// enemy soul currently channeling a cast, at most one opposing soul is
// Defending/Attacking it, chosen by highest energy among eligible
// candidates.
func (s *BehaviorSystem) assignDefenders(now time.Time) {
	ws := s.deps.World
	ws.LivingSouls(func(caster *world.Soul) {
		if !caster.Channeling() {
			return
		}
		defFaction := caster.Faction.Opponent()

		// Already covered?
		covered := false
		ws.LivingSouls(func(d *world.Soul) {
			if !covered && d.Faction == defFaction && d.Engaged() && d.TrackedEnemy == caster.ID {
				covered = true
			}
		})
		if covered {
			return
		}

		// Highest-energy eligible candidate. Eligible states are the
		// idle-ish ones; a soul mid-cast or already engaged never
		// abandons its task to defend.
		var best *world.Soul
		ws.LivingSouls(func(c *world.Soul) {
			if c.Faction != defFaction || c.Energy <= 0 {
				return
			}
			switch c.State {
			case world.StateRoaming, world.StateHungry, world.StateSeeking:
			default:
				return
			}
			if best == nil || c.Energy > best.Energy {
				best = c
			}
		})
		if best == nil {
			return
		}
		s.leaveState(best, now)
		best.TrackedEnemy = caster.ID
		best.SetState(world.StateDefending, now)
	})
}

// leaveState clears the bookkeeping of the state being abandoned so a
// transition never leaks a stale target, enemy, or partner.
func (s *BehaviorSystem) leaveState(so *world.Soul, now time.Time) {
	switch so.State {
	case world.StateSeeking, world.StatePreparing:
		so.ClearSpellTarget()
	case world.StateDefending, world.StateAttacking:
		so.TrackedEnemy = 0
	case world.StateMating:
		s.breakPair(so, now)
	case world.StateResting:
		so.SleepProgress = 0
	}
}

func (s *BehaviorSystem) breakPair(so *world.Soul, now time.Time) {
	if p, ok := s.deps.World.Soul(so.Partner); ok && p.Partner == so.ID {
		p.ClearPartner()
		if p.State == world.StateMating {
			p.SetState(world.StateRoaming, now)
		}
	}
	so.ClearPartner()
}

func (s *BehaviorSystem) updateRoaming(so *world.Soul, now time.Time) {
	cfg := s.deps.Cfg

	// Seeking allowance: active casters (Seeking/Preparing/Casting) may
	// not exceed population minus the resting reserve.
	if so.Adult() && s.seekAllowed(so, now) {
		if s.hasCapturable(so.Faction) {
			so.SetState(world.StateSeeking, now)
		} else {
			so.SetState(world.StateSeekingNexus, now)
		}
		return
	}

	// Mating: eligible adults advertise by entering Mating; the mating
	// system pairs them on its own cadence.
	if s.matingEligible(so, now) && s.deps.Rand.Float64() < cfg.Behavior.MatingRollChance {
		so.SetState(world.StateMating, now)
		return
	}

	// Night coaxes idle souls to sleep; a small roll keeps the whole
	// faction from dropping at once.
	if s.deps.World.PhaseName == "night" && s.deps.Rand.Float64() < cfg.Behavior.RestRollChance {
		so.SetState(world.StateResting, now)
		return
	}

	// Socialising: linger when at least two idle allies are close.
	if s.deps.Rand.Float64() < cfg.Behavior.SocialRollChance {
		idle := 0
		s.deps.World.NearbySouls(so.X, so.Y, cfg.Mating.Range, so.ID, func(o *world.Soul) {
			if o.Faction == so.Faction && (o.State == world.StateRoaming || o.State == world.StateSocialising) {
				idle++
			}
		})
		if idle >= 2 {
			so.SetState(world.StateSocialising, now)
		}
	}
}

func (s *BehaviorSystem) seekAllowed(so *world.Soul, now time.Time) bool {
	cfg := s.deps.Cfg
	if now.Before(so.CastCooldownUntil) {
		return false
	}
	if so.EnergyFraction(cfg.Energy.Max) < cfg.Spell.MinEnergyFraction {
		return false
	}
	allowance := s.deps.World.Population(so.Faction) - cfg.Soul.MinRestingReserve
	if allowance <= 0 {
		return false
	}
	active := s.deps.World.CountInStates(so.Faction,
		world.StateSeeking, world.StatePreparing, world.StateCasting)
	return active < allowance
}

// hasCapturable reports whether any tile scores above zero for the
// faction and is not already targeted by an active spell.
func (s *BehaviorSystem) hasCapturable(f world.Faction) bool {
	ws := s.deps.World
	return ws.Scores[f].HasTargets(ws.SpellTargets)
}

func (s *BehaviorSystem) matingEligible(so *world.Soul, now time.Time) bool {
	cfg := s.deps.Cfg
	return so.Adult() &&
		!now.Before(so.MatingCooldownUntil) &&
		so.EnergyFraction(cfg.Energy.Max) >= cfg.Mating.MinEnergyFraction &&
		s.deps.World.Population(so.Faction) < cfg.Soul.PopulationCap
}

func (s *BehaviorSystem) updateHungry(so *world.Soul, now time.Time) {
	if so.EnergyFraction(s.deps.Cfg.Energy.Max) >= s.deps.Cfg.Energy.HungerThreshold {
		so.SetState(world.StateRoaming, now)
	}
	// Otherwise the movement system walks the soul to the nearest orb
	// and the orb system feeds it.
}

func (s *BehaviorSystem) updateSeeking(so *world.Soul, now time.Time) {
	cfg := s.deps.Cfg
	ws := s.deps.World
	scores := ws.Scores[so.Faction]

	// All capturable tiles gone: fall through to the nexus hunt.
	if !s.hasCapturable(so.Faction) {
		so.ClearSpellTarget()
		so.SetState(world.StateSeekingNexus, now)
		return
	}

	// Acquire or refresh the target when the held one went invalid
	// (captured meanwhile, or claimed by another caster).
	if !so.HasTargetTile || scores.At(so.TargetTile) <= 0 || ws.SpellTargets(so.TargetTile) {
		if c, ok := scores.BestTarget(ws.SpellTargets); ok {
			so.TargetTile = c
			so.HasTargetTile = true
		} else {
			so.ClearSpellTarget()
			so.SetState(world.StateSeekingNexus, now)
			return
		}
	}

	inRange := func(c world.TileCoord) bool {
		cx, cy := ws.Tiles.Center(c)
		return world.Dist2(so.X, so.Y, cx, cy) <= cfg.Spell.Range*cfg.Spell.Range
	}

	if inRange(so.TargetTile) {
		so.SetState(world.StatePreparing, now)
		return
	}

	// Anti-starvation fallback: past half the seek timeout, accept any
	// legal tile already in range instead of marching to the best one.
	if so.TimeIn(now) > cfg.Spell.SeekTimeout/2 {
		if c, ok := scores.BestTargetNear(ws.Tiles, so.X, so.Y, cfg.Spell.Range, ws.SpellTargets); ok {
			so.TargetTile = c
			so.HasTargetTile = true
			so.SetState(world.StatePreparing, now)
			return
		}
	}

	if so.TimeIn(now) > cfg.Spell.SeekTimeout {
		so.ClearSpellTarget()
		so.SetState(world.StateRoaming, now)
	}
}

func (s *BehaviorSystem) updatePreparing(so *world.Soul, now time.Time) {
	ws := s.deps.World

	// Target stolen or already ours: abandon quietly.
	if !so.HasTargetTile || ws.Scores[so.Faction].At(so.TargetTile) <= 0 {
		so.ClearSpellTarget()
		so.SetState(world.StateRoaming, now)
		return
	}
	if so.TimeIn(now) >= s.deps.Cfg.Spell.PrepareDelay {
		// The spell system creates the ActiveSpell this tick, rechecking
		// the uniqueness guards atomically.
		so.SetState(world.StateCasting, now)
	}
}

func (s *BehaviorSystem) updateCasting(so *world.Soul, now time.Time) {
	// Completion and interruption are owned by the spell and combat
	// systems. This is only a staleness net: a cast that somehow
	// outlived twice its duration returns to Roaming.
	if so.TimeIn(now) > 2*s.deps.Cfg.Spell.CastDuration {
		so.ClearSpellTarget()
		so.SetState(world.StateRoaming, now)
	}
}

func (s *BehaviorSystem) updateDefending(so *world.Soul, now time.Time) {
	cfg := s.deps.Cfg
	enemy, ok := s.deps.World.Soul(so.TrackedEnemy)
	if !ok || enemy.Dead || !enemy.Channeling() {
		so.TrackedEnemy = 0
		so.SetState(world.StateRoaming, now)
		return
	}
	if world.Dist2(so.X, so.Y, enemy.X, enemy.Y) <= cfg.Combat.AttackRange*cfg.Combat.AttackRange {
		so.SetState(world.StateAttacking, now)
		return
	}
	if so.TimeIn(now) > cfg.Combat.DefendTimeout {
		so.TrackedEnemy = 0
		so.SetState(world.StateRoaming, now)
	}
}

func (s *BehaviorSystem) updateAttacking(so *world.Soul, now time.Time) {
	cfg := s.deps.Cfg
	enemy, ok := s.deps.World.Soul(so.TrackedEnemy)
	if !ok || enemy.Dead || !enemy.Channeling() {
		so.TrackedEnemy = 0
		so.SetState(world.StateRoaming, now)
		return
	}
	if world.Dist2(so.X, so.Y, enemy.X, enemy.Y) > cfg.Combat.AttackRange*cfg.Combat.AttackRange {
		so.SetState(world.StateDefending, now)
	}
}

func (s *BehaviorSystem) updateSeekingNexus(so *world.Soul, now time.Time) {
	cfg := s.deps.Cfg
	if s.hasCapturable(so.Faction) {
		so.SetState(world.StateSeeking, now)
		return
	}
	nexus := s.deps.World.Nexus(so.Faction.Opponent())
	if nexus == nil || nexus.Destroyed {
		so.SetState(world.StateRoaming, now)
		return
	}
	if world.Dist2(so.X, so.Y, nexus.X, nexus.Y) <= cfg.Nexus.AttackRange*cfg.Nexus.AttackRange {
		so.SetState(world.StateAttackingNexus, now)
	}
}

func (s *BehaviorSystem) updateAttackingNexus(so *world.Soul, now time.Time) {
	cfg := s.deps.Cfg
	nexus := s.deps.World.Nexus(so.Faction.Opponent())
	if nexus == nil || nexus.Destroyed {
		so.SetState(world.StateRoaming, now)
		return
	}
	if world.Dist2(so.X, so.Y, nexus.X, nexus.Y) > cfg.Nexus.AttackRange*cfg.Nexus.AttackRange {
		so.SetState(world.StateSeekingNexus, now)
	}
}

func (s *BehaviorSystem) updateSocialising(so *world.Soul, now time.Time, dt time.Duration) {
	cfg := s.deps.Cfg
	mods := s.deps.World.Buffs.Modifiers(so.Faction)
	so.AddEnergy(cfg.Energy.SocialRegenPerSec*mods.Energy*dt.Seconds(), cfg.Energy.Max)
	if so.TimeIn(now) > cfg.Behavior.SocialiseDuration {
		so.SetState(world.StateRoaming, now)
	}
}

func (s *BehaviorSystem) updateResting(so *world.Soul, now time.Time, dt time.Duration) {
	cfg := s.deps.Cfg
	mods := s.deps.World.Buffs.Modifiers(so.Faction)
	so.SleepProgress += dt.Seconds()
	so.AddEnergy(cfg.Energy.RestRegenPerSec*mods.Energy*dt.Seconds(), cfg.Energy.Max)

	slept := so.SleepProgress >= cfg.Behavior.SleepDuration.Seconds()
	dawn := s.deps.World.PhaseName != "night" && so.TimeIn(now) > cfg.Behavior.DawnWakeDelay
	if slept || dawn || so.Energy >= cfg.Energy.Max {
		so.SleepProgress = 0
		so.SetState(world.StateRoaming, now)
	}
}

func (s *BehaviorSystem) updateMating(so *world.Soul, now time.Time) {
	ws := s.deps.World

	if so.Partner.IsZero() {
		// Unpaired: wait for the mating system's next pairing pass, but
		// not forever.
		if so.TimeIn(now) > 2*s.deps.Cfg.Mating.Duration {
			so.SetState(world.StateRoaming, now)
		}
		return
	}

	partner, ok := ws.Soul(so.Partner)
	if !ok || partner.Dead || partner.Partner != so.ID {
		s.breakPair(so, now)
		so.SetState(world.StateRoaming, now)
		return
	}
	// Paired: hold position near the partner until the mating system
	// completes the pair. Completion is evaluated there, once per pair.
}
