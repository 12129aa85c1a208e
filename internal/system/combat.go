package system

import (
	"time"

	coresys "github.com/soulrift/server/internal/core/system"
	"github.com/soulrift/server/internal/core/event"
	"github.com/soulrift/server/internal/scripting"
	"github.com/soulrift/server/internal/world"
)

// CombatSystem resolves melee hits from assigned attackers and
// soul-vs-nexus hits. A soul may only strike the enemy it is assigned
// to (TrackedEnemy), never a freely chosen one. Phase 4 (Combat) sits
// between spell start and spell resolution, so a hit this tick still
// interrupts a cast before it completes.
type CombatSystem struct {
	deps *Deps
}

func NewCombatSystem(deps *Deps) *CombatSystem {
	return &CombatSystem{deps: deps}
}

func (s *CombatSystem) Phase() coresys.Phase { return coresys.PhaseCombat }

func (s *CombatSystem) Update(_ time.Duration) {
	now := s.deps.Clock.Now()
	ws := s.deps.World
	cfg := s.deps.Cfg

	ws.LivingSouls(func(so *world.Soul) {
		switch so.State {
		case world.StateAttacking:
			s.strikeSoul(so, now)
		case world.StateAttackingNexus:
			s.strikeNexus(so, now)
		}
	})

	// Nexus regeneration, gated per nexus by its own interval.
	for f := world.Faction(0); f < world.NumFactions; f++ {
		n := ws.Nexuses[f]
		if n.Destroyed || n.Health >= n.MaxHealth {
			continue
		}
		if n.NextRegenAt.After(now) {
			continue
		}
		n.Regen(cfg.Nexus.RegenAmount)
		n.NextRegenAt = now.Add(cfg.Nexus.RegenInterval)
		s.deps.Bus.Emit(event.NexusUpdated{
			Faction: int(n.Faction),
			Health:  n.Health,
			MaxHP:   n.MaxHealth,
		})
	}
}

func (s *CombatSystem) strikeSoul(so *world.Soul, now time.Time) {
	cfg := s.deps.Cfg
	target, ok := s.deps.World.Soul(so.TrackedEnemy)
	if !ok || target.Dead {
		return // died this tick; behavior untracks next tick
	}
	if now.Before(so.NextAttackAt) {
		return
	}
	if world.Dist2(so.X, so.Y, target.X, target.Y) > cfg.Combat.AttackRange*cfg.Combat.AttackRange {
		return
	}

	dmg := s.deps.Scripts.CalcAttackDamage(scripting.AttackContext{
		AttackerEnergy: so.Energy,
		TargetEnergy:   target.Energy,
		TargetCasting:  target.IsCasting(),
		Roll:           s.deps.Rand.Float64(),
	})
	so.NextAttackAt = now.Add(cfg.Combat.AttackCooldown)
	target.AddEnergy(-dmg, cfg.Energy.Max)

	s.deps.Bus.Emit(event.Attack{
		Attacker: so.ID,
		Target:   target.ID,
		Damage:   dmg,
	})

	// A hit always breaks an in-progress cast, and a survivor retreats.
	if target.Channeling() {
		s.deps.Spells.Interrupt(target, "attacked")
	}
	if target.Energy > 0 {
		target.Retreating = true
		target.RetreatUntil = now.Add(cfg.Soul.RetreatDuration)
	} else {
		s.deps.Deaths.Kill(target)
	}
}

func (s *CombatSystem) strikeNexus(so *world.Soul, now time.Time) {
	cfg := s.deps.Cfg
	ws := s.deps.World
	n := ws.Nexus(so.Faction.Opponent())
	if n == nil || n.Destroyed {
		return
	}
	if now.Before(so.NextAttackAt) {
		return
	}
	if world.Dist2(so.X, so.Y, n.X, n.Y) > cfg.Nexus.AttackRange*cfg.Nexus.AttackRange {
		return
	}

	dmg := s.deps.Scripts.CalcNexusDamage(scripting.NexusAttackContext{
		AttackerEnergy: so.Energy,
		NexusHealth:    n.Health,
		NexusMaxHP:     n.MaxHealth,
		Roll:           s.deps.Rand.Float64(),
	})
	so.NextAttackAt = now.Add(cfg.Combat.AttackCooldown)
	destroyed := n.Damage(dmg)

	s.deps.Bus.Emit(event.Attack{
		Attacker: so.ID,
		Target:   0,
		Damage:   dmg,
		Nexus:    true,
	})
	s.deps.Bus.Emit(event.NexusUpdated{
		Faction: int(n.Faction),
		Health:  n.Health,
		MaxHP:   n.MaxHealth,
	})

	if destroyed {
		s.deps.Bus.Emit(event.NexusDestroyed{Faction: int(n.Faction)})
		if !ws.Over {
			ws.Over = true
			s.deps.Bus.Emit(event.MatchOver{
				Winner: int(so.Faction),
				Loser:  int(n.Faction),
			})
		}
	}
}
