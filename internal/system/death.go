package system

import (
	"time"

	coresys "github.com/soulrift/server/internal/core/system"
	"github.com/soulrift/server/internal/core/event"
	"github.com/soulrift/server/internal/world"
	"go.uber.org/zap"
)

// DeathSystem owns the shared death path. Every killer (starvation,
// combat, disasters, spell self-sacrifice) goes through Kill, so a
// death is marked exactly once and removal is always grace-delayed.
// Phase 1 (Death).
type DeathSystem struct {
	deps *Deps
}

func NewDeathSystem(deps *Deps) *DeathSystem {
	return &DeathSystem{deps: deps}
}

func (s *DeathSystem) Phase() coresys.Phase { return coresys.PhaseDeath }

// Update sweeps for souls drained to zero energy.
func (s *DeathSystem) Update(_ time.Duration) {
	s.deps.World.LivingSouls(func(so *world.Soul) {
		if so.Energy <= 0 {
			s.Kill(so)
		}
	})
}

// Kill marks a soul dead, untangles every reference to it, and queues
// the entity for removal after the death grace (so observers see the
// death before the soul vanishes). Idempotent.
func (s *DeathSystem) Kill(so *world.Soul) {
	if so.Dead {
		return
	}
	now := s.deps.Clock.Now()

	so.Dead = true
	so.Energy = 0

	// A dying caster breaks its own spell.
	if so.Channeling() && s.deps.Spells != nil {
		s.deps.Spells.Interrupt(so, "died")
	}
	so.ClearSpellTarget()

	// Release the mating partner.
	if p, ok := s.deps.World.Soul(so.Partner); ok && p.Partner == so.ID {
		p.ClearPartner()
		if p.State == world.StateMating {
			p.SetState(world.StateRoaming, now)
		}
	}
	so.ClearPartner()

	// Stand down any enemy assigned to this soul.
	s.deps.World.LivingSouls(func(d *world.Soul) {
		if d.Engaged() && d.TrackedEnemy == so.ID {
			d.TrackedEnemy = 0
			d.SetState(world.StateRoaming, now)
		}
	})

	s.deps.World.Entities.MarkForDestruction(so.ID, now.Add(s.deps.Cfg.Soul.DeathGrace))

	// One final update so renderers can play the death before removal.
	s.deps.Bus.Emit(event.SoulUpdated{
		ID:      so.ID,
		Faction: int(so.Faction),
		X:       so.X,
		Y:       so.Y,
		Energy:  0,
		State:   "dead",
		Child:   so.Child,
	})

	s.deps.Log.Debug("soul died",
		zap.Uint64("id", uint64(so.ID)),
		zap.String("faction", so.Faction.String()),
	)
}
