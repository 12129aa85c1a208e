package system

import (
	"time"

	coresys "github.com/soulrift/server/internal/core/system"
	"github.com/soulrift/server/internal/core/event"
	"github.com/soulrift/server/internal/world"
	"go.uber.org/zap"
)

// SpellSystem creates active spells for souls that entered Casting this
// tick and owns the interrupt path. Completion lives in
// SpellResolveSystem, which runs after combat so a hit landing in the
// same tick can still break the cast before it captures territory.
// Phase 3 (SpellStart).
type SpellSystem struct {
	deps *Deps
}

func NewSpellSystem(deps *Deps) *SpellSystem {
	return &SpellSystem{deps: deps}
}

func (s *SpellSystem) Phase() coresys.Phase { return coresys.PhaseSpellStart }

func (s *SpellSystem) Update(_ time.Duration) {
	now := s.deps.Clock.Now()
	ws := s.deps.World
	cfg := s.deps.Cfg

	ws.LivingSouls(func(so *world.Soul) {
		if so.State != world.StateCasting || ws.SpellByCaster(so.ID) != nil {
			return
		}
		if !so.HasTargetTile {
			so.SetState(world.StateRoaming, now)
			return
		}

		mods := ws.Buffs.Modifiers(so.Faction)
		duration := time.Duration(float64(cfg.Spell.CastDuration) * mods.CastTime)
		tx, ty := ws.Tiles.Center(so.TargetTile)
		sp := &world.ActiveSpell{
			Caster:      so.ID,
			Faction:     so.Faction,
			Target:      so.TargetTile,
			StartedAt:   now,
			CompletesAt: now.Add(duration),
			CasterX:     so.X,
			CasterY:     so.Y,
			TargetX:     tx,
			TargetY:     ty,
		}
		// Recheck-before-commit: another caster may have claimed the
		// tile between target selection and now. The loser aborts
		// silently back to Roaming.
		if !ws.AddSpell(sp) {
			so.ClearSpellTarget()
			so.SetState(world.StateRoaming, now)
			return
		}

		s.deps.Bus.Emit(event.SpellStarted{
			Spell:       sp.ID,
			Caster:      so.ID,
			Faction:     int(so.Faction),
			TileX:       sp.Target.X,
			TileY:       sp.Target.Y,
			CasterX:     so.X,
			CasterY:     so.Y,
			CompletesAt: sp.CompletesAt,
		})
	})
}

// Interrupt breaks a caster's in-progress spell: the spell is removed,
// the caster is forced back to Roaming, and every defender assigned to
// this caster stands down. Reason is "attacked" or "died". Souls that
// were only Preparing have no spell object yet; they are reset without
// an interruption event.
func (s *SpellSystem) Interrupt(caster *world.Soul, reason string) {
	now := s.deps.Clock.Now()
	ws := s.deps.World

	if sp := ws.SpellByCaster(caster.ID); sp != nil {
		ws.RemoveSpell(sp.ID)
		s.deps.Bus.Emit(event.SpellInterrupted{
			Spell:  sp.ID,
			Caster: caster.ID,
			Reason: reason,
		})
	}

	caster.ClearSpellTarget()
	if caster.Channeling() && !caster.Dead {
		caster.SetState(world.StateRoaming, now)
	}

	// Defenders chasing a broken cast have nothing left to intercept.
	ws.LivingSouls(func(d *world.Soul) {
		if d.Engaged() && d.TrackedEnemy == caster.ID {
			d.TrackedEnemy = 0
			d.SetState(world.StateRoaming, now)
		}
	})
}

// SpellResolveSystem completes surviving casts: capture the footprint,
// kill the caster through the shared death path, emit tile updates.
// Phase 5 (SpellResolve), strictly after combat.
type SpellResolveSystem struct {
	deps *Deps
}

func NewSpellResolveSystem(deps *Deps) *SpellResolveSystem {
	return &SpellResolveSystem{deps: deps}
}

func (s *SpellResolveSystem) Phase() coresys.Phase { return coresys.PhaseSpellResolve }

func (s *SpellResolveSystem) Update(_ time.Duration) {
	now := s.deps.Clock.Now()
	ws := s.deps.World

	var due []*world.ActiveSpell
	ws.AllSpells(func(sp *world.ActiveSpell) {
		if !sp.CompletesAt.After(now) {
			due = append(due, sp)
		}
	})

	for _, sp := range due {
		caster, ok := ws.Soul(sp.Caster)
		if !ok || caster.Dead {
			// Caster died between combat and resolution; treat as broken.
			ws.RemoveSpell(sp.ID)
			continue
		}

		ws.RemoveSpell(sp.ID)

		changed := ws.Tiles.Capture(sp.Target, sp.Faction)
		if len(changed) > 0 {
			ws.RecomputeScores()
		}
		for _, c := range changed {
			s.deps.Bus.Emit(event.TileUpdated{X: c.X, Y: c.Y, Owner: int(sp.Faction)})
		}

		s.deps.Bus.Emit(event.SpellCompleted{
			Spell:   sp.ID,
			Caster:  sp.Caster,
			Faction: int(sp.Faction),
			TileX:   sp.Target.X,
			TileY:   sp.Target.Y,
		})

		// A cast is a one-shot, self-sacrificing action. The spell is
		// already gone, so Kill will not raise a second interrupt.
		caster.CastCooldownUntil = now.Add(s.deps.Cfg.Spell.CastCooldown)
		s.deps.Deaths.Kill(caster)

		s.deps.Log.Debug("territory captured",
			zap.Int("tile_x", sp.Target.X),
			zap.Int("tile_y", sp.Target.Y),
			zap.String("faction", sp.Faction.String()),
			zap.Int("tiles_changed", len(changed)),
		)
	}
}
