package system

import (
	"time"

	"go.uber.org/zap"

	"github.com/soulrift/server/internal/core/event"
	coresys "github.com/soulrift/server/internal/core/system"
	"github.com/soulrift/server/internal/world"
)

// OrbSystem respawns energy orbs whose delay elapsed and hands each
// spawned orb to the first soul of its faction inside the collect
// radius. First come, first served: an orb collected this tick is gone
// for every later soul in the same pass. Phase 7 (Resource).
type OrbSystem struct {
	deps *Deps
}

func NewOrbSystem(deps *Deps) *OrbSystem {
	return &OrbSystem{deps: deps}
}

func (s *OrbSystem) Phase() coresys.Phase { return coresys.PhaseResource }

func (s *OrbSystem) Update(dt time.Duration) {
	now := s.deps.Clock.Now()
	ws := s.deps.World
	cfg := s.deps.Cfg

	ws.AllOrbs(func(o *world.EnergyOrb) {
		if !o.RespawnAt.IsZero() && !now.Before(o.RespawnAt) {
			o.RespawnAt = time.Time{}
			s.deps.Bus.Emit(event.OrbSpawned{
				ID:      o.ID,
				Faction: int(o.Faction),
				X:       o.X,
				Y:       o.Y,
			})
		}
	})

	collectR2 := cfg.Orb.CollectRadius * cfg.Orb.CollectRadius

	ws.AllOrbs(func(o *world.EnergyOrb) {
		if !o.Collectible(now) {
			return
		}
		var collector *world.Soul
		ws.LivingSouls(func(so *world.Soul) {
			if collector != nil || so.Faction != o.Faction || so.Energy <= 0 {
				return
			}
			if world.Dist2(so.X, so.Y, o.X, o.Y) <= collectR2 {
				collector = so
			}
		})
		if collector == nil {
			return
		}

		mods := ws.Buffs.Modifiers(collector.Faction)
		gain := cfg.Orb.Energy * mods.Energy
		collector.AddEnergy(gain, cfg.Energy.Max)
		o.RespawnAt = now.Add(cfg.Orb.RespawnDelay)

		s.deps.Bus.Emit(event.OrbCollected{
			ID:        o.ID,
			Collector: collector.ID,
			Energy:    gain,
		})
		s.deps.Log.Debug("orb collected",
			zap.Uint64("orb", uint64(o.ID)),
			zap.Uint64("soul", uint64(collector.ID)),
			zap.Float64("energy", gain))
	})
}
