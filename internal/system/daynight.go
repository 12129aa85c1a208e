package system

import (
	"time"

	"go.uber.org/zap"

	"github.com/soulrift/server/internal/core/event"
	coresys "github.com/soulrift/server/internal/core/system"
	"github.com/soulrift/server/internal/world"
)

// DayNightSystem advances the world clock around its cycle and, on each
// phase boundary, swaps the time-of-day faction buffs for the new
// phase's modifier set. Behavior keys off ws.PhaseName (night souls
// rest more), movement and casting key off the buffs. Phase 9
// (Environment), registered after disasters.
type DayNightSystem struct {
	deps    *Deps
	elapsed time.Duration
	current string
}

func NewDayNightSystem(deps *Deps) *DayNightSystem {
	return &DayNightSystem{deps: deps}
}

func (s *DayNightSystem) Phase() coresys.Phase { return coresys.PhaseEnvironment }

func (s *DayNightSystem) Update(dt time.Duration) {
	ws := s.deps.World
	cycle := s.deps.Cfg.DayNight.CycleLength

	s.elapsed += dt
	for s.elapsed >= cycle {
		s.elapsed -= cycle
	}
	ws.CycleFraction = s.elapsed.Seconds() / cycle.Seconds()

	tpl := s.deps.Phases.At(ws.CycleFraction)
	if tpl.Name == s.current {
		return
	}
	s.current = tpl.Name
	ws.PhaseName = tpl.Name

	for _, b := range ws.Buffs.RemoveBySource(world.BuffSourceDayNight) {
		s.deps.Bus.Emit(event.BuffRemoved{
			Source:  string(b.Key.Source),
			Faction: int(b.Key.Faction),
		})
	}
	for _, m := range tpl.Mods {
		f := world.Faction(m.Faction)
		if !f.Valid() {
			continue
		}
		b := &world.Buff{
			Key:          world.BuffKey{Source: world.BuffSourceDayNight, Faction: f},
			SpeedMult:    m.SpeedMult,
			CastTimeMult: m.CastTimeMult,
			EnergyMult:   m.EnergyMult,
		}
		ws.Buffs.Apply(b)
		s.deps.Bus.Emit(event.BuffApplied{
			Source:       string(world.BuffSourceDayNight),
			Faction:      int(f),
			SpeedMult:    b.SpeedMult,
			CastTimeMult: b.CastTimeMult,
			EnergyMult:   b.EnergyMult,
		})
	}

	s.deps.Log.Debug("time of day changed",
		zap.String("phase", tpl.Name),
		zap.Float64("cycle_fraction", ws.CycleFraction))
}
