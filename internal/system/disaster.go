package system

import (
	"time"

	"go.uber.org/zap"

	"github.com/soulrift/server/internal/core/event"
	coresys "github.com/soulrift/server/internal/core/system"
	"github.com/soulrift/server/internal/data"
	"github.com/soulrift/server/internal/scripting"
	"github.com/soulrift/server/internal/world"
)

// activeDisaster tracks one running hazard.
type activeDisaster struct {
	tpl    *data.DisasterTemplate
	endsAt time.Time
	quota  int     // souls to kill over the full duration
	killed int
	acc    float64 // fractional kills carried between ticks
}

// DisasterSystem rolls for world hazards on a fixed interval and runs
// the active one: its stat modifiers go in as faction buffs that expire
// with the hazard, and its kill quota is paced evenly across the
// duration so deaths trickle instead of spiking on the first tick.
// At most one disaster runs at a time. Phase 9 (Environment).
type DisasterSystem struct {
	deps       *Deps
	active     *activeDisaster
	nextRollAt time.Time
}

func NewDisasterSystem(deps *Deps) *DisasterSystem {
	return &DisasterSystem{deps: deps}
}

func (s *DisasterSystem) Phase() coresys.Phase { return coresys.PhaseEnvironment }

// Active returns the running disaster template, or nil.
func (s *DisasterSystem) Active() *data.DisasterTemplate {
	if s.active == nil {
		return nil
	}
	return s.active.tpl
}

func (s *DisasterSystem) Update(dt time.Duration) {
	now := s.deps.Clock.Now()

	if s.active != nil {
		s.runActive(now, dt)
		return
	}

	if s.nextRollAt.IsZero() {
		s.nextRollAt = now.Add(s.deps.Cfg.Disaster.RollInterval)
		return
	}
	if now.Before(s.nextRollAt) {
		return
	}
	s.nextRollAt = now.Add(s.deps.Cfg.Disaster.RollInterval)

	if s.deps.Rand.Float64() >= s.deps.Cfg.Disaster.RollChance {
		return
	}
	if s.deps.Disasters == nil || s.deps.Disasters.Count() == 0 {
		return
	}
	tpl := s.deps.Disasters.Pick(s.deps.Rand.Intn(s.deps.Disasters.TotalWeight()))
	if tpl == nil {
		return
	}
	s.start(tpl, now)
}

func (s *DisasterSystem) start(tpl *data.DisasterTemplate, now time.Time) {
	ws := s.deps.World

	total := 0
	for f := world.Faction(0); f < world.NumFactions; f++ {
		total += ws.Population(f)
	}
	quota := s.deps.Scripts.CalcDisasterKills(scripting.DisasterContext{
		Population:   total,
		KillFraction: tpl.KillFraction,
	})
	endsAt := now.Add(time.Duration(tpl.DurationSec) * time.Second)

	s.active = &activeDisaster{tpl: tpl, endsAt: endsAt, quota: quota}

	for f := world.Faction(0); f < world.NumFactions; f++ {
		b := &world.Buff{
			Key:          world.BuffKey{Source: world.BuffSourceDisaster, Faction: f},
			SpeedMult:    tpl.SpeedMult,
			CastTimeMult: tpl.CastTimeMult,
			EnergyMult:   tpl.EnergyMult,
			ExpiresAt:    endsAt,
		}
		ws.Buffs.Apply(b)
		s.deps.Bus.Emit(event.BuffApplied{
			Source:       string(world.BuffSourceDisaster),
			Faction:      int(f),
			SpeedMult:    b.SpeedMult,
			CastTimeMult: b.CastTimeMult,
			EnergyMult:   b.EnergyMult,
			ExpiresAt:    endsAt,
		})
	}

	s.deps.Bus.Emit(event.DisasterStarted{
		DisasterID: tpl.ID,
		Name:       tpl.Name,
		EndsAt:     endsAt,
	})
	s.deps.Log.Info("disaster started",
		zap.String("id", tpl.ID),
		zap.Int("kill_quota", quota),
		zap.Time("ends_at", endsAt))
}

func (s *DisasterSystem) runActive(now time.Time, dt time.Duration) {
	a := s.active

	if !now.Before(a.endsAt) {
		s.end(now)
		return
	}

	if a.quota > a.killed {
		duration := time.Duration(a.tpl.DurationSec) * time.Second
		rate := float64(a.quota) / duration.Seconds()
		a.acc += rate * dt.Seconds()
		for a.acc >= 1 && a.killed < a.quota {
			a.acc--
			if !s.killRandomSoul() {
				break
			}
			a.killed++
		}
	}
}

func (s *DisasterSystem) end(now time.Time) {
	a := s.active
	s.active = nil

	// Buff expiry runs in the same phase and would also catch these,
	// but ending here keeps the removal events adjacent to the end event.
	for _, b := range s.deps.World.Buffs.RemoveBySource(world.BuffSourceDisaster) {
		s.deps.Bus.Emit(event.BuffRemoved{
			Source:  string(b.Key.Source),
			Faction: int(b.Key.Faction),
		})
	}

	s.deps.Bus.Emit(event.DisasterEnded{
		DisasterID: a.tpl.ID,
		Deaths:     a.killed,
	})
	s.deps.Log.Info("disaster ended",
		zap.String("id", a.tpl.ID),
		zap.Int("deaths", a.killed))
}

// killRandomSoul picks uniformly over the living and routes the death
// through the shared death path.
func (s *DisasterSystem) killRandomSoul() bool {
	var living []*world.Soul
	s.deps.World.LivingSouls(func(so *world.Soul) {
		living = append(living, so)
	})
	if len(living) == 0 {
		return false
	}
	victim := living[s.deps.Rand.Intn(len(living))]
	s.deps.Deaths.Kill(victim)
	return true
}
