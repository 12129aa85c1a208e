package system

import (
	"time"

	"github.com/soulrift/server/internal/core/event"
	coresys "github.com/soulrift/server/internal/core/system"
)

// BuffExpirySystem sweeps timed buffs whose expiry passed. Sourced
// removals (day/night swaps, disaster end) happen at their source; this
// catches everything with a deadline. Phase 9 (Environment), registered
// last in the phase.
type BuffExpirySystem struct {
	deps *Deps
}

func NewBuffExpirySystem(deps *Deps) *BuffExpirySystem {
	return &BuffExpirySystem{deps: deps}
}

func (s *BuffExpirySystem) Phase() coresys.Phase { return coresys.PhaseEnvironment }

func (s *BuffExpirySystem) Update(dt time.Duration) {
	now := s.deps.Clock.Now()
	for _, b := range s.deps.World.Buffs.ExpireDue(now) {
		s.deps.Bus.Emit(event.BuffRemoved{
			Source:  string(b.Key.Source),
			Faction: int(b.Key.Faction),
		})
	}
}
