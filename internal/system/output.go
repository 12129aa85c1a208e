package system

import (
	"time"

	"github.com/soulrift/server/internal/core/event"
	coresys "github.com/soulrift/server/internal/core/system"
	"github.com/soulrift/server/internal/world"
)

// OutputSystem emits one state update per living soul per tick, after
// every gameplay phase has settled. Observers reconstruct the world
// from this stream plus the discrete events. Phase 10 (Output).
type OutputSystem struct {
	deps *Deps
}

func NewOutputSystem(deps *Deps) *OutputSystem {
	return &OutputSystem{deps: deps}
}

func (s *OutputSystem) Phase() coresys.Phase { return coresys.PhaseOutput }

func (s *OutputSystem) Update(dt time.Duration) {
	s.deps.World.LivingSouls(func(so *world.Soul) {
		s.deps.Bus.Emit(event.SoulUpdated{
			ID:      so.ID,
			Faction: int(so.Faction),
			X:       so.X,
			Y:       so.Y,
			Energy:  so.Energy,
			State:   so.State.String(),
			Child:   so.Child,
		})
	})
}
