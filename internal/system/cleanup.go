package system

import (
	"time"

	"github.com/soulrift/server/internal/core/event"
	coresys "github.com/soulrift/server/internal/core/system"
)

// CleanupSystem removes entities whose death grace elapsed. The grace
// window lets observers play out a death before the entity vanishes
// from update streams. Phase 11 (Cleanup), last in the tick.
type CleanupSystem struct {
	deps *Deps
}

func NewCleanupSystem(deps *Deps) *CleanupSystem {
	return &CleanupSystem{deps: deps}
}

func (s *CleanupSystem) Phase() coresys.Phase { return coresys.PhaseCleanup }

func (s *CleanupSystem) Update(dt time.Duration) {
	now := s.deps.Clock.Now()
	for _, id := range s.deps.World.Entities.FlushDue(now) {
		s.deps.World.PurgeSoul(id)
		s.deps.Bus.Emit(event.SoulRemoved{ID: id})
	}
}
