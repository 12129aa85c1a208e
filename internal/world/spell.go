package world

import (
	"time"

	"github.com/soulrift/server/internal/core/ecs"
)

// ActiveSpell is a territory-capture cast in progress. At most one
// spell per caster and one per target tile exists at any time; the
// state keeps both indexes and the spell system rechecks them at cast
// start.
type ActiveSpell struct {
	ID      ecs.EntityID
	Caster  ecs.EntityID
	Faction Faction
	Target  TileCoord

	StartedAt   time.Time
	CompletesAt time.Time // start + cast duration × faction cast-time modifier

	// World positions captured at cast start for event payloads.
	CasterX, CasterY float64
	TargetX, TargetY float64
}

// Remaining returns the time left until completion (negative when due).
func (sp *ActiveSpell) Remaining(now time.Time) time.Duration {
	return sp.CompletesAt.Sub(now)
}
