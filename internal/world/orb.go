package world

import (
	"time"

	"github.com/soulrift/server/internal/core/ecs"
)

// EnergyOrb is a faction-scoped forage resource at a fixed position.
// Collection schedules a respawn instead of destroying the orb.
type EnergyOrb struct {
	ID      ecs.EntityID
	Faction Faction
	X, Y    float64

	// RespawnAt in the future means the orb is despawned and not
	// collectible. The zero value means spawned.
	RespawnAt time.Time
}

// Collectible reports whether the orb is currently spawned.
func (o *EnergyOrb) Collectible(now time.Time) bool {
	return o.RespawnAt.IsZero() || !o.RespawnAt.After(now)
}
