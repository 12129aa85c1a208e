package world

import "time"

// Nexus is a faction's destructible home objective. Health never goes
// below zero, and a destroyed nexus stays destroyed.
type Nexus struct {
	Faction   Faction
	X, Y      float64
	Tile      TileCoord
	Health    float64
	MaxHealth float64
	Destroyed bool

	NextRegenAt time.Time
}

// Damage applies damage and reports whether this hit destroyed the
// nexus. Hits on an already-destroyed nexus are no-ops.
func (n *Nexus) Damage(amount float64) bool {
	if n.Destroyed || amount <= 0 {
		return false
	}
	n.Health -= amount
	if n.Health <= 0 {
		n.Health = 0
		n.Destroyed = true
		return true
	}
	return false
}

// Regen restores health up to the maximum. No effect once destroyed.
func (n *Nexus) Regen(amount float64) {
	if n.Destroyed || n.Health >= n.MaxHealth {
		return
	}
	n.Health = Clamp(n.Health+amount, 0, n.MaxHealth)
}
