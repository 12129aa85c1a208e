package event

import (
	"time"

	"github.com/soulrift/server/internal/core/ecs"
)

// Kind is the closed discriminator for domain events. The protocol layer
// switches over it exhaustively; adding a kind here without a wire
// mapping is a compile-time reminder in protocol/encode.go.
type Kind string

const (
	KindSoulSpawned      Kind = "spawn"
	KindSoulUpdated      Kind = "update"
	KindSoulRemoved      Kind = "remove"
	KindAttack           Kind = "attack"
	KindSpellStarted     Kind = "spell_started"
	KindSpellInterrupted Kind = "spell_interrupted"
	KindSpellCompleted   Kind = "spell_completed"
	KindOrbSpawned       Kind = "orb_spawned"
	KindOrbCollected     Kind = "orb_collected"
	KindMatingStarted    Kind = "mating_started"
	KindMatingCompleted  Kind = "mating_completed"
	KindTileUpdated      Kind = "tile_updated"
	KindDisasterStarted  Kind = "disaster_start"
	KindDisasterEnded    Kind = "disaster_end"
	KindNexusUpdated     Kind = "nexus_update"
	KindNexusDestroyed   Kind = "nexus_destroyed"
	KindBuffApplied      Kind = "buff_applied"
	KindBuffRemoved      Kind = "buff_removed"
	KindMatchOver        Kind = "match_over"
)

// Event is one entry in the per-tick domain event list.
type Event interface {
	Kind() Kind
}

type SoulSpawned struct {
	ID      ecs.EntityID
	Faction int
	X, Y    float64
	Energy  float64
	Child   bool
}

func (SoulSpawned) Kind() Kind { return KindSoulSpawned }

type SoulUpdated struct {
	ID      ecs.EntityID
	Faction int
	X, Y    float64
	Energy  float64
	State   string
	Child   bool
}

func (SoulUpdated) Kind() Kind { return KindSoulUpdated }

type SoulRemoved struct {
	ID ecs.EntityID
}

func (SoulRemoved) Kind() Kind { return KindSoulRemoved }

type Attack struct {
	Attacker ecs.EntityID
	Target   ecs.EntityID
	Damage   float64
	// Nexus is set when the target is a faction nexus rather than a soul.
	Nexus bool
}

func (Attack) Kind() Kind { return KindAttack }

type SpellStarted struct {
	Spell            ecs.EntityID
	Caster           ecs.EntityID
	Faction          int
	TileX, TileY     int
	CasterX, CasterY float64
	CompletesAt      time.Time
}

func (SpellStarted) Kind() Kind { return KindSpellStarted }

type SpellInterrupted struct {
	Spell  ecs.EntityID
	Caster ecs.EntityID
	Reason string // "attacked" or "died"
}

func (SpellInterrupted) Kind() Kind { return KindSpellInterrupted }

type SpellCompleted struct {
	Spell        ecs.EntityID
	Caster       ecs.EntityID
	Faction      int
	TileX, TileY int
}

func (SpellCompleted) Kind() Kind { return KindSpellCompleted }

type OrbSpawned struct {
	ID      ecs.EntityID
	Faction int
	X, Y    float64
}

func (OrbSpawned) Kind() Kind { return KindOrbSpawned }

type OrbCollected struct {
	ID        ecs.EntityID
	Collector ecs.EntityID
	Energy    float64
}

func (OrbCollected) Kind() Kind { return KindOrbCollected }

type MatingStarted struct {
	A, B    ecs.EntityID
	Faction int
}

func (MatingStarted) Kind() Kind { return KindMatingStarted }

type MatingCompleted struct {
	A, B    ecs.EntityID
	Child   ecs.EntityID
	Faction int
	X, Y    float64
}

func (MatingCompleted) Kind() Kind { return KindMatingCompleted }

type TileUpdated struct {
	X, Y  int
	Owner int
}

func (TileUpdated) Kind() Kind { return KindTileUpdated }

type DisasterStarted struct {
	DisasterID string
	Name       string
	EndsAt     time.Time
}

func (DisasterStarted) Kind() Kind { return KindDisasterStarted }

type DisasterEnded struct {
	DisasterID string
	Deaths     int
}

func (DisasterEnded) Kind() Kind { return KindDisasterEnded }

type NexusUpdated struct {
	Faction int
	Health  float64
	MaxHP   float64
}

func (NexusUpdated) Kind() Kind { return KindNexusUpdated }

type NexusDestroyed struct {
	Faction int
}

func (NexusDestroyed) Kind() Kind { return KindNexusDestroyed }

type BuffApplied struct {
	Source       string
	Faction      int
	SpeedMult    float64
	CastTimeMult float64
	EnergyMult   float64
	ExpiresAt    time.Time // zero = until cleared by source
}

func (BuffApplied) Kind() Kind { return KindBuffApplied }

type BuffRemoved struct {
	Source  string
	Faction int
}

func (BuffRemoved) Kind() Kind { return KindBuffRemoved }

type MatchOver struct {
	Winner int
	Loser  int
}

func (MatchOver) Kind() Kind { return KindMatchOver }
