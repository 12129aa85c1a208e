package world

import (
	"time"

	"github.com/soulrift/server/internal/core/ecs"
)

// SoulState is the behavior state of a soul. Transitions are evaluated
// once per tick by the behavior system.
type SoulState int

const (
	StateRoaming SoulState = iota
	StateHungry
	StateSeeking
	StatePreparing
	StateCasting
	StateDefending
	StateAttacking
	StateSeekingNexus
	StateAttackingNexus
	StateSocialising
	StateResting
	StateMating
)

var stateNames = [...]string{
	"roaming", "hungry", "seeking", "preparing", "casting",
	"defending", "attacking", "seeking_nexus", "attacking_nexus",
	"socialising", "resting", "mating",
}

func (s SoulState) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "unknown"
}

// TrailPoint is one sample of a soul's recent position, used by the
// movement system's stuck detection.
type TrailPoint struct {
	X, Y float64
	At   time.Time
}

// Soul is one autonomous agent. All fields are mutated in place by the
// tick systems; access happens only on the game loop goroutine.
type Soul struct {
	ID      ecs.EntityID
	Faction Faction

	X, Y   float64
	VX, VY float64

	Energy float64

	Child    bool
	MatureAt time.Time

	State      SoulState
	StateSince time.Time

	// Combat
	NextAttackAt time.Time
	TrackedEnemy ecs.EntityID // enemy caster this soul defends against (zero = none)

	// Spell targeting
	CastCooldownUntil time.Time
	TargetTile        TileCoord
	HasTargetTile     bool

	// Mating
	Partner             ecs.EntityID // symmetric; zero = unpaired
	MatingSince         time.Time
	MatingCooldownUntil time.Time

	// Rest
	SleepProgress float64

	// Retreat steering after surviving a hit
	Retreating   bool
	RetreatUntil time.Time

	// Death bookkeeping: Dead souls are excluded from behavior the same
	// tick and physically removed after a grace delay.
	Dead bool

	// Recent positions for stuck detection; managed by the movement system.
	Trail []TrailPoint
}

// IsCasting is derived from the state enum, never stored separately.
func (s *Soul) IsCasting() bool { return s.State == StateCasting }

// IsPreparing is derived from the state enum, never stored separately.
func (s *Soul) IsPreparing() bool { return s.State == StatePreparing }

// Channeling reports whether the soul is in any interruptible cast state.
func (s *Soul) Channeling() bool { return s.State == StatePreparing || s.State == StateCasting }

// Engaged reports whether the soul is assigned to an enemy caster.
func (s *Soul) Engaged() bool { return s.State == StateDefending || s.State == StateAttacking }

// Adult reports whether the soul is mature.
func (s *Soul) Adult() bool { return !s.Child }

// SetState transitions the soul and stamps the entry time.
func (s *Soul) SetState(st SoulState, now time.Time) {
	if s.State == st {
		return
	}
	s.State = st
	s.StateSince = now
}

// TimeIn returns how long the soul has been in its current state.
func (s *Soul) TimeIn(now time.Time) time.Duration {
	return now.Sub(s.StateSince)
}

// EnergyFraction returns energy relative to the given max.
func (s *Soul) EnergyFraction(max float64) float64 {
	if max <= 0 {
		return 0
	}
	return s.Energy / max
}

// AddEnergy applies a delta clamped to [0, max].
func (s *Soul) AddEnergy(delta, max float64) {
	s.Energy = Clamp(s.Energy+delta, 0, max)
}

// ClearSpellTarget drops any pending tile target.
func (s *Soul) ClearSpellTarget() {
	s.HasTargetTile = false
	s.TargetTile = TileCoord{}
}

// ClearPartner drops the mating pairing on this side only; callers must
// clear the partner symmetrically.
func (s *Soul) ClearPartner() {
	s.Partner = 0
	s.MatingSince = time.Time{}
}
