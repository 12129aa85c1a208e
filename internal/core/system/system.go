package system

import "time"

// Phase defines execution ordering within a single tick. The ordering is
// load-bearing: combat must run between spell start and spell
// resolution so an attack landing in the same tick still interrupts the
// cast before it captures territory.
type Phase int

const (
	PhaseBehavior     Phase = iota // 0: per-soul state machine
	PhaseDeath                     // 1: mark dead souls, schedule removal
	PhaseMovement                  // 2: velocity, collision, navigation
	PhaseSpellStart                // 3: create/refresh active spells
	PhaseCombat                    // 4: attacks, interrupts, nexus damage
	PhaseSpellResolve              // 5: complete surviving casts, capture
	PhaseMating                    // 6: pairing, gestation, offspring
	PhaseResource                  // 7: orb collection and respawn
	PhasePopulation                // 8: emergency repopulation
	PhaseEnvironment               // 9: disaster, day/night, buff expiry
	PhaseOutput                    // 10: per-soul update events
	PhaseCleanup                   // 11: destroy queued entities
)

// System is the interface every tick system implements.
type System interface {
	Phase() Phase
	Update(dt time.Duration)
}
