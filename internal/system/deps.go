package system

import (
	"math/rand"

	"go.uber.org/zap"

	"github.com/soulrift/server/internal/config"
	"github.com/soulrift/server/internal/core/clock"
	"github.com/soulrift/server/internal/core/event"
	"github.com/soulrift/server/internal/data"
	"github.com/soulrift/server/internal/scripting"
	"github.com/soulrift/server/internal/world"
)

// Deps bundles everything the tick systems share: the authoritative
// world state, the per-tick event bus, the immutable config, the
// injectable clock, and the seeded RNG. One Deps value is built by the
// sim manager and handed to every system constructor.
type Deps struct {
	Cfg       *config.Config
	World     *world.State
	Bus       *event.Bus
	Clock     clock.Clock
	Rand      *rand.Rand
	Log       *zap.Logger
	Scripts   *scripting.Engine
	Disasters *data.DisasterTable
	Phases    *data.PhaseTable

	// Deaths is the shared death path; combat, spells, and disasters
	// all kill through it so a death is never signaled twice.
	Deaths *DeathSystem

	// Spells exposes the interrupt path to the combat system.
	Spells *SpellSystem
}
