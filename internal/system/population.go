package system

import (
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/soulrift/server/internal/core/event"
	coresys "github.com/soulrift/server/internal/core/system"
	"github.com/soulrift/server/internal/world"
)

// PopulationSystem is the extinction guard: a faction whose last adult
// died gets an emergency batch of adults spawned around its own nexus,
// so the match keeps going until a nexus actually falls. Phase 8
// (Population).
type PopulationSystem struct {
	deps *Deps
}

func NewPopulationSystem(deps *Deps) *PopulationSystem {
	return &PopulationSystem{deps: deps}
}

func (s *PopulationSystem) Phase() coresys.Phase { return coresys.PhasePopulation }

func (s *PopulationSystem) Update(dt time.Duration) {
	now := s.deps.Clock.Now()
	ws := s.deps.World
	cfg := s.deps.Cfg

	for f := world.Faction(0); f < world.NumFactions; f++ {
		n := ws.Nexus(f)
		if n == nil || n.Destroyed {
			continue
		}
		if ws.AdultCount(f) > 0 {
			continue
		}

		batch := cfg.Soul.MinRestingReserve
		if batch < 3 {
			batch = 3
		}
		room := cfg.Soul.PopulationCap - ws.Population(f)
		if batch > room {
			batch = room
		}
		if batch <= 0 {
			continue
		}

		size := ws.Tiles.TileSize()
		for i := 0; i < batch; i++ {
			a := s.deps.Rand.Float64() * 2 * math.Pi
			r := size * (1 + s.deps.Rand.Float64()*2)
			x := n.X + math.Cos(a)*r
			y := n.Y + math.Sin(a)*r
			x, y = s.clampToTerritory(f, x, y, n)

			so := ws.SpawnSoul(f, x, y, cfg.Energy.Initial, false, now)
			s.deps.Bus.Emit(event.SoulSpawned{
				ID:      so.ID,
				Faction: int(f),
				X:       so.X,
				Y:       so.Y,
				Energy:  so.Energy,
				Child:   false,
			})
		}
		s.deps.Log.Info("emergency respawn",
			zap.Int("faction", int(f)),
			zap.Int("count", batch))
	}
}

// clampToTerritory falls back to the nexus tile center when the random
// offset landed outside the faction's territory.
func (s *PopulationSystem) clampToTerritory(f world.Faction, x, y float64, n *world.Nexus) (float64, float64) {
	ws := s.deps.World
	if x >= 0 && y >= 0 && x < ws.Tiles.WorldWidth() && y < ws.Tiles.WorldHeight() {
		if t := ws.Tiles.AtWorld(x, y); t != nil && t.Owner == f {
			return x, y
		}
	}
	return ws.Tiles.Center(n.Tile)
}
