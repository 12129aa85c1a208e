package sim

import (
	"math"
	"math/rand"

	"time"

	"go.uber.org/zap"

	"github.com/soulrift/server/internal/config"
	"github.com/soulrift/server/internal/core/clock"
	"github.com/soulrift/server/internal/core/event"
	coresys "github.com/soulrift/server/internal/core/system"
	"github.com/soulrift/server/internal/data"
	"github.com/soulrift/server/internal/scripting"
	"github.com/soulrift/server/internal/system"
	"github.com/soulrift/server/internal/world"
)

// Manager owns the authoritative simulation: world state, the phase
// runner, and the event bus. It is single-threaded; the server loop
// calls Tick from exactly one goroutine and fans the returned events
// out to observers.
type Manager struct {
	cfg    *config.Config
	log    *zap.Logger
	ws     *world.State
	bus    *event.Bus
	runner *coresys.Runner
	clk    clock.Clock
	tick   uint64
}

// Options carries the loaded static data and boot wiring for a Manager.
type Options struct {
	Scripts   *scripting.Engine
	Disasters *data.DisasterTable
	Phases    *data.PhaseTable
	Clock     clock.Clock
	Seed      int64
}

// NewManager builds the world, wires every system in phase order, and
// seeds the starting populations and orb fields.
func NewManager(cfg *config.Config, log *zap.Logger, opts Options) *Manager {
	if opts.Clock == nil {
		opts.Clock = clock.System()
	}
	if opts.Phases == nil {
		opts.Phases = data.DefaultPhaseTable()
	}

	tiles := world.NewTileMap(cfg.Map.Width, cfg.Map.Height, cfg.Map.TileSize)
	ws := world.NewState(tiles, cfg.Map.BorderMargin, cfg.Nexus.MaxHealth)
	bus := event.NewBus()

	deps := &system.Deps{
		Cfg:       cfg,
		World:     ws,
		Bus:       bus,
		Clock:     opts.Clock,
		Rand:      rand.New(rand.NewSource(opts.Seed)),
		Log:       log,
		Scripts:   opts.Scripts,
		Disasters: opts.Disasters,
		Phases:    opts.Phases,
	}
	deps.Deaths = system.NewDeathSystem(deps)
	deps.Spells = system.NewSpellSystem(deps)

	runner := coresys.NewRunner()
	runner.Register(system.NewBehaviorSystem(deps))
	runner.Register(deps.Deaths)
	runner.Register(system.NewMovementSystem(deps))
	runner.Register(deps.Spells)
	runner.Register(system.NewCombatSystem(deps))
	runner.Register(system.NewSpellResolveSystem(deps))
	runner.Register(system.NewMatingSystem(deps))
	runner.Register(system.NewOrbSystem(deps))
	runner.Register(system.NewPopulationSystem(deps))
	runner.Register(system.NewDisasterSystem(deps))
	runner.Register(system.NewDayNightSystem(deps))
	runner.Register(system.NewBuffExpirySystem(deps))
	runner.Register(system.NewOutputSystem(deps))
	runner.Register(system.NewCleanupSystem(deps))

	m := &Manager{
		cfg:    cfg,
		log:    log,
		ws:     ws,
		bus:    bus,
		runner: runner,
		clk:    opts.Clock,
	}
	m.seed(deps.Rand)
	return m
}

// seed places the starting souls in a ring around each nexus and
// scatters the orb fields over each faction's half.
func (m *Manager) seed(rng *rand.Rand) {
	now := m.clk.Now()
	cfg := m.cfg
	size := m.ws.Tiles.TileSize()

	for f := world.Faction(0); f < world.NumFactions; f++ {
		n := m.ws.Nexus(f)
		for i := 0; i < cfg.Soul.InitialPopulation; i++ {
			a := rng.Float64() * 2 * math.Pi
			r := size * (1.5 + rng.Float64()*3)
			x := n.X + math.Cos(a)*r
			y := n.Y + math.Sin(a)*r
			if !m.onTerritory(f, x, y) {
				x, y = m.ws.Tiles.Center(n.Tile)
			}
			so := m.ws.SpawnSoul(f, x, y, cfg.Energy.Initial, false, now)
			m.bus.Emit(event.SoulSpawned{
				ID:      so.ID,
				Faction: int(f),
				X:       so.X,
				Y:       so.Y,
				Energy:  so.Energy,
				Child:   false,
			})
		}

		for i := 0; i < cfg.Orb.CountPerFaction; i++ {
			x, y := m.randomTerritoryPoint(rng, f)
			o := m.ws.AddOrb(f, x, y)
			m.bus.Emit(event.OrbSpawned{
				ID:      o.ID,
				Faction: int(f),
				X:       o.X,
				Y:       o.Y,
			})
		}
	}

	m.log.Info("world seeded",
		zap.Int("souls_per_faction", cfg.Soul.InitialPopulation),
		zap.Int("orbs_per_faction", cfg.Orb.CountPerFaction),
		zap.Int("tiles", cfg.Map.Width*cfg.Map.Height))
}

func (m *Manager) onTerritory(f world.Faction, x, y float64) bool {
	if x < 0 || y < 0 || x >= m.ws.Tiles.WorldWidth() || y >= m.ws.Tiles.WorldHeight() {
		return false
	}
	t := m.ws.Tiles.AtWorld(x, y)
	return t != nil && t.Owner == f
}

func (m *Manager) randomTerritoryPoint(rng *rand.Rand, f world.Faction) (float64, float64) {
	for try := 0; try < 32; try++ {
		c := world.TileCoord{
			X: rng.Intn(m.ws.Tiles.Width()),
			Y: rng.Intn(m.ws.Tiles.Height()),
		}
		t := m.ws.Tiles.At(c)
		if t == nil || t.Owner != f {
			continue
		}
		cx, cy := m.ws.Tiles.Center(c)
		size := m.ws.Tiles.TileSize()
		return cx + (rng.Float64()-0.5)*size*0.5, cy + (rng.Float64()-0.5)*size*0.5
	}
	return m.ws.Tiles.Center(m.ws.Nexus(f).Tile)
}

// Tick advances the simulation one step and returns the tick's drained
// event list in emission order. After the match is over the world is
// frozen and only leftover events drain.
func (m *Manager) Tick(dt time.Duration) []event.Event {
	if !m.ws.Over {
		m.runner.Tick(dt)
		m.tick++
	}
	return m.bus.Drain()
}

// TickCount returns the number of completed simulation steps.
func (m *Manager) TickCount() uint64 { return m.tick }

// World exposes the authoritative state for snapshot building. Callers
// must only touch it from the tick goroutine.
func (m *Manager) World() *world.State { return m.ws }

// Over reports whether a nexus has fallen.
func (m *Manager) Over() bool { return m.ws.Over }
