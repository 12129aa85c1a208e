package system

import (
	"math/rand"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/soulrift/server/internal/config"
	"github.com/soulrift/server/internal/core/clock"
	"github.com/soulrift/server/internal/core/event"
	"github.com/soulrift/server/internal/data"
	"github.com/soulrift/server/internal/scripting"
	"github.com/soulrift/server/internal/world"
)

// env is the shared fixture for system tests: a small 16×8 world on a
// manual clock, with the Lua engine pointed at an empty directory so
// the built-in damage fallbacks fire deterministically.
type env struct {
	cfg  *config.Config
	ws   *world.State
	bus  *event.Bus
	clk  *clock.Manual
	deps *Deps
}

func newTestEnv(t *testing.T) *env {
	t.Helper()

	cfg := config.Defaults()
	cfg.Map.Width = 16
	cfg.Map.Height = 8

	eng, err := scripting.NewEngine(filepath.Join(t.TempDir(), "scripts"), zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(eng.Close)

	clk := clock.NewManual(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	tiles := world.NewTileMap(cfg.Map.Width, cfg.Map.Height, cfg.Map.TileSize)
	ws := world.NewState(tiles, cfg.Map.BorderMargin, cfg.Nexus.MaxHealth)

	deps := &Deps{
		Cfg:     cfg,
		World:   ws,
		Bus:     event.NewBus(),
		Clock:   clk,
		Rand:    rand.New(rand.NewSource(1)),
		Log:     zap.NewNop(),
		Scripts: eng,
		Phases:  data.DefaultPhaseTable(),
	}
	deps.Deaths = NewDeathSystem(deps)
	deps.Spells = NewSpellSystem(deps)

	return &env{cfg: cfg, ws: ws, bus: deps.Bus, clk: clk, deps: deps}
}

func (e *env) now() time.Time { return e.clk.Now() }

// spawnAdult places a non-child soul and keeps it out of the mating
// pool so scenario tests stay deterministic.
func (e *env) spawnAdult(f world.Faction, x, y, energy float64) *world.Soul {
	so := e.ws.SpawnSoul(f, x, y, energy, false, e.now())
	so.MatingCooldownUntil = e.now().Add(time.Hour)
	return so
}

// countKind tallies events of one kind in a drained batch.
func countKind(events []event.Event, k event.Kind) int {
	n := 0
	for _, ev := range events {
		if ev.Kind() == k {
			n++
		}
	}
	return n
}

func firstOfKind(events []event.Event, k event.Kind) event.Event {
	for _, ev := range events {
		if ev.Kind() == k {
			return ev
		}
	}
	return nil
}
