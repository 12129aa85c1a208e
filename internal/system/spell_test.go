package system

import (
	"testing"
	"time"

	"github.com/soulrift/server/internal/core/event"
	"github.com/soulrift/server/internal/world"
)

func TestSpellLifecycleCapturesAndKillsCaster(t *testing.T) {
	e := newTestEnv(t)
	resolve := NewSpellResolveSystem(e.deps)

	caster := e.spawnAdult(world.FactionLumen, 200, 144, 80)
	caster.TargetTile = world.TileCoord{X: 8, Y: 4}
	caster.HasTargetTile = true
	caster.SetState(world.StateCasting, e.now())

	e.deps.Spells.Update(0)

	sp := e.ws.SpellByCaster(caster.ID)
	if sp == nil {
		t.Fatal("no spell created for the casting soul")
	}
	if got := sp.CompletesAt; got != e.now().Add(e.cfg.Spell.CastDuration) {
		t.Errorf("completes at %v, want start + cast duration", got)
	}
	started := e.bus.Drain()
	if countKind(started, event.KindSpellStarted) != 1 {
		t.Fatalf("spell started events = %d, want 1", countKind(started, event.KindSpellStarted))
	}

	// Nothing resolves before the cast finishes.
	resolve.Update(0)
	if e.ws.SpellCount() != 1 {
		t.Fatal("spell resolved early")
	}

	e.clk.Advance(e.cfg.Spell.CastDuration)
	resolve.Update(0)

	if e.ws.SpellCount() != 0 {
		t.Fatal("spell survived resolution")
	}
	if e.ws.Tiles.At(world.TileCoord{X: 8, Y: 4}).Owner != world.FactionLumen {
		t.Error("target tile not captured")
	}
	if !caster.Dead {
		t.Error("completed cast must kill the caster")
	}
	if got := caster.CastCooldownUntil; got != e.now().Add(e.cfg.Spell.CastCooldown) {
		t.Errorf("cast cooldown = %v", got)
	}

	done := e.bus.Drain()
	if countKind(done, event.KindSpellCompleted) != 1 {
		t.Error("missing spell completed event")
	}
	// Footprint straddles the frontier: the 6 umbra tiles flip, the 3
	// lumen tiles do not.
	if got := countKind(done, event.KindTileUpdated); got != 6 {
		t.Errorf("tile updates = %d, want 6", got)
	}
}

func TestSpellStartRechecksTileClaim(t *testing.T) {
	e := newTestEnv(t)

	target := world.TileCoord{X: 8, Y: 4}
	first := e.spawnAdult(world.FactionLumen, 200, 144, 80)
	first.TargetTile = target
	first.HasTargetTile = true
	first.SetState(world.StateCasting, e.now())

	second := e.spawnAdult(world.FactionLumen, 200, 176, 80)
	second.TargetTile = target
	second.HasTargetTile = true
	second.SetState(world.StateCasting, e.now())

	e.deps.Spells.Update(0)

	if e.ws.SpellCount() != 1 {
		t.Fatalf("spell count = %d, want 1", e.ws.SpellCount())
	}
	if e.ws.SpellByCaster(first.ID) == nil {
		t.Error("first caster should hold the claim")
	}
	// The loser aborts silently back to roaming with a cleared target.
	if second.State != world.StateRoaming || second.HasTargetTile {
		t.Errorf("loser state = %v, target held = %v", second.State, second.HasTargetTile)
	}
	if got := countKind(e.bus.Drain(), event.KindSpellStarted); got != 1 {
		t.Errorf("spell started events = %d, want 1", got)
	}
}

func TestInterruptStandsDownDefenders(t *testing.T) {
	e := newTestEnv(t)

	caster := e.spawnAdult(world.FactionUmbra, 300, 144, 80)
	caster.TargetTile = world.TileCoord{X: 7, Y: 4}
	caster.HasTargetTile = true
	caster.SetState(world.StateCasting, e.now())
	e.deps.Spells.Update(0)
	e.bus.Drain()

	defender := e.spawnAdult(world.FactionLumen, 200, 144, 90)
	defender.TrackedEnemy = caster.ID
	defender.SetState(world.StateDefending, e.now())

	e.deps.Spells.Interrupt(caster, "attacked")

	if e.ws.SpellCount() != 0 {
		t.Fatal("spell survived interrupt")
	}
	if caster.State != world.StateRoaming {
		t.Errorf("caster state = %v, want roaming", caster.State)
	}
	if !defender.TrackedEnemy.IsZero() || defender.State != world.StateRoaming {
		t.Error("defender not stood down after interrupt")
	}

	events := e.bus.Drain()
	ev := firstOfKind(events, event.KindSpellInterrupted)
	if ev == nil {
		t.Fatal("missing interrupt event")
	}
	if got := ev.(event.SpellInterrupted).Reason; got != "attacked" {
		t.Errorf("reason = %q", got)
	}
}

func TestResolveSkipsDeadCaster(t *testing.T) {
	e := newTestEnv(t)
	resolve := NewSpellResolveSystem(e.deps)

	caster := e.spawnAdult(world.FactionLumen, 200, 144, 80)
	target := world.TileCoord{X: 8, Y: 4}
	e.ws.AddSpell(&world.ActiveSpell{
		Caster: caster.ID, Faction: world.FactionLumen, Target: target,
		StartedAt: e.now(), CompletesAt: e.now().Add(time.Second),
	})
	caster.Dead = true

	e.clk.Advance(2 * time.Second)
	resolve.Update(0)

	if e.ws.SpellCount() != 0 {
		t.Fatal("orphaned spell not removed")
	}
	if e.ws.Tiles.At(target).Owner != world.FactionUmbra {
		t.Error("dead caster's spell captured territory")
	}
	if countKind(e.bus.Drain(), event.KindSpellCompleted) != 0 {
		t.Error("completion event for a broken cast")
	}
}
