package protocol

import (
	"fmt"
	"time"

	"github.com/soulrift/server/internal/core/event"
	"github.com/soulrift/server/internal/world"
)

func millis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

// EncodeEvent maps one domain event to its wire payload. The switch is
// exhaustive over the closed event kind set; an unmapped kind is a
// programming error.
func EncodeEvent(ev event.Event) (any, error) {
	switch e := ev.(type) {
	case event.SoulSpawned:
		return SoulSpawnedWire{
			Type: string(e.Kind()), ID: uint64(e.ID), Faction: e.Faction,
			X: e.X, Y: e.Y, Energy: e.Energy, Child: e.Child,
		}, nil
	case event.SoulUpdated:
		return SoulUpdatedWire{
			Type: string(e.Kind()), ID: uint64(e.ID), Faction: e.Faction,
			X: e.X, Y: e.Y, Energy: e.Energy, State: e.State, Child: e.Child,
		}, nil
	case event.SoulRemoved:
		return SoulRemovedWire{Type: string(e.Kind()), ID: uint64(e.ID)}, nil
	case event.Attack:
		return AttackWire{
			Type: string(e.Kind()), Attacker: uint64(e.Attacker),
			Target: uint64(e.Target), Damage: e.Damage, Nexus: e.Nexus,
		}, nil
	case event.SpellStarted:
		return SpellStartedWire{
			Type: string(e.Kind()), Spell: uint64(e.Spell), Caster: uint64(e.Caster),
			Faction: e.Faction, TileX: e.TileX, TileY: e.TileY,
			CasterX: e.CasterX, CasterY: e.CasterY,
			CompletesAtMs: millis(e.CompletesAt),
		}, nil
	case event.SpellInterrupted:
		return SpellInterruptedWire{
			Type: string(e.Kind()), Spell: uint64(e.Spell),
			Caster: uint64(e.Caster), Reason: e.Reason,
		}, nil
	case event.SpellCompleted:
		return SpellCompletedWire{
			Type: string(e.Kind()), Spell: uint64(e.Spell), Caster: uint64(e.Caster),
			Faction: e.Faction, TileX: e.TileX, TileY: e.TileY,
		}, nil
	case event.OrbSpawned:
		return OrbSpawnedWire{
			Type: string(e.Kind()), ID: uint64(e.ID), Faction: e.Faction,
			X: e.X, Y: e.Y,
		}, nil
	case event.OrbCollected:
		return OrbCollectedWire{
			Type: string(e.Kind()), ID: uint64(e.ID),
			Collector: uint64(e.Collector), Energy: e.Energy,
		}, nil
	case event.MatingStarted:
		return MatingStartedWire{
			Type: string(e.Kind()), A: uint64(e.A), B: uint64(e.B), Faction: e.Faction,
		}, nil
	case event.MatingCompleted:
		return MatingCompletedWire{
			Type: string(e.Kind()), A: uint64(e.A), B: uint64(e.B),
			Child: uint64(e.Child), Faction: e.Faction, X: e.X, Y: e.Y,
		}, nil
	case event.TileUpdated:
		return TileUpdatedWire{Type: string(e.Kind()), X: e.X, Y: e.Y, Owner: e.Owner}, nil
	case event.DisasterStarted:
		return DisasterStartedWire{
			Type: string(e.Kind()), ID: e.DisasterID, Name: e.Name,
			EndsAtMs: millis(e.EndsAt),
		}, nil
	case event.DisasterEnded:
		return DisasterEndedWire{
			Type: string(e.Kind()), ID: e.DisasterID, Deaths: e.Deaths,
		}, nil
	case event.NexusUpdated:
		return NexusUpdatedWire{
			Type: string(e.Kind()), Faction: e.Faction, Health: e.Health, MaxHP: e.MaxHP,
		}, nil
	case event.NexusDestroyed:
		return NexusDestroyedWire{Type: string(e.Kind()), Faction: e.Faction}, nil
	case event.BuffApplied:
		return BuffAppliedWire{
			Type: string(e.Kind()), Source: e.Source, Faction: e.Faction,
			SpeedMult: e.SpeedMult, CastTimeMult: e.CastTimeMult,
			EnergyMult: e.EnergyMult, ExpiresAtMs: millis(e.ExpiresAt),
		}, nil
	case event.BuffRemoved:
		return BuffRemovedWire{Type: string(e.Kind()), Source: e.Source, Faction: e.Faction}, nil
	case event.MatchOver:
		return MatchOverWire{Type: string(e.Kind()), Winner: e.Winner, Loser: e.Loser}, nil
	default:
		return nil, fmt.Errorf("no wire mapping for event kind %q", ev.Kind())
	}
}

// EncodeTick wraps one tick's drained events into a tick frame.
// Events without a mapping are skipped; the caller logs the error.
func EncodeTick(tick uint64, events []event.Event) (TickMsg, error) {
	msg := TickMsg{Type: TypeTick, Tick: tick, Events: make([]any, 0, len(events))}
	var firstErr error
	for _, ev := range events {
		w, err := EncodeEvent(ev)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		msg.Events = append(msg.Events, w)
	}
	return msg, firstErr
}

// BuildSnapshot captures the full world for a resynchronizing observer.
// Must be called from the tick goroutine.
func BuildSnapshot(ws *world.State, tick uint64, now time.Time) SnapshotMsg {
	snap := SnapshotMsg{
		Type:          TypeSnapshot,
		Tick:          tick,
		Width:         ws.Tiles.Width(),
		Height:        ws.Tiles.Height(),
		TileSize:      ws.Tiles.TileSize(),
		Tiles:         make([]int, 0, ws.Tiles.Width()*ws.Tiles.Height()),
		TimeOfDay:     ws.PhaseName,
		CycleFraction: ws.CycleFraction,
		Over:          ws.Over,
	}

	ws.Tiles.Each(func(t *world.Tile) {
		snap.Tiles = append(snap.Tiles, int(t.Owner))
	})

	ws.AllSouls(func(so *world.Soul) {
		snap.Souls = append(snap.Souls, SoulWire{
			ID:      uint64(so.ID),
			Faction: int(so.Faction),
			X:       so.X,
			Y:       so.Y,
			Energy:  so.Energy,
			State:   so.State.String(),
			Child:   so.Child,
		})
	})

	ws.AllOrbs(func(o *world.EnergyOrb) {
		snap.Orbs = append(snap.Orbs, OrbWire{
			ID:      uint64(o.ID),
			Faction: int(o.Faction),
			X:       o.X,
			Y:       o.Y,
			Active:  o.Collectible(now),
		})
	})

	ws.AllSpells(func(sp *world.ActiveSpell) {
		snap.Spells = append(snap.Spells, SpellWire{
			ID:            uint64(sp.ID),
			Caster:        uint64(sp.Caster),
			Faction:       int(sp.Faction),
			TileX:         sp.Target.X,
			TileY:         sp.Target.Y,
			CasterX:       sp.CasterX,
			CasterY:       sp.CasterY,
			CompletesAtMs: millis(sp.CompletesAt),
		})
	})

	for f := world.Faction(0); f < world.NumFactions; f++ {
		n := ws.Nexus(f)
		snap.Nexuses = append(snap.Nexuses, NexusWire{
			Faction:   int(n.Faction),
			X:         n.X,
			Y:         n.Y,
			Health:    n.Health,
			MaxHP:     n.MaxHealth,
			Destroyed: n.Destroyed,
		})
	}
	return snap
}
