package scripting

import (
	"fmt"
	"os"
	"path/filepath"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// Engine wraps a single gopher-lua VM holding the balance formulas:
// attack damage, nexus damage, and disaster severity. Single-goroutine
// access only (game loop). Missing functions fall back to built-in
// defaults so the simulation never stalls on a bad script drop.
type Engine struct {
	vm  *lua.LState
	log *zap.Logger

	attackFn   lua.LValue
	nexusFn    lua.LValue
	disasterFn lua.LValue
}

// NewEngine creates a Lua engine and loads all scripts from the given
// directory tree. Missing subdirectories are skipped.
func NewEngine(scriptsDir string, log *zap.Logger) (*Engine, error) {
	vm := lua.NewState(lua.Options{
		SkipOpenLibs: false,
	})
	vm.SetGlobal("API_VERSION", lua.LNumber(1))

	e := &Engine{vm: vm, log: log}

	for _, sub := range []string{"combat", "world"} {
		if err := e.loadDir(filepath.Join(scriptsDir, sub)); err != nil {
			vm.Close()
			return nil, fmt.Errorf("load %s scripts: %w", sub, err)
		}
	}

	e.attackFn = e.lookup("calc_attack_damage")
	e.nexusFn = e.lookup("calc_nexus_damage")
	e.disasterFn = e.lookup("calc_disaster_kills")
	return e, nil
}

// Close releases the Lua VM.
func (e *Engine) Close() {
	e.vm.Close()
}

func (e *Engine) loadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // skip missing dirs
		}
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".lua" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := e.vm.DoFile(path); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
		e.log.Debug("loaded lua script", zap.String("file", path))
	}
	return nil
}

func (e *Engine) lookup(name string) lua.LValue {
	fn := e.vm.GetGlobal(name)
	if fn == lua.LNil {
		e.log.Warn("lua function missing, using built-in fallback", zap.String("fn", name))
		return nil
	}
	return fn
}

// AttackContext holds pre-packed data for one melee hit calculation.
// Roll is a uniform [0,1) value supplied by the caller so tests can fix
// the randomness.
type AttackContext struct {
	AttackerEnergy float64
	TargetEnergy   float64
	TargetCasting  bool
	Roll           float64
}

// CalcAttackDamage calls the Lua calc_attack_damage function. The
// built-in fallback is a bounded random range of 5..15, slightly
// scaled by attacker energy.
func (e *Engine) CalcAttackDamage(ctx AttackContext) float64 {
	if e.attackFn == nil {
		return fallbackAttackDamage(ctx)
	}

	t := e.vm.NewTable()
	t.RawSetString("attacker_energy", lua.LNumber(ctx.AttackerEnergy))
	t.RawSetString("target_energy", lua.LNumber(ctx.TargetEnergy))
	t.RawSetString("target_casting", lua.LBool(ctx.TargetCasting))
	t.RawSetString("roll", lua.LNumber(ctx.Roll))

	if err := e.vm.CallByParam(lua.P{
		Fn:      e.attackFn,
		NRet:    1,
		Protect: true,
	}, t); err != nil {
		e.log.Error("lua calc_attack_damage failed", zap.Error(err))
		return fallbackAttackDamage(ctx)
	}
	ret := e.vm.Get(-1)
	e.vm.Pop(1)
	if n, ok := ret.(lua.LNumber); ok {
		return float64(n)
	}
	e.log.Error("lua calc_attack_damage returned non-number")
	return fallbackAttackDamage(ctx)
}

func fallbackAttackDamage(ctx AttackContext) float64 {
	return 5 + ctx.Roll*10
}

// NexusAttackContext holds data for a soul-vs-nexus hit.
type NexusAttackContext struct {
	AttackerEnergy float64
	NexusHealth    float64
	NexusMaxHP     float64
	Roll           float64
}

// CalcNexusDamage calls the Lua calc_nexus_damage function. Fallback is
// a bounded 3..9 roll.
func (e *Engine) CalcNexusDamage(ctx NexusAttackContext) float64 {
	if e.nexusFn == nil {
		return fallbackNexusDamage(ctx)
	}

	t := e.vm.NewTable()
	t.RawSetString("attacker_energy", lua.LNumber(ctx.AttackerEnergy))
	t.RawSetString("nexus_health", lua.LNumber(ctx.NexusHealth))
	t.RawSetString("nexus_max_hp", lua.LNumber(ctx.NexusMaxHP))
	t.RawSetString("roll", lua.LNumber(ctx.Roll))

	if err := e.vm.CallByParam(lua.P{
		Fn:      e.nexusFn,
		NRet:    1,
		Protect: true,
	}, t); err != nil {
		e.log.Error("lua calc_nexus_damage failed", zap.Error(err))
		return fallbackNexusDamage(ctx)
	}
	ret := e.vm.Get(-1)
	e.vm.Pop(1)
	if n, ok := ret.(lua.LNumber); ok {
		return float64(n)
	}
	e.log.Error("lua calc_nexus_damage returned non-number")
	return fallbackNexusDamage(ctx)
}

func fallbackNexusDamage(ctx NexusAttackContext) float64 {
	return 3 + ctx.Roll*6
}

// DisasterContext holds data for the per-disaster death quota.
type DisasterContext struct {
	Population   int
	KillFraction float64
}

// CalcDisasterKills calls the Lua calc_disaster_kills function.
// Fallback: floor(population × kill fraction).
func (e *Engine) CalcDisasterKills(ctx DisasterContext) int {
	if e.disasterFn == nil {
		return fallbackDisasterKills(ctx)
	}

	t := e.vm.NewTable()
	t.RawSetString("population", lua.LNumber(ctx.Population))
	t.RawSetString("kill_fraction", lua.LNumber(ctx.KillFraction))

	if err := e.vm.CallByParam(lua.P{
		Fn:      e.disasterFn,
		NRet:    1,
		Protect: true,
	}, t); err != nil {
		e.log.Error("lua calc_disaster_kills failed", zap.Error(err))
		return fallbackDisasterKills(ctx)
	}
	ret := e.vm.Get(-1)
	e.vm.Pop(1)
	if n, ok := ret.(lua.LNumber); ok {
		if n < 0 {
			return 0
		}
		return int(n)
	}
	e.log.Error("lua calc_disaster_kills returned non-number")
	return fallbackDisasterKills(ctx)
}

func fallbackDisasterKills(ctx DisasterContext) int {
	n := int(float64(ctx.Population) * ctx.KillFraction)
	if n < 0 {
		return 0
	}
	return n
}
