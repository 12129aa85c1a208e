package system

import (
	"math"
	"time"

	coresys "github.com/soulrift/server/internal/core/system"
	"github.com/soulrift/server/internal/world"
)

// MovementSystem turns each soul's behavior state into a velocity,
// resolves mutual collisions, keeps souls inside their own territory
// with a barrier margin off enemy tiles, and breaks navigation
// deadlocks with a three-tier fallback: tunnel-aware single-axis
// stepping, an 8-direction scored search, then an expanding randomized
// escape. Phase 2 (Movement).
type MovementSystem struct {
	deps *Deps
}

func NewMovementSystem(deps *Deps) *MovementSystem {
	return &MovementSystem{deps: deps}
}

func (s *MovementSystem) Phase() coresys.Phase { return coresys.PhaseMovement }

// moveIntent is the per-soul movement decision for one tick.
type moveIntent struct {
	move       bool
	wander     bool // no concrete target: drift
	tx, ty     float64
	speedScale float64
	stopWithin float64 // don't creep closer than this to the target
}

func (s *MovementSystem) Update(dt time.Duration) {
	now := s.deps.Clock.Now()
	ws := s.deps.World
	cfg := s.deps.Cfg

	ws.LivingSouls(func(so *world.Soul) {
		if so.Energy <= 0 {
			return
		}

		intent := s.intentFor(so, now)
		if !intent.move {
			so.VX, so.VY = 0, 0
			s.sample(so, now)
			return
		}

		mods := ws.Buffs.Modifiers(so.Faction)
		speed := cfg.Soul.BaseSpeed * mods.Speed * intent.speedScale
		if so.Child {
			speed *= 0.8
		}
		step := speed * dt.Seconds()

		var dirX, dirY float64
		if intent.wander {
			dirX, dirY = s.wanderDir(so)
		} else {
			d := world.Dist(so.X, so.Y, intent.tx, intent.ty)
			if d <= intent.stopWithin {
				so.VX, so.VY = 0, 0
				s.sample(so, now)
				return
			}
			dirX, dirY = world.Normalize(intent.tx-so.X, intent.ty-so.Y)
		}

		// Mutual repulsion: proportional push when overlapping.
		rx, ry := s.repulsion(so)

		nx := so.X + (dirX*speed+rx)*dt.Seconds()
		ny := so.Y + (dirY*speed+ry)*dt.Seconds()

		stuck := s.isStuck(so, now) && !intent.wander
		if s.valid(so.Faction, nx, ny) && !stuck {
			s.apply(so, nx, ny, dt)
			s.sample(so, now)
			return
		}

		// Tier 1: single-axis stepping inside narrow corridors.
		here := ws.Tiles.WorldCoord(so.X, so.Y)
		if ws.Tiles.OpenNeighbors(here, so.Faction) <= 2 {
			if s.valid(so.Faction, nx, so.Y) {
				s.apply(so, nx, so.Y, dt)
				s.sample(so, now)
				return
			}
			if s.valid(so.Faction, so.X, ny) {
				s.apply(so, so.X, ny, dt)
				s.sample(so, now)
				return
			}
		}

		// Tier 2: 8-direction scored search, the valid step that makes
		// the most progress toward the target.
		if !intent.wander {
			if px, py, ok := s.bestOctant(so, step, intent.tx, intent.ty); ok {
				s.apply(so, px, py, dt)
				s.sample(so, now)
				return
			}
		}

		// Tier 3: expanding-radius randomized escape.
		if px, py, ok := s.randomEscape(so, step); ok {
			s.apply(so, px, py, dt)
		} else {
			so.VX, so.VY = 0, 0
		}
		s.sample(so, now)
	})
}

func (s *MovementSystem) intentFor(so *world.Soul, now time.Time) moveIntent {
	ws := s.deps.World
	cfg := s.deps.Cfg

	switch so.State {
	case world.StatePreparing, world.StateCasting, world.StateResting:
		return moveIntent{}

	case world.StateHungry:
		if o := s.nearestOrb(so, now); o != nil {
			return moveIntent{move: true, tx: o.X, ty: o.Y, speedScale: 1}
		}
		return moveIntent{move: true, wander: true, speedScale: 1}

	case world.StateSeeking:
		if so.HasTargetTile {
			cx, cy := ws.Tiles.Center(so.TargetTile)
			return moveIntent{move: true, tx: cx, ty: cy, speedScale: 1,
				stopWithin: cfg.Spell.Range * 0.8}
		}
		n := ws.Nexus(so.Faction.Opponent())
		return moveIntent{move: true, tx: n.X, ty: n.Y, speedScale: 1}

	case world.StateDefending, world.StateAttacking:
		enemy, ok := ws.Soul(so.TrackedEnemy)
		if !ok || enemy.Dead {
			return moveIntent{}
		}
		return moveIntent{move: true, tx: enemy.X, ty: enemy.Y, speedScale: 1.1,
			stopWithin: cfg.Combat.AttackRange * 0.6}

	case world.StateSeekingNexus, world.StateAttackingNexus:
		n := ws.Nexus(so.Faction.Opponent())
		if n == nil {
			return moveIntent{move: true, wander: true, speedScale: 0.6}
		}
		return moveIntent{move: true, tx: n.X, ty: n.Y, speedScale: 1,
			stopWithin: cfg.Nexus.AttackRange * 0.7}

	case world.StateSocialising:
		return moveIntent{move: true, wander: true, speedScale: 0.3}

	case world.StateMating:
		partner, ok := ws.Soul(so.Partner)
		if !ok {
			return moveIntent{move: true, wander: true, speedScale: 0.3}
		}
		d := world.Dist(so.X, so.Y, partner.X, partner.Y)
		sep := cfg.Mating.Separation
		switch {
		case d > sep*1.2:
			return moveIntent{move: true, tx: partner.X, ty: partner.Y, speedScale: 0.8}
		case d < sep*0.8:
			// Back off to the separation band.
			ax, ay := world.Normalize(so.X-partner.X, so.Y-partner.Y)
			return moveIntent{move: true, tx: so.X + ax*sep, ty: so.Y + ay*sep, speedScale: 0.5}
		default:
			return moveIntent{}
		}

	default: // Roaming (and anything unmodeled drifts)
		if so.Retreating {
			if tx, ty, ok := s.retreatTarget(so); ok {
				return moveIntent{move: true, tx: tx, ty: ty, speedScale: 1.2}
			}
		}
		return moveIntent{move: true, wander: true, speedScale: 0.7}
	}
}

// retreatTarget steers away from the weighted average direction of
// nearby enemies. Closer threats weigh more.
func (s *MovementSystem) retreatTarget(so *world.Soul) (float64, float64, bool) {
	cfg := s.deps.Cfg
	r := cfg.Soul.ThreatRadius
	var ax, ay, weight float64
	s.deps.World.NearbySouls(so.X, so.Y, r, so.ID, func(o *world.Soul) {
		if o.Faction == so.Faction {
			return
		}
		d := world.Dist(so.X, so.Y, o.X, o.Y)
		w := 1 - d/r
		if w <= 0 {
			return
		}
		dx, dy := world.Normalize(so.X-o.X, so.Y-o.Y)
		ax += dx * w
		ay += dy * w
		weight += w
	})
	if weight == 0 {
		return 0, 0, false
	}
	dx, dy := world.Normalize(ax, ay)
	size := s.deps.World.Tiles.TileSize()
	return so.X + dx*size*3, so.Y + dy*size*3, true
}

func (s *MovementSystem) nearestOrb(so *world.Soul, now time.Time) *world.EnergyOrb {
	var best *world.EnergyOrb
	bestD := math.MaxFloat64
	s.deps.World.AllOrbs(func(o *world.EnergyOrb) {
		if o.Faction != so.Faction || !o.Collectible(now) {
			return
		}
		d := world.Dist2(so.X, so.Y, o.X, o.Y)
		if d < bestD {
			bestD = d
			best = o
		}
	})
	return best
}

// wanderDir keeps the previous heading with a small random turn, so
// roaming looks like drifting rather than teleport jitter.
func (s *MovementSystem) wanderDir(so *world.Soul) (float64, float64) {
	vx, vy := so.VX, so.VY
	if vx == 0 && vy == 0 {
		a := s.deps.Rand.Float64() * 2 * math.Pi
		return math.Cos(a), math.Sin(a)
	}
	a := math.Atan2(vy, vx) + (s.deps.Rand.Float64()-0.5)*0.6
	return math.Cos(a), math.Sin(a)
}

func (s *MovementSystem) repulsion(so *world.Soul) (float64, float64) {
	cfg := s.deps.Cfg
	reach := cfg.Soul.CollisionRadius * 2
	var rx, ry float64
	s.deps.World.NearbySouls(so.X, so.Y, reach, so.ID, func(o *world.Soul) {
		d := world.Dist(so.X, so.Y, o.X, o.Y)
		if d >= reach {
			return
		}
		overlap := (reach - d) / reach
		var dx, dy float64
		if d == 0 {
			a := s.deps.Rand.Float64() * 2 * math.Pi
			dx, dy = math.Cos(a), math.Sin(a)
		} else {
			dx, dy = (so.X-o.X)/d, (so.Y-o.Y)/d
		}
		rx += dx * overlap * cfg.Soul.BaseSpeed
		ry += dy * overlap * cfg.Soul.BaseSpeed
	})
	return rx, ry
}

// valid reports whether the faction's souls may stand at the point:
// inside the world, on an own-faction tile, and clear of enemy tiles by
// the barrier margin. The margin is the invisible buffer that keeps
// fights at the border instead of across it.
func (s *MovementSystem) valid(f world.Faction, x, y float64) bool {
	ws := s.deps.World
	if x < 0 || y < 0 || x >= ws.Tiles.WorldWidth() || y >= ws.Tiles.WorldHeight() {
		return false
	}
	t := ws.Tiles.AtWorld(x, y)
	if t == nil || t.Owner != f {
		return false
	}
	return !ws.Tiles.EnemyTileWithin(x, y, f, s.deps.Cfg.Map.BarrierMargin)
}

var octants = [8][2]float64{
	{1, 0}, {0.7071, 0.7071}, {0, 1}, {-0.7071, 0.7071},
	{-1, 0}, {-0.7071, -0.7071}, {0, -1}, {0.7071, -0.7071},
}

// bestOctant picks the valid unit-step direction with the most progress
// toward the target.
func (s *MovementSystem) bestOctant(so *world.Soul, step, tx, ty float64) (float64, float64, bool) {
	cur := world.Dist(so.X, so.Y, tx, ty)
	bestGain := 0.0
	var bx, by float64
	found := false
	for _, o := range octants {
		px := so.X + o[0]*step
		py := so.Y + o[1]*step
		if !s.valid(so.Faction, px, py) {
			continue
		}
		gain := cur - world.Dist(px, py, tx, ty)
		if !found || gain > bestGain {
			bestGain = gain
			bx, by = px, py
			found = true
		}
	}
	return bx, by, found
}

// randomEscape probes random points at expanding radii and steps toward
// the first valid one.
func (s *MovementSystem) randomEscape(so *world.Soul, step float64) (float64, float64, bool) {
	size := s.deps.World.Tiles.TileSize()
	for _, mult := range [3]float64{1, 2, 3} {
		r := size * mult
		for try := 0; try < 8; try++ {
			a := s.deps.Rand.Float64() * 2 * math.Pi
			px := so.X + math.Cos(a)*r
			py := so.Y + math.Sin(a)*r
			if !s.valid(so.Faction, px, py) {
				continue
			}
			dx, dy := world.Normalize(px-so.X, py-so.Y)
			nx := so.X + dx*step
			ny := so.Y + dy*step
			if s.valid(so.Faction, nx, ny) {
				return nx, ny, true
			}
		}
	}
	return 0, 0, false
}

func (s *MovementSystem) apply(so *world.Soul, nx, ny float64, dt time.Duration) {
	moved := world.Dist(so.X, so.Y, nx, ny)
	if dt > 0 {
		so.VX = (nx - so.X) / dt.Seconds()
		so.VY = (ny - so.Y) / dt.Seconds()
	}
	so.X = nx
	so.Y = ny
	if moved > 0 {
		cfg := s.deps.Cfg
		so.AddEnergy(-cfg.Energy.MoveDrainPerSec*dt.Seconds(), cfg.Energy.Max)
	}
}

// sample records the position for stuck detection and prunes samples
// outside the window.
func (s *MovementSystem) sample(so *world.Soul, now time.Time) {
	so.Trail = append(so.Trail, world.TrailPoint{X: so.X, Y: so.Y, At: now})
	cutoff := now.Add(-s.deps.Cfg.Soul.StuckWindow)
	i := 0
	for ; i < len(so.Trail); i++ {
		if so.Trail[i].At.After(cutoff) {
			break
		}
	}
	if i > 0 {
		so.Trail = so.Trail[i:]
	}
}

// isStuck reports no net progress over a full stuck window.
func (s *MovementSystem) isStuck(so *world.Soul, now time.Time) bool {
	cfg := s.deps.Cfg
	if len(so.Trail) < 2 {
		return false
	}
	oldest := so.Trail[0]
	if now.Sub(oldest.At) < cfg.Soul.StuckWindow*9/10 {
		return false
	}
	latest := so.Trail[len(so.Trail)-1]
	return world.Dist(oldest.X, oldest.Y, latest.X, latest.Y) < cfg.Soul.StuckMinProgress
}
