package world

// ScoreMatrix holds the per-faction tile desirability values. It is a
// derived structure: recomputed in full whenever ownership changes,
// never stored on the tiles themselves.
//
// Scoring rule: a tile owned by the faction scores 0; a tile outside
// the faction's border band scores 0; otherwise the score is the
// Manhattan distance to the nearest tile of the enemy nexus footprint.
// Souls pick the maximum score, so the front advances incrementally
// from the faction's own side instead of rushing the enemy core.
type ScoreMatrix struct {
	faction Faction
	width   int
	height  int
	scores  []int // row-major
}

// ComputeScores builds the score matrix for a faction. ownNexus and
// enemyNexus are the nexus anchor tiles; borderMargin expands the band
// (the bounding rect spanned by the two nexus footprints) outward.
func ComputeScores(m *TileMap, f Faction, ownNexus, enemyNexus TileCoord, borderMargin int) *ScoreMatrix {
	sm := &ScoreMatrix{
		faction: f,
		width:   m.Width(),
		height:  m.Height(),
		scores:  make([]int, m.Width()*m.Height()),
	}

	// Border band: bounding rect of the two nexus anchors expanded by
	// the margin. Restricting targets to this corridor keeps both
	// factions fighting over the same frontier.
	minX, maxX := ownNexus.X, enemyNexus.X
	if minX > maxX {
		minX, maxX = maxX, minX
	}
	minY, maxY := ownNexus.Y, enemyNexus.Y
	if minY > maxY {
		minY, maxY = maxY, minY
	}
	minX -= borderMargin
	minY -= borderMargin
	maxX += borderMargin
	maxY += borderMargin

	footprint := m.CaptureFootprint(enemyNexus)

	for y := 0; y < sm.height; y++ {
		for x := 0; x < sm.width; x++ {
			c := TileCoord{X: x, Y: y}
			t := m.At(c)
			if t.Owner == f {
				continue // own territory scores 0
			}
			if x < minX || x > maxX || y < minY || y > maxY {
				continue // outside the assigned band
			}
			best := -1
			for _, fc := range footprint {
				d := Manhattan(c, fc)
				if best < 0 || d < best {
					best = d
				}
			}
			if best > 0 {
				sm.scores[y*sm.width+x] = best
			}
		}
	}
	return sm
}

// At returns the score for a tile coordinate (0 when out of bounds).
func (sm *ScoreMatrix) At(c TileCoord) int {
	if c.X < 0 || c.X >= sm.width || c.Y < 0 || c.Y >= sm.height {
		return 0
	}
	return sm.scores[c.Y*sm.width+c.X]
}

// BestTarget returns the highest-scoring tile not present in the
// excluded set. Ties break to the first tile visited in row-major scan
// order, so target selection is deterministic.
func (sm *ScoreMatrix) BestTarget(excluded func(TileCoord) bool) (TileCoord, bool) {
	best := 0
	var bestC TileCoord
	found := false
	for y := 0; y < sm.height; y++ {
		for x := 0; x < sm.width; x++ {
			s := sm.scores[y*sm.width+x]
			if s <= 0 || s <= best && found {
				continue
			}
			c := TileCoord{X: x, Y: y}
			if excluded != nil && excluded(c) {
				continue
			}
			if !found || s > best {
				best = s
				bestC = c
				found = true
			}
		}
	}
	return bestC, found
}

// BestTargetNear behaves like BestTarget but restricted to tiles whose
// center lies within range of the world point. Used by the late-seeking
// fallback that accepts any legal in-range tile.
func (sm *ScoreMatrix) BestTargetNear(m *TileMap, wx, wy, rng float64, excluded func(TileCoord) bool) (TileCoord, bool) {
	best := 0
	var bestC TileCoord
	found := false
	for y := 0; y < sm.height; y++ {
		for x := 0; x < sm.width; x++ {
			s := sm.scores[y*sm.width+x]
			if s <= 0 {
				continue
			}
			c := TileCoord{X: x, Y: y}
			cx, cy := m.Center(c)
			if Dist2(wx, wy, cx, cy) > rng*rng {
				continue
			}
			if excluded != nil && excluded(c) {
				continue
			}
			if !found || s > best {
				best = s
				bestC = c
				found = true
			}
		}
	}
	return bestC, found
}

// HasTargets reports whether any tile scores above zero outside the
// excluded set.
func (sm *ScoreMatrix) HasTargets(excluded func(TileCoord) bool) bool {
	for y := 0; y < sm.height; y++ {
		for x := 0; x < sm.width; x++ {
			if sm.scores[y*sm.width+x] <= 0 {
				continue
			}
			c := TileCoord{X: x, Y: y}
			if excluded != nil && excluded(c) {
				continue
			}
			return true
		}
	}
	return false
}
