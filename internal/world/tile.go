package world

// TileCoord is a grid coordinate. (0,0) is the top-left tile.
type TileCoord struct {
	X, Y int
}

// Rect is a world-space axis-aligned bounding box.
type Rect struct {
	MinX, MinY, MaxX, MaxY float64
}

// Contains reports whether the point lies inside the rect (max-exclusive).
func (r Rect) Contains(x, y float64) bool {
	return x >= r.MinX && x < r.MaxX && y >= r.MinY && y < r.MaxY
}

// Tile is the unit of territory. Every tile has exactly one owning
// faction at all times; ownership changes only through spell-completion
// capture.
type Tile struct {
	Coord  TileCoord
	Owner  Faction
	Bounds Rect
}

// TileMap is the static territory grid. The grid shape never changes
// after construction; only tile ownership mutates.
type TileMap struct {
	width    int
	height   int
	tileSize float64
	tiles    []Tile // row-major
}

// NewTileMap builds a w×h grid with the given tile size. The left half
// starts owned by Lumen, the right half by Umbra; an odd middle column
// splits top/bottom between them so no tile is left unowned.
func NewTileMap(w, h int, tileSize float64) *TileMap {
	m := &TileMap{
		width:    w,
		height:   h,
		tileSize: tileSize,
		tiles:    make([]Tile, w*h),
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			owner := FactionLumen
			switch {
			case x > w/2 || (w%2 == 1 && x == w/2 && y >= h/2):
				owner = FactionUmbra
			case w%2 == 0 && x == w/2:
				owner = FactionUmbra
			}
			m.tiles[y*w+x] = Tile{
				Coord: TileCoord{X: x, Y: y},
				Owner: owner,
				Bounds: Rect{
					MinX: float64(x) * tileSize,
					MinY: float64(y) * tileSize,
					MaxX: float64(x+1) * tileSize,
					MaxY: float64(y+1) * tileSize,
				},
			}
		}
	}
	return m
}

func (m *TileMap) Width() int        { return m.width }
func (m *TileMap) Height() int       { return m.height }
func (m *TileMap) TileSize() float64 { return m.tileSize }

// InBounds reports whether the tile coordinate lies on the grid.
func (m *TileMap) InBounds(c TileCoord) bool {
	return c.X >= 0 && c.X < m.width && c.Y >= 0 && c.Y < m.height
}

// At returns the tile at the coordinate, or nil when out of bounds.
func (m *TileMap) At(c TileCoord) *Tile {
	if !m.InBounds(c) {
		return nil
	}
	return &m.tiles[c.Y*m.width+c.X]
}

// AtWorld returns the tile containing the world point, or nil outside
// the map.
func (m *TileMap) AtWorld(wx, wy float64) *Tile {
	if wx < 0 || wy < 0 {
		return nil
	}
	return m.At(TileCoord{X: int(wx / m.tileSize), Y: int(wy / m.tileSize)})
}

// WorldCoord converts a world point to a tile coordinate without a
// bounds check.
func (m *TileMap) WorldCoord(wx, wy float64) TileCoord {
	return TileCoord{X: int(wx / m.tileSize), Y: int(wy / m.tileSize)}
}

// Center returns the world-space center of a tile.
func (m *TileMap) Center(c TileCoord) (float64, float64) {
	return (float64(c.X) + 0.5) * m.tileSize, (float64(c.Y) + 0.5) * m.tileSize
}

// WorldWidth and WorldHeight are the map extents in world units.
func (m *TileMap) WorldWidth() float64  { return float64(m.width) * m.tileSize }
func (m *TileMap) WorldHeight() float64 { return float64(m.height) * m.tileSize }

// CaptureFootprint returns the 3×3 block centered on c, clipped to map
// bounds, in row-major order.
func (m *TileMap) CaptureFootprint(c TileCoord) []TileCoord {
	out := make([]TileCoord, 0, 9)
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			t := TileCoord{X: c.X + dx, Y: c.Y + dy}
			if m.InBounds(t) {
				out = append(out, t)
			}
		}
	}
	return out
}

// Capture converts the 3×3 footprint around c to the given faction and
// returns the coordinates whose owner actually changed. Tiles already
// owned by the faction are untouched, which makes a repeat capture
// idempotent.
func (m *TileMap) Capture(c TileCoord, f Faction) []TileCoord {
	var changed []TileCoord
	for _, tc := range m.CaptureFootprint(c) {
		t := m.At(tc)
		if t.Owner != f {
			t.Owner = f
			changed = append(changed, tc)
		}
	}
	return changed
}

// CountOwned returns how many tiles the faction holds.
func (m *TileMap) CountOwned(f Faction) int {
	n := 0
	for i := range m.tiles {
		if m.tiles[i].Owner == f {
			n++
		}
	}
	return n
}

// Each visits every tile in row-major order.
func (m *TileMap) Each(fn func(*Tile)) {
	for i := range m.tiles {
		fn(&m.tiles[i])
	}
}

// EnemyTileWithin reports whether any tile owned by a faction other than
// f lies within radius world units of the point. The scan is limited to
// the tiles overlapping the radius box.
func (m *TileMap) EnemyTileWithin(wx, wy float64, f Faction, radius float64) bool {
	minC := m.WorldCoord(wx-radius, wy-radius)
	maxC := m.WorldCoord(wx+radius, wy+radius)
	for ty := minC.Y; ty <= maxC.Y; ty++ {
		for tx := minC.X; tx <= maxC.X; tx++ {
			t := m.At(TileCoord{X: tx, Y: ty})
			if t == nil || t.Owner == f {
				continue
			}
			// Closest point on the tile rect to the query point.
			cx := Clamp(wx, t.Bounds.MinX, t.Bounds.MaxX)
			cy := Clamp(wy, t.Bounds.MinY, t.Bounds.MaxY)
			if Dist2(wx, wy, cx, cy) < radius*radius {
				return true
			}
		}
	}
	return false
}

// OpenNeighbors counts the 4-connected neighbors of c owned by f and
// in bounds. Souls in tiles with ≤2 open neighbors are in a corridor
// and use single-axis navigation fallback.
func (m *TileMap) OpenNeighbors(c TileCoord, f Faction) int {
	n := 0
	for _, d := range [4]TileCoord{{1, 0}, {-1, 0}, {0, 1}, {0, -1}} {
		t := m.At(TileCoord{X: c.X + d.X, Y: c.Y + d.Y})
		if t != nil && t.Owner == f {
			n++
		}
	}
	return n
}
