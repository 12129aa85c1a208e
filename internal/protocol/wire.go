// Package protocol defines the JSON wire format broadcast to observer
// clients: one tick message per simulation step carrying the tick's
// domain events, plus a periodic full snapshot for late joiners.
package protocol

// Message type discriminators. Every frame carries one as "type".
const (
	TypeTick     = "tick"
	TypeSnapshot = "snapshot"
	TypeHello    = "hello"
)

// Hello is the first frame sent after a successful subscribe.
type Hello struct {
	Type       string `json:"type"`
	ServerName string `json:"server_name"`
	ServerID   int    `json:"server_id"`
	TickRateMs int64  `json:"tick_rate_ms"`
}

// TickMsg carries one tick's ordered event list.
type TickMsg struct {
	Type   string `json:"type"`
	Tick   uint64 `json:"tick"`
	Events []any  `json:"events"`
}

// SnapshotMsg is the full world for resynchronization. Tiles is the
// row-major owner grid.
type SnapshotMsg struct {
	Type          string      `json:"type"`
	Tick          uint64      `json:"tick"`
	Width         int         `json:"width"`
	Height        int         `json:"height"`
	TileSize      float64     `json:"tile_size"`
	Tiles         []int       `json:"tiles"`
	Souls         []SoulWire  `json:"souls"`
	Orbs          []OrbWire   `json:"orbs"`
	Spells        []SpellWire `json:"spells"`
	Nexuses       []NexusWire `json:"nexuses"`
	TimeOfDay     string      `json:"time_of_day"`
	CycleFraction float64     `json:"cycle_fraction"`
	Over          bool        `json:"over,omitempty"`
}

type SoulWire struct {
	ID      uint64  `json:"id"`
	Faction int     `json:"faction"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Energy  float64 `json:"energy"`
	State   string  `json:"state"`
	Child   bool    `json:"child,omitempty"`
}

type OrbWire struct {
	ID      uint64  `json:"id"`
	Faction int     `json:"faction"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Active  bool    `json:"active"`
}

type SpellWire struct {
	ID            uint64  `json:"id"`
	Caster        uint64  `json:"caster"`
	Faction       int     `json:"faction"`
	TileX         int     `json:"tile_x"`
	TileY         int     `json:"tile_y"`
	CasterX       float64 `json:"caster_x"`
	CasterY       float64 `json:"caster_y"`
	CompletesAtMs int64   `json:"completes_at_ms"`
}

type NexusWire struct {
	Faction   int     `json:"faction"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Health    float64 `json:"health"`
	MaxHP     float64 `json:"max_hp"`
	Destroyed bool    `json:"destroyed,omitempty"`
}

// Per-event wire payloads. Each mirrors one event kind with a fixed
// shape; "type" is the event kind string.

type SoulSpawnedWire struct {
	Type    string  `json:"type"`
	ID      uint64  `json:"id"`
	Faction int     `json:"faction"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Energy  float64 `json:"energy"`
	Child   bool    `json:"child,omitempty"`
}

type SoulUpdatedWire struct {
	Type    string  `json:"type"`
	ID      uint64  `json:"id"`
	Faction int     `json:"faction"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Energy  float64 `json:"energy"`
	State   string  `json:"state"`
	Child   bool    `json:"child,omitempty"`
}

type SoulRemovedWire struct {
	Type string `json:"type"`
	ID   uint64 `json:"id"`
}

type AttackWire struct {
	Type     string  `json:"type"`
	Attacker uint64  `json:"attacker"`
	Target   uint64  `json:"target"`
	Damage   float64 `json:"damage"`
	Nexus    bool    `json:"nexus,omitempty"`
}

type SpellStartedWire struct {
	Type          string  `json:"type"`
	Spell         uint64  `json:"spell"`
	Caster        uint64  `json:"caster"`
	Faction       int     `json:"faction"`
	TileX         int     `json:"tile_x"`
	TileY         int     `json:"tile_y"`
	CasterX       float64 `json:"caster_x"`
	CasterY       float64 `json:"caster_y"`
	CompletesAtMs int64   `json:"completes_at_ms"`
}

type SpellInterruptedWire struct {
	Type   string `json:"type"`
	Spell  uint64 `json:"spell"`
	Caster uint64 `json:"caster"`
	Reason string `json:"reason"`
}

type SpellCompletedWire struct {
	Type    string `json:"type"`
	Spell   uint64 `json:"spell"`
	Caster  uint64 `json:"caster"`
	Faction int    `json:"faction"`
	TileX   int    `json:"tile_x"`
	TileY   int    `json:"tile_y"`
}

type OrbSpawnedWire struct {
	Type    string  `json:"type"`
	ID      uint64  `json:"id"`
	Faction int     `json:"faction"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
}

type OrbCollectedWire struct {
	Type      string  `json:"type"`
	ID        uint64  `json:"id"`
	Collector uint64  `json:"collector"`
	Energy    float64 `json:"energy"`
}

type MatingStartedWire struct {
	Type    string `json:"type"`
	A       uint64 `json:"a"`
	B       uint64 `json:"b"`
	Faction int    `json:"faction"`
}

type MatingCompletedWire struct {
	Type    string  `json:"type"`
	A       uint64  `json:"a"`
	B       uint64  `json:"b"`
	Child   uint64  `json:"child,omitempty"`
	Faction int     `json:"faction"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
}

type TileUpdatedWire struct {
	Type  string `json:"type"`
	X     int    `json:"x"`
	Y     int    `json:"y"`
	Owner int    `json:"owner"`
}

type DisasterStartedWire struct {
	Type     string `json:"type"`
	ID       string `json:"id"`
	Name     string `json:"name"`
	EndsAtMs int64  `json:"ends_at_ms"`
}

type DisasterEndedWire struct {
	Type   string `json:"type"`
	ID     string `json:"id"`
	Deaths int    `json:"deaths"`
}

type NexusUpdatedWire struct {
	Type    string  `json:"type"`
	Faction int     `json:"faction"`
	Health  float64 `json:"health"`
	MaxHP   float64 `json:"max_hp"`
}

type NexusDestroyedWire struct {
	Type    string `json:"type"`
	Faction int    `json:"faction"`
}

type BuffAppliedWire struct {
	Type         string  `json:"type"`
	Source       string  `json:"source"`
	Faction      int     `json:"faction"`
	SpeedMult    float64 `json:"speed_mult"`
	CastTimeMult float64 `json:"cast_time_mult"`
	EnergyMult   float64 `json:"energy_mult"`
	ExpiresAtMs  int64   `json:"expires_at_ms,omitempty"`
}

type BuffRemovedWire struct {
	Type    string `json:"type"`
	Source  string `json:"source"`
	Faction int    `json:"faction"`
}

type MatchOverWire struct {
	Type   string `json:"type"`
	Winner int    `json:"winner"`
	Loser  int    `json:"loser"`
}
