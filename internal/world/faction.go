package world

// Faction is one of exactly two opposing sides. FactionNone is a
// sentinel for "no faction" in API returns; tiles and souls always
// carry Lumen or Umbra.
type Faction int

const (
	FactionNone  Faction = -1
	FactionLumen Faction = 0
	FactionUmbra Faction = 1
)

// NumFactions is the fixed faction count; arrays indexed by Faction use it.
const NumFactions = 2

func (f Faction) String() string {
	switch f {
	case FactionLumen:
		return "lumen"
	case FactionUmbra:
		return "umbra"
	default:
		return "none"
	}
}

// Opponent returns the opposing faction.
func (f Faction) Opponent() Faction {
	if f == FactionLumen {
		return FactionUmbra
	}
	return FactionLumen
}

// Valid reports whether f is a playable faction.
func (f Faction) Valid() bool {
	return f == FactionLumen || f == FactionUmbra
}
