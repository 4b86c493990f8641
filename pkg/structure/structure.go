package structure

import (
	"github.com/google/uuid"

	"github.com/StoreStation/worldcore/pkg/world"
)

// MaxEyes is the number of end portal frames in a stronghold portal room.
const MaxEyes = 12

// Size is the unrotated extent of a structure.
type Size struct {
	W, H, D int
}

// Block is one block write of a structure layout, in world coordinates.
type Block struct {
	Pos   world.BlockPos
	State uint16
}

// Structure is a generated instance. The generator owns it only while
// building it; afterwards the world's structure index owns the record.
type Structure struct {
	ID       uuid.UUID
	Kind     Kind
	Chunk    world.ChunkPos
	Origin   world.BlockPos
	Size     Size
	Rotation int // degrees: 0, 90, 180 or 270
	// Integrity is the undamaged fraction in [0, 1]. The generator always
	// writes 1.0; decay and explosions are applied elsewhere.
	Integrity float64
	Seed      uint64
	Biome     string
	// EyeCount is the number of filled portal frames, in [0, MaxEyes].
	EyeCount int

	Blocks      []Block
	Spawners    []world.Spawner
	Loot        []world.LootChest
	ClearVolume bool
}

// Footprint returns the rotated horizontal extent (x, z).
func (s *Structure) Footprint() (int, int) {
	return footprint(s.Size, s.Rotation)
}

// Bounds returns the world-space volume occupied by the structure.
func (s *Structure) Bounds() world.Box {
	fw, fd := s.Footprint()
	return world.BoxAt(s.Origin, int32(fw), int32(s.Size.H), int32(fd))
}

// LootTables returns the loot table ids referenced by the structure.
func (s *Structure) LootTables() []string {
	out := make([]string, 0, len(s.Loot))
	for _, l := range s.Loot {
		out = append(out, l.LootTable)
	}
	return out
}

// Clone returns a deep copy of s.
func (s *Structure) Clone() *Structure {
	c := *s
	c.Blocks = append([]Block(nil), s.Blocks...)
	c.Spawners = append([]world.Spawner(nil), s.Spawners...)
	c.Loot = append([]world.LootChest(nil), s.Loot...)
	return &c
}

func footprint(sz Size, rotation int) (int, int) {
	if rotation == 90 || rotation == 270 {
		return sz.D, sz.W
	}
	return sz.W, sz.D
}

func clampUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
