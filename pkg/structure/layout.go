package structure

import (
	"github.com/StoreStation/worldcore/pkg/rng"
	"github.com/StoreStation/worldcore/pkg/world"
)

// layout collects the blocks, spawners and chests of a structure in local
// coordinates (dx across the width, dy up, dz across the depth) and converts
// them to world positions using the structure's origin and rotation.
type layout struct {
	origin   world.BlockPos
	size     Size
	rotation int

	index    map[world.BlockPos]int
	blocks   []Block
	spawners []world.Spawner
	loot     []world.LootChest
}

func newLayout(origin world.BlockPos, size Size, rotation int) *layout {
	return &layout{
		origin:   origin,
		size:     size,
		rotation: rotation,
		index:    make(map[world.BlockPos]int),
	}
}

// toWorld converts local coordinates to a world position. Positions outside
// the footprint or the world's height are rejected so builders never write
// past their bounding box.
func (l *layout) toWorld(dx, dy, dz int) (world.BlockPos, bool) {
	if dx < 0 || dx >= l.size.W || dz < 0 || dz >= l.size.D || dy < 0 || dy >= l.size.H {
		return world.BlockPos{}, false
	}
	y := int(l.origin.Y) + dy
	if y < world.MinY || y > world.MaxY {
		return world.BlockPos{}, false
	}
	rx, rz := dx, dz
	switch l.rotation {
	case 90:
		rx, rz = l.size.D-1-dz, dx
	case 180:
		rx, rz = l.size.W-1-dx, l.size.D-1-dz
	case 270:
		rx, rz = dz, l.size.W-1-dx
	}
	return world.BlockPos{X: l.origin.X + int32(rx), Y: int32(y), Z: l.origin.Z + int32(rz)}, true
}

func (l *layout) set(dx, dy, dz int, state uint16) {
	pos, ok := l.toWorld(dx, dy, dz)
	if !ok {
		return
	}
	if i, seen := l.index[pos]; seen {
		l.blocks[i].State = state
		return
	}
	l.index[pos] = len(l.blocks)
	l.blocks = append(l.blocks, Block{Pos: pos, State: state})
}

// get returns the staged state at local coordinates, or air.
func (l *layout) get(dx, dy, dz int) uint16 {
	pos, ok := l.toWorld(dx, dy, dz)
	if !ok {
		return world.Air
	}
	if i, seen := l.index[pos]; seen {
		return l.blocks[i].State
	}
	return world.Air
}

// fill sets every block of an inclusive local cuboid.
func (l *layout) fill(x0, y0, z0, x1, y1, z1 int, state uint16) {
	for x := x0; x <= x1; x++ {
		for y := y0; y <= y1; y++ {
			for z := z0; z <= z1; z++ {
				l.set(x, y, z, state)
			}
		}
	}
}

// room builds a floor, four walls and a ceiling with an air interior.
func (l *layout) room(x0, y0, z0, x1, y1, z1 int, wall uint16) {
	for x := x0; x <= x1; x++ {
		for y := y0; y <= y1; y++ {
			for z := z0; z <= z1; z++ {
				shell := x == x0 || x == x1 || y == y0 || y == y1 || z == z0 || z == z1
				if shell {
					l.set(x, y, z, wall)
				} else {
					l.set(x, y, z, world.Air)
				}
			}
		}
	}
}

// roomRandom is room with walls picked per block from a palette.
func (l *layout) roomRandom(x0, y0, z0, x1, y1, z1 int, s *rng.Stream, palette ...uint16) {
	for x := x0; x <= x1; x++ {
		for y := y0; y <= y1; y++ {
			for z := z0; z <= z1; z++ {
				shell := x == x0 || x == x1 || y == y0 || y == y1 || z == z0 || z == z1
				if shell {
					l.set(x, y, z, palette[s.Intn(len(palette))])
				} else {
					l.set(x, y, z, world.Air)
				}
			}
		}
	}
}

func (l *layout) spawner(dx, dy, dz int, mob string, delay int) {
	pos, ok := l.toWorld(dx, dy, dz)
	if !ok {
		return
	}
	l.spawners = append(l.spawners, world.Spawner{
		Pos:         pos,
		MobType:     mob,
		Delay:       delay,
		MaxNearby:   6,
		PlayerRange: 16,
	})
}

func (l *layout) chest(dx, dy, dz int, table string) {
	pos, ok := l.toWorld(dx, dy, dz)
	if !ok {
		return
	}
	l.loot = append(l.loot, world.LootChest{Pos: pos, LootTable: table})
}
