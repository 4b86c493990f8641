package world

import (
	"fmt"
	"math"
)

// ChunkSize is the horizontal width of a chunk in blocks.
const ChunkSize = 16

// Height limits of the world.
const (
	MinY = 0
	MaxY = 255
)

// BlockPos represents a block position in the world.
type BlockPos struct {
	X, Y, Z int32
}

// Add returns p offset by o.
func (p BlockPos) Add(o BlockPos) BlockPos {
	return BlockPos{p.X + o.X, p.Y + o.Y, p.Z + o.Z}
}

// Chunk returns the chunk containing p.
func (p BlockPos) Chunk() ChunkPos {
	return ChunkPos{X: floorDiv(p.X, ChunkSize), Z: floorDiv(p.Z, ChunkSize)}
}

func (p BlockPos) String() string {
	return fmt.Sprintf("(%d, %d, %d)", p.X, p.Y, p.Z)
}

// ChunkPos identifies a 16x16 column of the world. It is used as a map key for
// generation bookkeeping.
type ChunkPos struct {
	X, Z int32
}

// Origin returns the lowest-corner block of the chunk at y=0.
func (c ChunkPos) Origin() BlockPos {
	return BlockPos{X: c.X * ChunkSize, Z: c.Z * ChunkSize}
}

// Center returns the world-space x, z at the middle of the chunk.
func (c ChunkPos) Center() (int, int) {
	return int(c.X)*ChunkSize + ChunkSize/2, int(c.Z)*ChunkSize + ChunkSize/2
}

// Distance returns the Euclidean distance between two chunks, in chunks.
func (c ChunkPos) Distance(o ChunkPos) float64 {
	dx := float64(c.X - o.X)
	dz := float64(c.Z - o.Z)
	return math.Sqrt(dx*dx + dz*dz)
}

func (c ChunkPos) String() string {
	return fmt.Sprintf("[%d, %d]", c.X, c.Z)
}

// Box is an axis-aligned block volume with inclusive bounds.
type Box struct {
	Min, Max BlockPos
}

// BoxAt returns the box starting at origin spanning w x h x d blocks.
func BoxAt(origin BlockPos, w, h, d int32) Box {
	return Box{Min: origin, Max: BlockPos{origin.X + w - 1, origin.Y + h - 1, origin.Z + d - 1}}
}

// Size returns the extent of the box along each axis.
func (b Box) Size() BlockPos {
	return BlockPos{b.Max.X - b.Min.X + 1, b.Max.Y - b.Min.Y + 1, b.Max.Z - b.Min.Z + 1}
}

// Contains reports whether p lies inside the box.
func (b Box) Contains(p BlockPos) bool {
	return p.X >= b.Min.X && p.X <= b.Max.X &&
		p.Y >= b.Min.Y && p.Y <= b.Max.Y &&
		p.Z >= b.Min.Z && p.Z <= b.Max.Z
}

// Intersects reports whether the two boxes share at least one block.
func (b Box) Intersects(o Box) bool {
	return b.Min.X <= o.Max.X && b.Max.X >= o.Min.X &&
		b.Min.Y <= o.Max.Y && b.Max.Y >= o.Min.Y &&
		b.Min.Z <= o.Max.Z && b.Max.Z >= o.Min.Z
}

// Chunks returns every chunk the box overlaps horizontally.
func (b Box) Chunks() []ChunkPos {
	lo, hi := b.Min.Chunk(), b.Max.Chunk()
	out := make([]ChunkPos, 0, int(hi.X-lo.X+1)*int(hi.Z-lo.Z+1))
	for x := lo.X; x <= hi.X; x++ {
		for z := lo.Z; z <= hi.Z; z++ {
			out = append(out, ChunkPos{x, z})
		}
	}
	return out
}

// floorDiv returns a / b, rounding towards negative infinity.
func floorDiv(a, b int32) int32 {
	if a < 0 && a%b != 0 {
		return a/b - 1
	}
	return a / b
}
