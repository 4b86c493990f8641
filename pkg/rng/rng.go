package rng

import "hash/fnv"

// splitmix64 constants, shared with the mixing helpers below.
const (
	golden uint64 = 0x9E3779B97F4A7C15
	mix1   uint64 = 0xBF58476D1CE4E5B9
	mix2   uint64 = 0x94D049BB133111EB

	chunkK1 uint64 = 0x9E3779B185EBCA87
	chunkK2 uint64 = 0xC2B2AE3D27D4EB4F

	// decisionSalt separates the accept/reject stream from the layout stream of
	// the same chunk and tag.
	decisionSalt uint64 = 0xD1B54A32D192ED03
)

// Stream is a reproducible pseudo-random sequence backed by splitmix64.
// A Stream is not safe for concurrent use; every decision builds its own.
type Stream struct {
	state uint64
}

// New creates a Stream from a 64-bit seed.
func New(seed uint64) *Stream {
	return &Stream{state: seed}
}

// Mix runs the splitmix64 finalizer over x.
func Mix(x uint64) uint64 {
	x ^= x >> 30
	x *= mix1
	x ^= x >> 27
	x *= mix2
	x ^= x >> 31
	return x
}

// ChunkHash combines a world seed and chunk coordinates into a well-distributed
// 64-bit value.
func ChunkHash(seed int64, x, z int32) uint64 {
	h := uint64(seed) ^ (uint64(int64(x)) * chunkK1) ^ (uint64(int64(z)) * chunkK2)
	return Mix(h)
}

// TagHash hashes a decision tag (typically a structure kind name) with FNV-1a.
func TagHash(tag string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(tag))
	return h.Sum64()
}

// ForDecision returns the stream used for a per-chunk accept/reject decision.
func ForDecision(seed int64, x, z int32, tag string) *Stream {
	return New(Mix(ChunkHash(seed, x, z) ^ TagHash(tag) ^ decisionSalt))
}

// StructureSeed is the seed of the layout stream for a chunk and tag.
func StructureSeed(seed int64, x, z int32, tag string) uint64 {
	return ChunkHash(seed, x, z) ^ TagHash(tag)
}

// ForStructure returns the stream used to lay out a structure once accepted.
func ForStructure(seed int64, x, z int32, tag string) *Stream {
	return New(StructureSeed(seed, x, z, tag))
}

// Uint64 returns the next value of the sequence.
func (s *Stream) Uint64() uint64 {
	s.state += golden
	return Mix(s.state)
}

// Float64 returns a value in [0, 1) built from the top 53 bits.
func (s *Stream) Float64() float64 {
	return float64(s.Uint64()>>11) / (1 << 53)
}

// Intn returns a value in [0, n). It panics if n <= 0.
func (s *Stream) Intn(n int) int {
	if n <= 0 {
		panic("rng: Intn called with non-positive n")
	}
	return int(s.Uint64() % uint64(n))
}

// Range returns a value in [lo, hi]. If hi < lo, lo is returned.
func (s *Stream) Range(lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + s.Intn(hi-lo+1)
}

// Bool returns a fair coin flip.
func (s *Stream) Bool() bool {
	return s.Uint64()&1 == 1
}

// Chance reports whether a uniform draw falls below p.
func (s *Stream) Chance(p float64) bool {
	return s.Float64() < p
}
