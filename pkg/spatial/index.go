// Package spatial indexes placed structures by chunk for distance queries.
package spatial

import (
	"bytes"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/StoreStation/worldcore/pkg/structure"
	"github.com/StoreStation/worldcore/pkg/world"
)

// DefaultCellSize is the edge length of a grid cell, in chunks.
const DefaultCellSize = 8

var (
	// ErrTooClose is returned when a structure would sit closer than the
	// minimum distance to another of its kind.
	ErrTooClose = errors.New("too close to a structure of the same kind")
	// ErrDuplicate is returned when a structure ID is already indexed.
	ErrDuplicate = errors.New("structure already indexed")
)

type cellKey struct {
	x, z int32
}

type entry struct {
	s       *structure.Structure
	cell    cellKey
	pending bool
}

// Index is a uniform grid of chunk cells. Reads take the read lock; Reserve,
// Commit, Release and Remove take the write lock, which makes reservation the
// serialization point for concurrent placements.
type Index struct {
	cellSize int32

	mu    sync.RWMutex
	cells map[cellKey][]*entry
	byID  map[uuid.UUID]*entry
}

// New creates an empty index. cellSize <= 0 uses DefaultCellSize.
func New(cellSize int) *Index {
	if cellSize <= 0 {
		cellSize = DefaultCellSize
	}
	return &Index{
		cellSize: int32(cellSize),
		cells:    make(map[cellKey][]*entry),
		byID:     make(map[uuid.UUID]*entry),
	}
}

func (ix *Index) cellOf(c world.ChunkPos) cellKey {
	return cellKey{floorDiv(c.X, ix.cellSize), floorDiv(c.Z, ix.cellSize)}
}

// Nearby returns every committed structure whose chunk lies within radius
// chunks of c, ordered by distance then ID. Pending reservations are not
// visible until committed.
func (ix *Index) Nearby(c world.ChunkPos, radius int) []*structure.Structure {
	return ix.query(c, radius, func(*structure.Structure) bool { return true })
}

// NearbyKind is Nearby restricted to one kind.
func (ix *Index) NearbyKind(k structure.Kind, c world.ChunkPos, radius int) []*structure.Structure {
	return ix.query(c, radius, func(s *structure.Structure) bool { return s.Kind == k })
}

func (ix *Index) query(c world.ChunkPos, radius int, keep func(*structure.Structure) bool) []*structure.Structure {
	if radius < 0 {
		return nil
	}
	ix.mu.RLock()
	var out []*structure.Structure
	ix.visit(c, radius, func(e *entry) {
		if !e.pending && keep(e.s) {
			out = append(out, e.s)
		}
	})
	ix.mu.RUnlock()

	slices.SortFunc(out, func(a, b *structure.Structure) int {
		da, db := a.Chunk.Distance(c), b.Chunk.Distance(c)
		switch {
		case da < db:
			return -1
		case da > db:
			return 1
		}
		return bytes.Compare(a.ID[:], b.ID[:])
	})
	return out
}

// visit calls fn for each entry within radius of c. The caller holds mu.
func (ix *Index) visit(c world.ChunkPos, radius int, fn func(*entry)) {
	r := int32(radius)
	lo := ix.cellOf(world.ChunkPos{X: c.X - r, Z: c.Z - r})
	hi := ix.cellOf(world.ChunkPos{X: c.X + r, Z: c.Z + r})
	limit := float64(radius)
	for x := lo.x; x <= hi.x; x++ {
		for z := lo.z; z <= hi.z; z++ {
			for _, e := range ix.cells[cellKey{x, z}] {
				if e.s.Chunk.Distance(c) <= limit {
					fn(e)
				}
			}
		}
	}
}

// Reservation holds a pending index entry for a structure being placed.
type Reservation struct {
	ix   *Index
	e    *entry
	done bool
}

// Reserve claims a slot for s. It fails with ErrTooClose when another
// structure of the same kind, committed or pending, lies closer than
// minDistance chunks, and with ErrDuplicate when s.ID is already present.
// Pending entries count against later reservations but not against queries.
func (ix *Index) Reserve(s *structure.Structure, minDistance int) (*Reservation, error) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	if _, ok := ix.byID[s.ID]; ok {
		return nil, fmt.Errorf("%s %s: %w", s.Kind, s.ID, ErrDuplicate)
	}
	if minDistance > 0 {
		var conflict *structure.Structure
		limit := float64(minDistance)
		ix.visit(s.Chunk, minDistance, func(e *entry) {
			if conflict == nil && e.s.Kind == s.Kind && e.s.Chunk.Distance(s.Chunk) < limit {
				conflict = e.s
			}
		})
		if conflict != nil {
			return nil, fmt.Errorf("%s at %v, existing at %v: %w", s.Kind, s.Chunk, conflict.Chunk, ErrTooClose)
		}
	}

	e := &entry{s: s, cell: ix.cellOf(s.Chunk), pending: true}
	ix.cells[e.cell] = append(ix.cells[e.cell], e)
	ix.byID[s.ID] = e
	return &Reservation{ix: ix, e: e}, nil
}

// Commit turns the reservation into a registered structure. Calling Commit
// after Release, or twice, does nothing.
func (r *Reservation) Commit() {
	r.ix.mu.Lock()
	defer r.ix.mu.Unlock()
	if r.done {
		return
	}
	r.done = true
	r.e.pending = false
}

// Release drops an uncommitted reservation.
func (r *Reservation) Release() {
	r.ix.mu.Lock()
	defer r.ix.mu.Unlock()
	if r.done {
		return
	}
	r.done = true
	r.ix.removeLocked(r.e)
}

// Register reserves and immediately commits s.
func (ix *Index) Register(s *structure.Structure, minDistance int) error {
	res, err := ix.Reserve(s, minDistance)
	if err != nil {
		return err
	}
	res.Commit()
	return nil
}

// Remove deletes a structure by ID and reports whether it was present.
func (ix *Index) Remove(id uuid.UUID) bool {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	e, ok := ix.byID[id]
	if !ok {
		return false
	}
	ix.removeLocked(e)
	return true
}

func (ix *Index) removeLocked(e *entry) {
	cell := ix.cells[e.cell]
	for i, other := range cell {
		if other == e {
			cell = append(cell[:i], cell[i+1:]...)
			break
		}
	}
	if len(cell) == 0 {
		delete(ix.cells, e.cell)
	} else {
		ix.cells[e.cell] = cell
	}
	delete(ix.byID, e.s.ID)
}

// Len returns the number of committed structures.
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	n := 0
	for _, e := range ix.byID {
		if !e.pending {
			n++
		}
	}
	return n
}

// All returns the committed structures ordered by chunk then ID.
func (ix *Index) All() []*structure.Structure {
	ix.mu.RLock()
	entries := maps.Values(ix.byID)
	out := make([]*structure.Structure, 0, len(entries))
	for _, e := range entries {
		if !e.pending {
			out = append(out, e.s)
		}
	}
	ix.mu.RUnlock()

	slices.SortFunc(out, func(a, b *structure.Structure) int {
		switch {
		case a.Chunk.X != b.Chunk.X:
			return int(a.Chunk.X) - int(b.Chunk.X)
		case a.Chunk.Z != b.Chunk.Z:
			return int(a.Chunk.Z) - int(b.Chunk.Z)
		}
		return bytes.Compare(a.ID[:], b.ID[:])
	})
	return out
}

func floorDiv(a, b int32) int32 {
	if a < 0 && a%b != 0 {
		return a/b - 1
	}
	return a / b
}
