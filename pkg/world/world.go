package world

import (
	"errors"
	"fmt"
	"sync"
)

var (
	// ErrOutOfBounds is returned for writes outside the vertical world limits.
	ErrOutOfBounds = errors.New("position outside world bounds")
	// ErrUnknownLootTable is returned when a chest is placed without a loot table.
	ErrUnknownLootTable = errors.New("unknown loot table")
	// ErrInvalidSpawner is returned for spawners without a mob type or caps.
	ErrInvalidSpawner = errors.New("invalid spawner")
)

// BlockSource provides the unmodified block state at a position.
type BlockSource interface {
	BlockAt(x, y, z int) uint16
}

// SetOptions controls how a block write is propagated.
type SetOptions struct {
	// DeferNeighborUpdate skips neighbour propagation so a caller writing many
	// blocks can run a single UpdateNeighborsInArea pass afterwards.
	DeferNeighborUpdate bool
}

// Spawner is a mob spawner placed in the world.
type Spawner struct {
	Pos         BlockPos
	MobType     string
	Delay       int // ticks between spawn attempts
	MaxNearby   int
	PlayerRange int
}

// LootChest is a chest whose contents are rolled from a loot table when opened.
type LootChest struct {
	Pos       BlockPos
	LootTable string
}

// World tracks the state of all blocks, including modifications, spawners and
// loot containers.
type World struct {
	mu       sync.RWMutex
	base     BlockSource
	blocks   map[BlockPos]uint16 // block state: blockID << 4 | metadata
	spawners map[BlockPos]Spawner
	chests   map[BlockPos]LootChest

	neighborUpdates int
	dirty           map[ChunkPos]struct{}
}

// NewWorld creates a new World over base terrain. A nil base yields a
// superflat world.
func NewWorld(base BlockSource) *World {
	if base == nil {
		base = FlatTerrain{Height: 4}
	}
	return &World{
		base:     base,
		blocks:   make(map[BlockPos]uint16),
		spawners: make(map[BlockPos]Spawner),
		chests:   make(map[BlockPos]LootChest),
		dirty:    make(map[ChunkPos]struct{}),
	}
}

// GetBlock returns the block state (blockID << 4 | metadata) at the given position.
func (w *World) GetBlock(x, y, z int32) uint16 {
	w.mu.RLock()
	if b, ok := w.blocks[BlockPos{x, y, z}]; ok {
		w.mu.RUnlock()
		return b
	}
	w.mu.RUnlock()
	return w.base.BlockAt(int(x), int(y), int(z))
}

// SetBlock writes a block immediately.
func (w *World) SetBlock(pos BlockPos, state uint16, opts SetOptions) error {
	if err := checkBounds(pos); err != nil {
		return err
	}
	w.mu.Lock()
	w.blocks[pos] = state
	if !opts.DeferNeighborUpdate {
		w.propagateLocked(pos)
	}
	w.mu.Unlock()
	return nil
}

// UpdateNeighborsInArea runs one neighbour-update pass over a volume starting at
// min and spanning size blocks.
func (w *World) UpdateNeighborsInArea(min BlockPos, size BlockPos) {
	box := BoxAt(min, size.X, size.Y, size.Z)
	w.mu.Lock()
	w.neighborUpdates++
	for _, c := range box.Chunks() {
		w.dirty[c] = struct{}{}
	}
	w.mu.Unlock()
}

// PlaceSpawner installs a mob spawner block and its settings.
func (w *World) PlaceSpawner(sp Spawner) error {
	if err := validateSpawner(sp); err != nil {
		return err
	}
	w.mu.Lock()
	w.blocks[sp.Pos] = MobSpawner
	w.spawners[sp.Pos] = sp
	w.propagateLocked(sp.Pos)
	w.mu.Unlock()
	return nil
}

// PlaceLootChest places a chest bound to a loot table.
func (w *World) PlaceLootChest(pos BlockPos, lootTable string) error {
	if err := validateChest(pos, lootTable); err != nil {
		return err
	}
	w.mu.Lock()
	w.blocks[pos] = Chest
	w.chests[pos] = LootChest{Pos: pos, LootTable: lootTable}
	w.propagateLocked(pos)
	w.mu.Unlock()
	return nil
}

// Spawner returns the spawner at pos, if any.
func (w *World) Spawner(pos BlockPos) (Spawner, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	sp, ok := w.spawners[pos]
	return sp, ok
}

// Chest returns the loot chest at pos, if any.
func (w *World) Chest(pos BlockPos) (LootChest, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	c, ok := w.chests[pos]
	return c, ok
}

// Modifications returns a copy of all modified blocks.
func (w *World) Modifications() map[BlockPos]uint16 {
	w.mu.RLock()
	defer w.mu.RUnlock()
	result := make(map[BlockPos]uint16, len(w.blocks))
	for k, v := range w.blocks {
		result[k] = v
	}
	return result
}

// Counts returns the number of spawners and loot chests in the world.
func (w *World) Counts() (spawners, chests int) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.spawners), len(w.chests)
}

// NeighborUpdates returns how many neighbour-update passes have run.
func (w *World) NeighborUpdates() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.neighborUpdates
}

// IsDirty reports whether a chunk has pending neighbour/light recomputation.
func (w *World) IsDirty(c ChunkPos) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	_, ok := w.dirty[c]
	return ok
}

func (w *World) propagateLocked(pos BlockPos) {
	w.neighborUpdates++
	w.dirty[pos.Chunk()] = struct{}{}
}

// Edit stages a set of writes and applies all of them, or none if fn returns an
// error. Reads made through the Tx observe the staged writes.
func (w *World) Edit(fn func(tx *Tx) error) error {
	tx := &Tx{
		w:      w,
		blocks: make(map[BlockPos]uint16),
	}
	if err := fn(tx); err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, pos := range tx.order {
		w.blocks[pos] = tx.blocks[pos]
	}
	for _, sp := range tx.spawners {
		w.blocks[sp.Pos] = MobSpawner
		w.spawners[sp.Pos] = sp
	}
	for _, c := range tx.chests {
		w.blocks[c.Pos] = Chest
		w.chests[c.Pos] = c
	}
	for _, pos := range tx.immediate {
		w.propagateLocked(pos)
	}
	return nil
}

// Tx is a staged world edit. It is only valid inside World.Edit.
type Tx struct {
	w         *World
	blocks    map[BlockPos]uint16
	order     []BlockPos
	spawners  []Spawner
	chests    []LootChest
	immediate []BlockPos
}

// GetBlock returns the staged state at a position, falling back to the world.
func (tx *Tx) GetBlock(x, y, z int32) uint16 {
	if b, ok := tx.blocks[BlockPos{x, y, z}]; ok {
		return b
	}
	return tx.w.GetBlock(x, y, z)
}

// SetBlock stages a block write.
func (tx *Tx) SetBlock(pos BlockPos, state uint16, opts SetOptions) error {
	if err := checkBounds(pos); err != nil {
		return err
	}
	if _, ok := tx.blocks[pos]; !ok {
		tx.order = append(tx.order, pos)
	}
	tx.blocks[pos] = state
	if !opts.DeferNeighborUpdate {
		tx.immediate = append(tx.immediate, pos)
	}
	return nil
}

// Clear stages air over every in-bounds block of box.
func (tx *Tx) Clear(box Box) {
	for x := box.Min.X; x <= box.Max.X; x++ {
		for y := max(box.Min.Y, MinY); y <= min(box.Max.Y, MaxY); y++ {
			for z := box.Min.Z; z <= box.Max.Z; z++ {
				tx.SetBlock(BlockPos{x, y, z}, Air, SetOptions{DeferNeighborUpdate: true})
			}
		}
	}
}

// PlaceSpawner stages a spawner.
func (tx *Tx) PlaceSpawner(sp Spawner) error {
	if err := validateSpawner(sp); err != nil {
		return err
	}
	tx.spawners = append(tx.spawners, sp)
	return nil
}

// PlaceLootChest stages a loot chest.
func (tx *Tx) PlaceLootChest(pos BlockPos, lootTable string) error {
	if err := validateChest(pos, lootTable); err != nil {
		return err
	}
	tx.chests = append(tx.chests, LootChest{Pos: pos, LootTable: lootTable})
	return nil
}

func checkBounds(pos BlockPos) error {
	if pos.Y < MinY || pos.Y > MaxY {
		return fmt.Errorf("block %v: %w", pos, ErrOutOfBounds)
	}
	return nil
}

func validateSpawner(sp Spawner) error {
	if err := checkBounds(sp.Pos); err != nil {
		return err
	}
	if sp.MobType == "" || sp.MaxNearby <= 0 || sp.PlayerRange <= 0 {
		return fmt.Errorf("spawner at %v: %w", sp.Pos, ErrInvalidSpawner)
	}
	return nil
}

func validateChest(pos BlockPos, lootTable string) error {
	if err := checkBounds(pos); err != nil {
		return err
	}
	if lootTable == "" {
		return fmt.Errorf("chest at %v: %w", pos, ErrUnknownLootTable)
	}
	return nil
}
