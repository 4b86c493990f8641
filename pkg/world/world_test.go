package world

import (
	"errors"
	"testing"
)

func TestFlatTerrainBlocks(t *testing.T) {
	tests := []struct {
		y    int32
		want uint16
	}{
		{-1, Air},
		{0, Bedrock},
		{1, Dirt},
		{3, Dirt},
		{4, Grass},
		{5, Air},
		{256, Air},
	}

	for _, tt := range tests {
		if got := (FlatTerrain{Height: 4}).BlockAt(0, int(tt.y), 0); got != tt.want {
			t.Errorf("FlatTerrain.BlockAt(y=%d) = %d, want %d", tt.y, got, tt.want)
		}
	}
}

func TestWorldGetSetBlock(t *testing.T) {
	w := NewWorld(NewTerrain(42))

	if got := w.GetBlock(0, 0, 0); got != Bedrock {
		t.Errorf("GetBlock(0,0,0) = %d, want %d (bedrock)", got, Bedrock)
	}

	if err := w.SetBlock(BlockPos{5, 50, 5}, Air, SetOptions{}); err != nil {
		t.Fatalf("SetBlock: %v", err)
	}
	if got := w.GetBlock(5, 50, 5); got != Air {
		t.Errorf("after SetBlock, GetBlock(5,50,5) = %d, want 0 (air)", got)
	}
	if got := w.NeighborUpdates(); got != 1 {
		t.Errorf("NeighborUpdates() = %d, want 1", got)
	}

	if err := w.SetBlock(BlockPos{6, 50, 5}, Stone, SetOptions{DeferNeighborUpdate: true}); err != nil {
		t.Fatalf("SetBlock deferred: %v", err)
	}
	if got := w.NeighborUpdates(); got != 1 {
		t.Errorf("deferred write propagated: NeighborUpdates() = %d, want 1", got)
	}
}

func TestSetBlockOutOfBounds(t *testing.T) {
	w := NewWorld(nil)
	for _, y := range []int32{-1, 256, 1000} {
		err := w.SetBlock(BlockPos{0, y, 0}, Stone, SetOptions{})
		if !errors.Is(err, ErrOutOfBounds) {
			t.Errorf("SetBlock(y=%d) error = %v, want ErrOutOfBounds", y, err)
		}
	}
	if len(w.Modifications()) != 0 {
		t.Error("rejected writes were recorded")
	}
}

func TestWorldModifications(t *testing.T) {
	w := NewWorld(nil)

	if mods := w.Modifications(); len(mods) != 0 {
		t.Errorf("expected 0 modifications, got %d", len(mods))
	}

	w.SetBlock(BlockPos{1, 2, 3}, Air, SetOptions{})
	w.SetBlock(BlockPos{4, 5, 6}, Dirt, SetOptions{})

	mods := w.Modifications()
	if len(mods) != 2 {
		t.Errorf("expected 2 modifications, got %d", len(mods))
	}
	if mods[BlockPos{4, 5, 6}] != Dirt {
		t.Errorf("modification at (4,5,6) = %d, want %d", mods[BlockPos{4, 5, 6}], Dirt)
	}
}

func TestPlaceSpawnerAndChest(t *testing.T) {
	w := NewWorld(nil)
	sp := Spawner{Pos: BlockPos{1, 10, 1}, MobType: "zombie", Delay: 200, MaxNearby: 6, PlayerRange: 16}
	if err := w.PlaceSpawner(sp); err != nil {
		t.Fatalf("PlaceSpawner: %v", err)
	}
	if got := w.GetBlock(1, 10, 1); got != MobSpawner {
		t.Errorf("block at spawner = %d, want MobSpawner", got)
	}
	if got, ok := w.Spawner(sp.Pos); !ok || got != sp {
		t.Errorf("Spawner() = %+v, %v", got, ok)
	}

	if err := w.PlaceSpawner(Spawner{Pos: BlockPos{2, 10, 2}, MaxNearby: 6, PlayerRange: 16}); !errors.Is(err, ErrInvalidSpawner) {
		t.Errorf("spawner without mob type: err = %v", err)
	}

	if err := w.PlaceLootChest(BlockPos{3, 10, 3}, "simple_dungeon"); err != nil {
		t.Fatalf("PlaceLootChest: %v", err)
	}
	if c, ok := w.Chest(BlockPos{3, 10, 3}); !ok || c.LootTable != "simple_dungeon" {
		t.Errorf("Chest() = %+v, %v", c, ok)
	}
	if err := w.PlaceLootChest(BlockPos{4, 10, 4}, ""); !errors.Is(err, ErrUnknownLootTable) {
		t.Errorf("chest without table: err = %v", err)
	}
	if s, c := w.Counts(); s != 1 || c != 1 {
		t.Errorf("Counts() = %d, %d; want 1, 1", s, c)
	}
}

func TestEditAllOrNothing(t *testing.T) {
	w := NewWorld(nil)

	err := w.Edit(func(tx *Tx) error {
		if err := tx.SetBlock(BlockPos{0, 10, 0}, Stone, SetOptions{DeferNeighborUpdate: true}); err != nil {
			return err
		}
		if got := tx.GetBlock(0, 10, 0); got != Stone {
			t.Errorf("staged read = %d, want Stone", got)
		}
		return tx.PlaceLootChest(BlockPos{0, 11, 0}, "")
	})
	if !errors.Is(err, ErrUnknownLootTable) {
		t.Fatalf("Edit error = %v, want ErrUnknownLootTable", err)
	}
	if got := w.GetBlock(0, 10, 0); got != Air {
		t.Errorf("failed edit leaked block: %d", got)
	}

	err = w.Edit(func(tx *Tx) error {
		tx.Clear(BoxAt(BlockPos{0, 3, 0}, 2, 2, 2))
		tx.SetBlock(BlockPos{0, 10, 0}, Stone, SetOptions{DeferNeighborUpdate: true})
		tx.PlaceSpawner(Spawner{Pos: BlockPos{1, 10, 1}, MobType: "skeleton", MaxNearby: 6, PlayerRange: 16})
		return tx.PlaceLootChest(BlockPos{0, 11, 0}, "ruins")
	})
	if err != nil {
		t.Fatalf("Edit: %v", err)
	}
	if got := w.GetBlock(0, 3, 0); got != Air {
		t.Errorf("cleared block = %d, want Air", got)
	}
	if got := w.GetBlock(0, 10, 0); got != Stone {
		t.Errorf("committed block = %d, want Stone", got)
	}
	if got := w.NeighborUpdates(); got != 0 {
		t.Errorf("deferred edit propagated %d updates", got)
	}
	w.UpdateNeighborsInArea(BlockPos{0, 3, 0}, BlockPos{2, 9, 2})
	if got := w.NeighborUpdates(); got != 1 {
		t.Errorf("NeighborUpdates() = %d, want 1", got)
	}
	if !w.IsDirty(ChunkPos{0, 0}) {
		t.Error("chunk not marked dirty after area update")
	}
}

func TestChunkCoordinates(t *testing.T) {
	tests := []struct {
		pos  BlockPos
		want ChunkPos
	}{
		{BlockPos{0, 0, 0}, ChunkPos{0, 0}},
		{BlockPos{15, 0, 15}, ChunkPos{0, 0}},
		{BlockPos{16, 0, -1}, ChunkPos{1, -1}},
		{BlockPos{-16, 0, -17}, ChunkPos{-1, -2}},
	}
	for _, tt := range tests {
		if got := tt.pos.Chunk(); got != tt.want {
			t.Errorf("%v.Chunk() = %v, want %v", tt.pos, got, tt.want)
		}
	}
	if d := (ChunkPos{0, 0}).Distance(ChunkPos{20, 0}); d != 20 {
		t.Errorf("Distance = %f, want 20", d)
	}
	if d := (ChunkPos{0, 0}).Distance(ChunkPos{3, 4}); d != 5 {
		t.Errorf("Distance = %f, want 5", d)
	}
}

func TestBoxIntersects(t *testing.T) {
	a := BoxAt(BlockPos{0, 0, 0}, 4, 4, 4)
	tests := []struct {
		b    Box
		want bool
	}{
		{BoxAt(BlockPos{3, 3, 3}, 2, 2, 2), true},
		{BoxAt(BlockPos{4, 0, 0}, 2, 2, 2), false},
		{BoxAt(BlockPos{-2, 0, -2}, 3, 1, 3), true},
		{BoxAt(BlockPos{0, 10, 0}, 4, 4, 4), false},
	}
	for _, tt := range tests {
		if got := a.Intersects(tt.b); got != tt.want {
			t.Errorf("Intersects(%v) = %v, want %v", tt.b, got, tt.want)
		}
	}
	if got := len(BoxAt(BlockPos{-1, 0, -1}, 2, 1, 2).Chunks()); got != 4 {
		t.Errorf("Chunks() spanning origin = %d, want 4", got)
	}
}

func TestTerrainSurfaceRange(t *testing.T) {
	terrain := NewTerrain(555)
	for x := -200; x < 200; x += 13 {
		for z := -200; z < 200; z += 13 {
			h := terrain.SurfaceHeight(x, z)
			if h < 1 || h > 250 {
				t.Errorf("SurfaceHeight(%d, %d) = %d, out of valid range [1, 250]", x, z, h)
			}
			if terrain.BlockAt(x, 0, z) != Bedrock {
				t.Errorf("BlockAt(%d, 0, %d) is not bedrock", x, z)
			}
			if terrain.BlockAt(x, h, z) == Air {
				t.Errorf("surface block at (%d, %d, %d) carved out", x, h, z)
			}
		}
	}
}
