package placement

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/StoreStation/worldcore/pkg/event"
	"github.com/StoreStation/worldcore/pkg/spatial"
	"github.com/StoreStation/worldcore/pkg/structure"
	"github.com/StoreStation/worldcore/pkg/world"
)

func testStructure(x, z int32) *structure.Structure {
	origin := world.BlockPos{X: x * 16, Y: 64, Z: z * 16}
	return &structure.Structure{
		ID:          uuid.NewSHA1(uuid.NameSpaceOID, []byte(origin.String())),
		Kind:        structure.Dungeon,
		Chunk:       world.ChunkPos{X: x, Z: z},
		Origin:      origin,
		Size:        structure.Size{W: 3, H: 3, D: 3},
		Integrity:   1,
		ClearVolume: true,
		Blocks: []structure.Block{
			{Pos: origin, State: world.Cobblestone},
			{Pos: origin.Add(world.BlockPos{X: 2}), State: world.MossyCobble},
		},
		Spawners: []world.Spawner{
			{Pos: origin.Add(world.BlockPos{X: 1, Y: 1, Z: 1}), MobType: "zombie", Delay: 200, MaxNearby: 6, PlayerRange: 16},
		},
		Loot: []world.LootChest{
			{Pos: origin.Add(world.BlockPos{X: 1, Y: 1}), LootTable: "simple_dungeon"},
		},
	}
}

func TestApplyWritesEverything(t *testing.T) {
	w := world.NewWorld(world.FlatTerrain{Height: 70})
	ix := spatial.New(0)
	var rec event.Recorder
	a := NewApplier(w, ix, Options{Events: &rec})

	s := testStructure(2, 3)
	before := w.NeighborUpdates()
	if err := a.Apply(s, 4); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	if got := w.GetBlock(s.Origin.X, s.Origin.Y, s.Origin.Z); got != world.Cobblestone {
		t.Errorf("origin block = %d, want cobblestone", got)
	}
	// Cleared volume: above the flat surface inside the box is air.
	if got := w.GetBlock(s.Origin.X+1, s.Origin.Y+2, s.Origin.Z+2); got != world.Air {
		t.Errorf("cleared block = %d, want air", got)
	}
	if _, ok := w.Spawner(s.Spawners[0].Pos); !ok {
		t.Error("spawner missing")
	}
	if c, ok := w.Chest(s.Loot[0].Pos); !ok || c.LootTable != "simple_dungeon" {
		t.Errorf("chest = %+v, %v", c, ok)
	}
	if got := w.NeighborUpdates() - before; got != 1 {
		t.Errorf("neighbour updates = %d, want a single area pass", got)
	}
	if ix.Len() != 1 {
		t.Errorf("index Len = %d, want 1", ix.Len())
	}
	if placed := rec.OfKind(event.StructurePlaced); len(placed) != 1 || placed[0].Structure != s.ID {
		t.Errorf("placed events = %+v", placed)
	}
}

func TestApplyFailureLeavesNoGhost(t *testing.T) {
	w := world.NewWorld(world.FlatTerrain{Height: 70})
	ix := spatial.New(0)
	var rec event.Recorder
	a := NewApplier(w, ix, Options{Events: &rec})

	s := testStructure(0, 0)
	s.Loot[0].LootTable = ""

	err := a.Apply(s, 4)
	var perr *Error
	if !errors.As(err, &perr) {
		t.Fatalf("err = %v, want *placement.Error", err)
	}
	if perr.Stage != StageLoot || perr.ID != s.ID {
		t.Errorf("Error = %+v, want loot stage for %s", perr, s.ID)
	}
	if !errors.Is(err, world.ErrUnknownLootTable) {
		t.Errorf("err does not wrap ErrUnknownLootTable: %v", err)
	}
	if ix.Len() != 0 || len(ix.Nearby(s.Chunk, 1)) != 0 {
		t.Error("failed structure left in the index")
	}
	if mods := w.Modifications(); len(mods) != 0 {
		t.Errorf("world modified by failed placement: %d blocks", len(mods))
	}
	if len(rec.OfKind(event.StructureRejected)) != 1 {
		t.Error("no rejection event")
	}

	// A later neighbour of the same kind is not blocked by the failure.
	if err := a.Apply(testStructure(1, 0), 4); err != nil {
		t.Errorf("Apply after failure: %v", err)
	}
}

func TestApplyOutOfBounds(t *testing.T) {
	w := world.NewWorld(nil)
	a := NewApplier(w, spatial.New(0), Options{})
	s := testStructure(0, 0)
	s.Blocks = append(s.Blocks, structure.Block{Pos: world.BlockPos{Y: 300}, State: world.Stone})
	s.ClearVolume = false

	err := a.Apply(s, 0)
	var perr *Error
	if !errors.As(err, &perr) || perr.Stage != StageBlocks || !errors.Is(err, world.ErrOutOfBounds) {
		t.Errorf("err = %v, want blocks-stage ErrOutOfBounds", err)
	}
}

func TestApplyDistanceRejection(t *testing.T) {
	w := world.NewWorld(nil)
	a := NewApplier(w, spatial.New(0), Options{})
	if err := a.Apply(testStructure(0, 0), 4); err != nil {
		t.Fatal(err)
	}
	err := a.Apply(testStructure(2, 0), 4)
	if !Rejected(err) || !errors.Is(err, spatial.ErrTooClose) {
		t.Errorf("err = %v, want ErrTooClose rejection", err)
	}
	var perr *Error
	if errors.As(err, &perr) && perr.Stage != StageReserve {
		t.Errorf("Stage = %s, want reserve", perr.Stage)
	}
}

func TestApplyAllIsolatesFailures(t *testing.T) {
	w := world.NewWorld(nil)
	ix := spatial.New(0)
	a := NewApplier(w, ix, Options{Catalog: structure.DefaultCatalog()})

	bad := testStructure(10, 0)
	bad.Spawners[0].MobType = ""
	structs := []*structure.Structure{testStructure(0, 0), bad, testStructure(20, 0)}

	err := a.ApplyAll(structs)
	if !errors.Is(err, world.ErrInvalidSpawner) {
		t.Errorf("ApplyAll err = %v, want ErrInvalidSpawner", err)
	}
	if ix.Len() != 2 {
		t.Errorf("index Len = %d, want the two good structures", ix.Len())
	}
}

func flatGenerator(t *testing.T, ix *spatial.Index, k structure.Kind) *structure.Generator {
	t.Helper()
	cat, err := structure.DefaultCatalog().WithOverride(k, func(e *structure.Entry) {
		e.Probability = 1
	})
	if err != nil {
		t.Fatal(err)
	}
	return structure.NewGenerator(structure.Deps{
		Seed:    8,
		Catalog: cat,
		Biomes:  world.FixedBiome{Biome: world.BiomePlains},
		Noise:   zeroNoise{},
		Terrain: world.FlatTerrain{Height: 64},
		Index:   ix,
	})
}

type zeroNoise struct{}

func (zeroNoise) OctaveNoise(float64, float64, int) float64 { return 0 }

func TestPipelinePopulate(t *testing.T) {
	ix := spatial.New(0)
	w := world.NewWorld(world.FlatTerrain{Height: 64})
	p := NewPipeline(flatGenerator(t, ix, structure.Village), NewApplier(w, ix, Options{}), 2)

	placed, err := p.Populate(world.ChunkPos{X: 0, Z: 0})
	if err != nil {
		t.Fatalf("Populate: %v", err)
	}
	found := false
	for _, s := range placed {
		if s.Kind == structure.Village {
			found = true
		}
	}
	if !found {
		t.Fatal("no village placed with probability 1")
	}

	// The neighbour is inside the village minimum distance.
	placed, err = p.Populate(world.ChunkPos{X: 3, Z: 0})
	if err != nil {
		t.Fatalf("Populate neighbour: %v", err)
	}
	for _, s := range placed {
		if s.Kind == structure.Village {
			t.Error("second village placed within minimum distance")
		}
	}
}

func TestPipelinePopulateRegionKeepsDistance(t *testing.T) {
	ix := spatial.New(0)
	w := world.NewWorld(world.FlatTerrain{Height: 64})
	p := NewPipeline(flatGenerator(t, ix, structure.Village), NewApplier(w, ix, Options{}), 4)

	var chunks []world.ChunkPos
	for x := int32(-2); x <= 2; x++ {
		for z := int32(-2); z <= 2; z++ {
			chunks = append(chunks, world.ChunkPos{X: x, Z: z})
		}
	}
	n, err := p.PopulateRegion(context.Background(), chunks)
	if err != nil {
		t.Fatalf("PopulateRegion: %v", err)
	}
	if n == 0 {
		t.Fatal("nothing placed")
	}
	villages := 0
	for _, s := range ix.All() {
		if s.Kind == structure.Village {
			villages++
		}
	}
	if villages != 1 {
		t.Errorf("%d villages in a 5x5 region, want 1", villages)
	}
	if villages > n {
		t.Errorf("placed count %d below village count %d", n, villages)
	}
}
