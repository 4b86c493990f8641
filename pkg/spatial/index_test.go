package spatial

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/StoreStation/worldcore/pkg/structure"
	"github.com/StoreStation/worldcore/pkg/world"
)

func mk(k structure.Kind, x, z int32) *structure.Structure {
	id := uuid.NewSHA1(uuid.NameSpaceOID, []byte(fmt.Sprintf("%s:%d:%d", k, x, z)))
	return &structure.Structure{ID: id, Kind: k, Chunk: world.ChunkPos{X: x, Z: z}}
}

func TestRegisterMinDistance(t *testing.T) {
	ix := New(0)
	if err := ix.Register(mk(structure.Stronghold, 0, 0), 32); err != nil {
		t.Fatalf("first stronghold: %v", err)
	}
	err := ix.Register(mk(structure.Stronghold, 20, 0), 32)
	if !errors.Is(err, ErrTooClose) {
		t.Errorf("stronghold at distance 20: err = %v, want ErrTooClose", err)
	}
	if err := ix.Register(mk(structure.Stronghold, 32, 0), 32); err != nil {
		t.Errorf("stronghold at distance 32: %v", err)
	}
	// Other kinds are not constrained by the stronghold's distance.
	if err := ix.Register(mk(structure.Village, 1, 1), 32); err != nil {
		t.Errorf("village next to stronghold: %v", err)
	}
	if ix.Len() != 3 {
		t.Errorf("Len = %d, want 3", ix.Len())
	}
}

func TestRegisterDuplicate(t *testing.T) {
	ix := New(4)
	s := mk(structure.Ruins, 3, 3)
	if err := ix.Register(s, 0); err != nil {
		t.Fatal(err)
	}
	if err := ix.Register(s, 0); !errors.Is(err, ErrDuplicate) {
		t.Errorf("err = %v, want ErrDuplicate", err)
	}
}

func TestNearbyOrderAndRadius(t *testing.T) {
	ix := New(8)
	far := mk(structure.Dungeon, -20, 0)
	mid := mk(structure.Ruins, 0, -9)
	near := mk(structure.Dungeon, 2, 1)
	for _, s := range []*structure.Structure{far, mid, near} {
		if err := ix.Register(s, 0); err != nil {
			t.Fatal(err)
		}
	}

	got := ix.Nearby(world.ChunkPos{}, 10)
	if len(got) != 2 || got[0] != near || got[1] != mid {
		t.Errorf("Nearby(r=10) = %v, want [near mid]", got)
	}
	got = ix.NearbyKind(structure.Dungeon, world.ChunkPos{}, 25)
	if len(got) != 2 || got[0] != near || got[1] != far {
		t.Errorf("NearbyKind(dungeon, r=25) = %v, want [near far]", got)
	}
	if got := ix.Nearby(world.ChunkPos{}, -1); got != nil {
		t.Errorf("negative radius = %v, want nil", got)
	}
}

func TestNearbyTieBreakByID(t *testing.T) {
	ix := New(8)
	a := mk(structure.Ruins, 3, 0)
	b := mk(structure.Ruins, -3, 0)
	ix.Register(a, 0)
	ix.Register(b, 0)

	got := ix.Nearby(world.ChunkPos{}, 5)
	if len(got) != 2 {
		t.Fatalf("Nearby = %v", got)
	}
	first, second := a, b
	if string(b.ID[:]) < string(a.ID[:]) {
		first, second = b, a
	}
	if got[0] != first || got[1] != second {
		t.Error("equal-distance results not ordered by ID")
	}
}

func TestReservationLifecycle(t *testing.T) {
	ix := New(8)
	s := mk(structure.Village, 0, 0)
	res, err := ix.Reserve(s, 32)
	if err != nil {
		t.Fatal(err)
	}
	if ix.Len() != 0 {
		t.Errorf("Len with pending reservation = %d, want 0", ix.Len())
	}
	if got := ix.NearbyKind(structure.Village, world.ChunkPos{X: 1}, 2); len(got) != 0 {
		t.Errorf("pending reservation visible to queries: %v", got)
	}
	if _, err := ix.Reserve(mk(structure.Village, 5, 0), 32); !errors.Is(err, ErrTooClose) {
		t.Errorf("reserve next to pending: err = %v, want ErrTooClose", err)
	}

	res.Release()
	if got := ix.Nearby(world.ChunkPos{}, 4); len(got) != 0 {
		t.Errorf("released reservation still visible: %v", got)
	}
	res.Commit()
	if ix.Len() != 0 {
		t.Error("Commit after Release registered the structure")
	}

	res, err = ix.Reserve(s, 32)
	if err != nil {
		t.Fatalf("reserve after release: %v", err)
	}
	res.Commit()
	res.Release()
	if ix.Len() != 1 || len(ix.All()) != 1 {
		t.Errorf("Len = %d after commit, want 1", ix.Len())
	}
}

func TestRemove(t *testing.T) {
	ix := New(8)
	s := mk(structure.Temple, -9, -9)
	ix.Register(s, 24)
	if !ix.Remove(s.ID) {
		t.Fatal("Remove returned false")
	}
	if ix.Remove(s.ID) {
		t.Error("second Remove returned true")
	}
	if err := ix.Register(mk(structure.Temple, -8, -8), 24); err != nil {
		t.Errorf("register after remove: %v", err)
	}
}

func TestAllSorted(t *testing.T) {
	ix := New(8)
	for _, c := range [][2]int32{{5, 1}, {-3, 2}, {5, -7}, {0, 0}} {
		ix.Register(mk(structure.Dungeon, c[0], c[1]), 0)
	}
	all := ix.All()
	for i := 1; i < len(all); i++ {
		a, b := all[i-1].Chunk, all[i].Chunk
		if a.X > b.X || (a.X == b.X && a.Z > b.Z) {
			t.Errorf("All not sorted: %v before %v", a, b)
		}
	}
}

func TestConcurrentReserveKeepsDistance(t *testing.T) {
	ix := New(8)
	const n = 64
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s := mk(structure.Village, int32(i%8), int32(i/8))
			if res, err := ix.Reserve(s, 32); err == nil {
				res.Commit()
			}
		}(i)
	}
	wg.Wait()

	all := ix.All()
	if len(all) != 1 {
		t.Errorf("%d villages registered within 8 chunks, want 1", len(all))
	}
}

type flatNoise struct{}

func (flatNoise) OctaveNoise(float64, float64, int) float64 { return 0 }

func TestPendingReservationDoesNotGateNeighbour(t *testing.T) {
	ix := New(0)
	g := structure.NewGenerator(structure.Deps{
		Seed:    9,
		Biomes:  world.FixedBiome{Biome: world.BiomePlains},
		Noise:   flatNoise{},
		Terrain: world.FlatTerrain{Height: 64},
		Index:   ix,
	})

	res, err := ix.Reserve(mk(structure.Stronghold, 0, 0), 32)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := ix.Reserve(mk(structure.Stronghold, 20, 0), 32); !errors.Is(err, ErrTooClose) {
		t.Errorf("second reservation err = %v, want ErrTooClose", err)
	}
	d, err := g.Decide(world.ChunkPos{X: 20}, structure.Stronghold)
	if err != nil {
		t.Fatal(err)
	}
	if d.Gate == structure.RejectedDistance {
		t.Errorf("in-flight placement rejected neighbour (conflict %v)", d.Conflict.Chunk)
	}
	res.Release()
	if ix.Len() != 0 {
		t.Errorf("Len = %d after release", ix.Len())
	}

	if err := ix.Register(mk(structure.Stronghold, 0, 0), 32); err != nil {
		t.Fatal(err)
	}
	d, _ = g.Decide(world.ChunkPos{X: 20}, structure.Stronghold)
	if d.Gate != structure.RejectedDistance {
		t.Errorf("committed neighbour ignored: gate = %s", d.Gate)
	}
}
