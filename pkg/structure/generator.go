package structure

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/StoreStation/worldcore/pkg/rng"
	"github.com/StoreStation/worldcore/pkg/world"
)

// BiomeSource classifies chunks. Caching is the source's concern.
type BiomeSource interface {
	BiomeAt(c world.ChunkPos) *world.Biome
}

// NoiseSampler samples coherent noise in [-1, 1].
type NoiseSampler interface {
	OctaveNoise(x, z float64, octaves int) float64
}

// Terrain reports the solid surface height of a world column.
type Terrain interface {
	SurfaceHeight(x, z int) int
}

// Index is the read side of the structure spatial index.
type Index interface {
	Nearby(c world.ChunkPos, radius int) []*Structure
	NearbyKind(k Kind, c world.ChunkPos, radius int) []*Structure
}

// Density noise parameters. Chunk coordinates are scaled so neighbouring
// chunks see similar modifiers.
const (
	densityScale   = 0.05
	densityOctaves = 3
	minModifier    = 0.75
	maxModifier    = 1.25
)

// idNamespace scopes structure ids generated with uuid.NewSHA1.
var idNamespace = uuid.MustParse("3f0c5e52-6b1e-4d7a-9a57-2f4b8f1c9d20")

// Gate identifies the stage that settled a spawn decision.
type Gate uint8

const (
	Accepted Gate = iota
	RejectedBiome
	RejectedDistance
	RejectedProbability
)

func (g Gate) String() string {
	switch g {
	case Accepted:
		return "accepted"
	case RejectedBiome:
		return "biome"
	case RejectedDistance:
		return "distance"
	case RejectedProbability:
		return "probability"
	default:
		return fmt.Sprintf("gate(%d)", uint8(g))
	}
}

// Decision records how the spawn gates evaluated one kind for one chunk.
type Decision struct {
	Chunk       world.ChunkPos
	Kind        Kind
	Biome       string
	Gate        Gate
	Modifier    float64
	Probability float64 // effective probability after the noise modifier
	Draw        float64 // uniform draw from the decision stream
	Conflict    *Structure
}

// Accepted reports whether every gate passed.
func (d Decision) Accepted() bool {
	return d.Gate == Accepted
}

// Deps are the collaborators a Generator reads from.
type Deps struct {
	Seed    int64
	Catalog *Catalog
	Biomes  BiomeSource
	Noise   NoiseSampler
	Terrain Terrain
	Index   Index
	Logger  *zap.Logger
}

// Generator decides, per chunk, which structures spawn and builds their
// payloads. It never mutates the world.
type Generator struct {
	seed    int64
	catalog *Catalog
	biomes  BiomeSource
	noise   NoiseSampler
	terrain Terrain
	index   Index
	log     *zap.Logger

	// extent is how far, in blocks, any catalog structure can reach from the
	// origin of the chunk it was generated for.
	extent int
}

// NewGenerator creates a Generator. A nil Catalog uses DefaultCatalog and a
// nil Logger discards output.
func NewGenerator(d Deps) *Generator {
	if d.Catalog == nil {
		d.Catalog = DefaultCatalog()
	}
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	return &Generator{
		seed:    d.Seed,
		catalog: d.Catalog,
		biomes:  d.Biomes,
		noise:   d.Noise,
		terrain: d.Terrain,
		index:   d.Index,
		log:     d.Logger,
		extent:  maxExtent(d.Catalog),
	}
}

func maxExtent(c *Catalog) int {
	ext := 0
	for _, e := range c.entries {
		ext = max(ext, max(e.Size.MaxW, e.Size.MaxD)+e.SearchRadius+world.ChunkSize)
	}
	return ext
}

// Catalog returns the catalog the generator evaluates.
func (g *Generator) Catalog() *Catalog {
	return g.catalog
}

// Modifier returns the density modifier for a chunk, in [0.75, 1.25].
func (g *Generator) Modifier(c world.ChunkPos) float64 {
	n := g.noise.OctaveNoise(float64(c.X)*densityScale, float64(c.Z)*densityScale, densityOctaves)
	n = math.Max(-1, math.Min(1, n))
	m := minModifier + (n+1)/2*(maxModifier-minModifier)
	return math.Max(minModifier, math.Min(maxModifier, m))
}

// Decide runs the biome, distance and probability gates for one kind.
func (g *Generator) Decide(c world.ChunkPos, k Kind) (Decision, error) {
	if !g.catalog.Has(k) {
		return Decision{}, &KindError{Kind: k, Reason: "not in catalog"}
	}
	e := g.catalog.Lookup(k)
	biome := g.biomes.BiomeAt(c)

	d := Decision{Chunk: c, Kind: k, Biome: biome.Key}
	d.Modifier = g.Modifier(c)
	d.Probability = e.Probability * d.Modifier
	d.Draw = rng.ForDecision(g.seed, c.X, c.Z, k.String()).Float64()

	if !e.AllowsBiome(biome.Key) {
		d.Gate = RejectedBiome
		return d, nil
	}
	if conflict := g.tooClose(e, c); conflict != nil {
		d.Gate = RejectedDistance
		d.Conflict = conflict
		return d, nil
	}
	if d.Draw >= d.Probability {
		d.Gate = RejectedProbability
		return d, nil
	}
	d.Gate = Accepted
	return d, nil
}

func (g *Generator) tooClose(e Entry, c world.ChunkPos) *Structure {
	if e.MinDistance <= 0 || g.index == nil {
		return nil
	}
	limit := float64(e.MinDistance)
	for _, s := range g.index.NearbyKind(e.Kind, c, e.MinDistance) {
		if s.Chunk.Distance(c) < limit {
			return s
		}
	}
	return nil
}

// Evaluate decides one kind for a chunk and builds it when accepted. placed
// holds structures already accepted earlier in the same chunk pass; the
// placement search keeps clear of their footprints. A nil structure with a nil
// error means a gate rejected the kind.
func (g *Generator) Evaluate(c world.ChunkPos, k Kind, placed []*Structure) (*Structure, error) {
	d, err := g.Decide(c, k)
	if err != nil {
		return nil, err
	}
	if !d.Accepted() {
		return nil, nil
	}
	biome := g.biomes.BiomeAt(c)
	return g.build(c, g.catalog.Lookup(k), biome, placed)
}

// GenerateChunk evaluates every catalog kind for a chunk, in declaration
// order, and returns the structures that spawned. Failures omit only the
// failing kind.
func (g *Generator) GenerateChunk(c world.ChunkPos) []*Structure {
	var out []*Structure
	for _, e := range g.catalog.entries {
		s, err := g.Evaluate(c, e.Kind, out)
		if err != nil {
			g.logFailure(c, e.Kind, err)
			continue
		}
		if s != nil {
			out = append(out, s)
		}
	}
	return out
}

// GenerateRegion generates chunks concurrently, at most workers at a time,
// then hands every structure to commit in chunk order. commit is the single
// serialization point: it sees structures one at a time and may reject those
// that conflict with earlier commits. Commit failures are joined and returned;
// they never stop the remaining commits.
func (g *Generator) GenerateRegion(ctx context.Context, chunks []world.ChunkPos, workers int, commit func(*Structure) error) error {
	results := make([][]*Structure, len(chunks))

	eg, egCtx := errgroup.WithContext(ctx)
	if workers > 0 {
		eg.SetLimit(workers)
	}
	for i, c := range chunks {
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			results[i] = g.GenerateChunk(c)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return err
	}

	var errs []error
	for _, batch := range results {
		for _, s := range batch {
			if err := ctx.Err(); err != nil {
				return errors.Join(append(errs, err)...)
			}
			if err := commit(s); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

func (g *Generator) logFailure(c world.ChunkPos, k Kind, err error) {
	var kindErr *KindError
	if errors.As(err, &kindErr) {
		g.log.Warn("structure kind rejected", zap.Stringer("chunk", c), zap.Stringer("kind", k), zap.Error(err))
		return
	}
	g.log.Debug("structure omitted", zap.Stringer("chunk", c), zap.Stringer("kind", k), zap.Error(err))
}

// build lays out an accepted structure.
func (g *Generator) build(c world.ChunkPos, e Entry, biome *world.Biome, placed []*Structure) (*Structure, error) {
	b, err := builderFor(e.Kind)
	if err != nil {
		return nil, err
	}

	tag := e.Kind.String()
	s := rng.ForStructure(g.seed, c.X, c.Z, tag)

	size := Size{
		W: s.Range(e.Size.MinW, e.Size.MaxW),
		H: s.Range(e.Size.MinH, e.Size.MaxH),
		D: s.Range(e.Size.MinD, e.Size.MaxD),
	}
	rotation := s.Intn(4) * 90
	origin := c.Origin()
	baseX := int(origin.X) + s.Intn(world.ChunkSize)
	baseZ := int(origin.Z) + s.Intn(world.ChunkSize)

	pos, ok := g.findSite(c, e, size, rotation, baseX, baseZ, s, placed)
	if !ok {
		return nil, &GenerationError{Chunk: c, Kind: e.Kind, Reason: "no valid terrain within search radius"}
	}

	l := newLayout(pos, size, rotation)
	ctx := &buildContext{l: l, rng: s, biome: biome, size: size}
	if err := b(ctx); err != nil {
		return nil, &GenerationError{Chunk: c, Kind: e.Kind, Reason: "builder failed", Err: err}
	}

	key := fmt.Sprintf("%d:%d:%d:%s", g.seed, c.X, c.Z, tag)
	return &Structure{
		ID:          uuid.NewSHA1(idNamespace, []byte(key)),
		Kind:        e.Kind,
		Chunk:       c,
		Origin:      pos,
		Size:        size,
		Rotation:    rotation,
		Integrity:   clampUnit(1.0),
		Seed:        rng.StructureSeed(g.seed, c.X, c.Z, tag),
		Biome:       biome.Key,
		EyeCount:    clampInt(ctx.eyes, 0, MaxEyes),
		Blocks:      l.blocks,
		Spawners:    l.spawners,
		Loot:        l.loot,
		ClearVolume: e.ClearVolume,
	}, nil
}

// findSite searches a square spiral around (baseX, baseZ) for a footprint the
// terrain accepts and that does not overlap a known structure.
func (g *Generator) findSite(c world.ChunkPos, e Entry, size Size, rotation, baseX, baseZ int, s *rng.Stream, placed []*Structure) (world.BlockPos, bool) {
	fw, fd := footprint(size, rotation)
	// A neighbour overlaps only if the two reaches meet; the index measures
	// Euclidean chunk distance, hence the diagonal factor.
	blocks := max(fw, fd) + e.SearchRadius + g.extent
	reach := int(math.Ceil(math.Sqrt2*float64(blocks)/world.ChunkSize)) + 1

	var known []*Structure
	if g.index != nil {
		known = g.index.Nearby(c, reach)
	}
	known = append(known, placed...)

	// Underground structures pick their depth once so the search stays
	// deterministic per candidate.
	depth := s.Float64()

	const step = 2
	for r := 0; r <= e.SearchRadius; r += step {
		for _, off := range ring(r, step) {
			x, z := baseX+off[0], baseZ+off[1]
			y, ok := g.siteHeight(e, x, z, fw, fd, size.H, depth)
			if !ok {
				continue
			}
			pos := world.BlockPos{X: int32(x), Y: int32(y), Z: int32(z)}
			box := world.BoxAt(pos, int32(fw), int32(size.H), int32(fd))
			if overlapsAny(box, known) {
				continue
			}
			return pos, true
		}
	}
	return world.BlockPos{}, false
}

// siteHeight checks the terrain under a footprint and returns the origin Y.
func (g *Generator) siteHeight(e Entry, x, z, fw, fd, h int, depth float64) (int, bool) {
	samples := [...][2]int{{0, 0}, {fw - 1, 0}, {0, fd - 1}, {fw - 1, fd - 1}, {fw / 2, fd / 2}}
	lo, hi := math.MaxInt, math.MinInt
	for _, p := range samples {
		sh := g.terrain.SurfaceHeight(x+p[0], z+p[1])
		lo = min(lo, sh)
		hi = max(hi, sh)
	}

	switch e.Placement {
	case OnSurface:
		if hi-lo > e.MaxSlope || hi < world.WaterLevel-1 {
			return 0, false
		}
		if hi+h > world.MaxY {
			return 0, false
		}
		return hi, true
	case Underground:
		const floor, cover = 8, 6
		top := lo - cover - h
		if top < floor {
			return 0, false
		}
		return floor + int(depth*float64(top-floor)), true
	case Underwater:
		if hi >= world.WaterLevel-4 {
			return 0, false
		}
		return lo, true
	default:
		return 0, false
	}
}

// ring returns the offsets on the square of Chebyshev radius r, in a fixed
// order, sampled every step blocks.
func ring(r, step int) [][2]int {
	if r == 0 {
		return [][2]int{{0, 0}}
	}
	var out [][2]int
	for d := -r; d < r; d += step {
		out = append(out, [2]int{d, -r})
	}
	for d := -r; d < r; d += step {
		out = append(out, [2]int{r, d})
	}
	for d := r; d > -r; d -= step {
		out = append(out, [2]int{d, r})
	}
	for d := r; d > -r; d -= step {
		out = append(out, [2]int{-r, d})
	}
	return out
}

func overlapsAny(box world.Box, known []*Structure) bool {
	for _, s := range known {
		if s.Bounds().Intersects(box) {
			return true
		}
	}
	return false
}
