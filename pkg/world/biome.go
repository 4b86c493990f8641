package world

import "sync"

// Biome describes terrain generation parameters for a biome.
type Biome struct {
	ID              byte   // Minecraft biome ID
	Key             string // stable identifier used by the structure catalog
	Name            string
	SurfaceBlock    uint16  // block state (blockID << 4 | meta)
	FillerBlock     uint16  // block below surface
	BaseHeight      int     // base terrain height in blocks
	HeightVariation float64 // amplitude of height noise
	// Village styling
	VillageLog    uint16
	VillagePlanks uint16
	VillagePath   uint16
	VillageSlab   uint16
	VillageStairs uint16
	VillageFence  uint16
	VillageDeco1  uint16
	VillageDeco2  uint16
}

// Predefined biomes
var (
	BiomeOcean = &Biome{
		ID: 0, Key: "ocean", Name: "Ocean",
		SurfaceBlock: Sand,
		FillerBlock:  Sand,
		BaseHeight:   46, HeightVariation: 6,
	}
	BiomeDeepOcean = &Biome{
		ID: 24, Key: "deep_ocean", Name: "Deep Ocean",
		SurfaceBlock: Gravel,
		FillerBlock:  Sand,
		BaseHeight:   32, HeightVariation: 6,
	}
	BiomePlains = &Biome{
		ID: 1, Key: "plains", Name: "Plains",
		SurfaceBlock: Grass,
		FillerBlock:  Dirt,
		BaseHeight:   66, HeightVariation: 12,
		VillageLog:    Log,
		VillagePlanks: Planks,
		VillagePath:   Gravel,
		VillageSlab:   126 << 4, // oak slab
		VillageStairs: OakStairs,
		VillageFence:  Fence,
		VillageDeco1:  37 << 4, // dandelion
		VillageDeco2:  38 << 4, // poppy
	}
	BiomeDesert = &Biome{
		ID: 2, Key: "desert", Name: "Desert",
		SurfaceBlock: Sand,
		FillerBlock:  Sandstone,
		BaseHeight:   64, HeightVariation: 10,
		VillageLog:    SmoothSand,
		VillagePlanks: Sandstone,
		VillagePath:   ChiseledSand,
		VillageSlab:   44<<4 | 1, // sandstone slab
		VillageStairs: 128 << 4,  // sandstone stairs
		VillageFence:  CobbleWall,
		VillageDeco1:  31 << 4, // dead bush
		VillageDeco2:  31 << 4,
	}
	BiomeExtremeHills = &Biome{
		ID: 3, Key: "extreme_hills", Name: "Extreme Hills",
		SurfaceBlock: Grass,
		FillerBlock:  Stone,
		BaseHeight:   72, HeightVariation: 50,
	}
	BiomeForest = &Biome{
		ID: 4, Key: "forest", Name: "Forest",
		SurfaceBlock: Grass,
		FillerBlock:  Dirt,
		BaseHeight:   68, HeightVariation: 14,
	}
	BiomeTaiga = &Biome{
		ID: 5, Key: "taiga", Name: "Taiga",
		SurfaceBlock: Grass,
		FillerBlock:  Dirt,
		BaseHeight:   68, HeightVariation: 12,
		VillageLog:    Log | 1, // spruce log
		VillagePlanks: Planks | 1,
		VillagePath:   Gravel,
		VillageSlab:   126<<4 | 1,
		VillageStairs: 134 << 4, // spruce stairs
		VillageFence:  188 << 4, // spruce fence
		VillageDeco1:  37 << 4,
		VillageDeco2:  38 << 4,
	}
	BiomeJungle = &Biome{
		ID: 21, Key: "jungle", Name: "Jungle",
		SurfaceBlock: Grass,
		FillerBlock:  Dirt,
		BaseHeight:   70, HeightVariation: 20,
	}
	BiomeDarkForest = &Biome{
		ID: 29, Key: "dark_forest", Name: "Dark Forest",
		SurfaceBlock: Grass,
		FillerBlock:  Dirt,
		BaseHeight:   68, HeightVariation: 10,
	}
	BiomeSavanna = &Biome{
		ID: 35, Key: "savanna", Name: "Savanna",
		SurfaceBlock: Grass,
		FillerBlock:  Dirt,
		BaseHeight:   67, HeightVariation: 8,
		VillageLog:    162 << 4, // acacia log
		VillagePlanks: Planks | 4,
		VillagePath:   Gravel,
		VillageSlab:   126<<4 | 4,
		VillageStairs: 163 << 4, // acacia stairs
		VillageFence:  192 << 4, // acacia fence
		VillageDeco1:  37 << 4,
		VillageDeco2:  38 << 4,
	}
	BiomeSnowyTundra = &Biome{
		ID: 12, Key: "snowy_tundra", Name: "Snowy Tundra",
		SurfaceBlock: SnowBlock,
		FillerBlock:  Dirt,
		BaseHeight:   66, HeightVariation: 8,
		VillageLog:    Log | 1,
		VillagePlanks: Planks | 1,
		VillagePath:   Gravel,
		VillageSlab:   126<<4 | 1,
		VillageStairs: 134 << 4,
		VillageFence:  188 << 4,
		VillageDeco1:  SnowBlock,
		VillageDeco2:  SnowBlock,
	}
	// BiomeTheEnd is never produced by the overworld classifier.
	BiomeTheEnd = &Biome{
		ID: 9, Key: "the_end", Name: "The End",
		SurfaceBlock: EndStone,
		FillerBlock:  EndStone,
		BaseHeight:   56, HeightVariation: 6,
	}
)

// allBiomes is an ordered list used for selection lookups.
var allBiomes = []*Biome{
	BiomeOcean,
	BiomeDeepOcean,
	BiomePlains,
	BiomeDesert,
	BiomeExtremeHills,
	BiomeForest,
	BiomeTaiga,
	BiomeJungle,
	BiomeDarkForest,
	BiomeSavanna,
	BiomeSnowyTundra,
	BiomeTheEnd,
}

// BiomeByKey looks up a predefined biome by its key.
func BiomeByKey(key string) (*Biome, bool) {
	for _, b := range allBiomes {
		if b.Key == key {
			return b, true
		}
	}
	return nil, false
}

// HasVillageStyle reports whether villages have a palette for this biome.
func (b *Biome) HasVillageStyle() bool {
	return b.VillagePlanks != 0
}

// classifyBiome maps temperature, rainfall and continentalness (all in [0,1])
// to a biome. It uses a Whittaker-like classification to prevent drastic
// biome changes (e.g. Desert next to Tundra).
func classifyBiome(temp, rain, continent float64) *Biome {
	switch {
	case continent < 0.2:
		return BiomeDeepOcean
	case continent < 0.32:
		return BiomeOcean
	}

	switch {
	case temp < 0.3: // Cold Region
		return BiomeSnowyTundra

	case temp < 0.42:
		return BiomeTaiga

	case temp < 0.65: // Temperate Region
		if rain > 0.7 {
			return BiomeDarkForest
		}
		if rain > 0.4 {
			return BiomeForest
		}
		if rain > 0.25 {
			return BiomePlains
		}
		return BiomeExtremeHills

	default: // Warm/Hot Region
		if rain > 0.75 {
			return BiomeJungle
		}
		if rain > 0.5 {
			return BiomePlains
		}
		if rain > 0.35 {
			return BiomeSavanna
		}
		return BiomeDesert
	}
}

func unit(v float64) float64 {
	v = (v + 1) / 2
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// BiomeMap classifies chunks into biomes and caches the answer. It is safe for
// concurrent use.
type BiomeMap struct {
	terrain *Terrain

	mu    sync.RWMutex
	cache map[ChunkPos]*Biome
}

// NewBiomeMap creates a BiomeMap over a terrain's climate noise.
func NewBiomeMap(t *Terrain) *BiomeMap {
	return &BiomeMap{terrain: t, cache: make(map[ChunkPos]*Biome)}
}

// BiomeAt returns the biome at the centre of chunk c.
func (m *BiomeMap) BiomeAt(c ChunkPos) *Biome {
	m.mu.RLock()
	b, ok := m.cache[c]
	m.mu.RUnlock()
	if ok {
		return b
	}
	x, z := c.Center()
	b = m.terrain.Biome(x, z)
	m.mu.Lock()
	m.cache[c] = b
	m.mu.Unlock()
	return b
}

// FixedBiome reports the same biome for every chunk.
type FixedBiome struct {
	Biome *Biome
}

// BiomeAt returns the fixed biome.
func (f FixedBiome) BiomeAt(ChunkPos) *Biome {
	return f.Biome
}
