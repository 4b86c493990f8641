package world

import "math"

// WaterLevel is the sea level.
const WaterLevel = 62

// Terrain produces the base height map and climate from a seed using Perlin
// noise. It never changes after construction and is safe for concurrent use.
type Terrain struct {
	Seed       int64
	height     *Perlin // broad height map noise
	tempNoise  *Perlin // biome temperature
	rainNoise  *Perlin // biome rainfall
	continent  *Perlin // land vs ocean
	riverNoise *Perlin
	caveNoise  *Perlin
}

// NewTerrain creates a terrain generator from a seed.
func NewTerrain(seed int64) *Terrain {
	return &Terrain{
		Seed:       seed,
		height:     NewPerlin(seed),
		tempNoise:  NewPerlin(seed + 1),
		rainNoise:  NewPerlin(seed + 2),
		continent:  NewPerlin(seed + 3),
		riverNoise: NewPerlin(seed + 400),
		caveNoise:  NewPerlin(seed + 700),
	}
}

// Biome returns the biome at world-space x, z.
func (t *Terrain) Biome(x, z int) *Biome {
	const scale = 0.003
	bx := float64(x) * scale
	bz := float64(z) * scale

	temp := unit(t.tempNoise.OctaveNoise2D(bx, bz, 2, 2.0, 0.3))
	rain := unit(t.rainNoise.OctaveNoise2D(bx+500, bz+500, 2, 2.0, 0.3))
	cont := unit(t.continent.OctaveNoise2D(bx*0.5, bz*0.5, 3, 2.0, 0.5) * 1.6)
	return classifyBiome(temp, rain, cont)
}

// SurfaceHeight returns the solid surface Y for the given world-space x, z.
func (t *Terrain) SurfaceHeight(x, z int) int {
	biome := t.Biome(x, z)

	const noiseScale = 0.015
	h := t.height.OctaveNoise2D(float64(x)*noiseScale, float64(z)*noiseScale, 3, 2.0, 0.5)
	height := float64(biome.BaseHeight) + h*biome.HeightVariation

	// Rivers: ridged low-frequency noise carves narrow valleys.
	const riverScale = 0.003
	rv := math.Abs(t.riverNoise.Noise2D(float64(x)*riverScale, float64(z)*riverScale))
	if rv < 0.04 {
		height -= (0.04 - rv) / 0.04 * 15.0
	}

	if height < 1 {
		return 1
	}
	if height > MaxY-5 {
		return MaxY - 5
	}
	return int(height)
}

// BlockAt returns the natural block state at (x, y, z).
func (t *Terrain) BlockAt(x, y, z int) uint16 {
	if y < MinY || y > MaxY {
		return Air
	}
	if y == 0 {
		return Bedrock
	}
	surfH := t.SurfaceHeight(x, z)
	if y > surfH {
		if y <= WaterLevel {
			return Water
		}
		return Air
	}
	if y > 4 && y < surfH-4 && t.cave(x, y, z) {
		return Air
	}
	biome := t.Biome(x, z)
	if y < surfH {
		return biome.FillerBlock
	}
	if y < WaterLevel {
		return Sand
	}
	return biome.SurfaceBlock
}

// FlatTerrain is a superflat height map: bedrock, dirt, then a surface layer
// at Height.
type FlatTerrain struct {
	Height int
}

// SurfaceHeight returns the constant surface height.
func (f FlatTerrain) SurfaceHeight(int, int) int {
	return f.Height
}

// BlockAt returns the flat-world block at (x, y, z).
func (f FlatTerrain) BlockAt(_, y, _ int) uint16 {
	switch {
	case y < MinY || y > MaxY:
		return Air
	case y == 0:
		return Bedrock
	case y < f.Height:
		return Dirt
	case y == f.Height:
		return Grass
	default:
		return Air
	}
}

// cave reports whether natural cave noise hollows out (x, y, z).
func (t *Terrain) cave(x, y, z int) bool {
	const scale, threshold = 0.06, 0.55
	return t.caveNoise.OctaveNoise3D(float64(x)*scale, float64(y)*scale*1.5, float64(z)*scale, 2, 2.0, 0.5) > threshold
}
