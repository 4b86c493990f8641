package world

import (
	"math"

	"github.com/StoreStation/worldcore/pkg/rng"
)

// Perlin is seeded gradient noise. Values are roughly in [-1, 1]; the
// permutation table is the only state, so a Perlin is safe for concurrent use.
type Perlin struct {
	perm [512]int
}

// NewPerlin shuffles the permutation table with a stream derived from seed.
func NewPerlin(seed int64) *Perlin {
	p := &Perlin{}
	s := rng.New(rng.Mix(uint64(seed)))
	for i := 0; i < 256; i++ {
		p.perm[i] = i
	}
	for i := 255; i > 0; i-- {
		j := s.Intn(i + 1)
		p.perm[i], p.perm[j] = p.perm[j], p.perm[i]
	}
	copy(p.perm[256:], p.perm[:256])
	return p
}

// fade is the quintic smoothstep 6t^5 - 15t^4 + 10t^3.
func fade(t float64) float64 {
	return t * t * t * (t*(t*6-15) + 10)
}

func lerp(t, a, b float64) float64 {
	return a + t*(b-a)
}

func grad2D(hash int, x, y float64) float64 {
	switch hash & 3 {
	case 0:
		return x + y
	case 1:
		return -x + y
	case 2:
		return x - y
	default:
		return -x - y
	}
}

// Noise2D samples the 2D field at (x, y).
func (p *Perlin) Noise2D(x, y float64) float64 {
	fx, fy := math.Floor(x), math.Floor(y)
	xi := int(fx) & 255
	yi := int(fy) & 255
	xf, yf := x-fx, y-fy
	u, v := fade(xf), fade(yf)

	aa := p.perm[p.perm[xi]+yi]
	ab := p.perm[p.perm[xi]+yi+1]
	ba := p.perm[p.perm[xi+1]+yi]
	bb := p.perm[p.perm[xi+1]+yi+1]

	x1 := lerp(u, grad2D(aa, xf, yf), grad2D(ba, xf-1, yf))
	x2 := lerp(u, grad2D(ab, xf, yf-1), grad2D(bb, xf-1, yf-1))
	return lerp(v, x1, x2)
}

// OctaveNoise2D sums octaves of Noise2D, normalised by the total amplitude.
func (p *Perlin) OctaveNoise2D(x, y float64, octaves int, lacunarity, persistence float64) float64 {
	return fbm(octaves, lacunarity, persistence, func(f float64) float64 {
		return p.Noise2D(x*f, y*f)
	})
}

// OctaveNoise3D is OctaveNoise2D over Noise3D.
func (p *Perlin) OctaveNoise3D(x, y, z float64, octaves int, lacunarity, persistence float64) float64 {
	return fbm(octaves, lacunarity, persistence, func(f float64) float64 {
		return p.Noise3D(x*f, y*f, z*f)
	})
}

func fbm(octaves int, lacunarity, persistence float64, sample func(freq float64) float64) float64 {
	octaves = max(octaves, 1)
	var total, norm float64
	freq, amp := 1.0, 1.0
	for range octaves {
		total += sample(freq) * amp
		norm += amp
		amp *= persistence
		freq *= lacunarity
	}
	return total / norm
}

func grad3D(hash int, x, y, z float64) float64 {
	h := hash & 15
	u := x
	if h >= 8 {
		u = y
	}
	v := y
	if h >= 4 {
		if h == 12 || h == 14 {
			v = x
		} else {
			v = z
		}
	}
	if h&1 != 0 {
		u = -u
	}
	if h&2 != 0 {
		v = -v
	}
	return u + v
}

// Noise3D samples the 3D field at (x, y, z).
func (p *Perlin) Noise3D(x, y, z float64) float64 {
	fx, fy, fz := math.Floor(x), math.Floor(y), math.Floor(z)
	xi, yi, zi := int(fx)&255, int(fy)&255, int(fz)&255
	xf, yf, zf := x-fx, y-fy, z-fz
	u, v, w := fade(xf), fade(yf), fade(zf)

	a := p.perm[xi] + yi
	b := p.perm[xi+1] + yi
	aa, ab := p.perm[a]+zi, p.perm[a+1]+zi
	ba, bb := p.perm[b]+zi, p.perm[b+1]+zi

	x1 := lerp(u, grad3D(p.perm[aa], xf, yf, zf), grad3D(p.perm[ba], xf-1, yf, zf))
	x2 := lerp(u, grad3D(p.perm[ab], xf, yf-1, zf), grad3D(p.perm[bb], xf-1, yf-1, zf))
	y1 := lerp(v, x1, x2)

	x1 = lerp(u, grad3D(p.perm[aa+1], xf, yf, zf-1), grad3D(p.perm[ba+1], xf-1, yf, zf-1))
	x2 = lerp(u, grad3D(p.perm[ab+1], xf, yf-1, zf-1), grad3D(p.perm[bb+1], xf-1, yf-1, zf-1))
	y2 := lerp(v, x1, x2)

	return lerp(w, y1, y2)
}

// NoiseField samples octave noise with fixed lacunarity and persistence. It is
// the density source for structure spawning.
type NoiseField struct {
	p *Perlin
}

// NewNoiseField creates a NoiseField from a seed.
func NewNoiseField(seed int64) *NoiseField {
	return &NoiseField{p: NewPerlin(seed)}
}

// OctaveNoise returns fBm noise at (x, z) in [-1, 1].
func (n *NoiseField) OctaveNoise(x, z float64, octaves int) float64 {
	return n.p.OctaveNoise2D(x, z, octaves, 2.0, 0.5)
}
