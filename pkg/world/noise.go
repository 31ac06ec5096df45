package world

import "math"

// Layer identifies one of the five deterministic noise fields used by
// terrain generation. Each layer derives its own permutation table from
// the world seed XORed with a fixed per-layer salt, so sampling one layer
// never perturbs another.
type Layer int

const (
	LayerContinental Layer = iota
	LayerErosion
	LayerPeaksValleys
	LayerTemperature
	LayerHumidity
)

// layerSalt is the fixed per-layer offset XORed into the world seed.
func layerSalt(l Layer) uint64 {
	switch l {
	case LayerContinental:
		return 0
	case LayerErosion:
		return 1000
	case LayerPeaksValleys:
		return 2000
	case LayerTemperature:
		return 3000
	case LayerHumidity:
		return 4000
	default:
		return 0
	}
}

// layerParams bundles the base frequency, octave count, lacunarity, and
// persistence for a layer's fractal sum.
type layerParams struct {
	frequency   float64
	octaves     int
	lacunarity  float64
	persistence float64
}

func paramsFor(l Layer) layerParams {
	switch l {
	case LayerContinental:
		return layerParams{frequency: 0.005, octaves: 4, lacunarity: 2.0, persistence: 0.5}
	case LayerErosion:
		return layerParams{frequency: 0.01, octaves: 4, lacunarity: 2.0, persistence: 0.5}
	case LayerPeaksValleys:
		return layerParams{frequency: 0.02, octaves: 3, lacunarity: 2.0, persistence: 0.5}
	case LayerTemperature:
		return layerParams{frequency: 0.008, octaves: 2, lacunarity: 2.0, persistence: 0.5}
	case LayerHumidity:
		return layerParams{frequency: 0.008, octaves: 2, lacunarity: 2.0, persistence: 0.5}
	default:
		return layerParams{frequency: 0.01, octaves: 3, lacunarity: 2.0, persistence: 0.5}
	}
}

// Perlin implements 2D/3D Perlin noise with a seeded permutation table.
type Perlin struct {
	perm [512]int
}

// NewPerlin creates a Perlin noise generator from a seed.
func NewPerlin(seed uint64) *Perlin {
	p := &Perlin{}

	var base [256]int
	for i := range base {
		base[i] = i
	}

	// Fisher-Yates shuffle driven by a 64-bit LCG seeded from the input.
	s := seed
	for i := 255; i > 0; i-- {
		s = s*6364136223846793005 + 1442695040888963407
		j := int((s >> 16) % uint64(i+1))
		base[i], base[j] = base[j], base[i]
	}

	for i := 0; i < 256; i++ {
		p.perm[i] = base[i]
		p.perm[i+256] = base[i]
	}
	return p
}

// fade applies the smoothstep 6t^5 - 15t^4 + 10t^3.
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

// Noise2D computes 2D Perlin noise at (x, y). Returns a value roughly in [-1, 1].
func (p *Perlin) Noise2D(x, y float64) float64 {
	xi := int(math.Floor(x)) & 255
	yi := int(math.Floor(y)) & 255

	xf := x - math.Floor(x)
	yf := y - math.Floor(y)

	u := fade(xf)
	v := fade(yf)

	aa := p.perm[p.perm[xi]+yi]
	ab := p.perm[p.perm[xi]+yi+1]
	ba := p.perm[p.perm[xi+1]+yi]
	bb := p.perm[p.perm[xi+1]+yi+1]

	x1 := lerp(u, grad2D(aa, xf, yf), grad2D(ba, xf-1, yf))
	x2 := lerp(u, grad2D(ab, xf, yf-1), grad2D(bb, xf-1, yf-1))
	return lerp(v, x1, x2)
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
	if (h & 1) != 0 {
		u = -u
	}
	if (h & 2) != 0 {
		v = -v
	}
	return u + v
}

// Noise3D computes 3D Perlin noise at (x, y, z). Returns a value roughly in [-1, 1].
func (p *Perlin) Noise3D(x, y, z float64) float64 {
	xi := int(math.Floor(x)) & 255
	yi := int(math.Floor(y)) & 255
	zi := int(math.Floor(z)) & 255

	xf := x - math.Floor(x)
	yf := y - math.Floor(y)
	zf := z - math.Floor(z)

	u := fade(xf)
	v := fade(yf)
	w := fade(zf)

	aaa := p.perm[p.perm[p.perm[xi]+yi]+zi]
	aba := p.perm[p.perm[p.perm[xi]+yi+1]+zi]
	aab := p.perm[p.perm[p.perm[xi]+yi]+zi+1]
	abb := p.perm[p.perm[p.perm[xi]+yi+1]+zi+1]
	baa := p.perm[p.perm[p.perm[xi+1]+yi]+zi]
	bba := p.perm[p.perm[p.perm[xi+1]+yi+1]+zi]
	bab := p.perm[p.perm[p.perm[xi+1]+yi]+zi+1]
	bbb := p.perm[p.perm[p.perm[xi+1]+yi+1]+zi+1]

	x1 := lerp(u, grad3D(aaa, xf, yf, zf), grad3D(baa, xf-1, yf, zf))
	x2 := lerp(u, grad3D(aba, xf, yf-1, zf), grad3D(bba, xf-1, yf-1, zf))
	y1 := lerp(v, x1, x2)

	x1 = lerp(u, grad3D(aab, xf, yf, zf-1), grad3D(bab, xf-1, yf, zf-1))
	x2 = lerp(u, grad3D(abb, xf, yf-1, zf-1), grad3D(bbb, xf-1, yf-1, zf-1))
	y2 := lerp(v, x1, x2)

	return lerp(w, y1, y2)
}

// OctaveNoise2D computes fractal Brownian motion by summing multiple octaves.
func (p *Perlin) OctaveNoise2D(x, y float64, octaves int, lacunarity, persistence float64) float64 {
	var total float64
	frequency := 1.0
	amplitude := 1.0
	maxAmplitude := 0.0

	for i := 0; i < octaves; i++ {
		total += p.Noise2D(x*frequency, y*frequency) * amplitude
		maxAmplitude += amplitude
		amplitude *= persistence
		frequency *= lacunarity
	}

	return total / maxAmplitude
}

// OctaveNoise3D computes fractal Brownian motion in 3D by summing multiple octaves.
func (p *Perlin) OctaveNoise3D(x, y, z float64, octaves int, lacunarity, persistence float64) float64 {
	var total float64
	frequency := 1.0
	amplitude := 1.0
	maxAmplitude := 0.0

	for i := 0; i < octaves; i++ {
		total += p.Noise3D(x*frequency, y*frequency, z*frequency) * amplitude
		maxAmplitude += amplitude
		amplitude *= persistence
		frequency *= lacunarity
	}

	return total / maxAmplitude
}

// NoiseField is the deterministic multi-layer noise source keyed by a
// single world seed. Every layer's permutation table is derived once at
// construction, so Sample is a pure function of (seed, layer, x, z) with
// no floating-point summation order that depends on anything but the
// fixed octave loop.
type NoiseField struct {
	seed   uint64
	layers map[Layer]*Perlin
}

// NewNoiseField builds a NoiseField for a world seed, deriving each
// layer's Perlin permutation table from seed XOR the layer's fixed salt.
func NewNoiseField(seed uint64) *NoiseField {
	nf := &NoiseField{
		seed:   seed,
		layers: make(map[Layer]*Perlin, 5),
	}
	for _, l := range []Layer{LayerContinental, LayerErosion, LayerPeaksValleys, LayerTemperature, LayerHumidity} {
		nf.layers[l] = NewPerlin(seed ^ layerSalt(l))
	}
	return nf
}

// Sample returns the layer's noise value at world coordinates (x, z), in
// [-1, 1]. Purely functional in (seed, layer, x, z): identical inputs
// always produce bit-identical output.
func (nf *NoiseField) Sample(l Layer, x, z int) float64 {
	p := nf.layers[l]
	params := paramsFor(l)
	wx := float64(x) * params.frequency
	wz := float64(z) * params.frequency
	return p.OctaveNoise2D(wx, wz, params.octaves, params.lacunarity, params.persistence)
}

// Sample3D returns a 3D noise value at world coordinates (x, y, z), used by
// the cave carver. freq, octaves, lacunarity and persistence are supplied
// by the caller since cave noise uses its own scale independent of the
// five named surface layers.
func (nf *NoiseField) Sample3D(seed uint64, x, y, z int, freq float64, octaves int, lacunarity, persistence float64) float64 {
	p := NewPerlin(seed)
	return p.OctaveNoise3D(float64(x)*freq, float64(y)*freq, float64(z)*freq, octaves, lacunarity, persistence)
}

// DeterministicHash returns a value in [0, 1) derived from (seed, x, y, z,
// salt). Used wherever the spec calls for "a deterministic hash test" in
// place of carrying RNG state between voxels (ore pass, tree placement).
func DeterministicHash(seed uint64, x, y, z int, salt uint64) float64 {
	h := seed ^ salt
	h ^= uint64(uint32(x)) * 0x9E3779B97F4A7C15
	h ^= uint64(uint32(y)) * 0xBF58476D1CE4E5B9
	h ^= uint64(uint32(z)) * 0x94D049BB133111EB
	h ^= h >> 33
	h *= 0xFF51AFD7ED558CCD
	h ^= h >> 33
	h *= 0xC4CEB9FE1A85EC53
	h ^= h >> 33
	return float64(h>>11) / float64(1<<53)
}
