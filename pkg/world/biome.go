package world

// BiomeID is a closed enum of the 14 supported biome variants.
type BiomeID int

const (
	BiomeIcePlains BiomeID = iota
	BiomeIceMountains
	BiomeTundra
	BiomePlains
	BiomeForest
	BiomeBirchForest
	BiomeMountains
	BiomeHills
	BiomeDesert
	BiomeSavanna
	BiomeSwamp
	BiomeRainForest
	BiomeOcean
	BiomeDeepOcean
)

// BiomeProperties carries the static generation parameters for one biome,
// the Go-side equivalent of the teacher's per-biome block/height/density
// struct, generalized to the blended tint and temperature/humidity fields
// the replication and terrain passes need.
type BiomeProperties struct {
	ID              BiomeID
	Name            string
	Temperature     float64
	Humidity        float64
	HeightModifier  float64
	HeightVariation float64
	SurfaceBlock    uint16 // blockID << 4 | meta
	SubsurfaceBlock uint16
	TintR, TintG, TintB uint8
}

const (
	blockStone     uint16 = 1 << 4
	blockGrass     uint16 = 2 << 4
	blockDirt      uint16 = 3 << 4
	blockSand      uint16 = 12 << 4
	blockSnow      uint16 = 80 << 4
	blockSandstone uint16 = 24 << 4
	blockMud       uint16 = 3<<4 | 1
	blockWater     uint16 = 8 << 4
	blockIce       uint16 = 79 << 4
)

var biomeTable = map[BiomeID]*BiomeProperties{
	BiomeIcePlains: {
		ID: BiomeIcePlains, Name: "Ice Plains",
		Temperature: 0.02, Humidity: 0.5,
		HeightModifier: -0.1, HeightVariation: 6,
		SurfaceBlock: blockSnow, SubsurfaceBlock: blockDirt,
		TintR: 200, TintG: 220, TintB: 255,
	},
	BiomeIceMountains: {
		ID: BiomeIceMountains, Name: "Ice Mountains",
		Temperature: 0.0, Humidity: 0.5,
		HeightModifier: 0.8, HeightVariation: 40,
		SurfaceBlock: blockSnow, SubsurfaceBlock: blockStone,
		TintR: 210, TintG: 225, TintB: 255,
	},
	BiomeTundra: {
		ID: BiomeTundra, Name: "Tundra",
		Temperature: 0.15, Humidity: 0.3,
		HeightModifier: 0.0, HeightVariation: 10,
		SurfaceBlock: blockSnow, SubsurfaceBlock: blockDirt,
		TintR: 180, TintG: 200, TintB: 190,
	},
	BiomePlains: {
		ID: BiomePlains, Name: "Plains",
		Temperature: 0.5, Humidity: 0.4,
		HeightModifier: 0.0, HeightVariation: 8,
		SurfaceBlock: blockGrass, SubsurfaceBlock: blockDirt,
		TintR: 120, TintG: 190, TintB: 80,
	},
	BiomeForest: {
		ID: BiomeForest, Name: "Forest",
		Temperature: 0.45, Humidity: 0.6,
		HeightModifier: 0.1, HeightVariation: 12,
		SurfaceBlock: blockGrass, SubsurfaceBlock: blockDirt,
		TintR: 80, TintG: 160, TintB: 70,
	},
	BiomeBirchForest: {
		ID: BiomeBirchForest, Name: "Birch Forest",
		Temperature: 0.4, Humidity: 0.55,
		HeightModifier: 0.1, HeightVariation: 12,
		SurfaceBlock: blockGrass, SubsurfaceBlock: blockDirt,
		TintR: 100, TintG: 180, TintB: 90,
	},
	BiomeMountains: {
		ID: BiomeMountains, Name: "Mountains",
		Temperature: 0.35, Humidity: 0.35,
		HeightModifier: 1.2, HeightVariation: 60,
		SurfaceBlock: blockStone, SubsurfaceBlock: blockStone,
		TintR: 140, TintG: 140, TintB: 140,
	},
	BiomeHills: {
		ID: BiomeHills, Name: "Hills",
		Temperature: 0.45, Humidity: 0.4,
		HeightModifier: 0.5, HeightVariation: 30,
		SurfaceBlock: blockGrass, SubsurfaceBlock: blockDirt,
		TintR: 110, TintG: 170, TintB: 75,
	},
	BiomeDesert: {
		ID: BiomeDesert, Name: "Desert",
		Temperature: 0.85, Humidity: 0.1,
		HeightModifier: -0.05, HeightVariation: 8,
		SurfaceBlock: blockSand, SubsurfaceBlock: blockSandstone,
		TintR: 230, TintG: 210, TintB: 140,
	},
	BiomeSavanna: {
		ID: BiomeSavanna, Name: "Savanna",
		Temperature: 0.8, Humidity: 0.3,
		HeightModifier: 0.05, HeightVariation: 10,
		SurfaceBlock: blockGrass, SubsurfaceBlock: blockDirt,
		TintR: 180, TintG: 170, TintB: 80,
	},
	BiomeSwamp: {
		ID: BiomeSwamp, Name: "Swamp",
		Temperature: 0.55, Humidity: 0.8,
		HeightModifier: -0.2, HeightVariation: 4,
		SurfaceBlock: blockGrass, SubsurfaceBlock: blockMud,
		TintR: 90, TintG: 110, TintB: 70,
	},
	BiomeRainForest: {
		ID: BiomeRainForest, Name: "Rain Forest",
		Temperature: 0.9, Humidity: 0.85,
		HeightModifier: 0.15, HeightVariation: 16,
		SurfaceBlock: blockGrass, SubsurfaceBlock: blockDirt,
		TintR: 50, TintG: 150, TintB: 60,
	},
	BiomeOcean: {
		ID: BiomeOcean, Name: "Ocean",
		Temperature: 0.5, Humidity: 0.5,
		HeightModifier: -0.8, HeightVariation: 6,
		SurfaceBlock: blockSand, SubsurfaceBlock: blockSand,
		TintR: 60, TintG: 100, TintB: 190,
	},
	BiomeDeepOcean: {
		ID: BiomeDeepOcean, Name: "Deep Ocean",
		Temperature: 0.48, Humidity: 0.5,
		HeightModifier: -1.4, HeightVariation: 4,
		SurfaceBlock: blockSand, SubsurfaceBlock: blockStone,
		TintR: 40, TintG: 70, TintB: 160,
	},
}

// Properties returns the static properties for a biome ID.
func (b BiomeID) Properties() *BiomeProperties {
	return biomeTable[b]
}

// biomeLookup is a 16x16 grid keyed by (floor(t*15), floor(h*15)), filled
// once at init from the closed-form rules below.
var biomeLookup [16][16]BiomeID

func init() {
	for ti := 0; ti < 16; ti++ {
		for hi := 0; hi < 16; hi++ {
			t := float64(ti) / 15.0
			h := float64(hi) / 15.0
			biomeLookup[ti][hi] = classify(t, h)
		}
	}
}

// classify implements the closed-form cold/hot/temperate rules that seed
// the lookup grid.
func classify(t, h float64) BiomeID {
	switch {
	case t < 0.3:
		switch {
		case h < 0.2:
			return BiomeTundra
		case h < 0.6:
			return BiomeIcePlains
		default:
			return BiomeIceMountains
		}
	case t > 0.7:
		switch {
		case h < 0.3:
			return BiomeDesert
		case h < 0.6:
			return BiomeSavanna
		default:
			return BiomeRainForest
		}
	default:
		switch {
		case h < 0.25:
			return BiomeHills
		case h < 0.45:
			return BiomePlains
		case h < 0.65:
			return BiomeBirchForest
		case h < 0.85:
			return BiomeForest
		default:
			return BiomeSwamp
		}
	}
}

// Biome maps world coordinates (wx, wz) to a biome ID via the
// temperature x humidity lookup grid. Ocean/DeepOcean are assigned by the
// terrain pass from final surface height, not from this grid.
func Biome(nf *NoiseField, wx, wz int) BiomeID {
	t := (nf.Sample(LayerTemperature, wx, wz) + 1) / 2
	h := (nf.Sample(LayerHumidity, wx, wz) + 1) / 2
	ti := clampIndex(int(t * 15))
	hi := clampIndex(int(h * 15))
	return biomeLookup[ti][hi]
}

func clampIndex(i int) int {
	if i < 0 {
		return 0
	}
	if i > 15 {
		return 15
	}
	return i
}

// BlendedProperties averages the static properties of biomes in the
// (2r+1)^2 neighborhood of (wx, wz), weighted by 1/(1+d^2) where d^2 is the
// sum of squared per-axis deltas from the center. Used so biome tint
// doesn't hard-cut at classification boundaries.
func BlendedProperties(nf *NoiseField, wx, wz, r int) BiomeProperties {
	var sumWeight, temp, hum, heightMod, heightVar float64
	var tintR, tintG, tintB float64

	for dx := -r; dx <= r; dx++ {
		for dz := -r; dz <= r; dz++ {
			props := Biome(nf, wx+dx, wz+dz).Properties()
			d2 := float64(dx*dx + dz*dz)
			weight := 1.0 / (1.0 + d2)

			sumWeight += weight
			temp += props.Temperature * weight
			hum += props.Humidity * weight
			heightMod += props.HeightModifier * weight
			heightVar += props.HeightVariation * weight
			tintR += float64(props.TintR) * weight
			tintG += float64(props.TintG) * weight
			tintB += float64(props.TintB) * weight
		}
	}

	result := *Biome(nf, wx, wz).Properties()
	if sumWeight > 0 {
		result.Temperature = temp / sumWeight
		result.Humidity = hum / sumWeight
		result.HeightModifier = heightMod / sumWeight
		result.HeightVariation = heightVar / sumWeight
		result.TintR = uint8(tintR / sumWeight)
		result.TintG = uint8(tintG / sumWeight)
		result.TintB = uint8(tintB / sumWeight)
	}
	return result
}
