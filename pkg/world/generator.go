package world

// WaterLevel is sea level; columns below it and above the surface height
// are filled with water instead of left as air.
const WaterLevel = 62

const (
	caveFrequency   = 0.03
	caveOctaves     = 2
	caveLacunarity  = 2.0
	cavePersistence = 0.5
	caveThreshold   = 0.6

	oreSalt   uint64 = 0x0FE0
	treeSalt  uint64 = 0x7EE0
)

var oreVoxels = []struct {
	id        uint16
	minY, maxY int32
	chance    float64
}{
	{id: 16 << 4, minY: 0, maxY: 128, chance: 0.02},  // coal
	{id: 15 << 4, minY: 0, maxY: 64, chance: 0.012},  // iron
	{id: 73 << 4, minY: 0, maxY: 32, chance: 0.006},  // redstone
	{id: 56 << 4, minY: 0, maxY: 16, chance: 0.002},  // diamond
}

// Generator produces deterministic terrain for a world seed. Every pass
// reads only (seed, world-space coordinates): nothing in this package
// carries RNG state between voxels or columns.
type Generator struct {
	Seed  uint64
	Noise *NoiseField
}

// NewGenerator builds a Generator for the given world seed.
func NewGenerator(seed uint64) *Generator {
	return &Generator{Seed: seed, Noise: NewNoiseField(seed)}
}

// GenerateChunk runs the full generation pipeline for chunk (cx, cz):
// ground column, ore pass, cave carver, then structure placement.
func (g *Generator) GenerateChunk(dim DimensionID, cx, cz int32) *Chunk {
	chunk := NewChunk(ChunkPos{Dimension: dim, X: cx, Z: cz})
	hm := GenerateHeightmap(g.Noise, cx, cz)
	chunk.SetHeightmap(hm)

	for lx := 0; lx < ChunkSizeX; lx++ {
		for lz := 0; lz < ChunkSizeZ; lz++ {
			wx := int(cx)*16 + lx
			wz := int(cz)*16 + lz
			biomeID := Biome(g.Noise, wx, wz)
			chunk.SetBiome(lx, lz, biomeID)
			g.groundColumn(chunk, lx, lz, wx, wz, int32(hm.Get(lx, lz)), biomeID)
		}
	}

	g.orePass(chunk, cx, cz)
	g.carveCaves(chunk, cx, cz)
	PlaceStructures(g, chunk, cx, cz)

	return chunk
}

// groundColumn fills a single (lx, lz) column: bedrock, stone, subsurface,
// surface, and water/ice/snow capping, per the biome's block choices.
func (g *Generator) groundColumn(chunk *Chunk, lx, lz, wx, wz int, surfaceY int32, biomeID BiomeID) {
	props := biomeID.Properties()

	for y := int32(0); y < ChunkSizeY; y++ {
		switch {
		case y == 0:
			chunk.SetVoxel(lx, int(y), lz, Voxel{ID: 7 << 4}) // bedrock
		case y <= surfaceY-4:
			chunk.SetVoxel(lx, int(y), lz, Voxel{ID: blockStone})
		case y < surfaceY:
			chunk.SetVoxel(lx, int(y), lz, Voxel{ID: props.SubsurfaceBlock})
		case y == surfaceY:
			surface := props.SurfaceBlock
			if surfaceY < WaterLevel {
				surface = blockSand
			}
			chunk.SetVoxel(lx, int(y), lz, Voxel{ID: surface, LightSky: 15})
		case y <= WaterLevel:
			voxel := Voxel{ID: blockWater, LightSky: 15}
			if biomeID == BiomeIcePlains || biomeID == BiomeIceMountains || biomeID == BiomeTundra {
				if y == WaterLevel {
					voxel = Voxel{ID: blockIce, LightSky: 15}
				}
			}
			chunk.SetVoxel(lx, int(y), lz, voxel)
		default:
			chunk.SetVoxel(lx, int(y), lz, Voxel{LightSky: 15})
		}
	}

	// Ocean/DeepOcean reclassification: a surface well below sea level is
	// drawn from the lookup grid's temperate biome but should read as ocean.
	if surfaceY < WaterLevel-20 {
		chunk.SetBiome(lx, lz, BiomeDeepOcean)
	} else if surfaceY < WaterLevel {
		chunk.SetBiome(lx, lz, BiomeOcean)
	}
}

// carveCaves replaces voxels with air, or with water at or below
// WaterLevel, wherever the 3D cave noise field crosses the threshold,
// staying clear of bedrock and the voxels directly under the surface so
// caves never breach daylight.
func (g *Generator) carveCaves(chunk *Chunk, cx, cz int32) {
	hm := chunk.Heightmap()
	for lx := 0; lx < ChunkSizeX; lx++ {
		for lz := 0; lz < ChunkSizeZ; lz++ {
			wx := int(cx)*16 + lx
			wz := int(cz)*16 + lz
			surfaceY := int(hm.Get(lx, lz))

			for y := 5; y < surfaceY-3; y++ {
				n := g.Noise.Sample3D(g.Seed, wx, y, wz, caveFrequency, caveOctaves, caveLacunarity, cavePersistence)
				if n > caveThreshold {
					if y <= WaterLevel {
						chunk.SetVoxel(lx, y, lz, Voxel{ID: blockWater})
					} else {
						chunk.SetVoxel(lx, y, lz, Voxel{})
					}
				}
			}
		}
	}
}

// orePass replaces stone voxels with ore using DeterministicHash as a
// per-voxel probability test; no RNG state is carried between voxels.
func (g *Generator) orePass(chunk *Chunk, cx, cz int32) {
	for lx := 0; lx < ChunkSizeX; lx++ {
		for lz := 0; lz < ChunkSizeZ; lz++ {
			wx := int(cx)*16 + lx
			wz := int(cz)*16 + lz
			for _, ore := range oreVoxels {
				for y := ore.minY; y <= ore.maxY; y++ {
					v := chunk.Voxel(lx, int(y), lz)
					if v.ID != blockStone {
						continue
					}
					h := DeterministicHash(g.Seed, wx, int(y), wz, oreSalt^uint64(ore.id))
					if h < ore.chance {
						chunk.SetVoxel(lx, int(y), lz, Voxel{ID: ore.id})
					}
				}
			}
		}
	}
}
