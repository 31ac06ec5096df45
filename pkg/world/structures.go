package world

// structureCellSize is the spacing, in blocks, of the sparse grid each
// structure kind is placed on. Every cell independently rolls whether it
// contains a structure center; a chunk only needs to intersect the cells
// within structureIntersectionRadius of it to find every structure that
// could touch it.
const structureCellSize = 96

// maxStructureExtent bounds how far any single structure's blocks can
// reach from its center, in blocks.
const maxStructureExtent = 48

// structureIntersectionRadius is ceil(maxStructureExtent / chunk size): the
// number of neighboring cells a chunk must check for a structure whose
// footprint might still overlap it.
const structureIntersectionRadius = (maxStructureExtent + ChunkSizeX - 1) / ChunkSizeX

const (
	villageSalt uint64 = 0xD111A6E
	treeClusterSalt uint64 = 0x7EE5
)

// cellHash returns a deterministic value in [0, 1) for grid cell (cx, cz)
// under the given salt. Purely a function of (seed, salt, cx, cz).
func cellHash(seed uint64, salt uint64, cx, cz int64) float64 {
	return DeterministicHash(seed, int(cx), 0, int(cz), salt)
}

// villageCenter returns the world-space center of a village in grid cell
// (cellX, cellZ) and whether that cell actually contains one (25% chance),
// suppressing a village that falls within minDist of a higher-priority
// neighbor so villages never crowd each other.
func villageCenter(seed uint64, cellX, cellZ int64) (wx, wz int, ok bool) {
	if cellHash(seed, villageSalt, cellX, cellZ) >= 0.25 {
		return 0, 0, false
	}
	ox := int(cellHash(seed, villageSalt^1, cellX, cellZ) * float64(structureCellSize-20))
	oz := int(cellHash(seed, villageSalt^2, cellX, cellZ) * float64(structureCellSize-20))
	wx = int(cellX)*structureCellSize + ox + 10
	wz = int(cellZ)*structureCellSize + oz + 10

	const minDist = 80
	myPriority := cellHash(seed, villageSalt^3, cellX, cellZ)
	for dx := int64(-1); dx <= 1; dx++ {
		for dz := int64(-1); dz <= 1; dz++ {
			if dx == 0 && dz == 0 {
				continue
			}
			ncx, ncz := cellX+dx, cellZ+dz
			if cellHash(seed, villageSalt, ncx, ncz) >= 0.25 {
				continue
			}
			nox := int(cellHash(seed, villageSalt^1, ncx, ncz) * float64(structureCellSize-20))
			noz := int(cellHash(seed, villageSalt^2, ncx, ncz) * float64(structureCellSize-20))
			nwx := int(ncx)*structureCellSize + nox + 10
			nwz := int(ncz)*structureCellSize + noz + 10

			ddx, ddz := wx-nwx, wz-nwz
			if ddx < 0 {
				ddx = -ddx
			}
			if ddz < 0 {
				ddz = -ddz
			}
			if ddx+ddz < minDist {
				if myPriority >= cellHash(seed, villageSalt^3, ncx, ncz) {
					return 0, 0, false
				}
			}
		}
	}
	return wx, wz, true
}

// PlaceStructures runs the structure pass for chunk (cx, cz): it checks
// every grid cell within structureIntersectionRadius for a village whose
// footprint overlaps this chunk, then scatters trees by biome density.
// Both passes are pure functions of (seed, world coordinates); nothing
// here depends on generation order between chunks.
func PlaceStructures(g *Generator, chunk *Chunk, cx, cz int32) {
	placeVillages(g, chunk, cx, cz)
	placeTrees(g, chunk, cx, cz)
}

func placeVillages(g *Generator, chunk *Chunk, cx, cz int32) {
	chunkMinX, chunkMinZ := int(cx)*16, int(cz)*16
	cellX := floorDiv(chunkMinX, structureCellSize)
	cellZ := floorDiv(chunkMinZ, structureCellSize)

	for dx := int64(-structureIntersectionRadius); dx <= structureIntersectionRadius; dx++ {
		for dz := int64(-structureIntersectionRadius); dz <= structureIntersectionRadius; dz++ {
			wx, wz, ok := villageCenter(g.Seed, int64(cellX)+dx, int64(cellZ)+dz)
			if !ok {
				continue
			}
			placeWellAt(g, chunk, cx, cz, wx, wz)
		}
	}
}

// placeWellAt stamps a small sandstone disc at surface height (the one
// structure feature worth keeping in the core) wherever it overlaps this
// chunk; larger building
// layout is left to whatever content pack wants to read the village center.
func placeWellAt(g *Generator, chunk *Chunk, cx, cz int32, wx, wz int) {
	const radius = 2
	chunkMinX, chunkMinZ := int(cx)*16, int(cz)*16
	y := GenerateHeightmap(g.Noise, cx, cz)
	for dx := -radius; dx <= radius; dx++ {
		for dz := -radius; dz <= radius; dz++ {
			bx, bz := wx+dx, wz+dz
			lx, lz := bx-chunkMinX, bz-chunkMinZ
			if lx < 0 || lx >= ChunkSizeX || lz < 0 || lz >= ChunkSizeZ {
				continue
			}
			if dx*dx+dz*dz > radius*radius {
				continue
			}
			surfY := int(y.Get(lx, lz))
			if surfY >= ChunkSizeY {
				continue
			}
			chunk.SetVoxel(lx, surfY, lz, Voxel{ID: blockSandstone})
		}
	}
}

func floorDiv(a, b int) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return int64(q)
}

// placeTrees scatters single-trunk trees across the chunk using the
// biome's tree density and DeterministicHash in place of carried RNG
// state. Village positions are not checked, so a tree can be placed on
// or next to a village well.
func placeTrees(g *Generator, chunk *Chunk, cx, cz int32) {
	hm := chunk.Heightmap()
	for lx := 1; lx < ChunkSizeX-1; lx++ {
		for lz := 1; lz < ChunkSizeZ-1; lz++ {
			wx := int(cx)*16 + lx
			wz := int(cz)*16 + lz
			biomeID := chunk.Biome(lx, lz)
			density := treeDensity(biomeID)
			if density <= 0 {
				continue
			}
			h := DeterministicHash(g.Seed, wx, 0, wz, treeClusterSalt)
			if h >= density {
				continue
			}
			surfY := int(hm.Get(lx, lz))
			if surfY < WaterLevel || surfY > ChunkSizeY-10 {
				continue
			}
			buildTree(chunk, lx, surfY+1, lz)
		}
	}
}

func treeDensity(b BiomeID) float64 {
	switch b {
	case BiomeForest, BiomeBirchForest:
		return 0.08
	case BiomeRainForest:
		return 0.15
	case BiomePlains, BiomeSavanna:
		return 0.01
	default:
		return 0
	}
}

// buildTree places a minimal trunk-and-canopy tree rooted at (lx, y, lz).
func buildTree(chunk *Chunk, lx, y, lz int) {
	const trunkHeight = 4
	for ty := y; ty < y+trunkHeight; ty++ {
		chunk.SetVoxel(lx, ty, lz, Voxel{ID: 17 << 4})
	}
	canopyY := y + trunkHeight
	for dx := -2; dx <= 2; dx++ {
		for dz := -2; dz <= 2; dz++ {
			if dx*dx+dz*dz > 5 {
				continue
			}
			nlx, nlz := lx+dx, lz+dz
			if chunk.Voxel(nlx, canopyY, nlz).ID == 0 {
				chunk.SetVoxel(nlx, canopyY, nlz, Voxel{ID: 18 << 4})
			}
			if chunk.Voxel(nlx, canopyY-1, nlz).ID == 0 {
				chunk.SetVoxel(nlx, canopyY-1, nlz, Voxel{ID: 18 << 4})
			}
		}
	}
}
