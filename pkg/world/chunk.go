package world

import "github.com/google/uuid"

const (
	ChunkSizeX = 16
	ChunkSizeZ = 16
	ChunkSizeY = 256
	// MaxPaletteSize bounds how many distinct voxel states a single chunk's
	// palette may hold; once it is full, the codec maps every further new
	// state onto the last palette slot.
	MaxPaletteSize = 256
)

// Voxel is the in-memory representation of a single block position: a
// block ID plus its sub-state and lighting.
type Voxel struct {
	ID         uint16
	State      uint16
	LightSky   uint8
	LightBlock uint8
}

// AirVoxel is the zero Voxel value, returned for any out-of-range lookup.
var AirVoxel = Voxel{}

// DimensionID identifies one of the world's parallel dimensions. Entity
// visibility never crosses dimensions regardless of chunk distance.
type DimensionID int32

const DimensionOverworld DimensionID = 0

// ChunkPos identifies a chunk column within one dimension.
type ChunkPos struct {
	Dimension DimensionID
	X, Z      int32
}

// ChebyshevDistance returns max(|dx|, |dz|) between two chunk positions,
// the metric used for view-distance and streaming priority.
func (p ChunkPos) ChebyshevDistance(o ChunkPos) int32 {
	dx := p.X - o.X
	if dx < 0 {
		dx = -dx
	}
	dz := p.Z - o.Z
	if dz < 0 {
		dz = -dz
	}
	if dx > dz {
		return dx
	}
	return dz
}

// BlockPos identifies a single voxel in world space within one dimension.
type BlockPos struct {
	Dimension DimensionID
	X, Y, Z   int32
}

// ChunkOf returns the chunk column containing a block position.
func (p BlockPos) ChunkOf() ChunkPos {
	return ChunkPos{Dimension: p.Dimension, X: p.X >> 4, Z: p.Z >> 4}
}

// Chunk is a realized 16x256x16 column of voxels. All mutation goes
// through SetVoxel so the dirty flag stays in sync with region
// persistence; there is no way to reach the backing array directly.
type Chunk struct {
	Pos     ChunkPos
	voxels  [ChunkSizeY][ChunkSizeZ][ChunkSizeX]Voxel
	heights *Heightmap
	biomes  [ChunkSizeX][ChunkSizeZ]BiomeID
	dirty   bool
}

// NewChunk allocates an empty (all-air) chunk at pos.
func NewChunk(pos ChunkPos) *Chunk {
	return &Chunk{Pos: pos}
}

// Voxel returns the voxel at chunk-local coordinates. Out-of-range lookups
// return air rather than panicking, since edge probes during generation
// routinely reach one step past the boundary.
func (c *Chunk) Voxel(lx, ly, lz int) Voxel {
	if lx < 0 || lx >= ChunkSizeX || lz < 0 || lz >= ChunkSizeZ || ly < 0 || ly >= ChunkSizeY {
		return AirVoxel
	}
	return c.voxels[ly][lz][lx]
}

// SetVoxel writes a voxel at chunk-local coordinates and marks the chunk
// dirty for the next region save.
func (c *Chunk) SetVoxel(lx, ly, lz int, v Voxel) {
	if lx < 0 || lx >= ChunkSizeX || lz < 0 || lz >= ChunkSizeZ || ly < 0 || ly >= ChunkSizeY {
		return
	}
	c.voxels[ly][lz][lx] = v
	c.dirty = true
}

// Dirty reports whether the chunk has unsaved mutations.
func (c *Chunk) Dirty() bool { return c.dirty }

// ClearDirty marks the chunk as saved.
func (c *Chunk) ClearDirty() { c.dirty = false }

// SetHeightmap attaches the heightmap produced during generation.
func (c *Chunk) SetHeightmap(h *Heightmap) { c.heights = h }

// Heightmap returns the chunk's cached surface heightmap, or nil if none
// was attached.
func (c *Chunk) Heightmap() *Heightmap { return c.heights }

// SetBiome records the biome assigned to chunk-local column (lx, lz).
func (c *Chunk) SetBiome(lx, lz int, b BiomeID) {
	if lx < 0 || lx >= ChunkSizeX || lz < 0 || lz >= ChunkSizeZ {
		return
	}
	c.biomes[lx][lz] = b
}

// Biome returns the biome assigned to chunk-local column (lx, lz).
func (c *Chunk) Biome(lx, lz int) BiomeID {
	if lx < 0 || lx >= ChunkSizeX || lz < 0 || lz >= ChunkSizeZ {
		return BiomePlains
	}
	return c.biomes[lx][lz]
}

// BlockEntity is extra per-position state that doesn't fit in a Voxel's
// fixed-width fields (a chest's inventory reference, a sign's text, ...).
// The core tracks identity and a kind tag only; interpreting the payload
// is left to whatever consumes the core, since inventory/crafting
// semantics are out of scope here.
type BlockEntity struct {
	Pos     BlockPos
	Kind    uint16
	Payload []byte
}

// DroppedItem is a physical item entity resting or moving in the world.
type DroppedItem struct {
	ID            uuid.UUID
	Dimension     DimensionID
	X, Y, Z       float64
	ItemID        uint16
	ItemMeta      uint16
	Count         uint8
	SpawnedAtTick uint64
}

// Mob is a non-player entity with position, health, and a kind tag. Mob
// behavior (pathing, aggression, drops) is out of scope; the core only
// replicates whatever position and health a mob driver assigns.
type Mob struct {
	ID         uuid.UUID
	Dimension  DimensionID
	Kind       uint16
	X, Y, Z    float64
	Yaw, Pitch float32
	Health     float32
	MaxHealth  float32
}
