// Package region persists world chunks to disk, grouped into fixed-size
// region files so that nearby chunks land in the same file and a server can
// page a whole neighborhood in with one open call.
package region

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/klauspost/compress/zstd"

	"github.com/stormvale/voxelcore/pkg/chunkcodec"
	"github.com/stormvale/voxelcore/pkg/world"
)

// ChunksPerAxis is the region side length in chunks; a region therefore
// covers ChunksPerAxis*ChunksPerAxis chunks.
const ChunksPerAxis = 32

// entriesPerRegion is the number of header slots in a region file (resolves
// SPEC_FULL's region-layout open question: a 1024-entry offset+length table,
// 32x32 chunks per region).
const entriesPerRegion = ChunksPerAxis * ChunksPerAxis

// headerEntrySize is 4 bytes offset + 4 bytes length + 4 bytes CRC32 of the
// stored payload, little-endian. The CRC rides in the header rather than
// being recomputed from a full-file scan so that reopening a region file
// after a restart doesn't need to re-read every payload just to revalidate
// them.
const headerEntrySize = 12
const headerSize = entriesPerRegion * headerEntrySize

const recordVersion uint8 = 1

// Store is a ChunkStore backed by region files on disk. It implements
// world.ChunkStore.
type Store struct {
	baseDir string

	mu      sync.Mutex
	regions map[regionKey]*regionFile

	encoder *zstd.Encoder
}

type regionKey struct {
	dim    world.DimensionID
	rx, rz int32
}

// New creates a Store rooted at baseDir, creating the directory if needed.
func New(baseDir string) (*Store, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("region: create base dir: %w", err)
	}
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("region: create zstd encoder: %w", err)
	}
	return &Store{
		baseDir: baseDir,
		regions: make(map[regionKey]*regionFile),
		encoder: enc,
	}, nil
}

// Close releases the store's encoder. Open region files are closed as they
// stop being referenced; Close does not need to walk them.
func (s *Store) Close() error {
	s.encoder.Close()
	return nil
}

func floorDiv(a, b int32) int32 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func floorMod(a, b int32) int32 {
	m := a % b
	if m < 0 {
		m += b
	}
	return m
}

func regionCoord(chunkCoord int32) int32 {
	return floorDiv(chunkCoord, ChunksPerAxis)
}

func slotIndex(cx, cz int32) int {
	lx := floorMod(cx, ChunksPerAxis)
	lz := floorMod(cz, ChunksPerAxis)
	return int(lz*ChunksPerAxis + lx)
}

func (s *Store) regionPath(dim world.DimensionID, rx, rz int32) string {
	return filepath.Join(s.baseDir, fmt.Sprintf("dim%d", dim), fmt.Sprintf("r.%d.%d.region", rx, rz))
}

func (s *Store) regionFor(pos world.ChunkPos, create bool) (*regionFile, error) {
	rx := regionCoord(pos.X)
	rz := regionCoord(pos.Z)
	key := regionKey{dim: pos.Dimension, rx: rx, rz: rz}

	s.mu.Lock()
	defer s.mu.Unlock()

	if rf, ok := s.regions[key]; ok {
		return rf, nil
	}

	path := s.regionPath(pos.Dimension, rx, rz)
	if !create {
		if _, err := os.Stat(path); err != nil {
			if os.IsNotExist(err) {
				return nil, nil
			}
			return nil, fmt.Errorf("region: stat %s: %w", path, err)
		}
	}
	rf, err := openRegionFile(path)
	if err != nil {
		return nil, err
	}
	s.regions[key] = rf
	return rf, nil
}

// Load implements world.ChunkStore. A missing region file or a missing slot
// inside an existing region file are both reported as a clean "not found"
// rather than an error: an unexplored chunk is an ordinary, expected state.
func (s *Store) Load(pos world.ChunkPos) (*world.Chunk, bool, error) {
	rf, err := s.regionFor(pos, false)
	if err != nil {
		return nil, false, err
	}
	if rf == nil {
		return nil, false, nil
	}

	raw, ok, err := rf.read(slotIndex(pos.X, pos.Z))
	if err != nil {
		return nil, false, fmt.Errorf("region: read chunk %v: %w", pos, err)
	}
	if !ok {
		return nil, false, nil
	}

	chunk, err := decodeChunk(pos, raw)
	if err != nil {
		return nil, false, fmt.Errorf("region: decode chunk %v: %w", pos, err)
	}
	return chunk, true, nil
}

// Save implements world.ChunkStore.
func (s *Store) Save(c *world.Chunk) error {
	rf, err := s.regionFor(c.Pos, true)
	if err != nil {
		return err
	}

	raw, err := encodeChunk(c)
	if err != nil {
		return fmt.Errorf("region: encode chunk %v: %w", c.Pos, err)
	}

	compressed := s.encoder.EncodeAll(raw, make([]byte, 0, len(raw)))
	return rf.write(slotIndex(c.Pos.X, c.Pos.Z), compressed)
}

// encodeChunk builds the uncompressed, pre-zstd representation of a saved
// chunk: voxel IDs through the palette+RLE codec, voxel metadata state as a
// raw array (small and irregular enough that palette compression buys
// little), the biome grid, and the heightmap. Per-block light is not
// persisted; it is cheap to relight from neighbors on chunk load and
// storing it just ages into staleness as neighbors change.
func encodeChunk(c *world.Chunk) ([]byte, error) {
	ids := make([]uint16, 0, chunkcodec.VoxelCount)
	states := make([]uint16, 0, chunkcodec.VoxelCount)
	for y := 0; y < world.ChunkSizeY; y++ {
		for z := 0; z < world.ChunkSizeZ; z++ {
			for x := 0; x < world.ChunkSizeX; x++ {
				v := c.Voxel(x, y, z)
				ids = append(ids, v.ID)
				states = append(states, v.State)
			}
		}
	}

	encoded, err := chunkcodec.Encode(ids)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	buf.WriteByte(recordVersion)

	if err := binary.Write(&buf, binary.LittleEndian, uint16(len(encoded.Palette))); err != nil {
		return nil, err
	}
	for _, id := range encoded.Palette {
		if err := binary.Write(&buf, binary.LittleEndian, id); err != nil {
			return nil, err
		}
	}
	if err := binary.Write(&buf, binary.LittleEndian, uint32(len(encoded.Compressed))); err != nil {
		return nil, err
	}
	buf.Write(encoded.Compressed)
	if err := binary.Write(&buf, binary.LittleEndian, encoded.CRC32); err != nil {
		return nil, err
	}

	for _, st := range states {
		if err := binary.Write(&buf, binary.LittleEndian, st); err != nil {
			return nil, err
		}
	}

	for lx := 0; lx < world.ChunkSizeX; lx++ {
		for lz := 0; lz < world.ChunkSizeZ; lz++ {
			buf.WriteByte(byte(c.Biome(lx, lz)))
		}
	}

	hm := c.Heightmap()
	for lx := 0; lx < world.ChunkSizeX; lx++ {
		for lz := 0; lz < world.ChunkSizeZ; lz++ {
			h := int32(0)
			if hm != nil {
				h = hm.Get(lx, lz)
			}
			if err := binary.Write(&buf, binary.LittleEndian, h); err != nil {
				return nil, err
			}
		}
	}

	return buf.Bytes(), nil
}

func decodeChunk(pos world.ChunkPos, compressed []byte) (*world.Chunk, error) {
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}
	defer dec.Close()

	raw, err := dec.DecodeAll(compressed, nil)
	if err != nil {
		return nil, fmt.Errorf("zstd decode: %w", err)
	}

	r := bytes.NewReader(raw)
	version, err := r.ReadByte()
	if err != nil {
		return nil, fmt.Errorf("read version: %w", err)
	}
	if version != recordVersion {
		return nil, fmt.Errorf("unsupported record version %d", version)
	}

	var paletteLen uint16
	if err := binary.Read(r, binary.LittleEndian, &paletteLen); err != nil {
		return nil, fmt.Errorf("read palette length: %w", err)
	}
	palette := make([]uint16, paletteLen)
	for i := range palette {
		if err := binary.Read(r, binary.LittleEndian, &palette[i]); err != nil {
			return nil, fmt.Errorf("read palette entry: %w", err)
		}
	}

	var rleLen uint32
	if err := binary.Read(r, binary.LittleEndian, &rleLen); err != nil {
		return nil, fmt.Errorf("read rle length: %w", err)
	}
	rle := make([]byte, rleLen)
	if _, err := io.ReadFull(r, rle); err != nil {
		return nil, fmt.Errorf("read rle bytes: %w", err)
	}

	var crc uint32
	if err := binary.Read(r, binary.LittleEndian, &crc); err != nil {
		return nil, fmt.Errorf("read crc: %w", err)
	}

	ids, err := chunkcodec.Decode(chunkcodec.Encoded{Palette: palette, Compressed: rle, CRC32: crc})
	if err != nil {
		return nil, fmt.Errorf("chunkcodec decode: %w", err)
	}

	states := make([]uint16, chunkcodec.VoxelCount)
	for i := range states {
		if err := binary.Read(r, binary.LittleEndian, &states[i]); err != nil {
			return nil, fmt.Errorf("read state entry: %w", err)
		}
	}

	biomes := make([]byte, world.ChunkSizeX*world.ChunkSizeZ)
	if _, err := io.ReadFull(r, biomes); err != nil {
		return nil, fmt.Errorf("read biomes: %w", err)
	}

	heights := make([]int32, world.ChunkSizeX*world.ChunkSizeZ)
	for i := range heights {
		if err := binary.Read(r, binary.LittleEndian, &heights[i]); err != nil {
			return nil, fmt.Errorf("read heightmap entry: %w", err)
		}
	}

	chunk := world.NewChunk(pos)
	i := 0
	for y := 0; y < world.ChunkSizeY; y++ {
		for z := 0; z < world.ChunkSizeZ; z++ {
			for x := 0; x < world.ChunkSizeX; x++ {
				chunk.SetVoxel(x, y, z, world.Voxel{ID: ids[i], State: states[i]})
				i++
			}
		}
	}
	chunk.ClearDirty()

	hm := world.NewHeightmap()
	bi := 0
	for lx := 0; lx < world.ChunkSizeX; lx++ {
		for lz := 0; lz < world.ChunkSizeZ; lz++ {
			chunk.SetBiome(lx, lz, world.BiomeID(biomes[bi]))
			hm.Set(lx, lz, heights[bi])
			bi++
		}
	}
	chunk.SetHeightmap(hm)
	chunk.ClearDirty()

	return chunk, nil
}
