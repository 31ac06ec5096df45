// Package chunkcodec implements the palette+RLE wire encoding used to ship
// chunk voxel data between the region store and the network layer.
package chunkcodec

import (
	"fmt"
	"hash/crc32"
)

// VoxelCount is the fixed number of block IDs in one encoded chunk column
// (16 x 256 x 16). Encode and Decode both reject any other length.
const VoxelCount = 16 * 256 * 16

// MaxDecompressedSize bounds RLE output so a corrupted or hostile payload
// can't be used to exhaust memory during decompression.
const MaxDecompressedSize = VoxelCount

// MaxPaletteSize is the largest palette a single chunk can carry; indices
// are a single byte wide.
const MaxPaletteSize = 256

// Encoded is the wire representation of one chunk's voxel data: a palette
// of distinct block IDs, the RLE-compressed palette-index stream, and a
// CRC32 covering both.
type Encoded struct {
	Palette    []uint16
	Compressed []byte
	CRC32      uint32
}

// Encode builds the palette, RLE-compresses the palette-index stream, and
// computes the CRC32 that Decode uses to detect corruption. blockData must
// have exactly VoxelCount entries.
func Encode(blockData []uint16) (Encoded, error) {
	if len(blockData) != VoxelCount {
		return Encoded{}, fmt.Errorf("chunkcodec: invalid block data length: expected %d, got %d", VoxelCount, len(blockData))
	}

	palette, indices := buildPalette(blockData)
	compressed := rleCompress(indices)
	crc := calculateCRC32(palette, compressed)

	return Encoded{Palette: palette, Compressed: compressed, CRC32: crc}, nil
}

// Decode validates the CRC32, RLE-decompresses the index stream, and maps
// indices back to block IDs through the palette.
func Decode(e Encoded) ([]uint16, error) {
	expected := calculateCRC32(e.Palette, e.Compressed)
	if e.CRC32 != expected {
		return nil, fmt.Errorf("chunkcodec: CRC32 mismatch: expected %08x, got %08x", expected, e.CRC32)
	}

	indices, err := rleDecompress(e.Compressed)
	if err != nil {
		return nil, fmt.Errorf("chunkcodec: decompress: %w", err)
	}
	if len(indices) != VoxelCount {
		return nil, fmt.Errorf("chunkcodec: invalid decompressed size: expected %d, got %d", VoxelCount, len(indices))
	}

	blockData := make([]uint16, 0, VoxelCount)
	for _, index := range indices {
		if int(index) >= len(e.Palette) {
			return nil, fmt.Errorf("chunkcodec: invalid palette index %d (palette size %d)", index, len(e.Palette))
		}
		blockData = append(blockData, e.Palette[index])
	}
	return blockData, nil
}

// buildPalette assigns each distinct block ID a palette slot, up to
// MaxPaletteSize. Once the palette is full, further new IDs collapse onto
// the last slot rather than growing unbounded.
func buildPalette(blockData []uint16) ([]uint16, []uint8) {
	palette := make([]uint16, 0, 16)
	paletteMap := make(map[uint16]uint8, 16)
	indices := make([]uint8, 0, len(blockData))

	for _, id := range blockData {
		idx, ok := paletteMap[id]
		if !ok {
			if len(palette) >= MaxPaletteSize {
				idx = MaxPaletteSize - 1
			} else {
				idx = uint8(len(palette))
				palette = append(palette, id)
				paletteMap[id] = idx
			}
		}
		indices = append(indices, idx)
	}
	return palette, indices
}

// rleCompress run-length encodes a byte stream. A control byte with the
// high bit set (>= 128) encodes a run of (control-128) repeats of the
// following value byte; otherwise it's a literal length followed by that
// many literal bytes. Runs below 3 repeats are not worth the 2-byte
// overhead, so they fall back to literals.
func rleCompress(data []uint8) []byte {
	compressed := make([]byte, 0, len(data))
	i := 0
	for i < len(data) {
		current := data[i]
		runLength := 1
		for i+runLength < len(data) && data[i+runLength] == current && runLength < 127 {
			runLength++
		}

		if runLength >= 3 {
			compressed = append(compressed, 128+byte(runLength), current)
			i += runLength
			continue
		}

		literalLength := 1
		for i+literalLength < len(data) && literalLength < 127 {
			if i+literalLength+2 < len(data) &&
				data[i+literalLength] == data[i+literalLength+1] &&
				data[i+literalLength] == data[i+literalLength+2] {
				break
			}
			literalLength++
		}
		compressed = append(compressed, byte(literalLength))
		compressed = append(compressed, data[i:i+literalLength]...)
		i += literalLength
	}
	return compressed
}

// rleDecompress reverses rleCompress, rejecting any output that would
// exceed MaxDecompressedSize before it's produced.
func rleDecompress(compressed []byte) ([]uint8, error) {
	decompressed := make([]uint8, 0, MaxDecompressedSize)
	i := 0
	for i < len(compressed) {
		control := compressed[i]
		i++

		if control >= 128 {
			length := int(control - 128)
			if i >= len(compressed) {
				return nil, fmt.Errorf("unexpected end of RLE data (run)")
			}
			value := compressed[i]
			i++
			if len(decompressed)+length > MaxDecompressedSize {
				return nil, fmt.Errorf("RLE decompression would exceed max size: %d + %d > %d", len(decompressed), length, MaxDecompressedSize)
			}
			for n := 0; n < length; n++ {
				decompressed = append(decompressed, value)
			}
		} else {
			length := int(control)
			if i+length > len(compressed) {
				return nil, fmt.Errorf("unexpected end of RLE data (literal): need %d bytes, have %d", length, len(compressed)-i)
			}
			if len(decompressed)+length > MaxDecompressedSize {
				return nil, fmt.Errorf("RLE decompression would exceed max size: %d + %d > %d", len(decompressed), length, MaxDecompressedSize)
			}
			decompressed = append(decompressed, compressed[i:i+length]...)
			i += length
		}
	}
	return decompressed, nil
}

// calculateCRC32 hashes the palette (as little-endian uint16s) followed by
// the compressed stream.
func calculateCRC32(palette []uint16, compressed []byte) uint32 {
	h := crc32.NewIEEE()
	buf := make([]byte, 2)
	for _, id := range palette {
		buf[0] = byte(id)
		buf[1] = byte(id >> 8)
		h.Write(buf)
	}
	h.Write(compressed)
	return h.Sum32()
}

// CompressionRatio returns the percentage reduction from originalSize to
// compressedSize, used only for diagnostics logging.
func CompressionRatio(originalSize, compressedSize int) float32 {
	if originalSize == 0 {
		return 0
	}
	return float32(originalSize-compressedSize) / float32(originalSize) * 100
}
