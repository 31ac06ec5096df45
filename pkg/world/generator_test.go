package world

import "testing"

func TestGeneratorDeterminism(t *testing.T) {
	g1 := NewGenerator(12345)
	g2 := NewGenerator(12345)

	c1 := g1.GenerateChunk(DimensionOverworld, 0, 0)
	c2 := g2.GenerateChunk(DimensionOverworld, 0, 0)

	for y := 0; y < ChunkSizeY; y++ {
		for lz := 0; lz < ChunkSizeZ; lz++ {
			for lx := 0; lx < ChunkSizeX; lx++ {
				if c1.Voxel(lx, y, lz) != c2.Voxel(lx, y, lz) {
					t.Fatalf("voxel mismatch at (%d,%d,%d)", lx, y, lz)
				}
			}
		}
	}
}

func TestBedrockLayer(t *testing.T) {
	g := NewGenerator(999)
	c := g.GenerateChunk(DimensionOverworld, 3, -2)
	for lx := 0; lx < ChunkSizeX; lx++ {
		for lz := 0; lz < ChunkSizeZ; lz++ {
			if v := c.Voxel(lx, 0, lz); v.ID != 7<<4 {
				t.Errorf("Voxel(%d,0,%d) = %v, want bedrock", lx, lz, v)
			}
		}
	}
}

func TestSurfaceHeightRange(t *testing.T) {
	nf := NewNoiseField(555)
	for cx := int32(-3); cx <= 3; cx++ {
		hm := GenerateHeightmap(nf, cx, 0)
		for lz := 0; lz < 16; lz++ {
			for lx := 0; lx < 16; lx++ {
				h := hm.Get(lx, lz)
				if h < MinHeight || h > MaxHeight {
					t.Errorf("height out of range at (%d,%d,%d): %d", cx, lx, lz, h)
				}
			}
		}
	}
}

func TestDifferentChunksVary(t *testing.T) {
	g := NewGenerator(42)
	c1 := g.GenerateChunk(DimensionOverworld, 0, 0)
	c2 := g.GenerateChunk(DimensionOverworld, 40, 40)

	same := true
outer:
	for y := 0; y < ChunkSizeY; y++ {
		for lz := 0; lz < ChunkSizeZ; lz++ {
			for lx := 0; lx < ChunkSizeX; lx++ {
				if c1.Voxel(lx, y, lz) != c2.Voxel(lx, y, lz) {
					same = false
					break outer
				}
			}
		}
	}
	if same {
		t.Error("distant chunks produced identical voxel data — terrain not varying")
	}
}

func TestOrePassDepthRange(t *testing.T) {
	g := NewGenerator(7)
	c := g.GenerateChunk(DimensionOverworld, 1, 1)
	for y := 0; y < ChunkSizeY; y++ {
		for lz := 0; lz < ChunkSizeZ; lz++ {
			for lx := 0; lx < ChunkSizeX; lx++ {
				v := c.Voxel(lx, y, lz)
				switch v.ID {
				case 16 << 4, 15 << 4, 73 << 4, 56 << 4:
					if y < 0 || y > 128 {
						t.Errorf("ore at implausible depth y=%d", y)
					}
				}
			}
		}
	}
}

func TestCaveCarverDoesNotBreachBedrock(t *testing.T) {
	g := NewGenerator(314)
	c := g.GenerateChunk(DimensionOverworld, -5, 9)
	for lx := 0; lx < ChunkSizeX; lx++ {
		for lz := 0; lz < ChunkSizeZ; lz++ {
			if v := c.Voxel(lx, 0, lz); v.ID != 7<<4 {
				t.Errorf("cave carver touched bedrock at (%d,0,%d)", lx, lz)
			}
		}
	}
}
