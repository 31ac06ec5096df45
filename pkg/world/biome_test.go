package world

import "testing"

func TestBiomeDeterminism(t *testing.T) {
	nf := NewNoiseField(100)

	for i := 0; i < 50; i++ {
		x := i*31 - 500
		z := i*17 - 300
		b1 := Biome(nf, x, z)
		b2 := Biome(nf, x, z)
		if b1 != b2 {
			t.Errorf("Biome(%d,%d) not deterministic: %v vs %v", x, z, b1, b2)
		}
	}
}

func TestWideSweepReachesManyBiomes(t *testing.T) {
	nf := NewNoiseField(42)

	found := make(map[BiomeID]bool)
	for x := -2000; x < 2000; x += 9 {
		for z := -2000; z < 2000; z += 11 {
			found[Biome(nf, x, z)] = true
		}
	}

	if len(found) < 6 {
		t.Errorf("only found %d distinct biomes over a wide sweep, want >= 6: %v", len(found), found)
	}
}

func TestBiomeTableComplete(t *testing.T) {
	all := []BiomeID{
		BiomeIcePlains, BiomeIceMountains, BiomeTundra, BiomePlains, BiomeForest,
		BiomeBirchForest, BiomeMountains, BiomeHills, BiomeDesert, BiomeSavanna,
		BiomeSwamp, BiomeRainForest, BiomeOcean, BiomeDeepOcean,
	}
	for _, id := range all {
		p := id.Properties()
		if p == nil {
			t.Fatalf("biome %d missing from biomeTable", id)
		}
		if p.Name == "" {
			t.Errorf("biome %d has empty name", id)
		}
		if p.HeightVariation < 0 {
			t.Errorf("biome %s has negative HeightVariation: %f", p.Name, p.HeightVariation)
		}
	}
}

func TestBlendedPropertiesSmoothing(t *testing.T) {
	nf := NewNoiseField(7)
	unblended := Biome(nf, 1000, 1000).Properties()
	blended := BlendedProperties(nf, 1000, 1000, 3)

	if blended.Temperature == 0 && unblended.Temperature != 0 {
		t.Errorf("blended temperature collapsed to zero")
	}
}

func TestBlendedPropertiesDeterministic(t *testing.T) {
	nf := NewNoiseField(55)
	a := BlendedProperties(nf, 40, -90, 2)
	b := BlendedProperties(nf, 40, -90, 2)
	if a != b {
		t.Errorf("BlendedProperties not deterministic: %+v vs %+v", a, b)
	}
}

func TestBiomeLookupGridFilled(t *testing.T) {
	for ti := 0; ti < 16; ti++ {
		for hi := 0; hi < 16; hi++ {
			id := biomeLookup[ti][hi]
			if id.Properties() == nil {
				t.Errorf("lookup[%d][%d] = %v has no properties", ti, hi, id)
			}
		}
	}
}
