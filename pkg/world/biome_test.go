package world

import "testing"

func TestBiomeMapDeterminism(t *testing.T) {
	m1 := NewBiomeMap(NewTerrain(100))
	m2 := NewBiomeMap(NewTerrain(100))

	for i := 0; i < 50; i++ {
		c := ChunkPos{int32(i*3 - 70), int32(i*5 - 90)}
		b1 := m1.BiomeAt(c)
		b2 := m2.BiomeAt(c)
		if b1 != b2 {
			t.Errorf("BiomeAt(%v) not deterministic: %s vs %s", c, b1.Name, b2.Name)
		}
		if again := m1.BiomeAt(c); again != b1 {
			t.Errorf("cached BiomeAt(%v) = %s, want %s", c, again.Name, b1.Name)
		}
	}
}

func TestAllBiomesReachable(t *testing.T) {
	terrain := NewTerrain(42)

	found := make(map[string]bool)
	for x := -2000; x < 2000; x += 23 {
		for z := -2000; z < 2000; z += 23 {
			found[terrain.Biome(x, z).Key] = true
		}
	}

	if len(found) < 4 {
		t.Errorf("only found %d distinct biomes in 4000x4000 area, want >= 4: %v", len(found), found)
	}
	if found[BiomeTheEnd.Key] {
		t.Error("the_end biome produced by overworld classifier")
	}
}

func TestClassifyBiome(t *testing.T) {
	tests := []struct {
		temp, rain, cont float64
		want             *Biome
	}{
		{0.5, 0.5, 0.1, BiomeDeepOcean},
		{0.5, 0.5, 0.25, BiomeOcean},
		{0.1, 0.9, 0.8, BiomeSnowyTundra},
		{0.35, 0.5, 0.8, BiomeTaiga},
		{0.5, 0.8, 0.8, BiomeDarkForest},
		{0.5, 0.3, 0.8, BiomePlains},
		{0.5, 0.1, 0.8, BiomeExtremeHills},
		{0.9, 0.9, 0.8, BiomeJungle},
		{0.9, 0.4, 0.8, BiomeSavanna},
		{0.9, 0.1, 0.8, BiomeDesert},
	}
	for _, tt := range tests {
		if got := classifyBiome(tt.temp, tt.rain, tt.cont); got != tt.want {
			t.Errorf("classifyBiome(%.2f, %.2f, %.2f) = %s, want %s", tt.temp, tt.rain, tt.cont, got.Name, tt.want.Name)
		}
	}
}

func TestBiomeFieldsValid(t *testing.T) {
	keys := make(map[string]bool)
	for _, b := range allBiomes {
		if b.Name == "" || b.Key == "" {
			t.Errorf("biome ID %d has empty name or key", b.ID)
		}
		if keys[b.Key] {
			t.Errorf("duplicate biome key %q", b.Key)
		}
		keys[b.Key] = true
		if b.BaseHeight < 1 || b.BaseHeight > 255 {
			t.Errorf("biome %s has invalid BaseHeight: %d", b.Name, b.BaseHeight)
		}
		if got, ok := BiomeByKey(b.Key); !ok || got != b {
			t.Errorf("BiomeByKey(%q) = %v, %v", b.Key, got, ok)
		}
	}
	if _, ok := BiomeByKey("nether"); ok {
		t.Error("BiomeByKey found unknown key")
	}
}

func TestFixedBiome(t *testing.T) {
	f := FixedBiome{Biome: BiomePlains}
	if got := f.BiomeAt(ChunkPos{123, -456}); got != BiomePlains {
		t.Errorf("FixedBiome.BiomeAt = %s, want Plains", got.Name)
	}
}
