package loader

import (
	"testing"
)

func TestLoadCrops(t *testing.T) {
	catalog, err := LoadCrops("../../data")
	if err != nil {
		t.Fatalf("LoadCrops() error = %v", err)
	}
	if len(catalog) == 0 {
		t.Fatalf("expected a non-empty catalog")
	}
	parsnip, ok := catalog["parsnip"]
	if !ok {
		t.Fatalf("expected the catalog to contain parsnip")
	}
	if parsnip.BuyPrice != 20 || parsnip.SellPrice != 35 {
		t.Errorf("parsnip = %+v, want buy=20 sell=35", parsnip)
	}
}

func TestEnabledCropsIsSortedAndFiltered(t *testing.T) {
	catalog, err := LoadCrops("../../data")
	if err != nil {
		t.Fatalf("LoadCrops() error = %v", err)
	}
	enabled := EnabledCrops(catalog)
	for _, c := range enabled {
		if !c.Enabled {
			t.Errorf("EnabledCrops() returned a disabled crop: %s", c.Name)
		}
	}
	for i := 1; i < len(enabled); i++ {
		if enabled[i-1].Name > enabled[i].Name {
			t.Errorf("EnabledCrops() not sorted: %s before %s", enabled[i-1].Name, enabled[i].Name)
		}
	}
	if len(enabled) >= len(catalog) {
		t.Errorf("expected at least one crop (ancient_fruit) to be disabled in the fixture catalog")
	}
}

func TestLoadConfigFallsBackToDefaults(t *testing.T) {
	cfg, err := LoadConfig("../../data/does-not-exist")
	if err != nil {
		t.Fatalf("LoadConfig() error = %v, want fallback to defaults", err)
	}
	if cfg.MaxNumCropTypes != 5 {
		t.Errorf("fallback config MaxNumCropTypes = %d, want 5 (Default())", cfg.MaxNumCropTypes)
	}
}

func TestLoadConfigFromFixture(t *testing.T) {
	cfg, err := LoadConfig("../../data")
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.DeepSeeds != 120 {
		t.Errorf("DeepSeeds = %d, want 120", cfg.DeepSeeds)
	}
}
