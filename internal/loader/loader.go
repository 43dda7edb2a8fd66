// Package loader reads the crop catalog and run configuration from disk,
// the same two-file JSON shape as the teacher's LoadBuildings/
// LoadTechnologies (internal/loader/loader.go in the teacher repo).
package loader

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/napolitain/cropsolver/internal/config"
	"github.com/napolitain/cropsolver/internal/cropmodel"
)

// cropJSON mirrors the teacher's BuildingJSON: a thin intermediate struct
// decoded from the catalog file before conversion into the domain type.
type cropJSON struct {
	BuyPrice       float64 `json:"buy_price"`
	SellPrice      float64 `json:"sell_price"`
	TimeToMaturity int     `json:"time_to_maturity"`
	RegrowCadence  int     `json:"regrow_cadence"`
	Enabled        bool    `json:"enabled"`
	Season         string  `json:"season"`
	SecondSeason   string  `json:"second_season"`
}

// LoadCrops loads crops.json from dataDir into a name-keyed catalog.
func LoadCrops(dataDir string) (map[string]*cropmodel.Crop, error) {
	path := filepath.Join(dataDir, "crops.json")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read crops.json: %w", err)
	}

	var raw map[string]cropJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse crops.json: %w", err)
	}

	catalog := make(map[string]*cropmodel.Crop, len(raw))
	for name, c := range raw {
		catalog[name] = &cropmodel.Crop{
			Name:           name,
			TimeToMaturity: c.TimeToMaturity,
			RegrowCadence:  c.RegrowCadence,
			BuyPrice:       c.BuyPrice,
			SellPrice:      c.SellPrice,
			Enabled:        c.Enabled,
			Season:         c.Season,
			SecondSeason:   c.SecondSeason,
		}
	}
	return catalog, nil
}

// EnabledCrops returns the catalog's enabled crops as a slice, in sorted
// name order for deterministic iteration downstream.
func EnabledCrops(catalog map[string]*cropmodel.Crop) []*cropmodel.Crop {
	names := make([]string, 0, len(catalog))
	for name, c := range catalog {
		if c.Enabled {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	out := make([]*cropmodel.Crop, 0, len(names))
	for _, name := range names {
		out = append(out, catalog[name])
	}
	return out
}

// LoadConfig reads run_config.json from dataDir if present, falling back
// to config.Default() when the file does not exist — the same
// fallback-to-defaults shape as the teacher's LoadCastleConfig.
func LoadConfig(dataDir string) (config.Config, error) {
	path := filepath.Join(dataDir, "run_config.json")
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return config.Default(), nil
	}
	if err != nil {
		return config.Config{}, fmt.Errorf("failed to read run_config.json: %w", err)
	}

	cfg := config.Default()
	if err := json.Unmarshal(data, &cfg); err != nil {
		return config.Config{}, fmt.Errorf("failed to parse run_config.json: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}
