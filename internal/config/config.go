// Package config defines the engine's Config type, mirroring §6's option
// table field-for-field, validated with go-playground/validator before any
// engine code runs — an InvalidInput failure (§7) surfaced at load time,
// ahead of the orchestrator's own domain-level validation.
package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/napolitain/cropsolver/internal/transition"
)

// Config is the full set of options the engine recognizes.
type Config struct {
	MaxNumCropTypes   int     `json:"max_num_crop_types" validate:"min=1,max=64"`
	ReturnTilesASAP   bool    `json:"return_tiles_asap"`
	MultiCrop         bool    `json:"multi_crop"`
	UseCache          bool    `json:"use_cache"`
	DeepSeeds         int     `json:"deep_seeds" validate:"min=1"`
	MemoryThresholdGB float64 `json:"memory_threshold_gb" validate:"gt=0"`
	PaydayDelay       int     `json:"payday_delay" validate:"min=0"`
	GoldFloorFraction float64 `json:"gold_floor_fraction" validate:"min=0,max=1"`
	TileFloorFraction float64 `json:"tile_floor_fraction" validate:"min=0,max=1"`
	CacheSigDigits    int     `json:"cache_sig_digits" validate:"min=1,max=10"`
	// DispatchMode selects how the pool distributes frontier work once it
	// outgrows DeepSeeds: "auto" is the documented Sequential-then-Deep
	// progression (§4.5); "shallow" and "deep" force one mode for the rest
	// of the run. Shallow is kept selectable for completeness even though
	// nothing switches into it automatically.
	DispatchMode string `json:"dispatch_mode" validate:"oneof=auto shallow deep"`
}

// Default returns the §6 defaults.
func Default() Config {
	return Config{
		MaxNumCropTypes:   5,
		ReturnTilesASAP:   false,
		MultiCrop:         true,
		UseCache:          true,
		DeepSeeds:         120,
		MemoryThresholdGB: 1.38,
		PaydayDelay:       0,
		GoldFloorFraction: 0.5,
		TileFloorFraction: 0.07,
		CacheSigDigits:    2,
		DispatchMode:      "auto",
	}
}

var validate = validator.New()

// Validate runs struct-tag validation and reports an error that satisfies
// errors.As against *InvalidError on failure.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return &InvalidError{Reason: err.Error()}
	}
	return nil
}

// InvalidError is the InvalidInput error kind from §7, carrying enough
// context for the caller to report back what was wrong without leaking the
// validator's internal field-path format.
type InvalidError struct {
	Reason string
}

func (e *InvalidError) Error() string {
	return fmt.Sprintf("invalid configuration: %s", e.Reason)
}

// Policy translates ReturnTilesASAP into the transition package's Policy
// enum.
func (c Config) Policy() transition.Policy {
	if c.ReturnTilesASAP {
		return transition.PolicyReleaseOnHarvest
	}
	return transition.PolicyReleaseOnPayday
}

// Rule builds the transition.Rule this config implies.
func (c Config) Rule() transition.Rule {
	return transition.Rule{PaydayDelay: c.PaydayDelay, Policy: c.Policy()}
}
