package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"
	"github.com/spf13/viper"
)

// Config represents the complete application configuration
type Config struct {
	Input     InputConfig     `mapstructure:"input"`
	Stages    StagesConfig    `mapstructure:"stages"`
	Remap     RemapConfig     `mapstructure:"remap"`
	Cyclicity CyclicityConfig `mapstructure:"cyclicity"`
	Offset    OffsetConfig    `mapstructure:"offset"`
	Display   DisplayConfig   `mapstructure:"display"`
	Output    OutputConfig    `mapstructure:"output"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// InputConfig names the traffic-light log to analyze
type InputConfig struct {
	Path    string  `mapstructure:"path" validate:"required"`
	Format  string  `mapstructure:"format" validate:"omitempty,oneof=xml csv"`
	TLSID   string  `mapstructure:"tls_id"`
	EndTime float64 `mapstructure:"end_time" validate:"gte=0"`
}

// StagesConfig groups movements into logical stages
type StagesConfig struct {
	Names       []string `mapstructure:"names" validate:"required,min=1,unique,dive,required"`
	Assignment  []int    `mapstructure:"assignment" validate:"required,min=1,dive,gte=0"`
	Method      string   `mapstructure:"method" validate:"oneof=mode first"`
	GreenSymbol string   `mapstructure:"green_symbol" validate:"oneof=g G"`
}

// RemapConfig renumbers the phases of one signal program
type RemapConfig struct {
	Enabled   bool     `mapstructure:"enabled"`
	ProgramID string   `mapstructure:"program_id"`
	NewIDs    []string `mapstructure:"new_ids" validate:"dive,required"`
}

// CyclicityConfig holds quasi-cycle segmentation settings
type CyclicityConfig struct {
	Policy         string `mapstructure:"policy" validate:"oneof=first_recur all_present firstRecur allPresent 1 2"`
	AllowEmpty     bool   `mapstructure:"allow_empty"`
	AlignTo        string `mapstructure:"align_to"`
	AlignEachStage bool   `mapstructure:"align_each_stage"`
}

// JunctionConfig describes one side of a coordination analysis
type JunctionConfig struct {
	Name       string `mapstructure:"name"`
	Path       string `mapstructure:"path"`
	Format     string `mapstructure:"format" validate:"omitempty,oneof=xml csv"`
	TLSID      string `mapstructure:"tls_id"`
	OnsetPhase string `mapstructure:"onset_phase"`
	EndPhase   string `mapstructure:"end_phase"`
}

// OffsetConfig holds signal coordination settings
type OffsetConfig struct {
	Enabled    bool           `mapstructure:"enabled"`
	Reference  JunctionConfig `mapstructure:"reference"`
	Other      JunctionConfig `mapstructure:"other"`
	TravelTime float64        `mapstructure:"travel_time" validate:"gte=0"`
	MaxOrder   int            `mapstructure:"max_order" validate:"gte=1,lte=10"`
}

// DisplayConfig holds the initial view of the display data
type DisplayConfig struct {
	WindowStart float64 `mapstructure:"window_start"`
	WindowEnd   float64 `mapstructure:"window_end"`
	NumBins     int     `mapstructure:"num_bins" validate:"gte=1,lte=1000"`
	Density     bool    `mapstructure:"density"`
	GreenOnly   bool    `mapstructure:"green_only"`
}

// OutputConfig holds report output configuration
type OutputConfig struct {
	Path            string `mapstructure:"path"`
	Format          string `mapstructure:"format" validate:"oneof=json yaml yml"`
	FilePermissions uint32 `mapstructure:"file_permissions" validate:"lte=511"`
	DirPermissions  uint32 `mapstructure:"dir_permissions" validate:"lte=511"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"oneof=json text"`
}

// Load reads configuration from file and environment variables
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetConfigFile(path)
	setDefaults(v)

	// SIGSPLIT_OFFSET_TRAVEL_TIME overrides offset.travel_time
	v.SetEnvPrefix("SIGSPLIT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// setDefaults configures default values for all configuration options
func setDefaults(v *viper.Viper) {
	// Input defaults
	v.SetDefault("input.format", "")
	v.SetDefault("input.tls_id", "")
	v.SetDefault("input.end_time", 0.0)

	// Stage defaults
	v.SetDefault("stages.method", "mode")
	v.SetDefault("stages.green_symbol", "G")

	// Remap defaults
	v.SetDefault("remap.enabled", false)
	v.SetDefault("remap.program_id", "")

	// Cyclicity defaults
	v.SetDefault("cyclicity.policy", "first_recur")
	v.SetDefault("cyclicity.allow_empty", false)
	v.SetDefault("cyclicity.align_to", "")
	v.SetDefault("cyclicity.align_each_stage", false)

	// Offset defaults
	v.SetDefault("offset.enabled", false)
	v.SetDefault("offset.reference.name", "reference")
	v.SetDefault("offset.other.name", "other")
	v.SetDefault("offset.travel_time", 30.0)
	v.SetDefault("offset.max_order", 3)

	// Display defaults
	v.SetDefault("display.window_start", 0.0)
	v.SetDefault("display.window_end", 180.0)
	v.SetDefault("display.num_bins", 10)
	v.SetDefault("display.density", false)
	v.SetDefault("display.green_only", false)

	// Output defaults
	v.SetDefault("output.path", "./data/sigsplit-report.json")
	v.SetDefault("output.format", "json")
	v.SetDefault("output.file_permissions", 0o644)
	v.SetDefault("output.dir_permissions", 0o755)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

// Validate checks that all configuration values are valid
func (c *Config) Validate() error {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		return strings.SplitN(f.Tag.Get("mapstructure"), ",", 2)[0]
	})
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return describe(verrs[0])
		}
		return err
	}

	// Validate Stages config
	for i, idx := range c.Stages.Assignment {
		if idx >= len(c.Stages.Names) {
			return fmt.Errorf("stages.assignment[%d] = %d is out of range for %d stage names", i, idx, len(c.Stages.Names))
		}
	}
	used := make(map[int]bool, len(c.Stages.Names))
	for _, idx := range c.Stages.Assignment {
		used[idx] = true
	}
	for i, name := range c.Stages.Names {
		if !used[i] {
			return fmt.Errorf("stages.assignment assigns no movement to stage %s", name)
		}
	}

	// Validate Remap config
	if c.Remap.Enabled && len(c.Remap.NewIDs) == 0 {
		return fmt.Errorf("remap.new_ids is required when remap is enabled")
	}

	// Validate Cyclicity config
	if c.Cyclicity.AlignTo != "" && !lo.Contains(c.Stages.Names, c.Cyclicity.AlignTo) {
		return fmt.Errorf("cyclicity.align_to must name a stage, got %q", c.Cyclicity.AlignTo)
	}

	// Validate Offset config
	if c.Offset.Enabled {
		for _, j := range []struct {
			key string
			cfg JunctionConfig
		}{{"offset.reference", c.Offset.Reference}, {"offset.other", c.Offset.Other}} {
			if j.cfg.Path == "" {
				return fmt.Errorf("%s.path is required when offset is enabled", j.key)
			}
			if j.cfg.OnsetPhase == "" || j.cfg.EndPhase == "" {
				return fmt.Errorf("%s.onset_phase and %s.end_phase are required when offset is enabled", j.key, j.key)
			}
			if j.cfg.OnsetPhase == j.cfg.EndPhase {
				return fmt.Errorf("%s.onset_phase and %s.end_phase must differ", j.key, j.key)
			}
		}
	}

	// Validate Display config
	if c.Display.WindowEnd <= c.Display.WindowStart {
		return fmt.Errorf("display.window_end must be greater than display.window_start")
	}

	return nil
}

// describe turns a validator failure into a message naming the config key.
func describe(fe validator.FieldError) error {
	key := fe.Namespace()
	if i := strings.Index(key, "."); i >= 0 {
		key = key[i+1:]
	}
	switch fe.Tag() {
	case "required":
		return fmt.Errorf("%s is required", key)
	case "oneof":
		return fmt.Errorf("%s must be one of: %s", key, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "min":
		return fmt.Errorf("%s must contain at least %s entries", key, fe.Param())
	case "unique":
		return fmt.Errorf("%s must not contain duplicates", key)
	case "gte":
		return fmt.Errorf("%s must be at least %s", key, fe.Param())
	case "lte":
		return fmt.Errorf("%s must be at most %s", key, fe.Param())
	default:
		return fmt.Errorf("%s failed %s validation", key, fe.Tag())
	}
}
