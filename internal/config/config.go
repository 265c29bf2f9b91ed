// Package config carries the tunables of a pipeline run: the channel grid,
// reconciliation thresholds, interval bounds, the source coordinate and
// logging. Values layer as env vars over an optional pasc.yaml over
// defaults.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// ConfigFilename is the optional per-directory overlay file.
const ConfigFilename = "pasc.yaml"

// Config represents the complete application configuration.
type Config struct {
	// DataRoot is joined with the -d argument to locate the working
	// directory.
	DataRoot string `yaml:"data_root" envconfig:"DATA_ROOT" default:"."`

	// Timezone is the IANA zone the summarized reports localize to.
	Timezone string `yaml:"timezone" envconfig:"TIMEZONE" default:"US/Pacific" validate:"required"`

	Pipeline PipelineConfig `yaml:"pipeline" envconfig:"PIPELINE"`
	Source   SourceConfig   `yaml:"source" envconfig:"SOURCE"`
	Logging  LoggingConfig  `yaml:"logging" envconfig:"LOGGING"`
}

// PipelineConfig contains the reconciliation and resampling tunables.
type PipelineConfig struct {
	// GridInterval is the per-channel aggregation grid applied before the
	// A/B merge.
	GridInterval time.Duration `yaml:"grid_interval" envconfig:"GRID_INTERVAL" default:"5m" validate:"gt=0"`

	// AbsThreshold and RelThreshold bound the channel disagreement test:
	// a pair is rejected when the absolute difference reaches
	// AbsThreshold or the relative difference reaches RelThreshold.
	AbsThreshold float64 `yaml:"abs_threshold" envconfig:"ABS_THRESHOLD" default:"5.0" validate:"gt=0"`
	RelThreshold float64 `yaml:"rel_threshold" envconfig:"REL_THRESHOLD" default:"0.70" validate:"gt=0,lte=1"`

	// MinDelta and MaxDelta bound the consecutive-timestamp deltas that
	// count toward the native interval estimate.
	MinDelta time.Duration `yaml:"min_delta" envconfig:"MIN_DELTA" default:"10s" validate:"gt=0"`
	MaxDelta time.Duration `yaml:"max_delta" envconfig:"MAX_DELTA" default:"10h" validate:"gtfield=MinDelta"`

	// TrimFactor is the second-pass cutoff multiplier over the first-pass
	// mean delta.
	TrimFactor float64 `yaml:"trim_factor" envconfig:"TRIM_FACTOR" default:"1.2" validate:"gte=1"`

	// MinConcentration and MaxConcentration bound plausible summarized
	// PM2.5 readings; rows outside are dropped from the summary.
	MinConcentration float64 `yaml:"min_concentration" envconfig:"MIN_CONCENTRATION" default:"0"`
	MaxConcentration float64 `yaml:"max_concentration" envconfig:"MAX_CONCENTRATION" default:"1000" validate:"gtfield=MinConcentration"`
}

// SourceConfig contains the fixed coordinate for upwind/downwind
// attribution.
type SourceConfig struct {
	Lat float64 `yaml:"lat" envconfig:"LAT" default:"33.7555312" validate:"gte=-90,lte=90"`
	Lon float64 `yaml:"lon" envconfig:"LON" default:"-117.481027" validate:"gte=-180,lte=180"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level" envconfig:"LEVEL" default:"info" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" envconfig:"FORMAT" default:"text" validate:"oneof=text json"`
}

// Load loads configuration from the environment and the optional overlay
// file in the current directory.
func Load() (*Config, error) {
	// A .env next to the binary is a convenience, not a requirement.
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("PASC", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	overlay := ConfigFilename
	if _, err := os.Stat(overlay); err == nil {
		if err := loadFromFile(overlay, &cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from %s: %w", overlay, err)
		}
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

// loadFromFile overlays values from a YAML file onto the config. Zero
// values in the file leave the existing value in place only when the file
// omits the key, which yaml.Unmarshal handles by not touching absent
// fields.
func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}
