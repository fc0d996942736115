// Package config loads engine settings from a YAML file, filling in
// defaults for anything the file leaves out.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds the tunable engine settings.
type Config struct {
	// UpdateRate is how many times per second the renderer refreshes its
	// view of the simulation and recomputes draw batches.
	UpdateRate uint `yaml:"update_rate"`

	// FPSLimit caps presented frames per second. Zero means uncapped.
	FPSLimit uint `yaml:"fps_limit"`

	// CullingRadiusPadding widens the camera-derived culling range by a
	// fixed number of hexes.
	CullingRadiusPadding uint `yaml:"culling_radius_padding"`

	// MSAASampleCount is the sample count of the GUI pass target. Must be
	// a count the adapter supports; 1 disables multisampling.
	MSAASampleCount uint32 `yaml:"msaa_sample_count"`

	// ScreenshotDir is where captured frames are written.
	ScreenshotDir string `yaml:"screenshot_dir"`

	// LogLevel selects the logging verbosity: debug, info, warn or error.
	LogLevel string `yaml:"log_level"`
}

// Default returns the settings used when no config file is present.
//
// Returns:
//   - Config: the default configuration
func Default() Config {
	return Config{
		UpdateRate:      60,
		FPSLimit:        0,
		MSAASampleCount: 4,
		ScreenshotDir:   "screenshots",
		LogLevel:        "info",
	}
}

// Load reads the config file at path on top of the defaults. A missing
// file is not an error; a malformed one is.
//
// Parameters:
//   - path: filesystem path of the YAML config file
//
// Returns:
//   - Config: the merged configuration
//   - error: read or parse failure
func Load(path string) (Config, error) {
	cfg := Default()

	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("config: reading %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	return cfg, cfg.validate()
}

func (c Config) validate() error {
	if c.UpdateRate == 0 {
		return fmt.Errorf("config: update_rate must be positive")
	}
	switch c.MSAASampleCount {
	case 1, 2, 4, 8:
	default:
		return fmt.Errorf("config: msaa_sample_count %d is not a power of two up to 8", c.MSAASampleCount)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: unknown log_level %q", c.LogLevel)
	}
	return nil
}
