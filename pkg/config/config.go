// Package config provides configuration loading and management for mprviewer.
// It handles loading configuration from YAML files and provides default values.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"mprviewer/pkg/window"
)

// Supported export formats.
const (
	FormatJPEG = "jpeg"
	FormatPNG  = "png"
)

// Config represents the application configuration loaded from YAML
type Config struct {
	// Viewer parameters
	Viewer struct {
		// Window is the initial brightness/contrast
		Window window.Settings `yaml:"window"`

		// Parallel extracts the three views concurrently
		Parallel bool `yaml:"parallel"`
	} `yaml:"viewer"`

	// Export parameters
	Export struct {
		// Format is either "jpeg" or "png"
		Format string `yaml:"format"`

		// Quality is the JPEG quality, 1 to 100
		Quality int `yaml:"quality"`

		// Crosshair overlays the cursor lines on exported slices
		Crosshair bool `yaml:"crosshair"`

		// OutputDir is where exported slices are written
		OutputDir string `yaml:"outputDir"`
	} `yaml:"export"`

	// Logging parameters
	Logging struct {
		Level string `yaml:"level"`
		File  string `yaml:"file"`
	} `yaml:"logging"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Viewer.Window = window.Default()
	cfg.Viewer.Parallel = true

	cfg.Export.Format = FormatPNG
	cfg.Export.Quality = 90
	cfg.Export.Crosshair = true
	cfg.Export.OutputDir = "mpr_views"

	cfg.Logging.Level = "info"

	return cfg
}

// Validate checks the values a config file may have set.
func (c *Config) Validate() error {
	if c.Viewer.Window.Contrast <= 0 || c.Viewer.Window.Contrast > window.MaxContrast {
		return fmt.Errorf("viewer.window.contrast %v outside (0, %v]", c.Viewer.Window.Contrast, window.MaxContrast)
	}
	if c.Viewer.Window.Brightness < window.MinBrightness || c.Viewer.Window.Brightness > window.MaxBrightness {
		return fmt.Errorf("viewer.window.brightness %v outside [%v, %v]",
			c.Viewer.Window.Brightness, window.MinBrightness, window.MaxBrightness)
	}
	switch c.Export.Format {
	case FormatJPEG, FormatPNG:
	default:
		return fmt.Errorf("export.format %q must be %q or %q", c.Export.Format, FormatJPEG, FormatPNG)
	}
	if c.Export.Quality < 1 || c.Export.Quality > 100 {
		return fmt.Errorf("export.quality %d outside [1, 100]", c.Export.Quality)
	}
	return nil
}

// LoadConfig loads configuration from a YAML file
// If the file doesn't exist, it returns the default configuration
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", configPath, err)
	}

	return cfg, nil
}

// SaveConfig saves the configuration to a YAML file
func SaveConfig(cfg *Config, configPath string) error {
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}

// CreateDefaultConfigFile creates a default configuration file at the specified path
func CreateDefaultConfigFile(configPath string) error {
	return SaveConfig(DefaultConfig(), configPath)
}
