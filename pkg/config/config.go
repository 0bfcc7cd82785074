// Package config provides configuration loading and management for isovolume.
// It handles loading configuration from YAML files and provides default values.
package config

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"isovolume/internal/models"
	"isovolume/pkg/interpolation"
)

// Config represents the application configuration loaded from YAML
type Config struct {
	// Volume describes the input dataset
	Volume struct {
		// Model names an entry of the built-in catalog, used when Path is empty
		Model string `yaml:"model"`

		// Path is a raw volume file; dimensions are parsed from a
		// Name_X_Y_Z.raw file name when X, Y and Z are zero
		Path string `yaml:"path"`

		// X, Y, Z are the sample counts along each axis
		X int `yaml:"x"`
		Y int `yaml:"y"`
		Z int `yaml:"z"`

		// VoxelSize is the physical size of one sample in mm
		VoxelSize struct {
			X float64 `yaml:"x"`
			Y float64 `yaml:"y"`
			Z float64 `yaml:"z"`
		} `yaml:"voxelSize"`
	} `yaml:"volume"`

	// Extraction parameters
	Extraction struct {
		// Cuts is the number of resampled lattice points per axis
		Cuts int `yaml:"cuts"`

		// Native skips resampling and marches the raw samples
		Native bool `yaml:"native"`

		// Level is the iso-level in [0,1]; "auto" picks the Otsu threshold
		Level string `yaml:"level"`

		// Border is "closed" to seal surfaces at the volume boundary or
		// "open" to leave them cut
		Border string `yaml:"border"`

		// Workers specifies how many goroutines march cells concurrently
		Workers int `yaml:"workers"`

		// Smooth is the Gaussian pre-smoothing sigma in voxels; 0 disables it
		Smooth float64 `yaml:"smooth"`
	} `yaml:"extraction"`

	// Output parameters
	Output struct {
		// STL is the path of the exported surface
		STL string `yaml:"stl"`

		// ASCII writes text STL instead of binary
		ASCII bool `yaml:"ascii"`

		// Buffer, when set, receives the interleaved float32 vertex buffer
		Buffer string `yaml:"buffer"`

		// Preview, when set, receives a shaded PNG of the surface
		Preview string `yaml:"preview"`

		// Histogram, when set, receives a plot of the intensity distribution
		Histogram string `yaml:"histogram"`

		// SlicesDir receives JPEG slices when slice extraction is enabled
		SlicesDir string `yaml:"slicesDir"`

		// Verbose controls the level of logging output
		Verbose bool `yaml:"verbose"`
	} `yaml:"output"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	// Set default volume parameters
	cfg.Volume.Model = "Bucky"
	cfg.Volume.VoxelSize.X = 1.0
	cfg.Volume.VoxelSize.Y = 1.0
	cfg.Volume.VoxelSize.Z = 1.0

	// Set default extraction parameters
	cfg.Extraction.Cuts = 100
	cfg.Extraction.Level = "0.1"
	cfg.Extraction.Border = interpolation.BorderClosed.String()
	cfg.Extraction.Workers = runtime.NumCPU() // Use all available cores by default

	// Set default output parameters
	cfg.Output.STL = "output.stl"
	cfg.Output.SlicesDir = "slices"
	cfg.Output.Verbose = true

	return cfg
}

// LoadConfig loads configuration from a YAML file
// If the file doesn't exist, it returns the default configuration
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	// Check if config file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	// Read config file
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	// Parse YAML
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	return cfg, nil
}

// SaveConfig saves the configuration to a YAML file
func SaveConfig(cfg *Config, configPath string) error {
	// Create directory if it doesn't exist
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	// Marshal config to YAML
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	// Write to file
	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}

// CreateDefaultConfigFile creates a default configuration file at the specified path
func CreateDefaultConfigFile(configPath string) error {
	cfg := DefaultConfig()
	return SaveConfig(cfg, configPath)
}

// Validate checks that the configuration describes a runnable extraction
func (c *Config) Validate() error {
	if c.Volume.Path == "" {
		if _, ok := models.LookupModel(c.Volume.Model); !ok {
			return fmt.Errorf("unknown model %q (available: %v)", c.Volume.Model, models.CatalogNames())
		}
	}

	if !c.Extraction.Native && c.Extraction.Cuts < interpolation.MinCuts {
		return fmt.Errorf("cuts must be at least %d, got %d", interpolation.MinCuts, c.Extraction.Cuts)
	}

	if _, err := interpolation.ParseBorder(c.Extraction.Border); err != nil {
		return err
	}

	if _, _, err := c.ParseLevel(); err != nil {
		return err
	}

	if c.Extraction.Workers < 1 {
		return fmt.Errorf("workers must be positive, got %d", c.Extraction.Workers)
	}

	if c.Extraction.Smooth < 0 || math.IsNaN(c.Extraction.Smooth) {
		return fmt.Errorf("smooth must be zero or positive, got %v", c.Extraction.Smooth)
	}

	if c.Volume.VoxelSize.X <= 0 || c.Volume.VoxelSize.Y <= 0 || c.Volume.VoxelSize.Z <= 0 {
		return fmt.Errorf("voxel size must be positive")
	}

	return nil
}

// ParseLevel interprets Extraction.Level. auto is true for "auto", in which
// case the level is chosen from the loaded volume.
func (c *Config) ParseLevel() (level float64, auto bool, err error) {
	if strings.EqualFold(c.Extraction.Level, "auto") {
		return 0, true, nil
	}
	level, err = strconv.ParseFloat(c.Extraction.Level, 64)
	if err != nil {
		return 0, false, fmt.Errorf("invalid level %q (must be a number or auto)", c.Extraction.Level)
	}
	return level, false, nil
}

// ResolveVolume returns the model to load: the explicit path when set,
// otherwise the catalog entry. Zero dimensions are parsed from the file name.
func (c *Config) ResolveVolume() (models.Volume, error) {
	var v models.Volume
	v.VoxelSize.X = c.Volume.VoxelSize.X
	v.VoxelSize.Y = c.Volume.VoxelSize.Y
	v.VoxelSize.Z = c.Volume.VoxelSize.Z

	if c.Volume.Path == "" {
		m, ok := models.LookupModel(c.Volume.Model)
		if !ok {
			return v, fmt.Errorf("unknown model %q (available: %v)", c.Volume.Model, models.CatalogNames())
		}
		v.Model = m
		return v, nil
	}

	if c.Volume.X > 0 && c.Volume.Y > 0 && c.Volume.Z > 0 {
		v.Model = models.ModelName{
			Name: filepath.Base(c.Volume.Path),
			Path: c.Volume.Path,
			X:    c.Volume.X,
			Y:    c.Volume.Y,
			Z:    c.Volume.Z,
		}
		return v, nil
	}

	m, err := models.ParseModelFilename(c.Volume.Path)
	if err != nil {
		return v, fmt.Errorf("volume dimensions not set: %w", err)
	}
	v.Model = m
	return v, nil
}
