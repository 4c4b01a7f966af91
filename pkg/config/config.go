// Package config provides configuration loading and management for
// ctparticles. It handles loading configuration from YAML files and
// provides default values.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"ctparticles/pkg/contacts"
	"ctparticles/pkg/optimizer"
	"ctparticles/pkg/volume"
)

// Config represents the application configuration loaded from YAML.
type Config struct {
	// Split parameters for the erosion-watershed particle splitter.
	Split struct {
		// Radii is the ascending candidate erosion radius sequence.
		Radii []int `yaml:"radii"`

		// Connectivity for seed labeling and watershed growth
		// (6, 18 or 26).
		Connectivity int `yaml:"connectivity"`
	} `yaml:"split"`

	// Contacts parameters for contact counting.
	Contacts struct {
		// Connectivity for the contact-counting neighborhood
		// (6, 18 or 26); independent from the split connectivity.
		Connectivity int `yaml:"connectivity"`
	} `yaml:"contacts"`

	// Guard parameters for the guard-volume margin formula.
	Guard struct {
		// MarginMultiplier scales the largest particle's equivalent
		// radius into the margin width.
		MarginMultiplier float64 `yaml:"marginMultiplier"`

		// MinMarginVoxels is the absolute margin floor in voxels.
		MinMarginVoxels int `yaml:"minMarginVoxels"`

		// MaxMarginFraction caps the margin at this fraction of every
		// volume dimension.
		MaxMarginFraction float64 `yaml:"maxMarginFraction"`
	} `yaml:"guard"`

	// Selection parameters for the radius selector.
	Selection struct {
		// TauRatio is the maximum acceptable dominance ratio.
		TauRatio float64 `yaml:"tauRatio"`

		// ContactMin and ContactMax bound the plausible mean
		// coordination number.
		ContactMin float64 `yaml:"contactMin"`
		ContactMax float64 `yaml:"contactMax"`

		// SmoothingWindow is an optional odd moving-average width for
		// the particle-count curve (0 = disabled).
		SmoothingWindow int `yaml:"smoothingWindow"`

		// TargetContacts is the Pareto-fallback tie-break reference.
		TargetContacts float64 `yaml:"targetContacts"`
	} `yaml:"selection"`

	// Output parameters.
	Output struct {
		// RetainBestLabels recomputes and keeps the best radius's
		// label volume on the summary.
		RetainBestLabels bool `yaml:"retainBestLabels"`

		// Verbose controls the level of logging output.
		Verbose bool `yaml:"verbose"`
	} `yaml:"output"`
}

// DefaultConfig returns a configuration with default values.
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Split.Radii = []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	cfg.Split.Connectivity = 6

	cfg.Contacts.Connectivity = 26

	cfg.Guard.MarginMultiplier = 0.3
	cfg.Guard.MinMarginVoxels = 10
	cfg.Guard.MaxMarginFraction = 0.06

	cfg.Selection.TauRatio = 0.03
	cfg.Selection.ContactMin = 5
	cfg.Selection.ContactMax = 9
	cfg.Selection.SmoothingWindow = 0
	cfg.Selection.TargetContacts = 6.0

	cfg.Output.RetainBestLabels = false
	cfg.Output.Verbose = true

	return cfg
}

// LoadConfig loads configuration from a YAML file. If the file
// doesn't exist, it returns the default configuration.
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

	return cfg, nil
}

// SaveConfig saves the configuration to a YAML file.
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

// CreateDefaultConfigFile creates a default configuration file at the
// specified path.
func CreateDefaultConfigFile(configPath string) error {
	return SaveConfig(DefaultConfig(), configPath)
}

// OptimizerParams converts the configuration into optimizer run
// parameters.
func (c *Config) OptimizerParams() *optimizer.Params {
	return &optimizer.Params{
		Radii:               append([]int(nil), c.Split.Radii...),
		SplitConnectivity:   volume.Connectivity(c.Split.Connectivity),
		ContactConnectivity: volume.Connectivity(c.Contacts.Connectivity),
		Guard: contacts.GuardPolicy{
			MarginMultiplier:  c.Guard.MarginMultiplier,
			MinMarginVoxels:   c.Guard.MinMarginVoxels,
			MaxMarginFraction: c.Guard.MaxMarginFraction,
		},
		Selection: optimizer.SelectionPolicy{
			TauRatio:        c.Selection.TauRatio,
			ContactRange:    [2]float64{c.Selection.ContactMin, c.Selection.ContactMax},
			SmoothingWindow: c.Selection.SmoothingWindow,
			TargetContacts:  c.Selection.TargetContacts,
		},
		RetainBestLabels: c.Output.RetainBestLabels,
	}
}
