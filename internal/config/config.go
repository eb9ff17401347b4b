// Package config loads the project-level synchronization settings file.
// Everything has a default; a project without a config file syncs fine.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the on-disk settings shape, conventionally ots.yaml in the
// project directory.
type Config struct {
	// Project names the design; it ends up in symbol instance blocks and
	// the project index filename.
	Project string `yaml:"project"`

	// Libraries lists directories searched for .kicad_sym files, in order.
	// The built-in symbol table backs them up.
	Libraries []string `yaml:"libraries"`

	// Placement controls where newly added components land.
	Placement Placement `yaml:"placement"`

	// Parallel bounds concurrent sheet syncs. Zero means the default.
	Parallel int `yaml:"parallel"`
}

// Placement is the default-position policy for added components.
type Placement struct {
	OriginX float64 `yaml:"origin_x"`
	OriginY float64 `yaml:"origin_y"`
	Step    float64 `yaml:"step"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		Project: "project",
		Placement: Placement{
			OriginX: 25.4,
			OriginY: 25.4,
			Step:    12.7,
		},
		Parallel: 4,
	}
}

// Load reads a config file, layering it over the defaults. A missing file
// is not an error; a malformed one is.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, err
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	if cfg.Project == "" {
		cfg.Project = "project"
	}
	if cfg.Placement.Step <= 0 {
		cfg.Placement.Step = 12.7
	}
	if cfg.Parallel < 1 {
		cfg.Parallel = 1
	}
	return cfg, nil
}
