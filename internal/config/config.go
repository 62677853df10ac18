// Package config loads .safemig.yml and resolves it into an immutable
// per-run snapshot.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"go.yaml.in/yaml/v3"
)

// Config holds all safemig configuration as written in .safemig.yml.
type Config struct {
	Vendor        string                 `yaml:"vendor"`
	ChangesetDir  string                 `yaml:"changeset_dir"`
	Defaults      Defaults               `yaml:"defaults"`
	Rules         RuleConfig             `yaml:"rules"`
	Categories    CategoryConfig         `yaml:"categories"`
	Scopes        map[string]ScopeConfig `yaml:"scopes"`
	ExcludeScopes []string               `yaml:"exclude_scopes"`
	FailOnWarning bool                   `yaml:"fail_on_warning"`
}

// Defaults holds default CLI flag values.
type Defaults struct {
	Format string `yaml:"format"`
}

// RuleConfig lists rule-id disables and severity overrides.
type RuleConfig struct {
	Disabled []string          `yaml:"disabled"`
	Severity map[string]string `yaml:"severity"`
}

// CategoryConfig holds a category whitelist and blacklist. A non-empty
// whitelist enables only rules belonging to the listed categories.
type CategoryConfig struct {
	Enabled  []string `yaml:"enabled"`
	Disabled []string `yaml:"disabled"`
}

// ScopeConfig overrides rule handling for one scope.
type ScopeConfig struct {
	Disabled   []string          `yaml:"disabled"`
	Categories CategoryConfig    `yaml:"categories"`
	Severity   map[string]string `yaml:"severity"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() Config {
	return Config{
		Vendor:       "postgresql",
		ChangesetDir: "changesets",
		Defaults: Defaults{
			Format: "console",
		},
	}
}

// Load reads configuration from .safemig.yml in the given directory,
// falling back to ~/.safemig.yml. Returns DefaultConfig if no file is
// found.
func Load(dir string) (Config, error) {
	cfg := DefaultConfig()

	paths := []string{filepath.Join(dir, ".safemig.yml")}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".safemig.yml"))
	}

	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
		return cfg, nil
	}

	return cfg, nil
}
