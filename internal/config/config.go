package config

import (
	"fmt"
	"os"
	"runtime"

	"gopkg.in/yaml.v3"
)

// Config represents the codesketch.yaml configuration.
type Config struct {
	Repo       string       `yaml:"repo"`
	Ignore     []string     `yaml:"ignore"`
	Extractors []string     `yaml:"extractors"`
	Plugins    []string     `yaml:"plugins"`
	Workers    int          `yaml:"workers"`
	Output     OutputConfig `yaml:"output"`
}

// OutputConfig controls where output artifacts are written.
type OutputConfig struct {
	Dir string `yaml:"dir"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Repo: ".",
		Ignore: []string{
			"node_modules/**",
			"vendor/**",
			".git/**",
			"**/__pycache__/**",
			"**/*.min.js",
			"dist/**",
			"build/**",
			".codesketch/**",
		},
		Extractors: []string{"python", "javascript", "typescript"},
		Plugins:    []string{"complexity_analyzer"},
		Workers:    runtime.NumCPU(),
		Output: OutputConfig{
			Dir: ".codesketch",
		},
	}
}

// Load reads a configuration file from the given path.
// Missing fields are filled with defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	// Ensure required defaults
	if cfg.Output.Dir == "" {
		cfg.Output.Dir = ".codesketch"
	}
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}

	return cfg, nil
}

// IsExtractorEnabled returns true if the named extractor is enabled.
func (c *Config) IsExtractorEnabled(name string) bool {
	return contains(c.Extractors, name)
}

// IsPluginEnabled returns true if the named plugin is enabled.
func (c *Config) IsPluginEnabled(id string) bool {
	return contains(c.Plugins, id)
}

func contains(ss []string, s string) bool {
	for _, v := range ss {
		if v == s {
			return true
		}
	}
	return false
}
