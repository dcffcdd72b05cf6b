package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config mirrors the -out/-plot/-scale flags, letting a run be checked
// into version control and replayed instead of retyped on the command
// line every time.
type Config struct {
	Out   string `yaml:"out"`
	Plot  string `yaml:"plot"`
	Scale int    `yaml:"scale"`
}

// loadConfig reads a YAML config file at path. An empty path returns the
// zero Config and no error.
func loadConfig(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("bench: read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("bench: parse config %s: %w", path, err)
	}
	return cfg, nil
}
