// Package config loads the optional crates-mcp configuration file.
// Absence of a file means defaults; nothing here is required for the
// server to run.
package config

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the optional YAML configuration for the server
type Config struct {
	// DisabledTools lists tool names removed from the catalog. A
	// disabled tool is absent from tools/list and unknown to tools/call.
	DisabledTools []string `yaml:"disabled_tools"`

	// Search bounds the search_crates limit argument
	Search SearchConfig `yaml:"search"`
}

// SearchConfig bounds the search_crates limit argument
type SearchConfig struct {
	DefaultLimit int `yaml:"default_limit"`
	MaxLimit     int `yaml:"max_limit"`
}

// crates.io serves at most 100 results per page
const upstreamMaxPerPage = 100

// Default returns the configuration used when no file is given
func Default() *Config {
	return &Config{
		Search: SearchConfig{
			DefaultLimit: 10,
			MaxLimit:     upstreamMaxPerPage,
		},
	}
}

// LoadFile loads configuration from a YAML file. An empty path or a
// missing file yields the defaults.
func LoadFile(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, fmt.Errorf("error opening config file: %w", err)
	}
	defer f.Close()

	return Load(f)
}

// Load loads configuration from an io.Reader
func Load(r io.Reader) (*Config, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("error reading config data: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config YAML: %w", err)
	}

	if cfg.Search.DefaultLimit <= 0 {
		cfg.Search.DefaultLimit = Default().Search.DefaultLimit
	}
	if cfg.Search.MaxLimit <= 0 || cfg.Search.MaxLimit > upstreamMaxPerPage {
		cfg.Search.MaxLimit = upstreamMaxPerPage
	}
	return cfg, nil
}

// IsToolDisabled checks if a tool name is in the disabled list
func (c *Config) IsToolDisabled(name string) bool {
	for _, disabled := range c.DisabledTools {
		if disabled == name {
			return true
		}
	}
	return false
}
