// Package config handles prioritizer configuration loading, following
// the teacher's YAML-backed Config/DefaultConfig shape.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/hdfm-sec/prioritizer/pkg/threatintel"
)

// PortConfig holds the base URL and per-call timeout for one outbound
// port (spec.md §5, §6).
type PortConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

// Config is the top-level prioritizer configuration.
type Config struct {
	OSV          PortConfig            `yaml:"osv"`
	DepsDev      PortConfig            `yaml:"deps_dev"`
	EPSS         PortConfig            `yaml:"epss"`
	KEV          PortConfig            `yaml:"kev"`
	KEVFrequency threatintel.Frequency `yaml:"kev_frequency"`
	DBPath       string                `yaml:"db_path"`
}

// DefaultConfig mirrors the teacher's feeds.DefaultConfig shape: a
// fully populated, ready-to-use default.
func DefaultConfig() *Config {
	return &Config{
		OSV: PortConfig{
			BaseURL: "https://api.osv.dev",
			Timeout: 30 * time.Second,
		},
		DepsDev: PortConfig{
			BaseURL: "https://api.deps.dev/v3alpha",
			Timeout: 2 * time.Second,
		},
		EPSS: PortConfig{
			BaseURL: "https://api.first.org/data/v1",
			Timeout: 5 * time.Second,
		},
		KEV: PortConfig{
			BaseURL: "https://www.cisa.gov/sites/default/files/feeds/known_exploited_vulnerabilities.json",
			Timeout: 10 * time.Second,
		},
		KEVFrequency: threatintel.FreqDaily,
		DBPath:       ".hdfm/analyses.db",
	}
}

// Load reads a YAML config file, falling back to DefaultConfig values
// when the file does not exist.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}

// Save writes the config to path as YAML.
func Save(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}
