package config

import (
	"bytes"
	"fmt"
	"os"

	"github.com/dgallion1/docoutline/internal/hierarchy"
	"gopkg.in/yaml.v3"
)

// LoadHierarchyProfile returns the engine defaults overlaid with the YAML file
// at path. Keys absent from the file keep their defaults; unknown keys are an
// error. An empty path yields the defaults.
func LoadHierarchyProfile(path string) (hierarchy.Config, error) {
	cfg := hierarchy.DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read hierarchy profile: %w", err)
	}
	return ParseHierarchyProfile(data)
}

// ParseHierarchyProfile overlays YAML thresholds on the engine defaults.
func ParseHierarchyProfile(data []byte) (hierarchy.Config, error) {
	cfg := hierarchy.DefaultConfig()
	if len(bytes.TrimSpace(data)) == 0 {
		return cfg, nil
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("parse hierarchy profile: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("hierarchy profile: %w", err)
	}
	return cfg, nil
}

// HierarchyConfig resolves the engine thresholds for the service.
func (c Config) HierarchyConfig() (hierarchy.Config, error) {
	hc, err := LoadHierarchyProfile(c.HierarchyProfile)
	if err != nil {
		return hc, err
	}
	if c.BuildWorkers > 0 {
		hc.Workers = c.BuildWorkers
	}
	return hc, nil
}
