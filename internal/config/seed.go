package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Seed lists keywords and sources registered at startup.
//
//	keywords:
//	  - launch
//	  - outage
//	sources:
//	  - "@durov"
type Seed struct {
	Keywords []string `yaml:"keywords"`
	Sources  []string `yaml:"sources"`
}

// LoadSeed parses the seed file at path. An empty path yields an empty seed.
func LoadSeed(path string) (*Seed, error) {
	if path == "" {
		return &Seed{}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}

	var seed Seed
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}

	return &seed, nil
}
