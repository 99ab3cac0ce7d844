package adapter

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"
)

// Adapter types understood by Build.
const (
	TypeICal   = "ical"
	TypePortal = "portal"
)

// Registration describes one named adapter instance in the adapters file.
type Registration struct {
	Name     string            `yaml:"name"`
	Type     string            `yaml:"type"`
	Settings map[string]string `yaml:"settings"`
}

// FileConfig is the decoded adapters file.
type FileConfig struct {
	Adapters []Registration `yaml:"adapters"`
}

// Factory builds an adapter from registration-level settings.
type Factory func(settings map[string]string) (Adapter, error)

// DefaultConfig registers one adapter per built-in type, named after the type.
func DefaultConfig() FileConfig {
	return FileConfig{Adapters: []Registration{
		{Name: TypeICal, Type: TypeICal},
		{Name: TypePortal, Type: TypePortal},
	}}
}

// LoadConfig reads the adapters file. A missing file yields DefaultConfig.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return DefaultConfig(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return DefaultConfig(), nil
		}
		return FileConfig{}, fmt.Errorf("read adapters config: %w", err)
	}
	return ParseConfig(raw)
}

// ParseConfig decodes and validates adapters YAML.
func ParseConfig(raw []byte) (FileConfig, error) {
	var cfg FileConfig
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return FileConfig{}, fmt.Errorf("decode adapters config: %w", err)
	}
	for i, reg := range cfg.Adapters {
		if reg.Name == "" {
			return FileConfig{}, fmt.Errorf("adapters[%d]: name required", i)
		}
		if reg.Type == "" {
			cfg.Adapters[i].Type = reg.Name
		}
	}
	return cfg, nil
}

// Build instantiates every registration with the factory of its type.
func Build(cfg FileConfig, factories map[string]Factory) (*Registry, error) {
	registry := NewRegistry()
	for _, reg := range cfg.Adapters {
		factory, ok := factories[reg.Type]
		if !ok {
			return nil, fmt.Errorf("adapter %q: unknown type %q", reg.Name, reg.Type)
		}
		a, err := factory(reg.Settings)
		if err != nil {
			return nil, fmt.Errorf("adapter %q: %w", reg.Name, err)
		}
		if err := registry.Register(reg.Name, reg.Type, a); err != nil {
			return nil, err
		}
	}
	return registry, nil
}
