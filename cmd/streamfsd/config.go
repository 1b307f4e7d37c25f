package main

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the daemon configuration. A YAML file fills it first; explicit
// command-line flags override individual fields afterwards.
type Config struct {
	// Addr is the gateway listen address.
	Addr string `yaml:"addr"`
	// Data is the journal database path. Empty runs purely in memory.
	Data string `yaml:"data"`
	// ChunkSize overrides the default object chunk size, in bytes.
	ChunkSize int `yaml:"chunk_size"`
	// Debug enables debug logging.
	Debug bool `yaml:"debug"`
}

func defaultConfig() Config {
	return Config{
		Addr: ":9222",
	}
}

// loadConfig reads a YAML configuration file over cfg. Unknown fields are
// rejected so a typo fails loudly instead of being ignored.
func loadConfig(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return fmt.Errorf("parsing config %q: %w", path, err)
	}
	return nil
}
