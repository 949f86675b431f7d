package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultPath is the config file looked up in the working directory when
// neither the flag nor AETHERPROV_CONFIG names one.
const DefaultPath = "aetherprov.yaml"

// EnvConfigPath overrides the config location when the flag is not given.
const EnvConfigPath = "AETHERPROV_CONFIG"

// Load reads a YAML config file, expands ${VAR} references, and unmarshals
// over the defaults, so missing keys keep their stock values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found: %s", path)
		}
		return nil, fmt.Errorf("cannot read config file %q: %w", path, err)
	}

	expanded := ExpandEnv(string(data))

	cfg := Default()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("invalid YAML in %s: %w", path, err)
	}
	return cfg, nil
}

// Resolve finds the effective config: the explicit path if given, else
// $AETHERPROV_CONFIG, else ./aetherprov.yaml if present, else defaults.
// Only an explicitly named file is required to exist.
func Resolve(path string) (*Config, error) {
	if path != "" {
		return Load(path)
	}
	if env := os.Getenv(EnvConfigPath); env != "" {
		return Load(env)
	}
	if _, err := os.Stat(DefaultPath); err == nil {
		return Load(DefaultPath)
	}
	return Default(), nil
}
