// Package config locates and loads the per-user configuration for cm.
// The config file holds the paths of the connection database and the
// secret key file; defaults are written on first run.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ConfigFileName is the YAML file created under the cm config directory.
const ConfigFileName = "config.yaml"

// Default file names inside the config directory.
const (
	DBFileName  = "cm.db"
	KeyFileName = "cm.key"
)

// Config carries the explicit paths threaded into the store and cipher
// constructors at startup.
type Config struct {
	DBPath  string `yaml:"db_path"`
	KeyPath string `yaml:"key_path"`
}

// Dir returns the cm configuration directory, honoring XDG_CONFIG_HOME
// and falling back to ~/.config.
func Dir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "cm"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("config: failed to resolve home directory: %w", err)
	}
	return filepath.Join(home, ".config", "cm"), nil
}

// Load reads the configuration from dir, creating the directory and a
// default config file on first run. Relative and ~-prefixed paths in the
// file are expanded.
func Load(dir string) (*Config, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("config: failed to create config directory: %w", err)
	}

	path := filepath.Join(dir, ConfigFileName)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		cfg := defaults(dir)
		if err := write(path, cfg); err != nil {
			return nil, err
		}
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("config: failed to read %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse yaml %s: %w", path, err)
	}

	// Missing keys fall back to defaults next to the config file.
	def := defaults(dir)
	if strings.TrimSpace(cfg.DBPath) == "" {
		cfg.DBPath = def.DBPath
	}
	if strings.TrimSpace(cfg.KeyPath) == "" {
		cfg.KeyPath = def.KeyPath
	}
	cfg.DBPath = ExpandPath(cfg.DBPath)
	cfg.KeyPath = ExpandPath(cfg.KeyPath)
	return &cfg, nil
}

func defaults(dir string) *Config {
	return &Config{
		DBPath:  filepath.Join(dir, DBFileName),
		KeyPath: filepath.Join(dir, KeyFileName),
	}
}

func write(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("config: failed to marshal defaults: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("config: failed to write %s: %w", path, err)
	}
	return nil
}

// ExpandPath expands environment variables and a leading "~" in a path.
func ExpandPath(p string) string {
	if p == "" {
		return ""
	}
	p = os.ExpandEnv(p)
	if strings.HasPrefix(p, "~") {
		home, _ := os.UserHomeDir()
		if home != "" {
			if p == "~" {
				p = home
			} else if strings.HasPrefix(p, "~/") {
				p = filepath.Join(home, p[2:])
			}
		}
	}
	return p
}
