// ABOUTME: CLI configuration persisted as YAML under ~/.custom-cicd/config.yaml.
// ABOUTME: Resolution order is flag, then CICD_API_URL, then the config file, then the default.
package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultAPIURL is used when no configuration source names an agent address.
const DefaultAPIURL = "http://127.0.0.1:8080"

// Config holds persisted CLI settings.
type Config struct {
	APIURL string `yaml:"api_url"`
}

// DefaultConfig returns the built-in settings.
func DefaultConfig() Config {
	return Config{APIURL: DefaultAPIURL}
}

// ConfigPath returns the location of the config file.
func ConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".custom-cicd", "config.yaml"), nil
}

// LoadConfig reads the config file, returning defaults if it does not exist.
func LoadConfig() (Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return DefaultConfig(), err
	}
	return loadConfigFrom(path)
}

func loadConfigFrom(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return DefaultConfig(), fmt.Errorf("parse config %s: %w", path, err)
	}
	if cfg.APIURL == "" {
		cfg.APIURL = DefaultAPIURL
	}
	return cfg, nil
}

// SaveConfig writes the config file, creating its directory if needed.
func SaveConfig(cfg Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return saveConfigTo(path, cfg)
}

func saveConfigTo(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// resolveAPIURL applies the resolution order for the agent address.
func resolveAPIURL(flagValue string, cfg Config) string {
	if flagValue != "" {
		return flagValue
	}
	if env := os.Getenv("CICD_API_URL"); env != "" {
		return env
	}
	if cfg.APIURL != "" {
		return cfg.APIURL
	}
	return DefaultAPIURL
}
