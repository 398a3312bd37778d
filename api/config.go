// ABOUTME: Server configuration loaded from CICD_* environment variables.
// ABOUTME: Resolves the bind address, data directory, and step shell with sensible defaults.
package api

import (
	"os"
	"path/filepath"
)

// Config holds server configuration loaded from environment variables.
type Config struct {
	Bind    string // socket address (CICD_BIND, default: 127.0.0.1:8080)
	DataDir string // state directory (CICD_DATA_DIR, default: ~/.custom-cicd)
	Shell   string // step interpreter override (CICD_SHELL, default: sh)
	WorkDir string // working directory for step commands (CICD_WORKDIR)
}

// ConfigFromEnv loads configuration from CICD_* environment variables.
func ConfigFromEnv() Config {
	dataDir := os.Getenv("CICD_DATA_DIR")
	if dataDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			homeDir = "/tmp"
		}
		dataDir = filepath.Join(homeDir, ".custom-cicd")
	}

	return Config{
		Bind:    envOrDefault("CICD_BIND", "127.0.0.1:8080"),
		DataDir: dataDir,
		Shell:   os.Getenv("CICD_SHELL"),
		WorkDir: os.Getenv("CICD_WORKDIR"),
	}
}

// StorePath returns the SQLite database location under the data directory.
func (c Config) StorePath() string {
	return filepath.Join(c.DataDir, "agent.db")
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
