// ABOUTME: Tests for server flag parsing and .env loading.
package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestParseFlagsDefaults(t *testing.T) {
	t.Setenv("CICD_BIND", "")
	t.Setenv("CICD_DATA_DIR", "")
	t.Setenv("CICD_SHELL", "")
	t.Setenv("CICD_WORKDIR", "")

	cfg, showVersion := parseFlags(nil)
	if showVersion {
		t.Error("version flag should default to false")
	}
	if cfg.Bind != "127.0.0.1:8080" {
		t.Errorf("bind = %q", cfg.Bind)
	}
	if cfg.DataDir == "" {
		t.Error("data dir empty")
	}
}

func TestParseFlagsOverrideEnv(t *testing.T) {
	t.Setenv("CICD_BIND", "127.0.0.1:9999")

	cfg, _ := parseFlags([]string{"-bind", "0.0.0.0:7777"})
	if cfg.Bind != "0.0.0.0:7777" {
		t.Errorf("flag should beat env, got %q", cfg.Bind)
	}

	cfg, _ = parseFlags(nil)
	if cfg.Bind != "127.0.0.1:9999" {
		t.Errorf("env should beat default, got %q", cfg.Bind)
	}
}

func TestLoadDotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	content := "# comment\nCICD_TEST_A=one\nexport CICD_TEST_B=\"two\"\nCICD_TEST_C='three'\nbroken line\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("CICD_TEST_C", "preset")
	os.Unsetenv("CICD_TEST_A")
	os.Unsetenv("CICD_TEST_B")
	t.Cleanup(func() {
		os.Unsetenv("CICD_TEST_A")
		os.Unsetenv("CICD_TEST_B")
	})

	loadDotEnv(path)

	if got := os.Getenv("CICD_TEST_A"); got != "one" {
		t.Errorf("A = %q", got)
	}
	if got := os.Getenv("CICD_TEST_B"); got != "two" {
		t.Errorf("B = %q, want quotes stripped", got)
	}
	if got := os.Getenv("CICD_TEST_C"); got != "preset" {
		t.Errorf("C = %q, existing env must not be clobbered", got)
	}
}

func TestLoadDotEnvMissingFile(t *testing.T) {
	// Must not panic or error.
	loadDotEnv(filepath.Join(t.TempDir(), "does-not-exist"))
}
