// ABOUTME: Tests for configuration loading and parsing
// ABOUTME: Covers YAML loading, env var expansion, defaults, and validation

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "caskd.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return configPath
}

const validConfig = `
server:
  http_addr: "127.0.0.1:8264"

database:
  path: "./cask.db"

storage:
  root: "./files"

auth:
  session_secret: "test-session-secret-32-bytes-ok!"
  cli_secret: "abc123"
  session_sweep_interval: "24h"

cors:
  allowed_origins:
    - "https://a.example"

webdav:
  enabled: true
  prefix: "/dav/"

logging:
  level: "debug"
  format: "json"
`

func TestLoad_ValidConfig(t *testing.T) {
	cfg, err := Load(writeConfig(t, validConfig))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.HTTPAddr != "127.0.0.1:8264" {
		t.Errorf("unexpected http_addr %q", cfg.Server.HTTPAddr)
	}
	if cfg.Auth.CLISecret != "abc123" {
		t.Errorf("unexpected cli_secret %q", cfg.Auth.CLISecret)
	}
	if cfg.Auth.SessionSweepInterval != 24*time.Hour {
		t.Errorf("unexpected session_sweep_interval %v", cfg.Auth.SessionSweepInterval)
	}
	if len(cfg.CORS.AllowedOrigins) != 1 || cfg.CORS.AllowedOrigins[0] != "https://a.example" {
		t.Errorf("unexpected allowed_origins %v", cfg.CORS.AllowedOrigins)
	}
	if !cfg.WebDAV.Enabled {
		t.Error("expected webdav enabled")
	}
}

func TestLoad_EnvExpansion(t *testing.T) {
	t.Setenv("TEST_CLI_SECRET", "from-env")

	content := strings.Replace(validConfig, `cli_secret: "abc123"`, `cli_secret: "${TEST_CLI_SECRET}"`, 1)
	cfg, err := Load(writeConfig(t, content))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Auth.CLISecret != "from-env" {
		t.Errorf("expected env-expanded secret, got %q", cfg.Auth.CLISecret)
	}
}

func TestLoad_UnsetEnvExpandsEmpty(t *testing.T) {
	content := strings.Replace(validConfig, `cli_secret: "abc123"`, `cli_secret: "${CASK_TEST_UNSET_VAR}"`, 1)
	cfg, err := Load(writeConfig(t, content))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	// An unset secret disables CLI access rather than failing the load.
	if cfg.Auth.CLISecret != "" {
		t.Errorf("expected empty cli_secret, got %q", cfg.Auth.CLISecret)
	}
}

func TestLoad_Defaults(t *testing.T) {
	content := strings.Replace(validConfig, `session_sweep_interval: "24h"`, "", 1)
	cfg, err := Load(writeConfig(t, content))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Auth.SessionSweepInterval != DefaultSessionSweepInterval {
		t.Errorf("expected default session_sweep_interval, got %v", cfg.Auth.SessionSweepInterval)
	}
	if cfg.Metrics.Path != "/metrics" {
		t.Errorf("expected default metrics path, got %q", cfg.Metrics.Path)
	}
}

func TestLoad_MissingHTTPAddr(t *testing.T) {
	content := strings.Replace(validConfig, `http_addr: "127.0.0.1:8264"`, "", 1)
	_, err := Load(writeConfig(t, content))
	if err == nil || !strings.Contains(err.Error(), "server.http_addr") {
		t.Errorf("expected http_addr validation error, got %v", err)
	}
}

func TestLoad_ShortSessionSecret(t *testing.T) {
	content := strings.Replace(validConfig, `session_secret: "test-session-secret-32-bytes-ok!"`, `session_secret: "short"`, 1)
	_, err := Load(writeConfig(t, content))
	if err == nil || !strings.Contains(err.Error(), "session_secret") {
		t.Errorf("expected session_secret validation error, got %v", err)
	}
}

func TestLoad_WebDAVRequiresStorageRoot(t *testing.T) {
	content := strings.Replace(validConfig, `root: "./files"`, "", 1)
	_, err := Load(writeConfig(t, content))
	if err == nil || !strings.Contains(err.Error(), "storage.root") {
		t.Errorf("expected storage.root validation error, got %v", err)
	}
}

func TestLoad_BadDuration(t *testing.T) {
	content := strings.Replace(validConfig, `session_sweep_interval: "24h"`, `session_sweep_interval: "soon"`, 1)
	_, err := Load(writeConfig(t, content))
	if err == nil || !strings.Contains(err.Error(), "session_sweep_interval") {
		t.Errorf("expected duration parse error, got %v", err)
	}
}

func TestLoad_FileNotFound(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Error("expected error for missing file")
	}
}
