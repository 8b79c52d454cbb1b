package bootstrap

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSetupDefaultsWithoutFile(t *testing.T) {
	cfg, err := Setup(filepath.Join(t.TempDir(), "missing.env"))
	if err != nil {
		t.Fatalf("Setup error: %v", err)
	}
	if cfg.ServerPort != "8080" || cfg.Addr() != ":8080" {
		t.Fatalf("expected default port, got %q", cfg.ServerPort)
	}
	if cfg.MongoDatabase != "tictactoe" || cfg.HeartbeatSeconds != 15 || cfg.HistoryLimit != 100 {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.RedisUrl != "" || cfg.MongoUri != "" {
		t.Fatalf("stores must be disabled by default: %+v", cfg)
	}
}

func TestSetupReadsFileAndEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.env")
	content := "SERVER_PORT=9090\nREDIS_URL=localhost:6379\nHEARTBEAT_SECONDS=5\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("HEARTBEAT_SECONDS", "30")
	t.Setenv("DEBUG", "true")

	cfg, err := Setup(path)
	if err != nil {
		t.Fatalf("Setup error: %v", err)
	}
	if cfg.ServerPort != "9090" || cfg.RedisUrl != "localhost:6379" {
		t.Fatalf("file values not applied: %+v", cfg)
	}
	if cfg.HeartbeatSeconds != 30 || !cfg.Debug {
		t.Fatalf("env overrides not applied: %+v", cfg)
	}
}
