package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_PrecedenceEnvOverFileOverDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	// The file overrides addr and log_level; env overrides addr again.
	file := "addr: \":9090\"\nlog_level: debug\n"
	if err := os.WriteFile(path, []byte(file), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("CHATWEB_ADDR", ":7070")

	cfg, resolved, err := Load(nil, path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if resolved != path {
		t.Fatalf("expected resolved path %q, got %q", path, resolved)
	}

	if cfg.Addr != ":7070" {
		t.Fatalf("env should beat file: got addr %q", cfg.Addr)
	}
	if cfg.LogLevel != "debug" {
		t.Fatalf("file should beat defaults: got log_level %q", cfg.LogLevel)
	}
	if cfg.DatabasePath != Default().DatabasePath {
		t.Fatalf("unset key should keep default: got database_path %q", cfg.DatabasePath)
	}
	if cfg.JWTTTL != Default().JWTTTL {
		t.Fatalf("unset key should keep default: got jwt_ttl %v", cfg.JWTTTL)
	}
}

func TestLoad_WritesDefaultConfigWhenMissing(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	cfg, resolved, err := Load(nil, path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if resolved != path {
		t.Fatalf("expected resolved path %q, got %q", path, resolved)
	}
	if cfg != Default() {
		t.Fatalf("expected defaults, got %+v", cfg)
	}

	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected default config file written: %v", err)
	}
}
