package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	tmpDir, err := os.MkdirTemp("", "mapcode-config-test")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(tmpDir) })

	path := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, "log:\n  level: warn\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.API.Host != "https://api.mapcode.com" {
		t.Errorf("API.Host = %s", cfg.API.Host)
	}
	if cfg.API.Client != DefaultClientID {
		t.Errorf("API.Client = %s", cfg.API.Client)
	}
	if cfg.API.Timeout != 10*time.Second {
		t.Errorf("API.Timeout = %v", cfg.API.Timeout)
	}
	if cfg.Limits.Mapcode != time.Second || cfg.Limits.Online != 30*time.Second {
		t.Errorf("Limits = %+v", cfg.Limits)
	}
	if cfg.Cache.TTLDays != DefaultCacheTTLDays {
		t.Errorf("Cache.TTLDays = %d", cfg.Cache.TTLDays)
	}
	if cfg.Cache.Dir == "" {
		t.Error("Cache.Dir should default to the user cache dir")
	}
	if cfg.Source.Mode != "auto" {
		t.Errorf("Source.Mode = %s", cfg.Source.Mode)
	}
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
api:
  host: http://localhost:9000
  allowlog: true
  timeout: 3s
geocoder:
  country: US
limits:
  mapcode: 250ms
cache:
  dir: /tmp/mapcode-test
  redis:
    addr: localhost:6379
    db: 2
server:
  port: 9090
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.API.Host != "http://localhost:9000" || !cfg.API.AllowLog {
		t.Errorf("API = %+v", cfg.API)
	}
	if cfg.API.Timeout != 3*time.Second {
		t.Errorf("API.Timeout = %v", cfg.API.Timeout)
	}
	if cfg.Geocoder.Country != "US" {
		t.Errorf("Geocoder.Country = %s", cfg.Geocoder.Country)
	}
	if cfg.Limits.Mapcode != 250*time.Millisecond {
		t.Errorf("Limits.Mapcode = %v", cfg.Limits.Mapcode)
	}
	if cfg.Cache.Dir != "/tmp/mapcode-test" {
		t.Errorf("Cache.Dir = %s", cfg.Cache.Dir)
	}
	if cfg.Cache.Redis.Addr != "localhost:6379" || cfg.Cache.Redis.DB != 2 {
		t.Errorf("Cache.Redis = %+v", cfg.Cache.Redis)
	}
	if cfg.ServerAddr() != ":9090" {
		t.Errorf("ServerAddr = %s", cfg.ServerAddr())
	}
}

func TestLoadEnvOverride(t *testing.T) {
	path := writeConfig(t, "api:\n  host: http://from-file\n")
	t.Setenv("MAPCODE_API_HOST", "http://from-env")
	t.Setenv("MAPCODE_SOURCE_MODE", "offline")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.API.Host != "http://from-env" {
		t.Errorf("API.Host = %s, expected the environment to win", cfg.API.Host)
	}
	if cfg.Source.Mode != "offline" {
		t.Errorf("Source.Mode = %s", cfg.Source.Mode)
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	if _, err := Load(filepath.Join(os.TempDir(), "does-not-exist", "config.yaml")); err == nil {
		t.Error("expected error for a missing explicit config file")
	}
}

func TestNewLogger(t *testing.T) {
	tests := []struct {
		level, format string
		debugLogged   bool
		json          bool
	}{
		{"debug", "text", true, false},
		{"warn", "json", false, true},
		{"bogus", "", false, false},
	}

	for _, tc := range tests {
		var buf bytes.Buffer
		cfg := &Config{Log: LogConfig{Level: tc.level, Format: tc.format}}
		logger := cfg.newLogger(&buf)

		logger.Debug("debug message")
		logger.Warn("warn message", "key", "value")

		out := buf.String()
		if strings.Contains(out, "debug message") != tc.debugLogged {
			t.Errorf("level %s: debug logged = %v, expected %v", tc.level, !tc.debugLogged, tc.debugLogged)
		}
		if strings.HasPrefix(out, "{") != tc.json {
			t.Errorf("format %q: output %q", tc.format, out)
		}
	}
}

func TestPaths(t *testing.T) {
	cacheDir := filepath.Join("home", ".mapcode", "cache")

	tests := []struct {
		got, expected string
	}{
		{SnapshotsDir(cacheDir), filepath.Join(cacheDir, "snapshots")},
		{SnapshotDir(cacheDir, "2024-01-15"), filepath.Join(cacheDir, "snapshots", "2024-01-15")},
		{LatestSnapshotPath(cacheDir), filepath.Join(cacheDir, "snapshots", "latest")},
		{TerritoriesPath("snap"), filepath.Join("snap", "territories.json")},
		{MetadataPath("snap"), filepath.Join("snap", "metadata.json")},
		{ResultCachePath(cacheDir), filepath.Join(cacheDir, "results.json")},
	}
	for _, tc := range tests {
		if tc.got != tc.expected {
			t.Errorf("path = %s, expected %s", tc.got, tc.expected)
		}
	}
}
