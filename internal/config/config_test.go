package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jengzang/records-hexbin/internal/hexagonal"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Server.Port != ":8080" {
		t.Errorf("expected default port %q, got %q", ":8080", cfg.Server.Port)
	}
	if cfg.Engine.RefreshDelay >= 0 {
		t.Errorf("expected scheduled redraws to be off, got %v", cfg.Engine.RefreshDelay)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hexbin.yml")

	original := DefaultConfig()
	original.Server.Port = ":9000"
	original.Server.SessionTTL = 5 * time.Minute
	original.Engine.HexagonSize = 24
	original.Engine.LinkMode = hexagonal.LinkAligned
	original.Engine.ClusterMode = hexagonal.ClusterAvg
	original.Engine.ClusterColors = []interface{}{"#000", "#fff"}
	original.Viewport.Zoom = 12

	if err := original.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if loaded.Server.Port != ":9000" {
		t.Errorf("port: got %q", loaded.Server.Port)
	}
	if loaded.Server.SessionTTL != 5*time.Minute {
		t.Errorf("session_ttl: got %v", loaded.Server.SessionTTL)
	}
	if loaded.Engine.HexagonSize != 24 {
		t.Errorf("hexagon_size: got %v", loaded.Engine.HexagonSize)
	}
	if loaded.Engine.LinkMode != hexagonal.LinkAligned {
		t.Errorf("link_mode: got %q", loaded.Engine.LinkMode)
	}
	if loaded.Engine.ClusterMode != hexagonal.ClusterAvg {
		t.Errorf("cluster_mode: got %q", loaded.Engine.ClusterMode)
	}
	if len(loaded.Engine.ClusterColors) != 2 {
		t.Errorf("cluster_colors: got %v", loaded.Engine.ClusterColors)
	}
	if loaded.Engine.RefreshDelay != original.Engine.RefreshDelay {
		t.Errorf("refresh_delay: got %v", loaded.Engine.RefreshDelay)
	}
	if loaded.Viewport.Zoom != 12 {
		t.Errorf("viewport zoom: got %d", loaded.Viewport.Zoom)
	}
	if loaded.Engine.SizeFunc == nil {
		t.Errorf("size func not restored")
	}
}

func TestLoadMissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nonexistent.yml"))
	if err != nil {
		t.Fatalf("expected no error for missing file, got %v", err)
	}
	if cfg.Server.Port != DefaultConfig().Server.Port {
		t.Errorf("expected defaults, got %+v", cfg.Server)
	}
}

func TestEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hexbin.yml")
	yml := "server:\n  port: \":7000\"\nengine:\n  hexagon_size: 30\n"
	if err := os.WriteFile(path, []byte(yml), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("HEXBIN_SERVER__PORT", ":7100")
	t.Setenv("HEXBIN_ENGINE__LINK_MODE", "line")
	t.Setenv("HEXBIN_ENGINE__LINK_DISPLAY__ENABLED", "false")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.Port != ":7100" {
		t.Errorf("env should win over file, got %q", cfg.Server.Port)
	}
	if cfg.Engine.HexagonSize != 30 {
		t.Errorf("hexagon_size: got %v", cfg.Engine.HexagonSize)
	}
	if cfg.Engine.LinkMode != hexagonal.LinkLine {
		t.Errorf("link_mode: got %q", cfg.Engine.LinkMode)
	}
	if cfg.Engine.LinkDisplay.Enabled {
		t.Errorf("link display should be disabled")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"port", func(c *Config) { c.Server.Port = "" }},
		{"sessions", func(c *Config) { c.Server.MaxSessions = 0 }},
		{"rate limit window", func(c *Config) { c.Server.RateLimitWindow = 0 }},
		{"viewport", func(c *Config) { c.Viewport.Width = 0 }},
		{"engine", func(c *Config) { c.Engine.LinkMode = "zigzag" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Errorf("expected validation error")
			}
		})
	}
}
