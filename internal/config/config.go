package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"

	"github.com/jengzang/records-hexbin/internal/hexagonal"
	"github.com/jengzang/records-hexbin/internal/spatial"
)

// EnvPrefix prefixes environment overrides. A double underscore separates
// nested keys: HEXBIN_SERVER__PORT sets server.port.
const EnvPrefix = "HEXBIN_"

// Config 应用配置
type Config struct {
	Server   ServerConfig      `yaml:"server" koanf:"server"`
	Engine   hexagonal.Options `yaml:"engine" koanf:"engine"`
	Viewport spatial.Viewport  `yaml:"viewport" koanf:"viewport"`
}

// ServerConfig configures the HTTP server and the session registry
type ServerConfig struct {
	Port   string `yaml:"port" koanf:"port"`
	DBPath string `yaml:"db_path" koanf:"db_path"`
	// 最大内存使用（字节）
	MaxMemory   int64         `yaml:"max_memory" koanf:"max_memory"`
	MaxSessions int           `yaml:"max_sessions" koanf:"max_sessions"`
	SessionTTL  time.Duration `yaml:"session_ttl" koanf:"session_ttl"`
	// requests per window and client IP, 0 disables
	RateLimit       int           `yaml:"rate_limit" koanf:"rate_limit"`
	RateLimitWindow time.Duration `yaml:"rate_limit_window" koanf:"rate_limit_window"`
	// hosts marker images may be fetched from, empty allows any public host
	ThumbHosts []string `yaml:"thumb_hosts" koanf:"thumb_hosts"`
}

// DefaultConfig returns the built-in configuration
func DefaultConfig() *Config {
	engine := hexagonal.DefaultOptions()
	// sessions redraw on request
	engine.RefreshDelay = -1
	return &Config{
		Server: ServerConfig{
			Port:            ":8080",
			DBPath:          "./data/tracks/tracks.db",
			MaxMemory:       1024 * 1024 * 800, // 800MB
			MaxSessions:     64,
			SessionTTL:      30 * time.Minute,
			RateLimit:       600,
			RateLimitWindow: time.Minute,
		},
		Engine: engine,
		Viewport: spatial.Viewport{
			Center: spatial.LatLng{Lat: 30, Lng: 114},
			Zoom:   10,
			Width:  1024,
			Height: 768,
		},
	}
}

// Load reads configuration from the given YAML file, then overlays
// environment variable overrides (HEXBIN_*). A missing file is not an error.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	cfg := DefaultConfig()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("failed to read config %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to access config %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
		return strings.ReplaceAll(key, "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env overrides: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	// lists decode element-wise onto the defaults; a configured list replaces them
	if k.Exists("engine.cluster_colors") {
		cfg.Engine.ClusterColors = toList(k.Get("engine.cluster_colors"))
	}
	cfg.Engine.SizeFunc = hexagonal.DefaultSize

	return cfg, nil
}

func toList(v interface{}) []interface{} {
	switch l := v.(type) {
	case []interface{}:
		return l
	case string:
		var out []interface{}
		for _, s := range strings.Split(l, ";") {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// Save writes the configuration to the given YAML file path
func (c *Config) Save(path string) error {
	data, err := yamlv3.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config to %s: %w", path, err)
	}
	return nil
}

// Validate checks the configuration and fills engine defaults
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server.port is required")
	}
	if c.Server.MaxSessions <= 0 {
		return fmt.Errorf("server.max_sessions must be positive")
	}
	if c.Server.SessionTTL < 0 {
		return fmt.Errorf("server.session_ttl must be non-negative")
	}
	if c.Server.RateLimit < 0 {
		return fmt.Errorf("server.rate_limit must be non-negative")
	}
	if c.Server.RateLimit > 0 && c.Server.RateLimitWindow <= 0 {
		return fmt.Errorf("server.rate_limit_window must be positive")
	}
	if err := c.Viewport.Validate(); err != nil {
		return fmt.Errorf("invalid viewport: %w", err)
	}
	if err := c.Engine.Validate(); err != nil {
		return fmt.Errorf("invalid engine options: %w", err)
	}
	return nil
}
