// Package config loads the application configuration from a TOML
// file, layered over built-in defaults. All sections are optional; a
// missing file yields the defaults.
package config

import (
	"os"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/schematiq/schematiq/pkg/errors"
)

// Duration wraps time.Duration so TOML values like "15s" decode.
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// Config is the full application configuration.
type Config struct {
	Engine EngineConfig `toml:"engine"`
	Server ServerConfig `toml:"server"`
	Cache  CacheConfig  `toml:"cache"`
	Store  StoreConfig  `toml:"store"`
}

// EngineConfig tunes layout defaults.
type EngineConfig struct {
	// Layout is the default layout for fresh renders.
	Layout string `toml:"layout"`

	// Direction is the default layout direction (TB or LR).
	Direction string `toml:"direction"`

	// ExtraSpacing is the default spacing boost, 0-100.
	ExtraSpacing int `toml:"extra_spacing"`

	// CollisionPadding is the minimum gap restored between dragged
	// elements, in canvas points.
	CollisionPadding float64 `toml:"collision_padding"`
}

// ServerConfig tunes the HTTP server.
type ServerConfig struct {
	Addr         string   `toml:"addr"`
	ReadTimeout  Duration `toml:"read_timeout"`
	WriteTimeout Duration `toml:"write_timeout"`

	// SessionTTL is how long an idle session survives before eviction.
	SessionTTL Duration `toml:"session_ttl"`
}

// CacheConfig selects and tunes the cache backend.
type CacheConfig struct {
	// Backend is one of "file", "redis", or "none".
	Backend string `toml:"backend"`

	// Dir is the file backend's directory.
	Dir string `toml:"dir"`

	// Addr, Password, and DB configure the redis backend.
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`

	// TTL bounds entry lifetime. Zero means no expiration.
	TTL Duration `toml:"ttl"`
}

// StoreConfig selects and tunes diagram persistence.
type StoreConfig struct {
	// Backend is one of "memory" or "mongo".
	Backend string `toml:"backend"`

	// URI, Database, and Collection configure the mongo backend.
	URI        string `toml:"uri"`
	Database   string `toml:"database"`
	Collection string `toml:"collection"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Engine: EngineConfig{
			Layout:           "compact-TB",
			Direction:        "TB",
			CollisionPadding: 12,
		},
		Server: ServerConfig{
			Addr:         ":8080",
			ReadTimeout:  Duration{15 * time.Second},
			WriteTimeout: Duration{30 * time.Second},
			SessionTTL:   Duration{time.Hour},
		},
		Cache: CacheConfig{
			Backend: "file",
			Dir:     defaultCacheDir(),
			TTL:     Duration{24 * time.Hour},
		},
		Store: StoreConfig{
			Backend:    "memory",
			Database:   "schematiq",
			Collection: "diagrams",
		},
	}
}

// Load reads a TOML config file over the defaults. An empty path or a
// missing file returns the defaults unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, errors.Wrap(errors.ErrCodeInvalidInput, err, "read config %s", path)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, errors.Wrap(errors.ErrCodeInvalidInput, err, "parse config %s", path)
	}
	if err := cfg.validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.Cache.Backend {
	case "", "file", "redis", "none":
	default:
		return errors.New(errors.ErrCodeInvalidInput, "unknown cache backend %q", c.Cache.Backend)
	}
	switch c.Store.Backend {
	case "", "memory", "mongo":
	default:
		return errors.New(errors.ErrCodeInvalidInput, "unknown store backend %q", c.Store.Backend)
	}
	if c.Engine.ExtraSpacing < 0 || c.Engine.ExtraSpacing > 100 {
		return errors.New(errors.ErrCodeInvalidSpacing, "extra_spacing %d out of range 0-100", c.Engine.ExtraSpacing)
	}
	return nil
}

func defaultCacheDir() string {
	base, err := os.UserCacheDir()
	if err != nil {
		return ".schematiq-cache"
	}
	return base + "/schematiq"
}
