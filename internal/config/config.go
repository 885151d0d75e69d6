// Package config loads the optional popmap TOML configuration file.
//
// The file has four tables; every key is optional and CLI flags win over
// file values:
//
//	[sources]
//	geometry      = "https://example.com/world_countries.json"
//	population    = "world_population.tsv"
//	fetch_timeout = "30s"
//
//	[render]
//	width       = 960
//	height      = 500
//	legend      = true
//	description = "World population by country"
//
//	[server]
//	addr = ":8080"
//
//	[cache]
//	backend = "redis"
//	ttl     = "24h"
//	scope   = "staging"
//
//	[cache.redis]
//	addr   = "localhost:6379"
//	prefix = "popmap:"
package config

import (
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/popmap/pkg/errors"
	"github.com/matzehuels/popmap/pkg/pipeline"
	"github.com/matzehuels/popmap/pkg/render/choropleth"
)

// Cache backends.
const (
	BackendFile  = "file"
	BackendRedis = "redis"
	BackendNone  = "none"
)

// Config is the whole file.
type Config struct {
	Sources Sources `toml:"sources"`
	Render  Render  `toml:"render"`
	Server  Server  `toml:"server"`
	Cache   Cache   `toml:"cache"`
}

type Sources struct {
	Geometry     string   `toml:"geometry"`
	Population   string   `toml:"population"`
	FetchTimeout Duration `toml:"fetch_timeout"`
}

type Render struct {
	Width       float64            `toml:"width"`
	Height      float64            `toml:"height"`
	Margin      *choropleth.Margin `toml:"margin"`
	Scale       float64            `toml:"scale"`
	Rotate      *[3]float64        `toml:"rotate"`
	Formats     []string           `toml:"formats"`
	Legend      bool               `toml:"legend"`
	NoMesh      bool               `toml:"no_mesh"`
	Description string             `toml:"description"`
	PNGScale    float64            `toml:"png_scale"`
}

type Server struct {
	Addr            string   `toml:"addr"`
	ReadTimeout     Duration `toml:"read_timeout"`
	WriteTimeout    Duration `toml:"write_timeout"`
	ShutdownTimeout Duration `toml:"shutdown_timeout"`
}

type Cache struct {
	Backend string   `toml:"backend"`
	Dir     string   `toml:"dir"`
	TTL     Duration `toml:"ttl"`
	Scope   string   `toml:"scope"` // key namespace for caches shared between deployments
	Redis   Redis    `toml:"redis"`
}

type Redis struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
	Prefix   string `toml:"prefix"`
}

// Duration is a time.Duration written as a Go duration string ("30s").
type Duration struct {
	time.Duration
}

// UnmarshalText parses a duration string.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText formats the duration.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Default returns the settings used without a file.
func Default() Config {
	return Config{
		Server: Server{
			Addr:            ":8080",
			ReadTimeout:     Duration{15 * time.Second},
			WriteTimeout:    Duration{60 * time.Second},
			ShutdownTimeout: Duration{10 * time.Second},
		},
		Cache: Cache{
			Backend: BackendFile,
			Redis:   Redis{Addr: "localhost:6379", Prefix: "popmap:"},
		},
	}
}

// DefaultPath returns $XDG_CONFIG_HOME/popmap/config.toml.
func DefaultPath() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "popmap", "config.toml"), nil
}

// Load reads path over [Default]. An empty path means [DefaultPath], which
// may be absent; an explicit path must exist. Unknown keys are rejected.
func Load(path string) (Config, error) {
	cfg := Default()
	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err != nil {
			return cfg, nil
		}
		path = p
	}

	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return Default(), nil
		}
		if os.IsNotExist(err) {
			return cfg, errors.Wrap(errors.ErrCodeNotFound, err, "config file %s", path)
		}
		return cfg, errors.Wrap(errors.ErrCodeParse, err, "config file %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return cfg, errors.New(errors.ErrCodeInvalidInput, "config file %s: unknown key %q", path, undecoded[0].String())
	}
	return cfg, cfg.Validate()
}

// Validate checks enumerations and refs.
func (c Config) Validate() error {
	if !slices.Contains([]string{"", BackendFile, BackendRedis, BackendNone}, c.Cache.Backend) {
		return errors.New(errors.ErrCodeInvalidInput, "cache.backend %q (must be one of: file, redis, none)", c.Cache.Backend)
	}
	if c.Cache.Backend == BackendRedis && c.Cache.Redis.Addr == "" {
		return errors.New(errors.ErrCodeInvalidInput, "cache.redis.addr is required for the redis backend")
	}
	for _, ref := range []string{c.Sources.Geometry, c.Sources.Population} {
		if ref == "" {
			continue
		}
		if err := errors.ValidateSourceRef(ref); err != nil {
			return err
		}
	}
	return pipeline.ValidateFormats(c.Render.Formats)
}

// Apply copies every set value into o.
func (c Config) Apply(o *pipeline.Options) {
	s, r := c.Sources, c.Render
	if s.Geometry != "" {
		o.GeometryRef = s.Geometry
	}
	if s.Population != "" {
		o.PopulationRef = s.Population
	}
	if s.FetchTimeout.Duration != 0 {
		o.FetchTimeout = s.FetchTimeout.Duration
	}
	if r.Width != 0 {
		o.Width = r.Width
	}
	if r.Height != 0 {
		o.Height = r.Height
	}
	if r.Margin != nil {
		m := *r.Margin
		o.Margin = &m
	}
	if r.Scale != 0 {
		o.Scale = r.Scale
	}
	if r.Rotate != nil {
		rot := *r.Rotate
		o.Rotate = &rot
	}
	if len(r.Formats) > 0 {
		o.Formats = slices.Clone(r.Formats)
	}
	if r.PNGScale != 0 {
		o.PNGScale = r.PNGScale
	}
	o.Legend = o.Legend || r.Legend
	o.NoMesh = o.NoMesh || r.NoMesh
	if r.Description != "" {
		o.Description = r.Description
	}
}
