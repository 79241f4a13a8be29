// Package config loads the service configuration from a YAML file with
// environment overrides.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	cluster "github.com/MadAppGang/supercluster"
	"github.com/MadAppGang/supercluster/index"
	"github.com/MadAppGang/supercluster/internal/logging"
)

const (
	EnvAddr = "SUPERCLUSTER_ADDR"
	EnvData = "SUPERCLUSTER_DATA"
)

// Config is the service configuration.
type Config struct {
	Addr string `yaml:"addr"`
	// Data is loaded on start. .json, .geojson, .zst and .db files are accepted.
	Data string `yaml:"data"`
	// Query selects lng, lat[, properties] when Data is a SQLite database.
	Query string `yaml:"query"`

	CacheTTL      time.Duration `yaml:"cache_ttl"`
	CacheCapacity uint64        `yaml:"cache_capacity"`
	// MaxBodyBytes limits the GeoJSON accepted by POST /load.
	MaxBodyBytes int64 `yaml:"max_body_bytes"`

	Cluster ClusterConfig  `yaml:"cluster"`
	Log     logging.Config `yaml:"log"`
}

// ClusterConfig mirrors cluster.Options.
type ClusterConfig struct {
	MinZoom    int     `yaml:"min_zoom"`
	MaxZoom    int     `yaml:"max_zoom"`
	MinPoints  int     `yaml:"min_points"`
	Radius     float64 `yaml:"radius"`
	Extent     int     `yaml:"extent"`
	NodeSize   int     `yaml:"node_size"`
	Index      string  `yaml:"index"` // kdbush or quadtree
	GenerateID bool    `yaml:"generate_id"`
	Log        bool    `yaml:"log"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	opts := cluster.DefaultOptions()
	return &Config{
		Addr:          ":8080",
		CacheTTL:      5 * time.Minute,
		CacheCapacity: 10000,
		MaxBodyBytes:  64 << 20,
		Cluster: ClusterConfig{
			MinZoom:   opts.MinZoom,
			MaxZoom:   opts.MaxZoom,
			MinPoints: opts.MinPoints,
			Radius:    opts.Radius,
			Extent:    opts.Extent,
			NodeSize:  opts.NodeSize,
			Index:     "kdbush",
		},
		Log: logging.PresetConfigStdout,
	}
}

// Load reads path over the defaults and applies the environment overrides.
// An empty path only applies the overrides.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}
	if v := os.Getenv(EnvAddr); v != "" {
		cfg.Addr = v
	}
	if v := os.Getenv(EnvData); v != "" {
		cfg.Data = v
	}
	if _, err := cfg.Cluster.Options(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Options converts the section into validated cluster options.
func (c ClusterConfig) Options() (cluster.Options, error) {
	opts := cluster.Options{
		MinZoom:    c.MinZoom,
		MaxZoom:    c.MaxZoom,
		MinPoints:  c.MinPoints,
		Radius:     c.Radius,
		Extent:     c.Extent,
		NodeSize:   c.NodeSize,
		GenerateID: c.GenerateID,
		Log:        c.Log,
	}
	switch c.Index {
	case "", "kdbush":
		opts.Index = index.NewKDBush
	case "quadtree":
		opts.Index = index.NewQuadtree
	default:
		return opts, fmt.Errorf("%w: unknown index %q", cluster.ErrInvalidOptions, c.Index)
	}
	return opts, opts.Validate()
}
