// Package config loads the flowlens configuration file.
//
// The file is TOML. Lookup order is the --config flag, $FLOWLENS_CONFIG, then
// $XDG_CONFIG_HOME/flowlens/config.toml (~/.config/flowlens/config.toml). A
// missing file is not an error: [Default] is used. Keys absent from the file
// keep their default values.
//
//	[source]
//	url = "http://localhost:8000"
//	max_nodes = 800
//	timeout = "30s"
//
//	[cache]
//	backend = "redis"
//	redis_addr = "redis://localhost:6379/0"
//
//	[view]
//	theme = "dark"
//	kind = "cfg"
//	animation_interval = "750ms"
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/flowlens/pkg/cache"
	ferrors "github.com/matzehuels/flowlens/pkg/errors"
	"github.com/matzehuels/flowlens/pkg/graph"
	"github.com/matzehuels/flowlens/pkg/render/styles"
	"github.com/matzehuels/flowlens/pkg/source"
)

// EnvPath names the environment variable holding an explicit config path.
const EnvPath = "FLOWLENS_CONFIG"

const appName = "flowlens"

// Config is the full configuration.
type Config struct {
	Source Source `toml:"source"`
	Cache  Cache  `toml:"cache"`
	View   View   `toml:"view"`
	Server Server `toml:"server"`

	// Path is the file the configuration was read from, empty for defaults.
	Path string `toml:"-"`
}

// Source configures the analysis service client.
type Source struct {
	URL      string   `toml:"url"`
	MaxNodes int      `toml:"max_nodes"`
	Timeout  Duration `toml:"timeout"`
}

// Cache configures the payload, layout and artifact cache.
type Cache struct {
	Backend       string   `toml:"backend"`
	Dir           string   `toml:"dir"`
	TTL           Duration `toml:"ttl"` // overrides the per-stage TTLs when set
	RedisAddr     string   `toml:"redis_addr"`
	RedisPassword string   `toml:"redis_password"`
	MongoURI      string   `toml:"mongo_uri"`
	MongoDatabase string   `toml:"mongo_database"`
}

// View configures the interactive viewer.
type View struct {
	Theme             string   `toml:"theme"`
	Kind              string   `toml:"kind"`
	AnimationInterval Duration `toml:"animation_interval"`
	Inspector         bool     `toml:"inspector"`
}

// Server configures the render service.
type Server struct {
	Addr string `toml:"addr"`
}

// Duration is a time.Duration that reads TOML strings such as "750ms".
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

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Source: Source{
			URL:      source.DefaultBaseURL,
			MaxNodes: source.DefaultMaxNodes,
			Timeout:  Duration{source.DefaultTimeout},
		},
		Cache: Cache{
			Backend:       cache.BackendFile,
			MongoDatabase: "flowlens",
		},
		View: View{
			Theme:             styles.NameLight,
			Kind:              string(graph.DiagramCFG),
			AnimationInterval: Duration{time.Second},
			Inspector:         true,
		},
		Server: Server{
			Addr: ":8080",
		},
	}
}

// Load reads the configuration. path overrides the lookup order; an explicit
// path that does not exist is an error, a missing default file is not.
func Load(path string) (Config, error) {
	explicit := path != ""
	if !explicit {
		if env := os.Getenv(EnvPath); env != "" {
			path, explicit = env, true
		} else if p, err := DefaultPath(); err == nil {
			path = p
		}
	}

	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, ferrors.Wrap(ferrors.ErrCodeInvalidConfig, err, "read config %s", path)
	}
	cfg.Path = path
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// DefaultPath returns $XDG_CONFIG_HOME/flowlens/config.toml, falling back to
// ~/.config when XDG_CONFIG_HOME is unset.
func DefaultPath() (string, error) {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, appName, "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName, "config.toml"), nil
}

// CacheDir returns the configured cache directory, or $XDG_CACHE_HOME/flowlens
// (~/.cache/flowlens).
func (c Config) CacheDir() (string, error) {
	if c.Cache.Dir != "" {
		return c.Cache.Dir, nil
	}
	if dir := os.Getenv("XDG_CACHE_HOME"); dir != "" {
		return filepath.Join(dir, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// CacheOptions converts the [cache] section for cache.Open.
func (c Config) CacheOptions() (cache.Options, error) {
	opts := cache.Options{
		Backend: c.Cache.Backend,
		Redis: cache.RedisOptions{
			Addr:     c.Cache.RedisAddr,
			Password: c.Cache.RedisPassword,
		},
		Mongo: cache.MongoOptions{
			URI:      c.Cache.MongoURI,
			Database: c.Cache.MongoDatabase,
		},
		TTL: c.Cache.TTL.Duration,
	}
	if opts.Backend == cache.BackendFile || opts.Backend == "" {
		dir, err := c.CacheDir()
		if err != nil {
			return cache.Options{}, fmt.Errorf("resolve cache dir: %w", err)
		}
		opts.Dir = dir
	}
	return opts, nil
}

// Validate rejects unknown kinds, backends and themes, and out-of-range
// numbers.
func (c Config) Validate() error {
	if _, err := graph.ParseDiagram(c.View.Kind); err != nil {
		return ferrors.Wrap(ferrors.ErrCodeInvalidConfig, err, "view.kind")
	}
	if _, err := styles.ByName(c.View.Theme); err != nil {
		return ferrors.Wrap(ferrors.ErrCodeInvalidConfig, err, "view.theme")
	}
	if c.View.AnimationInterval.Duration <= 0 {
		return ferrors.New(ferrors.ErrCodeInvalidConfig, "view.animation_interval must be positive")
	}
	if !slices.Contains(cache.Backends, c.Cache.Backend) {
		return ferrors.New(ferrors.ErrCodeInvalidConfig, "cache.backend %q is not one of %v", c.Cache.Backend, cache.Backends)
	}
	if c.Cache.Backend == cache.BackendRedis && c.Cache.RedisAddr == "" {
		return ferrors.New(ferrors.ErrCodeInvalidConfig, "cache.redis_addr is required for the redis backend")
	}
	if c.Cache.Backend == cache.BackendMongo && c.Cache.MongoURI == "" {
		return ferrors.New(ferrors.ErrCodeInvalidConfig, "cache.mongo_uri is required for the mongo backend")
	}
	if c.Cache.TTL.Duration < 0 {
		return ferrors.New(ferrors.ErrCodeInvalidConfig, "cache.ttl must not be negative")
	}
	if err := ferrors.ValidateURL(c.Source.URL); err != nil {
		return ferrors.Wrap(ferrors.ErrCodeInvalidConfig, err, "source.url")
	}
	if err := ferrors.ValidateMaxNodes(c.Source.MaxNodes); err != nil {
		return ferrors.Wrap(ferrors.ErrCodeInvalidConfig, err, "source.max_nodes")
	}
	if c.Source.Timeout.Duration <= 0 {
		return ferrors.New(ferrors.ErrCodeInvalidConfig, "source.timeout must be positive")
	}
	return nil
}
