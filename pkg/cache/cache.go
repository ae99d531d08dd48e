// Package cache stores fetched graph payloads, computed layouts and rendered
// artifacts behind a small key/value interface.
//
// Backends:
//
//   - [FileCache]: sharded JSON files under a directory (CLI default)
//   - [RedisCache]: shared cache for the render service
//   - [MongoCache]: shared cache with a TTL index
//   - [NullCache]: disables caching
//
// Keys are produced by a [Keyer] so every backend addresses entries the same
// way. [ScopedKeyer] prefixes keys to isolate tenants sharing one backend.
package cache

import (
	"context"
	"time"
)

// Default TTLs per entry type.
const (
	// PayloadTTL bounds how long an analysis response is reused.
	PayloadTTL = 24 * time.Hour
	// LayoutTTL is longer because layouts are a pure function of the graph.
	LayoutTTL = 7 * 24 * time.Hour
	// ArtifactTTL applies to rendered SVG/PNG/DOT output.
	ArtifactTTL = 7 * 24 * time.Hour
)

// Cache is a byte-oriented key/value store with per-entry expiry.
//
// Get reports a miss as (nil, false, nil); errors are reserved for backend
// failures. A ttl of zero means the entry does not expire.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Keyer derives cache keys from request parameters.
type Keyer interface {
	HTTPKey(namespace, key string) string
	PayloadKey(kind string, source []byte, opts PayloadKeyOpts) string
	LayoutKey(graphHash string, opts LayoutKeyOpts) string
	ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string
}

// PayloadKeyOpts holds the request parameters that change an analysis result.
type PayloadKeyOpts struct {
	Endpoint string `json:"endpoint,omitempty"`
	MaxNodes int    `json:"max_nodes,omitempty"`
}

// LayoutKeyOpts holds the layout parameters that change node positions.
type LayoutKeyOpts struct {
	GapX    float64 `json:"gap_x,omitempty"`
	GapY    float64 `json:"gap_y,omitempty"`
	Padding float64 `json:"padding,omitempty"`
}

// ArtifactKeyOpts holds the render parameters that change rendered output.
type ArtifactKeyOpts struct {
	Format      string  `json:"format"`
	Engine      string  `json:"engine,omitempty"`
	Theme       string  `json:"theme,omitempty"`
	Active      *int    `json:"active,omitempty"`
	Detailed    bool    `json:"detailed,omitempty"`
	Interactive bool    `json:"interactive,omitempty"`
	Scale       float64 `json:"scale,omitempty"`
}

// DefaultKeyer hashes parameters into fixed-length keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the standard keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// HTTPKey keys a raw HTTP response. The key is not hashed so entries stay
// readable in redis-cli and mongosh.
func (DefaultKeyer) HTTPKey(namespace, key string) string {
	return "http:" + namespace + ":" + key
}

// PayloadKey keys an analysis response by graph kind and source hash.
func (DefaultKeyer) PayloadKey(kind string, source []byte, opts PayloadKeyOpts) string {
	return hashKey("payload", kind, Hash(source), opts)
}

// LayoutKey keys a computed layout by the hash of its normalized graph.
func (DefaultKeyer) LayoutKey(graphHash string, opts LayoutKeyOpts) string {
	return hashKey("layout", graphHash, opts)
}

// ArtifactKey keys a rendered artifact by the hash of its layout.
func (DefaultKeyer) ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", layoutHash, opts)
}
