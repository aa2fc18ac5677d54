// Package cache provides caching for gardenflow pipeline results.
//
// # Overview
//
// Building and laying out a large garden, especially with expansion and the
// Graphviz engine, is the expensive part of a request. The pipeline caches
// two artifacts:
//
//   - Flows: the complete positioned graph for a root garden, registry and
//     option set ([Keyer.FlowKey], [TTLFlow])
//   - Layouts: oracle positions for a given unpositioned graph, shared by
//     every root that produces the same graph ([Keyer.LayoutKey], [TTLLayout])
//
// # Backends
//
//   - [NullCache]: stores nothing; the default when caching is disabled
//   - [FileCache]: one JSON file per entry, for the CLI
//   - [RedisCache]: shared cache for the HTTP server
//
// Cache errors are never fatal to callers: the pipeline treats a failed Get
// as a miss and ignores failed Sets.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"
	"time"
)

// Cache is a byte-oriented key/value store with expiry.
type Cache interface {
	// Get returns the value for key. A miss is (nil, false, nil).
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A zero ttl means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// Clearer is implemented by caches that can drop every entry they own.
type Clearer interface {
	Clear(ctx context.Context) error
}

// =============================================================================
// TTLs
// =============================================================================

const (
	// TTLFlow is how long a positioned flow stays cached. Flows are keyed by
	// content hash, so staleness only matters for registry-resolved data.
	TTLFlow = 24 * time.Hour

	// TTLLayout is how long oracle positions stay cached.
	TTLLayout = 7 * 24 * time.Hour
)

// =============================================================================
// Keys
// =============================================================================

// FlowKeyOpts are the options that change a flow result.
type FlowKeyOpts struct {
	Registry string  `json:"registry"` // registry fingerprint
	Expand   bool    `json:"expand"`
	MaxDepth int     `json:"max_depth"`
	Width    float64 `json:"width"`
	EdgeType string  `json:"edge_type"`
	Static   bool    `json:"static"`
	Engine   string  `json:"engine"`
}

// LayoutKeyOpts are the options that change oracle positions.
type LayoutKeyOpts struct {
	Engine       string  `json:"engine"`
	NodeSpacing  float64 `json:"node_spacing"`
	LayerSpacing float64 `json:"layer_spacing"`
}

// Keyer generates cache keys.
type Keyer interface {
	// FlowKey keys a positioned flow by the hash of its root garden.
	FlowKey(gardenHash string, opts FlowKeyOpts) string

	// LayoutKey keys oracle positions by the hash of the unpositioned graph.
	LayoutKey(graphHash string, opts LayoutKeyOpts) string
}

// DefaultKeyer produces "kind:sha256" keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// FlowKey implements [Keyer].
func (DefaultKeyer) FlowKey(gardenHash string, opts FlowKeyOpts) string {
	return hashKey("flow", gardenHash, opts)
}

// LayoutKey implements [Keyer].
func (DefaultKeyer) LayoutKey(graphHash string, opts LayoutKeyOpts) string {
	return hashKey("layout", graphHash, opts)
}

// KeyType returns the kind segment of a key ("flow", "layout"), used as a
// metrics label. Scope prefixes are skipped.
func KeyType(key string) string {
	i := strings.LastIndexByte(key, ':')
	if i < 0 {
		return "unknown"
	}
	head := key[:i]
	return head[strings.LastIndexByte(head, ':')+1:]
}

// Hash returns the hex SHA-256 of data.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// hashKey builds "prefix:sha256(json(parts))".
func hashKey(prefix string, parts ...any) string {
	data, _ := json.Marshal(parts)
	return prefix + ":" + Hash(data)
}

// ScopedKeyer prefixes every key of an inner keyer, giving each tenant or
// registry its own namespace.
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer wraps inner (the default keyer when nil) with prefix.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

// FlowKey implements [Keyer].
func (k *ScopedKeyer) FlowKey(gardenHash string, opts FlowKeyOpts) string {
	return k.prefix + k.inner.FlowKey(gardenHash, opts)
}

// LayoutKey implements [Keyer].
func (k *ScopedKeyer) LayoutKey(graphHash string, opts LayoutKeyOpts) string {
	return k.prefix + k.inner.LayoutKey(graphHash, opts)
}

// =============================================================================
// Null Backend
// =============================================================================

// NullCache stores nothing. Every Get is a miss.
type NullCache struct{}

// NewNullCache returns a cache that never stores anything.
func NewNullCache() Cache { return NullCache{} }

func (NullCache) Get(context.Context, string) ([]byte, bool, error)        { return nil, false, nil }
func (NullCache) Set(context.Context, string, []byte, time.Duration) error { return nil }
func (NullCache) Delete(context.Context, string) error                     { return nil }
func (NullCache) Close() error                                             { return nil }
