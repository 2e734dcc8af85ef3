// Package cache stores rendered chart artifacts.
//
// A [Cache] is a byte store with per-entry TTL. Three backends are provided:
//
//   - [FileCache]: entries on local disk, for the CLI
//   - [RedisCache]: a shared Redis instance, for the dashboard server
//   - [NullCache]: stores nothing, for tests or --no-cache
//
// Keys come from a [Keyer]. The default keyer derives them from the hash
// of the dataset bytes plus every option that changes the output, so an
// edited dataset never serves a stale chart:
//
//	k := cache.NewDefaultKeyer()
//	key := k.ArtifactKey(cache.Hash(data), cache.ArtifactKeyOpts{Chart: "flow", Format: "svg"})
package cache

import (
	"context"
	"time"
)

// Cache is a byte store with expiring entries. Implementations must be
// safe for concurrent use.
type Cache interface {
	// Get returns the stored bytes and whether the key was present.
	// A missing or expired key is a miss, not an error.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of zero never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// Default TTLs.
const (
	// ArtifactTTL applies to rendered SVG, JSON and DOT output.
	ArtifactTTL = 24 * time.Hour

	// SummaryTTL applies to computed report summaries.
	SummaryTTL = time.Hour
)

// Keyer builds cache keys.
type Keyer interface {
	// ArtifactKey identifies one rendered chart of one dataset.
	ArtifactKey(datasetHash string, opts ArtifactKeyOpts) string

	// SummaryKey identifies the overview metrics of one dataset.
	SummaryKey(datasetHash string) string
}

// ArtifactKeyOpts lists every option that changes a rendered artifact.
type ArtifactKeyOpts struct {
	Chart       string `json:"chart"`
	Format      string `json:"format"`
	Hover       string `json:"hover,omitempty"`
	Interactive bool   `json:"interactive,omitempty"`
	Detailed    bool   `json:"detailed,omitempty"`
	Title       string `json:"title,omitempty"`
}

// DefaultKeyer produces unprefixed keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// ArtifactKey returns "artifact:<hash of dataset hash and opts>".
func (DefaultKeyer) ArtifactKey(datasetHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", datasetHash, opts)
}

// SummaryKey returns "summary:<dataset hash>".
func (DefaultKeyer) SummaryKey(datasetHash string) string {
	return "summary:" + datasetHash
}

// NullCache stores nothing; every Get is a miss.
type NullCache struct{}

// NewNullCache returns a cache that discards writes.
func NewNullCache() Cache { return NullCache{} }

func (NullCache) Get(context.Context, string) ([]byte, bool, error)       { return nil, false, nil }
func (NullCache) Set(context.Context, string, []byte, time.Duration) error { return nil }
func (NullCache) Delete(context.Context, string) error                    { return nil }
func (NullCache) Close() error                                            { return nil }
