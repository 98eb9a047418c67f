// Package cache stores rendered topology artifacts.
//
// Rendering a model is deterministic in the model and the render options, so
// results are keyed by a hash of both. Three backends implement [Cache]:
//
//   - [FileCache]: one JSON file per entry under a directory, for the CLI
//   - [RedisCache]: shared entries for several server replicas
//   - [NullCache]: never stores anything
//
// Keys are built by a [Keyer]. [ScopedKeyer] prefixes every key so several
// clusters or users can share one backend without collisions.
package cache

import (
	"context"
	"time"
)

// Cache is a byte-oriented key/value store with optional expiry.
//
// Get reports a miss with ok == false and a nil error. Backends treat corrupt
// or expired entries as misses.
type Cache interface {
	Get(ctx context.Context, key string) (data []byte, ok bool, err error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Default time-to-live values per entry type.
const (
	ModelTTL    = 24 * time.Hour
	ArtifactTTL = 7 * 24 * time.Hour
)
