// Package cache stores computed timeline layouts and rendered artifacts.
//
// Layouts are pure functions of a snapshot, the layout options and the
// current day, so a hash of those inputs is a complete cache key. Hosts
// choose the backend:
//
//   - [NullCache] disables caching
//   - [FileCache] keeps entries on local disk for the CLI
//   - [RedisCache] shares entries between API server instances
//
// Keys are produced by a [Keyer] so that callers never hand-build them.
package cache

import (
	"context"
	"time"
)

// Default TTLs for cached values.
const (
	TTLLayout   = 24 * time.Hour
	TTLArtifact = 24 * time.Hour
)

// Cache is a byte-oriented key/value store with per-entry expiry.
type Cache interface {
	// Get returns the value and true on a hit. A miss is not an error.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores a value. A ttl of zero means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	// Delete removes a value. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Close releases backend resources.
	Close() error
}

// LayoutKeyOpts are the layout inputs that are not part of the snapshot.
type LayoutKeyOpts struct {
	Zoom        string  `json:"zoom"`
	Start       string  `json:"start,omitempty"`
	End         string  `json:"end,omitempty"`
	Today       string  `json:"today"`
	ColumnWidth float64 `json:"column_width,omitempty"`
	Options     any     `json:"options,omitempty"`
}

// ArtifactKeyOpts identify one rendered output of a layout.
type ArtifactKeyOpts struct {
	Format string `json:"format"`
	Style  string `json:"style,omitempty"`
}

// Keyer builds cache keys.
type Keyer interface {
	// LayoutKey keys a timeline layout by snapshot hash and options.
	LayoutKey(snapshotHash string, opts LayoutKeyOpts) string
	// ArtifactKey keys a rendered artifact by layout hash and format.
	ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string
}

// DefaultKeyer is the standard Keyer.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the standard Keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// LayoutKey returns "layout:<sha256>".
func (DefaultKeyer) LayoutKey(snapshotHash string, opts LayoutKeyOpts) string {
	return hashKey("layout", snapshotHash, opts)
}

// ArtifactKey returns "artifact:<sha256>".
func (DefaultKeyer) ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", layoutHash, opts)
}
