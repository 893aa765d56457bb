// Package cache persists expensive lookups (pull requests per commit) between
// runs behind a pluggable Store.
package cache

import (
	"encoding/hex"
	"fmt"
	"path/filepath"
	"time"

	"github.com/zeebo/blake3"
)

// Store is a byte-oriented key/value store with expiry.
type Store interface {
	// Get returns the value for key if present and not expired.
	Get(key string) ([]byte, bool)
	// Set stores data under key.
	Set(key string, data []byte) error
	// Invalidate removes key. Removing a missing key is not an error.
	Invalidate(key string) error
	// Clear removes all entries.
	Clear() error
	// Close releases the store.
	Close() error
}

// Backend names accepted by Open.
const (
	BackendFile   = "file"
	BackendBolt   = "bolt"
	BackendMemory = "memory"
)

// Entry is a cached value with its write time.
type Entry struct {
	Timestamp time.Time `json:"timestamp"`
	Data      []byte    `json:"data"`
}

func (e Entry) expired(now time.Time, ttl time.Duration) bool {
	return ttl > 0 && now.Sub(e.Timestamp) > ttl
}

// HashBytes computes a BLAKE3 hash of bytes and returns it as a hex string.
func HashBytes(data []byte) string {
	hash := blake3.Sum256(data)
	return hex.EncodeToString(hash[:])
}

// Open returns the store for backend rooted at dir. A ttl <= 0 never expires.
func Open(backend, dir string, ttl time.Duration) (Store, error) {
	switch backend {
	case BackendFile, "":
		return NewFileStore(dir, ttl)
	case BackendBolt:
		return NewBoltStore(filepath.Join(dir, "chronicle.db"), ttl)
	case BackendMemory:
		return NewMemoryStore(ttl), nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", backend)
	}
}

// Nop is a Store that keeps nothing.
type Nop struct{}

func (Nop) Get(string) ([]byte, bool) { return nil, false }
func (Nop) Set(string, []byte) error  { return nil }
func (Nop) Invalidate(string) error   { return nil }
func (Nop) Clear() error              { return nil }
func (Nop) Close() error              { return nil }
