package source

import (
	"crypto/sha1"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
)

// Cache is a file-backed byte cache for remote source fetches. Entries are
// keyed by (handle, fingerprint) so a remote content change invalidates the
// old entry, and expire after a fixed TTL. Expired entries behave as misses,
// never as failures.
type Cache struct {
	dir    string
	ttl    time.Duration
	logger *logrus.Logger
}

func NewCache(dir string, ttl time.Duration, logger *logrus.Logger) *Cache {
	if err := os.MkdirAll(dir, 0755); err != nil {
		logger.WithError(err).WithField("dir", dir).Warn("Failed to create cache directory; all lookups will miss")
	}
	return &Cache{dir: dir, ttl: ttl, logger: logger}
}

func (c *Cache) path(handle, fingerprint string) string {
	sum := sha1.Sum([]byte(handle + "|" + fingerprint))
	return filepath.Join(c.dir, fmt.Sprintf("%x.csv", sum))
}

// Get returns the cached bytes for the handle, or a miss when absent,
// expired, or unreadable.
func (c *Cache) Get(handle, fingerprint string) ([]byte, bool) {
	path := c.path(handle, fingerprint)
	info, err := os.Stat(path)
	if err != nil {
		return nil, false
	}
	if time.Since(info.ModTime()) > c.ttl {
		c.logger.WithField("handle", handle).Debug("Cache entry expired")
		return nil, false
	}
	data, err := os.ReadFile(path)
	if err != nil {
		c.logger.WithError(err).WithField("handle", handle).Warn("Failed to read cache entry")
		return nil, false
	}
	return data, true
}

// Put stores the bytes for the handle. Write failures are logged and
// swallowed; the cache is an optimization, not a store of record.
func (c *Cache) Put(handle, fingerprint string, data []byte) {
	if err := os.WriteFile(c.path(handle, fingerprint), data, 0644); err != nil {
		c.logger.WithError(err).WithField("handle", handle).Warn("Failed to write cache entry")
	}
}
