package catalog

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/couchcryptid/hydrogen-tracker/internal/observability"
	"github.com/jonboulle/clockwork"
)

// Cache holds the most recently loaded Dataset. An entry is reused until it
// is older than the TTL, a source file changes on disk, or Invalidate is
// called.
type Cache struct {
	sources []Source
	ttl     time.Duration
	clock   clockwork.Clock
	logger  *slog.Logger
	metrics *observability.Metrics

	mu    sync.Mutex
	entry *cacheEntry
}

type cacheEntry struct {
	key  string
	data Dataset
}

// NewCache creates a Cache over sources, tried in order on each reload.
func NewCache(ttl time.Duration, clock clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics, sources ...Source) *Cache {
	return &Cache{
		sources: sources,
		ttl:     ttl,
		clock:   clock,
		logger:  logger,
		metrics: metrics,
	}
}

// Get returns the cached Dataset, reloading it when stale.
func (c *Cache) Get(ctx context.Context) (Dataset, error) {
	key, err := c.identity()
	if err != nil {
		return Dataset{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock.Now()
	if e := c.entry; e != nil && e.key == key && now.Sub(e.data.LoadedAt) <= c.ttl {
		c.metrics.CacheLookups.WithLabelValues("hit").Inc()
		return e.data, nil
	}
	c.metrics.CacheLookups.WithLabelValues("miss").Inc()

	data, err := Load(ctx, c.logger, c.sources...)
	if err != nil {
		c.entry = nil
		if errors.Is(err, ErrNoData) {
			c.metrics.CacheReloads.WithLabelValues("none").Inc()
		}
		return Dataset{}, err
	}
	data.LoadedAt = now
	c.entry = &cacheEntry{key: key, data: data}
	c.metrics.CacheReloads.WithLabelValues(data.Source).Inc()
	c.logger.Info("dataset loaded", "source", data.Source, "projects", len(data.Projects))
	return data, nil
}

// Invalidate drops the cached entry so the next Get reloads.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.entry = nil
	c.mu.Unlock()
	c.logger.Debug("dataset cache invalidated")
}

// CheckReadiness reports whether a dataset can be served.
func (c *Cache) CheckReadiness(ctx context.Context) error {
	_, err := c.Get(ctx)
	return err
}

// identity fingerprints every source file by path, size and modification
// time. Missing files contribute their path only.
func (c *Cache) identity() (string, error) {
	var b strings.Builder
	for _, src := range c.sources {
		info, err := os.Stat(src.Path())
		switch {
		case errors.Is(err, fs.ErrNotExist):
			fmt.Fprintf(&b, "%s:absent;", src.Path())
		case err != nil:
			return "", fmt.Errorf("stat %s: %w", src.Path(), err)
		default:
			fmt.Fprintf(&b, "%s:%d:%d;", src.Path(), info.Size(), info.ModTime().UnixNano())
		}
	}
	return b.String(), nil
}
