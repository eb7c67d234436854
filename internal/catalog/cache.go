// Package catalog serves disciplines and campi to planning sessions and
// imports catalog documents into storage.
package catalog

import (
	"context"
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/mesh-intelligence/planner/internal/logging"
	"github.com/mesh-intelligence/planner/internal/metrics"
	"github.com/mesh-intelligence/planner/pkg/types"
)

// Source is the storage a Cache reads through to.
type Source interface {
	types.Catalog
	types.CampusDirectory
}

// Cache is a read-through TTL cache over a Source. Concurrent misses for the
// same key share one source call. Every returned discipline is a deep copy,
// so candidate flags set by one selection never leak into another.
type Cache struct {
	src     Source
	entries *cache.Cache
	flight  singleflight.Group
	log     *zap.Logger
	metrics *metrics.Metrics
}

// NewCache wraps src. ttl is how long entries live; zero means
// types.DefaultCatalogCacheTTL.
func NewCache(src Source, ttl time.Duration, log *zap.Logger, m *metrics.Metrics) *Cache {
	if ttl <= 0 {
		ttl = types.DefaultCatalogCacheTTL
	}
	return &Cache{
		src:     src,
		entries: cache.New(ttl, 2*ttl),
		log:     logging.OrNop(log),
		metrics: m,
	}
}

func disciplineKey(id types.ID) string { return "discipline:" + id.Raw }
func campiKey(id types.ID) string      { return "campi:" + id.Raw }

// FetchDiscipline returns a copy of the discipline, loading it from the
// source on a miss.
func (c *Cache) FetchDiscipline(ctx context.Context, id types.ID) (*types.Discipline, error) {
	key := disciplineKey(id)
	if v, ok := c.entries.Get(key); ok {
		c.metrics.ObserveCatalogFetch("hit")
		return v.(*types.Discipline).Clone(), nil
	}

	v, err, _ := c.flight.Do(key, func() (any, error) {
		d, err := c.src.FetchDiscipline(ctx, id)
		if err != nil {
			return nil, err
		}
		c.entries.Set(key, d, cache.DefaultExpiration)
		return d, nil
	})
	if err != nil {
		c.metrics.ObserveCatalogFetch("error")
		return nil, err
	}
	c.metrics.ObserveCatalogFetch("miss")
	c.log.Debug("catalog miss", zap.String("discipline", id.Raw))
	return v.(*types.Discipline).Clone(), nil
}

// SelectDiscipline passes through to the source.
func (c *Cache) SelectDiscipline(ctx context.Context, id types.ID) error {
	if err := c.src.SelectDiscipline(ctx, id); err != nil {
		return fmt.Errorf("select discipline %s: %w", id.Raw, err)
	}
	return nil
}

// Campi returns the campi of a semester, loading them on a miss.
func (c *Cache) Campi(ctx context.Context, semester types.ID) ([]types.Campus, error) {
	key := campiKey(semester)
	if v, ok := c.entries.Get(key); ok {
		return append([]types.Campus(nil), v.([]types.Campus)...), nil
	}

	v, err, _ := c.flight.Do(key, func() (any, error) {
		campi, err := c.src.Campi(ctx, semester)
		if err != nil {
			return nil, err
		}
		c.entries.Set(key, campi, cache.DefaultExpiration)
		return campi, nil
	})
	if err != nil {
		return nil, err
	}
	return append([]types.Campus(nil), v.([]types.Campus)...), nil
}

// Invalidate drops one discipline from the cache.
func (c *Cache) Invalidate(id types.ID) {
	c.entries.Delete(disciplineKey(id))
}

// Flush drops every entry.
func (c *Cache) Flush() {
	c.entries.Flush()
}
