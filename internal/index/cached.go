package index

import (
	"bitwise74/file-catalog/internal/model"
	"context"
	"slices"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	cacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "catalog_index_cache_hits_total",
		Help: "File record lookups answered by the cache",
	})
	cacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "catalog_index_cache_misses_total",
		Help: "File record lookups that went to the database",
	})
)

// CachedIndex keeps recently looked up records in a per process LRU. Only
// FindByID is cached, every write through this index evicts the record.
// Writes made by other processes become visible once the entry expires.
type CachedIndex struct {
	*GormIndex
	cache *expirable.LRU[string, model.File]
}

func NewCachedIndex(idx *GormIndex, size int, ttl time.Duration) *CachedIndex {
	return &CachedIndex{
		GormIndex: idx,
		cache:     expirable.NewLRU[string, model.File](size, nil, ttl),
	}
}

// FindByID hands out copies, callers are free to modify the result.
func (c *CachedIndex) FindByID(ctx context.Context, fileID string) (*model.File, error) {
	if f, ok := c.cache.Get(fileID); ok {
		cacheHitsTotal.Inc()
		return copyFile(f), nil
	}

	cacheMissesTotal.Inc()

	f, err := c.GormIndex.FindByID(ctx, fileID)
	if err != nil {
		return nil, err
	}

	c.cache.Add(fileID, *copyFile(*f))
	return f, nil
}

func (c *CachedIndex) Create(ctx context.Context, f *model.File) error {
	defer c.cache.Remove(f.ID)
	return c.GormIndex.Create(ctx, f)
}

// Update evicts the record before and after the write. A lookup running
// concurrently with the write may cache the old row in between.
func (c *CachedIndex) Update(ctx context.Context, f *model.File) error {
	c.cache.Remove(f.ID)
	defer c.cache.Remove(f.ID)

	return c.GormIndex.Update(ctx, f)
}

func (c *CachedIndex) DeleteByID(ctx context.Context, fileID string) error {
	c.cache.Remove(fileID)
	defer c.cache.Remove(fileID)

	return c.GormIndex.DeleteByID(ctx, fileID)
}

// Len returns the number of cached records.
func (c *CachedIndex) Len() int {
	return c.cache.Len()
}

func copyFile(f model.File) *model.File {
	f.Tags = slices.Clone(f.Tags)
	return &f
}
