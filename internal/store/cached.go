package store

import (
	"context"
	"crypto/sha256"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/voyagen/m3uvault/internal/cache"
	"github.com/voyagen/m3uvault/internal/models"
)

// Cache TTLs for different entity types.
const (
	ttlSources = 2 * time.Minute
	ttlSource  = 5 * time.Minute
	ttlEntries = 1 * time.Minute
	ttlGroups  = 5 * time.Minute
)

// CachedStore wraps a Store with a Redis read-through cache. Writes
// invalidate the keys they affect.
type CachedStore struct {
	inner Store
	cache *cache.Redis
	log   *logrus.Entry
}

// NewCachedStore creates a CachedStore that wraps inner with Redis caching.
func NewCachedStore(inner Store, c *cache.Redis, log *logrus.Entry) *CachedStore {
	return &CachedStore{inner: inner, cache: c, log: log}
}

// --- cached read operations ---

func (c *CachedStore) ListSources(ctx context.Context) ([]models.Source, error) {
	const key = "sources:all"
	if v, err := cache.Get[[]models.Source](ctx, c.cache, key); err == nil {
		return v, nil
	}
	sources, err := c.inner.ListSources(ctx)
	if err != nil {
		return nil, err
	}
	c.set(ctx, key, sources, ttlSources)
	return sources, nil
}

func (c *CachedStore) GetSource(ctx context.Context, sourceID int64) (*models.Source, error) {
	key := sourceKey(sourceID)
	if v, err := cache.Get[models.Source](ctx, c.cache, key); err == nil {
		return &v, nil
	}
	src, err := c.inner.GetSource(ctx, sourceID)
	if err != nil {
		return nil, err
	}
	c.set(ctx, key, src, ttlSource)
	return src, nil
}

// entryListResult caches the ListEntries tuple.
type entryListResult struct {
	Entries []models.StoredEntry `json:"entries"`
	Total   int                  `json:"total"`
}

func (c *CachedStore) ListEntries(ctx context.Context, filter EntryFilter) ([]models.StoredEntry, int, error) {
	filter = filter.Normalize()
	key := entriesKey(filter)
	if v, err := cache.Get[entryListResult](ctx, c.cache, key); err == nil {
		return v.Entries, v.Total, nil
	}
	entries, total, err := c.inner.ListEntries(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	c.set(ctx, key, entryListResult{Entries: entries, Total: total}, ttlEntries)
	return entries, total, nil
}

func (c *CachedStore) ListGroups(ctx context.Context, sourceID int64) ([]models.GroupCount, error) {
	key := fmt.Sprintf("groups:%d", sourceID)
	if v, err := cache.Get[[]models.GroupCount](ctx, c.cache, key); err == nil {
		return v, nil
	}
	groups, err := c.inner.ListGroups(ctx, sourceID)
	if err != nil {
		return nil, err
	}
	c.set(ctx, key, groups, ttlGroups)
	return groups, nil
}

// --- write operations with cache invalidation ---

func (c *CachedStore) CreateOrGetSource(ctx context.Context, name, url string, sourceType int16) (int64, error) {
	id, err := c.inner.CreateOrGetSource(ctx, name, url, sourceType)
	if err != nil {
		return 0, err
	}
	c.invalidate(ctx, sourceKey(id), "sources:all")
	return id, nil
}

func (c *CachedStore) DeleteSource(ctx context.Context, sourceID int64) error {
	if err := c.inner.DeleteSource(ctx, sourceID); err != nil {
		return err
	}
	c.invalidateSource(ctx, sourceID)
	return nil
}

func (c *CachedStore) ReplaceEntries(ctx context.Context, sourceID int64, pl *models.Playlist) error {
	if err := c.inner.ReplaceEntries(ctx, sourceID, pl); err != nil {
		return err
	}
	c.invalidateSource(ctx, sourceID)
	return nil
}

// --- helpers ---

func (c *CachedStore) set(ctx context.Context, key string, v any, ttl time.Duration) {
	if err := cache.Set(ctx, c.cache, key, v, ttl); err != nil {
		c.log.WithError(err).WithField("key", key).Warn("cache set failed")
	}
}

func (c *CachedStore) invalidateSource(ctx context.Context, sourceID int64) {
	c.invalidate(ctx, sourceKey(sourceID), "sources:all", fmt.Sprintf("groups:%d", sourceID))
	pattern := fmt.Sprintf("entries:%d:*", sourceID)
	if err := cache.DelPattern(ctx, c.cache, pattern); err != nil {
		c.log.WithError(err).WithField("pattern", pattern).Warn("cache invalidation failed")
	}
}

// invalidate deletes exact cache keys, logging any errors.
func (c *CachedStore) invalidate(ctx context.Context, keys ...string) {
	if err := cache.Del(ctx, c.cache, keys...); err != nil && !cache.IsMiss(err) {
		c.log.WithError(err).WithField("keys", keys).Warn("cache invalidation failed")
	}
}

func sourceKey(id int64) string {
	return fmt.Sprintf("source:%d", id)
}

// entriesKey scopes the filter hash by source so one source's entries can
// be invalidated by pattern.
func entriesKey(f EntryFilter) string {
	group := "*"
	if f.Group != nil {
		group = "=" + *f.Group
	}
	raw := fmt.Sprintf("%s|%s|%v|%d|%d", group, f.Search, f.CompleteOnly, f.Limit, f.Offset)
	h := sha256.Sum256([]byte(raw))
	return fmt.Sprintf("entries:%d:%x", f.SourceID, h[:8])
}
