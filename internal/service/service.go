// Package service ties fetching, parsing, caching and persistence together.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/voyagen/m3uvault/internal/cache"
	"github.com/voyagen/m3uvault/internal/config"
	"github.com/voyagen/m3uvault/internal/fetcher"
	"github.com/voyagen/m3uvault/internal/m3u"
	"github.com/voyagen/m3uvault/internal/metrics"
	"github.com/voyagen/m3uvault/internal/models"
	"github.com/voyagen/m3uvault/internal/store"
)

var (
	// ErrQueueUnavailable is returned by Enqueue when Redis is not configured.
	ErrQueueUnavailable = errors.New("job queue requires REDIS_URL")
	// ErrNotRefreshable is returned by Refresh for sources uploaded as text.
	ErrNotRefreshable = errors.New("source has no location to refresh from")
)

const (
	ingestLockTTL = 5 * time.Minute
	parseCacheTTL = 10 * time.Minute
)

// Service is the application layer used by the HTTP server, the CLI and
// the ingest worker. rds may be nil, which disables caching, locking and
// the job queue.
type Service struct {
	store store.Store
	rds   *cache.Redis
	fetch fetcher.Options
	log   *logrus.Entry
}

// New creates a Service.
func New(s store.Store, rds *cache.Redis, cfg *config.Config, log *logrus.Entry) *Service {
	return &Service{
		store: s,
		rds:   rds,
		fetch: fetcher.Options{
			UserAgent:   cfg.UserAgent,
			Timeout:     cfg.Timeout,
			MaxBytes:    cfg.MaxPlaylistBytes,
			AcceptPaths: cfg.AcceptPaths,
		},
		log: log,
	}
}

// Parse parses an uploaded playlist body. Results are cached in Redis by
// content hash when available.
func (s *Service) Parse(ctx context.Context, body string) (*models.Playlist, error) {
	key := cache.ParseKey(body, s.fetch.AcceptPaths)
	if s.rds != nil {
		if pl, err := cache.Get[models.Playlist](ctx, s.rds, key); err == nil {
			metrics.PlaylistsParsed.WithLabelValues(metrics.ResultCached).Inc()
			return &pl, nil
		}
	}

	pl, err := s.parse(body)
	if err != nil {
		return nil, err
	}
	if s.rds != nil {
		if err := cache.Set(ctx, s.rds, key, pl, parseCacheTTL); err != nil {
			s.log.WithError(err).Warn("cache parse result")
		}
	}
	return pl, nil
}

func (s *Service) parse(body string) (*models.Playlist, error) {
	start := time.Now()
	pl, err := m3u.Parse(body, m3u.WithAcceptPaths(s.fetch.AcceptPaths))
	observe(pl, err, time.Since(start))
	return pl, err
}

// observe records parse metrics for one attempt.
func observe(pl *models.Playlist, err error, d time.Duration) {
	metrics.ParseDuration.Observe(d.Seconds())
	if err != nil {
		metrics.PlaylistsParsed.WithLabelValues(metrics.ResultInvalid).Inc()
		return
	}
	metrics.PlaylistsParsed.WithLabelValues(metrics.ResultOK).Inc()
	metrics.EntriesParsed.Add(float64(len(pl.Items)))
	metrics.IncompleteEntries.Add(float64(len(pl.Items) - len(pl.Complete())))
}

// StoreText parses body and stores it as source name. An existing source
// with that name has its entries replaced.
func (s *Service) StoreText(ctx context.Context, name, body string) (sourceID int64, entryCount int, err error) {
	if name == "" {
		return 0, 0, fmt.Errorf("name is required")
	}
	pl, err := s.parse(body)
	if err != nil {
		return 0, 0, err
	}
	sourceID, err = s.store.CreateOrGetSource(ctx, name, "", models.SourceTypeText)
	if err != nil {
		return 0, 0, fmt.Errorf("CreateOrGetSource: %w", err)
	}
	if err := s.store.ReplaceEntries(ctx, sourceID, pl); err != nil {
		return sourceID, 0, fmt.Errorf("ReplaceEntries: %w", err)
	}
	return sourceID, len(pl.Items), nil
}

// Ingest fetches the playlist at location, parses it and replaces the
// stored entries of source name (default: location). Concurrent ingests
// of the same location fail with cache.ErrLocked.
func (s *Service) Ingest(ctx context.Context, location, name string) (sourceID int64, entryCount int, err error) {
	if location == "" {
		return 0, 0, fmt.Errorf("location is required")
	}
	if name == "" {
		name = location
	}
	if s.rds != nil {
		unlock, err := cache.TryLock(ctx, s.rds, cache.IngestLockKey(location), ingestLockTTL)
		if err != nil {
			return 0, 0, err
		}
		defer unlock()
	}

	raw, err := fetcher.Load(ctx, location, s.fetch)
	if err != nil {
		return 0, 0, fmt.Errorf("fetch: %w", err)
	}
	pl, err := s.parse(raw.Text)
	if err != nil {
		return 0, 0, fmt.Errorf("parse %s: %w", location, err)
	}

	sourceID, err = s.store.CreateOrGetSource(ctx, name, location, raw.SourceType)
	if err != nil {
		return 0, 0, fmt.Errorf("CreateOrGetSource: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return sourceID, 0, fmt.Errorf("ingest cancelled: %w", err)
	}
	if err := s.store.ReplaceEntries(ctx, sourceID, pl); err != nil {
		return sourceID, 0, fmt.Errorf("ReplaceEntries: %w", err)
	}

	s.log.WithFields(logrus.Fields{
		"source_id": sourceID,
		"location":  location,
		"entries":   len(pl.Items),
		"bytes":     len(raw.Text),
	}).Info("ingest complete")
	return sourceID, len(pl.Items), nil
}

// Refresh re-ingests a stored source from its location.
func (s *Service) Refresh(ctx context.Context, sourceID int64) (int, error) {
	src, err := s.store.GetSource(ctx, sourceID)
	if err != nil {
		return 0, err
	}
	if src.URL == "" {
		return 0, ErrNotRefreshable
	}
	_, n, err := s.Ingest(ctx, src.URL, src.Name)
	return n, err
}
