package service

import (
	"context"
	"time"

	"github.com/voyagen/m3uvault/internal/cache"
	"github.com/voyagen/m3uvault/internal/metrics"
)

// Enqueue schedules a background ingest of location.
func (s *Service) Enqueue(ctx context.Context, location, name string) (cache.IngestJob, error) {
	if s.rds == nil {
		return cache.IngestJob{}, ErrQueueUnavailable
	}
	job := cache.NewIngestJob(location, name)
	if err := cache.Enqueue(ctx, s.rds, cache.DefaultQueue, job); err != nil {
		return cache.IngestJob{}, err
	}
	metrics.IngestJobs.WithLabelValues("queued").Inc()
	return job, nil
}

// RunWorker dequeues ingest jobs until ctx is cancelled. It returns
// immediately when Redis is not configured.
func (s *Service) RunWorker(ctx context.Context) {
	if s.rds == nil {
		return
	}
	s.log.Info("ingest worker started")
	for {
		select {
		case <-ctx.Done():
			s.log.Info("ingest worker stopping")
			return
		default:
		}

		job, err := cache.Dequeue(ctx, s.rds, cache.DefaultQueue, 5*time.Second)
		if err != nil {
			s.log.WithError(err).Error("dequeue")
			time.Sleep(2 * time.Second)
			continue
		}
		if job == nil {
			continue
		}

		log := s.log.WithField("job_id", job.ID).WithField("location", job.Location)
		log.Info("processing ingest job")
		if _, n, err := s.Ingest(ctx, job.Location, job.Name); err != nil {
			metrics.IngestJobs.WithLabelValues("failed").Inc()
			log.WithError(err).Error("ingest job failed")
		} else {
			metrics.IngestJobs.WithLabelValues("done").Inc()
			log.WithField("entries", n).Info("ingest job done")
		}
	}
}
