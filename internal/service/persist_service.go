package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/shiftwise/shiftwise-api/internal/models"
	"github.com/shiftwise/shiftwise-api/pkg/config"
	"github.com/shiftwise/shiftwise-api/pkg/jobs"
)

type scheduleInserter interface {
	Insert(ctx context.Context, schedule *models.CanonicalSchedule) error
}

type latestCacheWriter interface {
	SetLatest(ctx context.Context, schedule *models.CanonicalSchedule) error
}

// PersistService writes normalised schedules to the document store through a
// background queue. Persistence is fire-and-forget: a failed write never rolls
// back the in-memory result the caller already holds.
type PersistService struct {
	store  scheduleInserter
	cache  latestCacheWriter
	queue  *jobs.Queue
	logger *zap.Logger
}

// NewPersistService wires the store, the latest-schedule cache and the worker
// queue. The cache may be nil when Redis is disabled.
func NewPersistService(store scheduleInserter, cache latestCacheWriter, cfg config.PersistConfig, logger *zap.Logger) *PersistService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &PersistService{store: store, cache: cache, logger: logger}
	s.queue = jobs.NewQueue("schedule_persist", s.handle, jobs.QueueConfig{
		Workers:    cfg.Workers,
		MaxRetries: cfg.MaxRetries,
		RetryDelay: cfg.RetryDelay,
		Logger:     logger,
	})
	return s
}

// Start launches the queue workers.
func (s *PersistService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains the queue workers.
func (s *PersistService) Stop() {
	s.queue.Stop()
}

// PersistAsync enqueues a schedule for background persistence.
func (s *PersistService) PersistAsync(schedule *models.CanonicalSchedule) error {
	return s.queue.Enqueue(jobs.Job{
		ID:      schedule.ID,
		Type:    "persist_schedule",
		Payload: schedule,
	})
}

func (s *PersistService) handle(ctx context.Context, job jobs.Job) error {
	schedule, ok := job.Payload.(*models.CanonicalSchedule)
	if !ok {
		return fmt.Errorf("unexpected payload type %T for job %s", job.Payload, job.ID)
	}
	if err := s.store.Insert(ctx, schedule); err != nil {
		return err
	}
	if s.cache != nil {
		// Cache refresh is best effort; the row is already durable.
		if err := s.cache.SetLatest(ctx, schedule); err != nil {
			s.logger.Warn("failed to refresh latest schedule cache",
				zap.String("business_id", schedule.BusinessID),
				zap.String("schedule_id", schedule.ID),
				zap.Error(err))
		}
	}
	s.logger.Info("persisted schedule",
		zap.String("business_id", schedule.BusinessID),
		zap.String("schedule_id", schedule.ID))
	return nil
}
