// Package scheduler re-enqueues distributions that are waiting for a
// retry. Redelivery timing lives here; the delivery worker itself
// never computes a retry delay.
package scheduler

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/marminbh/event-broker/internal/config"
	"github.com/marminbh/event-broker/internal/queue"
	"github.com/marminbh/event-broker/internal/store"
)

// Scheduler periodically sweeps pending_retry distributions whose
// backoff window has elapsed, plus pending records orphaned by a crash
// between create and enqueue, and puts them back on the queue.
type Scheduler struct {
	cfg           *config.SchedulerConfig
	distributions store.Distributions
	queue         queue.DistributionQueue
	logger        *zap.Logger
	ctx           context.Context
	cancel        context.CancelFunc
	done          chan struct{}
}

func New(
	cfg *config.SchedulerConfig,
	distributions store.Distributions,
	distributionQueue queue.DistributionQueue,
	logger *zap.Logger,
) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cfg:           cfg,
		distributions: distributions,
		queue:         distributionQueue,
		logger:        logger,
		ctx:           ctx,
		cancel:        cancel,
		done:          make(chan struct{}),
	}
}

// Start begins the sweep loop.
func (s *Scheduler) Start() {
	interval := time.Duration(s.cfg.PollIntervalSeconds) * time.Second
	s.logger.Info("Retry scheduler started",
		zap.Duration("poll_interval", interval),
		zap.Int("batch_size", s.cfg.BatchSize),
	)

	go func() {
		defer close(s.done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-s.ctx.Done():
				return
			case <-ticker.C:
				s.sweep()
			}
		}
	}()
}

// Stop halts the sweep loop and waits for a running sweep to finish.
func (s *Scheduler) Stop() {
	s.cancel()
	<-s.done
	s.logger.Info("Retry scheduler stopped")
}

func (s *Scheduler) sweep() {
	now := time.Now().UTC()

	// Pull everything older than the shortest window, then apply the
	// per-attempt window in memory.
	candidates, err := s.distributions.ListStalled(s.ctx, now.Add(-RetryDelay(0)), s.cfg.BatchSize)
	if err != nil {
		s.logger.Error("Failed to list stalled distributions", zap.Error(err))
		return
	}

	requeued := 0
	for i := range candidates {
		distribution := &candidates[i]
		if now.Sub(distribution.UpdatedAt) < RetryDelay(distribution.Attempts) {
			continue
		}

		if err := s.queue.Enqueue(s.ctx, distribution); err != nil {
			s.logger.Error("Failed to re-enqueue distribution",
				zap.String("distribution_id", distribution.ID.String()),
				zap.String("subscription_id", distribution.SubscriptionID.String()),
				zap.Error(err),
			)
			continue
		}

		// Touch the record so the next sweep does not re-enqueue it
		// before the worker gets to it. A version conflict means the
		// worker is already on it, which is fine.
		if err := s.distributions.Update(s.ctx, distribution); err != nil && err != store.ErrVersionConflict {
			s.logger.Error("Failed to touch re-enqueued distribution",
				zap.String("distribution_id", distribution.ID.String()),
				zap.Error(err),
			)
		}
		requeued++
	}

	if requeued > 0 {
		s.logger.Info("Re-enqueued stalled distributions",
			zap.Int("count", requeued),
			zap.Int("candidates", len(candidates)),
		)
	}
}
