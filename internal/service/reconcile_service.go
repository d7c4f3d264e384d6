package service

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/comment-server/internal/config"
	"github.com/comment-server/internal/repository"
	"github.com/rs/zerolog"
)

// reconcileService is the concrete implementation of ReconcileService.
// Each tick repairs the counters of recently active articles.
type reconcileService struct {
	comments  repository.CommentRepository
	counter   CounterService
	interval  time.Duration
	window    time.Duration
	batchSize int
	log       zerolog.Logger
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	running   bool
	stopped   bool
	mu        sync.Mutex
	// Semaphore: buffered channel to limit concurrent repairs
	sem chan struct{}
}

// newReconcileService creates a new ReconcileService with a bounded worker pool
func newReconcileService(comments repository.CommentRepository, counter CounterService, cfg config.ReconcileConfig, log zerolog.Logger) *reconcileService {
	maxWorkers := runtime.NumCPU() * 2
	if maxWorkers < 2 {
		maxWorkers = 2
	}
	if maxWorkers > 16 {
		maxWorkers = 16 // each repair holds a database connection
	}

	return &reconcileService{
		comments:  comments,
		counter:   counter,
		interval:  cfg.Interval,
		window:    cfg.Window,
		batchSize: cfg.BatchSize,
		log:       log.With().Str("service", "reconcile").Logger(),
		sem:       make(chan struct{}, maxWorkers),
	}
}

// Start runs the repair loop until ctx is cancelled or Stop is called.
// A zero interval disables the loop.
func (s *reconcileService) Start(ctx context.Context) {
	if s.interval <= 0 {
		s.log.Info().Msg("Counter reconciler disabled")
		return
	}

	s.mu.Lock()
	if s.running || s.stopped {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.wg.Add(1)
	s.mu.Unlock()
	defer s.wg.Done()

	s.log.Info().
		Dur("interval", s.interval).
		Dur("window", s.window).
		Msg("Counter reconciler started")

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			s.log.Info().Msg("Counter reconciler stopping")
			return
		case <-ticker.C:
			s.RunOnce(s.ctx)
		}
	}
}

// Stop cancels the repair loop and waits for in-flight repairs.
// A Start that has not begun yet returns immediately afterwards.
func (s *reconcileService) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopped = true
	if !s.running {
		return
	}

	s.cancel()
	s.wg.Wait()
	s.running = false
	s.log.Info().Msg("Counter reconciler stopped")
}

// RunOnce repairs every article with comment activity inside the window and
// returns how many were repaired
func (s *reconcileService) RunOnce(ctx context.Context) int {
	since := time.Now().Add(-s.window)
	articleIDs, err := s.comments.ListRecentlyActiveArticles(ctx, since, s.batchSize)
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to list recently active articles")
		return 0
	}

	var repaired atomic.Int64
	var batch sync.WaitGroup

	for _, articleID := range articleIDs {
		// Acquire semaphore slot - blocks if all workers are busy
		select {
		case s.sem <- struct{}{}:
		case <-ctx.Done():
			batch.Wait()
			return int(repaired.Load())
		}

		batch.Add(1)
		go func(id string) {
			defer batch.Done()
			defer func() { <-s.sem }()

			defer func() {
				if r := recover(); r != nil {
					s.log.Error().
						Interface("panic", r).
						Str("article_id", id).
						Msg("Counter repair panicked - recovered")
				}
			}()

			count, err := s.counter.Repair(ctx, id)
			if err != nil {
				s.log.Warn().Err(err).Str("article_id", id).Msg("Counter repair failed")
				return
			}
			repaired.Add(1)
			s.log.Debug().Str("article_id", id).Int("count", count).Msg("Counter reconciled")
		}(articleID)
	}

	batch.Wait()

	if len(articleIDs) > 0 {
		s.log.Info().
			Int("articles", len(articleIDs)).
			Int64("repaired", repaired.Load()).
			Msg("Counter reconciliation pass finished")
	}
	return int(repaired.Load())
}
