package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/comment-server/internal/models"
	"github.com/comment-server/internal/repository"
	"github.com/rs/zerolog"
)

// counterService is the concrete implementation of CounterService
type counterService struct {
	counters repository.CounterRepository
	comments repository.CommentRepository
	log      zerolog.Logger
}

// newCounterService creates a new CounterService
func newCounterService(counters repository.CounterRepository, comments repository.CommentRepository, log zerolog.Logger) *counterService {
	return &counterService{
		counters: counters,
		comments: comments,
		log:      log.With().Str("service", "counter").Logger(),
	}
}

// GetCount returns the stored count and whether the article has a row
func (s *counterService) GetCount(ctx context.Context, articleID string) (int, bool, error) {
	row, err := s.counters.Get(ctx, articleID)
	if err != nil {
		return 0, false, ErrCounterUnavailable.Wrap(err)
	}
	if row == nil {
		return 0, false, nil
	}
	return row.CommentCount, true, nil
}

// Increment adds one comment to the article, creating the row on first use
func (s *counterService) Increment(ctx context.Context, articleID string) error {
	return s.apply(ctx, articleID, 1, func() error {
		updated, err := s.counters.Increment(ctx, articleID)
		if err != nil {
			return err
		}
		if !updated {
			return s.counters.UpsertAdd(ctx, articleID, 1)
		}
		return nil
	})
}

// Decrement removes one comment from the article. A missing row stays missing.
func (s *counterService) Decrement(ctx context.Context, articleID string) error {
	return s.apply(ctx, articleID, -1, func() error {
		_, err := s.counters.Decrement(ctx, articleID)
		return err
	})
}

// UpsertAndAdd applies delta, creating the row with max(0, delta) if needed
func (s *counterService) UpsertAndAdd(ctx context.Context, articleID string, delta int) error {
	if delta == 0 {
		return nil
	}
	return s.apply(ctx, articleID, delta, func() error {
		return s.counters.UpsertAdd(ctx, articleID, delta)
	})
}

// SetCount overwrites the count. Negative values are stored as zero.
func (s *counterService) SetCount(ctx context.Context, articleID string, count int) error {
	if count < 0 {
		count = 0
	}

	updated, err := s.counters.Set(ctx, articleID, count)
	if err == nil && updated {
		return nil
	}
	if err != nil {
		s.log.Warn().Err(err).Str("article_id", articleID).Msg("Counter set failed, retrying as upsert")
	}

	if uerr := s.counters.UpsertSet(ctx, articleID, count); uerr != nil {
		return ErrCounterUnavailable.Wrap(errors.Join(err, uerr))
	}
	return nil
}

// GetCountsForArticles returns one count per distinct id in request order.
// Articles without a row count as zero.
func (s *counterService) GetCountsForArticles(ctx context.Context, articleIDs []string) (models.ArticleCounts, error) {
	counts := models.NewArticleCounts(articleIDs)
	if len(counts) == 0 {
		return counts, nil
	}

	ids := make([]string, len(counts))
	for i, c := range counts {
		ids[i] = c.ArticleID
	}

	found, err := s.counters.GetMany(ctx, ids)
	if err != nil {
		return nil, ErrCounterUnavailable.Wrap(err)
	}
	counts.Fill(found)
	return counts, nil
}

// Repair recomputes the count from the live comment rows and stores it
func (s *counterService) Repair(ctx context.Context, articleID string) (int, error) {
	live, err := s.comments.CountActiveByArticle(ctx, articleID)
	if err != nil {
		return 0, ErrCounterUnavailable.Wrap(err)
	}
	if err := s.SetCount(ctx, articleID, live); err != nil {
		return 0, err
	}

	s.log.Debug().Str("article_id", articleID).Int("count", live).Msg("Counter repaired")
	return live, nil
}

// apply runs an atomic counter operation. On failure it makes exactly one
// correction attempt that reads the current value and stores max(0, current+delta).
func (s *counterService) apply(ctx context.Context, articleID string, delta int, op func() error) error {
	err := op()
	if err == nil {
		return nil
	}

	s.log.Warn().
		Err(err).
		Str("article_id", articleID).
		Int("delta", delta).
		Msg("Atomic counter update failed, attempting correction")

	if cerr := s.correct(ctx, articleID, delta); cerr != nil {
		s.log.Error().
			Err(cerr).
			Str("article_id", articleID).
			Int("delta", delta).
			Msg("Counter correction failed")
		return ErrCounterUnavailable.Wrap(errors.Join(err, cerr))
	}
	return nil
}

func (s *counterService) correct(ctx context.Context, articleID string, delta int) error {
	row, err := s.counters.Get(ctx, articleID)
	if err != nil {
		return fmt.Errorf("failed to read counter: %w", err)
	}

	current := 0
	if row != nil {
		current = row.CommentCount
	} else if delta < 0 {
		return nil
	}

	next := current + delta
	if next < 0 {
		next = 0
	}
	return s.counters.UpsertSet(ctx, articleID, next)
}
