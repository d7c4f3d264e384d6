package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/comment-server/internal/gate"
	"github.com/comment-server/internal/idgen"
	"github.com/comment-server/internal/models"
	"github.com/comment-server/internal/notify"
	"github.com/comment-server/internal/repository"
	"github.com/rs/zerolog"
)

// commentService is the concrete implementation of CommentService.
// Writes go to the comment store first, then the counter, then the gate.
// Events are emitted only after the store write has committed.
type commentService struct {
	comments repository.CommentRepository
	counter  CounterService
	gate     gate.FirstCommentGate
	notifier *notify.Notifier
	ids      idgen.Generator
	now      func() time.Time
	log      zerolog.Logger
}

// newCommentService creates a new CommentService
func newCommentService(comments repository.CommentRepository, counter CounterService, deps Dependencies, log zerolog.Logger) *commentService {
	return &commentService{
		comments: comments,
		counter:  counter,
		gate:     deps.Gate,
		notifier: deps.Notifier,
		ids:      deps.IDs,
		now:      func() time.Time { return time.Now().UTC().Truncate(time.Microsecond) },
		log:      log.With().Str("service", "comment").Logger(),
	}
}

// CreateRoot writes a top-level comment on an article
func (s *commentService) CreateRoot(ctx context.Context, articleID, writerID, contents string) (*models.Comment, error) {
	if err := models.ValidateContents(contents); err != nil {
		return nil, translateDomainError(err)
	}

	now := s.now()
	comment, err := models.NewRootComment(s.ids.NewID(), articleID, writerID, contents, now)
	if err != nil {
		return nil, translateDomainError(err)
	}

	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, fmt.Errorf("failed to create comment: %w", err)
	}

	s.adjustCounter(ctx, articleID, 1)
	s.notifier.Emit(ctx, s.firstCommentEvents(ctx, articleID, writerID, now)...)

	s.log.Info().
		Str("comment_id", comment.ID).
		Str("article_id", articleID).
		Msg("Root comment created")

	return comment, nil
}

// CreateReply writes a reply under parentID. The parent's reply count is
// bumped in the same transaction as the insert.
func (s *commentService) CreateReply(ctx context.Context, parentID, writerID, contents string) (*models.Comment, error) {
	if err := models.ValidateContents(contents); err != nil {
		return nil, translateDomainError(err)
	}

	parent, err := s.comments.GetByID(ctx, parentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load parent comment: %w", err)
	}
	if parent == nil {
		return nil, ErrParentNotFound
	}

	now := s.now()
	reply, err := models.NewReplyComment(s.ids.NewID(), parent, writerID, contents, now)
	if err != nil {
		return nil, translateDomainError(err)
	}

	if err := s.comments.CreateReply(ctx, reply); err != nil {
		return nil, fmt.Errorf("failed to create reply: %w", err)
	}

	s.adjustCounter(ctx, reply.ArticleID, 1)
	s.notifier.Emit(ctx, s.firstCommentEvents(ctx, reply.ArticleID, writerID, now)...)

	s.log.Info().
		Str("comment_id", reply.ID).
		Str("parent_id", parentID).
		Str("article_id", reply.ArticleID).
		Msg("Reply created")

	return reply, nil
}

// UpdateContents replaces the text of a comment owned by requesterID
func (s *commentService) UpdateContents(ctx context.Context, commentID, requesterID, contents string) (*models.Comment, error) {
	comment, err := s.loadOwned(ctx, commentID, requesterID)
	if err != nil {
		return nil, err
	}

	if err := comment.UpdateContents(contents, s.now()); err != nil {
		return nil, translateDomainError(err)
	}

	updated, err := s.comments.UpdateContents(ctx, comment.ID, comment.Contents, comment.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to update comment: %w", err)
	}
	if !updated {
		return nil, ErrStatusLocked
	}
	return comment, nil
}

// SoftDelete marks a comment deleted. Deleting an already deleted comment is a no-op.
func (s *commentService) SoftDelete(ctx context.Context, commentID, requesterID string) error {
	comment, err := s.loadOwned(ctx, commentID, requesterID)
	if err != nil {
		return err
	}
	if comment.IsDeleted {
		return nil
	}

	now := s.now()
	res, err := s.comments.SoftDelete(ctx, commentID, now)
	if err != nil {
		return fmt.Errorf("failed to delete comment: %w", err)
	}
	if res.Comment == nil {
		return ErrCommentNotFound
	}
	if !res.Deleted {
		return nil
	}

	prev := res.Comment
	if prev.IsCounted() {
		s.adjustCounter(ctx, prev.ArticleID, -1)
	}

	// no active comment left on the article
	var events []notify.Event
	if res.RemainingActive == 0 {
		events = append(events, models.CommentDeletedEvent{
			WriterID:   prev.WriterID,
			ArticleID:  prev.ArticleID,
			OccurredAt: now,
		})
	}
	s.notifier.Emit(ctx, events...)

	s.log.Info().
		Str("comment_id", commentID).
		Str("article_id", prev.ArticleID).
		Int("remaining_active", res.RemainingActive).
		Msg("Comment deleted")

	return nil
}

// ChangeStatus applies a moderation status. The counter follows the comment
// into and out of ACTIVE.
func (s *commentService) ChangeStatus(ctx context.Context, commentID string, status models.CommentStatus) (*models.Comment, error) {
	comment, err := s.comments.GetByID(ctx, commentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load comment: %w", err)
	}
	if comment == nil {
		return nil, ErrCommentNotFound
	}

	before := *comment
	if err := comment.ChangeStatus(status, s.now()); err != nil {
		return nil, translateDomainError(err)
	}
	if before.Status == status {
		return &before, nil
	}

	updated, err := s.comments.UpdateStatus(ctx, comment.ID, before.Status, status, comment.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to update status: %w", err)
	}
	if !updated {
		return nil, ErrStatusLocked
	}

	switch {
	case before.Status == models.CommentStatusActive:
		s.adjustCounter(ctx, comment.ArticleID, -1)
	case status == models.CommentStatusActive:
		s.adjustCounter(ctx, comment.ArticleID, 1)
	}

	s.log.Info().
		Str("comment_id", commentID).
		Str("from", string(before.Status)).
		Str("to", string(status)).
		Msg("Comment status changed")

	return comment, nil
}

func (s *commentService) loadOwned(ctx context.Context, commentID, requesterID string) (*models.Comment, error) {
	comment, err := s.comments.GetByID(ctx, commentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load comment: %w", err)
	}
	if comment == nil {
		return nil, ErrCommentNotFound
	}
	if !comment.IsOwnedBy(requesterID) {
		return nil, ErrNotCommentOwner
	}
	return comment, nil
}

// adjustCounter applies a counter delta. Failures are logged and never fail
// the comment write.
func (s *commentService) adjustCounter(ctx context.Context, articleID string, delta int) {
	var err error
	switch delta {
	case 1:
		err = s.counter.Increment(ctx, articleID)
	case -1:
		err = s.counter.Decrement(ctx, articleID)
	default:
		err = s.counter.UpsertAndAdd(ctx, articleID, delta)
	}
	if err != nil {
		s.log.Error().
			Err(err).
			Str("article_id", articleID).
			Int("delta", delta).
			Msg("Comment count out of sync, pending repair")
	}
}

func (s *commentService) firstCommentEvents(ctx context.Context, articleID, writerID string, at time.Time) []notify.Event {
	if !s.gate.IsFirstWithinWindow(ctx, articleID, writerID) {
		return nil
	}
	return []notify.Event{models.CommentCreatedEvent{
		WriterID:   writerID,
		ArticleID:  articleID,
		OccurredAt: at,
	}}
}

func translateDomainError(err error) error {
	switch {
	case errors.Is(err, models.ErrBlankContents):
		return ErrContentsRequired.Wrap(err)
	case errors.Is(err, models.ErrInvalidStatus):
		return ErrInvalidStatus.Wrap(err)
	case errors.Is(err, models.ErrCommentDeleted):
		return ErrStatusLocked.Wrap(err)
	default:
		return err
	}
}
