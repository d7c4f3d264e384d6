package service

import (
	"context"
	"fmt"
	"math"

	"github.com/comment-server/internal/models"
)

// GetByID returns a single comment
func (s *commentService) GetByID(ctx context.Context, commentID string) (*models.Comment, error) {
	comment, err := s.comments.GetByID(ctx, commentID)
	if err != nil {
		return nil, fmt.Errorf("failed to get comment: %w", err)
	}
	if comment == nil {
		return nil, ErrCommentNotFound
	}
	return comment, nil
}

// ListPage returns page (0-based) of an article's threads, newest root first.
// A page holds pageSize slots and a root takes 1 + reply_count of them, so a
// thread is never split across pages.
func (s *commentService) ListPage(ctx context.Context, articleID string, page, pageSize int) ([]*models.CommentResponse, error) {
	if page < 0 || pageSize <= 0 {
		return []*models.CommentResponse{}, nil
	}
	// the window end (page+1)*pageSize must fit in int64
	if int64(page) > math.MaxInt64/int64(pageSize)-1 {
		return []*models.CommentResponse{}, nil
	}

	prevLimit := int64(page) * int64(pageSize)
	currLimit := prevLimit + int64(pageSize)

	rootIDs, err := s.comments.FindRootIDsForPage(ctx, articleID, prevLimit, currLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to select page roots: %w", err)
	}
	if len(rootIDs) == 0 {
		return []*models.CommentResponse{}, nil
	}

	rows, err := s.comments.FindThreadsByRootIDs(ctx, articleID, rootIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch threads: %w", err)
	}

	threads := assembleThreads(rootIDs, rows)
	if skipped := len(rootIDs) - len(threads); skipped > 0 {
		s.log.Warn().
			Str("article_id", articleID).
			Int("page", page).
			Int("skipped_roots", skipped).
			Msg("Page roots vanished between queries")
	}
	return threads, nil
}

// ListAll returns every non-deleted comment of an article in creation order
func (s *commentService) ListAll(ctx context.Context, articleID string) ([]*models.Comment, error) {
	comments, err := s.comments.ListByArticle(ctx, articleID)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	return comments, nil
}

// ListReplies returns the direct replies of a comment in creation order
func (s *commentService) ListReplies(ctx context.Context, parentID string) ([]*models.Comment, error) {
	replies, err := s.comments.ListByParent(ctx, parentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list replies: %w", err)
	}
	return replies, nil
}

// GetThread returns a root and all comments under it in creation order
func (s *commentService) GetThread(ctx context.Context, rootID string) ([]*models.Comment, error) {
	thread, err := s.comments.ListByRoot(ctx, rootID)
	if err != nil {
		return nil, fmt.Errorf("failed to get thread: %w", err)
	}
	return thread, nil
}
