package repository

import (
	"context"
	"errors"
	"time"

	"github.com/comment-server/internal/database"
	"github.com/comment-server/internal/models"
)

// ErrDuplicateID is returned when an insert collides with an existing comment id
var ErrDuplicateID = errors.New("comment id already exists")

// SoftDeleteResult describes the outcome of a soft delete transaction
type SoftDeleteResult struct {
	// Comment is the row as it was before the delete, nil when not found
	Comment *models.Comment
	// Deleted is false when the comment was already deleted
	Deleted bool
	// RemainingActive is the number of active comments left on the article
	RemainingActive int
}

// CommentRepository defines the interface for comment data operations
type CommentRepository interface {
	Create(ctx context.Context, comment *models.Comment) error
	// CreateReply inserts reply and increments its parent's reply_count in one transaction
	CreateReply(ctx context.Context, reply *models.Comment) error
	GetByID(ctx context.Context, id string) (*models.Comment, error)
	UpdateContents(ctx context.Context, id, contents string, updatedAt time.Time) (bool, error)
	// UpdateStatus changes the status only if it still equals from
	UpdateStatus(ctx context.Context, id string, from, to models.CommentStatus, updatedAt time.Time) (bool, error)
	SoftDelete(ctx context.Context, id string, deletedAt time.Time) (*SoftDeleteResult, error)

	FindRootIDsForPage(ctx context.Context, articleID string, prevLimit, currLimit int64) ([]string, error)
	FindThreadsByRootIDs(ctx context.Context, articleID string, rootIDs []string) ([]*models.Comment, error)
	ListByArticle(ctx context.Context, articleID string) ([]*models.Comment, error)
	ListByParent(ctx context.Context, parentID string) ([]*models.Comment, error)
	ListByRoot(ctx context.Context, rootID string) ([]*models.Comment, error)

	CountActiveByArticle(ctx context.Context, articleID string) (int, error)
	ListRecentlyActiveArticles(ctx context.Context, since time.Time, limit int) ([]string, error)
}

// CounterRepository defines the interface for the article comment count projection
type CounterRepository interface {
	Get(ctx context.Context, articleID string) (*models.ArticleCommentCount, error)
	GetMany(ctx context.Context, articleIDs []string) (map[string]int, error)
	// Increment adds one to an existing row and reports whether a row was updated
	Increment(ctx context.Context, articleID string) (bool, error)
	// Decrement subtracts one from an existing row, clamped at zero
	Decrement(ctx context.Context, articleID string) (bool, error)
	// UpsertAdd creates the row with max(0, delta) or adds delta to it, clamped at zero
	UpsertAdd(ctx context.Context, articleID string, delta int) error
	// Set overwrites an existing row and reports whether a row was updated
	Set(ctx context.Context, articleID string, count int) (bool, error)
	UpsertSet(ctx context.Context, articleID string, count int) error
}

// Repositories holds all repository interfaces
type Repositories struct {
	Comment CommentRepository
	Counter CounterRepository
}

// New creates all repositories with the given database connection
func New(db *database.DB) *Repositories {
	return &Repositories{
		Comment: NewCommentRepo(db),
		Counter: NewCounterRepo(db),
	}
}
