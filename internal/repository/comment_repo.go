package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/comment-server/internal/database"
	"github.com/comment-server/internal/models"
	"github.com/lib/pq"
)

const commentColumns = `comment_id, article_id, writer_id, parent_comment_id, root_comment_id, depth,
	contents, is_deleted, status, reply_count, created_at, updated_at, deleted_at`

// uniqueViolation is the PostgreSQL error code for unique_violation
const uniqueViolation = "23505"

// commentRepo is the concrete implementation of CommentRepository
type commentRepo struct {
	db *database.DB
}

// NewCommentRepo creates a new comment repository
func NewCommentRepo(db *database.DB) CommentRepository {
	return &commentRepo{db: db}
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func insertComment(ctx context.Context, db execer, c *models.Comment) error {
	query := `
		INSERT INTO comments (` + commentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	_, err := db.ExecContext(ctx, query,
		c.ID, c.ArticleID, c.WriterID, nullString(c.ParentCommentID), c.RootCommentID, c.Depth,
		c.Contents, c.IsDeleted, c.Status, c.ReplyCount, c.CreatedAt, c.UpdatedAt, c.DeletedAt,
	)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return ErrDuplicateID
	}
	return err
}

// Create inserts a new comment
func (r *commentRepo) Create(ctx context.Context, comment *models.Comment) error {
	if err := insertComment(ctx, r.db, comment); err != nil {
		return fmt.Errorf("failed to insert comment: %w", err)
	}
	return nil
}

// CreateReply inserts a reply and bumps the parent's reply_count atomically
func (r *commentRepo) CreateReply(ctx context.Context, reply *models.Comment) error {
	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		if err := insertComment(ctx, tx, reply); err != nil {
			return fmt.Errorf("failed to insert reply: %w", err)
		}

		result, err := tx.ExecContext(ctx,
			`UPDATE comments SET reply_count = reply_count + 1 WHERE comment_id = $1`,
			reply.ParentCommentID,
		)
		if err != nil {
			return fmt.Errorf("failed to increment reply count: %w", err)
		}
		if n, _ := result.RowsAffected(); n == 0 {
			return fmt.Errorf("parent comment %s disappeared", reply.ParentCommentID)
		}
		return nil
	})
}

// GetByID retrieves a comment by ID
func (r *commentRepo) GetByID(ctx context.Context, id string) (*models.Comment, error) {
	query := `SELECT ` + commentColumns + ` FROM comments WHERE comment_id = $1`

	comment, err := scanComment(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get comment: %w", err)
	}
	return comment, nil
}

// UpdateContents rewrites the text of a live comment
func (r *commentRepo) UpdateContents(ctx context.Context, id, contents string, updatedAt time.Time) (bool, error) {
	query := `
		UPDATE comments SET contents = $1, updated_at = $2
		WHERE comment_id = $3 AND NOT is_deleted
	`
	result, err := r.db.ExecContext(ctx, query, contents, updatedAt, id)
	if err != nil {
		return false, fmt.Errorf("failed to update contents: %w", err)
	}
	rows, _ := result.RowsAffected()
	return rows > 0, nil
}

// UpdateStatus atomically moves a live comment from one status to another
func (r *commentRepo) UpdateStatus(ctx context.Context, id string, from, to models.CommentStatus, updatedAt time.Time) (bool, error) {
	query := `
		UPDATE comments SET status = $1, updated_at = $2
		WHERE comment_id = $3 AND status = $4 AND NOT is_deleted
	`
	result, err := r.db.ExecContext(ctx, query, to, updatedAt, id, from)
	if err != nil {
		return false, fmt.Errorf("failed to update status: %w", err)
	}
	rows, _ := result.RowsAffected()
	return rows > 0, nil
}

// SoftDelete marks a comment deleted, releases its slot on the parent and
// counts the active comments left on the article, all in one transaction
func (r *commentRepo) SoftDelete(ctx context.Context, id string, deletedAt time.Time) (*SoftDeleteResult, error) {
	res := &SoftDeleteResult{}

	err := r.db.WithTx(ctx, func(tx *sql.Tx) error {
		query := `SELECT ` + commentColumns + ` FROM comments WHERE comment_id = $1 FOR UPDATE`
		comment, err := scanComment(tx.QueryRowContext(ctx, query, id))
		if err == sql.ErrNoRows {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to lock comment: %w", err)
		}
		res.Comment = comment
		if comment.IsDeleted {
			return nil
		}

		result, err := tx.ExecContext(ctx, `
			UPDATE comments
			SET is_deleted = TRUE, status = 'DELETED', deleted_at = $1, updated_at = GREATEST($1, created_at)
			WHERE comment_id = $2 AND NOT is_deleted
		`, deletedAt, id)
		if err != nil {
			return fmt.Errorf("failed to mark comment deleted: %w", err)
		}
		if n, _ := result.RowsAffected(); n == 0 {
			return nil
		}
		res.Deleted = true

		if comment.ParentCommentID != "" {
			_, err := tx.ExecContext(ctx,
				`UPDATE comments SET reply_count = GREATEST(reply_count - 1, 0) WHERE comment_id = $1`,
				comment.ParentCommentID,
			)
			if err != nil {
				return fmt.Errorf("failed to decrement reply count: %w", err)
			}
		}

		remaining, err := countActive(ctx, tx, comment.ArticleID)
		if err != nil {
			return err
		}
		res.RemainingActive = remaining
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// FindRootIDsForPage selects the ids of active roots whose running slot total,
// newest first, falls in (prevLimit, currLimit]. A root occupies
// reply_count + 1 slots.
func (r *commentRepo) FindRootIDsForPage(ctx context.Context, articleID string, prevLimit, currLimit int64) ([]string, error) {
	query := `
		WITH ranked AS (
			SELECT comment_id, created_at,
				SUM(reply_count + 1) OVER (
					ORDER BY created_at DESC, comment_id DESC
					ROWS BETWEEN UNBOUNDED PRECEDING AND CURRENT ROW
				) AS cum_sum
			FROM comments
			WHERE article_id = $1 AND depth = 0 AND NOT is_deleted AND status = 'ACTIVE'
		)
		SELECT comment_id FROM ranked
		WHERE cum_sum > $2 AND cum_sum <= $3
		ORDER BY created_at DESC, comment_id DESC
	`
	rows, err := r.db.QueryContext(ctx, query, articleID, prevLimit, currLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to select page roots: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan root id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// FindThreadsByRootIDs fetches the given roots and every active reply under
// them with one query
func (r *commentRepo) FindThreadsByRootIDs(ctx context.Context, articleID string, rootIDs []string) ([]*models.Comment, error) {
	if len(rootIDs) == 0 {
		return nil, nil
	}
	query := `
		SELECT ` + commentColumns + `
		FROM comments
		WHERE article_id = $1
			AND (comment_id = ANY($2) OR root_comment_id = ANY($2))
			AND NOT is_deleted AND status = 'ACTIVE'
		ORDER BY COALESCE(root_comment_id, comment_id), depth, created_at
	`
	return r.queryComments(ctx, query, articleID, pq.Array(rootIDs))
}

// ListByArticle returns every non-deleted comment of an article in creation order
func (r *commentRepo) ListByArticle(ctx context.Context, articleID string) ([]*models.Comment, error) {
	query := `
		SELECT ` + commentColumns + `
		FROM comments WHERE article_id = $1 AND NOT is_deleted
		ORDER BY created_at, comment_id
	`
	return r.queryComments(ctx, query, articleID)
}

// ListByParent returns the direct replies of a comment in creation order
func (r *commentRepo) ListByParent(ctx context.Context, parentID string) ([]*models.Comment, error) {
	query := `
		SELECT ` + commentColumns + `
		FROM comments WHERE parent_comment_id = $1
		ORDER BY created_at, comment_id
	`
	return r.queryComments(ctx, query, parentID)
}

// ListByRoot returns a whole thread in creation order
func (r *commentRepo) ListByRoot(ctx context.Context, rootID string) ([]*models.Comment, error) {
	query := `
		SELECT ` + commentColumns + `
		FROM comments WHERE root_comment_id = $1
		ORDER BY created_at, comment_id
	`
	return r.queryComments(ctx, query, rootID)
}

// CountActiveByArticle returns the live number of counted comments on an article
func (r *commentRepo) CountActiveByArticle(ctx context.Context, articleID string) (int, error) {
	return countActive(ctx, r.db, articleID)
}

// ListRecentlyActiveArticles returns articles whose comments changed since the given time
func (r *commentRepo) ListRecentlyActiveArticles(ctx context.Context, since time.Time, limit int) ([]string, error) {
	query := `
		SELECT article_id FROM comments
		WHERE updated_at >= $1
		GROUP BY article_id
		ORDER BY MAX(updated_at) DESC
		LIMIT $2
	`
	rows, err := r.db.QueryContext(ctx, query, since, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list active articles: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

func countActive(ctx context.Context, q queryRower, articleID string) (int, error) {
	var count int
	err := q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM comments WHERE article_id = $1 AND status = 'ACTIVE' AND NOT is_deleted`,
		articleID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count active comments: %w", err)
	}
	return count, nil
}

func (r *commentRepo) queryComments(ctx context.Context, query string, args ...interface{}) ([]*models.Comment, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query comments: %w", err)
	}
	defer rows.Close()

	var comments []*models.Comment
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan comment: %w", err)
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

func scanComment(row rowScanner) (*models.Comment, error) {
	var c models.Comment
	var parentID sql.NullString
	var deletedAt sql.NullTime

	err := row.Scan(
		&c.ID, &c.ArticleID, &c.WriterID, &parentID, &c.RootCommentID, &c.Depth,
		&c.Contents, &c.IsDeleted, &c.Status, &c.ReplyCount, &c.CreatedAt, &c.UpdatedAt, &deletedAt,
	)
	if err != nil {
		return nil, err
	}

	c.ParentCommentID = parentID.String
	if deletedAt.Valid {
		c.DeletedAt = &deletedAt.Time
	}
	return &c, nil
}

// helper to convert empty string to NULL
func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
