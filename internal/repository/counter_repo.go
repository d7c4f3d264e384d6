package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/comment-server/internal/database"
	"github.com/comment-server/internal/models"
	"github.com/lib/pq"
)

// counterRepo is the concrete implementation of CounterRepository.
// Every mutation is a single statement so concurrent deltas never lose updates.
type counterRepo struct {
	db *database.DB
}

// NewCounterRepo creates a new counter repository
func NewCounterRepo(db *database.DB) CounterRepository {
	return &counterRepo{db: db}
}

// Get returns the stored count row, nil when the article has none
func (r *counterRepo) Get(ctx context.Context, articleID string) (*models.ArticleCommentCount, error) {
	query := `SELECT article_id, comment_count, updated_at FROM article_comment_counts WHERE article_id = $1`

	var c models.ArticleCommentCount
	err := r.db.QueryRowContext(ctx, query, articleID).Scan(&c.ArticleID, &c.CommentCount, &c.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get comment count: %w", err)
	}
	return &c, nil
}

// GetMany returns the stored counts of the given articles in one lookup.
// Articles without a row are absent from the map.
func (r *counterRepo) GetMany(ctx context.Context, articleIDs []string) (map[string]int, error) {
	counts := make(map[string]int, len(articleIDs))
	if len(articleIDs) == 0 {
		return counts, nil
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT article_id, comment_count FROM article_comment_counts WHERE article_id = ANY($1)`,
		pq.Array(articleIDs),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get comment counts: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		var n int
		if err := rows.Scan(&id, &n); err != nil {
			return nil, fmt.Errorf("failed to scan comment count: %w", err)
		}
		counts[id] = n
	}
	return counts, rows.Err()
}

// Increment adds one to an existing row
func (r *counterRepo) Increment(ctx context.Context, articleID string) (bool, error) {
	return r.exec(ctx, `
		UPDATE article_comment_counts
		SET comment_count = comment_count + 1, updated_at = NOW()
		WHERE article_id = $1
	`, articleID)
}

// Decrement subtracts one from an existing row without going below zero
func (r *counterRepo) Decrement(ctx context.Context, articleID string) (bool, error) {
	return r.exec(ctx, `
		UPDATE article_comment_counts
		SET comment_count = GREATEST(comment_count - 1, 0), updated_at = NOW()
		WHERE article_id = $1
	`, articleID)
}

// UpsertAdd inserts max(0, delta) or applies delta to the existing row
func (r *counterRepo) UpsertAdd(ctx context.Context, articleID string, delta int) error {
	initial := delta
	if initial < 0 {
		initial = 0
	}
	query := `
		INSERT INTO article_comment_counts (article_id, comment_count, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (article_id) DO UPDATE SET
			comment_count = GREATEST(article_comment_counts.comment_count + $3, 0),
			updated_at = NOW()
	`
	if _, err := r.db.ExecContext(ctx, query, articleID, initial, delta); err != nil {
		return fmt.Errorf("failed to upsert comment count: %w", err)
	}
	return nil
}

// Set overwrites an existing row
func (r *counterRepo) Set(ctx context.Context, articleID string, count int) (bool, error) {
	return r.exec(ctx, `
		UPDATE article_comment_counts
		SET comment_count = $2, updated_at = NOW()
		WHERE article_id = $1
	`, articleID, count)
}

// UpsertSet inserts or overwrites the row with count
func (r *counterRepo) UpsertSet(ctx context.Context, articleID string, count int) error {
	query := `
		INSERT INTO article_comment_counts (article_id, comment_count, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (article_id) DO UPDATE SET
			comment_count = EXCLUDED.comment_count,
			updated_at = EXCLUDED.updated_at
	`
	if _, err := r.db.ExecContext(ctx, query, articleID, count); err != nil {
		return fmt.Errorf("failed to set comment count: %w", err)
	}
	return nil
}

func (r *counterRepo) exec(ctx context.Context, query string, args ...interface{}) (bool, error) {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("failed to update comment count: %w", err)
	}
	rows, _ := result.RowsAffected()
	return rows > 0, nil
}
