package mocks

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/comment-server/internal/models"
	"github.com/comment-server/internal/repository"
)

var errParentMissing = errors.New("parent comment disappeared")

// MockCommentRepository is an in-memory implementation of CommentRepository.
// Stored comments are copied on the way in and out.
type MockCommentRepository struct {
	mu       sync.Mutex
	Comments map[string]*models.Comment

	CreateError     error
	GetError        error
	SoftDeleteError error
	QueryError      error

	FindRootsCalls   int
	FindThreadsCalls int
}

// Verify interface compliance
var _ repository.CommentRepository = (*MockCommentRepository)(nil)

func NewMockCommentRepository() *MockCommentRepository {
	return &MockCommentRepository{
		Comments: make(map[string]*models.Comment),
	}
}

// Seed stores comments directly, bypassing reply bookkeeping
func (m *MockCommentRepository) Seed(comments ...*models.Comment) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range comments {
		cp := *c
		m.Comments[c.ID] = &cp
	}
}

// Get returns a copy of a stored comment without error injection
func (m *MockCommentRepository) Get(id string) *models.Comment {
	m.mu.Lock()
	defer m.mu.Unlock()
	return copyComment(m.Comments[id])
}

func (m *MockCommentRepository) Create(ctx context.Context, comment *models.Comment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CreateError != nil {
		return m.CreateError
	}
	if _, exists := m.Comments[comment.ID]; exists {
		return repository.ErrDuplicateID
	}
	m.Comments[comment.ID] = copyComment(comment)
	return nil
}

func (m *MockCommentRepository) CreateReply(ctx context.Context, reply *models.Comment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CreateError != nil {
		return m.CreateError
	}
	if _, exists := m.Comments[reply.ID]; exists {
		return repository.ErrDuplicateID
	}
	parent, ok := m.Comments[reply.ParentCommentID]
	if !ok {
		return errParentMissing
	}
	parent.AddReply()
	m.Comments[reply.ID] = copyComment(reply)
	return nil
}

func (m *MockCommentRepository) GetByID(ctx context.Context, id string) (*models.Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetError != nil {
		return nil, m.GetError
	}
	return copyComment(m.Comments[id]), nil
}

func (m *MockCommentRepository) UpdateContents(ctx context.Context, id, contents string, updatedAt time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.Comments[id]
	if !ok || c.IsDeleted {
		return false, nil
	}
	c.Contents = contents
	c.UpdatedAt = updatedAt
	return true, nil
}

func (m *MockCommentRepository) UpdateStatus(ctx context.Context, id string, from, to models.CommentStatus, updatedAt time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.Comments[id]
	if !ok || c.IsDeleted || c.Status != from {
		return false, nil
	}
	c.Status = to
	c.UpdatedAt = updatedAt
	return true, nil
}

func (m *MockCommentRepository) SoftDelete(ctx context.Context, id string, deletedAt time.Time) (*repository.SoftDeleteResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SoftDeleteError != nil {
		return nil, m.SoftDeleteError
	}

	res := &repository.SoftDeleteResult{}
	c, ok := m.Comments[id]
	if !ok {
		return res, nil
	}
	res.Comment = copyComment(c)
	if c.IsDeleted {
		return res, nil
	}

	c.MarkDeleted(deletedAt)
	res.Deleted = true
	if parent, ok := m.Comments[c.ParentCommentID]; ok {
		parent.RemoveReply()
	}
	res.RemainingActive = m.countActive(c.ArticleID)
	return res, nil
}

// FindRootIDsForPage emulates the windowed running-sum query
func (m *MockCommentRepository) FindRootIDsForPage(ctx context.Context, articleID string, prevLimit, currLimit int64) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.FindRootsCalls++
	if m.QueryError != nil {
		return nil, m.QueryError
	}

	roots := m.filter(func(c *models.Comment) bool {
		return c.ArticleID == articleID && c.Depth == 0 && c.IsCounted()
	})
	sort.Slice(roots, func(i, j int) bool {
		if !roots[i].CreatedAt.Equal(roots[j].CreatedAt) {
			return roots[i].CreatedAt.After(roots[j].CreatedAt)
		}
		return roots[i].ID > roots[j].ID
	})

	var ids []string
	var cum int64
	for _, r := range roots {
		cum += int64(r.ReplyCount + 1)
		if cum > prevLimit && cum <= currLimit {
			ids = append(ids, r.ID)
		}
	}
	return ids, nil
}

func (m *MockCommentRepository) FindThreadsByRootIDs(ctx context.Context, articleID string, rootIDs []string) ([]*models.Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.FindThreadsCalls++
	if m.QueryError != nil {
		return nil, m.QueryError
	}

	wanted := make(map[string]bool, len(rootIDs))
	for _, id := range rootIDs {
		wanted[id] = true
	}
	rows := m.filter(func(c *models.Comment) bool {
		return c.ArticleID == articleID && (wanted[c.ID] || wanted[c.RootCommentID]) && c.IsCounted()
	})
	sort.Slice(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.RootCommentID != b.RootCommentID {
			return a.RootCommentID < b.RootCommentID
		}
		if a.Depth != b.Depth {
			return a.Depth < b.Depth
		}
		return a.CreatedAt.Before(b.CreatedAt)
	})
	return rows, nil
}

func (m *MockCommentRepository) ListByArticle(ctx context.Context, articleID string) ([]*models.Comment, error) {
	return m.listOrdered(func(c *models.Comment) bool {
		return c.ArticleID == articleID && !c.IsDeleted
	})
}

func (m *MockCommentRepository) ListByParent(ctx context.Context, parentID string) ([]*models.Comment, error) {
	return m.listOrdered(func(c *models.Comment) bool {
		return c.ParentCommentID == parentID
	})
}

func (m *MockCommentRepository) ListByRoot(ctx context.Context, rootID string) ([]*models.Comment, error) {
	return m.listOrdered(func(c *models.Comment) bool {
		return c.RootCommentID == rootID
	})
}

func (m *MockCommentRepository) CountActiveByArticle(ctx context.Context, articleID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.QueryError != nil {
		return 0, m.QueryError
	}
	return m.countActive(articleID), nil
}

func (m *MockCommentRepository) ListRecentlyActiveArticles(ctx context.Context, since time.Time, limit int) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.QueryError != nil {
		return nil, m.QueryError
	}

	seen := make(map[string]bool)
	var ids []string
	for _, c := range m.Comments {
		if c.UpdatedAt.Before(since) || seen[c.ArticleID] {
			continue
		}
		seen[c.ArticleID] = true
		ids = append(ids, c.ArticleID)
	}
	sort.Strings(ids)
	if limit > 0 && len(ids) > limit {
		ids = ids[:limit]
	}
	return ids, nil
}

func (m *MockCommentRepository) listOrdered(keep func(*models.Comment) bool) ([]*models.Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.QueryError != nil {
		return nil, m.QueryError
	}
	rows := m.filter(keep)
	sort.Slice(rows, func(i, j int) bool {
		if !rows[i].CreatedAt.Equal(rows[j].CreatedAt) {
			return rows[i].CreatedAt.Before(rows[j].CreatedAt)
		}
		return rows[i].ID < rows[j].ID
	})
	return rows, nil
}

func (m *MockCommentRepository) filter(keep func(*models.Comment) bool) []*models.Comment {
	var out []*models.Comment
	for _, c := range m.Comments {
		if keep(c) {
			out = append(out, copyComment(c))
		}
	}
	return out
}

func (m *MockCommentRepository) countActive(articleID string) int {
	n := 0
	for _, c := range m.Comments {
		if c.ArticleID == articleID && c.IsCounted() {
			n++
		}
	}
	return n
}

func copyComment(c *models.Comment) *models.Comment {
	if c == nil {
		return nil
	}
	cp := *c
	return &cp
}

// MockCounterRepository is an in-memory implementation of CounterRepository.
// Every method is serialized so concurrent deltas behave like single statements.
type MockCounterRepository struct {
	mu     sync.Mutex
	Counts map[string]int

	GetError       error
	IncrementError error
	DecrementError error
	UpsertError    error
	SetError       error

	UpsertAddCalls int
	UpsertSetCalls int
}

// Verify interface compliance
var _ repository.CounterRepository = (*MockCounterRepository)(nil)

func NewMockCounterRepository() *MockCounterRepository {
	return &MockCounterRepository{
		Counts: make(map[string]int),
	}
}

// Value returns the stored count and whether a row exists
func (m *MockCounterRepository) Value(articleID string) (int, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.Counts[articleID]
	return n, ok
}

func (m *MockCounterRepository) Get(ctx context.Context, articleID string) (*models.ArticleCommentCount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetError != nil {
		return nil, m.GetError
	}
	n, ok := m.Counts[articleID]
	if !ok {
		return nil, nil
	}
	return &models.ArticleCommentCount{ArticleID: articleID, CommentCount: n, UpdatedAt: time.Now()}, nil
}

func (m *MockCounterRepository) GetMany(ctx context.Context, articleIDs []string) (map[string]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetError != nil {
		return nil, m.GetError
	}
	out := make(map[string]int)
	for _, id := range articleIDs {
		if n, ok := m.Counts[id]; ok {
			out[id] = n
		}
	}
	return out, nil
}

func (m *MockCounterRepository) Increment(ctx context.Context, articleID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.IncrementError != nil {
		return false, m.IncrementError
	}
	n, ok := m.Counts[articleID]
	if !ok {
		return false, nil
	}
	m.Counts[articleID] = n + 1
	return true, nil
}

func (m *MockCounterRepository) Decrement(ctx context.Context, articleID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.DecrementError != nil {
		return false, m.DecrementError
	}
	n, ok := m.Counts[articleID]
	if !ok {
		return false, nil
	}
	if n > 0 {
		n--
	}
	m.Counts[articleID] = n
	return true, nil
}

func (m *MockCounterRepository) UpsertAdd(ctx context.Context, articleID string, delta int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.UpsertAddCalls++
	if m.UpsertError != nil {
		return m.UpsertError
	}
	n, ok := m.Counts[articleID]
	if !ok {
		n = 0
	}
	n += delta
	if n < 0 {
		n = 0
	}
	m.Counts[articleID] = n
	return nil
}

func (m *MockCounterRepository) Set(ctx context.Context, articleID string, count int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SetError != nil {
		return false, m.SetError
	}
	if _, ok := m.Counts[articleID]; !ok {
		return false, nil
	}
	m.Counts[articleID] = count
	return true, nil
}

func (m *MockCounterRepository) UpsertSet(ctx context.Context, articleID string, count int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.UpsertSetCalls++
	if m.UpsertError != nil {
		return m.UpsertError
	}
	m.Counts[articleID] = count
	return nil
}
