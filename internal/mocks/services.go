package mocks

import (
	"context"

	"github.com/comment-server/internal/models"
	"github.com/comment-server/internal/service"
)

// MockCommentService is a mock implementation of CommentService.
// Unset funcs return zero values.
type MockCommentService struct {
	CreateRootFunc     func(ctx context.Context, articleID, writerID, contents string) (*models.Comment, error)
	CreateReplyFunc    func(ctx context.Context, parentID, writerID, contents string) (*models.Comment, error)
	UpdateContentsFunc func(ctx context.Context, commentID, requesterID, contents string) (*models.Comment, error)
	SoftDeleteFunc     func(ctx context.Context, commentID, requesterID string) error
	ChangeStatusFunc   func(ctx context.Context, commentID string, status models.CommentStatus) (*models.Comment, error)
	GetByIDFunc        func(ctx context.Context, commentID string) (*models.Comment, error)
	ListPageFunc       func(ctx context.Context, articleID string, page, pageSize int) ([]*models.CommentResponse, error)
	ListAllFunc        func(ctx context.Context, articleID string) ([]*models.Comment, error)
	ListRepliesFunc    func(ctx context.Context, parentID string) ([]*models.Comment, error)
	GetThreadFunc      func(ctx context.Context, rootID string) ([]*models.Comment, error)

	DeletedIDs []string
}

// Verify interface compliance
var _ service.CommentService = (*MockCommentService)(nil)

func NewMockCommentService() *MockCommentService {
	return &MockCommentService{}
}

func (m *MockCommentService) CreateRoot(ctx context.Context, articleID, writerID, contents string) (*models.Comment, error) {
	if m.CreateRootFunc != nil {
		return m.CreateRootFunc(ctx, articleID, writerID, contents)
	}
	return nil, nil
}

func (m *MockCommentService) CreateReply(ctx context.Context, parentID, writerID, contents string) (*models.Comment, error) {
	if m.CreateReplyFunc != nil {
		return m.CreateReplyFunc(ctx, parentID, writerID, contents)
	}
	return nil, nil
}

func (m *MockCommentService) UpdateContents(ctx context.Context, commentID, requesterID, contents string) (*models.Comment, error) {
	if m.UpdateContentsFunc != nil {
		return m.UpdateContentsFunc(ctx, commentID, requesterID, contents)
	}
	return nil, nil
}

func (m *MockCommentService) SoftDelete(ctx context.Context, commentID, requesterID string) error {
	m.DeletedIDs = append(m.DeletedIDs, commentID)
	if m.SoftDeleteFunc != nil {
		return m.SoftDeleteFunc(ctx, commentID, requesterID)
	}
	return nil
}

func (m *MockCommentService) ChangeStatus(ctx context.Context, commentID string, status models.CommentStatus) (*models.Comment, error) {
	if m.ChangeStatusFunc != nil {
		return m.ChangeStatusFunc(ctx, commentID, status)
	}
	return nil, nil
}

func (m *MockCommentService) GetByID(ctx context.Context, commentID string) (*models.Comment, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, commentID)
	}
	return nil, service.ErrCommentNotFound
}

func (m *MockCommentService) ListPage(ctx context.Context, articleID string, page, pageSize int) ([]*models.CommentResponse, error) {
	if m.ListPageFunc != nil {
		return m.ListPageFunc(ctx, articleID, page, pageSize)
	}
	return []*models.CommentResponse{}, nil
}

func (m *MockCommentService) ListAll(ctx context.Context, articleID string) ([]*models.Comment, error) {
	if m.ListAllFunc != nil {
		return m.ListAllFunc(ctx, articleID)
	}
	return nil, nil
}

func (m *MockCommentService) ListReplies(ctx context.Context, parentID string) ([]*models.Comment, error) {
	if m.ListRepliesFunc != nil {
		return m.ListRepliesFunc(ctx, parentID)
	}
	return nil, nil
}

func (m *MockCommentService) GetThread(ctx context.Context, rootID string) ([]*models.Comment, error) {
	if m.GetThreadFunc != nil {
		return m.GetThreadFunc(ctx, rootID)
	}
	return nil, nil
}

// MockCounterService is a mock implementation of CounterService backed by a map
type MockCounterService struct {
	Counts    map[string]int
	Err       error
	RepairErr error
}

// Verify interface compliance
var _ service.CounterService = (*MockCounterService)(nil)

func NewMockCounterService() *MockCounterService {
	return &MockCounterService{Counts: make(map[string]int)}
}

func (m *MockCounterService) GetCount(ctx context.Context, articleID string) (int, bool, error) {
	if m.Err != nil {
		return 0, false, m.Err
	}
	n, ok := m.Counts[articleID]
	return n, ok, nil
}

func (m *MockCounterService) Increment(ctx context.Context, articleID string) error {
	return m.UpsertAndAdd(ctx, articleID, 1)
}

func (m *MockCounterService) Decrement(ctx context.Context, articleID string) error {
	if m.Err != nil {
		return m.Err
	}
	if n, ok := m.Counts[articleID]; ok && n > 0 {
		m.Counts[articleID] = n - 1
	}
	return nil
}

func (m *MockCounterService) UpsertAndAdd(ctx context.Context, articleID string, delta int) error {
	if m.Err != nil {
		return m.Err
	}
	n := m.Counts[articleID] + delta
	if n < 0 {
		n = 0
	}
	m.Counts[articleID] = n
	return nil
}

func (m *MockCounterService) SetCount(ctx context.Context, articleID string, count int) error {
	if m.Err != nil {
		return m.Err
	}
	if count < 0 {
		count = 0
	}
	m.Counts[articleID] = count
	return nil
}

func (m *MockCounterService) GetCountsForArticles(ctx context.Context, articleIDs []string) (models.ArticleCounts, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	counts := models.NewArticleCounts(articleIDs)
	counts.Fill(m.Counts)
	return counts, nil
}

func (m *MockCounterService) Repair(ctx context.Context, articleID string) (int, error) {
	if m.RepairErr != nil {
		return 0, m.RepairErr
	}
	return m.Counts[articleID], nil
}
