package service

import (
	"context"

	"github.com/comment-server/internal/config"
	"github.com/comment-server/internal/gate"
	"github.com/comment-server/internal/idgen"
	"github.com/comment-server/internal/models"
	"github.com/comment-server/internal/notify"
	"github.com/comment-server/internal/repository"
	"github.com/rs/zerolog"
)

// CommentService defines the interface for comment writes and reads
type CommentService interface {
	CreateRoot(ctx context.Context, articleID, writerID, contents string) (*models.Comment, error)
	CreateReply(ctx context.Context, parentID, writerID, contents string) (*models.Comment, error)
	UpdateContents(ctx context.Context, commentID, requesterID, contents string) (*models.Comment, error)
	SoftDelete(ctx context.Context, commentID, requesterID string) error
	ChangeStatus(ctx context.Context, commentID string, status models.CommentStatus) (*models.Comment, error)

	GetByID(ctx context.Context, commentID string) (*models.Comment, error)
	ListPage(ctx context.Context, articleID string, page, pageSize int) ([]*models.CommentResponse, error)
	ListAll(ctx context.Context, articleID string) ([]*models.Comment, error)
	ListReplies(ctx context.Context, parentID string) ([]*models.Comment, error)
	GetThread(ctx context.Context, rootID string) ([]*models.Comment, error)
}

// CounterService defines the interface for the per-article comment count
type CounterService interface {
	GetCount(ctx context.Context, articleID string) (int, bool, error)
	Increment(ctx context.Context, articleID string) error
	Decrement(ctx context.Context, articleID string) error
	UpsertAndAdd(ctx context.Context, articleID string, delta int) error
	SetCount(ctx context.Context, articleID string, count int) error
	GetCountsForArticles(ctx context.Context, articleIDs []string) (models.ArticleCounts, error)
	Repair(ctx context.Context, articleID string) (int, error)
}

// ReconcileService defines the interface for background counter repair
type ReconcileService interface {
	Start(ctx context.Context)
	Stop()
	RunOnce(ctx context.Context) int
}

// Dependencies holds the collaborators the services need besides repositories
type Dependencies struct {
	Gate     gate.FirstCommentGate
	Notifier *notify.Notifier
	IDs      idgen.Generator
}

// Services holds all service interfaces
type Services struct {
	Comment   CommentService
	Counter   CounterService
	Reconcile ReconcileService
}

// NewServices creates all services
func NewServices(repos *repository.Repositories, deps Dependencies, cfg *config.Config, log zerolog.Logger) *Services {
	counterSvc := newCounterService(repos.Counter, repos.Comment, log)
	commentSvc := newCommentService(repos.Comment, counterSvc, deps, log)
	reconcileSvc := newReconcileService(repos.Comment, counterSvc, cfg.Reconcile, log)

	return &Services{
		Comment:   commentSvc,
		Counter:   counterSvc,
		Reconcile: reconcileSvc,
	}
}
