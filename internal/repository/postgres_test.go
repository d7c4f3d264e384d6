package repository_test

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/comment-server/internal/database"
	"github.com/comment-server/internal/models"
	"github.com/comment-server/internal/repository"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// migrationsPath returns the absolute path to the migrations directory.
func migrationsPath(t testing.TB) string {
	t.Helper()
	_, currentFile, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("cannot determine test file path")
	}
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(currentFile)))
	return filepath.Join(projectRoot, "migrations")
}

// openTestDB connects to TEST_DATABASE_URL and applies migrations.
// Tests are skipped when no database is configured.
func openTestDB(t *testing.T) *repository.Repositories {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping PostgreSQL integration test in short mode")
	}
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	sqlDB, err := sql.Open("postgres", dsn)
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { sqlDB.Close() })

	db := database.Wrap(sqlDB, zerolog.Nop())
	if err := db.RunMigrations(migrationsPath(t)); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}
	return repository.New(db)
}

func newArticleID() string {
	return "article-" + uuid.NewString()
}

func seedRoot(t *testing.T, repos *repository.Repositories, articleID string, at time.Time) *models.Comment {
	t.Helper()
	c, err := models.NewRootComment(uuid.NewString(), articleID, "writer-1", "root", at)
	if err != nil {
		t.Fatal(err)
	}
	if err := repos.Comment.Create(context.Background(), c); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	return c
}

func seedReply(t *testing.T, repos *repository.Repositories, parent *models.Comment, at time.Time) *models.Comment {
	t.Helper()
	c, err := models.NewReplyComment(uuid.NewString(), parent, "writer-2", "reply", at)
	if err != nil {
		t.Fatal(err)
	}
	if err := repos.Comment.CreateReply(context.Background(), c); err != nil {
		t.Fatalf("CreateReply failed: %v", err)
	}
	return c
}

func TestCommentRepo_CreateReplyBumpsParent(t *testing.T) {
	repos := openTestDB(t)
	ctx := context.Background()
	articleID := newArticleID()
	base := time.Now().UTC().Truncate(time.Microsecond)

	root := seedRoot(t, repos, articleID, base)
	reply := seedReply(t, repos, root, base.Add(time.Second))

	stored, err := repos.Comment.GetByID(ctx, root.ID)
	if err != nil || stored == nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if stored.ReplyCount != 1 {
		t.Errorf("Expected reply_count 1, got %d", stored.ReplyCount)
	}

	got, err := repos.Comment.GetByID(ctx, reply.ID)
	if err != nil || got == nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.ParentCommentID != root.ID || got.RootCommentID != root.ID || got.Depth != 1 {
		t.Errorf("Unexpected reply linkage: %+v", got)
	}

	if err := repos.Comment.Create(ctx, root); !errors.Is(err, repository.ErrDuplicateID) {
		t.Errorf("Expected ErrDuplicateID, got %v", err)
	}
}

func TestCommentRepo_FindRootIDsForPage(t *testing.T) {
	repos := openTestDB(t)
	ctx := context.Background()
	articleID := newArticleID()
	base := time.Now().UTC().Truncate(time.Microsecond)

	// newest first: r3 (1 slot), r2 (3 slots), r1 (1 slot)
	r1 := seedRoot(t, repos, articleID, base)
	r2 := seedRoot(t, repos, articleID, base.Add(time.Second))
	seedReply(t, repos, r2, base.Add(2*time.Second))
	seedReply(t, repos, r2, base.Add(3*time.Second))
	r3 := seedRoot(t, repos, articleID, base.Add(4*time.Second))

	tests := []struct {
		name      string
		prev      int64
		curr      int64
		wantRoots []string
	}{
		{"first page fits two threads", 0, 4, []string{r3.ID, r2.ID}},
		{"second page", 4, 8, []string{r1.ID}},
		{"past the end", 8, 12, nil},
		{"small page excludes oversized thread", 0, 2, []string{r3.ID}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ids, err := repos.Comment.FindRootIDsForPage(ctx, articleID, tt.prev, tt.curr)
			if err != nil {
				t.Fatalf("FindRootIDsForPage failed: %v", err)
			}
			if len(ids) != len(tt.wantRoots) {
				t.Fatalf("Expected %v, got %v", tt.wantRoots, ids)
			}
			for i := range ids {
				if ids[i] != tt.wantRoots[i] {
					t.Errorf("Position %d: expected %s, got %s", i, tt.wantRoots[i], ids[i])
				}
			}
		})
	}

	rows, err := repos.Comment.FindThreadsByRootIDs(ctx, articleID, []string{r2.ID})
	if err != nil {
		t.Fatalf("FindThreadsByRootIDs failed: %v", err)
	}
	if len(rows) != 3 {
		t.Errorf("Expected root plus two replies, got %d rows", len(rows))
	}
}

func TestCommentRepo_SoftDelete(t *testing.T) {
	repos := openTestDB(t)
	ctx := context.Background()
	articleID := newArticleID()
	base := time.Now().UTC().Truncate(time.Microsecond)

	root := seedRoot(t, repos, articleID, base)
	reply := seedReply(t, repos, root, base.Add(time.Second))

	res, err := repos.Comment.SoftDelete(ctx, reply.ID, base.Add(time.Minute))
	if err != nil {
		t.Fatalf("SoftDelete failed: %v", err)
	}
	if !res.Deleted || res.RemainingActive != 1 {
		t.Errorf("Expected deleted with 1 remaining, got %+v", res)
	}

	parent, _ := repos.Comment.GetByID(ctx, root.ID)
	if parent.ReplyCount != 0 {
		t.Errorf("Expected parent reply_count 0, got %d", parent.ReplyCount)
	}

	again, err := repos.Comment.SoftDelete(ctx, reply.ID, base.Add(2*time.Minute))
	if err != nil {
		t.Fatalf("SoftDelete failed: %v", err)
	}
	if again.Deleted {
		t.Error("Second delete must be a no-op")
	}

	missing, err := repos.Comment.SoftDelete(ctx, "missing-"+uuid.NewString(), base)
	if err != nil {
		t.Fatalf("SoftDelete failed: %v", err)
	}
	if missing.Comment != nil {
		t.Error("Expected nil comment for missing id")
	}
}

func TestCounterRepo_ConcurrentDeltasClamp(t *testing.T) {
	repos := openTestDB(t)
	ctx := context.Background()
	articleID := newArticleID()

	if err := repos.Counter.UpsertAdd(ctx, articleID, 5); err != nil {
		t.Fatalf("UpsertAdd failed: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := repos.Counter.Decrement(ctx, articleID); err != nil {
				t.Errorf("Decrement failed: %v", err)
			}
		}()
	}
	wg.Wait()

	row, err := repos.Counter.Get(ctx, articleID)
	if err != nil || row == nil {
		t.Fatalf("Get failed: %v", err)
	}
	if row.CommentCount != 0 {
		t.Errorf("Expected clamped count 0, got %d", row.CommentCount)
	}

	updated, err := repos.Counter.Decrement(ctx, newArticleID())
	if err != nil {
		t.Fatalf("Decrement failed: %v", err)
	}
	if updated {
		t.Error("Decrement of a missing row must not report an update")
	}
}

func TestCounterRepo_GetMany(t *testing.T) {
	repos := openTestDB(t)
	ctx := context.Background()
	a, b := newArticleID(), newArticleID()

	if err := repos.Counter.UpsertSet(ctx, a, 3); err != nil {
		t.Fatalf("UpsertSet failed: %v", err)
	}
	if err := repos.Counter.UpsertAdd(ctx, b, -4); err != nil {
		t.Fatalf("UpsertAdd failed: %v", err)
	}

	counts, err := repos.Counter.GetMany(ctx, []string{a, b, newArticleID()})
	if err != nil {
		t.Fatalf("GetMany failed: %v", err)
	}
	if counts[a] != 3 {
		t.Errorf("Expected %s=3, got %d", a, counts[a])
	}
	if n, ok := counts[b]; !ok || n != 0 {
		t.Errorf("Expected new row created at 0, got %d (found=%v)", n, ok)
	}
	if len(counts) != 2 {
		t.Errorf("Expected 2 stored rows, got %d", len(counts))
	}
}
