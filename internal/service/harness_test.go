package service_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/comment-server/internal/config"
	"github.com/comment-server/internal/mocks"
	"github.com/comment-server/internal/models"
	"github.com/comment-server/internal/notify"
	"github.com/comment-server/internal/repository"
	"github.com/comment-server/internal/service"
	"github.com/rs/zerolog"
)

type testHarness struct {
	services  *service.Services
	comments  *mocks.MockCommentRepository
	counters  *mocks.MockCounterRepository
	gate      *mocks.MockGate
	publisher *mocks.MockPublisher
}

func newTestHarness(t testing.TB) *testHarness {
	t.Helper()

	comments := mocks.NewMockCommentRepository()
	counters := mocks.NewMockCounterRepository()
	repos := &repository.Repositories{
		Comment: comments,
		Counter: counters,
	}

	log := zerolog.Nop()
	g := mocks.NewMockGate()
	pub := mocks.NewMockPublisher()
	deps := service.Dependencies{
		Gate:     g,
		Notifier: notify.NewNotifier(pub, time.Second, log),
		IDs:      mocks.NewSequenceIDs("c"),
	}

	cfg := &config.Config{
		Reconcile: config.ReconcileConfig{
			Interval:  10 * time.Millisecond,
			Window:    time.Hour,
			BatchSize: 100,
		},
	}

	return &testHarness{
		services:  service.NewServices(repos, deps, cfg, log),
		comments:  comments,
		counters:  counters,
		gate:      g,
		publisher: pub,
	}
}

var baseTime = time.Now().UTC().Truncate(time.Microsecond).Add(-time.Hour)

// seedThread stores a root with n direct replies, one second apart
func (h *testHarness) seedThread(t testing.TB, articleID, rootID string, at time.Time, n int) *models.Comment {
	t.Helper()

	root, err := models.NewRootComment(rootID, articleID, "writer-"+rootID, "root "+rootID, at)
	if err != nil {
		t.Fatal(err)
	}
	root.ReplyCount = n
	h.comments.Seed(root)

	for i := 1; i <= n; i++ {
		reply, err := models.NewReplyComment(fmt.Sprintf("%s-r%d", rootID, i), root, "replier", "reply", at.Add(time.Duration(i)*time.Second))
		if err != nil {
			t.Fatal(err)
		}
		h.comments.Seed(reply)
	}
	return root
}

func ids(threads []*models.CommentResponse) []string {
	out := make([]string, len(threads))
	for i, th := range threads {
		out[i] = th.ID
	}
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
