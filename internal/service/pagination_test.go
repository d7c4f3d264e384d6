package service_test

import (
	"context"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/comment-server/internal/models"
)

func TestListPage_SlotWindows(t *testing.T) {
	h := newTestHarness(t)
	ctx := context.Background()

	// newest first: a (1 slot), b (3 slots), c (2 slots), d (1 slot)
	h.seedThread(t, "article-1", "d", baseTime, 0)
	h.seedThread(t, "article-1", "c", baseTime.Add(1*time.Minute), 1)
	h.seedThread(t, "article-1", "b", baseTime.Add(2*time.Minute), 2)
	h.seedThread(t, "article-1", "a", baseTime.Add(3*time.Minute), 0)

	tests := []struct {
		page      int
		pageSize  int
		wantRoots []string
	}{
		{0, 4, []string{"a", "b"}},
		{1, 4, []string{"c", "d"}},
		{2, 4, []string{}},
		{0, 7, []string{"a", "b", "c", "d"}},
		{0, 1, []string{"a"}},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("page=%d size=%d", tt.page, tt.pageSize), func(t *testing.T) {
			threads, err := h.services.Comment.ListPage(ctx, "article-1", tt.page, tt.pageSize)
			if err != nil {
				t.Fatalf("ListPage failed: %v", err)
			}
			if got := ids(threads); !equalStrings(got, tt.wantRoots) {
				t.Errorf("Expected roots %v, got %v", tt.wantRoots, got)
			}
		})
	}
}

func TestListPage_NeverSplitsThreads(t *testing.T) {
	h := newTestHarness(t)
	ctx := context.Background()

	total := 0
	for i := 0; i < 25; i++ {
		replies := i % 4
		h.seedThread(t, "article-1", fmt.Sprintf("root-%02d", i), baseTime.Add(time.Duration(i)*time.Minute), replies)
		total += replies + 1
	}

	seen := 0
	for page := 0; page < 20; page++ {
		threads, err := h.services.Comment.ListPage(ctx, "article-1", page, 6)
		if err != nil {
			t.Fatalf("ListPage failed: %v", err)
		}
		for _, th := range threads {
			if len(th.Replies) != th.ReplyCount {
				t.Errorf("Root %s: expected %d replies on the same page, got %d", th.ID, th.ReplyCount, len(th.Replies))
			}
			seen += 1 + len(th.Replies)
		}
	}

	if seen != total {
		t.Errorf("Expected %d comments across all pages, got %d", total, seen)
	}
}

func TestListPage_OversizedThreadPushedToLaterPage(t *testing.T) {
	h := newTestHarness(t)
	ctx := context.Background()
	h.seedThread(t, "article-1", "big", baseTime, 3)

	first, err := h.services.Comment.ListPage(ctx, "article-1", 0, 2)
	if err != nil {
		t.Fatalf("ListPage failed: %v", err)
	}
	if len(first) != 0 {
		t.Errorf("Expected empty first page, got %v", ids(first))
	}

	second, err := h.services.Comment.ListPage(ctx, "article-1", 1, 2)
	if err != nil {
		t.Fatalf("ListPage failed: %v", err)
	}
	if got := ids(second); !equalStrings(got, []string{"big"}) {
		t.Errorf("Expected the thread on page 1, got %v", got)
	}
}

func TestListPage_EmptyWindowSkipsBatchQuery(t *testing.T) {
	h := newTestHarness(t)
	ctx := context.Background()

	threads, err := h.services.Comment.ListPage(ctx, "no-comments", 0, 10)
	if err != nil {
		t.Fatalf("ListPage failed: %v", err)
	}
	if threads == nil || len(threads) != 0 {
		t.Errorf("Expected an empty non-nil page, got %v", threads)
	}
	if h.comments.FindRootsCalls != 1 {
		t.Errorf("Expected 1 window query, got %d", h.comments.FindRootsCalls)
	}
	if h.comments.FindThreadsCalls != 0 {
		t.Errorf("Expected no batch query, got %d", h.comments.FindThreadsCalls)
	}
}

func TestListPage_HugePageNumber(t *testing.T) {
	h := newTestHarness(t)
	h.seedThread(t, "article-1", "a", baseTime, 1)

	threads, err := h.services.Comment.ListPage(context.Background(), "article-1", 1<<30, 100)
	if err != nil {
		t.Fatalf("ListPage failed: %v", err)
	}
	if len(threads) != 0 {
		t.Errorf("Expected empty page, got %v", ids(threads))
	}
}

func TestListPage_PageNumberOverflow(t *testing.T) {
	h := newTestHarness(t)
	h.seedThread(t, "article-1", "a", baseTime, 1)

	tests := []struct {
		page     int
		pageSize int
	}{
		{math.MaxInt / 4, 4},
		{math.MaxInt/4 - 1, 4},
		{math.MaxInt / 2, 100},
		{math.MaxInt, 1},
		{math.MaxInt - 1, 1},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("page=%d size=%d", tt.page, tt.pageSize), func(t *testing.T) {
			threads, err := h.services.Comment.ListPage(context.Background(), "article-1", tt.page, tt.pageSize)
			if err != nil {
				t.Fatalf("ListPage failed: %v", err)
			}
			if len(threads) != 0 {
				t.Errorf("Expected empty page, got %v", ids(threads))
			}
		})
	}
}

func TestListPage_RepliesInCreationOrder(t *testing.T) {
	h := newTestHarness(t)
	ctx := context.Background()

	root := h.seedThread(t, "article-1", "root", baseTime, 0)
	first, _ := models.NewReplyComment("first", root, "w", "first", baseTime.Add(time.Second))
	nested, _ := models.NewReplyComment("nested", first, "w", "nested", baseTime.Add(2*time.Second))
	last, _ := models.NewReplyComment("last", root, "w", "last", baseTime.Add(3*time.Second))
	root.ReplyCount = 2
	first.ReplyCount = 1
	h.comments.Seed(root, first, nested, last)

	threads, err := h.services.Comment.ListPage(ctx, "article-1", 0, 10)
	if err != nil {
		t.Fatalf("ListPage failed: %v", err)
	}
	if len(threads) != 1 {
		t.Fatalf("Expected 1 thread, got %d", len(threads))
	}

	var got []string
	for _, r := range threads[0].Replies {
		got = append(got, r.ID)
	}
	if want := []string{"first", "nested", "last"}; !equalStrings(got, want) {
		t.Errorf("Expected replies %v, got %v", want, got)
	}
}

func TestListPage_HidesInactiveReplies(t *testing.T) {
	h := newTestHarness(t)
	ctx := context.Background()

	root := h.seedThread(t, "article-1", "root", baseTime, 2)
	hidden := h.comments.Get("root-r1")
	_ = hidden.ChangeStatus(models.CommentStatusHidden, baseTime.Add(time.Hour))
	h.comments.Seed(hidden)

	threads, err := h.services.Comment.ListPage(ctx, "article-1", 0, 10)
	if err != nil {
		t.Fatalf("ListPage failed: %v", err)
	}
	if len(threads) != 1 || threads[0].ID != root.ID {
		t.Fatalf("Expected the root thread, got %v", ids(threads))
	}
	if len(threads[0].Replies) != 1 || threads[0].Replies[0].ID != "root-r2" {
		t.Errorf("Expected only the active reply, got %+v", threads[0].Replies)
	}
}

func TestListAll_CreationOrderWithoutDeleted(t *testing.T) {
	h := newTestHarness(t)
	ctx := context.Background()

	h.seedThread(t, "article-1", "old", baseTime, 1)
	gone := h.seedThread(t, "article-1", "gone", baseTime.Add(time.Minute), 0)
	gone.MarkDeleted(baseTime.Add(2 * time.Minute))
	h.comments.Seed(gone)
	h.seedThread(t, "article-1", "new", baseTime.Add(3*time.Minute), 0)
	h.seedThread(t, "article-2", "other", baseTime, 0)

	all, err := h.services.Comment.ListAll(ctx, "article-1")
	if err != nil {
		t.Fatalf("ListAll failed: %v", err)
	}

	var got []string
	for _, c := range all {
		got = append(got, c.ID)
	}
	if want := []string{"old", "old-r1", "new"}; !equalStrings(got, want) {
		t.Errorf("Expected %v, got %v", want, got)
	}
}

func TestListRepliesAndThread(t *testing.T) {
	h := newTestHarness(t)
	ctx := context.Background()

	root := h.seedThread(t, "article-1", "root", baseTime, 2)
	child := h.comments.Get("root-r1")
	nested, _ := models.NewReplyComment("nested", child, "w", "nested", baseTime.Add(time.Minute))
	h.comments.Seed(nested)

	replies, err := h.services.Comment.ListReplies(ctx, root.ID)
	if err != nil {
		t.Fatalf("ListReplies failed: %v", err)
	}
	if len(replies) != 2 {
		t.Errorf("Expected 2 direct replies, got %d", len(replies))
	}

	thread, err := h.services.Comment.GetThread(ctx, root.ID)
	if err != nil {
		t.Fatalf("GetThread failed: %v", err)
	}
	if len(thread) != 4 {
		t.Errorf("Expected 4 comments in thread, got %d", len(thread))
	}
	if thread[0].ID != root.ID {
		t.Errorf("Expected the root first, got %s", thread[0].ID)
	}
}

func BenchmarkListPage(b *testing.B) {
	h := newTestHarness(b)
	for i := 0; i < 1000; i++ {
		h.seedThread(b, "article-1", fmt.Sprintf("root-%04d", i), baseTime.Add(time.Duration(i)*time.Second), i%5)
	}
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := h.services.Comment.ListPage(ctx, "article-1", i%50, 20); err != nil {
			b.Fatal(err)
		}
	}
}
