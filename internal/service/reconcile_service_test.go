package service_test

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestReconcile_RunOnceRepairsRecentArticles(t *testing.T) {
	h := newTestHarness(t)
	now := time.Now().UTC()

	h.seedThread(t, "recent", "r1", now.Add(-time.Minute), 2)
	h.seedThread(t, "stale", "s1", now.Add(-3*time.Hour), 0)
	h.counters.Counts["recent"] = 40
	h.counters.Counts["stale"] = 40

	repaired := h.services.Reconcile.RunOnce(context.Background())
	if repaired != 1 {
		t.Errorf("Expected 1 repaired article, got %d", repaired)
	}
	if n, _ := h.counters.Value("recent"); n != 3 {
		t.Errorf("Expected recent count 3, got %d", n)
	}
	if n, _ := h.counters.Value("stale"); n != 40 {
		t.Errorf("Expected stale count left at 40, got %d", n)
	}
}

func TestReconcile_RunOnceQueryFailure(t *testing.T) {
	h := newTestHarness(t)
	h.comments.QueryError = errors.New("connection reset")

	if repaired := h.services.Reconcile.RunOnce(context.Background()); repaired != 0 {
		t.Errorf("Expected 0 repaired articles, got %d", repaired)
	}
}

func TestReconcile_StartStop(t *testing.T) {
	h := newTestHarness(t)
	h.seedThread(t, "article-1", "r1", time.Now().UTC(), 1)
	h.counters.Counts["article-1"] = 9

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		h.services.Reconcile.Start(ctx)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for {
		if n, _ := h.counters.Value("article-1"); n == 2 {
			break
		}
		select {
		case <-deadline:
			t.Fatal("Timed out waiting for the reconciler to repair the counter")
		case <-time.After(5 * time.Millisecond):
		}
	}

	h.services.Reconcile.Stop()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Expected Start to return after Stop")
	}
}

func TestReconcile_StartReturnsOnContextCancel(t *testing.T) {
	h := newTestHarness(t)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		h.services.Reconcile.Start(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Expected Start to return after context cancellation")
	}

	// Stop after the loop exited on its own must not block
	h.services.Reconcile.Stop()
}

func TestReconcile_StopBeforeStart(t *testing.T) {
	h := newTestHarness(t)
	h.services.Reconcile.Stop()

	done := make(chan struct{})
	go func() {
		h.services.Reconcile.Start(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Expected Start to return when Stop already ran")
	}
}
