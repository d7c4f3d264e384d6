package gate

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/rs/zerolog"
)

func setupTestGate(t *testing.T) (*RedisGate, *miniredis.Miniredis) {
	s := miniredis.RunT(t)
	g, err := NewRedisGate("redis://"+s.Addr(), DefaultTTL, time.Second, zerolog.Nop())
	if err != nil {
		t.Fatalf("Failed to create gate: %v", err)
	}
	t.Cleanup(func() { g.Close() })
	return g, s
}

func TestRedisGate_FirstClaimWins(t *testing.T) {
	g, s := setupTestGate(t)
	ctx := context.Background()

	if !g.IsFirstWithinWindow(ctx, "article-1", "writer-1") {
		t.Fatal("Expected first call to claim the window")
	}
	if g.IsFirstWithinWindow(ctx, "article-1", "writer-1") {
		t.Error("Expected second call inside the window to be rejected")
	}

	// other pairs are independent
	if !g.IsFirstWithinWindow(ctx, "article-1", "writer-2") {
		t.Error("Expected a different writer to claim its own window")
	}
	if !g.IsFirstWithinWindow(ctx, "article-2", "writer-1") {
		t.Error("Expected a different article to claim its own window")
	}

	key := Key("article-1", "writer-1")
	if key != "c:first:v1:article-1:writer-1" {
		t.Errorf("Unexpected key %s", key)
	}
	val, err := s.Get(key)
	if err != nil || val != "1" {
		t.Errorf("Expected marker value 1, got %q (err=%v)", val, err)
	}
	if ttl := s.TTL(key); ttl != DefaultTTL {
		t.Errorf("Expected TTL %v, got %v", DefaultTTL, ttl)
	}
}

func TestRedisGate_WindowNotRenewed(t *testing.T) {
	g, s := setupTestGate(t)
	ctx := context.Background()

	g.IsFirstWithinWindow(ctx, "article-1", "writer-1")

	s.FastForward(DefaultTTL - time.Hour)
	if g.IsFirstWithinWindow(ctx, "article-1", "writer-1") {
		t.Fatal("Expected the window to still be open")
	}

	// the rejected claim must not have extended the TTL
	s.FastForward(time.Hour + time.Second)
	if !g.IsFirstWithinWindow(ctx, "article-1", "writer-1") {
		t.Error("Expected a new window after expiry")
	}
}

func TestRedisGate_ConcurrentClaims(t *testing.T) {
	g, _ := setupTestGate(t)
	ctx := context.Background()

	var mu sync.Mutex
	wins := 0
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if g.IsFirstWithinWindow(ctx, "article-1", "writer-1") {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if wins != 1 {
		t.Errorf("Expected exactly one winner, got %d", wins)
	}
}

func TestRedisGate_FailsClosed(t *testing.T) {
	g, s := setupTestGate(t)
	s.Close()

	if g.IsFirstWithinWindow(context.Background(), "article-1", "writer-1") {
		t.Error("Expected false when Redis is unavailable")
	}
	if err := g.Ping(context.Background()); err == nil {
		t.Error("Expected ping to fail")
	}
}

func TestRedisGate_CancelledContext(t *testing.T) {
	g, _ := setupTestGate(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if g.IsFirstWithinWindow(ctx, "article-1", "writer-1") {
		t.Error("Expected false for a cancelled context")
	}
}

func TestNewRedisGate_InvalidURL(t *testing.T) {
	if _, err := NewRedisGate("not-a-url", DefaultTTL, time.Second, zerolog.Nop()); err == nil {
		t.Error("Expected error for invalid URL")
	}
}
