package notify

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/comment-server/internal/models"
	"github.com/rs/zerolog"
)

type published struct {
	topic   string
	payload []byte
}

type fakePublisher struct {
	err     error
	sent    []published
	ctxs    []context.Context
	ctxErrs []error
}

func (p *fakePublisher) Publish(ctx context.Context, topic string, payload []byte) error {
	p.ctxs = append(p.ctxs, ctx)
	p.ctxErrs = append(p.ctxErrs, ctx.Err())
	if p.err != nil {
		return p.err
	}
	p.sent = append(p.sent, published{topic: topic, payload: payload})
	return nil
}

func (p *fakePublisher) Close() error { return nil }

type badEvent struct {
	Value float64 `json:"value"`
}

func (badEvent) Topic() string { return "bad" }

func TestNotifier_Emit(t *testing.T) {
	pub := &fakePublisher{}
	n := NewNotifier(pub, time.Second, zerolog.Nop())
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	n.Emit(context.Background(),
		models.CommentCreatedEvent{WriterID: "w1", ArticleID: "a1", OccurredAt: at},
		models.CommentDeletedEvent{WriterID: "w1", ArticleID: "a1", OccurredAt: at},
	)

	if len(pub.sent) != 2 {
		t.Fatalf("Expected 2 published events, got %d", len(pub.sent))
	}
	if pub.sent[0].topic != models.TopicCommentCreated || pub.sent[1].topic != models.TopicCommentDeleted {
		t.Errorf("Unexpected topics: %s, %s", pub.sent[0].topic, pub.sent[1].topic)
	}

	var payload map[string]string
	if err := json.Unmarshal(pub.sent[0].payload, &payload); err != nil {
		t.Fatalf("Invalid payload: %v", err)
	}
	if payload["writer_id"] != "w1" || payload["article_id"] != "a1" {
		t.Errorf("Unexpected payload: %v", payload)
	}
	if payload["occurred_at"] != "2024-03-01T12:00:00Z" {
		t.Errorf("Unexpected occurred_at: %s", payload["occurred_at"])
	}
}

func TestNotifier_SwallowsFailures(t *testing.T) {
	pub := &fakePublisher{err: errors.New("broker down")}
	n := NewNotifier(pub, 0, zerolog.Nop())

	// neither a transport error nor a serialization error may panic or block
	n.Emit(context.Background(), badEvent{Value: math.Inf(1)}, models.CommentCreatedEvent{ArticleID: "a1"})

	if len(pub.ctxs) != 1 {
		t.Errorf("Expected only the serializable event to reach the publisher, got %d", len(pub.ctxs))
	}
}

func TestNotifier_IgnoresCallerCancellation(t *testing.T) {
	pub := &fakePublisher{}
	n := NewNotifier(pub, time.Second, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	n.Emit(ctx, models.CommentCreatedEvent{ArticleID: "a1"})

	if len(pub.ctxs) != 1 {
		t.Fatalf("Expected one publish, got %d", len(pub.ctxs))
	}
	// checked at publish time; Emit cancels its own timeout afterwards
	if err := pub.ctxErrs[0]; err != nil {
		t.Errorf("Expected a live context while publishing, got %v", err)
	}
}

func TestNotifier_NoEvents(t *testing.T) {
	pub := &fakePublisher{}
	NewNotifier(pub, time.Second, zerolog.Nop()).Emit(context.Background())

	if len(pub.ctxs) != 0 {
		t.Error("Expected no publish calls")
	}
}

func TestLogPublisher(t *testing.T) {
	p := NewLogPublisher(zerolog.Nop())
	if err := p.Publish(context.Background(), "comment-created", []byte(`{"a":1}`)); err != nil {
		t.Errorf("Publish failed: %v", err)
	}
	if err := p.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}
}
