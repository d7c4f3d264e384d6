package mocks

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/comment-server/internal/gate"
	"github.com/comment-server/internal/idgen"
	"github.com/comment-server/internal/notify"
)

// MockGate is an in-memory FirstCommentGate without expiry.
// With Unavailable set every call fails closed.
type MockGate struct {
	mu          sync.Mutex
	claimed     map[string]bool
	Unavailable bool
	Calls       int
}

// Verify interface compliance
var _ gate.FirstCommentGate = (*MockGate)(nil)

func NewMockGate() *MockGate {
	return &MockGate{claimed: make(map[string]bool)}
}

func (m *MockGate) IsFirstWithinWindow(ctx context.Context, articleID, writerID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls++
	if m.Unavailable {
		return false
	}
	key := gate.Key(articleID, writerID)
	if m.claimed[key] {
		return false
	}
	m.claimed[key] = true
	return true
}

// PublishedMessage is one message captured by MockPublisher
type PublishedMessage struct {
	Topic   string
	Payload []byte
}

// MockPublisher records published messages
type MockPublisher struct {
	mu       sync.Mutex
	Messages []PublishedMessage
	Err      error
}

// Verify interface compliance
var _ notify.Publisher = (*MockPublisher)(nil)

func NewMockPublisher() *MockPublisher {
	return &MockPublisher{}
}

func (m *MockPublisher) Publish(ctx context.Context, topic string, payload []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.Messages = append(m.Messages, PublishedMessage{Topic: topic, Payload: payload})
	return nil
}

func (m *MockPublisher) Close() error { return nil }

// Topics returns the topics published so far, in order
func (m *MockPublisher) Topics() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	topics := make([]string, len(m.Messages))
	for i, msg := range m.Messages {
		topics[i] = msg.Topic
	}
	return topics
}

// SequenceIDs generates deterministic ids: prefix-1, prefix-2, ...
type SequenceIDs struct {
	Prefix string
	n      atomic.Int64
}

// Verify interface compliance
var _ idgen.Generator = (*SequenceIDs)(nil)

func NewSequenceIDs(prefix string) *SequenceIDs {
	return &SequenceIDs{Prefix: prefix}
}

func (s *SequenceIDs) NewID() string {
	return fmt.Sprintf("%s-%d", s.Prefix, s.n.Add(1))
}
