package models

import "time"

// Notification topics
const (
	TopicCommentCreated = "comment-created"
	TopicCommentDeleted = "comment-deleted"
)

// CommentCreatedEvent is emitted when a writer comments on an article for the
// first time within the dedup window
type CommentCreatedEvent struct {
	WriterID   string    `json:"writer_id"`
	ArticleID  string    `json:"article_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Topic implements notify.Event
func (CommentCreatedEvent) Topic() string { return TopicCommentCreated }

// CommentDeletedEvent is emitted when a deletion leaves an article without
// active comments
type CommentDeletedEvent struct {
	WriterID   string    `json:"writer_id"`
	ArticleID  string    `json:"article_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Topic implements notify.Event
func (CommentDeletedEvent) Topic() string { return TopicCommentDeleted }
