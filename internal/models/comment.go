package models

import (
	"errors"
	"strings"
	"time"
)

// CommentStatus is the moderation state of a comment
type CommentStatus string

const (
	CommentStatusActive        CommentStatus = "ACTIVE"
	CommentStatusHidden        CommentStatus = "HIDDEN"
	CommentStatusBanned        CommentStatus = "BANNED"
	CommentStatusPendingReview CommentStatus = "PENDING_REVIEW"
	CommentStatusDeleted       CommentStatus = "DELETED"
)

// ValidStatuses defines allowed comment statuses
var ValidStatuses = map[CommentStatus]bool{
	CommentStatusActive:        true,
	CommentStatusHidden:        true,
	CommentStatusBanned:        true,
	CommentStatusPendingReview: true,
	CommentStatusDeleted:       true,
}

// Placeholder texts shown instead of masked contents
const (
	DeletedContents       = "This comment has been deleted."
	HiddenContents        = "This comment has been hidden."
	BannedContents        = "This comment has been removed for violating the community guidelines."
	PendingReviewContents = "This comment is pending review."
)

var (
	ErrBlankContents  = errors.New("contents must not be blank")
	ErrCommentDeleted = errors.New("comment is deleted")
	ErrInvalidStatus  = errors.New("invalid comment status")
)

// Comment represents a comment on an article.
// ArticleID, WriterID, ParentCommentID, RootCommentID and Depth are fixed at
// creation; the remaining fields change only through the methods below.
type Comment struct {
	ID              string        `json:"comment_id" db:"comment_id"`
	ArticleID       string        `json:"article_id" db:"article_id"`
	WriterID        string        `json:"writer_id" db:"writer_id"`
	ParentCommentID string        `json:"parent_comment_id,omitempty" db:"parent_comment_id"` // empty for roots
	RootCommentID   string        `json:"root_comment_id" db:"root_comment_id"`
	Depth           int           `json:"depth" db:"depth"`
	Contents        string        `json:"contents" db:"contents"`
	IsDeleted       bool          `json:"is_deleted" db:"is_deleted"`
	Status          CommentStatus `json:"status" db:"status"`
	ReplyCount      int           `json:"reply_count" db:"reply_count"`
	CreatedAt       time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at" db:"updated_at"`
	DeletedAt       *time.Time    `json:"deleted_at,omitempty" db:"deleted_at"`
}

// NewRootComment builds a top-level comment that roots its own thread
func NewRootComment(id, articleID, writerID, contents string, now time.Time) (*Comment, error) {
	if err := ValidateContents(contents); err != nil {
		return nil, err
	}
	return &Comment{
		ID:            id,
		ArticleID:     articleID,
		WriterID:      writerID,
		RootCommentID: id,
		Depth:         0,
		Contents:      contents,
		Status:        CommentStatusActive,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// NewReplyComment builds a reply to parent. The reply belongs to the parent's
// article and thread and sits one level deeper.
func NewReplyComment(id string, parent *Comment, writerID, contents string, now time.Time) (*Comment, error) {
	if err := ValidateContents(contents); err != nil {
		return nil, err
	}
	rootID := parent.RootCommentID
	if rootID == "" {
		rootID = parent.ID
	}
	return &Comment{
		ID:              id,
		ArticleID:       parent.ArticleID,
		WriterID:        writerID,
		ParentCommentID: parent.ID,
		RootCommentID:   rootID,
		Depth:           parent.Depth + 1,
		Contents:        contents,
		Status:          CommentStatusActive,
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}

// ValidateContents rejects blank or whitespace-only contents
func ValidateContents(contents string) error {
	if strings.TrimSpace(contents) == "" {
		return ErrBlankContents
	}
	return nil
}

// IsRoot reports whether the comment has no parent
func (c *Comment) IsRoot() bool {
	return c.ParentCommentID == ""
}

// IsOwnedBy reports whether writerID wrote the comment
func (c *Comment) IsOwnedBy(writerID string) bool {
	return c.WriterID == writerID
}

// IsEdited reports whether the comment changed after creation
func (c *Comment) IsEdited() bool {
	return !c.UpdatedAt.IsZero() && !c.UpdatedAt.Equal(c.CreatedAt)
}

// IsCounted reports whether the comment contributes to the article comment count
func (c *Comment) IsCounted() bool {
	return !c.IsDeleted && c.Status == CommentStatusActive
}

// UpdateContents replaces the text of the comment
func (c *Comment) UpdateContents(contents string, now time.Time) error {
	if c.IsDeleted {
		return ErrCommentDeleted
	}
	if err := ValidateContents(contents); err != nil {
		return err
	}
	c.Contents = contents
	c.touch(now)
	return nil
}

// MarkDeleted soft deletes the comment. The status is forced to DELETED.
func (c *Comment) MarkDeleted(now time.Time) {
	c.IsDeleted = true
	c.Status = CommentStatusDeleted
	c.DeletedAt = &now
	c.touch(now)
}

// MarkHidden moves the comment into the HIDDEN moderation state
func (c *Comment) MarkHidden(now time.Time) error {
	return c.ChangeStatus(CommentStatusHidden, now)
}

// ChangeStatus applies a moderation transition. Deleted comments are locked,
// and DELETED is only reachable through MarkDeleted.
func (c *Comment) ChangeStatus(status CommentStatus, now time.Time) error {
	if c.IsDeleted {
		return ErrCommentDeleted
	}
	if !ValidStatuses[status] || status == CommentStatusDeleted {
		return ErrInvalidStatus
	}
	c.Status = status
	c.touch(now)
	return nil
}

// AddReply records one more direct reply
func (c *Comment) AddReply() {
	c.ReplyCount++
}

// RemoveReply records one fewer direct reply, never going below zero
func (c *Comment) RemoveReply() {
	if c.ReplyCount > 0 {
		c.ReplyCount--
	}
}

func (c *Comment) touch(now time.Time) {
	if now.Before(c.CreatedAt) {
		now = c.CreatedAt
	}
	c.UpdatedAt = now
}

// Presentation is what a reader sees of a comment
type Presentation struct {
	Contents string
	Visible  bool
	Edited   bool
}

// Presentation masks the contents according to the deletion flag and
// moderation status. Every comment stays visible so thread shape is kept.
func (c *Comment) Presentation() Presentation {
	return Presentation{
		Contents: DisplayContents(c.IsDeleted, c.Status, c.Contents),
		Visible:  true,
		Edited:   c.IsEdited(),
	}
}

// DisplayContents maps (isDeleted, status) to the text shown to readers
func DisplayContents(isDeleted bool, status CommentStatus, contents string) string {
	if isDeleted {
		return DeletedContents
	}
	switch status {
	case CommentStatusActive:
		return contents
	case CommentStatusHidden:
		return HiddenContents
	case CommentStatusBanned:
		return BannedContents
	case CommentStatusPendingReview:
		return PendingReviewContents
	case CommentStatusDeleted:
		return DeletedContents
	default:
		return HiddenContents
	}
}
