package models

import "time"

// CommentResponse is the API representation of a comment with masked contents
type CommentResponse struct {
	ID              string             `json:"comment_id"`
	ArticleID       string             `json:"article_id"`
	WriterID        string             `json:"writer_id"`
	ParentCommentID string             `json:"parent_comment_id,omitempty"`
	RootCommentID   string             `json:"root_comment_id"`
	Depth           int                `json:"depth"`
	Contents        string             `json:"contents"`
	Status          CommentStatus      `json:"status"`
	IsDeleted       bool               `json:"is_deleted"`
	Visible         bool               `json:"visible"`
	Edited          bool               `json:"edited"`
	ReplyCount      int                `json:"reply_count"`
	CreatedAt       time.Time          `json:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at"`
	Replies         []*CommentResponse `json:"replies,omitempty"`
}

// NewCommentResponse copies c and its presentation into a response
func NewCommentResponse(c *Comment) *CommentResponse {
	p := c.Presentation()
	return &CommentResponse{
		ID:              c.ID,
		ArticleID:       c.ArticleID,
		WriterID:        c.WriterID,
		ParentCommentID: c.ParentCommentID,
		RootCommentID:   c.RootCommentID,
		Depth:           c.Depth,
		Contents:        p.Contents,
		Status:          c.Status,
		IsDeleted:       c.IsDeleted,
		Visible:         p.Visible,
		Edited:          p.Edited,
		ReplyCount:      c.ReplyCount,
		CreatedAt:       c.CreatedAt,
		UpdatedAt:       c.UpdatedAt,
	}
}

// AddReply appends a nested reply
func (r *CommentResponse) AddReply(reply *CommentResponse) {
	r.Replies = append(r.Replies, reply)
}

// CommentPage is one page of root threads for an article
type CommentPage struct {
	ArticleID string             `json:"article_id"`
	Page      int                `json:"page"`
	PageSize  int                `json:"page_size"`
	Comments  []*CommentResponse `json:"comments"`
}

// CreateCommentRequest is the body of POST /v1/comments
type CreateCommentRequest struct {
	ArticleID string `json:"article_id"`
	WriterID  string `json:"writer_id"`
	Contents  string `json:"contents"`
}

// CreateReplyRequest is the body of POST /v1/comments/:comment_id/replies
type CreateReplyRequest struct {
	WriterID string `json:"writer_id"`
	Contents string `json:"contents"`
}

// UpdateCommentRequest is the body of PATCH /v1/comments/:comment_id
type UpdateCommentRequest struct {
	WriterID string `json:"writer_id"`
	Contents string `json:"contents"`
}

// ChangeStatusRequest is the body of PUT /v1/comments/:comment_id/status
type ChangeStatusRequest struct {
	Status CommentStatus `json:"status"`
}

// SetCountRequest is the body of PUT /v1/articles/:article_id/comment-count
type SetCountRequest struct {
	Count *int `json:"count"`
}

// CountResponse is the comment count of a single article
type CountResponse struct {
	ArticleID string `json:"article_id"`
	Count     int    `json:"count"`
}
