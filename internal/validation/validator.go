package validation

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/comment-server/internal/models"
)

// MaxIDLength matches the VARCHAR(100) id columns
const MaxIDLength = 100

// ValidationError represents a single validation error
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
}

// Validator checks request payloads before they reach the services
type Validator struct {
	maxPageSize     int
	countBatchLimit int
}

// NewValidator creates a validator with the given paging and batch limits
func NewValidator(maxPageSize, countBatchLimit int) *Validator {
	return &Validator{
		maxPageSize:     maxPageSize,
		countBatchLimit: countBatchLimit,
	}
}

// ValidateCreateComment validates a new root comment
func (v *Validator) ValidateCreateComment(req *models.CreateCommentRequest) []ValidationError {
	var errors []ValidationError
	errors = appendIDError(errors, "article_id", req.ArticleID)
	errors = appendIDError(errors, "writer_id", req.WriterID)
	errors = appendContentsError(errors, req.Contents)
	return errors
}

// ValidateCreateReply validates a reply to an existing comment
func (v *Validator) ValidateCreateReply(parentID string, req *models.CreateReplyRequest) []ValidationError {
	var errors []ValidationError
	errors = appendIDError(errors, "comment_id", parentID)
	errors = appendIDError(errors, "writer_id", req.WriterID)
	errors = appendContentsError(errors, req.Contents)
	return errors
}

// ValidateUpdateComment validates a contents edit
func (v *Validator) ValidateUpdateComment(commentID string, req *models.UpdateCommentRequest) []ValidationError {
	var errors []ValidationError
	errors = appendIDError(errors, "comment_id", commentID)
	errors = appendIDError(errors, "writer_id", req.WriterID)
	errors = appendContentsError(errors, req.Contents)
	return errors
}

// ValidateID validates a single path or query identifier
func (v *Validator) ValidateID(field, id string) []ValidationError {
	return appendIDError(nil, field, id)
}

// ValidatePaging checks a 0-based page and its size
func (v *Validator) ValidatePaging(page, pageSize int) []ValidationError {
	var errors []ValidationError
	if page < 0 {
		errors = append(errors, ValidationError{Field: "page", Message: "page must not be negative", Value: page})
	}
	if pageSize < 1 || pageSize > v.maxPageSize {
		errors = append(errors, ValidationError{
			Field:   "page_size",
			Message: fmt.Sprintf("page_size must be between 1 and %d", v.maxPageSize),
			Value:   pageSize,
		})
	}
	return errors
}

// ValidateArticleIDs checks a batch count request
func (v *Validator) ValidateArticleIDs(ids []string) []ValidationError {
	if len(ids) == 0 {
		return []ValidationError{{Field: "article_ids", Message: "at least one article id is required"}}
	}
	if len(ids) > v.countBatchLimit {
		return []ValidationError{{
			Field:   "article_ids",
			Message: fmt.Sprintf("at most %d article ids per request (got %d)", v.countBatchLimit, len(ids)),
		}}
	}

	var errors []ValidationError
	for i, id := range ids {
		errors = appendIDError(errors, fmt.Sprintf("article_ids[%d]", i), id)
	}
	return errors
}

// ValidateCount requires an explicit counter value. Negative values are
// accepted and clamped to zero by the counter service.
func (v *Validator) ValidateCount(count *int) []ValidationError {
	if count == nil {
		return []ValidationError{{Field: "count", Message: "count is required"}}
	}
	return nil
}

func appendIDError(errors []ValidationError, field, id string) []ValidationError {
	switch {
	case strings.TrimSpace(id) == "":
		return append(errors, ValidationError{Field: field, Message: field + " is required"})
	case len(id) > MaxIDLength:
		return append(errors, ValidationError{
			Field:   field,
			Message: fmt.Sprintf("%s exceeds %d characters", field, MaxIDLength),
		})
	case strings.IndexFunc(id, unicode.IsControl) >= 0:
		return append(errors, ValidationError{Field: field, Message: "invalid ID format", Value: id})
	}
	return errors
}

func appendContentsError(errors []ValidationError, contents string) []ValidationError {
	if strings.TrimSpace(contents) == "" {
		return append(errors, ValidationError{Field: "contents", Message: "contents is required"})
	}
	return errors
}
