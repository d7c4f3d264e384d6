package api

import (
	"net/http"
	"strconv"

	"github.com/comment-server/internal/config"
	"github.com/comment-server/internal/models"
	"github.com/comment-server/internal/service"
	"github.com/comment-server/internal/validation"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// CommentHandler handles comment endpoints
type CommentHandler struct {
	services  *service.Services
	validator *validation.Validator
	cfg       *config.Config
	log       zerolog.Logger
}

// NewCommentHandler creates a new CommentHandler
func NewCommentHandler(services *service.Services, validator *validation.Validator, cfg *config.Config, log zerolog.Logger) *CommentHandler {
	return &CommentHandler{
		services:  services,
		validator: validator,
		cfg:       cfg,
		log:       log.With().Str("handler", "comment").Logger(),
	}
}

// CreateComment handles POST /v1/comments
func (h *CommentHandler) CreateComment(c *gin.Context) {
	var req models.CreateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeInvalidBody(c)
		return
	}
	if errs := h.validator.ValidateCreateComment(&req); len(errs) > 0 {
		writeValidationErrors(c, errs)
		return
	}

	comment, err := h.services.Comment.CreateRoot(c.Request.Context(), req.ArticleID, req.WriterID, req.Contents)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, models.NewCommentResponse(comment))
}

// CreateReply handles POST /v1/comments/:comment_id/replies
func (h *CommentHandler) CreateReply(c *gin.Context) {
	parentID := c.Param("comment_id")

	var req models.CreateReplyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeInvalidBody(c)
		return
	}
	if errs := h.validator.ValidateCreateReply(parentID, &req); len(errs) > 0 {
		writeValidationErrors(c, errs)
		return
	}

	reply, err := h.services.Comment.CreateReply(c.Request.Context(), parentID, req.WriterID, req.Contents)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, models.NewCommentResponse(reply))
}

// GetComment handles GET /v1/comments/:comment_id
func (h *CommentHandler) GetComment(c *gin.Context) {
	commentID := c.Param("comment_id")
	if errs := h.validator.ValidateID("comment_id", commentID); len(errs) > 0 {
		writeValidationErrors(c, errs)
		return
	}

	comment, err := h.services.Comment.GetByID(c.Request.Context(), commentID)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, models.NewCommentResponse(comment))
}

// UpdateComment handles PATCH /v1/comments/:comment_id
func (h *CommentHandler) UpdateComment(c *gin.Context) {
	commentID := c.Param("comment_id")

	var req models.UpdateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeInvalidBody(c)
		return
	}
	if errs := h.validator.ValidateUpdateComment(commentID, &req); len(errs) > 0 {
		writeValidationErrors(c, errs)
		return
	}

	comment, err := h.services.Comment.UpdateContents(c.Request.Context(), commentID, req.WriterID, req.Contents)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, models.NewCommentResponse(comment))
}

// DeleteComment handles DELETE /v1/comments/:comment_id?writer_id=
func (h *CommentHandler) DeleteComment(c *gin.Context) {
	commentID := c.Param("comment_id")
	writerID := c.Query("writer_id")

	errs := h.validator.ValidateID("comment_id", commentID)
	errs = append(errs, h.validator.ValidateID("writer_id", writerID)...)
	if len(errs) > 0 {
		writeValidationErrors(c, errs)
		return
	}

	if err := h.services.Comment.SoftDelete(c.Request.Context(), commentID, writerID); err != nil {
		writeError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ChangeStatus handles PUT /v1/comments/:comment_id/status
func (h *CommentHandler) ChangeStatus(c *gin.Context) {
	commentID := c.Param("comment_id")

	var req models.ChangeStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeInvalidBody(c)
		return
	}
	if errs := h.validator.ValidateID("comment_id", commentID); len(errs) > 0 {
		writeValidationErrors(c, errs)
		return
	}

	comment, err := h.services.Comment.ChangeStatus(c.Request.Context(), commentID, req.Status)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, models.NewCommentResponse(comment))
}

// ListReplies handles GET /v1/comments/:comment_id/replies
func (h *CommentHandler) ListReplies(c *gin.Context) {
	parentID := c.Param("comment_id")
	if errs := h.validator.ValidateID("comment_id", parentID); len(errs) > 0 {
		writeValidationErrors(c, errs)
		return
	}

	replies, err := h.services.Comment.ListReplies(c.Request.Context(), parentID)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"comment_id": parentID,
		"replies":    toResponses(replies),
	})
}

// GetThread handles GET /v1/threads/:root_id
func (h *CommentHandler) GetThread(c *gin.Context) {
	rootID := c.Param("root_id")
	if errs := h.validator.ValidateID("root_id", rootID); len(errs) > 0 {
		writeValidationErrors(c, errs)
		return
	}

	thread, err := h.services.Comment.GetThread(c.Request.Context(), rootID)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"root_comment_id": rootID,
		"comments":        toResponses(thread),
	})
}

// ListArticleComments handles GET /v1/articles/:article_id/comments.
// mode=all returns every non-deleted comment flat, otherwise a page of threads.
func (h *CommentHandler) ListArticleComments(c *gin.Context) {
	articleID := c.Param("article_id")
	if errs := h.validator.ValidateID("article_id", articleID); len(errs) > 0 {
		writeValidationErrors(c, errs)
		return
	}

	if c.Query("mode") == "all" {
		comments, err := h.services.Comment.ListAll(c.Request.Context(), articleID)
		if err != nil {
			writeError(c, h.log, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"article_id": articleID,
			"comments":   toResponses(comments),
		})
		return
	}

	page, pageErr := strconv.Atoi(c.DefaultQuery("page", "0"))
	pageSize, sizeErr := strconv.Atoi(c.DefaultQuery("page_size", strconv.Itoa(h.cfg.Comment.DefaultPageSize)))

	var errs []validation.ValidationError
	if pageErr != nil {
		errs = append(errs, validation.ValidationError{Field: "page", Message: "page must be an integer", Value: c.Query("page")})
	}
	if sizeErr != nil {
		errs = append(errs, validation.ValidationError{Field: "page_size", Message: "page_size must be an integer", Value: c.Query("page_size")})
	}
	if len(errs) == 0 {
		errs = h.validator.ValidatePaging(page, pageSize)
	}
	if len(errs) > 0 {
		writeValidationErrors(c, errs)
		return
	}

	threads, err := h.services.Comment.ListPage(c.Request.Context(), articleID, page, pageSize)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, models.CommentPage{
		ArticleID: articleID,
		Page:      page,
		PageSize:  pageSize,
		Comments:  threads,
	})
}

func toResponses(comments []*models.Comment) []*models.CommentResponse {
	out := make([]*models.CommentResponse, len(comments))
	for i, c := range comments {
		out[i] = models.NewCommentResponse(c)
	}
	return out
}
