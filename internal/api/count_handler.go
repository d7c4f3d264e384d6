package api

import (
	"net/http"

	"github.com/comment-server/internal/models"
	"github.com/comment-server/internal/service"
	"github.com/comment-server/internal/validation"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// CountHandler handles article comment count endpoints
type CountHandler struct {
	services  *service.Services
	validator *validation.Validator
	log       zerolog.Logger
}

// NewCountHandler creates a new CountHandler
func NewCountHandler(services *service.Services, validator *validation.Validator, log zerolog.Logger) *CountHandler {
	return &CountHandler{
		services:  services,
		validator: validator,
		log:       log.With().Str("handler", "count").Logger(),
	}
}

// GetCount handles GET /v1/articles/:article_id/comment-count.
// An article without a counter row reports 0.
func (h *CountHandler) GetCount(c *gin.Context) {
	articleID := c.Param("article_id")
	if errs := h.validator.ValidateID("article_id", articleID); len(errs) > 0 {
		writeValidationErrors(c, errs)
		return
	}

	count, _, err := h.services.Counter.GetCount(c.Request.Context(), articleID)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, models.CountResponse{ArticleID: articleID, Count: count})
}

// SetCount handles PUT /v1/articles/:article_id/comment-count
func (h *CountHandler) SetCount(c *gin.Context) {
	articleID := c.Param("article_id")

	var req models.SetCountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeInvalidBody(c)
		return
	}
	errs := h.validator.ValidateID("article_id", articleID)
	errs = append(errs, h.validator.ValidateCount(req.Count)...)
	if len(errs) > 0 {
		writeValidationErrors(c, errs)
		return
	}

	count := max(*req.Count, 0)
	if err := h.services.Counter.SetCount(c.Request.Context(), articleID, count); err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, models.CountResponse{ArticleID: articleID, Count: count})
}

// RepairCount handles POST /v1/articles/:article_id/comment-count/repair
func (h *CountHandler) RepairCount(c *gin.Context) {
	articleID := c.Param("article_id")
	if errs := h.validator.ValidateID("article_id", articleID); len(errs) > 0 {
		writeValidationErrors(c, errs)
		return
	}

	count, err := h.services.Counter.Repair(c.Request.Context(), articleID)
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	h.log.Info().Str("article_id", articleID).Int("count", count).Msg("Comment count repaired")
	c.JSON(http.StatusOK, models.CountResponse{ArticleID: articleID, Count: count})
}

// GetCounts handles POST /v1/comment-counts with a JSON array of article ids.
// The response object keeps the request order and reports 0 for unknown articles.
func (h *CountHandler) GetCounts(c *gin.Context) {
	var articleIDs []string
	if err := c.ShouldBindJSON(&articleIDs); err != nil {
		writeInvalidBody(c)
		return
	}
	if errs := h.validator.ValidateArticleIDs(articleIDs); len(errs) > 0 {
		writeValidationErrors(c, errs)
		return
	}

	counts, err := h.services.Counter.GetCountsForArticles(c.Request.Context(), articleIDs)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, counts)
}
