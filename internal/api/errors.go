package api

import (
	"net/http"

	"github.com/comment-server/internal/service"
	"github.com/comment-server/internal/validation"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

const (
	codeInternal         = "INTERNAL"
	codeInvalidBody      = "INVALID_BODY"
	codeValidationFailed = "VALIDATION_FAILED"
)

func statusForKind(kind service.ErrorKind) int {
	switch kind {
	case service.KindNotFound:
		return http.StatusNotFound
	case service.KindForbidden:
		return http.StatusForbidden
	case service.KindValidation:
		return http.StatusBadRequest
	case service.KindConflict:
		return http.StatusConflict
	case service.KindUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeError maps service errors to their HTTP status and stable code.
// Anything else is logged and reported as a generic 500.
func writeError(c *gin.Context, log zerolog.Logger, err error) {
	if svcErr, ok := service.AsError(err); ok {
		status := statusForKind(svcErr.Kind)
		if status >= http.StatusInternalServerError {
			log.Warn().Err(err).Str("code", svcErr.Code).Str("path", c.Request.URL.Path).Msg("Dependency unavailable")
		}
		c.JSON(status, gin.H{"code": svcErr.Code, "message": svcErr.Message})
		return
	}

	log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("Request failed")
	c.JSON(http.StatusInternalServerError, gin.H{
		"code":    codeInternal,
		"message": "internal server error",
	})
}

func writeValidationErrors(c *gin.Context, errs []validation.ValidationError) {
	c.JSON(http.StatusBadRequest, gin.H{
		"code":    codeValidationFailed,
		"message": "request validation failed",
		"errors":  errs,
	})
}

func writeInvalidBody(c *gin.Context) {
	c.JSON(http.StatusBadRequest, gin.H{
		"code":    codeInvalidBody,
		"message": "request body must be valid JSON",
	})
}
