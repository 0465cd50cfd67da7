package handler

import (
	"errors"
	"net/http"

	"github.com/civicsite/internal/service"
	"github.com/gin-gonic/gin"
)

func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": message})
}

func bindJSON(c *gin.Context, dst interface{}, message string) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		respondError(c, http.StatusBadRequest, message)
		return false
	}
	return true
}

// respondServiceError maps the service error taxonomy onto HTTP status
// codes: missing resources to 404, lost races to 409, everything else
// to 502 with the underlying cause so an operator can decide whether a
// retry is safe.
func respondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrPendingNotFound),
		errors.Is(err, service.ErrBatchNotFound),
		errors.Is(err, service.ErrPostIndexOutOfRange):
		respondError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrAlreadyClaimed):
		respondError(c, http.StatusConflict, "this post was already used by someone else")
	case errors.Is(err, service.ErrRemoveConflict):
		respondError(c, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrInvalidPublishStatus):
		respondError(c, http.StatusBadRequest, err.Error())
	default:
		respondError(c, http.StatusBadGateway, err.Error())
	}
}
