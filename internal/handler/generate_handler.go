package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

type generateBlogRequest struct {
	Topic string `json:"topic"`
}

// GenerateBlogDraft asks the model for a full draft on a topic and
// queues it for moderation.
func (a *API) GenerateBlogDraft(c *gin.Context) {
	if a.blog == nil {
		respondError(c, http.StatusServiceUnavailable, "blog generation is not configured")
		return
	}

	var req generateBlogRequest
	if !bindJSON(c, &req, "topic is required") {
		return
	}
	if strings.TrimSpace(req.Topic) == "" {
		respondError(c, http.StatusBadRequest, "topic is required")
		return
	}

	post, err := a.blog.GenerateDraft(c.Request.Context(), req.Topic)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, post)
}

type generateSocialRequest struct {
	ProductName string `json:"productName"`
	ProductURL  string `json:"productUrl"`
}

// GenerateSocialBatch generates a batch of LinkedIn posts for a
// product page.
func (a *API) GenerateSocialBatch(c *gin.Context) {
	if a.social == nil {
		respondError(c, http.StatusServiceUnavailable, "social generation is not configured")
		return
	}

	var req generateSocialRequest
	if !bindJSON(c, &req, "product name is required") {
		return
	}
	if strings.TrimSpace(req.ProductName) == "" {
		respondError(c, http.StatusBadRequest, "product name is required")
		return
	}

	batch, err := a.social.GenerateBatch(c.Request.Context(), req.ProductName, req.ProductURL)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, batch)
}
