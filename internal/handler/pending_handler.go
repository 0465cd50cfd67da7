package handler

import (
	"bytes"
	"net/http"
	"strings"

	"github.com/civicsite/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

var (
	markdownEngine = goldmark.New(
		goldmark.WithExtensions(extension.GFM, extension.Linkify),
		goldmark.WithRendererOptions(html.WithHardWraps(), html.WithXHTML()),
	)
	sanitizer = bluemonday.UGCPolicy()
)

type createPendingRequest struct {
	Title        string   `json:"title"`
	Slug         string   `json:"slug"`
	Category     string   `json:"category"`
	Excerpt      string   `json:"excerpt"`
	BodyMarkdown string   `json:"bodyMarkdown"`
	Tags         []string `json:"tags"`
	ReadTime     string   `json:"readTime"`
	AuthorID     string   `json:"authorId"`
	ImageRef     string   `json:"imageRef"`
}

// CreatePending queues a draft for moderation.
func (a *API) CreatePending(c *gin.Context) {
	var req createPendingRequest
	if !bindJSON(c, &req, "invalid pending post payload") {
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		respondError(c, http.StatusBadRequest, "title is required")
		return
	}

	post, err := a.pending.Add(service.PendingPostInput{
		Title:        req.Title,
		Slug:         req.Slug,
		Category:     req.Category,
		Excerpt:      req.Excerpt,
		BodyMarkdown: req.BodyMarkdown,
		Tags:         req.Tags,
		ReadTime:     req.ReadTime,
		AuthorID:     req.AuthorID,
		ImageRef:     req.ImageRef,
	})
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}
	c.JSON(http.StatusCreated, post)
}

// ListPending returns all posts awaiting moderation.
func (a *API) ListPending(c *gin.Context) {
	posts, err := a.pending.List()
	if err != nil {
		respondError(c, http.StatusInternalServerError, err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"posts": posts})
}

// GetPending returns one pending post.
func (a *API) GetPending(c *gin.Context) {
	post, err := a.pending.Get(c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, post)
}

// PreviewPending renders the pending markdown as sanitized HTML for
// the review screen.
func (a *API) PreviewPending(c *gin.Context) {
	post, err := a.pending.Get(c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	var buf bytes.Buffer
	if err := markdownEngine.Convert([]byte(post.BodyMarkdown), &buf); err != nil {
		respondError(c, http.StatusInternalServerError, "failed to render preview")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"id":    post.ID,
		"title": post.Title,
		"html":  string(sanitizer.SanitizeBytes(buf.Bytes())),
	})
}

type approvePendingRequest struct {
	PublishStatus string `json:"publishStatus"`
}

// ApprovePending publishes a pending post to the CMS and removes it
// from the queue.
func (a *API) ApprovePending(c *gin.Context) {
	var req approvePendingRequest
	if !bindJSON(c, &req, "invalid approve payload") {
		return
	}

	result, err := a.pending.Approve(c.Request.Context(), c.Param("id"), req.PublishStatus)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"documentId": result.DocumentID,
		"slug":       result.Slug,
		"title":      result.Title,
	})
}

// RejectPending deletes a pending post without publishing it.
func (a *API) RejectPending(c *gin.Context) {
	if err := a.pending.Reject(c.Param("id")); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
