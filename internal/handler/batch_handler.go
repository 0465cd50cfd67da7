package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/civicsite/internal/service"
	"github.com/gin-gonic/gin"
)

type saveBatchRequest struct {
	ProductName string `json:"productName"`
	ProductURL  string `json:"productUrl"`
	Posts       []struct {
		Content string `json:"content"`
		Hook    string `json:"hook"`
	} `json:"posts"`
}

// SaveBatch stores a hand-assembled batch of social posts.
func (a *API) SaveBatch(c *gin.Context) {
	var req saveBatchRequest
	if !bindJSON(c, &req, "invalid batch payload") {
		return
	}

	posts := make([]service.BatchPostInput, 0, len(req.Posts))
	for _, p := range req.Posts {
		posts = append(posts, service.BatchPostInput{Content: p.Content, Hook: p.Hook})
	}

	batch, err := a.batches.Save(req.ProductName, req.ProductURL, posts)
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}
	c.JSON(http.StatusCreated, batch)
}

// ListBatches returns all social post batches.
func (a *API) ListBatches(c *gin.Context) {
	batches, err := a.batches.List()
	if err != nil {
		respondError(c, http.StatusInternalServerError, err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"batches": batches})
}

// GetBatch returns one batch with its posts.
func (a *API) GetBatch(c *gin.Context) {
	batch, err := a.batches.Get(c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, batch)
}

type claimPostRequest struct {
	Name string `json:"name"`
}

// ClaimPost assigns a post to the caller, first claim wins. The caller
// only copies the text after a successful claim, so a 409 here means
// hands off.
func (a *API) ClaimPost(c *gin.Context) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil || index < 0 {
		respondError(c, http.StatusBadRequest, "invalid post index")
		return
	}

	var req claimPostRequest
	if !bindJSON(c, &req, "claimant name is required") {
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		respondError(c, http.StatusBadRequest, "claimant name is required")
		return
	}

	post, err := a.batches.Claim(c.Param("id"), index, req.Name)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, post)
}
