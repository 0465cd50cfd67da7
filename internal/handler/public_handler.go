package handler

import (
	"fmt"
	"html"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/civicsite/internal/db"
	"github.com/civicsite/internal/service"
	"github.com/gin-gonic/gin"
)

type chatRequest struct {
	Message string             `json:"message"`
	History []service.ChatTurn `json:"history"`
}

// Chat answers one chat-widget message.
func (a *API) Chat(c *gin.Context) {
	if a.chat == nil {
		respondError(c, http.StatusServiceUnavailable, "chat is not configured")
		return
	}

	var req chatRequest
	if !bindJSON(c, &req, "message is required") {
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		respondError(c, http.StatusBadRequest, "message is required")
		return
	}

	reply, err := a.chat.Reply(c.Request.Context(), req.Message, req.History)
	if err != nil {
		respondError(c, http.StatusBadGateway, "assistant is unavailable right now")
		return
	}
	c.JSON(http.StatusOK, gin.H{"reply": reply})
}

type contactRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Company string `json:"company"`
	Message string `json:"message"`
}

// Contact stores a contact-form submission and forwards it by email.
// The local copy is written first so a provider outage never loses the
// inquiry.
func (a *API) Contact(c *gin.Context) {
	var req contactRequest
	if !bindJSON(c, &req, "invalid contact payload") {
		return
	}
	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Message) == "" {
		respondError(c, http.StatusBadRequest, "name and message are required")
		return
	}
	if !strings.Contains(req.Email, "@") {
		respondError(c, http.StatusBadRequest, "a valid email is required")
		return
	}

	record := db.ContactMessage{
		Name:      strings.TrimSpace(req.Name),
		Email:     strings.TrimSpace(req.Email),
		Company:   strings.TrimSpace(req.Company),
		Message:   strings.TrimSpace(req.Message),
		CreatedAt: time.Now().UTC(),
	}
	if err := a.db.Create(&record).Error; err != nil {
		respondError(c, http.StatusInternalServerError, "failed to store message")
		return
	}

	if a.email == nil || a.contactTo == "" {
		log.Printf("contact message %d stored, email delivery not configured", record.ID)
		c.JSON(http.StatusAccepted, gin.H{"ok": true})
		return
	}

	subject := fmt.Sprintf("New inquiry from %s", record.Name)
	body := contactEmailBody(record)
	messageID, err := a.email.Send(c.Request.Context(), a.contactTo, subject, body)
	if err != nil {
		log.Printf("contact message %d stored, email delivery failed: %v", record.ID, err)
		c.JSON(http.StatusAccepted, gin.H{"ok": true, "delivered": false})
		return
	}

	a.db.Model(&record).Update("email_id", messageID)
	c.JSON(http.StatusAccepted, gin.H{"ok": true, "delivered": true})
}

func contactEmailBody(m db.ContactMessage) string {
	var b strings.Builder
	b.WriteString("<h2>New inquiry</h2>")
	b.WriteString("<p><strong>Name:</strong> " + html.EscapeString(m.Name) + "</p>")
	b.WriteString("<p><strong>Email:</strong> " + html.EscapeString(m.Email) + "</p>")
	if m.Company != "" {
		b.WriteString("<p><strong>Company:</strong> " + html.EscapeString(m.Company) + "</p>")
	}
	b.WriteString("<p>" + html.EscapeString(m.Message) + "</p>")
	return b.String()
}

// ListPublishedPosts proxies the CMS post listing for the blog index.
func (a *API) ListPublishedPosts(c *gin.Context) {
	if a.cms == nil {
		respondError(c, http.StatusServiceUnavailable, "cms is not configured")
		return
	}

	posts, err := a.cms.QueryAll(c.Request.Context())
	if err != nil {
		respondError(c, http.StatusBadGateway, err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"posts": posts})
}

// GetPublishedPost proxies a single CMS post lookup by slug.
func (a *API) GetPublishedPost(c *gin.Context) {
	if a.cms == nil {
		respondError(c, http.StatusServiceUnavailable, "cms is not configured")
		return
	}

	post, err := a.cms.QueryBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		respondError(c, http.StatusBadGateway, err.Error())
		return
	}
	if post == nil {
		respondError(c, http.StatusNotFound, "post not found")
		return
	}
	c.JSON(http.StatusOK, post)
}
