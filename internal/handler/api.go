package handler

import (
	"github.com/civicsite/internal/service"
	"gorm.io/gorm"
)

// API bundles shared dependencies for HTTP handlers.
type API struct {
	db      *gorm.DB
	pending *service.PendingPostService
	batches *service.PostBatchService
	chat    service.ChatReplier
	blog    service.BlogDraftGenerator
	social  service.SocialBatchGenerator
	cms     service.CMSReader
	email   service.EmailSender

	adminPasswordHash []byte
	contactTo         string
}

// Deps lists the collaborators the handler set needs. Chat, blog,
// social, cms and email may be nil when the matching provider is not
// configured; the affected endpoints then answer 503.
type Deps struct {
	DB                *gorm.DB
	Pending           *service.PendingPostService
	Batches           *service.PostBatchService
	Chat              service.ChatReplier
	Blog              service.BlogDraftGenerator
	Social            service.SocialBatchGenerator
	CMS               service.CMSReader
	Email             service.EmailSender
	AdminPasswordHash []byte
	ContactTo         string
}

// NewAPI constructs a handler set with shared services.
func NewAPI(deps Deps) *API {
	return &API{
		db:      deps.DB,
		pending: deps.Pending,
		batches: deps.Batches,
		chat:    deps.Chat,
		blog:    deps.Blog,
		social:  deps.Social,
		cms:     deps.CMS,
		email:   deps.Email,

		adminPasswordHash: deps.AdminPasswordHash,
		contactTo:         deps.ContactTo,
	}
}
