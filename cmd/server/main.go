package main

import (
	"log"

	"github.com/civicsite/internal/config"
	"github.com/civicsite/internal/db"
	"github.com/civicsite/internal/handler"
	"github.com/civicsite/internal/router"
	"github.com/civicsite/internal/service"
	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

func main() {
	cfg := config.Load()
	gin.SetMode(cfg.GinMode)

	// 初始化数据库
	if err := db.Init(cfg.DatabasePath); err != nil {
		log.Fatalf("failed to initialize database: %v", err)
	}

	adminHash, err := resolveAdminHash(cfg)
	if err != nil {
		log.Fatalf("failed to prepare admin password: %v", err)
	}

	cmsClient := service.NewCMSClient(cfg.CMSBaseURL, cfg.CMSDataset, cfg.CMSToken)
	pending := service.NewPendingPostService(db.DB, cmsClient)
	batches := service.NewPostBatchService(db.DB)

	deps := handler.Deps{
		DB:                db.DB,
		Pending:           pending,
		Batches:           batches,
		CMS:               cmsClient,
		AdminPasswordHash: adminHash,
		ContactTo:         cfg.ContactTo,
	}

	if cfg.AIAPIKey != "" {
		deps.Chat = service.NewAIChatService(cfg.AIAPIKey, cfg.AIBaseURL, cfg.AIChatModel)
		images := service.NewAIImageService(cfg.AIAPIKey, cfg.AIBaseURL, cfg.AIImageModel, cmsClient)
		deps.Blog = service.NewAIBlogService(cfg.AIAPIKey, cfg.AIBaseURL, cfg.AIBlogModel, pending, images, cfg.AuthorID)
		deps.Social = service.NewAISocialService(cfg.AIAPIKey, cfg.AIBaseURL, cfg.AISocialModel, batches)
	}
	if cfg.EmailAPIKey != "" {
		deps.Email = service.NewEmailService(cfg.EmailAPIKey, cfg.ContactFrom)
	}

	// 设置并运行 Gin 服务器
	r := router.SetupRouter(handler.NewAPI(deps), cfg.SessionSecret)
	if err := r.Run(cfg.ListenAddr); err != nil {
		log.Fatalf("failed to run server: %v", err)
	}
}

// resolveAdminHash prefers a precomputed bcrypt hash and falls back to
// hashing a plaintext ADMIN_PASSWORD at startup.
func resolveAdminHash(cfg config.AppConfig) ([]byte, error) {
	if cfg.AdminPasswordHash != "" {
		return []byte(cfg.AdminPasswordHash), nil
	}
	if cfg.AdminPassword == "" {
		return nil, nil
	}
	return bcrypt.GenerateFromPassword([]byte(cfg.AdminPassword), bcrypt.DefaultCost)
}
