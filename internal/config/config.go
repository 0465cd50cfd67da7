package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// AppConfig 汇总运行服务所需的基础配置。
type AppConfig struct {
	ListenAddr        string
	Port              string
	DatabasePath      string
	SessionSecret     string
	GinMode           string
	SiteBaseURL       string
	AdminPassword     string
	AdminPasswordHash string

	AIAPIKey      string
	AIBaseURL     string
	AIChatModel   string
	AIBlogModel   string
	AISocialModel string
	AIImageModel  string
	AuthorID      string

	CMSBaseURL string
	CMSDataset string
	CMSToken   string

	EmailAPIKey string
	ContactFrom string
	ContactTo   string
}

// Load 从环境变量读取应用配置，并为缺失项提供安全的默认值。
// 存在 .env 文件时先行加载。
func Load() AppConfig {
	_ = godotenv.Load()

	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	listenAddr := strings.TrimSpace(os.Getenv("LISTEN_ADDR"))
	if listenAddr == "" {
		listenAddr = fmt.Sprintf(":%s", port)
	}

	databasePath := strings.TrimSpace(os.Getenv("DATABASE_PATH"))
	if databasePath == "" {
		databasePath = "civicsite.db"
	}

	sessionSecret := strings.TrimSpace(os.Getenv("SESSION_SECRET"))
	if sessionSecret == "" {
		sessionSecret = "civicsite-dev-secret"
	}

	ginMode := strings.TrimSpace(os.Getenv("GIN_MODE"))
	if ginMode == "" {
		ginMode = "release"
	}

	siteBaseURL := strings.TrimSpace(os.Getenv("SITE_BASE_URL"))
	if siteBaseURL == "" {
		siteBaseURL = "https://www.civicsite.dev"
	}

	cmsDataset := strings.TrimSpace(os.Getenv("CMS_DATASET"))
	if cmsDataset == "" {
		cmsDataset = "production"
	}

	return AppConfig{
		ListenAddr:        listenAddr,
		Port:              port,
		DatabasePath:      databasePath,
		SessionSecret:     sessionSecret,
		GinMode:           ginMode,
		SiteBaseURL:       siteBaseURL,
		AdminPassword:     strings.TrimSpace(os.Getenv("ADMIN_PASSWORD")),
		AdminPasswordHash: strings.TrimSpace(os.Getenv("ADMIN_PASSWORD_HASH")),

		AIAPIKey:      strings.TrimSpace(os.Getenv("AI_API_KEY")),
		AIBaseURL:     strings.TrimSpace(os.Getenv("AI_BASE_URL")),
		AIChatModel:   strings.TrimSpace(os.Getenv("AI_CHAT_MODEL")),
		AIBlogModel:   strings.TrimSpace(os.Getenv("AI_BLOG_MODEL")),
		AISocialModel: strings.TrimSpace(os.Getenv("AI_SOCIAL_MODEL")),
		AIImageModel:  strings.TrimSpace(os.Getenv("AI_IMAGE_MODEL")),
		AuthorID:      strings.TrimSpace(os.Getenv("BLOG_AUTHOR_ID")),

		CMSBaseURL: strings.TrimSpace(os.Getenv("CMS_BASE_URL")),
		CMSDataset: cmsDataset,
		CMSToken:   strings.TrimSpace(os.Getenv("CMS_TOKEN")),

		EmailAPIKey: strings.TrimSpace(os.Getenv("EMAIL_API_KEY")),
		ContactFrom: strings.TrimSpace(os.Getenv("CONTACT_FROM")),
		ContactTo:   strings.TrimSpace(os.Getenv("CONTACT_TO")),
	}
}
