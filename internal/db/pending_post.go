package db

import (
	"time"

	"github.com/civicsite/internal/document"
)

// PendingPost 定义了待审核的 AI 生成文章模型。
// 审核通过后内容进入外部 CMS，本地记录随之删除；拒绝则直接删除。
type PendingPost struct {
	ID            string          `gorm:"primaryKey"`
	Title         string          `gorm:"not null"`
	Slug          string          `gorm:"index"`
	Category      string
	Excerpt       string
	BodyMarkdown  string
	BodyDocument  []document.Node `gorm:"serializer:json"`
	Tags          []string        `gorm:"serializer:json"`
	ReadTime      string
	AuthorID      string
	ImageRef      string
	PublishStatus string
	CreatedAt     time.Time
}

// Publish status values accepted on approval.
const (
	PublishStatusDraft     = "draft"
	PublishStatusPublished = "published"
)
