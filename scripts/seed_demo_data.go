package main

import (
	"fmt"
	"log"
	"os"

	"github.com/civicsite/internal/config"
	"github.com/civicsite/internal/db"
	"github.com/civicsite/internal/service"
	"golang.org/x/crypto/bcrypt"
)

// 本地演示数据生成器：打印管理密码哈希并写入示例数据
func main() {
	cfg := config.Load()
	if err := db.Init(cfg.DatabasePath); err != nil {
		log.Fatal("数据库初始化失败:", err)
	}

	password := os.Getenv("ADMIN_PASSWORD")
	if password == "" {
		password = "change-me"
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Fatal("密码加密失败:", err)
	}
	fmt.Println("ADMIN_PASSWORD_HASH=" + string(hash))

	seedPendingPost()
	seedPostBatch()

	fmt.Println("演示数据生成完成！")
}

// 创建一篇待审核的博客草稿
func seedPendingPost() {
	var count int64
	db.DB.Model(&db.PendingPost{}).Count(&count)
	if count > 0 {
		fmt.Println("待审核文章已存在，跳过创建")
		return
	}

	pending := service.NewPendingPostService(db.DB, nil)
	post, err := pending.Add(service.PendingPostInput{
		Title:    "Why legacy permit systems fail their users",
		Category: "insights",
		Excerpt:  "Three patterns we see in every struggling permitting portal, and how to fix them.",
		Tags:     []string{"permitting", "legacy-systems", "ux"},
		BodyMarkdown: `## The intake problem

Most permit portals were built for clerks, not applicants. Forms mirror
**internal database schemas** instead of the questions people can
actually answer.

## What works

- Start from the applicant journey
- Validate early, with *plain language* errors
- Publish status openly, like [permits.example](https://permits.example)

## Where to begin

An audit of abandoned applications usually points at one or two fields.`,
	})
	if err != nil {
		log.Fatal("创建演示草稿失败:", err)
	}
	fmt.Println("草稿:", post.Title)
}

// 创建一个可认领的社交帖子批次
func seedPostBatch() {
	var count int64
	db.DB.Model(&db.PostBatch{}).Count(&count)
	if count > 0 {
		fmt.Println("帖子批次已存在，跳过创建")
		return
	}

	batches := service.NewPostBatchService(db.DB)
	batch, err := batches.Save("Permit Tracker", "https://permits.example",
		[]service.BatchPostInput{
			{
				Hook:    "Your permit portal is losing applicants at question 3.",
				Content: "We audited a city permit portal and found 60% of applicants abandoned at a single jargon-filled field. Renaming it doubled completion. Small words, big outcomes.",
			},
			{
				Hook:    "Status pages beat status calls.",
				Content: "Every 'where is my permit' phone call is a UX failure. Permit Tracker publishes live application status so clerks answer fewer calls and applicants stop guessing.",
			},
			{
				Hook:    "Procurement does not have to mean waterfall.",
				Content: "We ship government software in two-week increments inside fixed-price contracts. The trick is scoping milestones around user outcomes, not document deliverables.",
			},
		},
	)
	if err != nil {
		log.Fatal("创建演示批次失败:", err)
	}
	fmt.Println("批次:", batch.ProductName, "共", len(batch.Posts), "条")
}
