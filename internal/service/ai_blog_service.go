package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/civicsite/internal/db"
)

const (
	defaultBlogModel       = "gpt-4o"
	defaultBlogMaxTokens   = 4096
	defaultBlogTemperature = 0.7
)

// ErrDraftIncomplete 表示模型返回的草稿缺少必填字段。
var ErrDraftIncomplete = errors.New("generated draft is missing a title or body")

// blogCategories are the sections the marketing site renders; drafts
// outside this set land in the default category.
var blogCategories = map[string]bool{
	"digital-services": true,
	"case-studies":     true,
	"engineering":      true,
	"procurement":      true,
	"insights":         true,
}

const defaultBlogCategory = "insights"

const blogSystemPrompt = `You are a content writer for CivicSite, a consultancy that builds digital services for government agencies and regulated enterprises. Write in a clear, practical voice for public-sector decision makers. Respond with a single JSON object and nothing else, using exactly these keys: "title" (string), "category" (one of digital-services, case-studies, engineering, procurement, insights), "excerpt" (string, at most two sentences), "tags" (array of 3-5 short strings), "body" (string, markdown with ## section headings, lists and **emphasis** where useful, 700-1100 words).`

// ImageGenerator produces an optional hero image for a draft and
// returns its CMS asset reference.
type ImageGenerator interface {
	GenerateHero(ctx context.Context, prompt string) (string, error)
}

// BlogDraftGenerator 定义博客草稿生成能力，便于在业务层注入不同实现。
type BlogDraftGenerator interface {
	GenerateDraft(ctx context.Context, topic string) (*db.PendingPost, error)
}

// AIBlogService generates a complete blog draft for a topic and queues
// it in the moderation store.
type AIBlogService struct {
	client   *aiChatClient
	pending  *PendingPostService
	images   ImageGenerator
	authorID string
}

// NewAIBlogService 构造默认的 AIBlogService。images 可以为 nil。
func NewAIBlogService(apiKey, baseURL, model string, pending *PendingPostService, images ImageGenerator, authorID string) *AIBlogService {
	if strings.TrimSpace(model) == "" {
		model = defaultBlogModel
	}
	return &AIBlogService{
		client:   newAIChatClient(apiKey, baseURL, model),
		pending:  pending,
		images:   images,
		authorID: strings.TrimSpace(authorID),
	}
}

// SetHTTPClient 覆盖默认 HTTP 客户端，主要用于测试。
func (s *AIBlogService) SetHTTPClient(client httpDoer) {
	s.client.SetHTTPClient(client)
}

// SetBaseURL 覆盖默认的模型接口地址。
func (s *AIBlogService) SetBaseURL(base string) {
	s.client.SetBaseURL(base)
}

type blogDraftPayload struct {
	Title    string   `json:"title"`
	Category string   `json:"category"`
	Excerpt  string   `json:"excerpt"`
	Tags     []string `json:"tags"`
	Body     string   `json:"body"`
}

// GenerateDraft asks the model for a full draft on the topic, attaches
// an optional hero image and stores the result as a pending post. An
// image-generation failure never fails the draft.
func (s *AIBlogService) GenerateDraft(ctx context.Context, topic string) (*db.PendingPost, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return nil, errors.New("topic is required")
	}

	userPrompt := fmt.Sprintf("Write a blog post about: %s", topic)
	logAIExchange("blog", "request", userPrompt)

	resp, err := s.client.call(ctx, aiChatRequest{
		SystemPrompt: blogSystemPrompt,
		UserPrompt:   userPrompt,
		MaxTokens:    defaultBlogMaxTokens,
		Temperature:  defaultBlogTemperature,
	})
	if err != nil {
		return nil, fmt.Errorf("generate blog draft: %w", err)
	}
	logAIExchange("blog", "response", resp.Content)

	var draft blogDraftPayload
	if err := json.Unmarshal([]byte(stripCodeFence(resp.Content)), &draft); err != nil {
		return nil, fmt.Errorf("decode generated draft: %w", err)
	}
	if strings.TrimSpace(draft.Title) == "" || strings.TrimSpace(draft.Body) == "" {
		return nil, ErrDraftIncomplete
	}

	category := strings.ToLower(strings.TrimSpace(draft.Category))
	if !blogCategories[category] {
		category = defaultBlogCategory
	}

	var imageRef string
	if s.images != nil {
		ref, imgErr := s.images.GenerateHero(ctx, draft.Title)
		if imgErr != nil {
			log.Printf("hero image generation failed, continuing without image: %v", imgErr)
		} else {
			imageRef = ref
		}
	}

	return s.pending.Add(PendingPostInput{
		Title:        draft.Title,
		Category:     category,
		Excerpt:      draft.Excerpt,
		BodyMarkdown: draft.Body,
		Tags:         draft.Tags,
		ReadTime:     EstimateReadTime(draft.Body),
		AuthorID:     s.authorID,
		ImageRef:     imageRef,
	})
}

// stripCodeFence removes a wrapping markdown code fence, which models
// add around JSON output despite instructions not to.
func stripCodeFence(content string) string {
	trimmed := strings.TrimSpace(content)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}
