package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/civicsite/internal/db"
)

const (
	defaultSocialModel       = "gpt-4o-mini"
	defaultSocialMaxTokens   = 2048
	defaultSocialTemperature = 0.8
	defaultSocialPostCount   = 5
	defaultFetchTimeout      = 15 * time.Second
	maxProductPageRunes      = 6000
)

// ErrNoPostsGenerated 表示模型没有返回任何可用的帖子。
var ErrNoPostsGenerated = errors.New("model returned no usable posts")

const socialSystemPrompt = `You write LinkedIn posts for CivicSite, a consultancy that builds digital services for government agencies and regulated enterprises. Given a product and an extract of its landing page, respond with a JSON array and nothing else. Each element must have exactly two keys: "hook" (a one-line attention opener) and "content" (the full post, 3-6 short paragraphs, no hashtags spam, at most three hashtags at the end). Vary the angle between posts: customer outcome, behind the scenes, industry trend, practical tip, announcement.`

var htmlTagPattern = regexp.MustCompile(`(?s)<script.*?</script>|<style.*?</style>|<[^>]*>`)

// SocialBatchGenerator 定义社交帖子批次生成能力。
type SocialBatchGenerator interface {
	GenerateBatch(ctx context.Context, productName, productURL string) (*db.PostBatch, error)
}

// AISocialService generates a batch of LinkedIn posts for a product
// page and stores it for the team to claim from.
type AISocialService struct {
	client       *aiChatClient
	batches      *PostBatchService
	http         httpDoer
	fetchTimeout time.Duration
}

// NewAISocialService 构造默认的 AISocialService。
func NewAISocialService(apiKey, baseURL, model string, batches *PostBatchService) *AISocialService {
	if strings.TrimSpace(model) == "" {
		model = defaultSocialModel
	}
	return &AISocialService{
		client:       newAIChatClient(apiKey, baseURL, model),
		batches:      batches,
		http:         &http.Client{Timeout: defaultFetchTimeout},
		fetchTimeout: defaultFetchTimeout,
	}
}

// SetHTTPClient 覆盖默认 HTTP 客户端（含页面抓取），主要用于测试。
func (s *AISocialService) SetHTTPClient(client httpDoer) {
	s.client.SetHTTPClient(client)
	if client == nil {
		s.http = &http.Client{Timeout: defaultFetchTimeout}
		return
	}
	s.http = client
}

// SetBaseURL 覆盖默认的模型接口地址。
func (s *AISocialService) SetBaseURL(base string) {
	s.client.SetBaseURL(base)
}

type socialPostPayload struct {
	Hook    string `json:"hook"`
	Content string `json:"content"`
}

// GenerateBatch fetches the product page to ground the prompt, asks the
// model for a set of posts and saves them as one unclaimed batch. A
// page-fetch failure aborts cleanly before anything is persisted.
func (s *AISocialService) GenerateBatch(ctx context.Context, productName, productURL string) (*db.PostBatch, error) {
	name := strings.TrimSpace(productName)
	if name == "" {
		return nil, errors.New("product name is required")
	}

	var pageText string
	if strings.TrimSpace(productURL) != "" {
		text, err := s.fetchPageText(ctx, productURL)
		if err != nil {
			return nil, fmt.Errorf("fetch product page: %w", err)
		}
		pageText = text
	}

	userPrompt := fmt.Sprintf("Product: %s\nWrite %d LinkedIn posts.", name, defaultSocialPostCount)
	if pageText != "" {
		userPrompt += "\n\nLanding page extract:\n" + pageText
	}
	logAIExchange("social", "request", userPrompt)

	resp, err := s.client.call(ctx, aiChatRequest{
		SystemPrompt: socialSystemPrompt,
		UserPrompt:   userPrompt,
		MaxTokens:    defaultSocialMaxTokens,
		Temperature:  defaultSocialTemperature,
	})
	if err != nil {
		return nil, fmt.Errorf("generate social posts: %w", err)
	}
	logAIExchange("social", "response", resp.Content)

	var payload []socialPostPayload
	if err := json.Unmarshal([]byte(stripCodeFence(resp.Content)), &payload); err != nil {
		return nil, fmt.Errorf("decode generated posts: %w", err)
	}

	posts := make([]BatchPostInput, 0, len(payload))
	for _, p := range payload {
		if strings.TrimSpace(p.Content) == "" {
			continue
		}
		posts = append(posts, BatchPostInput{Content: p.Content, Hook: p.Hook})
	}
	if len(posts) == 0 {
		return nil, ErrNoPostsGenerated
	}

	return s.batches.Save(name, productURL, posts)
}

// fetchPageText downloads the product page within the fetch timeout and
// strips markup down to prompt-sized plain text.
func (s *AISocialService) fetchPageText(ctx context.Context, pageURL string) (string, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, s.fetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(fetchCtx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", "civicsite-content/1.0")

	client := s.http
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return "", fmt.Errorf("page returned %s", resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 512<<10))
	if err != nil {
		return "", err
	}

	text := htmlTagPattern.ReplaceAllString(string(body), " ")
	text = strings.Join(strings.Fields(text), " ")
	return truncateRunes(text, maxProductPageRunes), nil
}
