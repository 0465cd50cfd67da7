package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/civicsite/internal/document"
)

// ErrCMSNotConfigured 表示 CMS 地址或令牌缺失。
var ErrCMSNotConfigured = errors.New("cms base url or token is not configured")

// CMSDocument is the payload handed to the CMS when a pending post is
// approved.
type CMSDocument struct {
	Title       string
	Slug        string
	AuthorID    string
	Category    string
	Excerpt     string
	ReadTime    string
	Body        []document.Node
	Tags        []string
	PublishedAt *time.Time
	ImageRef    string
}

// CMSPost is a published post read back from the CMS. External JSON is
// validated and converted into this type at the boundary; malformed
// payloads are rejected instead of propagated.
type CMSPost struct {
	ID          string
	Title       string
	Slug        string
	Category    string
	Excerpt     string
	ReadTime    string
	Tags        []string
	PublishedAt *time.Time
	ImageURL    string
}

// CMSPublisher is the write half of the CMS contract. Writes are not
// idempotent: the caller must not retry a create it knows succeeded.
type CMSPublisher interface {
	CreateDocument(ctx context.Context, doc CMSDocument) (string, error)
}

// CMSReader is the read half of the CMS contract.
type CMSReader interface {
	QueryBySlug(ctx context.Context, slug string) (*CMSPost, error)
	QueryAll(ctx context.Context) ([]CMSPost, error)
}

// AssetUploader stores binary assets (hero images) in the CMS.
type AssetUploader interface {
	UploadAsset(ctx context.Context, data []byte, filename, mimeType string) (assetID, assetURL string, err error)
}

// CMSClient implements the headless-CMS contract against a Sanity-style
// HTTP API: document mutations, GROQ-ish queries and image asset
// uploads.
type CMSClient struct {
	http    httpDoer
	baseURL string
	dataset string
	token   string
}

// NewCMSClient constructs a client for the given project API base URL
// and dataset.
func NewCMSClient(baseURL, dataset, token string) *CMSClient {
	return &CMSClient{
		http:    &http.Client{Timeout: 30 * time.Second},
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		dataset: strings.TrimSpace(dataset),
		token:   strings.TrimSpace(token),
	}
}

// SetHTTPClient 覆盖默认 HTTP 客户端，主要用于测试。
func (c *CMSClient) SetHTTPClient(client httpDoer) {
	if client == nil {
		c.http = &http.Client{Timeout: 30 * time.Second}
		return
	}
	c.http = client
}

type cmsSlug struct {
	Type    string `json:"_type"`
	Current string `json:"current"`
}

type cmsReference struct {
	Type string `json:"_type"`
	Ref  string `json:"_ref"`
}

type cmsCreatePayload struct {
	Type        string          `json:"_type"`
	Title       string          `json:"title"`
	Slug        cmsSlug         `json:"slug"`
	Author      *cmsReference   `json:"author,omitempty"`
	Category    string          `json:"category,omitempty"`
	Excerpt     string          `json:"excerpt,omitempty"`
	ReadTime    string          `json:"readTime,omitempty"`
	Body        []document.Node `json:"body"`
	Tags        []string        `json:"tags,omitempty"`
	PublishedAt string          `json:"publishedAt,omitempty"`
	MainImage   *cmsReference   `json:"mainImage,omitempty"`
}

type cmsMutateResponse struct {
	Results []struct {
		ID string `json:"id"`
	} `json:"results"`
	Error struct {
		Description string `json:"description"`
	} `json:"error"`
}

// CreateDocument writes a post document and returns its permanent id.
func (c *CMSClient) CreateDocument(ctx context.Context, doc CMSDocument) (string, error) {
	if c.baseURL == "" || c.token == "" {
		return "", ErrCMSNotConfigured
	}
	if strings.TrimSpace(doc.Title) == "" {
		return "", errors.New("cms document requires a title")
	}
	if strings.TrimSpace(doc.Slug) == "" {
		return "", errors.New("cms document requires a slug")
	}

	create := cmsCreatePayload{
		Type:     "post",
		Title:    doc.Title,
		Slug:     cmsSlug{Type: "slug", Current: doc.Slug},
		Category: doc.Category,
		Excerpt:  doc.Excerpt,
		ReadTime: doc.ReadTime,
		Body:     doc.Body,
		Tags:     doc.Tags,
	}
	if doc.AuthorID != "" {
		create.Author = &cmsReference{Type: "reference", Ref: doc.AuthorID}
	}
	if doc.PublishedAt != nil {
		create.PublishedAt = doc.PublishedAt.UTC().Format(time.RFC3339)
	}
	if doc.ImageRef != "" {
		create.MainImage = &cmsReference{Type: "reference", Ref: doc.ImageRef}
	}

	body, err := json.Marshal(map[string]any{
		"mutations": []map[string]any{{"create": create}},
	})
	if err != nil {
		return "", fmt.Errorf("encode cms mutation: %w", err)
	}

	endpoint := fmt.Sprintf("%s/data/mutate/%s?returnIds=true", c.baseURL, url.PathEscape(c.dataset))
	respBody, err := c.do(ctx, http.MethodPost, endpoint, body, "application/json")
	if err != nil {
		return "", err
	}

	var mutate cmsMutateResponse
	if err := json.Unmarshal(respBody, &mutate); err != nil {
		return "", fmt.Errorf("decode cms mutation response: %w", err)
	}
	if len(mutate.Results) == 0 || strings.TrimSpace(mutate.Results[0].ID) == "" {
		return "", errors.New("cms mutation returned no document id")
	}
	return mutate.Results[0].ID, nil
}

type cmsPostPayload struct {
	ID       string   `json:"_id"`
	Title    string   `json:"title"`
	Slug     cmsSlug  `json:"slug"`
	Category string   `json:"category"`
	Excerpt  string   `json:"excerpt"`
	ReadTime string   `json:"readTime"`
	Tags     []string `json:"tags"`
	// publishedAt arrives as an RFC3339 string or is absent for drafts
	PublishedAt string `json:"publishedAt"`
	ImageURL    string `json:"imageUrl"`
}

const cmsPostProjection = `{_id,title,slug,category,excerpt,readTime,tags,publishedAt,"imageUrl":mainImage.asset->url}`

// QueryBySlug returns the published post with the given slug, or nil
// when no such post exists.
func (c *CMSClient) QueryBySlug(ctx context.Context, slug string) (*CMSPost, error) {
	if c.baseURL == "" {
		return nil, ErrCMSNotConfigured
	}
	query := `*[_type=="post" && slug.current==$slug][0]` + cmsPostProjection

	endpoint := fmt.Sprintf("%s/data/query/%s?query=%s&$slug=%s",
		c.baseURL, url.PathEscape(c.dataset),
		url.QueryEscape(query), url.QueryEscape(fmt.Sprintf("%q", slug)))
	respBody, err := c.do(ctx, http.MethodGet, endpoint, nil, "")
	if err != nil {
		return nil, err
	}

	var payload struct {
		Result *cmsPostPayload `json:"result"`
	}
	if err := json.Unmarshal(respBody, &payload); err != nil {
		return nil, fmt.Errorf("decode cms query response: %w", err)
	}
	if payload.Result == nil {
		return nil, nil
	}
	post, err := convertCMSPost(*payload.Result)
	if err != nil {
		return nil, err
	}
	return &post, nil
}

// QueryAll returns every published post, newest first.
func (c *CMSClient) QueryAll(ctx context.Context) ([]CMSPost, error) {
	if c.baseURL == "" {
		return nil, ErrCMSNotConfigured
	}
	query := `*[_type=="post"]|order(publishedAt desc)` + cmsPostProjection

	endpoint := fmt.Sprintf("%s/data/query/%s?query=%s",
		c.baseURL, url.PathEscape(c.dataset), url.QueryEscape(query))
	respBody, err := c.do(ctx, http.MethodGet, endpoint, nil, "")
	if err != nil {
		return nil, err
	}

	var payload struct {
		Result []cmsPostPayload `json:"result"`
	}
	if err := json.Unmarshal(respBody, &payload); err != nil {
		return nil, fmt.Errorf("decode cms query response: %w", err)
	}

	posts := make([]CMSPost, 0, len(payload.Result))
	for _, raw := range payload.Result {
		post, err := convertCMSPost(raw)
		if err != nil {
			return nil, err
		}
		posts = append(posts, post)
	}
	return posts, nil
}

type cmsAssetResponse struct {
	Document struct {
		ID  string `json:"_id"`
		URL string `json:"url"`
	} `json:"document"`
}

// UploadAsset stores image bytes as a CMS asset and returns its
// reference id and public URL.
func (c *CMSClient) UploadAsset(ctx context.Context, data []byte, filename, mimeType string) (string, string, error) {
	if c.baseURL == "" || c.token == "" {
		return "", "", ErrCMSNotConfigured
	}
	if len(data) == 0 {
		return "", "", errors.New("asset data is empty")
	}

	endpoint := fmt.Sprintf("%s/assets/images/%s?filename=%s",
		c.baseURL, url.PathEscape(c.dataset), url.QueryEscape(filename))
	respBody, err := c.do(ctx, http.MethodPost, endpoint, data, mimeType)
	if err != nil {
		return "", "", err
	}

	var asset cmsAssetResponse
	if err := json.Unmarshal(respBody, &asset); err != nil {
		return "", "", fmt.Errorf("decode cms asset response: %w", err)
	}
	if strings.TrimSpace(asset.Document.ID) == "" {
		return "", "", errors.New("cms asset upload returned no id")
	}
	return asset.Document.ID, asset.Document.URL, nil
}

func (c *CMSClient) do(ctx context.Context, method, endpoint string, body []byte, contentType string) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, fmt.Errorf("build cms request: %w", err)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")

	client := c.http
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call cms: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("read cms response: %w", err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		detail := strings.TrimSpace(string(respBody))
		if detail == "" {
			detail = resp.Status
		}
		return nil, fmt.Errorf("cms returned %d: %s", resp.StatusCode, detail)
	}
	return respBody, nil
}

func convertCMSPost(raw cmsPostPayload) (CMSPost, error) {
	if strings.TrimSpace(raw.ID) == "" || strings.TrimSpace(raw.Title) == "" {
		return CMSPost{}, errors.New("cms returned a malformed post document")
	}

	post := CMSPost{
		ID:       raw.ID,
		Title:    raw.Title,
		Slug:     raw.Slug.Current,
		Category: raw.Category,
		Excerpt:  raw.Excerpt,
		ReadTime: raw.ReadTime,
		Tags:     raw.Tags,
		ImageURL: raw.ImageURL,
	}
	if trimmed := strings.TrimSpace(raw.PublishedAt); trimmed != "" {
		ts, err := time.Parse(time.RFC3339, trimmed)
		if err != nil {
			return CMSPost{}, fmt.Errorf("cms returned an invalid publishedAt: %w", err)
		}
		post.PublishedAt = &ts
	}
	return post, nil
}
