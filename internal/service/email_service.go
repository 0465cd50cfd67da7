package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ErrEmailNotConfigured 表示未配置邮件服务密钥。
var ErrEmailNotConfigured = errors.New("email api key is not configured")

// EmailSender 定义邮件发送能力，便于在业务层注入不同实现。
type EmailSender interface {
	Send(ctx context.Context, to, subject, htmlBody string) (string, error)
}

// EmailService delivers transactional mail through a Resend-style
// HTTP API.
type EmailService struct {
	http    httpDoer
	apiKey  string
	baseURL string
	from    string
}

// NewEmailService 构造默认的 EmailService。
func NewEmailService(apiKey, from string) *EmailService {
	return &EmailService{
		http:    &http.Client{Timeout: 30 * time.Second},
		apiKey:  strings.TrimSpace(apiKey),
		baseURL: "https://api.resend.com",
		from:    strings.TrimSpace(from),
	}
}

// SetHTTPClient 覆盖默认 HTTP 客户端，主要用于测试。
func (s *EmailService) SetHTTPClient(client httpDoer) {
	if client == nil {
		s.http = &http.Client{Timeout: 30 * time.Second}
		return
	}
	s.http = client
}

// SetBaseURL 覆盖默认的邮件接口地址。
func (s *EmailService) SetBaseURL(base string) {
	s.baseURL = strings.TrimRight(strings.TrimSpace(base), "/")
}

type emailSendResponse struct {
	ID      string `json:"id"`
	Message string `json:"message"`
}

// Send delivers one HTML email and returns the provider message id.
func (s *EmailService) Send(ctx context.Context, to, subject, htmlBody string) (string, error) {
	if s.apiKey == "" {
		return "", ErrEmailNotConfigured
	}
	if strings.TrimSpace(to) == "" {
		return "", errors.New("recipient is required")
	}

	payload, err := json.Marshal(map[string]any{
		"from":    s.from,
		"to":      []string{to},
		"subject": subject,
		"html":    htmlBody,
	})
	if err != nil {
		return "", fmt.Errorf("encode email request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/emails", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build email request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	client := s.http
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("send email: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read email response: %w", err)
	}

	var sent emailSendResponse
	if err := json.Unmarshal(respBody, &sent); err != nil {
		return "", fmt.Errorf("decode email response: %w", err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		detail := strings.TrimSpace(sent.Message)
		if detail == "" {
			detail = resp.Status
		}
		return "", fmt.Errorf("email provider returned %d: %s", resp.StatusCode, detail)
	}
	if strings.TrimSpace(sent.ID) == "" {
		return "", errors.New("email provider returned no message id")
	}
	return sent.ID, nil
}
