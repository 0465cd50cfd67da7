package service

import (
	"context"
	"errors"
	"strings"
)

const (
	defaultChatModel       = "gpt-4o-mini"
	defaultChatMaxTokens   = 600
	defaultChatTemperature = 0.6
	maxChatHistoryTurns    = 12
	maxChatMessageRunes    = 4000
)

const chatSystemPrompt = `You are the website assistant for CivicSite, a consultancy that builds digital services for government agencies and regulated enterprises. Answer visitor questions briefly and factually. When a visitor asks about pricing, timelines or a specific project, direct them to the contact form instead of guessing.`

// ChatReplier 定义聊天回复能力，便于在业务层注入不同实现。
type ChatReplier interface {
	Reply(ctx context.Context, message string, history []ChatTurn) (string, error)
}

// AIChatService answers website chat-widget messages with the model.
type AIChatService struct {
	client *aiChatClient
}

// NewAIChatService 构造默认的 AIChatService。
func NewAIChatService(apiKey, baseURL, model string) *AIChatService {
	if strings.TrimSpace(model) == "" {
		model = defaultChatModel
	}
	return &AIChatService{client: newAIChatClient(apiKey, baseURL, model)}
}

// SetHTTPClient 覆盖默认 HTTP 客户端，主要用于测试。
func (s *AIChatService) SetHTTPClient(client httpDoer) {
	s.client.SetHTTPClient(client)
}

// SetBaseURL 覆盖默认的模型接口地址。
func (s *AIChatService) SetBaseURL(base string) {
	s.client.SetBaseURL(base)
}

// Reply generates one assistant reply for the given message, carrying
// over at most the last few turns of history.
func (s *AIChatService) Reply(ctx context.Context, message string, history []ChatTurn) (string, error) {
	trimmed := strings.TrimSpace(message)
	if trimmed == "" {
		return "", errors.New("message is required")
	}

	if len(history) > maxChatHistoryTurns {
		history = history[len(history)-maxChatHistoryTurns:]
	}

	logAIExchange("chat", "request", trimmed)
	resp, err := s.client.call(ctx, aiChatRequest{
		SystemPrompt: chatSystemPrompt,
		History:      history,
		UserPrompt:   truncateRunes(trimmed, maxChatMessageRunes),
		MaxTokens:    defaultChatMaxTokens,
		Temperature:  defaultChatTemperature,
	})
	if err != nil {
		return "", err
	}
	logAIExchange("chat", "response", resp.Content)

	if resp.Content == "" {
		return "", errors.New("chat model returned empty content")
	}
	return resp.Content, nil
}
