// Package ai содержит клиент для completion-запросов к LLM через
// OpenAI-совместимый API (по умолчанию OpenRouter).
package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"linebot-studio/shared/models"
	"linebot-studio/shared/prompt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// ErrEmptyCompletion — API ответил успешно, но сгенерированный текст пуст.
// Вызывающий код решает сам, чем заменить пустой ответ.
var ErrEmptyCompletion = errors.New("пустой ответ от AI: нет сгенерированного текста")

var (
	aiRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "linebot_ai_requests_total",
			Help: "Total number of requests to the AI completion API.",
		},
		[]string{"model", "status"},
	)
	aiRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "linebot_ai_request_duration_seconds",
			Help:    "Histogram of AI completion request durations.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"model"},
	)
)

// Generator — интерфейс completion-компонента. Оба сервиса зависят от него,
// а не от конкретного клиента, чтобы в тестах подставлять заглушки.
type Generator interface {
	GenerateReply(ctx context.Context, systemInstruction, userMessage string, history []models.Message) (string, error)
}

// Config содержит настройки клиента.
type Config struct {
	APIKey    string
	BaseURL   string
	Model     string
	Timeout   time.Duration
	MaxTokens int
}

// Client — клиент completion API на базе go-openai.
type Client struct {
	client    *openai.Client
	model     string
	timeout   time.Duration
	maxTokens int
	logger    *zap.Logger
}

// NewClient создает клиент. Пустой API ключ не является ошибкой: сервис
// должен стартовать и без него (секреты проверяются только на присутствие),
// просто каждый запрос будет завершаться ошибкой авторизации.
func NewClient(cfg Config, logger *zap.Logger) *Client {
	if cfg.APIKey == "" {
		logger.Warn("API ключ AI не задан: completion-запросы будут завершаться ошибкой")
	}
	if cfg.Model == "" {
		cfg.Model = "google/gemini-2.0-flash-001"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = prompt.DefaultMaxTokens
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	return &Client{
		client:    openai.NewClientWithConfig(clientCfg),
		model:     cfg.Model,
		timeout:   cfg.Timeout,
		maxTokens: cfg.MaxTokens,
		logger:    logger,
	}
}

// GenerateReply выполняет ровно один completion-запрос: системная инструкция
// как system-сообщение, сырой текст пользователя как user-сообщение.
// История принимается, но в запрос не включается: и симулятор, и релей
// работают в одноходовом режиме, как и исходная версия системы.
func (c *Client) GenerateReply(ctx context.Context, systemInstruction, userMessage string, history []models.Message) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	c.logger.Debug("Отправка completion-запроса",
		zap.String("model", c.model),
		zap.Int("instructionLen", len(systemInstruction)),
		zap.Int("userMessageLen", len(userMessage)),
		zap.Int("historyLen", len(history)))

	req := openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemInstruction},
			{Role: openai.ChatMessageRoleUser, Content: userMessage},
		},
		Temperature: prompt.Temperature,
		MaxTokens:   c.maxTokens,
	}

	start := time.Now()
	resp, err := c.client.CreateChatCompletion(ctx, req)
	aiRequestDuration.WithLabelValues(c.model).Observe(time.Since(start).Seconds())

	if err != nil {
		aiRequestsTotal.WithLabelValues(c.model, "error").Inc()
		return "", fmt.Errorf("ошибка completion-запроса: %w", err)
	}

	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		aiRequestsTotal.WithLabelValues(c.model, "empty").Inc()
		return "", ErrEmptyCompletion
	}

	aiRequestsTotal.WithLabelValues(c.model, "success").Inc()
	c.logger.Debug("Completion-запрос выполнен",
		zap.Int("promptTokens", resp.Usage.PromptTokens),
		zap.Int("completionTokens", resp.Usage.CompletionTokens))
	return resp.Choices[0].Message.Content, nil
}
