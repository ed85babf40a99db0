package config

import (
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config содержит конфигурацию вебхук-релея.
type Config struct {
	Env        string `envconfig:"APP_ENV" default:"development"`
	ServerPort string `envconfig:"PORT" default:"3000"`
	LogLevel   string `envconfig:"LOG_LEVEL" default:"info"`

	// Путь к файлу, который оператор экспортировал из редактора.
	// Читается ровно один раз на старте процесса.
	BotConfigPath string `envconfig:"BOT_CONFIG_PATH" default:"bot_config.json"`

	// Секреты LINE. Проверяются только на присутствие (статусная страница);
	// при пустых значениях запросы к платформе будут завершаться ошибкой.
	LineChannelAccessToken string `envconfig:"LINE_CHANNEL_ACCESS_TOKEN"`
	LineChannelSecret      string `envconfig:"LINE_CHANNEL_SECRET"`

	// Настройки AI (OpenRouter или любой OpenAI-совместимый эндпоинт)
	AIBaseURL   string        `envconfig:"AI_BASE_URL" default:"https://openrouter.ai/api/v1"`
	AIModel     string        `envconfig:"AI_MODEL" default:"google/gemini-2.0-flash-001"`
	AITimeout   time.Duration `envconfig:"AI_TIMEOUT" default:"60s"`
	AIMaxTokens int           `envconfig:"AI_MAX_TOKENS" default:"1024"`
	AIAPIKey    string        `envconfig:"AI_API_KEY"`

	// Дедупликация повторных доставок вебхука по webhookEventId.
	// 0 (по умолчанию) — выключена: платформа может доставить событие
	// повторно, и бот ответит еще раз, как и исходная версия системы.
	WebhookDedupTTL time.Duration `envconfig:"WEBHOOK_DEDUP_TTL" default:"0"`
}

// LoadConfig загружает конфигурацию из переменных окружения.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("ошибка загрузки конфигурации: %w", err)
	}

	// Логируем загруженную конфигурацию (кроме секретов)
	log.Printf("Конфигурация релея загружена:")
	log.Printf("  Port: %s", cfg.ServerPort)
	log.Printf("  Bot Config Path: %s", cfg.BotConfigPath)
	log.Printf("  AI Base URL: %s", cfg.AIBaseURL)
	log.Printf("  AI Model: %s", cfg.AIModel)
	log.Printf("  Webhook Dedup TTL: %v", cfg.WebhookDedupTTL)
	log.Printf("  LINE Token: [%s]", presence(cfg.LineChannelAccessToken))
	log.Printf("  LINE Secret: [%s]", presence(cfg.LineChannelSecret))
	log.Printf("  AI API Key: [%s]", presence(cfg.AIAPIKey))

	return &cfg, nil
}

func presence(secret string) string {
	if secret == "" {
		return "НЕ ЗАДАН"
	}
	return "ЗАГРУЖЕН"
}
