package config

import (
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config содержит конфигурацию сервиса редактора.
type Config struct {
	Env        string `envconfig:"APP_ENV" default:"development"`
	ServerPort string `envconfig:"EDITOR_SERVER_PORT" default:"8090"`
	LogLevel   string `envconfig:"LOG_LEVEL" default:"info"`

	CORSAllowedOrigins []string `envconfig:"CORS_ALLOWED_ORIGINS"`

	// Настройки AI (OpenRouter или любой OpenAI-совместимый эндпоинт)
	AIBaseURL   string        `envconfig:"AI_BASE_URL" default:"https://openrouter.ai/api/v1"`
	AIModel     string        `envconfig:"AI_MODEL" default:"google/gemini-2.0-flash-001"`
	AITimeout   time.Duration `envconfig:"AI_TIMEOUT" default:"60s"`
	AIMaxTokens int           `envconfig:"AI_MAX_TOKENS" default:"1024"`
	AIAPIKey    string        `envconfig:"AI_API_KEY"`

	// Доступ оператора: bcrypt-хеш пароля и секрет для JWT-сессии.
	// Если хеш не задан, API открыт (локальная разработка).
	AdminPasswordHash string        `envconfig:"EDITOR_ADMIN_PASSWORD_HASH"`
	JWTSecret         string        `envconfig:"EDITOR_JWT_SECRET"`
	SessionTTL        time.Duration `envconfig:"EDITOR_SESSION_TTL" default:"12h"`
}

// LoadConfig загружает конфигурацию из переменных окружения.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("ошибка загрузки конфигурации: %w", err)
	}

	if cfg.AdminPasswordHash != "" && cfg.JWTSecret == "" {
		return nil, fmt.Errorf("задан EDITOR_ADMIN_PASSWORD_HASH, но не задан EDITOR_JWT_SECRET")
	}

	// Логируем загруженную конфигурацию (кроме секретов)
	log.Printf("Конфигурация редактора загружена:")
	log.Printf("  Port: %s", cfg.ServerPort)
	log.Printf("  AI Base URL: %s", cfg.AIBaseURL)
	log.Printf("  AI Model: %s", cfg.AIModel)
	log.Printf("  AI Timeout: %v", cfg.AITimeout)
	log.Printf("  Auth enabled: %t", cfg.AdminPasswordHash != "")

	return &cfg, nil
}
