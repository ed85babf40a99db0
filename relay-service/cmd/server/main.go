package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"linebot-studio/relay-service/internal/client"
	"linebot-studio/relay-service/internal/config"
	"linebot-studio/relay-service/internal/handler"
	"linebot-studio/relay-service/internal/service"
	"linebot-studio/shared/ai"
	"linebot-studio/shared/configfile"
	sharedLogger "linebot-studio/shared/logger"
	sharedMiddleware "linebot-studio/shared/middleware"

	"github.com/gin-gonic/gin"
	ginprometheus "github.com/zsais/go-gin-prometheus"
	"go.uber.org/zap"
)

func main() {
	// Используем стандартный log для самых ранних ошибок, до инициализации zap
	log.Println("Запуск Webhook Relay...")

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Ошибка загрузки конфигурации: %v", err)
	}

	logger, err := sharedLogger.New(sharedLogger.Config{
		Level:    cfg.LogLevel,
		Encoding: "json",
	})
	if err != nil {
		log.Fatalf("Не удалось инициализировать логгер: %v", err)
	}
	defer logger.Sync()
	sugar := logger.Sugar()
	sugar.Info("Логгер инициализирован", zap.String("logLevel", cfg.LogLevel))

	// Конфигурация бота читается ровно один раз; при любой проблеме релей
	// продолжает работу со встроенными настройками (fail-open)
	botConfig := configfile.Load(cfg.BotConfigPath, logger)

	aiClient := ai.NewClient(ai.Config{
		APIKey:    cfg.AIAPIKey,
		BaseURL:   cfg.AIBaseURL,
		Model:     cfg.AIModel,
		Timeout:   cfg.AITimeout,
		MaxTokens: cfg.AIMaxTokens,
	}, logger.Named("AIClient"))

	lineClient, err := client.NewLineReplyClient(cfg.LineChannelAccessToken, logger)
	if err != nil {
		sugar.Fatalf("Не удалось создать LINE клиент: %v", err)
	}

	dedup := service.NewDedupCache(cfg.WebhookDedupTTL)
	if dedup != nil {
		sugar.Infof("Дедупликация вебхука включена, TTL %v", cfg.WebhookDedupTTL)
	}

	relay := service.NewRelayService(botConfig, aiClient, lineClient, dedup, logger)
	h := handler.NewWebhookHandler(cfg, relay, logger)

	gin.SetMode(gin.ReleaseMode)
	if cfg.Env == "development" {
		gin.SetMode(gin.DebugMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(sharedMiddleware.GinZapLogger(logger))

	// Шаблон статусной страницы
	router.LoadHTMLGlob("./relay-service/web/templates/*.html")

	healthHandler := func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
	router.GET("/health", healthHandler)
	router.HEAD("/health", healthHandler)

	h.RegisterRoutes(router)

	// Prometheus middleware применяем после регистрации роутов
	p := ginprometheus.NewPrometheus("gin")
	p.Use(router)

	srv := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second, // ответ вебхука ждет все completion-запросы пачки
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		sugar.Infof("Relay сервер запускается на порту %s", cfg.ServerPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			sugar.Fatalf("Ошибка запуска HTTP сервера: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	sugar.Info("Получен сигнал завершения, начинаем остановку сервера...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		sugar.Fatalf("Ошибка при остановке сервера: %v", err)
	}

	sugar.Info("Сервер успешно остановлен")
}
