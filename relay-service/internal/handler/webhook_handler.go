package handler

import (
	"errors"
	"net/http"
	"sync"

	"linebot-studio/relay-service/internal/config"
	"linebot-studio/relay-service/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/line/line-bot-sdk-go/v8/linebot/webhook"
	"go.uber.org/zap"
)

// WebhookHandler обрабатывает HTTP-запросы релея.
type WebhookHandler struct {
	cfg    *config.Config
	relay  *service.RelayService
	logger *zap.Logger
}

// NewWebhookHandler создает новый обработчик вебхука.
func NewWebhookHandler(cfg *config.Config, relay *service.RelayService, logger *zap.Logger) *WebhookHandler {
	return &WebhookHandler{
		cfg:    cfg,
		relay:  relay,
		logger: logger.Named("WebhookHandler"),
	}
}

// RegisterRoutes настраивает маршруты релея.
func (h *WebhookHandler) RegisterRoutes(router *gin.Engine) {
	router.GET("/", h.handleStatusPage)
	router.POST("/webhook", h.handleWebhook)
}

// handleWebhook принимает пачку событий от платформы. Подпись проверяется
// SDK до какой-либо логики обработчика. События обрабатываются независимо
// и параллельно; ответ ждет всех и возвращает массив результатов в порядке
// доставки (null для пропущенных/неудавшихся).
func (h *WebhookHandler) handleWebhook(c *gin.Context) {
	cb, err := webhook.ParseRequest(h.cfg.LineChannelSecret, c.Request)
	if err != nil {
		if errors.Is(err, webhook.ErrInvalidSignature) {
			h.logger.Warn("Вебхук отклонен: неверная подпись", zap.String("ip", c.ClientIP()))
			c.Status(http.StatusBadRequest)
			return
		}
		h.logger.Error("Не удалось разобрать тело вебхука", zap.Error(err))
		c.Status(http.StatusInternalServerError)
		return
	}

	results := make([]*service.EventResult, len(cb.Events))
	var wg sync.WaitGroup
	for i, event := range cb.Events {
		wg.Add(1)
		go func(i int, event webhook.EventInterface) {
			defer wg.Done()
			results[i] = h.relay.HandleEvent(c.Request.Context(), event)
		}(i, event)
	}
	wg.Wait()

	c.JSON(http.StatusOK, results)
}

// handleStatusPage отдает страницу состояния: какие секреты заданы и какая
// конфигурация бота загружена. Значения секретов не показываются никогда.
func (h *WebhookHandler) handleStatusPage(c *gin.Context) {
	botConfig := h.relay.BotConfig()
	c.HTML(http.StatusOK, "status.html", gin.H{
		"BotName":          botConfig.BotName,
		"KeyPointCount":    len(botConfig.KeyPoints),
		"ActiveKeyPoints":  len(botConfig.ActiveKeyPoints()),
		"HasChannelToken":  h.cfg.LineChannelAccessToken != "",
		"HasChannelSecret": h.cfg.LineChannelSecret != "",
		"HasAIKey":         h.cfg.AIAPIKey != "",
		"Model":            h.cfg.AIModel,
	})
}
