package handler

import (
	"net/http"

	"linebot-studio/editor-service/internal/config"
	"linebot-studio/editor-service/internal/service"
	"linebot-studio/shared/authutils"
	"linebot-studio/shared/configfile"
	"linebot-studio/shared/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// EditorHandler обрабатывает HTTP-запросы консоли оператора.
type EditorHandler struct {
	cfg      *config.Config
	editor   *service.EditorService
	sessions *authutils.SessionManager // nil, если аутентификация выключена
	logger   *zap.Logger
}

// NewEditorHandler создает новый обработчик редактора.
func NewEditorHandler(cfg *config.Config, editor *service.EditorService, logger *zap.Logger) *EditorHandler {
	log := logger.Named("EditorHandler")

	var sessions *authutils.SessionManager
	if cfg.AdminPasswordHash != "" {
		var err error
		sessions, err = authutils.NewSessionManager(cfg.JWTSecret, cfg.SessionTTL, logger)
		if err != nil {
			// LoadConfig гарантирует непустой секрет при заданном хеше;
			// здесь возможен только неконсистентный конфиг из кода
			log.Error("Не удалось создать менеджер сессий, API останется закрытым", zap.Error(err))
		}
	}

	return &EditorHandler{
		cfg:      cfg,
		editor:   editor,
		sessions: sessions,
		logger:   log,
	}
}

// RegisterRoutes настраивает маршруты редактора.
func (h *EditorHandler) RegisterRoutes(router *gin.Engine) {
	router.POST("/login", h.handleLogin)

	api := router.Group("/api", h.AuthMiddleware)
	{
		api.GET("/config", h.getConfig)
		api.PUT("/config", h.updateConfig)
		api.GET("/config/export", h.exportConfig)
		api.POST("/config/import", h.importConfig)

		api.POST("/keypoints", h.addKeyPoint)
		api.PATCH("/keypoints/:id", h.updateKeyPoint)
		api.POST("/keypoints/:id/toggle", h.toggleKeyPoint)
		api.DELETE("/keypoints/:id", h.deleteKeyPoint)

		api.GET("/chat", h.getTranscript)
		api.POST("/chat", h.sendMessage)
		api.DELETE("/chat", h.resetTranscript)
	}
}

func (h *EditorHandler) getConfig(c *gin.Context) {
	c.JSON(http.StatusOK, h.editor.Config())
}

type updateConfigRequest struct {
	BotName  *string `json:"botName"`
	Persona  *string `json:"persona"`
	Language *string `json:"language"`
}

func (h *EditorHandler) updateConfig(c *gin.Context) {
	var req updateConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	updated := h.editor.UpdateDetails(req.BotName, req.Persona, req.Language)
	c.JSON(http.StatusOK, updated)
}

// exportConfig отдает текущую конфигурацию как скачиваемый bot_config.json.
func (h *EditorHandler) exportConfig(c *gin.Context) {
	data, err := configfile.Marshal(h.editor.Config())
	if err != nil {
		h.logger.Error("Не удалось сериализовать конфигурацию для экспорта", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to serialize config"})
		return
	}
	c.Header("Content-Disposition", `attachment; filename="bot_config.json"`)
	c.Data(http.StatusOK, "application/json; charset=utf-8", data)
}

func (h *EditorHandler) importConfig(c *gin.Context) {
	var cfg models.ChatbotConfig
	if err := c.ShouldBindJSON(&cfg); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid config file"})
		return
	}
	h.editor.ReplaceConfig(cfg)
	c.JSON(http.StatusOK, h.editor.Config())
}

func (h *EditorHandler) addKeyPoint(c *gin.Context) {
	kp := h.editor.AddKeyPoint()
	c.JSON(http.StatusCreated, kp)
}

type updateKeyPointRequest struct {
	Title   *string `json:"title"`
	Content *string `json:"content"`
}

func (h *EditorHandler) updateKeyPoint(c *gin.Context) {
	var req updateKeyPointRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	// Отсутствующий идентификатор — no-op, не ошибка
	updated := h.editor.UpdateKeyPoint(c.Param("id"), req.Title, req.Content)
	c.JSON(http.StatusOK, gin.H{"updated": updated})
}

func (h *EditorHandler) toggleKeyPoint(c *gin.Context) {
	toggled := h.editor.ToggleKeyPoint(c.Param("id"))
	c.JSON(http.StatusOK, gin.H{"toggled": toggled})
}

func (h *EditorHandler) deleteKeyPoint(c *gin.Context) {
	deleted := h.editor.DeleteKeyPoint(c.Param("id"))
	c.JSON(http.StatusOK, gin.H{"deleted": deleted})
}

type transcriptResponse struct {
	Messages []models.Message `json:"messages"`
	Typing   bool             `json:"typing"`
}

func (h *EditorHandler) getTranscript(c *gin.Context) {
	messages, typing := h.editor.Transcript()
	if messages == nil {
		messages = []models.Message{}
	}
	c.JSON(http.StatusOK, transcriptResponse{Messages: messages, Typing: typing})
}

type sendMessageRequest struct {
	Text string `json:"text"`
}

func (h *EditorHandler) sendMessage(c *gin.Context) {
	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	botMsg, ok := h.editor.SendMessage(c.Request.Context(), req.Text)
	if !ok {
		// Пустой ввод: тихий no-op, ошибка пользователю не показывается
		c.Status(http.StatusNoContent)
		return
	}
	c.JSON(http.StatusOK, botMsg)
}

func (h *EditorHandler) resetTranscript(c *gin.Context) {
	h.editor.ResetTranscript()
	c.Status(http.StatusNoContent)
}
