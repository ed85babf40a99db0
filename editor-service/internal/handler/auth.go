package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const sessionCookieName = "editor_session"

type loginRequest struct {
	Password string `json:"password" binding:"required"`
}

// handleLogin проверяет пароль оператора и выдает сессионный токен в cookie.
func (h *EditorHandler) handleLogin(c *gin.Context) {
	if h.cfg.AdminPasswordHash == "" {
		c.JSON(http.StatusOK, gin.H{"message": "auth disabled"})
		return
	}

	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "password is required"})
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(h.cfg.AdminPasswordHash), []byte(req.Password)); err != nil {
		h.logger.Warn("Неудачная попытка входа оператора", zap.String("ip", c.ClientIP()))
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid password"})
		return
	}

	if h.sessions == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "sessions unavailable"})
		return
	}
	token, err := h.sessions.Issue("operator")
	if err != nil {
		h.logger.Error("Не удалось подписать токен сессии", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create session"})
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(sessionCookieName, token, int(h.sessions.TTL().Seconds()), "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"message": "ok"})
}

// AuthMiddleware защищает API редактора. Если хеш пароля не задан,
// доступ открыт (локальная разработка).
func (h *EditorHandler) AuthMiddleware(c *gin.Context) {
	if h.cfg.AdminPasswordHash == "" {
		c.Next()
		return
	}

	cookie, err := c.Cookie(sessionCookieName)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	if h.sessions == nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid session"})
		return
	}
	if _, err := h.sessions.Verify(cookie); err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid session"})
		return
	}

	c.Next()
}
