package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ayoub195/safisaana/internal/middleware"
	"github.com/ayoub195/safisaana/internal/service"
)

type AuthHandler struct {
	auth   *service.AuthService
	logger *zap.Logger
}

func NewAuthHandler(auth *service.AuthService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		auth:   auth,
		logger: logger,
	}
}

type sessionRequest struct {
	Token string `json:"token" binding:"required"`
}

// CreateSession handles POST /api/v1/auth/session: exchanges a provider
// identity token for a session cookie.
func (h *AuthHandler) CreateSession(c *gin.Context) {
	var req sessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	token, identity, err := h.auth.IssueSession(c.Request.Context(), req.Token)
	if err != nil {
		h.logger.Warn("session issue failed", zap.Error(err))
		c.JSON(http.StatusUnauthorized, gin.H{"error": "identity verification failed"})
		return
	}

	maxAge := int(h.auth.SessionTTL().Seconds())
	c.SetCookie(middleware.SessionCookie, token, maxAge, "/", "", true, true)
	c.JSON(http.StatusOK, gin.H{"success": true, "user": identity})
}

// DeleteSession handles DELETE /api/v1/auth/session: revokes the cookie.
func (h *AuthHandler) DeleteSession(c *gin.Context) {
	c.SetCookie(middleware.SessionCookie, "", -1, "/", "", true, true)
	c.JSON(http.StatusOK, gin.H{"success": true})
}
