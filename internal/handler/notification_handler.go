package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ayoub195/safisaana/internal/middleware"
	"github.com/ayoub195/safisaana/internal/repository"
)

type NotificationHandler struct {
	repo   *repository.NotificationRepository
	logger *zap.Logger
}

func NewNotificationHandler(repo *repository.NotificationRepository, logger *zap.Logger) *NotificationHandler {
	return &NotificationHandler{
		repo:   repo,
		logger: logger,
	}
}

// List handles GET /api/v1/notifications for the session user.
func (h *NotificationHandler) List(c *gin.Context) {
	claims := middleware.SessionClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	notifications, err := h.repo.ListByUser(c.Request.Context(), claims.UserID)
	if err != nil {
		h.logger.Error("failed to list notifications", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list notifications"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"notifications": notifications, "count": len(notifications)})
}

// MarkRead handles POST /api/v1/notifications/:id/read. Read-acknowledgement
// is the only mutation a notification supports.
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	claims := middleware.SessionClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	ok, err := h.repo.MarkRead(c.Request.Context(), c.Param("id"), claims.UserID)
	if err != nil {
		h.logger.Error("failed to mark notification read", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update notification"})
		return
	}
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Notification not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}
