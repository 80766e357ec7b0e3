package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/learnd-dev/learnd/internal/models"
)

// @Router /api/notifications [get]
// @Success 200 {array} models.Notification
func (s *Server) listNotifications(c *gin.Context) {
	sessionData, exists := GetSessionData(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	query := s.db.Where("user_id = ?", sessionData.UserID).Order("sent_at DESC")
	if c.Query("unread") == "true" {
		query = query.Where("read = ?", false)
	}

	var notifications []models.Notification
	if err := query.Find(&notifications).Error; err != nil {
		s.logger.Error().Err(err).Str("user_id", sessionData.UserID).Msg("Failed to list notifications")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load notifications"})
		return
	}

	c.JSON(http.StatusOK, notifications)
}

// @Router /api/notifications/:id/read [post]
// @Param id path string true "Notification ID"
// @Success 200 {object} models.Notification
func (s *Server) markNotificationRead(c *gin.Context) {
	sessionData, exists := GetSessionData(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var notification models.Notification
	err := s.db.Where("id = ? AND user_id = ?", c.Param("id"), sessionData.UserID).
		First(&notification).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Notification not found"})
			return
		}
		s.logger.Error().Err(err).Msg("Failed to find notification")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	if err := s.db.Model(&notification).Update("read", true).Error; err != nil {
		s.logger.Error().Err(err).Str("notification_id", notification.ID).Msg("Failed to mark notification read")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update notification"})
		return
	}

	c.JSON(http.StatusOK, notification)
}
