package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"

	"github.com/learnd-dev/learnd/internal/models"
)

type UpdateSettingsRequest struct {
	// Cron expression for the notification digest; empty disables it
	DigestSchedule *string `json:"digest_schedule"`
}

// @Router /api/settings [get]
// @Success 200 {object} models.Settings
func (s *Server) getSettings(c *gin.Context) {
	var settings models.Settings
	if err := s.db.First(&settings).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Setup not completed"})
			return
		}
		s.logger.Error().Err(err).Msg("Failed to load settings")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, settings)
}

// @Router /api/settings [patch]
// @Param body body UpdateSettingsRequest true "Settings update"
// @Success 200 {object} models.Settings
func (s *Server) updateSettings(c *gin.Context) {
	var req UpdateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	var settings models.Settings
	if err := s.db.First(&settings).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Setup not completed"})
			return
		}
		s.logger.Error().Err(err).Msg("Failed to load settings")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	updates := map[string]interface{}{}
	if req.DigestSchedule != nil {
		schedule := *req.DigestSchedule
		if schedule == "" {
			updates["digest_schedule"] = ""
			updates["next_digest_at"] = nil
		} else {
			parsed, err := cron.ParseStandard(schedule)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid cron expression", "details": err.Error()})
				return
			}
			next := parsed.Next(time.Now())
			updates["digest_schedule"] = schedule
			updates["next_digest_at"] = &next
		}
	}

	if len(updates) > 0 {
		if err := s.db.Model(&settings).Updates(updates).Error; err != nil {
			s.logger.Error().Err(err).Msg("Failed to update settings")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update settings"})
			return
		}
	}

	c.JSON(http.StatusOK, settings)
}
