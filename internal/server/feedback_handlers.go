package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/learnd-dev/learnd/internal/models"
)

type SubmitFeedbackRequest struct {
	Rating  int    `json:"rating" binding:"required,min=1,max=5"`
	Comment string `json:"comment"`
}

// @Router /api/courses/:code/feedback [post]
// @Param code path string true "Course code"
// @Param body body SubmitFeedbackRequest true "Feedback"
// @Success 201 {object} models.Feedback
func (s *Server) submitFeedback(c *gin.Context) {
	sessionData, exists := GetSessionData(c)
	if !exists {
		s.logger.Error().Msg("Session data not found in context")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	var req SubmitFeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	course, ok := s.findCourseByCode(c)
	if !ok {
		return
	}

	feedback := &models.Feedback{
		CourseID: course.ID,
		UserID:   sessionData.UserID,
		Rating:   req.Rating,
		Comment:  req.Comment,
	}

	if err := s.db.Create(feedback).Error; err != nil {
		s.logger.Error().Err(err).Str("course_id", course.ID).Msg("Failed to create feedback")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to submit feedback"})
		return
	}

	c.JSON(http.StatusCreated, feedback)
}

// @Router /api/courses/:code/feedback [get]
// @Param code path string true "Course code"
// @Success 200 {array} models.Feedback
func (s *Server) listFeedback(c *gin.Context) {
	course, ok := s.findCourseByCode(c)
	if !ok {
		return
	}

	var feedback []models.Feedback
	if err := s.db.Where("course_id = ?", course.ID).
		Order("created_at DESC").
		Find(&feedback).Error; err != nil {
		s.logger.Error().Err(err).Str("course_id", course.ID).Msg("Failed to list feedback")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load feedback"})
		return
	}

	c.JSON(http.StatusOK, feedback)
}
