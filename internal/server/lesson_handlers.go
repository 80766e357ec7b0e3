package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/learnd-dev/learnd/internal/models"
)

type CreateLessonRequest struct {
	Title    string `json:"title" binding:"required"`
	Content  string `json:"content"`
	VideoURL string `json:"video_url"`
	Position int    `json:"position"`
}

type CreateQuizRequest struct {
	LessonID  string `json:"lesson_id"`
	Title     string `json:"title" binding:"required"`
	Questions string `json:"questions" binding:"required"`
}

// @Router /api/courses/:code/lessons [post]
// @Param code path string true "Course code"
// @Param body body CreateLessonRequest true "Lesson creation request"
// @Success 201 {object} models.Lesson
func (s *Server) createLesson(c *gin.Context) {
	var req CreateLessonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	course, ok := s.findCourseByCode(c)
	if !ok {
		return
	}

	lesson := &models.Lesson{
		CourseID: course.ID,
		Title:    req.Title,
		Content:  req.Content,
		VideoURL: req.VideoURL,
		Position: req.Position,
	}

	if err := s.db.Create(lesson).Error; err != nil {
		s.logger.Error().Err(err).Str("course_id", course.ID).Msg("Failed to create lesson")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create lesson"})
		return
	}

	s.enqueueCourseNotification(course, "LESSON_ADDED", "New lesson in "+course.Name+": "+lesson.Title)

	c.JSON(http.StatusCreated, lesson)
}

// @Router /api/courses/:code/quizzes [post]
// @Param code path string true "Course code"
// @Param body body CreateQuizRequest true "Quiz creation request"
// @Success 201 {object} models.Quiz
func (s *Server) createQuiz(c *gin.Context) {
	var req CreateQuizRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	course, ok := s.findCourseByCode(c)
	if !ok {
		return
	}

	quiz := &models.Quiz{
		CourseID:  course.ID,
		LessonID:  req.LessonID,
		Title:     req.Title,
		Questions: req.Questions,
	}

	if err := s.db.Create(quiz).Error; err != nil {
		s.logger.Error().Err(err).Str("course_id", course.ID).Msg("Failed to create quiz")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create quiz"})
		return
	}

	s.enqueueCourseNotification(course, "QUIZ_ADDED", "New quiz in "+course.Name+": "+quiz.Title)

	c.JSON(http.StatusCreated, quiz)
}
