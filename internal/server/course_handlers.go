package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/learnd-dev/learnd/internal/models"
	"github.com/learnd-dev/learnd/internal/tasks"
)

type CreateCourseRequest struct {
	Code         string `json:"code" binding:"required" validate:"required,min=2,max=20,alphanumdash"`
	Name         string `json:"name" binding:"required"`
	Description  string `json:"description"`
	Lecturer     string `json:"lecturer" binding:"required"`
	Category     string `json:"category"`
	RequiredRole string `json:"required_role"`
}

type UpdateCourseRequest struct {
	Name         *string `json:"name"`
	Description  *string `json:"description"`
	Lecturer     *string `json:"lecturer"`
	Category     *string `json:"category"`
	RequiredRole *string `json:"required_role"`
	Status       *string `json:"status" binding:"omitempty,oneof=Active Inactive"`
}

// @Router /api/courses [get]
// @Success 200 {array} models.Course
func (s *Server) listCourses(c *gin.Context) {
	query := s.db.Order("created_at DESC")

	// The student-facing catalog only shows active courses; lecturer and
	// admin views pass include_inactive
	if c.Query("include_inactive") != "true" {
		query = query.Where("status = ?", "Active")
	}
	if category := c.Query("category"); category != "" {
		query = query.Where("category = ?", category)
	}

	var courses []models.Course
	if err := query.Find(&courses).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to list courses")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error fetching courses"})
		return
	}

	c.JSON(http.StatusOK, courses)
}

// @Router /api/courses/:code [get]
// @Param code path string true "Course code"
// @Success 200 {object} models.Course
func (s *Server) getCourse(c *gin.Context) {
	code := c.Param("code")

	// Course code first; fall back to record ID for older links
	var course models.Course
	err := s.db.Preload("Lessons", func(db *gorm.DB) *gorm.DB {
		return db.Order("position ASC")
	}).Preload("Quizzes").Where("code = ?", code).First(&course).Error
	if err == gorm.ErrRecordNotFound {
		err = models.FindByIDWithPreload(s.db, code, &course, "Lessons", "Quizzes")
	}
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Course not found"})
			return
		}
		s.logger.Error().Err(err).Str("code", code).Msg("Failed to find course")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error fetching course"})
		return
	}

	c.JSON(http.StatusOK, course)
}

// @Router /api/courses [post]
// @Param body body CreateCourseRequest true "Course creation request"
// @Success 201 {object} models.Course
func (s *Server) createCourse(c *gin.Context) {
	var req CreateCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.logger.Warn().Err(err).Msg("Invalid request body")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	if err := s.validator.Struct(&req); err != nil {
		s.logger.Warn().Err(err).Msg("Request validation failed")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Validation failed", "details": err.Error()})
		return
	}

	requiredRole := req.RequiredRole
	if requiredRole == "" {
		requiredRole = models.RoleStudent
	}

	course := &models.Course{
		Code:         strings.ToUpper(req.Code),
		Name:         req.Name,
		Description:  req.Description,
		Lecturer:     req.Lecturer,
		Category:     req.Category,
		RequiredRole: requiredRole,
		Status:       "Active",
	}

	if err := s.db.Create(course).Error; err != nil {
		s.logger.Error().Err(err).Str("code", course.Code).Msg("Failed to create course")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create course"})
		return
	}

	s.logger.Info().Str("course_id", course.ID).Str("code", course.Code).Msg("Course created")

	c.JSON(http.StatusCreated, course)
}

// @Router /api/courses/:code [put]
// @Param code path string true "Course code"
// @Param body body UpdateCourseRequest true "Course update request"
// @Success 200 {object} models.Course
func (s *Server) updateCourse(c *gin.Context) {
	var req UpdateCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	course, ok := s.findCourseByCode(c)
	if !ok {
		return
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Lecturer != nil {
		updates["lecturer"] = *req.Lecturer
	}
	if req.Category != nil {
		updates["category"] = *req.Category
	}
	if req.RequiredRole != nil {
		updates["required_role"] = *req.RequiredRole
	}
	if req.Status != nil {
		updates["status"] = *req.Status
	}

	if len(updates) > 0 {
		if err := s.db.Model(course).Updates(updates).Error; err != nil {
			s.logger.Error().Err(err).Str("course_id", course.ID).Msg("Failed to update course")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update course"})
			return
		}

		// Enrolled students hear about material changes
		s.enqueueCourseNotification(course, "COURSE_UPDATED", "Course "+course.Name+" was updated")
	}

	c.JSON(http.StatusOK, course)
}

// @Router /api/courses/:code [delete]
// @Param code path string true "Course code"
// @Success 204
func (s *Server) deleteCourse(c *gin.Context) {
	course, ok := s.findCourseByCode(c)
	if !ok {
		return
	}

	if err := s.db.Delete(course).Error; err != nil {
		s.logger.Error().Err(err).Str("course_id", course.ID).Msg("Failed to delete course")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete course"})
		return
	}

	s.logger.Info().Str("course_id", course.ID).Str("code", course.Code).Msg("Course deleted")

	c.Status(http.StatusNoContent)
}

// EnrolledStudent is one row of the lecturer's course roster
type EnrolledStudent struct {
	UserID     string `json:"user_id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	EnrolledAt string `json:"enrolled_at"`
}

// @Router /api/courses/:code/students [get]
// @Param code path string true "Course code"
// @Success 200 {array} EnrolledStudent
func (s *Server) listCourseStudents(c *gin.Context) {
	course, ok := s.findCourseByCode(c)
	if !ok {
		return
	}

	var enrollments []models.Enrollment
	if err := s.db.Preload("User").
		Where("course_id = ?", course.ID).
		Order("created_at ASC").
		Find(&enrollments).Error; err != nil {
		s.logger.Error().Err(err).Str("course_id", course.ID).Msg("Failed to load enrollments")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load enrolled students"})
		return
	}

	students := make([]EnrolledStudent, 0, len(enrollments))
	for _, enrollment := range enrollments {
		student := EnrolledStudent{
			UserID:     enrollment.UserID,
			EnrolledAt: enrollment.CreatedAt.Format("2006-01-02 15:04:05"),
		}
		if enrollment.User != nil {
			student.Name = enrollment.User.Name
			student.Email = enrollment.User.Email
		}
		students = append(students, student)
	}

	c.JSON(http.StatusOK, students)
}

// @Router /api/courses/:code/enroll [post]
// @Param code path string true "Course code"
// @Success 201 {object} models.Enrollment
func (s *Server) enrollStudent(c *gin.Context) {
	sessionData, exists := GetSessionData(c)
	if !exists {
		s.logger.Error().Msg("Session data not found in context")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	course, ok := s.findCourseByCode(c)
	if !ok {
		return
	}

	if course.Status != "Active" {
		c.JSON(http.StatusConflict, gin.H{"error": "Course is not open for enrollment"})
		return
	}

	enrollment := &models.Enrollment{
		CourseID: course.ID,
		UserID:   sessionData.UserID,
	}

	if err := s.db.Create(enrollment).Error; err != nil {
		s.logger.Error().Err(err).
			Str("course_id", course.ID).
			Str("user_id", sessionData.UserID).
			Msg("Failed to create enrollment")
		c.JSON(http.StatusConflict, gin.H{"error": "Already enrolled in this course"})
		return
	}

	s.logger.Info().
		Str("course_id", course.ID).
		Str("user_id", sessionData.UserID).
		Msg("Student enrolled")

	c.JSON(http.StatusCreated, enrollment)
}

// findCourseByCode resolves the :code path parameter, writing the error
// response itself when the course cannot be loaded.
func (s *Server) findCourseByCode(c *gin.Context) (*models.Course, bool) {
	code := c.Param("code")

	var course models.Course
	err := s.db.Where("code = ?", code).First(&course).Error
	if err == gorm.ErrRecordNotFound {
		err = models.FindByID(s.db, code, &course)
	}
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Course not found"})
			return nil, false
		}
		s.logger.Error().Err(err).Str("code", code).Msg("Failed to find course")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return nil, false
	}

	return &course, true
}

// enqueueCourseNotification hands a course event to the worker; failures are
// logged, not surfaced, since the triggering request already succeeded.
func (s *Server) enqueueCourseNotification(course *models.Course, code, description string) {
	task, err := tasks.NewNotificationDispatchTask(course.ID, code, description)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to build notification task")
		return
	}
	if _, err := s.asynqClient.Enqueue(task); err != nil {
		s.logger.Error().Err(err).Str("course_id", course.ID).Msg("Failed to enqueue notification task")
	}
}
