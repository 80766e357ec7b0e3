package server

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/oklog/ulid/v2"
	"gorm.io/gorm"

	"github.com/learnd-dev/learnd/internal/models"
	"github.com/learnd-dev/learnd/internal/rag"
	"github.com/learnd-dev/learnd/internal/tasks"
)

type UpdateKnowledgeRequest struct {
	Interests     *string `json:"interests"`
	Difficulty    *string `json:"difficulty" binding:"omitempty,oneof=beginner intermediate advanced"`
	LearningStyle *string `json:"learning_style" binding:"omitempty,oneof=visual auditory reading kinesthetic"`
	HoursPerWeek  *int    `json:"hours_per_week"`
	Goals         *string `json:"goals"`
}

type ChatQueryRequest struct {
	Question string `json:"question" binding:"required"`
	Context  any    `json:"context"`
}

type ChatContextRequest struct {
	Query string `json:"query" binding:"required"`
}

// @Router /api/knowledge [get]
// @Success 200 {object} models.KnowledgeProfile
func (s *Server) getKnowledgeProfile(c *gin.Context) {
	sessionData, exists := GetSessionData(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	profile, err := s.loadOrCreateProfile(sessionData.UserID)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", sessionData.UserID).Msg("Failed to load knowledge profile")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load knowledge profile"})
		return
	}

	c.JSON(http.StatusOK, profile)
}

// @Router /api/knowledge [put]
// @Param body body UpdateKnowledgeRequest true "Learning preferences"
// @Success 200 {object} models.KnowledgeProfile
func (s *Server) updateKnowledgeProfile(c *gin.Context) {
	sessionData, exists := GetSessionData(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req UpdateKnowledgeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	profile, err := s.loadOrCreateProfile(sessionData.UserID)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", sessionData.UserID).Msg("Failed to load knowledge profile")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load knowledge profile"})
		return
	}

	updates := map[string]interface{}{}
	if req.Interests != nil {
		updates["interests"] = *req.Interests
	}
	if req.Difficulty != nil {
		updates["difficulty"] = *req.Difficulty
	}
	if req.LearningStyle != nil {
		updates["learning_style"] = *req.LearningStyle
	}
	if req.HoursPerWeek != nil {
		updates["hours_per_week"] = *req.HoursPerWeek
	}
	if req.Goals != nil {
		updates["goals"] = *req.Goals
	}

	if len(updates) > 0 {
		if err := s.db.Model(profile).Updates(updates).Error; err != nil {
			s.logger.Error().Err(err).Str("profile_id", profile.ID).Msg("Failed to update knowledge profile")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update knowledge profile"})
			return
		}
	}

	c.JSON(http.StatusOK, profile)
}

// @Router /api/knowledge/documents [post]
// @Accept multipart/form-data
// @Param file formData file true "Document to index"
// @Success 202 {object} models.KnowledgeDocument
func (s *Server) uploadKnowledgeDocument(c *gin.Context) {
	sessionData, exists := GetSessionData(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing file field"})
		return
	}

	profile, err := s.loadOrCreateProfile(sessionData.UserID)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", sessionData.UserID).Msg("Failed to load knowledge profile")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load knowledge profile"})
		return
	}

	// Spool the upload locally; the worker pushes it to the RAG service
	if err := os.MkdirAll(s.config.Storage.UploadDir, 0o755); err != nil {
		s.logger.Error().Err(err).Msg("Failed to create upload directory")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store document"})
		return
	}
	localPath := filepath.Join(s.config.Storage.UploadDir, ulid.Make().String()+filepath.Ext(fileHeader.Filename))
	if err := c.SaveUploadedFile(fileHeader, localPath); err != nil {
		s.logger.Error().Err(err).Msg("Failed to save uploaded file")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store document"})
		return
	}

	hash, err := hashFile(localPath)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to hash uploaded file")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store document"})
		return
	}

	doc := &models.KnowledgeDocument{
		ProfileID: profile.ID,
		Title:     fileHeader.Filename,
		FileHash:  hash,
		FileType:  filepath.Ext(fileHeader.Filename),
		LocalPath: localPath,
	}
	if err := s.db.Create(doc).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to create knowledge document")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store document"})
		return
	}

	task, err := tasks.NewKnowledgeIndexTask(doc.ID)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to build index task")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to schedule indexing"})
		return
	}
	if _, err := s.asynqClient.Enqueue(task); err != nil {
		s.logger.Error().Err(err).Str("document_id", doc.ID).Msg("Failed to enqueue index task")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to schedule indexing"})
		return
	}

	s.logger.Info().
		Str("document_id", doc.ID).
		Str("user_id", sessionData.UserID).
		Str("title", doc.Title).
		Msg("Knowledge document accepted for indexing")

	c.JSON(http.StatusAccepted, doc)
}

// @Router /api/chat/query [post]
// @Param body body ChatQueryRequest true "Question"
// @Success 200 {object} map[string]interface{}
func (s *Server) chatQuery(c *gin.Context) {
	var req ChatQueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	resp, err := s.ragClient.Query(c.Request.Context(), req.Question, req.Context)
	if err != nil {
		s.respondRAGError(c, err)
		return
	}

	c.Data(http.StatusOK, "application/json", resp)
}

// @Router /api/chat/context [post]
// @Param body body ChatContextRequest true "Query"
// @Success 200 {object} map[string]interface{}
func (s *Server) chatContext(c *gin.Context) {
	var req ChatContextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	resp, err := s.ragClient.GetDocumentContext(c.Request.Context(), req.Query)
	if err != nil {
		s.respondRAGError(c, err)
		return
	}

	c.Data(http.StatusOK, "application/json", resp)
}

// respondRAGError translates collaborator failures: an HTTP-level refusal
// keeps its status and message, a transport failure becomes a 502.
func (s *Server) respondRAGError(c *gin.Context, err error) {
	var apiErr *rag.APIError
	if errors.As(err, &apiErr) {
		s.logger.Warn().Int("status", apiErr.StatusCode).Str("message", apiErr.Message).Msg("RAG service rejected request")
		c.JSON(apiErr.StatusCode, gin.H{"error": apiErr.Message})
		return
	}
	s.logger.Error().Err(err).Msg("RAG service unreachable")
	c.JSON(http.StatusBadGateway, gin.H{"error": "Document service unavailable"})
}

func (s *Server) loadOrCreateProfile(userID string) (*models.KnowledgeProfile, error) {
	var profile models.KnowledgeProfile
	err := s.db.Preload("Documents").Where("user_id = ?", userID).First(&profile).Error
	if err == gorm.ErrRecordNotFound {
		profile = models.KnowledgeProfile{
			UserID:        userID,
			Difficulty:    "beginner",
			LearningStyle: "visual",
			HoursPerWeek:  10,
		}
		err = s.db.Create(&profile).Error
	}
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
