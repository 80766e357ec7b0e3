package workers

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/learnd-dev/learnd/internal/models"
	"github.com/learnd-dev/learnd/internal/rag"
	"github.com/learnd-dev/learnd/internal/tasks"
)

// HandleKnowledgeIndex pushes a spooled knowledge document to the RAG service
// and marks it indexed. The spooled file is removed once indexing succeeds;
// on failure the task is retried by the queue with the file still in place.
func HandleKnowledgeIndex(ctx context.Context, t *asynq.Task, db *gorm.DB, ragClient *rag.Client, logger zerolog.Logger) error {
	payload, err := tasks.ParseKnowledgeIndexPayload(t)
	if err != nil {
		return err
	}

	var doc models.KnowledgeDocument
	if err := models.FindByID(db.WithContext(ctx), payload.DocumentID, &doc); err != nil {
		if err == gorm.ErrRecordNotFound {
			logger.Warn().Str("document_id", payload.DocumentID).Msg("Knowledge document vanished before indexing")
			return nil
		}
		return fmt.Errorf("failed to load knowledge document: %w", err)
	}

	if doc.Indexed {
		logger.Debug().Str("document_id", doc.ID).Msg("Document already indexed - skipping")
		return nil
	}

	// Updates below writes the cleared local_path back into doc, so hold on
	// to the spool location for the removal at the end.
	spooledPath := doc.LocalPath

	file, err := os.Open(spooledPath)
	if err != nil {
		return fmt.Errorf("failed to open spooled document %s: %w", spooledPath, err)
	}
	defer file.Close()

	if _, err := ragClient.UploadDocument(ctx, doc.Title, file); err != nil {
		return fmt.Errorf("failed to upload document to rag service: %w", err)
	}

	now := time.Now().UTC()
	updates := map[string]interface{}{
		"indexed":    true,
		"indexed_at": &now,
		"local_path": "",
	}
	if err := db.WithContext(ctx).Model(&doc).Updates(updates).Error; err != nil {
		return fmt.Errorf("failed to mark document indexed: %w", err)
	}

	if err := os.Remove(spooledPath); err != nil {
		logger.Warn().Err(err).Str("path", spooledPath).Msg("Failed to remove spooled document")
	}

	logger.Info().
		Str("document_id", doc.ID).
		Str("title", doc.Title).
		Msg("Knowledge document indexed")

	return nil
}
