package workers

import (
	"context"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/learnd-dev/learnd/internal/models"
	"github.com/learnd-dev/learnd/internal/tasks"
)

// HandleNotificationDispatch fans a course event out to every enrolled
// student as a per-user notification row.
func HandleNotificationDispatch(ctx context.Context, t *asynq.Task, db *gorm.DB, logger zerolog.Logger) error {
	payload, err := tasks.ParseNotificationPayload(t)
	if err != nil {
		return err
	}

	var enrollments []models.Enrollment
	if err := db.WithContext(ctx).Where("course_id = ?", payload.CourseID).Find(&enrollments).Error; err != nil {
		return fmt.Errorf("failed to load enrollments for course %s: %w", payload.CourseID, err)
	}

	if len(enrollments) == 0 {
		logger.Debug().Str("course_id", payload.CourseID).Msg("No enrollments - nothing to notify")
		return nil
	}

	now := time.Now().UTC()
	notifications := make([]models.Notification, 0, len(enrollments))
	for _, enrollment := range enrollments {
		notifications = append(notifications, models.Notification{
			Code:        payload.Code,
			Description: payload.Description,
			UserID:      enrollment.UserID,
			SentAt:      now,
		})
	}

	if err := db.WithContext(ctx).Create(&notifications).Error; err != nil {
		return fmt.Errorf("failed to create notifications: %w", err)
	}

	logger.Info().
		Str("course_id", payload.CourseID).
		Str("code", payload.Code).
		Int("recipients", len(notifications)).
		Msg("Course notification dispatched")

	return nil
}
