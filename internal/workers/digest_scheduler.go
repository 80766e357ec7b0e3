package workers

import (
	"context"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/learnd-dev/learnd/internal/models"
	"github.com/learnd-dev/learnd/internal/tasks"
)

// StartDigestScheduler runs a periodic check (every minute) for the
// notification digest schedule stored in settings.
func StartDigestScheduler(client *asynq.Client, db *gorm.DB, logger zerolog.Logger) {
	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	// Run immediately on startup, then every minute
	checkAndEnqueueDigest(client, db, logger)

	for range ticker.C {
		checkAndEnqueueDigest(client, db, logger)
	}
}

func checkAndEnqueueDigest(client *asynq.Client, db *gorm.DB, logger zerolog.Logger) {
	// Load the singleton settings row
	var settings models.Settings
	err := db.First(&settings).Error

	if err != nil {
		if err == gorm.ErrRecordNotFound {
			logger.Debug().Msg("No settings found - skipping digest check")
			return
		}
		logger.Error().Err(err).Msg("Failed to query settings for digest")
		return
	}

	if settings.DigestSchedule == "" {
		logger.Debug().Msg("No digest schedule configured")
		return
	}

	if settings.NextDigestAt != nil && settings.NextDigestAt.After(time.Now()) {
		return
	}

	next, err := nextDigestTime(settings.DigestSchedule, time.Now())
	if err != nil {
		logger.Error().Err(err).Str("schedule", settings.DigestSchedule).Msg("Invalid digest schedule")
		return
	}

	if _, err := client.Enqueue(tasks.NewDigestSendTask(), asynq.Queue("low")); err != nil {
		logger.Error().Err(err).Msg("Failed to enqueue digest task")
		return
	}

	if err := db.Model(&settings).Update("next_digest_at", next).Error; err != nil {
		logger.Error().Err(err).Msg("Failed to record next digest time")
		return
	}

	logger.Info().Time("next_digest_at", next).Msg("Notification digest enqueued")
}

// nextDigestTime computes the next run after now for a cron expression
func nextDigestTime(schedule string, now time.Time) (time.Time, error) {
	parsed, err := cron.ParseStandard(schedule)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse cron expression: %w", err)
	}
	return parsed.Next(now), nil
}

// HandleDigestSend rolls unread notifications up into one summary
// notification per affected user.
func HandleDigestSend(ctx context.Context, t *asynq.Task, db *gorm.DB, logger zerolog.Logger) error {
	type unreadCount struct {
		UserID string
		Count  int64
	}

	var counts []unreadCount
	err := db.WithContext(ctx).Model(&models.Notification{}).
		Select("user_id, count(*) as count").
		Where("read = ? AND code != ?", false, "DIGEST").
		Group("user_id").
		Scan(&counts).Error
	if err != nil {
		return fmt.Errorf("failed to count unread notifications: %w", err)
	}

	now := time.Now().UTC()
	for _, c := range counts {
		digest := models.Notification{
			Code:        "DIGEST",
			Description: fmt.Sprintf("You have %d unread notifications", c.Count),
			UserID:      c.UserID,
			SentAt:      now,
		}
		if err := db.WithContext(ctx).Create(&digest).Error; err != nil {
			return fmt.Errorf("failed to create digest notification: %w", err)
		}
	}

	if err := db.WithContext(ctx).Model(&models.Settings{}).
		Where("1 = 1").
		Update("last_digest_at", now).Error; err != nil {
		logger.Warn().Err(err).Msg("Failed to record digest completion")
	}

	logger.Info().Int("users", len(counts)).Msg("Notification digest sent")
	return nil
}
