package workers

import (
	"context"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/learnd-dev/learnd/internal/models"
	"github.com/learnd-dev/learnd/internal/tasks"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, models.AutoMigrate(db))
	return db
}

func TestNextDigestTime(t *testing.T) {
	now := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

	next, err := nextDigestTime("0 8 * * *", now)
	require.NoError(t, err)
	require.Equal(t, time.Date(2026, 3, 15, 8, 0, 0, 0, time.UTC), next)

	next, err = nextDigestTime("*/15 * * * *", now)
	require.NoError(t, err)
	require.Equal(t, now.Add(15*time.Minute), next)

	_, err = nextDigestTime("not a schedule", now)
	require.Error(t, err)
}

func TestHandleDigestSend(t *testing.T) {
	db := newTestDB(t)

	require.NoError(t, db.Create(&models.Settings{JWTSecret: "s", DigestSchedule: "0 8 * * *"}).Error)

	alice := &models.User{Email: "alice@example.com", PasswordHash: "x", Name: "Alice", Role: models.RoleStudent}
	bob := &models.User{Email: "bob@example.com", PasswordHash: "x", Name: "Bob", Role: models.RoleStudent}
	require.NoError(t, db.Create(alice).Error)
	require.NoError(t, db.Create(bob).Error)

	sent := time.Now().UTC().Add(-time.Hour)
	seed := []models.Notification{
		{Code: "LESSON_ADDED", Description: "New lesson", UserID: alice.ID, SentAt: sent},
		{Code: "QUIZ_ADDED", Description: "New quiz", UserID: alice.ID, SentAt: sent},
		{Code: "COURSE_UPDATED", Description: "Updated", UserID: bob.ID, SentAt: sent, Read: true},
	}
	require.NoError(t, db.Create(&seed).Error)

	task := asynq.NewTask(tasks.TypeDigestSend, nil)
	require.NoError(t, HandleDigestSend(context.Background(), task, db, zerolog.Nop()))

	// Only alice had unread notifications, so only she gets a digest
	var digests []models.Notification
	require.NoError(t, db.Where("code = ?", "DIGEST").Find(&digests).Error)
	require.Len(t, digests, 1)
	require.Equal(t, alice.ID, digests[0].UserID)
	require.Contains(t, digests[0].Description, "2 unread")

	var settings models.Settings
	require.NoError(t, db.First(&settings).Error)
	require.NotNil(t, settings.LastDigestAt)
}

func TestHandleNotificationDispatch(t *testing.T) {
	db := newTestDB(t)

	lecturer := &models.User{Email: "lect@example.com", PasswordHash: "x", Name: "Lect", Role: models.RoleLecturer}
	student := &models.User{Email: "stud@example.com", PasswordHash: "x", Name: "Stud", Role: models.RoleStudent}
	require.NoError(t, db.Create(lecturer).Error)
	require.NoError(t, db.Create(student).Error)

	course := &models.Course{Code: "GO101", Name: "Intro to Go", Lecturer: lecturer.Name, Status: "Active"}
	require.NoError(t, db.Create(course).Error)
	require.NoError(t, db.Create(&models.Enrollment{CourseID: course.ID, UserID: student.ID}).Error)

	task, err := tasks.NewNotificationDispatchTask(course.ID, "LESSON_ADDED", "A new lesson was added to Intro to Go")
	require.NoError(t, err)
	require.NoError(t, HandleNotificationDispatch(context.Background(), task, db, zerolog.Nop()))

	var notifications []models.Notification
	require.NoError(t, db.Where("user_id = ?", student.ID).Find(&notifications).Error)
	require.Len(t, notifications, 1)
	require.Equal(t, "LESSON_ADDED", notifications[0].Code)
	require.False(t, notifications[0].Read)
}
