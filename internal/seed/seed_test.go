package seed

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/learnd-dev/learnd/internal/models"
)

const fixture = `
users:
  - email: admin@example.com
    password: changeme
    name: Admin
    role: Admin
  - email: grace@example.com
    password: changeme
    name: Grace
    role: Lecturer

courses:
  - code: go-101
    name: Introduction to Go
    description: First steps with the language
    lecturer: Grace
    category: programming
    lessons:
      - title: Hello World
        content: Your first program
        position: 1
      - title: Types and Values
        content: The type system
        position: 2
`

func writeFixture(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

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

func TestLoadAndApply(t *testing.T) {
	path := writeFixture(t, fixture)

	f, err := Load(path)
	require.NoError(t, err)
	require.Len(t, f.Users, 2)
	require.Len(t, f.Courses, 1)

	db := newTestDB(t)
	require.NoError(t, Apply(db, f, zerolog.Nop()))

	var course models.Course
	require.NoError(t, db.Preload("Lessons").Where("code = ?", "GO-101").First(&course).Error)
	require.Equal(t, "Introduction to Go", course.Name)
	require.Equal(t, "Active", course.Status)
	require.Len(t, course.Lessons, 2)

	var users int64
	require.NoError(t, db.Model(&models.User{}).Count(&users).Error)
	require.Equal(t, int64(2), users)

	var admin models.User
	require.NoError(t, db.Where("email = ?", "admin@example.com").First(&admin).Error)
	require.Equal(t, models.RoleAdmin, admin.Role)
	require.NotEqual(t, "changeme", admin.PasswordHash)
}

func TestApplyIsIdempotent(t *testing.T) {
	path := writeFixture(t, fixture)
	f, err := Load(path)
	require.NoError(t, err)

	db := newTestDB(t)
	require.NoError(t, Apply(db, f, zerolog.Nop()))
	require.NoError(t, Apply(db, f, zerolog.Nop()))

	var users, courses int64
	require.NoError(t, db.Model(&models.User{}).Count(&users).Error)
	require.NoError(t, db.Model(&models.Course{}).Count(&courses).Error)
	require.Equal(t, int64(2), users)
	require.Equal(t, int64(1), courses)
}

func TestLoadRejectsUnknownRole(t *testing.T) {
	path := writeFixture(t, `
users:
  - email: odd@example.com
    password: x
    name: Odd
    role: Superuser
`)

	_, err := Load(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "unknown role")
}

func TestLoadRejectsMissingCourseCode(t *testing.T) {
	path := writeFixture(t, `
courses:
  - name: Nameless
`)

	_, err := Load(path)
	require.Error(t, err)
}
