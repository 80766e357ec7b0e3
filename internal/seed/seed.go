// Package seed loads initial catalog data from a YAML fixture file.
package seed

import (
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gopkg.in/yaml.v3"

	"github.com/learnd-dev/learnd/internal/auth"
	"github.com/learnd-dev/learnd/internal/models"
)

// File is the top-level structure of a seed fixture.
type File struct {
	Users   []UserSeed   `yaml:"users"`
	Courses []CourseSeed `yaml:"courses"`
}

type UserSeed struct {
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	Role     string `yaml:"role"`
}

type CourseSeed struct {
	Code         string       `yaml:"code"`
	Name         string       `yaml:"name"`
	Description  string       `yaml:"description"`
	Lecturer     string       `yaml:"lecturer"`
	Category     string       `yaml:"category"`
	RequiredRole string       `yaml:"required_role"`
	Lessons      []LessonSeed `yaml:"lessons"`
}

type LessonSeed struct {
	Title    string `yaml:"title"`
	Content  string `yaml:"content"`
	Position int    `yaml:"position"`
}

// Load reads and parses a seed fixture from disk.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse seed file: %w", err)
	}

	if err := f.validate(); err != nil {
		return nil, err
	}

	return &f, nil
}

func (f *File) validate() error {
	for i, u := range f.Users {
		if u.Email == "" || u.Password == "" {
			return fmt.Errorf("seed user %d: email and password are required", i)
		}
		switch u.Role {
		case models.RoleStudent, models.RoleLecturer, models.RoleAdmin:
		default:
			return fmt.Errorf("seed user %q: unknown role %q", u.Email, u.Role)
		}
	}
	for i, c := range f.Courses {
		if c.Code == "" || c.Name == "" {
			return fmt.Errorf("seed course %d: code and name are required", i)
		}
	}
	return nil
}

// Apply inserts the fixture into the database. Existing users (by email) and
// courses (by code) are left untouched, so applying the same fixture twice is
// safe.
func Apply(db *gorm.DB, f *File, logger zerolog.Logger) error {
	for _, u := range f.Users {
		var count int64
		if err := db.Model(&models.User{}).Where("email = ?", u.Email).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check user %q: %w", u.Email, err)
		}
		if count > 0 {
			continue
		}

		hash, err := auth.HashPassword(u.Password)
		if err != nil {
			return fmt.Errorf("failed to hash password for %q: %w", u.Email, err)
		}

		user := models.User{
			Email:        u.Email,
			PasswordHash: hash,
			Name:         u.Name,
			Role:         u.Role,
		}
		if err := db.Create(&user).Error; err != nil {
			return fmt.Errorf("failed to create user %q: %w", u.Email, err)
		}
		logger.Info().Str("email", u.Email).Str("role", u.Role).Msg("Seeded user")
	}

	for _, c := range f.Courses {
		code := strings.ToUpper(c.Code)

		var count int64
		if err := db.Model(&models.Course{}).Where("code = ?", code).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check course %q: %w", code, err)
		}
		if count > 0 {
			continue
		}

		course := models.Course{
			Code:         code,
			Name:         c.Name,
			Description:  c.Description,
			Lecturer:     c.Lecturer,
			Category:     c.Category,
			RequiredRole: c.RequiredRole,
			Status:       "Active",
		}
		for _, l := range c.Lessons {
			course.Lessons = append(course.Lessons, models.Lesson{
				Title:    l.Title,
				Content:  l.Content,
				Position: l.Position,
			})
		}
		if err := db.Create(&course).Error; err != nil {
			return fmt.Errorf("failed to create course %q: %w", code, err)
		}
		logger.Info().Str("code", code).Int("lessons", len(course.Lessons)).Msg("Seeded course")
	}

	return nil
}
