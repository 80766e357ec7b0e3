package models

import (
	"time"

	"github.com/oklog/ulid/v2"
	"gorm.io/gorm"
)

// Role values carried by users and session records. Stored capitalized (the
// portals display them as-is); comparisons elsewhere are case-insensitive.
const (
	RoleStudent  = "Student"
	RoleLecturer = "Lecturer"
	RoleAdmin    = "Admin"
)

// BaseModel provides common fields and auto-generated ULID for all models
type BaseModel struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(26)"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// BeforeCreate generates a ULID for the ID field if it's empty
func (b *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = ulid.Make().String()
	}
	return nil
}

// Settings represents the global configuration for the deployment.
// This is a singleton model (only one row should exist).
type Settings struct {
	BaseModel
	// Auto-generated on first setup (64 hex chars)
	JWTSecret string `json:"-" gorm:"type:varchar(64);not null"`

	// Notification digest schedule (cron expression, empty = no digest)
	DigestSchedule string     `json:"digest_schedule"`
	LastDigestAt   *time.Time `json:"last_digest_at"`
	NextDigestAt   *time.Time `json:"next_digest_at"`
}

// User represents an account in any of the three portals
type User struct {
	BaseModel
	Email        string    `json:"email" gorm:"unique;not null"`
	PasswordHash string    `json:"-" gorm:"not null"`
	Name         string    `json:"name"`
	Role         string    `json:"role" gorm:"not null;default:Student"`
	UpdatedAt    time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// Course represents a course offered through the lecturer and admin portals
type Course struct {
	BaseModel
	Code         string `json:"code" gorm:"not null;unique"`
	Name         string `json:"name" gorm:"not null"`
	Description  string `json:"description" gorm:"type:text"`
	Lecturer     string `json:"lecturer" gorm:"not null"`
	Category     string `json:"category"`
	RequiredRole string `json:"required_role" gorm:"not null;default:Student"`
	Status       string `json:"status" gorm:"not null;default:Active"`

	// Relationships
	Lessons []Lesson `json:"lessons,omitempty" gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE"`
	Quizzes []Quiz   `json:"quizzes,omitempty" gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE"`
}

// Lesson is one unit of course content
type Lesson struct {
	BaseModel
	CourseID string `json:"course_id" gorm:"not null;index"`
	Title    string `json:"title" gorm:"not null"`
	Content  string `json:"content" gorm:"type:text"`
	VideoURL string `json:"video_url"`
	Position int    `json:"position" gorm:"not null;default:0"`
}

// Quiz holds a lesson-level assessment; questions are stored as an opaque
// JSON document authored in the lecturer portal
type Quiz struct {
	BaseModel
	CourseID  string `json:"course_id" gorm:"not null;index"`
	LessonID  string `json:"lesson_id" gorm:"index"`
	Title     string `json:"title" gorm:"not null"`
	Questions string `json:"questions" gorm:"type:text"`
}

// Enrollment links a student to a course
type Enrollment struct {
	BaseModel
	CourseID string `json:"course_id" gorm:"not null;index;uniqueIndex:idx_enrollment_course_user"`
	UserID   string `json:"user_id" gorm:"not null;index;uniqueIndex:idx_enrollment_course_user"`

	Course Course `json:"course,omitzero" gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE"`
	User   *User  `json:"user,omitempty" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

// Feedback is a student's review of a course
type Feedback struct {
	BaseModel
	CourseID string `json:"course_id" gorm:"not null;index"`
	UserID   string `json:"user_id" gorm:"not null;index"`
	Rating   int    `json:"rating" gorm:"not null"`
	Comment  string `json:"comment" gorm:"type:text"`
}

// Notification is a per-user message created by background workers
type Notification struct {
	BaseModel
	Code        string    `json:"code" gorm:"not null"`
	Description string    `json:"description" gorm:"not null"`
	UserID      string    `json:"user_id" gorm:"not null;index"`
	SentAt      time.Time `json:"sent_at" gorm:"not null"`
	Read        bool      `json:"read" gorm:"not null;default:false"`
}

// KnowledgeProfile holds a student's learning preferences and the documents
// they have uploaded for retrieval-augmented answers
type KnowledgeProfile struct {
	BaseModel
	UserID        string `json:"user_id" gorm:"not null;unique"`
	Interests     string `json:"interests"`                                   // comma-separated
	Difficulty    string `json:"difficulty" gorm:"not null;default:beginner"` // beginner, intermediate, advanced
	LearningStyle string `json:"learning_style" gorm:"not null;default:visual"`
	HoursPerWeek  int    `json:"hours_per_week" gorm:"not null;default:10"`
	Goals         string `json:"goals" gorm:"type:text"`

	Documents []KnowledgeDocument `json:"documents,omitempty" gorm:"foreignKey:ProfileID;constraint:OnDelete:CASCADE"`
}

// KnowledgeDocument records one uploaded document awaiting or finished indexing
type KnowledgeDocument struct {
	BaseModel
	ProfileID string     `json:"profile_id" gorm:"not null;index"`
	Title     string     `json:"title" gorm:"not null"`
	FileHash  string     `json:"file_hash" gorm:"not null"`
	FileType  string     `json:"file_type" gorm:"not null"`
	LocalPath string     `json:"-"` // where the upload was spooled until indexing completes
	Indexed   bool       `json:"indexed" gorm:"not null;default:false"`
	IndexedAt *time.Time `json:"indexed_at"`
}

// AutoMigrate runs database migrations for all models
func AutoMigrate(db *gorm.DB) error {
	// Collect all models
	models := []interface{}{
		&User{}, &Settings{}, &Course{}, &Lesson{}, &Quiz{},
		&Enrollment{}, &Feedback{}, &Notification{},
		&KnowledgeProfile{}, &KnowledgeDocument{},
	}

	return db.AutoMigrate(models...)
}

// FindByID safely finds a record by string ID
func FindByID[T any](db *gorm.DB, id string, model *T) error {
	return db.Where("id = ?", id).First(model).Error
}

// FindByIDWithPreload finds a record by ID with preloading
func FindByIDWithPreload[T any](db *gorm.DB, id string, model *T, preloads ...string) error {
	query := db
	for _, preload := range preloads {
		query = query.Preload(preload)
	}
	return query.Where("id = ?", id).First(model).Error
}
