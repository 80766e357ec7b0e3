package auth

// SessionData represents the authenticated user context for an API request
type SessionData struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"` // "Student", "Lecturer", "Admin"
}
