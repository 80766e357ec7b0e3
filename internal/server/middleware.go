package server

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/learnd-dev/learnd/internal/auth"
	"github.com/learnd-dev/learnd/internal/config"
	"github.com/learnd-dev/learnd/internal/models"
	"github.com/learnd-dev/learnd/internal/session"
)

const (
	bearerPrefix = "Bearer "
)

var (
	ErrMissingAuthHeader = errors.New("missing authorization header")
	ErrInvalidAuthFormat = errors.New("invalid authorization header format")
	ErrEmptyToken        = errors.New("empty token")
	ErrInvalidToken      = errors.New("invalid token")
	ErrUserNotFound      = errors.New("user not found")
)

func setSession(c *gin.Context, sessionData *auth.SessionData) {
	c.Set("session", sessionData)
}

func GetSessionData(c *gin.Context) (*auth.SessionData, bool) {
	s, exists := c.Get("session")
	if !exists {
		return nil, false
	}

	sessionData, ok := s.(*auth.SessionData)
	return sessionData, ok
}

func extractBearerToken(authHeader string) (string, error) {
	if authHeader == "" {
		return "", ErrMissingAuthHeader
	}

	if !strings.HasPrefix(authHeader, bearerPrefix) {
		return "", ErrInvalidAuthFormat
	}

	token := strings.TrimPrefix(authHeader, bearerPrefix)
	if token == "" {
		return "", ErrEmptyToken
	}

	return token, nil
}

func respondWithError(c *gin.Context, log zerolog.Logger, statusCode int, err error, message string) {
	log.Warn().Err(err).Msg(message)
	c.JSON(statusCode, gin.H{"error": message})
	c.Abort()
}

// JWTAuthMiddleware validates JWT bearer tokens for the JSON API
func JWTAuthMiddleware(db *gorm.DB, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Extract token from Authorization header
		authHeader := c.GetHeader("Authorization")
		token, err := extractBearerToken(authHeader)
		if err != nil {
			var message string
			switch err {
			case ErrMissingAuthHeader:
				message = "Missing authorization header"
			case ErrInvalidAuthFormat:
				message = "Invalid authorization header format"
			case ErrEmptyToken:
				message = "Empty token"
			}
			respondWithError(c, log, http.StatusUnauthorized, err, message)
			return
		}

		// Validate JWT token
		claims, err := auth.ValidateToken(token)
		if err != nil {
			log.Error().Err(err).Msg("Failed to validate JWT token")
			respondWithError(c, log, http.StatusUnauthorized, ErrInvalidToken, "Invalid or expired token")
			return
		}

		// Verify user exists in database
		var user models.User
		if err := db.Where("id = ?", claims.UserID).First(&user).Error; err != nil {
			log.Error().Err(err).Str("user_id", claims.UserID).Msg("User not found")
			respondWithError(c, log, http.StatusUnauthorized, ErrUserNotFound, "User not found")
			return
		}

		// Set session data
		sessionData := &auth.SessionData{
			UserID: user.ID,
			Email:  user.Email,
			Role:   user.Role,
		}
		setSession(c, sessionData)

		c.Next()
	}
}

// RequireRoles ensures the authenticated API user carries one of the given roles
func RequireRoles(log zerolog.Logger, roles ...string) gin.HandlerFunc {
	allowed := session.NewRoleSet(roles...)
	return func(c *gin.Context) {
		sessionData, exists := GetSessionData(c)
		if !exists {
			respondWithError(c, log, http.StatusUnauthorized, errors.New("no session"), "Unauthorized")
			return
		}

		if !allowed.Contains(sessionData.Role) {
			respondWithError(c, log, http.StatusForbidden, errors.New("role not allowed"), "Access denied")
			return
		}

		c.Next()
	}
}

// SessionGuard protects a portal route group with the shared session store.
// The request is admitted if any one of the three role namespaces holds a
// well-formed, logged-in record whose role is in the allowed set; otherwise
// the browser is redirected to the portal's login destination with the
// originally requested location preserved. Malformed records count as
// unauthenticated for their namespace only - the guard never fails hard on
// bad stored data.
func SessionGuard(store session.Store, loginURL string, log zerolog.Logger, roles ...string) gin.HandlerFunc {
	allowed := session.NewRoleSet(roles...)
	return func(c *gin.Context) {
		decision := checkSession(c.Request.Context(), store, allowed, log)
		if !decision.Authorized {
			redirectToLogin(c, loginURL)
			return
		}

		c.Next()
	}
}

// checkSession fetches all namespace records and folds the role predicate
// over them. Fetch errors other than "not found" deny that namespace but are
// logged rather than surfaced; the decision itself carries no error.
func checkSession(ctx context.Context, store session.Store, allowed session.RoleSet, log zerolog.Logger) session.Decision {
	records := make(map[string][]byte, len(session.Keys))
	for _, key := range session.Keys {
		data, err := store.Get(ctx, key)
		if err != nil {
			if !errors.Is(err, session.ErrNotFound) {
				log.Warn().Err(err).Str("namespace", key).Msg("Failed to read session record")
			}
			continue
		}
		records[key] = data
	}
	return session.Evaluate(records, session.Keys, allowed)
}

// redirectToLogin sends the browser to the login destination, carrying the
// requested location so the login flow can return the user afterwards.
func redirectToLogin(c *gin.Context, loginURL string) {
	target := loginURL
	if from := c.Request.URL.RequestURI(); from != "" {
		sep := "?"
		if strings.Contains(target, "?") {
			sep = "&"
		}
		target += sep + "from=" + url.QueryEscape(from)
	}
	c.Redirect(http.StatusFound, target)
	c.Abort()
}

// guardRolesFor maps a portal to the roles its protected views accept. The
// lecturer portal also admits admins (course administration reuses the
// lecturer views).
func guardRolesFor(portal config.Portal) []string {
	switch portal {
	case config.PortalAdmin:
		return []string{models.RoleAdmin}
	case config.PortalLecturer:
		return []string{models.RoleLecturer, models.RoleAdmin}
	default:
		return []string{models.RoleStudent}
	}
}
