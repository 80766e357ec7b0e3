package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Portal identifies one of the three role-specific front-end applications.
type Portal string

const (
	PortalStudent  Portal = "student"
	PortalLecturer Portal = "lecturer"
	PortalAdmin    Portal = "admin"
)

// Portals lists all known portals in evaluation order.
var Portals = []Portal{PortalStudent, PortalLecturer, PortalAdmin}

// Config holds all configuration for the application
type Config struct {
	// Database Configuration
	Database DatabaseConfig

	// Redis Configuration (session store + task queue)
	Redis RedisConfig

	// RAG collaborator service
	RAG RAGConfig

	// Local file storage
	Storage StorageConfig

	// Per-portal navigation destinations
	Portals map[Portal]PortalConfig

	// Logging Configuration
	Logging LoggingConfig
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	URL string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Address string // Redis address (host:port)
}

// RAGConfig holds the base URL of the external document-query service
type RAGConfig struct {
	BaseURL string
}

// StorageConfig holds local file storage configuration
type StorageConfig struct {
	UploadDir string // where knowledge documents are spooled until indexed
}

// PortalConfig holds the login and dashboard destinations for one portal.
// Destinations are configuration, not constants: each portal may live on its
// own origin and carry its own login page.
type PortalConfig struct {
	LoginURL     string
	DashboardURL string
}

// LoggingConfig holds logging-related configuration
type LoggingConfig struct {
	Level  string
	Format string // json, console
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env files (fails silently if files don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	dbURL := getenv("DATABASE_URL", "learnd.sqlite")
	redisAddr := getenv("REDIS_ADDRESS", "localhost:6379")
	ragBaseURL := getenv("RAG_BASE_URL", "http://localhost:8000")

	portals := make(map[Portal]PortalConfig, len(Portals))
	for _, portal := range Portals {
		prefix := strings.ToUpper(string(portal))
		portals[portal] = PortalConfig{
			LoginURL:     getenv(prefix+"_LOGIN_URL", "/login"),
			DashboardURL: getenv(prefix+"_DASHBOARD_URL", "/"),
		}
	}

	logLevel := getenv("LOG_LEVEL", "info")
	logFormat := getenv("LOG_FORMAT", "json")

	return &Config{
		Database: DatabaseConfig{
			URL: dbURL,
		},
		Redis: RedisConfig{
			Address: redisAddr,
		},
		RAG: RAGConfig{
			BaseURL: strings.TrimRight(ragBaseURL, "/"),
		},
		Storage: StorageConfig{
			UploadDir: getenv("UPLOAD_DIR", "uploads"),
		},
		Portals: portals,
		Logging: LoggingConfig{
			Level:  logLevel,
			Format: logFormat,
		},
	}, nil
}

// ParsePortal maps a portal path segment to a known Portal.
func ParsePortal(s string) (Portal, error) {
	switch Portal(strings.ToLower(s)) {
	case PortalStudent:
		return PortalStudent, nil
	case PortalLecturer:
		return PortalLecturer, nil
	case PortalAdmin:
		return PortalAdmin, nil
	}
	return "", fmt.Errorf("unknown portal %q", s)
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
