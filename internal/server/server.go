// Package server
//
// @title Learnd API
// @version 1.0
// @description Multi-portal e-learning service API
// @host localhost:8080
// @BasePath /
package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/go-playground/validator/v10"
	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/learnd-dev/learnd/internal/auth"
	"github.com/learnd-dev/learnd/internal/config"
	"github.com/learnd-dev/learnd/internal/models"
	"github.com/learnd-dev/learnd/internal/rag"
	"github.com/learnd-dev/learnd/internal/session"
)

// Server represents the HTTP server
type Server struct {
	router      *gin.Engine
	db          *gorm.DB
	config      *config.Config
	logger      zerolog.Logger
	validator   *validator.Validate
	asynqClient *asynq.Client
	sessions    session.Store
	ragClient   *rag.Client
	version     string
}

// New creates a new server instance
func New(cfg *config.Config, zlog zerolog.Logger, version string) (*Server, error) {
	// Initialize database with production settings
	db, err := initDatabase(cfg, zlog)
	if err != nil {
		return nil, err
	}

	// Run database migrations
	if err := models.AutoMigrate(db); err != nil {
		return nil, err
	}

	// Initialize JWT authentication
	// Load JWT secret from database (auto-generated during first setup)
	var settings models.Settings
	if err := db.First(&settings).Error; err == nil {
		auth.InitializeJWT(settings.JWTSecret)
		zlog.Debug().Msg("Loaded JWT secret from database")
	} else {
		// No settings yet - first setup hasn't happened
		// JWT will be initialized during setupFirstAdmin
		zlog.Info().Msg("No settings found - JWT will be initialized during first setup")
	}

	// Initialize Asynq client for enqueueing tasks
	asynqClient := asynq.NewClient(asynq.RedisClientOpt{
		Addr: cfg.Redis.Address,
	})

	// The session store is shared with every portal instance
	sessions := session.NewRedisStore(cfg.Redis.Address)

	ragClient := rag.New(cfg.RAG.BaseURL)

	return newServer(cfg, zlog, db, sessions, ragClient, asynqClient, version), nil
}

// newServer wires a server from its collaborators (used directly by tests)
func newServer(cfg *config.Config, zlog zerolog.Logger, db *gorm.DB, sessions session.Store,
	ragClient *rag.Client, asynqClient *asynq.Client, version string) *Server {
	server := &Server{
		db:          db,
		config:      cfg,
		logger:      zlog,
		validator:   newValidator(),
		asynqClient: asynqClient,
		sessions:    sessions,
		ragClient:   ragClient,
		version:     version,
	}

	server.setupRouter()

	return server
}

// newValidator builds the request validator with custom rules
func newValidator() *validator.Validate {
	validate := validator.New()

	validate.RegisterValidation("alphanumdash", func(fl validator.FieldLevel) bool {
		// Allow alphanumeric, hyphens, and underscores only
		value := fl.Field().String()
		for _, char := range value {
			if !((char >= 'a' && char <= 'z') ||
				(char >= 'A' && char <= 'Z') ||
				(char >= '0' && char <= '9') ||
				char == '-' ||
				char == '_') {
				return false
			}
		}
		return true
	})

	return validate
}

// initDatabase initializes the database connection with production settings
func initDatabase(cfg *config.Config, zlog zerolog.Logger) (*gorm.DB, error) {
	const (
		maxOpenConns    = 8
		maxIdleConns    = 4
		connMaxLifetime = 300  // 5 minutes
		busyTimeout     = 5000 // 5 seconds
		cacheSize       = 10000
	)

	// Open database connection
	db, err := gorm.Open(sqlite.Open(cfg.Database.URL), &gorm.Config{
		Logger: logger.New(
			log.New(os.Stdout, "\r\n", log.LstdFlags),
			logger.Config{
				LogLevel:                  logger.Error,
				IgnoreRecordNotFoundError: true,
				SlowThreshold:             200 * time.Millisecond,
			},
		),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Get underlying sql.DB to configure connection pool
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(maxOpenConns)
	sqlDB.SetMaxIdleConns(maxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(connMaxLifetime) * time.Second)

	// Test the connection
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// Apply SQLite pragmas; WAL mode must be set first for concurrency
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		fmt.Sprintf("PRAGMA busy_timeout=%d", busyTimeout),
		fmt.Sprintf("PRAGMA cache_size=-%d", cacheSize),
		"PRAGMA foreign_keys=1",
		"PRAGMA temp_store=2",
	}

	for _, pragma := range pragmas {
		if err := db.Exec(pragma).Error; err != nil {
			zlog.Warn().Str("pragma", pragma).Err(err).Msg("Failed to apply pragma")
		}
	}

	return db, nil
}

// setupRouter configures the Gin router with routes and middleware
func (s *Server) setupRouter() {
	gin.SetMode(gin.ReleaseMode)

	s.router = gin.New()

	// Add middleware
	s.router.Use(gin.Recovery())
	s.router.Use(s.loggingMiddleware())

	// CORS middleware: each portal runs on its own origin in development
	s.router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:3000", "http://localhost:3001", "http://localhost:3002"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Health check endpoint (no auth required)
	s.router.GET("/health", s.healthCheck)

	// Public auth endpoints (no auth required)
	s.router.POST("/api/setup", s.setupFirstAdmin)
	s.router.POST("/api/auth/login", s.login)

	// Cross-origin auth relay: one-shot identity handoff into the session store
	s.router.GET("/auth/relay/:portal", s.relay)

	// Session-guarded portal views: page controllers run only after the
	// guard admits the stored session
	for _, portal := range config.Portals {
		destinations := s.config.Portals[portal]
		group := s.router.Group("/portal/"+string(portal),
			SessionGuard(s.sessions, destinations.LoginURL, s.logger, guardRolesFor(portal)...))

		group.GET("/courses", s.listCourses)
		group.GET("/courses/:code", s.getCourse)
		group.GET("/courses/:code/feedback", s.listFeedback)

		if portal == config.PortalLecturer || portal == config.PortalAdmin {
			group.POST("/courses", s.createCourse)
			group.PUT("/courses/:code", s.updateCourse)
			group.GET("/courses/:code/students", s.listCourseStudents)
			group.POST("/courses/:code/lessons", s.createLesson)
			group.POST("/courses/:code/quizzes", s.createQuiz)
		}
		if portal == config.PortalAdmin {
			group.DELETE("/courses/:code", s.deleteCourse)
		}
	}

	// Authenticated API routes (JWT required)
	api := s.router.Group("/api")
	api.Use(JWTAuthMiddleware(s.db, s.logger))
	{
		// Auth endpoints
		api.GET("/auth/me", s.getCurrentUser)

		// Course catalog
		api.GET("/courses", s.listCourses)
		api.GET("/courses/:code", s.getCourse)
		api.GET("/courses/:code/feedback", s.listFeedback)

		// Student operations
		api.POST("/courses/:code/enroll", s.enrollStudent)
		api.POST("/courses/:code/feedback", s.submitFeedback)
		api.GET("/notifications", s.listNotifications)
		api.POST("/notifications/:id/read", s.markNotificationRead)
		api.GET("/knowledge", s.getKnowledgeProfile)
		api.PUT("/knowledge", s.updateKnowledgeProfile)
		api.POST("/knowledge/documents", s.uploadKnowledgeDocument)
		api.POST("/chat/query", s.chatQuery)
		api.POST("/chat/context", s.chatContext)

		// Course management (lecturers and admins)
		manage := api.Group("")
		manage.Use(RequireRoles(s.logger, models.RoleLecturer, models.RoleAdmin))
		{
			manage.POST("/courses", s.createCourse)
			manage.PUT("/courses/:code", s.updateCourse)
			manage.GET("/courses/:code/students", s.listCourseStudents)
			manage.POST("/courses/:code/lessons", s.createLesson)
			manage.POST("/courses/:code/quizzes", s.createQuiz)
		}

		// Administration (admin only)
		admin := api.Group("")
		admin.Use(RequireRoles(s.logger, models.RoleAdmin))
		{
			admin.GET("/users", s.listUsers)
			admin.POST("/users", s.createUser)
			admin.DELETE("/users/:id", s.deleteUser)
			admin.DELETE("/courses/:code", s.deleteCourse)
			admin.GET("/settings", s.getSettings)
			admin.PATCH("/settings", s.updateSettings)
		}
	}
}

// loggingMiddleware creates a custom logging middleware using zerolog
func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start)

		s.logger.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("duration", duration).
			Str("client_ip", c.ClientIP()).
			Msg("HTTP request")
	}
}

// @Router /health [get]
// @Success 200 {object} map[string]interface{}
func (s *Server) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "online",
		"timestamp": time.Now().UTC(),
		"service":   "learnd-api",
	})
}

// GetDB returns the database connection for use by workers
func (s *Server) GetDB() *gorm.DB {
	return s.db
}

// GetRAGClient returns the RAG client for use by workers
func (s *Server) GetRAGClient() *rag.Client {
	return s.ragClient
}

// Start starts the HTTP server
func (s *Server) Start() error {
	port := ":8080"

	// Setup signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Create HTTP server with production timeouts
	srv := &http.Server{
		Addr:    port,
		Handler: s.router,
		// Generous write timeout for large document uploads
		ReadTimeout:       120 * time.Second,
		WriteTimeout:      120 * time.Second,
		ReadHeaderTimeout: 30 * time.Second,
		IdleTimeout:       300 * time.Second,
	}

	// Start server in goroutine
	go func() {
		s.logger.Info().Str("port", port).Msg("Starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error().Err(err).Msg("HTTP server error")
		}
	}()

	// Wait for shutdown signal
	<-sigChan
	s.logger.Info().Msg("Received shutdown signal, shutting down gracefully...")

	// Close Asynq client
	if err := s.asynqClient.Close(); err != nil {
		s.logger.Warn().Err(err).Msg("Error closing Asynq client")
	}

	// Shutdown HTTP server with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	s.logger.Info().Msg("Shutting down HTTP server...")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.logger.Error().Err(err).Msg("Error shutting down HTTP server")
		return err
	}

	// Release the session store connection
	if store, ok := s.sessions.(*session.RedisStore); ok {
		if err := store.Close(); err != nil {
			s.logger.Warn().Err(err).Msg("Error closing session store")
		}
	}

	// Close database connection to flush WAL writes
	if sqlDB, err := s.db.DB(); err == nil {
		s.logger.Info().Msg("Closing database connection...")
		if err := sqlDB.Close(); err != nil {
			s.logger.Error().Err(err).Msg("Error closing database")
		}
	}

	s.logger.Info().Msg("Server shutdown complete")

	return nil
}
