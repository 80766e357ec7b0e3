package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/learnd-dev/learnd/internal/auth"
	"github.com/learnd-dev/learnd/internal/config"
	"github.com/learnd-dev/learnd/internal/models"
	"github.com/learnd-dev/learnd/internal/rag"
	"github.com/learnd-dev/learnd/internal/session"
)

// newTestServer builds a server against an in-memory database, an in-memory
// session store, and a miniredis-backed task queue.
func newTestServer(t *testing.T) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	// In-memory SQLite is per-connection; keep the pool at one
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, models.AutoMigrate(db))

	mr := miniredis.RunT(t)
	asynqClient := asynq.NewClient(asynq.RedisClientOpt{Addr: mr.Addr()})
	t.Cleanup(func() { asynqClient.Close() })

	auth.InitializeJWT("test-secret")

	cfg := testConfig(t)

	return newServer(cfg, zerolog.Nop(), db, session.NewMemoryStore(),
		rag.New("http://127.0.0.1:1"), asynqClient, "test")
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()

	portals := make(map[config.Portal]config.PortalConfig, len(config.Portals))
	for _, portal := range config.Portals {
		portals[portal] = config.PortalConfig{
			LoginURL:     "http://" + string(portal) + ".test/login",
			DashboardURL: "http://" + string(portal) + ".test/dashboard",
		}
	}

	return &config.Config{
		Database: config.DatabaseConfig{URL: ":memory:"},
		Redis:    config.RedisConfig{Address: "localhost:6379"},
		RAG:      config.RAGConfig{BaseURL: "http://127.0.0.1:1"},
		Storage:  config.StorageConfig{UploadDir: t.TempDir()},
		Portals:  portals,
		Logging:  config.LoggingConfig{Level: "disabled", Format: "console"},
	}
}

// createTestUser inserts a user and returns it alongside a valid bearer token.
func createTestUser(t *testing.T, s *Server, email, role string) (*models.User, string) {
	t.Helper()

	hash, err := auth.HashPassword("password123")
	require.NoError(t, err)

	user := &models.User{
		Email:        email,
		PasswordHash: hash,
		Name:         "Test " + role,
		Role:         role,
	}
	require.NoError(t, s.db.Create(user).Error)

	token, err := auth.GenerateToken(user.ID, user.Email, user.Role)
	require.NoError(t, err)

	return user, token
}

func doRequest(t *testing.T, s *Server, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, out any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), out))
}

func TestHealthCheck(t *testing.T) {
	s := newTestServer(t)

	w := doRequest(t, s, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]any
	decodeBody(t, w, &body)
	require.Equal(t, "online", body["status"])
}
