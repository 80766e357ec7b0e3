package workers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/learnd-dev/learnd/internal/models"
	"github.com/learnd-dev/learnd/internal/rag"
	"github.com/learnd-dev/learnd/internal/tasks"
)

func TestHandleKnowledgeIndex(t *testing.T) {
	db := newTestDB(t)

	user := &models.User{Email: "ada@example.com", PasswordHash: "x", Name: "Ada", Role: models.RoleStudent}
	require.NoError(t, db.Create(user).Error)

	profile := &models.KnowledgeProfile{UserID: user.ID, Difficulty: "beginner", LearningStyle: "visual", HoursPerWeek: 10}
	require.NoError(t, db.Create(profile).Error)

	spooled := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(spooled, []byte("lecture notes"), 0o644))

	doc := &models.KnowledgeDocument{
		ProfileID: profile.ID,
		Title:     "notes.txt",
		FileHash:  "abc",
		FileType:  ".txt",
		LocalPath: spooled,
	}
	require.NoError(t, db.Create(doc).Error)

	var uploads int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		uploads++
		require.Equal(t, "/rag/upload", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1 << 20))
		_, header, err := r.FormFile("file")
		require.NoError(t, err)
		require.Equal(t, "notes.txt", header.Filename)
		w.Write([]byte(`{"status":"ok"}`))
	}))
	defer server.Close()

	task, err := tasks.NewKnowledgeIndexTask(doc.ID)
	require.NoError(t, err)
	require.NoError(t, HandleKnowledgeIndex(context.Background(), task, db, rag.New(server.URL), zerolog.Nop()))
	require.Equal(t, 1, uploads)

	var updated models.KnowledgeDocument
	require.NoError(t, models.FindByID(db, doc.ID, &updated))
	require.True(t, updated.Indexed)
	require.NotNil(t, updated.IndexedAt)
	require.Empty(t, updated.LocalPath)

	// The spooled file is cleaned up after a successful upload
	_, statErr := os.Stat(spooled)
	require.True(t, os.IsNotExist(statErr))

	// Re-running the task is a no-op
	require.NoError(t, HandleKnowledgeIndex(context.Background(), task, db, rag.New(server.URL), zerolog.Nop()))
	require.Equal(t, 1, uploads)
}

func TestHandleKnowledgeIndexMissingDocument(t *testing.T) {
	db := newTestDB(t)

	task, err := tasks.NewKnowledgeIndexTask("01XYZDOESNOTEXIST")
	require.NoError(t, err)

	// A vanished document is not an error worth retrying
	require.NoError(t, HandleKnowledgeIndex(context.Background(), task, db, rag.New("http://127.0.0.1:1"), zerolog.Nop()))
}
