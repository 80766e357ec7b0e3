package userconfig

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadReturnsEmptyConfigWhenMissing(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)
	require.Empty(t, cfg.ServerURL)
}

func TestSetAndGetServerURL(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	require.NoError(t, SetServerURL("http://localhost:8080"))

	serverURL, err := GetServerURL()
	require.NoError(t, err)
	require.Equal(t, "http://localhost:8080", serverURL)
}

func TestSaveOverwritesExisting(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	require.NoError(t, SetServerURL("http://old.example.com"))
	require.NoError(t, SetServerURL("http://new.example.com"))

	serverURL, err := GetServerURL()
	require.NoError(t, err)
	require.Equal(t, "http://new.example.com", serverURL)
}
