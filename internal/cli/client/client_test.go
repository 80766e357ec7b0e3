package client

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLogin(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/auth/login", r.URL.Path)

		var req LoginRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "ada@example.com", req.Email)
		require.Equal(t, "secret", req.Password)

		json.NewEncoder(w).Encode(map[string]any{
			"token":     "jwt-token",
			"relay_url": "/auth/relay/student?userData=%7B%7D",
			"user": map[string]any{
				"id":    "01ABC",
				"email": "ada@example.com",
				"name":  "Ada",
				"role":  "Student",
			},
		})
	}))
	defer server.Close()

	c := New(server.URL)
	resp, err := c.Login("ada@example.com", "secret")
	require.NoError(t, err)
	require.Equal(t, "jwt-token", resp.Token)
	require.Equal(t, "Ada", resp.User.Name)
	require.Equal(t, "Student", resp.User.Role)
}

func TestLoginRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":"Invalid credentials"}`))
	}))
	defer server.Close()

	c := New(server.URL)
	_, err := c.Login("ada@example.com", "wrong")
	require.Error(t, err)
	require.Contains(t, err.Error(), "status 401")
}

func TestNewTrimsTrailingSlash(t *testing.T) {
	c := New("http://localhost:8080/")
	require.Equal(t, "http://localhost:8080", c.baseURL)
}
