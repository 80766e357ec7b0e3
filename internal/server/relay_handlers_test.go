package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/learnd-dev/learnd/internal/config"
	"github.com/learnd-dev/learnd/internal/session"
)

func relayRequest(t *testing.T, s *Server, portal, param, payload string) *httptest.ResponseRecorder {
	t.Helper()

	target := "/auth/relay/" + portal
	if param != "" {
		values := url.Values{}
		values.Set(param, payload)
		target += "?" + values.Encode()
	}

	req := httptest.NewRequest(http.MethodGet, target, nil)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func TestRelayStoresRecordAndRedirects(t *testing.T) {
	s := newTestServer(t)

	payload := `{"role":"Student","isLoggedIn":true,"name":"Ada","email":"ada@example.com"}`
	w := relayRequest(t, s, "student", "userData", payload)

	require.Equal(t, http.StatusFound, w.Code)
	require.Equal(t, "http://student.test/dashboard", w.Header().Get("Location"))

	// The stored record is byte-for-byte what arrived
	stored, err := s.sessions.Get(context.Background(), session.KeyStudent)
	require.NoError(t, err)
	require.Equal(t, payload, string(stored))
}

func TestRelayDecodesPercentEncodedPayload(t *testing.T) {
	s := newTestServer(t)

	// Pre-encoded {"role":"Admin","isLoggedIn":true} exactly as a front-end
	// puts it on the wire
	target := "/auth/relay/admin?adminData=%7B%22role%22%3A%22Admin%22%2C%22isLoggedIn%22%3Atrue%7D"
	req := httptest.NewRequest(http.MethodGet, target, nil)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusFound, w.Code)
	require.Equal(t, "http://admin.test/dashboard", w.Header().Get("Location"))

	stored, err := s.sessions.Get(context.Background(), session.KeyAdmin)
	require.NoError(t, err)
	require.Equal(t, `{"role":"Admin","isLoggedIn":true}`, string(stored))
}

func TestRelayPortalParamNames(t *testing.T) {
	cases := []struct {
		portal string
		param  string
		key    string
		role   string
	}{
		{"student", "userData", session.KeyStudent, "Student"},
		{"lecturer", "lecturerData", session.KeyLecturer, "Lecturer"},
		{"admin", "adminData", session.KeyAdmin, "Admin"},
	}

	for _, tc := range cases {
		t.Run(tc.portal, func(t *testing.T) {
			s := newTestServer(t)

			payload := `{"role":"` + tc.role + `","isLoggedIn":true}`
			w := relayRequest(t, s, tc.portal, tc.param, payload)

			require.Equal(t, http.StatusFound, w.Code)
			require.Equal(t, "http://"+tc.portal+".test/dashboard", w.Header().Get("Location"))

			stored, err := s.sessions.Get(context.Background(), tc.key)
			require.NoError(t, err)
			require.Equal(t, payload, string(stored))
		})
	}
}

func TestRelayMissingPayloadRedirectsToLogin(t *testing.T) {
	s := newTestServer(t)

	w := relayRequest(t, s, "student", "", "")

	require.Equal(t, http.StatusFound, w.Code)
	require.Equal(t, "http://student.test/login", w.Header().Get("Location"))

	_, err := s.sessions.Get(context.Background(), session.KeyStudent)
	require.ErrorIs(t, err, session.ErrNotFound)
}

func TestRelayMalformedPayloadWritesNothing(t *testing.T) {
	s := newTestServer(t)

	for name, payload := range map[string]string{
		"not json":          "%%%not-json%%%",
		"missing role":      `{"isLoggedIn":true}`,
		"missing flag":      `{"role":"Student"}`,
		"wrong role type":   `{"role":42,"isLoggedIn":true}`,
		"wrong portal data": `[]`,
	} {
		t.Run(name, func(t *testing.T) {
			w := relayRequest(t, s, "student", "userData", payload)

			// Redirect to login and the store write are mutually exclusive
			require.Equal(t, http.StatusFound, w.Code)
			require.Equal(t, "http://student.test/login", w.Header().Get("Location"))

			_, err := s.sessions.Get(context.Background(), session.KeyStudent)
			require.ErrorIs(t, err, session.ErrNotFound)
		})
	}
}

func TestRelayReusesExistingSession(t *testing.T) {
	s := newTestServer(t)

	existing := []byte(`{"role":"Admin","isLoggedIn":true,"name":"Root"}`)
	require.NoError(t, s.sessions.Set(context.Background(), session.KeyAdmin, existing))

	// Re-entering the flow without a payload still lands on the dashboard
	w := relayRequest(t, s, "admin", "", "")
	require.Equal(t, http.StatusFound, w.Code)
	require.Equal(t, "http://admin.test/dashboard", w.Header().Get("Location"))

	// The existing record is not rewritten by a new payload either
	w = relayRequest(t, s, "admin", "adminData", `{"role":"Admin","isLoggedIn":true,"name":"Other"}`)
	require.Equal(t, http.StatusFound, w.Code)

	stored, err := s.sessions.Get(context.Background(), session.KeyAdmin)
	require.NoError(t, err)
	require.Equal(t, existing, stored)
}

func TestRelayUnknownPortal(t *testing.T) {
	s := newTestServer(t)

	w := relayRequest(t, s, "superuser", "userData", `{"role":"Admin","isLoggedIn":true}`)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestBuildRelayURLRoundTrips(t *testing.T) {
	record := []byte(`{"role":"Lecturer","isLoggedIn":true,"email":"l@example.com"}`)

	relayURL := buildRelayURL(config.PortalLecturer, record)
	parsed, err := url.Parse(relayURL)
	require.NoError(t, err)
	require.Equal(t, "/auth/relay/lecturer", parsed.Path)
	require.Equal(t, string(record), parsed.Query().Get("lecturerData"))
}
