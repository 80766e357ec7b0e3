package server

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"github.com/learnd-dev/learnd/internal/config"
	"github.com/learnd-dev/learnd/internal/session"
)

// relayParamFor returns the query parameter each portal's identity payload
// arrives under. These names are part of the handoff contract with the
// front-ends and must not change.
func relayParamFor(portal config.Portal) string {
	switch portal {
	case config.PortalLecturer:
		return "lecturerData"
	case config.PortalAdmin:
		return "adminData"
	default:
		return "userData"
	}
}

// @Summary Cross-origin auth relay
// @Description One-shot handoff: decodes a URL-carried identity payload, persists it as the portal's session record, and redirects into the portal
// @Tags auth
// @Param portal path string true "Portal name (student, lecturer, admin)"
// @Success 302
// @Router /auth/relay/{portal} [get]
func (s *Server) relay(c *gin.Context) {
	portal, err := config.ParsePortal(c.Param("portal"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Unknown portal"})
		return
	}

	destinations := s.config.Portals[portal]
	key := session.KeyFor(portal)
	ctx := c.Request.Context()

	// A valid record may already exist (the user re-entered the flow);
	// reuse it without rewriting.
	if existing, err := s.sessions.Get(ctx, key); err == nil {
		if rec, err := session.ParseRecord(existing); err == nil && rec.IsLoggedIn {
			s.logger.Debug().Str("portal", string(portal)).Msg("Reusing existing session record")
			c.Redirect(http.StatusFound, destinations.DashboardURL)
			return
		}
	}

	payload := c.Query(relayParamFor(portal))
	if payload == "" {
		s.logger.Warn().Str("portal", string(portal)).Msg("Relay called without identity payload")
		c.Redirect(http.StatusFound, destinations.LoginURL)
		return
	}

	// The router already URL-decoded the parameter; what remains must parse
	// as a well-formed identity record. On any failure nothing is written -
	// the store write and the login redirect are mutually exclusive.
	record, err := session.ParseRecord([]byte(payload))
	if err != nil {
		s.logger.Warn().Err(err).Str("portal", string(portal)).Msg("Malformed identity payload")
		c.Redirect(http.StatusFound, destinations.LoginURL)
		return
	}

	if err := s.sessions.Set(ctx, key, record.Raw); err != nil {
		s.logger.Error().Err(err).Str("portal", string(portal)).Msg("Failed to persist session record")
		c.Redirect(http.StatusFound, destinations.LoginURL)
		return
	}

	s.logger.Info().
		Str("portal", string(portal)).
		Str("role", record.Role).
		Msg("Identity relayed into session store")

	c.Redirect(http.StatusFound, destinations.DashboardURL)
}

// buildRelayURL assembles the relay URL the identity provider side hands to
// the browser: /auth/relay/{portal}?{param}={urlencoded record}.
func buildRelayURL(portal config.Portal, record []byte) string {
	values := url.Values{}
	values.Set(relayParamFor(portal), string(record))
	return "/auth/relay/" + string(portal) + "?" + values.Encode()
}
