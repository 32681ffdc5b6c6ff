package handlers

import (
	"strings"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/fitrelay/strava-auth-proxy/internal/logging"
	"github.com/fitrelay/strava-auth-proxy/internal/strava"
)

// ProxyHandler serves the bearer-authenticated pass-through endpoints.
type ProxyHandler struct {
	client *strava.APIClient
}

// NewProxyHandler creates a ProxyHandler backed by the given data client.
func NewProxyHandler(client *strava.APIClient) *ProxyHandler {
	return &ProxyHandler{client: client}
}

// Activities handles GET /api/activities. The caller's query string is
// relayed to Strava verbatim.
func (h *ProxyHandler) Activities(c *gin.Context) {
	h.relay(c, strava.ActivitiesPath, c.Request.URL.RawQuery)
}

// AthleteZones handles GET /api/athlete/zones.
func (h *ProxyHandler) AthleteZones(c *gin.Context) {
	h.relay(c, strava.AthleteZonesPath, "")
}

// relay extracts the bearer token and forwards the read to Strava, passing
// the upstream body and status back unchanged.
func (h *ProxyHandler) relay(c *gin.Context, path, rawQuery string) {
	token := bearerToken(c.GetHeader("Authorization"))

	resp, err := h.client.Fetch(c.Request.Context(), path, token, rawQuery)
	if err != nil {
		writeError(c, err)
		return
	}

	if resp.StatusCode >= 400 {
		log.WithFields(log.Fields{
			"request_id":      logging.GetGinRequestID(c),
			"path":            c.Request.URL.Path,
			"upstream_status": resp.StatusCode,
		}).Warn("upstream error passed through")
	}

	contentType := resp.ContentType
	if contentType == "" {
		contentType = "application/json"
	}
	c.Data(resp.StatusCode, contentType, resp.Body)
}

// bearerToken strips the Bearer scheme from an Authorization header value.
// A missing or differently-typed header yields an empty token, which the
// data client rejects before any outbound call.
func bearerToken(header string) string {
	header = strings.TrimSpace(header)
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return strings.TrimSpace(parts[1])
	}
	return header
}
