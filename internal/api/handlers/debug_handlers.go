package handlers

import (
	"net/http"
	"runtime"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/fitrelay/strava-auth-proxy/internal/buildinfo"
	"github.com/fitrelay/strava-auth-proxy/internal/config"
)

// DebugHandler serves the non-sensitive configuration summary. The response
// reports whether credentials are set, never their values.
type DebugHandler struct {
	cfg        *config.Config
	instanceID string
	startTime  time.Time
}

// NewDebugHandler creates a DebugHandler for the given configuration.
func NewDebugHandler(cfg *config.Config) *DebugHandler {
	return &DebugHandler{
		cfg:        cfg,
		instanceID: uuid.NewString(),
		startTime:  time.Now().UTC(),
	}
}

// DebugInfo handles GET /api/debug-info.
func (h *DebugHandler) DebugInfo(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"client_id_set":         strings.TrimSpace(h.cfg.Credentials.ClientID) != "",
		"client_secret_set":     strings.TrimSpace(h.cfg.Credentials.ClientSecret) != "",
		"expected_redirect_uri": h.cfg.Credentials.RedirectURI,
		"server_time":           time.Now().UTC().Format(time.RFC3339),
		"started_at":            h.startTime.Format(time.RFC3339),
		"instance_id":           h.instanceID,
		"go_version":            runtime.Version(),
		"version":               buildinfo.Version,
		"commit":                buildinfo.Commit,
		"build_date":            buildinfo.BuildDate,
	})
}
