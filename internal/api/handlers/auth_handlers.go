package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/fitrelay/strava-auth-proxy/internal/logging"
	"github.com/fitrelay/strava-auth-proxy/internal/strava"
	"github.com/fitrelay/strava-auth-proxy/internal/util"
)

// AuthHandler serves the OAuth lifecycle endpoints: authorization URL
// construction, code-for-token exchange, and refresh-token rotation.
type AuthHandler struct {
	oauth *strava.OAuthClient
}

// NewAuthHandler creates an AuthHandler backed by the given OAuth client.
func NewAuthHandler(oauth *strava.OAuthClient) *AuthHandler {
	return &AuthHandler{oauth: oauth}
}

// exchangeRequest is the body of POST /api/exchange-token.
type exchangeRequest struct {
	Code string `json:"code"`
}

// refreshRequest is the body of POST /api/refresh-token.
type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// AuthURL handles GET /api/auth-url. Query parameters redirect_uri and
// scopes optionally override the configured defaults.
func (h *AuthHandler) AuthURL(c *gin.Context) {
	authURL, err := h.oauth.GenerateAuthURL(strava.AuthorizationRequest{
		RedirectURI: c.Query("redirect_uri"),
		Scopes:      c.Query("scopes"),
	})
	if err != nil {
		writeError(c, err)
		return
	}

	log.WithField("request_id", logging.GetGinRequestID(c)).Debug("authorization URL generated")
	c.JSON(http.StatusOK, gin.H{"auth_url": authURL})
}

// ExchangeToken handles POST /api/exchange-token. The token pair minted by
// Strava is relayed to the caller byte for byte; the proxy keeps no copy.
func (h *AuthHandler) ExchangeToken(c *gin.Context) {
	var req exchangeRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Code == "" {
		writeError(c, &strava.MissingCredentialError{Field: "authorization code"})
		return
	}

	pair, err := h.oauth.ExchangeCode(c.Request.Context(), req.Code)
	if err != nil {
		writeError(c, err)
		return
	}

	log.WithField("request_id", logging.GetGinRequestID(c)).
		Debugf("token exchange succeeded, access token %s", util.MaskToken(pair.AccessToken))
	c.Data(http.StatusOK, "application/json", pair.Raw())
}

// RefreshToken handles POST /api/refresh-token. Because Strava may rotate the
// refresh token on every use, the returned pair is what the caller must
// persist, not the token it sent.
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.RefreshToken == "" {
		writeError(c, &strava.MissingCredentialError{Field: "refresh token"})
		return
	}

	pair, err := h.oauth.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		writeError(c, err)
		return
	}

	log.WithField("request_id", logging.GetGinRequestID(c)).
		Debugf("token refresh succeeded, access token %s", util.MaskToken(pair.AccessToken))
	c.Data(http.StatusOK, "application/json", pair.Raw())
}
