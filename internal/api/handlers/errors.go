// Package handlers implements the HTTP endpoint handlers for the Strava auth
// proxy and the normalization of component failures into the external error
// envelope.
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/fitrelay/strava-auth-proxy/internal/logging"
	"github.com/fitrelay/strava-auth-proxy/internal/strava"
)

// Stable error kinds exposed to clients. Each maps to exactly one external
// HTTP status.
const (
	KindMissingCredential   = "missing_credential"
	KindAuthExchangeFailed  = "auth_exchange_failed"
	KindTokenRejected       = "token_rejected"
	KindUpstreamUnavailable = "upstream_unavailable"
	KindInternalError       = "internal_error"
)

// ErrorEnvelope is the uniform JSON error body for every failing call.
// It never carries secrets or upstream internals beyond a human-readable
// message.
type ErrorEnvelope struct {
	// StatusCode mirrors the external HTTP status of the response.
	StatusCode int `json:"status_code"`
	// ErrorKind is a stable machine-readable failure identifier.
	ErrorKind string `json:"error_kind"`
	// Message is a human-readable description of the failure.
	Message string `json:"message"`
	// UpstreamStatus records Strava's status code when one was received.
	UpstreamStatus int `json:"upstream_status,omitempty"`
}

// normalizeError maps a component failure onto the external taxonomy.
func normalizeError(err error) ErrorEnvelope {
	var missing *strava.MissingCredentialError
	if errors.As(err, &missing) {
		return ErrorEnvelope{
			StatusCode: http.StatusBadRequest,
			ErrorKind:  KindMissingCredential,
			Message:    missing.Error(),
		}
	}

	var exchange *strava.ExchangeError
	if errors.As(err, &exchange) {
		status := http.StatusBadRequest
		if exchange.StatusCode == http.StatusUnauthorized {
			status = http.StatusUnauthorized
		}
		return ErrorEnvelope{
			StatusCode:     status,
			ErrorKind:      KindAuthExchangeFailed,
			Message:        "Strava rejected the request: " + exchange.Message,
			UpstreamStatus: exchange.StatusCode,
		}
	}

	var rejected *strava.TokenRejectedError
	if errors.As(err, &rejected) {
		return ErrorEnvelope{
			StatusCode:     http.StatusUnauthorized,
			ErrorKind:      KindTokenRejected,
			Message:        "Strava rejected the access token: " + rejected.Message,
			UpstreamStatus: rejected.StatusCode,
		}
	}

	var upstream *strava.UpstreamError
	if errors.As(err, &upstream) {
		envelope := ErrorEnvelope{
			StatusCode: http.StatusBadGateway,
			ErrorKind:  KindUpstreamUnavailable,
			Message:    "Strava is unreachable or returned an unusable response",
		}
		if upstream.StatusCode != 0 {
			envelope.UpstreamStatus = upstream.StatusCode
		}
		return envelope
	}

	return ErrorEnvelope{
		StatusCode: http.StatusInternalServerError,
		ErrorKind:  KindInternalError,
		Message:    "internal server error",
	}
}

// writeError converts err into its envelope and renders it. The envelope is
// the only thing that reaches the client; the full error goes to the log.
func writeError(c *gin.Context, err error) {
	envelope := normalizeError(err)
	entry := log.WithFields(log.Fields{
		"request_id": logging.GetGinRequestID(c),
		"path":       c.Request.URL.Path,
		"error":      err,
	})
	if envelope.StatusCode >= http.StatusInternalServerError {
		entry.Error("request failed")
	} else {
		entry.Warn("request failed")
	}
	c.JSON(envelope.StatusCode, envelope)
}
