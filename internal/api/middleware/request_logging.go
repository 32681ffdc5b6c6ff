package middleware

import (
	"bytes"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/fitrelay/strava-auth-proxy/internal/logging"
	"github.com/fitrelay/strava-auth-proxy/internal/util"
)

// maxCapturedRequestBodyBytes bounds per-request body capture to avoid
// memory spikes from oversized payloads.
const maxCapturedRequestBodyBytes int64 = 1 << 20 // 1 MiB

// requestLogEnabled gates debug body logging. It is hot-reloadable through
// the config watcher.
var requestLogEnabled atomic.Bool

// SetRequestLogEnabled toggles debug body logging at runtime.
func SetRequestLogEnabled(enabled bool) {
	requestLogEnabled.Store(enabled)
}

// RequestID assigns an 8-character hex ID to every request and threads it
// through both the Gin context and the request's context.Context so outbound
// calls and log lines correlate.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := logging.GenerateRequestID()
		logging.SetGinRequestID(c, requestID)
		c.Request = c.Request.WithContext(logging.WithRequestID(c.Request.Context(), requestID))
		c.Next()
	}
}

// RequestLogging logs method, path, status, and latency for every request at
// info level. When request logging is enabled and the logger is at debug,
// POST bodies are logged with token and secret fields redacted. Tokens never
// reach a log line in clear text.
func RequestLogging() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		if requestLogEnabled.Load() && log.IsLevelEnabled(log.DebugLevel) {
			logRequestBody(c)
		}

		c.Next()

		log.WithFields(log.Fields{
			"request_id": logging.GetGinRequestID(c),
			"path":       path,
			"status":     c.Writer.Status(),
			"latency":    time.Since(start).Round(time.Millisecond),
		}).Infof("%s %s", c.Request.Method, path)
	}
}

// logRequestBody captures and restores the request body, then logs a
// redacted copy together with a masked Authorization header.
func logRequestBody(c *gin.Context) {
	if c.Request.Method != http.MethodPost || c.Request.Body == nil {
		return
	}
	if c.Request.ContentLength <= 0 || c.Request.ContentLength > maxCapturedRequestBodyBytes {
		return
	}

	bodyBytes, err := io.ReadAll(io.LimitReader(c.Request.Body, maxCapturedRequestBodyBytes))
	if err != nil {
		return
	}
	c.Request.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))

	log.WithFields(log.Fields{
		"request_id": logging.GetGinRequestID(c),
		"path":       c.Request.URL.Path,
	}).Debugf("request body: %s, authorization: %s",
		util.RedactTokenJSON(bodyBytes),
		util.MaskAuthorizationHeader(c.GetHeader("Authorization")))
}
