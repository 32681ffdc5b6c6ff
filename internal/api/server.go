// Package api wires the Gin engine, routes, and HTTP server lifecycle for
// the Strava auth proxy.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/fitrelay/strava-auth-proxy/internal/api/handlers"
	"github.com/fitrelay/strava-auth-proxy/internal/api/middleware"
	"github.com/fitrelay/strava-auth-proxy/internal/config"
	"github.com/fitrelay/strava-auth-proxy/internal/strava"
)

// shutdownTimeout bounds how long in-flight requests may drain on shutdown.
const shutdownTimeout = 5 * time.Second

// Server hosts the HTTP surface of the proxy.
type Server struct {
	engine     *gin.Engine
	httpServer *http.Server
}

// NewServer builds the Gin engine, registers all routes, and prepares the
// HTTP server. Components receive the immutable configuration explicitly.
func NewServer(cfg *config.Config) *Server {
	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(middleware.CORS())
	engine.Use(middleware.RequestID())
	engine.Use(middleware.RequestLogging())

	middleware.SetRequestLogEnabled(cfg.RequestLog)

	oauthClient := strava.NewOAuthClient(cfg)
	apiClient := strava.NewAPIClient(cfg)

	registerRoutes(engine,
		handlers.NewAuthHandler(oauthClient),
		handlers.NewProxyHandler(apiClient),
		handlers.NewDebugHandler(cfg),
	)

	return &Server{
		engine: engine,
		httpServer: &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Port),
			Handler:           engine,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

// registerRoutes attaches every endpoint under the /api prefix.
func registerRoutes(engine *gin.Engine, auth *handlers.AuthHandler, proxy *handlers.ProxyHandler, debug *handlers.DebugHandler) {
	apiGroup := engine.Group("/api")
	{
		apiGroup.GET("/auth-url", auth.AuthURL)
		apiGroup.POST("/exchange-token", auth.ExchangeToken)
		apiGroup.POST("/refresh-token", auth.RefreshToken)
		apiGroup.GET("/activities", proxy.Activities)
		apiGroup.GET("/athlete/zones", proxy.AthleteZones)
		apiGroup.GET("/debug-info", debug.DebugInfo)
	}
}

// Engine exposes the underlying Gin engine for tests.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// Run serves HTTP until ctx is cancelled, then drains in-flight requests
// within the shutdown timeout.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		log.Infof("listening on %s", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	log.Info("server stopped")
	return <-errCh
}
