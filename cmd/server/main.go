// Package main provides the entry point for the Strava auth proxy server.
// The server performs the OAuth authorization-code and refresh flows on
// behalf of browser clients, keeping the Strava client secret server-side,
// and passes a small set of authenticated read endpoints through unchanged.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/fitrelay/strava-auth-proxy/internal/api"
	"github.com/fitrelay/strava-auth-proxy/internal/api/middleware"
	"github.com/fitrelay/strava-auth-proxy/internal/buildinfo"
	"github.com/fitrelay/strava-auth-proxy/internal/config"
	"github.com/fitrelay/strava-auth-proxy/internal/logging"
	"github.com/fitrelay/strava-auth-proxy/internal/watcher"
)

// init initializes the shared logger setup.
func init() {
	logging.SetupBaseLogger()
}

// main parses flags, loads configuration, and runs the HTTP server alongside
// the config watcher until a shutdown signal arrives.
func main() {
	fmt.Printf("strava-auth-proxy Version: %s, Commit: %s, BuiltAt: %s\n", buildinfo.Version, buildinfo.Commit, buildinfo.BuildDate)

	var configPath string
	flag.StringVar(&configPath, "config", "", "Configuration file path")
	flag.Parse()

	wd, err := os.Getwd()
	if err != nil {
		log.Errorf("failed to get working directory: %v", err)
		return
	}

	// Load environment variables from .env if present. Primarily for local
	// development; deployments set real environment variables.
	if errLoad := godotenv.Load(filepath.Join(wd, ".env")); errLoad != nil {
		if !errors.Is(errLoad, os.ErrNotExist) {
			log.WithError(errLoad).Warn("failed to load .env file")
		}
	}

	if configPath == "" {
		configPath = filepath.Join(wd, "config.yaml")
	}
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		log.Errorf("failed to load config: %v", err)
		return
	}
	if err = cfg.Validate(); err != nil {
		log.Errorf("invalid configuration: %v", err)
		os.Exit(1)
	}

	if err = logging.ConfigureLogOutput(cfg.LoggingToFile, filepath.Join(wd, "logs")); err != nil {
		log.Errorf("failed to configure log output: %v", err)
		return
	}
	logging.SetLogLevel(cfg.Debug)

	// Presence only; the credential values themselves are never logged.
	log.Infof("strava credentials loaded (client id set: %t), expected redirect uri: %s",
		cfg.Credentials.ClientID != "", cfg.Credentials.RedirectURI)

	server := api.NewServer(cfg)

	configWatcher, err := watcher.NewWatcher(configPath, func(newCfg *config.Config) {
		logging.SetLogLevel(newCfg.Debug)
		middleware.SetRequestLogEnabled(newCfg.RequestLog)
	})
	if err != nil {
		log.Errorf("failed to create config watcher: %v", err)
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return server.Run(groupCtx)
	})
	group.Go(func() error {
		if errWatch := configWatcher.Start(groupCtx); errWatch != nil && !errors.Is(errWatch, context.Canceled) {
			log.Errorf("config watcher stopped: %v", errWatch)
		}
		return nil
	})

	if err = group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Errorf("server exited with error: %v", err)
		os.Exit(1)
	}
}
