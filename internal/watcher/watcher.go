// Package watcher watches the configuration file and triggers debounced hot
// reloads of the settings that are safe to change at runtime.
package watcher

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	log "github.com/sirupsen/logrus"

	"github.com/fitrelay/strava-auth-proxy/internal/config"
)

// configReloadDebounce coalesces the burst of fsnotify events editors emit
// when they replace a file.
const configReloadDebounce = 150 * time.Millisecond

// Watcher manages file watching for the configuration file. Credentials are
// never hot-reloaded; they are immutable for the process lifetime.
type Watcher struct {
	configPath     string
	reloadCallback func(*config.Config)
	watcher        *fsnotify.Watcher

	reloadMu    sync.Mutex
	reloadTimer *time.Timer

	hashMu         sync.Mutex
	lastConfigHash string
}

// NewWatcher creates a watcher for configPath. reloadCallback runs with the
// freshly loaded configuration after each material change.
func NewWatcher(configPath string, reloadCallback func(*config.Config)) (*Watcher, error) {
	fsWatcher, errNewWatcher := fsnotify.NewWatcher()
	if errNewWatcher != nil {
		return nil, errNewWatcher
	}
	return &Watcher{
		configPath:     configPath,
		reloadCallback: reloadCallback,
		watcher:        fsWatcher,
	}, nil
}

// Start watches the config file's directory until ctx is cancelled. Watching
// the directory instead of the file survives atomic replaces (rename over).
func (w *Watcher) Start(ctx context.Context) error {
	dir := filepath.Dir(w.configPath)
	if err := w.watcher.Add(dir); err != nil {
		return err
	}
	log.Debugf("watching %s for config changes", w.configPath)

	defer func() {
		w.stopReloadTimer()
		_ = w.watcher.Close()
	}()

	configName := filepath.Base(w.configPath)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Base(event.Name) != configName {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			w.scheduleReload()
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			log.Errorf("config watcher error: %v", err)
		}
	}
}

func (w *Watcher) stopReloadTimer() {
	w.reloadMu.Lock()
	if w.reloadTimer != nil {
		w.reloadTimer.Stop()
		w.reloadTimer = nil
	}
	w.reloadMu.Unlock()
}

func (w *Watcher) scheduleReload() {
	w.reloadMu.Lock()
	defer w.reloadMu.Unlock()
	if w.reloadTimer != nil {
		w.reloadTimer.Stop()
	}
	w.reloadTimer = time.AfterFunc(configReloadDebounce, func() {
		w.reloadMu.Lock()
		w.reloadTimer = nil
		w.reloadMu.Unlock()
		w.reloadIfChanged()
	})
}

// reloadIfChanged reloads the configuration when the file content actually
// changed since the last reload.
func (w *Watcher) reloadIfChanged() {
	data, err := os.ReadFile(w.configPath)
	if err != nil {
		log.Errorf("failed to read config file for reload: %v", err)
		return
	}
	if len(data) == 0 {
		log.Debug("ignoring empty config file write event")
		return
	}
	sum := sha256.Sum256(data)
	newHash := hex.EncodeToString(sum[:])

	w.hashMu.Lock()
	unchanged := w.lastConfigHash != "" && w.lastConfigHash == newHash
	w.lastConfigHash = newHash
	w.hashMu.Unlock()
	if unchanged {
		return
	}

	cfg, err := config.LoadConfig(w.configPath)
	if err != nil {
		log.Errorf("config reload failed, keeping previous settings: %v", err)
		return
	}

	log.Info("config file changed, applying hot-reloadable settings")
	if w.reloadCallback != nil {
		w.reloadCallback(cfg)
	}
}
