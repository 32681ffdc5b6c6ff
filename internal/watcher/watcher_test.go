package watcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fitrelay/strava-auth-proxy/internal/config"
)

func writeConfig(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestWatcher_ReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	writeConfig(t, configPath, "debug: false\n")

	reloaded := make(chan *config.Config, 4)
	w, err := NewWatcher(configPath, func(cfg *config.Config) {
		reloaded <- cfg
	})
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		_ = w.Start(ctx)
		close(done)
	}()

	// Give the watcher a moment to register the directory.
	time.Sleep(100 * time.Millisecond)
	writeConfig(t, configPath, "debug: true\nrequest-log: true\n")

	select {
	case cfg := <-reloaded:
		if !cfg.Debug {
			t.Error("reloaded config lost debug: true")
		}
		if !cfg.RequestLog {
			t.Error("reloaded config lost request-log: true")
		}
	case <-time.After(3 * time.Second):
		t.Fatal("reload callback did not fire after config write")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop on context cancel")
	}
}

func TestWatcher_SkipsUnchangedContent(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	writeConfig(t, configPath, "debug: true\n")

	reloads := make(chan struct{}, 8)
	w, err := NewWatcher(configPath, func(*config.Config) {
		reloads <- struct{}{}
	})
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = w.Start(ctx) }()

	time.Sleep(100 * time.Millisecond)
	writeConfig(t, configPath, "debug: true\nport: 9000\n")

	select {
	case <-reloads:
	case <-time.After(3 * time.Second):
		t.Fatal("first reload did not fire")
	}

	// Rewriting identical bytes must not trigger another callback.
	writeConfig(t, configPath, "debug: true\nport: 9000\n")
	select {
	case <-reloads:
		t.Fatal("reload fired for unchanged content")
	case <-time.After(500 * time.Millisecond):
	}
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	writeConfig(t, configPath, "debug: false\n")

	reloads := make(chan struct{}, 8)
	w, err := NewWatcher(configPath, func(*config.Config) {
		reloads <- struct{}{}
	})
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = w.Start(ctx) }()

	time.Sleep(100 * time.Millisecond)
	writeConfig(t, filepath.Join(dir, "unrelated.txt"), "noise")

	select {
	case <-reloads:
		t.Fatal("reload fired for an unrelated file")
	case <-time.After(500 * time.Millisecond):
	}
}
