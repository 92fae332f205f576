package main

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/erazemk/izposoja/internal/db"
	"github.com/erazemk/izposoja/internal/store"
)

func TestBootstrapAdmin(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	if err := bootstrapAdmin(ctx, database, "root"); err != nil {
		t.Fatalf("bootstrapAdmin: %v", err)
	}
	user, err := store.GetUserByUsername(ctx, database, "root")
	if err != nil || user == nil {
		t.Fatalf("expected admin user, got %v, %v", user, err)
	}

	// A second run must not add another account.
	if err := bootstrapAdmin(ctx, database, "other"); err != nil {
		t.Fatalf("bootstrapAdmin: %v", err)
	}
	if n, _ := store.CountUsers(ctx, database); n != 1 {
		t.Errorf("expected 1 user, got %d", n)
	}
}

func TestLoadConfigFlags(t *testing.T) {
	cfg, err := loadConfig([]string{"-d", "other.sqlite3", "--addr", ":9999", "--env-file", ""})
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.DB.DSN != "other.sqlite3" || cfg.Addr != ":9999" {
		t.Errorf("flags not applied: %+v", cfg)
	}

	if _, err := loadConfig([]string{"extra"}); err == nil {
		t.Error("expected error for positional argument")
	}
	if _, err := loadConfig([]string{"--db-driver", "mysql", "--env-file", ""}); err == nil {
		t.Error("expected error for unknown driver")
	}
}

func TestGeneratePassword(t *testing.T) {
	p, err := generatePassword(16)
	if err != nil {
		t.Fatalf("generatePassword: %v", err)
	}
	if len(p) != 16 {
		t.Errorf("expected 16 characters, got %d", len(p))
	}
}

func TestStartBackgroundStopWaits(t *testing.T) {
	var finished atomic.Bool
	started := make(chan struct{})

	stop := startBackground(context.Background(), func(ctx context.Context) {
		close(started)
		<-ctx.Done()
		// Simulate a sweep still touching the database after cancellation.
		time.Sleep(20 * time.Millisecond)
		finished.Store(true)
	})

	<-started
	stop()
	if !finished.Load() {
		t.Error("stop returned before the background task finished")
	}
}

func TestStartBackgroundParentCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	stop := startBackground(ctx, func(ctx context.Context) {
		<-ctx.Done()
		close(done)
	})
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("background task did not observe parent cancellation")
	}
	stop()
}
