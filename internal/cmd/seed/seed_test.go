package seed

import (
	"context"
	"flag"
	"path/filepath"
	"testing"

	"github.com/emberfall/worldforge/internal/services/worldgen/storage/sqlite"
)

func TestParseConfigDefaults(t *testing.T) {
	fs := flag.NewFlagSet("seed", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, nil)
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.StoragePath != "worldgen.db" {
		t.Fatalf("expected default db path, got %q", cfg.StoragePath)
	}
	if cfg.OwnerID != "demo-player" {
		t.Fatalf("expected default owner, got %q", cfg.OwnerID)
	}
	if cfg.Sessions != 3 || cfg.Finalized != 1 {
		t.Fatalf("unexpected default counts: %d sessions, %d finalized", cfg.Sessions, cfg.Finalized)
	}
}

func TestParseConfigRejectsNegativeCounts(t *testing.T) {
	fs := flag.NewFlagSet("seed", flag.ContinueOnError)
	if _, err := ParseConfig(fs, []string{"-sessions", "-1"}); err == nil {
		t.Fatal("expected error for negative session count")
	}
}

func TestSeedStoresPopulatesDatabase(t *testing.T) {
	store, err := sqlite.Open(filepath.Join(t.TempDir(), "seed.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})

	cfg := Config{OwnerID: "owner-1", Sessions: 2, Finalized: 1, Seed: 7}
	if err := seedStores(context.Background(), cfg, store, store); err != nil {
		t.Fatalf("seed stores: %v", err)
	}

	sessions, err := store.ListSessionsByOwner(context.Background(), "owner-1", 10)
	if err != nil {
		t.Fatalf("list sessions: %v", err)
	}
	if len(sessions) != 3 {
		t.Fatalf("expected 3 sessions, got %d", len(sessions))
	}

	worlds, err := store.ListWorldsByOwner(context.Background(), "owner-1", 10)
	if err != nil {
		t.Fatalf("list worlds: %v", err)
	}
	if len(worlds) != 1 {
		t.Fatalf("expected 1 world, got %d", len(worlds))
	}
	if worlds[0].Name == "" {
		t.Fatal("expected generated world name")
	}
}
