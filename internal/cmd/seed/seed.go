// Package seed parses seed command flags and populates demo worldgen data.
package seed

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"time"

	entrypoint "github.com/emberfall/worldforge/internal/platform/cmd"
	"github.com/emberfall/worldforge/internal/platform/id"
	"github.com/emberfall/worldforge/internal/services/worldgen/storage"
	"github.com/emberfall/worldforge/internal/services/worldgen/storage/sqlite"
	"github.com/emberfall/worldforge/internal/worldgen/domain"
	"github.com/emberfall/worldforge/internal/worldgen/sample"
)

// Config holds seed command configuration.
type Config struct {
	StoragePath string `env:"WORLDFORGE_WORLDGEN_DB_PATH" envDefault:"worldgen.db"`
	OwnerID     string `env:"WORLDFORGE_SEED_OWNER_ID"    envDefault:"demo-player"`
	Sessions    int
	Finalized   int
	Seed        int64
	Verbose     bool
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}

	fs.StringVar(&cfg.StoragePath, "db-path", cfg.StoragePath, "sqlite database path")
	fs.StringVar(&cfg.OwnerID, "owner", cfg.OwnerID, "owner for seeded sessions")
	fs.IntVar(&cfg.Sessions, "sessions", 3, "number of in-progress sessions to create")
	fs.IntVar(&cfg.Finalized, "finalized", 1, "number of finalized sessions with worlds")
	fs.Int64Var(&cfg.Seed, "seed", 0, "random seed for reproducibility (0 = random)")
	fs.BoolVar(&cfg.Verbose, "v", false, "verbose output")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}

	if cfg.Sessions < 0 || cfg.Finalized < 0 {
		return Config{}, fmt.Errorf("session counts must not be negative")
	}
	return cfg, nil
}

// Run populates the worldgen database with demo sessions and worlds.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceSeed, func(context.Context) error {
		store, err := sqlite.Open(cfg.StoragePath)
		if err != nil {
			return fmt.Errorf("open worldgen storage: %w", err)
		}
		defer func() {
			if err := store.Close(); err != nil {
				log.Printf("seed: close storage: %v", err)
			}
		}()
		return seedStores(ctx, cfg, store, store)
	})
}

func seedStores(ctx context.Context, cfg Config, sessions storage.SessionStore, worlds storage.WorldStore) error {
	builder, err := sample.NewBuilder(cfg.Seed)
	if err != nil {
		return fmt.Errorf("build sample generator: %w", err)
	}

	for i := 0; i < cfg.Sessions; i++ {
		mode := domain.ModeAssisted
		if i%2 == 1 {
			mode = domain.ModeManual
		}
		session, err := builder.Session(cfg.OwnerID, mode, nil, nil)
		if err != nil {
			return fmt.Errorf("assemble session: %w", err)
		}
		if err := sessions.CreateSession(ctx, session); err != nil {
			return fmt.Errorf("create session %s: %w", session.ID, err)
		}
		if cfg.Verbose {
			log.Printf("seed: created session id=%s mode=%s", session.ID, session.Mode)
		}
	}

	for i := 0; i < cfg.Finalized; i++ {
		session, err := builder.Session(cfg.OwnerID, domain.ModeAssisted, nil, nil)
		if err != nil {
			return fmt.Errorf("assemble session: %w", err)
		}
		session.Consumed = true
		if err := sessions.CreateSession(ctx, session); err != nil {
			return fmt.Errorf("create session %s: %w", session.ID, err)
		}

		worldID, err := id.NewID()
		if err != nil {
			return fmt.Errorf("generate world id: %w", err)
		}
		world := storage.World{
			ID:        worldID,
			SessionID: session.ID,
			OwnerID:   cfg.OwnerID,
			Name:      worldNameFromDraft(session.Draft),
			Content:   session.Draft,
			CreatedAt: time.Now().UTC(),
		}
		if err := worlds.CreateWorld(ctx, world); err != nil {
			return fmt.Errorf("create world %s: %w", world.ID, err)
		}
		if cfg.Verbose {
			log.Printf("seed: created world id=%s name=%q", world.ID, world.Name)
		}
	}
	return nil
}

func worldNameFromDraft(draft map[string]json.RawMessage) string {
	var basics struct {
		Name string `json:"name"`
	}
	if raw, ok := draft["basics"]; ok {
		_ = json.Unmarshal(raw, &basics)
	}
	if basics.Name == "" {
		return "Untitled World"
	}
	return basics.Name
}
