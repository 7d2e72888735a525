// Package worldgen parses worldgen command flags and starts the session service.
package worldgen

import (
	"context"
	"flag"
	"fmt"
	"strings"

	entrypoint "github.com/emberfall/worldforge/internal/platform/cmd"
	"github.com/emberfall/worldforge/internal/platform/token"
	server "github.com/emberfall/worldforge/internal/services/worldgen/app"
)

// Config holds worldgen command configuration.
type Config struct {
	HTTPAddr        string `env:"WORLDFORGE_WORLDGEN_HTTP_ADDR"    envDefault:":8080"`
	StoragePath     string `env:"WORLDFORGE_WORLDGEN_DB_PATH"      envDefault:"worldgen.db"`
	NarratorBaseURL string `env:"WORLDFORGE_NARRATOR_BASE_URL"     envDefault:"http://localhost:8090"`
	NarratorAPIKey  string `env:"WORLDFORGE_NARRATOR_API_KEY"`
	TokenSecret     string `env:"WORLDFORGE_TOKEN_SECRET"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}

	fs.StringVar(&cfg.HTTPAddr, "http-addr", cfg.HTTPAddr, "worldgen HTTP listen address")
	fs.StringVar(&cfg.StoragePath, "db-path", cfg.StoragePath, "sqlite database path")
	fs.StringVar(&cfg.NarratorBaseURL, "narrator-base-url", cfg.NarratorBaseURL, "narrator service base URL")
	fs.StringVar(&cfg.NarratorAPIKey, "narrator-api-key", cfg.NarratorAPIKey, "narrator service API key")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run builds the worldgen server and serves until ctx is canceled.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceWorldgen, func(context.Context) error {
		serverCfg := server.Config{
			HTTPAddr:        cfg.HTTPAddr,
			StoragePath:     cfg.StoragePath,
			NarratorBaseURL: cfg.NarratorBaseURL,
			NarratorAPIKey:  cfg.NarratorAPIKey,
		}
		// Player tokens are optional for local development. When a secret
		// is configured the full token env is loaded and enforced.
		if strings.TrimSpace(cfg.TokenSecret) != "" {
			tokenCfg, err := token.LoadConfigFromEnv(nil)
			if err != nil {
				return fmt.Errorf("load token config: %w", err)
			}
			serverCfg.Token = tokenCfg
		}
		if err := server.Run(ctx, serverCfg); err != nil {
			return fmt.Errorf("serve worldgen: %w", err)
		}
		return nil
	})
}
