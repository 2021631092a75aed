// Package ledger parses ledger service flags and launches the service.
package ledger

import (
	"context"
	"flag"

	server "github.com/mintworks/ledger/internal/ledger/app"
	entrypoint "github.com/mintworks/ledger/internal/platform/cmd"
)

// Config holds ledger command configuration.
type Config struct {
	Port int `env:"MINTWORKS_LEDGER_PORT" envDefault:"8080"`
}

// ParseConfig parses environment and flags into Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.IntVar(&cfg.Port, "port", cfg.Port, "The ledger HTTP server port")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run starts the ledger HTTP API service.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceLedger, func(context.Context) error {
		return server.Run(ctx, cfg.Port)
	})
}
