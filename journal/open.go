package journal

import (
	"context"
	"fmt"

	"github.com/rustyeddy/perpbt/config"
)

// Open returns the journal selected by cfg.Type.
func Open(ctx context.Context, cfg config.JournalConfig) (Journal, error) {
	switch cfg.Type {
	case "", "none":
		return Nop{}, nil
	case "csv":
		return NewCSV(cfg.Dir)
	case "sqlite":
		return NewSQLite(cfg.DBPath)
	case "clickhouse":
		return NewClickHouse(ctx, cfg.ClickHouseDSN)
	case "postgres":
		return NewPostgres(ctx, cfg.PostgresDSN)
	default:
		return nil, fmt.Errorf("unknown journal type %q", cfg.Type)
	}
}
