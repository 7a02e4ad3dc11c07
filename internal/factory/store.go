// Package factory wires configuration to concrete record store drivers.
package factory

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/flatmate/flatmate-backend/internal/config"
	"github.com/flatmate/flatmate-backend/internal/recordstore"
	"github.com/flatmate/flatmate-backend/internal/recordstore/firebase"
	storepg "github.com/flatmate/flatmate-backend/internal/recordstore/postgres"
	storelite "github.com/flatmate/flatmate-backend/internal/recordstore/sqlite"
)

// NewStore opens the record store selected by cfg.StoreDriver. SQL-backed
// drivers have their schema applied synchronously so health checks and the
// first request find a working table.
func NewStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (recordstore.Store, error) {
	watchInterval := time.Duration(cfg.WatchIntervalMillis) * time.Millisecond

	switch cfg.StoreDriver {
	case "firebase":
		if cfg.FirebaseURL == "" {
			return nil, fmt.Errorf("SOCIETY_BACKEND_FIREBASE_URL is required when STORE_DRIVER=firebase")
		}
		return firebase.New(cfg.FirebaseURL, cfg.FirebaseAuth, log), nil

	case "postgres":
		if cfg.PostgresDSN == "" {
			return nil, fmt.Errorf("SOCIETY_BACKEND_POSTGRES_DSN is required when STORE_DRIVER=postgres")
		}
		db, err := storepg.Open(cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		if err := storepg.EnsureSchema(ctx, db); err != nil {
			return nil, fmt.Errorf("postgres schema: %w", err)
		}
		return storepg.New(db, watchInterval, log), nil

	case "sqlite":
		path := cfg.SQLitePath
		if path == "" {
			path = filepath.Join(os.TempDir(), "society.db")
		}
		db, err := storelite.Open(path)
		if err != nil {
			return nil, err
		}
		if err := storelite.EnsureSchema(ctx, db); err != nil {
			return nil, fmt.Errorf("sqlite schema: %w", err)
		}
		return storelite.New(db, watchInterval, log), nil

	default:
		return nil, fmt.Errorf("unknown STORE_DRIVER: %s", cfg.StoreDriver)
	}
}
