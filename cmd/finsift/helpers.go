package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/finsift/finsift/internal/dedup"
	"github.com/finsift/finsift/internal/engine"
	"github.com/finsift/finsift/internal/extract"
	"github.com/finsift/finsift/internal/infer"
	"github.com/finsift/finsift/internal/service"
	"github.com/finsift/finsift/internal/storage"
)

// expandPath expands a leading tilde and environment variables.
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, path[2:])
		}
	}
	return os.ExpandEnv(path)
}

func databasePath() string {
	dbPath := viper.GetString("database.path")
	if dbPath == "" {
		dbPath = "~/.local/share/finsift/finsift.db"
	}
	return expandPath(dbPath)
}

// initStorage opens the database and applies pending migrations.
func initStorage(ctx context.Context) (*storage.SQLiteStorage, error) {
	store, err := storage.NewSQLiteStorage(databasePath())
	if err != nil {
		return nil, err
	}

	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// initInference builds the provider client, or returns nil when no API key is
// configured. Deep scans then fail fast with a configuration error.
func initInference(ctx context.Context) (infer.Client, error) {
	apiKey := viper.GetString("inference.api_key")
	if apiKey == "" {
		return nil, nil
	}

	return infer.NewClient(ctx, infer.Config{
		Provider:          viper.GetString("inference.provider"),
		APIKey:            apiKey,
		Model:             viper.GetString("inference.model"),
		RequestsPerMinute: viper.GetInt("inference.requests_per_minute"),
		Timeout:           viper.GetInt("inference.timeout_seconds"),
	})
}

// initEngine wires storage, deduplication, and both extraction strategies.
// The SQLite store doubles as the fingerprint reservation store, so a record
// and its reservation always live in the same database.
func initEngine(ctx context.Context) (*engine.Engine, *storage.SQLiteStorage, infer.Client, error) {
	store, err := initStorage(ctx)
	if err != nil {
		return nil, nil, nil, err
	}

	client, err := initInference(ctx)
	if err != nil {
		_ = store.Close()
		return nil, nil, nil, fmt.Errorf("failed to initialize inference client: %w", err)
	}

	cfg := engine.Config{
		Storage:  store,
		Reserver: dedup.NewReserver(store),
		Fast:     extract.NewFastStrategy(nil),
		RetryOpts: service.RetryOptions{
			MaxAttempts:  3,
			InitialDelay: 200 * time.Millisecond,
			MaxDelay:     5 * time.Second,
		},
	}
	if client != nil {
		cfg.Deep = extract.NewDeepStrategy(client)
	}

	eng, err := engine.New(cfg)
	if err != nil {
		_ = store.Close()
		if client != nil {
			_ = client.Close()
		}
		return nil, nil, nil, err
	}

	return eng, store, client, nil
}

func closeAll(store *storage.SQLiteStorage, client infer.Client) {
	if client != nil {
		_ = client.Close()
	}
	if store != nil {
		_ = store.Close()
	}
}

func currentUserID() string {
	return viper.GetString("user.id")
}
