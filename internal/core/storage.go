package core

import (
	"context"
	"fmt"

	"usersapi/internal/infra/blob"
	"usersapi/internal/infra/persistence/document"
	"usersapi/internal/infra/persistence/memory"
	"usersapi/internal/infra/persistence/postgres"
	"usersapi/internal/infra/persistence/sqlite"
	"usersapi/pkg/domain"
)

// StorageDriver identifies a concrete persistent storage implementation.
type StorageDriver string

const (
	StorageMemory   StorageDriver = "memory"   // in-memory only (tests / ephemeral)
	StorageFile     StorageDriver = "file"     // JSON document in a blob store
	StorageSQLite   StorageDriver = "sqlite"   // embedded sqlite file
	StoragePostgres StorageDriver = "postgres" // PostgreSQL server
)

// StorageConfig selects and configures the user store backend.
type StorageConfig struct {
	Driver      StorageDriver
	SQLitePath  string
	PostgresDSN string
	DocumentKey string
	Blob        blob.Config
}

// OpenPersistentStore opens the configured backend, defaulting to the file
// driver. The caller owns the returned store and must Close it.
func OpenPersistentStore(ctx context.Context, cfg StorageConfig) (domain.PersistentStore, error) {
	driver := cfg.Driver
	if driver == "" {
		driver = StorageFile
	}
	switch driver {
	case StorageMemory:
		return memory.NewStore(), nil
	case StorageFile:
		blobs, err := blob.Open(ctx, cfg.Blob)
		if err != nil {
			return nil, fmt.Errorf("open blob store: %w", err)
		}
		store, err := document.NewStore(ctx, blobs, cfg.DocumentKey)
		if err != nil {
			return nil, err
		}
		return store, nil
	case StorageSQLite:
		store, err := sqlite.NewStore(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return store, nil
	case StoragePostgres:
		store, err := postgres.NewStore(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %s", driver)
	}
}
