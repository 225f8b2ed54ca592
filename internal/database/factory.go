package database

import (
	"fmt"
	"path/filepath"

	"packdb/internal/config"
	"packdb/internal/packdb"
)

// NewStoreFromConfig creates a Store implementation based on the
// database config type.
func NewStoreFromConfig(cfg config.DatabaseConfig) (packdb.Store, error) {
	switch cfg.Type {
	case "sqlite":
		if cfg.DataDir == "" {
			return nil, fmt.Errorf("data_dir required for sqlite database")
		}
		dbPath := filepath.Join(cfg.DataDir, "packdb.db")
		return NewSQLiteStore(dbPath)
	case "memory":
		return NewSQLiteStore(":memory:")
	default:
		return nil, fmt.Errorf("unknown database type: %s", cfg.Type)
	}
}
