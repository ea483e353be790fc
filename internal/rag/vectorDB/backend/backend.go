// Package backend picks and opens the vector store once at startup.
package backend

import (
	"context"
	"fmt"

	"github.com/akolanti/StudyRAG/internal/config"
	"github.com/akolanti/StudyRAG/internal/rag/vectorDB"
	"github.com/akolanti/StudyRAG/internal/rag/vectorDB/mysqlDB"
	"github.com/akolanti/StudyRAG/internal/rag/vectorDB/postgresDB"
	"github.com/akolanti/StudyRAG/internal/rag/vectorDB/sqliteDB"
	"github.com/akolanti/StudyRAG/pkg/logger_i"
)

// Choice is the backend to open and whether a failure may fall back to SQLite.
type Choice struct {
	Backend          string
	FallbackToSQLite bool
}

// Select applies the precedence VECTOR_BACKEND, USE_SQLITE, DB_NAME, DATABASE_URL, SQLite.
func Select(cfg config.StorageConfig) Choice {
	switch {
	case cfg.Backend != "":
		return Choice{Backend: cfg.Backend}
	case cfg.UseSQLite:
		return Choice{Backend: config.BackendSQLite}
	case cfg.MySQL.Explicit:
		return Choice{Backend: config.BackendMySQL, FallbackToSQLite: true}
	case cfg.PostgresURL != "":
		return Choice{Backend: config.BackendPostgres}
	default:
		return Choice{Backend: config.BackendSQLite}
	}
}

// Open opens the store chosen by Select. Only the DB_NAME path falls back to
// SQLite; an explicitly requested backend that cannot be opened is an error.
func Open(ctx context.Context, cfg config.StorageConfig) (vectorDB.Store, error) {
	logger := logger_i.NewLogger("vector_backend")
	choice := Select(cfg)

	store, err := OpenBackend(ctx, choice.Backend, cfg)
	if err == nil {
		logger.Info("vector store ready", "backend", store.Backend())
		return store, nil
	}
	if !choice.FallbackToSQLite {
		return nil, err
	}

	logger.Warn("MySQL unavailable, falling back to SQLite", "error", err, "path", cfg.SQLitePath)
	store, sqliteErr := OpenBackend(ctx, config.BackendSQLite, cfg)
	if sqliteErr != nil {
		return nil, fmt.Errorf("mysql: %w; sqlite fallback: %w", err, sqliteErr)
	}
	return store, nil
}

// OpenBackend opens one named backend with no fallback.
func OpenBackend(ctx context.Context, name string, cfg config.StorageConfig) (vectorDB.Store, error) {
	switch name {
	case config.BackendSQLite:
		return sqliteDB.Open(ctx, cfg.SQLitePath)
	case config.BackendMySQL:
		return mysqlDB.Open(ctx, cfg.MySQL)
	case config.BackendPostgres:
		if cfg.PostgresURL == "" {
			return nil, fmt.Errorf("postgres backend needs DATABASE_URL")
		}
		return postgresDB.Open(ctx, cfg.PostgresURL)
	default:
		return nil, fmt.Errorf("unknown vector backend %q", name)
	}
}
