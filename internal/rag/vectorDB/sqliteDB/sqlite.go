package sqliteDB

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/akolanti/StudyRAG/internal/config"
	"github.com/akolanti/StudyRAG/internal/domain/ragErrors"
	"github.com/akolanti/StudyRAG/internal/rag/vectorDB/sqlStore"
	"github.com/akolanti/StudyRAG/internal/rag/vectorDB/sqliteDB/migrations"
	_ "modernc.org/sqlite"
)

// Dialect stores added_date as fixed-width UTC text.
var Dialect = sqlStore.Dialect{
	Name:       config.BackendSQLite,
	Migrations: migrations.FS,
	FormatTime: sqlStore.FormatTextTime,
	// a local file is never "unreachable" once opened
	Unavailable: func(error) bool { return false },
}

// Open creates the database file (and its directory) when missing and applies migrations.
func Open(ctx context.Context, path string, opts ...sqlStore.Option) (*sqlStore.Store, error) {
	if path == "" {
		path = config.DefaultSQLitePath
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, ragErrors.New(ragErrors.ErrStorageUnavailable, "sqlite.Open", fmt.Errorf("creating data directory: %w", err))
		}
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_txlock=immediate")
	if err != nil {
		return nil, ragErrors.New(ragErrors.ErrStorageUnavailable, "sqlite.Open", err)
	}
	db.SetMaxOpenConns(config.DBMaxOpenConns)
	db.SetMaxIdleConns(config.DBMaxIdleConns)

	store, err := sqlStore.Open(ctx, db, Dialect, opts...)
	if err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}
