package backend

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/akolanti/StudyRAG/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelect(t *testing.T) {
	mysqlSet := config.MySQLConfig{DBName: "study_chatbot_db", Explicit: true}
	tests := []struct {
		name string
		cfg  config.StorageConfig
		want Choice
	}{
		{"nothing set", config.StorageConfig{}, Choice{Backend: config.BackendSQLite}},
		{"explicit backend wins", config.StorageConfig{Backend: config.BackendPostgres, UseSQLite: true, MySQL: mysqlSet}, Choice{Backend: config.BackendPostgres}},
		{"use sqlite beats db name", config.StorageConfig{UseSQLite: true, MySQL: mysqlSet}, Choice{Backend: config.BackendSQLite}},
		{"db name selects mysql with fallback", config.StorageConfig{MySQL: mysqlSet, PostgresURL: "postgres://x"}, Choice{Backend: config.BackendMySQL, FallbackToSQLite: true}},
		{"database url selects postgres", config.StorageConfig{PostgresURL: "postgres://x"}, Choice{Backend: config.BackendPostgres}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Select(tt.cfg))
		})
	}
}

func TestOpen_MySQLFallsBackToSQLite(t *testing.T) {
	cfg := config.StorageConfig{
		SQLitePath: filepath.Join(t.TempDir(), "fallback.db"),
		MySQL: config.MySQLConfig{
			Host: "127.0.0.1", Port: 1, User: "root", DBName: "study_chatbot_db", Explicit: true,
		},
	}
	store, err := Open(context.Background(), cfg)
	require.NoError(t, err)
	defer store.Close()
	assert.Equal(t, config.BackendSQLite, store.Backend())
}

func TestOpen_ExplicitBackendDoesNotFallBack(t *testing.T) {
	cfg := config.StorageConfig{
		Backend:    config.BackendMySQL,
		SQLitePath: filepath.Join(t.TempDir(), "unused.db"),
		MySQL:      config.MySQLConfig{Host: "127.0.0.1", Port: 1, User: "root", DBName: "x"},
	}
	_, err := Open(context.Background(), cfg)
	assert.Error(t, err)
}
