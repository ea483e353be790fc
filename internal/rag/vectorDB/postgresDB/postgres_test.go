package postgresDB

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/akolanti/StudyRAG/internal/domain/ragErrors"
	"github.com/akolanti/StudyRAG/internal/rag/vectorDB"
	"github.com/akolanti/StudyRAG/internal/rag/vectorDB/storetest"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		write bool
		want  error
	}{
		{"constraint on write", &pgconn.PgError{Code: "23505"}, true, ragErrors.ErrStorageWrite},
		{"admin shutdown on write", &pgconn.PgError{Code: "57P01"}, true, ragErrors.ErrStorageUnavailable},
		{"connection exception", &pgconn.PgError{Code: "08006"}, true, ragErrors.ErrStorageUnavailable},
		{"deadline", context.DeadlineExceeded, true, ragErrors.ErrStorageUnavailable},
		{"read failure", errors.New("broken"), false, ragErrors.ErrStorageUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, classify("postgres.test", tt.err, tt.write), tt.want)
		})
	}
}

func TestOpen_BadURL(t *testing.T) {
	_, err := Open(context.Background(), "::not a url::")
	assert.ErrorIs(t, err, ragErrors.ErrStorageUnavailable)
}

// Runs only against a disposable database, e.g.
// STUDYRAG_TEST_POSTGRES_URL="postgres://postgres:pw@127.0.0.1:5432/rag_test"
func TestPostgresStore(t *testing.T) {
	url := os.Getenv("STUDYRAG_TEST_POSTGRES_URL")
	if url == "" {
		t.Skip("STUDYRAG_TEST_POSTGRES_URL not set")
	}

	storetest.Run(t, func(t *testing.T, clock vectorDB.Clock) vectorDB.Store {
		s, err := Open(context.Background(), url, WithClock(clock))
		require.NoError(t, err)
		_, err = s.pool.Exec(context.Background(), "TRUNCATE pdf_contents, pdf_images, pdf_metadata RESTART IDENTITY")
		require.NoError(t, err)
		t.Cleanup(func() { _ = s.Close() })
		return s
	})
}
