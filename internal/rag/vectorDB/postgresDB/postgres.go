// Package postgresDB is the cloud relational backend (PostgreSQL, Supabase)
// built directly on a pgx connection pool.
package postgresDB

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/akolanti/StudyRAG/internal/config"
	"github.com/akolanti/StudyRAG/internal/domain/commonModels"
	"github.com/akolanti/StudyRAG/internal/domain/ragErrors"
	"github.com/akolanti/StudyRAG/internal/metrics"
	"github.com/akolanti/StudyRAG/internal/rag/vectorDB"
	"github.com/akolanti/StudyRAG/internal/rag/vectorDB/postgresDB/migrations"
	"github.com/akolanti/StudyRAG/internal/rag/vectorDB/sqlStore"
	"github.com/akolanti/StudyRAG/pkg/logger_i"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	pool   *pgxpool.Pool
	clock  vectorDB.Clock
	logger *logger_i.Logger
}

var _ vectorDB.Store = (*Store)(nil)

type Option func(*Store)

func WithClock(clock vectorDB.Clock) Option {
	return func(s *Store) { s.clock = clock }
}

func Open(ctx context.Context, databaseURL string, opts ...Option) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, ragErrors.New(ragErrors.ErrStorageUnavailable, "postgres.Open", err)
	}
	cfg.MaxConns = int32(config.DBMaxOpenConns)
	cfg.MaxConnLifetime = config.DBConnMaxLifetime
	cfg.ConnConfig.ConnectTimeout = config.DBConnectTimeout

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, ragErrors.New(ragErrors.ErrStorageUnavailable, "postgres.Open", err)
	}

	s := &Store{
		pool:   pool,
		clock:  vectorDB.SystemClock,
		logger: logger_i.NewLogger("postgres_store"),
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := s.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, ragErrors.New(ragErrors.ErrStorageUnavailable, "postgres.migrate", err)
	}
	return s, nil
}

func (s *Store) Backend() string { return config.BackendPostgres }

func (s *Store) Ping(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return ragErrors.New(ragErrors.ErrStorageUnavailable, "postgres.Ping", err)
	}
	return nil
}

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

func (s *Store) migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	if err := s.pool.QueryRow(ctx, "SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	applied, err := sqlStore.RunMigrations(ctx, migrations.FS, currentVersion, func(ctx context.Context, m sqlStore.Migration) error {
		return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
			for _, stmt := range m.Statements {
				if _, err := tx.Exec(ctx, stmt); err != nil {
					return err
				}
			}
			_, err := tx.Exec(ctx, "INSERT INTO schema_migrations (version, applied_at) VALUES ($1, $2)", m.Version, s.clock())
			return err
		})
	})
	for _, name := range applied {
		s.logger.Info("applied migration", "backend", config.BackendPostgres, "file", name)
	}
	return err
}

// classify maps pgx failures onto the storage error kinds. Connection
// failures and server-side class 08/57P errors mean the database is unreachable.
func classify(op string, err error, write bool) error {
	var connectErr *pgconn.ConnectError
	var pgErr *pgconn.PgError
	switch {
	case errors.As(err, &connectErr), pgconn.Timeout(err), errors.Is(err, context.DeadlineExceeded):
		return ragErrors.New(ragErrors.ErrStorageUnavailable, op, err)
	case errors.As(err, &pgErr) && (strings.HasPrefix(pgErr.Code, "08") || strings.HasPrefix(pgErr.Code, "57P")):
		return ragErrors.New(ragErrors.ErrStorageUnavailable, op, err)
	case write:
		return ragErrors.New(ragErrors.ErrStorageWrite, op, err)
	default:
		return ragErrors.New(ragErrors.ErrStorageUnavailable, op, err)
	}
}

func (s *Store) UpsertDocument(ctx context.Context, doc commonModels.Document, chunks []commonModels.Chunk, images []commonModels.Image) error {
	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("vector_upsert", time.Since(start)) }()

	now := s.clock()
	if doc.AddedAt.IsZero() {
		doc.AddedAt = now
	}
	doc.TotalChunks = len(chunks)

	encoded := make([]string, len(chunks))
	for i, c := range chunks {
		raw, err := commonModels.EncodeEmbedding(c.Embedding)
		if err != nil {
			return ragErrors.New(ragErrors.ErrStorageWrite, "postgres.UpsertDocument",
				fmt.Errorf("chunk %d of %s: %w", i, doc.Filename, err))
		}
		encoded[i] = string(raw)
	}

	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		batch.Queue("DELETE FROM pdf_contents WHERE filename = $1", doc.Filename)
		batch.Queue("DELETE FROM pdf_images WHERE filename = $1", doc.Filename)
		batch.Queue("DELETE FROM pdf_metadata WHERE filename = $1", doc.Filename)
		batch.Queue(`INSERT INTO pdf_metadata (filename, page_count, total_chars, total_chunks, added_date)
			VALUES ($1, $2, $3, $4, $5)`,
			doc.Filename, doc.PageCount, doc.TotalChars, doc.TotalChunks, doc.AddedAt)
		for i, c := range chunks {
			batch.Queue(`INSERT INTO pdf_contents (filename, page_number, chunk_text, embedding, added_date)
				VALUES ($1, $2, $3, $4, $5)`,
				doc.Filename, c.PageNumber, c.Text, encoded[i], doc.AddedAt)
		}
		queueImages(batch, doc.Filename, images, now)
		return sendBatch(ctx, tx, batch)
	})
	if err != nil {
		return classify("postgres.UpsertDocument", err, true)
	}
	return nil
}

func (s *Store) SaveImages(ctx context.Context, filename string, images []commonModels.Image) error {
	now := s.clock()
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		batch.Queue("DELETE FROM pdf_images WHERE filename = $1", filename)
		queueImages(batch, filename, images, now)
		return sendBatch(ctx, tx, batch)
	})
	if err != nil {
		return classify("postgres.SaveImages", err, true)
	}
	return nil
}

func queueImages(batch *pgx.Batch, filename string, images []commonModels.Image, now time.Time) {
	for _, img := range images {
		addedAt := img.AddedAt
		if addedAt.IsZero() {
			addedAt = now
		}
		batch.Queue(`INSERT INTO pdf_images (filename, page_number, image_path, image_index, width, height, added_date)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			filename, img.PageNumber, img.ImagePath, img.ImageIndex, img.Width, img.Height, addedAt)
	}
}

func sendBatch(ctx context.Context, tx pgx.Tx, batch *pgx.Batch) error {
	results := tx.SendBatch(ctx, batch)
	for i := 0; i < batch.Len(); i++ {
		if _, err := results.Exec(); err != nil {
			results.Close()
			return fmt.Errorf("batch statement %d: %w", i, err)
		}
	}
	return results.Close()
}

const documentColumns = `filename, COALESCE(page_count, 0), COALESCE(total_chars, 0), COALESCE(total_chunks, 0),
	COALESCE(added_date, to_timestamp(0))`

func scanDocument(row pgx.Row) (commonModels.Document, error) {
	var doc commonModels.Document
	if err := row.Scan(&doc.Filename, &doc.PageCount, &doc.TotalChars, &doc.TotalChunks, &doc.AddedAt); err != nil {
		return commonModels.Document{}, err
	}
	doc.AddedAt = doc.AddedAt.UTC()
	return doc, nil
}

func (s *Store) GetDocument(ctx context.Context, filename string) (commonModels.Document, bool, error) {
	row := s.pool.QueryRow(ctx, "SELECT "+documentColumns+" FROM pdf_metadata WHERE filename = $1", filename)
	doc, err := scanDocument(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return commonModels.Document{}, false, nil
	}
	if err != nil {
		return commonModels.Document{}, false, classify("postgres.GetDocument", err, false)
	}
	return doc, true, nil
}

func (s *Store) Search(ctx context.Context) ([]commonModels.StoredChunk, error) {
	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("vector_search", time.Since(start)) }()

	rows, err := s.pool.Query(ctx,
		`SELECT filename, COALESCE(page_number, 0), chunk_text, embedding::text FROM pdf_contents ORDER BY id`)
	if err != nil {
		return nil, classify("postgres.Search", err, false)
	}
	chunks, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (commonModels.StoredChunk, error) {
		var c commonModels.StoredChunk
		var raw string
		err := row.Scan(&c.Filename, &c.PageNumber, &c.Text, &raw)
		c.RawEmbedding = []byte(raw)
		return c, err
	})
	if err != nil {
		return nil, classify("postgres.Search", err, false)
	}
	return chunks, nil
}

func (s *Store) ListDocuments(ctx context.Context) ([]commonModels.Document, error) {
	rows, err := s.pool.Query(ctx, "SELECT "+documentColumns+" FROM pdf_metadata ORDER BY added_date DESC, id DESC")
	if err != nil {
		return nil, classify("postgres.ListDocuments", err, false)
	}
	docs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (commonModels.Document, error) {
		return scanDocument(row)
	})
	if err != nil {
		return nil, classify("postgres.ListDocuments", err, false)
	}
	if docs == nil {
		docs = []commonModels.Document{}
	}
	return docs, nil
}

func (s *Store) Stats(ctx context.Context) (commonModels.Stats, error) {
	var stats commonModels.Stats
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*), COALESCE(SUM(page_count), 0), COALESCE(SUM(total_chunks), 0) FROM pdf_metadata`).
		Scan(&stats.DocumentCount, &stats.TotalPages, &stats.TotalChunks)
	if err != nil {
		return commonModels.Stats{}, classify("postgres.Stats", err, false)
	}
	return stats, nil
}

const imageColumns = `filename, page_number, image_path, image_index, COALESCE(width, 0), COALESCE(height, 0),
	COALESCE(added_date, to_timestamp(0))`

func (s *Store) ImagesForPage(ctx context.Context, filename string, page int) ([]commonModels.Image, error) {
	return s.queryImages(ctx, "postgres.ImagesForPage",
		"SELECT "+imageColumns+" FROM pdf_images WHERE filename = $1 AND page_number = $2 ORDER BY image_index",
		filename, page)
}

func (s *Store) DocumentImages(ctx context.Context, filename string) ([]commonModels.Image, error) {
	return s.queryImages(ctx, "postgres.DocumentImages",
		"SELECT "+imageColumns+" FROM pdf_images WHERE filename = $1 ORDER BY page_number, image_index",
		filename)
}

func (s *Store) queryImages(ctx context.Context, op string, query string, args ...any) ([]commonModels.Image, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, classify(op, err, false)
	}
	images, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (commonModels.Image, error) {
		var img commonModels.Image
		err := row.Scan(&img.Filename, &img.PageNumber, &img.ImagePath, &img.ImageIndex, &img.Width, &img.Height, &img.AddedAt)
		img.AddedAt = img.AddedAt.UTC()
		return img, err
	})
	if err != nil {
		return nil, classify(op, err, false)
	}
	if images == nil {
		images = []commonModels.Image{}
	}
	return images, nil
}
