// Package sqlStore is the database/sql implementation of vectorDB.Store
// shared by the SQLite and MySQL backends. Both drivers accept "?"
// placeholders, so the dialect only supplies schema, timestamp encoding and
// error classification.
package sqlStore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/akolanti/StudyRAG/internal/domain/commonModels"
	"github.com/akolanti/StudyRAG/internal/domain/ragErrors"
	"github.com/akolanti/StudyRAG/internal/metrics"
	"github.com/akolanti/StudyRAG/internal/rag/vectorDB"
	"github.com/akolanti/StudyRAG/pkg/logger_i"
)

type Dialect struct {
	Name       string
	Migrations fs.FS
	// FormatTime converts a timestamp into the value bound to added_date.
	FormatTime func(time.Time) any
	// Unavailable reports whether err means the server cannot be reached.
	Unavailable func(error) bool
}

type Store struct {
	db      *sql.DB
	dialect Dialect
	clock   vectorDB.Clock
	logger  *logger_i.Logger
}

var _ vectorDB.Store = (*Store)(nil)

type Option func(*Store)

func WithClock(clock vectorDB.Clock) Option {
	return func(s *Store) { s.clock = clock }
}

// Open pings db and brings the schema up to date. The store owns db afterwards.
func Open(ctx context.Context, db *sql.DB, dialect Dialect, opts ...Option) (*Store, error) {
	s := &Store{
		db:      db,
		dialect: dialect,
		clock:   vectorDB.SystemClock,
		logger:  logger_i.NewLogger(dialect.Name + "_store"),
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := s.Ping(ctx); err != nil {
		return nil, err
	}
	if err := s.migrate(ctx); err != nil {
		return nil, ragErrors.New(ragErrors.ErrStorageUnavailable, s.op("migrate"), err)
	}
	return s, nil
}

func (s *Store) Backend() string { return s.dialect.Name }

func (s *Store) DB() *sql.DB { return s.db }

func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return ragErrors.New(ragErrors.ErrStorageUnavailable, s.op("Ping"), err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) op(name string) string {
	return s.dialect.Name + "." + name
}

func (s *Store) readErr(name string, err error) error {
	return ragErrors.New(ragErrors.ErrStorageUnavailable, s.op(name), err)
}

func (s *Store) writeErr(name string, err error) error {
	if s.dialect.Unavailable != nil && s.dialect.Unavailable(err) {
		return ragErrors.New(ragErrors.ErrStorageUnavailable, s.op(name), err)
	}
	return ragErrors.New(ragErrors.ErrStorageWrite, s.op(name), err)
}

// inTx runs fn in a transaction and rolls back on any error.
func (s *Store) inTx(ctx context.Context, name string, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return ragErrors.New(ragErrors.ErrStorageUnavailable, s.op(name), err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			s.logger.Error("rollback failed", "op", name, "error", rbErr)
		}
		return s.writeErr(name, err)
	}
	if err := tx.Commit(); err != nil {
		return s.writeErr(name, err)
	}
	return nil
}

func (s *Store) UpsertDocument(ctx context.Context, doc commonModels.Document, chunks []commonModels.Chunk, images []commonModels.Image) error {
	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("vector_upsert", time.Since(start)) }()

	now := s.clock()
	if doc.AddedAt.IsZero() {
		doc.AddedAt = now
	}
	doc.TotalChunks = len(chunks)

	// encode before opening the transaction so a bad vector never reaches the database
	encoded := make([]string, len(chunks))
	for i, c := range chunks {
		raw, err := commonModels.EncodeEmbedding(c.Embedding)
		if err != nil {
			return ragErrors.New(ragErrors.ErrStorageWrite, s.op("UpsertDocument"),
				fmt.Errorf("chunk %d of %s: %w", i, doc.Filename, err))
		}
		encoded[i] = string(raw)
	}

	return s.inTx(ctx, "UpsertDocument", func(tx *sql.Tx) error {
		for _, table := range []string{"pdf_contents", "pdf_images", "pdf_metadata"} {
			if _, err := tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE filename = ?", doc.Filename); err != nil {
				return fmt.Errorf("deleting %s rows: %w", table, err)
			}
		}

		if _, err := tx.ExecContext(ctx,
			`INSERT INTO pdf_metadata (filename, page_count, total_chars, total_chunks, added_date)
			 VALUES (?, ?, ?, ?, ?)`,
			doc.Filename, doc.PageCount, doc.TotalChars, doc.TotalChunks, s.dialect.FormatTime(doc.AddedAt)); err != nil {
			return fmt.Errorf("inserting document: %w", err)
		}

		if len(chunks) > 0 {
			stmt, err := tx.PrepareContext(ctx,
				`INSERT INTO pdf_contents (filename, page_number, chunk_text, embedding, added_date)
				 VALUES (?, ?, ?, ?, ?)`)
			if err != nil {
				return fmt.Errorf("preparing chunk insert: %w", err)
			}
			defer stmt.Close()

			addedAt := s.dialect.FormatTime(doc.AddedAt)
			for i, c := range chunks {
				if _, err := stmt.ExecContext(ctx, doc.Filename, c.PageNumber, c.Text, encoded[i], addedAt); err != nil {
					return fmt.Errorf("inserting chunk %d: %w", i, err)
				}
			}
		}

		return s.insertImages(ctx, tx, doc.Filename, images, now)
	})
}

func (s *Store) SaveImages(ctx context.Context, filename string, images []commonModels.Image) error {
	now := s.clock()
	return s.inTx(ctx, "SaveImages", func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM pdf_images WHERE filename = ?", filename); err != nil {
			return fmt.Errorf("deleting images: %w", err)
		}
		return s.insertImages(ctx, tx, filename, images, now)
	})
}

func (s *Store) insertImages(ctx context.Context, tx *sql.Tx, filename string, images []commonModels.Image, now time.Time) error {
	for i, img := range images {
		addedAt := img.AddedAt
		if addedAt.IsZero() {
			addedAt = now
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO pdf_images (filename, page_number, image_path, image_index, width, height, added_date)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			filename, img.PageNumber, img.ImagePath, img.ImageIndex, img.Width, img.Height, s.dialect.FormatTime(addedAt)); err != nil {
			return fmt.Errorf("inserting image %d: %w", i, err)
		}
	}
	return nil
}

func (s *Store) GetDocument(ctx context.Context, filename string) (commonModels.Document, bool, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT filename, page_count, total_chars, total_chunks, added_date
		 FROM pdf_metadata WHERE filename = ?`, filename)
	doc, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return commonModels.Document{}, false, nil
	}
	if err != nil {
		return commonModels.Document{}, false, s.readErr("GetDocument", err)
	}
	return doc, true, nil
}

func (s *Store) Search(ctx context.Context) ([]commonModels.StoredChunk, error) {
	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("vector_search", time.Since(start)) }()

	rows, err := s.db.QueryContext(ctx,
		`SELECT filename, page_number, chunk_text, embedding FROM pdf_contents ORDER BY id`)
	if err != nil {
		return nil, s.readErr("Search", err)
	}
	defer rows.Close()

	var out []commonModels.StoredChunk
	for rows.Next() {
		var c commonModels.StoredChunk
		var page sql.NullInt64
		if err := rows.Scan(&c.Filename, &page, &c.Text, &c.RawEmbedding); err != nil {
			return nil, s.readErr("Search", err)
		}
		c.PageNumber = int(page.Int64)
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, s.readErr("Search", err)
	}
	return out, nil
}

func (s *Store) ListDocuments(ctx context.Context) ([]commonModels.Document, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT filename, page_count, total_chars, total_chunks, added_date
		 FROM pdf_metadata ORDER BY added_date DESC, id DESC`)
	if err != nil {
		return nil, s.readErr("ListDocuments", err)
	}
	defer rows.Close()

	docs := []commonModels.Document{}
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, s.readErr("ListDocuments", err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, s.readErr("ListDocuments", err)
	}
	return docs, nil
}

func (s *Store) Stats(ctx context.Context) (commonModels.Stats, error) {
	var stats commonModels.Stats
	row := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(page_count), 0), COALESCE(SUM(total_chunks), 0) FROM pdf_metadata`)
	if err := row.Scan(&stats.DocumentCount, &stats.TotalPages, &stats.TotalChunks); err != nil {
		return commonModels.Stats{}, s.readErr("Stats", err)
	}
	return stats, nil
}

func (s *Store) ImagesForPage(ctx context.Context, filename string, page int) ([]commonModels.Image, error) {
	return s.queryImages(ctx, "ImagesForPage",
		`SELECT filename, page_number, image_path, image_index, width, height, added_date
		 FROM pdf_images WHERE filename = ? AND page_number = ? ORDER BY image_index`,
		filename, page)
}

func (s *Store) DocumentImages(ctx context.Context, filename string) ([]commonModels.Image, error) {
	return s.queryImages(ctx, "DocumentImages",
		`SELECT filename, page_number, image_path, image_index, width, height, added_date
		 FROM pdf_images WHERE filename = ? ORDER BY page_number, image_index`,
		filename)
}

func (s *Store) queryImages(ctx context.Context, name string, query string, args ...any) ([]commonModels.Image, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, s.readErr(name, err)
	}
	defer rows.Close()

	images := []commonModels.Image{}
	for rows.Next() {
		var img commonModels.Image
		var width, height sql.NullInt64
		var added any
		if err := rows.Scan(&img.Filename, &img.PageNumber, &img.ImagePath, &img.ImageIndex, &width, &height, &added); err != nil {
			return nil, s.readErr(name, err)
		}
		img.Width, img.Height = int(width.Int64), int(height.Int64)
		if img.AddedAt, err = parseTimestamp(added); err != nil {
			return nil, s.readErr(name, err)
		}
		images = append(images, img)
	}
	if err := rows.Err(); err != nil {
		return nil, s.readErr(name, err)
	}
	return images, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDocument(row scanner) (commonModels.Document, error) {
	var doc commonModels.Document
	var pages, chars, chunks sql.NullInt64
	var added any
	if err := row.Scan(&doc.Filename, &pages, &chars, &chunks, &added); err != nil {
		return commonModels.Document{}, err
	}
	doc.PageCount = int(pages.Int64)
	doc.TotalChars = int(chars.Int64)
	doc.TotalChunks = int(chunks.Int64)

	addedAt, err := parseTimestamp(added)
	if err != nil {
		return commonModels.Document{}, err
	}
	doc.AddedAt = addedAt
	return doc, nil
}
