// Package migrate copies documents between two vector store backends.
package migrate

import (
	"context"
	"fmt"
	"slices"

	"github.com/akolanti/StudyRAG/internal/config"
	"github.com/akolanti/StudyRAG/internal/domain/commonModels"
	"github.com/akolanti/StudyRAG/internal/rag/vectorDB"
	"github.com/akolanti/StudyRAG/pkg/logger_i"
)

type Report struct {
	Documents     int
	Chunks        int
	SkippedChunks int
	Images        int
}

type Migrator struct {
	from      vectorDB.Store
	to        vectorDB.Store
	batchSize int
	logger    *logger_i.Logger
}

func New(from, to vectorDB.Store) *Migrator {
	return &Migrator{
		from:      from,
		to:        to,
		batchSize: config.MigrationBatchSize,
		logger:    logger_i.NewLogger("migrate").With("from", from.Backend(), "to", to.Backend()),
	}
}

// Run copies every document of the source, oldest first, replacing any
// target document with the same filename. Added dates are preserved. Chunks
// whose stored embedding cannot be decoded are skipped and counted.
func (m *Migrator) Run(ctx context.Context) (Report, error) {
	var report Report

	docs, err := m.from.ListDocuments(ctx)
	if err != nil {
		return report, fmt.Errorf("listing source documents: %w", err)
	}
	all, err := m.from.Search(ctx)
	if err != nil {
		return report, fmt.Errorf("reading source chunks: %w", err)
	}
	m.logger.Info("migration started", "documents", len(docs), "chunks", len(all))

	byFile := make(map[string][]commonModels.StoredChunk, len(docs))
	for _, c := range all {
		byFile[c.Filename] = append(byFile[c.Filename], c)
	}

	// ListDocuments is newest first
	docs = slices.Clone(docs)
	slices.Reverse(docs)

	for _, doc := range docs {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		chunks := make([]commonModels.Chunk, 0, len(byFile[doc.Filename]))
		for _, stored := range byFile[doc.Filename] {
			vector, err := stored.Vector()
			if err != nil {
				m.logger.Warn("skipping chunk with unreadable embedding", "filename", doc.Filename, "page", stored.PageNumber, "error", err)
				report.SkippedChunks++
				continue
			}
			chunks = append(chunks, commonModels.Chunk{PageNumber: stored.PageNumber, Text: stored.Text, Embedding: vector})
		}

		images, err := m.from.DocumentImages(ctx, doc.Filename)
		if err != nil {
			return report, fmt.Errorf("reading images of %s: %w", doc.Filename, err)
		}

		if err := m.to.UpsertDocument(ctx, doc, chunks, images); err != nil {
			return report, fmt.Errorf("writing %s: %w", doc.Filename, err)
		}

		before := report.Chunks
		report.Documents++
		report.Chunks += len(chunks)
		report.Images += len(images)
		if report.Chunks/m.batchSize > before/m.batchSize {
			m.logger.Info("migration progress", "chunks", report.Chunks, "of", len(all))
		}
	}

	m.logger.Info("migration finished",
		"documents", report.Documents,
		"chunks", report.Chunks,
		"skipped", report.SkippedChunks,
		"images", report.Images)
	return report, nil
}
