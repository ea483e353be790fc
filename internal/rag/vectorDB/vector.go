package vectorDB

import (
	"context"
	"time"

	"github.com/akolanti/StudyRAG/internal/domain/commonModels"
)

// Store is the persistence contract shared by every backend. Rows come back
// as commonModels structs, so callers never branch on the backend.
type Store interface {
	// UpsertDocument replaces the document, its chunks and its images in one
	// transaction. doc.TotalChunks is set from len(chunks). A zero doc.AddedAt
	// is stamped with the store clock.
	UpsertDocument(ctx context.Context, doc commonModels.Document, chunks []commonModels.Chunk, images []commonModels.Image) error
	GetDocument(ctx context.Context, filename string) (commonModels.Document, bool, error)
	// SaveImages replaces every image row of filename in one transaction.
	SaveImages(ctx context.Context, filename string, images []commonModels.Image) error

	// Search returns every chunk with its raw embedding. There is no index.
	Search(ctx context.Context) ([]commonModels.StoredChunk, error)
	ListDocuments(ctx context.Context) ([]commonModels.Document, error)
	Stats(ctx context.Context) (commonModels.Stats, error)
	ImagesForPage(ctx context.Context, filename string, page int) ([]commonModels.Image, error)
	DocumentImages(ctx context.Context, filename string) ([]commonModels.Image, error)

	Backend() string
	Ping(ctx context.Context) error
	Close() error
}

// Clock lets tests pin the timestamps a store writes.
type Clock func() time.Time

func SystemClock() time.Time { return time.Now().UTC() }
