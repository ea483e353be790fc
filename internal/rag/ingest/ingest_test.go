package ingest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/akolanti/StudyRAG/internal/domain/commonModels"
	"github.com/akolanti/StudyRAG/internal/domain/ragErrors"
	"github.com/akolanti/StudyRAG/internal/rag/segmenter"
	"github.com/akolanti/StudyRAG/internal/rag/vectorDB"
	"github.com/akolanti/StudyRAG/internal/rag/vectorDB/sqliteDB"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockExtractor struct {
	OnExtractPages  func(ctx context.Context, path string) ([]Page, error)
	OnExtractImages func(ctx context.Context, path string, minSize int) ([]RawImage, error)
}

func (m *mockExtractor) ExtractPages(ctx context.Context, path string) ([]Page, error) {
	return m.OnExtractPages(ctx, path)
}

func (m *mockExtractor) ExtractImages(ctx context.Context, path string, minSize int) ([]RawImage, error) {
	if m.OnExtractImages == nil {
		return nil, nil
	}
	return m.OnExtractImages(ctx, path, minSize)
}

func pagesOf(texts ...string) *mockExtractor {
	return &mockExtractor{OnExtractPages: func(context.Context, string) ([]Page, error) {
		pages := make([]Page, len(texts))
		for i, text := range texts {
			pages[i] = Page{Number: i + 1, Text: text}
		}
		return pages, nil
	}}
}

type mockEmbedder struct {
	calls          int
	OnGetEmbedding func(ctx context.Context, text string) ([]float32, error)
}

func (m *mockEmbedder) GetEmbedding(ctx context.Context, text string) ([]float32, error) {
	m.calls++
	if m.OnGetEmbedding != nil {
		return m.OnGetEmbedding(ctx, text)
	}
	return []float32{float32(len(text)), 1}, nil
}

func newStore(t *testing.T) vectorDB.Store {
	t.Helper()
	store, err := sqliteDB.Open(context.Background(), filepath.Join(t.TempDir(), "ingest.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func smallSegmenter() *segmenter.Segmenter {
	return segmenter.New(segmenter.WithChunkSize(20), segmenter.WithOverlap(5))
}

func chunkTexts(t *testing.T, store vectorDB.Store) []string {
	t.Helper()
	stored, err := store.Search(context.Background())
	require.NoError(t, err)
	texts := make([]string, len(stored))
	for i, c := range stored {
		texts[i] = c.Text
	}
	return texts
}

func TestIngest_TwoPagesThreeChunks(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	p := NewPipeline(smallSegmenter(), &mockEmbedder{}, store,
		WithExtractor(pagesOf(strings.Repeat("0123456789", 3), "short page")))

	result, err := p.Ingest(ctx, "/tmp/notes.pdf", "notes.pdf")
	require.NoError(t, err)

	assert.Equal(t, commonModels.IngestResult{
		Filename:    "notes.pdf",
		PageCount:   2,
		TotalChars:  40,
		TotalChunks: 3,
	}, result)

	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, commonModels.Stats{DocumentCount: 1, TotalPages: 2, TotalChunks: 3}, stats)

	doc, ok, err := store.GetDocument(ctx, "notes.pdf")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 3, doc.TotalChunks)
	assert.Equal(t, 40, doc.TotalChars)
}

func TestIngest_ReingestReplacesChunks(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	extractor := pagesOf("one", "two", "three", "four", "five")
	p := NewPipeline(smallSegmenter(), &mockEmbedder{}, store, WithExtractor(extractor))

	first, err := p.Ingest(ctx, "deck.pdf", "deck.pdf")
	require.NoError(t, err)
	assert.Equal(t, 5, first.TotalChunks)
	assert.False(t, first.Replaced)

	*extractor = *pagesOf("uno", "dos", "tres")
	second, err := p.Ingest(ctx, "deck.pdf", "deck.pdf")
	require.NoError(t, err)
	assert.Equal(t, 3, second.TotalChunks)
	assert.True(t, second.Replaced)

	assert.ElementsMatch(t, []string{"uno", "dos", "tres"}, chunkTexts(t, store))
	docs, err := store.ListDocuments(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, 3, docs[0].PageCount)
}

func TestIngest_SameFileTwiceIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	text := strings.Repeat("資料の本文です。", 20)
	p := NewPipeline(smallSegmenter(), &mockEmbedder{}, store, WithExtractor(pagesOf(text, text)))

	first, err := p.Ingest(ctx, "same.pdf", "same.pdf")
	require.NoError(t, err)
	before := chunkTexts(t, store)

	second, err := p.Ingest(ctx, "same.pdf", "same.pdf")
	require.NoError(t, err)

	assert.Equal(t, first.TotalChunks, second.TotalChunks)
	assert.Equal(t, before, chunkTexts(t, store))
}

func TestIngest_EmbeddingFailureKeepsPreviousVersion(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	_, err := NewPipeline(smallSegmenter(), &mockEmbedder{}, store, WithExtractor(pagesOf("old text"))).
		Ingest(ctx, "doc.pdf", "doc.pdf")
	require.NoError(t, err)

	embedder := &mockEmbedder{}
	embedder.OnGetEmbedding = func(ctx context.Context, text string) ([]float32, error) {
		if embedder.calls == 2 {
			return nil, ragErrors.New(ragErrors.ErrEmbeddingService, "embed", errors.New("503"))
		}
		return []float32{1, 1}, nil
	}
	p := NewPipeline(smallSegmenter(), embedder, store, WithExtractor(pagesOf("new a", "new b", "new c")))

	_, err = p.Ingest(ctx, "doc.pdf", "doc.pdf")
	require.Error(t, err)
	assert.ErrorIs(t, err, ragErrors.ErrIngestion)
	assert.ErrorIs(t, err, ragErrors.ErrEmbeddingService)
	assert.Equal(t, 2, embedder.calls, "must stop at the first failure")

	assert.Equal(t, []string{"old text"}, chunkTexts(t, store))
}

func TestIngest_ExtractionErrors(t *testing.T) {
	tests := []struct {
		name      string
		extractor *mockExtractor
	}{
		{"no pages", pagesOf()},
		{"only blank pages", pagesOf("  ", "\n\t")},
		{"extractor fails", &mockExtractor{OnExtractPages: func(context.Context, string) ([]Page, error) {
			return nil, errors.New("corrupt xref")
		}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newStore(t)
			embedder := &mockEmbedder{}
			p := NewPipeline(smallSegmenter(), embedder, store, WithExtractor(tt.extractor))

			_, err := p.Ingest(context.Background(), "bad.pdf", "bad.pdf")
			require.Error(t, err)
			assert.ErrorIs(t, err, ragErrors.ErrExtraction)
			assert.Zero(t, embedder.calls)

			stats, err := store.Stats(context.Background())
			require.NoError(t, err)
			assert.Zero(t, stats.DocumentCount)
		})
	}
}

func TestIngest_UnsupportedType(t *testing.T) {
	p := NewPipeline(smallSegmenter(), &mockEmbedder{}, newStore(t))
	_, err := p.Ingest(context.Background(), "photo.png", "")
	assert.ErrorIs(t, err, ragErrors.ErrInvalidInput)
}

func TestIngest_ImagesAreSaved(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	imageDir := t.TempDir()

	extractor := pagesOf("page with a figure")
	extractor.OnExtractImages = func(_ context.Context, _ string, minSize int) ([]RawImage, error) {
		assert.Equal(t, 80, minSize)
		return []RawImage{{PageNumber: 1, Index: 1, Width: 100, Height: 90, PNG: []byte("png")}}, nil
	}
	p := NewPipeline(smallSegmenter(), &mockEmbedder{}, store,
		WithExtractor(extractor), WithImageWriter(NewDirImageWriter(imageDir)), WithMinImageSize(80))

	result, err := p.Ingest(ctx, "figures.pdf", "figures.pdf")
	require.NoError(t, err)
	assert.Equal(t, commonModels.ImageOutcome{Extracted: 1, Saved: 1}, result.Images)

	images, err := store.ImagesForPage(ctx, "figures.pdf", 1)
	require.NoError(t, err)
	require.Len(t, images, 1)
	assert.Equal(t, "figures/page1_img1.png", images[0].ImagePath)
	assert.Equal(t, 100, images[0].Width)

	content, err := os.ReadFile(filepath.Join(imageDir, "figures", "page1_img1.png"))
	require.NoError(t, err)
	assert.Equal(t, []byte("png"), content)
}

func TestIngest_ReingestDropsOldImageFiles(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	imageDir := t.TempDir()

	batches := [][]RawImage{
		{{PageNumber: 1, Index: 1, PNG: []byte("a")}, {PageNumber: 2, Index: 1, PNG: []byte("b")}},
		{{PageNumber: 1, Index: 1, PNG: []byte("c")}},
	}
	var call int
	extractor := pagesOf("first page", "second page")
	extractor.OnExtractImages = func(context.Context, string, int) ([]RawImage, error) {
		batch := batches[call]
		call++
		return batch, nil
	}
	p := NewPipeline(smallSegmenter(), &mockEmbedder{}, store,
		WithExtractor(extractor), WithImageWriter(NewDirImageWriter(imageDir)))

	for range batches {
		_, err := p.Ingest(ctx, "slides.pdf", "slides.pdf")
		require.NoError(t, err)
	}

	entries, err := os.ReadDir(filepath.Join(imageDir, "slides"))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "page1_img1.png", entries[0].Name())

	content, err := os.ReadFile(filepath.Join(imageDir, "slides", "page1_img1.png"))
	require.NoError(t, err)
	assert.Equal(t, []byte("c"), content)

	images, err := store.ImagesForPage(ctx, "slides.pdf", 2)
	require.NoError(t, err)
	assert.Empty(t, images)
}

func TestIngest_ImageFailureIsAWarning(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	extractor := pagesOf("text survives")
	extractor.OnExtractImages = func(context.Context, string, int) ([]RawImage, error) {
		return nil, errors.New("xobject decode failed")
	}
	p := NewPipeline(smallSegmenter(), &mockEmbedder{}, store,
		WithExtractor(extractor), WithImageWriter(NewDirImageWriter(t.TempDir())))

	result, err := p.Ingest(ctx, "scan.pdf", "scan.pdf")
	require.NoError(t, err)
	assert.Equal(t, 1, result.TotalChunks)
	assert.Contains(t, result.Images.Warning, "xobject decode failed")
	assert.Zero(t, result.Images.Saved)

	_, ok, err := store.GetDocument(ctx, "scan.pdf")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestGetDocType(t *testing.T) {
	tests := []struct {
		path     string
		expected commonModels.DocType
	}{
		{"test.pdf", commonModels.PDF},
		{"SLIDES.PDF", commonModels.PDF},
		{"DOC.DOCX", commonModels.DOCX},
		{"draft.odt", commonModels.DOCX},
		{"memo.rtf", commonModels.DOCX},
		{"notes.txt", commonModels.TXT},
		{"image.png", commonModels.ERR},
		{"noext", commonModels.ERR},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.expected, getDocType(tt.path))
		})
	}
}

func TestCatExtractor_PlainText(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("plain text notes"), 0o644))

	pages, err := catExtractor{}.ExtractPages(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, pages, 1)
	assert.Equal(t, 1, pages[0].Number)
	assert.Contains(t, pages[0].Text, "plain text notes")
}
