package rag_test

import (
	"context"
	"errors"
	"math"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/akolanti/StudyRAG/internal/config"
	"github.com/akolanti/StudyRAG/internal/data/store"
	"github.com/akolanti/StudyRAG/internal/domain/commonModels"
	"github.com/akolanti/StudyRAG/internal/domain/ragErrors"
	"github.com/akolanti/StudyRAG/internal/domain/sessionModel"
	"github.com/akolanti/StudyRAG/internal/rag"
	"github.com/akolanti/StudyRAG/internal/rag/ingest"
	"github.com/akolanti/StudyRAG/internal/rag/segmenter"
	"github.com/akolanti/StudyRAG/internal/rag/session"
	"github.com/akolanti/StudyRAG/internal/rag/vectorDB/sqliteDB"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	store     *MockStore
	embedder  *MockEmbedder
	completer *MockCompleter
	sessions  *session.Manager
	service   rag.Service
}

func newFixture() *fixture {
	f := &fixture{
		store:     &MockStore{},
		embedder:  &MockEmbedder{},
		completer: &MockCompleter{},
		sessions:  session.NewManager(store.InitTranscriptStore()),
	}
	f.service = rag.NewService(rag.ServiceConfig{
		Store:     f.store,
		Embedder:  f.embedder,
		Completer: f.completer,
		Sessions:  f.sessions,
	})
	return f
}

func TestAnswer_EmptyStoreShortCircuits(t *testing.T) {
	f := newFixture()
	f.store.OnStats = func(context.Context) (commonModels.Stats, error) { return commonModels.Stats{}, nil }

	result, err := f.service.Answer(context.Background(), "ネットワークとは？", "")
	require.NoError(t, err)

	assert.True(t, result.NoData)
	assert.Equal(t, config.NoDataMessage, result.Answer)
	assert.Empty(t, result.Sources)
	assert.Zero(t, f.embedder.Calls, "must not embed when nothing is stored")
	assert.Empty(t, f.completer.Received)
}

func TestAnswer_GroundsAndRecordsSources(t *testing.T) {
	f := newFixture()
	long := strings.Repeat("画", 150)
	f.store.OnSearch = func(context.Context) ([]commonModels.StoredChunk, error) {
		return []commonModels.StoredChunk{
			storedChunk("b.pdf", 3, "sideways", []float32{0, 1}),
			storedChunk("a.pdf", 2, long, []float32{1, 0}),
			storedChunk("c.pdf", 1, "close", []float32{1, 1}),
		}, nil
	}
	f.completer.OnComplete = func(context.Context, []sessionModel.Message) (string, error) {
		return "ページ2を見てね", nil
	}

	ctx := context.Background()
	result, err := f.service.Answer(ctx, "  画素とは？ ", "s1")
	require.NoError(t, err)
	assert.Equal(t, "ページ2を見てね", result.Answer)
	assert.False(t, result.NoData)
	assert.False(t, result.NotFound)

	require.Len(t, result.Sources, 3)
	assert.Equal(t, commonModels.Source{Filename: "a.pdf", Page: 2, Similarity: 1, Text: strings.Repeat("画", 100) + "..."}, result.Sources[0])
	assert.Equal(t, "c.pdf", result.Sources[1].Filename)
	assert.Equal(t, math.Round(1/math.Sqrt2*1000)/1000, result.Sources[1].Similarity)
	assert.Equal(t, "close", result.Sources[1].Text)
	assert.Equal(t, "b.pdf", result.Sources[2].Filename)
	assert.Equal(t, 103, utf8.RuneCountInString(result.Sources[0].Text))

	require.Len(t, f.completer.Received, 1)
	sent := f.completer.Received[0]
	require.Len(t, sent, 2)
	assert.Equal(t, sessionModel.RoleSystem, sent[0].Role)
	prompt := sent[1].Content
	assert.True(t, strings.HasPrefix(prompt, config.ContextHeader))
	assert.Contains(t, prompt, "【資料1: a.pdf ページ2】\n類似度: 1.000\n"+long)
	assert.Contains(t, prompt, "【資料2: c.pdf ページ1】\n類似度: 0.707\nclose")
	assert.Contains(t, prompt, "# ユーザーの質問:\n画素とは？")

	transcript, err := f.sessions.Transcript(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, transcript, 3)
	assert.Equal(t, "画素とは？", transcript[1].Content, "the stored turn keeps only the bare question")
	assert.Equal(t, "ページ2を見てね", transcript[2].Content)
}

func TestAnswer_TopKLimitsSources(t *testing.T) {
	f := newFixture()
	f.service = rag.NewService(rag.ServiceConfig{
		Store: f.store, Embedder: f.embedder, Completer: f.completer, Sessions: f.sessions, TopK: 2,
	})
	f.store.OnSearch = func(context.Context) ([]commonModels.StoredChunk, error) {
		var chunks []commonModels.StoredChunk
		for i := 1; i <= 6; i++ {
			chunks = append(chunks, storedChunk("a.pdf", i, "t", []float32{1, float32(i)}))
		}
		return chunks, nil
	}

	result, err := f.service.Answer(context.Background(), "q", "")
	require.NoError(t, err)
	require.Len(t, result.Sources, 2)
	assert.Equal(t, 1, result.Sources[0].Page)
	assert.Equal(t, 2, result.Sources[1].Page)
}

func TestAnswer_NothingRelevant(t *testing.T) {
	f := newFixture()
	f.store.OnSearch = func(context.Context) ([]commonModels.StoredChunk, error) {
		return []commonModels.StoredChunk{{Filename: "x.pdf", PageNumber: 1, Text: "t", RawEmbedding: []byte("not json")}}, nil
	}

	result, err := f.service.Answer(context.Background(), "q", "s")
	require.NoError(t, err)
	assert.True(t, result.NotFound)
	assert.Equal(t, config.NotFoundMessage, result.Answer)
	assert.Empty(t, f.completer.Received)
}

func TestAnswer_Failures(t *testing.T) {
	tests := []struct {
		name     string
		question string
		setup    func(f *fixture)
		wantKind error
	}{
		{
			name:     "blank question",
			question: "   ",
			setup:    func(*fixture) {},
			wantKind: ragErrors.ErrInvalidInput,
		},
		{
			name:     "store unavailable",
			question: "q",
			setup: func(f *fixture) {
				f.store.OnStats = func(context.Context) (commonModels.Stats, error) {
					return commonModels.Stats{}, ragErrors.New(ragErrors.ErrStorageUnavailable, "stats", errors.New("connection refused"))
				}
			},
			wantKind: ragErrors.ErrStorageUnavailable,
		},
		{
			name:     "embedding service down",
			question: "q",
			setup: func(f *fixture) {
				f.embedder.OnGetEmbedding = func(context.Context, string) ([]float32, error) {
					return nil, ragErrors.New(ragErrors.ErrEmbeddingService, "embed", errors.New("api limit"))
				}
			},
			wantKind: ragErrors.ErrEmbeddingService,
		},
		{
			name:     "completion service down",
			question: "q",
			setup: func(f *fixture) {
				f.store.OnSearch = func(context.Context) ([]commonModels.StoredChunk, error) {
					return []commonModels.StoredChunk{storedChunk("a.pdf", 1, "t", []float32{1, 0})}, nil
				}
				f.completer.OnComplete = func(context.Context, []sessionModel.Message) (string, error) {
					return "", ragErrors.New(ragErrors.ErrCompletionService, "complete", context.DeadlineExceeded)
				}
			},
			wantKind: ragErrors.ErrCompletionService,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			tt.setup(f)

			_, err := f.service.Answer(context.Background(), tt.question, "s")
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantKind)
		})
	}
}

func TestAnswer_FailedCompletionKeepsTranscript(t *testing.T) {
	f := newFixture()
	f.store.OnSearch = func(context.Context) ([]commonModels.StoredChunk, error) {
		return []commonModels.StoredChunk{storedChunk("a.pdf", 1, "t", []float32{1, 0})}, nil
	}
	ctx := context.Background()
	_, err := f.service.Answer(ctx, "first", "s")
	require.NoError(t, err)

	f.completer.OnComplete = func(context.Context, []sessionModel.Message) (string, error) {
		return "", ragErrors.New(ragErrors.ErrCompletionService, "complete", errors.New("503"))
	}
	_, err = f.service.Answer(ctx, "second", "s")
	require.Error(t, err)

	transcript, err := f.sessions.Transcript(ctx, "s")
	require.NoError(t, err)
	assert.Len(t, transcript, 3)
}

func TestResetSession(t *testing.T) {
	f := newFixture()
	f.store.OnSearch = func(context.Context) ([]commonModels.StoredChunk, error) {
		return []commonModels.StoredChunk{storedChunk("a.pdf", 1, "t", []float32{1, 0})}, nil
	}
	ctx := context.Background()

	_, err := f.service.Answer(ctx, "q", "")
	require.NoError(t, err)

	existed, err := f.service.ResetSession(ctx, "")
	require.NoError(t, err)
	assert.True(t, existed)

	existed, err = f.service.ResetSession(ctx, "")
	require.NoError(t, err)
	assert.False(t, existed)
}

func TestImagesForPage_Validation(t *testing.T) {
	f := newFixture()
	called := false
	f.store.OnImagesForPage = func(context.Context, string, int) ([]commonModels.Image, error) {
		called = true
		return []commonModels.Image{{Filename: "a.pdf", PageNumber: 2, ImageIndex: 1}}, nil
	}

	_, err := f.service.ImagesForPage(context.Background(), "a.pdf", 0)
	assert.ErrorIs(t, err, ragErrors.ErrInvalidInput)
	_, err = f.service.ImagesForPage(context.Background(), " ", 1)
	assert.ErrorIs(t, err, ragErrors.ErrInvalidInput)
	assert.False(t, called)

	images, err := f.service.ImagesForPage(context.Background(), "a.pdf", 2)
	require.NoError(t, err)
	assert.Len(t, images, 1)
}

func TestHealth(t *testing.T) {
	f := newFixture()
	health := f.service.Health(context.Background())
	assert.Equal(t, "ok", health.Status)
	assert.Equal(t, "mock", health.Database)
	assert.Equal(t, 1, health.Stats.DocumentCount)

	f.store.OnPing = func(context.Context) error { return errors.New("dial tcp: refused") }
	health = f.service.Health(context.Background())
	assert.Equal(t, "error", health.Status)
	assert.Contains(t, health.Message, "refused")
}

type pagesExtractor []ingest.Page

func (p pagesExtractor) ExtractPages(context.Context, string) ([]ingest.Page, error) {
	return p, nil
}

func (p pagesExtractor) ExtractImages(context.Context, string, int) ([]ingest.RawImage, error) {
	return nil, nil
}

func TestService_IngestThenAnswerOnSQLite(t *testing.T) {
	ctx := context.Background()
	sqlite, err := sqliteDB.Open(ctx, filepath.Join(t.TempDir(), "rag.db"))
	require.NoError(t, err)
	t.Cleanup(func() { sqlite.Close() })

	embedder := &MockEmbedder{OnGetEmbedding: func(_ context.Context, text string) ([]float32, error) {
		if strings.Contains(text, "TCP") {
			return []float32{1, 0}, nil
		}
		return []float32{0.2, 1}, nil
	}}
	pages := pagesExtractor{
		{Number: 1, Text: strings.Repeat("0123456789", 3)},
		{Number: 2, Text: "TCP は信頼性のある通信"},
	}
	seg := segmenter.New(segmenter.WithChunkSize(20), segmenter.WithOverlap(5))
	completer := &MockCompleter{}

	service := rag.NewService(rag.ServiceConfig{
		Store:     sqlite,
		Embedder:  embedder,
		Completer: completer,
		Sessions:  session.NewManager(store.InitTranscriptStore()),
		Ingester:  ingest.NewPipeline(seg, embedder, sqlite, ingest.WithExtractor(pages)),
	})

	ingested, err := service.Ingest(ctx, "net.pdf", "net.pdf")
	require.NoError(t, err)
	assert.Equal(t, 3, ingested.TotalChunks)

	stats, err := service.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, commonModels.Stats{DocumentCount: 1, TotalPages: 2, TotalChunks: 3}, stats)

	result, err := service.Answer(ctx, "TCPとは？", "")
	require.NoError(t, err)
	require.NotEmpty(t, result.Sources)
	assert.Equal(t, 2, result.Sources[0].Page)
	assert.Equal(t, 1.0, result.Sources[0].Similarity)

	docs, err := service.ListDocuments(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "net.pdf", docs[0].Filename)
	assert.Equal(t, config.BackendSQLite, service.Backend())
}
