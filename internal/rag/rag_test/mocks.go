package rag_test

import (
	"context"
	"encoding/json"

	"github.com/akolanti/StudyRAG/internal/domain/commonModels"
	"github.com/akolanti/StudyRAG/internal/domain/sessionModel"
)

// MockStore implements vectorDB.Store
type MockStore struct {
	OnUpsertDocument func(ctx context.Context, doc commonModels.Document, chunks []commonModels.Chunk, images []commonModels.Image) error
	OnSearch         func(ctx context.Context) ([]commonModels.StoredChunk, error)
	OnStats          func(ctx context.Context) (commonModels.Stats, error)
	OnImagesForPage  func(ctx context.Context, filename string, page int) ([]commonModels.Image, error)
	OnPing           func(ctx context.Context) error
}

func (m *MockStore) UpsertDocument(ctx context.Context, doc commonModels.Document, chunks []commonModels.Chunk, images []commonModels.Image) error {
	if m.OnUpsertDocument != nil {
		return m.OnUpsertDocument(ctx, doc, chunks, images)
	}
	return nil
}

func (m *MockStore) GetDocument(ctx context.Context, filename string) (commonModels.Document, bool, error) {
	return commonModels.Document{}, false, nil
}

func (m *MockStore) SaveImages(ctx context.Context, filename string, images []commonModels.Image) error {
	return nil
}

func (m *MockStore) Search(ctx context.Context) ([]commonModels.StoredChunk, error) {
	if m.OnSearch != nil {
		return m.OnSearch(ctx)
	}
	return nil, nil
}

func (m *MockStore) ListDocuments(ctx context.Context) ([]commonModels.Document, error) {
	return nil, nil
}

func (m *MockStore) Stats(ctx context.Context) (commonModels.Stats, error) {
	if m.OnStats != nil {
		return m.OnStats(ctx)
	}
	return commonModels.Stats{DocumentCount: 1, TotalPages: 1, TotalChunks: 1}, nil
}

func (m *MockStore) ImagesForPage(ctx context.Context, filename string, page int) ([]commonModels.Image, error) {
	if m.OnImagesForPage != nil {
		return m.OnImagesForPage(ctx, filename, page)
	}
	return nil, nil
}

func (m *MockStore) DocumentImages(ctx context.Context, filename string) ([]commonModels.Image, error) {
	return nil, nil
}

func (m *MockStore) Backend() string { return "mock" }

func (m *MockStore) Ping(ctx context.Context) error {
	if m.OnPing != nil {
		return m.OnPing(ctx)
	}
	return nil
}

func (m *MockStore) Close() error { return nil }

func storedChunk(filename string, page int, text string, vector []float32) commonModels.StoredChunk {
	raw, _ := json.Marshal(vector)
	return commonModels.StoredChunk{Filename: filename, PageNumber: page, Text: text, RawEmbedding: raw}
}

type MockEmbedder struct {
	Calls          int
	OnGetEmbedding func(ctx context.Context, text string) ([]float32, error)
}

func (m *MockEmbedder) GetEmbedding(ctx context.Context, text string) ([]float32, error) {
	m.Calls++
	if m.OnGetEmbedding != nil {
		return m.OnGetEmbedding(ctx, text)
	}
	return []float32{1, 0}, nil
}

// MockCompleter implements rag.Completer
type MockCompleter struct {
	Received   [][]sessionModel.Message
	OnComplete func(ctx context.Context, messages []sessionModel.Message) (string, error)
}

func (m *MockCompleter) Complete(ctx context.Context, messages []sessionModel.Message) (string, error) {
	m.Received = append(m.Received, append([]sessionModel.Message(nil), messages...))
	if m.OnComplete != nil {
		return m.OnComplete(ctx, messages)
	}
	return "mocked llm response", nil
}
