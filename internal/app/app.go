// Package app assembles the engine from configuration. The API server and
// the ragctl commands share it so both run the same stack.
package app

import (
	"context"
	"fmt"

	"github.com/akolanti/StudyRAG/internal/config"
	"github.com/akolanti/StudyRAG/internal/customHttpClient"
	"github.com/akolanti/StudyRAG/internal/data/store"
	"github.com/akolanti/StudyRAG/internal/rag"
	"github.com/akolanti/StudyRAG/internal/rag/embedding"
	"github.com/akolanti/StudyRAG/internal/rag/embedding/googleEmbedding"
	"github.com/akolanti/StudyRAG/internal/rag/embedding/openaiEmbedding"
	"github.com/akolanti/StudyRAG/internal/rag/ingest"
	"github.com/akolanti/StudyRAG/internal/rag/llm"
	"github.com/akolanti/StudyRAG/internal/rag/llm/gemini"
	"github.com/akolanti/StudyRAG/internal/rag/llm/openaiLLM"
	"github.com/akolanti/StudyRAG/internal/rag/segmenter"
	"github.com/akolanti/StudyRAG/internal/rag/session"
	"github.com/akolanti/StudyRAG/internal/rag/vectorDB"
	"github.com/akolanti/StudyRAG/internal/rag/vectorDB/backend"
	"github.com/akolanti/StudyRAG/pkg/logger_i"
)

type App struct {
	Store   vectorDB.Store
	Service rag.Service
}

// Close releases the store and the pooled provider connections.
func (a *App) Close() error {
	defer customHttpClient.CloseIdle()
	return a.Store.Close()
}

// Build opens the vector store and the provider clients named by cfg.
func Build(ctx context.Context, cfg *config.AppConfig) (*App, error) {
	logger := logger_i.NewLogger("app")

	vectorStore, err := backend.Open(ctx, cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("opening vector store: %w", err)
	}

	embedder, err := newEmbedder(ctx, cfg.Embedding)
	if err != nil {
		vectorStore.Close()
		return nil, err
	}
	completer, err := newCompleter(ctx, cfg.LLM)
	if err != nil {
		vectorStore.Close()
		return nil, err
	}

	transcripts, err := store.NewTranscriptStore(ctx, cfg.Session, cfg.Redis)
	if err != nil {
		vectorStore.Close()
		return nil, fmt.Errorf("opening transcript store: %w", err)
	}
	sessions := session.NewManager(transcripts, session.WithLimits(cfg.Session.MaxMessages, cfg.Session.KeepMessages))

	pipeline := ingest.NewPipeline(
		segmenter.New(segmenter.WithChunkSize(cfg.Chunking.Size), segmenter.WithOverlap(cfg.Chunking.Overlap)),
		embedder,
		vectorStore,
		ingest.WithImageWriter(ingest.NewDirImageWriter(cfg.Files.ImageDir)),
		ingest.WithMinImageSize(cfg.Files.MinImageSize),
	)

	service := rag.NewService(rag.ServiceConfig{
		Store:     vectorStore,
		Embedder:  embedder,
		Completer: completer,
		Sessions:  sessions,
		Ingester:  pipeline,
		TopK:      cfg.Retrieval.TopK,
	})
	logger.Info("Engine ready",
		"backend", vectorStore.Backend(),
		"embedding", cfg.Embedding.Provider+"/"+cfg.Embedding.Model,
		"llm", cfg.LLM.Provider+"/"+cfg.LLM.Model,
		"sessions", cfg.Session.Store)

	return &App{Store: vectorStore, Service: service}, nil
}

func newEmbedder(ctx context.Context, cfg config.EmbeddingConfig) (*embedding.Gateway, error) {
	var (
		provider embedding.Embedder
		err      error
	)
	switch cfg.Provider {
	case config.ProviderGoogle:
		provider, err = googleEmbedding.GetGoogleEmbeddingClient(ctx, cfg.Model, cfg.APIKey, cfg.Dimensions)
	default:
		provider, err = openaiEmbedding.New(cfg.APIKey, cfg.Model, cfg.Dimensions)
	}
	if err != nil {
		return nil, fmt.Errorf("embedding provider %s: %w", cfg.Provider, err)
	}
	return embedding.NewGateway(cfg.Provider, provider,
		embedding.WithTimeout(cfg.Timeout),
		embedding.WithMaxRetries(cfg.MaxRetries),
		embedding.WithDimensions(cfg.Dimensions),
	), nil
}

func newCompleter(ctx context.Context, cfg config.LLMConfig) (*llm.Completer, error) {
	var (
		provider llm.Provider
		err      error
	)
	switch cfg.Provider {
	case config.ProviderGoogle:
		provider, err = gemini.GetGeminiClient(ctx, cfg.Model, cfg.APIKey)
	default:
		provider, err = openaiLLM.New(cfg.APIKey, cfg.Model)
	}
	if err != nil {
		return nil, fmt.Errorf("llm provider %s: %w", cfg.Provider, err)
	}
	return llm.NewCompleter(cfg.Provider, provider, cfg.Timeout, llm.SamplingParams{
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
	}), nil
}
