package rag

import (
	"context"
	"strings"

	"github.com/akolanti/StudyRAG/internal/config"
	"github.com/akolanti/StudyRAG/internal/domain/commonModels"
	"github.com/akolanti/StudyRAG/internal/domain/ragErrors"
	"github.com/akolanti/StudyRAG/internal/domain/sessionModel"
	"github.com/akolanti/StudyRAG/internal/metrics"
	"github.com/akolanti/StudyRAG/internal/rag/embedding"
	"github.com/akolanti/StudyRAG/internal/rag/retriever"
	"github.com/akolanti/StudyRAG/internal/rag/session"
	"github.com/akolanti/StudyRAG/internal/rag/vectorDB"
	"github.com/akolanti/StudyRAG/pkg/logger_i"
)

/*
Service is the public contract the handlers, the worker pool, the CLI and the
MCP tools call. The private service struct holds the store, the provider
clients and the session manager, so callers never reach those directly and
tests can swap any of them for mocks.
*/
type Service interface {
	Answer(ctx context.Context, question string, sessionID string) (commonModels.AnswerResult, error)
	Ingest(ctx context.Context, filePath string, filename string) (commonModels.IngestResult, error)
	ResetSession(ctx context.Context, sessionID string) (bool, error)
	Stats(ctx context.Context) (commonModels.Stats, error)
	ListDocuments(ctx context.Context) ([]commonModels.Document, error)
	ImagesForPage(ctx context.Context, filename string, page int) ([]commonModels.Image, error)
	Health(ctx context.Context) commonModels.Health
	Backend() string
}

// Completer sends a full transcript to the completion service.
type Completer interface {
	Complete(ctx context.Context, messages []sessionModel.Message) (string, error)
}

// Ingester runs one document through the ingestion pipeline.
type Ingester interface {
	Ingest(ctx context.Context, filePath string, filename string) (commonModels.IngestResult, error)
}

type ServiceConfig struct {
	Store     vectorDB.Store
	Embedder  embedding.Embedder
	Completer Completer
	Sessions  *session.Manager
	Ingester  Ingester
	// TopK defaults to config.DefaultTopK.
	TopK int
}

type service struct {
	store     vectorDB.Store
	embedder  embedding.Embedder
	completer Completer
	sessions  *session.Manager
	ingester  Ingester
	retriever *retriever.Retriever
	topK      int
	logger    *logger_i.Logger
}

func NewService(cfg ServiceConfig) Service {
	topK := cfg.TopK
	if topK <= 0 {
		topK = config.DefaultTopK
	}
	return &service{
		store:     cfg.Store,
		embedder:  cfg.Embedder,
		completer: cfg.Completer,
		sessions:  cfg.Sessions,
		ingester:  cfg.Ingester,
		retriever: retriever.New(cfg.Store),
		topK:      topK,
		logger:    logger_i.NewLogger("RAG Service"),
	}
}

// Answer grounds question in the stored chunks and continues sessionID's
// conversation. An empty store or an unmatched question is a successful
// result flagged NoData or NotFound.
func (s *service) Answer(ctx context.Context, question string, sessionID string) (commonModels.AnswerResult, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return commonModels.AnswerResult{}, ragErrors.Newf(ragErrors.ErrInvalidInput, "answer", "question is empty")
	}
	if sessionID == "" {
		sessionID = config.DefaultSessionID
	}
	log := s.logger.WithTrace(ctx).With("sessionId", sessionID)

	stats, err := s.store.Stats(ctx)
	if err != nil {
		return s.answerError(log, "stats", err)
	}
	if stats.DocumentCount == 0 {
		log.Info("no documents ingested yet")
		metrics.CountAnswer("no_data")
		return commonModels.AnswerResult{Answer: config.NoDataMessage, Sources: []commonModels.Source{}, NoData: true}, nil
	}

	queryVector, err := s.executeEmbeddingStep(ctx, log, question)
	if err != nil {
		return s.answerError(log, "embedding", err)
	}

	matches, err := s.executeRetrievalStep(ctx, log, queryVector)
	if err != nil {
		return s.answerError(log, "retrieval", err)
	}
	if len(matches) == 0 {
		metrics.CountAnswer("not_found")
		return commonModels.AnswerResult{Answer: config.NotFoundMessage, Sources: []commonModels.Source{}, NotFound: true}, nil
	}

	answer, err := s.executeLLMStep(ctx, log, sessionID, question, buildGroundedPrompt(question, matches))
	if err != nil {
		return s.answerError(log, "completion", err)
	}

	metrics.CountAnswer("ok")
	return commonModels.AnswerResult{Answer: answer, Sources: toSources(matches)}, nil
}

func (s *service) Ingest(ctx context.Context, filePath string, filename string) (commonModels.IngestResult, error) {
	return s.ingester.Ingest(ctx, filePath, filename)
}

func (s *service) ResetSession(ctx context.Context, sessionID string) (bool, error) {
	return s.sessions.Reset(ctx, sessionID)
}

func (s *service) Stats(ctx context.Context) (commonModels.Stats, error) {
	return s.store.Stats(ctx)
}

func (s *service) ListDocuments(ctx context.Context) ([]commonModels.Document, error) {
	return s.store.ListDocuments(ctx)
}

func (s *service) ImagesForPage(ctx context.Context, filename string, page int) ([]commonModels.Image, error) {
	if strings.TrimSpace(filename) == "" || page < 1 {
		return nil, ragErrors.Newf(ragErrors.ErrInvalidInput, "images", "need a filename and a page >= 1, got %q/%d", filename, page)
	}
	return s.store.ImagesForPage(ctx, filename, page)
}

// Health never fails; an unreachable store is reported in the result.
func (s *service) Health(ctx context.Context) commonModels.Health {
	health := commonModels.Health{Status: "ok", Database: s.store.Backend()}
	if err := s.store.Ping(ctx); err != nil {
		health.Status = "error"
		health.Message = err.Error()
		return health
	}
	stats, err := s.store.Stats(ctx)
	if err != nil {
		health.Status = "error"
		health.Message = err.Error()
		return health
	}
	health.Stats = stats
	return health
}

func (s *service) Backend() string {
	return s.store.Backend()
}
