package rag

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/akolanti/StudyRAG/internal/config"
	"github.com/akolanti/StudyRAG/internal/domain/commonModels"
	"github.com/akolanti/StudyRAG/internal/domain/ragErrors"
	"github.com/akolanti/StudyRAG/internal/metrics"
	"github.com/akolanti/StudyRAG/pkg/logger_i"
)

func (s *service) answerError(log *logger_i.Logger, step string, err error) (commonModels.AnswerResult, error) {
	log.Error("Answer failed", "step", step, "kind", ragErrors.KindOf(err), "error", err)
	metrics.CountAnswer("error")
	return commonModels.AnswerResult{}, err
}

func (s *service) executeEmbeddingStep(ctx context.Context, log *logger_i.Logger, question string) ([]float32, error) {
	log.Debug("Answer", "step", "embedding")
	return s.embedder.GetEmbedding(ctx, question)
}

func (s *service) executeRetrievalStep(ctx context.Context, log *logger_i.Logger, query []float32) ([]commonModels.ScoredChunk, error) {
	log.Debug("Answer", "step", "retrieval")

	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("retrieval", time.Since(start)) }()

	return s.retriever.Retrieve(ctx, query, s.topK)
}

func (s *service) executeLLMStep(ctx context.Context, log *logger_i.Logger, sessionID, question, prompt string) (string, error) {
	log.Debug("Answer", "step", "llm")

	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("llm_generation", time.Since(start)) }()

	return s.sessions.Converse(ctx, sessionID, question, prompt, s.completer.Complete)
}

// buildGroundedPrompt lists the matches best first, numbered from 1, then the question.
func buildGroundedPrompt(question string, matches []commonModels.ScoredChunk) string {
	var b strings.Builder
	b.WriteString(config.ContextHeader)
	for i, m := range matches {
		fmt.Fprintf(&b, config.ContextChunkFormat, i+1, m.Filename, m.PageNumber, m.Similarity, m.Text)
	}
	return fmt.Sprintf(config.QuestionFormat, b.String(), question)
}

func toSources(matches []commonModels.ScoredChunk) []commonModels.Source {
	sources := make([]commonModels.Source, len(matches))
	for i, m := range matches {
		sources[i] = commonModels.Source{
			Filename:   m.Filename,
			Page:       m.PageNumber,
			Similarity: math.Round(m.Similarity*1000) / 1000,
			Text:       preview(m.Text),
		}
	}
	return sources
}

func preview(text string) string {
	if utf8.RuneCountInString(text) <= config.SourcePreviewLength {
		return text
	}
	return string([]rune(text)[:config.SourcePreviewLength]) + "..."
}
