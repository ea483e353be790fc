package retriever

import (
	"context"
	"math"
	"sort"

	"github.com/akolanti/StudyRAG/internal/config"
	"github.com/akolanti/StudyRAG/internal/domain/commonModels"
	"github.com/akolanti/StudyRAG/internal/domain/ragErrors"
	"github.com/akolanti/StudyRAG/internal/metrics"
	"github.com/akolanti/StudyRAG/internal/rag/vectorDB"
	"github.com/akolanti/StudyRAG/pkg/logger_i"
)

// Retriever ranks every stored chunk by cosine similarity to a query vector.
type Retriever struct {
	store  vectorDB.Store
	logger *logger_i.Logger
}

func New(store vectorDB.Store) *Retriever {
	return &Retriever{store: store, logger: logger_i.NewLogger("retriever")}
}

// Retrieve returns at most topK chunks, best first; equal scores keep storage
// order. topK <= 0 means config.DefaultTopK.
func (r *Retriever) Retrieve(ctx context.Context, query []float32, topK int) ([]commonModels.ScoredChunk, error) {
	if topK <= 0 {
		topK = config.DefaultTopK
	}
	queryNorm := norm(query)
	if len(query) == 0 || queryNorm == 0 {
		return nil, ragErrors.Newf(ragErrors.ErrInvalidInput, "retrieve", "query vector has zero norm")
	}

	stored, err := r.store.Search(ctx)
	if err != nil {
		return nil, err
	}

	log := r.logger.WithTrace(ctx)
	scored := make([]commonModels.ScoredChunk, 0, len(stored))
	for _, c := range stored {
		vector, err := c.Vector()
		if err != nil {
			log.Warn("skipping malformed embedding", "filename", c.Filename, "page", c.PageNumber, "error", err)
			metrics.IncrementSkippedChunks("malformed")
			continue
		}
		if len(vector) != len(query) {
			log.Warn("skipping embedding of another dimension", "filename", c.Filename, "page", c.PageNumber,
				"dimension", len(vector), "want", len(query))
			metrics.IncrementSkippedChunks("dimension")
			continue
		}
		similarity, ok := cosine(query, queryNorm, vector)
		if !ok {
			log.Warn("skipping zero-norm embedding", "filename", c.Filename, "page", c.PageNumber)
			metrics.IncrementSkippedChunks("zero_norm")
			continue
		}
		scored = append(scored, commonModels.ScoredChunk{
			Filename:   c.Filename,
			PageNumber: c.PageNumber,
			Text:       c.Text,
			Similarity: similarity,
		})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Similarity > scored[j].Similarity
	})
	if len(scored) > topK {
		scored = scored[:topK]
	}
	return scored, nil
}

func norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

func cosine(query []float32, queryNorm float64, v []float32) (float64, bool) {
	var dot, sum float64
	for i, x := range v {
		dot += float64(query[i]) * float64(x)
		sum += float64(x) * float64(x)
	}
	if sum == 0 || math.IsNaN(dot) || math.IsInf(dot, 0) {
		return 0, false
	}
	return dot / (queryNorm * math.Sqrt(sum)), true
}
