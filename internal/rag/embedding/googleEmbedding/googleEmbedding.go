package googleEmbedding

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/akolanti/StudyRAG/internal/customHttpClient"
	"github.com/akolanti/StudyRAG/internal/rag/embedding"
	"github.com/akolanti/StudyRAG/pkg/logger_i"
	"google.golang.org/genai"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var logger *logger_i.Logger
var once sync.Once
var embeddingClient *client
var initErr error

type client struct {
	genAi     *genai.Client
	model     string
	dimension int32
}

func newGoogleEmbedder(ctx context.Context, modelName string, apikey string, dimension int) {
	c, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     apikey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: customHttpClient.GetHttpClient(),
	})
	if err != nil {
		logger.Error("Error creating Google Embedding client", "error", err)
		initErr = err
		return
	}
	embeddingClient = &client{
		genAi:     c,
		model:     modelName,
		dimension: int32(dimension),
	}
	logger.Debug("Google Embedding model name: " + modelName)
	logger.Info("Google Embedding client created")
	go closeClient(ctx)
}

func closeClient(ctx context.Context) {
	<-ctx.Done()
	logger.Info("Closing Google Embedding client")
}

// GetGoogleEmbeddingClient builds the process-wide genai embedder on first use.
func GetGoogleEmbeddingClient(ctx context.Context, modelName string, apikey string, dimension int) (embedding.Embedder, error) {
	once.Do(func() {
		logger = logger_i.NewLogger("google_embedding")
		if apikey == "" {
			initErr = errors.New("GOOGLE_API_KEY is not set")
			return
		}
		newGoogleEmbedder(ctx, modelName, apikey, dimension)
	})

	if embeddingClient == nil {
		return nil, initErr
	}
	return embeddingClient, nil
}

func (c *client) GetEmbedding(ctx context.Context, text string) ([]float32, error) {
	log := logger.WithTrace(ctx)

	cfg := &genai.EmbedContentConfig{TaskType: "RETRIEVAL_DOCUMENT"}
	if c.dimension > 0 {
		cfg.OutputDimensionality = &c.dimension
	}
	result, err := c.genAi.Models.EmbedContent(ctx, c.model, genai.Text(text), cfg)
	if err != nil {
		if isRateLimited(err) {
			log.Warn("Rate limit hit on Google embeddings", "error", err)
		} else {
			log.Error("Error getting Embeddings from Google", "error", err)
		}
		return nil, err
	}
	if result == nil || len(result.Embeddings) == 0 || result.Embeddings[0] == nil {
		return nil, errors.New("google returned no embedding")
	}
	return result.Embeddings[0].Values, nil
}

func isRateLimited(err error) bool {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code == http.StatusTooManyRequests
	}
	if s, ok := status.FromError(err); ok {
		return s.Code() == codes.ResourceExhausted
	}
	return false
}
