package openaiEmbedding

import (
	"context"
	"errors"
	"net/http"

	"github.com/akolanti/StudyRAG/internal/customHttpClient"
	"github.com/akolanti/StudyRAG/internal/rag/embedding"
	"github.com/akolanti/StudyRAG/pkg/logger_i"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

type client struct {
	api        openai.Client
	model      string
	dimensions int
	logger     *logger_i.Logger
}

// New builds an OpenAI embedder. Retries are left to the embedding gateway,
// so the SDK's own retry loop is switched off. Extra options are appended
// after the defaults (tests point the client at a local server this way).
func New(apiKey string, model string, dimensions int, opts ...option.RequestOption) (embedding.Embedder, error) {
	if apiKey == "" {
		return nil, errors.New("OPENAI_API_KEY is not set")
	}
	base := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithHTTPClient(customHttpClient.GetHttpClient()),
		option.WithMaxRetries(0),
	}
	c := &client{
		api:        openai.NewClient(append(base, opts...)...),
		model:      model,
		dimensions: dimensions,
		logger:     logger_i.NewLogger("openai_embedding"),
	}
	c.logger.Info("OpenAI Embedding client created", "model", model)
	return c, nil
}

func (c *client) GetEmbedding(ctx context.Context, text string) ([]float32, error) {
	params := openai.EmbeddingNewParams{
		Input: openai.EmbeddingNewParamsInputUnion{OfString: openai.String(text)},
		Model: openai.EmbeddingModel(c.model),
	}
	if c.dimensions > 0 {
		params.Dimensions = openai.Int(int64(c.dimensions))
	}

	res, err := c.api.Embeddings.New(ctx, params)
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusTooManyRequests {
			c.logger.WithTrace(ctx).Warn("Rate limit hit on OpenAI embeddings", "error", err)
		} else {
			c.logger.WithTrace(ctx).Error("Error getting Embeddings from OpenAI", "error", err)
		}
		return nil, err
	}
	if len(res.Data) == 0 {
		return nil, errors.New("openai returned no embedding")
	}

	values := res.Data[0].Embedding
	vector := make([]float32, len(values))
	for i, v := range values {
		vector[i] = float32(v)
	}
	return vector, nil
}
