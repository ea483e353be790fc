package embedding

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/akolanti/StudyRAG/internal/config"
	"github.com/akolanti/StudyRAG/internal/domain/ragErrors"
	"github.com/akolanti/StudyRAG/internal/metrics"
	"github.com/akolanti/StudyRAG/pkg/logger_i"
)

// Embedder turns one text into a vector. Provider clients implement it and so
// does Gateway, which wraps them.
type Embedder interface {
	GetEmbedding(ctx context.Context, text string) ([]float32, error)
}

// Gateway bounds every provider call with a timeout, retries transient
// failures with capped exponential backoff and checks the vector dimension.
// Errors it returns wrap ragErrors.ErrEmbeddingService.
type Gateway struct {
	provider   Embedder
	name       string
	timeout    time.Duration
	maxRetries int
	baseDelay  time.Duration
	maxDelay   time.Duration
	dimensions int
	logger     *logger_i.Logger
}

type Option func(*Gateway)

func WithTimeout(d time.Duration) Option {
	return func(g *Gateway) { g.timeout = d }
}

func WithMaxRetries(n int) Option {
	return func(g *Gateway) { g.maxRetries = n }
}

func WithBackoff(base, max time.Duration) Option {
	return func(g *Gateway) {
		g.baseDelay = base
		g.maxDelay = max
	}
}

// WithDimensions makes the gateway reject vectors of any other length. Zero disables the check.
func WithDimensions(n int) Option {
	return func(g *Gateway) { g.dimensions = n }
}

func NewGateway(name string, provider Embedder, opts ...Option) *Gateway {
	g := &Gateway{
		provider:   provider,
		name:       name,
		timeout:    config.EmbeddingTimeout,
		maxRetries: config.EmbeddingMaxRetries,
		baseDelay:  config.EmbeddingRetryBaseDelay,
		maxDelay:   config.EmbeddingRetryMaxDelay,
		logger:     logger_i.NewLogger("embedding_gateway").With("provider", name),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *Gateway) Name() string { return g.name }

func (g *Gateway) GetEmbedding(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ragErrors.Newf(ragErrors.ErrInvalidInput, "embedding", "text is empty")
	}
	log := g.logger.WithTrace(ctx)
	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("embedding", time.Since(start)) }()

	var lastErr error
	for attempt := 0; attempt <= g.maxRetries; attempt++ {
		if attempt > 0 {
			delay := g.backoff(attempt)
			log.Warn("retrying embedding", "attempt", attempt, "delay", delay, "error", lastErr)
			metrics.IncrementEmbeddingRetries()
			select {
			case <-ctx.Done():
				return nil, ragErrors.New(ragErrors.ErrEmbeddingService, "embedding", ctx.Err())
			case <-time.After(delay):
			}
		}

		vector, err := g.call(ctx, text)
		if err == nil {
			return vector, nil
		}
		lastErr = err
		if ctx.Err() != nil || errors.Is(err, errDimension) {
			break
		}
	}
	log.Error("embedding failed", "attempts", g.maxRetries+1, "error", lastErr)
	return nil, ragErrors.New(ragErrors.ErrEmbeddingService, "embedding", lastErr)
}

var errDimension = errors.New("unexpected embedding dimension")

func (g *Gateway) call(ctx context.Context, text string) ([]float32, error) {
	callCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	vector, err := g.provider.GetEmbedding(callCtx, text)
	if err != nil {
		return nil, err
	}
	if len(vector) == 0 {
		return nil, errors.New("provider returned an empty vector")
	}
	if g.dimensions > 0 && len(vector) != g.dimensions {
		return nil, fmt.Errorf("%w: got %d, want %d", errDimension, len(vector), g.dimensions)
	}
	return vector, nil
}

func (g *Gateway) backoff(attempt int) time.Duration {
	if attempt > 16 {
		return g.maxDelay
	}
	delay := g.baseDelay << (attempt - 1)
	if delay <= 0 || delay > g.maxDelay {
		return g.maxDelay
	}
	return delay
}
