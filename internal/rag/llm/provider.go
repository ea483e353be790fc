package llm

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/akolanti/StudyRAG/internal/config"
	"github.com/akolanti/StudyRAG/internal/domain/ragErrors"
	"github.com/akolanti/StudyRAG/internal/domain/sessionModel"
	"github.com/akolanti/StudyRAG/internal/metrics"
	"github.com/akolanti/StudyRAG/pkg/logger_i"
)

type SamplingParams struct {
	Temperature float32
	MaxTokens   int
}

func DefaultSamplingParams() SamplingParams {
	return SamplingParams{Temperature: config.ModelTemperature, MaxTokens: config.ModelMaxTokens}
}

// Provider sends an ordered transcript to a chat model and returns the reply text.
type Provider interface {
	Complete(ctx context.Context, messages []sessionModel.Message, params SamplingParams) (string, error)
}

// Completer bounds provider calls with a timeout and maps failures to
// ragErrors.ErrCompletionService. It does not retry.
type Completer struct {
	provider Provider
	name     string
	timeout  time.Duration
	params   SamplingParams
	logger   *logger_i.Logger
}

func NewCompleter(name string, provider Provider, timeout time.Duration, params SamplingParams) *Completer {
	if timeout <= 0 {
		timeout = config.CompletionTimeout
	}
	return &Completer{
		provider: provider,
		name:     name,
		timeout:  timeout,
		params:   params,
		logger:   logger_i.NewLogger("completion").With("provider", name),
	}
}

func (c *Completer) Name() string { return c.name }

func (c *Completer) Complete(ctx context.Context, messages []sessionModel.Message) (string, error) {
	if len(messages) == 0 {
		return "", ragErrors.Newf(ragErrors.ErrInvalidInput, "completion", "no messages")
	}
	log := c.logger.WithTrace(ctx)
	start := time.Now()

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	reply, err := c.provider.Complete(callCtx, messages, c.params)
	metrics.CaptureExecutionMetrics("completion", time.Since(start))
	if err != nil {
		log.Error("completion failed", "error", err, "messages", len(messages))
		return "", ragErrors.New(ragErrors.ErrCompletionService, "completion", err)
	}
	if strings.TrimSpace(reply) == "" {
		return "", ragErrors.New(ragErrors.ErrCompletionService, "completion", errors.New("empty reply"))
	}
	log.Debug("completion done", "elapsed", time.Since(start))
	return reply, nil
}
