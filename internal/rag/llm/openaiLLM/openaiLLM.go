package openaiLLM

import (
	"context"
	"errors"

	"github.com/akolanti/StudyRAG/internal/customHttpClient"
	"github.com/akolanti/StudyRAG/internal/domain/sessionModel"
	"github.com/akolanti/StudyRAG/internal/rag/llm"
	"github.com/akolanti/StudyRAG/pkg/logger_i"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

type chatClient struct {
	api    openai.Client
	model  string
	logger *logger_i.Logger
}

func New(apiKey string, model string, opts ...option.RequestOption) (llm.Provider, error) {
	if apiKey == "" {
		return nil, errors.New("OPENAI_API_KEY is not set")
	}
	base := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithHTTPClient(customHttpClient.GetHttpClient()),
		option.WithMaxRetries(0),
	}
	c := &chatClient{
		api:    openai.NewClient(append(base, opts...)...),
		model:  model,
		logger: logger_i.NewLogger("llm_openai"),
	}
	c.logger.Info("OpenAI chat client created", "model", model)
	return c, nil
}

func (c *chatClient) Complete(ctx context.Context, messages []sessionModel.Message, params llm.SamplingParams) (string, error) {
	body := openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(c.model),
		Messages:    toParams(messages),
		Temperature: openai.Float(float64(params.Temperature)),
	}
	if params.MaxTokens > 0 {
		body.MaxTokens = openai.Int(int64(params.MaxTokens))
	}

	res, err := c.api.Chat.Completions.New(ctx, body)
	if err != nil {
		c.logger.WithTrace(ctx).Error("Error getting chat completion from OpenAI", "error", err)
		return "", err
	}
	if len(res.Choices) == 0 {
		return "", errors.New("openai returned no choices")
	}
	return res.Choices[0].Message.Content, nil
}

func toParams(messages []sessionModel.Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case sessionModel.RoleSystem:
			out = append(out, openai.SystemMessage(m.Content))
		case sessionModel.RoleAssistant:
			out = append(out, openai.AssistantMessage(m.Content))
		default:
			out = append(out, openai.UserMessage(m.Content))
		}
	}
	return out
}
