package gemini

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/akolanti/StudyRAG/internal/customHttpClient"
	"github.com/akolanti/StudyRAG/internal/domain/sessionModel"
	"github.com/akolanti/StudyRAG/internal/rag/llm"
	"github.com/akolanti/StudyRAG/pkg/logger_i"
	"google.golang.org/genai"
)

type llmClient struct {
	client    *genai.Client
	modelName string
}

var logger *logger_i.Logger
var geminiClient *llmClient
var initErr error
var once sync.Once

// GetGeminiClient builds the process-wide Gemini chat client on first use.
func GetGeminiClient(ctx context.Context, modelName string, apikey string) (llm.Provider, error) {
	once.Do(func() {
		logger = logger_i.NewLogger("llm_gemini")
		if apikey == "" {
			initErr = errors.New("GOOGLE_API_KEY is not set")
			return
		}
		newGeminiClient(ctx, modelName, apikey)
	})

	if geminiClient == nil {
		return nil, initErr
	}
	return geminiClient, nil
}

func newGeminiClient(ctx context.Context, modelName string, apikey string) {
	c, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     apikey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: customHttpClient.GetHttpClient(),
	})
	if err != nil {
		logger.Error("Error creating Gemini client", "error", err)
		initErr = err
		return
	}
	geminiClient = &llmClient{client: c, modelName: modelName}
	logger.Debug("Gemini " + modelName + " client created")
	logger.Info("Gemini client created")
	go closeClient(ctx)
}

func (c *llmClient) Complete(ctx context.Context, messages []sessionModel.Message, params llm.SamplingParams) (string, error) {
	log := logger.WithTrace(ctx)

	system, contents := toContents(messages)
	temperature := params.Temperature
	contentConfig := &genai.GenerateContentConfig{
		Temperature:     &temperature,
		MaxOutputTokens: int32(params.MaxTokens),
	}
	if system != "" {
		contentConfig.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: system}}}
	}

	result, err := c.client.Models.GenerateContent(ctx, c.modelName, contents, contentConfig)
	if err != nil {
		log.Error("Error generating content from Gemini", "error", err)
		return "", err
	}
	if result == nil {
		return "", errors.New("gemini returned no candidates")
	}
	return result.Text(), nil
}

// toContents moves system messages into the system instruction and maps the
// assistant role to Gemini's model role.
func toContents(messages []sessionModel.Message) (string, []*genai.Content) {
	var system []string
	contents := make([]*genai.Content, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case sessionModel.RoleSystem:
			system = append(system, m.Content)
		case sessionModel.RoleAssistant:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleModel))
		default:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleUser))
		}
	}
	return strings.Join(system, "\n\n"), contents
}

func closeClient(ctx context.Context) {
	<-ctx.Done()
	logger.Info("Closing Gemini client")
}
