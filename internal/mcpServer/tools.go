package mcpServer

import (
	"context"

	"github.com/akolanti/StudyRAG/internal/domain/commonModels"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type AskInput struct {
	Question  string `json:"question" jsonschema:"the question to answer from the ingested material"`
	SessionID string `json:"session_id,omitempty" jsonschema:"conversation to continue (default: default)"`
}

type AskOutput struct {
	Answer   string                `json:"answer"`
	Sources  []commonModels.Source `json:"sources"`
	NoData   bool                  `json:"no_data"`
	NotFound bool                  `json:"not_found"`
}

type StatsInput struct{}

type ListInput struct{}

type ListOutput struct {
	Documents []commonModels.Document `json:"documents"`
	Count     int                     `json:"count"`
}

func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ask",
		Description: "Answer a question from the ingested study material, citing file and page",
	}, s.handleAsk)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "stats",
		Description: "Number of documents, pages and chunks in the store",
	}, s.handleStats)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_documents",
		Description: "List ingested documents, newest first",
	}, s.handleList)
}

func (s *Server) handleAsk(ctx context.Context, _ *mcp.CallToolRequest, input AskInput) (*mcp.CallToolResult, AskOutput, error) {
	result, err := s.service.Answer(ctx, input.Question, input.SessionID)
	if err != nil {
		s.logger.WithTrace(ctx).Error("ask failed", "error", err)
		return nil, AskOutput{}, err
	}
	sources := result.Sources
	if sources == nil {
		sources = []commonModels.Source{}
	}
	return nil, AskOutput{
		Answer:   result.Answer,
		Sources:  sources,
		NoData:   result.NoData,
		NotFound: result.NotFound,
	}, nil
}

func (s *Server) handleStats(ctx context.Context, _ *mcp.CallToolRequest, _ StatsInput) (*mcp.CallToolResult, commonModels.Stats, error) {
	stats, err := s.service.Stats(ctx)
	if err != nil {
		return nil, commonModels.Stats{}, err
	}
	return nil, stats, nil
}

func (s *Server) handleList(ctx context.Context, _ *mcp.CallToolRequest, _ ListInput) (*mcp.CallToolResult, ListOutput, error) {
	docs, err := s.service.ListDocuments(ctx)
	if err != nil {
		return nil, ListOutput{}, err
	}
	if docs == nil {
		docs = []commonModels.Document{}
	}
	return nil, ListOutput{Documents: docs, Count: len(docs)}, nil
}
