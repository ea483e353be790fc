// Package mcpServer exposes the engine to MCP clients as the ask, stats and
// list_documents tools.
package mcpServer

import (
	"context"
	"errors"

	"github.com/akolanti/StudyRAG/internal/rag"
	"github.com/akolanti/StudyRAG/pkg/logger_i"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const Version = "1.0.0"

var ErrMissingService = errors.New("mcp server needs a rag service")

type Server struct {
	service rag.Service
	server  *mcp.Server
	logger  *logger_i.Logger
}

func NewServer(service rag.Service) (*Server, error) {
	if service == nil {
		return nil, ErrMissingService
	}
	s := &Server{
		service: service,
		server:  mcp.NewServer(&mcp.Implementation{Name: "studyrag", Version: Version}, nil),
		logger:  logger_i.NewLogger("mcp"),
	}
	s.registerTools()
	return s, nil
}

// Run serves over stdio until ctx is cancelled or the client disconnects.
func (s *Server) Run(ctx context.Context) error {
	s.logger.Info("MCP server listening on stdio", "backend", s.service.Backend())
	return s.server.Run(ctx, &mcp.StdioTransport{})
}
