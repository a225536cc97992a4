package mcpServer

import (
	"context"
	"net/http"

	"github.com/akolanti/DocChat/internal/config"
	"github.com/akolanti/DocChat/internal/rag"
	"github.com/akolanti/DocChat/pkg/logger_i"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	serverName    = "docchat"
	serverVersion = "1.0.0"
)

// Server exposes retrieval and answering over the model context protocol.
type Server struct {
	server            *mcp.Server
	rag               rag.Service
	defaultCollection string
	topK              int
	logger            *logger_i.Logger
}

func NewServer(ragService rag.Service, defaultCollection string, topK int) *Server {
	if defaultCollection == "" {
		defaultCollection = config.DefaultCollectionName
	}
	if topK < 1 {
		topK = config.DefaultTopK
	}
	s := &Server{
		server:            mcp.NewServer(&mcp.Implementation{Name: serverName, Version: serverVersion}, nil),
		rag:               ragService,
		defaultCollection: defaultCollection,
		topK:              topK,
		logger:            logger_i.NewLogger("MCP Server"),
	}
	s.registerTools()
	return s
}

// Handler serves the streamable http transport. It is mounted behind the api middleware.
func (s *Server) Handler() http.Handler {
	return mcp.NewStreamableHTTPHandler(func(_ *http.Request) *mcp.Server {
		return s.server
	}, nil)
}

func (s *Server) MCPServer() *mcp.Server {
	return s.server
}

// RunStdio serves a single client over stdin/stdout until ctx is cancelled.
func (s *Server) RunStdio(ctx context.Context) error {
	s.logger.Info("Serving MCP over stdio")
	return s.server.Run(ctx, &mcp.StdioTransport{})
}
