package mcpserver

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/yungbote/licensing-crm-backend/internal/pkg/logger"
	"github.com/yungbote/licensing-crm-backend/internal/services"
)

const (
	ServerName = "licensing-crm"
	ToolName   = "crm_query"

	// StreamPath is where the streamable HTTP transport is mounted.
	StreamPath = "/api/mcp/stream"
)

type Server struct {
	log        *logger.Logger
	dispatcher services.Dispatcher
	mcp        *server.MCPServer
	http       *server.StreamableHTTPServer
}

func New(log *logger.Logger, dispatcher services.Dispatcher, version string) *Server {
	s := &Server{
		log:        log.With("component", "MCPServer"),
		dispatcher: dispatcher,
	}
	s.mcp = server.NewMCPServer(
		ServerName,
		version,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
		server.WithInstructions("Answers short analytics questions about leads, enrollments, payments and calls for the licensing school CRM."),
	)
	s.mcp.AddTool(queryTool(), s.handleQuery)
	s.http = server.NewStreamableHTTPServer(s.mcp,
		server.WithEndpointPath(StreamPath),
		server.WithStateLess(true),
	)
	return s
}

func queryTool() mcp.Tool {
	return mcp.NewTool(ToolName,
		mcp.WithDescription(fmt.Sprintf(
			"Answer a CRM analytics question. Accepted queries: %s, or lead:<id> for a single lead summary.",
			strings.Join(services.QueryNames, ", "),
		)),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("One of the accepted query names, matched exactly."),
		),
	)
}

func (s *Server) handleQuery(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	answer := s.dispatcher.Dispatch(ctx, query)
	s.log.Debug("crm_query answered", "query", query)
	return mcp.NewToolResultText(answer), nil
}

// Handler serves the streamable HTTP transport. Authentication is applied by
// the router.
func (s *Server) Handler() http.Handler { return s.http }

// MCP exposes the underlying server, e.g. for stdio serving.
func (s *Server) MCP() *server.MCPServer { return s.mcp }
