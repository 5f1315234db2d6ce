// Package mcp exposes the niconico search as MCP tools over streamable HTTP.
package mcp

import (
	"net/http"

	"github.com/Laisky/errors/v2"
	logSDK "github.com/Laisky/go-utils/v6/log"
	srv "github.com/mark3labs/mcp-go/server"

	"github.com/Laisky/nicosearch/internal/mcp/tools"
	"github.com/Laisky/nicosearch/library/log"
	"github.com/Laisky/nicosearch/library/search"
)

const (
	serverName    = "nicosearch"
	serverVersion = "1.0.0"
)

// Server wraps the MCP server state for the HTTP transport.
type Server struct {
	handler http.Handler
	logger  logSDK.Logger
}

// NewServer constructs a remote MCP server exposing the search tools under a single handler.
func NewServer(provider search.Provider, logger logSDK.Logger) (*Server, error) {
	if provider == nil {
		return nil, errors.New("search provider is required")
	}
	if logger == nil {
		logger = log.Logger
	}

	hooks := newMCPHooks(logger.Named("mcp_hooks"))

	mcpServer := srv.NewMCPServer(
		serverName,
		serverVersion,
		srv.WithToolCapabilities(true),
		srv.WithInstructions("Use nico_contents_search to find niconico videos and nico_tags_search to list tags related to a keyword."),
		srv.WithRecovery(),
		srv.WithHooks(hooks),
	)

	contentsTool, err := tools.NewContentsSearchTool(provider, logger.Named("nico_contents_search"))
	if err != nil {
		return nil, errors.Wrap(err, "new contents search tool")
	}
	tagsTool, err := tools.NewTagsSearchTool(provider, logger.Named("nico_tags_search"))
	if err != nil {
		return nil, errors.Wrap(err, "new tags search tool")
	}
	mcpServer.AddTool(contentsTool.Definition(), contentsTool.Handle)
	mcpServer.AddTool(tagsTool.Definition(), tagsTool.Handle)

	return &Server{
		handler: srv.NewStreamableHTTPServer(mcpServer),
		logger:  logger.Named("mcp"),
	}, nil
}

// Handler returns the HTTP handler that should be mounted to serve MCP traffic.
func (s *Server) Handler() http.Handler {
	return s.handler
}
