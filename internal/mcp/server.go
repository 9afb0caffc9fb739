// Package mcp provides the Model Context Protocol (MCP) server implementation.
//
// This package exposes browser remote-debugging attach capabilities through
// MCP tools:
//
// Session Management:
//   - cdp_attach: Attach to a debuggable browser target
//   - cdp_detach: Dispose a session and its relay
//   - cdp_list_sessions: List active sessions
//
// Discovery:
//   - cdp_list_targets: List debuggable targets at an endpoint
//   - cdp_open_tab: Ask the browser to open a new tab
//
// Relay:
//   - cdp_send: Forward a protocol frame to the attached target
//   - cdp_drain_events: Drain buffered frames and close events
//
// Path Resolution:
//   - cdp_resolve_path: Map a script or source-map path to a workspace path
//
// Configuration:
//   - cdp_list_configs: List attach configurations from launch.json
package mcp

import (
	"github.com/mark3labs/mcp-go/server"

	"github.com/cdpkit/cdp-mcp/internal/cdp"
	"github.com/cdpkit/cdp-mcp/internal/config"
	"github.com/cdpkit/cdp-mcp/internal/version"
)

// Server wraps the MCP server with browser attach capabilities
type Server struct {
	mcpServer      *server.MCPServer
	sessionManager *cdp.SessionManager
	browserPaths   *config.BrowserPathTable
	config         *config.Config
}

// NewServer creates a new CDP-MCP server
func NewServer(cfg *config.Config) *Server {
	// Create MCP server
	mcpServer := server.NewMCPServer(
		"cdp-mcp",
		version.GetVersion(),
		server.WithToolCapabilities(true),
		server.WithRecovery(),
	)

	// Create session manager
	sessionManager := cdp.NewSessionManager(cfg.MaxSessions, cfg.SessionTimeout)

	s := &Server{
		mcpServer:      mcpServer,
		sessionManager: sessionManager,
		browserPaths:   config.NewBrowserPathTable(),
		config:         cfg,
	}

	// Register all tools
	s.registerTools()

	return s
}

// ServeStdio starts the server using stdio transport
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// Close shuts down the server
func (s *Server) Close() {
	s.sessionManager.Close()
}

// GetSessionManager returns the session manager
func (s *Server) GetSessionManager() *cdp.SessionManager {
	return s.sessionManager
}

// GetConfig returns the server configuration
func (s *Server) GetConfig() *config.Config {
	return s.config
}
