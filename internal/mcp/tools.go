package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// registerTools registers the 9-tool attach API
func (s *Server) registerTools() {
	// Session management
	s.registerAttach()
	s.registerDetach()
	s.registerListSessions()

	// Discovery
	s.registerListTargets()
	s.registerOpenTab()

	// Relay
	s.registerSend()
	s.registerDrainEvents()

	// Path resolution
	s.registerResolvePath()

	// Configuration
	s.registerListConfigs()
}

// Session Management Tools

func (s *Server) registerAttach() {
	tool := mcp.NewTool("cdp_attach",
		mcp.WithDescription("Attach to a debuggable browser target over the remote debugging protocol. Discovers targets at the endpoint and picks the first attachable one, or attaches to an explicit targetUrl directly. Can use direct arguments OR reference a VS Code launch.json configuration. Returns sessionId needed for cdp_send, cdp_drain_events and cdp_detach."),
		mcp.WithString("hostname",
			mcp.Description("Hostname of the remote debugging endpoint (default: localhost)"),
		),
		mcp.WithNumber("port",
			mcp.Description("Port of the remote debugging endpoint (default: 9222)"),
		),
		mcp.WithBoolean("useHttps",
			mcp.Description("Use https for discovery requests (default: false)"),
		),
		mcp.WithString("targetUrl",
			mcp.Description("Explicit webSocketDebuggerUrl to attach to. Skips discovery entirely."),
		),
		mcp.WithString("urlFilter",
			mcp.Description("Substring that the chosen target's page URL must contain"),
		),
		mcp.WithString("webRoot",
			mcp.Description("Root of web app source files, used for path resolution"),
		),
		mcp.WithNumber("timeout",
			mcp.Description("Discovery request timeout in milliseconds (default: 10000)"),
		),
		// Launch.json configuration support
		mcp.WithString("configPath",
			mcp.Description("Path to launch.json file. Auto-discovers from workspace if not provided."),
		),
		mcp.WithString("configName",
			mcp.Description("Name of attach configuration in launch.json to use. If provided, loads settings from launch.json."),
		),
		mcp.WithString("workspace",
			mcp.Description("Workspace root for variable resolution (e.g., ${workspaceFolder}) and config discovery."),
		),
	)
	s.mcpServer.AddTool(tool, s.handleAttach)
}

func (s *Server) registerDetach() {
	tool := mcp.NewTool("cdp_detach",
		mcp.WithDescription("Detach from a browser target and dispose the session. Idempotent: detaching an already-closed session is not an error."),
		mcp.WithString("sessionId",
			mcp.Required(),
			mcp.Description("Session ID returned by cdp_attach"),
		),
	)
	s.mcpServer.AddTool(tool, s.handleDetach)
}

func (s *Server) registerListSessions() {
	tool := mcp.NewTool("cdp_list_sessions",
		mcp.WithDescription("List all active attach sessions with their relay status"),
	)
	s.mcpServer.AddTool(tool, s.handleListSessions)
}

// Discovery Tools

func (s *Server) registerListTargets() {
	tool := mcp.NewTool("cdp_list_targets",
		mcp.WithDescription("List the debuggable targets exposed by a browser's remote debugging endpoint. Targets are fetched from /json/list with a fallback to /json, and their webSocketDebuggerUrl is rewritten to the requested host and port."),
		mcp.WithString("hostname",
			mcp.Description("Hostname of the remote debugging endpoint (default: localhost)"),
		),
		mcp.WithNumber("port",
			mcp.Description("Port of the remote debugging endpoint (default: 9222)"),
		),
		mcp.WithBoolean("useHttps",
			mcp.Description("Use https for discovery requests (default: false)"),
		),
	)
	s.mcpServer.AddTool(tool, s.handleListTargets)
}

func (s *Server) registerOpenTab() {
	tool := mcp.NewTool("cdp_open_tab",
		mcp.WithDescription("Ask the browser to open a new tab via /json/new and return the resulting target. The new target can then be attached with cdp_attach."),
		mcp.WithString("hostname",
			mcp.Description("Hostname of the remote debugging endpoint (default: localhost)"),
		),
		mcp.WithNumber("port",
			mcp.Description("Port of the remote debugging endpoint (default: 9222)"),
		),
		mcp.WithString("url",
			mcp.Description("URL to open in the new tab (default: about:blank)"),
		),
	)
	s.mcpServer.AddTool(tool, s.handleOpenTab)
}

// Relay Tools

func (s *Server) registerSend() {
	tool := mcp.NewTool("cdp_send",
		mcp.WithDescription("Forward one protocol frame to the attached target. Frames sent before the debugger socket opens are queued and flushed in order; frames sent after the relay closed are silently dropped."),
		mcp.WithString("sessionId",
			mcp.Required(),
			mcp.Description("Session ID returned by cdp_attach"),
		),
		mcp.WithString("message",
			mcp.Required(),
			mcp.Description("The protocol frame to forward, e.g. {\"id\":1,\"method\":\"Page.enable\"}"),
		),
	)
	s.mcpServer.AddTool(tool, s.handleSend)
}

func (s *Server) registerDrainEvents() {
	tool := mcp.NewTool("cdp_drain_events",
		mcp.WithDescription("Drain the session's buffered relay events in delivery order. Each event is either a 'websocket' frame from the target or a single terminal 'close' event."),
		mcp.WithString("sessionId",
			mcp.Required(),
			mcp.Description("Session ID returned by cdp_attach"),
		),
	)
	s.mcpServer.AddTool(tool, s.handleDrainEvents)
}

// Path Resolution Tools

func (s *Server) registerResolvePath() {
	tool := mcp.NewTool("cdp_resolve_path",
		mcp.WithDescription("Resolve a script or source-map path to a workspace path using the session's sourceMapPathOverrides and pathMapping tables. Patterns support a single * wildcard per side; longest pattern wins."),
		mcp.WithString("sessionId",
			mcp.Required(),
			mcp.Description("Session ID returned by cdp_attach"),
		),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("The path to resolve, e.g. webpack:///./src/app.js"),
		),
	)
	s.mcpServer.AddTool(tool, s.handleResolvePath)
}

// Configuration Tools

func (s *Server) registerListConfigs() {
	tool := mcp.NewTool("cdp_list_configs",
		mcp.WithDescription("List the attach configurations available in a launch.json file"),
		mcp.WithString("configPath",
			mcp.Description("Path to launch.json file. Auto-discovers from workspace if not provided."),
		),
		mcp.WithString("workspace",
			mcp.Description("Workspace root to start config discovery from"),
		),
	)
	s.mcpServer.AddTool(tool, s.handleListConfigs)
}
