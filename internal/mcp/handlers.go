package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/cdpkit/cdp-mcp/internal/cdp"
	"github.com/cdpkit/cdp-mcp/internal/config"
	"github.com/cdpkit/cdp-mcp/internal/errors"
	"github.com/cdpkit/cdp-mcp/internal/launchconfig"
	"github.com/cdpkit/cdp-mcp/pkg/types"
)

// Session Management Handlers

// handleAttach establishes a new attach session. Settings resolve in three
// layers: direct tool arguments win over a launch.json configuration, which
// wins over the persisted server config.
func (s *Server) handleAttach(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	overrides := &config.Overrides{}

	// Layer 1: launch.json configuration, if requested
	configName, _ := request.RequireString("configName")
	if configName != "" {
		cfgOverrides, result := s.overridesFromLaunchConfig(request, configName)
		if result != nil {
			return result, nil
		}
		overrides = cfgOverrides
	}

	// Layer 2: direct tool arguments on top
	if hostname, err := request.RequireString("hostname"); err == nil && hostname != "" {
		overrides.Hostname = hostname
	}
	if port, err := request.RequireFloat("port"); err == nil {
		overrides.Port = int(port)
	}
	if useHTTPS, ok := boolArg(request, "useHttps"); ok {
		overrides.UseHTTPS = &useHTTPS
	}
	if timeout, err := request.RequireFloat("timeout"); err == nil {
		overrides.TimeoutMS = int(timeout)
	}
	if webRoot, err := request.RequireString("webRoot"); err == nil && webRoot != "" {
		overrides.WebRoot = webRoot
	}

	settings := config.ResolveSettings(overrides, s.config)

	session, err := s.sessionManager.CreateSession(settings)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	targetURL, _ := request.RequireString("targetUrl")
	urlFilter, _ := request.RequireString("urlFilter")

	attachReq := types.AttachRequest{
		Hostname:  settings.Hostname,
		Port:      settings.Port,
		UseHTTPS:  settings.UseHTTPS,
		TargetURL: targetURL,
		URLFilter: urlFilter,
		WebRoot:   settings.WebRoot,
	}

	if err := session.Attach(ctx, attachReq); err != nil {
		s.sessionManager.TerminateSession(session.ID)
		return mcp.NewToolResultError(err.Error()), nil
	}

	info := session.Info()
	result := map[string]interface{}{
		"sessionId": session.ID,
		"status":    info.Status,
		"targetId":  info.TargetID,
		"targetUrl": info.TargetURL,
		"pageUrl":   info.PageURL,
	}
	if configName != "" {
		result["configName"] = configName
	}
	if path := s.browserPaths.Lookup(settings.BrowserFlavor); path != "" {
		result["browserPath"] = path
	}

	return jsonResult(result)
}

// overridesFromLaunchConfig loads a named attach configuration and converts it
// into the explicit settings layer. Returns a non-nil tool result on failure.
func (s *Server) overridesFromLaunchConfig(request mcp.CallToolRequest, configName string) (*config.Overrides, *mcp.CallToolResult) {
	workspace, _ := request.RequireString("workspace")

	configPath, _ := request.RequireString("configPath")
	if configPath == "" {
		discovered, err := launchconfig.Discover(workspace)
		if err != nil {
			return nil, mcp.NewToolResultError(errors.ConfigNotFound(configName, nil).WithCause(err).Error())
		}
		configPath = discovered
	}

	lj, err := launchconfig.LoadFromPath(configPath)
	if err != nil {
		return nil, mcp.NewToolResultError(errors.ConfigInvalid(configName, err.Error()).Error())
	}

	cfg, err := launchconfig.FindConfiguration(lj, configName)
	if err != nil {
		return nil, mcp.NewToolResultError(errors.ConfigNotFound(configName, launchconfig.ListConfigurationNames(lj)).Error())
	}

	if err := launchconfig.ValidateConfiguration(cfg); err != nil {
		return nil, mcp.NewToolResultError(errors.ConfigInvalid(configName, err.Error()).Error())
	}

	if workspace == "" {
		workspace = launchconfig.GetWorkspaceFolder(configPath)
	}

	resolved, err := launchconfig.ResolveConfiguration(cfg, &launchconfig.ResolutionContext{
		WorkspaceFolder: workspace,
	})
	if err != nil {
		return nil, mcp.NewToolResultError(errors.ConfigInvalid(configName, err.Error()).Error())
	}

	return resolved.ToOverrides(), nil
}

func (s *Server) handleDetach(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := request.RequireString("sessionId")
	if err != nil {
		return mcp.NewToolResultError(errors.MissingParameter("sessionId",
			"Pass the session ID returned by cdp_attach.").Error()), nil
	}

	// Detach is idempotent; an unknown session counts as already detached.
	found := s.sessionManager.TerminateSession(sessionID) == nil

	return jsonResult(map[string]interface{}{
		"sessionId": sessionID,
		"status":    types.SessionStatusClosed,
		"found":     found,
	})
}

func (s *Server) handleListSessions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessions := s.sessionManager.ListSessions()

	infos := make([]types.SessionInfo, 0, len(sessions))
	for _, session := range sessions {
		infos = append(infos, session.Info())
	}

	return jsonResult(map[string]interface{}{
		"sessions": infos,
		"count":    len(infos),
	})
}

// Discovery Handlers

func (s *Server) handleListTargets(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	hostname, port := s.endpointArgs(request)

	useHTTPS := s.config.UseHTTPS
	if v, ok := boolArg(request, "useHttps"); ok {
		useHTTPS = v
	}

	targets := cdp.DiscoverTargets(ctx, hostname, port, useHTTPS, s.discoveryTimeout())
	if targets == nil {
		targets = []types.RemoteTarget{}
	}

	return jsonResult(map[string]interface{}{
		"hostname": hostname,
		"port":     port,
		"targets":  targets,
		"count":    len(targets),
	})
}

func (s *Server) handleOpenTab(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	hostname, port := s.endpointArgs(request)

	tabURL, _ := request.RequireString("url")
	if tabURL == "" {
		tabURL = s.config.DefaultURL
	}

	target := cdp.OpenNewTab(ctx, hostname, port, tabURL, s.discoveryTimeout())
	if target == nil {
		return mcp.NewToolResultError(errors.TabOpenFailed(hostname, port).Error()), nil
	}

	return jsonResult(map[string]interface{}{
		"target": target,
	})
}

// Relay Handlers

func (s *Server) handleSend(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	session, result := s.sessionArg(request)
	if result != nil {
		return result, nil
	}

	message, err := request.RequireString("message")
	if err != nil {
		return mcp.NewToolResultError(errors.MissingParameter("message",
			"Pass the protocol frame to forward as a JSON string.").Error()), nil
	}

	session.Send(message)

	return jsonResult(map[string]interface{}{
		"sessionId": session.ID,
		"sent":      true,
	})
}

func (s *Server) handleDrainEvents(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	session, result := s.sessionArg(request)
	if result != nil {
		return result, nil
	}

	events := session.DrainEvents()
	if events == nil {
		events = []types.RelayEvent{}
	}

	return jsonResult(map[string]interface{}{
		"sessionId": session.ID,
		"events":    events,
		"count":     len(events),
	})
}

// Path Resolution Handlers

func (s *Server) handleResolvePath(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	session, result := s.sessionArg(request)
	if result != nil {
		return result, nil
	}

	sourcePath, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(errors.MissingParameter("path",
			"Pass the script or source-map path to resolve.").Error()), nil
	}

	resolved := session.ResolvePath(sourcePath)

	return jsonResult(map[string]interface{}{
		"sessionId": session.ID,
		"path":      sourcePath,
		"resolved":  resolved,
		"mapped":    resolved != sourcePath,
	})
}

// Configuration Handlers

func (s *Server) handleListConfigs(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	workspace, _ := request.RequireString("workspace")

	configPath, _ := request.RequireString("configPath")
	if configPath == "" {
		discovered, err := launchconfig.Discover(workspace)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("no launch.json found: %v", err)), nil
		}
		configPath = discovered
	}

	lj, err := launchconfig.LoadFromPath(configPath)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to load launch.json: %v", err)), nil
	}

	configs := make([]map[string]interface{}, 0, len(lj.Configurations))
	for _, cfg := range lj.Configurations {
		configs = append(configs, map[string]interface{}{
			"name":    cfg.Name,
			"type":    cfg.Type,
			"request": cfg.Request,
		})
	}

	return jsonResult(map[string]interface{}{
		"configPath":     configPath,
		"configurations": configs,
		"count":          len(configs),
	})
}

// Helpers

// sessionArg resolves the required sessionId argument to a live session.
// Returns a non-nil tool result on failure.
func (s *Server) sessionArg(request mcp.CallToolRequest) (*cdp.Session, *mcp.CallToolResult) {
	sessionID, err := request.RequireString("sessionId")
	if err != nil {
		return nil, mcp.NewToolResultError(errors.MissingParameter("sessionId",
			"Pass the session ID returned by cdp_attach.").Error())
	}

	session, err := s.sessionManager.GetSession(sessionID)
	if err != nil {
		return nil, mcp.NewToolResultError(errors.SessionNotFound(sessionID).Error())
	}

	return session, nil
}

// endpointArgs resolves the optional hostname and port arguments against the
// persisted config defaults.
func (s *Server) endpointArgs(request mcp.CallToolRequest) (string, int) {
	hostname := s.config.Hostname
	if v, err := request.RequireString("hostname"); err == nil && v != "" {
		hostname = v
	}

	port := s.config.Port
	if v, err := request.RequireFloat("port"); err == nil {
		port = int(v)
	}

	return hostname, port
}

func (s *Server) discoveryTimeout() time.Duration {
	return time.Duration(s.config.TimeoutMS) * time.Millisecond
}

// boolArg reads an optional boolean argument, reporting whether it was set at
// all so explicit false survives settings layering.
func boolArg(request mcp.CallToolRequest, name string) (bool, bool) {
	args := request.GetArguments()
	if args == nil {
		return false, false
	}
	v, ok := args[name].(bool)
	return v, ok
}

func jsonResult(data interface{}) (*mcp.CallToolResult, error) {
	jsonBytes, err := json.Marshal(data)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(jsonBytes)), nil
}
