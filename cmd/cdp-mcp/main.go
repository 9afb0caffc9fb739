package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/cdpkit/cdp-mcp/internal/config"
	"github.com/cdpkit/cdp-mcp/internal/mcp"
	"github.com/cdpkit/cdp-mcp/internal/version"
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", "", "Path to configuration file")
	showVersion := flag.Bool("version", false, "Show version and exit")
	help := flag.Bool("help", false, "Show help and exit")

	flag.Parse()

	if *showVersion {
		fmt.Printf("cdp-mcp version %s\n", version.GetVersion())
		os.Exit(0)
	}

	if *help {
		printHelp()
		os.Exit(0)
	}

	// Load configuration
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Create and start the server
	server := mcp.NewServer(cfg)

	// Check for newer releases in the background; never blocks startup
	version.NewChecker().CheckForUpdatesAsync()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		log.Println("Shutting down...")
		server.Close()
		os.Exit(0)
	}()

	// Start serving via stdio
	log.Println("CDP-MCP server starting...")
	if err := server.ServeStdio(); err != nil {
		server.Close()
		log.Fatalf("Server error: %v", err)
	}
	server.Close()
}

func printHelp() {
	fmt.Println(`CDP-MCP: Browser Remote Debugging MCP Server

A Model Context Protocol (MCP) server that attaches to browsers over the
Chrome DevTools Protocol remote debugging endpoint, relaying protocol frames
between MCP clients and debuggable pages.

USAGE:
    cdp-mcp [OPTIONS]

OPTIONS:
    -config <path>     Path to configuration file (JSON)
    -version           Show version and exit
    -help              Show this help message

ENVIRONMENT:
    CDP_MCP_TRACE_RELAY   Set to any non-empty value to log the method name
                          of every relayed frame to stderr

GETTING STARTED:
    Start a browser with remote debugging enabled, for example:

    msedge --remote-debugging-port=9222
    chrome --remote-debugging-port=9222

CONFIGURATION:
    Create a JSON configuration file to customize behavior:

    {
        "hostname": "localhost",
        "port": 9222,
        "useHttps": false,
        "defaultUrl": "about:blank",
        "timeout": 10000,
        "browserFlavor": "Default",
        "sourceMaps": true,
        "webRoot": "",
        "pathMapping": {
            "/": "${workspaceFolder}"
        },
        "maxSessions": 10,
        "sessionTimeout": "30m"
    }

MCP INTEGRATION:
    Add to your MCP client configuration:

    {
        "mcpServers": {
            "cdp-mcp": {
                "command": "cdp-mcp"
            }
        }
    }

TOOLS:
    Session Management:
        cdp_attach            Attach to a debuggable browser target
        cdp_detach            Detach and dispose a session
        cdp_list_sessions     List active sessions

    Discovery:
        cdp_list_targets      List debuggable targets at an endpoint
        cdp_open_tab          Open a new tab via /json/new

    Relay:
        cdp_send              Forward a protocol frame to the target
        cdp_drain_events      Drain buffered frames and close events

    Path Resolution:
        cdp_resolve_path      Map a script path to a workspace path

    Configuration:
        cdp_list_configs      List attach configurations from launch.json

For more information, visit: https://github.com/cdpkit/cdp-mcp`)
}
