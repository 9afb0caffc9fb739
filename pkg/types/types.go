// Package types defines shared data types used across the CDP-MCP server.
//
// This package provides type definitions for:
//   - RemoteTarget: a debuggable page/context reported by a browser's /json endpoint
//   - SessionStatus: relay session states (connecting, open, closed)
//   - Request types: AttachRequest, OpenTabRequest
//   - Info types: SessionInfo, RelayEvent
//
// These types are used throughout the codebase to maintain type safety
// and provide clear contracts between components.
package types

// RemoteTarget represents one debuggable target exposed by a browser's
// remote debugging endpoint (/json or /json/list).
type RemoteTarget struct {
	ID                   string `json:"id"`
	Title                string `json:"title"`
	URL                  string `json:"url"`
	Description          string `json:"description,omitempty"`
	Type                 string `json:"type,omitempty"`
	DevtoolsFrontendURL  string `json:"devtoolsFrontendUrl,omitempty"`
	WebSocketDebuggerURL string `json:"webSocketDebuggerUrl,omitempty"`
	FaviconURL           string `json:"faviconUrl,omitempty"`
}

// SessionStatus represents the status of a relay session
type SessionStatus string

const (
	SessionStatusConnecting SessionStatus = "connecting"
	SessionStatusOpen       SessionStatus = "open"
	SessionStatusClosed     SessionStatus = "closed"
)

// AttachRequest represents a request to attach to a browser target
type AttachRequest struct {
	Hostname  string `json:"hostname,omitempty"`
	Port      int    `json:"port,omitempty"`
	UseHTTPS  bool   `json:"useHttps,omitempty"`
	TargetURL string `json:"targetUrl,omitempty"` // explicit webSocketDebuggerUrl; skips discovery
	URLFilter string `json:"urlFilter,omitempty"` // substring match against target URLs
	WebRoot   string `json:"webRoot,omitempty"`
}

// SessionInfo represents information about a relay session
type SessionInfo struct {
	SessionID string        `json:"sessionId"`
	Status    SessionStatus `json:"status"`
	TargetID  string        `json:"targetId,omitempty"`
	TargetURL string        `json:"targetUrl,omitempty"`
	PageURL   string        `json:"pageUrl,omitempty"`
}

// RelayEventKind identifies the kind of event a relay emits
type RelayEventKind string

const (
	RelayEventMessage RelayEventKind = "websocket"
	RelayEventClose   RelayEventKind = "close"
)

// RelayEvent is one event delivered from a relay to its owner
type RelayEvent struct {
	Kind    RelayEventKind `json:"kind"`
	Payload string         `json:"payload,omitempty"`
}
