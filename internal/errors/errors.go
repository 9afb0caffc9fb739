// Package errors provides structured error types for the CDP-MCP server.
// These errors include helpful hints and suggestions that guide the caller
// to correct course when something goes wrong.
package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// ErrorCode represents a category of error for programmatic handling
type ErrorCode string

const (
	// Session errors
	CodeSessionNotFound     ErrorCode = "SESSION_NOT_FOUND"
	CodeSessionLimitReached ErrorCode = "SESSION_LIMIT_REACHED"
	CodeSessionClosed       ErrorCode = "SESSION_CLOSED"
	CodeAttachInProgress    ErrorCode = "ATTACH_IN_PROGRESS"

	// Discovery errors
	CodeNoTargetsFound      ErrorCode = "NO_TARGETS_FOUND"
	CodeTargetNotAttachable ErrorCode = "TARGET_NOT_ATTACHABLE"
	CodeTabOpenFailed       ErrorCode = "TAB_OPEN_FAILED"

	// Relay errors
	CodeRelayConnectFailed ErrorCode = "RELAY_CONNECT_FAILED"

	// Parameter errors
	CodeMissingParameter ErrorCode = "MISSING_PARAMETER"
	CodeInvalidParameter ErrorCode = "INVALID_PARAMETER"

	// Configuration errors
	CodeConfigNotFound ErrorCode = "CONFIG_NOT_FOUND"
	CodeConfigInvalid  ErrorCode = "CONFIG_INVALID"
)

// AttachError is a structured error type that includes helpful information
// for the caller to understand what went wrong and how to fix it.
type AttachError struct {
	// Code is a machine-readable error category
	Code ErrorCode `json:"code"`

	// Message is a human-readable description of what went wrong
	Message string `json:"message"`

	// Hint provides actionable guidance on how to fix the error
	Hint string `json:"hint,omitempty"`

	// Details contains additional context (e.g., the invalid value)
	Details map[string]interface{} `json:"details,omitempty"`

	// Cause is the underlying error, if any
	Cause error `json:"-"`
}

// Error implements the error interface
func (e *AttachError) Error() string {
	var sb strings.Builder
	sb.WriteString(e.Message)

	if e.Hint != "" {
		sb.WriteString(" | Hint: ")
		sb.WriteString(e.Hint)
	}

	return sb.String()
}

// Unwrap returns the underlying error for error chaining
func (e *AttachError) Unwrap() error {
	return e.Cause
}

// WithCause sets the underlying cause
func (e *AttachError) WithCause(err error) *AttachError {
	e.Cause = err
	return e
}

// --- Session Errors ---

// SessionNotFound creates an error for when a session ID doesn't exist
func SessionNotFound(sessionID string) *AttachError {
	return &AttachError{
		Code:    CodeSessionNotFound,
		Message: fmt.Sprintf("session '%s' not found", sessionID),
		Hint:    "Use cdp_list_sessions to see active sessions, or use cdp_attach to create a new session.",
		Details: map[string]interface{}{
			"sessionId": sessionID,
		},
	}
}

// SessionLimitReached creates an error when max sessions is reached
func SessionLimitReached(maxSessions int) *AttachError {
	return &AttachError{
		Code:    CodeSessionLimitReached,
		Message: fmt.Sprintf("maximum number of sessions (%d) reached", maxSessions),
		Hint:    "Use cdp_detach to terminate an existing session before creating a new one.",
		Details: map[string]interface{}{
			"maxSessions": maxSessions,
		},
	}
}

// SessionClosed creates an error for operations against a closed session
func SessionClosed(sessionID string) *AttachError {
	return &AttachError{
		Code:    CodeSessionClosed,
		Message: fmt.Sprintf("session '%s' is closed", sessionID),
		Hint:    "The remote target disconnected. Use cdp_attach to establish a new session.",
		Details: map[string]interface{}{
			"sessionId": sessionID,
		},
	}
}

// AttachInProgress creates an error for overlapping attach attempts on one session
func AttachInProgress(sessionID string) *AttachError {
	return &AttachError{
		Code:    CodeAttachInProgress,
		Message: fmt.Sprintf("session '%s' already has an attach in progress", sessionID),
		Hint:    "Wait for the running cdp_attach call to finish before attaching again.",
		Details: map[string]interface{}{
			"sessionId": sessionID,
		},
	}
}

// --- Discovery Errors ---

// NoTargetsFound creates an error when discovery yields nothing usable
func NoTargetsFound(hostname string, port int) *AttachError {
	return &AttachError{
		Code:    CodeNoTargetsFound,
		Message: fmt.Sprintf("no debuggable targets found at %s:%d", hostname, port),
		Hint:    "Ensure the browser is running with --remote-debugging-port and the port is reachable. Use cdp_open_tab to create a fresh page.",
		Details: map[string]interface{}{
			"hostname": hostname,
			"port":     port,
		},
	}
}

// TargetNotAttachable creates an error for targets without a debugger socket
func TargetNotAttachable(targetID string) *AttachError {
	return &AttachError{
		Code:    CodeTargetNotAttachable,
		Message: fmt.Sprintf("target '%s' exposes no webSocketDebuggerUrl", targetID),
		Hint:    "Another client may already be attached to this target, or the target kind is not attachable. Pick a different target from cdp_list_targets.",
		Details: map[string]interface{}{
			"targetId": targetID,
		},
	}
}

// TabOpenFailed creates an error when /json/new does not produce a target
func TabOpenFailed(hostname string, port int) *AttachError {
	return &AttachError{
		Code:    CodeTabOpenFailed,
		Message: fmt.Sprintf("could not open a new tab via %s:%d", hostname, port),
		Hint:    "The endpoint may not support /json/new, or the browser refused the request. Attach to an existing target instead.",
		Details: map[string]interface{}{
			"hostname": hostname,
			"port":     port,
		},
	}
}

// --- Relay Errors ---

// RelayConnectFailed creates an error when the debugger socket cannot be opened
func RelayConnectFailed(targetURL string, err error) *AttachError {
	return &AttachError{
		Code:    CodeRelayConnectFailed,
		Message: fmt.Sprintf("failed to connect to debugger socket %s: %v", targetURL, err),
		Hint:    "The target may have closed, or its socket URL points at an unreachable host. Re-run discovery and attach again.",
		Cause:   err,
		Details: map[string]interface{}{
			"targetUrl": targetURL,
		},
	}
}

// --- Parameter Errors ---

// MissingParameter creates an error for missing required parameters
func MissingParameter(paramName, description string) *AttachError {
	return &AttachError{
		Code:    CodeMissingParameter,
		Message: fmt.Sprintf("required parameter '%s' is missing", paramName),
		Hint:    description,
		Details: map[string]interface{}{
			"parameter": paramName,
		},
	}
}

// InvalidParameter creates an error for invalid parameter values
func InvalidParameter(paramName string, value interface{}, expected string) *AttachError {
	return &AttachError{
		Code:    CodeInvalidParameter,
		Message: fmt.Sprintf("invalid value for parameter '%s': %v", paramName, value),
		Hint:    fmt.Sprintf("Expected: %s", expected),
		Details: map[string]interface{}{
			"parameter": paramName,
			"value":     value,
			"expected":  expected,
		},
	}
}

// --- Configuration Errors ---

// ConfigNotFound creates an error for missing launch.json configurations
func ConfigNotFound(configName string, availableConfigs []string) *AttachError {
	var hint string
	if len(availableConfigs) > 0 {
		hint = fmt.Sprintf("Available configurations: %s", strings.Join(availableConfigs, ", "))
	} else {
		hint = "No attach configurations found in launch.json. Create one first, or pass host and port directly."
	}

	return &AttachError{
		Code:    CodeConfigNotFound,
		Message: fmt.Sprintf("configuration '%s' not found in launch.json", configName),
		Hint:    hint,
		Details: map[string]interface{}{
			"configName":       configName,
			"availableConfigs": availableConfigs,
		},
	}
}

// ConfigInvalid creates an error for invalid configuration
func ConfigInvalid(configName, reason string) *AttachError {
	return &AttachError{
		Code:    CodeConfigInvalid,
		Message: fmt.Sprintf("configuration '%s' is invalid: %s", configName, reason),
		Hint:    "Check the launch.json file for syntax errors and ensure all required fields are present.",
		Details: map[string]interface{}{
			"configName": configName,
			"reason":     reason,
		},
	}
}

// FromError creates an AttachError from a generic error, preserving any
// existing structure
func FromError(err error) *AttachError {
	var ae *AttachError
	if stderrors.As(err, &ae) {
		return ae
	}
	return &AttachError{
		Code:    "UNKNOWN_ERROR",
		Message: err.Error(),
		Cause:   err,
	}
}
