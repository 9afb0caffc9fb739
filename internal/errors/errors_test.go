package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"testing"
)

// TestErrorFormat verifies the message includes the hint when present.
func TestErrorFormat(t *testing.T) {
	err := SessionNotFound("abc-123")

	if err.Code != CodeSessionNotFound {
		t.Errorf("expected code %s, got %s", CodeSessionNotFound, err.Code)
	}
	if !strings.Contains(err.Error(), "abc-123") {
		t.Errorf("expected session id in message, got %s", err.Error())
	}
	if !strings.Contains(err.Error(), "Hint:") {
		t.Errorf("expected hint in message, got %s", err.Error())
	}
}

// TestUnwrap verifies the cause chain works with the standard errors package.
func TestUnwrap(t *testing.T) {
	cause := fmt.Errorf("connection refused")
	err := RelayConnectFailed("ws://localhost:9222/devtools/page/x", cause)

	if !stderrors.Is(err, cause) {
		t.Error("expected errors.Is to find the cause")
	}
}

// TestFromError verifies structured errors pass through and plain errors are
// wrapped.
func TestFromError(t *testing.T) {
	structured := NoTargetsFound("localhost", 9222)
	if got := FromError(structured); got.Code != CodeNoTargetsFound {
		t.Errorf("expected structured error preserved, got code %s", got.Code)
	}

	wrapped := fmt.Errorf("outer: %w", structured)
	if got := FromError(wrapped); got.Code != CodeNoTargetsFound {
		t.Errorf("expected wrapped structured error found, got code %s", got.Code)
	}

	plain := fmt.Errorf("something broke")
	got := FromError(plain)
	if got.Code != "UNKNOWN_ERROR" {
		t.Errorf("expected UNKNOWN_ERROR for plain error, got %s", got.Code)
	}
	if got.Message != "something broke" {
		t.Errorf("expected plain message preserved, got %s", got.Message)
	}
}

// TestConfigNotFound_Hints verifies available configurations surface in the hint.
func TestConfigNotFound_Hints(t *testing.T) {
	err := ConfigNotFound("Missing", []string{"Attach to Edge", "Attach to Chrome"})
	if !strings.Contains(err.Error(), "Attach to Edge") {
		t.Errorf("expected available configs in hint, got %s", err.Error())
	}

	err = ConfigNotFound("Missing", nil)
	if !strings.Contains(err.Error(), "No attach configurations") {
		t.Errorf("expected empty-list hint, got %s", err.Error())
	}
}
