package cdp

import (
	"context"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/cdpkit/cdp-mcp/internal/config"
	"github.com/cdpkit/cdp-mcp/internal/errors"
	"github.com/cdpkit/cdp-mcp/pkg/types"
)

func testSettings() config.RuntimeSettings {
	return config.ResolveSettings(nil, config.DefaultConfig())
}

// TestSession_AttachReplacesRelay verifies that attaching again tears the
// previous relay down completely before the new one takes over. Relays never
// stack.
func TestSession_AttachReplacesRelay(t *testing.T) {
	firstClosed := make(chan struct{})
	srv1, url1 := startWSServer(t, func(conn *websocket.Conn) {
		defer conn.Close()
		conn.ReadMessage()
		close(firstClosed)
	})
	defer srv1.Close()

	srv2, url2 := startWSServer(t, func(conn *websocket.Conn) {
		defer conn.Close()
		conn.ReadMessage()
	})
	defer srv2.Close()

	session := &Session{ID: "s1", Settings: testSettings(), CreatedAt: time.Now()}
	defer session.Dispose()

	if err := session.Attach(context.Background(), types.AttachRequest{TargetURL: url1}); err != nil {
		t.Fatalf("first attach failed: %v", err)
	}

	if err := session.Attach(context.Background(), types.AttachRequest{TargetURL: url2}); err != nil {
		t.Fatalf("second attach failed: %v", err)
	}

	select {
	case <-firstClosed:
	case <-time.After(5 * time.Second):
		t.Fatal("first relay's socket was not closed by the replacement attach")
	}

	info := session.Info()
	if info.TargetURL != url2 {
		t.Errorf("expected session to own the second relay, got %s", info.TargetURL)
	}
}

// TestSession_AttachAfterDispose verifies that a disposed session refuses new
// attaches.
func TestSession_AttachAfterDispose(t *testing.T) {
	session := &Session{ID: "s2", Settings: testSettings(), CreatedAt: time.Now()}
	session.Dispose()

	err := session.Attach(context.Background(), types.AttachRequest{TargetURL: "ws://127.0.0.1:1/x"})
	if err == nil {
		t.Fatal("expected attach against a disposed session to fail")
	}
}

// TestSession_AttachWhileAttaching verifies an overlapping attach attempt
// fails fast instead of racing the running one for the relay slot.
func TestSession_AttachWhileAttaching(t *testing.T) {
	session := &Session{ID: "s10", Settings: testSettings(), CreatedAt: time.Now()}
	session.attaching = true

	err := session.Attach(context.Background(), types.AttachRequest{TargetURL: "ws://127.0.0.1:1/x"})
	if err == nil {
		t.Fatal("expected overlapping attach to fail")
	}
	if got := errors.FromError(err).Code; got != errors.CodeAttachInProgress {
		t.Errorf("expected code %s, got %s", errors.CodeAttachInProgress, got)
	}

	// Once the first attach finishes, the session is usable again.
	session.attaching = false
	srv, wsURL := startWSServer(t, func(conn *websocket.Conn) {
		defer conn.Close()
		conn.ReadMessage()
	})
	defer srv.Close()

	if err := session.Attach(context.Background(), types.AttachRequest{TargetURL: wsURL}); err != nil {
		t.Fatalf("attach failed after the guard cleared: %v", err)
	}
	session.Dispose()
}

// TestSession_DisposeIdempotent verifies Dispose can be called repeatedly.
func TestSession_DisposeIdempotent(t *testing.T) {
	srv, wsURL := startWSServer(t, func(conn *websocket.Conn) {
		defer conn.Close()
		conn.ReadMessage()
	})
	defer srv.Close()

	session := &Session{ID: "s3", Settings: testSettings(), CreatedAt: time.Now()}
	if err := session.Attach(context.Background(), types.AttachRequest{TargetURL: wsURL}); err != nil {
		t.Fatalf("attach failed: %v", err)
	}

	session.Dispose()
	session.Dispose()

	closes := 0
	for _, ev := range session.DrainEvents() {
		if ev.Kind == types.RelayEventClose {
			closes++
		}
	}
	if closes != 1 {
		t.Errorf("expected exactly one close event, got %d", closes)
	}
}

// TestSession_SendWithoutRelay verifies sends against a session with no live
// relay are silent no-ops.
func TestSession_SendWithoutRelay(t *testing.T) {
	session := &Session{ID: "s4", Settings: testSettings(), CreatedAt: time.Now()}
	session.Send(`{"id":1,"method":"Page.enable"}`)
	session.Dispose()
	session.Send(`{"id":2,"method":"Page.enable"}`)
}

// TestSession_DrainEvents verifies delivery order and that draining clears
// the buffer.
func TestSession_DrainEvents(t *testing.T) {
	session := &Session{ID: "s5", Settings: testSettings(), CreatedAt: time.Now()}

	session.recordEvent(types.RelayEventMessage, "a")
	session.recordEvent(types.RelayEventMessage, "b")
	session.recordEvent(types.RelayEventClose, "")

	events := session.DrainEvents()
	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(events))
	}
	if events[0].Payload != "a" || events[1].Payload != "b" || events[2].Kind != types.RelayEventClose {
		t.Errorf("unexpected event order: %+v", events)
	}

	if again := session.DrainEvents(); len(again) != 0 {
		t.Errorf("expected drained buffer to be empty, got %d events", len(again))
	}
}

// TestSession_EventBufferBounded verifies the oldest events are dropped once
// the ring fills up.
func TestSession_EventBufferBounded(t *testing.T) {
	session := &Session{ID: "s6", Settings: testSettings(), CreatedAt: time.Now()}

	for i := 0; i < maxBufferedEvents+10; i++ {
		session.recordEvent(types.RelayEventMessage, "x")
	}

	events := session.DrainEvents()
	if len(events) != maxBufferedEvents {
		t.Errorf("expected buffer capped at %d, got %d", maxBufferedEvents, len(events))
	}
}

// TestPickTarget verifies target selection: empty socket URLs are skipped and
// the URL filter is a substring match.
func TestPickTarget(t *testing.T) {
	targets := []types.RemoteTarget{
		{ID: "bg", URL: "chrome-extension://x", WebSocketDebuggerURL: ""},
		{ID: "p1", URL: "http://localhost:3000/admin", WebSocketDebuggerURL: "ws://localhost:9222/devtools/page/p1"},
		{ID: "p2", URL: "http://localhost:3000/shop", WebSocketDebuggerURL: "ws://localhost:9222/devtools/page/p2"},
	}

	picked := pickTarget(targets, "")
	if picked == nil || picked.ID != "p1" {
		t.Errorf("expected first attachable target p1, got %+v", picked)
	}

	picked = pickTarget(targets, "shop")
	if picked == nil || picked.ID != "p2" {
		t.Errorf("expected filtered target p2, got %+v", picked)
	}

	if picked = pickTarget(targets, "nonexistent"); picked != nil {
		t.Errorf("expected no match, got %+v", picked)
	}

	if picked = pickTarget(nil, ""); picked != nil {
		t.Errorf("expected nil for empty target list, got %+v", picked)
	}
}

// TestSession_ResolvePath verifies the two-stage pipeline with source maps
// enabled.
func TestSession_ResolvePath(t *testing.T) {
	settings := testSettings()
	settings.WebRoot = "/proj"

	session := &Session{ID: "s7", Settings: settings, CreatedAt: time.Now()}

	got := session.ResolvePath("webpack:///./src/app.js")
	if got != "/proj/src/app.js" {
		t.Errorf("expected /proj/src/app.js, got %s", got)
	}

	// Unmatched paths come back unchanged.
	got = session.ResolvePath("/already/local.js")
	if got != "/already/local.js" {
		t.Errorf("expected unmatched path unchanged, got %s", got)
	}
}

// TestSession_ResolvePath_SourceMapsDisabled verifies the override stage is
// skipped when source maps are off.
func TestSession_ResolvePath_SourceMapsDisabled(t *testing.T) {
	settings := testSettings()
	settings.WebRoot = "/proj"
	settings.SourceMaps = false
	settings.PathMapping = map[string]string{"/*": "${workspaceFolder}/*"}

	session := &Session{ID: "s8", Settings: settings, CreatedAt: time.Now()}

	// The webpack override would have matched, but the stage is disabled.
	got := session.ResolvePath("webpack:///./src/app.js")
	if got != "webpack:///./src/app.js" {
		t.Errorf("expected override stage skipped, got %s", got)
	}

	got = session.ResolvePath("/index.html")
	if got != "/proj/index.html" {
		t.Errorf("expected path mapping applied, got %s", got)
	}
}

// TestSession_ResolvePath_EmptyWebRoot verifies that a stage resolving to the
// empty string leaves the path unmapped instead of erasing it.
func TestSession_ResolvePath_EmptyWebRoot(t *testing.T) {
	settings := testSettings()
	settings.WebRoot = ""

	session := &Session{ID: "s9", Settings: settings, CreatedAt: time.Now()}

	got := session.ResolvePath("webpack:///./src/app.js")
	if got != "webpack:///./src/app.js" {
		t.Errorf("expected path kept when root is unset, got %s", got)
	}
}

// TestSessionManager_Lifecycle covers create, get, list, terminate and the
// session limit.
func TestSessionManager_Lifecycle(t *testing.T) {
	sm := NewSessionManager(2, time.Hour)
	defer sm.Close()

	s1, err := sm.CreateSession(testSettings())
	if err != nil {
		t.Fatalf("first create failed: %v", err)
	}
	if _, err := sm.CreateSession(testSettings()); err != nil {
		t.Fatalf("second create failed: %v", err)
	}

	if _, err := sm.CreateSession(testSettings()); err == nil {
		t.Error("expected session limit error on third create")
	}

	got, err := sm.GetSession(s1.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.ID != s1.ID {
		t.Errorf("expected session %s, got %s", s1.ID, got.ID)
	}

	if len(sm.ListSessions()) != 2 {
		t.Errorf("expected 2 sessions, got %d", len(sm.ListSessions()))
	}

	if err := sm.TerminateSession(s1.ID); err != nil {
		t.Fatalf("terminate failed: %v", err)
	}
	if _, err := sm.GetSession(s1.ID); err == nil {
		t.Error("expected terminated session to be gone")
	}

	// Terminating frees a slot.
	if _, err := sm.CreateSession(testSettings()); err != nil {
		t.Errorf("expected create to succeed after terminate: %v", err)
	}

	if err := sm.TerminateSession("no-such-id"); err == nil {
		t.Error("expected error terminating unknown session")
	}
}
