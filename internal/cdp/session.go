package cdp

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/cdpkit/cdp-mcp/internal/config"
	"github.com/cdpkit/cdp-mcp/internal/errors"
	"github.com/cdpkit/cdp-mcp/internal/pathmap"
	"github.com/cdpkit/cdp-mcp/pkg/types"
)

// maxBufferedEvents bounds the per-session event ring; when a client stops
// draining, the oldest events are dropped first.
const maxBufferedEvents = 1024

// Session is the façade over one attach: it resolves settings, discovers (or
// is given) a target, owns exactly one relay at a time, and buffers relay
// events for the client to drain. At most one relay exists per session;
// attaching again replaces the previous relay, it never stacks.
type Session struct {
	ID        string
	Settings  config.RuntimeSettings
	CreatedAt time.Time

	mu        sync.Mutex
	target    types.RemoteTarget
	relay     *Relay
	events    []types.RelayEvent
	attaching bool
	disposed  bool
}

// Attach establishes the session's relay. With an explicit TargetURL the
// discovery step is skipped entirely; otherwise targets are discovered
// against the resolved endpoint and the first attachable one (optionally
// narrowed by URLFilter) is chosen. Any previous relay is fully disposed
// before the new one is created. Only one Attach may run at a time;
// overlapping calls fail fast instead of racing on the relay swap.
func (s *Session) Attach(ctx context.Context, req types.AttachRequest) error {
	// Overlapping attaches would race on the relay swap; only one may run.
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return errors.SessionClosed(s.ID)
	}
	if s.attaching {
		s.mu.Unlock()
		return errors.AttachInProgress(s.ID)
	}
	s.attaching = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.attaching = false
		s.mu.Unlock()
	}()

	targetURL := req.TargetURL
	var target types.RemoteTarget

	if targetURL == "" {
		targets := DiscoverTargets(ctx, s.Settings.Hostname, s.Settings.Port, s.Settings.UseHTTPS, s.Settings.Timeout)

		// The fetch may have outlived a concurrent dispose; discard its
		// results in that case.
		if s.isDisposed() {
			return errors.SessionClosed(s.ID)
		}

		picked := pickTarget(targets, req.URLFilter)
		if picked == nil {
			return errors.NoTargetsFound(s.Settings.Hostname, s.Settings.Port)
		}
		target = *picked
		targetURL = target.WebSocketDebuggerURL
	} else {
		target = types.RemoteTarget{URL: req.TargetURL, WebSocketDebuggerURL: targetURL}
	}

	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return errors.SessionClosed(s.ID)
	}
	prior := s.relay
	s.relay = nil
	s.mu.Unlock()

	if prior != nil {
		prior.Dispose()
	}

	relay := NewRelay(targetURL, s.recordEvent)

	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		relay.Dispose()
		return errors.SessionClosed(s.ID)
	}
	s.target = target
	s.relay = relay
	s.mu.Unlock()

	return nil
}

// pickTarget returns the first attachable target, optionally requiring the
// page URL to contain filter. Targets without a debugger socket URL are never
// candidates.
func pickTarget(targets []types.RemoteTarget, filter string) *types.RemoteTarget {
	for i := range targets {
		t := targets[i]
		if t.WebSocketDebuggerURL == "" {
			continue
		}
		if filter != "" && !strings.Contains(t.URL, filter) {
			continue
		}
		return &t
	}
	return nil
}

// recordEvent is the session's relay sink. Events accumulate in a bounded
// ring until the client drains them.
func (s *Session) recordEvent(kind types.RelayEventKind, payload string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.events = append(s.events, types.RelayEvent{Kind: kind, Payload: payload})
	if len(s.events) > maxBufferedEvents {
		s.events = s.events[len(s.events)-maxBufferedEvents:]
	}
}

// Send forwards one opaque frame to the session's target. Sends against a
// session with no live relay are silent no-ops, mirroring the relay's
// post-close behavior.
func (s *Session) Send(message string) {
	s.mu.Lock()
	relay := s.relay
	s.mu.Unlock()

	if relay != nil {
		relay.SendFromClient(message)
	}
}

// DrainEvents returns the buffered relay events in delivery order and clears
// the buffer.
func (s *Session) DrainEvents() []types.RelayEvent {
	s.mu.Lock()
	defer s.mu.Unlock()

	drained := s.events
	s.events = nil
	return drained
}

// ResolvePath runs a path through the two-stage resolution pipeline: the
// source-map override table first (when source maps are enabled), then the
// workspace path mapping. A stage that resolves to an empty string leaves the
// path unmapped rather than erasing it.
func (s *Session) ResolvePath(sourcePath string) string {
	result := sourcePath
	if s.Settings.SourceMaps {
		result = applyOrKeep(result, s.Settings.SourceMapPathOverrides, s.Settings.WebRoot)
	}
	return applyOrKeep(result, s.Settings.PathMapping, s.Settings.WebRoot)
}

func applyOrKeep(p string, table map[string]string, root string) string {
	mapped := pathmap.ApplyPathMapping(p, table, root)
	if mapped == "" {
		return p
	}
	return mapped
}

// Info returns the session's current state for listing.
func (s *Session) Info() types.SessionInfo {
	s.mu.Lock()
	defer s.mu.Unlock()

	info := types.SessionInfo{
		SessionID: s.ID,
		Status:    types.SessionStatusClosed,
		TargetID:  s.target.ID,
		PageURL:   s.target.URL,
	}
	if s.relay != nil {
		info.Status = s.relay.Status()
		info.TargetURL = s.relay.TargetURL()
	}
	return info
}

func (s *Session) isDisposed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.disposed
}

// Dispose tears down the session's relay. Safe to call at any point,
// including mid-discovery, and idempotent.
func (s *Session) Dispose() {
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return
	}
	s.disposed = true
	relay := s.relay
	s.relay = nil
	s.mu.Unlock()

	if relay != nil {
		relay.Dispose()
	}
}

// SessionManager manages multiple attach sessions
type SessionManager struct {
	sessions map[string]*Session
	mu       sync.RWMutex

	maxSessions    int
	sessionTimeout time.Duration

	ctx    context.Context
	cancel context.CancelFunc
}

// NewSessionManager creates a new session manager
func NewSessionManager(maxSessions int, sessionTimeout time.Duration) *SessionManager {
	ctx, cancel := context.WithCancel(context.Background())
	sm := &SessionManager{
		sessions:       make(map[string]*Session),
		maxSessions:    maxSessions,
		sessionTimeout: sessionTimeout,
		ctx:            ctx,
		cancel:         cancel,
	}

	go sm.cleanupLoop()

	return sm
}

// cleanupLoop periodically cleans up expired sessions
func (sm *SessionManager) cleanupLoop() {
	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-sm.ctx.Done():
			return
		case <-ticker.C:
			sm.cleanupExpiredSessions()
		}
	}
}

// cleanupExpiredSessions disposes sessions that have exceeded the timeout
func (sm *SessionManager) cleanupExpiredSessions() {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	now := time.Now()
	for id, session := range sm.sessions {
		if now.Sub(session.CreatedAt) > sm.sessionTimeout {
			log.Printf("Warning: disposing expired session %s", id)
			session.Dispose()
			delete(sm.sessions, id)
		}
	}
}

// CreateSession creates a new session with the given resolved settings
func (sm *SessionManager) CreateSession(settings config.RuntimeSettings) (*Session, error) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if len(sm.sessions) >= sm.maxSessions {
		return nil, errors.SessionLimitReached(sm.maxSessions)
	}

	session := &Session{
		ID:        uuid.New().String(),
		Settings:  settings,
		CreatedAt: time.Now(),
	}

	sm.sessions[session.ID] = session
	return session, nil
}

// GetSession retrieves a session by ID
func (sm *SessionManager) GetSession(id string) (*Session, error) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	session, ok := sm.sessions[id]
	if !ok {
		return nil, fmt.Errorf("session not found: %s", id)
	}

	return session, nil
}

// ListSessions returns all active sessions
func (sm *SessionManager) ListSessions() []*Session {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	sessions := make([]*Session, 0, len(sm.sessions))
	for _, session := range sm.sessions {
		sessions = append(sessions, session)
	}

	return sessions
}

// TerminateSession disposes a session and removes it from the manager
func (sm *SessionManager) TerminateSession(id string) error {
	sm.mu.Lock()
	session, ok := sm.sessions[id]
	if ok {
		delete(sm.sessions, id)
	}
	sm.mu.Unlock()

	if !ok {
		return fmt.Errorf("session not found: %s", id)
	}

	session.Dispose()
	return nil
}

// Close shuts down the session manager and all sessions
func (sm *SessionManager) Close() {
	sm.cancel()

	sm.mu.Lock()
	sessions := make([]*Session, 0, len(sm.sessions))
	for id, session := range sm.sessions {
		sessions = append(sessions, session)
		delete(sm.sessions, id)
	}
	sm.mu.Unlock()

	for _, session := range sessions {
		session.Dispose()
	}
}
