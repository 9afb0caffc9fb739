package cdp

import (
	"context"
	"crypto/tls"
	"log"
	"os"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/tidwall/gjson"

	"github.com/cdpkit/cdp-mcp/pkg/types"
)

// relayDebug controls verbose frame tracing through the relay. Set
// CDP_MCP_TRACE_RELAY to any non-empty value to enable it.
var relayDebug = os.Getenv("CDP_MCP_TRACE_RELAY") != ""

func relayLog(format string, args ...interface{}) {
	if relayDebug {
		log.Printf("[relay] "+format, args...)
	}
}

// frameMethod peeks at the method field of a frame for tracing. The frame
// itself is relayed verbatim and never re-encoded.
func frameMethod(frame string) string {
	return gjson.Get(frame, "method").String()
}

type relayState int

const (
	stateConnecting relayState = iota
	stateOpen
	stateClosed
)

// EventSink receives events from a relay: one RelayEventMessage per inbound
// frame, and a single terminal RelayEventClose. Sinks run on the relay's
// reader goroutine and must not call back into Dispose.
type EventSink func(kind types.RelayEventKind, payload string)

// Relay owns one logical session between a client channel and one remote
// target's debug socket. Outbound frames sent before the socket opens are
// queued and flushed in arrival order; inbound frames are delivered in the
// order the socket produces them. The close event fires exactly once, and no
// events are delivered after Dispose returns.
type Relay struct {
	targetURL string
	sink      EventSink

	// mu guards state, conn, and the pre-open queue. Socket writes happen
	// under it so queued frames and later sends cannot interleave.
	mu    sync.Mutex
	state relayState
	conn  *websocket.Conn
	queue []string

	// emitMu serializes event delivery. sealed bars all delivery once
	// Dispose has run; it is set in the same critical section that emits
	// the close event, so no frame can follow the close.
	emitMu sync.Mutex
	sealed bool

	ctx         context.Context
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	disposeOnce sync.Once
	closeEvent  sync.Once
}

// NewRelay creates a relay and begins connecting to the target socket in the
// background. Events start flowing to sink as soon as the socket produces
// them.
func NewRelay(targetURL string, sink EventSink) *Relay {
	ctx, cancel := context.WithCancel(context.Background())
	r := &Relay{
		targetURL: targetURL,
		sink:      sink,
		state:     stateConnecting,
		ctx:       ctx,
		cancel:    cancel,
	}

	r.wg.Add(1)
	go r.connect()

	return r
}

// TargetURL returns the socket URL this relay was created for.
func (r *Relay) TargetURL() string {
	return r.targetURL
}

// Status reports the relay's lifecycle state.
func (r *Relay) Status() types.SessionStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	switch r.state {
	case stateOpen:
		return types.SessionStatusOpen
	case stateClosed:
		return types.SessionStatusClosed
	default:
		return types.SessionStatusConnecting
	}
}

func (r *Relay) connect() {
	defer r.wg.Done()

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
		TLSClientConfig:  &tls.Config{InsecureSkipVerify: true}, //nolint:gosec // local debugging endpoints use self-signed certs
	}

	conn, resp, err := dialer.DialContext(r.ctx, r.targetURL, nil)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		relayLog("dial %s failed: %v", r.targetURL, err)
		r.mu.Lock()
		r.state = stateClosed
		r.queue = nil
		r.mu.Unlock()
		r.emitClose()
		return
	}

	r.mu.Lock()
	if r.state == stateClosed {
		// Disposed while the handshake was in flight.
		r.mu.Unlock()
		conn.Close()
		return
	}
	r.conn = conn
	for _, frame := range r.queue {
		if err := conn.WriteMessage(websocket.TextMessage, []byte(frame)); err != nil {
			log.Printf("Warning: failed to flush queued frame to %s: %v", r.targetURL, err)
			break
		}
	}
	r.queue = nil
	r.state = stateOpen
	r.mu.Unlock()

	r.wg.Add(1)
	go r.readLoop(conn)
}

// readLoop delivers inbound frames until the socket closes for any reason.
func (r *Relay) readLoop(conn *websocket.Conn) {
	defer r.wg.Done()

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			relayLog("socket %s closed: %v", r.targetURL, err)
			break
		}
		relayLog("<- %s", frameMethod(string(message)))
		r.deliver(types.RelayEventMessage, string(message))
	}

	r.mu.Lock()
	r.state = stateClosed
	r.queue = nil
	r.mu.Unlock()
	r.emitClose()
}

// SendFromClient forwards an opaque frame from the client side to the remote
// socket. While the socket is still connecting the frame is queued; after the
// relay has closed this is a silent no-op, because client sends can race with
// an asynchronous close notification.
func (r *Relay) SendFromClient(message string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch r.state {
	case stateClosed:
		return
	case stateConnecting:
		r.queue = append(r.queue, message)
	case stateOpen:
		relayLog("-> %s", frameMethod(message))
		if err := r.conn.WriteMessage(websocket.TextMessage, []byte(message)); err != nil {
			log.Printf("Warning: failed to send frame to %s: %v", r.targetURL, err)
		}
	}
}

// deliver hands an event to the sink unless the relay has been sealed by
// Dispose.
func (r *Relay) deliver(kind types.RelayEventKind, payload string) {
	r.emitMu.Lock()
	defer r.emitMu.Unlock()
	if r.sealed {
		return
	}
	r.sink(kind, payload)
}

// emitClose raises the terminal close event at most once.
func (r *Relay) emitClose() {
	r.emitMu.Lock()
	defer r.emitMu.Unlock()
	r.emitCloseLocked()
}

// emitCloseLocked requires emitMu to be held.
func (r *Relay) emitCloseLocked() {
	r.closeEvent.Do(func() {
		r.sink(types.RelayEventClose, "")
	})
}

// Dispose closes the remote socket, drops any queued outbound frames, and
// raises the close event if it has not fired yet. It is idempotent, and once
// it returns no further events are delivered. Close and seal happen in one
// emitMu critical section: the close event is always the last event the sink
// sees.
func (r *Relay) Dispose() {
	r.disposeOnce.Do(func() {
		r.mu.Lock()
		r.state = stateClosed
		r.queue = nil
		conn := r.conn
		r.mu.Unlock()

		r.emitMu.Lock()
		r.emitCloseLocked()
		r.sealed = true
		r.emitMu.Unlock()

		r.cancel()
		if conn != nil {
			conn.Close()
		}
		r.wg.Wait()
	})
}
