// Package cdp implements target discovery and frame relaying for the Chrome
// DevTools Protocol (CDP) remote debugging endpoint.
//
// A browser started with --remote-debugging-port exposes an HTTP surface
// (/json/list, /json, /json/new) listing debuggable targets, each reachable
// through a dedicated WebSocket. This package provides:
//   - Discovery: querying that surface and normalizing the reported socket URLs
//   - Relay: one live pairing of a client channel and a target's debug socket
//   - SessionManager: lifecycle management for attach sessions
//
// The relay carries frames verbatim in both directions; it never interprets
// protocol methods.
package cdp

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/cdpkit/cdp-mcp/pkg/types"
)

// wsURLPattern matches a debugger socket URL so its host can be rewritten.
var wsURLPattern = regexp.MustCompile(`^ws://([^/]+)(/.*)$`)

// FetchURI issues a GET against a debugging endpoint and returns the full
// response body. Only HTTP 200 resolves; any other status fails with the
// trimmed body text as the message. The Host header is always forced to
// localhost: some debugging servers reject requests whose Host header is
// anything else (a compatibility shim, not a security check). Certificate
// validation is disabled for https endpoints.
func FetchURI(ctx context.Context, uri string, timeout time.Duration) (string, error) {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	client := &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true}, //nolint:gosec // local debugging endpoints use self-signed certs
		},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return "", err
	}
	req.Host = "localhost"

	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%s", strings.TrimSpace(string(body)))
	}

	return string(body), nil
}

// DiscoverTargets queries the remote endpoint for its debuggable targets.
// It tries /json/list first and falls back to /json, strictly in that order;
// the first endpoint returning a non-empty body wins regardless of whether it
// parses. Fetch and parse failures are swallowed: the result is simply empty.
// Every returned target has its socket URL rewritten to the queried address.
func DiscoverTargets(ctx context.Context, hostname string, port int, useHTTPS bool, timeout time.Duration) []types.RemoteTarget {
	scheme := "http"
	if useHTTPS {
		scheme = "https"
	}
	base := fmt.Sprintf("%s://%s:%d", scheme, hostname, port)

	var body string
	for _, endpoint := range []string{"/json/list", "/json"} {
		text, err := FetchURI(ctx, base+endpoint, timeout)
		if err != nil || strings.TrimSpace(text) == "" {
			continue
		}
		body = text
		break
	}
	if body == "" {
		return nil
	}

	var targets []types.RemoteTarget
	if err := json.Unmarshal([]byte(body), &targets); err != nil {
		return nil
	}

	for i := range targets {
		targets[i] = FixRemoteWebSocket(hostname, port, targets[i])
	}
	return targets
}

// FixRemoteWebSocket rewrites the host of a target's debugger socket URL to
// the address the endpoint was queried at. The debugging server reports its
// own bind address (often 127.0.0.1), which is unreachable when debugging
// across a forwarded port or container boundary. Targets without a socket URL
// pass through unchanged; some target kinds are simply not attachable.
func FixRemoteWebSocket(remoteAddress string, remotePort int, target types.RemoteTarget) types.RemoteTarget {
	if target.WebSocketDebuggerURL == "" {
		return target
	}

	match := wsURLPattern.FindStringSubmatch(target.WebSocketDebuggerURL)
	if match == nil {
		return target
	}

	target.WebSocketDebuggerURL = fmt.Sprintf("ws://%s:%d%s", remoteAddress, remotePort, match[2])
	return target
}

// OpenNewTab asks the endpoint to create a new page via /json/new and returns
// the resulting target. Any failure, fetch or parse, yields nil: callers must
// treat nil as "no new tab created", not as fatal.
func OpenNewTab(ctx context.Context, hostname string, port int, tabURL string, timeout time.Duration) *types.RemoteTarget {
	uri := fmt.Sprintf("http://%s:%d/json/new?%s", hostname, port, tabURL)

	body, err := FetchURI(ctx, uri, timeout)
	if err != nil {
		return nil
	}

	var target types.RemoteTarget
	if err := json.Unmarshal([]byte(body), &target); err != nil {
		return nil
	}

	target = FixRemoteWebSocket(hostname, port, target)
	return &target
}
