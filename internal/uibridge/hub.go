package uibridge

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"runtime/debug"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// writeDeadline bounds a single websocket write. Writes are localhost-only;
// a settings window frozen longer than this is treated as dead.
const writeDeadline = 5 * time.Second

// readDeadline is the maximum time the server waits for any read activity,
// pongs included, before considering the connection dead. 90 seconds allows
// three missed pings at pingInterval.
const readDeadline = 90 * time.Second

// pingInterval is the interval between server-initiated websocket pings.
const pingInterval = 30 * time.Second

// maxReadMessageSize caps incoming messages. Hotkey edit payloads are well
// under 1 KiB; anything near the cap is malformed.
const maxReadMessageSize = 32 * 1024

// wsUpgrader is shared across upgrades; the Upgrader is stateless.
var wsUpgrader = websocket.Upgrader{
	// The listener binds to 127.0.0.1 only, so the origin check stays
	// permissive for whatever shell the settings UI runs in.
	CheckOrigin:     func(r *http.Request) bool { return true },
	ReadBufferSize:  1024,
	WriteBufferSize: 8 * 1024,
}

// HubOptions configures the bridge.
type HubOptions struct {
	// Addr is the listen address. Empty means "127.0.0.1:0" and the OS
	// assigns the port.
	Addr string

	// Handler receives decoded UI requests. Nil drops them.
	Handler Handler

	// OnConnect runs after a client connects (and any previous client has
	// been replaced). The coordinator uses it to push full state.
	OnConnect func()
}

// Hub serves the settings UI over a single websocket connection. New
// connections replace the current one so a reloaded settings window takes
// over without a restart.
//
// Lock ordering (never acquire in reverse):
//
//	writeMu -> mu
//
// mu protects the connection pointer. writeMu serializes WriteMessage calls;
// gorilla/websocket does not allow concurrent writes.
//
// Any write failure disconnects the client; the client reconnects.
type Hub struct {
	opts HubOptions

	mu   sync.RWMutex
	conn *websocket.Conn

	// writeMu serializes WriteMessage calls. Never hold mu when acquiring it.
	writeMu sync.Mutex

	listener net.Listener
	server   *http.Server
	url      string // "ws://127.0.0.1:<port>/ws", set by Start

	// closeOnce makes Stop idempotent. A stopped Hub cannot be restarted.
	closeOnce sync.Once
}

// NewHub creates a Hub. Nothing listens until Start.
func NewHub(opts HubOptions) *Hub {
	if opts.Addr == "" {
		opts.Addr = "127.0.0.1:0"
	}
	return &Hub{opts: opts}
}

// Start begins listening and serving websocket upgrades on /ws. ctx becomes
// the server's BaseContext so request handlers observe cancellation; the
// server itself is stopped via Stop. Start is called once during startup,
// before any concurrent use.
func (h *Hub) Start(ctx context.Context) error {
	if h.server != nil {
		return fmt.Errorf("uibridge: already started")
	}

	ln, err := net.Listen("tcp", h.opts.Addr)
	if err != nil {
		return fmt.Errorf("uibridge: listen: %w", err)
	}
	h.listener = ln

	port := ln.Addr().(*net.TCPAddr).Port
	h.url = fmt.Sprintf("ws://127.0.0.1:%d/ws", port)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", h.handleWS)

	h.server = &http.Server{
		Handler: mux,
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	go func() {
		if serveErr := h.server.Serve(ln); serveErr != nil && serveErr != http.ErrServerClosed {
			slog.Error("[ws] server error", "error", serveErr)
		}
	}()

	slog.Info("[ws] settings bridge listening", "url", h.url)
	return nil
}

// Stop shuts down the HTTP server and closes any active connection. Safe to
// call multiple times.
func (h *Hub) Stop() error {
	var stopErr error
	h.closeOnce.Do(func() {
		h.mu.Lock()
		conn := h.conn
		h.conn = nil
		h.mu.Unlock()

		if conn != nil {
			if err := conn.Close(); err != nil {
				slog.Debug("[ws] connection close during stop", "error", err)
			}
		}

		if h.server != nil {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := h.server.Shutdown(shutdownCtx); err != nil {
				stopErr = fmt.Errorf("uibridge: shutdown: %w", err)
			}
		}

		slog.Info("[ws] settings bridge stopped")
	})
	return stopErr
}

// URL returns the websocket URL ("ws://127.0.0.1:<port>/ws"), or "" before
// Start.
func (h *Hub) URL() string {
	return h.url
}

// HasActiveConnection reports whether a settings UI client is connected.
func (h *Hub) HasActiveConnection() bool {
	h.mu.RLock()
	active := h.conn != nil
	h.mu.RUnlock()
	return active
}

// Push sends one outbound frame to the connected client. With no client the
// frame is dropped silently; state pushes repeat on reconnect. Write errors
// disconnect the client.
func (h *Hub) Push(frameType string, data any) {
	h.mu.RLock()
	conn := h.conn
	h.mu.RUnlock()

	if conn == nil {
		return
	}

	payload, err := json.Marshal(frame{Type: frameType, Data: data})
	if err != nil {
		slog.Warn("[ws] failed to encode frame", "type", frameType, "error", err)
		return
	}

	// The connection may be replaced between the RLock above and the write.
	// A write on the stale connection fails, and clearIfCurrent compares
	// pointers so it never clears the replacement.
	h.writeMu.Lock()
	if !h.setWriteDeadlineOrClose(conn, writeDeadline) {
		h.writeMu.Unlock()
		return
	}
	writeErr := conn.WriteMessage(websocket.TextMessage, payload)
	h.clearWriteDeadline(conn)
	h.writeMu.Unlock()

	if writeErr != nil {
		slog.Warn("[ws] write failed, closing connection", "type", frameType, "error", writeErr)
		h.clearIfCurrent(conn)
		h.closeConn(conn, "write error in Push")
	}
}

// clearIfCurrent clears the hub's connection only if conn is still current.
// Caller must not hold h.mu.
func (h *Hub) clearIfCurrent(conn *websocket.Conn) bool {
	h.mu.Lock()
	isCurrent := h.conn == conn
	if isCurrent {
		h.conn = nil
	}
	h.mu.Unlock()
	return isCurrent
}

// closeConn closes a connection. Double-close is allowed; gorilla returns an
// error on an already-closed connection with no other effect.
func (h *Hub) closeConn(conn *websocket.Conn, reason string) {
	if closeErr := conn.Close(); closeErr != nil {
		slog.Debug("[ws] connection close", "reason", reason, "error", closeErr)
	}
}

// setWriteDeadlineOrClose sets a write deadline. If that fails the connection
// is in an indeterminate state and is closed to prevent indefinite blocking.
func (h *Hub) setWriteDeadlineOrClose(conn *websocket.Conn, d time.Duration) bool {
	if err := conn.SetWriteDeadline(time.Now().Add(d)); err != nil {
		slog.Warn("[ws] SetWriteDeadline failed, closing connection", "error", err)
		h.clearIfCurrent(conn)
		h.closeConn(conn, "SetWriteDeadline failure")
		return false
	}
	return true
}

// clearWriteDeadline resets the deadline after a successful write. Failure is
// non-fatal; the next write sets a fresh deadline.
func (h *Hub) clearWriteDeadline(conn *websocket.Conn) {
	if err := conn.SetWriteDeadline(time.Time{}); err != nil {
		slog.Debug("[ws] clearWriteDeadline failed", "error", err)
	}
}

// handleWS upgrades the request and runs the read pump. Only one connection
// is active at a time; a new one replaces the old.
func (h *Hub) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("[ws] upgrade failed", "error", err)
		return
	}

	conn.SetReadLimit(maxReadMessageSize)

	if err := conn.SetReadDeadline(time.Now().Add(readDeadline)); err != nil {
		slog.Warn("[ws] SetReadDeadline failed on new connection", "error", err)
		h.closeConn(conn, "initial SetReadDeadline failure")
		return
	}
	conn.SetPongHandler(func(string) error {
		// Each pong extends the read deadline.
		return conn.SetReadDeadline(time.Now().Add(readDeadline))
	})

	h.mu.Lock()
	oldConn := h.conn
	h.conn = conn
	h.mu.Unlock()

	if oldConn != nil {
		// Close outside mu.
		h.closeConn(oldConn, "replaced by new connection")
	}

	slog.Info("[ws] settings UI connected", "remoteAddr", conn.RemoteAddr())

	if h.opts.OnConnect != nil {
		h.opts.OnConnect()
	}

	pingDone := make(chan struct{})
	go h.pingLoop(conn, pingDone)

	defer func() {
		if rec := recover(); rec != nil {
			slog.Error("[ws] read pump recovered from panic",
				"panic", rec,
				"stack", string(debug.Stack()),
			)
		}

		close(pingDone)
		h.clearIfCurrent(conn)
		h.closeConn(conn, "read pump exit")
		slog.Info("[ws] settings UI disconnected")
	}()

	for {
		msgType, msg, readErr := conn.ReadMessage()
		if readErr != nil {
			if websocket.IsUnexpectedCloseError(readErr, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Warn("[ws] read error", "error", readErr)
			}
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}

		var req Request
		if jsonErr := json.Unmarshal(msg, &req); jsonErr != nil {
			slog.Warn("[ws] invalid JSON from settings UI", "error", jsonErr)
			continue
		}
		if !knownOps[req.Type] {
			slog.Warn("[ws] unknown request type", "type", req.Type)
			continue
		}
		if h.opts.Handler != nil {
			h.dispatch(req)
		}
	}
}

// dispatch hands a request to the handler with panic containment, so a
// handler bug cannot take down the read pump.
func (h *Hub) dispatch(req Request) {
	defer func() {
		if rec := recover(); rec != nil {
			slog.Error("[ws] request handler recovered from panic",
				"type", req.Type,
				"panic", rec,
				"stack", string(debug.Stack()),
			)
		}
	}()
	h.opts.Handler(req)
}

// pingLoop sends periodic pings so dead connections are detected. Exits when
// done closes or a ping fails.
func (h *Hub) pingLoop(conn *websocket.Conn, done <-chan struct{}) {
	defer func() {
		// On panic, drop the connection rather than leave it unpinged.
		if rec := recover(); rec != nil {
			slog.Error("[ws] ping loop recovered from panic",
				"panic", rec,
				"stack", string(debug.Stack()),
			)
			h.clearIfCurrent(conn)
			h.closeConn(conn, "ping loop panic recovery")
		}
	}()

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			h.writeMu.Lock()
			if !h.setWriteDeadlineOrClose(conn, writeDeadline) {
				h.writeMu.Unlock()
				return
			}
			pingErr := conn.WriteMessage(websocket.PingMessage, nil)
			h.clearWriteDeadline(conn)
			h.writeMu.Unlock()

			if pingErr != nil {
				slog.Debug("[ws] ping failed, connection likely dead", "error", pingErr)
				h.clearIfCurrent(conn)
				h.closeConn(conn, "ping failure")
				return
			}
		}
	}
}
