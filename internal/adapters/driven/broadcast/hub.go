// Package broadcast streams progress events and notifications to websocket
// clients, for dashboards that watch a sync from outside the terminal.
package broadcast

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"

	"github.com/custodia-labs/stagesync/internal/core/domain"
	"github.com/custodia-labs/stagesync/internal/core/ports/driven"
	"github.com/custodia-labs/stagesync/internal/logger"
)

var _ driven.NotificationSink = (*Hub)(nil)

// MessageType identifies a broadcast payload.
type MessageType string

const (
	// MessageProgress carries a ProgressData payload.
	MessageProgress MessageType = "progress"
	// MessageNotification carries a NotificationData payload.
	MessageNotification MessageType = "notification"
	// MessageHello is sent once on connect.
	MessageHello MessageType = "hello"
)

// Message is one frame sent to clients.
type Message struct {
	Type      MessageType     `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// ProgressData is the wire form of a progress event.
type ProgressData struct {
	SessionID       string  `json:"session_id"`
	Stage           string  `json:"stage"`
	Current         string  `json:"current"`
	Status          string  `json:"status"`
	StagePercentage float64 `json:"stage_percentage"`
	Overall         float64 `json:"overall"`
	Message         string  `json:"message,omitempty"`
	Processed       *int    `json:"processed,omitempty"`
	Total           *int    `json:"total,omitempty"`
}

// NotificationData is the wire form of a notification.
type NotificationData struct {
	Kind    string `json:"kind"`
	Title   string `json:"title"`
	Message string `json:"message,omitempty"`
}

const (
	queueSize    = 128
	writeTimeout = 5 * time.Second
)

// Hub fans messages out to connected websocket clients. Slow or broken
// clients are dropped; publishing never blocks the caller.
type Hub struct {
	clientsMu sync.RWMutex
	clients   map[*websocket.Conn]struct{}

	queue  chan Message
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	server   *http.Server
	listener net.Listener
	now      func() time.Time
}

// NewHub creates a hub and starts its delivery loop.
func NewHub() *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	h := &Hub{
		clients: make(map[*websocket.Conn]struct{}),
		queue:   make(chan Message, queueSize),
		ctx:     ctx,
		cancel:  cancel,
		now:     time.Now,
	}
	h.wg.Add(1)
	go h.loop()
	return h
}

// Handler returns the HTTP handler serving /ws and /health.
func (h *Hub) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", h.handleWebSocket)
	mux.HandleFunc("/health", h.handleHealth)
	return mux
}

// ListenAndServe serves the hub on addr in the background.
func (h *Hub) ListenAndServe(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", addr, err)
	}
	h.listener = ln
	h.server = &http.Server{
		Handler:           h.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		logger.Info("broadcasting progress on ws://%s/ws", ln.Addr())
		if err := h.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("broadcast server: %v", err)
		}
	}()
	return nil
}

// Addr returns the listening address, or "" when not serving.
func (h *Hub) Addr() string {
	if h.listener == nil {
		return ""
	}
	return h.listener.Addr().String()
}

// Close disconnects all clients and stops the hub.
func (h *Hub) Close() error {
	h.cancel()

	h.clientsMu.Lock()
	for conn := range h.clients {
		_ = conn.Close(websocket.StatusGoingAway, "shutting down")
		delete(h.clients, conn)
	}
	h.clientsMu.Unlock()

	var err error
	if h.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		defer cancel()
		err = h.server.Shutdown(ctx)
	}
	h.wg.Wait()
	return err
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()
	return len(h.clients)
}

// Publish queues a progress event. It has the domain.ProgressFunc signature
// so it can be passed to Subscribe directly.
func (h *Hub) Publish(ev domain.ProgressEvent) {
	data := ProgressData{
		SessionID:       ev.SessionID,
		Stage:           ev.Stage.String(),
		Current:         ev.Current.String(),
		Status:          ev.Status.String(),
		StagePercentage: ev.StagePercentage,
		Overall:         ev.Overall,
		Message:         ev.Message,
	}
	if ev.Batch != nil {
		processed, total := ev.Batch.Processed, ev.Batch.Total
		data.Processed = &processed
		data.Total = &total
	}
	h.enqueue(MessageProgress, ev.At, data)
}

// Notify implements driven.NotificationSink.
func (h *Hub) Notify(_ context.Context, n domain.Notification) {
	h.enqueue(MessageNotification, time.Time{}, NotificationData{
		Kind:    string(n.Kind),
		Title:   n.Title,
		Message: n.Message,
	})
}

func (h *Hub) enqueue(kind MessageType, at time.Time, payload any) {
	raw, err := json.Marshal(payload)
	if err != nil {
		logger.Warn("broadcast: marshalling %s: %v", kind, err)
		return
	}
	if at.IsZero() {
		at = h.now()
	}
	msg := Message{Type: kind, Timestamp: at, Data: raw}

	select {
	case <-h.ctx.Done():
	case h.queue <- msg:
	default:
		logger.Warn("broadcast queue full, dropping %s message", kind)
	}
}

func (h *Hub) loop() {
	defer h.wg.Done()
	for {
		select {
		case <-h.ctx.Done():
			return
		case msg := <-h.queue:
			h.send(msg)
		}
	}
}

func (h *Hub) send(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		logger.Warn("broadcast: marshalling message: %v", err)
		return
	}

	h.clientsMu.RLock()
	conns := make([]*websocket.Conn, 0, len(h.clients))
	for conn := range h.clients {
		conns = append(conns, conn)
	}
	h.clientsMu.RUnlock()

	for _, conn := range conns {
		ctx, cancel := context.WithTimeout(h.ctx, writeTimeout)
		err := conn.Write(ctx, websocket.MessageText, data)
		cancel()
		if err != nil {
			logger.Debug("broadcast: dropping client: %v", err)
			h.remove(conn)
		}
	}
}

func (h *Hub) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		logger.Warn("websocket upgrade failed: %v", err)
		return
	}

	hello, _ := json.Marshal(Message{Type: MessageHello, Timestamp: h.now()})
	ctx, cancel := context.WithTimeout(r.Context(), writeTimeout)
	err = conn.Write(ctx, websocket.MessageText, hello)
	cancel()
	if err != nil {
		_ = conn.Close(websocket.StatusInternalError, "")
		return
	}

	h.clientsMu.Lock()
	h.clients[conn] = struct{}{}
	count := len(h.clients)
	h.clientsMu.Unlock()
	logger.Debug("broadcast client connected (total: %d)", count)

	// Clients never send; reading only detects disconnects.
	defer h.remove(conn)
	for {
		if _, _, err := conn.Read(h.ctx); err != nil {
			return
		}
	}
}

func (h *Hub) remove(conn *websocket.Conn) {
	h.clientsMu.Lock()
	_, ok := h.clients[conn]
	delete(h.clients, conn)
	count := len(h.clients)
	h.clientsMu.Unlock()

	if ok {
		_ = conn.Close(websocket.StatusNormalClosure, "")
		logger.Debug("broadcast client disconnected (total: %d)", count)
	}
}

func (h *Hub) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status":  "ok",
		"clients": h.ClientCount(),
	})
}
