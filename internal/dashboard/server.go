package dashboard

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"hive-dashboard/internal/chat"
	"hive-dashboard/internal/telemetry"
)

const maxChatBody = 16 << 10

var upgrader = websocket.Upgrader{
	CheckOrigin:     func(r *http.Request) bool { return true },
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// WindowPayload is what the cards and charts render.
type WindowPayload struct {
	Window  []telemetry.Sample `json:"window"`
	Latest  telemetry.Sample   `json:"latest"`
	Status  telemetry.Status   `json:"status"`
	Summary telemetry.Summary  `json:"summary"`
}

// TranscriptPayload is what the chat panel renders.
type TranscriptPayload struct {
	Messages []chat.Message `json:"messages"`
	Pending  bool           `json:"pending"`
}

type chatRequest struct {
	Text string `json:"text"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Server exposes the feed and the chat session to the browser.
type Server struct {
	feed    *telemetry.Feed
	session *chat.Session
	hub     *Hub
	metrics http.Handler
	mcp     http.Handler
	log     *zap.Logger

	server      *http.Server
	startTime   time.Time
	unsubscribe []func()
}

type ServerOption func(*Server)

// WithMetrics mounts a Prometheus handler at /metrics.
func WithMetrics(h http.Handler) ServerOption {
	return func(s *Server) { s.metrics = h }
}

// WithMCP mounts an MCP SSE handler at /mcp.
func WithMCP(h http.Handler) ServerOption {
	return func(s *Server) { s.mcp = h }
}

// NewServer wires feed ticks and transcript changes into hub broadcasts.
// The caller runs hub.Run.
func NewServer(feed *telemetry.Feed, session *chat.Session, hub *Hub, log *zap.Logger, opts ...ServerOption) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Server{
		feed:      feed,
		session:   session,
		hub:       hub,
		log:       log,
		startTime: time.Now(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.unsubscribe = append(s.unsubscribe,
		feed.Subscribe(func(window []telemetry.Sample) {
			hub.Broadcast(newFrame(FrameWindow, windowPayload(window)))
		}),
		session.OnChange(func(transcript []chat.Message, pending bool) {
			hub.Broadcast(newFrame(FrameTranscript, TranscriptPayload{Messages: transcript, Pending: pending}))
		}),
	)
	return s
}

func windowPayload(window []telemetry.Sample) WindowPayload {
	latest := window[len(window)-1]
	return WindowPayload{
		Window:  window,
		Latest:  latest,
		Status:  telemetry.Assess(latest),
		Summary: telemetry.Summarize(window),
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/status", s.handleStatus)
	mux.HandleFunc("GET /api/window", s.handleWindow)
	mux.HandleFunc("GET /api/latest", s.handleLatest)
	mux.HandleFunc("GET /api/transcript", s.handleTranscript)
	mux.HandleFunc("POST /api/chat", s.handleChat)
	mux.HandleFunc("POST /api/chat/reset", s.handleReset)
	mux.HandleFunc("GET /ws", s.handleWS)
	if s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics)
	}
	if s.mcp != nil {
		mux.Handle("/mcp", s.mcp)
	}
	return mux
}

// Start listens on addr until Stop is called.
func (s *Server) Start(addr string) error {
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.log.Info("dashboard listening", zap.String("addr", addr))
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Stop(ctx context.Context) error {
	for _, unsubscribe := range s.unsubscribe {
		unsubscribe()
	}
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":   "ok",
		"uptime":   time.Since(s.startTime).Round(time.Second).String(),
		"clients":  s.hub.ClientCount(),
		"capacity": s.feed.Capacity(),
		"pending":  s.session.IsPending(),
	})
}

func (s *Server) handleWindow(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, windowPayload(s.feed.Window()))
}

func (s *Server) handleLatest(w http.ResponseWriter, r *http.Request) {
	latest := s.feed.Latest()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"sample": latest,
		"status": telemetry.Assess(latest),
	})
}

func (s *Server) handleTranscript(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.transcript())
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxChatBody)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "message is empty"})
		return
	}
	if !s.session.Send(req.Text) {
		writeJSON(w, http.StatusConflict, errorResponse{Error: "a reply is still pending"})
		return
	}
	writeJSON(w, http.StatusAccepted, s.transcript())
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	if !s.session.Reset() {
		writeJSON(w, http.StatusConflict, errorResponse{Error: "a reply is still pending"})
		return
	}
	writeJSON(w, http.StatusOK, s.transcript())
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	clientIP := r.RemoteAddr
	s.log.Info("websocket client connected", zap.String("remote", clientIP))

	initial := func() []Frame {
		return []Frame{
			newFrame(FrameWindow, windowPayload(s.feed.Window())),
			newFrame(FrameTranscript, s.transcript()),
		}
	}
	if !s.hub.Register(conn, initial) {
		conn.Close()
		return
	}

	// Clients only listen; reading detects disconnects.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.log.Warn("websocket client unexpected close", zap.String("remote", clientIP), zap.Error(err))
			}
			s.hub.Unregister(conn)
			return
		}
	}
}

func (s *Server) transcript() TranscriptPayload {
	messages, pending := s.session.State()
	return TranscriptPayload{Messages: messages, Pending: pending}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
