package dashboard

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	FrameWindow     = "window"
	FrameTranscript = "transcript"

	writeWait = 5 * time.Second
)

// Frame is one message pushed to websocket clients.
type Frame struct {
	Type    string      `json:"type"`
	Data    interface{} `json:"data"`
	EventID string      `json:"event_id"`
}

func newFrame(typ string, data interface{}) Frame {
	return Frame{Type: typ, Data: data, EventID: time.Now().UTC().Format("20060102150405.000")}
}

// registration carries the frames a new client starts from. initial runs on
// the Run goroutine, so no broadcast can fall between it and the client
// joining.
type registration struct {
	conn    *websocket.Conn
	initial func() []Frame
}

// Hub fans frames out to every connected websocket client. Only the Run
// goroutine writes to connections.
type Hub struct {
	clients    map[*websocket.Conn]bool
	broadcast  chan Frame
	register   chan registration
	unregister chan *websocket.Conn
	done       chan struct{}
	mutex      sync.RWMutex
	log        *zap.Logger
}

func NewHub(log *zap.Logger) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	return &Hub{
		clients:    make(map[*websocket.Conn]bool),
		broadcast:  make(chan Frame, 256),
		register:   make(chan registration),
		unregister: make(chan *websocket.Conn),
		done:       make(chan struct{}),
		log:        log,
	}
}

// Run serves the hub until ctx is cancelled, then closes every client.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mutex.Lock()
			for conn := range h.clients {
				conn.Close()
				delete(h.clients, conn)
			}
			h.mutex.Unlock()
			return

		case reg := <-h.register:
			var initial []Frame
			if reg.initial != nil {
				initial = reg.initial()
			}
			h.mutex.Lock()
			h.clients[reg.conn] = true
			total := len(h.clients)
			h.mutex.Unlock()
			h.log.Info("client registered", zap.Int("total", total))
			for _, f := range initial {
				if !h.write(reg.conn, f) {
					break
				}
			}

		case conn := <-h.unregister:
			h.drop(conn)

		case frame := <-h.broadcast:
			h.mutex.RLock()
			conns := make([]*websocket.Conn, 0, len(h.clients))
			for conn := range h.clients {
				conns = append(conns, conn)
			}
			h.mutex.RUnlock()
			for _, conn := range conns {
				h.write(conn, frame)
			}
		}
	}
}

// Broadcast queues a frame for every client. Frames are dropped when the
// queue is full so producers never block.
func (h *Hub) Broadcast(f Frame) {
	select {
	case h.broadcast <- f:
	default:
		h.log.Warn("broadcast queue full, frame dropped", zap.String("type", f.Type))
	}
}

// Register adds conn and sends it the frames built by initial before any
// broadcast. initial may be nil. It returns false when the hub has stopped.
func (h *Hub) Register(conn *websocket.Conn, initial func() []Frame) bool {
	select {
	case h.register <- registration{conn: conn, initial: initial}:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) Unregister(conn *websocket.Conn) {
	select {
	case h.unregister <- conn:
	case <-h.done:
	}
}

func (h *Hub) ClientCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}

func (h *Hub) write(conn *websocket.Conn, f Frame) bool {
	data, err := json.Marshal(f)
	if err != nil {
		h.log.Error("failed to encode frame", zap.String("type", f.Type), zap.Error(err))
		return true
	}
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		h.log.Warn("write failed, dropping client", zap.Error(err))
		h.drop(conn)
		return false
	}
	return true
}

func (h *Hub) drop(conn *websocket.Conn) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	if _, ok := h.clients[conn]; ok {
		delete(h.clients, conn)
		conn.Close()
		h.log.Info("client unregistered", zap.Int("total", len(h.clients)))
	}
}
