package gateway

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rahul/manuclaw/internal/agent"
	"github.com/rahul/manuclaw/internal/observability"
	"github.com/rahul/manuclaw/internal/protocol"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Maximum message size allowed from peer.
	maxMessageSize = 8192
)

// Runner drives one orchestration run per inbound message.
type Runner interface {
	Run(ctx context.Context, userID, chatID int64, message string, session agent.Session)
}

var _ Messenger = (*WebSocketGateway)(nil)

// WebSocketGateway accepts client connections and feeds each inbound
// text message through the pipeline. Messages on one connection are
// processed strictly one at a time; connections are independent.
type WebSocketGateway struct {
	Addr          string
	Pipeline      Runner
	Logger        *observability.Logger
	DefaultUserID int64
	DefaultChatID int64

	httpServer *http.Server
	baseCtx    context.Context
	cancel     context.CancelFunc
}

func NewWebSocketGateway(addr string, pipeline Runner, logger *observability.Logger, defaultUserID, defaultChatID int64) *WebSocketGateway {
	ctx, cancel := context.WithCancel(context.Background())
	return &WebSocketGateway{
		Addr:          addr,
		Pipeline:      pipeline,
		Logger:        logger,
		DefaultUserID: defaultUserID,
		DefaultChatID: defaultChatID,
		baseCtx:       ctx,
		cancel:        cancel,
	}
}

// Start blocks serving connections until Stop is called.
func (g *WebSocketGateway) Start() error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", g.handleWebSocket)

	g.httpServer = &http.Server{
		Addr:        g.Addr,
		Handler:     mux,
		ReadTimeout: 60 * time.Second,
	}

	if err := g.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Stop shuts the server down and cancels all in-flight runs.
func (g *WebSocketGateway) Stop() error {
	g.cancel()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if g.httpServer != nil {
		return g.httpServer.Shutdown(ctx)
	}
	return nil
}

func (g *WebSocketGateway) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			return true // local clients only
		},
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.Logger.LogSession("", map[string]string{"event": "upgrade_failed", "error": err.Error()})
		return
	}
	defer conn.Close()

	userID := queryID(r, "user", g.DefaultUserID)
	chatID := queryID(r, "chat", g.DefaultChatID)
	chat := fmt.Sprintf("%d", chatID)

	g.Logger.LogSession(chat, map[string]string{"event": "connected", "remote": r.RemoteAddr})
	defer g.Logger.LogSession(chat, map[string]string{"event": "disconnected"})

	conn.SetReadLimit(maxMessageSize)
	session := &wsSession{conn: conn}

	// One run per message, strictly sequential: the next message is
	// not read until the current run has emitted its terminal marker.
	for {
		msgType, payload, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				g.Logger.LogSession(chat, map[string]string{"event": "read_error", "error": err.Error()})
			}
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}

		g.Pipeline.Run(g.baseCtx, userID, chatID, string(payload), session)
	}
}

// queryID reads a numeric identity from the query string. IDs must be
// positive; they name per-user store tables, so zero or negative
// values fall back to the configured default.
func queryID(r *http.Request, key string, fallback int64) int64 {
	if v := r.URL.Query().Get(key); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil && id > 0 {
			return id
		}
	}
	return fallback
}

// wsSession adapts one WebSocket connection to the pipeline's Session
// contract, encoding events at the transport boundary.
type wsSession struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (s *wsSession) Send(ev protocol.Event) error {
	return s.writeLine(ev.Encode())
}

func (s *wsSession) End() error {
	return s.writeLine(protocol.EndMarker)
}

func (s *wsSession) writeLine(line string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.conn.WriteMessage(websocket.TextMessage, []byte(line))
}
