package api

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

// WebSocket constants.
const (
	// wsPushInterval is how often scoped dashboard stats are pushed.
	wsPushInterval = 5 * time.Second

	wsWriteWait = 10 * time.Second
	wsPongWait  = 60 * time.Second

	// wsPingPeriod must be shorter than wsPongWait.
	wsPingPeriod = 54 * time.Second
)

// WSMessage is the envelope for pushed dashboard events.
type WSMessage struct {
	Type      string `json:"type"`
	EventType string `json:"event_type,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
	Payload   any    `json:"payload,omitempty"`
}

// upgrader configures the WebSocket upgrader.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(_ *http.Request) bool {
		// Origin checking is handled by CORS middleware
		return true
	},
}

// handleDashboardWS streams scoped dashboard stats to the client.
//
// The connection runs inside the auth middleware, so the caller's scope
// is fixed at upgrade time. Each connection gets its own push loop
// because the payload differs per scope.
func (s *Server) handleDashboardWS(w http.ResponseWriter, r *http.Request) {
	admin := adminFromContext(r.Context())

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the error response.
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	s.logger.Debug("dashboard websocket connected", "admin_id", admin.ID)

	// Read pump: we never expect client messages, but reading drives
	// pong handling and detects the close frame.
	done := make(chan struct{})
	go func() {
		defer close(done)
		conn.SetReadLimit(512)
		conn.SetReadDeadline(time.Now().Add(wsPongWait)) //nolint:errcheck // deadline on live conn
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(wsPongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	pushTicker := time.NewTicker(wsPushInterval)
	defer pushTicker.Stop()
	pingTicker := time.NewTicker(wsPingPeriod)
	defer pingTicker.Stop()

	// First push immediately so the dashboard renders without waiting
	// a full interval.
	if !s.pushDashboardStats(conn, r) {
		return
	}

	for {
		select {
		case <-done:
			s.logger.Debug("dashboard websocket closed", "admin_id", admin.ID)
			return
		case <-r.Context().Done():
			return
		case <-pingTicker.C:
			conn.SetWriteDeadline(time.Now().Add(wsWriteWait)) //nolint:errcheck // deadline on live conn
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-pushTicker.C:
			if !s.pushDashboardStats(conn, r) {
				return
			}
		}
	}
}

// pushDashboardStats sends one stats frame. Returns false when the
// connection should be torn down.
func (s *Server) pushDashboardStats(conn *websocket.Conn, r *http.Request) bool {
	scope := scopeFromContext(r.Context())

	stats, err := s.dashboard.Stats(r.Context(), scope)
	if err != nil {
		s.logger.Error("dashboard stats for websocket failed", "error", err)
		return false
	}

	msg := WSMessage{
		Type:      "event",
		EventType: "dashboard_stats",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Payload:   stats,
	}

	conn.SetWriteDeadline(time.Now().Add(wsWriteWait)) //nolint:errcheck // deadline on live conn
	return conn.WriteJSON(msg) == nil
}
