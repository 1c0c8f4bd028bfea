package gateway

import (
	"net/http"

	"github.com/mcdev12/timehack/go/internal/display"
	"github.com/rs/zerolog/log"
)

// WebSocketHandler handles WebSocket upgrade requests for the clock stream
type WebSocketHandler struct {
	connectionManager *ConnectionManager
	keeper            display.TimeKeeper
}

// NewWebSocketHandler creates a new WebSocket handler
func NewWebSocketHandler(cm *ConnectionManager, keeper display.TimeKeeper) *WebSocketHandler {
	return &WebSocketHandler{
		connectionManager: cm,
		keeper:            keeper,
	}
}

// HandleClockStream upgrades the request and sends the current frame right
// away so the client does not wait for the next tick.
func (h *WebSocketHandler) HandleClockStream(w http.ResponseWriter, r *http.Request) {
	conn, err := h.connectionManager.UpgradeConnection(w, r)
	if err != nil {
		// the upgrader has already written an HTTP error response
		log.Error().Err(err).Str("remote_addr", r.RemoteAddr).Msg("failed to upgrade WebSocket connection")
		return
	}

	msg, err := encodeFrame(display.BuildFrame(h.keeper.CorrectedTime()))
	if err != nil {
		log.Error().Err(err).Msg("failed to encode initial frame")
		return
	}
	h.connectionManager.Send(conn, msg)
}

// RegisterRoutes registers WebSocket routes with an HTTP mux
func (h *WebSocketHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc(StreamPath, h.HandleClockStream)
}
