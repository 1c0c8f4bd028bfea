package gateway

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/mcdev12/timehack/go/internal/display"
	"github.com/mcdev12/timehack/go/internal/timesync"
	"github.com/rs/zerolog/log"
)

// StateProvider is what the state and health endpoints read from
type StateProvider interface {
	CorrectedTime() time.Time
	Stats() timesync.Stats
}

// ClockStateResponse represents the current clock state
type ClockStateResponse struct {
	CorrectedTime time.Time     `json:"corrected_time"`
	OffsetMillis  float64       `json:"offset_ms"`
	LastSync      *time.Time    `json:"last_sync,omitempty"`
	LastSource    string        `json:"last_source,omitempty"`
	Syncs         uint64        `json:"syncs"`
	Failures      uint64        `json:"failures"`
	Connections   int           `json:"connections"`
	Frame         display.Frame `json:"frame"`
}

// HealthResponse is returned by /health
type HealthResponse struct {
	Healthy       bool     `json:"healthy"`
	Synced        bool     `json:"synced"`
	SyncAge       string   `json:"sync_age,omitempty"`
	NATSConnected *bool    `json:"nats_connected,omitempty"`
	Errors        []string `json:"errors"`
}

// BrokerStatus is implemented by event publishers that hold a connection
type BrokerStatus interface {
	Connected() bool
}

// StateHandler handles HTTP requests for clock state
type StateHandler struct {
	provider    StateProvider
	connections *ConnectionManager
	broker      BrokerStatus
	staleAfter  time.Duration
	now         func() time.Time
}

// NewStateHandler creates a new state handler. broker may be nil.
func NewStateHandler(provider StateProvider, connections *ConnectionManager, broker BrokerStatus, staleAfter time.Duration) *StateHandler {
	return &StateHandler{
		provider:    provider,
		connections: connections,
		broker:      broker,
		staleAfter:  staleAfter,
		now:         time.Now,
	}
}

// HandleGetState handles GET /api/clock/state
func (h *StateHandler) HandleGetState(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	corrected := h.provider.CorrectedTime()
	stats := h.provider.Stats()

	state := ClockStateResponse{
		CorrectedTime: corrected,
		OffsetMillis:  float64(stats.Offset) / float64(time.Millisecond),
		LastSource:    stats.LastSource,
		Syncs:         stats.Syncs,
		Failures:      stats.Failures,
		Connections:   h.connections.ConnectionCount(),
		Frame:         display.BuildFrame(corrected),
	}
	if !stats.LastSync.IsZero() {
		last := stats.LastSync
		state.LastSync = &last
	}

	writeJSON(w, http.StatusOK, state)
}

// HandleHealth handles GET /health. The service stays healthy while the
// last sync is fresh; a clock that never synced is reported but not fatal.
func (h *StateHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	status := h.check()

	code := http.StatusOK
	if !status.Healthy {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, status)
}

func (h *StateHandler) check() HealthResponse {
	status := HealthResponse{
		Healthy: true,
		Errors:  []string{},
	}

	stats := h.provider.Stats()
	if stats.LastSync.IsZero() {
		status.Errors = append(status.Errors, "clock has not synced yet")
	} else {
		status.Synced = true
		age := h.now().Sub(stats.LastSync)
		status.SyncAge = age.Round(time.Millisecond).String()
		if h.staleAfter > 0 && age > h.staleAfter {
			status.Healthy = false
			status.Errors = append(status.Errors, "last sync is stale")
		}
	}

	if h.broker != nil {
		connected := h.broker.Connected()
		status.NATSConnected = &connected
		if !connected {
			status.Healthy = false
			status.Errors = append(status.Errors, "NATS disconnected")
		}
	}

	return status
}

// RegisterStateRoutes registers state-related HTTP routes
func (h *StateHandler) RegisterStateRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/clock/state", h.HandleGetState)
	mux.HandleFunc("/health", h.HandleHealth)
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}
