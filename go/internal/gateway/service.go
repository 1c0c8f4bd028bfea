package gateway

import (
	"context"
	"net/http"
	"time"

	"github.com/mcdev12/timehack/go/internal/display"
	"github.com/mcdev12/timehack/go/internal/events"
	"github.com/mcdev12/timehack/go/internal/timesync"
	"github.com/rs/zerolog/log"
)

// StreamPath is the websocket route for the live clock
const StreamPath = "/ws/clock"

// Keeper is what the gateway needs from the drift compensator
type Keeper interface {
	display.TimeKeeper
	Stats() timesync.Stats
}

// Service is the live clock gateway: websocket stream plus state endpoints
type Service struct {
	connectionManager *ConnectionManager
	wsHandler         *WebSocketHandler
	stateHandler      *StateHandler
}

// Config holds configuration for the gateway
type Config struct {
	ConnectionConfig ConnectionConfig
	// StaleAfter marks /health unhealthy when the last sync is older than this. Zero disables the check.
	StaleAfter time.Duration
}

// DefaultConfig returns default configuration for the gateway
func DefaultConfig() Config {
	return Config{
		ConnectionConfig: DefaultConnectionConfig(),
		StaleAfter:       5 * time.Minute,
	}
}

// NewService creates a new gateway service. broker may be nil.
func NewService(config Config, keeper Keeper, broker BrokerStatus) *Service {
	connectionManager := NewConnectionManager(config.ConnectionConfig)

	return &Service{
		connectionManager: connectionManager,
		wsHandler:         NewWebSocketHandler(connectionManager, keeper),
		stateHandler:      NewStateHandler(keeper, connectionManager, broker, config.StaleAfter),
	}
}

// Start runs the broadcast loop until ctx is cancelled
func (s *Service) Start(ctx context.Context) {
	log.Info().Msg("starting clock gateway")
	s.connectionManager.Start(ctx)
	log.Info().Msg("clock gateway stopped")
}

// RegisterRoutes registers the WebSocket and state routes
func (s *Service) RegisterRoutes(mux *http.ServeMux) {
	s.wsHandler.RegisterRoutes(mux)
	s.stateHandler.RegisterStateRoutes(mux)
	log.Info().Msg("clock gateway routes registered")
}

// PublishFrame pushes a frame to every websocket client
func (s *Service) PublishFrame(frame display.Frame) {
	if s.connectionManager.ConnectionCount() == 0 {
		return
	}

	msg, err := encodeFrame(frame)
	if err != nil {
		log.Error().Err(err).Msg("failed to encode frame")
		return
	}
	s.connectionManager.Broadcast(msg)
}

// Publish pushes an event to every websocket client
func (s *Service) Publish(ctx context.Context, event *events.Event) error {
	if s.connectionManager.ConnectionCount() == 0 {
		return nil
	}

	msg, err := encodeEvent(event)
	if err != nil {
		return err
	}
	s.connectionManager.Broadcast(msg)
	return nil
}

// Connections returns the number of open websocket clients
func (s *Service) Connections() int {
	return s.connectionManager.ConnectionCount()
}
