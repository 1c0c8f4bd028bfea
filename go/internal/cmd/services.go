package main

import (
	"context"
	"fmt"

	"github.com/mcdev12/timehack/go/clients"
	"github.com/mcdev12/timehack/go/clients/ntp_client"
	"github.com/mcdev12/timehack/go/clients/worldtime_client"
	"github.com/mcdev12/timehack/go/internal/config"
	"github.com/mcdev12/timehack/go/internal/display"
	"github.com/mcdev12/timehack/go/internal/events"
	"github.com/mcdev12/timehack/go/internal/gateway"
	"github.com/mcdev12/timehack/go/internal/scheduler"
	"github.com/mcdev12/timehack/go/internal/timesync"
	"github.com/rs/zerolog/log"
)

type Services struct {
	Compensator *timesync.Compensator
	Clock       *display.Handler
	Gateway     *gateway.Service
	Scheduler   *scheduler.Scheduler
	Publisher   events.Publisher

	live bool
}

func setupServices(cfg config.Config) (*Services, error) {
	// Wire up dependency injection chain
	// Sources → Compensator → Display/Gateway → Scheduler

	sources, err := setupSources(cfg.Sync)
	if err != nil {
		return nil, err
	}
	compensator := timesync.NewCompensator(
		timesync.NewFallback(sources...),
		timesync.WithInterval(cfg.Sync.Interval),
	)

	renderer, err := display.NewRenderer(cfg.Display.RefreshInterval, gateway.StreamPath)
	if err != nil {
		return nil, fmt.Errorf("failed to build renderer: %w", err)
	}
	clock := display.NewHandler(compensator, renderer)

	publisher, broker, err := setupPublisher(cfg.Events)
	if err != nil {
		return nil, err
	}

	gwConfig := gateway.DefaultConfig()
	gwConfig.StaleAfter = cfg.Sync.StaleAfter
	gw := gateway.NewService(gwConfig, compensator, broker)

	sched := scheduler.New(compensator,
		scheduler.WithInterval(cfg.Display.RefreshInterval),
		scheduler.WithFrameSink(gw),
		scheduler.WithEventSink(gw),
		scheduler.WithEventSink(publisher),
	)

	return &Services{
		Compensator: compensator,
		Clock:       clock,
		Gateway:     gw,
		Scheduler:   sched,
		Publisher:   publisher,
		live:        cfg.Display.Live,
	}, nil
}

// setupSources builds the active time sources, highest priority first
func setupSources(cfg config.SyncConfig) ([]timesync.Source, error) {
	var sources []timesync.Source
	for _, src := range clients.ActiveByPriority(cfg.Sources) {
		switch src.Source {
		case clients.ExternalSourceWorldTime:
			client := worldtime_client.NewWorldTimeClient(cfg.TimeAPIURL)
			client.SetTimeout(cfg.Timeout)
			sources = append(sources, client)
		case clients.ExternalSourceNTP:
			client := ntp_client.NewNTPClient(cfg.NTPServer)
			client.SetTimeout(cfg.Timeout)
			sources = append(sources, client)
		default:
			return nil, fmt.Errorf("unsupported time source %q", src.Source)
		}
		log.Info().Str("source", string(src.Source)).Int("priority", src.Priority).Msg("time source enabled")
	}

	if len(sources) == 0 {
		return nil, fmt.Errorf("no active time sources")
	}
	return sources, nil
}

// setupPublisher connects to NATS when configured and falls back to logging
// events otherwise. The returned broker is nil when NATS is not in use.
func setupPublisher(cfg config.EventsConfig) (events.Publisher, gateway.BrokerStatus, error) {
	if cfg.NATSURL == "" {
		log.Info().Msg("NATS_URL not set, clock events are logged only")
		return events.NewLogPublisher(), nil, nil
	}

	natsConfig := events.DefaultNATSConfig()
	natsConfig.URL = cfg.NATSURL
	if cfg.SubjectPrefix != "" {
		natsConfig.SubjectPrefix = cfg.SubjectPrefix
	}

	publisher, err := events.NewNATSPublisher(natsConfig)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create NATS publisher: %w", err)
	}
	log.Info().Str("url", cfg.NATSURL).Str("prefix", natsConfig.SubjectPrefix).Msg("publishing clock events to NATS")

	return publisher, publisher, nil
}

// Start launches the background loops. They stop when ctx is cancelled.
func (s *Services) Start(ctx context.Context) {
	go s.Gateway.Start(ctx)

	if s.live {
		go s.Scheduler.Run(ctx)
	}
}

func (s *Services) Close() {
	if err := s.Publisher.Close(); err != nil {
		log.Error().Err(err).Msg("failed to close event publisher")
	}
}
