// Package scheduler drives the clock from a periodic timer instead of
// client reloads. Each tick refreshes a stale sync, pushes a frame, and turns
// every second crossed since the previous tick into boundary events, so a
// late tick never skips a flash or a countdown step.
package scheduler

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/timehack/go/internal/clockmath"
	"github.com/mcdev12/timehack/go/internal/display"
	"github.com/mcdev12/timehack/go/internal/events"
	"github.com/mcdev12/timehack/go/internal/timesync"
	"github.com/rs/zerolog/log"
)

const (
	// DefaultTickInterval matches the reload delay of the poll page
	DefaultTickInterval = 100 * time.Millisecond

	// maxCatchUp caps how many missed seconds one tick replays
	maxCatchUp = 60
)

// Keeper is what the scheduler needs from the drift compensator
type Keeper interface {
	MaybeSync(ctx context.Context) bool
	CorrectedTime() time.Time
	Stats() timesync.Stats
}

// FrameSink receives a frame on every tick
type FrameSink interface {
	PublishFrame(frame display.Frame)
}

// EventSink receives boundary and sync events
type EventSink interface {
	Publish(ctx context.Context, event *events.Event) error
}

type Scheduler struct {
	keeper   Keeper
	clock    clockwork.Clock
	interval time.Duration
	frames   []FrameSink
	sinks    []EventSink

	started    bool
	lastSecond int64
	syncs      uint64
	failures   uint64
}

// Option configures a Scheduler
type Option func(*Scheduler)

// WithClock replaces the clock driving the ticker
func WithClock(clock clockwork.Clock) Option {
	return func(s *Scheduler) {
		s.clock = clock
	}
}

// WithInterval sets the tick interval
func WithInterval(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.interval = d
		}
	}
}

// WithFrameSink adds a frame receiver
func WithFrameSink(sink FrameSink) Option {
	return func(s *Scheduler) {
		s.frames = append(s.frames, sink)
	}
}

// WithEventSink adds an event receiver
func WithEventSink(sink EventSink) Option {
	return func(s *Scheduler) {
		s.sinks = append(s.sinks, sink)
	}
}

func New(keeper Keeper, opts ...Option) *Scheduler {
	s := &Scheduler{
		keeper:   keeper,
		clock:    clockwork.NewRealClock(),
		interval: DefaultTickInterval,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run ticks until ctx is cancelled. Ticks that arrive while a slow sync is
// in flight are dropped by the ticker; the next tick catches up.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := s.clock.NewTicker(s.interval)
	defer ticker.Stop()

	log.Info().Dur("interval", s.interval).Msg("clock scheduler started")

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("clock scheduler stopped")
			return
		case <-ticker.Chan():
			s.Tick(ctx)
		}
	}
}

// Tick runs one render cycle and returns the events it emitted
func (s *Scheduler) Tick(ctx context.Context) []*events.Event {
	s.keeper.MaybeSync(ctx)

	var emitted []*events.Event
	emitted = append(emitted, s.syncEvents()...)

	ts := s.keeper.CorrectedTime()
	frame := display.BuildFrame(ts)
	for _, sink := range s.frames {
		sink.PublishFrame(frame)
	}

	emitted = append(emitted, s.boundaryEvents(ts)...)

	for _, event := range emitted {
		s.publish(ctx, event)
	}
	return emitted
}

func (s *Scheduler) publish(ctx context.Context, event *events.Event) {
	for _, sink := range s.sinks {
		if err := sink.Publish(ctx, event); err != nil {
			log.Warn().
				Err(err).
				Str("event_type", string(event.Type)).
				Msg("failed to publish clock event")
		}
	}
}

// syncEvents compares compensator counters with the previous tick
func (s *Scheduler) syncEvents() []*events.Event {
	stats := s.keeper.Stats()
	defer func() {
		s.syncs, s.failures = stats.Syncs, stats.Failures
	}()

	var out []*events.Event
	payload := events.SyncPayload{
		Source:   stats.LastSource,
		Offset:   stats.Offset,
		LastSync: stats.LastSync,
	}

	if stats.Syncs > s.syncs {
		out = appendEvent(out, events.EventTypeSyncCompleted, stats.LastSync, payload)
	}
	if stats.Failures > s.failures {
		payload.Error = timesync.ErrTimeSyncUnavailable.Error()
		out = appendEvent(out, events.EventTypeSyncFailed, s.clock.Now(), payload)
	}
	return out
}

// boundaryEvents evaluates every whole second in (lastSecond, ts]. Seconds
// that were already evaluated are never replayed, even if a sync moves the
// corrected clock backwards.
func (s *Scheduler) boundaryEvents(ts time.Time) []*events.Event {
	current := ts.Unix()

	from := current
	if s.started {
		if current <= s.lastSecond {
			return nil
		}
		from = s.lastSecond + 1
	}
	if current-from >= maxCatchUp {
		from = current - maxCatchUp + 1
	}
	s.started = true
	s.lastSecond = current

	var out []*events.Event
	for sec := from; sec <= current; sec++ {
		out = append(out, eventsForSecond(time.Unix(sec, 0).UTC())...)
	}
	return out
}

func eventsForSecond(t time.Time) []*events.Event {
	var out []*events.Event
	digits := clockmath.FormattedClock(t)

	if clockmath.SecondsInMinute(t) == 0 {
		out = appendEvent(out, events.EventTypeMinuteRollover, t, events.MinuteRolloverPayload{
			Minute: t.Format("15:04"),
		})
	}
	if clockmath.ShouldFlash(t) {
		out = appendEvent(out, events.EventTypeFlash, t, events.FlashPayload{
			Digits: digits,
			Second: clockmath.SecondsInMinute(t),
		})
	}
	if clockmath.ShouldCountdown(t) {
		out = appendEvent(out, events.EventTypeCountdownTick, t, events.CountdownTickPayload{
			Digits:    digits,
			Remaining: clockmath.CountdownValue(t),
		})
	}
	return out
}

func appendEvent(out []*events.Event, eventType events.EventType, ts time.Time, payload interface{}) []*events.Event {
	event, err := events.NewEvent(eventType, ts, payload)
	if err != nil {
		log.Error().Err(err).Str("event_type", string(eventType)).Msg("failed to build clock event")
		return out
	}
	return append(out, event)
}
