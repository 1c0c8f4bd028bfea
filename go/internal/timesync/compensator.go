package timesync

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// DefaultSyncInterval is how long a sync stays fresh before MaybeSync refreshes it
const DefaultSyncInterval = 5 * time.Second

// Stats is a snapshot of the compensator state
type Stats struct {
	Offset     time.Duration `json:"offset"`
	LastSync   time.Time     `json:"last_sync"`
	LastSource string        `json:"last_source,omitempty"`
	Syncs      uint64        `json:"syncs"`
	Failures   uint64        `json:"failures"`
}

// Compensator keeps an additive offset between the local clock and the last
// known accurate time. Offset and lastSync only move on a successful sync.
type Compensator struct {
	source   Source
	clock    clockwork.Clock
	interval time.Duration

	mu         sync.RWMutex
	offset     time.Duration
	lastSync   time.Time
	lastSource string
	syncs      uint64
	failures   uint64

	// held while a sync is in flight; concurrent callers skip rather than queue
	syncMu sync.Mutex
}

// Option configures a Compensator
type Option func(*Compensator)

// WithClock replaces the local clock. Tests pass a clockwork.FakeClock.
func WithClock(clock clockwork.Clock) Option {
	return func(c *Compensator) {
		c.clock = clock
	}
}

// WithInterval sets how long a sync stays fresh
func WithInterval(d time.Duration) Option {
	return func(c *Compensator) {
		if d > 0 {
			c.interval = d
		}
	}
}

// NewCompensator creates a compensator with a zero offset that has never synced
func NewCompensator(source Source, opts ...Option) *Compensator {
	c := &Compensator{
		source:   source,
		clock:    clockwork.NewRealClock(),
		interval: DefaultSyncInterval,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CorrectedTime returns the local clock plus the current offset, in UTC
func (c *Compensator) CorrectedTime() time.Time {
	c.mu.RLock()
	offset := c.offset
	c.mu.RUnlock()

	return c.clock.Now().Add(offset).UTC()
}

// Offset returns the current offset
func (c *Compensator) Offset() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.offset
}

// LastSync returns the local clock reading of the last successful sync.
// The zero time means no sync has succeeded yet.
func (c *Compensator) LastSync() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastSync
}

// Stats returns a snapshot of the compensator state
func (c *Compensator) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Stats{
		Offset:     c.offset,
		LastSync:   c.lastSync,
		LastSource: c.lastSource,
		Syncs:      c.syncs,
		Failures:   c.failures,
	}
}

// Due reports whether the last successful sync is older than the interval
func (c *Compensator) Due() bool {
	c.mu.RLock()
	last := c.lastSync
	c.mu.RUnlock()

	return c.clock.Since(last) > c.interval
}

// MaybeSync syncs when the current offset is stale. Failures are absorbed:
// the stale offset stays in place and the next call tries again.
// It reports whether a sync ran without error, including one skipped because
// another caller was already syncing.
func (c *Compensator) MaybeSync(ctx context.Context) bool {
	if !c.Due() {
		return false
	}

	if err := c.Sync(ctx); err != nil {
		log.Warn().Err(err).Dur("offset", c.Offset()).Msg("time sync failed, keeping previous offset")
		return false
	}
	return true
}

// Sync queries the source once and updates the offset on success.
// If another sync is already running it returns nil without doing anything.
func (c *Compensator) Sync(ctx context.Context) error {
	if !c.syncMu.TryLock() {
		return nil
	}
	defer c.syncMu.Unlock()

	sample, err := c.source.FetchTime(ctx)
	if err != nil {
		c.mu.Lock()
		c.failures++
		c.mu.Unlock()
		return err
	}

	local := c.clock.Now()
	offset := sample.At.Sub(local)

	c.mu.Lock()
	c.offset = offset
	c.lastSync = local
	c.lastSource = sample.Source
	c.syncs++
	c.mu.Unlock()

	log.Debug().
		Str("source", sample.Source).
		Time("authoritative", sample.At).
		Dur("offset", offset).
		Msg("time synced")

	return nil
}
