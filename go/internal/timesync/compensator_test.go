package timesync

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSource struct {
	name    string
	samples []time.Time
	err     error
	calls   int
}

func (s *stubSource) Name() string {
	return s.name
}

func (s *stubSource) FetchTime(ctx context.Context) (TimeSample, error) {
	s.calls++
	if s.err != nil {
		return TimeSample{}, s.err
	}
	t := s.samples[0]
	if len(s.samples) > 1 {
		s.samples = s.samples[1:]
	}
	return NewTimeSample(t, s.name), nil
}

var local = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func TestCompensator_StartsWithZeroOffset(t *testing.T) {
	clock := clockwork.NewFakeClockAt(local)
	c := NewCompensator(&stubSource{name: "stub"}, WithClock(clock))

	assert.Equal(t, time.Duration(0), c.Offset())
	assert.True(t, c.LastSync().IsZero())
	assert.Equal(t, local, c.CorrectedTime())
	assert.True(t, c.Due())
}

func TestCompensator_SuccessfulSyncSetsOffset(t *testing.T) {
	clock := clockwork.NewFakeClockAt(local)
	authority := local.Add(1500 * time.Millisecond)
	src := &stubSource{name: "stub", samples: []time.Time{authority}}
	c := NewCompensator(src, WithClock(clock))

	require.NoError(t, c.Sync(context.Background()))

	assert.Equal(t, 1500*time.Millisecond, c.Offset())
	assert.Equal(t, local, c.LastSync())
	assert.Equal(t, authority, c.CorrectedTime())

	// offset carries forward as the local clock moves
	clock.Advance(3 * time.Second)
	assert.Equal(t, clock.Now().Add(1500*time.Millisecond), c.CorrectedTime())

	stats := c.Stats()
	assert.Equal(t, uint64(1), stats.Syncs)
	assert.Equal(t, "stub", stats.LastSource)
}

func TestCompensator_NegativeOffset(t *testing.T) {
	clock := clockwork.NewFakeClockAt(local)
	src := &stubSource{name: "stub", samples: []time.Time{local.Add(-2 * time.Second)}}
	c := NewCompensator(src, WithClock(clock))

	require.NoError(t, c.Sync(context.Background()))
	assert.Equal(t, -2*time.Second, c.Offset())
	assert.Equal(t, local.Add(-2*time.Second), c.CorrectedTime())
}

func TestCompensator_FailedSyncKeepsState(t *testing.T) {
	clock := clockwork.NewFakeClockAt(local)
	src := &stubSource{name: "stub", samples: []time.Time{local.Add(time.Second)}}
	c := NewCompensator(src, WithClock(clock))
	require.NoError(t, c.Sync(context.Background()))

	src.err = fmt.Errorf("%w: boom", ErrTimeSyncUnavailable)
	clock.Advance(10 * time.Second)

	err := c.Sync(context.Background())
	require.ErrorIs(t, err, ErrTimeSyncUnavailable)
	firstOffset, firstLast := c.Offset(), c.LastSync()

	err = c.Sync(context.Background())
	require.ErrorIs(t, err, ErrTimeSyncUnavailable)

	assert.Equal(t, firstOffset, c.Offset())
	assert.Equal(t, firstLast, c.LastSync())
	assert.Equal(t, time.Second, c.Offset())
	assert.Equal(t, local, c.LastSync())
	assert.Equal(t, clock.Now().Add(time.Second), c.CorrectedTime())
	assert.Equal(t, uint64(2), c.Stats().Failures)
}

func TestCompensator_MaybeSyncHonoursInterval(t *testing.T) {
	clock := clockwork.NewFakeClockAt(local)
	src := &stubSource{name: "stub", samples: []time.Time{local, local.Add(5 * time.Second)}}
	c := NewCompensator(src, WithClock(clock))
	ctx := context.Background()

	assert.True(t, c.MaybeSync(ctx), "first call always syncs")
	assert.Equal(t, 1, src.calls)

	clock.Advance(5 * time.Second)
	assert.False(t, c.MaybeSync(ctx), "exactly five seconds is not stale")
	assert.Equal(t, 1, src.calls)

	clock.Advance(time.Millisecond)
	assert.True(t, c.MaybeSync(ctx))
	assert.Equal(t, 2, src.calls)
}

func TestCompensator_MaybeSyncRetriesEveryCallAfterFailure(t *testing.T) {
	clock := clockwork.NewFakeClockAt(local)
	src := &stubSource{name: "stub", err: ErrTimeSyncUnavailable}
	c := NewCompensator(src, WithClock(clock))
	ctx := context.Background()

	assert.False(t, c.MaybeSync(ctx))
	assert.False(t, c.MaybeSync(ctx))
	assert.False(t, c.MaybeSync(ctx))

	assert.Equal(t, 3, src.calls)
	assert.True(t, c.LastSync().IsZero())
	assert.Equal(t, time.Duration(0), c.Offset())
	assert.Equal(t, local, c.CorrectedTime())
}

func TestCompensator_CustomInterval(t *testing.T) {
	clock := clockwork.NewFakeClockAt(local)
	src := &stubSource{name: "stub", samples: []time.Time{local}}
	c := NewCompensator(src, WithClock(clock), WithInterval(time.Minute))

	require.True(t, c.MaybeSync(context.Background()))
	clock.Advance(30 * time.Second)
	assert.False(t, c.Due())
	clock.Advance(31 * time.Second)
	assert.True(t, c.Due())
}

func TestFallback_UsesFirstHealthySource(t *testing.T) {
	bad := &stubSource{name: "bad", err: fmt.Errorf("%w: down", ErrTimeSyncUnavailable)}
	good := &stubSource{name: "good", samples: []time.Time{local}}
	unused := &stubSource{name: "unused", samples: []time.Time{local}}

	sample, err := NewFallback(bad, good, unused).FetchTime(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "good", sample.Source)
	assert.Equal(t, 1, bad.calls)
	assert.Equal(t, 0, unused.calls)
}

func TestFallback_AllSourcesFail(t *testing.T) {
	a := &stubSource{name: "a", err: errors.New("plain failure")}
	b := &stubSource{name: "b", err: errors.New("another")}

	_, err := NewFallback(a, b).FetchTime(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTimeSyncUnavailable)
	assert.Equal(t, 1, a.calls)
	assert.Equal(t, 1, b.calls)
}

func TestFallback_Empty(t *testing.T) {
	_, err := NewFallback().FetchTime(context.Background())
	assert.ErrorIs(t, err, ErrTimeSyncUnavailable)
}

func TestTimeSample_Seconds(t *testing.T) {
	s := NewTimeSample(time.Unix(1700000000, 500_000_000), "x")
	assert.InDelta(t, 1700000000.5, s.Seconds(), 1e-6)
	assert.Equal(t, time.UTC, s.At.Location())
}
