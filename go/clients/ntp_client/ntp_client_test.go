package ntp_client

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/beevik/ntp"
	"github.com/mcdev12/timehack/go/internal/timesync"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchTime_Success(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	c := NewNTPClient("ntp.example")
	c.query = func(host string, opt ntp.QueryOptions) (*ntp.Response, error) {
		assert.Equal(t, "ntp.example", host)
		assert.Equal(t, DefaultTimeout, opt.Timeout)
		return &ntp.Response{
			Time:          now,
			ReferenceTime: now.Add(-time.Second),
			Stratum:       2,
			Leap:          ntp.LeapNoWarning,
		}, nil
	}

	sample, err := c.FetchTime(context.Background())
	require.NoError(t, err)
	assert.Equal(t, now, sample.At)
	assert.Equal(t, SourceName, sample.Source)
}

func TestFetchTime_QueryError(t *testing.T) {
	c := NewNTPClient("")
	c.query = func(host string, opt ntp.QueryOptions) (*ntp.Response, error) {
		assert.Equal(t, DefaultServer, host)
		return nil, errors.New("i/o timeout")
	}

	_, err := c.FetchTime(context.Background())
	assert.ErrorIs(t, err, timesync.ErrTimeSyncUnavailable)
}

func TestFetchTime_KissOfDeath(t *testing.T) {
	c := NewNTPClient("ntp.example")
	c.query = func(host string, opt ntp.QueryOptions) (*ntp.Response, error) {
		return &ntp.Response{Time: time.Now(), Stratum: 0}, nil
	}

	_, err := c.FetchTime(context.Background())
	assert.ErrorIs(t, err, timesync.ErrTimeSyncUnavailable)
}

func TestFetchTime_ContextDeadlineShortensTimeout(t *testing.T) {
	c := NewNTPClient("ntp.example")
	c.query = func(host string, opt ntp.QueryOptions) (*ntp.Response, error) {
		assert.Less(t, opt.Timeout, DefaultTimeout)
		return nil, errors.New("timeout")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	_, err := c.FetchTime(ctx)
	assert.ErrorIs(t, err, timesync.ErrTimeSyncUnavailable)
}
