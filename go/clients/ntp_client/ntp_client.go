// Package ntp_client reads the current time from an NTP server.
package ntp_client

import (
	"context"
	"fmt"
	"time"

	"github.com/beevik/ntp"
	"github.com/mcdev12/timehack/go/internal/timesync"
)

const (
	DefaultServer  = "time.google.com"
	DefaultTimeout = 5 * time.Second
	SourceName     = "ntp"
)

type queryFunc func(host string, opt ntp.QueryOptions) (*ntp.Response, error)

type NTPClient struct {
	server  string
	timeout time.Duration
	query   queryFunc
}

func NewNTPClient(server string) *NTPClient {
	if server == "" {
		server = DefaultServer
	}
	return &NTPClient{
		server:  server,
		timeout: DefaultTimeout,
		query:   ntp.QueryWithOptions,
	}
}

func (c *NTPClient) SetTimeout(timeout time.Duration) {
	c.timeout = timeout
}

func (c *NTPClient) Name() string {
	return SourceName
}

// FetchTime sends one NTP query. The response is validated before use.
func (c *NTPClient) FetchTime(ctx context.Context) (timesync.TimeSample, error) {
	timeout := c.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}
	if timeout <= 0 {
		return timesync.TimeSample{}, fmt.Errorf("%w: %v", timesync.ErrTimeSyncUnavailable, context.DeadlineExceeded)
	}

	resp, err := c.query(c.server, ntp.QueryOptions{Timeout: timeout})
	if err != nil {
		return timesync.TimeSample{}, fmt.Errorf("%w: ntp query %s: %v", timesync.ErrTimeSyncUnavailable, c.server, err)
	}

	if err := resp.Validate(); err != nil {
		return timesync.TimeSample{}, fmt.Errorf("%w: invalid ntp response from %s: %v", timesync.ErrTimeSyncUnavailable, c.server, err)
	}

	return timesync.NewTimeSample(resp.Time, SourceName), nil
}
