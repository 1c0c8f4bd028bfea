package worldtime_client

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/mcdev12/timehack/go/clients"
	"github.com/mcdev12/timehack/go/internal/timesync"
)

type WorldTimeClient struct {
	*clients.BaseClient
	endpoint string
}

func NewWorldTimeClient(baseURL string) *WorldTimeClient {
	if baseURL == "" {
		baseURL = BaseURL
	}

	client := &WorldTimeClient{
		BaseClient: clients.NewBaseClient(baseURL),
		endpoint:   UTCEndpoint,
	}
	client.SetHeader("Accept", "application/json")

	return client
}

// TimeResponse is the subset of the worldtimeapi payload we read
type TimeResponse struct {
	Datetime    string `json:"datetime"`
	UTCDatetime string `json:"utc_datetime"`
	Timezone    string `json:"timezone"`
	Unixtime    int64  `json:"unixtime"`
}

func (c *WorldTimeClient) Name() string {
	return SourceName
}

// FetchTime makes one request for the current UTC time. Every failure is
// reported as timesync.ErrTimeSyncUnavailable.
func (c *WorldTimeClient) FetchTime(ctx context.Context) (timesync.TimeSample, error) {
	body, err := c.Get(ctx, c.endpoint)
	if err != nil {
		return timesync.TimeSample{}, fmt.Errorf("%w: %v", timesync.ErrTimeSyncUnavailable, err)
	}

	var response TimeResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return timesync.TimeSample{}, fmt.Errorf("%w: failed to unmarshal response: %v", timesync.ErrTimeSyncUnavailable, err)
	}

	t, err := ParseDatetime(response.Datetime)
	if err != nil {
		return timesync.TimeSample{}, fmt.Errorf("%w: %v", timesync.ErrTimeSyncUnavailable, err)
	}

	return timesync.NewTimeSample(t, SourceName), nil
}

// localDatetimeLayout is ISO-8601 without an offset
const localDatetimeLayout = "2006-01-02T15:04:05.999999999"

// ParseDatetime parses an ISO-8601 timestamp. A trailing "Z" is rewritten
// to an explicit +00:00 offset first. A timestamp without an offset is
// taken as UTC.
func ParseDatetime(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, fmt.Errorf("missing datetime field")
	}

	if strings.HasSuffix(value, "Z") {
		value = strings.TrimSuffix(value, "Z") + "+00:00"
	}

	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		naive, naiveErr := time.ParseInLocation(localDatetimeLayout, value, time.UTC)
		if naiveErr != nil {
			return time.Time{}, fmt.Errorf("invalid datetime %q: %w", value, err)
		}
		t = naive
	}

	return t.UTC(), nil
}
