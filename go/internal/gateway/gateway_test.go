package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/mcdev12/timehack/go/internal/display"
	"github.com/mcdev12/timehack/go/internal/events"
	"github.com/mcdev12/timehack/go/internal/timesync"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeKeeper struct {
	now   time.Time
	stats timesync.Stats
}

func (k *fakeKeeper) MaybeSync(ctx context.Context) bool { return false }
func (k *fakeKeeper) CorrectedTime() time.Time           { return k.now }
func (k *fakeKeeper) Stats() timesync.Stats              { return k.stats }

type fakeBroker struct{ connected bool }

func (b fakeBroker) Connected() bool { return b.connected }

var now = time.Date(2024, 1, 1, 0, 0, 55, 0, time.UTC)

func newTestService(t *testing.T, keeper *fakeKeeper, broker BrokerStatus) (*Service, *httptest.Server) {
	t.Helper()

	svc := NewService(DefaultConfig(), keeper, broker)
	mux := http.NewServeMux()
	svc.RegisterRoutes(mux)

	ctx, cancel := context.WithCancel(context.Background())
	go svc.Start(ctx)

	srv := httptest.NewServer(mux)
	t.Cleanup(func() {
		cancel()
		srv.Close()
	})
	return svc, srv
}

func TestHandleGetState(t *testing.T) {
	keeper := &fakeKeeper{
		now: now,
		stats: timesync.Stats{
			Offset:     1500 * time.Millisecond,
			LastSync:   now.Add(-2 * time.Second),
			LastSource: "worldtime",
			Syncs:      3,
			Failures:   1,
		},
	}
	_, srv := newTestService(t, keeper, nil)

	resp, err := http.Get(srv.URL + "/api/clock/state")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var state ClockStateResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&state))

	assert.True(t, now.Equal(state.CorrectedTime))
	assert.InDelta(t, 1500.0, state.OffsetMillis, 0.001)
	require.NotNil(t, state.LastSync)
	assert.Equal(t, "worldtime", state.LastSource)
	assert.Equal(t, uint64(3), state.Syncs)
	assert.Equal(t, uint64(1), state.Failures)
	assert.Equal(t, "00:00:55", state.Frame.Digits)
	assert.Equal(t, 5, state.Frame.CountdownDigit)
}

func TestHandleHealth(t *testing.T) {
	tests := []struct {
		name     string
		lastSync time.Time
		broker   BrokerStatus
		wantCode int
		synced   bool
	}{
		{name: "never synced", wantCode: http.StatusOK},
		{name: "fresh", lastSync: time.Now().Add(-time.Second), wantCode: http.StatusOK, synced: true},
		{name: "stale", lastSync: time.Now().Add(-time.Hour), wantCode: http.StatusServiceUnavailable, synced: true},
		{name: "broker down", lastSync: time.Now(), broker: fakeBroker{connected: false}, wantCode: http.StatusServiceUnavailable, synced: true},
		{name: "broker up", lastSync: time.Now(), broker: fakeBroker{connected: true}, wantCode: http.StatusOK, synced: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			keeper := &fakeKeeper{now: now, stats: timesync.Stats{LastSync: tt.lastSync}}
			h := NewStateHandler(keeper, NewConnectionManager(DefaultConnectionConfig()), tt.broker, 5*time.Minute)

			rec := httptest.NewRecorder()
			h.HandleHealth(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
			assert.Equal(t, tt.wantCode, rec.Code)

			var status HealthResponse
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&status))
			assert.Equal(t, tt.synced, status.Synced)
		})
	}
}

func TestClockStream(t *testing.T) {
	svc, srv := newTestService(t, &fakeKeeper{now: now}, nil)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + StreamPath
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))

	// initial frame
	var msg StreamMessage
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, MessageTypeFrame, msg.Type)
	require.NotNil(t, msg.Frame)
	assert.Equal(t, "00:00:55", msg.Frame.Digits)

	require.Eventually(t, func() bool { return svc.Connections() == 1 }, time.Second, 10*time.Millisecond)

	svc.PublishFrame(display.BuildFrame(now.Add(5 * time.Second)))
	require.NoError(t, conn.ReadJSON(&msg))
	require.NotNil(t, msg.Frame)
	assert.Equal(t, "00:01:00", msg.Frame.Digits)
	assert.True(t, msg.Frame.Flashing)

	event, err := events.NewEvent(events.EventTypeFlash, now, events.FlashPayload{Digits: "00:01:00"})
	require.NoError(t, err)
	require.NoError(t, svc.Publish(context.Background(), event))

	var eventMsg StreamMessage
	require.NoError(t, conn.ReadJSON(&eventMsg))
	assert.Equal(t, MessageTypeEvent, eventMsg.Type)
	require.NotNil(t, eventMsg.Event)
	assert.Equal(t, event.ID, eventMsg.Event.ID)
}

func TestClockStream_ClientDisconnectUnregisters(t *testing.T) {
	svc, srv := newTestService(t, &fakeKeeper{now: now}, nil)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + StreamPath
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)

	require.Eventually(t, func() bool { return svc.Connections() == 1 }, time.Second, 10*time.Millisecond)
	conn.Close()
	require.Eventually(t, func() bool { return svc.Connections() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestPublishWithoutClientsIsNoop(t *testing.T) {
	svc := NewService(DefaultConfig(), &fakeKeeper{now: now}, nil)
	svc.PublishFrame(display.BuildFrame(now))
	assert.NoError(t, svc.Publish(context.Background(), &events.Event{Type: events.EventTypeFlash}))
	assert.Equal(t, 0, svc.Connections())
}

func TestStreamRequiresUpgrade(t *testing.T) {
	_, srv := newTestService(t, &fakeKeeper{now: now}, nil)

	resp, err := http.Get(srv.URL + StreamPath)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
