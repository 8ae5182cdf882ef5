package server_test

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sysboard/sysboard/internal/history"
	"github.com/sysboard/sysboard/internal/metrics"
	"github.com/sysboard/sysboard/internal/monitor"
	"github.com/sysboard/sysboard/internal/schedule"
	"github.com/sysboard/sysboard/internal/server"
	"github.com/sysboard/sysboard/internal/stream"
)

type stubSampler struct {
	category metrics.Category
}

func (s *stubSampler) Category() metrics.Category {
	return s.category
}

func (s *stubSampler) Sample() (metrics.Snapshot, error) {
	return metrics.Snapshot{
		Category: s.category,
		Taken:    time.Now(),
		Data:     metrics.MemoryInfo{Percent: 12.5},
	}, nil
}

type fixture struct {
	ts     *httptest.Server
	hub    *stream.Hub
	policy *schedule.Policy
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	policy := schedule.NewPolicy(nil)
	hub := stream.NewHub(8)
	recorder, err := history.NewRecorder(history.DefaultConfig())
	require.NoError(t, err)

	samplers := []metrics.Sampler{&stubSampler{category: metrics.CategoryMemory}}
	loop := monitor.New(policy, hub, samplers, recorder)
	static := metrics.NewStaticProvider()

	srv := server.New(hub, policy, loop, static, recorder, 50*time.Millisecond)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	return &fixture{ts: ts, hub: hub, policy: policy}
}

func (f *fixture) dial(t *testing.T) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(f.ts.URL, "http") + "/stream_updates"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) stream.Message {
	t.Helper()
	var msg stream.Message
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func TestHealth(t *testing.T) {
	f := newFixture(t)

	resp, err := http.Get(f.ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
}

func TestIndexRendersFirstPaint(t *testing.T) {
	f := newFixture(t)

	resp, err := http.Get(f.ts.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")
}

func TestUpdateIntervalsForm(t *testing.T) {
	f := newFixture(t)

	resp, err := http.PostForm(f.ts.URL+"/update_intervals", url.Values{"cpu": {"7"}})
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, 7*time.Second, f.policy.Interval(metrics.CategoryCPU))
}

func TestUpdateIntervalsJSON(t *testing.T) {
	f := newFixture(t)

	resp, err := http.Post(f.ts.URL+"/update_intervals", "application/json",
		strings.NewReader(`{"memory": 4, "disk": 20}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, 4*time.Second, f.policy.Interval(metrics.CategoryMemory))
	assert.Equal(t, 20*time.Second, f.policy.Interval(metrics.CategoryDisk))
}

func TestUpdateIntervalsRejectsUnknownCategory(t *testing.T) {
	f := newFixture(t)

	resp, err := http.PostForm(f.ts.URL+"/update_intervals", url.Values{"bogus": {"5"}})
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestUpdateIntervalsRejectsGet(t *testing.T) {
	f := newFixture(t)

	resp, err := http.Get(f.ts.URL + "/update_intervals")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestStreamDeliversBroadcasts(t *testing.T) {
	f := newFixture(t)
	conn := f.dial(t)

	require.Eventually(t, func() bool { return f.hub.Len() == 1 },
		time.Second, 10*time.Millisecond, "subscriber registered on connect")

	f.hub.Broadcast(stream.Update("cpu", map[string]float64{"percent": 42}))

	msg := readMessage(t, conn)
	// A heartbeat may slip in ahead of the update with the short test period.
	for msg.Type == stream.MessageHeartbeat {
		msg = readMessage(t, conn)
	}

	assert.Equal(t, stream.MessageUpdate, msg.Type)
	assert.Equal(t, "cpu", msg.Target)
	assert.Equal(t, stream.SwapReplace, msg.Swap)
}

func TestStreamHeartbeatWhenIdle(t *testing.T) {
	f := newFixture(t)
	conn := f.dial(t)

	msg := readMessage(t, conn)
	assert.Equal(t, stream.MessageHeartbeat, msg.Type)
}

func TestStreamShutdownSentinel(t *testing.T) {
	f := newFixture(t)
	conn := f.dial(t)

	require.Eventually(t, func() bool { return f.hub.Len() == 1 },
		time.Second, 10*time.Millisecond)

	f.hub.Shutdown(0)

	msg := readMessage(t, conn)
	for msg.Type == stream.MessageHeartbeat {
		msg = readMessage(t, conn)
	}
	assert.Equal(t, stream.MessageShutdown, msg.Type)

	require.Eventually(t, func() bool { return f.hub.Len() == 0 },
		time.Second, 10*time.Millisecond, "subscriber unregistered after shutdown")
}

func TestStreamClientDisconnectUnregisters(t *testing.T) {
	f := newFixture(t)
	conn := f.dial(t)

	require.Eventually(t, func() bool { return f.hub.Len() == 1 },
		time.Second, 10*time.Millisecond)

	conn.Close()

	require.Eventually(t, func() bool { return f.hub.Len() == 0 },
		time.Second, 10*time.Millisecond, "disconnect must unregister exactly once")
}

func TestHistoryEmptyWhenDisabled(t *testing.T) {
	f := newFixture(t)

	resp, err := http.Get(f.ts.URL + "/history?limit=5")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
}
