package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/intersim/internal/config"
	"github.com/zeusync/intersim/internal/core/events/bus"
	"github.com/zeusync/intersim/internal/core/models"
	"github.com/zeusync/intersim/internal/core/route"
	"github.com/zeusync/intersim/internal/core/simulation"
	"github.com/zeusync/intersim/internal/runner"
)

type fakeFeed struct {
	mu       sync.Mutex
	snapshot simulation.Snapshot
	requests [][2]models.Approach
	err      error
}

func newFakeFeed() *fakeFeed {
	return &fakeFeed{}
}

func (f *fakeFeed) RequestSpawn(from, to models.Approach) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.requests = append(f.requests, [2]models.Approach{from, to})
	return nil
}

func (f *fakeFeed) Latest() simulation.Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snapshot
}

func newTestHTTP(t *testing.T, feed Feed) *httptest.Server {
	t.Helper()
	s := New(feed, nil, config.Default().Server, nil)
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func postSpawn(t *testing.T, ts *httptest.Server, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(ts.URL+"/spawn", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func TestSnapshotEndpoint(t *testing.T) {
	feed := newFakeFeed()
	feed.snapshot = simulation.Snapshot{Tick: 7, Counts: simulation.Counts{Spawned: 3, Passed: 2}}
	ts := newTestHTTP(t, feed)

	resp, err := http.Get(ts.URL + "/snapshot")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var got simulation.Snapshot
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, uint64(7), got.Tick)
	assert.Equal(t, uint64(2), got.Counts.Passed)
}

func TestStatsEndpoint(t *testing.T) {
	feed := newFakeFeed()
	feed.snapshot = simulation.Snapshot{Tick: 9, Counts: simulation.Counts{Collided: 4}}
	ts := newTestHTTP(t, feed)

	resp, err := http.Get(ts.URL + "/stats")
	require.NoError(t, err)
	defer resp.Body.Close()

	var got statsResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, uint64(9), got.Tick)
	assert.Equal(t, uint64(4), got.Counts.Collided)
	assert.False(t, got.Server.Running)
	assert.Nil(t, got.Bus)
}

func TestStatsEndpointReportsBusMetrics(t *testing.T) {
	events := bus.New()
	events.AddObserver(bus.NewLogObserver(nil))
	s := New(newFakeFeed(), events, config.Default().Server, nil)
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)

	_, err := events.Subscribe("tick.completed", func(bus.Event) error { return nil })
	require.NoError(t, err)
	require.NoError(t, events.Publish(bus.NewEvent("tick.completed", "test", nil, nil)))

	resp, err := http.Get(ts.URL + "/stats")
	require.NoError(t, err)
	defer resp.Body.Close()

	var got statsResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	require.NotNil(t, got.Bus)
	assert.Equal(t, uint64(1), got.Bus.Published)
	assert.Equal(t, uint64(1), got.Bus.DeliveredHandlers)
}

func TestSpawnEndpoint(t *testing.T) {
	feed := newFakeFeed()
	ts := newTestHTTP(t, feed)

	resp := postSpawn(t, ts, `{"from":"north","to":"e"}`)
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	assert.Equal(t, [][2]models.Approach{{models.North, models.East}}, feed.requests)

	for _, body := range []string{
		`not json`,
		`{"from":"up","to":"south"}`,
		`{"from":"north"}`,
		`{"from":"north","to":"south","speed":9}`,
	} {
		resp := postSpawn(t, ts, body)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, body)
	}
	assert.Len(t, feed.requests, 1)
}

func TestSpawnEndpointMapsErrors(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{fmt.Errorf("%w: north to north", route.ErrInvalidRoute), http.StatusBadRequest},
		{runner.ErrQueueFull, http.StatusTooManyRequests},
		{fmt.Errorf("boom"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		feed := newFakeFeed()
		feed.err = tc.err
		ts := newTestHTTP(t, feed)

		resp := postSpawn(t, ts, `{"from":"north","to":"north"}`)
		assert.Equal(t, tc.status, resp.StatusCode, tc.err.Error())

		var body errorResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, tc.err.Error(), body.Error)
	}
}

func TestMethodsAreEnforced(t *testing.T) {
	ts := newTestHTTP(t, newFakeFeed())

	resp, err := http.Get(ts.URL + "/spawn")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestSpawnThroughRunner(t *testing.T) {
	cfg := config.Default()
	sim, err := simulation.New(&cfg.World)
	require.NoError(t, err)
	r := runner.New(sim, cfg.Runner, runner.WithBus(bus.New()))
	ts := newTestHTTP(t, r)

	resp := postSpawn(t, ts, `{"from":"south","to":"south"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = postSpawn(t, ts, `{"from":"south","to":"west"}`)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	r.RunTicks(1)
	assert.Equal(t, uint64(1), r.Latest().Counts.Spawned)
}
