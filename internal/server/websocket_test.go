package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/intersim/internal/config"
	"github.com/zeusync/intersim/internal/core/events/bus"
	"github.com/zeusync/intersim/internal/core/observability/log"
)

func startServer(t *testing.T, feed Feed, events bus.EventBus) *Server {
	t.Helper()
	cfg := config.Default().Server
	cfg.ListenAddr = "127.0.0.1:0"

	s := New(feed, events, cfg, log.NewNop())
	require.NoError(t, s.Start(context.Background()))
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func dial(t *testing.T, s *Server) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial("ws://"+s.Addr()+"/ws", nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg Message
	require.NoError(t, json.Unmarshal(raw, &msg))
	return msg
}

func TestWebSocketStreamsEvents(t *testing.T) {
	events := bus.New()
	feed := newFakeFeed()
	feed.snapshot.Tick = 42
	s := startServer(t, feed, events)

	conn := dial(t, s)

	first := readMessage(t, conn)
	assert.Equal(t, MessageTypeSnapshot, first.Type)
	data, ok := first.Data.(map[string]any)
	require.True(t, ok)
	assert.EqualValues(t, 42, data["tick"])

	require.Eventually(t, func() bool { return s.GetStats().ClientCount == 1 }, time.Second, 5*time.Millisecond)

	require.NoError(t, events.Publish(bus.NewEvent("vehicle.spawned", "test", map[string]string{"id": "v1"}, nil)))

	next := readMessage(t, conn)
	assert.Equal(t, "vehicle.spawned", next.Type)
	assert.Equal(t, map[string]any{"id": "v1"}, next.Data)
}

func TestStopDisconnectsClients(t *testing.T) {
	events := bus.New()
	s := startServer(t, newFakeFeed(), events)
	conn := dial(t, s)
	_ = readMessage(t, conn)

	require.NoError(t, s.Stop(context.Background()))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := conn.ReadMessage()
	require.Error(t, err)
	assert.True(t, websocket.IsCloseError(err, websocket.CloseGoingAway) || strings.Contains(err.Error(), "EOF"), err.Error())

	assert.Zero(t, s.GetStats().ClientCount)
	assert.NoError(t, events.Publish(bus.NewEvent("tick.completed", "test", nil, nil)))
}

func TestLifecycleErrors(t *testing.T) {
	cfg := config.Default().Server
	cfg.ListenAddr = "127.0.0.1:0"
	s := New(newFakeFeed(), nil, cfg, nil)

	assert.ErrorIs(t, s.Stop(context.Background()), ErrServerNotRunning)

	require.NoError(t, s.Start(context.Background()))
	assert.ErrorIs(t, s.Start(context.Background()), ErrServerAlreadyRunning)
	assert.True(t, s.GetStats().Running)

	require.NoError(t, s.Close())
	assert.False(t, s.GetStats().Running)
	assert.ErrorIs(t, s.Start(context.Background()), ErrServerClosed)
}

func TestStopIsTerminal(t *testing.T) {
	cfg := config.Default().Server
	cfg.ListenAddr = "127.0.0.1:0"
	s := New(newFakeFeed(), nil, cfg, nil)

	require.NoError(t, s.Start(context.Background()))
	resp, err := http.Get("http://" + s.Addr() + "/snapshot")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	require.NoError(t, s.Stop(context.Background()))
	assert.ErrorIs(t, s.Start(context.Background()), ErrServerClosed)
	assert.False(t, s.GetStats().Running)
	assert.ErrorIs(t, s.Stop(context.Background()), ErrServerNotRunning)
	assert.NoError(t, s.Close())
}

func TestStartReportsListenFailure(t *testing.T) {
	cfg := config.Default().Server
	cfg.ListenAddr = "256.0.0.1:99999"
	s := New(newFakeFeed(), nil, cfg, nil)

	assert.ErrorIs(t, s.Start(context.Background()), ErrListenerFailed)
	assert.False(t, s.GetStats().Running)
}
