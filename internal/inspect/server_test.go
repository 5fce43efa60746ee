package inspect

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/behave/internal/core/bt"
	"github.com/zeusync/behave/internal/core/events/bus"
)

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func waitClients(t *testing.T, s *Server, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return s.Clients() == n }, time.Second, 5*time.Millisecond)
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var m Message
	require.NoError(t, json.Unmarshal(data, &m))
	return m
}

func TestStreamsTreeEvents(t *testing.T) {
	b := bus.New()
	s, err := New(b, Options{}, nil)
	require.NoError(t, err)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()
	defer s.Close(context.Background())

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	all := dial(t, url)
	done := dial(t, url+"?type="+bt.EventTreeCompleted)
	waitClients(t, s, 2)

	tree := bt.NewTree("demo", bt.WithEventBus(b)).SetRoot(bt.Succeed("leaf"))
	tree.Spawn()
	tree.Tick()

	first := readMessage(t, all)
	assert.Equal(t, bt.EventNodeSpawned, first.Type)
	assert.Equal(t, tree.ID(), first.Source)
	data, ok := first.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "leaf", data["node"])
	assert.Equal(t, "Running", data["status"])

	assert.Equal(t, bt.EventNodeDespawned, readMessage(t, all).Type)
	assert.Equal(t, bt.EventTreeCompleted, readMessage(t, all).Type)

	m := readMessage(t, done)
	assert.Equal(t, bt.EventTreeCompleted, m.Type)
	assert.Equal(t, "Success", m.Data.(map[string]any)["result"])
}

func TestClientDisconnectUnregisters(t *testing.T) {
	s, err := New(bus.New(), Options{}, nil)
	require.NoError(t, err)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	conn := dial(t, "ws"+strings.TrimPrefix(ts.URL, "http")+"/ws")
	waitClients(t, s, 1)
	require.NoError(t, conn.Close())
	waitClients(t, s, 0)
	require.NoError(t, s.Close(context.Background()))
}

func TestSlowClientDropsEvents(t *testing.T) {
	b := bus.New()
	s, err := New(b, Options{Buffer: 1}, nil)
	require.NoError(t, err)
	c := &client{send: make(chan []byte, 1)}
	s.clients[c] = struct{}{}

	for range 3 {
		require.NoError(t, b.Publish(bus.NewEvent("x", "test", nil)))
	}
	assert.Equal(t, int64(2), s.Dropped())
}

func TestHealthz(t *testing.T) {
	s, err := New(bus.New(), Options{}, nil)
	require.NoError(t, err)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"clients":0,"dropped":0}`, rec.Body.String())
}

func TestListenAndClose(t *testing.T) {
	s, err := New(bus.New(), Options{}, nil)
	require.NoError(t, err)
	require.NoError(t, s.Listen("127.0.0.1:0"))
	require.NotNil(t, s.Addr())

	resp, err := http.Get("http://" + s.Addr().String() + "/healthz")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, s.Close(context.Background()))
}
