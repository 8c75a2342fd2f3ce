package server

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/koscakluka/ema-welfare/core/session"
	"github.com/stretchr/testify/require"
)

func dial(t *testing.T, server *httptest.Server) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(server.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg map[string]any
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func waitFor(t *testing.T, condition func() bool) {
	t.Helper()
	require.Eventually(t, condition, 2*time.Second, 10*time.Millisecond)
}

func TestWebsocketSendsStatusThenEvents(t *testing.T) {
	sess := session.New()
	server := httptest.NewServer(New(Config{}, sess).Handler())
	defer server.Close()

	conn := dial(t, server)
	require.Equal(t, map[string]any{"type": "status", "payload": "IDLE"}, readMessage(t, conn))
	waitFor(t, func() bool { return sess.Observers() == 1 })

	sess.SetStatus(session.StatusThinking)
	sess.AddTranscript(session.RoleUser, "రైతు బంధు")
	sess.AddThought("Planning for: రైతు బంధు")
	sess.SetListening(true)

	require.Equal(t, map[string]any{"type": "status", "payload": "THINKING"}, readMessage(t, conn))
	require.Equal(t, map[string]any{
		"type":    "transcript",
		"payload": map[string]any{"role": "user", "text": "రైతు బంధు"},
	}, readMessage(t, conn))
	require.Equal(t, map[string]any{"type": "thought", "payload": "Planning for: రైతు బంధు"}, readMessage(t, conn))
	require.Equal(t, map[string]any{"type": "control", "payload": "listening_on"}, readMessage(t, conn))
}

func TestWebsocketAppliesClientMessages(t *testing.T) {
	sess := session.New()
	server := httptest.NewServer(New(Config{}, sess).Handler())
	defer server.Close()

	conn := dial(t, server)
	readMessage(t, conn)

	frames := []string{
		`{"type":"listen_start"}`,
		`not json`,
		`{"type":"text","payload":"  నాకు పెన్షన్ కావాలి  "}`,
		`{"type":"text","payload":"   "}`,
		`{"type":"text","payload":42}`,
		`{"type":"dance"}`,
		`{"type":"text","payload":"second"}`,
	}
	for _, frame := range frames {
		require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(frame)))
	}

	waitFor(t, func() bool { return sess.Snapshot().Pending == 2 })
	require.True(t, sess.Listening())

	text, ok := sess.DequeueText()
	require.True(t, ok)
	require.Equal(t, "నాకు పెన్షన్ కావాలి", text)
	text, _ = sess.DequeueText()
	require.Equal(t, "second", text)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"listen_stop"}`)))
	waitFor(t, func() bool { return !sess.Listening() })
}

func TestDisconnectRemovesObserver(t *testing.T) {
	sess := session.New()
	server := httptest.NewServer(New(Config{}, sess).Handler())
	defer server.Close()

	conn := dial(t, server)
	readMessage(t, conn)
	waitFor(t, func() bool { return sess.Observers() == 1 })

	require.NoError(t, conn.Close())
	waitFor(t, func() bool { return sess.Observers() == 0 })

	sess.AddThought("nobody is listening")
}

func TestIndexAndAPI(t *testing.T) {
	sess := session.New()
	sess.AddTranscript(session.RoleAgent, "నమస్కారం")
	server := httptest.NewServer(New(Config{}, sess).Handler())
	defer server.Close()

	resp, err := http.Get(server.URL + "/")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, string(body), "/ws")

	resp, err = http.Get(server.URL + "/api/session")
	require.NoError(t, err)
	defer resp.Body.Close()
	var snapshot session.Snapshot
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&snapshot))
	require.Equal(t, session.StatusIdle, snapshot.Status)
	require.Len(t, snapshot.Transcript, 1)
	require.Equal(t, sess.ID(), snapshot.ID)

	resp, err = http.Get(server.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(server.URL + "/missing")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCrossOriginWebsocketIsRejected(t *testing.T) {
	server := httptest.NewServer(New(Config{}, session.New()).Handler())
	defer server.Close()

	header := http.Header{"Origin": {"https://evil.example"}}
	_, resp, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(server.URL, "http")+"/ws", header)
	require.Error(t, err)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestServeStopsOnContextCancel(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- New(Config{ShutdownTimeout: time.Second}, session.New()).Serve(ctx, ln) }()

	waitFor(t, func() bool {
		resp, err := http.Get("http://" + ln.Addr().String() + "/healthz")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	})

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("server did not stop")
	}
}
