package api

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/plc-visualizer/safety-dashboard/internal/dashboard"
	"github.com/plc-visualizer/safety-dashboard/internal/models"
	"github.com/plc-visualizer/safety-dashboard/internal/session"
	"github.com/plc-visualizer/safety-dashboard/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type liveServer struct {
	store    *dashboard.Store
	sessions *session.Manager
	hub      *Hub
	resetter *dashboard.Resetter
	srv      *httptest.Server
}

func newLiveServer(t *testing.T, sessions *session.Manager) *liveServer {
	t.Helper()
	store := dashboard.NewStore(testutil.DefaultState(t))
	hub := NewHub(store, sessions, HubConfig{QueueSize: 16})
	feed := dashboard.NewFeed()
	resetter := dashboard.NewResetter(dashboard.Notifiers{hub, feed}, 20*time.Millisecond)
	hub.AttachResetter(resetter)

	ctx, cancel := context.WithCancel(context.Background())
	hub.Start(ctx)

	e := echo.New()
	SetupMiddleware(e, MiddlewareOptions{})
	RegisterRoutes(e, NewHandlers(&Dependencies{
		Store:      store,
		Resetter:   resetter,
		SessionMgr: sessions,
		Hub:        hub,
		Feed:       feed,
		Version:    "test",
	}))
	srv := httptest.NewServer(e)

	t.Cleanup(func() {
		cancel()
		resetter.Close()
		srv.Close()
	})
	return &liveServer{store: store, sessions: sessions, hub: hub, resetter: resetter, srv: srv}
}

func (s *liveServer) dial(t *testing.T) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(s.srv.URL, "http") + "/api/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) WSMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg WSMessage
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func readUntil(t *testing.T, conn *websocket.Conn, msgType string) WSMessage {
	t.Helper()
	for {
		msg := readMessage(t, conn)
		if msg.Type == msgType {
			return msg
		}
	}
}

func TestWebSocket_ConnectedThenState(t *testing.T) {
	s := newLiveServer(t, session.NewManager())
	conn := s.dial(t)

	connected := readMessage(t, conn)
	assert.Equal(t, MsgTypeConnected, connected.Type)
	assert.NotEmpty(t, connected.ID)

	state := readMessage(t, conn)
	require.Equal(t, MsgTypeState, state.Type)
	var snap models.Snapshot
	require.NoError(t, json.Unmarshal(state.Payload, &snap))
	assert.True(t, snap.Summary.IsSystemSafe)

	assert.Equal(t, 1, s.hub.ClientCount())
	sess, ok := s.sessions.GetSession(connected.ID)
	require.True(t, ok)
	assert.Equal(t, models.TransportWebSocket, sess.Transport)
}

func TestWebSocket_BroadcastsStateChanges(t *testing.T) {
	s := newLiveServer(t, session.NewManager())
	conn := s.dial(t)
	readUntil(t, conn, MsgTypeState)

	require.NoError(t, s.store.SetSignal("isolation-fault-buzzer", true))

	msg := readUntil(t, conn, MsgTypeState)
	var snap models.Snapshot
	require.NoError(t, json.Unmarshal(msg.Payload, &snap))
	assert.Equal(t, uint64(1), snap.Version)
	assert.False(t, snap.Summary.IsSystemSafe)
	require.Len(t, snap.Summary.FailedConditions, 1)
	assert.Equal(t, "Isolation Fault Buzzer triggered", snap.Summary.FailedConditions[0].ErrorMessage)
}

func TestWebSocket_PingPong(t *testing.T) {
	s := newLiveServer(t, session.NewManager())
	conn := s.dial(t)
	readUntil(t, conn, MsgTypeState)

	require.NoError(t, conn.WriteJSON(WSMessage{Type: MsgTypePing, ID: "p1"}))
	pong := readUntil(t, conn, MsgTypePong)
	assert.Equal(t, "p1", pong.ID)
}

func TestWebSocket_ResetNotifiesAllViewers(t *testing.T) {
	s := newLiveServer(t, session.NewManager())
	a := s.dial(t)
	b := s.dial(t)
	readUntil(t, a, MsgTypeState)
	readUntil(t, b, MsgTypeState)

	require.NoError(t, a.WriteJSON(WSMessage{Type: MsgTypeReset}))

	for _, conn := range []*websocket.Conn{a, b} {
		first := readUntil(t, conn, MsgTypeNotification)
		second := readUntil(t, conn, MsgTypeNotification)

		var n1, n2 models.Notification
		require.NoError(t, json.Unmarshal(first.Payload, &n1))
		require.NoError(t, json.Unmarshal(second.Payload, &n2))
		assert.Equal(t, "Virtual Reset Initiated", n1.Title)
		assert.Equal(t, "Resetting Motion and Charging Systems...", n1.Description)
		assert.Equal(t, "Reset Complete", n2.Title)
		assert.Equal(t, "All systems have been reset successfully.", n2.Description)
	}
	assert.Equal(t, uint64(0), s.store.Version())
}

func TestWebSocket_ProtocolErrors(t *testing.T) {
	s := newLiveServer(t, session.NewManager())
	conn := s.dial(t)
	readUntil(t, conn, MsgTypeState)

	require.NoError(t, conn.WriteJSON(WSMessage{Type: "upload:init"}))
	msg := readUntil(t, conn, MsgTypeError)
	var resp WSErrorResponse
	require.NoError(t, json.Unmarshal(msg.Payload, &resp))
	assert.Equal(t, "INVALID_TYPE", resp.Code)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{not json")))
	msg = readUntil(t, conn, MsgTypeError)
	require.NoError(t, json.Unmarshal(msg.Payload, &resp))
	assert.Equal(t, "INVALID_PAYLOAD", resp.Code)
}

func TestWebSocket_ViewerLimit(t *testing.T) {
	s := newLiveServer(t, session.NewManagerWithLimit(1))
	first := s.dial(t)
	readUntil(t, first, MsgTypeState)

	second := s.dial(t)
	msg := readMessage(t, second)
	require.Equal(t, MsgTypeError, msg.Type)
	var resp WSErrorResponse
	require.NoError(t, json.Unmarshal(msg.Payload, &resp))
	assert.Equal(t, "VIEWER_LIMIT", resp.Code)
}

func TestWebSocket_DisconnectEndsSession(t *testing.T) {
	s := newLiveServer(t, session.NewManager())
	conn := s.dial(t)
	readUntil(t, conn, MsgTypeState)
	require.Equal(t, 1, s.sessions.Count())

	conn.Close()
	assert.Eventually(t, func() bool {
		return s.sessions.Count() == 0 && s.hub.ClientCount() == 0
	}, 2*time.Second, 10*time.Millisecond)
}

func TestStateStream(t *testing.T) {
	s := newLiveServer(t, session.NewManager())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.srv.URL+"/api/state/stream", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	nextSnapshot := func() models.Snapshot {
		for {
			line, err := reader.ReadString('\n')
			require.NoError(t, err)
			if data, ok := strings.CutPrefix(line, "data: "); ok {
				var snap models.Snapshot
				require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(data)), &snap))
				return snap
			}
		}
	}

	first := nextSnapshot()
	assert.Equal(t, uint64(0), first.Version)
	assert.Eventually(t, func() bool { return s.sessions.Count() == 1 }, time.Second, 10*time.Millisecond)

	require.NoError(t, s.store.SetSignal("hold-to-run", true))
	second := nextSnapshot()
	assert.Equal(t, uint64(1), second.Version)
	assert.False(t, second.Summary.IsSystemSafe)
	assert.Equal(t, "Hold To Run active", second.Summary.FailedConditions[0].ErrorMessage)
}

func TestStateStream_ResetNotifications(t *testing.T) {
	s := newLiveServer(t, session.NewManager())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.srv.URL+"/api/state/stream", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	reader := bufio.NewReader(resp.Body)
	nextEvent := func() (string, string) {
		var event, data string
		for {
			line, err := reader.ReadString('\n')
			require.NoError(t, err)
			line = strings.TrimRight(line, "\n")
			switch {
			case line == "" && event != "":
				return event, data
			case strings.HasPrefix(line, "event: "):
				event = strings.TrimPrefix(line, "event: ")
			case strings.HasPrefix(line, "data: "):
				data = strings.TrimPrefix(line, "data: ")
			}
		}
	}

	event, _ := nextEvent()
	require.Equal(t, "state", event)
	require.Eventually(t, func() bool { return s.sessions.Count() == 1 }, time.Second, 10*time.Millisecond)

	require.NotEmpty(t, s.resetter.Reset())

	var titles []string
	for len(titles) < 2 {
		event, data := nextEvent()
		if event != "notification" {
			continue
		}
		var n models.Notification
		require.NoError(t, json.Unmarshal([]byte(data), &n))
		titles = append(titles, n.Title)
	}
	assert.Equal(t, []string{"Virtual Reset Initiated", "Reset Complete"}, titles)
	assert.Equal(t, uint64(0), s.store.Version())
}
