package hub

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

func newHubServer(t *testing.T) (*Hub, string) {
	t.Helper()
	h := New(nil)
	server := httptest.NewServer(h)
	t.Cleanup(server.Close)
	t.Cleanup(h.Close)
	return h, "ws" + strings.TrimPrefix(server.URL, "http")
}

func dialHub(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) Event {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, frame, err := conn.ReadMessage()
	require.NoError(t, err)
	var ev Event
	require.NoError(t, json.Unmarshal(frame, &ev))
	return ev
}

func TestStatusBroadcast(t *testing.T) {
	h, url := newHubServer(t)
	conn := dialHub(t, url)
	require.Eventually(t, func() bool { return h.ClientCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	h.NotifyStatus("continuous", true, false)

	ev := readEvent(t, conn)
	require.Equal(t, EventStatus, ev.Type)
	require.Equal(t, "continuous", ev.Mode)
	require.True(t, ev.Listening)
	require.False(t, ev.WakeWordActive)
	require.NotZero(t, ev.At)
}

func TestTranscriptBroadcastReachesAllClients(t *testing.T) {
	h, url := newHubServer(t)
	first := dialHub(t, url)
	second := dialHub(t, url)
	require.Eventually(t, func() bool { return h.ClientCount() == 2 }, 2*time.Second, 10*time.Millisecond)

	h.NotifyTranscript("point team b")

	for _, conn := range []*websocket.Conn{first, second} {
		ev := readEvent(t, conn)
		require.Equal(t, EventTranscript, ev.Type)
		require.Equal(t, "point team b", ev.Transcript)
	}
}

func TestLateClientReceivesLastStatus(t *testing.T) {
	h, url := newHubServer(t)
	h.NotifyStatus("wake_word", true, true)

	conn := dialHub(t, url)
	ev := readEvent(t, conn)
	require.Equal(t, EventStatus, ev.Type)
	require.Equal(t, "wake_word", ev.Mode)
	require.True(t, ev.WakeWordActive)
}

func TestDisconnectedClientIsUnregistered(t *testing.T) {
	h, url := newHubServer(t)
	conn := dialHub(t, url)
	require.Eventually(t, func() bool { return h.ClientCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool { return h.ClientCount() == 0 }, 2*time.Second, 10*time.Millisecond)

	// Broadcasting with no clients must not panic.
	h.NotifyTranscript("still broadcasting")
}

func TestCloseSendsCloseFrame(t *testing.T) {
	h := New(nil)
	server := httptest.NewServer(h)
	defer server.Close()

	conn := dialHub(t, "ws"+strings.TrimPrefix(server.URL, "http"))
	require.Eventually(t, func() bool { return h.ClientCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	h.Close()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := conn.ReadMessage()
	require.Error(t, err)
	require.True(t, websocket.IsCloseError(err, websocket.CloseGoingAway))
}
