package network

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func dialEvents(t *testing.T, tsURL, gameID, token string) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(tsURL, "http") +
		"/api/games/" + gameID + "/events?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", wsURL, err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestEventFeedStreamsGameEvents(t *testing.T) {
	_, ts := newTestServer(t)

	alice := login(t, ts, "Alice")
	bob := login(t, ts, "Bob")
	gameID := createGame(t, ts, alice.Token)

	conn := dialEvents(t, ts.URL, gameID, alice.Token)

	var joined map[string]uint32
	resp := doJSON(t, http.MethodPost, ts.URL+"/api/games/"+gameID+"/join", bob.Token,
		joinRequest{Race: "terran"}, &joined)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("join: status %d", resp.StatusCode)
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var ev wireEvent
	if err := conn.ReadJSON(&ev); err != nil {
		t.Fatalf("read event: %v", err)
	}
	if ev.Type != "player_joined" || ev.GameID != gameID {
		t.Fatalf("event = %+v", ev)
	}
	if ev.EmpireID == nil || *ev.EmpireID != joined["empire_id"] {
		t.Fatalf("event empire = %v, want %d", ev.EmpireID, joined["empire_id"])
	}
}

func TestEventFeedRequiresAuth(t *testing.T) {
	_, ts := newTestServer(t)
	alice := login(t, ts, "Alice")
	gameID := createGame(t, ts, alice.Token)

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/games/" + gameID + "/events"
	_, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err == nil {
		t.Fatal("dial without token succeeded")
	}
	if resp == nil || resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 handshake rejection, got %+v", resp)
	}
}

func TestEventFeedUnknownGame(t *testing.T) {
	_, ts := newTestServer(t)
	alice := login(t, ts, "Alice")

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") +
		"/api/games/nope/events?token=" + alice.Token
	_, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err == nil {
		t.Fatal("dial for unknown game succeeded")
	}
	if resp == nil || resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 handshake rejection, got %+v", resp)
	}
}
