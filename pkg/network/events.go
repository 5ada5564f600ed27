package network

import (
	"net/http"
	"sync"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/opd-ai/go-stellar/pkg/event"
)

// wireEvent is the JSON shape streamed to websocket observers. Engine
// events carry a pointer back to the live game as their source; only
// the scalar fields cross the wire.
type wireEvent struct {
	Type        string  `json:"type"`
	GameID      string  `json:"game_id"`
	Turn        uint32  `json:"turn,omitempty"`
	EmpireID    *uint32 `json:"empire_id,omitempty"`
	StarID      *uint32 `json:"star_id,omitempty"`
	OldEmpireID *uint32 `json:"old_empire_id,omitempty"`
	Field       string  `json:"field,omitempty"`
	Level       uint8   `json:"level,omitempty"`
	WinnerID    *uint32 `json:"winner_id,omitempty"`
	Condition   string  `json:"condition,omitempty"`
}

func toWire(ev event.Event) (wireEvent, bool) {
	switch e := ev.(type) {
	case *event.EmpireEvent:
		id := e.EmpireID
		return wireEvent{Type: string(e.GetType()), GameID: e.GameID, Turn: e.Turn, EmpireID: &id}, true
	case *event.TurnEvent:
		return wireEvent{Type: string(e.GetType()), GameID: e.GameID, Turn: e.Turn}, true
	case *event.StarEvent:
		empireID, starID, oldID := e.EmpireID, e.StarID, e.OldEmpireID
		return wireEvent{Type: string(e.GetType()), GameID: e.GameID, EmpireID: &empireID, StarID: &starID, OldEmpireID: &oldID}, true
	case *event.ResearchEvent:
		id := e.EmpireID
		return wireEvent{Type: string(e.GetType()), GameID: e.GameID, EmpireID: &id, Field: e.Field, Level: e.Level}, true
	case *event.GameEndedEvent:
		return wireEvent{Type: string(e.GetType()), GameID: e.GameID, WinnerID: e.WinnerID, Condition: e.Condition}, true
	default:
		return wireEvent{}, false
	}
}

// streamedTypes are the event types forwarded to observers.
var streamedTypes = []event.Type{
	event.PlayerJoined,
	event.GameStarted,
	event.OrdersSubmitted,
	event.EmpireTimedOut,
	event.EmpireForfeited,
	event.TurnProcessed,
	event.CombatDetected,
	event.Breakthrough,
	event.StarColonized,
	event.FleetOrderRejected,
	event.GameEnded,
}

// feedConn buffers outbound events for one websocket client. A client
// that falls sendBuffer events behind is dropped instead of stalling
// the game's event bus.
type feedConn struct {
	send chan wireEvent
}

const sendBuffer = 64

// gameFeed fans a game's bus out to its websocket observers. A game
// restored from the store gets a fresh bus, so the feed tracks which
// buses it has already hooked.
type gameFeed struct {
	mu    sync.Mutex
	conns map[*feedConn]struct{}
	buses map[*event.Bus]struct{}
}

func (f *gameFeed) attachBus(bus *event.Bus) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.buses[bus]; ok {
		return
	}
	f.buses[bus] = struct{}{}
	for _, t := range streamedTypes {
		bus.Subscribe(t, f.broadcast)
	}
}

func (f *gameFeed) broadcast(ev event.Event) {
	we, ok := toWire(ev)
	if !ok {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for c := range f.conns {
		select {
		case c.send <- we:
		default:
			delete(f.conns, c)
			close(c.send)
		}
	}
}

func (f *gameFeed) attach(c *feedConn) {
	f.mu.Lock()
	f.conns[c] = struct{}{}
	f.mu.Unlock()
}

func (f *gameFeed) detach(c *feedConn) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.conns[c]; ok {
		delete(f.conns, c)
		close(c.send)
	}
}

type eventHub struct {
	mu    sync.Mutex
	feeds map[string]*gameFeed
}

func newEventHub() *eventHub {
	return &eventHub{feeds: make(map[string]*gameFeed)}
}

func (h *eventHub) feedFor(gameID string) *gameFeed {
	h.mu.Lock()
	defer h.mu.Unlock()
	f, ok := h.feeds[gameID]
	if !ok {
		f = &gameFeed{
			conns: make(map[*feedConn]struct{}),
			buses: make(map[*event.Bus]struct{}),
		}
		h.feeds[gameID] = f
	}
	return f
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// handleEvents upgrades the connection and streams the game's events
// until the client disconnects.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	gameID := mux.Vars(r)["id"]
	game, err := s.registry.Get(r.Context(), gameID)
	if err != nil {
		writeGameError(w, err)
		return
	}

	feed := s.hub.feedFor(gameID)
	feed.attachBus(game.EventBus())

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Error(r.Context(), "websocket upgrade failed", err, "game_id", gameID)
		return
	}

	c := &feedConn{send: make(chan wireEvent, sendBuffer)}
	feed.attach(c)

	go func() {
		defer conn.Close()
		for we := range c.send {
			if err := conn.WriteJSON(we); err != nil {
				feed.detach(c)
				return
			}
		}
	}()

	// Drain inbound frames so close handshakes are noticed; observers
	// have nothing to say.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			feed.detach(c)
			return
		}
	}
}
