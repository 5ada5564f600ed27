// pkg/event/event.go
package event

import (
	"sync"
)

// Type represents the type of event
type Type string

// Common event types
const (
	PlayerJoined       Type = "player_joined"
	GameStarted        Type = "game_started"
	OrdersSubmitted    Type = "orders_submitted"
	EmpireTimedOut     Type = "empire_timed_out"
	EmpireForfeited    Type = "empire_forfeited"
	TurnProcessed      Type = "turn_processed"
	CombatDetected     Type = "combat_detected"
	Breakthrough       Type = "breakthrough"
	StarColonized      Type = "star_colonized"
	FleetOrderRejected Type = "fleet_order_rejected"
	GameEnded          Type = "game_ended"
)

// Event is the base interface for all events
type Event interface {
	GetType() Type
	GetSource() interface{}
}

// BaseEvent provides common functionality for all events
type BaseEvent struct {
	EventType Type
	Source    interface{}
}

// GetType returns the event type
func (e *BaseEvent) GetType() Type {
	return e.EventType
}

// GetSource returns the event source
func (e *BaseEvent) GetSource() interface{} {
	return e.Source
}

// Handler is a function that handles events
type Handler func(Event)

// Bus manages event subscriptions and dispatching
type Bus struct {
	handlers map[Type][]Handler
	mu       sync.RWMutex
}

// NewEventBus creates a new event bus
func NewEventBus() *Bus {
	return &Bus{
		handlers: make(map[Type][]Handler),
	}
}

// Subscribe registers a handler for a specific event type
func (b *Bus) Subscribe(eventType Type, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[eventType] = append(b.handlers[eventType], handler)
}

// Unsubscribe removes a handler for a specific event type
func (b *Bus) Unsubscribe(eventType Type, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	handlers, ok := b.handlers[eventType]
	if !ok {
		return
	}

	// Find and remove the handler
	for i, h := range handlers {
		if &h == &handler {
			b.handlers[eventType] = append(handlers[:i], handlers[i+1:]...)
			break
		}
	}
}

// Publish sends an event to all subscribed handlers
func (b *Bus) Publish(event Event) {
	b.mu.RLock()
	handlers, ok := b.handlers[event.GetType()]
	b.mu.RUnlock()

	if !ok {
		return
	}

	for _, handler := range handlers {
		handler(event)
	}
}

// Specific event implementations

// EmpireEvent carries information about empire lifecycle changes:
// joins, timeouts, forfeitures, eliminations.
type EmpireEvent struct {
	BaseEvent
	GameID   string
	EmpireID uint32
	Turn     uint32
}

// NewEmpireEvent creates a new empire event
func NewEmpireEvent(eventType Type, source interface{}, gameID string, empireID, turn uint32) *EmpireEvent {
	return &EmpireEvent{
		BaseEvent: BaseEvent{
			EventType: eventType,
			Source:    source,
		},
		GameID:   gameID,
		EmpireID: empireID,
		Turn:     turn,
	}
}

// TurnEvent carries information about a completed turn.
type TurnEvent struct {
	BaseEvent
	GameID string
	Turn   uint32
}

// NewTurnEvent creates a new turn event
func NewTurnEvent(eventType Type, source interface{}, gameID string, turn uint32) *TurnEvent {
	return &TurnEvent{
		BaseEvent: BaseEvent{
			EventType: eventType,
			Source:    source,
		},
		GameID: gameID,
		Turn:   turn,
	}
}

// StarEvent carries information about ownership changes at a star:
// colonization, conquest, combat engagements.
type StarEvent struct {
	BaseEvent
	GameID      string
	StarID      uint32
	EmpireID    uint32
	OldEmpireID uint32
}

// NewStarEvent creates a new star event
func NewStarEvent(eventType Type, source interface{}, gameID string, starID, empireID, oldEmpireID uint32) *StarEvent {
	return &StarEvent{
		BaseEvent: BaseEvent{
			EventType: eventType,
			Source:    source,
		},
		GameID:      gameID,
		StarID:      starID,
		EmpireID:    empireID,
		OldEmpireID: oldEmpireID,
	}
}

// ResearchEvent carries information about a technology breakthrough.
type ResearchEvent struct {
	BaseEvent
	GameID   string
	EmpireID uint32
	Field    string
	Level    uint8
}

// NewResearchEvent creates a new research event
func NewResearchEvent(source interface{}, gameID string, empireID uint32, field string, level uint8) *ResearchEvent {
	return &ResearchEvent{
		BaseEvent: BaseEvent{
			EventType: Breakthrough,
			Source:    source,
		},
		GameID:   gameID,
		EmpireID: empireID,
		Field:    field,
		Level:    level,
	}
}

// GameEndedEvent carries the outcome of a finished game. WinnerID is nil
// when the game ended without a winning empire.
type GameEndedEvent struct {
	BaseEvent
	GameID    string
	WinnerID  *uint32
	Condition string
}

// NewGameEndedEvent creates a new game-ended event
func NewGameEndedEvent(source interface{}, gameID string, winnerID *uint32, condition string) *GameEndedEvent {
	return &GameEndedEvent{
		BaseEvent: BaseEvent{
			EventType: GameEnded,
			Source:    source,
		},
		GameID:    gameID,
		WinnerID:  winnerID,
		Condition: condition,
	}
}
