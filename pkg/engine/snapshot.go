package engine

import (
	"time"

	"github.com/opd-ai/go-stellar/pkg/combat"
	"github.com/opd-ai/go-stellar/pkg/config"
	"github.com/opd-ai/go-stellar/pkg/empire"
	"github.com/opd-ai/go-stellar/pkg/event"
	"github.com/opd-ai/go-stellar/pkg/galaxy"
	"github.com/opd-ai/go-stellar/pkg/tech"
)

// Snapshot is the full serializable value of a game. Restoring a
// snapshot and feeding it identical future orders produces identical
// subsequent states: the combat and AI random streams derive from
// seeds stored in the snapshot itself.
type Snapshot struct {
	ID     string             `json:"id"`
	Name   string             `json:"name"`
	Config *config.GameConfig `json:"config"`

	Galaxy  *galaxy.Galaxy  `json:"galaxy"`
	Empires []*empire.State `json:"empires"`

	TurnNumber   uint32    `json:"turn_number"`
	Status       Status    `json:"status"`
	TurnDeadline time.Time `json:"turn_deadline,omitempty"`

	PendingOrders  map[uint32]*empire.TurnOrders `json:"pending_orders"`
	BattleReports  []*combat.BattleResult        `json:"battle_reports,omitempty"`
	WinnerEmpireID *uint32                       `json:"winner_empire_id,omitempty"`
	VictoryType    VictoryType                   `json:"victory_type,omitempty"`
	LastMessage    string                        `json:"last_message,omitempty"`
	TimeoutHandled map[uint32]bool               `json:"timeout_handled,omitempty"`
}

// Snapshot captures the game's current value. The caller may serialize
// the result; it shares no mutable state with the live game.
func (g *Game) Snapshot() *Snapshot {
	g.mu.RLock()
	defer g.mu.RUnlock()

	cfg := *g.Config
	empires := make([]*empire.State, len(g.Empires))
	for i, e := range g.Empires {
		empires[i] = e.Clone()
	}

	pending := make(map[uint32]*empire.TurnOrders, len(g.PendingOrders))
	for id, orders := range g.PendingOrders {
		cp := *orders
		pending[id] = &cp
	}

	handled := make(map[uint32]bool, len(g.TimeoutHandled))
	for id, v := range g.TimeoutHandled {
		handled[id] = v
	}

	var winner *uint32
	if g.WinnerEmpireID != nil {
		w := *g.WinnerEmpireID
		winner = &w
	}

	return &Snapshot{
		ID:             g.ID,
		Name:           g.Name,
		Config:         &cfg,
		Galaxy:         g.Galaxy.Clone(),
		Empires:        empires,
		TurnNumber:     g.TurnNumber,
		Status:         g.Status,
		TurnDeadline:   g.TurnDeadline,
		PendingOrders:  pending,
		BattleReports:  append([]*combat.BattleResult(nil), g.BattleReports...),
		WinnerEmpireID: winner,
		VictoryType:    g.VictoryType,
		LastMessage:    g.LastMessage,
		TimeoutHandled: handled,
	}
}

// RestoreGame rebuilds a live game from a snapshot. A nil bus or
// factory selects a private bus and the default AI controller, as in
// NewGame.
func RestoreGame(snap *Snapshot, bus *event.Bus, factory GeneratorFactory) *Game {
	if bus == nil {
		bus = event.NewEventBus()
	}
	if factory == nil {
		factory = defaultGeneratorFactory
	}

	pending := snap.PendingOrders
	if pending == nil {
		pending = make(map[uint32]*empire.TurnOrders)
	}
	handled := snap.TimeoutHandled
	if handled == nil {
		handled = make(map[uint32]bool)
	}

	return &Game{
		ID:             snap.ID,
		Name:           snap.Name,
		Config:         snap.Config,
		Galaxy:         snap.Galaxy,
		Empires:        snap.Empires,
		TurnNumber:     snap.TurnNumber,
		Status:         snap.Status,
		TurnDeadline:   snap.TurnDeadline,
		PendingOrders:  pending,
		BattleReports:  snap.BattleReports,
		WinnerEmpireID: snap.WinnerEmpireID,
		VictoryType:    snap.VictoryType,
		LastMessage:    snap.LastMessage,
		TimeoutHandled: handled,
		techTree:       tech.NewTree(),
		eventBus:       bus,
		resolver:       combat.NewRoundResolver(snap.Galaxy.Seed),
		newGenerator:   factory,
	}
}
