// Package engine orchestrates the turn lifecycle of a game: joining,
// order submission, timeout handling, and turn processing.
package engine

import (
	"errors"
	"fmt"
	"hash/fnv"
	"sync"
	"time"

	"github.com/opd-ai/go-stellar/pkg/ai"
	"github.com/opd-ai/go-stellar/pkg/combat"
	"github.com/opd-ai/go-stellar/pkg/config"
	"github.com/opd-ai/go-stellar/pkg/empire"
	"github.com/opd-ai/go-stellar/pkg/event"
	"github.com/opd-ai/go-stellar/pkg/galaxy"
	"github.com/opd-ai/go-stellar/pkg/ships"
	"github.com/opd-ai/go-stellar/pkg/tech"
	"github.com/opd-ai/go-stellar/pkg/validation"
)

// Status is the lifecycle state of a game.
type Status string

const (
	StatusWaitingForPlayers Status = "waiting_for_players"
	StatusInProgress        Status = "in_progress"
	StatusCompleted         Status = "completed"
)

// VictoryType says how a completed game ended.
type VictoryType string

const (
	VictoryConquest          VictoryType = "conquest"
	VictoryTechnology        VictoryType = "technology"
	VictoryLastHumanStanding VictoryType = "last_human_standing"
)

var (
	ErrGameFull       = errors.New("game is full")
	ErrAlreadyStarted = errors.New("game has already started")
	ErrNotStarted     = errors.New("game has not started")
	ErrGameCompleted  = errors.New("game is completed")
	ErrUnknownEmpire  = errors.New("unknown empire")
	ErrUnknownRace    = errors.New("unknown race")
)

// OrderGenerator produces a complete order set for an empire from
// read-only snapshots. The same contract drives native AI empires and
// one-off timeout fallback orders.
type OrderGenerator interface {
	GenerateOrders(e *empire.State, g *galaxy.Galaxy, turn uint32) *empire.TurnOrders
}

// GeneratorFactory builds an OrderGenerator for one empire.
type GeneratorFactory func(empireID uint32, profile *empire.AIProfile) OrderGenerator

func defaultGeneratorFactory(empireID uint32, profile *empire.AIProfile) OrderGenerator {
	return ai.NewController(empireID, profile)
}

// Game is the authoritative state of one running game. Order submission
// and timeout checks may be called concurrently; ProcessTurn is the
// sole world mutator and runs under the write lock for its duration.
type Game struct {
	ID     string
	Name   string
	Config *config.GameConfig

	Galaxy  *galaxy.Galaxy
	Empires []*empire.State

	TurnNumber   uint32
	Status       Status
	TurnDeadline time.Time // zero unless in progress

	PendingOrders  map[uint32]*empire.TurnOrders
	BattleReports  []*combat.BattleResult
	WinnerEmpireID *uint32
	VictoryType    VictoryType
	LastMessage    string

	// Empires already given timeout handling this turn. Tracked apart
	// from PendingOrders membership so a late manual submission can
	// supersede fallback orders without undoing the timeout count.
	TimeoutHandled map[uint32]bool

	techTree     *tech.Tree
	eventBus     *event.Bus
	resolver     combat.Resolver
	newGenerator GeneratorFactory
	mu           sync.RWMutex
}

// NewGame creates a game with a freshly generated galaxy. A nil bus or
// factory selects a private bus and the default AI controller. A zero
// config seed derives one from the game ID so recreating a game by ID
// reproduces its galaxy.
func NewGame(id, name string, cfg *config.GameConfig, bus *event.Bus, factory GeneratorFactory) (*Game, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid game config: %w", err)
	}

	settings, err := galaxy.SettingsFor(cfg.GalaxySize)
	if err != nil {
		return nil, err
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = seedFromID(id)
	}

	if bus == nil {
		bus = event.NewEventBus()
	}
	if factory == nil {
		factory = defaultGeneratorFactory
	}

	return &Game{
		ID:             id,
		Name:           name,
		Config:         cfg,
		Galaxy:         galaxy.Generate(settings, seed, cfg.JumpRange),
		Status:         StatusWaitingForPlayers,
		PendingOrders:  make(map[uint32]*empire.TurnOrders),
		TimeoutHandled: make(map[uint32]bool),
		techTree:       tech.NewTree(),
		eventBus:       bus,
		resolver:       combat.NewRoundResolver(seed),
		newGenerator:   factory,
	}, nil
}

func seedFromID(id string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(id))
	return h.Sum64()
}

// EventBus exposes the game's event bus for subscribers.
func (g *Game) EventBus() *event.Bus {
	return g.eventBus
}

// AddPlayer joins a human player to a waiting game. The new empire gets
// a starting colony and fleet at the best available homeworld; if no
// eligible star exists the empire is still created, colonyless.
func (g *Game) AddPlayer(userID int64, name, raceKey string) (uint32, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.Status != StatusWaitingForPlayers {
		return 0, ErrAlreadyStarted
	}
	if len(g.Empires) >= g.Config.MaxPlayers {
		return 0, ErrGameFull
	}

	cleanName, err := validation.ValidateEmpireName(name)
	if err != nil {
		return 0, fmt.Errorf("invalid empire name: %w", err)
	}
	race, ok := empire.RaceByKey(raceKey)
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownRace, raceKey)
	}

	empireID := uint32(len(g.Empires))
	e := empire.NewEmpire(empireID, userID, cleanName, race.Key, race.Color)
	g.placeEmpire(e)

	g.Empires = append(g.Empires, e)
	g.eventBus.Publish(event.NewEmpireEvent(event.PlayerJoined, g, g.ID, empireID, g.TurnNumber))
	return empireID, nil
}

// AddAIEmpire seeds a computer-controlled empire into a waiting game.
func (g *Game) AddAIEmpire(name, raceKey string) (uint32, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.Status != StatusWaitingForPlayers {
		return 0, ErrAlreadyStarted
	}
	if len(g.Empires) >= g.Config.MaxPlayers {
		return 0, ErrGameFull
	}

	race, ok := empire.RaceByKey(raceKey)
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownRace, raceKey)
	}

	empireID := uint32(len(g.Empires))
	e := empire.NewAIEmpire(empireID, name, race.Key, race.Color, g.empireSeed(empireID))
	g.placeEmpire(e)

	g.Empires = append(g.Empires, e)
	g.eventBus.Publish(event.NewEmpireEvent(event.PlayerJoined, g, g.ID, empireID, g.TurnNumber))
	return empireID, nil
}

// empireSeed derives a stable per-empire seed from the galaxy seed.
func (g *Game) empireSeed(empireID uint32) uint64 {
	return g.Galaxy.Seed + uint64(empireID)*7919
}

// placeEmpire gives a new empire its starting colony, fleet, and star.
func (g *Game) placeEmpire(e *empire.State) {
	star := g.findStartingStar()
	if star == nil {
		return
	}

	e.Colonies = append(e.Colonies, empire.NewColony(star.ID, star.Planet.MaxPopulation))
	e.AddKnownStar(star.ID)

	fleet := newStarterFleet(e, star.ID)
	e.Fleets = append(e.Fleets, fleet)

	star.Owned = true
	star.Owner = e.ID
}

// findStartingStar picks the best unclaimed homeworld: colonizable
// without technology and at least the configured separation from every
// existing colony. Returns nil when none qualifies.
func (g *Game) findStartingStar() *galaxy.Star {
	var ownedStars []uint32
	for _, e := range g.Empires {
		for _, c := range e.Colonies {
			ownedStars = append(ownedStars, c.StarID)
		}
	}

	var best *galaxy.Star
	for i := range g.Galaxy.Stars {
		s := &g.Galaxy.Stars[i]
		if s.Owned {
			continue
		}
		switch s.Planet.Type {
		case galaxy.Terran, galaxy.Ocean, galaxy.Arid:
		default:
			continue
		}

		farEnough := true
		for _, ownedID := range ownedStars {
			if d, ok := g.Galaxy.Distance(s.ID, ownedID); ok && d <= g.Config.MinHomeworldSeparation {
				farEnough = false
				break
			}
		}
		if !farEnough {
			continue
		}

		if best == nil || s.Planet.MaxPopulation > best.Planet.MaxPopulation {
			best = s
		}
	}
	return best
}

// newStarterFleet builds the fixed starting fleet: two scouts and one
// colony ship.
func newStarterFleet(e *empire.State, starID uint32) *ships.Fleet {
	fleet := ships.NewFleet(e.NextFleetID(), e.ID, "Home Fleet", starID)
	fleet.AddShips(0, 2)
	fleet.AddShips(1, 1)
	return fleet
}

// StartGame moves a waiting game with at least two empires into
// progress at turn 1. With fewer empires it is a silent no-op: the
// game is validly still waiting.
func (g *Game) StartGame() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.Status != StatusWaitingForPlayers {
		return ErrAlreadyStarted
	}
	if len(g.Empires) < 2 {
		return nil
	}

	g.Status = StatusInProgress
	g.TurnNumber = 1
	g.TurnDeadline = time.Now().Add(time.Duration(g.Config.TurnTimeoutHours) * time.Hour)
	g.eventBus.Publish(event.NewTurnEvent(event.GameStarted, g, g.ID, g.TurnNumber))
	return nil
}

// SubmitOrders upserts an empire's orders for the current turn. Last
// write wins; resubmission before processing replaces the earlier set,
// including AI fallback orders, without touching timeout bookkeeping.
func (g *Game) SubmitOrders(orders *empire.TurnOrders) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	switch g.Status {
	case StatusWaitingForPlayers:
		return ErrNotStarted
	case StatusCompleted:
		return ErrGameCompleted
	}

	e := g.empireByID(orders.EmpireID)
	if e == nil {
		return fmt.Errorf("%w: %d", ErrUnknownEmpire, orders.EmpireID)
	}

	if err := validateOrders(e, orders); err != nil {
		return err
	}

	orders.Submitted = true
	e.LastActiveTurn = g.TurnNumber
	g.PendingOrders[orders.EmpireID] = orders
	g.eventBus.Publish(event.NewEmpireEvent(event.OrdersSubmitted, g, g.ID, orders.EmpireID, g.TurnNumber))
	return nil
}

func validateOrders(e *empire.State, orders *empire.TurnOrders) error {
	alloc := make(map[string]uint32, len(orders.ResearchAllocation))
	for field, pct := range orders.ResearchAllocation {
		alloc[string(field)] = pct
	}
	if err := validation.ValidateResearchAllocation(alloc, tech.FieldNames()); err != nil {
		return err
	}
	for _, co := range orders.ColonyOrders {
		if err := validation.ValidateBuildQueueLen(len(co.BuildQueue)); err != nil {
			return err
		}
		// Queue items must name a catalog building or one of the
		// empire's own ship designs.
		for _, item := range co.BuildQueue {
			if !empire.Building(item).IsKnown() && designByName(e, item) == nil {
				return fmt.Errorf("unknown build item %q", item)
			}
		}
	}
	return nil
}

// AllOrdersSubmitted reports whether every active empire has pending
// orders. Forfeited and colonyless empires are excluded: they cannot
// meaningfully act but are not eliminated.
func (g *Game) AllOrdersSubmitted() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()

	for _, e := range g.Empires {
		if !e.IsActive() {
			continue
		}
		if _, ok := g.PendingOrders[e.ID]; !ok {
			return false
		}
	}
	return true
}

// CheckTimeouts handles empires that missed the turn deadline. It is a
// no-op before the deadline and idempotent per turn: an empire is
// handled at most once between two turn advances.
func (g *Game) CheckTimeouts() {
	g.checkTimeoutsAt(time.Now())
}

func (g *Game) checkTimeoutsAt(now time.Time) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.Status != StatusInProgress || g.TurnDeadline.IsZero() || !now.After(g.TurnDeadline) {
		return
	}

	galaxySnap := g.Galaxy.Clone()
	for _, e := range g.Empires {
		if e.IsAI || g.TimeoutHandled[e.ID] {
			continue
		}
		if _, submitted := g.PendingOrders[e.ID]; submitted {
			continue
		}

		g.TimeoutHandled[e.ID] = true
		e.TimeoutCount++
		g.eventBus.Publish(event.NewEmpireEvent(event.EmpireTimedOut, g, g.ID, e.ID, g.TurnNumber))

		if e.TimeoutCount >= g.Config.MaxTimeoutsBeforeForfeit {
			e.ConvertToAI(empire.ReasonTimeoutForfeit, g.empireSeed(e.ID))
			g.eventBus.Publish(event.NewEmpireEvent(event.EmpireForfeited, g, g.ID, e.ID, g.TurnNumber))
			continue
		}

		// One-off fallback orders; the empire stays human-controlled.
		gen := g.newGenerator(e.ID, &empire.AIProfile{
			Personality: empire.PersonalityBalanced,
			Seed:        g.empireSeed(e.ID),
		})
		g.PendingOrders[e.ID] = gen.GenerateOrders(e.Clone(), galaxySnap, g.TurnNumber)
	}
}

// Empire returns the empire with the given ID.
func (g *Game) Empire(empireID uint32) (*empire.State, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	e := g.empireByID(empireID)
	return e, e != nil
}

// EmpireByUser returns the empire owned by a user.
func (g *Game) EmpireByUser(userID int64) (*empire.State, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	for _, e := range g.Empires {
		if !e.IsAI && e.UserID == userID {
			return e, true
		}
	}
	return nil, false
}

func (g *Game) empireByID(empireID uint32) *empire.State {
	for _, e := range g.Empires {
		if e.ID == empireID {
			return e
		}
	}
	return nil
}
