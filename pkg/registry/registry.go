// Package registry keeps live games in memory in front of the store.
// Reads hit memory; every mutation goes back through the store so a
// restart can rebuild any game from its last snapshot.
package registry

import (
	"context"
	"fmt"
	"sync"

	"github.com/opd-ai/go-stellar/pkg/config"
	"github.com/opd-ai/go-stellar/pkg/engine"
	"github.com/opd-ai/go-stellar/pkg/event"
	"github.com/opd-ai/go-stellar/pkg/logging"
	"github.com/opd-ai/go-stellar/pkg/metrics"
	"github.com/opd-ai/go-stellar/pkg/store"
)

// entry pairs a live game with its writer lock. All mutations of one
// game serialize here; the engine's own lock only protects individual
// operations, not read-modify-save sequences.
type entry struct {
	mu   sync.Mutex
	game *engine.Game
}

// Registry is the set of live games.
type Registry struct {
	store   *store.Store
	factory engine.GeneratorFactory
	log     *logging.Logger
	metrics *metrics.Metrics

	mu    sync.RWMutex
	games map[string]*entry
}

// New creates a registry over the given store. A nil factory selects
// the default AI controller for every game; a nil metrics instance
// disables instrumentation.
func New(st *store.Store, factory engine.GeneratorFactory, log *logging.Logger, m *metrics.Metrics) *Registry {
	if log == nil {
		log = logging.NewLogger()
	}
	return &Registry{
		store:   st,
		factory: factory,
		log:     log,
		metrics: m,
		games:   make(map[string]*entry),
	}
}

// newBus builds a game's event bus with metric counters attached.
func (r *Registry) newBus() *event.Bus {
	bus := event.NewEventBus()
	if m := r.metrics; m != nil {
		bus.Subscribe(event.TurnProcessed, func(event.Event) { m.TurnsProcessed.Inc() })
		bus.Subscribe(event.OrdersSubmitted, func(event.Event) { m.OrdersSubmitted.Inc() })
		bus.Subscribe(event.EmpireTimedOut, func(event.Event) { m.Timeouts.Inc() })
		bus.Subscribe(event.EmpireForfeited, func(event.Event) { m.Forfeits.Inc() })
		bus.Subscribe(event.CombatDetected, func(event.Event) { m.Battles.Inc() })
	}
	return bus
}

// CreateGame builds a new game, persists its initial snapshot, and
// registers it live.
func (r *Registry) CreateGame(ctx context.Context, id, name string, cfg *config.GameConfig) (*engine.Game, error) {
	game, err := engine.NewGame(id, name, cfg, r.newBus(), r.factory)
	if err != nil {
		return nil, err
	}
	if r.metrics != nil {
		r.metrics.GamesCreated.Inc()
	}
	if err := r.store.SaveGame(ctx, game.Snapshot()); err != nil {
		return nil, fmt.Errorf("persist new game: %w", err)
	}

	r.mu.Lock()
	r.games[id] = &entry{game: game}
	r.mu.Unlock()

	r.log.Info(ctx, "game created", "game_id", id, "name", name)
	return game, nil
}

// Get returns the live game, loading and registering it from the store
// on a miss.
func (r *Registry) Get(ctx context.Context, id string) (*engine.Game, error) {
	e, err := r.entryFor(ctx, id)
	if err != nil {
		return nil, err
	}
	return e.game, nil
}

func (r *Registry) entryFor(ctx context.Context, id string) (*entry, error) {
	r.mu.RLock()
	e, ok := r.games[id]
	r.mu.RUnlock()
	if ok {
		return e, nil
	}

	snap, err := r.store.LoadGame(ctx, id)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	// Another caller may have loaded it while we read the store.
	if e, ok := r.games[id]; ok {
		return e, nil
	}
	e = &entry{game: engine.RestoreGame(snap, r.newBus(), r.factory)}
	r.games[id] = e
	r.log.Info(ctx, "game restored from store", "game_id", id, "turn", snap.TurnNumber)
	return e, nil
}

// Update runs fn against the game under its writer lock and, when fn
// succeeds, persists the resulting snapshot. The game is exactly as
// persisted when Update returns.
func (r *Registry) Update(ctx context.Context, id string, fn func(*engine.Game) error) error {
	e, err := r.entryFor(ctx, id)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if err := fn(e.game); err != nil {
		return err
	}
	if err := r.store.SaveGame(ctx, e.game.Snapshot()); err != nil {
		return fmt.Errorf("persist game %s: %w", id, err)
	}
	return nil
}

// Save persists a game's current snapshot without mutating it.
func (r *Registry) Save(ctx context.Context, id string) error {
	return r.Update(ctx, id, func(*engine.Game) error { return nil })
}

// Evict drops a game from memory. Its snapshot stays in the store.
func (r *Registry) Evict(id string) {
	r.mu.Lock()
	delete(r.games, id)
	r.mu.Unlock()
}

// LiveCount returns how many games are resident in memory.
func (r *Registry) LiveCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.games)
}

// LiveIDs returns the ids of games resident in memory.
func (r *Registry) LiveIDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.games))
	for id := range r.games {
		ids = append(ids, id)
	}
	return ids
}
