// Package scheduler drives turn processing. On each tick it sweeps the
// store for in-progress games past their deadline, handles their
// timeouts, and processes their turns; games whose active empires have
// all submitted are processed without waiting for the deadline.
package scheduler

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/sony/gobreaker"

	"github.com/opd-ai/go-stellar/pkg/config"
	"github.com/opd-ai/go-stellar/pkg/engine"
	"github.com/opd-ai/go-stellar/pkg/logging"
	"github.com/opd-ai/go-stellar/pkg/metrics"
	"github.com/opd-ai/go-stellar/pkg/registry"
	"github.com/opd-ai/go-stellar/pkg/store"
)

// Scheduler periodically advances games. Create one per process.
type Scheduler struct {
	registry *registry.Registry
	store    *store.Store
	metrics  *metrics.Metrics
	log      *logging.Logger
	breaker  *gobreaker.CircuitBreaker
	interval time.Duration
	running  atomic.Bool
}

// Running reports whether the tick loop is active. Readiness checks use
// this to hold traffic until the scheduler is up.
func (s *Scheduler) Running() bool {
	return s.running.Load()
}

// New creates a scheduler. The circuit breaker protects game
// persistence: when saves fail repeatedly, processing pauses instead of
// advancing turns that cannot be recorded.
func New(reg *registry.Registry, st *store.Store, m *metrics.Metrics, envConfig *config.EnvironmentConfig) *Scheduler {
	log := logging.NewLogger()

	settings := gobreaker.Settings{
		Name:        "stellar-persistence",
		MaxRequests: envConfig.CircuitBreakerMaxRequests,
		Interval:    envConfig.CircuitBreakerInterval,
		Timeout:     envConfig.CircuitBreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= envConfig.CircuitBreakerMaxConsecutiveFails
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Info(context.Background(), "circuit breaker state changed",
				"name", name,
				"from", from,
				"to", to,
			)
		},
	}

	return &Scheduler{
		registry: reg,
		store:    st,
		metrics:  m,
		log:      log,
		breaker:  gobreaker.NewCircuitBreaker(settings),
		interval: envConfig.SchedulerInterval,
	}
}

// Run ticks until the context is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.running.Store(true)
	defer s.running.Store(false)

	s.log.Info(ctx, "scheduler started", "interval", s.interval)
	for {
		select {
		case <-ctx.Done():
			s.log.Info(ctx, "scheduler stopped")
			return
		case <-ticker.C:
			s.Tick(ctx)
		}
	}
}

// Tick runs one scheduling pass.
func (s *Scheduler) Tick(ctx context.Context) {
	overdue, err := s.store.GamesPastDeadline(ctx, time.Now())
	if err != nil {
		s.log.Error(ctx, "deadline sweep failed", err)
		overdue = nil
	}

	due := make(map[string]bool, len(overdue))
	for _, id := range overdue {
		due[id] = true
		s.advance(ctx, id, true)
	}
	for _, id := range s.registry.LiveIDs() {
		if !due[id] {
			s.advance(ctx, id, false)
		}
	}

	if s.metrics != nil {
		s.metrics.ActiveGames.Set(float64(s.registry.LiveCount()))
	}
}

// advance handles one game: timeout bookkeeping when the deadline has
// passed, then turn processing when the deadline forces it or every
// active empire has submitted. The whole step runs through the breaker
// so a failing store halts turn advancement.
func (s *Scheduler) advance(ctx context.Context, id string, pastDeadline bool) {
	// Cheap pre-check so idle games are not re-persisted every tick.
	// Update re-checks under the writer lock.
	if !pastDeadline {
		g, err := s.registry.Get(ctx, id)
		if err != nil || g.Status != engine.StatusInProgress || !g.AllOrdersSubmitted() {
			return
		}
	}

	_, err := s.breaker.Execute(func() (any, error) {
		return nil, s.registry.Update(ctx, id, func(g *engine.Game) error {
			if g.Status != engine.StatusInProgress {
				return nil
			}

			if pastDeadline {
				g.CheckTimeouts()
			} else if !g.AllOrdersSubmitted() {
				return nil
			}

			start := time.Now()
			if err := g.ProcessTurn(); err != nil {
				return err
			}
			if s.metrics != nil {
				s.metrics.TurnDuration.Observe(time.Since(start).Seconds())
			}
			s.log.Info(ctx, "turn processed",
				"game_id", id,
				"turn", g.TurnNumber,
				"status", string(g.Status),
			)
			return nil
		})
	})
	if err != nil {
		if s.metrics != nil {
			s.metrics.SaveFailures.Inc()
		}
		s.log.Error(ctx, "game advance failed", err, "game_id", id)
	}
}
