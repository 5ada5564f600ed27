package registry

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/opd-ai/go-stellar/pkg/config"
	"github.com/opd-ai/go-stellar/pkg/engine"
	"github.com/opd-ai/go-stellar/pkg/store"
)

func testRegistry(t *testing.T) *Registry {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "stellar.db"))
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return New(st, nil, nil, nil)
}

func testCfg() *config.GameConfig {
	cfg := config.DefaultConfig()
	cfg.Seed = 42
	return cfg
}

func TestCreateAndGet(t *testing.T) {
	r := testRegistry(t)
	ctx := context.Background()

	created, err := r.CreateGame(ctx, "g-1", "First Game", testCfg())
	if err != nil {
		t.Fatalf("CreateGame: %v", err)
	}

	got, err := r.Get(ctx, "g-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != created {
		t.Error("Get should return the same live instance")
	}
	if r.LiveCount() != 1 {
		t.Errorf("live count = %d, want 1", r.LiveCount())
	}
}

func TestGetUnknownGame(t *testing.T) {
	r := testRegistry(t)
	if _, err := r.Get(context.Background(), "missing"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateWritesThrough(t *testing.T) {
	r := testRegistry(t)
	ctx := context.Background()

	if _, err := r.CreateGame(ctx, "g-1", "First Game", testCfg()); err != nil {
		t.Fatal(err)
	}

	err := r.Update(ctx, "g-1", func(g *engine.Game) error {
		_, err := g.AddPlayer(7, "Keeper", "terran")
		return err
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}

	// Evict and reload: the join must have been persisted.
	r.Evict("g-1")
	if r.LiveCount() != 0 {
		t.Fatal("evict should empty the registry")
	}
	reloaded, err := r.Get(ctx, "g-1")
	if err != nil {
		t.Fatalf("Get after evict: %v", err)
	}
	if _, ok := reloaded.EmpireByUser(7); !ok {
		t.Error("player join was not persisted through the store")
	}
}

func TestUpdateErrorSkipsSave(t *testing.T) {
	r := testRegistry(t)
	ctx := context.Background()

	if _, err := r.CreateGame(ctx, "g-1", "First Game", testCfg()); err != nil {
		t.Fatal(err)
	}

	boom := errors.New("boom")
	err := r.Update(ctx, "g-1", func(g *engine.Game) error {
		if _, err := g.AddPlayer(7, "Keeper", "terran"); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected fn error, got %v", err)
	}

	// The store still holds the pre-update snapshot.
	r.Evict("g-1")
	reloaded, err := r.Get(ctx, "g-1")
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := reloaded.EmpireByUser(7); ok {
		t.Error("failed update must not be persisted")
	}
}

func TestRestoredGameKeepsPlaying(t *testing.T) {
	r := testRegistry(t)
	ctx := context.Background()

	if _, err := r.CreateGame(ctx, "g-1", "First Game", testCfg()); err != nil {
		t.Fatal(err)
	}
	err := r.Update(ctx, "g-1", func(g *engine.Game) error {
		if _, err := g.AddPlayer(7, "Keeper", "terran"); err != nil {
			return err
		}
		if _, err := g.AddPlayer(8, "Rival", "klackon"); err != nil {
			return err
		}
		return g.StartGame()
	})
	if err != nil {
		t.Fatal(err)
	}

	r.Evict("g-1")
	err = r.Update(ctx, "g-1", func(g *engine.Game) error {
		return g.ProcessTurn()
	})
	if err != nil {
		t.Fatalf("ProcessTurn on restored game: %v", err)
	}

	g, err := r.Get(ctx, "g-1")
	if err != nil {
		t.Fatal(err)
	}
	if g.TurnNumber != 2 {
		t.Errorf("turn = %d, want 2", g.TurnNumber)
	}
}
