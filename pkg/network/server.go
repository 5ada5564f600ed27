// Package network is the HTTP and websocket surface of the go-stellar
// server: game lifecycle endpoints, order submission, JWT-backed
// identity, per-IP rate limiting, and event streaming for observers.
package network

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/opd-ai/go-stellar/pkg/config"
	"github.com/opd-ai/go-stellar/pkg/engine"
	"github.com/opd-ai/go-stellar/pkg/empire"
	"github.com/opd-ai/go-stellar/pkg/health"
	"github.com/opd-ai/go-stellar/pkg/logging"
	"github.com/opd-ai/go-stellar/pkg/metrics"
	"github.com/opd-ai/go-stellar/pkg/registry"
	"github.com/opd-ai/go-stellar/pkg/store"
	"github.com/opd-ai/go-stellar/pkg/tech"
	"github.com/opd-ai/go-stellar/pkg/validation"
)

// Server is the HTTP server over the registry and store.
type Server struct {
	registry *registry.Registry
	store    *store.Store
	metrics  *metrics.Metrics
	checker  *health.HealthChecker
	tokens   *TokenIssuer
	limiter  *validation.RateLimiter
	log      *logging.Logger
	hub      *eventHub

	httpServer *http.Server
}

// NewServer wires the routes. The health checker may carry any checks
// the caller registered; /metrics is nil-safe and omitted without a
// metrics instance.
func NewServer(reg *registry.Registry, st *store.Store, m *metrics.Metrics, checker *health.HealthChecker, envConfig *config.EnvironmentConfig) *Server {
	s := &Server{
		registry: reg,
		store:    st,
		metrics:  m,
		checker:  checker,
		tokens:   NewTokenIssuer(envConfig.JWTSecret),
		limiter:  validation.NewRateLimiter(envConfig.RateLimitPerSecond, envConfig.RateLimitBurst),
		log:      logging.NewLogger(),
		hub:      newEventHub(),
	}

	router := mux.NewRouter()
	router.Use(s.correlationMiddleware, s.rateLimitMiddleware)

	router.HandleFunc("/healthz", checker.LivenessHandler).Methods(http.MethodGet)
	router.HandleFunc("/readyz", checker.ReadinessHandler).Methods(http.MethodGet)
	if m != nil {
		router.Handle("/metrics", m.Handler()).Methods(http.MethodGet)
	}

	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/login", s.handleLogin).Methods(http.MethodPost)
	api.HandleFunc("/races", s.handleListRaces).Methods(http.MethodGet)
	api.HandleFunc("/games", s.handleListGames).Methods(http.MethodGet)

	authed := api.NewRoute().Subrouter()
	authed.Use(s.authMiddleware)
	authed.HandleFunc("/games", s.handleCreateGame).Methods(http.MethodPost)
	authed.HandleFunc("/my/games", s.handleMyGames).Methods(http.MethodGet)
	authed.HandleFunc("/games/{id}", s.handleGameState).Methods(http.MethodGet)
	authed.HandleFunc("/games/{id}/join", s.handleJoinGame).Methods(http.MethodPost)
	authed.HandleFunc("/games/{id}/start", s.handleStartGame).Methods(http.MethodPost)
	authed.HandleFunc("/games/{id}/orders", s.handleSubmitOrders).Methods(http.MethodPost)
	authed.HandleFunc("/games/{id}/events", s.handleEvents).Methods(http.MethodGet)

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", envConfig.ServerAddr, envConfig.ServerPort),
		Handler:      router,
		ReadTimeout:  envConfig.ReadTimeout,
		WriteTimeout: envConfig.WriteTimeout,
	}
	return s
}

// Handler exposes the routed handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// ListenAndServe runs the server until Shutdown.
func (s *Server) ListenAndServe() error {
	s.log.Info(context.Background(), "server listening", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown drains in-flight requests and stops the rate limiter's
// eviction loop.
func (s *Server) Shutdown(ctx context.Context) error {
	s.limiter.Close()
	return s.httpServer.Shutdown(ctx)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeGameError maps engine and store errors onto HTTP statuses.
func writeGameError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound), errors.Is(err, engine.ErrUnknownEmpire):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, engine.ErrGameFull),
		errors.Is(err, engine.ErrAlreadyStarted),
		errors.Is(err, engine.ErrNotStarted),
		errors.Is(err, engine.ErrGameCompleted):
		writeError(w, http.StatusConflict, err.Error())
	default:
		writeError(w, http.StatusBadRequest, err.Error())
	}
}

type loginRequest struct {
	Username string `json:"username"`
}

type loginResponse struct {
	Token    string `json:"token"`
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed body")
		return
	}
	username, err := validation.ValidateEmpireName(req.Username)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	userID := userIDFor(username)
	token, err := s.tokens.Issue(userID, username)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "could not issue token")
		return
	}
	writeJSON(w, http.StatusOK, loginResponse{Token: token, UserID: userID, Username: username})
}

func (s *Server) handleListRaces(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, empire.AllRaces())
}

type createGameRequest struct {
	Name       string `json:"name"`
	GalaxySize string `json:"galaxy_size,omitempty"`
	MaxPlayers int    `json:"max_players,omitempty"`
	Seed       uint64 `json:"seed,omitempty"`
}

func (s *Server) handleCreateGame(w http.ResponseWriter, r *http.Request) {
	var req createGameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed body")
		return
	}

	cfg := config.DefaultConfig()
	if req.Name != "" {
		cfg.Name = req.Name
	}
	if req.GalaxySize != "" {
		cfg.GalaxySize = req.GalaxySize
	}
	if req.MaxPlayers != 0 {
		cfg.MaxPlayers = req.MaxPlayers
	}
	cfg.Seed = req.Seed

	id := uuid.NewString()
	if _, err := s.registry.CreateGame(r.Context(), id, cfg.Name, cfg); err != nil {
		writeGameError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": id, "name": cfg.Name})
}

func (s *Server) handleListGames(w http.ResponseWriter, r *http.Request) {
	games, err := s.store.ListOpenGames(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "listing failed")
		return
	}
	if games == nil {
		games = []store.OpenGame{}
	}
	writeJSON(w, http.StatusOK, games)
}

func (s *Server) handleMyGames(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFrom(r.Context())
	games, err := s.store.ListUserGames(r.Context(), claims.UserID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "listing failed")
		return
	}
	if games == nil {
		games = []store.GameSummary{}
	}
	writeJSON(w, http.StatusOK, games)
}

func (s *Server) handleGameState(w http.ResponseWriter, r *http.Request) {
	game, err := s.registry.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeGameError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, game.Snapshot())
}

type joinRequest struct {
	Race string `json:"race"`
}

func (s *Server) handleJoinGame(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFrom(r.Context())
	gameID := mux.Vars(r)["id"]

	var req joinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed body")
		return
	}

	var empireID uint32
	err := s.registry.Update(r.Context(), gameID, func(g *engine.Game) error {
		var err error
		empireID, err = g.AddPlayer(claims.UserID, claims.Username, req.Race)
		return err
	})
	if err != nil {
		writeGameError(w, err)
		return
	}

	if err := s.store.JoinGame(r.Context(), claims.UserID, gameID, empireID); err != nil {
		s.log.Error(r.Context(), "join bookkeeping failed", err, "game_id", gameID)
	}
	writeJSON(w, http.StatusOK, map[string]uint32{"empire_id": empireID})
}

func (s *Server) handleStartGame(w http.ResponseWriter, r *http.Request) {
	gameID := mux.Vars(r)["id"]
	var status engine.Status
	err := s.registry.Update(r.Context(), gameID, func(g *engine.Game) error {
		if err := g.StartGame(); err != nil {
			return err
		}
		status = g.Status
		return nil
	})
	if err != nil {
		writeGameError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": string(status)})
}

type ordersRequest struct {
	ColonyOrders       []empire.ColonyOrders `json:"colony_orders"`
	FleetOrders        []empire.FleetOrders  `json:"fleet_orders"`
	ResearchAllocation map[string]uint32     `json:"research_allocation"`
}

func (s *Server) handleSubmitOrders(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFrom(r.Context())
	gameID := mux.Vars(r)["id"]

	var req ordersRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed body")
		return
	}

	err := s.registry.Update(r.Context(), gameID, func(g *engine.Game) error {
		// The empire id comes from the authenticated user, never from
		// the request body.
		e, ok := g.EmpireByUser(claims.UserID)
		if !ok {
			return fmt.Errorf("%w: user %d has no empire here", engine.ErrUnknownEmpire, claims.UserID)
		}

		orders := empire.NewTurnOrders(e.ID)
		orders.ColonyOrders = req.ColonyOrders
		orders.FleetOrders = req.FleetOrders
		for field, pct := range req.ResearchAllocation {
			orders.ResearchAllocation[tech.Field(field)] = pct
		}
		return g.SubmitOrders(orders)
	})
	if err != nil {
		writeGameError(w, err)
		return
	}

	if err := s.store.TouchPlayer(r.Context(), claims.UserID, gameID); err != nil {
		s.log.Error(r.Context(), "activity bookkeeping failed", err, "game_id", gameID)
	}
	writeJSON(w, http.StatusOK, map[string]bool{"submitted": true})
}
