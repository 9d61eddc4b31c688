// Package server exposes matches over HTTP and websockets: REST for
// actions and snapshots, a websocket stream for live events, Prometheus
// metrics and an optional PostgreSQL archive.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/pokefree/ptcg-sim-go/internal/catalog"
	"github.com/pokefree/ptcg-sim-go/internal/config"
	"github.com/pokefree/ptcg-sim-go/internal/game"
	"github.com/pokefree/ptcg-sim-go/internal/repository"
)

// Server wires the match manager, websocket hub and archive behind a
// chi router.
type Server struct {
	cfg       config.ServerConfig
	logger    *zap.Logger
	catalog   *catalog.Catalog
	manager   *Manager
	hub       *Hub
	metrics   *Metrics
	db        *repository.DB
	store     *repository.MatchStore
	adminHash string
	router    chi.Router
}

// New builds the server. db may be nil for catalog-from-file deployments.
func New(cfg *config.Config, logger *zap.Logger, cat *catalog.Catalog,
	recorder *game.ReplayRecorder, db *repository.DB) *Server {
	s := &Server{
		cfg:       cfg.Server,
		logger:    logger,
		catalog:   cat,
		db:        db,
		adminHash: cfg.Auth.AdminPasswordHash,
	}
	if cfg.Server.MetricsEnabled {
		s.metrics = NewMetrics()
	}
	s.hub = NewHub(logger, s.metrics)
	if db != nil {
		s.store = repository.NewMatchStore(db, logger)
	}
	s.manager = NewManager(logger, cat, recorder, s.store, s.hub, s.metrics, cfg.Server.MaxMatches)
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)
	if s.metrics != nil {
		r.Use(s.metrics.Middleware)
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}

	r.Get("/healthz", s.handleHealth)

	r.Route("/api/matches", func(r chi.Router) {
		r.Post("/", s.handleCreateMatch)
		r.Route("/{matchID}", func(r chi.Router) {
			r.Get("/view", s.handleView)
			r.Get("/legal", s.handleLegal)
			r.Get("/events", s.handleEvents)
			r.Get("/hints", s.handleHints)
			r.Post("/actions", s.handleAction)
			r.Delete("/", s.handleClose)
		})
	})
	if s.store != nil {
		r.Get("/api/archive", s.handleArchive)
	}

	r.Get("/ws/matches/{matchID}", s.handleWS)
	return r
}

// Handler exposes the router, mostly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until ctx is cancelled, then drains with the configured
// shutdown timeout.
func (s *Server) Run(ctx context.Context) error {
	go s.hub.Run()

	srv := &http.Server{
		Addr:              s.cfg.Address,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", zap.String("address", s.cfg.Address))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	s.logger.Info("shutting down http server")
	return srv.Shutdown(shutdownCtx)
}

type createMatchRequest struct {
	Seed       int64                `json:"seed,omitempty"`
	PlayerName string               `json:"player_name,omitempty"`
	AIPolicy   string               `json:"ai_policy,omitempty"`
	Decks      [2][]catalog.ID      `json:"decks,omitempty"`
	DeckLists  [2]*catalog.DeckList `json:"deck_lists,omitempty"`
}

type createMatchResponse struct {
	MatchID string          `json:"match_id"`
	View    *game.MatchView `json:"view"`
}

func (s *Server) handleCreateMatch(w http.ResponseWriter, r *http.Request) {
	var req createMatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}

	switch req.AIPolicy {
	case "", "greedy", "random":
	default:
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("unknown ai policy %q", req.AIPolicy))
		return
	}

	decks := req.Decks
	for i, list := range req.DeckLists {
		if list == nil {
			continue
		}
		ids, err := s.catalog.Resolve(list)
		if err != nil {
			s.writeError(w, http.StatusUnprocessableEntity, err)
			return
		}
		decks[i] = ids
	}
	if len(decks[0]) == 0 || len(decks[1]) == 0 {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("both decks are required"))
		return
	}

	session, view, err := s.manager.Create(CreateParams{
		Seed:       req.Seed,
		PlayerName: req.PlayerName,
		AIPolicy:   req.AIPolicy,
		Decks:      decks,
	})
	if err != nil {
		s.writeError(w, statusFor(err), err)
		return
	}
	s.writeJSON(w, http.StatusCreated, createMatchResponse{MatchID: session.ID, View: view})
}

func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	seat, err := seatParam(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	view, err := s.manager.View(chi.URLParam(r, "matchID"), seat)
	if err != nil {
		s.writeError(w, statusFor(err), err)
		return
	}
	s.writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleLegal(w http.ResponseWriter, r *http.Request) {
	seat, err := seatParam(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	legal, err := s.manager.Legal(chi.URLParam(r, "matchID"), seat)
	if err != nil {
		s.writeError(w, statusFor(err), err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"actions": legal})
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	since := 0
	if raw := r.URL.Query().Get("since"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid since parameter %q", raw))
			return
		}
		since = n
	}
	events, err := s.manager.EventsSince(chi.URLParam(r, "matchID"), since)
	if err != nil {
		s.writeError(w, statusFor(err), err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"events": events})
}

func (s *Server) handleHints(w http.ResponseWriter, r *http.Request) {
	seat, err := seatParam(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	hints, err := s.manager.Hints(chi.URLParam(r, "matchID"), seat)
	if err != nil {
		s.writeError(w, statusFor(err), err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"hints": hints})
}

type actionResponse struct {
	Events []game.Event    `json:"events"`
	View   *game.MatchView `json:"view"`
}

func (s *Server) handleAction(w http.ResponseWriter, r *http.Request) {
	var action game.Action
	if err := json.NewDecoder(r.Body).Decode(&action); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid action body: %w", err))
		return
	}
	events, view, err := s.manager.Apply(chi.URLParam(r, "matchID"), action)
	if err != nil {
		s.writeError(w, statusFor(err), err)
		return
	}
	s.writeJSON(w, http.StatusOK, actionResponse{Events: events, View: view})
}

func (s *Server) handleClose(w http.ResponseWriter, r *http.Request) {
	if s.adminHash == "" {
		s.writeError(w, http.StatusForbidden, fmt.Errorf("admin endpoints are disabled"))
		return
	}
	password := r.Header.Get("X-Admin-Password")
	if err := bcrypt.CompareHashAndPassword([]byte(s.adminHash), []byte(password)); err != nil {
		s.writeError(w, http.StatusUnauthorized, fmt.Errorf("invalid admin credentials"))
		return
	}
	if err := s.manager.Close(chi.URLParam(r, "matchID")); err != nil {
		s.writeError(w, statusFor(err), err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleArchive(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			limit = n
		}
	}
	rows, err := s.store.RecentMatches(r.Context(), limit)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"matches": rows})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	health := map[string]any{
		"status":       "ok",
		"open_matches": s.manager.Open(),
		"cards":        s.catalog.Size(),
	}
	if s.db != nil {
		if err := s.db.Ping(r.Context()); err != nil {
			health["status"] = "degraded"
			health["database"] = err.Error()
			s.writeJSON(w, http.StatusServiceUnavailable, health)
			return
		}
		health["database"] = s.db.Stats()
	}
	s.writeJSON(w, http.StatusOK, health)
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	matchID := chi.URLParam(r, "matchID")
	if _, err := s.manager.View(matchID, game.PlayerOne); err != nil {
		s.writeError(w, statusFor(err), err)
		return
	}
	s.hub.ServeWS(w, r, matchID)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)
		s.logger.Debug("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", sw.status),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}

// seatParam parses the observer seat; defaults to player one.
func seatParam(r *http.Request) (game.PlayerID, error) {
	raw := r.URL.Query().Get("seat")
	switch raw {
	case "", "0":
		return game.PlayerOne, nil
	case "1":
		return game.PlayerTwo, nil
	default:
		return 0, fmt.Errorf("invalid seat %q", raw)
	}
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	var illegal *game.IllegalActionError
	var corrupt *catalog.CorruptDeckError
	switch {
	case errors.Is(err, ErrMatchNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrServerFull):
		return http.StatusServiceUnavailable
	case errors.As(err, &illegal), errors.As(err, &corrupt):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
