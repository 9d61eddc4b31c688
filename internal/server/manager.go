package server

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/pokefree/ptcg-sim-go/internal/ai"
	"github.com/pokefree/ptcg-sim-go/internal/catalog"
	"github.com/pokefree/ptcg-sim-go/internal/game"
	"github.com/pokefree/ptcg-sim-go/internal/game/rules"
	"github.com/pokefree/ptcg-sim-go/internal/match"
	"github.com/pokefree/ptcg-sim-go/internal/repository"
)

// ErrMatchNotFound reports an unknown match ID.
var ErrMatchNotFound = fmt.Errorf("match not found")

// ErrServerFull reports the in-memory match cap being reached.
var ErrServerFull = fmt.Errorf("match limit reached")

// aiActionCap bounds how many actions the AI may chain off one human
// action; a legal position always terminates well under this.
const aiActionCap = 500

// Session is one live match held by the server. The mutex serializes all
// engine access; the engine requires a single writer per state.
type Session struct {
	ID        string
	CreatedAt time.Time

	mu       sync.Mutex
	state    *game.State
	vsAI     bool
	aiSeat   game.PlayerID
	aiPolicy match.Policy
}

// Manager owns the live match table and drives AI seats.
type Manager struct {
	logger   *zap.Logger
	engine   *match.Engine
	catalog  *catalog.Catalog
	recorder *game.ReplayRecorder
	store    *repository.MatchStore
	hub      *Hub
	metrics  *Metrics
	coach    *ai.Coach
	maxOpen  int

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewManager creates a match manager. recorder, store, hub and metrics
// are all optional.
func NewManager(logger *zap.Logger, cat *catalog.Catalog, recorder *game.ReplayRecorder,
	store *repository.MatchStore, hub *Hub, metrics *Metrics, maxOpen int) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxOpen <= 0 {
		maxOpen = 256
	}
	return &Manager{
		logger:   logger,
		engine:   match.NewEngine(logger),
		catalog:  cat,
		recorder: recorder,
		store:    store,
		hub:      hub,
		metrics:  metrics,
		coach:    ai.NewCoach(),
		maxOpen:  maxOpen,
		sessions: make(map[string]*Session),
	}
}

// CreateParams configures a new match. An empty AIPolicy makes a hotseat
// match where both seats are driven over the API.
type CreateParams struct {
	Seed       int64
	PlayerName string
	AIPolicy   string
	Decks      [2][]catalog.ID
}

// Create sets up a match, starts turn 1 and, when the opening toss gave
// the AI the first turn, plays the AI up to the human's next decision.
func (m *Manager) Create(params CreateParams) (*Session, *game.MatchView, error) {
	if params.Seed == 0 {
		params.Seed = time.Now().UnixNano()
	}
	if params.PlayerName == "" {
		params.PlayerName = "player"
	}

	names := [2]string{params.PlayerName, "opponent"}
	var policy match.Policy
	switch params.AIPolicy {
	case "":
	case "greedy":
		policy = ai.NewHeuristic()
	case "random":
		policy = ai.NewRandom(params.Seed)
	default:
		return nil, nil, fmt.Errorf("unknown ai policy %q", params.AIPolicy)
	}
	if policy != nil {
		names[1] = "ai-" + policy.Name()
	}

	state, err := game.NewMatch(game.MatchConfig{
		Catalog: m.catalog,
		Seed:    params.Seed,
		Names:   names,
		Decks:   params.Decks,
	})
	if err != nil {
		return nil, nil, err
	}

	session := &Session{
		ID:        state.MatchID,
		CreatedAt: time.Now(),
		state:     state,
		vsAI:      policy != nil,
		aiSeat:    game.PlayerTwo,
		aiPolicy:  policy,
	}

	m.mu.Lock()
	if len(m.sessions) >= m.maxOpen {
		m.mu.Unlock()
		return nil, nil, ErrServerFull
	}
	m.sessions[session.ID] = session
	m.mu.Unlock()

	if m.recorder != nil {
		m.recorder.StartRecording(state, names, params.Decks)
	}
	if m.metrics != nil {
		m.metrics.matchesCreated.Inc()
		m.metrics.activeMatches.Inc()
	}

	session.mu.Lock()
	defer session.mu.Unlock()
	if err := m.engine.Start(state); err != nil {
		m.drop(session.ID)
		return nil, nil, err
	}
	m.publish(session, state.Events)
	if err := m.driveAI(session); err != nil {
		m.drop(session.ID)
		return nil, nil, err
	}
	if state.Over {
		m.finish(session)
	}

	m.logger.Info("match created",
		zap.String("match_id", session.ID),
		zap.Int64("seed", params.Seed),
		zap.Bool("vs_ai", session.vsAI),
	)
	return session, state.View(game.PlayerOne), nil
}

// Apply submits one action for a human-controlled seat, then plays any
// AI moves it unlocks. It returns every event produced, the human's own
// included.
func (m *Manager) Apply(matchID string, action game.Action) ([]game.Event, *game.MatchView, error) {
	session, err := m.get(matchID)
	if err != nil {
		return nil, nil, err
	}
	session.mu.Lock()
	defer session.mu.Unlock()

	if session.vsAI && action.Player == session.aiSeat {
		return nil, nil, game.Illegal(action, "seat is controlled by the AI")
	}

	before := len(session.state.Events)
	events, err := m.engine.Apply(session.state, action)
	if err != nil {
		if m.metrics != nil {
			m.metrics.actionsApplied.WithLabelValues("illegal").Inc()
		}
		return nil, nil, err
	}
	if m.metrics != nil {
		m.metrics.actionsApplied.WithLabelValues("ok").Inc()
	}
	if m.recorder != nil {
		m.recorder.RecordStep(matchID, action, events)
	}
	m.publish(session, events)

	if err := m.driveAI(session); err != nil {
		return nil, nil, err
	}
	if session.state.Over {
		m.finish(session)
	}
	return session.state.Events[before:], session.state.View(action.Player), nil
}

// driveAI plays the AI seat until the human is to act or the match ends.
// Caller holds the session lock.
func (m *Manager) driveAI(session *Session) error {
	if !session.vsAI {
		return nil
	}
	s := session.state
	for i := 0; !s.Over && i < aiActionCap; i++ {
		actor := s.ActivePlayer
		if len(s.PendingPromotions) > 0 {
			actor = s.PendingPromotions[0]
		}
		if actor != session.aiSeat {
			return nil
		}

		legal := rules.LegalActions(s, actor)
		if len(legal) == 0 {
			return &game.InvariantViolationError{
				Reason:    fmt.Sprintf("no legal actions for player %d in a live match", actor),
				StateDump: s.Dump(),
			}
		}
		action, err := session.aiPolicy.ChooseAction(s.View(actor), legal)
		if err != nil || !game.ContainsAction(legal, action) {
			m.logger.Warn("ai policy overridden with fallback action",
				zap.String("match_id", session.ID),
				zap.Error(err),
			)
			action = legal[0]
		}

		events, err := m.engine.Apply(s, action)
		if err != nil {
			return err
		}
		if m.metrics != nil {
			m.metrics.actionsApplied.WithLabelValues("ok").Inc()
		}
		if m.recorder != nil {
			m.recorder.RecordStep(session.ID, action, events)
		}
		m.publish(session, events)
	}
	if !s.Over {
		return &game.InvariantViolationError{
			Reason:    "ai action cap exceeded without yielding the turn",
			StateDump: s.Dump(),
		}
	}
	return nil
}

// finish archives a terminal match. The session stays queryable until
// it is closed. Caller holds the session lock.
func (m *Manager) finish(session *Session) {
	s := session.state
	outcome := "draw"
	if s.Winner != nil {
		outcome = "win"
	}
	if m.metrics != nil {
		m.metrics.matchesEnded.WithLabelValues(outcome).Inc()
	}
	if m.recorder != nil {
		if err := m.recorder.SaveReplay(session.ID); err != nil {
			m.logger.Error("failed to save replay", zap.String("match_id", session.ID), zap.Error(err))
		}
	}
	if m.store != nil {
		res := &match.Result{
			MatchID: s.MatchID,
			Winner:  s.Winner,
			IsDraw:  s.IsDraw,
			Turns:   s.Turn,
		}
		for i := len(s.Events) - 1; i >= 0; i-- {
			if s.Events[i].Type == game.EventMatchWon || s.Events[i].Type == game.EventMatchDrawn {
				res.Reason = s.Events[i].Data["reason"]
				break
			}
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := m.store.SaveResult(ctx, s, res); err != nil {
			m.logger.Error("failed to archive match", zap.String("match_id", session.ID), zap.Error(err))
		}
	}
	m.logger.Info("match finished",
		zap.String("match_id", session.ID),
		zap.String("outcome", outcome),
		zap.Int("turns", s.Turn),
	)
}

// View returns the seat-appropriate snapshot.
func (m *Manager) View(matchID string, seat game.PlayerID) (*game.MatchView, error) {
	session, err := m.get(matchID)
	if err != nil {
		return nil, err
	}
	session.mu.Lock()
	defer session.mu.Unlock()
	return session.state.View(seat), nil
}

// Legal returns the legal actions for a seat.
func (m *Manager) Legal(matchID string, seat game.PlayerID) ([]game.Action, error) {
	session, err := m.get(matchID)
	if err != nil {
		return nil, err
	}
	session.mu.Lock()
	defer session.mu.Unlock()
	return rules.LegalActions(session.state, seat), nil
}

// EventsSince returns the public event log after a sequence number.
func (m *Manager) EventsSince(matchID string, seq int) ([]game.Event, error) {
	session, err := m.get(matchID)
	if err != nil {
		return nil, err
	}
	session.mu.Lock()
	defer session.mu.Unlock()
	events := session.state.EventsSince(seq)
	return append([]game.Event(nil), events...), nil
}

// Hints ranks the legal actions for a seat with explanations.
func (m *Manager) Hints(matchID string, seat game.PlayerID) ([]ai.Hint, error) {
	session, err := m.get(matchID)
	if err != nil {
		return nil, err
	}
	session.mu.Lock()
	defer session.mu.Unlock()
	legal := rules.LegalActions(session.state, seat)
	return m.coach.Hints(session.state.View(seat), legal), nil
}

// Close removes a match from memory, flushing its replay if one is still
// being recorded.
func (m *Manager) Close(matchID string) error {
	session, err := m.get(matchID)
	if err != nil {
		return err
	}
	session.mu.Lock()
	if m.recorder != nil {
		if _, recording := m.recorder.GetReplay(matchID); recording {
			if err := m.recorder.SaveReplay(matchID); err != nil {
				m.logger.Warn("failed to save replay on close",
					zap.String("match_id", matchID), zap.Error(err))
			}
		}
	}
	session.mu.Unlock()

	m.drop(matchID)
	m.logger.Info("match closed", zap.String("match_id", matchID))
	return nil
}

// Open returns the number of live matches.
func (m *Manager) Open() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

func (m *Manager) get(matchID string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	session, ok := m.sessions[matchID]
	if !ok {
		return nil, ErrMatchNotFound
	}
	return session, nil
}

func (m *Manager) drop(matchID string) {
	m.mu.Lock()
	if _, ok := m.sessions[matchID]; ok {
		delete(m.sessions, matchID)
		if m.metrics != nil {
			m.metrics.activeMatches.Dec()
		}
	}
	m.mu.Unlock()
}

func (m *Manager) publish(session *Session, events []game.Event) {
	if m.metrics != nil {
		for _, ev := range events {
			if ev.Type == game.EventKnockout {
				m.metrics.knockouts.Inc()
			}
		}
	}
	if m.hub != nil {
		m.hub.BroadcastEvents(session.ID, events)
	}
}
