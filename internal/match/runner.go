package match

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/pokefree/ptcg-sim-go/internal/game"
	"github.com/pokefree/ptcg-sim-go/internal/game/rules"
)

// Policy decides one action from the legal set, given the view its seat
// is entitled to. Implementations live in the ai package; a human seat is
// just a Policy backed by a transport.
type Policy interface {
	Name() string
	ChooseAction(view *game.MatchView, legal []game.Action) (game.Action, error)
}

// DefaultMaxTurns bounds a runner-driven match; hitting it is a draw.
const DefaultMaxTurns = 200

// Result summarizes a finished match.
type Result struct {
	MatchID string
	Winner  *game.PlayerID
	IsDraw  bool
	Turns   int
	Actions int
	Reason  string
}

// Runner plays a match to completion by prompting two policies through
// the engine. A policy that misbehaves is re-prompted once and then
// overridden with a fallback legal action, so a buggy or hostile policy
// can never wedge a match.
type Runner struct {
	engine   *Engine
	logger   *zap.Logger
	recorder *game.ReplayRecorder
	maxTurns int
}

// NewRunner creates a runner. The recorder may be nil to skip replay
// capture; maxTurns <= 0 selects DefaultMaxTurns.
func NewRunner(engine *Engine, logger *zap.Logger, recorder *game.ReplayRecorder, maxTurns int) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxTurns <= 0 {
		maxTurns = DefaultMaxTurns
	}
	return &Runner{engine: engine, logger: logger, recorder: recorder, maxTurns: maxTurns}
}

// Run drives the match from its current position to a terminal state.
func (r *Runner) Run(s *game.State, policies [2]Policy) (*Result, error) {
	if s.Phase == game.PhaseSetup {
		if err := r.engine.Start(s); err != nil {
			return nil, err
		}
	}

	actions := 0
	// A turn has a bounded number of distinct plays, but a policy could
	// loop zero-progress moves (switch back and forth); the action cap
	// catches that independently of the turn cap.
	maxActions := r.maxTurns * 50

	for !s.Over {
		if s.Turn > r.maxTurns {
			s.RecordDraw(fmt.Sprintf("turn limit of %d reached", r.maxTurns))
			break
		}
		if actions >= maxActions {
			s.RecordDraw("action limit reached")
			break
		}

		actor := s.ActivePlayer
		if len(s.PendingPromotions) > 0 {
			actor = s.PendingPromotions[0]
		}
		legal := rules.LegalActions(s, actor)
		if len(legal) == 0 {
			return nil, &game.InvariantViolationError{
				Reason:    fmt.Sprintf("no legal actions for player %d in a live match", actor),
				StateDump: s.Dump(),
			}
		}

		action := r.choose(s, policies[actor], actor, legal)
		events, err := r.engine.Apply(s, action)
		if err != nil {
			return nil, err
		}
		if r.recorder != nil {
			r.recorder.RecordStep(s.MatchID, action, events)
		}
		actions++
	}

	result := &Result{
		MatchID: s.MatchID,
		Winner:  s.Winner,
		IsDraw:  s.IsDraw,
		Turns:   s.Turn,
		Actions: actions,
	}
	for i := len(s.Events) - 1; i >= 0; i-- {
		if s.Events[i].Type == game.EventMatchWon || s.Events[i].Type == game.EventMatchDrawn {
			result.Reason = s.Events[i].Data["reason"]
			break
		}
	}
	return result, nil
}

// choose prompts the policy, re-prompts once on failure, and finally
// falls back to the first legal action.
func (r *Runner) choose(s *game.State, policy Policy, actor game.PlayerID, legal []game.Action) game.Action {
	view := s.View(actor)
	for attempt := 0; attempt < 2; attempt++ {
		action, err := policy.ChooseAction(view, legal)
		if err == nil && game.ContainsAction(legal, action) {
			return action
		}
		reason := "action outside the legal set"
		if err != nil {
			reason = err.Error()
		}
		perr := &game.PolicyError{Player: actor, Reason: reason}
		r.logger.Warn("policy failure",
			zap.String("match_id", s.MatchID),
			zap.String("policy", policy.Name()),
			zap.Int("attempt", attempt+1),
			zap.Error(perr),
		)
	}
	r.logger.Warn("policy overridden with fallback action",
		zap.String("match_id", s.MatchID),
		zap.String("policy", policy.Name()),
		zap.String("action", legal[0].Key()),
	)
	return legal[0]
}
