package ai

import (
	"fmt"

	"github.com/pokefree/ptcg-sim-go/internal/game"
)

// Heuristic is a greedy single-ply policy: it scores every legal action
// against the current view and takes the best one. It never errors and
// is fully deterministic for a given view and legal set.
type Heuristic struct{}

// NewHeuristic creates the greedy policy.
func NewHeuristic() *Heuristic {
	return &Heuristic{}
}

func (h *Heuristic) Name() string { return "greedy" }

func (h *Heuristic) ChooseAction(view *game.MatchView, legal []game.Action) (game.Action, error) {
	if len(legal) == 0 {
		return game.Action{}, fmt.Errorf("greedy: empty legal set")
	}
	return bestAction(view, legal), nil
}
