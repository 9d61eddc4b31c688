package ai

import (
	"sort"

	"github.com/pokefree/ptcg-sim-go/internal/game"
)

// Coach ranks the legal actions for a seat and explains each suggestion.
// It shares the greedy policy's scoring, so the top hint is exactly what
// the greedy policy would play.
type Coach struct{}

// NewCoach creates a coach.
func NewCoach() *Coach {
	return &Coach{}
}

// Hints scores every legal action and returns them best first. The sort
// is stable over the legal set order, so equal scores keep a fixed rank.
func (c *Coach) Hints(view *game.MatchView, legal []game.Action) []Hint {
	hints := make([]Hint, 0, len(legal))
	for _, a := range legal {
		s, reason := score(view, a)
		hints = append(hints, Hint{Action: a, Score: s, Reason: reason})
	}
	sort.SliceStable(hints, func(i, j int) bool {
		return hints[i].Score > hints[j].Score
	})
	return hints
}
