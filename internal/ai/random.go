package ai

import (
	"fmt"
	"math/rand"

	"github.com/pokefree/ptcg-sim-go/internal/game"
)

// Random picks uniformly from the legal set. It owns a private seeded
// stream so simulations stay reproducible independently of the match RNG.
type Random struct {
	rng *rand.Rand
}

// NewRandom creates a random policy with its own seeded stream.
func NewRandom(seed int64) *Random {
	return &Random{rng: rand.New(rand.NewSource(seed))}
}

func (r *Random) Name() string { return "random" }

func (r *Random) ChooseAction(_ *game.MatchView, legal []game.Action) (game.Action, error) {
	if len(legal) == 0 {
		return game.Action{}, fmt.Errorf("random: empty legal set")
	}
	return legal[r.rng.Intn(len(legal))], nil
}
