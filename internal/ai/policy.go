// Package ai provides decision policies for driving match seats without
// a human: a seeded uniform-random baseline, a greedy heuristic, and a
// coach that turns the heuristic's scoring into ranked hints. Policies
// only ever see the view their seat is entitled to, never hidden zones.
package ai

import (
	"github.com/pokefree/ptcg-sim-go/internal/game"
)

// Hint is one suggested action with the score and reasoning behind it.
type Hint struct {
	Action game.Action `json:"action"`
	Score  float64     `json:"score"`
	Reason string      `json:"reason"`
}

// score rates a legal action from the acting player's view. The reason
// string is surfaced by the coach; the policies only compare scores.
func score(view *game.MatchView, a game.Action) (float64, string) {
	switch a.Type {
	case game.ActionAttack:
		return scoreAttack(view, a)
	case game.ActionEvolve:
		return 40, "evolving raises HP and unlocks stronger attacks"
	case game.ActionPlayBasic:
		// A thin bench loses to a single knockout; fill it early.
		s := 35 - 5*float64(len(view.Self.Bench))
		return s, "benching a basic protects against running out of creatures"
	case game.ActionAttachEnergy:
		return scoreAttach(view, a)
	case game.ActionPlayTrainer:
		if len(view.Self.Hand) <= 3 {
			return 32, "low on cards; trainer effects refill options"
		}
		return 25, "trainer effects are free value this turn"
	case game.ActionRetreat:
		return scoreRetreat(view, a)
	case game.ActionPromote:
		if a.TargetIndex >= 0 && a.TargetIndex < len(view.Self.Bench) {
			hp := float64(view.Self.Bench[a.TargetIndex].RemainingHP)
			return hp, "promote the healthiest creature"
		}
		return 0, "promote"
	case game.ActionPass:
		return 0, "nothing better to do"
	default:
		return -1, "unscored action"
	}
}

func scoreAttack(view *game.MatchView, a game.Action) (float64, string) {
	active := view.Self.Active
	if active == nil || a.AttackIndex < 0 || a.AttackIndex >= len(active.Attacks) {
		return -1, "no such attack"
	}
	attack := active.Attacks[a.AttackIndex]
	s := 50 + float64(attack.Damage)
	reason := "attacking pressures the opponent"
	if def := view.Opponent.Active; def != nil && attack.Damage >= def.RemainingHP && attack.Damage > 0 {
		s += 100
		reason = "this attack can knock out the defender"
	}
	return s, reason
}

func scoreAttach(view *game.MatchView, a game.Action) (float64, string) {
	// Powering up the Active toward its strongest attack beats spreading
	// energy on the bench.
	if a.TargetIndex < 0 {
		if active := view.Self.Active; active != nil {
			for _, attack := range active.Attacks {
				if !attack.Payable {
					return 45, "the Active still has unpaid attacks"
				}
			}
		}
		return 15, "extra energy keeps retreat options open"
	}
	return 10, "building up a benched attacker"
}

func scoreRetreat(view *game.MatchView, a game.Action) (float64, string) {
	active := view.Self.Active
	if active == nil || a.TargetIndex < 0 || a.TargetIndex >= len(view.Self.Bench) {
		return -1, "no retreat target"
	}
	incoming := view.Self.Bench[a.TargetIndex]
	if active.RemainingHP <= 20 && incoming.RemainingHP > active.RemainingHP {
		return 30, "the Active is about to be knocked out"
	}
	return -10, "retreating spends energy for little"
}

// bestAction returns the highest scoring action, ties broken by legal
// set order so the choice is deterministic.
func bestAction(view *game.MatchView, legal []game.Action) game.Action {
	best := legal[0]
	bestScore, _ := score(view, best)
	for _, a := range legal[1:] {
		if s, _ := score(view, a); s > bestScore {
			best = a
			bestScore = s
		}
	}
	return best
}
