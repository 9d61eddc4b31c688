package rules

import (
	"github.com/pokefree/ptcg-sim-go/internal/catalog"
	"github.com/pokefree/ptcg-sim-go/internal/game"
)

// LegalActions enumerates every action the player may take right now.
// Candidates are generated structurally and then filtered through
// Validate, so the two entry points can never disagree. The result is
// empty when it is not the player's turn to act.
func LegalActions(s *game.State, p game.PlayerID) []game.Action {
	var legal []game.Action
	for _, candidate := range candidates(s, p) {
		if Validate(s, candidate) == nil {
			legal = append(legal, candidate)
		}
	}
	return legal
}

func candidates(s *game.State, pid game.PlayerID) []game.Action {
	if s.Over || !pid.Valid() {
		return nil
	}
	p := s.Player(pid)

	if len(s.PendingPromotions) > 0 {
		var out []game.Action
		for i := range p.Bench {
			out = append(out, game.Action{Type: game.ActionPromote, Player: pid, TargetIndex: i})
		}
		return out
	}

	if pid != s.ActivePlayer || s.Phase != game.PhaseMain {
		return nil
	}

	out := []game.Action{{Type: game.ActionPass, Player: pid}}

	for h, ci := range p.Hand {
		def := s.Definition(ci)
		switch {
		case def.IsBasicPokemon():
			out = append(out, game.Action{Type: game.ActionPlayBasic, Player: pid, HandIndex: h})
		case def.IsEvolution():
			for _, t := range boardTargets(p) {
				out = append(out, game.Action{Type: game.ActionEvolve, Player: pid, HandIndex: h, TargetIndex: t})
			}
		case def.Supertype == catalog.SupertypeEnergy:
			for _, t := range boardTargets(p) {
				out = append(out, game.Action{Type: game.ActionAttachEnergy, Player: pid, HandIndex: h, TargetIndex: t})
			}
		case def.Supertype == catalog.SupertypeTrainer:
			out = append(out, trainerCandidates(p, pid, h, def)...)
		}
	}

	for i := range p.Bench {
		out = append(out, game.Action{Type: game.ActionRetreat, Player: pid, TargetIndex: i})
	}

	if p.Active != nil {
		for i := range s.Definition(p.Active).Attacks {
			out = append(out, game.Action{Type: game.ActionAttack, Player: pid, AttackIndex: i})
		}
	}

	return out
}

// boardTargets lists every occupied board position, Active first.
func boardTargets(p *game.PlayerState) []int {
	var targets []int
	if p.Active != nil {
		targets = append(targets, -1)
	}
	for i := range p.Bench {
		targets = append(targets, i)
	}
	return targets
}

func trainerCandidates(p *game.PlayerState, pid game.PlayerID, h int, def *catalog.CardDefinition) []game.Action {
	if def.TrainerKind == catalog.TrainerTool {
		var out []game.Action
		for _, t := range boardTargets(p) {
			out = append(out, game.Action{Type: game.ActionPlayTrainer, Player: pid, HandIndex: h, TargetIndex: t})
		}
		return out
	}
	for _, eff := range def.Effects {
		if eff.Kind == catalog.EffectSwitchSelf {
			var out []game.Action
			for i := range p.Bench {
				out = append(out, game.Action{Type: game.ActionPlayTrainer, Player: pid, HandIndex: h, TargetIndex: i})
			}
			return out
		}
	}
	return []game.Action{{Type: game.ActionPlayTrainer, Player: pid, HandIndex: h}}
}
