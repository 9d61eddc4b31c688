// Package rules implements the pure legality layer: given a state and a
// candidate action it answers legal or illegal-with-reason, and it can
// enumerate the complete legal-action set for a player. Nothing in this
// package mutates state, so it is safe to call speculatively (the AI
// searches with it) and concurrently from read-only observers.
package rules

import (
	"github.com/pokefree/ptcg-sim-go/internal/catalog"
	"github.com/pokefree/ptcg-sim-go/internal/game"
)

// Validate checks one candidate action against the current state.
// A nil result means legal; otherwise the result is a
// *game.IllegalActionError carrying the reason.
func Validate(s *game.State, a game.Action) error {
	if s.Over {
		return game.Illegal(a, "match is over")
	}
	if !a.Player.Valid() {
		return game.Illegal(a, "unknown player %d", a.Player)
	}

	// Forced replacement windows suspend everything else.
	if len(s.PendingPromotions) > 0 {
		owing := s.PendingPromotions[0]
		if a.Type != game.ActionPromote {
			return game.Illegal(a, "a replacement Active must be chosen first")
		}
		if a.Player != owing {
			return game.Illegal(a, "replacement is owed by player %d", owing)
		}
		return validatePromote(s, a)
	}

	if a.Type == game.ActionPromote {
		return game.Illegal(a, "no replacement is owed")
	}
	if a.Player != s.ActivePlayer {
		return game.Illegal(a, "not this player's turn")
	}
	if s.Phase != game.PhaseMain {
		return game.Illegal(a, "actions are only accepted in the main phase, not %s", s.Phase)
	}

	switch a.Type {
	case game.ActionPass:
		return nil
	case game.ActionPlayBasic:
		return validatePlayBasic(s, a)
	case game.ActionEvolve:
		return validateEvolve(s, a)
	case game.ActionAttachEnergy:
		return validateAttachEnergy(s, a)
	case game.ActionRetreat:
		return validateRetreat(s, a)
	case game.ActionAttack:
		return validateAttack(s, a)
	case game.ActionPlayTrainer:
		return validateTrainer(s, a)
	default:
		return game.Illegal(a, "unknown action type %q", a.Type)
	}
}

func handCard(s *game.State, a game.Action) (*game.CardInstance, *catalog.CardDefinition, error) {
	p := s.Player(a.Player)
	if a.HandIndex < 0 || a.HandIndex >= len(p.Hand) {
		return nil, nil, game.Illegal(a, "hand index %d out of range", a.HandIndex)
	}
	ci := p.Hand[a.HandIndex]
	return ci, s.Definition(ci), nil
}

func boardTarget(s *game.State, a game.Action) (*game.CardInstance, error) {
	target := s.Player(a.Player).InPlay(a.TargetIndex)
	if target == nil {
		return nil, game.Illegal(a, "no creature at board position %d", a.TargetIndex)
	}
	return target, nil
}

func validatePlayBasic(s *game.State, a game.Action) error {
	_, def, err := handCard(s, a)
	if err != nil {
		return err
	}
	if !def.IsBasicPokemon() {
		return game.Illegal(a, "%s is not a basic Pokémon", def.Name)
	}
	if s.Player(a.Player).BenchFull() {
		return game.Illegal(a, "bench is full")
	}
	return nil
}

func validateEvolve(s *game.State, a game.Action) error {
	_, def, err := handCard(s, a)
	if err != nil {
		return err
	}
	if !def.IsEvolution() {
		return game.Illegal(a, "%s is not an evolution card", def.Name)
	}
	target, err := boardTarget(s, a)
	if err != nil {
		return err
	}
	targetDef := s.Definition(target)
	if def.EvolvesFrom != targetDef.Name {
		return game.Illegal(a, "%s does not evolve from %s", def.Name, targetDef.Name)
	}
	if s.Turn <= 2 {
		return game.Illegal(a, "no evolution on a player's first turn")
	}
	if target.TurnPlayed >= s.Turn {
		return game.Illegal(a, "%s just entered play this turn", targetDef.Name)
	}
	return nil
}

func validateAttachEnergy(s *game.State, a game.Action) error {
	_, def, err := handCard(s, a)
	if err != nil {
		return err
	}
	if def.Supertype != catalog.SupertypeEnergy {
		return game.Illegal(a, "%s is not an energy card", def.Name)
	}
	if s.Player(a.Player).AttachedEnergy {
		return game.Illegal(a, "energy already attached this turn")
	}
	if _, err := boardTarget(s, a); err != nil {
		return err
	}
	return nil
}

func validateRetreat(s *game.State, a game.Action) error {
	p := s.Player(a.Player)
	if p.Active == nil {
		return game.Illegal(a, "no Active creature")
	}
	if p.Retreated {
		return game.Illegal(a, "already retreated this turn")
	}
	if p.Active.Status.BlocksRetreat() {
		return game.Illegal(a, "%s cannot retreat while %v", s.Definition(p.Active).Name, p.Active.Status.List())
	}
	if a.TargetIndex < 0 || a.TargetIndex >= len(p.Bench) {
		return game.Illegal(a, "no benched creature at %d to promote", a.TargetIndex)
	}
	cost := s.Definition(p.Active).RetreatCost
	if s.AttachedEnergy(p.Active).Total() < cost {
		return game.Illegal(a, "insufficient energy to pay retreat cost %d", cost)
	}
	return nil
}

func validateAttack(s *game.State, a game.Action) error {
	p := s.Player(a.Player)
	if p.Active == nil {
		return game.Illegal(a, "no Active creature")
	}
	if s.Turn == 1 {
		return game.Illegal(a, "the player going first cannot attack on the first turn")
	}
	def := s.Definition(p.Active)
	if a.AttackIndex < 0 || a.AttackIndex >= len(def.Attacks) {
		return game.Illegal(a, "%s has no attack %d", def.Name, a.AttackIndex)
	}
	if p.Active.Status.BlocksAttack() {
		return game.Illegal(a, "%s cannot attack while %v", def.Name, p.Active.Status.List())
	}
	attack := def.Attacks[a.AttackIndex]
	if !s.AttachedEnergy(p.Active).CanPay(attack.Cost) {
		return game.Illegal(a, "insufficient energy cost for %s (needs %s)", attack.Name, attack.Cost.String())
	}
	return nil
}

func validateTrainer(s *game.State, a game.Action) error {
	_, def, err := handCard(s, a)
	if err != nil {
		return err
	}
	if def.Supertype != catalog.SupertypeTrainer {
		return game.Illegal(a, "%s is not a trainer card", def.Name)
	}
	p := s.Player(a.Player)

	switch def.TrainerKind {
	case catalog.TrainerSupporter:
		if p.PlayedSupporter {
			return game.Illegal(a, "supporter already used this turn")
		}
	case catalog.TrainerStadium:
		if s.Stadium != nil && s.Definition(s.Stadium).Name == def.Name {
			return game.Illegal(a, "a stadium named %s is already in play", def.Name)
		}
		return nil
	case catalog.TrainerTool:
		target, err := boardTarget(s, a)
		if err != nil {
			return err
		}
		if len(target.Tools) > 0 {
			return game.Illegal(a, "%s already holds a tool", s.Definition(target).Name)
		}
		return nil
	case catalog.TrainerItem:
		// fall through to effect preconditions
	default:
		return game.Illegal(a, "unknown trainer kind %q", def.TrainerKind)
	}

	return validateEffectPreconditions(s, a, def.Effects)
}

// validateEffectPreconditions rejects trainer plays whose effect could do
// nothing at all.
func validateEffectPreconditions(s *game.State, a game.Action, effects []catalog.Effect) error {
	p := s.Player(a.Player)
	for _, eff := range effects {
		switch eff.Kind {
		case catalog.EffectHeal:
			if p.Active == nil || p.Active.Damage == 0 {
				return game.Illegal(a, "nothing to heal")
			}
		case catalog.EffectDraw, catalog.EffectShuffleDraw:
			if len(p.Deck) == 0 {
				return game.Illegal(a, "deck is empty")
			}
		case catalog.EffectSwitchSelf:
			if len(p.Bench) == 0 {
				return game.Illegal(a, "no benched creature to switch with")
			}
			if a.TargetIndex < 0 || a.TargetIndex >= len(p.Bench) {
				return game.Illegal(a, "no benched creature at %d", a.TargetIndex)
			}
		case catalog.EffectSearchBasic:
			if len(p.Deck) == 0 {
				return game.Illegal(a, "deck is empty")
			}
			if p.BenchFull() {
				return game.Illegal(a, "bench is full")
			}
		}
	}
	return nil
}

func validatePromote(s *game.State, a game.Action) error {
	p := s.Player(a.Player)
	if p.Active != nil {
		return game.Illegal(a, "Active spot is not empty")
	}
	if a.TargetIndex < 0 || a.TargetIndex >= len(p.Bench) {
		return game.Illegal(a, "no benched creature at %d to promote", a.TargetIndex)
	}
	return nil
}
