// Package match drives a game from setup to a terminal state. The Engine
// is the single writer of match state: every mutation goes through Apply,
// which re-validates the action against the rules checker, resolves it,
// sweeps knockouts and advances the turn structure. Controllers only ever
// see views and legal-action sets.
package match

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/pokefree/ptcg-sim-go/internal/catalog"
	"github.com/pokefree/ptcg-sim-go/internal/game"
	"github.com/pokefree/ptcg-sim-go/internal/game/effects"
	"github.com/pokefree/ptcg-sim-go/internal/game/energy"
	"github.com/pokefree/ptcg-sim-go/internal/game/rules"
	"github.com/pokefree/ptcg-sim-go/internal/game/status"
)

// Engine applies actions to match states. It is stateless apart from its
// logger, so one engine can serve many concurrent matches as long as each
// state is only mutated from one goroutine at a time.
type Engine struct {
	logger *zap.Logger
}

// NewEngine creates an engine. A nil logger disables logging.
func NewEngine(logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{logger: logger}
}

// Start transitions a freshly set-up match into turn 1 of the player the
// opening toss selected, including the mandatory draw.
func (e *Engine) Start(s *game.State) error {
	if s.Phase != game.PhaseSetup {
		return fmt.Errorf("match %s already started (phase %s)", s.MatchID, s.Phase)
	}
	e.beginTurn(s, s.ActivePlayer)
	return s.CheckInvariants()
}

// Apply validates one action, resolves it, and advances the match as far
// as it can without further input (knockout sweeps, checkup, turn flips).
// It returns the events the action produced. An IllegalActionError leaves
// the state untouched; any other error is fatal to the match.
func (e *Engine) Apply(s *game.State, a game.Action) ([]game.Event, error) {
	if err := rules.Validate(s, a); err != nil {
		return nil, err
	}
	before := len(s.Events)

	var err error
	switch a.Type {
	case game.ActionPlayBasic:
		e.playBasic(s, a)
	case game.ActionEvolve:
		e.evolve(s, a)
	case game.ActionAttachEnergy:
		e.attachEnergy(s, a)
	case game.ActionRetreat:
		e.retreat(s, a)
	case game.ActionAttack:
		err = e.attack(s, a)
	case game.ActionPlayTrainer:
		err = e.playTrainer(s, a)
	case game.ActionPromote:
		e.promote(s, a)
	case game.ActionPass:
		s.TurnEnding = true
	default:
		err = game.Illegal(a, "unknown action type %q", a.Type)
	}
	if err != nil {
		return nil, err
	}

	e.sweepKnockouts(s)
	e.settle(s)

	if err := s.CheckInvariants(); err != nil {
		return nil, err
	}

	events := s.Events[before:]
	e.logger.Debug("action applied",
		zap.String("match_id", s.MatchID),
		zap.String("action", a.Key()),
		zap.Int("turn", s.Turn),
		zap.Int("events", len(events)),
	)
	return events, nil
}

// settle runs the automatic turn machinery until the match needs input
// again: end-of-turn checkup once all promotions are in, then the next
// turn's draw.
func (e *Engine) settle(s *game.State) {
	for !s.Over && len(s.PendingPromotions) == 0 {
		switch {
		case s.Phase == game.PhaseMain && s.TurnEnding:
			e.endTurn(s)
		case s.Phase == game.PhaseBetweenTurns:
			e.beginTurn(s, s.ActivePlayer.Opponent())
		default:
			return
		}
	}
}

func (e *Engine) beginTurn(s *game.State, pid game.PlayerID) {
	s.ActivePlayer = pid
	s.Turn++
	s.TurnEnding = false
	s.Player(pid).ResetTurnFlags()

	s.Phase = game.PhaseDraw
	p := s.Player(pid)
	s.Emit(game.EventTurnStarted, pid,
		fmt.Sprintf("turn %d: %s", s.Turn, p.Name), nil)

	card, ok := p.DrawCard()
	if !ok {
		p.DeckedOut = true
		s.Emit(game.EventDeckOut, pid,
			fmt.Sprintf("%s cannot draw from an empty deck", p.Name), nil)
		s.RecordWin(pid.Opponent(), fmt.Sprintf("%s decked out", p.Name))
		return
	}
	s.Emit(game.EventCardDrawn, pid,
		fmt.Sprintf("%s draws for turn", p.Name),
		map[string]string{"card": string(card.CardID), "reason": "turn draw"})

	s.Phase = game.PhaseMain
}

// endTurn runs the between-turns checkup: poison and burn tick on both
// Actives, sleep checks wake, and paralysis wears off the player whose
// turn just ended.
func (e *Engine) endTurn(s *game.State) {
	ending := s.ActivePlayer
	s.Emit(game.EventTurnEnded, ending,
		fmt.Sprintf("turn %d ends", s.Turn), nil)
	s.Phase = game.PhaseCheckup

	for idx := range s.Players {
		pid := game.PlayerID(idx)
		e.checkupFor(s, pid, pid == ending)
	}

	e.sweepKnockouts(s)
	if s.Over {
		return
	}
	s.Phase = game.PhaseBetweenTurns
}

func (e *Engine) checkupFor(s *game.State, pid game.PlayerID, turnEnded bool) {
	active := s.Player(pid).Active
	if active == nil {
		return
	}
	name := s.Definition(active).Name

	if active.Status.Has(status.Poisoned) {
		active.Damage += status.PoisonDamage
		s.Emit(game.EventCheckup, pid,
			fmt.Sprintf("%s takes %d poison damage", name, status.PoisonDamage),
			map[string]string{"card": string(active.CardID), "condition": string(status.Poisoned)})
	}
	if active.Status.Has(status.Burned) {
		active.Damage += status.BurnDamage
		s.Emit(game.EventCheckup, pid,
			fmt.Sprintf("%s takes %d burn damage", name, status.BurnDamage),
			map[string]string{"card": string(active.CardID), "condition": string(status.Burned)})
		if s.FlipCoin(pid, "burn recovery") {
			active.Status.Remove(status.Burned)
			s.Emit(game.EventStatusRemoved, pid,
				fmt.Sprintf("%s is no longer burned", name),
				map[string]string{"card": string(active.CardID), "condition": string(status.Burned)})
		}
	}
	if active.Status.Has(status.Asleep) {
		if s.FlipCoin(pid, "wake up") {
			active.Status.Remove(status.Asleep)
			s.Emit(game.EventStatusRemoved, pid,
				fmt.Sprintf("%s wakes up", name),
				map[string]string{"card": string(active.CardID), "condition": string(status.Asleep)})
		}
	}
	if turnEnded && active.Status.Has(status.Paralyzed) {
		active.Status.Remove(status.Paralyzed)
		s.Emit(game.EventStatusRemoved, pid,
			fmt.Sprintf("%s is no longer paralyzed", name),
			map[string]string{"card": string(active.CardID), "condition": string(status.Paralyzed)})
	}
}

func (e *Engine) playBasic(s *game.State, a game.Action) {
	p := s.Player(a.Player)
	card := p.RemoveHandAt(a.HandIndex)
	card.TurnPlayed = s.Turn
	p.Bench = append(p.Bench, card)
	s.Emit(game.EventBenched, a.Player,
		fmt.Sprintf("%s benches %s", p.Name, s.Definition(card).Name),
		map[string]string{"card": string(card.CardID)})
}

// evolve stacks the evolution on top of the target: damage and
// attachments carry over, conditions are cured, and the evolution counts
// as newly entered play.
func (e *Engine) evolve(s *game.State, a game.Action) {
	p := s.Player(a.Player)
	evo := p.RemoveHandAt(a.HandIndex)
	target := p.InPlay(a.TargetIndex)

	evo.Damage = target.Damage
	evo.Energy = target.Energy
	evo.Tools = target.Tools
	evo.Underneath = append(target.Underneath, target)
	evo.TurnPlayed = s.Turn

	target.Damage = 0
	target.Energy = nil
	target.Tools = nil
	target.Underneath = nil
	target.Status.Clear()

	if a.TargetIndex < 0 {
		p.Active = evo
	} else {
		p.Bench[a.TargetIndex] = evo
	}
	s.Emit(game.EventEvolved, a.Player,
		fmt.Sprintf("%s evolves %s into %s", p.Name,
			s.Definition(target).Name, s.Definition(evo).Name),
		map[string]string{"from": string(target.CardID), "into": string(evo.CardID)})
}

func (e *Engine) attachEnergy(s *game.State, a game.Action) {
	p := s.Player(a.Player)
	card := p.RemoveHandAt(a.HandIndex)
	target := p.InPlay(a.TargetIndex)
	target.Energy = append(target.Energy, card)
	p.AttachedEnergy = true
	s.Emit(game.EventEnergyAttached, a.Player,
		fmt.Sprintf("%s attaches %s to %s", p.Name,
			s.Definition(card).Name, s.Definition(target).Name),
		map[string]string{"card": string(card.CardID), "to": string(target.CardID)})
}

// retreat pays the retreat cost by discarding attached energy, then swaps
// the Active with the chosen benched creature. Conditions stay behind.
func (e *Engine) retreat(s *game.State, a game.Action) {
	p := s.Player(a.Player)
	outgoing := p.Active
	cost := s.Definition(outgoing).RetreatCost

	payment := s.AttachedEnergy(outgoing).Payment(energy.Cost{Colorless: cost})
	for i := len(outgoing.Energy) - 1; i >= 0 && payment.Total() > 0; i-- {
		card := outgoing.Energy[i]
		t := s.Definition(card).EnergyType
		if payment[t] == 0 {
			continue
		}
		payment[t]--
		outgoing.Energy = append(outgoing.Energy[:i], outgoing.Energy[i+1:]...)
		s.MoveToDiscard(a.Player, card)
		s.Emit(game.EventEnergyDiscard, a.Player,
			fmt.Sprintf("%s discarded to pay retreat cost", s.Definition(card).Name),
			map[string]string{"card": string(card.CardID)})
	}

	p.Active = p.Bench[a.TargetIndex]
	p.Bench[a.TargetIndex] = outgoing
	outgoing.Status.Clear()
	p.Retreated = true
	s.Emit(game.EventRetreated, a.Player,
		fmt.Sprintf("%s retreats %s for %s", p.Name,
			s.Definition(outgoing).Name, s.Definition(p.Active).Name),
		map[string]string{"out": string(outgoing.CardID), "in": string(p.Active.CardID)})
}

// attack resolves the Active creature's attack: confusion check, printed
// damage with weakness and resistance, then the attack's effect list.
// Attacking always ends the turn, whether it lands or fails.
func (e *Engine) attack(s *game.State, a game.Action) error {
	p := s.Player(a.Player)
	opp := s.Opponent(a.Player)
	attacker := p.Active
	attack := s.Definition(attacker).Attacks[a.AttackIndex]
	s.TurnEnding = true

	if attacker.Status.Has(status.Confused) {
		if !s.FlipCoin(a.Player, "confusion check") {
			attacker.Damage += status.ConfusionSelfDamage
			s.Emit(game.EventDamage, a.Player,
				fmt.Sprintf("%s hurts itself in confusion for %d",
					s.Definition(attacker).Name, status.ConfusionSelfDamage),
				map[string]string{
					"card":   string(attacker.CardID),
					"amount": fmt.Sprintf("%d", status.ConfusionSelfDamage),
					"reason": "confusion",
				})
			return nil
		}
	}

	defender := opp.Active
	s.Emit(game.EventAttack, a.Player,
		fmt.Sprintf("%s uses %s", s.Definition(attacker).Name, attack.Name),
		map[string]string{"attack": attack.Name, "card": string(attacker.CardID)})

	if attack.Damage > 0 && defender != nil {
		damage, modifier := e.modifiedDamage(s, attacker, defender, attack.Damage)
		defender.Damage += damage
		data := map[string]string{
			"card":   string(defender.CardID),
			"amount": fmt.Sprintf("%d", damage),
			"reason": "attack",
		}
		if modifier != "" {
			data["modifier"] = modifier
		}
		s.Emit(game.EventDamage, a.Player.Opponent(),
			fmt.Sprintf("%s takes %d damage", s.Definition(defender).Name, damage), data)
	}

	return effects.Apply(s, effects.Request{Owner: a.Player, TargetIndex: a.TargetIndex}, attack.Effects)
}

// modifiedDamage applies weakness (double) then resistance (minus 30,
// floored at zero) to an attack's printed damage.
func (e *Engine) modifiedDamage(s *game.State, attacker, defender *game.CardInstance, base int) (int, string) {
	attackerTypes := s.Definition(attacker).Types
	defDef := s.Definition(defender)
	damage := base
	modifier := ""

	if defDef.Weakness != "" && hasType(attackerTypes, defDef.Weakness) {
		damage *= 2
		modifier = "weakness"
	}
	if defDef.Resistance != "" && hasType(attackerTypes, defDef.Resistance) {
		damage -= 30
		if damage < 0 {
			damage = 0
		}
		if modifier != "" {
			modifier += "+resistance"
		} else {
			modifier = "resistance"
		}
	}
	return damage, modifier
}

func hasType(types []energy.Type, t energy.Type) bool {
	for _, have := range types {
		if have == t {
			return true
		}
	}
	return false
}

func (e *Engine) playTrainer(s *game.State, a game.Action) error {
	p := s.Player(a.Player)
	card := p.RemoveHandAt(a.HandIndex)
	def := s.Definition(card)

	switch def.TrainerKind {
	case catalog.TrainerStadium:
		if s.Stadium != nil {
			old := s.Stadium
			s.MoveToDiscard(s.StadiumOwner, old)
			s.Emit(game.EventTrainerPlayed, s.StadiumOwner,
				fmt.Sprintf("%s leaves play", s.Definition(old).Name),
				map[string]string{"card": string(old.CardID)})
		}
		s.Stadium = card
		s.StadiumOwner = a.Player
		s.Emit(game.EventStadiumPlaced, a.Player,
			fmt.Sprintf("%s puts %s in play", p.Name, def.Name),
			map[string]string{"card": string(card.CardID)})
		return nil

	case catalog.TrainerTool:
		target := p.InPlay(a.TargetIndex)
		target.Tools = append(target.Tools, card)
		s.Emit(game.EventTrainerPlayed, a.Player,
			fmt.Sprintf("%s attaches %s to %s", p.Name, def.Name, s.Definition(target).Name),
			map[string]string{"card": string(card.CardID), "to": string(target.CardID)})
		return nil

	case catalog.TrainerSupporter:
		p.PlayedSupporter = true
	}

	s.Emit(game.EventTrainerPlayed, a.Player,
		fmt.Sprintf("%s plays %s", p.Name, def.Name),
		map[string]string{"card": string(card.CardID), "kind": string(def.TrainerKind)})

	err := effects.Apply(s, effects.Request{Owner: a.Player, TargetIndex: a.TargetIndex}, def.Effects)
	s.MoveToDiscard(a.Player, card)
	return err
}

func (e *Engine) promote(s *game.State, a game.Action) {
	p := s.Player(a.Player)
	card := p.PromoteFromBench(a.TargetIndex)
	s.PendingPromotions = s.PendingPromotions[1:]
	s.Emit(game.EventPromoted, a.Player,
		fmt.Sprintf("%s promotes %s to Active", p.Name, s.Definition(card).Name),
		map[string]string{"card": string(card.CardID)})
}

// sweepKnockouts removes every creature at zero HP, awards prizes and
// resolves the match outcome, including simultaneous losses as a draw.
func (e *Engine) sweepKnockouts(s *game.State) {
	if s.Over {
		return
	}
	for idx := range s.Players {
		pid := game.PlayerID(idx)
		p := s.Player(pid)
		for i := len(p.Bench) - 1; i >= 0; i-- {
			if s.RemainingHP(p.Bench[i]) == 0 {
				ci := p.Bench[i]
				p.Bench = append(p.Bench[:i], p.Bench[i+1:]...)
				e.knockout(s, pid, ci)
			}
		}
		if p.Active != nil && s.RemainingHP(p.Active) == 0 {
			ci := p.Active
			p.Active = nil
			e.knockout(s, pid, ci)
			e.owePromotion(s, pid)
		}
	}
	e.resolveOutcome(s)
}

func (e *Engine) knockout(s *game.State, owner game.PlayerID, ci *game.CardInstance) {
	def := s.Definition(ci)
	s.Emit(game.EventKnockout, owner,
		fmt.Sprintf("%s is knocked out", def.Name),
		map[string]string{"card": string(ci.CardID)})
	s.MoveToDiscard(owner, ci)

	taker := s.Player(owner.Opponent())
	for i := 0; i < def.Prizes(); i++ {
		card, ok := taker.TakePrize()
		if !ok {
			break
		}
		s.Emit(game.EventPrizeTaken, owner.Opponent(),
			fmt.Sprintf("%s takes a prize card (%d left)", taker.Name, len(taker.Prizes)),
			map[string]string{"card": string(card.CardID)})
	}
}

func (e *Engine) owePromotion(s *game.State, pid game.PlayerID) {
	for _, owed := range s.PendingPromotions {
		if owed == pid {
			return
		}
	}
	s.PendingPromotions = append(s.PendingPromotions, pid)
}

// resolveOutcome checks the win conditions. When both players satisfy a
// loss condition at once the match is an explicit draw, never a win for
// either side.
func (e *Engine) resolveOutcome(s *game.State) {
	if s.Over {
		return
	}
	var wins [2]bool
	var reasons [2]string
	for idx := range s.Players {
		pid := game.PlayerID(idx)
		opp := s.Player(pid.Opponent())
		if len(s.Player(pid).Prizes) == 0 {
			wins[pid] = true
			reasons[pid] = "all prizes taken"
		}
		if opp.Active == nil && len(opp.Bench) == 0 {
			wins[pid] = true
			reasons[pid] = fmt.Sprintf("%s has no creatures in play", opp.Name)
		}
	}
	switch {
	case wins[0] && wins[1]:
		s.RecordDraw("both players met a loss condition simultaneously")
	case wins[0]:
		s.RecordWin(game.PlayerOne, reasons[0])
	case wins[1]:
		s.RecordWin(game.PlayerTwo, reasons[1])
	}
	if s.Over {
		s.PendingPromotions = nil
	}
}
